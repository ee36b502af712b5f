// Package httpapi wires the HTTP transport (Gin) to application services,
// middleware, and route handlers. It centralizes cross-cutting concerns such
// as tracing, correlation IDs, logging/redaction, panic recovery, metrics,
// CORS, security headers, and rate limiting.
//
// Design goals:
//   - Put observability first (OTel + Prometheus)
//   - Safe-by-default middleware ordering (RequestID → logging → recovery)
//   - Deterministic, minimal router setup; all dependencies injected
//   - Production-ready CORS and security header posture
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	_ "github.com/demographikon/go-canvass-sync/docs"
	"github.com/demographikon/go-canvass-sync/internal/api"
	"github.com/demographikon/go-canvass-sync/internal/config"
	"github.com/demographikon/go-canvass-sync/internal/domain"
	"github.com/demographikon/go-canvass-sync/internal/http/handlers"
	"github.com/demographikon/go-canvass-sync/internal/http/middleware"
	"github.com/demographikon/go-canvass-sync/internal/repo"
	"github.com/demographikon/go-canvass-sync/internal/services"
)

// outboxRepoShim adapts the repository free functions to the
// services.OutboxRepo interface expected by the OutboxService. This keeps
// services decoupled from the concrete repo package while reusing existing
// functions.
type outboxRepoShim struct{}

// UpsertRecord proxies repo.UpsertRecord.
func (outboxRepoShim) UpsertRecord(ctx context.Context, db *gorm.DB, rec *domain.Record) error {
	return repo.UpsertRecord(ctx, db, rec)
}

// ListRecords proxies repo.ListRecords.
func (outboxRepoShim) ListRecords(ctx context.Context, db *gorm.DB) ([]domain.Record, error) {
	return repo.ListRecords(ctx, db)
}

// ListUnsent proxies repo.ListUnsent.
func (outboxRepoShim) ListUnsent(ctx context.Context, db *gorm.DB) ([]domain.Record, error) {
	return repo.ListUnsent(ctx, db)
}

// ListRecordsPage proxies repo.ListRecordsPage (pagination support).
func (outboxRepoShim) ListRecordsPage(ctx context.Context, db *gorm.DB, offset, limit int) ([]domain.Record, error) {
	return repo.ListRecordsPage(ctx, db, offset, limit)
}

// CountRecords proxies repo.CountRecords.
func (outboxRepoShim) CountRecords(ctx context.Context, db *gorm.DB) (total, unsent int64, err error) {
	return repo.CountRecords(ctx, db)
}

// MarkSent proxies repo.MarkSent.
func (outboxRepoShim) MarkSent(ctx context.Context, db *gorm.DB, id string) error {
	return repo.MarkSent(ctx, db, id)
}

// MarkFailed proxies repo.MarkFailed.
func (outboxRepoShim) MarkFailed(ctx context.Context, db *gorm.DB, id, detail string) error {
	return repo.MarkFailed(ctx, db, id, detail)
}

// AddressesWithRecords proxies repo.AddressesWithRecords.
func (outboxRepoShim) AddressesWithRecords(ctx context.Context, db *gorm.DB) (map[string]struct{}, error) {
	return repo.AddressesWithRecords(ctx, db)
}

// snapshotStore adapts the draft snapshot repo functions to the
// services.SnapshotStore interface consumed by the wizard.
type snapshotStore struct{ db *gorm.DB }

// Save proxies repo.SaveDraftSnapshot.
func (s snapshotStore) Save(ctx context.Context, payload string) error {
	return repo.SaveDraftSnapshot(ctx, s.db, payload)
}

// Load proxies repo.LoadDraftSnapshot.
func (s snapshotStore) Load(ctx context.Context) (string, error) {
	return repo.LoadDraftSnapshot(ctx, s.db)
}

// Clear proxies repo.ClearDraftSnapshot.
func (s snapshotStore) Clear(ctx context.Context) error {
	return repo.ClearDraftSnapshot(ctx, s.db)
}

// Services bundles the application services constructed during route
// registration. The caller owns their lifecycle beyond request handling:
// restoring the wizard snapshot at startup and stopping the retry loop at
// shutdown.
type Services struct {
	Sessions *services.SessionService
	Metadata *services.MetadataService
	Roster   *services.RosterService
	Outbox   *services.OutboxService
	Wizard   *services.WizardService
	Delivery *services.DeliveryService
}

// RegisterRoutes attaches all middleware and HTTP endpoints to the given Gin
// engine and wires the application services on top of the outbox store and
// the remote API client. It returns the service bundle for lifecycle
// management by the caller.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. RedactingLogger: structured logs with PII scrubbing
//  4. Recovery: capture panics after logger
//  5. Body size limiter
//  6. Metrics
//  7. Rate limiter (per IP)
//  8. CORS and Security headers
//  9. Response compression
func RegisterRoutes(r *gin.Engine, db *gorm.DB, client *api.Client, cfg config.Config) *Services {
	r.HandleMethodNotAllowed = true

	// 1) Trace all HTTP requests
	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))

	// 2) Correlate requests and logs
	r.Use(middleware.RequestID())

	// 3) Structured logging with redaction; launch URLs carry one-time
	// tokens, report bodies carry the relay secret.
	r.Use(middleware.RedactingLogger(middleware.RedactOptions{
		MaskHeaders: []string{
			"Authorization",
		},
	}))

	// 4) Panic recovery to JSON 500 (with request id)
	r.Use(middleware.Recovery())

	// 5) Global body size limit (1 MiB)
	r.Use(limitBody(1 << 20))

	// 6) Prometheus metrics and /metrics endpoint
	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 7) Token-bucket rate limiter per IP
	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByIP())
	r.Use(rl.Handler())

	// 8) CORS posture (safe defaults: allow all if none configured)
	if len(cfg.CORS.AllowedOrigins) == 0 {
		// Force ACAO: * even for requests without an Origin header.
		r.Use(func(c *gin.Context) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowAllOrigins:  true,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
			ExposeHeaders:    []string{"X-Request-ID", "Content-Length"},
			AllowCredentials: false, // must remain false with AllowAllOrigins
			MaxAge:           12 * time.Hour,
		}))
	} else {
		// Echo ACAO with the request Origin when it is in the allowlist.
		allowed := make(map[string]struct{}, len(cfg.CORS.AllowedOrigins))
		for _, o := range cfg.CORS.AllowedOrigins {
			allowed[o] = struct{}{}
		}
		r.Use(func(c *gin.Context) {
			if origin := c.GetHeader("Origin"); origin != "" {
				if _, ok := allowed[origin]; ok {
					h := c.Writer.Header()
					h.Set("Access-Control-Allow-Origin", origin)
					h.Add("Vary", "Origin")
				}
			}
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.CORS.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
			ExposeHeaders:    []string{"X-Request-ID", "Content-Length"},
			AllowCredentials: false,
			MaxAge:           12 * time.Hour,
		}))
	}

	// Security headers (HSTS only when enabled and request is HTTPS)
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:   cfg.Security.EnableHSTS,
		HSTSMaxAge:   cfg.Security.HSTSMaxAge,
		NoStore:      false,
		EnablePolicy: true,
	}))

	// 9) Compress responses; roster and outbox payloads are repetitive.
	r.Use(gzip.Gzip(gzip.DefaultCompression))

	// Fallbacks
	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	// Liveness/health
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	// API docs (opt-in)
	if cfg.SwaggerEnabled {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	// Dependency injection: services ← repo/db/client
	sessionSvc := services.NewSessionService(client)
	sessionSvc.DevBypass = cfg.DevBypassAuth
	sessionSvc.DevScopeID = cfg.DevScopeID

	metadataSvc := &services.MetadataService{Fetcher: client}
	outboxSvc := services.NewOutboxService(db, outboxRepoShim{})

	rosterSvc := &services.RosterService{
		Fetcher:      client,
		Visited:      outboxSvc,
		BaseURL:      cfg.Remote.RosterBase,
		FallbackPath: cfg.Remote.RosterFallback,
		HasHeader:    cfg.RosterHasHeader,
	}

	wizardSvc := services.NewWizardService(rosterSvc, metadataSvc, outboxSvc, snapshotStore{db: db})

	backupSvc := &services.BackupService{
		Sessions: sessionSvc,
		Records:  outboxSvc,
		Relay:    client,
	}
	deliverySvc := &services.DeliveryService{
		Sessions:  sessionSvc,
		Queue:     outboxSvc,
		Submitter: client,
		Backup:    backupSvc,
		Interval:  cfg.RetryInterval,
	}

	h := handlers.New(sessionSvc, metadataSvc, rosterSvc, wizardSvc, outboxSvc, deliverySvc)

	// Public API
	apiBase := cfg.APIBasePath // e.g. "/api/v1"
	apiGrp := groupWithPrefix(r, apiBase)
	{
		// Session
		apiGrp.POST("/session", h.BootstrapSession)
		apiGrp.GET("/session", h.GetSession)

		// Metadata
		apiGrp.GET("/metadata", h.GetMetadata)

		// Roster
		apiGrp.POST("/roster/load", h.LoadRoster)
		apiGrp.GET("/roster", h.GetRoster)

		// Wizard
		apiGrp.GET("/wizard", h.GetWizard)
		apiGrp.POST("/wizard/address", h.SelectAddress)
		apiGrp.POST("/wizard/response", h.ChooseResponse)
		apiGrp.POST("/wizard/answer", h.AnswerStep)
		apiGrp.POST("/wizard/back", h.StepBack)
		apiGrp.POST("/wizard/abandon", h.AbandonPass)

		// Outbox / delivery
		apiGrp.GET("/outbox", h.ListOutbox)
		apiGrp.GET("/outbox/status", h.OutboxStatus)
		apiGrp.GET("/outbox/export", h.ExportOutbox)
		apiGrp.POST("/outbox/send", h.SendOutbox)
		apiGrp.POST("/outbox/retry", h.StartRetry)
		apiGrp.DELETE("/outbox/retry", h.StopRetry)
	}

	return &Services{
		Sessions: sessionSvc,
		Metadata: metadataSvc,
		Roster:   rosterSvc,
		Outbox:   outboxSvc,
		Wizard:   wizardSvc,
		Delivery: deliverySvc,
	}
}

// limitBody returns a Gin middleware that caps the request body size for all
// endpoints to maxBytes using http.MaxBytesReader. Requests exceeding the cap
// will cause downstream body reads to error.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// groupWithPrefix mounts a group at prefix, treating "/" (or empty) as root.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}
