// Session and metadata HTTP handlers.
//
// This file also declares the service contracts consumed by the whole
// handlers package and the Handlers aggregate that binds them. Endpoints:
//   - POST /session    (bootstrap from a launch URL)
//   - GET  /session    (current identity)
//   - GET  /metadata   (survey option sets, cached fail-closed)
//
// Handlers are transport-thin: they validate input, call application
// services, and translate service errors into the stable code taxonomy.
package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/demographikon/go-canvass-sync/internal/domain"
	"github.com/demographikon/go-canvass-sync/internal/services"
)

//
// Service contracts (context-aware)
//

// SessionAPI exposes session bootstrap and lookup to HTTP handlers.
//
// Implementations must be safe for concurrent use.
type SessionAPI interface {
	// Bootstrap exchanges the one-time token carried by launchURL for a
	// scoped session.
	Bootstrap(ctx context.Context, launchURL string) (*domain.Session, error)
	// Current returns the active session or ErrNoSession.
	Current() (*domain.Session, error)
}

// MetadataAPI exposes the remotely sourced survey option sets.
type MetadataAPI interface {
	// Get returns validated metadata, fetching on first use and caching
	// thereafter.
	Get(ctx context.Context) (*domain.Metadata, error)
}

// RosterAPI exposes roster loading and read access to HTTP handlers.
type RosterAPI interface {
	// Load fetches, scope-checks and installs the roster for scopeID.
	Load(ctx context.Context, scopeID string) ([]domain.RosterEntry, error)
	// Entries returns the loaded roster and the visited-address set.
	Entries() ([]domain.RosterEntry, map[string]bool)
	// Loaded reports whether a roster has been installed.
	Loaded() bool
}

// WizardAPI exposes the survey pass state machine to HTTP handlers.
type WizardAPI interface {
	SelectAddress(ctx context.Context, address string) (services.View, error)
	ChooseResponse(ctx context.Context, kind string) (services.View, *domain.Record, error)
	Answer(ctx context.Context, values []string) (services.View, *domain.Record, error)
	Back(ctx context.Context) (services.View, error)
	Abandon(ctx context.Context) error
	Current(ctx context.Context) (services.View, error)
}

// OutboxAPI exposes read access to the durable record queue.
type OutboxAPI interface {
	// ListPage returns a page of queued records and the total count.
	ListPage(ctx context.Context, page, pageSize int) ([]domain.Record, int64, error)
	// All returns every queued record in stable order.
	All(ctx context.Context) ([]domain.Record, error)
	// Status returns total and unsent record counts.
	Status(ctx context.Context) (total, unsent int64, err error)
}

// DeliveryAPI exposes delivery passes and the retry loop to HTTP handlers.
type DeliveryAPI interface {
	// SendAll runs one delivery pass over the unsent records.
	SendAll(ctx context.Context) (services.Summary, error)
	// StartRetry launches the periodic retry loop; ErrRetryRunning when
	// one is already active.
	StartRetry(ctx context.Context) error
	// StopRetry cancels the loop and waits for it to exit. Idempotent.
	StopRetry()
	// Running reports whether a retry loop is active.
	Running() bool
}

//
// Handler wiring
//

// Handlers groups the HTTP endpoints of the local canvassing API. It depends
// on abstract service interfaces to keep transport concerns separate from
// business logic.
type Handlers struct {
	sessions SessionAPI
	metadata MetadataAPI
	roster   RosterAPI
	wizard   WizardAPI
	outbox   OutboxAPI
	delivery DeliveryAPI
}

// New constructs a Handlers instance bound to the given services.
func New(sessions SessionAPI, metadata MetadataAPI, roster RosterAPI, wizard WizardAPI, outbox OutboxAPI, delivery DeliveryAPI) *Handlers {
	return &Handlers{
		sessions: sessions,
		metadata: metadata,
		roster:   roster,
		wizard:   wizard,
		outbox:   outbox,
		delivery: delivery,
	}
}

//
// DTOs
//

// BootstrapRequest is the JSON payload for starting a session.
type BootstrapRequest struct {
	// LaunchURL is the full URL the client was opened with; the one-time
	// token is extracted from its query or fragment.
	LaunchURL string `json:"launch_url" binding:"required" example:"https://canvass.example.org/app?token=abc123"`
}

//
// Handlers
//

// BootstrapSession godoc
// @ID          bootstrapSession
// @Summary     Bootstrap a session from a launch URL
// @Description Extracts the one-time token from the launch URL, exchanges it remotely, and installs the resulting scoped session.
// @Tags        Session
// @Accept      json
// @Produce     json
//
// @Param       body  body  handlers.BootstrapRequest  true  "Launch URL payload"
//
// @Success     201  {object}  domain.Session
// @Failure     400  {object}  handlers.ErrorResponse  "Missing or malformed token"
// @Failure     401  {object}  handlers.ErrorResponse  "Exchange rejected"
// @Failure     403  {object}  handlers.ErrorResponse  "Session has no scope"
// @Failure     502  {object}  handlers.ErrorResponse  "Exchange unreachable"
// @Router      /session [post]
func (h *Handlers) BootstrapSession(c *gin.Context) {
	var req BootstrapRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	sess, err := h.sessions.Bootstrap(c.Request.Context(), strings.TrimSpace(req.LaunchURL))
	if err != nil {
		var rej *services.SessionRejectedError
		switch {
		case errors.Is(err, services.ErrMissingToken):
			fail(c, http.StatusBadRequest, ErrCodeMissingToken, err.Error())
		case errors.As(err, &rej):
			fail(c, http.StatusUnauthorized, ErrCodeSessionRejected, err.Error())
		case errors.Is(err, services.ErrMissingScope):
			fail(c, http.StatusForbidden, ErrCodeScopeMissing, err.Error())
		default:
			fail(c, http.StatusBadGateway, ErrCodeInternal, err.Error())
		}
		return
	}
	ok(c, http.StatusCreated, sess)
}

// GetSession godoc
// @ID          getSession
// @Summary     Current session
// @Description Returns the active scoped identity. The bearer credential is never serialized.
// @Tags        Session
// @Produce     json
//
// @Success     200  {object}  domain.Session
// @Failure     401  {object}  handlers.ErrorResponse  "No active session"
// @Router      /session [get]
func (h *Handlers) GetSession(c *gin.Context) {
	sess, err := h.sessions.Current()
	if err != nil {
		fail(c, http.StatusUnauthorized, ErrCodeNoSession, err.Error())
		return
	}
	ok(c, http.StatusOK, sess)
}

// GetMetadata godoc
// @ID          getMetadata
// @Summary     Survey option sets
// @Description Returns the remotely sourced option sets driving the wizard. Incomplete payloads are rejected rather than defaulted.
// @Tags        Metadata
// @Produce     json
//
// @Success     200  {object}  domain.Metadata
// @Failure     502  {object}  handlers.ErrorResponse  "Metadata unavailable or incomplete"
// @Router      /metadata [get]
func (h *Handlers) GetMetadata(c *gin.Context) {
	md, err := h.metadata.Get(c.Request.Context())
	if err != nil {
		if errors.Is(err, services.ErrMetadataIncomplete) {
			fail(c, http.StatusBadGateway, ErrCodeMetadataIncomplete, err.Error())
			return
		}
		fail(c, http.StatusBadGateway, ErrCodeInternal, err.Error())
		return
	}
	ok(c, http.StatusOK, md)
}
