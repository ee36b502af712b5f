// Command canvass-sync runs the local synchronization engine for
// door-to-door canvassing. It bootstraps configuration and observability,
// opens the durable outbox store, restores any in-progress survey draft,
// and serves the local HTTP API until interrupted.
//
// @title       Canvass Sync API
// @version     1.0
// @description Offline-first survey record synchronization engine for door-to-door canvassing.
// @BasePath    /api/v1
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/demographikon/go-canvass-sync/internal/api"
	"github.com/demographikon/go-canvass-sync/internal/config"
	httpapi "github.com/demographikon/go-canvass-sync/internal/http"
	"github.com/demographikon/go-canvass-sync/internal/observability"
	"github.com/demographikon/go-canvass-sync/internal/repo"
	"github.com/demographikon/go-canvass-sync/internal/sysutil"
)

// version is stamped at build time via -ldflags.
var version = "dev"

func main() {
	// .env is a development convenience; absence is not an error.
	_ = godotenv.Load()

	cfg := config.MustLoad()

	sysutil.SetLogLevel(cfg.LogLevel)
	zerolog.TimeFieldFormat = time.RFC3339
	if cfg.LogPretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
	gin.SetMode(cfg.GinMode)

	ctx := context.Background()

	shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTEL, version)
	if err != nil {
		log.Fatal().Err(err).Msg("otel setup failed")
	}

	db, err := repo.OpenOutbox(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.DBPath).Msg("outbox store unavailable")
	}

	client := api.New(cfg.Remote.APIBase, cfg.Remote.Timeout)
	client.BackupURL = cfg.Remote.BackupURL
	client.BackupSecret = cfg.Remote.BackupSecret

	engine := gin.New()
	svcs := httpapi.RegisterRoutes(engine, db, client, cfg)

	// Pick up a survey pass interrupted by a crash or restart.
	svcs.Wizard.Restore(ctx)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           engine,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Str("version", version).Msg("canvass-sync listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down")

	// Stop the retry loop first so no pass races the server teardown.
	svcs.Delivery.StopRetry()

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown")
	}
	if err := shutdownOTel(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("otel shutdown")
	}
}
