// Package repo implements the data persistence layer for the outbox queue,
// backed by GORM. This file contains database bootstrapping helpers for
// SQLite (pure Go driver), schema migrations, and corrupt-store recovery.
package repo

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
	"gorm.io/plugin/opentelemetry/tracing"

	"github.com/demographikon/go-canvass-sync/internal/domain"
)

// OpenSQLite opens (or creates) a SQLite database and applies PRAGMAs.
func OpenSQLite(path string) (*gorm.DB, error) {
	// Fail early if parent directory does not exist (instead of sqlite "out of memory (14)" on Windows).
	if dir := filepath.Dir(path); dir != "." {
		if _, err := os.Stat(dir); err != nil {
			return nil, err
		}
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	// PRAGMAs
	db.Exec("PRAGMA journal_mode=WAL;")
	db.Exec("PRAGMA synchronous=NORMAL;")
	db.Exec("PRAGMA foreign_keys=ON;")
	db.Exec("PRAGMA busy_timeout=5000;")

	// Pool. A non-shared in-memory database exists per connection, so it
	// must be pinned to a single one.
	if sqlDB, err := db.DB(); err == nil {
		if isMemoryPath(path) {
			sqlDB.SetMaxOpenConns(1)
		} else {
			sqlDB.SetMaxOpenConns(10)
			sqlDB.SetMaxIdleConns(10)
			sqlDB.SetConnMaxIdleTime(5 * time.Minute)
			sqlDB.SetConnMaxLifetime(30 * time.Minute)
		}
	}

	if err := db.Use(tracing.NewPlugin(tracing.WithoutMetrics())); err != nil {
		return nil, err
	}

	return db, nil
}

// AutoMigrate creates or updates the outbox schema.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&domain.Record{},
		&domain.DraftSnapshot{},
	)
}

// OpenOutbox opens the outbox store at path and migrates it, recovering
// from a corrupt file by moving it aside and starting with an empty queue.
//
// A store that cannot be opened or migrated must never block data
// collection: prior queued work is sacrificed (renamed to <path>.corrupt
// for post-mortem inspection) and a fresh database is created. In-memory
// databases (":memory:" or "file:...mode=memory") are opened directly with
// no recovery path.
func OpenOutbox(path string) (*gorm.DB, error) {
	db, err := OpenSQLite(path)
	if err == nil {
		if merr := AutoMigrate(db); merr == nil {
			return db, nil
		} else {
			err = merr
		}
		if sqlDB, derr := db.DB(); derr == nil {
			sqlDB.Close()
		}
	}

	if isMemoryPath(path) {
		return nil, err
	}

	log.Warn().Err(err).Str("path", path).Msg("outbox store unreadable, starting empty")
	if renameErr := os.Rename(path, path+".corrupt"); renameErr != nil && !os.IsNotExist(renameErr) {
		return nil, fmt.Errorf("move corrupt outbox store: %w", renameErr)
	}

	db, err = OpenSQLite(path)
	if err != nil {
		return nil, err
	}
	if err := AutoMigrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

// isMemoryPath reports whether path names an in-memory SQLite database.
func isMemoryPath(path string) bool {
	return path == ":memory:" ||
		(strings.HasPrefix(path, "file:") && strings.Contains(path, "mode=memory"))
}
