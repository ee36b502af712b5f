// Package repo implements the data persistence layer for the outbox queue,
// backed by GORM. This file provides repository functions for the Record
// model.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions or connection-scoped operations. They
// follow the "thin repository" approach: no business logic, only CRUD
// persistence and query composition.
//
// Error semantics:
//   - When a record is not found, functions return gorm.ErrRecordNotFound
//     (also exported here as ErrNotFound for convenience).
//   - On DB errors the raw gorm error is propagated.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/demographikon/go-canvass-sync/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound for convenience and consistency
// across the service layer and handlers.
var ErrNotFound = gorm.ErrRecordNotFound

// UpsertRecord replaces any existing record for rec.Address with rec, in a
// single transaction so a concurrent reader never observes both rows (or
// neither). The delete-then-insert shape implements the per-address
// last-write-wins contract: the superseded record disappears regardless of
// its sent flag.
func UpsertRecord(ctx context.Context, db *gorm.DB, rec *domain.Record) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("address = ?", rec.Address).Delete(&domain.Record{}).Error; err != nil {
			return err
		}
		return tx.Create(rec).Error
	})
}

// ListRecords returns every queued record in insertion order.
func ListRecords(ctx context.Context, db *gorm.DB) ([]domain.Record, error) {
	var recs []domain.Record
	err := db.WithContext(ctx).Order("created_at ASC, id ASC").Find(&recs).Error
	return recs, err
}

// ListUnsent returns all records still awaiting delivery, in insertion order.
func ListUnsent(ctx context.Context, db *gorm.DB) ([]domain.Record, error) {
	var recs []domain.Record
	err := db.WithContext(ctx).
		Where("sent = ?", false).
		Order("created_at ASC, id ASC").
		Find(&recs).Error
	return recs, err
}

// ListRecordsPage returns a page of queued records in insertion order.
func ListRecordsPage(ctx context.Context, db *gorm.DB, offset, limit int) ([]domain.Record, error) {
	var recs []domain.Record
	err := db.WithContext(ctx).
		Order("created_at ASC, id ASC").
		Offset(offset).Limit(limit).
		Find(&recs).Error
	return recs, err
}

// CountRecords returns (total, unsent) queue sizes.
func CountRecords(ctx context.Context, db *gorm.DB) (total, unsent int64, err error) {
	if err = db.WithContext(ctx).Model(&domain.Record{}).Count(&total).Error; err != nil {
		return 0, 0, err
	}
	err = db.WithContext(ctx).Model(&domain.Record{}).Where("sent = ?", false).Count(&unsent).Error
	return total, unsent, err
}

// MarkSent flips the record's sent flag to true and clears its last error.
// The flag is monotonic: a record already sent stays sent, and the update
// only ever targets the unsent row. Returns ErrNotFound when no unsent
// record carries id.
func MarkSent(ctx context.Context, db *gorm.DB, id string) error {
	res := db.WithContext(ctx).Model(&domain.Record{}).
		Where("id = ? AND sent = ?", id, false).
		Updates(map[string]any{
			"sent":       true,
			"last_error": "",
			"attempts":   gorm.Expr("attempts + 1"),
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// MarkFailed records a failed delivery attempt: the error detail is kept on
// the record for operator visibility and the attempt counter advances. The
// record stays unsent and eligible for the next pass. Returns ErrNotFound
// when no unsent record carries id.
func MarkFailed(ctx context.Context, db *gorm.DB, id, detail string) error {
	res := db.WithContext(ctx).Model(&domain.Record{}).
		Where("id = ? AND sent = ?", id, false).
		Updates(map[string]any{
			"last_error": detail,
			"attempts":   gorm.Expr("attempts + 1"),
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// AddressesWithRecords returns the set of addresses that already have a
// queued record (the "visited" set surviving restarts).
func AddressesWithRecords(ctx context.Context, db *gorm.DB) (map[string]struct{}, error) {
	var addrs []string
	if err := db.WithContext(ctx).Model(&domain.Record{}).Pluck("address", &addrs).Error; err != nil {
		return nil, err
	}
	out := make(map[string]struct{}, len(addrs))
	for _, a := range addrs {
		out[a] = struct{}{}
	}
	return out, nil
}
