// Draft snapshot persistence.
//
// The wizard stores at most one in-progress draft so a pass survives a
// process restart. The snapshot is an opaque JSON payload owned by the
// wizard service; this file only moves it in and out of the single fixed
// row.
package repo

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/demographikon/go-canvass-sync/internal/domain"
)

// SaveDraftSnapshot writes (or replaces) the single draft snapshot row.
func SaveDraftSnapshot(ctx context.Context, db *gorm.DB, payload string) error {
	snap := domain.DraftSnapshot{
		ID:        domain.SnapshotID,
		Payload:   payload,
		UpdatedAt: time.Now().UTC(),
	}
	return db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"payload", "updated_at"}),
		}).
		Create(&snap).Error
}

// LoadDraftSnapshot returns the stored snapshot payload, or ("", nil) when
// none exists.
func LoadDraftSnapshot(ctx context.Context, db *gorm.DB) (string, error) {
	var snap domain.DraftSnapshot
	err := db.WithContext(ctx).First(&snap, domain.SnapshotID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return snap.Payload, nil
}

// ClearDraftSnapshot removes the snapshot row if present.
func ClearDraftSnapshot(ctx context.Context, db *gorm.DB) error {
	return db.WithContext(ctx).Delete(&domain.DraftSnapshot{}, domain.SnapshotID).Error
}
