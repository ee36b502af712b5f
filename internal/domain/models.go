// Package domain defines the persistence models for the outbox queue and
// the in-progress draft snapshot, plus the transient canvassing types
// (session, roster, draft, metadata). The persisted types are mapped with
// GORM and form the durable core of the sync engine.
package domain

import "time"

// Record is a finalized survey result queued for remote delivery.
//
// The primary key is the client-generated record identifier that the remote
// side deduplicates on: it is minted exactly once, when a draft is finalized,
// and is never regenerated for the same logical submission. Re-finalizing the
// same address produces a new Record (new ID) and replaces any prior Record
// for that address; the unique index on Address enforces the
// one-record-per-address invariant at the store level.
//
// Fields:
//   - ID: client_record_id, the idempotency token carried on every
//     submission attempt (char(36) UUID).
//   - Address: the canvassed address; unique within the queue.
//   - Response: the chosen response kind; terminal kinds leave the
//     remaining answer fields empty.
//   - Party / Support / Likelihood / Issue / Notes: wizard answers.
//   - Residents: names spoken to, pipe-separated (local bookkeeping and
//     backup report only; not part of the submission body).
//   - CanvassedAt: when the draft was finalized, UTC.
//   - Sent: delivery flag; transitions false→true exactly once and is
//     never reset.
//   - LastError: detail of the most recent failed attempt, kept for
//     operator visibility.
//   - Attempts: number of delivery attempts made so far.
type Record struct {
	ID          string    `json:"client_record_id" gorm:"type:char(36);primaryKey"`
	Address     string    `json:"address"          gorm:"type:varchar(255);not null;uniqueIndex:ux_records_address"`
	Response    string    `json:"response"         gorm:"type:varchar(32);not null"`
	Party       string    `json:"party,omitempty"      gorm:"type:varchar(32)"`
	Support     string    `json:"support,omitempty"    gorm:"type:varchar(32)"`
	Likelihood  string    `json:"likelihood,omitempty" gorm:"type:varchar(32)"`
	Issue       string    `json:"issue,omitempty"      gorm:"type:varchar(64)"`
	Notes       string    `json:"notes,omitempty"      gorm:"type:text"`
	Residents   string    `json:"residents,omitempty"  gorm:"type:text"`
	CanvassedAt time.Time `json:"canvassed_at"     gorm:"not null"`
	Sent        bool      `json:"sent"             gorm:"not null;default:false;index:idx_records_sent"`
	LastError   string    `json:"last_error,omitempty" gorm:"type:text"`
	Attempts    int       `json:"attempts"         gorm:"not null;default:0"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TableName returns the database table name for Record.
func (Record) TableName() string { return "records" }

// DraftSnapshot persists the single in-progress wizard draft so a pass can
// resume after a process restart. At most one row exists (fixed primary
// key); the snapshot is written on wizard transitions and deleted when the
// draft is finalized or abandoned.
type DraftSnapshot struct {
	ID        int       `gorm:"primaryKey"`
	Payload   string    `gorm:"type:text;not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// SnapshotID is the fixed primary key of the single DraftSnapshot row.
const SnapshotID = 1

// TableName returns the database table name for DraftSnapshot.
func (DraftSnapshot) TableName() string { return "draft_snapshot" }
