// Durable outbox queue.
//
// The outbox is the single source of truth for completed survey records and
// the only shared mutable resource in the engine. Every mutation funnels
// through this service (Finalize, MarkSent, MarkFailed) under one mutex, so
// a delivery pass and a concurrent finalize never interleave mid
// read-modify-write; the repo layer adds a transaction around the
// delete-then-insert upsert so no partial state is ever visible.
//
// Records are exclusively owned here: the delivery engine reads them and
// requests status mutations, but never constructs or deletes records
// directly.
package services

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/demographikon/go-canvass-sync/internal/domain"
)

// IDSource mints client record identifiers. It is injected so tests can
// substitute a deterministic generator.
type IDSource interface {
	NewID() string
}

// UUIDSource is the production IDSource, backed by random UUIDs.
type UUIDSource struct{}

// NewID returns a fresh UUIDv4 string.
func (UUIDSource) NewID() string { return uuid.NewString() }

// OutboxRepo defines the persistence contract required by OutboxService.
type OutboxRepo interface {
	UpsertRecord(ctx context.Context, db *gorm.DB, rec *domain.Record) error
	ListRecords(ctx context.Context, db *gorm.DB) ([]domain.Record, error)
	ListUnsent(ctx context.Context, db *gorm.DB) ([]domain.Record, error)
	ListRecordsPage(ctx context.Context, db *gorm.DB, offset, limit int) ([]domain.Record, error)
	CountRecords(ctx context.Context, db *gorm.DB) (total, unsent int64, err error)
	MarkSent(ctx context.Context, db *gorm.DB, id string) error
	MarkFailed(ctx context.Context, db *gorm.DB, id, detail string) error
	AddressesWithRecords(ctx context.Context, db *gorm.DB) (map[string]struct{}, error)
}

// OutboxService owns the canonical queue of completed records.
type OutboxService struct {
	// DB is the GORM handle for the durable store.
	DB *gorm.DB
	// Repo is the record repository used by this service.
	Repo OutboxRepo
	// IDs mints client_record_id values at finalize time.
	IDs IDSource

	// mu serializes the durable store's read-modify-write cycles.
	mu sync.Mutex
}

// NewOutboxService constructs an OutboxService with the production ID source.
func NewOutboxService(db *gorm.DB, r OutboxRepo) *OutboxService {
	return &OutboxService{DB: db, Repo: r, IDs: UUIDSource{}}
}

// Finalize turns a completed draft into a queue record and upserts it.
//
// A fresh client_record_id is minted here, exactly once per logical
// submission; re-finalizing the same address later produces a new record
// that replaces the old one (last write wins per address, regardless of the
// old record's sent flag). The persisted record is returned.
func (s *OutboxService) Finalize(ctx context.Context, d domain.Draft) (*domain.Record, error) {
	if strings.TrimSpace(d.Address) == "" {
		return nil, ErrNoAddress
	}
	rec := &domain.Record{
		ID:          s.IDs.NewID(),
		Address:     d.Address,
		Response:    d.Response,
		Party:       d.Party,
		Support:     d.Support,
		Likelihood:  d.Likelihood,
		Issue:       d.Issue,
		Notes:       d.Notes,
		Residents:   strings.Join(d.Residents, "|"),
		CanvassedAt: time.Now().UTC(),
	}

	if err := s.locked(ctx, func() error {
		return s.Repo.UpsertRecord(ctx, s.DB, rec)
	}); err != nil {
		return nil, err
	}
	log.Info().Str("record", rec.ID).Str("address", rec.Address).Str("response", rec.Response).Msg("record queued")
	return rec, nil
}

// ListUnsent returns all records awaiting delivery, in insertion order.
func (s *OutboxService) ListUnsent(ctx context.Context) ([]domain.Record, error) {
	return s.Repo.ListUnsent(ctx, s.DB)
}

// ListPage returns one page of the queue plus the total count.
func (s *OutboxService) ListPage(ctx context.Context, page, pageSize int) ([]domain.Record, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	total, _, err := s.Repo.CountRecords(ctx, s.DB)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.Record{}, 0, nil
	}
	items, err := s.Repo.ListRecordsPage(ctx, s.DB, (page-1)*pageSize, pageSize)
	return items, total, err
}

// All returns the full queue in insertion order (export and backup report).
func (s *OutboxService) All(ctx context.Context) ([]domain.Record, error) {
	return s.Repo.ListRecords(ctx, s.DB)
}

// Status reports queue counts for the operator: total queued and still
// unsent.
func (s *OutboxService) Status(ctx context.Context) (total, unsent int64, err error) {
	return s.Repo.CountRecords(ctx, s.DB)
}

// MarkSent flips a record's delivery flag to sent. The transition is
// monotonic; a record already sent is left untouched.
func (s *OutboxService) MarkSent(ctx context.Context, id string) error {
	return s.locked(ctx, func() error {
		return s.Repo.MarkSent(ctx, s.DB, id)
	})
}

// MarkFailed records a failed delivery attempt, keeping the error detail on
// the record for operator visibility.
func (s *OutboxService) MarkFailed(ctx context.Context, id, detail string) error {
	return s.locked(ctx, func() error {
		return s.Repo.MarkFailed(ctx, s.DB, id, detail)
	})
}

// VisitedAddresses implements VisitedLister for the roster service.
func (s *OutboxService) VisitedAddresses(ctx context.Context) (map[string]struct{}, error) {
	return s.Repo.AddressesWithRecords(ctx, s.DB)
}

// locked runs fn while holding the queue mutex.
func (s *OutboxService) locked(ctx context.Context, fn func() error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn()
}
