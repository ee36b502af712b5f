// Backup notifier.
//
// A secondary, lower-hardness delivery channel: after a successful send
// pass the full queue snapshot is posted to an external relay as a
// structured report. This channel must never block or distort primary
// delivery: its failures are annotations, and it is never retried by the
// delivery engine.
package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/demographikon/go-canvass-sync/internal/api"
	"github.com/demographikon/go-canvass-sync/internal/domain"
	"github.com/demographikon/go-canvass-sync/internal/utils"
)

// Reporter is the relay contract for backup reports.
type Reporter interface {
	SendReport(ctx context.Context, rep api.Report) error
}

// RecordSource supplies the queue snapshot a report carries.
type RecordSource interface {
	All(ctx context.Context) ([]domain.Record, error)
}

// BackupService assembles queue snapshots into backup reports.
type BackupService struct {
	Sessions SessionSource
	Records  RecordSource
	Relay    Reporter
}

// Notify implements Notifier: it snapshots the queue and posts it to the
// relay as JSON plus a CSV rendering. Any failure is returned to the caller
// for annotation only.
func (s *BackupService) Notify(ctx context.Context) error {
	sess, err := s.Sessions.Current()
	if err != nil {
		return err
	}
	recs, err := s.Records.All(ctx)
	if err != nil {
		return err
	}

	snap, err := json.Marshal(recs)
	if err != nil {
		return err
	}
	return s.Relay.SendReport(ctx, api.Report{
		ScopeID:   sess.ScopeID,
		Canvasser: sess.SubjectID,
		Date:      time.Now().UTC().Format(time.RFC3339),
		Snapshot:  snap,
		CSV:       utils.RecordsCSV(recs),
	})
}
