package services

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/demographikon/go-canvass-sync/internal/api"
	"github.com/demographikon/go-canvass-sync/internal/domain"
)

// ----- Fakes -----

type fakeRecordSource struct {
	recs []domain.Record
	err  error
}

func (f *fakeRecordSource) All(ctx context.Context) ([]domain.Record, error) {
	return f.recs, f.err
}

type fakeReporter struct {
	got api.Report
	err error
}

func (f *fakeReporter) SendReport(ctx context.Context, rep api.Report) error {
	f.got = rep
	return f.err
}

// ----- Tests -----

func TestBackupNotify_BuildsReport(t *testing.T) {
	recs := []domain.Record{
		{ID: "r1", Address: "12 Mill Lane", Response: "no_response"},
		{ID: "r2", Address: "14 Mill Lane", Response: "response", Party: "alpha"},
	}
	relay := &fakeReporter{}
	s := &BackupService{
		Sessions: &fakeSessions{sess: &domain.Session{SubjectID: "u1", ScopeID: "E1"}},
		Records:  &fakeRecordSource{recs: recs},
		Relay:    relay,
	}

	if err := s.Notify(context.Background()); err != nil {
		t.Fatalf("Notify: %v", err)
	}
	if relay.got.ScopeID != "E1" || relay.got.Canvasser != "u1" {
		t.Errorf("report identity = %+v", relay.got)
	}
	if relay.got.Date == "" {
		t.Error("report date missing")
	}

	var snap []domain.Record
	if err := json.Unmarshal(relay.got.Snapshot, &snap); err != nil {
		t.Fatalf("snapshot not JSON: %v", err)
	}
	if len(snap) != 2 || snap[0].ID != "r1" {
		t.Errorf("snapshot = %+v", snap)
	}
	if !strings.Contains(relay.got.CSV, "12 Mill Lane") {
		t.Errorf("CSV rendering = %q", relay.got.CSV)
	}
}

func TestBackupNotify_PropagatesFailures(t *testing.T) {
	sess := &fakeSessions{sess: &domain.Session{ScopeID: "E1"}}

	s := &BackupService{Sessions: &fakeSessions{err: ErrNoSession}, Records: &fakeRecordSource{}, Relay: &fakeReporter{}}
	if err := s.Notify(context.Background()); !errors.Is(err, ErrNoSession) {
		t.Errorf("no session: err = %v", err)
	}

	s = &BackupService{Sessions: sess, Records: &fakeRecordSource{err: errors.New("db gone")}, Relay: &fakeReporter{}}
	if err := s.Notify(context.Background()); err == nil {
		t.Error("record source failure must propagate")
	}

	s = &BackupService{Sessions: sess, Records: &fakeRecordSource{}, Relay: &fakeReporter{err: errors.New("relay 500")}}
	if err := s.Notify(context.Background()); err == nil {
		t.Error("relay failure must propagate")
	}
}
