package repo

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/demographikon/go-canvass-sync/internal/domain"
)

// openTestDB opens a fresh file-backed store under a temp dir.
func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := OpenOutbox(filepath.Join(t.TempDir(), "outbox.db"))
	if err != nil {
		t.Fatalf("OpenOutbox: %v", err)
	}
	return db
}

func rec(id, address string, at time.Time) *domain.Record {
	return &domain.Record{
		ID:          id,
		Address:     address,
		Response:    "response",
		CanvassedAt: at,
		CreatedAt:   at,
	}
}

func TestUpsertRecord_LastWriteWinsPerAddress(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	base := time.Now().UTC()

	if err := UpsertRecord(ctx, db, rec("r1", "12 Mill Lane", base)); err != nil {
		t.Fatalf("first upsert: %v", err)
	}
	// Even a delivered record is superseded by a later pass at the address.
	if err := MarkSent(ctx, db, "r1"); err != nil {
		t.Fatalf("MarkSent: %v", err)
	}
	if err := UpsertRecord(ctx, db, rec("r2", "12 Mill Lane", base.Add(time.Minute))); err != nil {
		t.Fatalf("second upsert: %v", err)
	}

	recs, err := ListRecords(ctx, db)
	if err != nil {
		t.Fatalf("ListRecords: %v", err)
	}
	if len(recs) != 1 {
		t.Fatalf("records = %d; want one per address", len(recs))
	}
	if recs[0].ID != "r2" || recs[0].Sent {
		t.Errorf("surviving record = %+v; want the fresh unsent one", recs[0])
	}
}

func TestListUnsent_InsertionOrder(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	base := time.Now().UTC()

	UpsertRecord(ctx, db, rec("r1", "a", base))
	UpsertRecord(ctx, db, rec("r2", "b", base.Add(time.Second)))
	UpsertRecord(ctx, db, rec("r3", "c", base.Add(2*time.Second)))
	MarkSent(ctx, db, "r2")

	unsent, err := ListUnsent(ctx, db)
	if err != nil {
		t.Fatalf("ListUnsent: %v", err)
	}
	if len(unsent) != 2 || unsent[0].ID != "r1" || unsent[1].ID != "r3" {
		t.Errorf("unsent = %+v; want r1 then r3", unsent)
	}
}

func TestListRecordsPage(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	base := time.Now().UTC()
	for i, id := range []string{"r1", "r2", "r3"} {
		UpsertRecord(ctx, db, rec(id, id+" St", base.Add(time.Duration(i)*time.Second)))
	}

	page, err := ListRecordsPage(ctx, db, 1, 2)
	if err != nil {
		t.Fatalf("ListRecordsPage: %v", err)
	}
	if len(page) != 2 || page[0].ID != "r2" || page[1].ID != "r3" {
		t.Errorf("page = %+v", page)
	}
}

func TestCountRecords(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	base := time.Now().UTC()
	UpsertRecord(ctx, db, rec("r1", "a", base))
	UpsertRecord(ctx, db, rec("r2", "b", base))
	MarkSent(ctx, db, "r1")

	total, unsent, err := CountRecords(ctx, db)
	if err != nil || total != 2 || unsent != 1 {
		t.Errorf("CountRecords = %d/%d, %v", total, unsent, err)
	}
}

func TestMarkSent_MonotonicAndClearsError(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	UpsertRecord(ctx, db, rec("r1", "a", time.Now().UTC()))

	if err := MarkFailed(ctx, db, "r1", "boom"); err != nil {
		t.Fatalf("MarkFailed: %v", err)
	}
	if err := MarkSent(ctx, db, "r1"); err != nil {
		t.Fatalf("MarkSent: %v", err)
	}

	recs, _ := ListRecords(ctx, db)
	got := recs[0]
	if !got.Sent || got.LastError != "" || got.Attempts != 2 {
		t.Errorf("record = %+v", got)
	}

	// Already sent: the transition never repeats.
	if err := MarkSent(ctx, db, "r1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("second MarkSent = %v; want ErrNotFound", err)
	}
	if err := MarkFailed(ctx, db, "r1", "late"); !errors.Is(err, ErrNotFound) {
		t.Errorf("MarkFailed after sent = %v; want ErrNotFound", err)
	}
}

func TestMarkSent_UnknownID(t *testing.T) {
	db := openTestDB(t)
	if err := MarkSent(context.Background(), db, "ghost"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v; want ErrNotFound", err)
	}
}

func TestAddressesWithRecords(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	base := time.Now().UTC()
	UpsertRecord(ctx, db, rec("r1", "a", base))
	UpsertRecord(ctx, db, rec("r2", "b", base))
	MarkSent(ctx, db, "r1")

	seen, err := AddressesWithRecords(ctx, db)
	if err != nil {
		t.Fatalf("AddressesWithRecords: %v", err)
	}
	if len(seen) != 2 {
		t.Errorf("seen = %v; sent and unsent both count as visited", seen)
	}
}

func TestOutbox_SurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "outbox.db")
	ctx := context.Background()

	db, err := OpenOutbox(path)
	if err != nil {
		t.Fatal(err)
	}
	UpsertRecord(ctx, db, rec("r1", "12 Mill Lane", time.Now().UTC()))
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}

	db, err = OpenOutbox(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	recs, err := ListRecords(ctx, db)
	if err != nil || len(recs) != 1 || recs[0].ID != "r1" {
		t.Errorf("after reopen: %+v, %v", recs, err)
	}
}

func TestOpenOutbox_CorruptFileStartsEmpty(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "outbox.db")
	if err := os.WriteFile(path, []byte("this is not a database"), 0o600); err != nil {
		t.Fatal(err)
	}

	db, err := OpenOutbox(path)
	if err != nil {
		t.Fatalf("OpenOutbox on corrupt file: %v", err)
	}
	recs, err := ListRecords(context.Background(), db)
	if err != nil || len(recs) != 0 {
		t.Errorf("fresh store: %+v, %v", recs, err)
	}
	if _, err := os.Stat(path + ".corrupt"); err != nil {
		t.Errorf("corrupt file must be kept aside: %v", err)
	}
}
