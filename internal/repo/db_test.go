package repo

import (
	"path/filepath"
	"testing"
)

func TestOpenSQLite_MissingParentDir(t *testing.T) {
	_, err := OpenSQLite(filepath.Join(t.TempDir(), "nope", "outbox.db"))
	if err == nil {
		t.Fatal("expected error for missing parent directory")
	}
}

func TestOpenOutbox_Memory(t *testing.T) {
	db, err := OpenOutbox(":memory:")
	if err != nil {
		t.Fatalf("OpenOutbox(:memory:): %v", err)
	}
	if !db.Migrator().HasTable("records") {
		t.Error("records table missing after migrate")
	}
	if !db.Migrator().HasTable("draft_snapshot") {
		t.Error("draft_snapshot table missing after migrate")
	}
}

func TestIsMemoryPath(t *testing.T) {
	cases := []struct {
		path string
		want bool
	}{
		{":memory:", true},
		{"file::memory:?cache=shared&mode=memory", true},
		{"outbox.db", false},
		{"file:outbox.db", false},
	}
	for _, tc := range cases {
		if got := isMemoryPath(tc.path); got != tc.want {
			t.Errorf("isMemoryPath(%q) = %v; want %v", tc.path, got, tc.want)
		}
	}
}
