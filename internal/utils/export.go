// Package utils provides small, generic helper functions used across
// different layers of the application. These utilities are independent
// of domain or business logic.
package utils

import (
	"encoding/csv"
	"strconv"
	"strings"
	"time"

	"github.com/demographikon/go-canvass-sync/internal/domain"
)

// recordHeader is the fixed column order of exported queue CSVs.
var recordHeader = []string{
	"client_record_id", "address", "response", "party", "support",
	"likelihood", "issue", "notes", "residents", "canvassed_at",
	"sent", "attempts", "last_error",
}

// RecordsCSV renders queued records as CSV with a fixed header row. An
// empty queue yields just the header. The output is used both for operator
// export downloads and as the backup report attachment.
func RecordsCSV(recs []domain.Record) string {
	var b strings.Builder
	w := csv.NewWriter(&b)

	_ = w.Write(recordHeader)
	for _, r := range recs {
		_ = w.Write([]string{
			r.ID,
			r.Address,
			r.Response,
			r.Party,
			r.Support,
			r.Likelihood,
			r.Issue,
			r.Notes,
			r.Residents,
			r.CanvassedAt.UTC().Format(time.RFC3339),
			strconv.FormatBool(r.Sent),
			strconv.Itoa(r.Attempts),
			r.LastError,
		})
	}
	w.Flush()
	return b.String()
}

// AtoiDefault converts a string to an int using strconv.Atoi.
// If the string is empty or cannot be parsed as an integer,
// it returns the provided default value instead.
func AtoiDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	return def
}
