// Roster loading and scope validation.
//
// A roster is tabular text resolved deterministically from the session's
// scope identifier. Loading is fail-closed in two directions: a source that
// cannot be fetched or parsed falls back once to a bundled sample, and a
// source whose rows claim any other scope is rejected wholesale. A mixed
// or mismatched roster exposes zero entries rather than a filtered subset.
//
// Header naming across exports is inconsistent, so column detection is a
// fuzzy, case-folded match. Whether the first row is a header at all is an
// explicit configuration switch (sources disagree), never a guess.
package services

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
	"golang.org/x/text/cases"

	"github.com/demographikon/go-canvass-sync/internal/domain"
	"github.com/demographikon/go-canvass-sync/internal/sysutil"
)

// RosterFetcher is the remote contract required for roster loads.
type RosterFetcher interface {
	// FetchRoster retrieves raw tabular text from url.
	FetchRoster(ctx context.Context, url string) (string, error)
}

// VisitedLister supplies addresses that already hold a queue record, so the
// visited set survives restarts.
type VisitedLister interface {
	VisitedAddresses(ctx context.Context) (map[string]struct{}, error)
}

// RosterService loads, validates, and owns the current address roster.
// It is safe for concurrent use.
type RosterService struct {
	// Fetcher retrieves roster sources over the network.
	Fetcher RosterFetcher
	// Visited seeds the visited set from the outbox on every load.
	Visited VisitedLister

	// BaseURL is the prefix rosters are resolved under: a scope S maps to
	// BaseURL + "/" + S + ".csv".
	BaseURL string
	// FallbackPath is a bundled local CSV tried when the primary source
	// fails; its own failure is terminal.
	FallbackPath string
	// HasHeader selects whether row one is a header (true) or data (false).
	HasHeader bool

	mu      sync.RWMutex
	entries []domain.RosterEntry
	visited map[string]struct{}
}

// Load fetches and validates the roster for scopeID from the default
// source. See LoadFrom for the full contract.
func (s *RosterService) Load(ctx context.Context, scopeID string) ([]domain.RosterEntry, error) {
	return s.LoadFrom(ctx, scopeID, s.BaseURL+"/"+scopeID+".csv")
}

// LoadFrom fetches the roster at sourceURL, validates it against scopeID,
// and replaces the current roster. The override source is for testing and
// still runs the scope check. On fetch or parse failure the bundled
// fallback file is tried once; both failing is ErrRosterUnavailable.
// A scope mismatch is never recovered from: it fails the whole load.
func (s *RosterService) LoadFrom(ctx context.Context, scopeID, sourceURL string) ([]domain.RosterEntry, error) {
	entries, err := s.loadSource(ctx, scopeID, sourceURL)
	if err != nil {
		if errors.Is(err, ErrScopeMismatch) {
			return nil, err
		}
		log.Warn().Err(err).Str("source", sourceURL).Msg("primary roster source failed, trying fallback")
		entries, err = s.loadFallback(scopeID)
		if err != nil {
			if errors.Is(err, ErrScopeMismatch) {
				return nil, err
			}
			return nil, fmt.Errorf("%w: %v", ErrRosterUnavailable, err)
		}
	}

	visited := make(map[string]struct{})
	if s.Visited != nil {
		if seen, err := s.Visited.VisitedAddresses(ctx); err == nil {
			visited = seen
		} else {
			log.Warn().Err(err).Msg("could not seed visited addresses from outbox")
		}
	}

	s.mu.Lock()
	s.entries = entries
	s.visited = visited
	s.mu.Unlock()

	log.Info().Int("addresses", len(entries)).Str("scope", scopeID).Msg("roster loaded")
	return entries, nil
}

func (s *RosterService) loadSource(ctx context.Context, scopeID, sourceURL string) ([]domain.RosterEntry, error) {
	raw, err := s.Fetcher.FetchRoster(ctx, sourceURL)
	if err != nil {
		return nil, err
	}
	return ParseRoster(raw, scopeID, sourceURL, s.HasHeader)
}

func (s *RosterService) loadFallback(scopeID string) ([]domain.RosterEntry, error) {
	if s.FallbackPath == "" {
		return nil, errors.New("no fallback source configured")
	}
	b, err := os.ReadFile(s.FallbackPath)
	if err != nil {
		return nil, err
	}
	return ParseRoster(string(b), scopeID, s.FallbackPath, s.HasHeader)
}

// Entries returns the current roster entries (never mutated after a load)
// and the visited set. Both are copies safe for the caller to hold.
func (s *RosterService) Entries() ([]domain.RosterEntry, map[string]bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entries := make([]domain.RosterEntry, len(s.entries))
	copy(entries, s.entries)
	visited := make(map[string]bool, len(s.visited))
	for a := range s.visited {
		visited[a] = true
	}
	return entries, visited
}

// Lookup returns the roster entry for address and whether the address is
// present and not yet visited.
func (s *RosterService) Lookup(address string) (domain.RosterEntry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, seen := s.visited[address]; seen {
		return domain.RosterEntry{}, false
	}
	for _, e := range s.entries {
		if e.Address == address {
			return e, true
		}
	}
	return domain.RosterEntry{}, false
}

// Loaded reports whether a roster has been loaded.
func (s *RosterService) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries) > 0
}

// MarkVisited records that address has been finalized and must be excluded
// from future selection.
func (s *RosterService) MarkVisited(address string) {
	s.mu.Lock()
	if s.visited == nil {
		s.visited = make(map[string]struct{})
	}
	s.visited[address] = struct{}{}
	s.mu.Unlock()
}

// ---- parsing ----

// foldCaser performs Unicode case folding for header and scope comparison.
var foldCaser = cases.Fold()

// ParseRoster parses tabular text into grouped roster entries and enforces
// the scope check.
//
// With hasHeader, columns are located by fuzzy header match: the address
// column is the first whose folded name contains "address" or "addr", name
// columns are all whose folded names contain "name" (in source order), and
// a scope column is one named like "oa21cd"/"oa"/"scope"/"output area".
// Without a header the original fixed layout applies: columns one and two
// are name parts and column three is the address, and row one is data.
//
// Scope check, fail closed: when a scope column exists, every row must
// equal scopeID exactly or the whole parse fails with ErrScopeMismatch;
// when none exists, the folded scopeID must appear in sourceName.
func ParseRoster(raw, scopeID, sourceName string, hasHeader bool) ([]domain.RosterEntry, error) {
	raw = sysutil.StripBOM(strings.TrimSpace(raw))
	if raw == "" {
		return nil, ErrRosterEmpty
	}

	r := csv.NewReader(strings.NewReader(raw))
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse roster: %w", err)
	}
	if len(rows) == 0 {
		return nil, ErrRosterEmpty
	}

	nameCols := []int{0, 1}
	addrCol := 2
	scopeCol := -1
	data := rows

	if hasHeader {
		header := rows[0]
		data = rows[1:]
		nameCols = nameCols[:0]
		addrCol = -1
		for i, h := range header {
			f := foldCaser.String(strings.TrimSpace(h))
			switch {
			case addrCol < 0 && (strings.Contains(f, "address") || strings.Contains(f, "addr")):
				addrCol = i
			case strings.Contains(f, "name"):
				nameCols = append(nameCols, i)
			case scopeCol < 0 && isScopeHeader(f):
				scopeCol = i
			}
		}
		if addrCol < 0 {
			return nil, fmt.Errorf("parse roster: no address-like column in header %v", header)
		}
		if len(nameCols) == 0 {
			return nil, fmt.Errorf("parse roster: no name-like column in header %v", header)
		}
	}

	if scopeCol >= 0 {
		for i, row := range data {
			if scopeCol >= len(row) || strings.TrimSpace(row[scopeCol]) != scopeID {
				log.Error().Int("row", i+1).Str("want", scopeID).Msg("roster row outside session scope")
				return nil, ErrScopeMismatch
			}
		}
	} else if !strings.Contains(foldCaser.String(sourceName), foldCaser.String(scopeID)) {
		return nil, ErrScopeMismatch
	}

	entries := groupRows(data, nameCols, addrCol)
	if len(entries) == 0 {
		return nil, ErrRosterEmpty
	}
	return entries, nil
}

// isScopeHeader reports whether a folded header cell names the scope column.
func isScopeHeader(f string) bool {
	switch f {
	case "oa", "oa21cd", "oa_code", "scope", "scope_id", "tenant", "output area", "output_area":
		return true
	}
	return false
}

// groupRows collapses rows sharing a normalized address into one entry.
// Resident names are the trimmed concatenation of the row's name fields,
// appended in appearance order with a membership check so a repeated row
// never duplicates a resident. Rows with no address or no name are skipped.
func groupRows(rows [][]string, nameCols []int, addrCol int) []domain.RosterEntry {
	index := make(map[string]int)
	var entries []domain.RosterEntry

	for _, row := range rows {
		if addrCol >= len(row) {
			continue
		}
		address := normalizeSpace(row[addrCol])
		if address == "" {
			continue
		}

		parts := make([]string, 0, len(nameCols))
		for _, c := range nameCols {
			if c < len(row) {
				if p := strings.TrimSpace(row[c]); p != "" {
					parts = append(parts, p)
				}
			}
		}
		name := strings.Join(parts, " ")
		if name == "" {
			continue
		}

		key := foldCaser.String(address)
		i, ok := index[key]
		if !ok {
			index[key] = len(entries)
			entries = append(entries, domain.RosterEntry{Address: address})
			i = len(entries) - 1
		}
		if !containsString(entries[i].Residents, name) {
			entries[i].Residents = append(entries[i].Residents, name)
		}
	}
	return entries
}

// normalizeSpace trims and collapses internal whitespace runs to one space.
func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func containsString(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
