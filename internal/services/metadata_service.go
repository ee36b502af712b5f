// Wizard metadata.
//
// Option sets for the survey steps are sourced from the remote API, never
// hardcoded. A payload missing any required set blocks the wizard from
// starting: incomplete enumerations are an operator-visible failure, not a
// silent default.
package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/demographikon/go-canvass-sync/internal/domain"
)

// MetadataFetcher is the remote contract for the enumeration fetch.
type MetadataFetcher interface {
	FetchMetadata(ctx context.Context) (*domain.Metadata, error)
}

// MetadataService fetches and caches the wizard option sets. The first
// successful fetch is reused for the process lifetime; a field session
// works against one consistent set of options.
type MetadataService struct {
	Fetcher MetadataFetcher

	mu     sync.Mutex
	cached *domain.Metadata
}

// Get returns the option sets, fetching them on first use. Every one of
// response, party, support, likelihood, and issue must be present and
// non-empty or the result is ErrMetadataIncomplete.
func (s *MetadataService) Get(ctx context.Context) (*domain.Metadata, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cached != nil {
		return s.cached, nil
	}

	md, err := s.Fetcher.FetchMetadata(ctx)
	if err != nil {
		return nil, err
	}
	if err := validateMetadata(md); err != nil {
		return nil, err
	}
	s.cached = md
	return md, nil
}

// validateMetadata enforces the fail-closed completeness rule.
func validateMetadata(md *domain.Metadata) error {
	required := []struct {
		name string
		set  []string
	}{
		{"response", md.Response},
		{"party", md.Party},
		{"support", md.Support},
		{"likelihood", md.Likelihood},
		{"issue", md.Issue},
	}
	for _, r := range required {
		if len(r.set) == 0 {
			return fmt.Errorf("%w: missing %q options", ErrMetadataIncomplete, r.name)
		}
	}
	return nil
}
