// Session bootstrap.
//
// A field worker arrives via a deep link carrying a one-time opaque token.
// Bootstrap exchanges that token for a scoped session: identity, role, one
// scope identifier, and a bearer credential held only in process memory.
// Without a scope the session is useless (every roster and record must stay
// inside one scope), so an exchange response lacking one is fatal rather
// than defaulted.
package services

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/demographikon/go-canvass-sync/internal/api"
	"github.com/demographikon/go-canvass-sync/internal/domain"
)

// TokenExchanger is the remote contract required for session bootstrap.
type TokenExchanger interface {
	// ExchangeToken swaps a one-time token for a session payload.
	ExchangeToken(ctx context.Context, token string) (*api.ExchangeResponse, error)
}

// SessionService performs the one-time token exchange and owns the current
// session for the process lifetime. It is safe for concurrent use.
type SessionService struct {
	// Exchanger performs the network exchange.
	Exchanger TokenExchanger

	// DevBypass, when true, lets Bootstrap fabricate a fixed synthetic
	// session instead of failing on a missing token. Off by default.
	DevBypass bool
	// DevScopeID is the scope assigned to the bypass session.
	DevScopeID string

	mu      sync.RWMutex
	current *domain.Session
}

// NewSessionService constructs a SessionService bound to the given exchanger.
func NewSessionService(ex TokenExchanger) *SessionService {
	return &SessionService{Exchanger: ex}
}

// Bootstrap exchanges the token found in launchURL for a session.
//
// The token is looked for in two places, in order: the plain query string
// (?token=…) and a query embedded after a client-side route fragment
// (#/route?token=…). A missing token fails with ErrMissingToken unless the
// dev bypass is enabled. A non-2xx exchange fails with
// *SessionRejectedError; a response without a scope identifier fails with
// ErrMissingScope. On success the session becomes current and is returned.
func (s *SessionService) Bootstrap(ctx context.Context, launchURL string) (*domain.Session, error) {
	token := ExtractToken(launchURL)
	if token == "" {
		if s.DevBypass {
			log.Warn().Msg("auth bypass active, using synthetic session")
			sess := &domain.Session{
				Bearer:    "dev-bypass",
				SubjectID: "dev-canvasser",
				Role:      "canvasser",
				ScopeID:   s.DevScopeID,
			}
			s.setCurrent(sess)
			return sess, nil
		}
		return nil, ErrMissingToken
	}

	resp, err := s.Exchanger.ExchangeToken(ctx, token)
	if err != nil {
		var se *api.StatusError
		if errors.As(err, &se) {
			return nil, &SessionRejectedError{Status: se.Status}
		}
		return nil, err
	}

	if strings.TrimSpace(resp.Scope.OA21CD) == "" {
		return nil, ErrMissingScope
	}
	if strings.TrimSpace(resp.SessionToken) == "" {
		return nil, &SessionRejectedError{Status: 200}
	}

	sess := &domain.Session{
		Bearer:    resp.SessionToken,
		SubjectID: resp.User.ID,
		Role:      resp.User.Role,
		ScopeID:   resp.Scope.OA21CD,
	}
	s.setCurrent(sess)
	log.Info().Str("subject", sess.SubjectID).Str("scope", sess.ScopeID).Msg("session bootstrapped")
	return sess, nil
}

// Current returns the active session, or ErrNoSession before Bootstrap.
func (s *SessionService) Current() (*domain.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return nil, ErrNoSession
	}
	return s.current, nil
}

func (s *SessionService) setCurrent(sess *domain.Session) {
	s.mu.Lock()
	s.current = sess
	s.mu.Unlock()
}

// ExtractToken pulls the launch token out of a launch URL. The plain query
// parameter wins; a parameter embedded after a route fragment's own query
// string (…/#/canvass?token=abc) is the fallback. Returns "" when neither
// location carries one.
func ExtractToken(launchURL string) string {
	u, err := url.Parse(launchURL)
	if err != nil {
		return ""
	}
	if t := u.Query().Get("token"); t != "" {
		return t
	}
	frag := u.Fragment
	if frag == "" {
		// url.Parse leaves the fragment empty for opaque inputs; fall back
		// to a manual split so "app#/r?token=x" still resolves.
		if i := strings.Index(launchURL, "#"); i >= 0 {
			frag = launchURL[i+1:]
		}
	}
	if i := strings.Index(frag, "?"); i >= 0 {
		if vals, err := url.ParseQuery(frag[i+1:]); err == nil {
			return vals.Get("token")
		}
	}
	return ""
}
