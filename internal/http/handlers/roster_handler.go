// Roster HTTP handlers.
//
// Endpoints:
//   - POST /roster/load  (fetch, scope-check and install the roster)
//   - GET  /roster       (current roster with visited flags)
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/demographikon/go-canvass-sync/internal/domain"
	"github.com/demographikon/go-canvass-sync/internal/services"
)

// RosterAddress is one roster entry decorated with its visited flag for the
// UI.
type RosterAddress struct {
	Address   string   `json:"address"`
	Residents []string `json:"residents"`
	Visited   bool     `json:"visited"`
}

// RosterResponse wraps the installed roster.
type RosterResponse struct {
	ScopeID   string          `json:"scope_id,omitempty"`
	Addresses []RosterAddress `json:"addresses"`
	Remaining int             `json:"remaining"`
}

// rosterResponse assembles the response body from roster entries and the
// visited set, preserving source order.
func rosterResponse(scopeID string, entries []domain.RosterEntry, visited map[string]bool) RosterResponse {
	resp := RosterResponse{
		ScopeID:   scopeID,
		Addresses: make([]RosterAddress, 0, len(entries)),
	}
	for _, e := range entries {
		v := visited[e.Address]
		if !v {
			resp.Remaining++
		}
		resp.Addresses = append(resp.Addresses, RosterAddress{
			Address:   e.Address,
			Residents: e.Residents,
			Visited:   v,
		})
	}
	return resp
}

// LoadRoster godoc
// @ID          loadRoster
// @Summary     Load the roster for the session scope
// @Description Fetches the roster source for the session's output area, validates every row against the scope, groups residents by address, and installs the result. Addresses already present in the outbox are marked visited.
// @Tags        Roster
// @Produce     json
//
// @Success     200  {object}  handlers.RosterResponse
// @Failure     401  {object}  handlers.ErrorResponse  "No active session"
// @Failure     409  {object}  handlers.ErrorResponse  "Roster belongs to a different scope"
// @Failure     502  {object}  handlers.ErrorResponse  "No usable roster source"
// @Router      /roster/load [post]
func (h *Handlers) LoadRoster(c *gin.Context) {
	sess, err := h.sessions.Current()
	if err != nil {
		fail(c, http.StatusUnauthorized, ErrCodeNoSession, err.Error())
		return
	}

	entries, err := h.roster.Load(c.Request.Context(), sess.ScopeID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrScopeMismatch):
			fail(c, http.StatusConflict, ErrCodeScopeMismatch, err.Error())
		case errors.Is(err, services.ErrRosterUnavailable), errors.Is(err, services.ErrRosterEmpty):
			fail(c, http.StatusBadGateway, ErrCodeRosterUnavailable, err.Error())
		default:
			fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		}
		return
	}

	_, visited := h.roster.Entries()
	ok(c, http.StatusOK, rosterResponse(sess.ScopeID, entries, visited))
}

// GetRoster godoc
// @ID          getRoster
// @Summary     Current roster
// @Description Returns the installed roster with per-address visited flags.
// @Tags        Roster
// @Produce     json
//
// @Success     200  {object}  handlers.RosterResponse
// @Failure     409  {object}  handlers.ErrorResponse  "Roster not loaded"
// @Router      /roster [get]
func (h *Handlers) GetRoster(c *gin.Context) {
	if !h.roster.Loaded() {
		fail(c, http.StatusConflict, ErrCodeRosterNotLoaded, services.ErrNoRoster.Error())
		return
	}

	scopeID := ""
	if sess, err := h.sessions.Current(); err == nil {
		scopeID = sess.ScopeID
	}
	entries, visited := h.roster.Entries()
	ok(c, http.StatusOK, rosterResponse(scopeID, entries, visited))
}
