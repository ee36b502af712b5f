// Package api implements the HTTP client for the remote authoritative
// store and its collaborators: the token-to-session exchange, the wizard
// metadata fetch, authenticated record submission, roster fetches, and the
// backup-report relay.
//
// Every call takes a context, uses an injected *http.Client, and returns an
// explicit error; nothing here is fire-and-forget. Non-2xx responses are
// surfaced as *StatusError so callers can branch on status without parsing
// error strings.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/demographikon/go-canvass-sync/internal/domain"
)

// StatusError reports a non-2xx response from a remote endpoint.
type StatusError struct {
	Status int
	Body   string
}

// Error implements the error interface.
func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("remote returned HTTP %d", e.Status)
	}
	return fmt.Sprintf("remote returned HTTP %d: %s", e.Status, e.Body)
}

// Client talks to the remote canvassing API.
//
// Base is the API root (no trailing slash); HTTP is the transport used for
// every call and may be replaced in tests. BackupURL/BackupSecret configure
// the backup relay; an empty BackupURL disables SendReport.
type Client struct {
	Base         string
	BackupURL    string
	BackupSecret string
	HTTP         *http.Client
}

// New constructs a Client with a timeout-bounded default transport.
func New(base string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &Client{
		Base: strings.TrimRight(base, "/"),
		HTTP: &http.Client{Timeout: timeout},
	}
}

// ExchangeResponse is the payload returned by the token exchange.
type ExchangeResponse struct {
	SessionToken string `json:"session_token"`
	User         struct {
		ID   string `json:"id"`
		Role string `json:"role"`
	} `json:"user"`
	Scope struct {
		OA21CD string `json:"oa21cd"`
	} `json:"scope"`
}

// ExchangeToken swaps a one-time launch token for a scoped session payload.
// A non-2xx response is returned as *StatusError; the caller decides whether
// the payload is complete (scope present, credential present).
func (c *Client) ExchangeToken(ctx context.Context, token string) (*ExchangeResponse, error) {
	body, _ := json.Marshal(map[string]string{"token": token})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Base+"/auth/session", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("token exchange: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{Status: resp.StatusCode, Body: snippet(resp.Body)}
	}

	var out ExchangeResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("token exchange: decode response: %w", err)
	}
	return &out, nil
}

// FetchMetadata retrieves the wizard option sets. All five sets are
// required; the service layer rejects incomplete payloads.
func (c *Client) FetchMetadata(ctx context.Context) (*domain.Metadata, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.Base+"/canvass/metadata", nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("metadata fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{Status: resp.StatusCode, Body: snippet(resp.Body)}
	}

	var out domain.Metadata
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("metadata fetch: decode response: %w", err)
	}
	return &out, nil
}

// submitBody is the wire shape of a record submission. The record's ID
// travels as client_record_id so the remote side can deduplicate replays of
// the same logical submission.
type submitBody struct {
	ClientRecordID string    `json:"client_record_id"`
	Address        string    `json:"address"`
	Response       string    `json:"response"`
	Party          string    `json:"party,omitempty"`
	Support        string    `json:"support,omitempty"`
	Likelihood     string    `json:"likelihood,omitempty"`
	Issue          string    `json:"issue,omitempty"`
	Notes          string    `json:"notes,omitempty"`
	CanvassedAt    time.Time `json:"canvassed_at"`
}

// SubmitRecord delivers one queued record with the session's bearer
// credential. A nil error means the remote accepted (2xx) and the record
// may be marked sent.
func (c *Client) SubmitRecord(ctx context.Context, bearer string, rec *domain.Record) error {
	body, _ := json.Marshal(submitBody{
		ClientRecordID: rec.ID,
		Address:        rec.Address,
		Response:       rec.Response,
		Party:          rec.Party,
		Support:        rec.Support,
		Likelihood:     rec.Likelihood,
		Issue:          rec.Issue,
		Notes:          rec.Notes,
		CanvassedAt:    rec.CanvassedAt,
	})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Base+"/canvass/records", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+bearer)

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("submit record: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{Status: resp.StatusCode, Body: snippet(resp.Body)}
	}
	io.Copy(io.Discard, resp.Body)
	return nil
}

// FetchRoster retrieves a tabular text resource from url and returns the
// raw body. Parsing and scope validation are the roster service's concern.
func (c *Client) FetchRoster(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return "", fmt.Errorf("roster fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &StatusError{Status: resp.StatusCode, Body: snippet(resp.Body)}
	}

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("roster fetch: read body: %w", err)
	}
	return string(b), nil
}

// Report is the structured summary posted to the backup relay after a send
// pass. Only success/failure of the relay response matters; the body is not
// parsed beyond the status code.
type Report struct {
	ScopeID   string          `json:"oa21cd"`
	Canvasser string          `json:"canvasser"`
	Date      string          `json:"date"`
	Snapshot  json.RawMessage `json:"data_json"`
	CSV       string          `json:"csv,omitempty"`
	Secret    string          `json:"secret,omitempty"`
}

// SendReport posts a queue snapshot to the backup relay. Failures here are
// the backup channel's own concern: callers surface them as annotations and
// never retry through the delivery engine.
func (c *Client) SendReport(ctx context.Context, rep Report) error {
	if c.BackupURL == "" {
		return nil
	}
	rep.Secret = c.BackupSecret
	body, _ := json.Marshal(rep)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BackupURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("backup report: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{Status: resp.StatusCode, Body: snippet(resp.Body)}
	}
	log.Debug().Str("relay", c.BackupURL).Msg("backup report accepted")
	return nil
}

// snippet reads at most 512 bytes of a response body for error context.
func snippet(r io.Reader) string {
	b, _ := io.ReadAll(io.LimitReader(r, 512))
	return strings.TrimSpace(string(b))
}
