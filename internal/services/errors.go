// Package services implements the sync engine's business logic: session
// bootstrap, roster loading with scope validation, the survey wizard state
// machine, the durable outbox queue, and the delivery engine.
//
// This file centralizes the service-level error taxonomy so every failure
// mode maps to one stable value (or one small typed error) that handlers
// can translate into operator-facing messages. Auth and roster errors halt
// progress; delivery errors are contained per record and drive the retry
// loop; backup-channel errors annotate results and are never retried here.
package services

import (
	"errors"
	"fmt"
)

// Auth errors: fatal, block all further operation.
var (
	// ErrMissingToken indicates no launch token was found in either the
	// plain query string or the fragment query of the launch URL.
	ErrMissingToken = errors.New("launch token missing")

	// ErrMissingScope indicates the exchange succeeded but returned no
	// scope identifier. The session is unusable; scope is never defaulted.
	ErrMissingScope = errors.New("session has no scope")

	// ErrNoSession indicates an operation that requires a bootstrapped
	// session was attempted before one exists.
	ErrNoSession = errors.New("no active session")
)

// SessionRejectedError reports a non-2xx response from the token exchange.
type SessionRejectedError struct {
	Status int
}

// Error implements the error interface.
func (e *SessionRejectedError) Error() string {
	return fmt.Sprintf("session rejected (HTTP %d)", e.Status)
}

// Roster errors: fatal to address selection, harmless to queued records.
var (
	// ErrScopeMismatch indicates the roster claims a different scope than
	// the session's. The whole load is rejected; no entries are exposed.
	ErrScopeMismatch = errors.New("roster scope does not match session scope")

	// ErrRosterUnavailable indicates both the primary source and the
	// bundled fallback failed.
	ErrRosterUnavailable = errors.New("roster unavailable from primary and fallback sources")

	// ErrRosterEmpty indicates a source parsed cleanly but produced no
	// usable entries.
	ErrRosterEmpty = errors.New("roster contains no usable rows")

	// ErrNoRoster indicates an operation that requires a loaded roster was
	// attempted before one was loaded.
	ErrNoRoster = errors.New("no roster loaded")
)

// Metadata / wizard errors.
var (
	// ErrMetadataIncomplete indicates the remote metadata payload is
	// missing at least one required option set. The wizard will not start
	// with defaulted options.
	ErrMetadataIncomplete = errors.New("canvass metadata incomplete")

	// ErrNoAddress indicates a wizard operation that needs a selected
	// address was attempted without one.
	ErrNoAddress = errors.New("no address selected")

	// ErrUnknownAddress indicates the requested address is not on the
	// loaded roster or has already been visited.
	ErrUnknownAddress = errors.New("address not available for selection")

	// ErrInvalidOption indicates an answer value outside the step's
	// metadata-sourced option set.
	ErrInvalidOption = errors.New("value is not one of the step's options")

	// ErrStepIncomplete indicates an attempt to advance past a step that
	// still has no value.
	ErrStepIncomplete = errors.New("current step has no value")

	// ErrWizardState indicates an operation that is not legal in the
	// wizard's current state.
	ErrWizardState = errors.New("operation not valid in current wizard state")
)

// Delivery / retry errors.
var (
	// ErrRetryRunning indicates the retry loop is already active.
	// Start is idempotent; callers may treat this as success.
	ErrRetryRunning = errors.New("retry loop already running")
)

// BackupChannelError wraps a backup-notifier failure. It is surfaced as a
// non-fatal annotation on a send summary and never converted into a
// delivery failure.
type BackupChannelError struct {
	Err error
}

// Error implements the error interface.
func (e *BackupChannelError) Error() string {
	return "backup channel: " + e.Err.Error()
}

// Unwrap exposes the underlying relay error.
func (e *BackupChannelError) Unwrap() error { return e.Err }
