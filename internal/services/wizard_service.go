// Survey wizard state machine.
//
// One explicit Draft value moves through a fixed progression:
//
//	NoAddress → AddressSelected → ResponseChosen → Stepping(i) → finalized
//
// driven by a single service rather than scattered mutable fields. Choosing
// any terminal response kind finalizes immediately with only address and
// response; the continuing kind walks the question steps built from remote
// metadata. The issue step's options are freshly shuffled on every
// continuing choice. Each transition persists a snapshot so an in-progress
// pass survives a restart, and finalizing hands the draft to the outbox and
// retires the address from selection.
package services

import (
	"context"
	"encoding/json"
	"math/rand"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/demographikon/go-canvass-sync/internal/domain"
)

// Wizard step names, in walk order after the response choice.
const (
	StepResidents  = "residents"
	StepParty      = "party"
	StepSupport    = "support"
	StepLikelihood = "likelihood"
	StepIssue      = "issue"
	StepNotes      = "notes"
)

// Wizard states reported to the UI.
const (
	StateNoAddress       = "no_address"
	StateAddressSelected = "address_selected"
	StateStepping        = "stepping"
)

// Step is one question in the wizard.
type Step struct {
	// Name identifies the step (party, support, …).
	Name string `json:"name"`
	// Options are the permitted values; empty for free-text steps.
	Options []string `json:"options,omitempty"`
	// Multi marks steps accepting several values (residents).
	Multi bool `json:"multi,omitempty"`
	// Optional marks steps that may be left empty (notes).
	Optional bool `json:"optional,omitempty"`
}

// Finalizer accepts a completed draft into the outbox queue.
type Finalizer interface {
	Finalize(ctx context.Context, d domain.Draft) (*domain.Record, error)
}

// RosterView is the roster access the wizard needs: addresses that exist
// and are unvisited, and retiring an address once finalized.
type RosterView interface {
	Lookup(address string) (domain.RosterEntry, bool)
	MarkVisited(address string)
}

// OptionsProvider supplies the metadata-sourced option sets.
type OptionsProvider interface {
	Get(ctx context.Context) (*domain.Metadata, error)
}

// SnapshotStore persists the single in-progress draft snapshot.
type SnapshotStore interface {
	Save(ctx context.Context, payload string) error
	Load(ctx context.Context) (string, error)
	Clear(ctx context.Context) error
}

// WizardService walks one survey pass at a time. It is safe for concurrent
// use; all state sits behind one mutex.
type WizardService struct {
	Roster    RosterView
	Options   OptionsProvider
	Outbox    Finalizer
	Snapshots SnapshotStore

	mu       sync.Mutex
	state    string
	draft    domain.Draft
	steps    []Step
	stepIdx  int
	entry    domain.RosterEntry
	shuffler func([]string)
}

// NewWizardService constructs a WizardService in the NoAddress state.
func NewWizardService(roster RosterView, opts OptionsProvider, outbox Finalizer, snaps SnapshotStore) *WizardService {
	return &WizardService{
		Roster:    roster,
		Options:   opts,
		Outbox:    outbox,
		Snapshots: snaps,
		state:     StateNoAddress,
		shuffler: func(s []string) {
			rand.Shuffle(len(s), func(i, j int) { s[i], s[j] = s[j], s[i] })
		},
	}
}

// View is a read-only snapshot of the wizard for the UI.
type View struct {
	State string       `json:"state"`
	Draft domain.Draft `json:"draft"`
	// Step is the current question, present only while stepping.
	Step *Step `json:"step,omitempty"`
	// StepIndex and StepCount locate the current question.
	StepIndex int `json:"step_index,omitempty"`
	StepCount int `json:"step_count,omitempty"`
	// Responses lists the selectable response kinds once an address is
	// chosen.
	Responses []string `json:"responses,omitempty"`
}

// SelectAddress starts a pass at an unvisited roster address, resetting the
// draft. Selecting while a pass is active abandons the previous draft.
func (s *WizardService) SelectAddress(ctx context.Context, address string) (View, error) {
	entry, ok := s.Roster.Lookup(address)
	if !ok {
		return View{}, ErrUnknownAddress
	}
	md, err := s.Options.Get(ctx)
	if err != nil {
		return View{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.entry = entry
	s.draft = domain.Draft{Address: entry.Address}
	s.steps = nil
	s.stepIdx = 0
	s.state = StateAddressSelected
	s.persistLocked(ctx)
	return s.viewLocked(md), nil
}

// ChooseResponse records the response kind for the selected address.
// Terminal kinds finalize immediately; the continuing kind builds the step
// sequence (issue options freshly shuffled) and enters Stepping.
func (s *WizardService) ChooseResponse(ctx context.Context, kind string) (View, *domain.Record, error) {
	md, err := s.Options.Get(ctx)
	if err != nil {
		return View{}, nil, err
	}
	if !containsString(md.Response, kind) {
		return View{}, nil, ErrInvalidOption
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateAddressSelected {
		return View{}, nil, ErrWizardState
	}
	s.draft.Response = kind

	if domain.Terminal(kind) {
		rec, err := s.finalizeLocked(ctx)
		if err != nil {
			return View{}, nil, err
		}
		return s.viewLocked(md), rec, nil
	}

	issue := append([]string(nil), md.Issue...)
	s.shuffler(issue)
	s.steps = []Step{
		{Name: StepResidents, Options: s.entry.Residents, Multi: true},
		{Name: StepParty, Options: md.Party},
		{Name: StepSupport, Options: md.Support},
		{Name: StepLikelihood, Options: md.Likelihood},
		{Name: StepIssue, Options: issue},
		{Name: StepNotes, Optional: true},
	}
	s.stepIdx = 0
	s.state = StateStepping
	s.persistLocked(ctx)
	return s.viewLocked(md), nil, nil
}

// Answer records values for the current step and advances. Every step
// requires a non-empty value except notes; single-choice steps accept
// exactly one value from their option set. Answering the last step
// finalizes the draft and returns the queued record.
func (s *WizardService) Answer(ctx context.Context, values []string) (View, *domain.Record, error) {
	md, err := s.Options.Get(ctx)
	if err != nil {
		return View{}, nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateStepping {
		return View{}, nil, ErrWizardState
	}

	step := s.steps[s.stepIdx]
	if err := s.applyLocked(step, values); err != nil {
		return View{}, nil, err
	}

	if s.stepIdx == len(s.steps)-1 {
		rec, err := s.finalizeLocked(ctx)
		if err != nil {
			return View{}, nil, err
		}
		return s.viewLocked(md), rec, nil
	}

	s.stepIdx++
	s.persistLocked(ctx)
	return s.viewLocked(md), nil, nil
}

// applyLocked validates values against step and writes them to the draft.
func (s *WizardService) applyLocked(step Step, values []string) error {
	clean := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			clean = append(clean, v)
		}
	}
	if len(clean) == 0 && !step.Optional {
		return ErrStepIncomplete
	}

	switch {
	case step.Name == StepNotes:
		s.draft.Notes = strings.Join(clean, " ")
	case step.Multi:
		for _, v := range clean {
			if !containsString(step.Options, v) {
				return ErrInvalidOption
			}
		}
		s.draft.Residents = clean
	default:
		if len(clean) != 1 || !containsString(step.Options, clean[0]) {
			return ErrInvalidOption
		}
		switch step.Name {
		case StepParty:
			s.draft.Party = clean[0]
		case StepSupport:
			s.draft.Support = clean[0]
		case StepLikelihood:
			s.draft.Likelihood = clean[0]
		case StepIssue:
			s.draft.Issue = clean[0]
		}
	}
	return nil
}

// Back navigates one step backwards. From the first step (or from the
// response choice) it returns to AddressSelected, preserving nothing from
// the abandoned draft beyond the chosen address.
func (s *WizardService) Back(ctx context.Context) (View, error) {
	md, err := s.Options.Get(ctx)
	if err != nil {
		return View{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.state {
	case StateStepping:
		if s.stepIdx > 0 {
			s.stepIdx--
		} else {
			s.draft = domain.Draft{Address: s.draft.Address}
			s.steps = nil
			s.state = StateAddressSelected
		}
	case StateAddressSelected:
		// Nothing before the response choice but the address itself.
		s.draft = domain.Draft{Address: s.draft.Address}
	default:
		return View{}, ErrWizardState
	}
	s.persistLocked(ctx)
	return s.viewLocked(md), nil
}

// Abandon discards the in-progress draft and returns to NoAddress. The
// address stays unvisited and selectable.
func (s *WizardService) Abandon(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resetLocked()
	if s.Snapshots != nil {
		if err := s.Snapshots.Clear(ctx); err != nil {
			log.Warn().Err(err).Msg("could not clear draft snapshot")
		}
	}
	return nil
}

// Current returns the wizard view. Metadata is only consulted once an
// address is selected, so the NoAddress view works before any fetch.
func (s *WizardService) Current(ctx context.Context) (View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateNoAddress {
		return View{State: StateNoAddress}, nil
	}
	md, err := s.Options.Get(ctx)
	if err != nil {
		return View{}, err
	}
	return s.viewLocked(md), nil
}

// finalizeLocked hands the draft to the outbox, retires the address, resets
// the wizard, and clears the snapshot.
func (s *WizardService) finalizeLocked(ctx context.Context) (*domain.Record, error) {
	rec, err := s.Outbox.Finalize(ctx, s.draft)
	if err != nil {
		return nil, err
	}
	s.Roster.MarkVisited(s.draft.Address)
	s.resetLocked()
	if s.Snapshots != nil {
		if err := s.Snapshots.Clear(ctx); err != nil {
			log.Warn().Err(err).Msg("could not clear draft snapshot")
		}
	}
	return rec, nil
}

func (s *WizardService) resetLocked() {
	s.state = StateNoAddress
	s.draft = domain.Draft{}
	s.steps = nil
	s.stepIdx = 0
	s.entry = domain.RosterEntry{}
}

func (s *WizardService) viewLocked(md *domain.Metadata) View {
	v := View{State: s.state, Draft: s.draft}
	switch s.state {
	case StateAddressSelected:
		v.Responses = md.Response
	case StateStepping:
		step := s.steps[s.stepIdx]
		v.Step = &step
		v.StepIndex = s.stepIdx
		v.StepCount = len(s.steps)
	}
	return v
}

// ---- snapshot persistence ----

// snapshot is the serialized wizard state. The shuffled steps are stored so
// a resumed pass keeps the same issue order; a new pass reshuffles.
type snapshot struct {
	State   string             `json:"state"`
	Draft   domain.Draft       `json:"draft"`
	Steps   []Step             `json:"steps,omitempty"`
	StepIdx int                `json:"step_idx"`
	Entry   domain.RosterEntry `json:"entry"`
}

// persistLocked writes the snapshot. Failures are logged, never fatal: a
// lost snapshot costs one in-progress pass, not queued data.
func (s *WizardService) persistLocked(ctx context.Context) {
	if s.Snapshots == nil {
		return
	}
	b, err := json.Marshal(snapshot{
		State:   s.state,
		Draft:   s.draft,
		Steps:   s.steps,
		StepIdx: s.stepIdx,
		Entry:   s.entry,
	})
	if err != nil {
		log.Warn().Err(err).Msg("could not encode draft snapshot")
		return
	}
	if err := s.Snapshots.Save(ctx, string(b)); err != nil {
		log.Warn().Err(err).Msg("could not persist draft snapshot")
	}
}

// Restore rebuilds an in-progress pass from the persisted snapshot, if one
// exists. An unreadable snapshot is discarded; restoring never fails the
// start sequence.
func (s *WizardService) Restore(ctx context.Context) {
	if s.Snapshots == nil {
		return
	}
	payload, err := s.Snapshots.Load(ctx)
	if err != nil || payload == "" {
		return
	}
	var snap snapshot
	if err := json.Unmarshal([]byte(payload), &snap); err != nil {
		log.Warn().Err(err).Msg("discarding unreadable draft snapshot")
		_ = s.Snapshots.Clear(ctx)
		return
	}
	if snap.State == StateStepping && (snap.StepIdx < 0 || snap.StepIdx >= len(snap.Steps)) {
		log.Warn().Msg("discarding inconsistent draft snapshot")
		_ = s.Snapshots.Clear(ctx)
		return
	}

	s.mu.Lock()
	s.state = snap.State
	s.draft = snap.Draft
	s.steps = snap.Steps
	s.stepIdx = snap.StepIdx
	s.entry = snap.Entry
	s.mu.Unlock()
	log.Info().Str("address", snap.Draft.Address).Str("state", snap.State).Msg("draft snapshot restored")
}
