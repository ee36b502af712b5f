package domain

// Session is the scoped identity obtained from a one-time token exchange.
// It is created once per bootstrap, held only in process memory, and never
// persisted. The bearer credential authorizes record submission for the
// lifetime of the process.
type Session struct {
	// Bearer is the session credential sent on authenticated calls.
	// It is never serialized.
	Bearer string `json:"-"`
	// SubjectID identifies the field worker.
	SubjectID string `json:"subject_id"`
	// Role is the subject's role as reported by the exchange.
	Role string `json:"role"`
	// ScopeID is the output-area / tenant partition this session may
	// operate within. All roster and record data must stay inside it.
	ScopeID string `json:"scope_id"`
}

// RosterEntry is one canvassable address with the residents registered at
// it, in source appearance order and without duplicates. Entries are built
// once per roster load and never mutated afterwards.
type RosterEntry struct {
	Address   string   `json:"address"`
	Residents []string `json:"residents"`
}

// Draft is the in-progress, not-yet-queued answer set for the currently
// selected address. Exactly one Draft exists at a time; it is reset when a
// record is finalized or the address is abandoned.
type Draft struct {
	Address    string   `json:"address"`
	Response   string   `json:"response,omitempty"`
	Residents  []string `json:"residents,omitempty"`
	Party      string   `json:"party,omitempty"`
	Support    string   `json:"support,omitempty"`
	Likelihood string   `json:"likelihood,omitempty"`
	Issue      string   `json:"issue,omitempty"`
	Notes      string   `json:"notes,omitempty"`
}

// Metadata holds the remotely sourced option sets that drive the wizard.
// Every field is required; a metadata payload missing any of them is
// rejected wholesale rather than defaulted.
type Metadata struct {
	Response   []string `json:"response"`
	Party      []string `json:"party"`
	Support    []string `json:"support"`
	Likelihood []string `json:"likelihood"`
	Issue      []string `json:"issue"`
}

// ResponseContinuing is the canonical response kind that continues into the
// question steps. Any other kind from the metadata set is terminal: choosing
// it finalizes the record immediately with only address and response set.
const ResponseContinuing = "response"

// Terminal reports whether choosing kind ends data collection for an
// address without entering the question wizard.
func Terminal(kind string) bool { return kind != ResponseContinuing }
