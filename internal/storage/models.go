package storage

import "time"

// LookupKind is what the user asked for.
type LookupKind string

// Lookup kinds.
const (
	KindLookup   LookupKind = "lookup"
	KindDownload LookupKind = "download"
	KindRange    LookupKind = "range"
)

// Lookup outcomes.
const (
	OutcomeAvailable    = "available"
	OutcomeNotFound     = "not_found"
	OutcomeNetworkError = "network_error"
	OutcomeInvalid      = "invalid"
	OutcomeBlocked      = "blocked"
	OutcomePlaceholder  = "placeholder"
	OutcomeError        = "error"
)

// MaxRollLength bounds what is stored for an invalid submission.
const MaxRollLength = 64

// LookupRecord is one row of lookup history. Invalid submissions keep the
// raw input, cut to MaxRollLength.
type LookupRecord struct {
	ID         int64      `json:"id"`
	RollNumber string     `json:"roll_number"`
	Kind       LookupKind `json:"kind"`
	Outcome    string     `json:"outcome"`
	ClientIP   string     `json:"client_ip,omitempty"`
	RequestID  string     `json:"request_id,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

// OutcomeCount is one bucket of Stats.
type OutcomeCount struct {
	Kind    LookupKind `json:"kind"`
	Outcome string     `json:"outcome"`
	Count   int        `json:"count"`
}
