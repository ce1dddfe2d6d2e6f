package incident

import (
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
)

// Status tracks where an incident record is in its lifecycle.
type Status string

const (
	// StatusProcessing means submitted, analysis not yet finished.
	StatusProcessing Status = "processing"

	// StatusNeedsConfirmation means analysis finished (with or without an
	// error) and the record is waiting on an operator.
	StatusNeedsConfirmation Status = "needs_confirmation"

	// StatusDone means an operator confirmed the record. Terminal for the
	// automated pipeline.
	StatusDone Status = "done"

	// StatusTimedOut is assigned by the console when the per-job polling
	// window is exhausted. It never originates server-side.
	StatusTimedOut Status = "timed_out"
)

// ID namespaces. The prefix tells merge logic whether a record was assigned
// by the server or synthesized by an operator before any server round-trip.
const (
	jobIDPrefix    = "job-"
	manualIDPrefix = "manual-"
)

// Location is a confirmed or candidate map position.
type Location struct {
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
	Address string  `json:"address,omitempty"`
}

// Flags carries analyst hints attached to a call.
type Flags struct {
	BrokenAccent      bool `json:"brokenAccent,omitempty"`
	Intoxicated       bool `json:"intoxicated,omitempty"`
	SuspectedSwatting bool `json:"suspectedSwatting,omitempty"`
}

// Record is the unit of truth for one call/marker. All fields except ID,
// Status and CreatedAt are optional and populated incrementally as analysis
// and confirmation proceed.
type Record struct {
	ID            string     `json:"id"`
	Status        Status     `json:"status"`
	CreatedAt     time.Time  `json:"createdAt"`
	Transcript    string     `json:"transcript,omitempty"`
	EmergencyType string     `json:"emergencyType,omitempty"`
	Confidence    *float64   `json:"confidence,omitempty"`
	Location      *Location  `json:"location,omitempty"`
	CallerPhone   string     `json:"callerPhone,omitempty"`
	Flags         *Flags     `json:"flags,omitempty"`
	ConfirmedAt   *time.Time `json:"confirmedAt,omitempty"`
	Notes         string     `json:"notes,omitempty"`
	Error         string     `json:"error,omitempty"`

	// Version is the store's optimistic-concurrency token. It never crosses
	// the wire; stale writers get ErrVersionConflict and re-merge.
	Version int64 `json:"-"`
}

// NewJobID returns a fresh server-assigned incident ID.
func NewJobID() string {
	return jobIDPrefix + ulid.Make().String()
}

// NewManualID returns a fresh client-local incident ID for operator-created
// records that have not been acknowledged by the server.
func NewManualID() string {
	return manualIDPrefix + ulid.Make().String()
}

// IsManualID reports whether id belongs to the client-local namespace.
func IsManualID(id string) bool {
	return strings.HasPrefix(id, manualIDPrefix)
}

// Clone returns a deep copy of the record. Stores and views hand out clones
// so callers can never mutate shared state through a returned pointer.
func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}
	cp := *r
	if r.Confidence != nil {
		v := *r.Confidence
		cp.Confidence = &v
	}
	if r.Location != nil {
		loc := *r.Location
		cp.Location = &loc
	}
	if r.Flags != nil {
		f := *r.Flags
		cp.Flags = &f
	}
	if r.ConfirmedAt != nil {
		t := *r.ConfirmedAt
		cp.ConfirmedAt = &t
	}
	return &cp
}

// Analysis is the normalized outcome of the external analysis collaborator.
type Analysis struct {
	Transcript    string
	EmergencyType string
	Confidence    *float64
	Location      *Location
	Notes         string
}
