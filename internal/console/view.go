package console

import (
	"sync"

	"github.com/linnemanlabs/callpoint/internal/incident"
)

// View is the operator's local list of incident records: the union of the
// latest server snapshot and any operator-created (manual-) records the
// server has not acknowledged yet. All methods are safe for concurrent use
// by the pollers and action handlers.
type View struct {
	mu              sync.Mutex
	records         []*incident.Record
	pendingManualID string
}

// NewView initializes an empty view.
func NewView() *View {
	return &View{}
}

// Records returns a snapshot copy of the view, current order preserved.
func (v *View) Records() []*incident.Record {
	v.mu.Lock()
	defer v.mu.Unlock()
	out := make([]*incident.Record, len(v.records))
	for i, r := range v.records {
		out[i] = r.Clone()
	}
	return out
}

// Get returns a copy of the record with the given id, if present.
func (v *View) Get(id string) (*incident.Record, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	for _, r := range v.records {
		if r.ID == id {
			return r.Clone(), true
		}
	}
	return nil, false
}

// Reconcile replaces the view with the union of the fetched snapshot and the
// client-local survivors: manual- records whose id the server does not know
// yet. Survivors keep their place ahead of fetched entries, so an operator's
// optimistic insert is never transiently lost to a concurrent poll and
// disappears on its own once the server acknowledges the id.
func (v *View) Reconcile(fetched []*incident.Record) {
	v.mu.Lock()
	defer v.mu.Unlock()

	known := make(map[string]struct{}, len(fetched))
	for _, r := range fetched {
		known[r.ID] = struct{}{}
	}

	next := make([]*incident.Record, 0, len(fetched)+4)
	for _, r := range v.records {
		if incident.IsManualID(r.ID) {
			if _, ok := known[r.ID]; !ok {
				next = append(next, r)
			}
		}
	}
	for _, r := range fetched {
		next = append(next, r.Clone())
	}
	v.records = next
}

// MergeByID merges upd into the record with the same id, preserving local
// fields the update does not carry. Unknown ids are inserted at the front,
// matching the freshest-first ordering of optimistic inserts.
func (v *View) MergeByID(upd *incident.Record) {
	v.mu.Lock()
	defer v.mu.Unlock()

	for i, r := range v.records {
		if r.ID == upd.ID {
			v.records[i] = incident.Merge(r, upd)
			return
		}
	}
	v.records = append([]*incident.Record{upd.Clone()}, v.records...)
}

// InsertFront adds a record at the front of the view.
func (v *View) InsertFront(r *incident.Record) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.records = append([]*incident.Record{r.Clone()}, v.records...)
}

// SetStatus overwrites the status of the record with the given id, if present.
func (v *View) SetStatus(id string, status incident.Status) {
	v.mu.Lock()
	defer v.mu.Unlock()
	for _, r := range v.records {
		if r.ID == id {
			r.Status = status
			return
		}
	}
}

// Keep clears ConfirmedAt without touching the status: the operator's
// reversible "hold on to it but don't finalize" action.
func (v *View) Keep(id string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	for _, r := range v.records {
		if r.ID == id {
			r.ConfirmedAt = nil
			return
		}
	}
}

// Remove drops the record from the view and clears the pending-manual marker
// if it pointed at the removed id.
func (v *View) Remove(id string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	for i, r := range v.records {
		if r.ID == id {
			v.records = append(v.records[:i], v.records[i+1:]...)
			break
		}
	}
	if v.pendingManualID == id {
		v.pendingManualID = ""
	}
}

// SetPendingManual marks a manual record as awaiting confirmation.
func (v *View) SetPendingManual(id string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.pendingManualID = id
}

// PendingManual returns the id of the manual record awaiting confirmation.
func (v *View) PendingManual() (string, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.pendingManualID, v.pendingManualID != ""
}

// ClearPendingManual clears the marker if it matches id.
func (v *View) ClearPendingManual(id string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.pendingManualID == id {
		v.pendingManualID = ""
	}
}
