package batch

import (
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/matsen/retitle/internal/planner"
)

// State of a run. Runs move strictly forward; Cancelled and Error are
// terminal.
type State string

const (
	StateIdle         State = "idle"
	StateScanning     State = "scanning"
	StateListed       State = "listed"
	StatePreviewing   State = "previewing"
	StatePreviewReady State = "preview-ready"
	StateCommitting   State = "committing"
	StateDone         State = "done"
	StateCancelled    State = "cancelled"
	StateError        State = "error"
)

// Run is one pass over a directory: scan, preview, commit. A Run is not
// safe for concurrent mutation; the Manager owns it during each phase.
// Cancel is the exception and may be called from any goroutine.
type Run struct {
	ID        uuid.UUID       `json:"id"`
	Root      string          `json:"root"`
	StartedAt time.Time       `json:"started_at"`
	State     State           `json:"state"`
	Files     []string        `json:"-"`
	Plans     []*planner.Plan `json:"plans,omitempty"`
	Processed int             `json:"processed"`
	Succeeded int             `json:"succeeded"`
	Failed    int             `json:"failed"`
	Skipped   int             `json:"skipped"`

	cancel atomic.Bool
}

// Cancel requests a cooperative stop. The running phase finishes the
// file in flight and goes no further.
func (r *Run) Cancel() {
	r.cancel.Store(true)
}

func (r *Run) cancelled() bool {
	return r.cancel.Load()
}

// SelectAll marks every actionable plan for commit.
func (r *Run) SelectAll() {
	for _, plan := range r.Plans {
		plan.Selected = plan.Actionable()
	}
}

// SelectNone clears every selection.
func (r *Run) SelectNone() {
	for _, plan := range r.Plans {
		plan.Selected = false
	}
}

// Invert flips the selection of every actionable plan.
func (r *Run) Invert() {
	for _, plan := range r.Plans {
		if plan.Actionable() {
			plan.Selected = !plan.Selected
		}
	}
}

// SelectedCount reports how many plans a commit would apply.
func (r *Run) SelectedCount() int {
	count := 0
	for _, plan := range r.Plans {
		if plan.Selected && plan.Actionable() {
			count++
		}
	}
	return count
}

// Progress is a snapshot handed to the progress callback after each
// file. Callbacks run serialized.
type Progress struct {
	Phase     string
	Processed int
	Total     int
	Current   string
}
