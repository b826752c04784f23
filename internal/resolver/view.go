package resolver

import (
	"context"
	"sync"

	domerrors "github.com/must-gpa/chartlet/internal/errors"
)

// Status is the display state of a View.
type Status string

// View statuses.
const (
	StatusIdle      Status = "idle"
	StatusLoading   Status = "loading"
	StatusAvailable Status = "available"
	StatusMissing   Status = "missing"
	StatusInvalid   Status = "invalid"
)

// ViewState is a snapshot of what the user should currently see.
type ViewState struct {
	Generation uint64
	Input      string
	Status     Status
	RollNumber string
	ChartURL   string
	Message    string
}

// View holds the result panel for an interactive session.
//
// Submissions are never cancelled. Each one takes a generation number and
// may only publish its result while it is still the latest submission, so
// a slow lookup that finishes after a newer one is discarded.
type View struct {
	resolver *Resolver

	mu    sync.Mutex
	gen   uint64
	state ViewState
}

// NewView creates a View in the idle state.
func NewView(r *Resolver) *View {
	return &View{resolver: r, state: ViewState{Status: StatusIdle}}
}

// State returns the current snapshot.
func (v *View) State() ViewState {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.state
}

// Submit looks up input and publishes the result if no newer submission
// started in the meantime. It returns the outcome of this submission and
// whether it was published.
func (v *View) Submit(ctx context.Context, input string) (ViewState, bool) {
	gen := v.begin(input)

	next := ViewState{Generation: gen, Input: input}
	res, err := v.resolver.Lookup(ctx, input)
	switch {
	case err != nil:
		next.Status = StatusInvalid
		next.Message = domerrors.GetUserMessage(err)
	case res.Available:
		next.Status = StatusAvailable
		next.RollNumber = res.Roll.String()
		next.ChartURL = res.URL
	default:
		next.Status = StatusMissing
		next.RollNumber = res.Roll.String()
		next.ChartURL = res.URL
		next.Message = domerrors.GetUserMessage(res.Err)
	}

	return next, v.commit(next)
}

// SubmitAsync runs Submit in a goroutine. done, when non-nil, receives the
// submission's own outcome.
func (v *View) SubmitAsync(ctx context.Context, input string, done func(ViewState, bool)) {
	go func() {
		st, ok := v.Submit(ctx, input)
		if done != nil {
			done(st, ok)
		}
	}()
}

func (v *View) begin(input string) uint64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.gen++
	v.state = ViewState{Generation: v.gen, Input: input, Status: StatusLoading}
	return v.gen
}

func (v *View) commit(next ViewState) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	if next.Generation != v.gen {
		return false
	}
	v.state = next
	return true
}
