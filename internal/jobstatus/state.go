package jobstatus

import "github.com/tinytelemetry/jobwatch/internal/model"

// Kind tags the phase of the status view.
type Kind int

const (
	Loading Kind = iota
	Loaded
	Failed
)

func (k Kind) String() string {
	switch k {
	case Loading:
		return "loading"
	case Loaded:
		return "loaded"
	case Failed:
		return "failed"
	}
	return "unknown"
}

// State is an immutable view state. The zero value is Loading.
type State struct {
	kind   Kind
	status model.Status
	err    error
}

// Initial returns the Loading state every view starts in.
func Initial() State { return State{kind: Loading} }

func (s State) Kind() Kind { return s.kind }

// Status returns the aggregated status; ok is false unless the state is Loaded.
func (s State) Status() (status model.Status, ok bool) {
	if s.kind != Loaded {
		return model.Status{}, false
	}
	return s.status, true
}

// Err returns the failure cause for a Failed state and nil otherwise.
func (s State) Err() error {
	if s.kind != Failed {
		return nil
	}
	return s.err
}

// Event is the outcome of the single snapshot fetch.
type Event interface {
	isEvent()
}

// Resolved carries a fetched snapshot.
type Resolved struct {
	Snapshot model.QueueSnapshot
}

// Rejected carries a fetch failure.
type Rejected struct {
	Err error
}

func (Resolved) isEvent() {}
func (Rejected) isEvent() {}

// Transition applies e to s. Only Loading reacts to events; Loaded and Failed
// are terminal and returned unchanged.
func Transition(s State, e Event) State {
	if s.kind != Loading {
		return s
	}
	switch e := e.(type) {
	case Resolved:
		return State{kind: Loaded, status: Aggregate(e.Snapshot)}
	case Rejected:
		return State{kind: Failed, err: asFetchFailed(e.Err)}
	}
	return s
}
