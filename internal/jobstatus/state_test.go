package jobstatus

import (
	"errors"
	"testing"

	"github.com/tinytelemetry/jobwatch/internal/model"
)

func TestInitialIsLoading(t *testing.T) {
	t.Parallel()

	s := Initial()
	if s.Kind() != Loading {
		t.Fatalf("kind = %v, want loading", s.Kind())
	}
	if _, ok := s.Status(); ok {
		t.Fatal("loading state exposes status")
	}
	if s.Err() != nil {
		t.Fatal("loading state exposes error")
	}
	if (State{}).Kind() != Loading {
		t.Fatal("zero State should be loading")
	}
}

func TestTransitionResolved(t *testing.T) {
	t.Parallel()

	snap := model.NewQueueSnapshot(model.QueueState{Name: "default", Started: []model.Job{job("j1")}})
	s := Transition(Initial(), Resolved{Snapshot: snap})

	if s.Kind() != Loaded {
		t.Fatalf("kind = %v, want loaded", s.Kind())
	}
	status, ok := s.Status()
	if !ok || status.Overall.Started != 1 {
		t.Fatalf("status = %+v ok=%v", status, ok)
	}
	if s.Err() != nil {
		t.Fatalf("loaded state has error %v", s.Err())
	}
}

func TestTransitionRejectedExposesNoCounters(t *testing.T) {
	t.Parallel()

	cause := errors.New("connection refused")
	s := Transition(Initial(), Rejected{Err: cause})

	if s.Kind() != Failed {
		t.Fatalf("kind = %v, want failed", s.Kind())
	}
	if _, ok := s.Status(); ok {
		t.Fatal("failed state exposes counters")
	}
	if !errors.Is(s.Err(), ErrFetchFailed) {
		t.Fatalf("err = %v, want ErrFetchFailed", s.Err())
	}
	if !errors.Is(s.Err(), cause) {
		t.Fatalf("err = %v, want cause preserved", s.Err())
	}
}

func TestTransitionRejectedNilError(t *testing.T) {
	t.Parallel()

	s := Transition(Initial(), Rejected{})
	if !errors.Is(s.Err(), ErrFetchFailed) {
		t.Fatalf("err = %v, want ErrFetchFailed", s.Err())
	}
}

func TestTransitionTerminalStatesIgnoreEvents(t *testing.T) {
	t.Parallel()

	loaded := Transition(Initial(), Resolved{Snapshot: model.NewQueueSnapshot(model.QueueState{Name: "a"})})
	if got := Transition(loaded, Rejected{Err: errors.New("late")}); got.Kind() != Loaded {
		t.Fatalf("loaded moved to %v", got.Kind())
	}

	failed := Transition(Initial(), Rejected{Err: errors.New("boom")})
	if got := Transition(failed, Resolved{}); got.Kind() != Failed {
		t.Fatalf("failed moved to %v", got.Kind())
	}
}

func TestKindString(t *testing.T) {
	t.Parallel()

	for k, want := range map[Kind]string{Loading: "loading", Loaded: "loaded", Failed: "failed", Kind(9): "unknown"} {
		if got := k.String(); got != want {
			t.Errorf("Kind(%d).String() = %q, want %q", int(k), got, want)
		}
	}
}
