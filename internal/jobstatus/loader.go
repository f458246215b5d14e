package jobstatus

import (
	"context"
	"log/slog"
	"sync"

	"github.com/tinytelemetry/jobwatch/internal/analytics"
	"github.com/tinytelemetry/jobwatch/internal/model"
)

// Loader runs one activation of the status view: it records the page view and
// performs the single fetch.
type Loader struct {
	fetcher  Fetcher
	recorder model.EventRecorder
	logger   *slog.Logger
	source   string
	pending  sync.WaitGroup
}

// NewLoader creates a loader. recorder and logger may be nil.
func NewLoader(fetcher Fetcher, recorder model.EventRecorder, logger *slog.Logger, source string) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{
		fetcher:  fetcher,
		recorder: recorder,
		logger:   logger,
		source:   source,
	}
}

// Load records the activation and fetches a snapshot. The page view is sent in
// the background and never affects the returned event.
func (l *Loader) Load(ctx context.Context) Event {
	l.recordActivation(ctx)

	snapshot, err := l.fetcher.Fetch(ctx)
	if err != nil {
		l.logger.Warn("status fetch failed", "error", err)
		return Rejected{Err: err}
	}
	l.logger.Debug("status fetched", "queues", snapshot.Len())
	return Resolved{Snapshot: snapshot}
}

// LoadState runs Load and applies the result to a fresh Loading state.
func (l *Loader) LoadState(ctx context.Context) State {
	return Transition(Initial(), l.Load(ctx))
}

func (l *Loader) recordActivation(ctx context.Context) {
	if l.recorder == nil {
		return
	}
	event := analytics.NewPageView(PageID, l.source)
	ctx = context.WithoutCancel(ctx)
	l.pending.Add(1)
	go func() {
		defer l.pending.Done()
		if err := l.recorder.Record(ctx, event); err != nil {
			l.logger.Debug("page view not recorded", "page", PageID, "error", err)
		}
	}()
}

// Wait blocks until every page view handed to the recorder has been accepted
// or rejected by it.
func (l *Loader) Wait() {
	l.pending.Wait()
}
