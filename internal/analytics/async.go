package analytics

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/tinytelemetry/jobwatch/internal/model"
)

// ErrDropped is returned when the async buffer is full or closed.
var ErrDropped = errors.New("analytics: event dropped")

const defaultAsyncBuffer = 64

// Async hands events to a background goroutine so Record never waits on I/O.
type Async struct {
	next   model.EventRecorder
	logger *slog.Logger
	events chan model.AnalyticsEvent

	mu     sync.RWMutex
	closed bool
	done   chan struct{}
}

// NewAsync starts the delivery goroutine. Call Close to flush and stop it.
func NewAsync(next model.EventRecorder, buffer int, logger *slog.Logger) *Async {
	if buffer <= 0 {
		buffer = defaultAsyncBuffer
	}
	if logger == nil {
		logger = slog.Default()
	}
	a := &Async{
		next:   next,
		logger: logger,
		events: make(chan model.AnalyticsEvent, buffer),
		done:   make(chan struct{}),
	}
	go a.run()
	return a
}

// Record enqueues event or drops it when the buffer is full.
func (a *Async) Record(_ context.Context, event model.AnalyticsEvent) error {
	if err := event.Validate(); err != nil {
		return err
	}
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.closed {
		return ErrDropped
	}
	select {
	case a.events <- event:
		return nil
	default:
		return ErrDropped
	}
}

// Close stops accepting events and waits for queued ones to be delivered.
func (a *Async) Close() {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return
	}
	a.closed = true
	close(a.events)
	a.mu.Unlock()
	<-a.done
}

func (a *Async) run() {
	defer close(a.done)
	for event := range a.events {
		if err := a.next.Record(context.Background(), event); err != nil {
			a.logger.Debug("analytics delivery failed", "id", event.ID, "error", err)
		}
	}
}
