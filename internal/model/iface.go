package model

import "context"

// SnapshotProvider reads the current state of every queue.
type SnapshotProvider interface {
	Snapshot(ctx context.Context) (QueueSnapshot, error)
}

// EventRecorder accepts analytics events. Implementations must not block the caller
// for longer than it takes to hand the event off.
type EventRecorder interface {
	Record(ctx context.Context, event AnalyticsEvent) error
}

// EventReader returns previously recorded analytics events, newest last.
type EventReader interface {
	Recent(limit int) ([]AnalyticsEvent, error)
}
