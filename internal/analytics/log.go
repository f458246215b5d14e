package analytics

import (
	"context"
	"log/slog"

	"github.com/tinytelemetry/jobwatch/internal/model"
)

// LogRecorder writes events to a structured logger.
type LogRecorder struct {
	logger *slog.Logger
}

func NewLogRecorder(logger *slog.Logger) *LogRecorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogRecorder{logger: logger}
}

func (r *LogRecorder) Record(ctx context.Context, event model.AnalyticsEvent) error {
	if err := event.Validate(); err != nil {
		return err
	}
	r.logger.LogAttrs(ctx, slog.LevelInfo, "analytics event",
		slog.String("id", event.ID),
		slog.String("action", event.Action),
		slog.String("object_type", event.ObjectType),
		slog.String("object_id", event.ObjectID),
		slog.String("source", event.Source),
	)
	return nil
}
