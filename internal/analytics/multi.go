package analytics

import (
	"context"
	"errors"

	"github.com/tinytelemetry/jobwatch/internal/model"
)

// Multi fans one event out to several recorders.
type Multi []model.EventRecorder

func (m Multi) Record(ctx context.Context, event model.AnalyticsEvent) error {
	var errs []error
	for _, r := range m {
		if r == nil {
			continue
		}
		if err := r.Record(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
