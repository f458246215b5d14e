// Package analytics records operator activity events. Every recorder here is
// best effort: callers treat a failed Record as informational only.
package analytics

import (
	"time"

	"github.com/google/uuid"
	"github.com/tinytelemetry/jobwatch/internal/model"
)

// NewPageView builds a "view page" event for pageID.
func NewPageView(pageID, source string) model.AnalyticsEvent {
	return model.AnalyticsEvent{
		ID:         uuid.NewString(),
		Timestamp:  time.Now().UTC(),
		Action:     "view",
		ObjectType: "page",
		ObjectID:   pageID,
		Source:     source,
	}
}
