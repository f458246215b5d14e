package model

import "time"

// AnalyticsEvent is one operator activity signal, for example a page view.
type AnalyticsEvent struct {
	ID         string    `json:"id"`
	Timestamp  time.Time `json:"timestamp"`
	Action     string    `json:"action"`
	ObjectType string    `json:"object_type"`
	ObjectID   string    `json:"object_id"`
	Source     string    `json:"source,omitempty"`
}

// Validate reports whether the event carries the fields every recorder needs.
func (e AnalyticsEvent) Validate() error {
	switch {
	case e.Action == "":
		return errMissingField("action")
	case e.ObjectType == "":
		return errMissingField("object_type")
	case e.ObjectID == "":
		return errMissingField("object_id")
	}
	return nil
}

type errMissingField string

func (e errMissingField) Error() string {
	return "analytics event: missing " + string(e)
}
