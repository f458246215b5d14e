package model

import (
	"encoding/json"

	jsoniter "github.com/json-iterator/go"
)

// Job is one job record exactly as the snapshot provider sent it.
// The bytes are carried through unchanged; only display helpers peek inside.
type Job json.RawMessage

// MarshalJSON emits the original bytes.
func (j Job) MarshalJSON() ([]byte, error) {
	if len(j) == 0 {
		return []byte("null"), nil
	}
	return j, nil
}

// UnmarshalJSON keeps a copy of data.
func (j *Job) UnmarshalJSON(data []byte) error {
	*j = append((*j)[0:0], data...)
	return nil
}

// Field returns the scalar value found at path, or "" when the path is
// missing or does not hold a string, number or bool.
func (j Job) Field(path ...interface{}) string {
	if len(j) == 0 {
		return ""
	}
	v := jsoniter.Get(j, path...)
	if v.LastError() != nil {
		return ""
	}
	switch v.ValueType() {
	case jsoniter.StringValue, jsoniter.NumberValue, jsoniter.BoolValue:
		return v.ToString()
	}
	return ""
}

// QueueState is the started and queued jobs of one queue.
type QueueState struct {
	Name    string `json:"name"`
	Started []Job  `json:"started"`
	Queued  []Job  `json:"queued"`
}

// MarshalJSON writes empty job lists as [] rather than null.
func (q QueueState) MarshalJSON() ([]byte, error) {
	type plain QueueState
	out := plain(q)
	if out.Started == nil {
		out.Started = []Job{}
	}
	if out.Queued == nil {
		out.Queued = []Job{}
	}
	return jsonAPI.Marshal(out)
}

// QueueCounter is the number of started and queued jobs in one queue.
type QueueCounter struct {
	Name    string `json:"name"`
	Started int    `json:"started"`
	Queued  int    `json:"queued"`
}

// OverallCounters sums QueueCounter values across every queue.
type OverallCounters struct {
	Started int `json:"started"`
	Queued  int `json:"queued"`
}

// Status is the display-ready view of a snapshot.
type Status struct {
	QueueCounters []QueueCounter  `json:"queueCounters"`
	Overall       OverallCounters `json:"overallCounters"`
	StartedJobs   []Job           `json:"startedJobs"`
}
