package model

import (
	"errors"
	"fmt"
	"io"

	jsoniter "github.com/json-iterator/go"
)

var jsonAPI = jsoniter.ConfigCompatibleWithStandardLibrary

// ErrSnapshotShape is returned when a payload is not an object of queue states.
var ErrSnapshotShape = errors.New("snapshot: payload is not an object of queues")

// QueueSnapshot maps queue names to their state. Iteration order is the order
// in which keys were first set, which for decoded payloads is document order.
// A key set twice keeps its first position and its last value.
type QueueSnapshot struct {
	names  []string
	queues map[string]QueueState
}

// NewQueueSnapshot builds a snapshot keyed by each state's Name, in argument order.
func NewQueueSnapshot(queues ...QueueState) QueueSnapshot {
	var s QueueSnapshot
	for _, q := range queues {
		s.Set(q.Name, q)
	}
	return s
}

// Set stores q under key.
func (s *QueueSnapshot) Set(key string, q QueueState) {
	if s.queues == nil {
		s.queues = make(map[string]QueueState)
	}
	if _, exists := s.queues[key]; !exists {
		s.names = append(s.names, key)
	}
	s.queues[key] = q
}

// Get returns the state stored under key.
func (s QueueSnapshot) Get(key string) (QueueState, bool) {
	q, ok := s.queues[key]
	return q, ok
}

// Len returns the number of queues.
func (s QueueSnapshot) Len() int { return len(s.names) }

// Names returns the queue keys in iteration order.
func (s QueueSnapshot) Names() []string {
	return append([]string(nil), s.names...)
}

// Queues returns the queue states in iteration order.
func (s QueueSnapshot) Queues() []QueueState {
	out := make([]QueueState, 0, len(s.names))
	for _, name := range s.names {
		out = append(out, s.queues[name])
	}
	return out
}

// MarshalJSON writes the queues as one object with keys in iteration order.
func (s QueueSnapshot) MarshalJSON() ([]byte, error) {
	stream := jsonAPI.BorrowStream(nil)
	defer jsonAPI.ReturnStream(stream)

	stream.WriteObjectStart()
	for i, name := range s.names {
		if i > 0 {
			stream.WriteMore()
		}
		stream.WriteObjectField(name)
		stream.WriteVal(s.queues[name])
	}
	stream.WriteObjectEnd()
	if stream.Error != nil {
		return nil, stream.Error
	}
	return append([]byte(nil), stream.Buffer()...), nil
}

// UnmarshalJSON decodes an object keyed by queue name, keeping key order.
// Each value must be an object; "started" and "queued" must be arrays when
// present, and a missing "name" falls back to the key.
func (s *QueueSnapshot) UnmarshalJSON(data []byte) error {
	iter := jsoniter.ParseBytes(jsonAPI, data)
	if iter.WhatIsNext() != jsoniter.ObjectValue {
		return ErrSnapshotShape
	}

	var out QueueSnapshot
	var decodeErr error
	iter.ReadObjectCB(func(it *jsoniter.Iterator, key string) bool {
		q, err := readQueueState(it, key)
		if err != nil {
			decodeErr = err
			return false
		}
		out.Set(key, q)
		return true
	})
	if decodeErr != nil {
		return decodeErr
	}
	if iter.Error != nil {
		return fmt.Errorf("snapshot: %w", iter.Error)
	}
	// Anything but whitespace after the object is malformed input.
	iter.WhatIsNext()
	if !errors.Is(iter.Error, io.EOF) {
		return errors.New("snapshot: unexpected data after top-level object")
	}
	*s = out
	return nil
}

func readQueueState(it *jsoniter.Iterator, key string) (QueueState, error) {
	q := QueueState{Name: key}
	if it.WhatIsNext() != jsoniter.ObjectValue {
		return q, fmt.Errorf("%w: queue %q is not an object", ErrSnapshotShape, key)
	}

	var err error
	it.ReadObjectCB(func(it *jsoniter.Iterator, field string) bool {
		switch field {
		case "name":
			switch it.WhatIsNext() {
			case jsoniter.StringValue:
				q.Name = it.ReadString()
			case jsoniter.NilValue:
				it.ReadNil()
			default:
				err = fmt.Errorf("%w: queue %q has a non-string name", ErrSnapshotShape, key)
			}
		case "started":
			q.Started, err = readJobs(it, key, field)
		case "queued":
			q.Queued, err = readJobs(it, key, field)
		default:
			it.Skip()
		}
		return err == nil && it.Error == nil
	})
	if err != nil {
		return q, err
	}
	if it.Error != nil {
		return q, fmt.Errorf("snapshot: queue %q: %w", key, it.Error)
	}
	if q.Name == "" {
		q.Name = key
	}
	return q, nil
}

func readJobs(it *jsoniter.Iterator, queue, field string) ([]Job, error) {
	switch it.WhatIsNext() {
	case jsoniter.NilValue:
		it.ReadNil()
		return nil, nil
	case jsoniter.ArrayValue:
	default:
		return nil, fmt.Errorf("%w: queue %q field %q is not an array", ErrSnapshotShape, queue, field)
	}

	jobs := []Job{}
	it.ReadArrayCB(func(it *jsoniter.Iterator) bool {
		raw := it.SkipAndReturnBytes()
		if it.Error != nil {
			return false
		}
		jobs = append(jobs, Job(append([]byte(nil), raw...)))
		return true
	})
	return jobs, nil
}
