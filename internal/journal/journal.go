package journal

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/gofrs/flock"
	jsoniter "github.com/json-iterator/go"
	"github.com/tinytelemetry/jobwatch/internal/model"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	defaultFileMode = 0644
	defaultDirMode  = 0755
)

var _ model.EventRecorder = (*Journal)(nil)

// ErrLocked is returned by Open when another process holds the journal.
var ErrLocked = errors.New("journal: locked by another process")

type entry struct {
	Seq   uint64               `json:"seq"`
	Event model.AnalyticsEvent `json:"event"`
}

// Journal is a durable append-only log of analytics events.
// It stores one JSON entry per line.
type Journal struct {
	mu      sync.Mutex
	path    string
	file    *os.File
	lock    *flock.Flock
	nextSeq uint64
}

// Open creates or opens a journal at path. On startup it keeps only the newest
// keep entries (keep <= 0 keeps everything) and drops a partially written
// trailing line.
func Open(path string, keep int) (*Journal, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("journal: path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), defaultDirMode); err != nil {
		return nil, fmt.Errorf("journal: mkdir: %w", err)
	}

	lock := flock.New(path + ".lock")
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("journal: lock: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("%w: %s", ErrLocked, path)
	}

	maxSeq, err := compact(path, keep)
	if err != nil {
		_ = lock.Unlock()
		return nil, err
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_RDWR, defaultFileMode)
	if err != nil {
		_ = lock.Unlock()
		return nil, fmt.Errorf("journal: open: %w", err)
	}

	return &Journal{
		path:    path,
		file:    f,
		lock:    lock,
		nextSeq: maxSeq + 1,
	}, nil
}

// Append persists one event and returns its sequence number.
func (j *Journal) Append(event model.AnalyticsEvent) (uint64, error) {
	if err := event.Validate(); err != nil {
		return 0, fmt.Errorf("journal: %w", err)
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	if j.file == nil {
		return 0, errors.New("journal: closed")
	}

	seq := j.nextSeq
	line, err := json.Marshal(entry{Seq: seq, Event: event})
	if err != nil {
		return 0, fmt.Errorf("journal: marshal entry: %w", err)
	}
	line = append(line, '\n')

	if _, err := j.file.Write(line); err != nil {
		return 0, fmt.Errorf("journal: write entry: %w", err)
	}
	if err := j.file.Sync(); err != nil {
		return 0, fmt.Errorf("journal: sync entry: %w", err)
	}
	j.nextSeq++
	return seq, nil
}

// Record implements model.EventRecorder.
func (j *Journal) Record(_ context.Context, event model.AnalyticsEvent) error {
	_, err := j.Append(event)
	return err
}

// Recent returns up to limit of the newest events, oldest first.
func (j *Journal) Recent(limit int) ([]model.AnalyticsEvent, error) {
	if limit <= 0 {
		return []model.AnalyticsEvent{}, nil
	}
	ring := make([]model.AnalyticsEvent, 0, limit)
	err := j.Replay(func(_ uint64, event model.AnalyticsEvent) error {
		if len(ring) == limit {
			copy(ring, ring[1:])
			ring = ring[:limit-1]
		}
		ring = append(ring, event)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ring, nil
}

// Replay calls fn for each entry in sequence order.
func (j *Journal) Replay(fn func(seq uint64, event model.AnalyticsEvent) error) error {
	if fn == nil {
		return errors.New("journal: replay callback is nil")
	}

	j.mu.Lock()
	path := j.path
	j.mu.Unlock()

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("journal: open for replay: %w", err)
	}
	defer f.Close()

	return scan(f, func(e entry, _ []byte) error {
		return fn(e.Seq, e.Event)
	})
}

// Close closes the underlying journal file and releases the lock.
func (j *Journal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.file == nil {
		return nil
	}
	err := j.file.Close()
	j.file = nil
	if uerr := j.lock.Unlock(); err == nil {
		err = uerr
	}
	return err
}

// scan reads complete lines in order. Malformed lines are skipped and a
// partially written trailing line ends the scan.
func scan(r io.Reader, fn func(e entry, line []byte) error) error {
	reader := bufio.NewReader(r)
	for {
		line, err := reader.ReadBytes('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("journal: read: %w", err)
		}
		if len(line) == 0 || line[len(line)-1] != '\n' {
			return nil
		}

		var e entry
		if uerr := json.Unmarshal(line, &e); uerr != nil {
			continue
		}
		if ferr := fn(e, line); ferr != nil {
			return ferr
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
	}
}

func compact(path string, keep int) (uint64, error) {
	src, err := os.OpenFile(path, os.O_CREATE|os.O_RDONLY, defaultFileMode)
	if err != nil {
		return 0, fmt.Errorf("journal: open source for compact: %w", err)
	}
	defer src.Close()

	var maxSeq uint64
	var lines [][]byte
	err = scan(src, func(e entry, line []byte) error {
		if e.Seq > maxSeq {
			maxSeq = e.Seq
		}
		lines = append(lines, line)
		if keep > 0 && len(lines) > keep {
			lines = lines[1:]
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	tmpPath := path + ".compact"
	dst, err := os.OpenFile(tmpPath, os.O_CREATE|os.O_TRUNC|os.O_RDWR, defaultFileMode)
	if err != nil {
		return 0, fmt.Errorf("journal: open compact tmp: %w", err)
	}
	for _, line := range lines {
		if _, werr := dst.Write(line); werr != nil {
			_ = dst.Close()
			_ = os.Remove(tmpPath)
			return 0, fmt.Errorf("journal: compact write: %w", werr)
		}
	}
	if err := dst.Sync(); err != nil {
		_ = dst.Close()
		_ = os.Remove(tmpPath)
		return 0, fmt.Errorf("journal: compact sync: %w", err)
	}
	if err := dst.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return 0, fmt.Errorf("journal: compact close: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return 0, fmt.Errorf("journal: compact rename: %w", err)
	}
	return maxSeq, nil
}
