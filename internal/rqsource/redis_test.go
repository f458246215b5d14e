package rqsource

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/redis/go-redis/v9"
)

type fakeRedis struct {
	sets   map[string][]string
	lists  map[string][]string
	zsets  map[string][]string
	hashes map[string]map[string]string
	err    error
}

func window(vals []string, start, stop int64) []string {
	if stop < 0 || stop >= int64(len(vals)) {
		stop = int64(len(vals)) - 1
	}
	if start > stop {
		return []string{}
	}
	return append([]string(nil), vals[start:stop+1]...)
}

func (f *fakeRedis) SMembers(_ context.Context, key string) *redis.StringSliceCmd {
	return redis.NewStringSliceResult(f.sets[key], f.err)
}

func (f *fakeRedis) LRange(_ context.Context, key string, start, stop int64) *redis.StringSliceCmd {
	return redis.NewStringSliceResult(window(f.lists[key], start, stop), nil)
}

func (f *fakeRedis) ZRange(_ context.Context, key string, start, stop int64) *redis.StringSliceCmd {
	return redis.NewStringSliceResult(window(f.zsets[key], start, stop), nil)
}

func (f *fakeRedis) HGetAll(_ context.Context, key string) *redis.MapStringStringCmd {
	h, ok := f.hashes[key]
	if !ok {
		h = map[string]string{}
	}
	return redis.NewMapStringStringResult(h, nil)
}

func newFakeRQ() *fakeRedis {
	return &fakeRedis{
		sets: map[string][]string{
			"rq:queues": {"rq:queue:queries", "rq:queue:default", "rq:queue:empty"},
		},
		lists: map[string][]string{
			"rq:queue:default": {"j3"},
			"rq:queue:queries": {"j4", "gone"},
		},
		zsets: map[string][]string{
			"rq:wip:default": {"j1", "j2:exec-1"},
		},
		hashes: map[string]map[string]string{
			"rq:job:j1": {"description": "refresh_queries()", "origin": "default", "started_at": "2024-01-01T00:00:00Z"},
			"rq:job:j2": {"description": "cleanup()", "origin": "default", "status": "started"},
			"rq:job:j3": {"description": "send_mail()", "origin": "default", "status": "queued"},
			"rq:job:j4": {"description": "execute_query()", "origin": "queries", "status": "queued"},
		},
	}
}

func TestRedisProviderSnapshot(t *testing.T) {
	t.Parallel()

	p := newRedisProvider(newFakeRQ(), "", 0)
	snap, err := p.Snapshot(context.Background())
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}

	names := snap.Names()
	want := []string{"default", "empty", "queries"}
	if len(names) != len(want) {
		t.Fatalf("names = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("names = %v, want %v", names, want)
		}
	}

	def, _ := snap.Get("default")
	if len(def.Started) != 2 || len(def.Queued) != 1 {
		t.Fatalf("default started=%d queued=%d, want 2/1", len(def.Started), len(def.Queued))
	}
	if got := def.Started[0].Field("id"); got != "j1" {
		t.Errorf("first started id = %q, want j1", got)
	}
	if got := def.Started[1].Field("id"); got != "j2" {
		t.Errorf("execution suffix not stripped: id = %q, want j2", got)
	}
	if got := def.Started[0].Field("name"); got != "refresh_queries()" {
		t.Errorf("name = %q, want description copied", got)
	}

	queries, _ := snap.Get("queries")
	if len(queries.Queued) != 1 {
		t.Errorf("expired job hash should be skipped, queued = %d", len(queries.Queued))
	}

	empty, ok := snap.Get("empty")
	if !ok || len(empty.Started) != 0 || len(empty.Queued) != 0 {
		t.Errorf("empty queue = %+v, ok=%v", empty, ok)
	}
}

func TestRedisProviderMaxJobs(t *testing.T) {
	t.Parallel()

	p := newRedisProvider(newFakeRQ(), "rq:", 1)
	snap, err := p.Snapshot(context.Background())
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	def, _ := snap.Get("default")
	if len(def.Started) != 2 {
		t.Fatalf("started = %d, want 2: the limit must not change counts", len(def.Started))
	}
	if got := def.Started[0].Field("name"); got != "refresh_queries()" {
		t.Errorf("first started name = %q, want hash read", got)
	}
	if got := def.Started[1].Field("id"); got != "j2" {
		t.Errorf("second started id = %q, want j2", got)
	}
	if got := def.Started[1].Field("name"); got != "" {
		t.Errorf("second started name = %q, want id-only record past the limit", got)
	}
}

func TestRedisProviderMaxJobsKeepsExactCounts(t *testing.T) {
	t.Parallel()

	fake := newFakeRQ()
	var ids []string
	for i := 0; i < 25; i++ {
		ids = append(ids, fmt.Sprintf("bulk-%d", i))
	}
	fake.lists["rq:queue:default"] = ids

	p := newRedisProvider(fake, "rq:", 5)
	snap, err := p.Snapshot(context.Background())
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	def, _ := snap.Get("default")
	if len(def.Queued) != 25 {
		t.Fatalf("queued = %d, want 25", len(def.Queued))
	}
}

func TestRedisProviderListError(t *testing.T) {
	t.Parallel()

	fake := newFakeRQ()
	fake.err = errors.New("connection refused")
	p := newRedisProvider(fake, "rq:", 0)
	if _, err := p.Snapshot(context.Background()); err == nil {
		t.Fatal("expected error when queue set cannot be read")
	}
}

func TestNewRedisProviderRejectsEmptyURL(t *testing.T) {
	t.Parallel()

	if _, err := NewRedisProvider(context.Background(), RedisConfig{}); err == nil {
		t.Fatal("expected error for empty url")
	}
}
