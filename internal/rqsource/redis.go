// Package rqsource reads queue snapshots from an RQ deployment in Redis or
// from a fixture file.
package rqsource

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/redis/go-redis/v9"
	"github.com/tinytelemetry/jobwatch/internal/model"
	"golang.org/x/sync/errgroup"
)

const defaultQueueReaders = 8

// jobFields are the RQ job hash fields copied into each job record.
var jobFields = []string{
	"origin",
	"status",
	"created_at",
	"enqueued_at",
	"started_at",
	"worker_name",
	"timeout",
	"result_ttl",
}

// redisReader is the subset of the go-redis API the provider uses.
type redisReader interface {
	SMembers(ctx context.Context, key string) *redis.StringSliceCmd
	LRange(ctx context.Context, key string, start, stop int64) *redis.StringSliceCmd
	ZRange(ctx context.Context, key string, start, stop int64) *redis.StringSliceCmd
	HGetAll(ctx context.Context, key string) *redis.MapStringStringCmd
}

// RedisConfig describes how to reach the RQ keyspace.
type RedisConfig struct {
	URL       string // redis://[:password@]host:port/db
	KeyPrefix string // "rq:" unless RQ was configured otherwise
	MaxJobs   int    // job hashes read per list; 0 reads every hash
}

// RedisProvider builds snapshots from RQ's Redis layout:
//
//	<prefix>queues          set of queue keys (<prefix>queue:<name>)
//	<prefix>queue:<name>    list of queued job ids
//	<prefix>wip:<name>      sorted set of started job ids
//	<prefix>job:<id>        hash of job fields
type RedisProvider struct {
	reader  redisReader
	closer  func() error
	prefix  string
	maxJobs int
}

// NewRedisProvider connects to Redis and verifies the connection.
func NewRedisProvider(ctx context.Context, cfg RedisConfig) (*RedisProvider, error) {
	if strings.TrimSpace(cfg.URL) == "" {
		return nil, errors.New("rqsource: redis url is empty")
	}
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("rqsource: parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("rqsource: ping redis: %w", err)
	}
	p := newRedisProvider(client, cfg.KeyPrefix, cfg.MaxJobs)
	p.closer = client.Close
	return p, nil
}

func newRedisProvider(reader redisReader, prefix string, maxJobs int) *RedisProvider {
	if prefix == "" {
		prefix = model.DefaultKeyPrefix
	}
	return &RedisProvider{reader: reader, prefix: prefix, maxJobs: maxJobs}
}

// Close releases the Redis connection.
func (p *RedisProvider) Close() error {
	if p.closer == nil {
		return nil
	}
	return p.closer()
}

// Snapshot reads every registered queue. Queues are ordered by name; jobs keep
// Redis order. Every job id is listed so counts stay exact. When MaxJobs is set,
// ids past the limit are reported with their id only. Job ids whose hash has
// expired are skipped.
func (p *RedisProvider) Snapshot(ctx context.Context) (model.QueueSnapshot, error) {
	keys, err := p.reader.SMembers(ctx, p.prefix+"queues").Result()
	if err != nil {
		return model.QueueSnapshot{}, fmt.Errorf("rqsource: list queues: %w", err)
	}

	queuePrefix := p.prefix + "queue:"
	names := make([]string, 0, len(keys))
	for _, key := range keys {
		names = append(names, strings.TrimPrefix(key, queuePrefix))
	}
	sort.Strings(names)

	states := make([]model.QueueState, len(names))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(defaultQueueReaders)
	for i, name := range names {
		g.Go(func() error {
			state, err := p.readQueue(gctx, name)
			if err != nil {
				return err
			}
			states[i] = state
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return model.QueueSnapshot{}, err
	}
	return model.NewQueueSnapshot(states...), nil
}

func (p *RedisProvider) readQueue(ctx context.Context, name string) (model.QueueState, error) {
	queuedIDs, err := p.reader.LRange(ctx, p.prefix+"queue:"+name, 0, -1).Result()
	if err != nil {
		return model.QueueState{}, fmt.Errorf("rqsource: queue %q: read queued: %w", name, err)
	}
	startedMembers, err := p.reader.ZRange(ctx, p.prefix+"wip:"+name, 0, -1).Result()
	if err != nil {
		return model.QueueState{}, fmt.Errorf("rqsource: queue %q: read started: %w", name, err)
	}

	startedIDs := make([]string, 0, len(startedMembers))
	for _, member := range startedMembers {
		// Newer RQ versions store "<job id>:<execution id>".
		id, _, _ := strings.Cut(member, ":")
		startedIDs = append(startedIDs, id)
	}

	started, err := p.loadJobs(ctx, startedIDs)
	if err != nil {
		return model.QueueState{}, fmt.Errorf("rqsource: queue %q: %w", name, err)
	}
	queued, err := p.loadJobs(ctx, queuedIDs)
	if err != nil {
		return model.QueueState{}, fmt.Errorf("rqsource: queue %q: %w", name, err)
	}
	return model.QueueState{Name: name, Started: started, Queued: queued}, nil
}

func (p *RedisProvider) loadJobs(ctx context.Context, ids []string) ([]model.Job, error) {
	jobs := make([]model.Job, 0, len(ids))
	for i, id := range ids {
		if p.maxJobs > 0 && i >= p.maxJobs {
			job, err := jobFromHash(id, nil)
			if err != nil {
				return nil, err
			}
			jobs = append(jobs, job)
			continue
		}
		fields, err := p.reader.HGetAll(ctx, p.prefix+"job:"+id).Result()
		if err != nil {
			return nil, fmt.Errorf("read job %s: %w", id, err)
		}
		if len(fields) == 0 {
			continue
		}
		job, err := jobFromHash(id, fields)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	return jobs, nil
}

func jobFromHash(id string, fields map[string]string) (model.Job, error) {
	record := map[string]interface{}{"id": id}
	if desc, ok := fields["description"]; ok {
		record["name"] = desc
	}
	for _, key := range jobFields {
		if v, ok := fields[key]; ok && v != "" {
			record[key] = v
		}
	}
	data, err := json.Marshal(record)
	if err != nil {
		return nil, fmt.Errorf("encode job %s: %w", id, err)
	}
	return model.Job(data), nil
}
