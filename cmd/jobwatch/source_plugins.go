package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/tinytelemetry/jobwatch/internal/model"
	"github.com/tinytelemetry/jobwatch/internal/rqsource"
)

var errNoSnapshotSource = errors.New("no snapshot source enabled")

// SnapshotSource is a built provider plus its cleanup.
type SnapshotSource struct {
	Name     string
	Detail   string
	Provider model.SnapshotProvider
	Close    func() error
}

// SnapshotSourcePlugin is a small plugin primitive for wiring snapshot providers.
type SnapshotSourcePlugin interface {
	Name() string
	Enabled() bool
	Build(ctx context.Context) (SnapshotSource, error)
}

// SourcePluginConfig defines runtime source selection.
type SourcePluginConfig struct {
	SnapshotFile   string
	RedisURL       string
	RedisKeyPrefix string
	RedisMaxJobs   int
}

// buildSourcePlugins lists providers in priority order: a fixture file, when
// configured, shadows Redis.
func buildSourcePlugins(cfg SourcePluginConfig) []SnapshotSourcePlugin {
	plugins := make([]SnapshotSourcePlugin, 0, 2)
	plugins = append(plugins, fileSourcePlugin{path: cfg.SnapshotFile})
	plugins = append(plugins, redisSourcePlugin{
		cfg: rqsource.RedisConfig{
			URL:       cfg.RedisURL,
			KeyPrefix: cfg.RedisKeyPrefix,
			MaxJobs:   cfg.RedisMaxJobs,
		},
	})
	return plugins
}

// openSnapshotSource builds the first enabled plugin.
func openSnapshotSource(ctx context.Context, plugins []SnapshotSourcePlugin) (SnapshotSource, error) {
	for _, plugin := range plugins {
		if !plugin.Enabled() {
			continue
		}
		src, err := plugin.Build(ctx)
		if err != nil {
			return SnapshotSource{}, fmt.Errorf("source %q: %w", plugin.Name(), err)
		}
		return src, nil
	}
	return SnapshotSource{}, errNoSnapshotSource
}

type fileSourcePlugin struct {
	path string
}

func (p fileSourcePlugin) Name() string { return "file" }

func (p fileSourcePlugin) Enabled() bool { return p.path != "" }

func (p fileSourcePlugin) Build(_ context.Context) (SnapshotSource, error) {
	provider, err := rqsource.NewFileProvider(p.path)
	if err != nil {
		return SnapshotSource{}, err
	}
	return SnapshotSource{
		Name:     p.Name(),
		Detail:   p.path,
		Provider: provider,
		Close:    func() error { return nil },
	}, nil
}

type redisSourcePlugin struct {
	cfg rqsource.RedisConfig
}

func (p redisSourcePlugin) Name() string { return "redis" }

func (p redisSourcePlugin) Enabled() bool { return p.cfg.URL != "" }

func (p redisSourcePlugin) Build(ctx context.Context) (SnapshotSource, error) {
	provider, err := rqsource.NewRedisProvider(ctx, p.cfg)
	if err != nil {
		return SnapshotSource{}, err
	}
	return SnapshotSource{
		Name:     p.Name(),
		Detail:   p.cfg.URL,
		Provider: provider,
		Close:    provider.Close,
	}, nil
}
