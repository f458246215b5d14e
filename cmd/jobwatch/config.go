package main

import "github.com/tinytelemetry/jobwatch/internal/model"

const (
	defaultBindHost       = model.DefaultBindHost
	defaultAPIPort        = model.DefaultAPIPort
	defaultRedisURL       = "redis://127.0.0.1:6379/0"
	defaultRedisKeyPrefix = model.DefaultKeyPrefix
	defaultRedisMaxJobs   = 0
	defaultEventsKeep     = 10000
	defaultLogLevel       = model.DefaultLogLevel
	defaultLogFormat      = model.DefaultLogFormat
)

// appConfig is internal runtime configuration.
// It is package-private to keep defaults and shape local to the CLI entrypoint.
type appConfig struct {
	Host           string `mapstructure:"host"`
	APIPort        int    `mapstructure:"api-port"`
	APIAddr        string `mapstructure:"api-addr"`
	RedisURL       string `mapstructure:"redis-url"`
	RedisKeyPrefix string `mapstructure:"redis-key-prefix"`
	RedisMaxJobs   int    `mapstructure:"redis-max-jobs"`
	SnapshotFile   string `mapstructure:"snapshot-file"`
	EventsEnabled  bool   `mapstructure:"events-enabled"`
	EventsPath     string `mapstructure:"events-path"`
	EventsKeep     int    `mapstructure:"events-keep"`
	LogLevel       string `mapstructure:"log-level"`
	LogFormat      string `mapstructure:"log-format"`
	LogFile        string `mapstructure:"log-file"`
	ConfigPath     string `mapstructure:"-"` // not from config file
}
