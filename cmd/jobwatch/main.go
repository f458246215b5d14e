package main

import (
	"errors"
	"flag"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/viper"
	"github.com/tinytelemetry/jobwatch/internal/logging"
)

// Build variables - set by ldflags during build.
var (
	version   = "dev"
	commit    = "unknown"
	buildTime = "unknown"
	goVersion = "unknown"
)

func main() {
	var configPath string
	var showVersion bool

	flag.StringVar(&configPath, "config", "", "config file (default is $HOME/.config/jobwatch/config.yml)")
	flag.BoolVar(&showVersion, "version", false, "print version information")
	flag.Parse()

	if showVersion {
		fmt.Printf("Jobwatch - Queue Status Service\n")
		fmt.Printf("  Version:    %s\n", version)
		fmt.Printf("  Commit:     %s\n", commit)
		fmt.Printf("  Built:      %s\n", buildTime)
		fmt.Printf("  Go version: %s\n", goVersion)
		return
	}

	cfg, err := loadConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	if err := runServer(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func loadConfig(configPath string) (appConfig, error) {
	var cfg appConfig

	home, err := os.UserHomeDir()
	if err != nil {
		return cfg, fmt.Errorf("finding home directory: %w", err)
	}

	defaultEventsPath := filepath.Join(home, ".local", "share", "jobwatch", "events.journal")

	v := viper.New()
	v.SetEnvPrefix("JOBWATCH")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))

	v.SetDefault("host", defaultBindHost)
	v.SetDefault("api-port", defaultAPIPort)
	v.SetDefault("redis-url", defaultRedisURL)
	v.SetDefault("redis-key-prefix", defaultRedisKeyPrefix)
	v.SetDefault("redis-max-jobs", defaultRedisMaxJobs)
	v.SetDefault("snapshot-file", "")
	v.SetDefault("events-enabled", true)
	v.SetDefault("events-path", defaultEventsPath)
	v.SetDefault("events-keep", defaultEventsKeep)
	v.SetDefault("log-level", defaultLogLevel)
	v.SetDefault("log-format", defaultLogFormat)
	v.SetDefault("log-file", logging.DefaultFile("jobwatch"))

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		defaultConfigPath := filepath.Join(home, ".config", "jobwatch", "config.yml")
		v.SetConfigFile(defaultConfigPath)
	}

	if err := v.ReadInConfig(); err != nil {
		var configFileNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFound) && !os.IsNotExist(err) {
			return cfg, err
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, err
	}
	cfg.ConfigPath = v.ConfigFileUsed()
	if cfg.APIPort <= 0 || cfg.APIPort > 65535 {
		return cfg, fmt.Errorf("invalid api-port: %d", cfg.APIPort)
	}
	if cfg.RedisMaxJobs < 0 {
		return cfg, fmt.Errorf("invalid redis-max-jobs: %d", cfg.RedisMaxJobs)
	}
	if cfg.EventsKeep < 0 {
		return cfg, fmt.Errorf("invalid events-keep: %d", cfg.EventsKeep)
	}

	// Expand ~ in file paths
	cfg.EventsPath = expandHome(home, cfg.EventsPath)
	cfg.SnapshotFile = expandHome(home, cfg.SnapshotFile)
	cfg.LogFile = expandHome(home, cfg.LogFile)

	if cfg.APIAddr == "" {
		cfg.APIAddr = net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.APIPort))
	}

	return cfg, nil
}

func expandHome(home, path string) string {
	if strings.HasPrefix(path, "~/") {
		return filepath.Join(home, path[2:])
	}
	return path
}
