package main

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/tinytelemetry/jobwatch/internal/logging"
	"github.com/tinytelemetry/jobwatch/internal/model"
)

const defaultRequestTimeout = 10 * time.Second

// cliConfig holds only TUI-relevant configuration.
type cliConfig struct {
	StatusURL      string        `mapstructure:"status-url"`
	EventsURL      string        `mapstructure:"events-url"`
	EventsPath     string        `mapstructure:"events-path"`
	RequestTimeout time.Duration `mapstructure:"request-timeout"`
	LogLevel       string        `mapstructure:"log-level"`
	LogFormat      string        `mapstructure:"log-format"`
	LogFile        string        `mapstructure:"log-file"`
}

func defaultServiceURL(path string) string {
	return "http://" + net.JoinHostPort(model.DefaultBindHost, strconv.Itoa(model.DefaultAPIPort)) + path
}

func loadCLIConfig(configPath string) (cliConfig, error) {
	var cfg cliConfig

	home, err := os.UserHomeDir()
	if err != nil {
		return cfg, fmt.Errorf("finding home directory: %w", err)
	}

	v := viper.New()
	v.SetEnvPrefix("JOBWATCH")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))

	v.SetDefault("status-url", defaultServiceURL(model.DefaultStatusPath))
	v.SetDefault("events-url", defaultServiceURL(model.DefaultEventsPath))
	v.SetDefault("events-path", "")
	v.SetDefault("request-timeout", defaultRequestTimeout)
	v.SetDefault("log-level", model.DefaultLogLevel)
	v.SetDefault("log-format", model.DefaultLogFormat)
	v.SetDefault("log-file", logging.DefaultFile("jobwatch-tui"))

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigFile(filepath.Join(home, ".config", "jobwatch", "config.yml"))
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

	if err := validateURL("status-url", cfg.StatusURL, true); err != nil {
		return cfg, err
	}
	if err := validateURL("events-url", cfg.EventsURL, false); err != nil {
		return cfg, err
	}
	if cfg.RequestTimeout <= 0 {
		return cfg, fmt.Errorf("invalid request-timeout: %s", cfg.RequestTimeout)
	}
	if strings.HasPrefix(cfg.EventsPath, "~/") {
		cfg.EventsPath = filepath.Join(home, cfg.EventsPath[2:])
	}
	if strings.HasPrefix(cfg.LogFile, "~/") {
		cfg.LogFile = filepath.Join(home, cfg.LogFile[2:])
	}

	return cfg, nil
}

func validateURL(key, raw string, required bool) error {
	if raw == "" {
		if required {
			return fmt.Errorf("%s is required", key)
		}
		return nil
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid %s: scheme must be http or https", key)
	}
	if u.Host == "" {
		return fmt.Errorf("invalid %s: missing host", key)
	}
	return nil
}
