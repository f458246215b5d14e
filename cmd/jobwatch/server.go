package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/tinytelemetry/jobwatch/internal/analytics"
	"github.com/tinytelemetry/jobwatch/internal/httpserver"
	"github.com/tinytelemetry/jobwatch/internal/journal"
	"github.com/tinytelemetry/jobwatch/internal/logging"
	"github.com/tinytelemetry/jobwatch/internal/model"
	"golang.org/x/sync/errgroup"
)

// eventStore journals analytics events and echoes them to the log.
type eventStore struct {
	model.EventRecorder
	model.EventReader
}

// runServer serves queue snapshots and analytics intake over HTTP.
func runServer(cfg appConfig) error {
	logger, cleanupLogger, err := logging.Setup(logging.Config{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
		File:   cfg.LogFile,
	})
	if err != nil {
		return fmt.Errorf("failed to configure logging: %w", err)
	}
	defer cleanupLogger()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	source, err := openSnapshotSource(ctx, buildSourcePlugins(SourcePluginConfig{
		SnapshotFile:   cfg.SnapshotFile,
		RedisURL:       cfg.RedisURL,
		RedisKeyPrefix: cfg.RedisKeyPrefix,
		RedisMaxJobs:   cfg.RedisMaxJobs,
	}))
	if err != nil {
		return fmt.Errorf("failed to open snapshot source: %w", err)
	}
	defer func() {
		if err := source.Close(); err != nil {
			logger.Warn("snapshot source close failed", "source", source.Name, "error", err)
		}
	}()

	// Open the analytics journal so page views survive restarts.
	var events httpserver.EventStore
	if cfg.EventsEnabled {
		eventJournal, err := journal.Open(cfg.EventsPath, cfg.EventsKeep)
		if err != nil {
			return fmt.Errorf("failed to open events journal: %w", err)
		}
		defer eventJournal.Close()
		events = eventStore{
			EventRecorder: analytics.Multi{eventJournal, analytics.NewLogRecorder(logger)},
			EventReader:   eventJournal,
		}
	}

	apiServer := httpserver.NewServer(cfg.APIAddr, source.Provider, events, logger)
	if err := apiServer.Start(); err != nil {
		return fmt.Errorf("failed to start API server: %w", err)
	}
	defer apiServer.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigCh
		fmt.Println("\nShutting down gracefully... (press Ctrl+C again to force)")
		cancel()

		// Shutdown deadline starts now, not at boot.
		deadline := time.NewTimer(10 * time.Second)
		defer deadline.Stop()

		select {
		case <-sigCh:
			fmt.Println("\nForce shutdown.")
		case <-deadline.C:
			fmt.Println("Shutdown timed out, forcing exit.")
		}
		os.Exit(1)
	}()

	printStartupBanner(cfg, source)
	logger.Info("jobwatch started",
		"version", version,
		"source", source.Name,
		"api", cfg.APIAddr,
		"events", cfg.EventsEnabled,
	)

	g, gctx := errgroup.WithContext(ctx)

	// Probe the source once so a bad connection shows up in the log at boot.
	g.Go(func() error {
		probeSource(gctx, logger, source)
		return nil
	})

	// Wait for context cancellation (from signal handler) in the errgroup
	g.Go(func() error {
		<-gctx.Done()
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("server: errgroup exited with error", "error", err)
	}

	signal.Stop(sigCh)
	logger.Info("jobwatch stopped")
	return nil
}

func probeSource(ctx context.Context, logger *slog.Logger, source SnapshotSource) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	snapshot, err := source.Provider.Snapshot(ctx)
	if err != nil {
		logger.Warn("initial snapshot failed", "source", source.Name, "error", err)
		return
	}
	logger.Info("initial snapshot", "source", source.Name, "queues", snapshot.Len())
}

func printStartupBanner(cfg appConfig, source SnapshotSource) {
	dim := lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	green := lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	cyan := lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	yellow := lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	bold := lipgloss.NewStyle().Bold(true)

	check := green.Render("●")
	dot := dim.Render("●")

	logo := cyan.Bold(true).Render("    jobwatch")
	ver := dim.Render("v" + version)

	var lines []string
	lines = append(lines, "")
	lines = append(lines, logo+"  "+ver)
	lines = append(lines, "")

	separator := dim.Render("    ─────────────────────────────────")
	lines = append(lines, separator)
	lines = append(lines, "")

	lines = append(lines, bold.Render("    Gateway"))
	lines = append(lines, "")
	lines = append(lines, fmt.Sprintf("    %s  HTTP API       %s", check, cyan.Render(cfg.APIAddr)))
	lines = append(lines, fmt.Sprintf("    %s  Status Path    %s", check, dim.Render(model.DefaultStatusPath)))
	lines = append(lines, "")

	lines = append(lines, bold.Render("    Source"))
	lines = append(lines, "")
	lines = append(lines, fmt.Sprintf("    %s  %-14s %s", check, strings.ToUpper(source.Name[:1])+source.Name[1:], dim.Render(redactURL(shortenPath(source.Detail)))))
	lines = append(lines, "")

	lines = append(lines, bold.Render("    Storage"))
	lines = append(lines, "")
	if cfg.EventsEnabled {
		lines = append(lines, fmt.Sprintf("    %s  Events         %s", check, dim.Render(shortenPath(cfg.EventsPath))))
	} else {
		lines = append(lines, fmt.Sprintf("    %s  Events         %s", dot, dim.Render("disabled")))
	}
	lines = append(lines, "")

	lines = append(lines, bold.Render("    Config"))
	lines = append(lines, "")
	if cfg.ConfigPath != "" {
		lines = append(lines, fmt.Sprintf("    %s  Config File    %s", check, dim.Render(shortenPath(cfg.ConfigPath))))
	} else {
		lines = append(lines, fmt.Sprintf("    %s  Config File    %s", dot, dim.Render("default (no file)")))
	}
	lines = append(lines, fmt.Sprintf("    %s  Log File       %s", check, dim.Render(shortenPath(cfg.LogFile))))

	lines = append(lines, "")
	lines = append(lines, separator)
	lines = append(lines, "")
	lines = append(lines, "    "+dim.Render("Press ")+yellow.Render("Ctrl+C")+dim.Render(" to stop"))
	lines = append(lines, "")

	fmt.Println(strings.Join(lines, "\n"))
}

// redactURL hides credentials in connection URLs; other strings pass through.
func redactURL(s string) string {
	u, err := url.Parse(s)
	if err != nil || u.User == nil {
		return s
	}
	return u.Redacted()
}

func shortenPath(path string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	if strings.HasPrefix(path, home) {
		return "~" + path[len(home):]
	}
	return path
}
