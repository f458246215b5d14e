package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/tinytelemetry/jobwatch/internal/analytics"
	"github.com/tinytelemetry/jobwatch/internal/jobstatus"
	"github.com/tinytelemetry/jobwatch/internal/journal"
	"github.com/tinytelemetry/jobwatch/internal/logging"
	"github.com/tinytelemetry/jobwatch/internal/tui"
)

var (
	version   = "dev"
	commit    = "unknown"
	buildTime = "unknown"
	goVersion = "unknown"
)

const eventSource = "jobwatch-tui"

func main() {
	var configPath string
	var statusURL string
	var printOnce bool
	var showVersion bool

	flag.StringVar(&configPath, "config", "", "config file (default is $HOME/.config/jobwatch/config.yml)")
	flag.StringVar(&statusURL, "url", "", "override status endpoint URL")
	flag.BoolVar(&printOnce, "print", false, "fetch once, print the status report and exit")
	flag.BoolVar(&showVersion, "version", false, "print version information")
	flag.Parse()

	if showVersion {
		fmt.Printf("Jobwatch CLI - Queue Status Client\n")
		fmt.Printf("  Version:    %s\n", version)
		fmt.Printf("  Commit:     %s\n", commit)
		fmt.Printf("  Built:      %s\n", buildTime)
		fmt.Printf("  Go version: %s\n", goVersion)
		return
	}

	cfg, err := loadCLIConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	if statusURL != "" {
		cfg.StatusURL = statusURL
	}

	run := runTUI
	if printOnce {
		run = runPrint
	}
	if err := run(cfg, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// client bundles the loader with the recorders it must flush on exit.
type client struct {
	loader *jobstatus.Loader
	close  func()
}

func newClient(cfg cliConfig, logger *slog.Logger) (*client, error) {
	httpClient := &http.Client{Timeout: cfg.RequestTimeout}

	recorders := analytics.Multi{analytics.NewLogRecorder(logger)}
	closers := []func(){}

	if cfg.EventsURL != "" {
		recorders = append(recorders, analytics.NewHTTPRecorder(cfg.EventsURL, httpClient))
	}
	if cfg.EventsPath != "" {
		j, err := journal.Open(cfg.EventsPath, 0)
		if err != nil {
			return nil, fmt.Errorf("open events journal: %w", err)
		}
		recorders = append(recorders, j)
		closers = append(closers, func() { _ = j.Close() })
	}

	async := analytics.NewAsync(recorders, 0, logger)
	loader := jobstatus.NewLoader(
		jobstatus.NewHTTPFetcher(cfg.StatusURL, httpClient),
		async,
		logger,
		eventSource,
	)

	return &client{
		loader: loader,
		close: func() {
			loader.Wait()
			async.Close()
			for _, c := range closers {
				c()
			}
		},
	}, nil
}

func setupLogging(cfg cliConfig) (*slog.Logger, func(), error) {
	return logging.Setup(logging.Config{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
		File:   cfg.LogFile,
	})
}

func runTUI(cfg cliConfig, _ io.Writer) error {
	logger, cleanupLogger, err := setupLogging(cfg)
	if err != nil {
		return err
	}
	defer cleanupLogger()

	c, err := newClient(cfg, logger)
	if err != nil {
		return err
	}
	defer c.close()

	jobsPage := tui.NewJobsPage(c.loader)
	app := tui.NewApp(jobsPage, tui.NewHelpPage(jobsPage.ID()))
	defer app.Shutdown()

	p := tea.NewProgram(app, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		if strings.Contains(err.Error(), "TTY") || strings.Contains(err.Error(), "/dev/tty") {
			return fmt.Errorf("TUI requires a real terminal (try -print)")
		}
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}

// runPrint performs one activation and writes the report to w. It fails when
// the fetch fails so scripts can rely on the exit status.
func runPrint(cfg cliConfig, w io.Writer) error {
	logger, cleanupLogger, err := setupLogging(cfg)
	if err != nil {
		return err
	}
	defer cleanupLogger()

	c, err := newClient(cfg, logger)
	if err != nil {
		return err
	}
	defer c.close()

	ctx, cancel := context.WithTimeout(context.Background(), cfg.RequestTimeout)
	defer cancel()

	state := c.loader.LoadState(ctx)
	fmt.Fprint(w, tui.RenderStatus(state, time.Now()))
	if state.Kind() == jobstatus.Failed {
		return state.Err()
	}
	return nil
}
