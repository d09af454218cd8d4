package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"
	prom "github.com/prometheus/client_golang/prometheus"

	"appforge/internal/config"
	"appforge/internal/forge"
	"appforge/internal/generate"
	"appforge/internal/llm"
	"appforge/internal/metrics"
	"appforge/internal/notify"
	"appforge/internal/publish"
	"appforge/internal/revise"
	"appforge/internal/server/httpserver"
	"appforge/internal/state"
	"appforge/internal/workflow"
	"appforge/internal/workspace"
)

var CLI struct {
	Config  string `short:"c" help:"Configuration file path" default:"config.yaml"`
	Verbose bool   `short:"v" help:"Enable verbose logging"`

	Serve struct {
	} `cmd:"" help:"Start the submission service"`

	Init struct {
		Force bool `help:"Overwrite existing configuration file"`
	} `cmd:"" help:"Initialize a new configuration file"`
}

func main() {
	ctx := kong.Parse(&CLI)

	// Secrets may come from a local .env during development; absence is fine.
	_ = godotenv.Load()

	switch ctx.Command() {
	case "serve":
		if err := runServe(); err != nil {
			slog.Error("Serve failed", "error", err)
			os.Exit(1)
		}
	case "init":
		if err := config.Init(CLI.Config, CLI.Init.Force); err != nil {
			slog.Error("Init failed", "error", err)
			os.Exit(1)
		}
		slog.Info("Configuration file written", "path", CLI.Config)
	}
}

func setupLogging(cfg *config.Config) {
	level := cfg.Logging.Level.SlogLevel()
	if CLI.Verbose {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Logging.Format == config.LogFormatJSON {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))
}

func runServe() error {
	cfg, err := config.Load(CLI.Config)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	setupLogging(cfg)

	if cfg.Submission.Secret == "" {
		return fmt.Errorf("submission secret is not configured (set SUBMISSION_SECRET)")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	journal, err := state.Open(cfg.State.Path)
	if err != nil {
		return fmt.Errorf("failed to open publication journal: %w", err)
	}
	defer func() {
		if err := journal.Close(); err != nil {
			slog.Warn("Failed to close publication journal", "error", err)
		}
	}()

	workspaces, err := workspace.NewManager(cfg.Workspace.Root)
	if err != nil {
		return fmt.Errorf("failed to create workspace: %w", err)
	}
	janitor, err := workspace.NewJanitor(workspaces, cfg.Workspace.JanitorInterval, cfg.Workspace.MaxAge)
	if err != nil {
		return fmt.Errorf("failed to create workspace janitor: %w", err)
	}
	janitor.Start()
	defer func() {
		if err := janitor.Stop(); err != nil {
			slog.Warn("Failed to stop workspace janitor", "error", err)
		}
	}()

	registry := prom.NewRegistry()
	recorder := metrics.NewPrometheusRecorder(registry)

	var forgeClient workflow.Forge
	if cfg.Forge.Token != "" {
		client, err := forge.NewClient(cfg.Forge)
		if err != nil {
			return fmt.Errorf("failed to create forge client: %w", err)
		}
		forgeClient = client
	} else {
		// The service still starts; requests fail with the config error the
		// API contract prescribes.
		slog.Warn("Forge token is not configured; submissions will be rejected")
		forgeClient = unconfiguredForge{}
	}

	var textGen llm.TextGenerator
	if cfg.Generation.APIKey != "" {
		gemini, err := llm.NewGeminiClient(ctx, cfg.Generation.APIKey, cfg.Generation.Model)
		if err != nil {
			return fmt.Errorf("failed to create generation client: %w", err)
		}
		textGen = gemini
	} else {
		slog.Warn("Generation API key is not configured; generation requests will fail")
		textGen = llm.Disabled{}
	}

	generator := generate.New(textGen)
	publisher := publish.New(cfg.Forge)
	reviser := revise.NewEngine(workspaces, publisher, generator)
	notifier := notify.New(cfg.Notify.Timeout)

	orchestrator := workflow.New(workflow.Options{
		Secret:     cfg.Submission.Secret,
		ForgeToken: cfg.Forge.Token,
		BaseURL:    cfg.Forge.BaseURL,
		PagesHost:  cfg.Forge.PagesHost,
		Forge:      forgeClient,
		Generator:  generator,
		Publisher:  publisher,
		Reviser:    reviser,
		Workspaces: workspaces,
		Notifier:   notifier,
		Journal:    journal,
		Recorder:   recorder,
	})

	srv := httpserver.New(cfg, httpserver.Options{
		Orchestrator:   orchestrator,
		Journal:        journal,
		MetricsHandler: metrics.HTTPHandler(registry),
		StartTime:      time.Now(),
	})
	if err := srv.Start(ctx); err != nil {
		return err
	}

	slog.Info("Service started, waiting for shutdown signal...")
	<-ctx.Done()
	slog.Info("Shutdown signal received, stopping...")

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer stopCancel()
	if err := srv.Stop(stopCtx); err != nil {
		return fmt.Errorf("failed to stop HTTP servers: %w", err)
	}

	slog.Info("Service stopped successfully")
	return nil
}

// unconfiguredForge stands in when no token is present. The orchestrator's
// token check fires before any of these methods can be reached.
type unconfiguredForge struct{}

func (unconfiguredForge) CurrentUser(context.Context) (*forge.User, error) {
	return nil, fmt.Errorf("forge access is not configured")
}

func (unconfiguredForge) ListRepositories(context.Context) ([]*forge.Repository, error) {
	return nil, fmt.Errorf("forge access is not configured")
}

func (unconfiguredForge) CreateRepository(context.Context, string) (*forge.Repository, error) {
	return nil, fmt.Errorf("forge access is not configured")
}

func (unconfiguredForge) EnablePages(context.Context, string, string) error {
	return fmt.Errorf("forge access is not configured")
}
