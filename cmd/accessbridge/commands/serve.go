package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/accessbridge/accessbridge/pkg/bridge"
	"github.com/accessbridge/accessbridge/pkg/config"
	"github.com/accessbridge/accessbridge/pkg/hostproc"
	"github.com/accessbridge/accessbridge/pkg/mcp"
	"github.com/accessbridge/accessbridge/pkg/telemetry"
)

func newServeCommand(version string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the MCP tool surface over stdio",
		Long: `Serve starts the AccessBridge MCP server on stdin/stdout. Logs go to
stderr; stdout carries only the protocol stream.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), version)
		},
	}
}

func runServe(ctx context.Context, version string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if verbose {
		cfg.Logging.Level = "debug"
	}

	log, err := telemetry.NewLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}

	metrics, err := telemetry.NewMetrics(cfg.Metrics)
	if err != nil {
		return fmt.Errorf("failed to create metrics: %w", err)
	}
	if err := metrics.StartMetricsServer(log); err != nil {
		return fmt.Errorf("failed to start metrics server: %w", err)
	}

	tracer, err := telemetry.NewTracer(cfg.Tracing, "accessbridge", version)
	if err != nil {
		return fmt.Errorf("failed to create tracer: %w", err)
	}

	sig, err := config.LoadSignatures(cfg.Recovery.SignaturesPath)
	if err != nil {
		return err
	}
	classifier := bridge.NewClassifier(sig)
	log.WithField("version", sig.Version).Info("recovery signature list loaded")

	if cfg.Recovery.WatchSignatures && cfg.Recovery.SignaturesPath != "" {
		if err := config.WatchSignatures(ctx, log, cfg.Recovery.SignaturesPath, classifier); err != nil {
			return err
		}
	}

	factory := func(ctx context.Context) (bridge.Engine, error) {
		client, err := hostproc.NewClient(hostproc.Config{
			Launcher:       &hostproc.ExecLauncher{Command: cfg.Host.Command},
			StartupTimeout: cfg.Host.StartupTimeout.Std(),
			CommandTimeout: cfg.Host.CommandTimeout.Std(),
		})
		if err != nil {
			return nil, err
		}
		if err := client.Start(ctx); err != nil {
			return nil, err
		}
		return client, nil
	}

	session := bridge.New(bridge.Options{
		Logger:     log,
		Metrics:    metrics,
		Tracer:     tracer,
		Factory:    factory,
		Classifier: classifier,
	})

	srv, err := mcp.New(mcp.Options{
		Session: session,
		Logger:  log,
		Metrics: metrics,
		Tracer:  tracer,
		Version: version,
	})
	if err != nil {
		return err
	}

	log.WithField("host_command", cfg.Host.Command).Info("serving MCP over stdio")

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- server.ServeStdio(srv)
	}()

	select {
	case err = <-serveErr:
	case <-ctx.Done():
		err = nil
	}

	// The serve context may already be cancelled; give teardown its own
	// deadline so the host still gets a clean quit.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if terr := session.Teardown(shutdownCtx); terr != nil {
		log.WithError(terr).Warn("session teardown reported an error")
	}
	if terr := tracer.Shutdown(shutdownCtx); terr != nil {
		log.WithError(terr).Warn("tracer shutdown reported an error")
	}

	return err
}
