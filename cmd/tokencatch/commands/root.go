package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/florianilch/tokencatch/internal/app"
	"github.com/florianilch/tokencatch/internal/observability"
	"github.com/florianilch/tokencatch/internal/tokenstore"
)

// Execute runs the root command with the given context and arguments.
func Execute(ctx context.Context, args []string) error {
	return newRootCommand().Run(ctx, args)
}

func newRootCommand() *cli.Command {
	return &cli.Command{
		Name:  "tokencatch",
		Usage: "Capture OAuth redirect tokens on a loopback listener",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "path to config file",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "log level (debug|info|warn|error)",
				Value: slog.LevelInfo.String(),
			},
			&cli.StringFlag{
				Name:  "store--backend",
				Usage: "token storage backend (file|keyring)",
				Value: string(app.DefaultConfigStoreBackend),
			},
			&cli.StringFlag{
				Name:  "store--resolver",
				Usage: "config root resolution for file storage (os|xdg|static)",
				Value: string(app.DefaultConfigStoreResolver),
			},
			&cli.StringFlag{
				Name:  "store--dir",
				Usage: "config root for the static resolver",
			},
		},
		Commands: []*cli.Command{
			listenerCommand("run", "run the capture listener with a tray icon", false),
			listenerCommand("serve", "run the capture listener without a tray icon", true),
			authorizeCommand(),
			watchCommand(),
			tokenCommand(),
		},
	}
}

func listenerCommand(name, usage string, headless bool) *cli.Command {
	return &cli.Command{
		Name:  name,
		Usage: usage,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "log-format",
				Usage: "log format (text|json)",
				Value: string(app.DefaultConfigLogFormat),
			},
			&cli.StringFlag{
				Name:  "log--file",
				Usage: "write logs to a rotating file instead of stderr",
			},
			&cli.StringFlag{
				Name:  "log--exporter",
				Usage: "export logs via OpenTelemetry (none|stdout|otlp-grpc|otlp-http)",
				Value: string(app.DefaultConfigLogExporter),
			},
			&cli.StringFlag{
				Name:  "server--host",
				Usage: "loopback host to listen on",
				Value: app.DefaultConfigServerHost,
			},
			&cli.IntFlag{
				Name:  "server--port",
				Usage: "port to listen on",
				Value: int(app.DefaultConfigServerPort),
			},
			&cli.StringFlag{
				Name:  "server--cors",
				Usage: "CORS mode (permissive|disabled)",
				Value: string(app.DefaultConfigServerCORS),
			},
			&cli.StringFlag{
				Name:  "authorize--client-id",
				Usage: "OAuth client id; the authorization URL is logged on start when set",
			},
			&cli.BoolFlag{
				Name:  "authorize--open-on-start",
				Usage: "open the authorization URL in the browser once the listener is up",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			var overrides map[string]any
			if headless {
				overrides = map[string]any{"tray.headless": true}
			}
			return listenerAction(ctx, cmd, overrides)
		},
	}
}

func listenerAction(ctx context.Context, cmd *cli.Command, overrides map[string]any) error {
	cfg, err := loadConfig(cmd.String("config"), cmd, os.Environ, overrides)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Set up observability before creating app
	shutdownObservability, err := observability.Instrument(ctx, observabilityOptions(cfg))
	if err != nil {
		return fmt.Errorf("failed to set up observability layer: %w", err)
	}
	defer func() { _ = shutdownObservability(context.WithoutCancel(ctx)) }()

	application, err := app.New(cfg)
	if err != nil {
		return fmt.Errorf("failed to create app: %w", err)
	}

	slog.InfoContext(ctx, "starting", "headless", cfg.Tray.Headless)

	if err := application.Start(ctx); err != nil {
		return fmt.Errorf("app failed to start: %w", err)
	}

	slog.InfoContext(ctx, "stopped gracefully")
	return nil
}

func observabilityOptions(cfg *app.Config) observability.Options {
	return observability.Options{
		Level:  cfg.LogLevel,
		Format: observability.Format(cfg.LogFormat),
		File: observability.FileOptions{
			Path:       cfg.Log.File,
			MaxSizeMB:  cfg.Log.MaxSizeMB,
			MaxBackups: cfg.Log.MaxBackups,
			MaxAgeDays: cfg.Log.MaxAgeDays,
			Compress:   cfg.Log.Compress,
		},
		Exporter: cfg.Log.Exporter,
		Endpoint: cfg.Log.Endpoint,
		Insecure: cfg.Log.Insecure,
	}
}

// fileStore builds the file token store described by cfg.
func fileStore(cfg *app.Config) (*tokenstore.FileStore, error) {
	if cfg.Store.Backend != app.TokenStorageTypeFile {
		return nil, fmt.Errorf("requires file storage, configured backend is %s", cfg.Store.Backend)
	}

	store, err := cfg.Store.NewTokenStore()
	if err != nil {
		return nil, err
	}
	return store.(*tokenstore.FileStore), nil
}
