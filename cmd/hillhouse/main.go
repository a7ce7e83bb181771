// Command hillhouse serves the Betrayal at House on the Hill companion
// tracker to MCP clients.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/MrWong99/hillhouse/internal/app"
	"github.com/MrWong99/hillhouse/internal/config"
	"github.com/MrWong99/hillhouse/internal/observe"
)

// version is overridden at build time via -ldflags "-X main.version=...".
var version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	// ── CLI flags ──────────────────────────────────────────────────────────────
	configPath := flag.String("config", "", "path to the YAML configuration file (optional; HILLHOUSE_* variables override it)")
	showVersion := flag.Bool("version", false, "print the version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println("hillhouse", version)
		return 0
	}

	// ── Load configuration ────────────────────────────────────────────────────
	cfg, err := config.Load(*configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "hillhouse: config file %q not found; copy configs/example.yaml to get started\n", *configPath)
		} else {
			fmt.Fprintf(os.Stderr, "hillhouse: %v\n", err)
		}
		return 1
	}

	// ── Logger ────────────────────────────────────────────────────────────────
	// Logs always go to stderr: in stdio mode stdout carries the MCP stream.
	var level slog.LevelVar
	level.Set(cfg.Server.LogLevel.Level())
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: &level})))

	slog.Info("hillhouse starting",
		"version", version,
		"config", *configPath,
		"transport", cfg.Server.Transport,
		"log_level", cfg.Server.LogLevel,
	)

	// ── Signal context ────────────────────────────────────────────────────────
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── Telemetry ─────────────────────────────────────────────────────────────
	shutdownTelemetry, err := observe.InitProvider(ctx, observe.ProviderConfig{
		ServiceName:    cfg.Telemetry.ServiceName,
		ServiceVersion: version,
		Metrics:        cfg.Telemetry.MetricsEnabled(),
	})
	if err != nil {
		slog.Error("failed to initialise telemetry", "err", err)
		return 1
	}

	// ── Config hot reload ─────────────────────────────────────────────────────
	if *configPath != "" {
		reloader, err := config.NewReloader(*configPath, func(diff config.ConfigDiff, _ *config.Config) {
			if diff.LogLevelChanged {
				level.Set(diff.NewLogLevel.Level())
				slog.Info("log level changed", "level", diff.NewLogLevel)
			}
			if len(diff.RestartRequired) > 0 {
				slog.Warn("config changes take effect after a restart", "sections", diff.RestartRequired)
			}
		})
		if err != nil {
			slog.Error("failed to watch config", "err", err)
			return 1
		}
		go reloader.Run(ctx)
	}

	// ── Startup summary ───────────────────────────────────────────────────────
	printStartupSummary(os.Stderr, cfg)

	application, err := app.New(ctx, cfg, app.WithVersion(version))
	if err != nil {
		slog.Error("failed to initialise application", "err", err)
		return 1
	}

	slog.Info("server ready; press Ctrl+C to shut down")

	code := 0
	if err := application.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("run error", "err", err)
		code = 1
	}

	// ── Graceful shutdown ─────────────────────────────────────────────────────
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	slog.Info("stopping…")

	if err := application.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "err", err)
		code = 1
	}
	if err := shutdownTelemetry(shutdownCtx); err != nil {
		slog.Warn("telemetry shutdown error", "err", err)
	}
	slog.Info("goodbye")
	return code
}

// printStartupSummary writes a short human-readable overview of cfg to w.
func printStartupSummary(w io.Writer, cfg *config.Config) {
	fmt.Fprintln(w, "╔═══════════════════════════════════════╗")
	fmt.Fprintln(w, "║        hillhouse — startup summary    ║")
	fmt.Fprintln(w, "╠═══════════════════════════════════════╣")
	printRow(w, "Transport", string(cfg.Server.Transport))
	printRow(w, "Storage", storageTarget(cfg.Storage))
	printRow(w, "Rooms file", orDefault(cfg.Catalog.RoomsPath, "(embedded)"))
	printRow(w, "Characters", orDefault(cfg.Catalog.CharactersPath, "(embedded)"))
	if cfg.Server.ListenAddr != "" {
		printRow(w, "Listen addr", cfg.Server.ListenAddr)
	}
	if cfg.Telemetry.MetricsEnabled() && cfg.Server.ListenAddr != "" {
		printRow(w, "Metrics", "/metrics")
	} else {
		printRow(w, "Metrics", "(disabled)")
	}
	fmt.Fprintln(w, "╚═══════════════════════════════════════╝")
}

func printRow(w io.Writer, label, value string) {
	if len(value) > 19 {
		value = "…" + value[len(value)-18:]
	}
	fmt.Fprintf(w, "║  %-15s : %-19s ║\n", label, value)
}

func storageTarget(s config.StorageConfig) string {
	switch s.Backend {
	case config.BackendSQLite:
		return "sqlite " + s.SQLitePath
	case config.BackendPostgres:
		return "postgres"
	}
	return "file " + s.Dir
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
