package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"janitorr-hq/overseer/pkg/cli"
	"janitorr-hq/overseer/pkg/config"
	"janitorr-hq/overseer/pkg/policystore"
	"janitorr-hq/overseer/pkg/refresh"
	"janitorr-hq/overseer/pkg/schedule"
	"janitorr-hq/overseer/pkg/security/auth"
	"janitorr-hq/overseer/pkg/security/tls"
	"janitorr-hq/overseer/pkg/server"
	"janitorr-hq/overseer/pkg/telemetry/health"
	"janitorr-hq/overseer/pkg/telemetry/metrics"
	"janitorr-hq/overseer/pkg/telemetry/tracing"
)

const (
	// sessionSweepSchedule is how often expired sessions are dropped.
	sessionSweepSchedule = "@every 5m"

	checkCertificate = "certificate"
)

var runFlags struct {
	listenAddress string
	logLevel      string
	dryRun        bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the dashboard server",
	Long: `Start the Overseer dashboard with the specified settings file.

The server serves the deletion schedule, recent log lines, system status and
Jellyfin artwork to signed-in users, and configuration editing to
administrators. The schedule metrics are refreshed in the background and the
settings file is reloaded when it changes.

Examples:
  # Start with default settings
  overseer run

  # Start with a custom settings file
  overseer run --config /etc/overseer/overseer.yaml

  # Override listen address
  overseer run --listen 0.0.0.0:8080

  # Validate settings without starting the server
  overseer run --dry-run`,
	RunE: runServer,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runFlags.listenAddress, "listen", "l", "", "override listen address")
	runCmd.Flags().StringVar(&runFlags.logLevel, "log-level", "", "override log level (debug, info, warn, error)")
	runCmd.Flags().BoolVar(&runFlags.dryRun, "dry-run", false, "validate settings without starting server")
}

func runServer(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	// Flag overrides go through the environment so reloads keep them.
	if runFlags.listenAddress != "" {
		os.Setenv("GUI_LISTEN_ADDRESS", runFlags.listenAddress)
	}
	if runFlags.logLevel != "" {
		os.Setenv("GUI_LOG_LEVEL", runFlags.logLevel)
	}

	if err := config.Initialize(cfgFile); err != nil {
		return cli.NewConfigError("", fmt.Sprintf("failed to load config: %v", err))
	}
	cfg := config.GetConfig()

	logger, err := newLogger(cfg, false)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	if runFlags.dryRun {
		fmt.Fprintln(out, "✓ Configuration valid")
		return nil
	}

	printBanner(out, cfg)

	tracer, err := tracing.New(cfg.Telemetry.Tracing, Version)
	if err != nil {
		return cli.NewCommandError("run", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tracer.Shutdown(ctx); err != nil {
			slog.Warn("tracer shutdown failed", "error", err)
		}
	}()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	collector := metrics.NewCollector(cfg.Telemetry.Metrics, registry)

	checker := health.New(cfg.Telemetry.Health.CheckTimeout)
	health.RegisterJanitorrChecks(checker, checkSources(cfg))

	source := refresh.NewSource(
		policystore.NewStore(cfg.Janitorr.ConfigPath),
		schedule.NewReader(cfg.Janitorr.LogPath, schedule.WithLogger(logger)),
		refresh.WithMetrics(collector),
		refresh.WithTracer(tracer),
		refresh.WithLogger(logger),
	)

	if cfg.Auth.Session.SecretKey == "" {
		slog.Warn("no session secret configured; sessions will not survive a restart",
			"hint", "generate one with: overseer keygen")
	}
	sessions, err := auth.NewSessionStore(cfg.Auth.Session)
	if err != nil {
		return cli.NewCommandError("run", err)
	}

	ctx, stop := cli.SetupSignalHandler()
	defer stop()

	var certs *tls.Reloader
	if cfg.Server.TLS.Enabled {
		certs, err = tls.NewReloader(cfg.Server.TLS, logger)
		if err != nil {
			return cli.NewConfigError("server.tls", err.Error())
		}
		go certs.Run(ctx)
		checker.RegisterCheck(checkCertificate, certs.Check, health.Optional())
	}

	scheduler := refresh.NewScheduler(source, cfg.Telemetry.Metrics.RefreshSchedule, checker, collector,
		refresh.Job{
			Name:     "session-sweep",
			Schedule: sessionSweepSchedule,
			Run: func(context.Context) {
				if n := sessions.Sweep(); n > 0 {
					slog.Debug("expired sessions removed", "count", n)
				}
			},
		},
	)
	if err := scheduler.Start(ctx); err != nil {
		slog.Warn("failed to start schedule refresher", "error", err)
	} else {
		defer scheduler.Stop()
		if next := scheduler.NextRun(); next != nil {
			slog.Debug("schedule refresher started", "next_run", next)
		}
	}

	reload := func() error {
		if err := config.ReloadConfig(cfgFile); err != nil {
			return err
		}
		next := config.GetConfig()
		source.Retarget(
			policystore.NewStore(next.Janitorr.ConfigPath),
			schedule.NewReader(next.Janitorr.LogPath, schedule.WithLogger(logger)),
		)
		health.RegisterJanitorrChecks(checker, checkSources(next))
		return nil
	}

	watching := false
	if cfg.Watch.Enabled {
		watcher, err := startWatcher(ctx, cfg, logger, reload)
		switch {
		case err == nil:
			watching = true
			defer watcher.Stop()
		case errors.Is(err, os.ErrNotExist):
			slog.Info("settings file not found, hot reload disabled", "path", cfgFile)
		default:
			slog.Warn("failed to start settings watcher", "error", err)
		}
	}

	srv, err := server.New(server.Options{
		SettingsPath: cfgFile,
		Source:       source,
		Checker:      checker,
		Sessions:     sessions,
		Metrics:      collector,
		Tracer:       tracer,
		TLS:          certs,
		OnSettingsChanged: func() {
			if watching {
				return
			}
			if err := reload(); err != nil {
				slog.Error("settings reload failed", "error", err)
			}
		},
		Version:   Version,
		Commit:    GitCommit,
		BuildTime: BuildDate,
		Logger:    logger,
	})
	if err != nil {
		return cli.NewCommandError("run", err)
	}

	scheme := "http"
	if certs != nil {
		scheme = "https"
	}
	fmt.Fprintln(out)
	fmt.Fprintf(out, "✓ Server listening on %s\n", cfg.Server.ListenAddress)
	fmt.Fprintf(out, "✓ Health endpoint: %s://%s/health\n", scheme, cfg.Server.ListenAddress)
	if collector.Enabled() {
		fmt.Fprintf(out, "✓ Metrics endpoint: %s://%s%s\n", scheme, cfg.Server.ListenAddress, cfg.Telemetry.Metrics.Path)
	}
	fmt.Fprintln(out, "\nPress Ctrl+C to stop")

	if err := srv.Start(ctx); err != nil {
		return cli.NewCommandError("run", err)
	}

	fmt.Fprintln(out, "✓ Server stopped")
	return nil
}

func startWatcher(ctx context.Context, cfg *config.Config, logger *slog.Logger, reload func() error) (*config.Watcher, error) {
	if _, err := os.Stat(cfgFile); err != nil {
		return nil, err
	}
	watcher, err := config.NewWatcher(cfgFile, cfg.Watch.Debounce, logger)
	if err != nil {
		return nil, err
	}
	go func() {
		if err := watcher.Watch(ctx, reload); err != nil {
			slog.Error("settings watcher stopped", "error", err)
		}
	}()
	return watcher, nil
}

func checkSources(cfg *config.Config) health.Sources {
	return health.Sources{
		ConfigPath:      cfg.Janitorr.ConfigPath,
		LogPath:         cfg.Janitorr.LogPath,
		ServiceNames:    cfg.Janitorr.ServiceNames,
		JellyfinTimeout: cfg.Jellyfin.RequestTimeout,
	}
}

func printBanner(out io.Writer, cfg *config.Config) {
	fmt.Fprintf(out, "Overseer v%s\n", Version)
	fmt.Fprintf(out, "Loading configuration from: %s\n", cfgFile)
	fmt.Fprintln(out, "✓ Configuration loaded")

	slog.Debug("janitorr installation",
		"config_path", cfg.Janitorr.ConfigPath,
		"log_path", cfg.Janitorr.LogPath,
		"services", cfg.Janitorr.ServiceNames,
	)
	slog.Debug("authentication", "mode", cfg.Auth.Mode)
	if cfg.Telemetry.Tracing.Enabled {
		slog.Debug("tracing enabled", "endpoint", cfg.Telemetry.Tracing.Endpoint)
	}
}
