package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"mercator-hq/prgate/pkg/cli"
	"mercator-hq/prgate/pkg/config"
	"mercator-hq/prgate/pkg/gate"
	"mercator-hq/prgate/pkg/policypack"
	"mercator-hq/prgate/pkg/server"
	"mercator-hq/prgate/pkg/telemetry/health"
	"mercator-hq/prgate/pkg/telemetry/metrics"
	"mercator-hq/prgate/pkg/telemetry/tracing"
)

var serveFlags struct {
	listenAddress string
	logLevel      string
	dryRun        bool
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the prgate API server",
	Long: `Start the prgate HTTP API.

The server loads the policy pack from policy.path, optionally watches it for
changes, and evaluates snapshots posted to /v1/evaluate.

Examples:
  # Start with default config
  prgate serve

  # Start with custom config
  prgate serve --config /etc/prgate/config.yaml

  # Override listen address
  prgate serve --listen 0.0.0.0:8080

  # Validate config and policy pack without starting the server
  prgate serve --dry-run`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVarP(&serveFlags.listenAddress, "listen", "l", "", "override listen address")
	serveCmd.Flags().StringVar(&serveFlags.logLevel, "log-level", "", "override log level (debug, info, warn, error)")
	serveCmd.Flags().BoolVar(&serveFlags.dryRun, "dry-run", false, "validate config and policy pack without starting server")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := config.MustGetConfig()
	if serveFlags.listenAddress != "" {
		cfg.Server.ListenAddress = serveFlags.listenAddress
	}
	if serveFlags.logLevel != "" {
		cfg.Telemetry.Logging.Level = serveFlags.logLevel
	}
	if err := config.Validate(cfg); err != nil {
		return cli.NewConfigError("flags", err.Error())
	}

	logger, err := newLogger(cmd, cfg)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	collector := metrics.NewCollector(nil)
	tracer, err := tracing.New(&cfg.Telemetry.Tracing, tracing.WithServiceVersion(Version))
	if err != nil {
		return cli.NewConfigError("telemetry.tracing", err.Error())
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tracer.Shutdown(ctx); err != nil {
			logger.Warn("tracer shutdown failed", "error", err)
		}
	}()

	reg, err := newRegistry(cfg, logger)
	if err != nil {
		return err
	}
	collector.SetRegisteredComparators(reg.Len())

	engine, err := gate.New(engineConfig(cfg), reg, logger,
		gate.WithRecorder(collector),
		gate.WithTracer(tracer),
	)
	if err != nil {
		return err
	}

	manager, err := policypack.NewManager(policypack.ManagerConfig{
		Path:     cfg.Policy.Path,
		Strict:   cfg.Policy.Strict,
		Debounce: cfg.Policy.Debounce,
		Loader:   loaderConfig(cfg),
	}, reg, logger)
	if err != nil {
		return err
	}
	manager.OnReload(func(pack *policypack.Pack, err error) {
		rules := 0
		if pack != nil {
			rules = len(pack.RuleSet.Rules)
		}
		collector.RecordPolicyReload(rules, err)
	})

	// A broken pack at startup is fatal only for --dry-run; the server
	// starts unready and recovers on the next successful reload.
	if err := manager.Reload(); err != nil && serveFlags.dryRun {
		return err
	}
	if serveFlags.dryRun {
		cli.NewUI(cmd.OutOrStdout(), cmd.ErrOrStderr()).Success("configuration and policy pack valid")
		return nil
	}

	checker := health.New(2 * time.Second)
	checker.SetVersion(Version)
	srv, err := server.New(cfg, server.Dependencies{
		Engine:  engine,
		Policy:  manager,
		Health:  checker,
		Metrics: collector,
		Tracer:  tracer,
		Logger:  logger,
	})
	if err != nil {
		return err
	}

	ctx, stop := cli.SetupSignalHandler()
	defer stop()

	printBanner(cmd, cfg, manager)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Start(ctx)
	})
	if cfg.Policy.Watch {
		g.Go(func() error {
			// Serving continues on the last good pack without a watcher.
			if err := manager.Watch(ctx); err != nil {
				logger.Error("policy watcher stopped", "error", fmt.Errorf("policy watcher: %w", err))
			}
			return nil
		})
	}
	return g.Wait()
}

func printBanner(cmd *cobra.Command, cfg *config.Config, manager *policypack.Manager) {
	ui := cli.NewUI(cmd.OutOrStdout(), cmd.ErrOrStderr())
	ui.Success("prgate %s listening on %s", Version, cfg.Server.ListenAddress)
	st := manager.Status()
	if st.Pack != "" {
		ui.Success("policy pack %s (%d rules, digest %s)", st.Pack, st.Rules, st.Digest)
	} else {
		ui.Warning("no policy pack loaded from %s: %s", st.Path, st.LastError)
	}
	if cfg.Policy.Watch {
		ui.Success("watching %s for changes", cfg.Policy.Path)
	}
	if cfg.Telemetry.Metrics.Enabled {
		ui.Success("metrics at %s", cfg.Telemetry.Metrics.Path)
	}
}
