package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	_ "modernc.org/sqlite"

	"tessera-hq/warden/pkg/audit"
	auditstore "tessera-hq/warden/pkg/audit/storage"
	"tessera-hq/warden/pkg/cli"
	"tessera-hq/warden/pkg/config"
	"tessera-hq/warden/pkg/connector"
	"tessera-hq/warden/pkg/decision"
	"tessera-hq/warden/pkg/gateway"
	"tessera-hq/warden/pkg/policy"
	"tessera-hq/warden/pkg/policy/source"
	policystore "tessera-hq/warden/pkg/policy/storage"
	"tessera-hq/warden/pkg/routing"
	routestore "tessera-hq/warden/pkg/routing/storage"
	"tessera-hq/warden/pkg/server"
	"tessera-hq/warden/pkg/telemetry/health"
	"tessera-hq/warden/pkg/telemetry/logging"
	"tessera-hq/warden/pkg/telemetry/metrics"
)

var runFlags struct {
	listenAddress string
	logLevel      string
	dryRun        bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the warden gateway",
	Long: `Start the gateway with the specified configuration.

The server evaluates requests against the loaded policies, routes executable
decisions to the governed model pools, and appends every decision to the
audit chain.

Examples:
  # Start with defaults
  warden run

  # Start with a custom config
  warden run --config /etc/warden/config.yaml

  # Override the listen address
  warden run --listen 0.0.0.0:8080

  # Validate config without starting
  warden run --dry-run`,
	RunE: runServer,
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().StringVarP(&runFlags.listenAddress, "listen", "l", "", "override listen address")
	runCmd.Flags().StringVar(&runFlags.logLevel, "log-level", "", "override log level (debug, info, warn, error)")
	runCmd.Flags().BoolVar(&runFlags.dryRun, "dry-run", false, "validate config without starting the server")
}

func runServer(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadWithEnvOverrides(cfgFile)
	if err != nil {
		return cli.NewConfigError("", err.Error())
	}
	if runFlags.listenAddress != "" {
		cfg.Server.ListenAddress = runFlags.listenAddress
	}
	if runFlags.logLevel != "" {
		cfg.Telemetry.Logging.Level = runFlags.logLevel
	}
	if verbose {
		cfg.Telemetry.Logging.Level = "debug"
	}
	config.SetGlobal(cfg)

	logger := logging.Setup(cfg.Telemetry.Logging.Level, cfg.Telemetry.Logging.Format)

	if runFlags.dryRun {
		fmt.Println("✓ Configuration valid")
		return nil
	}

	ctx := cli.SetupSignalHandler()

	// Config database: policies, pools, and targets share one file.
	if err := os.MkdirAll(filepath.Dir(cfg.Storage.ConfigDBPath), 0o755); err != nil {
		return cli.NewCommandError("run", fmt.Errorf("create data directory: %w", err))
	}
	configDB, err := sql.Open("sqlite", cfg.Storage.ConfigDBPath)
	if err != nil {
		return cli.NewCommandError("run", fmt.Errorf("open config database: %w", err))
	}
	defer configDB.Close()

	policyStore, err := policystore.NewSQLiteStore(configDB)
	if err != nil {
		return cli.NewCommandError("run", fmt.Errorf("policy storage: %w", err))
	}
	routeStore, err := routestore.NewSQLiteStore(configDB)
	if err != nil {
		return cli.NewCommandError("run", fmt.Errorf("route storage: %w", err))
	}

	policies := policy.NewRegistry(policyStore, logger)
	routes := routing.NewRegistry(routeStore, logger)
	if err := routes.LoadFromStore(ctx); err != nil {
		return cli.NewCommandError("run", fmt.Errorf("load route tables: %w", err))
	}

	if err := loadPolicies(ctx, cfg, policies, logger); err != nil {
		return cli.NewCommandError("run", err)
	}
	fmt.Printf("✓ Policies loaded (%d policies)\n", len(policies.List()))

	// Audit chain database.
	if err := os.MkdirAll(filepath.Dir(cfg.Audit.SQLitePath), 0o755); err != nil {
		return cli.NewCommandError("run", fmt.Errorf("create audit directory: %w", err))
	}
	auditSQLite, err := auditstore.NewSQLiteStore(&auditstore.SQLiteConfig{
		Path:         cfg.Audit.SQLitePath,
		MaxOpenConns: 10,
		MaxIdleConns: 5,
		WALMode:      true,
		BusyTimeout:  5 * time.Second,
	})
	if err != nil {
		return cli.NewCommandError("run", fmt.Errorf("audit storage: %w", err))
	}
	defer auditSQLite.Close()

	collector := metrics.NewCollector()

	auditLog := audit.NewLog(auditSQLite, cfg.Audit.HashSalt, logger)
	auditLog.SetMetrics(collector)

	sweeper := audit.NewSweeper(auditLog, cfg.Audit.SweepSchedule, cfg.Audit.SweepTimeout, logger)
	if err := sweeper.Start(); err != nil {
		return cli.NewCommandError("run", fmt.Errorf("audit sweeper: %w", err))
	}
	defer sweeper.Stop()
	fmt.Println("✓ Audit chain initialized")

	var conn connector.Connector
	if !cfg.Routing.StubResponses {
		conn = connector.NewHTTP(connector.HTTPConfig{}, logger)
	}
	orch := decision.New(policies, routes, auditLog, conn, decision.Options{
		DefaultPool:   cfg.Routing.DefaultPool,
		StubResponses: cfg.Routing.StubResponses,
		Metrics:       collector,
	}, logger)

	checker := health.NewChecker(5 * time.Second)
	checker.Register("config_db", func(ctx context.Context) error {
		return configDB.PingContext(ctx)
	})
	checker.Register("audit", func(ctx context.Context) error {
		_, err := auditLog.List(ctx, audit.Filter{Limit: 1})
		return err
	})

	gw := gateway.New(orch, policies, auditLog, checker, collector, gateway.Options{
		Auth:               gateway.NewAuthenticator(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer, cfg.Auth.JWTAudience),
		CORSAllowedOrigins: cfg.Server.CORSAllowedOrigins,
		MetricsPath:        cfg.Telemetry.Metrics.Path,
		MetricsEnabled:     cfg.Telemetry.Metrics.Enabled,
	}, logger)

	srv := server.New(cfg.Server, gw.Router(), logger)

	fmt.Printf("✓ Server listening on %s\n", cfg.Server.ListenAddress)
	fmt.Println("\nPress Ctrl+C to stop")

	if err := srv.Start(ctx); err != nil {
		return cli.NewCommandError("run", err)
	}
	return nil
}

// loadPolicies fills the registry from the configured source. File and git
// sources seed the in-memory snapshot and reload on change; the sqlite
// source reads the config database.
func loadPolicies(ctx context.Context, cfg *config.Config, policies *policy.Registry, logger *slog.Logger) error {
	switch cfg.Policy.Source {
	case config.PolicySourceSQLite:
		return policies.LoadFromStore(ctx)

	case config.PolicySourceFile:
		src := source.NewFileSource(cfg.Policy.FilePath, logger)
		if err := seedFromSource(ctx, src, policies, logger); err != nil {
			return err
		}
		if cfg.Policy.Watch {
			return watchSource(ctx, src, policies, logger)
		}
		return nil

	case config.PolicySourceGit:
		src, err := source.NewGitSource(source.GitConfig{
			URL:          cfg.Policy.Git.Repo,
			Branch:       cfg.Policy.Git.Branch,
			CheckoutPath: cfg.Policy.Git.CheckoutPath,
			PollInterval: cfg.Policy.Git.PollInterval,
			BundleDir:    cfg.Policy.Git.Path,
		}, logger)
		if err != nil {
			return fmt.Errorf("git source: %w", err)
		}
		if err := seedFromSource(ctx, src, policies, logger); err != nil {
			return err
		}
		return watchSource(ctx, src, policies, logger)

	default:
		return fmt.Errorf("unknown policy source %q", cfg.Policy.Source)
	}
}

func seedFromSource(ctx context.Context, src source.Source, policies *policy.Registry, logger *slog.Logger) error {
	loaded, err := src.LoadPolicies(ctx)
	if err != nil {
		return fmt.Errorf("load policies: %w", err)
	}
	if err := policies.Seed(loaded); err != nil {
		return fmt.Errorf("seed policies: %w", err)
	}
	return nil
}

// watchSource reloads the registry whenever the source reports a change.
// Reload failures keep the last good snapshot.
func watchSource(ctx context.Context, src source.Source, policies *policy.Registry, logger *slog.Logger) error {
	events, err := src.Watch(ctx)
	if err != nil {
		return fmt.Errorf("watch policies: %w", err)
	}
	go func() {
		for event := range events {
			if event.Err != nil {
				logger.Warn("policy watch error", "error", event.Err)
				continue
			}
			if err := seedFromSource(ctx, src, policies, logger); err != nil {
				logger.Error("policy reload failed", "error", err)
				continue
			}
			logger.Info("policies reloaded", "trigger", event.Path, "count", len(policies.List()))
		}
	}()
	return nil
}
