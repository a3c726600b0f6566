// cmd/activity-server/main.go
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"mergington-activities/internal/activities"
	"mergington-activities/internal/common/config"
	"mergington-activities/internal/common/logger"
	"mergington-activities/internal/common/observability"
	"mergington-activities/internal/server"
	"mergington-activities/pkg/registry"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	version = "dev"
	cfgFile string
)

var rootCmd = &cobra.Command{
	Use:     "activity-server",
	Short:   "Mergington High School extracurricular activity signup service",
	Long:    `Serves the activity roster API: list activities, sign students up and unregister them.`,
	Version: version,
	RunE:    run,

	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "",
		"config file (default: configs/config.yaml)")
	rootCmd.Flags().String("address", "", "listen address, overrides server.address")
	rootCmd.Flags().String("seed", "", "activity catalog file, overrides seed.path")
	rootCmd.Flags().String("static-dir", "", "directory served under /static/, overrides server.static_dir")
	rootCmd.Flags().String("log-level", "", "debug, info, warn or error, overrides logging.level")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	defer func() { _ = zapLog.Sync() }()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("starting activity server",
		zap.String("version", version),
		zap.String("environment", cfg.App.Environment),
	)

	reg, err := buildRegistry(cfg.Seed.Path)
	if err != nil {
		zapLog.Error("registry seed failed", zap.Error(err))
		return err
	}
	zapLog.Info("activity registry ready", zap.Int("activities", len(reg.Names())))

	obs, err := observability.New(cfg.App.Name, nil)
	if err != nil {
		zapLog.Warn("otel metrics disabled", zap.Error(err))
		obs = observability.NewNoop()
	}
	defer obs.Shutdown()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	deps, err := buildSinks(ctx, cfg, log, zapLog)
	if err != nil {
		return err
	}
	defer deps.Close()

	srv, err := server.New(server.Options{
		Config:      cfg.Server,
		Registry:    reg,
		Sink:        deps.Sink,
		SinkTimeout: config.GetDuration(cfg.Sinks.Timeout),
		Recent:      deps.Recent,
		Checks:      deps.Checks,
		Obs:         obs,
		Logger:      log,
	})
	if err != nil {
		return fmt.Errorf("build server: %w", err)
	}

	return srv.Run(ctx)
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if cfgFile != "" {
		cfg, err = config.LoadFromFile(cfgFile)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, fmt.Errorf("config load failed: %w", err)
	}

	flags := cmd.Flags()
	if v, _ := flags.GetString("address"); flags.Changed("address") {
		cfg.Server.Address = v
	}
	if v, _ := flags.GetString("seed"); flags.Changed("seed") {
		cfg.Seed.Path = v
	}
	if v, _ := flags.GetString("static-dir"); flags.Changed("static-dir") {
		cfg.Server.StaticDir = v
	}
	if v, _ := flags.GetString("log-level"); flags.Changed("log-level") {
		cfg.Logging.Level = v
	}
	return cfg, nil
}

// buildRegistry seeds from the catalog at path, or the built-in activities
// when path is empty.
func buildRegistry(path string) (*activities.Registry, error) {
	if path == "" {
		return activities.New(activities.DefaultSeed())
	}

	catalog, err := registry.LoadRegistry(path)
	if err != nil {
		return nil, fmt.Errorf("load activity catalog %s: %w", path, err)
	}
	seed, err := catalog.ToSeed()
	if err != nil {
		return nil, fmt.Errorf("activity catalog %s: %w", path, err)
	}
	return activities.New(seed)
}
