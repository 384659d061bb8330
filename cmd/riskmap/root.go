package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"riskmap/internal/adapters/memory"
	pg "riskmap/internal/adapters/postgres"
	"riskmap/internal/adapters/sqlite"
	"riskmap/internal/config"
	"riskmap/internal/fixture"
	"riskmap/internal/ports"
)

var (
	cfgFile string
	cfg     config.Config
	logger  *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:           "riskmap",
	Short:         "Rebuild and query the rating history of urls and organizations",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(cfgFile, cmd.Flags())
		if err != nil {
			return err
		}
		logger, err = newLogger(cfg.LogLevel)
		if err != nil {
			return fmt.Errorf("failed to create logger: %w", err)
		}
		logger.Debug("config loaded",
			zap.String("env", cfg.Env),
			zap.String("store", cfg.Store),
			zap.Int("workers", cfg.Workers))
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, colorError("error:"), err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "YAML config file")
	rootCmd.PersistentFlags().String("store", config.StorePostgres, "storage backend: postgres, sqlite or memory")
	rootCmd.PersistentFlags().String("database-url", "", "PostgreSQL connection string (or DATABASE_URL)")
	rootCmd.PersistentFlags().String("sqlite-path", "riskmap.db", "SQLite database file")
	rootCmd.PersistentFlags().String("fixture", "", "YAML fact set seeding the memory store")
	rootCmd.PersistentFlags().String("log-level", "info", "debug, info, warn or error")

	rootCmd.AddCommand(rebuildCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(loadCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(showCmd)
}

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, err
	}
	zc := zap.NewProductionConfig()
	zc.Level = lvl
	return zc.Build()
}

// openStore connects the configured backend. The memory store starts empty
// unless a fixture is configured.
func openStore(ctx context.Context) (ports.Store, error) {
	switch cfg.Store {
	case config.StorePostgres:
		db, err := pg.Connect(ctx, cfg.DatabaseURL, int32(cfg.Workers+2))
		if err != nil {
			return nil, fmt.Errorf("db connect error: %w", err)
		}
		return db, nil
	case config.StoreSQLite:
		return sqlite.Open(ctx, cfg.SQLitePath)
	default:
		store := memory.New()
		if cfg.Fixture != "" {
			if _, err := loadFixture(ctx, store, cfg.Fixture); err != nil {
				return nil, err
			}
		}
		return store, nil
	}
}

func loadFixture(ctx context.Context, w ports.FactWriter, path string) (ports.Facts, error) {
	f, err := os.Open(path)
	if err != nil {
		return ports.Facts{}, err
	}
	defer f.Close()
	facts, err := fixture.Parse(f)
	if err != nil {
		return ports.Facts{}, fmt.Errorf("%s: %w", path, err)
	}
	if err := w.SaveFacts(ctx, facts); err != nil {
		return ports.Facts{}, fmt.Errorf("saving facts from %s: %w", path, err)
	}
	return facts, nil
}
