package config

import (
	"fmt"
	"runtime"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	StorePostgres = "postgres"
	StoreSQLite   = "sqlite"
	StoreMemory   = "memory"
)

type Config struct {
	Env         string
	ListenAddr  string
	DatabaseURL string
	Store       string
	SQLitePath  string
	// Fixture seeds the memory store.
	Fixture string
	Workers int
	// MaxRate caps job starts per second; 0 means unlimited.
	MaxRate  float64
	LogLevel string
}

// env maps config keys to the environment variables they are read from.
var env = map[string]string{
	"app_env":      "APP_ENV",
	"listen_addr":  "LISTEN_ADDR",
	"database_url": "DATABASE_URL",
	"workers":      "RATING_WORKERS",
	"store":        "RISKMAP_STORE",
	"sqlite_path":  "RISKMAP_SQLITE_PATH",
	"fixture":      "RISKMAP_FIXTURE",
	"max_rate":     "RISKMAP_MAX_RATE",
	"log_level":    "RISKMAP_LOG_LEVEL",
}

// flags maps config keys to command-line flag names.
var flags = map[string]string{
	"listen_addr":  "listen",
	"database_url": "database-url",
	"workers":      "workers",
	"store":        "store",
	"sqlite_path":  "sqlite-path",
	"fixture":      "fixture",
	"max_rate":     "max-rate",
	"log_level":    "log-level",
}

// Load resolves the configuration. Precedence is flags that were set, then
// environment, then the optional YAML config file, then defaults. Flags
// missing from fs are ignored.
func Load(configFile string, fs *pflag.FlagSet) (Config, error) {
	v := viper.New()
	v.SetDefault("app_env", "development")
	v.SetDefault("listen_addr", ":8080")
	v.SetDefault("store", StorePostgres)
	v.SetDefault("sqlite_path", "riskmap.db")
	v.SetDefault("workers", runtime.NumCPU())
	v.SetDefault("max_rate", 0)
	v.SetDefault("log_level", "info")

	for key, name := range env {
		if err := v.BindEnv(key, name); err != nil {
			return Config{}, err
		}
	}
	if fs != nil {
		for key, name := range flags {
			if f := fs.Lookup(name); f != nil && f.Changed {
				if err := v.BindPFlag(key, f); err != nil {
					return Config{}, err
				}
			}
		}
	}
	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("reading config %s: %w", configFile, err)
		}
	}

	cfg := Config{
		Env:         v.GetString("app_env"),
		ListenAddr:  v.GetString("listen_addr"),
		DatabaseURL: v.GetString("database_url"),
		Store:       v.GetString("store"),
		SQLitePath:  v.GetString("sqlite_path"),
		Fixture:     v.GetString("fixture"),
		Workers:     v.GetInt("workers"),
		MaxRate:     v.GetFloat64("max_rate"),
		LogLevel:    v.GetString("log_level"),
	}
	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	switch c.Store {
	case StorePostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for the postgres store")
		}
	case StoreSQLite:
		if c.SQLitePath == "" {
			return fmt.Errorf("RISKMAP_SQLITE_PATH is required for the sqlite store")
		}
	case StoreMemory:
	default:
		return fmt.Errorf("unknown store %q (want %s, %s or %s)", c.Store, StorePostgres, StoreSQLite, StoreMemory)
	}
	if c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", c.Workers)
	}
	if c.MaxRate < 0 {
		return fmt.Errorf("max rate must not be negative, got %v", c.MaxRate)
	}
	return nil
}
