package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/pflag"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, name := range env {
		t.Setenv(name, "")
		os.Unsetenv(name)
	}
}

func TestDefaultsRequireDatabaseURL(t *testing.T) {
	clearEnv(t)
	_, err := Load("", nil)
	if err == nil || !strings.Contains(err.Error(), "DATABASE_URL") {
		t.Fatalf("expected DATABASE_URL error, got %v", err)
	}
}

func TestEnvironment(t *testing.T) {
	clearEnv(t)
	t.Setenv("DATABASE_URL", "postgres://localhost/riskmap")
	t.Setenv("RATING_WORKERS", "3")
	t.Setenv("RISKMAP_MAX_RATE", "2.5")

	cfg, err := Load("", nil)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Store != StorePostgres || cfg.Workers != 3 || cfg.MaxRate != 2.5 || cfg.ListenAddr != ":8080" {
		t.Fatalf("unexpected config: %+v", cfg)
	}
}

func TestFileThenFlags(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "riskmap.yaml")
	body := "store: sqlite\nsqlite_path: /tmp/file.db\nworkers: 2\nlog_level: debug\n"
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.String("sqlite-path", "", "")
	fs.Int("workers", 0, "")
	if err := fs.Parse([]string{"--workers=8"}); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path, fs)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Store != StoreSQLite || cfg.SQLitePath != "/tmp/file.db" {
		t.Fatalf("file values not applied: %+v", cfg)
	}
	if cfg.Workers != 8 {
		t.Fatalf("expected the flag to win, got workers=%d", cfg.Workers)
	}
	if cfg.LogLevel != "debug" {
		t.Fatalf("expected log level from file, got %q", cfg.LogLevel)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		ok   bool
	}{
		{"memory", Config{Store: StoreMemory, Workers: 1}, true},
		{"unknown store", Config{Store: "redis", Workers: 1}, false},
		{"no workers", Config{Store: StoreMemory}, false},
		{"negative rate", Config{Store: StoreMemory, Workers: 1, MaxRate: -1}, false},
		{"sqlite without path", Config{Store: StoreSQLite, Workers: 1}, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.cfg.Validate()
			if (err == nil) != tc.ok {
				t.Fatalf("ok=%v, err=%v", tc.ok, err)
			}
		})
	}
}

func TestMissingConfigFile(t *testing.T) {
	clearEnv(t)
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml"), nil); err == nil {
		t.Fatal("expected an error for a missing config file")
	}
}
