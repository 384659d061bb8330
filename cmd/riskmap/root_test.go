package main

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"riskmap/internal/domain"
)

const scenario = "../../internal/fixture/testdata/scenario.yaml"

// run executes the root command with fresh flag values, since cobra keeps
// them between executions.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	for _, env := range []string{"DATABASE_URL", "RISKMAP_STORE", "RISKMAP_SQLITE_PATH", "RISKMAP_FIXTURE", "RATING_WORKERS"} {
		t.Setenv(env, "")
	}
	var reset func(c *cobra.Command)
	reset = func(c *cobra.Command) {
		for _, fs := range []*pflag.FlagSet{c.Flags(), c.PersistentFlags()} {
			fs.VisitAll(func(f *pflag.Flag) {
				if sv, ok := f.Value.(pflag.SliceValue); ok {
					_ = sv.Replace(nil)
				} else {
					_ = f.Value.Set(f.DefValue)
				}
				f.Changed = false
			})
		}
		for _, sub := range c.Commands() {
			reset(sub)
		}
	}
	reset(rootCmd)
	cfgFile = ""

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&bytes.Buffer{})
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestLoadRebuildShowSQLite(t *testing.T) {
	db := []string{"--store", "sqlite", "--sqlite-path", filepath.Join(t.TempDir(), "riskmap.db"), "--log-level", "error"}

	out, err := run(t, append(db, "load", scenario)...)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !strings.Contains(out, "loaded 1 organizations, 2 urls") {
		t.Fatalf("unexpected load output: %q", out)
	}

	out, err = run(t, append(db, "rebuild", "--all", "--workers", "2", "--batch", "first", "-q")...)
	if err != nil {
		t.Fatalf("rebuild: %v\n%s", err, out)
	}
	if !strings.Contains(out, "batch first") {
		t.Fatalf("expected the batch in the report: %q", out)
	}

	out, err = run(t, append(db, "show", "url", "1", "--at", "2020-01-05", "--json")...)
	if err != nil {
		t.Fatalf("show url: %v", err)
	}
	var urls []domain.UrlRating
	if err := json.Unmarshal([]byte(out), &urls); err != nil {
		t.Fatalf("decoding %q: %v", out, err)
	}
	if len(urls) != 1 || urls[0].High != 1 {
		t.Fatalf("expected the F grade on day 5, got %+v", urls)
	}

	out, err = run(t, append(db, "show", "organization", "1", "--history", "--json")...)
	if err != nil {
		t.Fatalf("show organization: %v", err)
	}
	var orgs []domain.OrganizationRating
	if err := json.Unmarshal([]byte(out), &orgs); err != nil {
		t.Fatalf("decoding %q: %v", out, err)
	}
	if len(orgs) < 2 || !orgs[0].IsDefault() {
		t.Fatalf("expected the unrated snapshot followed by ratings, got %+v", orgs)
	}
}

func TestPreviewFromFixture(t *testing.T) {
	out, err := run(t, "--store", "memory", "--fixture", scenario, "--log-level", "error", "show", "url", "1", "--preview")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "2020-01-01  a.example  high=1 medium=0 low=0") {
		t.Fatalf("unexpected preview: %q", out)
	}
}

func TestRebuildRejectsBadInput(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"empty scope", []string{"rebuild", "-q"}, "empty scope"},
		{"bad mode", []string{"rebuild", "--all", "--mode", "weekly"}, "unknown mode"},
		{"resume without batch", []string{"rebuild", "--resume"}, "batch name"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := run(t, append([]string{"--store", "memory", "--fixture", scenario, "--log-level", "error"}, tc.args...)...)
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected %q, got %v", tc.want, err)
			}
		})
	}
}

func TestMigrateNeedsSQLStore(t *testing.T) {
	_, err := run(t, "--store", "memory", "migrate", "status")
	if err == nil || !strings.Contains(err.Error(), "no schema") {
		t.Fatalf("expected an error for the memory store, got %v", err)
	}
	if _, err := run(t, "--store", "memory", "migrate", "sideways"); err == nil {
		t.Fatal("expected an invalid argument error")
	}
}

func TestShowValidatesArguments(t *testing.T) {
	if _, err := run(t, "--store", "memory", "show", "endpoint", "1"); err == nil {
		t.Fatal("expected an unknown entity error")
	}
	if _, err := run(t, "--store", "memory", "show", "url", "x"); err == nil {
		t.Fatal("expected an integer id error")
	}
	if _, err := run(t, "--store", "memory", "show", "url", "9"); err == nil {
		t.Fatal("expected not found for an unknown url")
	}
}
