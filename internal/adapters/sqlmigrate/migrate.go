// Package sqlmigrate applies the embedded goose migrations of a SQL store.
package sqlmigrate

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"io/fs"
	"path"
	"time"

	"github.com/pressly/goose/v3"
)

// Commands lists what Run accepts.
var Commands = []string{"up", "down", "status"}

// Run executes one goose command against db and reports to out.
func Run(ctx context.Context, dialect goose.Dialect, db *sql.DB, migrations fs.FS, command string, out io.Writer) error {
	p, err := goose.NewProvider(dialect, db, migrations)
	if err != nil {
		return fmt.Errorf("failed to load migrations: %w", err)
	}

	switch command {
	case "up":
		results, err := p.Up(ctx)
		if err != nil {
			return fmt.Errorf("migrate up: %w", err)
		}
		for _, r := range results {
			fmt.Fprintf(out, "applied %s (%s)\n", path.Base(r.Source.Path), r.Duration.Round(time.Millisecond))
		}
		if len(results) == 0 {
			fmt.Fprintln(out, "no migrations to apply")
		}
	case "down":
		r, err := p.Down(ctx)
		if err != nil {
			return fmt.Errorf("migrate down: %w", err)
		}
		fmt.Fprintf(out, "rolled back %s\n", path.Base(r.Source.Path))
	case "status":
		statuses, err := p.Status(ctx)
		if err != nil {
			return fmt.Errorf("migrate status: %w", err)
		}
		for _, s := range statuses {
			applied := "-"
			if !s.AppliedAt.IsZero() {
				applied = s.AppliedAt.UTC().Format(time.RFC3339)
			}
			fmt.Fprintf(out, "%-8s %-25s %s\n", s.State, applied, path.Base(s.Source.Path))
		}
	default:
		return fmt.Errorf("unknown migrate command %q (want one of %v)", command, Commands)
	}
	return nil
}
