package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"riskmap/internal/adapters/sqlmigrate"
)

// migrator is implemented by the SQL stores.
type migrator interface {
	Migrate(ctx context.Context, command string, out io.Writer) error
}

var migrateCmd = &cobra.Command{
	Use:       "migrate [up|down|status]",
	Short:     "Apply, roll back or list schema migrations",
	Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	ValidArgs: sqlmigrate.Commands,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer store.Close()

		m, ok := store.(migrator)
		if !ok {
			return fmt.Errorf("the %s store has no schema to migrate", cfg.Store)
		}
		return m.Migrate(cmd.Context(), args[0], cmd.OutOrStdout())
	},
}
