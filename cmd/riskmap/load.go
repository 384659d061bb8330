package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var loadCmd = &cobra.Command{
	Use:   "load FILE.yaml",
	Short: "Store a YAML fact set (organizations, urls, endpoints and scans)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer store.Close()

		facts, err := loadFixture(cmd.Context(), store, args[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s loaded %d organizations, %d urls, %d endpoints, %d scans\n",
			colorSuccess("✓"), len(facts.Organizations), len(facts.Urls), len(facts.Endpoints), len(facts.Scans))
		return nil
	},
}
