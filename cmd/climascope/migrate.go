package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/climascope/climascope/internal/platform"
)

func newMigrateCmd(g *globalOpts) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending migrations for the history tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := platform.Open(cmd.Context(), g.databaseURL)
			if err != nil {
				return err
			}
			defer db.Close()

			if err := platform.AutoMigrate(db); err != nil {
				return err
			}
			fmt.Fprintln(os.Stderr, "Migrations applied.")
			return nil
		},
	}
}
