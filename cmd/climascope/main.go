// Package main provides the climascope CLI entry point.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "dev"

// globalOpts are the persistent flags shared by every subcommand.
type globalOpts struct {
	configPath  string
	databaseURL string
	env         string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	g := &globalOpts{}

	rootCmd := &cobra.Command{
		Use:   "climascope",
		Short: "Work-climate sentiment analysis for employee surveys",
		Long: `Climascope scores free-text survey answers, aggregates sentiment per
organizational unit, raises alerts for groups outside the configured band,
and keeps a dated history of group morale.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	f := rootCmd.PersistentFlags()
	f.StringVar(&g.configPath, "config", os.Getenv("CLIMASCOPE_CONFIG"), "Path to config file (default: discover .climascope/config.yaml)")
	f.StringVar(&g.databaseURL, "database-url", os.Getenv("DATABASE_URL"), "Postgres connection URL")
	f.StringVar(&g.env, "env", firstNonEmpty(os.Getenv("ENV"), "development"), "Environment: development or production")

	rootCmd.AddCommand(
		newRunCmd(g),
		newMigrateCmd(g),
		newHistoryCmd(g),
	)
	return rootCmd
}
