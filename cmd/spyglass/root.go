package main

import (
	"github.com/spf13/cobra"
)

// Global flags available to all subcommands.
var configFile string

// NewRootCmd creates the root command for the Spyglass CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "spyglass",
		Short: "Spyglass - realtime player activity tracker",
		Long: `Spyglass ingests the game's realtime event feed, maintains
in-memory player, zone, and NPC state, and records kills, experience
ticks, and play sessions in PostgreSQL.`,
	}

	// Global flag for config file path
	cmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path")

	// Add subcommands
	cmd.AddCommand(NewTrackCmd())
	cmd.AddCommand(NewMigrateCmd())

	return cmd
}
