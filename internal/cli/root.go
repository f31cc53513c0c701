// Package cli implements the nightwalk server commands.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nightwalk/server/internal/config"
)

var (
	seedFlag  int64
	debugFlag bool
)

// RootCmd is the top-level command.
var RootCmd = &cobra.Command{
	Use:           "nightwalk-server",
	Short:         "Chunk streaming world for a vertical-scrolling vampire RPG",
	Long:          "Runs the chunk streaming world headless, behind the inspector API, or in a terminal viewer.",
	SilenceUsage:  true,
	SilenceErrors: false,
}

func init() {
	RootCmd.PersistentFlags().Int64Var(&seedFlag, "seed", 0, "World seed (default: $WORLD_SEED, 0 means time-based)")
	RootCmd.PersistentFlags().BoolVar(&debugFlag, "debug", false, "Log every chunk and spawn decision")
}

// loadConfig reads the environment and applies command line overrides.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if cmd.Flags().Changed("seed") {
		cfg.World.Seed = seedFlag
	}
	if debugFlag {
		cfg.Logging.Level = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}
