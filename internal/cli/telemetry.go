package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/nightwalk/server/internal/database"
)

var chunkFlag string

func init() {
	cmd := &cobra.Command{
		Use:   "telemetry <session-id>",
		Short: "Show the recorded summary of a simulation session",
		Long:  "Reads the configured telemetry store. With --chunk, prints that chunk's add and remove history instead.",
		Args:  cobra.ExactArgs(1),
		RunE:  runTelemetry,
	}
	cmd.Flags().StringVar(&chunkFlag, "chunk", "", "Chunk ID to show the history of")

	RootCmd.AddCommand(cmd)
}

func runTelemetry(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if !cfg.Telemetry.Enabled() {
		return errors.New("telemetry is not configured (set TELEMETRY_DRIVER and TELEMETRY_DSN)")
	}
	store, err := database.Open(cfg.Telemetry.Driver, cfg.Telemetry.DSN)
	if err != nil {
		return fmt.Errorf("failed to open telemetry store: %w", err)
	}
	defer store.Close()

	var result interface{}
	if chunkFlag != "" {
		chunkID, err := strconv.Atoi(chunkFlag)
		if err != nil {
			return fmt.Errorf("invalid chunk ID %q: %w", chunkFlag, err)
		}
		if _, err := store.GetSession(cmd.Context(), args[0]); err != nil {
			return err
		}
		result, err = store.ChunkHistory(cmd.Context(), args[0], chunkID)
		if err != nil {
			return err
		}
	} else {
		result, err = store.SessionSummary(cmd.Context(), args[0])
		if err != nil {
			return err
		}
	}

	b, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(b))
	return nil
}
