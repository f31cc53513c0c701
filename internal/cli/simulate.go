package cli

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/nightwalk/server/internal/performance"
	"github.com/nightwalk/server/internal/streaming"
)

var (
	stepsFlag  int
	reportFlag bool
)

// simulateResult is printed after a headless run.
type simulateResult struct {
	Session      string                   `json:"session,omitempty"`
	Ticks        int64                    `json:"ticks"`
	PlayerY      float64                  `json:"player_y"`
	Chunks       []streaming.ChunkSummary `json:"chunks"`
	EntityCounts map[string]int           `json:"entity_counts"`
	NextEntityID int64                    `json:"next_entity_id"`
	Profile      *performance.ReportJSON  `json:"profile,omitempty"`
}

func init() {
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Run the world headless for a number of ticks",
		Args:  cobra.NoArgs,
		RunE:  runSimulate,
	}
	cmd.Flags().IntVarP(&stepsFlag, "steps", "n", 600, "Number of ticks to run")
	cmd.Flags().BoolVar(&reportFlag, "report", false, "Include the profiler report")

	RootCmd.AddCommand(cmd)
}

func runSimulate(cmd *cobra.Command, args []string) error {
	if stepsFlag < 0 {
		return fmt.Errorf("steps must not be negative, got %d", stepsFlag)
	}
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	w, err := openWorld(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer w.Close()

	start := time.Now()
	if err := w.loop.RunSteps(cmd.Context(), stepsFlag); err != nil {
		return fmt.Errorf("simulation stopped: %w", err)
	}
	w.profiler.Record("sim.run", time.Since(start))

	snap := w.loop.Snapshot()
	result := simulateResult{
		Session:      w.sessionID(),
		Ticks:        snap.Tick,
		PlayerY:      snap.PlayerY,
		Chunks:       snap.Chunks,
		EntityCounts: snap.EntityCounts,
		NextEntityID: int64(snap.NextEntityID),
	}
	if reportFlag {
		report := w.profiler.Snapshot()
		result.Profile = &report
	}

	b, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(b))
	return nil
}
