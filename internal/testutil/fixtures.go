package testutil

import (
	"testing"

	"github.com/nightwalk/server/internal/performance"
	"github.com/nightwalk/server/internal/sim"
	"github.com/nightwalk/server/internal/streaming"
)

// FixedSeed seeds every fixture so test worlds are reproducible.
const FixedSeed = 42

// WorldConfig returns the default streaming configuration with a fixed seed.
func WorldConfig() streaming.Config {
	cfg := streaming.DefaultConfig()
	cfg.Seed = FixedSeed
	return cfg
}

// FlatWorldConfig is WorldConfig with ground everywhere, so no spawn is
// ever rejected by the ground check.
func FlatWorldConfig() streaming.Config {
	cfg := WorldConfig()
	cfg.GroundLevel = -1e9
	return cfg
}

// World bundles a loop with its profiler.
type World struct {
	Loop     *sim.Loop
	Manager  *streaming.Manager
	Profiler *performance.Profiler
}

// NewWorld builds a loop over cfg with profiling enabled.
func NewWorld(t *testing.T, cfg streaming.Config) *World {
	t.Helper()
	profiler := performance.NewProfiler(true)
	manager := streaming.NewManager(cfg, profiler)
	loop, err := sim.NewLoop(sim.DefaultConfig(), manager, profiler)
	if err != nil {
		t.Fatalf("failed to create loop: %v", err)
	}
	return &World{Loop: loop, Manager: manager, Profiler: profiler}
}
