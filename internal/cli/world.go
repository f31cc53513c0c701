package cli

import (
	"context"
	"fmt"
	"log"

	"github.com/nightwalk/server/internal/config"
	"github.com/nightwalk/server/internal/database"
	"github.com/nightwalk/server/internal/performance"
	"github.com/nightwalk/server/internal/sim"
	"github.com/nightwalk/server/internal/streaming"
)

// world is everything a command needs to run the simulation.
type world struct {
	cfg      *config.Config
	profiler *performance.Profiler
	manager  *streaming.Manager
	loop     *sim.Loop
	store    *database.TelemetryStore
	session  *database.Session
}

// openWorld builds the manager and loop, and starts a telemetry session when
// a store is configured.
func openWorld(ctx context.Context, cfg *config.Config) (*world, error) {
	profiler := performance.NewProfiler(true)
	scfg := cfg.StreamingConfig()
	manager := streaming.NewManager(scfg, profiler)

	loop, err := sim.NewLoop(cfg.SimConfig(), manager, profiler)
	if err != nil {
		return nil, fmt.Errorf("failed to create loop: %w", err)
	}
	w := &world{cfg: cfg, profiler: profiler, manager: manager, loop: loop}
	log.Printf("[Sim] World ready: seed=%d chunk_size=%.0f tick_rate=%d", scfg.Seed, scfg.ChunkSize, cfg.Sim.TickRate)

	if !cfg.Telemetry.Enabled() {
		return w, nil
	}
	store, err := database.Open(cfg.Telemetry.Driver, cfg.Telemetry.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open telemetry store: %w", err)
	}
	session, err := store.StartSession(ctx, database.SessionInfo{
		Seed:               scfg.Seed,
		ChunkSize:          scfg.ChunkSize,
		GenerationDistance: scfg.GenerationDistance,
		CleanupDistance:    scfg.CleanupDistance,
	})
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("failed to start telemetry session: %w", err)
	}
	loop.SetRecorder(store.Recorder(session.ID))
	w.store = store
	w.session = session
	log.Printf("[Telemetry] Recording session %s to %s", session.ID, store.Driver())
	return w, nil
}

func (w *world) sessionID() string {
	if w.session == nil {
		return ""
	}
	return w.session.ID
}

func (w *world) Close() error {
	if w.store == nil {
		return nil
	}
	return w.store.Close()
}
