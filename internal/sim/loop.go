package sim

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/nightwalk/server/internal/entity"
	"github.com/nightwalk/server/internal/performance"
	"github.com/nightwalk/server/internal/spawn"
	"github.com/nightwalk/server/internal/streaming"
	"github.com/nightwalk/server/internal/terrain"
)

// Profiler sections and counters recorded by the loop.
const (
	SectionTick      = "sim.tick"
	CounterAdded     = "chunks.added"
	CounterRemoved   = "chunks.removed"
	CounterSpawned   = "entities.spawned"
	CounterDespawned = "entities.despawned"
	CounterSkipped   = "entities.skipped"
)

// Config holds the loop settings.
type Config struct {
	TickRate     int
	PlayerSpeed  float64 // units per second toward lower y
	PlayerStartY float64
	ScreenWidth  float64
	ScreenHeight float64
}

// DefaultConfig returns the loop defaults for a 1280x720 view
func DefaultConfig() Config {
	return Config{
		TickRate:     60,
		PlayerSpeed:  120,
		PlayerStartY: 600,
		ScreenWidth:  1280,
		ScreenHeight: 720,
	}
}

// DeltaRecorder persists chunk deltas, e.g. to the telemetry store.
type DeltaRecorder interface {
	RecordDelta(ctx context.Context, tick int64, delta *streaming.ChunkDelta) error
}

// Publisher receives every snapshot the loop produces.
type Publisher interface {
	Publish(snapshot *Snapshot)
}

// Snapshot is an immutable view of the world after one tick.
type Snapshot struct {
	Tick         int64                    `json:"tick"`
	PlayerID     entity.ID                `json:"player_id"`
	PlayerY      float64                  `json:"player_y"`
	CameraY      float64                  `json:"camera_y"`
	ViewHeight   float64                  `json:"view_height"`
	ViewWidth    float64                  `json:"view_width"`
	Chunks       []streaming.ChunkSummary `json:"chunks"`
	Tiles        []terrain.Tile           `json:"-"`
	Entities     []entity.Entity          `json:"entities"`
	EntityCounts map[string]int           `json:"entity_counts"`
	NextEntityID entity.ID                `json:"next_entity_id"`
	Delta        *streaming.ChunkDelta    `json:"delta"`
}

// Loop drives the world at a fixed step. It owns the entity arena and the
// player entity; the streaming manager borrows the arena during Update.
// Step and Run must be called from one goroutine; Snapshot is safe anywhere.
type Loop struct {
	cfg        Config
	manager    *streaming.Manager
	arena      *entity.Arena
	player     entity.ID
	playerY    float64
	tick       int64
	profiler   *performance.Profiler
	recorder   DeltaRecorder
	publishers []Publisher

	mu       sync.RWMutex
	snapshot *Snapshot
}

// NewLoop creates the loop and places the player. The player's ID is taken
// from the manager's counter so it never collides with streamed entities.
func NewLoop(cfg Config, manager *streaming.Manager, profiler *performance.Profiler) (*Loop, error) {
	if cfg.TickRate <= 0 {
		return nil, fmt.Errorf("tick rate must be positive, got %d", cfg.TickRate)
	}

	l := &Loop{
		cfg:      cfg,
		manager:  manager,
		arena:    entity.NewArena(),
		playerY:  cfg.PlayerStartY,
		profiler: profiler,
	}

	id, err := manager.ReserveEntityID()
	if err != nil {
		return nil, fmt.Errorf("failed to reserve player id: %w", err)
	}
	l.player = id
	player := entity.Entity{
		ID:       l.player,
		Kind:     entity.KindPlayer,
		Position: entity.Position{X: cfg.ScreenWidth / 2, Y: cfg.PlayerStartY},
	}
	if err := l.arena.Insert(player); err != nil {
		return nil, fmt.Errorf("failed to place player: %w", err)
	}

	l.snapshot = l.buildSnapshot(nil)
	return l, nil
}

// SetRecorder attaches a delta recorder. Call before Run.
func (l *Loop) SetRecorder(r DeltaRecorder) {
	l.recorder = r
}

// AddPublisher registers a snapshot consumer. Call before Run.
func (l *Loop) AddPublisher(p Publisher) {
	l.publishers = append(l.publishers, p)
}

// Interval returns the fixed step duration
func (l *Loop) Interval() time.Duration {
	return time.Second / time.Duration(l.cfg.TickRate)
}

// Step advances the world by dt: moves the player, streams chunks around it,
// records the delta and publishes a new snapshot.
func (l *Loop) Step(ctx context.Context, dt time.Duration) *streaming.ChunkDelta {
	op := l.profiler.Start(SectionTick)
	defer op.End()

	l.tick++
	l.playerY -= l.cfg.PlayerSpeed * dt.Seconds()
	if p, ok := l.arena.Get(l.player); ok {
		p.Position.Y = l.playerY
	}

	delta := l.manager.Update(l.playerY, l.arena, spawn.Context{ScreenWidth: l.cfg.ScreenWidth})

	l.profiler.Count(CounterAdded, int64(len(delta.AddedChunks)))
	l.profiler.Count(CounterRemoved, int64(len(delta.RemovedChunks)))
	l.profiler.Count(CounterSpawned, int64(delta.Spawned))
	l.profiler.Count(CounterDespawned, int64(delta.Despawned))
	l.profiler.Count(CounterSkipped, int64(delta.Skipped))

	if l.recorder != nil {
		if err := l.recorder.RecordDelta(ctx, l.tick, delta); err != nil {
			log.Printf("[Telemetry] failed to record tick %d: %v", l.tick, err)
		}
	}

	snapshot := l.buildSnapshot(delta)
	l.mu.Lock()
	l.snapshot = snapshot
	l.mu.Unlock()

	for _, p := range l.publishers {
		p.Publish(snapshot)
	}
	return delta
}

// Run steps the loop at the configured tick rate until ctx is cancelled.
func (l *Loop) Run(ctx context.Context) error {
	interval := l.Interval()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	log.Printf("[Sim] running at %d ticks/s, player speed %.0f", l.cfg.TickRate, l.cfg.PlayerSpeed)
	for {
		select {
		case <-ctx.Done():
			log.Printf("[Sim] stopped after %d ticks at y=%.0f", l.tick, l.playerY)
			return nil
		case <-ticker.C:
			l.Step(ctx, interval)
		}
	}
}

// RunSteps advances n fixed steps as fast as possible.
func (l *Loop) RunSteps(ctx context.Context, n int) error {
	interval := l.Interval()
	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		l.Step(ctx, interval)
	}
	return nil
}

// Snapshot returns the latest snapshot. It must not be modified.
func (l *Loop) Snapshot() *Snapshot {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.snapshot
}

// Tick returns the number of steps taken
func (l *Loop) Tick() int64 {
	return l.tick
}

// PlayerID returns the player's entity ID
func (l *Loop) PlayerID() entity.ID {
	return l.player
}

func (l *Loop) buildSnapshot(delta *streaming.ChunkDelta) *Snapshot {
	cameraY := l.playerY
	half := l.cfg.ScreenHeight / 2

	counts := make(map[string]int)
	for kind, n := range l.arena.CountByKind() {
		counts[kind.String()] = n
	}

	return &Snapshot{
		Tick:         l.tick,
		PlayerID:     l.player,
		PlayerY:      l.playerY,
		CameraY:      cameraY,
		ViewHeight:   l.cfg.ScreenHeight,
		ViewWidth:    l.cfg.ScreenWidth,
		Chunks:       l.manager.Summaries(),
		Tiles:        l.manager.VisibleTiles(cameraY, l.cfg.ScreenHeight),
		Entities:     l.arena.InRange(cameraY-half, cameraY+half),
		EntityCounts: counts,
		NextEntityID: l.manager.NextEntityID(),
		Delta:        delta,
	}
}
