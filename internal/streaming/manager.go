package streaming

import (
	"log"
	"math/rand"
	"sort"

	"github.com/nightwalk/server/internal/entity"
	"github.com/nightwalk/server/internal/performance"
	"github.com/nightwalk/server/internal/spawn"
	"github.com/nightwalk/server/internal/stripmap"
	"github.com/nightwalk/server/internal/terrain"
)

// Profiler section names recorded by the manager.
const (
	SectionGenerate = "streaming.generate"
	SectionCleanup  = "streaming.cleanup"
	SectionVisible  = "streaming.visible_tiles"
)

// Manager owns the live chunks and streams them around the player: chunks
// ahead are built, chunks behind are dropped together with their entities.
//
// A Manager is single-threaded. The caller lends the entity arena for the
// duration of Update only; the manager keeps IDs, never the arena.
type Manager struct {
	cfg         Config
	chunks      map[int]*Chunk
	lastPlayerY float64
	nextID      entity.ID
	bands       *terrain.BandGenerator
	populator   *spawn.Populator
	profiler    *performance.Profiler
}

// ChunkDelta describes what one Update changed.
type ChunkDelta struct {
	PlayerY       float64 `json:"player_y"`
	AddedChunks   []int   `json:"added_chunks"`
	RemovedChunks []int   `json:"removed_chunks"`
	CurrentChunks []int   `json:"current_chunks"`
	Spawned       int     `json:"spawned"`
	Skipped       int     `json:"skipped"`
	Despawned     int     `json:"despawned"`
}

// Changed reports whether any chunk was added or removed
func (d *ChunkDelta) Changed() bool {
	return len(d.AddedChunks) > 0 || len(d.RemovedChunks) > 0
}

// NewManager builds a streaming manager. profiler may be nil.
func NewManager(cfg Config, profiler *performance.Profiler) *Manager {
	classifier := terrain.NewClassifier(cfg.TileSize, cfg.ClassifierBase)
	rng := rand.New(rand.NewSource(cfg.Seed))
	return &Manager{
		cfg:         cfg,
		chunks:      make(map[int]*Chunk),
		lastPlayerY: cfg.PlayerStartY,
		nextID:      cfg.FirstEntityID,
		bands:       terrain.NewBandGenerator(classifier, cfg.GroundLevel),
		populator:   spawn.NewPopulator(cfg.Rules, cfg.GroundLevel, rng, cfg.Debug),
		profiler:    profiler,
	}
}

// Update advances streaming by one step for a player at playerY. All
// generation for the step completes before any cleanup. Update never fails:
// an invalid coordinate leaves the state untouched and yields an empty delta.
func (m *Manager) Update(playerY float64, arena *entity.Arena, ctx spawn.Context) *ChunkDelta {
	delta := &ChunkDelta{PlayerY: playerY}
	if err := stripmap.ValidatePosition(playerY); err != nil {
		log.Printf("[Stream] Update ignored: %v", err)
		delta.CurrentChunks = m.ChunkIDs()
		return delta
	}
	if ctx.ScreenWidth <= 0 {
		ctx.ScreenWidth = m.cfg.ScreenWidth
	}

	m.generateAhead(playerY, arena, ctx, delta)
	m.cleanupBehind(playerY, arena, delta)
	m.lastPlayerY = playerY

	delta.CurrentChunks = m.ChunkIDs()
	if delta.Changed() {
		log.Printf("[Stream] Update: player_y=%.0f, added=%v, removed=%v, spawned=%d, despawned=%d, live=%d",
			playerY, delta.AddedChunks, delta.RemovedChunks, delta.Spawned, delta.Despawned, len(m.chunks))
	}
	return delta
}

func (m *Manager) generateAhead(playerY float64, arena *entity.Arena, ctx spawn.Context, delta *ChunkDelta) {
	op := m.profiler.Start(SectionGenerate)
	defer op.End()

	window := stripmap.GenerationWindow(playerY, m.cfg.ChunkSize, m.cfg.GenerationDistance, m.cfg.CleanupDistance)
	for _, id := range window.IDs() {
		if _, exists := m.chunks[id]; exists {
			continue
		}
		chunk := m.buildChunk(id, arena, ctx, delta)
		m.chunks[id] = chunk
		delta.AddedChunks = append(delta.AddedChunks, id)
	}
}

func (m *Manager) buildChunk(id int, arena *entity.Arena, ctx spawn.Context, delta *ChunkDelta) *Chunk {
	chunk := newChunk(id, m.cfg.ChunkSize)
	chunk.Tiles = m.bands.Generate(chunk.Start, chunk.End, ctx.ScreenWidth)

	result := m.populator.Populate(spawn.Band{Start: chunk.Start, End: chunk.End}, ctx, arena, idCounter{m})
	chunk.Entities = result.Owned
	chunk.Generated = true

	delta.Spawned += len(result.Owned)
	delta.Skipped += result.Skipped
	if m.cfg.Debug {
		log.Printf("[Stream] generated chunk %d [%.0f, %.0f): tiles=%d, entities=%d, skipped=%d",
			id, chunk.End, chunk.Start, len(chunk.Tiles), len(chunk.Entities), result.Skipped)
	}
	return chunk
}

func (m *Manager) cleanupBehind(playerY float64, arena *entity.Arena, delta *ChunkDelta) {
	op := m.profiler.Start(SectionCleanup)
	defer op.End()

	for _, id := range m.ChunkIDs() {
		chunk := m.chunks[id]
		if !stripmap.IsBehindCleanup(chunk.Start, playerY, m.cfg.CleanupDistance) {
			continue
		}
		removed := arena.RemoveIDs(chunk.Entities)
		delete(m.chunks, id)
		delta.RemovedChunks = append(delta.RemovedChunks, id)
		delta.Despawned += removed
		if m.cfg.Debug {
			log.Printf("[Stream] removed chunk %d: entities=%d (live=%d)", id, len(chunk.Entities), removed)
		}
	}
}

// ChunkIDs returns the live chunk IDs in ascending order.
func (m *Manager) ChunkIDs() []int {
	ids := make([]int, 0, len(m.chunks))
	for id := range m.chunks {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// Chunk returns a live chunk. The result must be treated as read-only.
func (m *Manager) Chunk(id int) (*Chunk, bool) {
	c, ok := m.chunks[id]
	return c, ok
}

// ChunkCount returns the number of live chunks
func (m *Manager) ChunkCount() int {
	return len(m.chunks)
}

// Summaries returns copy-safe summaries of the live chunks in ID order.
func (m *Manager) Summaries() []ChunkSummary {
	ids := m.ChunkIDs()
	summaries := make([]ChunkSummary, 0, len(ids))
	for _, id := range ids {
		summaries = append(summaries, m.chunks[id].summary())
	}
	return summaries
}

// NextEntityID returns the ID the next spawn will receive.
func (m *Manager) NextEntityID() entity.ID {
	return m.nextID
}

// ReserveEntityID hands out the next ID for an entity the caller owns, such
// as the player. It fails once the counter is exhausted.
func (m *Manager) ReserveEntityID() (entity.ID, error) {
	return m.allocateID()
}

// SetNextEntityID moves the ID counter forward, e.g. after the game state
// reserved IDs for entities it spawned itself. The counter never moves back.
func (m *Manager) SetNextEntityID(id entity.ID) {
	if id > m.nextID {
		m.nextID = id
	}
}

// LastPlayerY returns the player coordinate seen by the last valid Update
func (m *Manager) LastPlayerY() float64 {
	return m.lastPlayerY
}

// GroundLevel returns the coordinate where the terrain band begins
func (m *Manager) GroundLevel() float64 {
	return m.cfg.GroundLevel
}

// Config returns the manager configuration
func (m *Manager) Config() Config {
	return m.cfg
}

type idCounter struct {
	m *Manager
}

func (c idCounter) NextID() (entity.ID, error) {
	return c.m.allocateID()
}

// allocateID never wraps: MaxID is the exhaustion mark, not an ID.
func (m *Manager) allocateID() (entity.ID, error) {
	if m.nextID >= entity.MaxID {
		return 0, entity.ErrIDsExhausted
	}
	id := m.nextID
	m.nextID++
	return id, nil
}
