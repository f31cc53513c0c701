package streaming

import (
	"github.com/nightwalk/server/internal/entity"
	"github.com/nightwalk/server/internal/stripmap"
	"github.com/nightwalk/server/internal/terrain"
)

// Chunk is the unit of streaming: a band [End, Start) of the axis with the
// tiles generated for it and the IDs of every entity it spawned. Once
// generated a chunk is never mutated; it is only dropped.
type Chunk struct {
	ID        int
	Start     float64
	End       float64
	Tiles     []terrain.Tile
	Entities  []entity.ID
	Generated bool
}

// ChunkSummary is a copy-safe view of a chunk for observers.
type ChunkSummary struct {
	ID        int         `json:"id"`
	Start     float64     `json:"start"`
	End       float64     `json:"end"`
	TileCount int         `json:"tile_count"`
	Entities  []entity.ID `json:"entities"`
}

func newChunk(id int, size float64) *Chunk {
	start, end := stripmap.ChunkBounds(id, size)
	return &Chunk{ID: id, Start: start, End: end}
}

// Contains reports whether y lies inside the chunk.
func (c *Chunk) Contains(y float64) bool {
	return stripmap.ContainsPosition(c.Start, c.End, y)
}

// Center returns the chunk midpoint
func (c *Chunk) Center() float64 {
	return c.Start - (c.Start-c.End)/2
}

// Intersects reports whether the chunk overlaps the closed interval [lo, hi].
func (c *Chunk) Intersects(lo, hi float64) bool {
	return c.End <= hi && c.Start > lo
}

func (c *Chunk) summary() ChunkSummary {
	ids := make([]entity.ID, len(c.Entities))
	copy(ids, c.Entities)
	return ChunkSummary{
		ID:        c.ID,
		Start:     c.Start,
		End:       c.End,
		TileCount: len(c.Tiles),
		Entities:  ids,
	}
}
