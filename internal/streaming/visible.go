package streaming

import (
	"github.com/nightwalk/server/internal/terrain"
)

// VisibleTiles returns the tiles intersecting a viewport centred on cameraY
// with the given height, widened by the configured margin so tiles at the
// edge do not pop. Tiles come back ordered by Y then X. Read-only.
func (m *Manager) VisibleTiles(cameraY, viewportHeight float64) []terrain.Tile {
	op := m.profiler.Start(SectionVisible)
	defer op.End()

	lo := cameraY - viewportHeight/2 - m.cfg.VisibleMargin
	hi := cameraY + viewportHeight/2 + m.cfg.VisibleMargin

	var visible []terrain.Tile
	for _, id := range m.ChunkIDs() {
		chunk := m.chunks[id]
		if !chunk.Intersects(lo, hi) {
			continue
		}
		for _, tile := range chunk.Tiles {
			if tile.Y >= lo && tile.Y <= hi {
				visible = append(visible, tile)
			}
		}
	}
	return visible
}
