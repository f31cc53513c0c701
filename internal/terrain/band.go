package terrain

import (
	"github.com/nightwalk/server/internal/stripmap"
)

// BandGenerator produces the ground tiles for a band of the streaming axis.
// Only rows at or below GroundLevel (y >= GroundLevel) produce tiles; the part
// of a band above ground is sky and stays empty.
type BandGenerator struct {
	Classifier  *Classifier
	GroundLevel float64
}

// NewBandGenerator creates a band generator.
func NewBandGenerator(classifier *Classifier, groundLevel float64) *BandGenerator {
	return &BandGenerator{
		Classifier:  classifier,
		GroundLevel: groundLevel,
	}
}

// Generate returns the tiles whose origin lies in [end, start) across the
// given width, row by row from the lower coordinate upward, columns left to
// right. Callers pass the same width they spawn entities in.
func (g *BandGenerator) Generate(start, end, width float64) []Tile {
	size := g.Classifier.TileSize
	first, last := stripmap.TileRows(start, end, size)
	if groundRow := stripmap.TileIndex(g.GroundLevel, size); first < groundRow {
		first = groundRow
	}
	if first > last {
		return nil
	}

	for stripmap.TileOrigin(first, size) < g.GroundLevel {
		first++
	}
	if first > last {
		return nil
	}

	across := stripmap.TilesAcross(width, size)
	tiles := make([]Tile, 0, (last-first+1)*across)
	for row := first; row <= last; row++ {
		y := stripmap.TileOrigin(row, size)
		ty := stripmap.TileIndex(y, size)
		for col := 0; col < across; col++ {
			x := stripmap.TileOrigin(col, size)
			tx := stripmap.TileIndex(x, size)
			tiles = append(tiles, Tile{
				X:        x,
				Y:        y,
				Category: g.Classifier.ClassifyIndex(tx, ty),
				Variant:  g.Classifier.Variant(tx, ty),
			})
		}
	}
	return tiles
}
