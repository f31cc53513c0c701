package terrain

import (
	"github.com/nightwalk/server/internal/stripmap"
)

// DefaultBase is the modulus applied to the combined tile seed.
const DefaultBase = 10

// Tile is one immutable ground tile: its world-space origin plus category.
// Variant is cosmetic only (speckle placement) and never affects gameplay.
type Tile struct {
	X        float64  `json:"x"`
	Y        float64  `json:"y"`
	Category Category `json:"category"`
	Variant  uint8    `json:"variant"`
}

// Classifier maps tile positions to categories. It is a pure function of the
// tile-grid coordinate: the same position always yields the same category.
//
// For a seed s = |tx| + |ty| and r = s mod Base, the remainder bands are
// 60% primary, 20% secondary (split dirt/mud), 10% bare and a final 10%
// split evenly between bare and hard, giving 15% bare and 5% hard overall.
type Classifier struct {
	TileSize float64
	Base     int

	primaryCut   int
	secondaryCut int
	bareCut      int
}

// NewClassifier builds a classifier. A base below 10 falls back to DefaultBase.
func NewClassifier(tileSize float64, base int) *Classifier {
	if base < DefaultBase {
		base = DefaultBase
	}
	return &Classifier{
		TileSize:     tileSize,
		Base:         base,
		primaryCut:   base * 6 / 10,
		secondaryCut: base * 8 / 10,
		bareCut:      base * 9 / 10,
	}
}

// Classify returns the category for a world-space position.
func (c *Classifier) Classify(x, y float64) Category {
	return c.ClassifyIndex(stripmap.TileIndex(x, c.TileSize), stripmap.TileIndex(y, c.TileSize))
}

// ClassifyIndex returns the category for a tile-grid coordinate.
func (c *Classifier) ClassifyIndex(tx, ty int) Category {
	seed := abs(tx) + abs(ty)
	r := seed % c.Base
	mix := hash2(uint32(seed), int32(tx), int32(ty))

	switch {
	case r < c.primaryCut:
		return Grass
	case r < c.secondaryCut:
		if mix&1 == 1 {
			return Mud
		}
		return Dirt
	case r < c.bareCut:
		return DeadGrass
	default:
		if mix&2 == 2 {
			return Stone
		}
		return DeadGrass
	}
}

// Variant returns the cosmetic variant byte for a tile-grid coordinate.
func (c *Classifier) Variant(tx, ty int) uint8 {
	return uint8(hash2(0x5eed, int32(tx), int32(ty)) >> 24)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
