package spawn

import (
	"errors"
)

// ErrNoGround is returned when a spawn target has no walkable ground under it.
var ErrNoGround = errors.New("no ground at position")

// Ground describes the walkable region: the horizontal screen band
// [0, Width] at or below GroundLevel.
type Ground struct {
	Level float64
	Width float64
}

// HasGround reports whether (x, y) is walkable
func (g Ground) HasGround(x, y float64) bool {
	return x >= 0 && x <= g.Width && y >= g.Level
}
