package stripmap

import (
	"errors"
	"fmt"
	"math"
)

const (
	// DefaultChunkSize is the length of each chunk along the streaming axis in world units
	DefaultChunkSize = 480.0
	// DefaultGenerationDistance is how far ahead of the player chunks are built (3 chunks)
	DefaultGenerationDistance = 1440.0
	// DefaultCleanupDistance is how far behind the player chunks survive (2 chunks)
	DefaultCleanupDistance = 960.0
)

// ErrInvalidPosition is returned for coordinates that cannot be mapped to a chunk.
var ErrInvalidPosition = errors.New("invalid position")

// The world streams along a single axis. Travel decreases the coordinate, so
// "ahead" means lower chunk IDs and "behind" means higher chunk IDs.

// ChunkIDForPosition returns floor(y / size), the ID of the chunk containing y.
func ChunkIDForPosition(y, size float64) int {
	return int(math.Floor(y / size))
}

// ChunkBounds returns the edges of a chunk. Start is the higher-coordinate edge
// and End the lower one; a chunk owns the closed-open interval [End, Start).
func ChunkBounds(id int, size float64) (start, end float64) {
	end = float64(id) * size
	start = end + size
	return start, end
}

// ChunkCenter returns the midpoint of a chunk along the axis.
func ChunkCenter(id int, size float64) float64 {
	start, _ := ChunkBounds(id, size)
	return start - size/2
}

// ContainsPosition reports whether y lies inside [end, start).
func ContainsPosition(start, end, y float64) bool {
	return y >= end && y < start
}

// IsBehindCleanup reports whether a chunk whose higher edge is start has
// fallen behind the cleanup threshold for a player at y.
func IsBehindCleanup(start, y, cleanupDistance float64) bool {
	return start > y+cleanupDistance
}

// Window is an inclusive chunk-ID interval ordered from the chunk nearest the
// player (Nearest) outward to the farthest chunk ahead (Farthest).
type Window struct {
	Nearest  int
	Farthest int
}

// Empty reports whether the window holds no IDs.
func (w Window) Empty() bool {
	return w.Farthest > w.Nearest
}

// Len returns the number of chunk IDs in the window.
func (w Window) Len() int {
	if w.Empty() {
		return 0
	}
	return w.Nearest - w.Farthest + 1
}

// Contains reports whether id lies inside the window.
func (w Window) Contains(id int) bool {
	return id <= w.Nearest && id >= w.Farthest
}

// IDs lists the window from nearest to farthest.
func (w Window) IDs() []int {
	ids := make([]int, 0, w.Len())
	for id := w.Nearest; id >= w.Farthest; id-- {
		ids = append(ids, id)
	}
	return ids
}

// GenerationWindow derives the chunk IDs that must exist for a player at y.
//
// The nearest ID is the chunk containing y, clamped to be >= 0 and then
// clamped again so it never reaches a chunk the cleanup pass would drop in the
// same step. The second clamp keeps the generation and cleanup windows
// disjoint for any position, so repeated updates never churn chunks.
func GenerationWindow(y, size, generationDistance, cleanupDistance float64) Window {
	nearest := ChunkIDForPosition(y, size)
	if nearest < 0 {
		nearest = 0
	}
	if survivor := LastSurvivingID(y, size, cleanupDistance); nearest > survivor {
		nearest = survivor
	}
	return Window{
		Nearest:  nearest,
		Farthest: ChunkIDForPosition(y-generationDistance, size),
	}
}

// LastSurvivingID returns the highest chunk ID whose start edge is still at or
// before the cleanup threshold y+cleanupDistance.
func LastSurvivingID(y, size, cleanupDistance float64) int {
	return int(math.Floor((y+cleanupDistance)/size)) - 1
}

// ValidatePosition rejects NaN and infinite coordinates
func ValidatePosition(y float64) error {
	if math.IsNaN(y) || math.IsInf(y, 0) {
		return fmt.Errorf("%w: %f", ErrInvalidPosition, y)
	}
	return nil
}
