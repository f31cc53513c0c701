package spawn

import (
	"fmt"
	"math/rand"

	"github.com/nightwalk/server/internal/entity"
)

// Create builds the entity for a spawn. The ground precondition is checked
// first; a rejected position returns ErrNoGround and nothing is built.
func Create(id entity.ID, category Category, x, y float64, ground Ground, rng *rand.Rand) (entity.Entity, error) {
	if !ground.HasGround(x, y) {
		return entity.Entity{}, fmt.Errorf("%w: %s at (%.1f, %.1f)", ErrNoGround, category, x, y)
	}

	e := entity.Entity{
		ID:       id,
		Kind:     category.Kind(),
		Position: entity.Position{X: x, Y: y},
	}
	if category == Shelter {
		e.Shelter = entity.ShelterTypes[rng.Intn(len(entity.ShelterTypes))]
	}
	return e, nil
}

// randRange returns a uniform value in [lo, hi), or lo when the range is empty.
func randRange(rng *rand.Rand, lo, hi float64) float64 {
	if hi <= lo {
		return lo
	}
	return lo + rng.Float64()*(hi-lo)
}

// randCount returns a uniform count in [min, max].
func randCount(rng *rand.Rand, min, max int) int {
	if max <= min {
		return min
	}
	return min + rng.Intn(max-min+1)
}
