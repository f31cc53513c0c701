package spawn

import (
	"fmt"

	"github.com/nightwalk/server/internal/entity"
)

// Category is the closed set of things the streaming world spawns.
type Category uint8

const (
	Shelter Category = iota
	Hostile
	Animal
)

// Categories lists every spawn category in population order.
var Categories = []Category{Shelter, Hostile, Animal}

func (c Category) String() string {
	switch c {
	case Shelter:
		return "shelter"
	case Hostile:
		return "hostile"
	case Animal:
		return "animal"
	default:
		return fmt.Sprintf("category(%d)", uint8(c))
	}
}

// Kind maps the spawn category to the arena entity kind.
func (c Category) Kind() entity.Kind {
	switch c {
	case Shelter:
		return entity.KindShelter
	case Hostile:
		return entity.KindHostile
	default:
		return entity.KindAnimal
	}
}

// Rule carries the spawn parameters of one category.
type Rule struct {
	Category Category
	// Spacing is the minimum travel between spawns; zero disables the throttle.
	Spacing float64
	// MinCount and MaxCount bound how many entities one chunk receives.
	MinCount int
	MaxCount int
	// Margin keeps spawns away from the left and right screen edges.
	Margin float64
	// InitialMarker seeds the cadence tracker's last-spawn coordinate.
	InitialMarker float64
}

// Throttled reports whether the rule is gated by a cadence tracker.
func (r Rule) Throttled() bool {
	return r.Spacing > 0
}

// Rules holds the rule for each category.
type Rules struct {
	Shelter Rule
	Hostile Rule
	Animal  Rule
}

// DefaultRules returns the tuned spawn parameters. Markers start behind the
// player start so the first chunks ahead are eligible immediately.
func DefaultRules() Rules {
	return Rules{
		Shelter: Rule{Category: Shelter, Spacing: 300, MinCount: 1, MaxCount: 1, Margin: 100, InitialMarker: 800},
		Hostile: Rule{Category: Hostile, Spacing: 150, MinCount: 1, MaxCount: 3, Margin: 50, InitialMarker: 700},
		Animal:  Rule{Category: Animal, Spacing: 0, MinCount: 1, MaxCount: 2, Margin: 50},
	}
}

// For returns the rule of a category, tagged with that category.
func (r Rules) For(c Category) Rule {
	var rule Rule
	switch c {
	case Shelter:
		rule = r.Shelter
	case Hostile:
		rule = r.Hostile
	default:
		rule = r.Animal
	}
	rule.Category = c
	return rule
}
