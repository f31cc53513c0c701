package terrain

import "fmt"

// Category is the terrain kind of a single ground tile.
type Category uint8

const (
	Grass Category = iota
	Dirt
	Mud
	DeadGrass
	Stone
)

// Class groups categories into the four gameplay bands.
type Class uint8

const (
	ClassPrimary Class = iota
	ClassSecondary
	ClassBare
	ClassHard
)

var categoryNames = [...]string{
	Grass:     "grass",
	Dirt:      "dirt",
	Mud:       "mud",
	DeadGrass: "dead_grass",
	Stone:     "stone",
}

func (c Category) String() string {
	if int(c) < len(categoryNames) {
		return categoryNames[c]
	}
	return fmt.Sprintf("category(%d)", uint8(c))
}

// MarshalText encodes the category by name for JSON transport.
func (c Category) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText decodes a category name.
func (c *Category) UnmarshalText(text []byte) error {
	for i, name := range categoryNames {
		if name == string(text) {
			*c = Category(i)
			return nil
		}
	}
	return fmt.Errorf("unknown terrain category %q", text)
}

// Class returns the gameplay band of the category.
func (c Category) Class() Class {
	switch c {
	case Grass:
		return ClassPrimary
	case Dirt, Mud:
		return ClassSecondary
	case DeadGrass:
		return ClassBare
	default:
		return ClassHard
	}
}

func (c Class) String() string {
	switch c {
	case ClassPrimary:
		return "primary"
	case ClassSecondary:
		return "secondary"
	case ClassBare:
		return "bare"
	default:
		return "hard"
	}
}
