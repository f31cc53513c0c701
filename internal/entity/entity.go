package entity

import (
	"errors"
	"fmt"
)

// ID is a stable, never-reused entity identifier.
type ID uint32

// MaxID is never issued; a counter that reaches it is exhausted.
const MaxID ID = 1<<32 - 1

// ErrIDsExhausted is returned when no fresh ID is left to hand out.
var ErrIDsExhausted = errors.New("entity ids exhausted")

// Kind is the closed set of entity categories living in the arena.
type Kind uint8

const (
	KindPlayer Kind = iota
	KindShelter
	KindHostile
	KindAnimal
)

func (k Kind) String() string {
	switch k {
	case KindPlayer:
		return "player"
	case KindShelter:
		return "shelter"
	case KindHostile:
		return "hostile"
	case KindAnimal:
		return "animal"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// MarshalText encodes the kind by name for JSON transport.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText decodes a kind name
func (k *Kind) UnmarshalText(text []byte) error {
	for _, candidate := range []Kind{KindPlayer, KindShelter, KindHostile, KindAnimal} {
		if candidate.String() == string(text) {
			*k = candidate
			return nil
		}
	}
	return fmt.Errorf("unknown entity kind %q", text)
}

// ShelterType is the structure a shelter entity represents.
type ShelterType uint8

const (
	ShelterNone ShelterType = iota
	Cave
	Building
	TreeCover
	Underground
	Ruins
	Shed
	BridgeUnderpass
)

// ShelterTypes lists every shelter type in declaration order.
var ShelterTypes = []ShelterType{Cave, Building, TreeCover, Underground, Ruins, Shed, BridgeUnderpass}

func (s ShelterType) String() string {
	switch s {
	case ShelterNone:
		return ""
	case Cave:
		return "cave"
	case Building:
		return "building"
	case TreeCover:
		return "tree_cover"
	case Underground:
		return "underground"
	case Ruins:
		return "ruins"
	case Shed:
		return "shed"
	case BridgeUnderpass:
		return "bridge_underpass"
	default:
		return fmt.Sprintf("shelter(%d)", uint8(s))
	}
}

// MarshalText encodes the shelter type by name for JSON transport.
func (s ShelterType) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText decodes a shelter type name; the empty string is ShelterNone.
func (s *ShelterType) UnmarshalText(text []byte) error {
	if len(text) == 0 {
		*s = ShelterNone
		return nil
	}
	for _, candidate := range ShelterTypes {
		if candidate.String() == string(text) {
			*s = candidate
			return nil
		}
	}
	return fmt.Errorf("unknown shelter type %q", text)
}

// Position is a point in world space
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Entity is the streaming-relevant part of a game entity. Behaviour state
// (AI, combat, blood) is attached by other systems keyed on ID.
type Entity struct {
	ID       ID          `json:"id"`
	Kind     Kind        `json:"kind"`
	Position Position    `json:"position"`
	Shelter  ShelterType `json:"shelter,omitempty"`
}
