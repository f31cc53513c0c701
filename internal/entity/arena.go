package entity

import (
	"errors"
	"fmt"
	"sort"
)

// ErrDuplicateID is returned when inserting an entity whose ID is already live.
var ErrDuplicateID = errors.New("duplicate entity id")

// Arena is the shared entity collection addressed by ID. Systems keep IDs,
// never pointers, so removal cannot leave dangling references; lookups of a
// removed ID simply fail.
//
// An Arena is not safe for concurrent use. The game loop owns it and lends it
// to the streaming manager for the duration of one update.
type Arena struct {
	entities map[ID]*Entity
}

// NewArena creates an empty arena
func NewArena() *Arena {
	return &Arena{entities: make(map[ID]*Entity)}
}

// Insert adds an entity. The entity is stored by value.
func (a *Arena) Insert(e Entity) error {
	if _, exists := a.entities[e.ID]; exists {
		return fmt.Errorf("%w: %d", ErrDuplicateID, e.ID)
	}
	stored := e
	a.entities[e.ID] = &stored
	return nil
}

// Get looks up an entity by ID.
func (a *Arena) Get(id ID) (*Entity, bool) {
	e, ok := a.entities[id]
	return e, ok
}

// Contains reports whether id is live.
func (a *Arena) Contains(id ID) bool {
	_, ok := a.entities[id]
	return ok
}

// Remove deletes one entity and reports whether it was present.
func (a *Arena) Remove(id ID) bool {
	if _, ok := a.entities[id]; !ok {
		return false
	}
	delete(a.entities, id)
	return true
}

// RemoveIDs deletes every listed entity and returns how many were present.
func (a *Arena) RemoveIDs(ids []ID) int {
	removed := 0
	for _, id := range ids {
		if a.Remove(id) {
			removed++
		}
	}
	return removed
}

// Len returns the number of live entities
func (a *Arena) Len() int {
	return len(a.entities)
}

// IDs returns all live IDs in ascending order.
func (a *Arena) IDs() []ID {
	ids := make([]ID, 0, len(a.entities))
	for id := range a.entities {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Each calls fn for every entity in ascending ID order until fn returns false.
func (a *Arena) Each(fn func(*Entity) bool) {
	for _, id := range a.IDs() {
		if !fn(a.entities[id]) {
			return
		}
	}
}

// CountByKind tallies live entities per kind.
func (a *Arena) CountByKind() map[Kind]int {
	counts := make(map[Kind]int)
	for _, e := range a.entities {
		counts[e.Kind]++
	}
	return counts
}

// InRange returns copies of the entities whose Y lies in [minY, maxY], by ID.
func (a *Arena) InRange(minY, maxY float64) []Entity {
	var result []Entity
	a.Each(func(e *Entity) bool {
		if e.Position.Y >= minY && e.Position.Y <= maxY {
			result = append(result, *e)
		}
		return true
	})
	return result
}
