package entity

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestArenaInsertAndGet(t *testing.T) {
	arena := NewArena()
	if err := arena.Insert(Entity{ID: 7, Kind: KindHostile, Position: Position{X: 10, Y: 20}}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	e, ok := arena.Get(7)
	if !ok {
		t.Fatal("expected entity 7 to be present")
	}
	if e.Kind != KindHostile || e.Position.Y != 20 {
		t.Errorf("unexpected entity: %+v", e)
	}

	err := arena.Insert(Entity{ID: 7, Kind: KindAnimal})
	if !errors.Is(err, ErrDuplicateID) {
		t.Fatalf("expected ErrDuplicateID, got %v", err)
	}
	if e, _ := arena.Get(7); e.Kind != KindHostile {
		t.Errorf("duplicate insert must not overwrite the live entity")
	}
}

func TestArenaRemoveLeavesNoReference(t *testing.T) {
	arena := NewArena()
	for id := ID(1); id <= 5; id++ {
		if err := arena.Insert(Entity{ID: id, Kind: KindAnimal}); err != nil {
			t.Fatalf("insert %d: %v", id, err)
		}
	}

	if removed := arena.RemoveIDs([]ID{2, 4, 99}); removed != 2 {
		t.Fatalf("expected 2 removals, got %d", removed)
	}
	if _, ok := arena.Get(2); ok {
		t.Error("expected lookup of removed id to fail")
	}
	if arena.Remove(2) {
		t.Error("expected second removal to report absence")
	}

	ids := arena.IDs()
	expected := []ID{1, 3, 5}
	if len(ids) != len(expected) {
		t.Fatalf("expected %v, got %v", expected, ids)
	}
	for i := range expected {
		if ids[i] != expected[i] {
			t.Fatalf("expected %v, got %v", expected, ids)
		}
	}
}

func TestArenaCountByKindAndRange(t *testing.T) {
	arena := NewArena()
	_ = arena.Insert(Entity{ID: 1, Kind: KindPlayer, Position: Position{Y: 600}})
	_ = arena.Insert(Entity{ID: 2, Kind: KindShelter, Shelter: Ruins, Position: Position{Y: 300}})
	_ = arena.Insert(Entity{ID: 3, Kind: KindAnimal, Position: Position{Y: -100}})
	_ = arena.Insert(Entity{ID: 4, Kind: KindAnimal, Position: Position{Y: 900}})

	counts := arena.CountByKind()
	if counts[KindAnimal] != 2 || counts[KindPlayer] != 1 || counts[KindShelter] != 1 {
		t.Errorf("unexpected counts: %v", counts)
	}

	inView := arena.InRange(0, 700)
	if len(inView) != 2 || inView[0].ID != 1 || inView[1].ID != 2 {
		t.Errorf("unexpected entities in range: %+v", inView)
	}
}

func TestKindText(t *testing.T) {
	text, _ := KindShelter.MarshalText()
	if string(text) != "shelter" {
		t.Errorf("expected shelter, got %s", text)
	}
	text, _ = BridgeUnderpass.MarshalText()
	if string(text) != "bridge_underpass" {
		t.Errorf("expected bridge_underpass, got %s", text)
	}
}

func TestEntityJSONRoundTrip(t *testing.T) {
	in := []Entity{
		{ID: 1000, Kind: KindShelter, Position: Position{X: 200, Y: 700}, Shelter: Cave},
		{ID: 1001, Kind: KindAnimal, Position: Position{X: 64, Y: 900}},
	}
	data, err := json.Marshal(in)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var out []Entity
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(out) != 2 || out[0] != in[0] || out[1] != in[1] {
		t.Errorf("round trip mismatch: %+v", out)
	}

	var k Kind
	if err := k.UnmarshalText([]byte("dragon")); err == nil {
		t.Error("expected error for unknown kind")
	}
}
