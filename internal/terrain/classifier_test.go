package terrain

import (
	"math"
	"testing"

	"github.com/nightwalk/server/internal/stripmap"
)

func TestClassifyDeterministic(t *testing.T) {
	c := NewClassifier(stripmap.DefaultTileSize, DefaultBase)
	other := NewClassifier(stripmap.DefaultTileSize, DefaultBase)
	for tx := -50; tx <= 50; tx += 7 {
		for ty := -300; ty <= 300; ty += 11 {
			first := c.ClassifyIndex(tx, ty)
			if second := c.ClassifyIndex(tx, ty); first != second {
				t.Fatalf("ClassifyIndex(%d, %d) not stable: %v then %v", tx, ty, first, second)
			}
			if fresh := other.ClassifyIndex(tx, ty); first != fresh {
				t.Fatalf("ClassifyIndex(%d, %d) differs between instances: %v vs %v", tx, ty, first, fresh)
			}
		}
	}
}

func TestClassifyUsesTruncatedTileIndex(t *testing.T) {
	c := NewClassifier(64, DefaultBase)
	if c.Classify(130, 70) != c.ClassifyIndex(2, 1) {
		t.Errorf("Classify(130, 70) should match tile (2, 1)")
	}
	if c.Classify(-10, -10) != c.ClassifyIndex(0, 0) {
		t.Errorf("Classify(-10, -10) should truncate toward zero to tile (0, 0)")
	}
}

func TestClassifyPrimaryBands(t *testing.T) {
	c := NewClassifier(64, DefaultBase)
	tests := []struct {
		tx, ty int
		class  Class
	}{
		{0, 0, ClassPrimary},
		{2, 3, ClassPrimary},
		{-5, 0, ClassPrimary},
		{3, 3, ClassSecondary},
		{-4, 3, ClassSecondary},
		{12, 5, ClassSecondary},
	}
	for _, tt := range tests {
		if got := c.ClassifyIndex(tt.tx, tt.ty).Class(); got != tt.class {
			t.Errorf("ClassifyIndex(%d, %d) class = %v, expected %v", tt.tx, tt.ty, got, tt.class)
		}
	}
	for _, tile := range [][2]int{{8, 0}, {4, 4}, {-9, 0}, {0, 19}} {
		class := c.ClassifyIndex(tile[0], tile[1]).Class()
		if class != ClassBare && class != ClassHard {
			t.Errorf("ClassifyIndex(%d, %d) expected bare or hard, got %v", tile[0], tile[1], class)
		}
	}
}

func TestClassifyProportions(t *testing.T) {
	c := NewClassifier(64, DefaultBase)
	counts := make(map[Class]int)
	total := 0
	for tx := 0; tx < 200; tx++ {
		for ty := 0; ty < 200; ty++ {
			counts[c.ClassifyIndex(tx, ty).Class()]++
			total++
		}
	}

	check := func(class Class, want, tolerance float64) {
		got := float64(counts[class]) / float64(total)
		if math.Abs(got-want) > tolerance {
			t.Errorf("%v share = %.3f, expected %.2f±%.2f", class, got, want, tolerance)
		}
	}
	check(ClassPrimary, 0.60, 0.001)
	check(ClassSecondary, 0.20, 0.001)
	check(ClassBare, 0.15, 0.02)
	check(ClassHard, 0.05, 0.02)
}

func TestCategoryText(t *testing.T) {
	for _, c := range []Category{Grass, Dirt, Mud, DeadGrass, Stone} {
		text, err := c.MarshalText()
		if err != nil {
			t.Fatalf("MarshalText(%v): %v", c, err)
		}
		var decoded Category
		if err := decoded.UnmarshalText(text); err != nil {
			t.Fatalf("UnmarshalText(%s): %v", text, err)
		}
		if decoded != c {
			t.Errorf("expected %v, got %v", c, decoded)
		}
	}
	var c Category
	if err := c.UnmarshalText([]byte("lava")); err == nil {
		t.Errorf("expected error for unknown category")
	}
}
