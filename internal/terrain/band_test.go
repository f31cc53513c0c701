package terrain

import (
	"testing"

	"github.com/nightwalk/server/internal/stripmap"
)

func TestGenerateBandFullyUnderground(t *testing.T) {
	g := NewBandGenerator(NewClassifier(64, DefaultBase), -10000)
	start, end := stripmap.ChunkBounds(0, stripmap.DefaultChunkSize)
	tiles := g.Generate(start, end, 1280)

	// 8 rows (0..448) x 22 columns.
	if len(tiles) != 8*22 {
		t.Fatalf("expected %d tiles, got %d", 8*22, len(tiles))
	}
	for _, tile := range tiles {
		if !stripmap.ContainsPosition(start, end, tile.Y) {
			t.Fatalf("tile y=%v outside chunk [%v, %v)", tile.Y, end, start)
		}
		if tile.Category != g.Classifier.Classify(tile.X, tile.Y) {
			t.Fatalf("tile at (%v, %v) has category %v, classifier says %v", tile.X, tile.Y, tile.Category, g.Classifier.Classify(tile.X, tile.Y))
		}
	}
}

func TestGenerateBandSkipsSky(t *testing.T) {
	g := NewBandGenerator(NewClassifier(64, DefaultBase), 520)
	start, end := stripmap.ChunkBounds(1, stripmap.DefaultChunkSize) // [480, 960)
	tiles := g.Generate(start, end, 640)
	if len(tiles) == 0 {
		t.Fatal("expected ground tiles below ground level")
	}
	for _, tile := range tiles {
		if tile.Y < 520 {
			t.Fatalf("tile at y=%v is above ground level 520", tile.Y)
		}
	}
	// Rows 576..896 = 6 rows, 12 columns.
	if len(tiles) != 6*12 {
		t.Errorf("expected %d tiles, got %d", 6*12, len(tiles))
	}

	skyStart, skyEnd := stripmap.ChunkBounds(-1, stripmap.DefaultChunkSize)
	if sky := g.Generate(skyStart, skyEnd, 640); len(sky) != 0 {
		t.Errorf("expected no tiles in the sky band, got %d", len(sky))
	}
}

func TestGenerateBandIsRepeatable(t *testing.T) {
	g := NewBandGenerator(NewClassifier(64, DefaultBase), -5000)
	start, end := stripmap.ChunkBounds(-3, stripmap.DefaultChunkSize)
	first := g.Generate(start, end, 800)
	second := g.Generate(start, end, 800)
	if len(first) != len(second) {
		t.Fatalf("tile counts differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("tile %d differs: %+v vs %+v", i, first[i], second[i])
		}
	}
}

func TestGenerateBandFollowsWidth(t *testing.T) {
	g := NewBandGenerator(NewClassifier(64, DefaultBase), -10000)
	start, end := stripmap.ChunkBounds(0, stripmap.DefaultChunkSize)

	tests := []struct {
		width float64
		cols  int
	}{
		{1280, 22},
		{640, 12},
		{100, 4},
	}
	for _, tt := range tests {
		tiles := g.Generate(start, end, tt.width)
		if len(tiles) != 8*tt.cols {
			t.Errorf("width %v: expected %d tiles, got %d", tt.width, 8*tt.cols, len(tiles))
		}
	}
}
