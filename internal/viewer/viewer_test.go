package viewer

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/nightwalk/server/internal/entity"
	"github.com/nightwalk/server/internal/sim"
	"github.com/nightwalk/server/internal/streaming"
	"github.com/nightwalk/server/internal/terrain"
)

func newScreen(t *testing.T, w, h int) tcell.SimulationScreen {
	t.Helper()
	screen := tcell.NewSimulationScreen("UTF-8")
	if err := screen.Init(); err != nil {
		t.Fatalf("failed to init screen: %v", err)
	}
	screen.SetSize(w, h)
	t.Cleanup(screen.Fini)
	return screen
}

// 64x11 cells over a 640x200 view: one cell is 10x20 world units.
func testSnapshot() *sim.Snapshot {
	return &sim.Snapshot{
		Tick:       7,
		PlayerY:    600,
		CameraY:    600,
		ViewWidth:  640,
		ViewHeight: 200,
		Chunks:     []streaming.ChunkSummary{{ID: 1, Start: 960, End: 480}},
		Tiles: []terrain.Tile{
			{X: 0, Y: 640, Category: terrain.Stone},
			{X: 64, Y: 640, Category: terrain.Grass},
		},
		Entities: []entity.Entity{
			{ID: 1000, Kind: entity.KindPlayer, Position: entity.Position{X: 320, Y: 600}},
			{ID: 1001, Kind: entity.KindHostile, Position: entity.Position{X: 5, Y: 505}},
			{ID: 1002, Kind: entity.KindAnimal, Position: entity.Position{X: 5, Y: 9000}},
		},
	}
}

func rowText(screen tcell.SimulationScreen, y, w int) string {
	var b strings.Builder
	for x := 0; x < w; x++ {
		r, _, _, _ := screen.GetContent(x, y)
		b.WriteRune(r)
	}
	return b.String()
}

func TestDrawHUD(t *testing.T) {
	screen := newScreen(t, 64, 11)
	New(screen, 64).Draw(testSnapshot())

	hud := rowText(screen, 0, 64)
	if !strings.Contains(hud, "tick 7") || !strings.Contains(hud, "y=600") {
		t.Errorf("HUD missing tick or position: %q", hud)
	}
	if !strings.Contains(hud, "chunks [1]") {
		t.Errorf("HUD missing chunk list: %q", hud)
	}
}

func TestDrawTilesAndEntities(t *testing.T) {
	screen := newScreen(t, 64, 11)
	New(screen, 64).Draw(testSnapshot())

	// view top is 500; tile y=640 starts at row 7 (+1 for the HUD)
	tests := []struct {
		name string
		x, y int
		want rune
	}{
		{"stone tile", 0, 8, '#'},
		{"stone tile right edge", 5, 8, '#'},
		{"grass tile", 6, 8, '"'},
		{"player", 32, 6, '@'},
		{"hostile", 0, 1, 'H'},
		{"sky above ground", 40, 3, ' '},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, _, _, _ := screen.GetContent(tt.x, tt.y)
			if r != tt.want {
				t.Errorf("cell (%d,%d) = %q, want %q", tt.x, tt.y, r, tt.want)
			}
		})
	}
}

func TestDrawSkipsOffscreenEntities(t *testing.T) {
	screen := newScreen(t, 64, 11)
	New(screen, 64).Draw(testSnapshot())

	for y := 1; y < 11; y++ {
		if strings.ContainsRune(rowText(screen, y, 64), 'a') {
			t.Errorf("off-screen animal drawn on row %d", y)
		}
	}
}

func TestDrawNilSnapshot(t *testing.T) {
	screen := newScreen(t, 20, 5)
	New(screen, 64).Draw(nil)
	if got := strings.TrimSpace(rowText(screen, 0, 20)); got != "" {
		t.Errorf("expected empty screen, got %q", got)
	}
}

func TestGlyphs(t *testing.T) {
	if g := TileGlyph(terrain.Mud); g.Rune != '~' {
		t.Errorf("mud glyph = %q", g.Rune)
	}
	if g := TileGlyph(terrain.Category(99)); g.Rune != ' ' {
		t.Errorf("unknown category glyph = %q, want blank", g.Rune)
	}
	if g := EntityGlyph(entity.KindShelter); g.Rune != 'S' {
		t.Errorf("shelter glyph = %q", g.Rune)
	}
}

type fixedSource struct{ snap *sim.Snapshot }

func (f fixedSource) Snapshot() *sim.Snapshot { return f.snap }

func TestRunQuitsOnKey(t *testing.T) {
	screen := newScreen(t, 64, 11)
	v := New(screen, 64)

	done := make(chan error, 1)
	go func() { done <- v.Run(context.Background(), fixedSource{testSnapshot()}, 100) }()

	time.Sleep(50 * time.Millisecond)
	screen.InjectKey(tcell.KeyRune, 'q', tcell.ModNone)

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run returned error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop on q")
	}
}

func TestRunStopsOnContext(t *testing.T) {
	screen := newScreen(t, 64, 11)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	if err := New(screen, 64).Run(ctx, fixedSource{testSnapshot()}, 30); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
}

func TestRunRejectsBadFPS(t *testing.T) {
	screen := newScreen(t, 10, 5)
	if err := New(screen, 64).Run(context.Background(), fixedSource{}, 0); err == nil {
		t.Error("expected error for fps 0")
	}
}
