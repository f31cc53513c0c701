package viewer

import (
	"context"
	"fmt"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/nightwalk/server/internal/entity"
	"github.com/nightwalk/server/internal/sim"
	"github.com/nightwalk/server/internal/terrain"
)

// Glyph is how one thing is drawn in a terminal cell
type Glyph struct {
	Rune  rune
	Style tcell.Style
}

var tileGlyphs = map[terrain.Category]Glyph{
	terrain.Grass:     {'"', tcell.StyleDefault.Foreground(tcell.ColorGreen)},
	terrain.Dirt:      {'.', tcell.StyleDefault.Foreground(tcell.ColorSandyBrown)},
	terrain.Mud:       {'~', tcell.StyleDefault.Foreground(tcell.ColorOlive)},
	terrain.DeadGrass: {',', tcell.StyleDefault.Foreground(tcell.ColorDarkKhaki)},
	terrain.Stone:     {'#', tcell.StyleDefault.Foreground(tcell.ColorGray)},
}

var entityGlyphs = map[entity.Kind]Glyph{
	entity.KindPlayer:  {'@', tcell.StyleDefault.Foreground(tcell.ColorRed).Bold(true)},
	entity.KindShelter: {'S', tcell.StyleDefault.Foreground(tcell.ColorBlue).Bold(true)},
	entity.KindHostile: {'H', tcell.StyleDefault.Foreground(tcell.ColorOrangeRed)},
	entity.KindAnimal:  {'a', tcell.StyleDefault.Foreground(tcell.ColorYellow)},
}

var (
	skyGlyph = Glyph{' ', tcell.StyleDefault}
	hudStyle = tcell.StyleDefault.Foreground(tcell.ColorWhite).Reverse(true)
)

// TileGlyph returns the glyph of a tile category
func TileGlyph(c terrain.Category) Glyph {
	if g, ok := tileGlyphs[c]; ok {
		return g
	}
	return skyGlyph
}

// EntityGlyph returns the glyph of an entity kind
func EntityGlyph(k entity.Kind) Glyph {
	if g, ok := entityGlyphs[k]; ok {
		return g
	}
	return Glyph{'?', tcell.StyleDefault}
}

// Viewer renders world snapshots to a terminal. Row 0 is the HUD; the rest
// of the screen maps the snapshot's view rectangle, lower y at the top.
type Viewer struct {
	screen   tcell.Screen
	tileSize float64
}

// New creates a viewer for an initialised screen.
func New(screen tcell.Screen, tileSize float64) *Viewer {
	return &Viewer{screen: screen, tileSize: tileSize}
}

// Draw paints one snapshot and shows it.
func (v *Viewer) Draw(snapshot *sim.Snapshot) {
	v.screen.Clear()
	width, height := v.screen.Size()
	if width <= 0 || height <= 1 || snapshot == nil {
		v.screen.Show()
		return
	}

	proj := newProjection(snapshot, width, height-1)
	for _, tile := range snapshot.Tiles {
		glyph := TileGlyph(tile.Category)
		x0, y0 := proj.cell(tile.X, tile.Y)
		x1, y1 := proj.cell(tile.X+v.tileSize, tile.Y+v.tileSize)
		for cy := max(y0, 0); cy < min(y1, proj.rows); cy++ {
			for cx := max(x0, 0); cx < min(x1, proj.cols); cx++ {
				v.screen.SetContent(cx, cy+1, glyph.Rune, nil, glyph.Style)
			}
		}
	}

	for _, e := range snapshot.Entities {
		cx, cy := proj.cell(e.Position.X, e.Position.Y)
		if cx < 0 || cx >= proj.cols || cy < 0 || cy >= proj.rows {
			continue
		}
		glyph := EntityGlyph(e.Kind)
		v.screen.SetContent(cx, cy+1, glyph.Rune, nil, glyph.Style)
	}

	v.drawHUD(snapshot, width)
	v.screen.Show()
}

func (v *Viewer) drawHUD(snapshot *sim.Snapshot, width int) {
	ids := make([]int, len(snapshot.Chunks))
	for i, c := range snapshot.Chunks {
		ids[i] = c.ID
	}
	hud := fmt.Sprintf(" tick %d  y=%.0f  chunks %v  entities %d ", snapshot.Tick, snapshot.PlayerY, ids, len(snapshot.Entities))

	col := 0
	for _, r := range hud {
		if col >= width {
			break
		}
		v.screen.SetContent(col, 0, r, nil, hudStyle)
		col++
	}
	for ; col < width; col++ {
		v.screen.SetContent(col, 0, ' ', nil, hudStyle)
	}
}

// projection maps world coordinates onto the cell grid below the HUD.
type projection struct {
	top        float64
	cellWidth  float64
	cellHeight float64
	cols, rows int
}

func newProjection(s *sim.Snapshot, cols, rows int) projection {
	return projection{
		top:        s.CameraY - s.ViewHeight/2,
		cellWidth:  s.ViewWidth / float64(cols),
		cellHeight: s.ViewHeight / float64(rows),
		cols:       cols,
		rows:       rows,
	}
}

func (p projection) cell(x, y float64) (int, int) {
	return int(x / p.cellWidth), int((y - p.top) / p.cellHeight)
}

// Run redraws the latest snapshot at the given frame rate until ctx is
// cancelled or the user presses Escape, Ctrl-C or q.
func (v *Viewer) Run(ctx context.Context, source interface{ Snapshot() *sim.Snapshot }, fps int) error {
	if fps <= 0 {
		return fmt.Errorf("fps must be positive, got %d", fps)
	}
	ticker := time.NewTicker(time.Second / time.Duration(fps))
	defer ticker.Stop()

	events := make(chan tcell.Event, 16)
	done := make(chan struct{})
	defer close(done)
	go func() {
		for {
			ev := v.screen.PollEvent()
			if ev == nil {
				close(events)
				return
			}
			select {
			case events <- ev:
			case <-done:
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-events:
			if !ok || quit(ev) {
				return nil
			}
			if _, resized := ev.(*tcell.EventResize); resized {
				v.screen.Sync()
			}
		case <-ticker.C:
			v.Draw(source.Snapshot())
		}
	}
}

func quit(ev tcell.Event) bool {
	key, ok := ev.(*tcell.EventKey)
	if !ok {
		return false
	}
	return key.Key() == tcell.KeyEscape || key.Key() == tcell.KeyCtrlC ||
		(key.Key() == tcell.KeyRune && key.Rune() == 'q')
}
