package spawn

import (
	"errors"
	"log"
	"math/rand"

	"github.com/nightwalk/server/internal/entity"
)

// IDSource hands out fresh, never-reused entity IDs. It returns
// entity.ErrIDsExhausted rather than wrapping around.
type IDSource interface {
	NextID() (entity.ID, error)
}

// Band is the vertical extent of the chunk being populated, [End, Start).
type Band struct {
	Start float64
	End   float64
}

// Center returns the band midpoint
func (b Band) Center() float64 {
	return b.Start - (b.Start-b.End)/2
}

// Context carries environment queries the populator needs but does not own.
type Context struct {
	ScreenWidth float64
}

// Result reports what one Populate call did.
type Result struct {
	Owned   []entity.ID
	Spawned map[Category]int
	Skipped int
}

// Populator runs the per-chunk spawn decisions. It owns one cadence tracker
// per throttled category; a rule with zero spacing is never throttled.
type Populator struct {
	rules       Rules
	groundLevel float64
	cadences    map[Category]*Cadence
	rng         *rand.Rand
	debug       bool
}

// NewPopulator creates a populator. rng must not be shared with other goroutines.
func NewPopulator(rules Rules, groundLevel float64, rng *rand.Rand, debug bool) *Populator {
	cadences := make(map[Category]*Cadence)
	for _, c := range Categories {
		if rule := rules.For(c); rule.Throttled() {
			cadences[c] = NewCadence(rule.Spacing, rule.InitialMarker)
		}
	}
	return &Populator{
		rules:       rules,
		groundLevel: groundLevel,
		cadences:    cadences,
		rng:         rng,
		debug:       debug,
	}
}

// Cadence returns the tracker of a throttled category, or nil.
func (p *Populator) Cadence(c Category) *Cadence {
	return p.cadences[c]
}

// Populate spawns the entities of one chunk into arena. Every spawn draws a
// fresh ID first; the ID is recorded as owned and the entity inserted in the
// same step. A rejected spawn is skipped and never retried.
//
// Shelters sit on the chunk center and move their tracker only when one is
// placed; other throttled categories mark the tracker whenever they were due.
func (p *Populator) Populate(band Band, ctx Context, arena *entity.Arena, ids IDSource) Result {
	result := Result{Spawned: make(map[Category]int)}
	ground := Ground{Level: p.groundLevel, Width: ctx.ScreenWidth}
	center := band.Center()

	for _, c := range Categories {
		rule := p.rules.For(c)
		cadence := p.cadences[c]
		if cadence != nil && !cadence.Due(center) {
			continue
		}

		placed := 0
		count := randCount(p.rng, rule.MinCount, rule.MaxCount)
		for i := 0; i < count; i++ {
			x := randRange(p.rng, rule.Margin, ctx.ScreenWidth-rule.Margin)
			y := center
			if rule.Category != Shelter {
				y = randRange(p.rng, band.End, band.Start)
			}
			if p.spawnOne(rule.Category, x, y, ground, arena, ids, &result) {
				placed++
			}
		}

		if cadence != nil && (placed > 0 || rule.Category != Shelter) {
			cadence.Mark(center)
		}
	}

	return result
}

func (p *Populator) spawnOne(category Category, x, y float64, ground Ground, arena *entity.Arena, ids IDSource, result *Result) bool {
	id, err := ids.NextID()
	var e entity.Entity
	if err == nil {
		e, err = Create(id, category, x, y, ground, p.rng)
	}
	if err == nil {
		err = arena.Insert(e)
	}
	if err != nil {
		result.Skipped++
		if p.debug || !errors.Is(err, ErrNoGround) {
			log.Printf("[Spawn] skipped %s id=%d: %v", category, id, err)
		}
		return false
	}

	result.Owned = append(result.Owned, id)
	result.Spawned[category]++
	return true
}
