package streaming

import (
	"github.com/nightwalk/server/internal/entity"
	"github.com/nightwalk/server/internal/spawn"
	"github.com/nightwalk/server/internal/stripmap"
	"github.com/nightwalk/server/internal/terrain"
)

// Config holds every tunable of the streaming manager.
type Config struct {
	ChunkSize          float64
	GenerationDistance float64
	CleanupDistance    float64
	TileSize           float64
	ClassifierBase     int
	// GroundLevel separates the sky band (y < GroundLevel) from terrain.
	GroundLevel float64
	// ScreenWidth is used when an update supplies no spawn context width.
	ScreenWidth float64
	// PlayerStartY is the last observed position before the first Update.
	PlayerStartY  float64
	VisibleMargin float64
	FirstEntityID entity.ID
	Rules         spawn.Rules
	Seed          int64
	Debug         bool
}

// DefaultConfig returns the tuned defaults for a 1280x720 view.
func DefaultConfig() Config {
	return Config{
		ChunkSize:          stripmap.DefaultChunkSize,
		GenerationDistance: stripmap.DefaultGenerationDistance,
		CleanupDistance:    stripmap.DefaultCleanupDistance,
		TileSize:           stripmap.DefaultTileSize,
		ClassifierBase:     terrain.DefaultBase,
		GroundLevel:        720 - 200,
		ScreenWidth:        1280,
		PlayerStartY:       600,
		VisibleMargin:      stripmap.DefaultTileSize,
		FirstEntityID:      1000,
		Rules:              spawn.DefaultRules(),
		Seed:               1,
	}
}
