package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	"github.com/nightwalk/server/internal/entity"
	"github.com/nightwalk/server/internal/sim"
	"github.com/nightwalk/server/internal/spawn"
	"github.com/nightwalk/server/internal/streaming"
)

// Config holds all configuration for the nightwalk server
type Config struct {
	World     WorldConfig
	Spawn     SpawnConfig
	Sim       SimConfig
	Server    ServerConfig
	Telemetry TelemetryConfig
	Inspector InspectorConfig
	Logging   LoggingConfig
}

// WorldConfig holds chunk streaming and terrain configuration
type WorldConfig struct {
	ChunkSize          float64 `validate:"gt=0"`
	GenerationDistance float64 `validate:"gt=0"`
	CleanupDistance    float64 `validate:"gt=0"`
	TileSize           float64 `validate:"gt=0"`
	GroundLevel        float64
	ScreenWidth        float64 `validate:"gt=0"`
	ScreenHeight       float64 `validate:"gt=0"`
	VisibleMargin      float64 `validate:"gte=0"`
	ClassifierBase     int     `validate:"gte=10"`
	FirstEntityID      int64   `validate:"gte=1,lte=4294967294"`
	// Seed of zero means time-based.
	Seed int64
}

// SpawnConfig holds per-category spawn tuning
type SpawnConfig struct {
	ShelterSpacing       float64 `validate:"gt=0"`
	ShelterMargin        float64 `validate:"gte=0"`
	ShelterInitialMarker float64
	HostileSpacing       float64 `validate:"gt=0"`
	HostileMin           int     `validate:"gte=0"`
	HostileMax           int     `validate:"gtefield=HostileMin"`
	HostileMargin        float64 `validate:"gte=0"`
	HostileInitialMarker float64
	AnimalMin            int     `validate:"gte=0"`
	AnimalMax            int     `validate:"gtefield=AnimalMin"`
	AnimalMargin         float64 `validate:"gte=0"`
}

// SimConfig holds game loop configuration
type SimConfig struct {
	TickRate     int     `validate:"gt=0,lte=1000"`
	PlayerSpeed  float64 `validate:"gte=0"`
	PlayerStartY float64
}

// ServerConfig holds server-specific configuration
type ServerConfig struct {
	Host         string `validate:"required"`
	Port         string `validate:"required,numeric"`
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
	Environment  string `validate:"oneof=development production test"`
}

// TelemetryConfig selects the chunk lifecycle store. An empty driver
// disables telemetry.
type TelemetryConfig struct {
	Driver string `validate:"omitempty,oneof=sqlite postgres"`
	DSN    string `validate:"required_with=Driver"`
}

// InspectorConfig holds settings of the read-only inspector endpoints
type InspectorConfig struct {
	RateLimit      int64 `validate:"gt=0"`
	AllowedOrigins []string
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `validate:"oneof=debug info"`
}

// Load reads configuration from environment variables and .env file
// It returns a Config struct with all settings populated
// The .env file is loaded from the current working directory
func Load() (*Config, error) {
	// Environment variables can still be set directly
	if err := godotenv.Load(); err != nil {
		log.Printf("[Config] .env file not found (this is OK if using environment variables): %v", err)
	}

	config := &Config{
		World: WorldConfig{
			ChunkSize:          getFloatEnv("WORLD_CHUNK_SIZE", 480),
			GenerationDistance: getFloatEnv("WORLD_GENERATION_DISTANCE", 1440),
			CleanupDistance:    getFloatEnv("WORLD_CLEANUP_DISTANCE", 960),
			TileSize:           getFloatEnv("WORLD_TILE_SIZE", 64),
			GroundLevel:        getFloatEnv("WORLD_GROUND_LEVEL", 720-200),
			ScreenWidth:        getFloatEnv("WORLD_SCREEN_WIDTH", 1280),
			ScreenHeight:       getFloatEnv("WORLD_SCREEN_HEIGHT", 720),
			VisibleMargin:      getFloatEnv("WORLD_VISIBLE_MARGIN", 64),
			ClassifierBase:     getIntEnv("WORLD_CLASSIFIER_BASE", 10),
			FirstEntityID:      getInt64Env("WORLD_FIRST_ENTITY_ID", 1000),
			Seed:               getInt64Env("WORLD_SEED", 0),
		},
		Spawn: SpawnConfig{
			ShelterSpacing:       getFloatEnv("SPAWN_SHELTER_SPACING", 300),
			ShelterMargin:        getFloatEnv("SPAWN_SHELTER_MARGIN", 100),
			ShelterInitialMarker: getFloatEnv("SPAWN_SHELTER_INITIAL_MARKER", 800),
			HostileSpacing:       getFloatEnv("SPAWN_HOSTILE_SPACING", 150),
			HostileMin:           getIntEnv("SPAWN_HOSTILE_MIN", 1),
			HostileMax:           getIntEnv("SPAWN_HOSTILE_MAX", 3),
			HostileMargin:        getFloatEnv("SPAWN_HOSTILE_MARGIN", 50),
			HostileInitialMarker: getFloatEnv("SPAWN_HOSTILE_INITIAL_MARKER", 700),
			AnimalMin:            getIntEnv("SPAWN_ANIMAL_MIN", 1),
			AnimalMax:            getIntEnv("SPAWN_ANIMAL_MAX", 2),
			AnimalMargin:         getFloatEnv("SPAWN_ANIMAL_MARGIN", 50),
		},
		Sim: SimConfig{
			TickRate:     getIntEnv("SIM_TICK_RATE", 60),
			PlayerSpeed:  getFloatEnv("SIM_PLAYER_SPEED", 120),
			PlayerStartY: getFloatEnv("SIM_PLAYER_START_Y", 600),
		},
		Server: ServerConfig{
			Host:         getEnv("SERVER_HOST", "0.0.0.0"),
			Port:         getEnv("SERVER_PORT", "8080"),
			ReadTimeout:  getDurationEnv("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout: getDurationEnv("SERVER_WRITE_TIMEOUT", 15*time.Second),
			IdleTimeout:  getDurationEnv("SERVER_IDLE_TIMEOUT", 60*time.Second),
			Environment:  getEnv("ENVIRONMENT", "development"),
		},
		Telemetry: TelemetryConfig{
			Driver: getEnv("TELEMETRY_DRIVER", ""),
			DSN:    getEnv("TELEMETRY_DSN", ""),
		},
		Inspector: InspectorConfig{
			RateLimit:      getInt64Env("INSPECTOR_RATE_LIMIT", 600),
			AllowedOrigins: getListEnv("INSPECTOR_ALLOWED_ORIGINS", []string{"http://localhost:3000", "http://localhost:5173"}),
		},
		Logging: LoggingConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
	}

	// Validate required configuration
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

var validate = validator.New()

// Validate checks struct tags and the cross-field rules tags cannot express.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var errs validator.ValidationErrors
		if errors.As(err, &errs) {
			return errors.New(validationMessage(errs))
		}
		return err
	}
	if c.World.CleanupDistance < c.World.ChunkSize {
		return fmt.Errorf("WORLD_CLEANUP_DISTANCE (%v) must be at least WORLD_CHUNK_SIZE (%v)", c.World.CleanupDistance, c.World.ChunkSize)
	}
	if c.World.GenerationDistance < c.World.ChunkSize {
		return fmt.Errorf("WORLD_GENERATION_DISTANCE (%v) must be at least WORLD_CHUNK_SIZE (%v)", c.World.GenerationDistance, c.World.ChunkSize)
	}
	return nil
}

// validationMessage flattens validator errors into one "Field: message" per failure.
func validationMessage(errs validator.ValidationErrors) string {
	messages := make([]string, 0, len(errs))
	for _, e := range errs {
		var msg string
		switch e.Tag() {
		case "required", "required_with":
			msg = "is required"
		case "gt":
			msg = fmt.Sprintf("must be greater than %s", e.Param())
		case "gte":
			msg = fmt.Sprintf("must be at least %s", e.Param())
		case "lte":
			msg = fmt.Sprintf("must be at most %s", e.Param())
		case "gtefield":
			msg = fmt.Sprintf("must be at least %s", e.Param())
		case "oneof":
			msg = fmt.Sprintf("must be one of [%s]", e.Param())
		case "numeric":
			msg = "must be numeric"
		default:
			msg = fmt.Sprintf("failed %s validation", e.Tag())
		}
		messages = append(messages, fmt.Sprintf("%s: %s", e.Namespace(), msg))
	}
	return strings.Join(messages, "; ")
}

// StreamingConfig converts the world and spawn sections into the streaming
// manager configuration. A zero seed is replaced with the current time.
func (c *Config) StreamingConfig() streaming.Config {
	seed := c.World.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rules := spawn.DefaultRules()
	rules.Shelter.Spacing = c.Spawn.ShelterSpacing
	rules.Shelter.Margin = c.Spawn.ShelterMargin
	rules.Shelter.InitialMarker = c.Spawn.ShelterInitialMarker
	rules.Hostile.Spacing = c.Spawn.HostileSpacing
	rules.Hostile.MinCount = c.Spawn.HostileMin
	rules.Hostile.MaxCount = c.Spawn.HostileMax
	rules.Hostile.Margin = c.Spawn.HostileMargin
	rules.Hostile.InitialMarker = c.Spawn.HostileInitialMarker
	rules.Animal.MinCount = c.Spawn.AnimalMin
	rules.Animal.MaxCount = c.Spawn.AnimalMax
	rules.Animal.Margin = c.Spawn.AnimalMargin

	return streaming.Config{
		ChunkSize:          c.World.ChunkSize,
		GenerationDistance: c.World.GenerationDistance,
		CleanupDistance:    c.World.CleanupDistance,
		TileSize:           c.World.TileSize,
		ClassifierBase:     c.World.ClassifierBase,
		GroundLevel:        c.World.GroundLevel,
		ScreenWidth:        c.World.ScreenWidth,
		PlayerStartY:       c.Sim.PlayerStartY,
		VisibleMargin:      c.World.VisibleMargin,
		FirstEntityID:      entity.ID(c.World.FirstEntityID),
		Rules:              rules,
		Seed:               seed,
		Debug:              c.Logging.IsDebug(),
	}
}

// SimConfig converts the sim section into the loop configuration
func (c *Config) SimConfig() sim.Config {
	return sim.Config{
		TickRate:     c.Sim.TickRate,
		PlayerSpeed:  c.Sim.PlayerSpeed,
		PlayerStartY: c.Sim.PlayerStartY,
		ScreenWidth:  c.World.ScreenWidth,
		ScreenHeight: c.World.ScreenHeight,
	}
}

// IsDebug reports whether per-chunk logging is enabled
func (c *LoggingConfig) IsDebug() bool {
	return c.Level == "debug"
}

// Addr returns the listen address
func (c *ServerConfig) Addr() string {
	return c.Host + ":" + c.Port
}

// IsDevelopment returns true if running in development mode
func (c *ServerConfig) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction returns true if running in production mode
func (c *ServerConfig) IsProduction() bool {
	return c.Environment == "production"
}

// Enabled reports whether a telemetry store is configured
func (c *TelemetryConfig) Enabled() bool {
	return c.Driver != ""
}

// Helper functions for environment variable access

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getIntEnv(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	intValue, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("[Config] invalid integer value for %s: %s, using default: %d", key, value, defaultValue)
		return defaultValue
	}
	return intValue
}

func getInt64Env(key string, defaultValue int64) int64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	intValue, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		log.Printf("[Config] invalid integer value for %s: %s, using default: %d", key, value, defaultValue)
		return defaultValue
	}
	return intValue
}

func getFloatEnv(key string, defaultValue float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	floatValue, err := strconv.ParseFloat(value, 64)
	if err != nil {
		log.Printf("[Config] invalid number value for %s: %s, using default: %v", key, value, defaultValue)
		return defaultValue
	}
	return floatValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	duration, err := time.ParseDuration(value)
	if err != nil {
		log.Printf("[Config] invalid duration value for %s: %s, using default: %v", key, value, defaultValue)
		return defaultValue
	}
	return duration
}

func getListEnv(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}
