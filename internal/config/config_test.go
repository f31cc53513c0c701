package config

import (
	"strings"
	"testing"
	"time"
)

func validConfig() *Config {
	return &Config{
		World: WorldConfig{
			ChunkSize:          480,
			GenerationDistance: 1440,
			CleanupDistance:    960,
			TileSize:           64,
			GroundLevel:        520,
			ScreenWidth:        1280,
			ScreenHeight:       720,
			VisibleMargin:      64,
			ClassifierBase:     10,
			FirstEntityID:      1000,
		},
		Spawn: SpawnConfig{
			ShelterSpacing: 300,
			HostileSpacing: 150,
			HostileMin:     1,
			HostileMax:     3,
			AnimalMin:      1,
			AnimalMax:      2,
		},
		Sim: SimConfig{TickRate: 60, PlayerSpeed: 120},
		Server: ServerConfig{
			Host:        "0.0.0.0",
			Port:        "8080",
			Environment: "development",
		},
		Inspector: InspectorConfig{RateLimit: 600},
		Logging:   LoggingConfig{Level: "info"},
	}
}

func TestLoad(t *testing.T) {
	config, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	// Test default values
	if config.World.ChunkSize != 480 {
		t.Errorf("Expected default chunk size 480, got %v", config.World.ChunkSize)
	}
	if config.World.GroundLevel != 520 {
		t.Errorf("Expected default ground level 520, got %v", config.World.GroundLevel)
	}
	if config.Spawn.ShelterInitialMarker != 800 || config.Spawn.HostileInitialMarker != 700 {
		t.Errorf("Unexpected initial markers: %v, %v", config.Spawn.ShelterInitialMarker, config.Spawn.HostileInitialMarker)
	}
	if config.Server.Port != "8080" {
		t.Errorf("Expected default port 8080, got %s", config.Server.Port)
	}
	if config.Telemetry.Enabled() {
		t.Error("Expected telemetry disabled by default")
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("WORLD_CHUNK_SIZE", "240")
	t.Setenv("WORLD_SEED", "99")
	t.Setenv("SPAWN_HOSTILE_MAX", "5")
	t.Setenv("SIM_TICK_RATE", "30")
	t.Setenv("SERVER_READ_TIMEOUT", "3s")
	t.Setenv("TELEMETRY_DRIVER", "sqlite")
	t.Setenv("TELEMETRY_DSN", "file:telemetry.db")
	t.Setenv("INSPECTOR_ALLOWED_ORIGINS", "http://a.test, http://b.test")
	t.Setenv("LOG_LEVEL", "debug")

	config, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if config.World.ChunkSize != 240 || config.World.Seed != 99 {
		t.Errorf("World overrides not applied: %+v", config.World)
	}
	if config.Spawn.HostileMax != 5 || config.Sim.TickRate != 30 {
		t.Errorf("Spawn/sim overrides not applied")
	}
	if config.Server.ReadTimeout != 3*time.Second {
		t.Errorf("Expected read timeout 3s, got %v", config.Server.ReadTimeout)
	}
	if got := config.Inspector.AllowedOrigins; len(got) != 2 || got[1] != "http://b.test" {
		t.Errorf("Unexpected origins: %v", got)
	}

	sc := config.StreamingConfig()
	if sc.ChunkSize != 240 || sc.Seed != 99 || !sc.Debug {
		t.Errorf("StreamingConfig did not carry settings: %+v", sc)
	}
	if sc.Rules.Hostile.MaxCount != 5 {
		t.Errorf("Expected hostile max 5, got %d", sc.Rules.Hostile.MaxCount)
	}
}

func TestLoadInvalidNumberFallsBack(t *testing.T) {
	t.Setenv("WORLD_TILE_SIZE", "huge")

	config, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if config.World.TileSize != 64 {
		t.Errorf("Expected fallback tile size 64, got %v", config.World.TileSize)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "valid config"},
		{
			name:    "zero chunk size",
			mutate:  func(c *Config) { c.World.ChunkSize = 0 },
			wantErr: "ChunkSize",
		},
		{
			name:    "cleanup shorter than chunk",
			mutate:  func(c *Config) { c.World.CleanupDistance = 100 },
			wantErr: "WORLD_CLEANUP_DISTANCE",
		},
		{
			name:    "generation shorter than chunk",
			mutate:  func(c *Config) { c.World.GenerationDistance = 100 },
			wantErr: "WORLD_GENERATION_DISTANCE",
		},
		{
			name:    "first entity id leaves no ids",
			mutate:  func(c *Config) { c.World.FirstEntityID = 4294967295 },
			wantErr: "FirstEntityID",
		},
		{
			name:   "last usable first entity id",
			mutate: func(c *Config) { c.World.FirstEntityID = 4294967294 },
		},
		{
			name:    "hostile max below min",
			mutate:  func(c *Config) { c.Spawn.HostileMin, c.Spawn.HostileMax = 3, 1 },
			wantErr: "HostileMax",
		},
		{
			name:    "unknown telemetry driver",
			mutate:  func(c *Config) { c.Telemetry = TelemetryConfig{Driver: "mysql", DSN: "x"} },
			wantErr: "Driver",
		},
		{
			name:    "telemetry driver without dsn",
			mutate:  func(c *Config) { c.Telemetry.Driver = "sqlite" },
			wantErr: "DSN",
		},
		{
			name:    "classifier base too small",
			mutate:  func(c *Config) { c.World.ClassifierBase = 4 },
			wantErr: "ClassifierBase",
		},
		{
			name:    "bad environment",
			mutate:  func(c *Config) { c.Server.Environment = "staging" },
			wantErr: "Environment",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := validConfig()
			if tt.mutate != nil {
				tt.mutate(config)
			}
			err := config.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate() unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Validate() expected error mentioning %s", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error %q does not mention %s", err, tt.wantErr)
			}
		})
	}
}

func TestStreamingConfigTimeSeed(t *testing.T) {
	config := validConfig()
	if sc := config.StreamingConfig(); sc.Seed == 0 {
		t.Error("Expected zero seed to be replaced")
	}
}

func TestSimConfig(t *testing.T) {
	cfg := validConfig()
	cfg.Sim.TickRate = 30
	cfg.World.ScreenHeight = 480

	sc := cfg.SimConfig()
	if sc.TickRate != 30 || sc.ScreenHeight != 480 || sc.ScreenWidth != 1280 {
		t.Errorf("unexpected sim config: %+v", sc)
	}
	if sc.PlayerStartY != cfg.Sim.PlayerStartY {
		t.Errorf("PlayerStartY = %v, want %v", sc.PlayerStartY, cfg.Sim.PlayerStartY)
	}
}

func TestStreamingConfigCarriesStartY(t *testing.T) {
	cfg := validConfig()
	cfg.Sim.PlayerStartY = 1234
	if got := cfg.StreamingConfig().PlayerStartY; got != 1234 {
		t.Errorf("PlayerStartY = %v, want 1234", got)
	}
}
