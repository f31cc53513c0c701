package testutil

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/nightwalk/server/internal/database"
)

// TempTelemetryStore opens a sqlite telemetry store in a per-test directory.
// It is closed when the test ends.
func TempTelemetryStore(t *testing.T) *database.TelemetryStore {
	t.Helper()
	store, err := database.Open(database.DriverSQLite, filepath.Join(t.TempDir(), "telemetry.db"))
	if err != nil {
		t.Fatalf("failed to open telemetry store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

// TempSession opens a store and starts a session in it.
func TempSession(t *testing.T) (*database.TelemetryStore, *database.Session) {
	t.Helper()
	store := TempTelemetryStore(t)
	session, err := store.StartSession(context.Background(), database.SessionInfo{
		Seed:               FixedSeed,
		ChunkSize:          480,
		GenerationDistance: 1440,
		CleanupDistance:    960,
	})
	if err != nil {
		t.Fatalf("failed to start session: %v", err)
	}
	return store, session
}
