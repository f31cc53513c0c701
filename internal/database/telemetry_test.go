package database

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nightwalk/server/internal/streaming"
)

func newTestStore(t *testing.T) *TelemetryStore {
	t.Helper()
	s, err := Open(DriverSQLite, filepath.Join(t.TempDir(), "telemetry", "test.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func testInfo() SessionInfo {
	return SessionInfo{Seed: 42, ChunkSize: 480, GenerationDistance: 1440, CleanupDistance: 960}
}

func TestStartSession(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	session, err := s.StartSession(ctx, testInfo())
	if err != nil {
		t.Fatalf("start session: %v", err)
	}
	if len(session.ID) != 26 {
		t.Errorf("expected ULID session id, got %q", session.ID)
	}

	got, err := s.GetSession(ctx, session.ID)
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	if got.Seed != 42 || got.ChunkSize != 480 {
		t.Errorf("unexpected session: %+v", got)
	}
	if got.StartedAt.IsZero() {
		t.Error("expected started_at to round-trip")
	}

	other, err := s.StartSession(ctx, testInfo())
	if err != nil {
		t.Fatalf("start second session: %v", err)
	}
	if other.ID == session.ID {
		t.Error("expected distinct session ids")
	}
}

func TestRecordDeltaAndSummary(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	session, err := s.StartSession(ctx, testInfo())
	if err != nil {
		t.Fatalf("start session: %v", err)
	}

	deltas := []*streaming.ChunkDelta{
		{PlayerY: 600, AddedChunks: []int{1, 0, -1, -2}, CurrentChunks: []int{-2, -1, 0, 1}, Spawned: 5},
		{PlayerY: 300},
		{PlayerY: -100, AddedChunks: []int{-3, -4}, RemovedChunks: []int{1}, CurrentChunks: []int{-4, -3, -2, -1, 0}, Spawned: 3, Despawned: 2, Skipped: 1},
	}
	for i, d := range deltas {
		if err := s.RecordDelta(ctx, session.ID, int64(i+1), d); err != nil {
			t.Fatalf("record delta %d: %v", i, err)
		}
	}
	if err := s.RecordDelta(ctx, session.ID, 9, nil); err != nil {
		t.Fatalf("record nil delta: %v", err)
	}

	summary, err := s.SessionSummary(ctx, session.ID)
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if summary.Deltas != 2 {
		t.Errorf("expected 2 stored deltas (empty one skipped), got %d", summary.Deltas)
	}
	if summary.ChunksAdded != 6 || summary.ChunksRemoved != 1 {
		t.Errorf("expected 6 added 1 removed, got %d %d", summary.ChunksAdded, summary.ChunksRemoved)
	}
	if summary.Spawned != 8 || summary.Despawned != 2 || summary.Skipped != 1 {
		t.Errorf("unexpected entity totals: %+v", summary)
	}
	if summary.FurthestY == nil || *summary.FurthestY != -100 {
		t.Errorf("expected furthest y -100, got %+v", summary)
	}
	if summary.LastTick != 3 {
		t.Errorf("expected last tick 3, got %d", summary.LastTick)
	}

	history, err := s.ChunkHistory(ctx, session.ID, 1)
	if err != nil {
		t.Fatalf("chunk history: %v", err)
	}
	if len(history) != 2 || history[0].Kind != "added" || history[1].Kind != "removed" {
		t.Fatalf("expected added then removed for chunk 1, got %+v", history)
	}
	if history[1].Tick != 3 || history[1].PlayerY != -100 {
		t.Errorf("unexpected removal event: %+v", history[1])
	}
}

func TestSessionSummaryEmpty(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	session, _ := s.StartSession(ctx, testInfo())

	summary, err := s.SessionSummary(ctx, session.ID)
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if summary.Deltas != 0 || summary.ChunksAdded != 0 {
		t.Errorf("expected empty summary, got %+v", summary)
	}
	// No delta means no progress to report, not progress to y=0.
	if summary.FurthestY != nil {
		t.Errorf("expected no furthest y, got %v", *summary.FurthestY)
	}

	encoded, err := json.Marshal(summary)
	if err != nil {
		t.Fatalf("marshal summary: %v", err)
	}
	if !strings.Contains(string(encoded), `"furthest_y":null`) {
		t.Errorf("expected furthest_y null, got %s", encoded)
	}
}

func TestSessionNotFound(t *testing.T) {
	s := newTestStore(t)
	_, err := s.SessionSummary(context.Background(), "01HZZZZZZZZZZZZZZZZZZZZZZZ")
	if !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestOpenUnsupportedDriver(t *testing.T) {
	if _, err := Open("mysql", "x"); err == nil {
		t.Fatal("expected error for unsupported driver")
	}
}

func TestRebind(t *testing.T) {
	pg := &TelemetryStore{driver: DriverPostgres}
	if got := pg.rebind("a = ? AND b = ?"); got != "a = $1 AND b = $2" {
		t.Errorf("postgres rebind: %q", got)
	}
	lite := &TelemetryStore{driver: DriverSQLite}
	if got := lite.rebind("a = ?"); got != "a = ?" {
		t.Errorf("sqlite rebind: %q", got)
	}
}

func TestPostgresTelemetry(t *testing.T) {
	dsn := os.Getenv("TEST_DB_DSN")
	if dsn == "" {
		t.Skip("TEST_DB_DSN not set, skipping postgres telemetry test")
	}
	ctx := context.Background()
	s, err := Open(DriverPostgres, dsn)
	if err != nil {
		t.Fatalf("open postgres: %v", err)
	}
	defer s.Close()

	session, err := s.StartSession(ctx, testInfo())
	if err != nil {
		t.Fatalf("start session: %v", err)
	}
	delta := &streaming.ChunkDelta{PlayerY: 600, AddedChunks: []int{1, 0}, CurrentChunks: []int{0, 1}, Spawned: 2}
	if err := s.RecordDelta(ctx, session.ID, 1, delta); err != nil {
		t.Fatalf("record delta: %v", err)
	}
	summary, err := s.SessionSummary(ctx, session.ID)
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if summary.ChunksAdded != 2 {
		t.Errorf("expected 2 chunks added, got %d", summary.ChunksAdded)
	}
}

func TestSessionRecorder(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	session, _ := s.StartSession(ctx, testInfo())

	rec := s.Recorder(session.ID)
	delta := &streaming.ChunkDelta{PlayerY: 600, AddedChunks: []int{1}, CurrentChunks: []int{1}}
	if err := rec.RecordDelta(ctx, 7, delta); err != nil {
		t.Fatalf("record: %v", err)
	}

	summary, err := s.SessionSummary(ctx, session.ID)
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if summary.Deltas != 1 || summary.LastTick != 7 {
		t.Errorf("unexpected summary: %+v", summary)
	}
}
