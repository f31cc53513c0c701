package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	_ "github.com/lib/pq"
	"github.com/oklog/ulid/v2"
	_ "modernc.org/sqlite"

	"github.com/nightwalk/server/internal/streaming"
)

// Supported telemetry drivers
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// ErrSessionNotFound is returned for an unknown session ID.
var ErrSessionNotFound = errors.New("telemetry session not found")

// TelemetryStore records chunk lifecycle events per simulation session.
// It stores what happened to chunks, never their contents.
type TelemetryStore struct {
	db     *sql.DB
	driver string

	mu      sync.Mutex
	entropy *rand.Rand
}

// SessionInfo describes the world a session ran with.
type SessionInfo struct {
	Seed               int64
	ChunkSize          float64
	GenerationDistance float64
	CleanupDistance    float64
}

// Session is one recorded simulation run
type Session struct {
	ID        string    `json:"id"`
	StartedAt time.Time `json:"started_at"`
	SessionInfo
}

// ChunkEvent is one chunk entering or leaving the live set.
type ChunkEvent struct {
	Tick    int64   `json:"tick"`
	PlayerY float64 `json:"player_y"`
	ChunkID int     `json:"chunk_id"`
	Kind    string  `json:"kind"` // "added" or "removed"
}

// Summary aggregates the deltas of a session.
type Summary struct {
	Session       Session `json:"session"`
	Deltas        int64   `json:"deltas"`
	ChunksAdded   int64   `json:"chunks_added"`
	ChunksRemoved int64   `json:"chunks_removed"`
	Spawned       int64   `json:"spawned"`
	Despawned     int64   `json:"despawned"`
	Skipped       int64   `json:"skipped"`
	// FurthestY is the lowest player coordinate recorded, i.e. the deepest progress.
	// It is nil until the session has stored a delta.
	FurthestY *float64 `json:"furthest_y"`
	LastTick  int64   `json:"last_tick"`
}

// Open connects to the telemetry database and creates the schema.
func Open(driver, dsn string) (*TelemetryStore, error) {
	var db *sql.DB
	var err error
	switch driver {
	case DriverSQLite:
		if dir := sqliteDir(dsn); dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create db dir: %w", err)
			}
		}
		db, err = sql.Open("sqlite", sqliteDSN(dsn))
	case DriverPostgres:
		db, err = sql.Open("postgres", dsn)
	default:
		return nil, fmt.Errorf("unsupported telemetry driver %q", driver)
	}
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if driver == DriverSQLite {
		// One writer at a time; WAL lets readers proceed.
		db.SetMaxOpenConns(1)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}

	s := &TelemetryStore{
		db:      db,
		driver:  driver,
		entropy: rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func sqliteDir(dsn string) string {
	if dsn == ":memory:" || strings.HasPrefix(dsn, "file:") {
		return ""
	}
	dir := filepath.Dir(dsn)
	if dir == "." {
		return ""
	}
	return dir
}

func sqliteDSN(dsn string) string {
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)"
}

func (s *TelemetryStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS telemetry_sessions (
		id                  TEXT PRIMARY KEY,
		started_at          TEXT NOT NULL,
		seed                BIGINT NOT NULL,
		chunk_size          DOUBLE PRECISION NOT NULL,
		generation_distance DOUBLE PRECISION NOT NULL,
		cleanup_distance    DOUBLE PRECISION NOT NULL
	);
	CREATE TABLE IF NOT EXISTS telemetry_deltas (
		session_id  TEXT NOT NULL REFERENCES telemetry_sessions(id),
		tick        BIGINT NOT NULL,
		player_y    DOUBLE PRECISION NOT NULL,
		added       INTEGER NOT NULL,
		removed     INTEGER NOT NULL,
		spawned     INTEGER NOT NULL,
		despawned   INTEGER NOT NULL,
		skipped     INTEGER NOT NULL,
		live_chunks INTEGER NOT NULL,
		recorded_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_telemetry_deltas_session ON telemetry_deltas(session_id, tick);
	CREATE TABLE IF NOT EXISTS telemetry_chunk_events (
		session_id TEXT NOT NULL REFERENCES telemetry_sessions(id),
		tick       BIGINT NOT NULL,
		player_y   DOUBLE PRECISION NOT NULL,
		chunk_id   INTEGER NOT NULL,
		kind       TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_telemetry_chunk_events ON telemetry_chunk_events(session_id, chunk_id);
	`
	for _, stmt := range strings.Split(schema, ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// rebind rewrites ? placeholders as $1, $2, ... for postgres.
func (s *TelemetryStore) rebind(query string) string {
	if s.driver != DriverPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (s *TelemetryStore) newID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now()), s.entropy).String()
}

// Driver returns the database driver name
func (s *TelemetryStore) Driver() string {
	return s.driver
}

// StartSession registers a new simulation run.
func (s *TelemetryStore) StartSession(ctx context.Context, info SessionInfo) (*Session, error) {
	session := &Session{
		ID:          s.newID(),
		StartedAt:   time.Now().UTC(),
		SessionInfo: info,
	}
	_, err := s.db.ExecContext(ctx, s.rebind(`
		INSERT INTO telemetry_sessions (id, started_at, seed, chunk_size, generation_distance, cleanup_distance)
		VALUES (?, ?, ?, ?, ?, ?)
	`), session.ID, session.StartedAt.Format(time.RFC3339Nano), info.Seed, info.ChunkSize, info.GenerationDistance, info.CleanupDistance)
	if err != nil {
		return nil, fmt.Errorf("failed to insert session: %w", err)
	}
	return session, nil
}

// RecordDelta stores one update's delta. Deltas that changed nothing are
// not stored.
func (s *TelemetryStore) RecordDelta(ctx context.Context, sessionID string, tick int64, delta *streaming.ChunkDelta) error {
	if delta == nil || (!delta.Changed() && delta.Spawned == 0 && delta.Despawned == 0) {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, s.rebind(`
		INSERT INTO telemetry_deltas (session_id, tick, player_y, added, removed, spawned, despawned, skipped, live_chunks, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`), sessionID, tick, delta.PlayerY, len(delta.AddedChunks), len(delta.RemovedChunks),
		delta.Spawned, delta.Despawned, delta.Skipped, len(delta.CurrentChunks), time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("failed to insert delta: %w", err)
	}

	insertEvent := s.rebind(`
		INSERT INTO telemetry_chunk_events (session_id, tick, player_y, chunk_id, kind)
		VALUES (?, ?, ?, ?, ?)
	`)
	for _, id := range delta.AddedChunks {
		if _, err := tx.ExecContext(ctx, insertEvent, sessionID, tick, delta.PlayerY, id, "added"); err != nil {
			return fmt.Errorf("failed to insert chunk event: %w", err)
		}
	}
	for _, id := range delta.RemovedChunks {
		if _, err := tx.ExecContext(ctx, insertEvent, sessionID, tick, delta.PlayerY, id, "removed"); err != nil {
			return fmt.Errorf("failed to insert chunk event: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit delta: %w", err)
	}
	return nil
}

// GetSession loads a session by ID.
func (s *TelemetryStore) GetSession(ctx context.Context, id string) (*Session, error) {
	var session Session
	var startedAt string
	err := s.db.QueryRowContext(ctx, s.rebind(`
		SELECT id, started_at, seed, chunk_size, generation_distance, cleanup_distance
		FROM telemetry_sessions
		WHERE id = ?
	`), id).Scan(&session.ID, &startedAt, &session.Seed, &session.ChunkSize, &session.GenerationDistance, &session.CleanupDistance)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query session: %w", err)
	}
	session.StartedAt, _ = time.Parse(time.RFC3339Nano, startedAt)
	return &session, nil
}

// SessionSummary aggregates everything recorded for a session.
func (s *TelemetryStore) SessionSummary(ctx context.Context, id string) (*Summary, error) {
	session, err := s.GetSession(ctx, id)
	if err != nil {
		return nil, err
	}

	summary := &Summary{Session: *session}
	var furthest sql.NullFloat64
	err = s.db.QueryRowContext(ctx, s.rebind(`
		SELECT COUNT(*),
			COALESCE(SUM(added), 0),
			COALESCE(SUM(removed), 0),
			COALESCE(SUM(spawned), 0),
			COALESCE(SUM(despawned), 0),
			COALESCE(SUM(skipped), 0),
			MIN(player_y),
			COALESCE(MAX(tick), 0)
		FROM telemetry_deltas
		WHERE session_id = ?
	`), id).Scan(
		&summary.Deltas,
		&summary.ChunksAdded,
		&summary.ChunksRemoved,
		&summary.Spawned,
		&summary.Despawned,
		&summary.Skipped,
		&furthest,
		&summary.LastTick,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to summarize session: %w", err)
	}
	if furthest.Valid {
		summary.FurthestY = &furthest.Float64
	}
	return summary, nil
}

// ChunkHistory returns the lifecycle events of one chunk in tick order.
func (s *TelemetryStore) ChunkHistory(ctx context.Context, sessionID string, chunkID int) ([]ChunkEvent, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(`
		SELECT tick, player_y, chunk_id, kind
		FROM telemetry_chunk_events
		WHERE session_id = ? AND chunk_id = ?
		ORDER BY tick ASC
	`), sessionID, chunkID)
	if err != nil {
		return nil, fmt.Errorf("failed to query chunk events: %w", err)
	}
	defer rows.Close()

	var events []ChunkEvent
	for rows.Next() {
		var e ChunkEvent
		if err := rows.Scan(&e.Tick, &e.PlayerY, &e.ChunkID, &e.Kind); err != nil {
			return nil, fmt.Errorf("failed to scan chunk event: %w", err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// Close closes the database
func (s *TelemetryStore) Close() error {
	return s.db.Close()
}

// Recorder binds the store to one session so the loop can record deltas
// without knowing the session ID.
func (s *TelemetryStore) Recorder(sessionID string) *SessionRecorder {
	return &SessionRecorder{store: s, sessionID: sessionID}
}

// SessionRecorder records deltas into a single session
type SessionRecorder struct {
	store     *TelemetryStore
	sessionID string
}

// RecordDelta stores the delta under the bound session.
func (r *SessionRecorder) RecordDelta(ctx context.Context, tick int64, delta *streaming.ChunkDelta) error {
	return r.store.RecordDelta(ctx, r.sessionID, tick, delta)
}
