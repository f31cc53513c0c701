package api

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/nightwalk/server/internal/compression"
	"github.com/nightwalk/server/internal/database"
	"github.com/nightwalk/server/internal/performance"
	"github.com/nightwalk/server/internal/terrain"
)

// SummarySource reports aggregated telemetry for a session
type SummarySource interface {
	SessionSummary(ctx context.Context, id string) (*database.Summary, error)
}

// InspectorConfig configures the inspector routes.
type InspectorConfig struct {
	AllowedOrigins []string
	// RateLimit is requests per minute per client on /api routes.
	RateLimit int64
	TileSize  float64
	// HSTS enables Strict-Transport-Security, for deployments behind TLS.
	HSTS bool
}

// Inspector serves a read-only view of the running world. Every handler
// reads the latest snapshot; nothing here touches the live manager.
type Inspector struct {
	cfg       InspectorConfig
	source    SnapshotSource
	profiler  *performance.Profiler
	hub       *WebSocketHub
	ws        *WebSocketHandlers
	telemetry SummarySource
	sessionID string
	started   time.Time
}

// NewInspector wires the inspector. The hub must be running for /ws to work.
func NewInspector(cfg InspectorConfig, source SnapshotSource, profiler *performance.Profiler, hub *WebSocketHub) *Inspector {
	return &Inspector{
		cfg:      cfg,
		source:   source,
		profiler: profiler,
		hub:      hub,
		ws:       NewWebSocketHandlers(hub, source, cfg.AllowedOrigins),
		started:  time.Now(),
	}
}

// SetTelemetry exposes the given session's summary on /api/v1/telemetry.
func (i *Inspector) SetTelemetry(source SummarySource, sessionID string) {
	i.telemetry = source
	i.sessionID = sessionID
}

// Routes returns the inspector HTTP handler.
func (i *Inspector) Routes() http.Handler {
	api := http.NewServeMux()
	api.HandleFunc("/api/v1/chunks", getOnly(i.handleChunks))
	api.HandleFunc("/api/v1/tiles", getOnly(i.handleTiles))
	api.HandleFunc("/api/v1/entities", getOnly(i.handleEntities))
	api.HandleFunc("/api/v1/telemetry", getOnly(i.handleTelemetry))

	limited := RateLimitMiddleware(i.cfg.RateLimit, time.Minute)(api)

	mux := http.NewServeMux()
	mux.HandleFunc("/health", getOnly(i.handleHealth))
	mux.HandleFunc("/metrics", getOnly(i.handleMetrics))
	mux.HandleFunc("/ws", i.ws.HandleWebSocket)
	mux.Handle("/api/", limited)

	return CORSMiddleware(i.cfg.AllowedOrigins)(SecurityHeadersMiddleware(i.cfg.HSTS)(mux))
}

func getOnly(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			respondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}
		next(w, r)
	}
}

func (i *Inspector) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "ok",
		"service": "nightwalk-server",
		"tick":    i.source.Snapshot().Tick,
		"uptime":  time.Since(i.started).Round(time.Second).String(),
	})
}

func (i *Inspector) handleMetrics(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"profile":     i.profiler.Snapshot(),
		"subscribers": i.hub.ConnectionCount(),
	})
}

func (i *Inspector) handleChunks(w http.ResponseWriter, r *http.Request) {
	snapshot := i.source.Snapshot()
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"tick":           snapshot.Tick,
		"player_y":       snapshot.PlayerY,
		"next_entity_id": snapshot.NextEntityID,
		"chunks":         snapshot.Chunks,
	})
}

func (i *Inspector) handleEntities(w http.ResponseWriter, r *http.Request) {
	snapshot := i.source.Snapshot()
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"tick":     snapshot.Tick,
		"camera_y": snapshot.CameraY,
		"counts":   snapshot.EntityCounts,
		"entities": snapshot.Entities,
	})
}

// handleTiles serves GET /api/v1/tiles?camera_y=&height=&format=.
// The answer is limited to tiles in the current view snapshot.
func (i *Inspector) handleTiles(w http.ResponseWriter, r *http.Request) {
	snapshot := i.source.Snapshot()
	query := r.URL.Query()

	cameraY, err := floatParam(query.Get("camera_y"), snapshot.CameraY)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid camera_y")
		return
	}
	height, err := floatParam(query.Get("height"), snapshot.ViewHeight)
	if err != nil || height < 0 {
		respondWithError(w, http.StatusBadRequest, "Invalid height")
		return
	}

	lo, hi := cameraY-height/2, cameraY+height/2
	tiles := make([]terrain.Tile, 0, len(snapshot.Tiles))
	for _, tile := range snapshot.Tiles {
		if tile.Y >= lo && tile.Y <= hi {
			tiles = append(tiles, tile)
		}
	}

	switch query.Get("format") {
	case "", "json":
		respondWithJSON(w, http.StatusOK, map[string]interface{}{
			"tick":  snapshot.Tick,
			"count": len(tiles),
			"tiles": tiles,
		})
	case "binary":
		batch, err := compression.FormatTileBatch(tiles, i.cfg.TileSize)
		if err != nil {
			log.Printf("[Inspector] failed to encode tiles: %v", err)
			respondWithError(w, http.StatusInternalServerError, "Failed to encode tiles")
			return
		}
		respondWithJSON(w, http.StatusOK, map[string]interface{}{
			"tick":  snapshot.Tick,
			"tiles": batch,
		})
	default:
		respondWithError(w, http.StatusBadRequest, "Unknown format")
	}
}

func (i *Inspector) handleTelemetry(w http.ResponseWriter, r *http.Request) {
	if i.telemetry == nil {
		respondWithError(w, http.StatusNotFound, "Telemetry disabled")
		return
	}
	summary, err := i.telemetry.SessionSummary(r.Context(), i.sessionID)
	if errors.Is(err, database.ErrSessionNotFound) {
		respondWithError(w, http.StatusNotFound, "Session not found")
		return
	}
	if err != nil {
		log.Printf("[Inspector] telemetry summary failed: %v", err)
		respondWithError(w, http.StatusInternalServerError, "Failed to load telemetry")
		return
	}
	respondWithJSON(w, http.StatusOK, summary)
}

func floatParam(raw string, fallback float64) (float64, error) {
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, errors.New("not a finite number")
	}
	return v, nil
}

func respondWithJSON(w http.ResponseWriter, statusCode int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("[Inspector] failed to write response: %v", err)
	}
}

func respondWithError(w http.ResponseWriter, statusCode int, message string) {
	respondWithJSON(w, statusCode, map[string]string{"error": message})
}
