// Package api provides the HTTP API for observing and controlling the torus
// simulation. GET endpoints are public and read-only. POST endpoints require
// the admin bearer token.
package api

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/talgya/torus-coding/internal/engine"
	"github.com/talgya/torus-coding/internal/persistence"
	"github.com/talgya/torus-coding/internal/phi"
	"github.com/talgya/torus-coding/internal/torus"
)

const maxSSEConns = 4

// Server serves the simulation over HTTP.
type Server struct {
	Sim      *engine.Simulation
	DB       *persistence.DB // Optional; run archive endpoints return 503 without it
	Port     int
	AdminKey string // Bearer token for POST endpoints. Empty = POST disabled.

	// Active SSE connection count (atomic).
	sseConns int32
}

// Handler builds the routed handler with middleware applied.
func (s *Server) Handler() http.Handler {
	controlLimiter := NewRateLimiter(120, time.Minute)
	control := func(h http.HandlerFunc) http.HandlerFunc {
		return s.adminOnly(RateLimitMiddleware(controlLimiter, h))
	}

	mux := http.NewServeMux()

	// Observables.
	mux.HandleFunc("/api/v1/status", s.handleStatus)
	mux.HandleFunc("/api/v1/sequence", s.handleSequence)
	mux.HandleFunc("/api/v1/trace", s.handleTrace)
	mux.HandleFunc("/api/v1/words", s.handleWords)
	mux.HandleFunc("/api/v1/events", s.handleEvents)
	mux.HandleFunc("/api/v1/presets", s.handlePresets)
	mux.HandleFunc("/api/v1/runs", s.handleRuns)
	mux.HandleFunc("/api/v1/runs/", s.handleRunDetail)
	mux.HandleFunc("/api/v1/stream", s.handleStream)

	// Commands.
	mux.HandleFunc("/api/v1/start", control(s.handleStart))
	mux.HandleFunc("/api/v1/stop", control(s.handleStop))
	mux.HandleFunc("/api/v1/reset", control(s.handleReset))
	mux.HandleFunc("/api/v1/mode", control(s.handleMode))
	mux.HandleFunc("/api/v1/tangent", control(s.handleTangent))
	mux.HandleFunc("/api/v1/ratio", control(s.handleRatio))
	mux.HandleFunc("/api/v1/speed", control(s.handleSpeed))
	mux.HandleFunc("/api/v1/trace-visibility", control(s.handleTraceVisibility))
	mux.HandleFunc("/api/v1/nwords", control(s.handleNWords))
	mux.HandleFunc("/api/v1/preset", control(s.handlePreset))

	return corsMiddleware(mux)
}

// Start begins serving the HTTP API in a goroutine.
func (s *Server) Start() {
	addr := fmt.Sprintf(":%d", s.Port)
	slog.Info("HTTP API starting", "addr", addr, "admin_auth", s.AdminKey != "", "archive", s.DB != nil)

	go func() {
		if err := http.ListenAndServe(addr, s.Handler()); err != nil {
			slog.Error("HTTP server error", "error", err)
		}
	}()
}

// corsMiddleware allows the origins listed in TORUS_CORS_ORIGINS plus the
// usual local dev servers, so a browser renderer can poll the API.
func corsMiddleware(next http.Handler) http.Handler {
	allowed := map[string]bool{
		"http://localhost:5173": true,
		"http://localhost:3000": true,
	}
	for _, origin := range strings.Split(os.Getenv("TORUS_CORS_ORIGINS"), ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			allowed[origin] = true
		}
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if origin := r.Header.Get("Origin"); allowed[origin] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) checkBearerToken(r *http.Request) bool {
	auth := r.Header.Get("Authorization")
	return strings.HasPrefix(auth, "Bearer ") && strings.TrimPrefix(auth, "Bearer ") == s.AdminKey
}

// adminOnly requires POST with the admin bearer token.
func (s *Server) adminOnly(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.Header().Set("Allow", http.MethodPost)
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		if s.AdminKey == "" {
			http.Error(w, "control endpoints disabled (no admin key set)", http.StatusForbidden)
			return
		}
		if !s.checkBearerToken(r) {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next(w, r)
	}
}

// ── Observables ──────────────────────────────────────────────────────

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	snap := s.Sim.Snapshot()
	status := map[string]any{
		"tick":            snap.Tick,
		"running":         snap.Running,
		"config":          snap.Config,
		"slope":           snap.Config.EffectiveSlope(),
		"ratio":           snap.Config.RatioString(),
		"t":               snap.T,
		"theta1":          snap.Theta1,
		"theta2":          snap.Theta2,
		"completed_cycle": snap.CompletedCycle,
		"sequence_length": len(snap.Sequence),
		"trace_length":    len(snap.Trace),
		"word_length":     snap.WordLength,
		"word_count":      snap.WordCount,
	}
	if snap.Period > 0 {
		status["period"] = snap.Period
	}
	if !snap.StartedAt.IsZero() {
		status["started_at"] = snap.StartedAt
	}
	writeJSON(w, status)
}

func (s *Server) handleSequence(w http.ResponseWriter, r *http.Request) {
	snap := s.Sim.Snapshot()
	writeJSON(w, map[string]any{
		"sequence": snap.Sequence,
		"length":   len(snap.Sequence),
	})
}

func (s *Server) handleTrace(w http.ResponseWriter, r *http.Request) {
	snap := s.Sim.Snapshot()
	writeJSON(w, map[string]any{
		"show_trace": snap.Config.ShowTrace,
		"points":     snap.Trace,
		"current":    torus.Sample{Theta1: snap.Theta1, Theta2: snap.Theta2},
	})
}

func (s *Server) handleWords(w http.ResponseWriter, r *http.Request) {
	snap := s.Sim.Snapshot()
	words := snap.Words
	if words == nil {
		words = []string{}
	}
	writeJSON(w, map[string]any{
		"n":     snap.WordLength,
		"count": snap.WordCount,
		"words": words,
	})
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.Sim.Events(queryLimit(r, 50, 1000)))
}

func (s *Server) handlePresets(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, phi.Presets())
}

func (s *Server) handleRuns(w http.ResponseWriter, r *http.Request) {
	if s.DB == nil {
		http.Error(w, "run archive not configured", http.StatusServiceUnavailable)
		return
	}
	runs, err := s.DB.RecentRuns(queryLimit(r, 20, 200))
	if err != nil {
		slog.Error("list runs failed", "error", err)
		http.Error(w, "list runs failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, runs)
}

func (s *Server) handleRunDetail(w http.ResponseWriter, r *http.Request) {
	if s.DB == nil {
		http.Error(w, "run archive not configured", http.StatusServiceUnavailable)
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/api/v1/runs/")
	if id == "" {
		http.Error(w, "missing run id", http.StatusBadRequest)
		return
	}

	run, err := s.DB.GetRun(id)
	if errors.Is(err, sql.ErrNoRows) {
		http.Error(w, "run not found", http.StatusNotFound)
		return
	}
	if err != nil {
		slog.Error("get run failed", "id", id, "error", err)
		http.Error(w, "get run failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, map[string]any{
		"run":   run,
		"words": run.Words(),
	})
}

// queryLimit parses ?limit=N, falling back to def and capping at ceiling.
func queryLimit(r *http.Request, def, ceiling int) int {
	limit := def
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	if limit > ceiling {
		limit = ceiling
	}
	return limit
}

// ── Commands ─────────────────────────────────────────────────────────

// commandResult reports whether a command was applied and the resulting state.
func (s *Server) commandResult(w http.ResponseWriter, command string, accepted bool) {
	if !accepted {
		slog.Info("command rejected", "command", command)
	}
	writeJSON(w, map[string]any{
		"command":  command,
		"accepted": accepted,
		"running":  s.Sim.Running(),
		"config":   s.Sim.Config(),
	})
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return false
	}
	return true
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	s.Sim.Start()
	s.commandResult(w, "start", true)
}

func (s *Server) handleStop(w http.ResponseWriter, r *http.Request) {
	s.Sim.Stop()
	s.commandResult(w, "stop", true)
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	s.Sim.Reset()
	s.commandResult(w, "reset", true)
}

func (s *Server) handleMode(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UseRatio bool `json:"use_ratio"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	s.commandResult(w, "mode", s.Sim.SetMode(req.UseRatio))
}

func (s *Server) handleTangent(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Value float64 `json:"value"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	s.commandResult(w, "tangent", s.Sim.SetTangent(req.Value))
}

func (s *Server) handleRatio(w http.ResponseWriter, r *http.Request) {
	var req struct {
		P int `json:"p"`
		Q int `json:"q"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	s.commandResult(w, "ratio", s.Sim.SetRatio(req.P, req.Q))
}

func (s *Server) handleSpeed(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Value float64 `json:"value"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	s.commandResult(w, "speed", s.Sim.SetSpeed(req.Value))
}

func (s *Server) handleTraceVisibility(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Show bool `json:"show"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	s.Sim.SetTraceVisibility(req.Show)
	s.commandResult(w, "trace-visibility", true)
}

func (s *Server) handleNWords(w http.ResponseWriter, r *http.Request) {
	var req struct {
		N int `json:"n"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	s.commandResult(w, "nwords", s.Sim.SetNWordLength(req.N))
}

func (s *Server) handlePreset(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	s.commandResult(w, "preset", s.Sim.SetPreset(req.Name))
}

// ── Streaming ────────────────────────────────────────────────────────

// handleStream pushes simulation events as server-sent events.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	current := atomic.AddInt32(&s.sseConns, 1)
	if current > maxSSEConns {
		atomic.AddInt32(&s.sseConns, -1)
		http.Error(w, "too many SSE connections", http.StatusServiceUnavailable)
		return
	}
	defer atomic.AddInt32(&s.sseConns, -1)

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	subID, ch := s.Sim.Subscribe()
	defer s.Sim.Unsubscribe(subID)

	// Catch-up: the last few events.
	for _, e := range s.Sim.Events(20) {
		writeSSEEvent(w, e)
	}
	flusher.Flush()

	slog.Info("SSE client connected", "sub_id", subID)

	heartbeat := time.NewTicker(15 * time.Second)
	defer heartbeat.Stop()

	for {
		select {
		case e, ok := <-ch:
			if !ok {
				return
			}
			writeSSEEvent(w, e)
			flusher.Flush()
		case <-heartbeat.C:
			fmt.Fprintf(w, ": heartbeat\n\n")
			flusher.Flush()
		case <-r.Context().Done():
			slog.Info("SSE client disconnected", "sub_id", subID)
			return
		}
	}
}

// writeSSEEvent writes a single event in SSE format.
func writeSSEEvent(w http.ResponseWriter, e engine.Event) {
	data, err := json.Marshal(e)
	if err != nil {
		return
	}
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", e.Category, data)
}

func writeJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.Encode(data)
}
