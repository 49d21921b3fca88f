// Package api provides the HTTP API for observing and playing the farm.
// GET endpoints are public (read-only observation).
// Player commands are rate limited; admin endpoints require a bearer token.
package api

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/talgya/dairy-sim/internal/engine"
	"github.com/talgya/dairy-sim/internal/herd"
	"github.com/talgya/dairy-sim/internal/metrics"
	"github.com/talgya/dairy-sim/internal/persistence"
)

const maxSSEConns = 2

// sseCatchUp is how many recent events a new stream client receives.
const sseCatchUp = 50

// Server serves the farm over HTTP.
type Server struct {
	Sim         *engine.Simulation
	DB          *persistence.DB   // optional; enables snapshots and long stats history
	Metrics     *metrics.Recorder // optional; enables /metrics
	Port        int
	AdminKey    string // Bearer token for admin POST endpoints. Empty = admin disabled.
	RelayKey    string // Bearer token for the SSE stream. Empty = streaming disabled.
	CORSOrigins string // comma-separated extra allowed origins

	// Active SSE connection count (atomic).
	sseConns int32

	srv *http.Server
}

// Handler builds the routed, middleware-wrapped handler. Background work
// it starts stops when ctx is cancelled.
func (s *Server) Handler(ctx context.Context) http.Handler {
	commandLimiter := NewRateLimiter(ctx, 120, time.Minute)

	mux := http.NewServeMux()

	// Public endpoints (read-only).
	mux.HandleFunc("GET /api/v1/status", s.handleStatus)
	mux.HandleFunc("GET /api/v1/state", s.handleState)
	mux.HandleFunc("GET /api/v1/pastures", s.handlePastures)
	mux.HandleFunc("GET /api/v1/animals", s.handleAnimals)
	mux.HandleFunc("GET /api/v1/weather", s.handleWeather)
	mux.HandleFunc("GET /api/v1/market", s.handleMarket)
	mux.HandleFunc("GET /api/v1/technologies", s.handleTechnologies)
	mux.HandleFunc("GET /api/v1/events", s.handleEvents)
	mux.HandleFunc("GET /api/v1/stats", s.handleStats)
	mux.HandleFunc("GET /api/v1/stats/history", s.handleStatsHistory)
	mux.HandleFunc("GET /api/v1/saves", s.handleSaves)
	mux.HandleFunc("GET /api/v1/speed", s.handleSpeed)

	// Player commands (rate limited per client).
	mux.HandleFunc("POST /api/v1/command", RateLimitMiddleware(commandLimiter, s.handleCommand))

	// SSE streaming endpoint (requires relay token).
	mux.HandleFunc("GET /api/v1/stream", s.handleStream)

	// Admin endpoints (require bearer token).
	mux.HandleFunc("POST /api/v1/speed", s.adminOnly(s.handleSetSpeed))
	mux.HandleFunc("POST /api/v1/snapshot", s.adminOnly(s.handleSnapshot))
	mux.HandleFunc("POST /api/v1/intervention", s.adminOnly(s.handleIntervention))

	if s.Metrics != nil {
		mux.Handle("GET /metrics", s.Metrics.Handler())
	}

	return requestLogger(corsMiddleware(s.CORSOrigins, mux))
}

// Start begins serving the HTTP API in a goroutine.
func (s *Server) Start(ctx context.Context) {
	addr := fmt.Sprintf(":%d", s.Port)
	s.srv = &http.Server{Addr: addr, Handler: s.Handler(ctx), ReadHeaderTimeout: 10 * time.Second}
	slog.Info("HTTP API starting", "addr", addr, "admin_auth", s.AdminKey != "", "relay_auth", s.RelayKey != "")

	go func() {
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("HTTP server error", "error", err)
		}
	}()
}

// Shutdown stops the server started by Start.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.srv == nil {
		return nil
	}
	return s.srv.Shutdown(ctx)
}

// ── Middleware ─────────────────────────────────────────────────────────

// corsMiddleware adds CORS headers for allowed frontend origins.
// Localhost dev servers are always allowed.
func corsMiddleware(extra string, next http.Handler) http.Handler {
	allowedOrigins := map[string]bool{
		"http://localhost:5173": true,
		"http://localhost:4173": true,
		"http://localhost:3000": true,
	}
	for _, origin := range strings.Split(extra, ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			allowedOrigins[origin] = true
		}
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if allowedOrigins[origin] {
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

// statusRecorder captures the response code for logging.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// requestLogger tags every request with an id and logs its outcome.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r)
		slog.Debug("http request",
			"id", id, "method", r.Method, "path", r.URL.Path,
			"status", rec.status, "duration", time.Since(start))
	})
}

// checkBearerToken returns true if the request carries key as bearer token.
func checkBearerToken(r *http.Request, key string) bool {
	token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	return ok && key != "" && subtle.ConstantTimeCompare([]byte(token), []byte(key)) == 1
}

// adminOnly wraps a handler to require bearer token auth.
func (s *Server) adminOnly(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.AdminKey == "" {
			http.Error(w, "admin endpoints disabled (no FARMSIM_ADMIN_KEY set)", http.StatusForbidden)
			return
		}
		if !checkBearerToken(r, s.AdminKey) {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next(w, r)
	}
}

// ── Observation ────────────────────────────────────────────────────────

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	st := s.Sim.State()
	status := map[string]any{
		"phase":      st.Phase,
		"paused":     st.Paused,
		"time_scale": st.TimeScale,
		"scenario":   st.Scenario,
	}
	if st.Phase == engine.PhaseRunning {
		status["time"] = engine.GameTime(st.Calendar.Time)
		status["season"] = st.Calendar.Season
		status["farm"] = st.Farm.Name
		status["cash"] = st.Resources.Cash
		status["milk"] = st.Resources.Milk
		status["feed"] = st.Resources.Feed
		status["herd"] = st.Herd
		status["average_health"] = st.AverageHealth
		status["weather"] = map[string]any{
			"condition":   st.Weather.Conditions.Condition,
			"temperature": st.Weather.Conditions.Temperature,
			"events":      st.Weather.Effects.Active.Names(),
		}
		status["flags"] = st.Status
	}
	writeJSON(w, status)
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.Sim.State())
}

func (s *Server) handlePastures(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.Sim.Pastures())
}

func (s *Server) handleAnimals(w http.ResponseWriter, r *http.Request) {
	animals := s.Sim.Animals()

	// Optional paddock filter.
	if p := r.URL.Query().Get("pasture"); p != "" {
		id, err := strconv.Atoi(p)
		if err != nil {
			http.Error(w, "invalid pasture id", http.StatusBadRequest)
			return
		}
		filtered := make([]herd.Animal, 0, len(animals))
		for _, a := range animals {
			if a.PastureID == id {
				filtered = append(filtered, a)
			}
		}
		animals = filtered
	}

	if l := r.URL.Query().Get("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 && n < len(animals) {
			animals = animals[:n]
		}
	}
	writeJSON(w, animals)
}

func (s *Server) handleWeather(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.Sim.State().Weather)
}

func (s *Server) handleMarket(w http.ResponseWriter, r *http.Request) {
	report, err := s.Sim.MarketReport()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, report)
}

func (s *Server) handleTechnologies(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.Sim.Technologies())
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if since := q.Get("since"); since != "" {
		seq, err := strconv.ParseUint(since, 10, 64)
		if err != nil {
			http.Error(w, "invalid since", http.StatusBadRequest)
			return
		}
		writeJSON(w, nonNil(s.Sim.EventsSince(seq)))
		return
	}

	limit := 50
	if l := q.Get("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 && n <= 500 {
			limit = n
		}
	}
	writeJSON(w, nonNil(s.Sim.Events(limit, engine.Category(q.Get("category")))))
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.Sim.State().Today)
}

func (s *Server) handleStatsHistory(w http.ResponseWriter, r *http.Request) {
	days := 30
	if d := r.URL.Query().Get("days"); d != "" {
		if n, err := strconv.Atoi(d); err == nil && n > 0 && n <= 3650 {
			days = n
		}
	}

	// The database keeps history beyond the in-memory year.
	if s.DB != nil {
		rows, err := s.DB.DailyStats(days)
		if err != nil {
			slog.Error("stats history query failed", "error", err)
			http.Error(w, "stats unavailable", http.StatusInternalServerError)
			return
		}
		writeJSON(w, nonNil(rows))
		return
	}
	writeJSON(w, nonNil(s.Sim.StatsHistory(days)))
}

func (s *Server) handleSaves(w http.ResponseWriter, r *http.Request) {
	if s.DB == nil {
		http.Error(w, "database not available", http.StatusServiceUnavailable)
		return
	}
	saves, err := s.DB.ListSaves()
	if err != nil {
		slog.Error("list saves failed", "error", err)
		http.Error(w, "saves unavailable", http.StatusInternalServerError)
		return
	}
	writeJSON(w, nonNil(saves))
}

// ── Commands ───────────────────────────────────────────────────────────

func (s *Server) handleCommand(w http.ResponseWriter, r *http.Request) {
	var cmd engine.Command
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}

	result, err := s.Sim.Execute(cmd)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, map[string]any{"success": true, "command": cmd.Type, "result": result})
}

func (s *Server) handleSpeed(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]float64{"speed": s.Sim.State().TimeScale})
}

func (s *Server) handleSetSpeed(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Speed float64 `json:"speed"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	scale, err := s.Sim.SetTimeScale(req.Speed)
	if err != nil {
		writeError(w, err)
		return
	}
	slog.Info("speed changed", "speed", scale)
	writeJSON(w, map[string]float64{"speed": scale})
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	if s.DB == nil {
		http.Error(w, "database not available", http.StatusServiceUnavailable)
		return
	}

	slot := r.URL.Query().Get("slot")
	if slot == "" {
		slot = "manual"
	}
	rec, err := s.DB.Checkpoint(s.Sim, slot)
	if errors.Is(err, engine.ErrNotRunning) {
		writeError(w, err)
		return
	}
	if err != nil {
		slog.Error("snapshot save failed", "error", err)
		http.Error(w, "snapshot failed", http.StatusInternalServerError)
		return
	}

	writeJSON(w, map[string]any{
		"id":      rec.ID,
		"slot":    slot,
		"time":    engine.GameTime(rec.State.Calendar.Time),
		"message": "snapshot saved",
	})
}

func (s *Server) handleIntervention(w http.ResponseWriter, r *http.Request) {

	var req struct {
		Type     string `json:"type"`
		Event    string `json:"event,omitempty"`
		Incident string `json:"incident,omitempty"`
		Slot     string `json:"slot,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}

	switch req.Type {
	case "weather":
		if req.Event == "" {
			http.Error(w, "event required for weather type", http.StatusBadRequest)
			return
		}
		if err := s.Sim.TriggerWeatherEvent(req.Event); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, map[string]any{"success": true, "details": "weather event " + req.Event + " started"})

	case "incident":
		if req.Incident == "" {
			http.Error(w, "incident required for incident type", http.StatusBadRequest)
			return
		}
		if err := s.Sim.TriggerIncident(req.Incident); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, map[string]any{"success": true, "details": "incident " + req.Incident + " applied"})

	case "restore":
		if s.DB == nil {
			http.Error(w, "database not available", http.StatusServiceUnavailable)
			return
		}
		slot := req.Slot
		if slot == "" {
			slot = persistence.DefaultSlot
		}
		rec, err := s.DB.LoadLatest(slot)
		if errors.Is(err, persistence.ErrNoSave) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		if err != nil {
			slog.Error("restore failed", "error", err)
			http.Error(w, "restore failed", http.StatusInternalServerError)
			return
		}
		if err := s.Sim.Load(rec); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		writeJSON(w, map[string]any{"success": true, "details": "restored save " + rec.ID.String()})

	default:
		http.Error(w, "unknown intervention type (use: weather, incident, restore)", http.StatusBadRequest)
	}
}

// ── Streaming ──────────────────────────────────────────────────────────

// handleStream provides an SSE endpoint for real-time event streaming.
// Requires bearer token auth and limits concurrent connections.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	if s.RelayKey == "" {
		http.Error(w, "streaming disabled (no relay key)", http.StatusForbidden)
		return
	}
	if !checkBearerToken(r, s.RelayKey) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	// Connection limit.
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

	for _, e := range s.Sim.Events(sseCatchUp, "") {
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
	fmt.Fprintf(w, "id: %d\nevent: %s\ndata: %s\n\n", e.Seq, e.Category, data)
}

// ── Responses ──────────────────────────────────────────────────────────

// statusFor maps a command error to an HTTP status.
func statusFor(err error) int {
	var rej *engine.Rejection
	if !errors.As(err, &rej) {
		if errors.Is(err, engine.ErrNotRunning) {
			return http.StatusConflict
		}
		return http.StatusInternalServerError
	}
	switch rej.Kind() {
	case engine.RejectNotFound:
		return http.StatusNotFound
	case engine.RejectInsufficient, engine.RejectConflict:
		return http.StatusConflict
	default:
		return http.StatusBadRequest
	}
}

func writeError(w http.ResponseWriter, err error) {
	body := map[string]any{"success": false, "error": err.Error()}
	var rej *engine.Rejection
	if errors.As(err, &rej) {
		body["command"] = rej.Command
		body["kind"] = rej.Kind()
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusFor(err))
	json.NewEncoder(w).Encode(body)
}

func nonNil[T any](v []T) []T {
	if v == nil {
		return []T{}
	}
	return v
}

func writeJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.Encode(data)
}
