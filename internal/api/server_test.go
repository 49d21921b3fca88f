package api

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/dairy-sim/internal/engine"
	"github.com/talgya/dairy-sim/internal/metrics"
	"github.com/talgya/dairy-sim/internal/persistence"
	"github.com/talgya/dairy-sim/internal/scenario"
)

const adminKey = "secret"

func newServer(t *testing.T) *Server {
	t.Helper()
	p, err := scenario.Get("canterbury")
	require.NoError(t, err)
	rec := metrics.New()
	sim := engine.NewSimulation(engine.Options{OnReject: rec.Reject})
	require.NoError(t, sim.Initialize(p, 3))
	return &Server{Sim: sim, Metrics: rec, AdminKey: adminKey, RelayKey: "relay"}
}

func do(t *testing.T, h http.Handler, method, path, body, token string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestObservationEndpoints(t *testing.T) {
	s := newServer(t)
	h := s.Handler(t.Context())

	w := do(t, h, "GET", "/api/v1/status", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	status := decode(t, w)
	assert.Equal(t, "running", status["phase"])
	assert.Equal(t, "Plains View Farm", status["farm"])
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	for _, path := range []string{
		"/api/v1/state", "/api/v1/pastures", "/api/v1/weather", "/api/v1/market",
		"/api/v1/technologies", "/api/v1/events", "/api/v1/stats", "/api/v1/stats/history",
	} {
		w := do(t, h, "GET", path, "", "")
		assert.Equal(t, http.StatusOK, w.Code, path)
		assert.True(t, json.Valid(w.Body.Bytes()), path)
	}

	w = do(t, h, "GET", "/api/v1/animals?limit=5", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	var animals []map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &animals))
	assert.Len(t, animals, 5)

	assert.Equal(t, http.StatusBadRequest, do(t, h, "GET", "/api/v1/animals?pasture=x", "", "").Code)
	assert.Equal(t, http.StatusServiceUnavailable, do(t, h, "GET", "/api/v1/saves", "", "").Code)
}

func TestCommandEndpoint(t *testing.T) {
	s := newServer(t)
	h := s.Handler(t.Context())

	w := do(t, h, "POST", "/api/v1/command", `{"type":"feed_herd"}`, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, decode(t, w)["success"])

	w = do(t, h, "POST", "/api/v1/command", `{"type":"sell_milk","quantity":1000000}`, "")
	assert.Equal(t, http.StatusConflict, w.Code)
	body := decode(t, w)
	assert.Equal(t, "insufficient", body["kind"])
	assert.Equal(t, "sell_milk", body["command"])

	w = do(t, h, "POST", "/api/v1/command", `{"type":"buy_cattle","breed":"yak","quantity":1}`, "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(t, h, "POST", "/api/v1/command", `{"type":"dance"}`, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	assert.Equal(t, http.StatusBadRequest, do(t, h, "POST", "/api/v1/command", `{`, "").Code)
	assert.Equal(t, http.StatusMethodNotAllowed, do(t, h, "GET", "/api/v1/command", "", "").Code)

	w = do(t, h, "GET", "/metrics", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `farmsim_commands_rejected_total{command="sell_milk",kind="insufficient"} 1`)
}

func TestAdminEndpoints(t *testing.T) {
	s := newServer(t)
	h := s.Handler(t.Context())

	assert.Equal(t, http.StatusUnauthorized, do(t, h, "POST", "/api/v1/speed", `{"speed":2}`, "wrong").Code)
	w := do(t, h, "POST", "/api/v1/speed", `{"speed":50}`, adminKey)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, engine.MaxTimeScale, decode(t, w)["speed"])

	w = do(t, h, "POST", "/api/v1/intervention", `{"type":"weather","event":"drought"}`, adminKey)
	require.Equal(t, http.StatusOK, w.Code)
	w = do(t, h, "POST", "/api/v1/intervention", `{"type":"weather","event":"drought"}`, adminKey)
	assert.Equal(t, http.StatusConflict, w.Code)
	w = do(t, h, "POST", "/api/v1/intervention", `{"type":"incident","incident":"volcano"}`, adminKey)
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = do(t, h, "POST", "/api/v1/intervention", `{"type":"teleport"}`, adminKey)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, h, "GET", "/api/v1/speed", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, engine.MaxTimeScale, decode(t, w)["speed"])
	assert.Equal(t, http.StatusMethodNotAllowed, do(t, h, "GET", "/api/v1/snapshot", "", adminKey).Code)
	assert.Equal(t, http.StatusMethodNotAllowed, do(t, h, "DELETE", "/api/v1/intervention", "", adminKey).Code)

	s.AdminKey = ""
	h = s.Handler(t.Context())
	assert.Equal(t, http.StatusForbidden, do(t, h, "POST", "/api/v1/speed", `{"speed":2}`, "").Code)
}

func TestCheckBearerToken(t *testing.T) {
	cases := map[string]struct {
		header, key string
		want        bool
	}{
		"match":         {"Bearer secret", "secret", true},
		"wrong token":   {"Bearer secrets", "secret", false},
		"no scheme":     {"secret", "secret", false},
		"basic scheme":  {"Basic secret", "secret", false},
		"empty key":     {"Bearer ", "", false},
		"missing token": {"", "secret", false},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			assert.Equal(t, tc.want, checkBearerToken(req, tc.key))
		})
	}
}

func TestSnapshotAndRestore(t *testing.T) {
	s := newServer(t)
	db, err := persistence.Open(filepath.Join(t.TempDir(), "farm.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	s.DB = db
	h := s.Handler(t.Context())

	w := do(t, h, "POST", "/api/v1/snapshot?slot=autosave", "", adminKey)
	require.Equal(t, http.StatusOK, w.Code)
	saved := s.Sim.State()

	s.Sim.AdvanceHours(48)
	require.NotEqual(t, saved.Calendar, s.Sim.State().Calendar)

	w = do(t, h, "POST", "/api/v1/intervention", `{"type":"restore"}`, adminKey)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, saved.Calendar, s.Sim.State().Calendar)

	w = do(t, h, "GET", "/api/v1/saves", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	var saves []persistence.SaveInfo
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &saves))
	assert.Len(t, saves, 1)

	w = do(t, h, "POST", "/api/v1/intervention", `{"type":"restore","slot":"nope"}`, adminKey)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCORSPreflight(t *testing.T) {
	s := newServer(t)
	s.CORSOrigins = "https://farm.example.com"
	h := s.Handler(t.Context())

	req := httptest.NewRequest("OPTIONS", "/api/v1/command", nil)
	req.Header.Set("Origin", "https://farm.example.com")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://farm.example.com", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestStreamDeliversEvents(t *testing.T) {
	s := newServer(t)
	srv := httptest.NewServer(s.Handler(t.Context()))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/v1/stream")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, "GET", srv.URL+"/api/v1/stream", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer relay")
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	require.NoError(t, s.Sim.TriggerWeatherEvent("frost"))

	sc := bufio.NewScanner(resp.Body)
	found := false
	for sc.Scan() {
		if strings.HasPrefix(sc.Text(), "data:") && strings.Contains(sc.Text(), "frost") {
			found = true
			break
		}
	}
	assert.True(t, found)
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(t.Context(), 2, time.Minute)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	assert.True(t, rl.Allow("a"))
	assert.True(t, rl.Allow("a"))
	assert.False(t, rl.Allow("a"))
	assert.True(t, rl.Allow("b"))
	assert.Equal(t, 61, rl.RetryAfter("a"))

	now = now.Add(time.Minute)
	assert.True(t, rl.Allow("a"))

	now = now.Add(3 * time.Minute)
	rl.cleanup()
	assert.Zero(t, rl.RetryAfter("b"))

	req := httptest.NewRequest("GET", "/", nil)
	req.RemoteAddr = "10.0.0.1:5555"
	assert.Equal(t, "10.0.0.1", clientIP(req))
	req.Header.Set("X-Forwarded-For", "1.2.3.4, 10.0.0.1")
	assert.Equal(t, "1.2.3.4", clientIP(req))
}

func TestRateLimiterStopsWithContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	rl := NewRateLimiter(ctx, 1, time.Minute)
	cancel()

	select {
	case <-rl.done:
	case <-time.After(2 * time.Second):
		t.Fatal("cleanup loop still running after cancel")
	}
	assert.True(t, rl.Allow("a"))
}
