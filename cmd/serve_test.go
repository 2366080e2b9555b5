package main

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/rfp-scorer/internal/config"
	"github.com/sells-group/rfp-scorer/internal/model"
	"github.com/sells-group/rfp-scorer/internal/monitoring"
	"github.com/sells-group/rfp-scorer/internal/profile"
	"github.com/sells-group/rfp-scorer/internal/scorer"
)

const climateRecord = `{
  "title": "Climate Action Plan and GHG Inventory Platform",
  "issuing_entity": "City of Malmö",
  "description": "The municipality seeks a SaaS platform for its climate action plan and greenhouse gas inventory.",
  "country": "SE",
  "budget": {"amount": 300000, "currency": "EUR"},
  "deadline": "2026-06-30"
}`

const cateringRecord = `{
  "title": "Conference catering",
  "issuing_entity": "City of Bonn",
  "description": "Catering and cleaning services for the municipal climate conference.",
  "country": "DE"
}`

func newTestServer(t *testing.T, sc config.ServerConfig) (*server, http.Handler) {
	t.Helper()
	e, err := loadEngine("")
	require.NoError(t, err)

	s := newServer(scorer.NewHolder(e), "", monitoring.NewMetrics())
	s.now = func() time.Time { return time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC) }
	if sc.CORSOrigins == nil {
		sc.CORSOrigins = []string{"*"}
	}
	return s, buildRouter(s, sc)
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestHealthEndpoint(t *testing.T) {
	s, h := newTestServer(t, config.ServerConfig{})

	rr := do(t, h, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))

	var body map[string]string
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, s.holder.Engine().Version(), body["profile_version"])
}

func TestProfileEndpoint(t *testing.T) {
	_, h := newTestServer(t, config.ServerConfig{})

	rr := do(t, h, http.MethodGet, "/profile", "")
	require.Equal(t, http.StatusOK, rr.Code)

	var body map[string]any
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&body))
	assert.Equal(t, profile.Default().Version, body["version"])
	assert.Equal(t, "embedded", body["source"])
	assert.Contains(t, body, "loaded_at")
}

func TestScoreEndpoint_SingleRecord(t *testing.T) {
	s, h := newTestServer(t, config.ServerConfig{})

	rr := do(t, h, http.MethodPost, "/score", climateRecord)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var res model.ScoringResult
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&res))
	assert.True(t, res.Qualified)
	assert.True(t, strings.HasPrefix(res.ID, "rfp-"))
	assert.Equal(t, s.holder.Engine().Version(), res.ConfigVersion)
	assert.Equal(t, "Nordics", res.Market)
	assert.Greater(t, res.RelevanceScore, 0.0)
	assert.LessOrEqual(t, res.RelevanceScore, 100.0)
	require.NotNil(t, res.DaysLeft)
	assert.Equal(t, 121, *res.DaysLeft)
}

func TestScoreEndpoint_Array(t *testing.T) {
	_, h := newTestServer(t, config.ServerConfig{})

	rr := do(t, h, http.MethodPost, "/score", "["+climateRecord+","+cateringRecord+"]")
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var res []model.ScoringResult
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&res))
	require.Len(t, res, 2)
	assert.True(t, res[0].Qualified)
	assert.False(t, res[1].Qualified)
	assert.Equal(t, model.WinNotApplicable, res[1].WinState)
	assert.NotEmpty(t, res[1].DisqualificationReason)
}

func TestScoreEndpoint_AtParameter(t *testing.T) {
	_, h := newTestServer(t, config.ServerConfig{})

	rr := do(t, h, http.MethodPost, "/score?at=2026-06-25", climateRecord)
	require.Equal(t, http.StatusOK, rr.Code)

	var res model.ScoringResult
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&res))
	require.NotNil(t, res.DaysLeft)
	assert.Equal(t, 5, *res.DaysLeft)
	assert.Equal(t, model.DeadlineUrgent, res.DeadlineStatus)
}

func TestScoreEndpoint_BadRequests(t *testing.T) {
	_, h := newTestServer(t, config.ServerConfig{})

	tests := []struct {
		name   string
		target string
		body   string
		want   string
	}{
		{"invalid json", "/score", `{"title": `, "invalid request body"},
		{"empty body", "/score", "", "invalid request body"},
		{"empty array", "/score", "[]", "no records"},
		{"missing fields", "/score", `{"title": "Climate plan", "country": "SE"}`, "records missing required fields"},
		{"bad at", "/score?at=01.03.2026", climateRecord, "invalid at"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := do(t, h, http.MethodPost, tt.target, tt.body)
			assert.Equal(t, http.StatusBadRequest, rr.Code)
			assert.Contains(t, rr.Body.String(), tt.want)
		})
	}
}

func TestScoreEndpoint_MissingFieldsListsRows(t *testing.T) {
	_, h := newTestServer(t, config.ServerConfig{})

	rr := do(t, h, http.MethodPost, "/score", "["+climateRecord+`,{"title": "No entity", "description": "x", "country": "SE"}]`)
	require.Equal(t, http.StatusBadRequest, rr.Code)

	var body scoreError
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&body))
	require.Len(t, body.Skipped, 1)
	assert.Equal(t, 2, body.Skipped[0].Row)
	assert.Contains(t, body.Skipped[0].Reason, "issuing_entity")
}

func TestScoreEndpoint_RecordsForDigest(t *testing.T) {
	s, h := newTestServer(t, config.ServerConfig{})
	s.recorder = monitoring.NewRecorder()

	rr := do(t, h, http.MethodPost, "/score", "["+climateRecord+","+cateringRecord+"]")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, 2, s.recorder.Len())
}

func TestMethodNotAllowed(t *testing.T) {
	_, h := newTestServer(t, config.ServerConfig{})

	rr := do(t, h, http.MethodGet, "/score", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}

func TestRateLimit(t *testing.T) {
	_, h := newTestServer(t, config.ServerConfig{RateLimit: 0.001, RateBurst: 1})

	assert.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/profile", "").Code)

	rr := do(t, h, http.MethodGet, "/profile", "")
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.Equal(t, "1", rr.Header().Get("Retry-After"))

	// Health checks are not rate limited.
	assert.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/health", "").Code)
}

func TestCORSPreflight(t *testing.T) {
	_, h := newTestServer(t, config.ServerConfig{})

	req := httptest.NewRequest(http.MethodOptions, "/score", nil)
	req.Header.Set("Origin", "https://dashboard.example.org")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	assert.Equal(t, "*", rr.Header().Get("Access-Control-Allow-Origin"))
}

func TestMetricsEndpoint(t *testing.T) {
	_, h := newTestServer(t, config.ServerConfig{})

	require.Equal(t, http.StatusOK, do(t, h, http.MethodPost, "/score", climateRecord).Code)

	rr := do(t, h, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rr.Code)
	body := rr.Body.String()
	assert.Contains(t, body, `rfp_scorer_http_requests_total{endpoint="/score",method="POST",status_code="200"} 1`)
	assert.Contains(t, body, `rfp_scorer_records_scored_total`)
}

func TestServerReload(t *testing.T) {
	s, h := newTestServer(t, config.ServerConfig{})
	original := s.holder.Engine().Version()

	p := profile.Default()
	data, err := p.YAML()
	require.NoError(t, err)
	doc := strings.Replace(string(data), "version: "+p.Version, "version: 2026.11-reloaded", 1)
	path := filepath.Join(t.TempDir(), "profile.yaml")
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	s.profilePath = path
	require.NoError(t, s.reload())
	assert.Equal(t, "2026.11-reloaded", s.holder.Engine().Version())

	rr := do(t, h, http.MethodGet, "/health", "")
	assert.Contains(t, rr.Body.String(), "2026.11-reloaded")

	// A broken profile is rejected and the reloaded engine stays.
	require.NoError(t, os.WriteFile(path, []byte("version: broken\n"), 0o644))
	assert.Error(t, s.reload())
	assert.Equal(t, "2026.11-reloaded", s.holder.Engine().Version())
	assert.NotEqual(t, original, s.holder.Engine().Version())
}
