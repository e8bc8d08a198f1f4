package server

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"FitAI_V1.0/internal/auth"
	"FitAI_V1.0/internal/config"
)

func TestHealth(t *testing.T) {
	hs := newHarness(t)

	rec := hs.do(jsonRequest(http.MethodGet, "/health", ""))
	require.Equal(t, http.StatusOK, rec.Code)
	res := decode[map[string]any](t, rec.Body.Bytes())
	require.Equal(t, "online", res["status"])
	require.Equal(t, "up", res["store"].(map[string]any)["status"])
	require.Contains(t, res, "cpu")
	require.Contains(t, res, "chat_clients")

	hs.db.down = true
	rec = hs.do(jsonRequest(http.MethodGet, "/health", ""))
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	hs := newHarness(t)
	hs.do(jsonRequest(http.MethodPost, "/api/chat", `{"message": "Hi"}`))

	rec := hs.do(jsonRequest(http.MethodGet, "/metrics", ""))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "fitai_generation_calls_total")
}

func TestRequestIDIsEchoed(t *testing.T) {
	hs := newHarness(t)

	req := jsonRequest(http.MethodGet, "/health", "")
	req.Header.Set("X-Request-ID", "req-123")
	rec := hs.do(req)
	require.Equal(t, "req-123", rec.Header().Get("X-Request-ID"))

	rec = hs.do(jsonRequest(http.MethodGet, "/health", ""))
	require.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestRateLimitOnGenerationRoutes(t *testing.T) {
	hs := newHarness(t, func(c *config.Config) { c.RateLimitRPS = 1 })

	codes := make([]int, 0, 3)
	for range 3 {
		codes = append(codes, hs.do(jsonRequest(http.MethodPost, "/api/chat", `{"message": "Hi"}`)).Code)
	}
	require.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)

	// Unlimited routes are unaffected.
	rec := hs.do(jsonRequest(http.MethodPost, "/api/analyze-nutrition",
		`{"age": 30, "weight": 70, "height": 175, "activityLevel": "moderate", "goal": "maintenance"}`))
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestJwtProtectsAPI(t *testing.T) {
	const secret = "test-secret"
	hs := newHarness(t, func(c *config.Config) { c.JWTSecret = secret })

	rec := hs.do(jsonRequest(http.MethodGet, "/api/diet-history/jane@example.com", ""))
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	token, err := auth.GenerateAccessToken("u-1", "jane@example.com", "Jane", []byte(secret))
	require.NoError(t, err)

	req := jsonRequest(http.MethodGet, "/api/diet-history/jane@example.com", "")
	req.Header.Set("Authorization", "Bearer "+token)
	require.Equal(t, http.StatusOK, hs.do(req).Code)

	req = jsonRequest(http.MethodGet, "/api/diet-history/bob@example.com", "")
	req.Header.Set("Authorization", "Bearer "+token)
	require.Equal(t, http.StatusForbidden, hs.do(req).Code)

	// The email is taken from the token when the body omits it.
	req = jsonRequest(http.MethodPost, "/api/generate-diet-plan",
		`{"age": 30, "weight": 70, "height": 175, "activityLevel": "moderate", "goal": "fat loss"}`)
	req.Header.Set("Authorization", "Bearer "+token)
	require.Equal(t, http.StatusOK, hs.do(req).Code)
	require.Equal(t, "jane@example.com", hs.db.records[0].Email)

	// Health stays public.
	require.Equal(t, http.StatusOK, hs.do(jsonRequest(http.MethodGet, "/health", "")).Code)
}
