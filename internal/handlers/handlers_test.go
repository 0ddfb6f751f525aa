package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/analyticsPapy/trainlytics-app/internal/config"
	"github.com/analyticsPapy/trainlytics-app/internal/middleware"
	"github.com/analyticsPapy/trainlytics-app/internal/models"
	"github.com/analyticsPapy/trainlytics-app/internal/providers"
	"github.com/analyticsPapy/trainlytics-app/internal/services"
	"github.com/analyticsPapy/trainlytics-app/internal/store"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testEnv struct {
	router *gin.Engine
	store  *store.Store
	userID string
}

type nopRecorder struct{}

func (nopRecorder) RecordOAuthFlow(provider, stage, outcome string)                           {}
func (nopRecorder) RecordSync(provider, status string, duration time.Duration, imported int) {}

// newTestEnv wires the full route table over an in-memory store. Auth is
// replaced with a middleware that injects a fixed user, so these tests
// exercise handlers and services, not token parsing.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	s, err := store.New("sqlite", ":memory:")
	require.NoError(t, err)

	cfg := &config.Config{
		FrontendURL:        "http://localhost:3000",
		OAuthStateTTL:      10 * time.Minute,
		SyncTimeout:        time.Minute,
		SyncAbandonedAfter: 30 * time.Minute,
		SyncLookback:       90 * 24 * time.Hour,
		SyncMaxActivities:  500,
	}

	registry := providers.NewRegistry(providers.NewGarmin())

	connections := services.NewConnectionService(s)
	sync := services.NewSyncService(s, registry, cfg, nopRecorder{})
	oauth := services.NewOAuthService(s, registry, cfg, nopRecorder{})
	activities := services.NewActivityService(s)
	workouts := services.NewWorkoutService(s)
	users := services.NewUserService(s)

	userID := uuid.New().String()
	_, err = users.Ensure(userID, "athlete@example.com")
	require.NoError(t, err)

	auth := func(c *gin.Context) {
		c.Set(middleware.ContextUserID, userID)
		c.Next()
	}

	ph := NewProvidersHandler(connections, sync)
	oh := NewOAuthHandler(oauth)
	ah := NewActivitiesHandler(activities)
	wh := NewWorkoutsHandler(workouts)
	uh := NewUsersHandler(users)
	hh := NewHealthHandler(s)

	r := gin.New()
	r.GET("/health", hh.Health)
	api := r.Group("/api")
	{
		api.GET("/providers/available", ph.Available)
		api.GET("/oauth/callback", oh.Callback)
		api.POST("/oauth/callback", oh.Callback)
		api.POST("/oauth/init", auth, oh.Init)

		conns := api.Group("/providers", auth)
		{
			conns.GET("/connections", ph.ListConnections)
			conns.GET("/connections/:id", ph.GetConnection)
			conns.DELETE("/connections/:id", ph.DeleteConnection)
			conns.PATCH("/connections/:id/toggle", ph.ToggleConnection)
			conns.GET("/connections/provider/:provider", ph.GetConnectionByProvider)
			conns.POST("/connections/:id/sync", ph.TriggerSync)
			conns.GET("/connections/:id/sync-history", ph.SyncHistory)
			conns.GET("/connections/:id/sync-status", ph.SyncStatus)
			conns.GET("/summary", ph.Summary)
		}

		acts := api.Group("/activities", auth)
		{
			acts.GET("", ah.List)
			acts.POST("", ah.Create)
			acts.GET("/stats/summary", ah.Stats)
			acts.GET("/:id", ah.Get)
			acts.PATCH("/:id", ah.Update)
			acts.DELETE("/:id", ah.Delete)
		}

		wkts := api.Group("/workouts", auth)
		{
			wkts.GET("", wh.List)
			wkts.POST("", wh.Create)
			wkts.GET("/:id", wh.Get)
			wkts.PATCH("/:id", wh.Update)
			wkts.DELETE("/:id", wh.Delete)
			wkts.POST("/:id/complete", wh.Complete)
		}

		user := api.Group("/users", auth)
		{
			user.GET("/me", uh.Me)
			user.PATCH("/me", uh.UpdateMe)
		}
	}

	return &testEnv{router: r, store: s, userID: userID}
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *testEnv) seedConnection(t *testing.T, provider string, active bool) *models.ProviderConnection {
	t.Helper()
	conn, err := e.store.UpsertConnection(store.UpsertConnectionParams{
		UserID:         e.userID,
		Provider:       provider,
		ProviderUserID: "remote-" + provider,
		AccessToken:    "access",
		RefreshToken:   "refresh",
		TokenExpiresAt: time.Now().Add(time.Hour),
	})
	require.NoError(t, err)
	if !active {
		off := false
		conn, err = e.store.UpdateConnection(conn.ID, e.userID, store.ConnectionPatch{IsActive: &off})
		require.NoError(t, err)
	}
	return conn
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestHealthEndpoint(t *testing.T) {
	env := newTestEnv(t)
	w := env.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAvailableProviders(t *testing.T) {
	env := newTestEnv(t)
	w := env.do(t, http.MethodGet, "/api/providers/available", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Providers []providers.CatalogEntry `json:"providers"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Providers, 6)

	byID := map[string]providers.CatalogEntry{}
	for _, p := range body.Providers {
		byID[p.ID] = p
	}
	assert.True(t, byID["strava"].Implemented)
	assert.False(t, byID["garmin"].Implemented)
	assert.Equal(t, "OAuth 1.0a", byID["garmin"].OAuthType)
}

func TestActivityLifecycleOverHTTP(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/api/activities", gin.H{
		"activity_type": "run",
		"activity_name": "Morning Run",
		"start_time":    time.Now().Add(-time.Hour).Format(time.RFC3339),
		"duration":      3600,
		"distance":      10000,
	})
	require.Equal(t, http.StatusCreated, w.Code)
	created := decodeBody(t, w)
	id := created["id"].(string)
	require.NotEmpty(t, id)

	w = env.do(t, http.MethodGet, "/api/activities", nil)
	require.Equal(t, http.StatusOK, w.Code)
	list := decodeBody(t, w)
	assert.EqualValues(t, 1, list["total"])

	w = env.do(t, http.MethodPatch, "/api/activities/"+id, gin.H{
		"activity_name": "Renamed",
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Renamed", decodeBody(t, w)["activity_name"])

	w = env.do(t, http.MethodGet, "/api/activities/stats/summary", nil)
	require.Equal(t, http.StatusOK, w.Code)
	stats := decodeBody(t, w)
	assert.EqualValues(t, 1, stats["total_activities"])
	assert.EqualValues(t, 10000, stats["total_distance_meters"])

	w = env.do(t, http.MethodDelete, "/api/activities/"+id, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodGet, "/api/activities/"+id, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "not_found", decodeBody(t, w)["error"])
}

func TestActivityCreateValidation(t *testing.T) {
	env := newTestEnv(t)

	// Missing required fields is caught by binding
	w := env.do(t, http.MethodPost, "/api/activities", gin.H{
		"activity_name": "incomplete",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "validation_error", decodeBody(t, w)["error"])

	// End before start is caught by the service
	start := time.Now()
	w = env.do(t, http.MethodPost, "/api/activities", gin.H{
		"activity_type": "run",
		"start_time":    start.Format(time.RFC3339),
		"end_time":      start.Add(-time.Hour).Format(time.RFC3339),
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "validation_error", decodeBody(t, w)["error"])
}

func TestActivityListBadDateFilter(t *testing.T) {
	env := newTestEnv(t)
	w := env.do(t, http.MethodGet, "/api/activities?start_date=yesterday", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestConnectionEndpoints(t *testing.T) {
	env := newTestEnv(t)
	conn := env.seedConnection(t, models.ProviderStrava, true)

	w := env.do(t, http.MethodGet, "/api/providers/connections", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, decodeBody(t, w)["total"])

	// Tokens never appear in responses
	assert.NotContains(t, w.Body.String(), "access")
	assert.NotContains(t, w.Body.String(), "refresh")

	w = env.do(t, http.MethodGet, "/api/providers/connections/provider/strava", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodGet, "/api/providers/connections/provider/pelotonia", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "unknown_provider", decodeBody(t, w)["error"])

	// toggle requires the target state
	w = env.do(t, http.MethodPatch, "/api/providers/connections/"+conn.ID+"/toggle", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodPatch, "/api/providers/connections/"+conn.ID+"/toggle?is_active=false", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, decodeBody(t, w)["is_active"])

	w = env.do(t, http.MethodGet, "/api/providers/summary", nil)
	require.Equal(t, http.StatusOK, w.Code)
	summary := decodeBody(t, w)
	assert.EqualValues(t, 1, summary["total_connections"])
	assert.EqualValues(t, 0, summary["active_connections"])

	w = env.do(t, http.MethodDelete, "/api/providers/connections/"+conn.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodGet, "/api/providers/connections/"+conn.ID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSyncEndpointErrors(t *testing.T) {
	env := newTestEnv(t)

	// Unknown connection
	w := env.do(t, http.MethodPost, "/api/providers/connections/"+uuid.New().String()+"/sync", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	// Inactive connection
	inactive := env.seedConnection(t, models.ProviderStrava, false)
	w = env.do(t, http.MethodPost, "/api/providers/connections/"+inactive.ID+"/sync", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "connection_inactive", decodeBody(t, w)["error"])

	// Provider without a working integration
	garmin := env.seedConnection(t, models.ProviderGarmin, true)
	w = env.do(t, http.MethodPost, "/api/providers/connections/"+garmin.ID+"/sync", nil)
	assert.Equal(t, http.StatusNotImplemented, w.Code)
	assert.Equal(t, "provider_not_implemented", decodeBody(t, w)["error"])
}

func TestSyncHistoryAndStatusEndpoints(t *testing.T) {
	env := newTestEnv(t)
	conn := env.seedConnection(t, models.ProviderStrava, true)

	syncID, err := env.store.StartSync(conn.ID)
	require.NoError(t, err)
	_, err = env.store.CompleteSync(syncID, models.SyncStatusSuccess, models.SyncCounts{Fetched: 3, Created: 3}, nil, "{}")
	require.NoError(t, err)

	w := env.do(t, http.MethodGet, "/api/providers/connections/"+conn.ID+"/sync-history", nil)
	require.Equal(t, http.StatusOK, w.Code)
	history := decodeBody(t, w)
	assert.EqualValues(t, 1, history["total_records"])

	w = env.do(t, http.MethodGet, "/api/providers/connections/"+conn.ID+"/sync-status", nil)
	require.Equal(t, http.StatusOK, w.Code)
	status := decodeBody(t, w)
	require.NotNil(t, status["latest_sync"])
	latest := status["latest_sync"].(map[string]any)
	assert.Equal(t, "success", latest["sync_status"])
}

func TestOAuthInitErrors(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/api/oauth/init", gin.H{"provider": "pelotonia"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "unknown_provider", decodeBody(t, w)["error"])

	// Known but no working integration registered
	w = env.do(t, http.MethodPost, "/api/oauth/init", gin.H{"provider": "polar"})
	assert.Equal(t, http.StatusNotImplemented, w.Code)
	assert.Equal(t, "provider_not_implemented", decodeBody(t, w)["error"])

	w = env.do(t, http.MethodPost, "/api/oauth/init", gin.H{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestOAuthCallbackErrors(t *testing.T) {
	env := newTestEnv(t)

	// Missing parameters
	w := env.do(t, http.MethodGet, "/api/oauth/callback", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// A state that was never issued is invalid, same as a consumed or
	// expired one
	w = env.do(t, http.MethodGet, "/api/oauth/callback?code=abc&state=nope", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid_state", decodeBody(t, w)["error"])

	// Bogus provider hint
	w = env.do(t, http.MethodGet, "/api/oauth/callback?code=abc&state=nope&provider=pelotonia", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "unknown_provider", decodeBody(t, w)["error"])
}

func TestWorkoutEndpoints(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/api/workouts", gin.H{
		"workout_name": "Track Session",
		"workout_type": "interval",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	workoutID := decodeBody(t, w)["id"].(string)

	// Link a real activity on completion
	w = env.do(t, http.MethodPost, "/api/activities", gin.H{
		"activity_type": "run",
		"start_time":    time.Now().Format(time.RFC3339),
	})
	require.Equal(t, http.StatusCreated, w.Code)
	activityID := decodeBody(t, w)["id"].(string)

	w = env.do(t, http.MethodPost, "/api/workouts/"+workoutID+"/complete", gin.H{
		"activity_id": activityID,
	})
	require.Equal(t, http.StatusOK, w.Code)
	done := decodeBody(t, w)
	assert.NotNil(t, done["completed_at"])
	assert.Equal(t, activityID, done["activity_id"])

	w = env.do(t, http.MethodGet, "/api/workouts?completed=true", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, decodeBody(t, w)["total"])

	w = env.do(t, http.MethodDelete, "/api/workouts/"+workoutID, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestUserProfileEndpoints(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/api/users/me", nil)
	require.Equal(t, http.StatusOK, w.Code)
	me := decodeBody(t, w)
	assert.Equal(t, "athlete@example.com", me["email"])
	assert.Equal(t, "athlete", me["user_type"])

	w = env.do(t, http.MethodPatch, "/api/users/me", gin.H{
		"full_name": "Jo Runner",
		"user_type": "coach",
	})
	require.Equal(t, http.StatusOK, w.Code)
	updated := decodeBody(t, w)
	assert.Equal(t, "Jo Runner", updated["full_name"])
	assert.Equal(t, "coach", updated["user_type"])

	w = env.do(t, http.MethodPatch, "/api/users/me", gin.H{"user_type": "wizard"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
