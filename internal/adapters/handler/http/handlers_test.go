package http_test

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	adapterHTTP "github.com/comitanigiacomo/kanso-analytics-engine/internal/adapters/handler/http"
	"github.com/comitanigiacomo/kanso-analytics-engine/internal/adapters/handler/http/middleware"
	"github.com/comitanigiacomo/kanso-analytics-engine/internal/adapters/repository"
	"github.com/comitanigiacomo/kanso-analytics-engine/internal/core/domain"
	"github.com/comitanigiacomo/kanso-analytics-engine/internal/core/services"
	"github.com/comitanigiacomo/kanso-analytics-engine/internal/core/workers"
)

type testEnv struct {
	router     *gin.Engine
	analytics  *repository.InMemoryAnalyticsRepository
	entities   *repository.InMemoryEntityRepository
	categories *repository.InMemoryCategoryRepository
	worker     *workers.AnalyticsWorker
	now        time.Time
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	env := &testEnv{
		analytics:  repository.NewInMemoryAnalyticsRepository(),
		entities:   repository.NewInMemoryEntityRepository(),
		categories: repository.NewInMemoryCategoryRepository(),
		now:        time.Date(2026, time.March, 10, 9, 0, 0, 0, time.UTC),
	}
	clock := func() time.Time { return env.now }

	analyticsSvc := services.NewAnalyticsService(env.analytics, env.entities, env.categories, nil, services.AnalyticsOptions{})
	analyticsSvc.SetClock(clock)

	env.worker = workers.NewAnalyticsWorker(analyticsSvc, nil, 10)
	completionSvc := services.NewCompletionService(env.entities, env.worker, nil, time.UTC)
	completionSvc.SetClock(clock)

	scheduler := workers.NewResetScheduler(analyticsSvc, env.entities, nil, nil, workers.ResetSchedulerOptions{WeekStart: time.Monday})
	scheduler.SetClock(clock)

	r := gin.New()
	r.Use(func(c *gin.Context) {
		if userID := c.GetHeader("X-User-ID"); userID != "" {
			c.Set(middleware.ContextUserIDKey, userID)
		}
		c.Next()
	})

	api := r.Group("/api/v1")
	adapterHTTP.NewAnalyticsHandler(analyticsSvc).RegisterRoutes(api)
	adapterHTTP.NewCompletionHandler(completionSvc).RegisterRoutes(api)
	adapterHTTP.NewAdminHandler(scheduler).RegisterRoutes(api.Group("/admin"))

	env.router = r
	return env
}

func (e *testEnv) do(method, path, userID string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req, _ := http.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		req.Header.Set("X-User-ID", userID)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decodeRecord(t *testing.T, w *httptest.ResponseRecorder) domain.AnalyticsRecord {
	t.Helper()
	var record domain.AnalyticsRecord
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &record))
	return record
}

func TestAnalyticsHandler_Get(t *testing.T) {
	t.Run("Success: First access returns an empty record", func(t *testing.T) {
		env := setupTestEnv(t)

		w := env.do(http.MethodGet, "/api/v1/analytics", "u1", nil)

		assert.Equal(t, http.StatusOK, w.Code)
		record := decodeRecord(t, w)
		assert.Equal(t, "u1", record.UserID)
		assert.Equal(t, domain.SchemaVersion, record.SchemaVersion)
		assert.Zero(t, record.Completions.Yearly.Total)
	})

	t.Run("Fail: Missing user context", func(t *testing.T) {
		env := setupTestEnv(t)

		w := env.do(http.MethodGet, "/api/v1/analytics", "", nil)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})
}

func TestAnalyticsHandler_Track(t *testing.T) {
	t.Run("Success: Tracks a habit completion with its category", func(t *testing.T) {
		env := setupTestEnv(t)
		categoryID := "c1"
		env.categories.Add(&domain.Category{ID: categoryID, UserID: "u1", Name: "Health"})
		env.entities.Add(&domain.Entity{ID: "h1", UserID: "u1", Kind: domain.KindHabit, Name: "Water", CategoryID: &categoryID, Version: 1})

		w := env.do(http.MethodPost, "/api/v1/analytics/track", "u1", gin.H{"kind": "habit", "entity_id": "h1"})

		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		record := decodeRecord(t, w)
		assert.Equal(t, 1, record.Completions.Daily.Habits)
		assert.Equal(t, 1, record.Streaks.Longest.Daily.Streak)
		require.NotNil(t, record.Categories.Favorite)
		assert.Equal(t, "Health", record.Categories.Favorite.Name)
	})

	tests := []struct {
		name     string
		userID   string
		body     gin.H
		wantCode int
	}{
		{name: "Fail: Missing fields", userID: "u1", body: gin.H{"kind": "habit"}, wantCode: http.StatusBadRequest},
		{name: "Fail: Invalid kind", userID: "u1", body: gin.H{"kind": "chore", "entity_id": "h1"}, wantCode: http.StatusBadRequest},
		{name: "Fail: Unknown entity", userID: "u1", body: gin.H{"kind": "task", "entity_id": "h1"}, wantCode: http.StatusNotFound},
		{name: "Fail: Someone else's entity", userID: "u2", body: gin.H{"kind": "habit", "entity_id": "h1"}, wantCode: http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := setupTestEnv(t)
			env.entities.Add(&domain.Entity{ID: "h1", UserID: "u1", Kind: domain.KindHabit, Name: "Water", Version: 1})

			w := env.do(http.MethodPost, "/api/v1/analytics/track", tt.userID, tt.body)

			assert.Equal(t, tt.wantCode, w.Code, w.Body.String())
		})
	}
}

func TestCompletionHandler_Complete(t *testing.T) {
	t.Run("Success: Completes the entity and queues analytics", func(t *testing.T) {
		env := setupTestEnv(t)
		env.entities.Add(&domain.Entity{ID: "t1", UserID: "u1", Kind: domain.KindTask, Name: "Taxes", Version: 1})

		w := env.do(http.MethodPost, "/api/v1/completions", "u1", gin.H{"kind": "task", "entity_id": "t1"})

		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		var entity domain.Entity
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &entity))
		assert.True(t, entity.IsCompletedToday)
		assert.Equal(t, 1, env.worker.Pending())

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		env.worker.Start(ctx)
		env.worker.Wait()

		w = env.do(http.MethodGet, "/api/v1/analytics", "u1", nil)
		record := decodeRecord(t, w)
		assert.Equal(t, 1, record.Completions.Daily.Tasks)
	})

	t.Run("Fail: Unknown entity", func(t *testing.T) {
		env := setupTestEnv(t)

		w := env.do(http.MethodPost, "/api/v1/completions", "u1", gin.H{"kind": "routine", "entity_id": "nope"})

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Zero(t, env.worker.Pending())
	})

	t.Run("Fail: Malformed body", func(t *testing.T) {
		env := setupTestEnv(t)

		req, _ := http.NewRequest(http.MethodPost, "/api/v1/completions", bytes.NewBufferString("{"))
		req.Header.Set("X-User-ID", "u1")
		w := httptest.NewRecorder()
		env.router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestAdminHandler_Reset(t *testing.T) {
	t.Run("Success: Daily reset clears daily counters only", func(t *testing.T) {
		env := setupTestEnv(t)
		env.entities.Add(&domain.Entity{ID: "h1", UserID: "u1", Kind: domain.KindHabit, Name: "Water", Version: 1})
		require.Equal(t, http.StatusOK, env.do(http.MethodPost, "/api/v1/analytics/track", "u1", gin.H{"kind": "habit", "entity_id": "h1"}).Code)

		w := env.do(http.MethodPost, "/api/v1/admin/analytics/reset/daily", "", nil)

		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		var result domain.ResetResult
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
		assert.True(t, result.Success)
		assert.Equal(t, domain.CadenceDaily, result.Period)
		assert.Equal(t, 1, result.Processed)

		record, err := env.analytics.Get(context.Background(), "u1")
		require.NoError(t, err)
		assert.Zero(t, record.Completions.Daily.Total)
		assert.Equal(t, 1, record.Completions.Weekly.Total)
	})

	t.Run("Fail: Unknown period", func(t *testing.T) {
		env := setupTestEnv(t)

		w := env.do(http.MethodPost, "/api/v1/admin/analytics/reset/yearly", "", nil)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}
