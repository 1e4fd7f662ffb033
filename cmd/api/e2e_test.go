package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/comitanigiacomo/kanso-analytics-engine/internal/adapters/repository"
	"github.com/comitanigiacomo/kanso-analytics-engine/internal/config"
	"github.com/comitanigiacomo/kanso-analytics-engine/internal/core/domain"
	"github.com/comitanigiacomo/kanso-analytics-engine/internal/platform/logger"
)

func setupTestApp(t *testing.T) *app {
	t.Helper()
	gin.SetMode(gin.TestMode)

	t.Setenv("JWT_SECRET", "e2e-secret")
	t.Setenv("DB_DRIVER", "memory")
	t.Setenv("REDIS_ENABLED", "false")
	t.Setenv("ADMIN_API_KEY", "e2e-admin")
	t.Setenv(config.ConfigPathEnvVar, "")

	cfg, err := config.Load()
	require.NoError(t, err)

	a, err := buildApp(context.Background(), cfg, logger.NewNop())
	require.NoError(t, err)
	t.Cleanup(a.Close)
	return a
}

func TestEndToEnd_CompletionLifecycle(t *testing.T) {
	a := setupTestApp(t)

	users, ok := a.stores.users.(*repository.InMemoryUserRepository)
	require.True(t, ok)
	users.Add(&domain.User{ID: "e2e-tester-1", Email: "e2e@kanso.app"})

	entities, ok := a.stores.entities.(*repository.InMemoryEntityRepository)
	require.True(t, ok)
	entities.Add(&domain.Entity{ID: "run", UserID: "e2e-tester-1", Kind: domain.KindHabit, Name: "Morning Run", Cadence: domain.CadenceDaily})
	entities.Add(&domain.Entity{ID: "taxes", UserID: "e2e-tester-1", Kind: domain.KindTask, Name: "Taxes"})

	token, err := a.tokens.GenerateToken("e2e-tester-1")
	require.NoError(t, err)

	call := func(method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
		req, _ := http.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
		for k, v := range headers {
			req.Header.Set(k, v)
		}
		w := httptest.NewRecorder()
		a.router.ServeHTTP(w, req)
		return w
	}
	bearer := map[string]string{"Authorization": "Bearer " + token}

	readAnalytics := func(t *testing.T) domain.AnalyticsRecord {
		w := call(http.MethodGet, "/api/v1/analytics", "", bearer)
		require.Equal(t, http.StatusOK, w.Code)
		var record domain.AnalyticsRecord
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &record))
		return record
	}

	t.Run("1. Complete Habit", func(t *testing.T) {
		w := call(http.MethodPost, "/api/v1/completions", `{"kind": "habit", "entity_id": "run"}`, bearer)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"current_streak":1`)
		assert.Equal(t, 1, a.worker.Pending())
	})

	t.Run("2. Drain Analytics Queue", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		a.worker.Start(ctx)
		a.worker.Wait()

		record := readAnalytics(t)
		assert.Equal(t, 1, record.Completions.Daily.Habits)
		assert.Equal(t, 1, record.Streaks.Longest.Daily.Streak)
		assert.Equal(t, "Morning Run", record.Streaks.Longest.Daily.DisplayName)
	})

	t.Run("3. Track Task Synchronously", func(t *testing.T) {
		w := call(http.MethodPost, "/api/v1/analytics/track", `{"kind": "task", "entity_id": "taxes"}`, bearer)

		require.Equal(t, http.StatusOK, w.Code)
		record := readAnalytics(t)
		assert.Equal(t, 1, record.Completions.Daily.Tasks)
		assert.Equal(t, 2, record.Completions.Yearly.Total)
	})

	t.Run("4. Daily Reset", func(t *testing.T) {
		w := call(http.MethodPost, "/api/v1/admin/analytics/reset/daily", "", map[string]string{"X-Admin-Key": "e2e-admin"})

		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.Contains(t, w.Body.String(), `"success":true`)

		record := readAnalytics(t)
		assert.Zero(t, record.Completions.Daily.Total)
		assert.Equal(t, 2, record.Completions.Weekly.Total)
		assert.Equal(t, 2, record.Completions.Yearly.Total)
		assert.Equal(t, 1, record.Streaks.Longest.Daily.Streak)
	})

	t.Run("5. Validation Error", func(t *testing.T) {
		w := call(http.MethodPost, "/api/v1/completions", `{"kind": "chore", "entity_id": "run"}`, bearer)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("6. Auth Error", func(t *testing.T) {
		w := call(http.MethodGet, "/api/v1/analytics", "", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}
