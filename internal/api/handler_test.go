package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"garden-controller/config"
	"garden-controller/internal/executor"
	"garden-controller/internal/model"
	"garden-controller/internal/schedule"
	"garden-controller/internal/store"
)

func newTestRouter(t *testing.T) (*gin.Engine, store.Cache, store.Ledger, *executor.Status) {
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&model.Circuit{},
		&model.ScheduledActivation{},
		&model.PumpActivation{},
	))

	cache := store.NewCircuitCache(db)
	ledger := store.NewActivationLedger(db)
	status := executor.NewStatus()

	cfg := &config.ServerConfig{RateLimitPerSec: 1000, CacheTTLSeconds: 1}
	return NewRouter(cfg, cache, ledger, status), cache, ledger, status
}

func get(router *gin.Engine, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	router.ServeHTTP(w, req)
	return w
}

func TestGetStatus(t *testing.T) {
	router, _, _, status := newTestRouter(t)

	w := get(router, "/api/v1/status")
	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "none", resp["lastSource"])
	assert.Nil(t, resp["lastResolvedAt"])

	status.RecordResolution(schedule.SourceRemote, time.Now())
	status.RecordHeartbeat(time.Now(), true)

	w = get(router, "/api/v1/status")
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "remote", resp["lastSource"])
	assert.NotNil(t, resp["lastResolvedAt"])
	assert.Equal(t, true, resp["lastHeartbeatOk"])
}

func TestGetCircuit(t *testing.T) {
	router, cache, _, _ := newTestRouter(t)

	w := get(router, "/api/v1/circuit")
	assert.Equal(t, http.StatusNotFound, w.Code)

	require.NoError(t, cache.Store(context.Background(), &schedule.Circuit{
		ID: 3, Name: "tomatoes", Active: true,
		Plan: []schedule.ScheduledActivation{
			{TimeOfDay: "08:00", Amount: 200, Active: true},
		},
	}))

	w = get(router, "/api/v1/circuit")
	require.Equal(t, http.StatusOK, w.Code)

	var resp circuitResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, int64(3), resp.ID)
	assert.Equal(t, "tomatoes", resp.Name)
	require.Len(t, resp.Schedule, 1)
	assert.Equal(t, "08:00", resp.Schedule[0].Time)
}

func TestGetActivations(t *testing.T) {
	router, _, ledger, _ := newTestRouter(t)
	ctx := context.Background()

	for _, ts := range []string{
		"2024-05-10T08:00:00",
		"2024-05-11T08:00:00",
		"2024-05-12T08:00:00",
	} {
		require.NoError(t, ledger.Store(ctx, schedule.PumpActivation{Timestamp: ts, Amount: 200}))
	}

	w := get(router, "/api/v1/activations?limit=2")
	require.Equal(t, http.StatusOK, w.Code)

	var resp []activationResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp, 2)
	assert.Equal(t, "2024-05-12T08:00:00", resp[0].Timestamp)
}

func TestGetActivations_InvalidLimit(t *testing.T) {
	router, _, _, _ := newTestRouter(t)

	w := get(router, "/api/v1/activations?limit=zero")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = get(router, "/api/v1/activations?limit=-3")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
