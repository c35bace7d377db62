package internal

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"garden-controller/config"
	"garden-controller/internal/backend"
	"garden-controller/internal/executor"
	"garden-controller/internal/model"
	"garden-controller/internal/pump"
	"garden-controller/internal/schedule"
	"garden-controller/internal/store"
)

// TestWateringCycle exercises the whole control path: a mock backend serves
// a circuit with one overdue recurring item, the loop resolves it, fires the
// pump exactly once across repeated cycles, records the activation in the
// local ledger and reports it to the backend.
func TestWateringCycle(t *testing.T) {
	// --- Test Setup ---

	// 1. In-memory SQLite database.
	testDB, err := gorm.Open(sqlite.Open("file:integration?mode=memory&cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, testDB.AutoMigrate(
		&model.Circuit{},
		&model.ScheduledActivation{},
		&model.PumpActivation{},
	))

	// 2. Mock backend. The plan contains one item that became due a couple
	// of minutes ago, well inside the margin.
	slotTime := time.Now().Add(-2 * time.Minute).Format("15:04")

	var mu sync.Mutex
	var logEntries []map[string]any
	var heartbeats int

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/auth/token":
			json.NewEncoder(w).Encode(map[string]string{"access": "a", "refresh": "r"})
		case "/api/circuits/mine":
			json.NewEncoder(w).Encode(map[string]any{
				"id":     1,
				"name":   "tomatoes",
				"active": true,
				"schedule": []map[string]any{
					{"time": slotTime, "amount": 200, "active": true},
				},
			})
		case "/api/circuits/mine/log":
			var entry map[string]any
			json.NewDecoder(r.Body).Decode(&entry)
			mu.Lock()
			logEntries = append(logEntries, entry)
			mu.Unlock()
		case "/api/circuits/mine/health-check":
			mu.Lock()
			heartbeats++
			mu.Unlock()
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	defer server.Close()

	// 3. Wire the controller exactly as main does, with a fake pump output.
	log := zerolog.Nop()
	client := backend.NewClient(&config.BackendConfig{
		BaseURL:        server.URL,
		Email:          "gardener@example.com",
		Password:       "secret",
		TimeoutSeconds: 5,
	}, log)

	circuitCache := store.NewCircuitCache(testDB)
	ledger := store.NewActivationLedger(testDB)
	repository := schedule.NewRepository(client, circuitCache, log)

	out := &pump.FakeOutput{}
	controller, err := pump.NewController(out, 100000, log)
	require.NoError(t, err)

	status := executor.NewStatus()
	evaluator := schedule.NewEvaluator(ledger, 60*time.Minute)
	loop := executor.NewLoop(repository, evaluator, ledger, controller, client, status,
		time.Second, log)
	heartbeat := executor.NewHeartbeat(client, status, time.Minute, log)

	ctx := context.Background()

	// --- First cycle: the slot fires. ---
	loop.RunCycle(ctx)

	var count int64
	testDB.Model(&model.PumpActivation{}).Count(&count)
	assert.Equal(t, int64(1), count)

	mu.Lock()
	assert.Len(t, logEntries, 1)
	mu.Unlock()

	require.Eventually(t, func() bool {
		seq := out.Sequence()
		return len(seq) == 2 && seq[0] == "on" && seq[1] == "off"
	}, 2*time.Second, 5*time.Millisecond)

	// The circuit was written through to the local cache.
	cached, err := circuitCache.Fetch(ctx)
	require.NoError(t, err)
	require.NotNil(t, cached)
	assert.Equal(t, "tomatoes", cached.Name)
	require.Len(t, cached.Plan, 1)

	// --- Second and third cycle: the ledger suppresses a refire. ---
	loop.RunCycle(ctx)
	loop.RunCycle(ctx)

	testDB.Model(&model.PumpActivation{}).Count(&count)
	assert.Equal(t, int64(1), count)
	mu.Lock()
	assert.Len(t, logEntries, 1)
	mu.Unlock()

	// --- Heartbeat runs independently. ---
	heartbeat.Tick(ctx)
	mu.Lock()
	assert.Equal(t, 1, heartbeats)
	mu.Unlock()

	snap := status.Snapshot()
	assert.Equal(t, schedule.SourceRemote, snap.LastSource)
	assert.True(t, snap.LastHeartbeatOK)
}

// TestOfflineFallbackCycle verifies that a backend outage degrades to the
// cached circuit and that recurring items still fire from it.
func TestOfflineFallbackCycle(t *testing.T) {
	testDB, err := gorm.Open(sqlite.Open("file:integration_offline?mode=memory&cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, testDB.AutoMigrate(
		&model.Circuit{},
		&model.ScheduledActivation{},
		&model.PumpActivation{},
	))

	circuitCache := store.NewCircuitCache(testDB)
	ledger := store.NewActivationLedger(testDB)

	// Seed the cache as a previous successful fetch would have.
	slotTime := time.Now().Add(-2 * time.Minute).Format("15:04")
	require.NoError(t, circuitCache.Store(context.Background(), &schedule.Circuit{
		ID: 1, Name: "tomatoes", Active: true,
		Plan: []schedule.ScheduledActivation{
			{TimeOfDay: slotTime, Amount: 200, Active: true},
		},
	}))

	// A backend that is down for every request.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	log := zerolog.Nop()
	client := backend.NewClient(&config.BackendConfig{
		BaseURL:        server.URL,
		Email:          "gardener@example.com",
		Password:       "secret",
		TimeoutSeconds: 1,
	}, log)
	repository := schedule.NewRepository(client, circuitCache, log)

	out := &pump.FakeOutput{}
	controller, err := pump.NewController(out, 100000, log)
	require.NoError(t, err)

	status := executor.NewStatus()
	evaluator := schedule.NewEvaluator(ledger, 60*time.Minute)
	loop := executor.NewLoop(repository, evaluator, ledger, controller, client, status,
		time.Second, log)

	loop.RunCycle(context.Background())

	// The cached plan fired even though the backend is unreachable; only
	// the execution-log write was lost.
	var count int64
	testDB.Model(&model.PumpActivation{}).Count(&count)
	assert.Equal(t, int64(1), count)
	assert.Equal(t, schedule.SourceCache, status.Snapshot().LastSource)
}
