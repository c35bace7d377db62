package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"garden-controller/config"
	"garden-controller/internal/api"
	"garden-controller/internal/backend"
	"garden-controller/internal/db"
	"garden-controller/internal/executor"
	"garden-controller/internal/pump"
	"garden-controller/internal/schedule"
	"garden-controller/internal/store"
)

func main() {
	// Load configuration
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./config/config.yaml" // Default path for local development
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration from %s: %v\n", configPath, err)
		os.Exit(1)
	}

	logger := newLogger(&cfg.Log)
	logger.Info().Str("path", configPath).Msg("configuration loaded")

	// Initialize database
	gormDB, err := db.Init(&cfg.Database)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize database")
	}
	logger.Info().Str("driver", cfg.Database.Driver).Msg("database initialized")

	circuitCache := store.NewCircuitCache(gormDB)
	ledger := store.NewActivationLedger(gormDB)

	// Remote backend and circuit repository
	client := backend.NewClient(&cfg.Backend, logger)
	repository := schedule.NewRepository(client, circuitCache, logger)

	// Pump
	output, err := pump.NewGPIOOutput(cfg.Pump.Chip, cfg.Pump.Pin)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open pump gpio output")
	}
	controller, err := pump.NewController(output, cfg.Pump.MlPerSecond, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to construct pump controller")
	}
	defer func() {
		if err := controller.Close(); err != nil {
			logger.Warn().Err(err).Msg("failed to close pump output")
		}
	}()

	// Loops and supervisor
	status := executor.NewStatus()
	evaluator := schedule.NewEvaluator(ledger, cfg.Executor.Margin)
	loop := executor.NewLoop(repository, evaluator, ledger, controller, client, status,
		cfg.Executor.PollInterval, logger)
	heartbeat := executor.NewHeartbeat(client, status, cfg.Executor.HeartbeatInterval, logger)
	retention := time.Duration(cfg.Ledger.RetentionDays) * 24 * time.Hour
	supervisor := executor.NewSupervisor(loop, heartbeat, ledger, retention, cfg.Executor.Cooldown, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	supervisorDone := make(chan struct{})
	go func() {
		defer close(supervisorDone)
		supervisor.Run(ctx)
	}()

	// Optional local status API
	var server *http.Server
	if cfg.Server.Enabled {
		router := api.NewRouter(&cfg.Server, circuitCache, ledger, status)
		server = &http.Server{
			Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
			Handler: router,
		}
		go func() {
			logger.Info().Int("port", cfg.Server.Port).Msg("status API starting")
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Fatal().Err(err).Msg("status API ListenAndServe")
			}
		}()
	}

	// Block until a signal is received.
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	logger.Info().Msg("shutdown signal received, stopping services")

	cancel()

	if server != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("status API shutdown")
		}
	}

	<-supervisorDone
	logger.Info().Msg("controller stopped")
}

// newLogger builds the root logger every component derives from.
func newLogger(cfg *config.LogConfig) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}

	var out = os.Stdout
	logger := zerolog.New(out)
	if cfg.Pretty {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339})
	}
	return logger.Level(level).With().Timestamp().Logger()
}
