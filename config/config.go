package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the overall application configuration.
type Config struct {
	Backend  BackendConfig  `yaml:"backend"`
	Database DatabaseConfig `yaml:"database"`
	Executor ExecutorConfig `yaml:"executor"`
	Pump     PumpConfig     `yaml:"pump"`
	Ledger   LedgerConfig   `yaml:"ledger"`
	Server   ServerConfig   `yaml:"server"`
	Log      LogConfig      `yaml:"log"`
}

// BackendConfig holds the remote smart-garden backend connection settings.
type BackendConfig struct {
	BaseURL        string `yaml:"base_url"`
	Email          string `yaml:"email"`
	Password       string `yaml:"password"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// DatabaseConfig holds the local database connection configuration.
type DatabaseConfig struct {
	Driver                 string `yaml:"driver"`
	DSN                    string `yaml:"dsn"`
	MaxOpenConns           int    `yaml:"max_open_conns"`
	MaxIdleConns           int    `yaml:"max_idle_conns"`
	ConnMaxLifetimeMinutes int    `yaml:"conn_max_lifetime_minutes"`
}

// ExecutorConfig holds the schedule execution loop settings.
type ExecutorConfig struct {
	PollIntervalSeconds      int           `yaml:"poll_interval_seconds"`
	PollInterval             time.Duration `yaml:"-"`
	MarginMinutes            int           `yaml:"margin_minutes"`
	Margin                   time.Duration `yaml:"-"`
	HeartbeatIntervalSeconds int           `yaml:"heartbeat_interval_seconds"`
	HeartbeatInterval        time.Duration `yaml:"-"`
	CooldownSeconds          int           `yaml:"cooldown_seconds"`
	Cooldown                 time.Duration `yaml:"-"`
}

// PumpConfig holds the water pump calibration and wiring.
type PumpConfig struct {
	Chip        string  `yaml:"chip"`
	Pin         int     `yaml:"pin"`
	MlPerSecond float64 `yaml:"ml_per_second"`
}

// LedgerConfig holds retention settings for the activation history.
type LedgerConfig struct {
	RetentionDays int `yaml:"retention_days"`
}

// ServerConfig holds the optional local status API settings.
type ServerConfig struct {
	Enabled         bool    `yaml:"enabled"`
	Port            int     `yaml:"port"`
	RateLimitPerSec float64 `yaml:"rate_limit_per_sec"`
	CacheTTLSeconds int     `yaml:"cache_ttl_seconds"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `yaml:"level"`
	Pretty bool   `yaml:"pretty"`
}

// Load reads the configuration from the given path.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var cfg Config
	decoder := yaml.NewDecoder(f)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, err
	}

	if cfg.Backend.TimeoutSeconds <= 0 {
		cfg.Backend.TimeoutSeconds = 30
	}

	if cfg.Database.Driver == "" {
		cfg.Database.Driver = "sqlite"
	}
	if cfg.Database.DSN == "" {
		cfg.Database.DSN = "garden.sqlite3"
	}

	if cfg.Executor.PollIntervalSeconds <= 0 {
		cfg.Executor.PollIntervalSeconds = 5
	}
	if cfg.Executor.MarginMinutes <= 0 {
		cfg.Executor.MarginMinutes = 60
	}
	if cfg.Executor.HeartbeatIntervalSeconds <= 0 {
		cfg.Executor.HeartbeatIntervalSeconds = 60
	}
	if cfg.Executor.CooldownSeconds <= 0 {
		cfg.Executor.CooldownSeconds = 60
	}
	cfg.Executor.PollInterval = time.Duration(cfg.Executor.PollIntervalSeconds) * time.Second
	cfg.Executor.Margin = time.Duration(cfg.Executor.MarginMinutes) * time.Minute
	cfg.Executor.HeartbeatInterval = time.Duration(cfg.Executor.HeartbeatIntervalSeconds) * time.Second
	cfg.Executor.Cooldown = time.Duration(cfg.Executor.CooldownSeconds) * time.Second

	// A margin shorter than the poll interval would let the loop sleep
	// straight past a firing window, silently skipping legitimate slots.
	if cfg.Executor.Margin <= cfg.Executor.PollInterval {
		return nil, fmt.Errorf("executor margin (%s) must be greater than the poll interval (%s)",
			cfg.Executor.Margin, cfg.Executor.PollInterval)
	}

	if cfg.Pump.Chip == "" {
		cfg.Pump.Chip = "gpiochip0"
	}
	if cfg.Pump.Pin <= 0 {
		cfg.Pump.Pin = 21
	}
	if cfg.Pump.MlPerSecond == 0 {
		cfg.Pump.MlPerSecond = 18
	}
	if cfg.Pump.MlPerSecond < 0 {
		return nil, fmt.Errorf("pump ml_per_second must be positive, got %v", cfg.Pump.MlPerSecond)
	}

	if cfg.Ledger.RetentionDays <= 0 {
		cfg.Ledger.RetentionDays = 90
	}

	if cfg.Server.Port <= 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.RateLimitPerSec <= 0 {
		cfg.Server.RateLimitPerSec = 5
	}
	if cfg.Server.CacheTTLSeconds <= 0 {
		cfg.Server.CacheTTLSeconds = 5
	}

	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}

	return &cfg, nil
}
