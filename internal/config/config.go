// Package config loads farmsim settings from the environment and an
// optional .env file.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	"github.com/talgya/dairy-sim/internal/engine"
	"github.com/talgya/dairy-sim/internal/scenario"
)

// Config is the full settings surface of the farmsim binary.
type Config struct {
	Server  ServerConfig
	Storage StorageConfig
	Sim     SimConfig
	Log     LogConfig
}

// ServerConfig holds HTTP API options.
type ServerConfig struct {
	Port        int
	AdminKey    string
	RelayKey    string
	CORSOrigins string
}

// StorageConfig holds database and autosave options.
type StorageConfig struct {
	DBPath       string
	AutosaveCron string
	KeepSaves    int
}

// SimConfig holds the options a new farm starts with.
type SimConfig struct {
	Scenario     string
	Seed         int64
	Speed        float64
	AutoChores   bool
	Incidents    bool
	TickInterval time.Duration
}

// LogConfig selects the slog handler.
type LogConfig struct {
	Level  string
	Format string // text or json
}

// Load reads environment variables (optionally from envFile) and builds a
// validated Config. A missing .env file is not an error.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("load env file %s: %w", envFile, err)
		}
	} else {
		_ = godotenv.Load()
	}

	var errs []error
	cfg := &Config{
		Server: ServerConfig{
			Port:        getenvInt("FARMSIM_PORT", 8080, &errs),
			AdminKey:    os.Getenv("FARMSIM_ADMIN_KEY"),
			RelayKey:    os.Getenv("FARMSIM_RELAY_KEY"),
			CORSOrigins: os.Getenv("CORS_ORIGINS"),
		},
		Storage: StorageConfig{
			DBPath:       getenvWithDefault("FARMSIM_DB_PATH", "data/farmsim.db"),
			AutosaveCron: getenvWithDefault("FARMSIM_AUTOSAVE_CRON", "@every 5m"),
			KeepSaves:    getenvInt("FARMSIM_KEEP_SAVES", 10, &errs),
		},
		Sim: SimConfig{
			Scenario:     getenvWithDefault("FARMSIM_SCENARIO", scenario.Default),
			Seed:         int64(getenvInt("FARMSIM_SEED", 42, &errs)),
			Speed:        getenvFloat("FARMSIM_SPEED", 1, &errs),
			AutoChores:   getenvBool("FARMSIM_AUTO_CHORES", true, &errs),
			Incidents:    getenvBool("FARMSIM_INCIDENTS", true, &errs),
			TickInterval: getenvDuration("FARMSIM_TICK_INTERVAL", 100*time.Millisecond, &errs),
		},
		Log: LogConfig{
			Level:  getenvWithDefault("FARMSIM_LOG_LEVEL", "info"),
			Format: getenvWithDefault("FARMSIM_LOG_FORMAT", "text"),
		},
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate ensures every field holds a usable value.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("FARMSIM_PORT %d out of range", c.Server.Port)
	}
	if c.Storage.DBPath == "" {
		return errors.New("FARMSIM_DB_PATH must not be empty")
	}
	if _, err := cron.ParseStandard(c.Storage.AutosaveCron); err != nil {
		return fmt.Errorf("FARMSIM_AUTOSAVE_CRON: %w", err)
	}
	if c.Storage.KeepSaves < 1 {
		return errors.New("FARMSIM_KEEP_SAVES must be at least 1")
	}
	if _, err := scenario.Get(c.Sim.Scenario); err != nil {
		return fmt.Errorf("FARMSIM_SCENARIO: %w", err)
	}
	if c.Sim.Speed < engine.MinTimeScale || c.Sim.Speed > engine.MaxTimeScale {
		return fmt.Errorf("FARMSIM_SPEED %.2f outside [%.1f, %.0f]", c.Sim.Speed, engine.MinTimeScale, engine.MaxTimeScale)
	}
	if c.Sim.TickInterval <= 0 {
		return errors.New("FARMSIM_TICK_INTERVAL must be positive")
	}
	if _, err := c.Log.SlogLevel(); err != nil {
		return err
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("FARMSIM_LOG_FORMAT %q must be text or json", c.Log.Format)
	}
	return nil
}

// SlogLevel parses Level.
func (l LogConfig) SlogLevel() (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.ToUpper(l.Level))); err != nil {
		return 0, fmt.Errorf("FARMSIM_LOG_LEVEL: %w", err)
	}
	return lvl, nil
}

// Handler builds the slog handler the binary logs through.
func (l LogConfig) Handler(w *os.File) slog.Handler {
	lvl, err := l.SlogLevel()
	if err != nil {
		lvl = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: lvl}
	if l.Format == "json" {
		return slog.NewJSONHandler(w, opts)
	}
	return slog.NewTextHandler(w, opts)
}

func getenvWithDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getenvInt(key string, fallback int, errs *[]error) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return fallback
	}
	return n
}

func getenvFloat(key string, fallback float64, errs *[]error) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return fallback
	}
	return f
}

func getenvBool(key string, fallback bool, errs *[]error) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return fallback
	}
	return b
}

func getenvDuration(key string, fallback time.Duration, errs *[]error) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return fallback
	}
	return d
}
