package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/seantiz/conveyor/internal/engine"
)

const (
	defaultListenAddr = ":8080"

	envListenAddr    = "CONVEYOR_LISTEN_ADDR"
	envLogLevel      = "CONVEYOR_LOG_LEVEL"
	envWorkers       = "CONVEYOR_WORKERS"
	envRetention     = "CONVEYOR_RETENTION"
	envSweepInterval = "CONVEYOR_SWEEP_INTERVAL"
	envSubmitRate    = "CONVEYOR_SUBMIT_RATE"
)

// Config holds application configuration loaded from environment variables.
type Config struct {
	ListenAddr    string
	LogLevel      slog.Level
	Workers       int
	Retention     time.Duration
	SweepInterval time.Duration
	// SubmitRate limits job submissions per second; <= 0 disables the limit.
	SubmitRate float64
}

// Load reads configuration from environment variables with sensible defaults.
// It rejects configurations where the sweep interval exceeds the retention
// window, since such a sweeper would let expired jobs pile up between ticks.
func Load() (Config, error) {
	cfg := Config{
		ListenAddr:    defaultListenAddr,
		LogLevel:      slog.LevelInfo,
		Workers:       engine.DefaultWorkers,
		Retention:     engine.DefaultRetention,
		SweepInterval: engine.DefaultSweepInterval,
		SubmitRate:    0,
	}

	if v := os.Getenv(envListenAddr); v != "" {
		cfg.ListenAddr = v
	}
	if v := os.Getenv(envLogLevel); v != "" {
		cfg.LogLevel = parseLogLevel(v)
	}
	if v := os.Getenv(envWorkers); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return Config{}, fmt.Errorf("%s: %q is not a positive integer", envWorkers, v)
		}
		cfg.Workers = n
	}
	if v := os.Getenv(envRetention); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return Config{}, fmt.Errorf("%s: %q is not a positive duration", envRetention, v)
		}
		cfg.Retention = d
	}
	if v := os.Getenv(envSweepInterval); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return Config{}, fmt.Errorf("%s: %q is not a positive duration", envSweepInterval, v)
		}
		cfg.SweepInterval = d
	}
	if v := os.Getenv(envSubmitRate); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || f < 0 {
			return Config{}, fmt.Errorf("%s: %q is not a non-negative number", envSubmitRate, v)
		}
		cfg.SubmitRate = f
	}

	if cfg.SweepInterval > cfg.Retention {
		return Config{}, fmt.Errorf("sweep interval %s exceeds retention %s", cfg.SweepInterval, cfg.Retention)
	}

	return cfg, nil
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewLogger creates a structured JSON logger writing to w at the configured level.
func NewLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: level,
	}))
}
