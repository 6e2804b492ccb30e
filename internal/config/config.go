// Package config defines service configuration and how it is loaded.
package config

import (
	"runtime"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`
	// LogFormat selects text or json log output.
	LogFormat string `koanf:"log_format"`
	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`
	// QueueSize bounds the results rebuild queue.
	QueueSize int `koanf:"queue_size"`
	// WorkerCount sets the number of results rebuild workers.
	WorkerCount int `koanf:"worker_count"`
	// DedupeSize bounds the submission idempotency ledger.
	DedupeSize int `koanf:"dedupe_size"`
	// MaxLeaderboardLimit caps GET /events/{id}/leaderboard?limit.
	MaxLeaderboardLimit int `koanf:"max_leaderboard_limit"`
	// Ranking is "ordinal" (distinct ranks) or "competition" (shared ranks on ties).
	Ranking string `koanf:"ranking"`
	// SeedDemoData loads the demo events, athletes and judges at startup.
	SeedDemoData bool `koanf:"seed_demo_data"`
	// CompetitionName labels metrics and the exported workbook.
	CompetitionName string `koanf:"competition_name"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:            "info",
		LogFormat:           "text",
		Addr:                ":9080",
		QueueSize:           1024,
		WorkerCount:         runtime.NumCPU(),
		DedupeSize:          50_000,
		MaxLeaderboardLimit: 100,
		Ranking:             "ordinal",
		SeedDemoData:        true,
		CompetitionName:     "Bhusurya Yoga Competition",
	}
}
