// Package simulate drives a running scoring service the way a judging panel
// would and checks the leaderboards it serves against a local aggregation.
package simulate

import "time"

// Config holds configuration for a simulation run.
type Config struct {
	BaseURL     string        // Base URL of the service
	Workers     int           // Concurrent submissions
	Timeout     time.Duration // HTTP request timeout
	Seed        int64         // Seed for generated marks; runs with equal seeds submit equal scores
	Duplicates  int           // Every Nth submission is sent twice; 0 disables
	SettleAfter time.Duration // How long to wait for results snapshots to catch up
	ExportFile  string        // Where to save the workbook; empty skips the download
	Verbose     bool          // Log every submission
}

// Stats tracks a simulation run.
type Stats struct {
	StartTime  time.Time
	EndTime    time.Time
	Duration   time.Duration
	Submitted  int64
	Accepted   int64
	Duplicates int64
	Failed     int64
	Events     int
	Verified   int
}
