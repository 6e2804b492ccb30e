package simulate

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/okian/yogascore/pkg/logger"
)

const logFilePermission = 0o600

// SetupLogging sends log output to stdout and, when logFile is set, to that
// file as well. It returns a function that closes the file.
func SetupLogging(logFile string, verbose bool) (func() error, error) {
	closeFn := func() error { return nil }
	if logFile != "" {
		file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePermission)
		if err != nil {
			return nil, fmt.Errorf("failed to create log file: %w", err)
		}
		logger.SetOutput(io.MultiWriter(os.Stdout, file))
		closeFn = file.Close
	}
	if verbose {
		if err := logger.SetLevelString("debug"); err != nil {
			return nil, err
		}
	}
	if err := logger.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	if logFile != "" {
		logger.Get().Info(context.Background(), "Logging to file", logger.String("file", logFile))
	}
	return closeFn, nil
}

// ShowHelp prints usage information for the simulator.
func ShowHelp(w io.Writer) {
	_, _ = io.WriteString(w, `Yoga Scoring Judge Simulator
============================

Plays every judging panel of a running scoring service: each assigned judge
scores each athlete of every open event, then the served leaderboards are
checked against a local aggregation of the stored scores.

Usage:
  go run ./cmd/simulate [options]

Options:
  -url string
        Base URL of the service (default "http://localhost:9080")
  -workers int
        Concurrent submissions (default CPU cores * 2)
  -seed int
        Seed for generated marks (default: current time)
  -duplicates int
        Resend every Nth submission to check idempotency (default 5, 0 disables)
  -settle duration
        Time allowed for results snapshots to catch up (default 5s, 0 skips)
  -timeout duration
        HTTP request timeout (default 30s)
  -export string
        Save the leaderboards workbook to this file
  -log string
        Also write logs to this file
  -verbose
        Log every submission
  -help
        Show this help message

Examples:
  # Score everything on a local service with seeded demo data
  YOGA_SEED_DEMO_DATA=true go run ./cmd &
  go run ./cmd/simulate -export leaderboards.xlsx
`)
}
