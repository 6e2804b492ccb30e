package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/okian/yogascore/internal/simulate"
	"github.com/okian/yogascore/pkg/logger"
)

// Default configuration constants.
const (
	defaultWorkers    = 2 // multiplier for runtime.NumCPU()
	defaultDuplicates = 5
	defaultSettle     = 5 * time.Second
	defaultTimeout    = 30 * time.Second
	defaultRunTimeout = 10 * time.Minute
)

func main() {
	var (
		baseURL    = flag.String("url", "http://localhost:9080", "Base URL of the service")
		workers    = flag.Int("workers", runtime.NumCPU()*defaultWorkers, "Concurrent submissions")
		seed       = flag.Int64("seed", time.Now().UnixNano(), "Seed for generated marks")
		duplicates = flag.Int("duplicates", defaultDuplicates, "Resend every Nth submission (0 disables)")
		settle     = flag.Duration("settle", defaultSettle, "Time allowed for results snapshots to catch up")
		timeout    = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		exportFile = flag.String("export", "", "Save the leaderboards workbook to this file")
		logFile    = flag.String("log", "", "Also write logs to this file")
		verbose    = flag.Bool("verbose", false, "Log every submission")
		help       = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		simulate.ShowHelp(os.Stdout)
		return
	}

	cfg := simulate.Config{
		BaseURL:     *baseURL,
		Workers:     *workers,
		Timeout:     *timeout,
		Seed:        *seed,
		Duplicates:  *duplicates,
		SettleAfter: *settle,
		ExportFile:  *exportFile,
		Verbose:     *verbose,
	}
	if err := run(cfg, *logFile); err != nil {
		_, _ = os.Stderr.WriteString("Simulation failed: " + err.Error() + "\n")
		os.Exit(1)
	}
}

func run(cfg simulate.Config, logFile string) error {
	closeLog, err := simulate.SetupLogging(logFile, cfg.Verbose)
	if err != nil {
		return err
	}
	defer func() { _ = closeLog() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, defaultRunTimeout)
	defer cancel()

	if _, err := simulate.NewRunner(cfg).Run(ctx); err != nil {
		logger.Get().Error(ctx, "Simulation failed", logger.Int64("seed", cfg.Seed), logger.Error(err))
		return err
	}
	return nil
}
