package simulate

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"sync/atomic"
	"time"

	"github.com/okian/yogascore/internal/domain/model"
	"github.com/okian/yogascore/pkg/logger"
	"golang.org/x/sync/errgroup"
)

// ErrMismatch reports a leaderboard that differs from the local aggregation.
var ErrMismatch = errors.New("leaderboard mismatch")

// Runner executes one simulation against a service.
type Runner struct {
	config Config
	client *client
	log    logger.Logger
	stats  Stats
}

// NewRunner creates a runner for config.
func NewRunner(config Config) *Runner {
	if config.Workers < 1 {
		config.Workers = 1
	}
	if config.Timeout <= 0 {
		config.Timeout = 10 * time.Second
	}
	return &Runner{
		config: config,
		client: newClient(config.BaseURL, config.Timeout),
		log:    logger.Get().Named("simulate"),
	}
}

// Run checks the service is up, sends a full round of judge scores, then
// verifies every open event's leaderboard.
func (r *Runner) Run(ctx context.Context) (Stats, error) {
	r.stats = Stats{StartTime: time.Now()}
	defer func() {
		r.stats.EndTime = time.Now()
		r.stats.Duration = r.stats.EndTime.Sub(r.stats.StartTime)
	}()

	if err := r.client.getJSON(ctx, "/healthz", nil); err != nil {
		return r.stats, fmt.Errorf("service health check failed: %w", err)
	}

	cat, err := r.fetchCatalogue(ctx)
	if err != nil {
		return r.stats, err
	}
	subs, err := newGenerator(r.config.Seed).plan(cat)
	if err != nil {
		return r.stats, fmt.Errorf("failed to plan submissions: %w", err)
	}
	r.log.Info(ctx, "Submitting scores",
		logger.Int("events", len(cat.events)),
		logger.Int("athletes", len(cat.athletes)),
		logger.Int("judges", len(cat.judges)),
		logger.Int("submissions", len(subs)),
		logger.Int("workers", r.config.Workers))

	if err := r.submitAll(ctx, subs); err != nil {
		return r.stats, err
	}

	ranking, err := r.ranking(ctx)
	if err != nil {
		return r.stats, err
	}
	for _, ev := range cat.events {
		if ev.Status == model.StatusClosed {
			continue
		}
		if err := r.verifyEvent(ctx, ev, subs, ranking); err != nil {
			return r.stats, err
		}
		r.stats.Events++
	}

	if r.config.ExportFile != "" {
		if err := r.saveExport(ctx); err != nil {
			return r.stats, err
		}
	}
	r.logStats(ctx)
	return r.stats, nil
}

func (r *Runner) fetchCatalogue(ctx context.Context) (catalogue, error) {
	var cat catalogue
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return r.client.getJSON(gctx, "/events", &cat.events) })
	g.Go(func() error { return r.client.getJSON(gctx, "/athletes", &cat.athletes) })
	g.Go(func() error { return r.client.getJSON(gctx, "/judges", &cat.judges) })
	if err := g.Wait(); err != nil {
		return catalogue{}, fmt.Errorf("failed to fetch catalogue: %w", err)
	}
	return cat, nil
}

// submitAll sends every submission with at most Workers in flight. Every
// Duplicates-th submission is sent a second time and must be acknowledged
// as a repeat.
func (r *Runner) submitAll(ctx context.Context, subs []Submission) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.config.Workers)

	for i, sub := range subs {
		resend := r.config.Duplicates > 0 && (i+1)%r.config.Duplicates == 0
		g.Go(func() error {
			if err := r.send(gctx, sub, false); err != nil {
				return err
			}
			if resend {
				return r.send(gctx, sub, true)
			}
			return nil
		})
	}
	return g.Wait()
}

type submitResponse struct {
	Status       string `json:"status"`
	SubmissionID string `json:"submission_id"`
	Duplicate    bool   `json:"duplicate"`
}

func (r *Runner) send(ctx context.Context, sub Submission, repeat bool) error {
	atomic.AddInt64(&r.stats.Submitted, 1)

	var (
		path string
		body any
	)
	switch sub.Role {
	case model.RoleDifficulty:
		path = "/scores/difficulty"
		body = map[string]any{
			"submission_id": sub.ID,
			"athlete_id":    sub.AthleteID,
			"judge_id":      sub.JudgeID,
			"marks":         sub.Marks,
		}
	default:
		path = "/scores/technical"
		body = map[string]any{
			"submission_id":    sub.ID,
			"athlete_id":       sub.AthleteID,
			"judge_id":         sub.JudgeID,
			"t_score_out_of_2": sub.Technical,
		}
	}

	var resp submitResponse
	status, err := r.client.postJSON(ctx, path, body, &resp)
	if err != nil {
		atomic.AddInt64(&r.stats.Failed, 1)
		return fmt.Errorf("submission %s: %w", sub.ID, err)
	}

	switch {
	case status == http.StatusOK && resp.Duplicate:
		atomic.AddInt64(&r.stats.Duplicates, 1)
	case status == http.StatusCreated && !repeat:
		atomic.AddInt64(&r.stats.Accepted, 1)
	default:
		atomic.AddInt64(&r.stats.Failed, 1)
		return fmt.Errorf("submission %s: unexpected status %d (%s, repeat=%t)", sub.ID, status, resp.Status, repeat)
	}

	if r.config.Verbose {
		r.log.Debug(ctx, "Submitted score",
			logger.String("submission_id", sub.ID),
			logger.String("role", string(sub.Role)),
			logger.Int("athlete_id", sub.AthleteID),
			logger.Int("judge_id", sub.JudgeID),
			logger.Float64("judge_total", sub.Total),
			logger.Bool("repeat", repeat))
	}
	return nil
}

func (r *Runner) saveExport(ctx context.Context) error {
	f, err := os.Create(r.config.ExportFile)
	if err != nil {
		return fmt.Errorf("failed to create export file: %w", err)
	}
	if err := r.client.download(ctx, "/export.xlsx", f); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to download export: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close export file: %w", err)
	}
	r.log.Info(ctx, "Saved leaderboards workbook", logger.String("file", r.config.ExportFile))
	return nil
}

func (r *Runner) logStats(ctx context.Context) {
	duration := time.Since(r.stats.StartTime)
	rate := float64(r.stats.Submitted) / duration.Seconds()
	r.log.Info(ctx, "Simulation completed",
		logger.Int64("submitted", r.stats.Submitted),
		logger.Int64("accepted", r.stats.Accepted),
		logger.Int64("duplicates", r.stats.Duplicates),
		logger.Int64("failed", r.stats.Failed),
		logger.Int("events_verified", r.stats.Events),
		logger.Int("athletes_verified", r.stats.Verified),
		logger.Duration("duration", duration),
		logger.Float64("submissions_per_second", rate))
}
