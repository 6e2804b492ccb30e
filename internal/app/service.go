// Package service composes the competition store, the score aggregator and
// the results pipeline into the operations the HTTP API exposes.
package service

import (
	"context"
	"reflect"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	eventqueue "github.com/okian/yogascore/internal/adapters/mq/queue"
	workerpool "github.com/okian/yogascore/internal/adapters/mq/worker"
	"github.com/okian/yogascore/internal/adapters/repository"
	"github.com/okian/yogascore/internal/domain/dedupe"
	"github.com/okian/yogascore/internal/domain/scoring"
	"github.com/okian/yogascore/pkg/logger"
	"github.com/okian/yogascore/pkg/metrics"
)

// Service implements the API dependencies for the scoring desk.
type Service struct {
	mu sync.RWMutex

	// Core components
	repo     repository.Repository
	deduper  dedupe.Deduper
	queue    *eventqueue.InMemoryQueue
	pool     *workerpool.Pool
	validate *validator.Validate

	// Configuration
	workerCount int
	queueSize   int
	dedupeSize  int
	ranking     scoring.Ranking
	competition string

	// State
	started   bool
	startedAt time.Time
	rebuilds  sync.Map // event ID -> *sync.Mutex

	logger logger.Logger
}

var _ workerpool.Rebuilder = (*Service)(nil)

// New constructs a Service. Without WithRepository it starts from an empty
// in-memory store.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount: runtime.NumCPU(),
		queueSize:   1024,
		dedupeSize:  50_000,
		ranking:     scoring.RankOrdinal,
		competition: "Yoga Competition",
		validate:    newValidator(),
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.repo == nil {
		s.repo = repository.NewMemoryStore()
	}
	if s.logger == nil {
		s.logger = logger.Get()
	}
	s.logger = s.logger.Named("service")
	return s
}

// newValidator reports struct fields by their JSON names.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Start creates the submission ledger and rebuild queue and starts the
// worker pool. Calling Start on a running service is a no-op.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	s.logger.Info(ctx, "starting scoring service...")

	s.deduper = dedupe.NewLedger(dedupe.WithMaxSize(s.dedupeSize))
	s.queue = eventqueue.NewInMemoryQueue(eventqueue.WithCapacity(s.queueSize))
	s.pool = workerpool.NewPool(s.workerCount, s.queue, s, workerpool.WithLogger(s.logger))
	s.pool.Start(context.WithoutCancel(ctx))

	s.started = true
	s.startedAt = time.Now()
	s.logger.Info(ctx, "scoring service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
		logger.Int("dedupeSize", s.dedupeSize),
		logger.String("ranking", s.ranking.String()),
	)
	return nil
}

// Stop closes the rebuild queue and waits for the workers to drain it.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return nil
	}

	s.logger.Info(ctx, "stopping scoring service...")
	err := s.pool.Shutdown(ctx)
	s.started = false
	if err != nil {
		return err
	}
	s.logger.Info(ctx, "scoring service stopped", logger.Int64("rebuilds", s.pool.Processed()))
	return nil
}

// Stats is a monitoring snapshot of the service.
type Stats struct {
	Competition string            `json:"competition"`
	Started     bool              `json:"started"`
	Uptime      string            `json:"uptime,omitempty"`
	WorkerCount int               `json:"worker_count"`
	QueueSize   int               `json:"queue_size"`
	QueueLength int               `json:"queue_length"`
	DedupeSize  int               `json:"dedupe_size"`
	Submissions int64             `json:"submissions_remembered"`
	Rebuilds    int64             `json:"results_rebuilds"`
	Ranking     string            `json:"ranking"`
	Counts      repository.Counts `json:"counts"`
}

// GetStats returns service statistics and refreshes the matching gauges.
func (s *Service) GetStats(ctx context.Context) Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := Stats{
		Competition: s.competition,
		Started:     s.started,
		WorkerCount: s.workerCount,
		QueueSize:   s.queueSize,
		DedupeSize:  s.dedupeSize,
		Ranking:     s.ranking.String(),
		Counts:      s.repo.Count(ctx),
	}

	if s.started {
		stats.Uptime = time.Since(s.startedAt).Round(time.Second).String()
		stats.QueueLength = s.queue.Len(ctx)
		stats.Submissions = s.deduper.Size()
		stats.Rebuilds = s.pool.Processed()
		metrics.UpdateQueueSize(stats.QueueLength)
	}

	metrics.UpdateEntityCount("events", stats.Counts.Events)
	metrics.UpdateEntityCount("athletes", stats.Counts.Athletes)
	metrics.UpdateEntityCount("judges", stats.Counts.Judges)
	return stats
}
