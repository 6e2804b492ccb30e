package service

import (
	"github.com/okian/yogascore/internal/adapters/repository"
	"github.com/okian/yogascore/internal/domain/scoring"
	"github.com/okian/yogascore/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithRepository sets the store the service reads and writes.
func WithRepository(repo repository.Repository) Option {
	return func(s *Service) {
		if repo != nil {
			s.repo = repo
		}
	}
}

// WithWorkerCount sets the number of results rebuild workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the capacity of the results rebuild queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize sets how many submission IDs are remembered.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithRanking sets how equal final scores are ranked.
func WithRanking(r scoring.Ranking) Option {
	return func(s *Service) {
		s.ranking = r
	}
}

// WithCompetitionName labels stats and exports.
func WithCompetitionName(name string) Option {
	return func(s *Service) {
		if name != "" {
			s.competition = name
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}
