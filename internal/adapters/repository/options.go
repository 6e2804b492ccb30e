package repository

import "time"

// Option applies a configuration option to the MemoryStore.
type Option func(*MemoryStore)

// WithClock sets the time source used for created/updated stamps.
func WithClock(now func() time.Time) Option {
	return func(s *MemoryStore) {
		if now != nil {
			s.now = now
		}
	}
}

// WithSeed loads the demo competition data.
func WithSeed() Option {
	return func(s *MemoryStore) {
		s.seed()
	}
}
