package dedupe

// Option applies a configuration option to the Ledger.
type Option func(*Ledger)

// WithMaxSize bounds the number of remembered IDs.
// A value <= 0 keeps every ID.
func WithMaxSize(maxSize int) Option {
	return func(l *Ledger) {
		l.maxSize = maxSize
	}
}
