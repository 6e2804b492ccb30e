// Package dedupe tracks score submission IDs so a judge's retried request is
// applied at most once.
package dedupe

import (
	"container/list"
	"context"
	"sync"
)

const defaultMaxSize = 50_000

// Deduper records seen submission IDs.
type Deduper interface {
	// SeenAndRecord reports whether id was already recorded and records it
	// if not, in one atomic step.
	SeenAndRecord(ctx context.Context, id string) bool

	// Unrecord forgets id so a submission that failed after being recorded
	// can be retried.
	Unrecord(ctx context.Context, id string)

	Size() int64
}

// Ledger is an in-memory Deduper. When bounded, the oldest ID is evicted
// once maxSize IDs are held.
type Ledger struct {
	mu      sync.Mutex
	seen    map[string]*list.Element
	order   *list.List // front = newest
	maxSize int        // <= 0 means unbounded
}

// NewLedger creates a ledger with configuration options.
func NewLedger(opts ...Option) *Ledger {
	l := &Ledger{
		seen:    make(map[string]*list.Element),
		order:   list.New(),
		maxSize: defaultMaxSize,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// SeenAndRecord implements Deduper.
func (l *Ledger) SeenAndRecord(_ context.Context, id string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.seen[id]; ok {
		return true
	}
	if l.maxSize > 0 && l.order.Len() >= l.maxSize {
		if oldest := l.order.Back(); oldest != nil {
			delete(l.seen, oldest.Value.(string))
			l.order.Remove(oldest)
		}
	}
	l.seen[id] = l.order.PushFront(id)
	return false
}

// Unrecord implements Deduper.
func (l *Ledger) Unrecord(_ context.Context, id string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if el, ok := l.seen[id]; ok {
		l.order.Remove(el)
		delete(l.seen, id)
	}
}

// Size returns the number of IDs currently held.
func (l *Ledger) Size() int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return int64(l.order.Len())
}
