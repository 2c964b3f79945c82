package store

import (
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/fundview/marketsync/internal/model"
)

// Subscriber receives a full snapshot after every merge.
type Subscriber func(quotes []model.Quote)

// Stats provides store counters.
type Stats struct {
	Quotes      int
	Subscribers int
	PushBatches uint64
	PollBatches uint64
	Inserts     uint64
	Updates     uint64
}

// Store holds the live quote view. Identity is the instrument code:
// values mutate in place, entries are replaced, never destroyed.
// Insertion order is preserved for first-seen codes so consumers get a
// stable listing.
type Store struct {
	logger *slog.Logger

	// applyMu serializes whole merge+notify cycles so subscribers see
	// batches in arrival order.
	applyMu sync.Mutex

	mu     sync.RWMutex
	byCode map[string]int // code -> index into quotes
	quotes []model.Quote
	subs   map[uuid.UUID]Subscriber
	closed bool

	pushBatches uint64
	pollBatches uint64
	inserts     uint64
	updates     uint64
}

// New creates an empty Store.
func New(logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		logger: logger,
		byCode: make(map[string]int),
		subs:   make(map[uuid.UUID]Subscriber),
	}
}

// ApplyPush merges a push batch into the store.
func (s *Store) ApplyPush(quotes []model.Quote) {
	s.apply(quotes, true)
}

// ApplyPoll merges a poll batch into the store.
func (s *Store) ApplyPoll(quotes []model.Quote) {
	s.apply(quotes, false)
}

// apply is the single merge path: last write wins per code, regardless
// of source.
func (s *Store) apply(quotes []model.Quote, push bool) {
	s.applyMu.Lock()
	defer s.applyMu.Unlock()

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}

	if push {
		s.pushBatches++
	} else {
		s.pollBatches++
	}

	for _, q := range quotes {
		if q.Code == "" {
			continue
		}
		if idx, ok := s.byCode[q.Code]; ok {
			s.quotes[idx] = q
			s.updates++
		} else {
			s.byCode[q.Code] = len(s.quotes)
			s.quotes = append(s.quotes, q)
			s.inserts++
		}
	}

	snapshot := s.snapshotLocked()
	subs := make([]Subscriber, 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.mu.Unlock()

	// Notify synchronously, outside the lock so callbacks may read the
	// store. Each subscriber gets its own copy.
	for i, fn := range subs {
		if i == 0 {
			fn(snapshot)
			continue
		}
		fn(append([]model.Quote(nil), snapshot...))
	}
}

// Subscribe registers fn to be called after every merge. The returned
// function removes the registration.
func (s *Store) Subscribe(fn Subscriber) (unsubscribe func()) {
	id := uuid.New()

	s.mu.Lock()
	if !s.closed {
		s.subs[id] = fn
	}
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

// Snapshot returns a copy of the current quote list in insertion order.
func (s *Store) Snapshot() []model.Quote {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

// Get returns the quote for one code.
func (s *Store) Get(code string) (model.Quote, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	idx, ok := s.byCode[code]
	if !ok {
		return model.Quote{}, false
	}
	return s.quotes[idx], true
}

// Len returns the number of tracked instruments.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.quotes)
}

// Close clears all subscribers. No notification fires after Close
// returns; later merges are dropped.
func (s *Store) Close() {
	s.mu.Lock()
	s.closed = true
	s.subs = make(map[uuid.UUID]Subscriber)
	s.mu.Unlock()

	s.logger.Debug("store closed")
}

// Stats returns current counters.
func (s *Store) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Stats{
		Quotes:      len(s.quotes),
		Subscribers: len(s.subs),
		PushBatches: s.pushBatches,
		PollBatches: s.pollBatches,
		Inserts:     s.inserts,
		Updates:     s.updates,
	}
}

func (s *Store) snapshotLocked() []model.Quote {
	return append([]model.Quote(nil), s.quotes...)
}
