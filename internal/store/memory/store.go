package memory

import (
	"context"
	"errors"
	"sync"

	"github.com/wonny/mfrank/internal/contracts"
)

var errTxDone = errors.New("transaction already finished")

// Store is an in-process InstrumentStore. Transactions stage writes and
// publish them under one lock on Commit.
type Store struct {
	mu      sync.RWMutex
	records map[string]contracts.InstrumentRecord
}

// New creates an empty Store
func New() *Store {
	return &Store{records: make(map[string]contracts.InstrumentRecord)}
}

// Get returns the committed record for code
func (s *Store) Get(ctx context.Context, code string) (*contracts.InstrumentRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[code]
	if !ok {
		return nil, contracts.ErrNotFound
	}
	return &rec, nil
}

// Query filters by category and orders by the requested metric
func (s *Store) Query(ctx context.Context, q contracts.Query) ([]contracts.InstrumentRecord, error) {
	s.mu.RLock()
	out := make([]contracts.InstrumentRecord, 0, len(s.records))
	for _, rec := range s.records {
		if q.Category != "" && rec.CategoryName() != q.Category {
			continue
		}
		out = append(out, rec)
	}
	s.mu.RUnlock()

	return contracts.SortRecords(out, q), nil
}

// Len returns the number of committed records
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Begin starts a transaction
func (s *Store) Begin(ctx context.Context) (contracts.StoreTx, error) {
	return &tx{store: s, pending: make(map[string]contracts.InstrumentRecord)}, nil
}

type tx struct {
	store   *Store
	pending map[string]contracts.InstrumentRecord
	done    bool
}

func (t *tx) Get(ctx context.Context, code string) (*contracts.InstrumentRecord, error) {
	if t.done {
		return nil, errTxDone
	}
	if rec, ok := t.pending[code]; ok {
		return &rec, nil
	}
	return t.store.Get(ctx, code)
}

func (t *tx) Put(ctx context.Context, rec contracts.InstrumentRecord) error {
	if t.done {
		return errTxDone
	}
	t.pending[rec.Code] = rec
	return nil
}

func (t *tx) Commit(ctx context.Context) error {
	if t.done {
		return errTxDone
	}
	t.done = true

	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	for code, rec := range t.pending {
		t.store.records[code] = rec
	}
	return nil
}

// Rollback discards staged writes; it is a no-op after Commit
func (t *tx) Rollback(ctx context.Context) error {
	t.done = true
	t.pending = nil
	return nil
}
