package badger

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/timshannon/badgerhold/v4"

	"github.com/wonny/mfrank/internal/contracts"
)

// instrumentRecord is the stored form; an empty Category means unclassified.
// Category stays unindexed: a badgerhold index is one key per value rewritten
// on every Put, and a run-wide transaction cannot hold those rewrites.
type instrumentRecord struct {
	Code       string `badgerhold:"key"`
	Name       string
	Category   string
	Return1M   float64
	Return3M   float64
	Return6M   float64
	Return1Y   float64
	Volatility float64
	Sharpe     float64
	UpdatedAt  time.Time
}

func toStored(r contracts.InstrumentRecord) instrumentRecord {
	return instrumentRecord{
		Code:       r.Code,
		Name:       r.Name,
		Category:   r.CategoryName(),
		Return1M:   r.Return1M,
		Return3M:   r.Return3M,
		Return6M:   r.Return6M,
		Return1Y:   r.Return1Y,
		Volatility: r.Volatility,
		Sharpe:     r.Sharpe,
		UpdatedAt:  r.UpdatedAt,
	}
}

func (r instrumentRecord) toContract() contracts.InstrumentRecord {
	out := contracts.InstrumentRecord{
		Code:       r.Code,
		Name:       r.Name,
		Return1M:   r.Return1M,
		Return3M:   r.Return3M,
		Return6M:   r.Return6M,
		Return1Y:   r.Return1Y,
		Volatility: r.Volatility,
		Sharpe:     r.Sharpe,
		UpdatedAt:  r.UpdatedAt,
	}
	if r.Category != "" {
		category := r.Category
		out.Category = &category
	}
	return out
}

// Store implements contracts.InstrumentStore on an embedded Badger database
type Store struct {
	store *badgerhold.Store
}

// Open opens (or creates) the database under path
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	options := badgerhold.DefaultOptions
	options.Dir = path
	options.ValueDir = path
	options.Logger = nil // badger's own logger is too chatty
	// one refresh run writes the whole universe in a single transaction
	options.MemTableSize = 128 << 20

	store, err := badgerhold.Open(options)
	if err != nil {
		return nil, fmt.Errorf("open badger database: %w", err)
	}
	return &Store{store: store}, nil
}

// Close closes the database
func (s *Store) Close() error {
	if s.store != nil {
		return s.store.Close()
	}
	return nil
}

// Get retrieves the committed record for code
func (s *Store) Get(ctx context.Context, code string) (*contracts.InstrumentRecord, error) {
	var rec instrumentRecord
	if err := s.store.Get(code, &rec); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return nil, contracts.ErrNotFound
		}
		return nil, fmt.Errorf("get %s: %w", code, err)
	}
	out := rec.toContract()
	return &out, nil
}

// Query filters by category with a scan; ordering is applied in memory
// because badgerhold sorts cannot express "metric desc, code asc"
func (s *Store) Query(ctx context.Context, q contracts.Query) ([]contracts.InstrumentRecord, error) {
	var query *badgerhold.Query
	if q.Category != "" {
		query = badgerhold.Where("Category").Eq(q.Category)
	}

	var stored []instrumentRecord
	if err := s.store.Find(&stored, query); err != nil {
		return nil, fmt.Errorf("find records: %w", err)
	}

	records := make([]contracts.InstrumentRecord, 0, len(stored))
	for _, r := range stored {
		records = append(records, r.toContract())
	}
	return contracts.SortRecords(records, q), nil
}

// Begin opens one read-write badger transaction for the run
func (s *Store) Begin(ctx context.Context) (contracts.StoreTx, error) {
	return &tx{store: s.store, txn: s.store.Badger().NewTransaction(true)}, nil
}

type tx struct {
	store *badgerhold.Store
	txn   *badger.Txn
}

func (t *tx) Get(ctx context.Context, code string) (*contracts.InstrumentRecord, error) {
	var rec instrumentRecord
	if err := t.store.TxGet(t.txn, code, &rec); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return nil, contracts.ErrNotFound
		}
		return nil, fmt.Errorf("get %s: %w", code, err)
	}
	out := rec.toContract()
	return &out, nil
}

func (t *tx) Put(ctx context.Context, rec contracts.InstrumentRecord) error {
	if err := t.store.TxUpsert(t.txn, rec.Code, toStored(rec)); err != nil {
		return fmt.Errorf("upsert %s: %w", rec.Code, err)
	}
	return nil
}

func (t *tx) Commit(ctx context.Context) error {
	if err := t.txn.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Rollback discards the transaction; safe after Commit
func (t *tx) Rollback(ctx context.Context) error {
	t.txn.Discard()
	return nil
}
