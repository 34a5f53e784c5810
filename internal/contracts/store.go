package contracts

import (
	"context"
	"errors"
	"sort"
)

// ErrNotFound is returned by Get when no record exists for a code
var ErrNotFound = errors.New("instrument not found")

// MetricField names one persisted metric column
type MetricField string

const (
	FieldReturn1M   MetricField = "return_1m"
	FieldReturn3M   MetricField = "return_3m"
	FieldReturn6M   MetricField = "return_6m"
	FieldReturn1Y   MetricField = "return_1y"
	FieldVolatility MetricField = "volatility"
	FieldSharpe     MetricField = "sharpe"
)

// MetricFields lists every persisted metric field
var MetricFields = []MetricField{
	FieldReturn1M, FieldReturn3M, FieldReturn6M, FieldReturn1Y, FieldVolatility, FieldSharpe,
}

// Valid reports whether f is one of the persisted metric fields
func (f MetricField) Valid() bool {
	for _, known := range MetricFields {
		if f == known {
			return true
		}
	}
	return false
}

// Query selects records: optional category filter, OrderBy descending
// with code ascending on ties, at most Limit rows (0 = no limit)
type Query struct {
	Category string
	OrderBy  MetricField
	Limit    int
}

// InstrumentStore is the keyed upsert store behind the pipeline
type InstrumentStore interface {
	Get(ctx context.Context, code string) (*InstrumentRecord, error)
	Query(ctx context.Context, q Query) ([]InstrumentRecord, error)
	Begin(ctx context.Context) (StoreTx, error)
}

// StoreTx groups the writes of one refresh run. Nothing is visible to readers until Commit.
type StoreTx interface {
	Get(ctx context.Context, code string) (*InstrumentRecord, error)
	Put(ctx context.Context, rec InstrumentRecord) error
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// SortRecords orders records for q and applies the limit.
// Stores that cannot sort natively share this ordering.
func SortRecords(records []InstrumentRecord, q Query) []InstrumentRecord {
	sort.SliceStable(records, func(i, j int) bool {
		vi, vj := records[i].Value(q.OrderBy), records[j].Value(q.OrderBy)
		if vi != vj {
			return vi > vj
		}
		return records[i].Code < records[j].Code
	})
	if q.Limit > 0 && len(records) > q.Limit {
		records = records[:q.Limit]
	}
	return records
}
