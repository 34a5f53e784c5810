package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/mfrank/internal/contracts"
)

const selectColumns = `
	SELECT code, scheme, category, return_1m, return_3m, return_6m, return_1y, volatility, sharpe, updated_at
	FROM fund_analysis
`

// querier is satisfied by both *pgxpool.Pool and pgx.Tx
type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store implements contracts.InstrumentStore on the fund_analysis table
// ⭐ SSOT: fund_analysis 테이블 접근은 여기서만
type Store struct {
	pool *pgxpool.Pool
}

// New creates a new postgres store
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Get retrieves the record for code
func (s *Store) Get(ctx context.Context, code string) (*contracts.InstrumentRecord, error) {
	return get(ctx, s.pool, code)
}

// Query filters by category and orders by the metric column, code ascending on ties
func (s *Store) Query(ctx context.Context, q contracts.Query) ([]contracts.InstrumentRecord, error) {
	sql, args, err := buildQuery(q)
	if err != nil {
		return nil, err
	}

	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query fund_analysis: %w", err)
	}
	defer rows.Close()

	var records []contracts.InstrumentRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *rec)
	}
	return records, rows.Err()
}

// buildQuery renders the SELECT for q. OrderBy is checked against the
// known metric fields before it is interpolated.
func buildQuery(q contracts.Query) (string, []any, error) {
	if !q.OrderBy.Valid() {
		return "", nil, fmt.Errorf("unknown order field %q", q.OrderBy)
	}

	sql := selectColumns
	var args []any
	if q.Category != "" {
		args = append(args, q.Category)
		sql += fmt.Sprintf(" WHERE category = $%d", len(args))
	}
	sql += fmt.Sprintf(" ORDER BY %s DESC, code ASC", q.OrderBy)
	if q.Limit > 0 {
		args = append(args, q.Limit)
		sql += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	return sql, args, nil
}

// Begin starts one database transaction for a refresh run
func (s *Store) Begin(ctx context.Context) (contracts.StoreTx, error) {
	pgxTx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	return &tx{tx: pgxTx}, nil
}

type tx struct {
	tx pgx.Tx
}

func (t *tx) Get(ctx context.Context, code string) (*contracts.InstrumentRecord, error) {
	return get(ctx, t.tx, code)
}

// Put writes the full field set of rec in one statement. The statement runs
// under a savepoint so a failed write does not abort the run's transaction.
func (t *tx) Put(ctx context.Context, rec contracts.InstrumentRecord) error {
	query := `
		INSERT INTO fund_analysis (code, scheme, category, return_1m, return_3m, return_6m, return_1y, volatility, sharpe, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (code) DO UPDATE SET
			scheme = EXCLUDED.scheme,
			category = EXCLUDED.category,
			return_1m = EXCLUDED.return_1m,
			return_3m = EXCLUDED.return_3m,
			return_6m = EXCLUDED.return_6m,
			return_1y = EXCLUDED.return_1y,
			volatility = EXCLUDED.volatility,
			sharpe = EXCLUDED.sharpe,
			updated_at = EXCLUDED.updated_at
	`

	sp, err := t.tx.Begin(ctx)
	if err != nil {
		return fmt.Errorf("savepoint %s: %w", rec.Code, err)
	}

	_, err = sp.Exec(ctx, query,
		rec.Code, rec.Name, rec.Category,
		rec.Return1M, rec.Return3M, rec.Return6M, rec.Return1Y,
		rec.Volatility, rec.Sharpe, rec.UpdatedAt,
	)
	if err != nil {
		sp.Rollback(ctx)
		return fmt.Errorf("upsert %s: %w", rec.Code, err)
	}
	return sp.Commit(ctx)
}

func (t *tx) Commit(ctx context.Context) error {
	return t.tx.Commit(ctx)
}

// Rollback is safe to call after Commit
func (t *tx) Rollback(ctx context.Context) error {
	err := t.tx.Rollback(ctx)
	if errors.Is(err, pgx.ErrTxClosed) {
		return nil
	}
	return err
}

func get(ctx context.Context, q querier, code string) (*contracts.InstrumentRecord, error) {
	rec, err := scanRecord(q.QueryRow(ctx, selectColumns+" WHERE code = $1", code))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, contracts.ErrNotFound
	}
	return rec, err
}

func scanRecord(row pgx.Row) (*contracts.InstrumentRecord, error) {
	var r contracts.InstrumentRecord
	err := row.Scan(
		&r.Code, &r.Name, &r.Category,
		&r.Return1M, &r.Return3M, &r.Return6M, &r.Return1Y,
		&r.Volatility, &r.Sharpe, &r.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &r, nil
}
