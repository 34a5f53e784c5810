package database

import (
	"context"
	"fmt"
)

// FundAnalysisTable is the persisted instrument record table
const FundAnalysisTable = "fund_analysis"

// migrations run in order; each statement is idempotent
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS fund_analysis (
		id          SERIAL PRIMARY KEY,
		scheme      TEXT NOT NULL,
		code        TEXT NOT NULL UNIQUE,
		return_1m   DOUBLE PRECISION NOT NULL DEFAULT 0,
		return_3m   DOUBLE PRECISION NOT NULL DEFAULT 0,
		return_6m   DOUBLE PRECISION NOT NULL DEFAULT 0,
		return_1y   DOUBLE PRECISION NOT NULL DEFAULT 0,
		volatility  DOUBLE PRECISION NOT NULL DEFAULT 0,
		sharpe      DOUBLE PRECISION NOT NULL DEFAULT 0
	)`,
	// older deployments predate classification
	`ALTER TABLE fund_analysis ADD COLUMN IF NOT EXISTS category TEXT`,
	`ALTER TABLE fund_analysis ADD COLUMN IF NOT EXISTS updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()`,
	`CREATE INDEX IF NOT EXISTS idx_fund_analysis_category ON fund_analysis (category)`,
}

// Migrate brings the schema up to date
func (db *DB) Migrate(ctx context.Context) error {
	for i, stmt := range migrations {
		if _, err := db.Pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migration %d: %w", i+1, err)
		}
	}
	return nil
}
