package store

import (
	"context"
	"database/sql"
	"fmt"
)

// CycleStore records which cycle dates the scheduler has started, so a
// date is run at most once per database.
type CycleStore struct {
	db *sql.DB
}

func NewCycleStore(db *sql.DB) *CycleStore {
	return &CycleStore{db: db}
}

// Claim marks cycleDate as started. It returns false if it was already claimed.
func (s *CycleStore) Claim(ctx context.Context, cycleDate string) (bool, error) {
	result, err := s.db.ExecContext(ctx, `INSERT OR IGNORE INTO cycle_runs (cycle_date) VALUES (?)`, cycleDate)
	if err != nil {
		return false, fmt.Errorf("claim cycle: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n == 1, nil
}
