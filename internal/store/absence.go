package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/znicholasbrown/chorebot/internal/model"
)

type AbsenceStore struct {
	db *sql.DB
}

func NewAbsenceStore(db *sql.DB) *AbsenceStore {
	return &AbsenceStore{db: db}
}

const absenceCols = `id, email, starts_on, ends_on, note, created_at`

// Create records an absence. Dates are YYYY-MM-DD and inclusive.
func (s *AbsenceStore) Create(ctx context.Context, email, startsOn, endsOn, note string) (*model.Absence, error) {
	result, err := s.db.ExecContext(ctx,
		`INSERT INTO absences (email, starts_on, ends_on, note) VALUES (?, ?, ?, ?)`,
		strings.ToLower(strings.TrimSpace(email)), startsOn, endsOn, note,
	)
	if err != nil {
		return nil, fmt.Errorf("insert absence: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	var a model.Absence
	err = s.db.QueryRowContext(ctx, `SELECT `+absenceCols+` FROM absences WHERE id = ?`, id).
		Scan(&a.ID, &a.Email, &a.StartsOn, &a.EndsOn, &a.Note, &a.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("get absence: %w", err)
	}
	return &a, nil
}

func (s *AbsenceStore) Delete(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM absences WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete absence: %w", err)
	}
	return nil
}

// ListOverlapping returns absences that cover any day in [from, to].
func (s *AbsenceStore) ListOverlapping(ctx context.Context, from, to string) ([]model.Absence, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+absenceCols+` FROM absences WHERE starts_on <= ? AND ends_on >= ? ORDER BY starts_on ASC, id ASC`,
		to, from,
	)
	if err != nil {
		return nil, fmt.Errorf("list absences: %w", err)
	}
	defer rows.Close()

	var absences []model.Absence
	for rows.Next() {
		var a model.Absence
		if err := rows.Scan(&a.ID, &a.Email, &a.StartsOn, &a.EndsOn, &a.Note, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan absence: %w", err)
		}
		absences = append(absences, a)
	}
	return absences, rows.Err()
}
