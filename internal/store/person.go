package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/znicholasbrown/chorebot/internal/model"
)

// ErrPersonBusy is returned by Assign when the person already holds a chore
// for the current cycle.
var ErrPersonBusy = errors.New("person already assigned")

type PersonStore struct {
	db *sql.DB
}

func NewPersonStore(db *sql.DB) *PersonStore {
	return &PersonStore{db: db}
}

func scanPerson(scanner interface{ Scan(...any) error }) (*model.Person, error) {
	var p model.Person
	var choreID sql.NullString

	err := scanner.Scan(
		&p.ID, &p.Name, &p.Email, &p.Active, &p.Score,
		&p.AssignedTask, &choreID, &p.Unavailable, &p.SortOrder,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if choreID.Valid {
		p.AssignedChoreID = &choreID.String
	}
	return &p, nil
}

const personCols = `id, name, email, active, score, assigned_task, assigned_chore_id, unavailable, sort_order, created_at, updated_at`

// Store iteration order. Assignment picks the first eligible person in this order.
const personOrder = `sort_order ASC, id ASC`

func (s *PersonStore) query(ctx context.Context, where string, args ...any) ([]model.Person, error) {
	q := `SELECT ` + personCols + ` FROM people`
	if where != "" {
		q += ` WHERE ` + where
	}
	q += ` ORDER BY ` + personOrder

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var people []model.Person
	for rows.Next() {
		p, err := scanPerson(rows)
		if err != nil {
			return nil, fmt.Errorf("scan person: %w", err)
		}
		people = append(people, *p)
	}
	return people, rows.Err()
}

// Upsert inserts a person or updates the directory fields (name, email,
// active) of an existing one. Rotation state is never touched here.
func (s *PersonStore) Upsert(ctx context.Context, id, name, email string, active bool) (*model.Person, error) {
	var maxOrder int
	err := s.db.QueryRowContext(ctx, "SELECT COALESCE(MAX(sort_order), -1) FROM people").Scan(&maxOrder)
	if err != nil {
		return nil, fmt.Errorf("query max sort_order: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO people (id, name, email, active, sort_order) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET name = excluded.name, email = excluded.email, active = excluded.active`,
		id, name, strings.TrimSpace(email), active, maxOrder+1,
	)
	if err != nil {
		return nil, fmt.Errorf("upsert person: %w", err)
	}
	return s.GetByID(ctx, id)
}

func (s *PersonStore) GetByID(ctx context.Context, id string) (*model.Person, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+personCols+` FROM people WHERE id = ?`, id)
	p, err := scanPerson(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get person: %w", err)
	}
	return p, nil
}

func (s *PersonStore) List(ctx context.Context) ([]model.Person, error) {
	people, err := s.query(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("list people: %w", err)
	}
	return people, nil
}

func (s *PersonStore) ListActive(ctx context.Context) ([]model.Person, error) {
	people, err := s.query(ctx, "active = 1")
	if err != nil {
		return nil, fmt.Errorf("list active people: %w", err)
	}
	return people, nil
}

// ListAvailable returns active people who hold no chore and are not marked
// unavailable for the current cycle.
func (s *PersonStore) ListAvailable(ctx context.Context) ([]model.Person, error) {
	people, err := s.query(ctx, "active = 1 AND assigned_task = 0 AND unavailable = 0")
	if err != nil {
		return nil, fmt.Errorf("list available people: %w", err)
	}
	return people, nil
}

// TopByScore returns the highest-scoring available person other than
// excludeID, or nil when there is none. Ties follow store order.
func (s *PersonStore) TopByScore(ctx context.Context, excludeID string) (*model.Person, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+personCols+` FROM people
		 WHERE active = 1 AND assigned_task = 0 AND unavailable = 0 AND id != ?
		 ORDER BY score DESC, `+personOrder+` LIMIT 1`,
		excludeID,
	)
	p, err := scanPerson(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("top person by score: %w", err)
	}
	return p, nil
}

// ResetAll clears the cycle state of every person and returns how many rows
// were touched. Running it twice is harmless.
func (s *PersonStore) ResetAll(ctx context.Context) (int64, error) {
	result, err := s.db.ExecContext(ctx,
		`UPDATE people SET assigned_task = 0, assigned_chore_id = NULL, unavailable = 0`,
	)
	if err != nil {
		return 0, fmt.Errorf("reset people: %w", err)
	}
	return result.RowsAffected()
}

func (s *PersonStore) MarkUnavailable(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, "UPDATE people SET unavailable = 1 WHERE id = ?")
	if err != nil {
		return fmt.Errorf("prepare stmt: %w", err)
	}
	defer stmt.Close()

	for _, id := range ids {
		if _, err := stmt.ExecContext(ctx, id); err != nil {
			return fmt.Errorf("mark %s unavailable: %w", id, err)
		}
	}

	return tx.Commit()
}

// Assign hands choreID to the person. It fails with ErrPersonBusy when the
// person already holds a chore, so concurrent writers cannot double-assign.
func (s *PersonStore) Assign(ctx context.Context, id, choreID string) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE people SET assigned_task = 1, assigned_chore_id = ? WHERE id = ? AND assigned_task = 0`,
		choreID, id,
	)
	if err != nil {
		return fmt.Errorf("assign chore: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("assign %s to %s: %w", choreID, id, ErrPersonBusy)
	}
	return nil
}

func (s *PersonStore) ClearAssignment(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE people SET assigned_task = 0, assigned_chore_id = NULL WHERE id = ?`, id,
	)
	if err != nil {
		return fmt.Errorf("clear assignment: %w", err)
	}
	return nil
}

func (s *PersonStore) AddScore(ctx context.Context, id string, delta int) error {
	_, err := s.db.ExecContext(ctx, `UPDATE people SET score = score + ? WHERE id = ?`, delta, id)
	if err != nil {
		return fmt.Errorf("add score: %w", err)
	}
	return nil
}

// UpdateSortOrder gives each listed person its index as sort order.
func (s *PersonStore) UpdateSortOrder(ctx context.Context, ids []string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	for i, id := range ids {
		if _, err := tx.ExecContext(ctx, `UPDATE people SET sort_order = ? WHERE id = ?`, i, id); err != nil {
			return fmt.Errorf("update sort order for id %s: %w", id, err)
		}
	}
	return tx.Commit()
}
