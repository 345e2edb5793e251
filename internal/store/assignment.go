package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/znicholasbrown/chorebot/internal/model"
)

// ErrStateConflict is returned by SetState when the assignment is no longer
// in the expected state.
var ErrStateConflict = errors.New("assignment state changed")

type AssignmentStore struct {
	db *sql.DB
}

func NewAssignmentStore(db *sql.DB) *AssignmentStore {
	return &AssignmentStore{db: db}
}

func scanAssignment(scanner interface{ Scan(...any) error }) (*model.Assignment, error) {
	var a model.Assignment
	err := scanner.Scan(
		&a.ID, &a.PersonID, &a.ChoreID, &a.CycleDate, &a.State,
		&a.MessageChannel, &a.MessageTS, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

const assignmentCols = `id, person_id, chore_id, cycle_date, state, message_channel, message_ts, created_at, updated_at`

func (s *AssignmentStore) Create(ctx context.Context, personID, choreID, cycleDate, state string) (*model.Assignment, error) {
	result, err := s.db.ExecContext(ctx,
		`INSERT INTO assignments (person_id, chore_id, cycle_date, state) VALUES (?, ?, ?, ?)`,
		personID, choreID, cycleDate, state,
	)
	if err != nil {
		return nil, fmt.Errorf("insert assignment: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(ctx, id)
}

func (s *AssignmentStore) GetByID(ctx context.Context, id int64) (*model.Assignment, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+assignmentCols+` FROM assignments WHERE id = ?`, id)
	a, err := scanAssignment(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get assignment: %w", err)
	}
	return a, nil
}

// Current returns the latest assignment of choreID to personID, or nil.
// An empty cycleDate matches any date.
func (s *AssignmentStore) Current(ctx context.Context, personID, choreID, cycleDate string) (*model.Assignment, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+assignmentCols+` FROM assignments
		 WHERE person_id = ? AND chore_id = ? AND (? = '' OR cycle_date = ?)
		 ORDER BY id DESC LIMIT 1`,
		personID, choreID, cycleDate, cycleDate,
	)
	a, err := scanAssignment(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("current assignment: %w", err)
	}
	return a, nil
}

// SetState moves the assignment from one state to another. It fails with
// ErrStateConflict when the row is not in from, so two writers racing on
// the same assignment cannot both apply.
func (s *AssignmentStore) SetState(ctx context.Context, id int64, from, to string) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE assignments SET state = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ? AND state = ?`,
		to, id, from,
	)
	if err != nil {
		return fmt.Errorf("set assignment state: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("assignment %d %s -> %s: %w", id, from, to, ErrStateConflict)
	}
	return nil
}

// SetMessage records where the assignment message was posted so later
// responses can edit it.
func (s *AssignmentStore) SetMessage(ctx context.Context, id int64, channel, ts string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE assignments SET message_channel = ?, message_ts = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		channel, ts, id,
	)
	if err != nil {
		return fmt.Errorf("set assignment message: %w", err)
	}
	return nil
}

func (s *AssignmentStore) ListByDate(ctx context.Context, cycleDate string) ([]model.Assignment, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+assignmentCols+` FROM assignments WHERE cycle_date = ? ORDER BY id ASC`, cycleDate,
	)
	if err != nil {
		return nil, fmt.Errorf("list assignments: %w", err)
	}
	defer rows.Close()

	var assignments []model.Assignment
	for rows.Next() {
		a, err := scanAssignment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan assignment: %w", err)
		}
		assignments = append(assignments, *a)
	}
	return assignments, rows.Err()
}
