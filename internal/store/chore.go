package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/znicholasbrown/chorebot/internal/model"
	"github.com/znicholasbrown/chorebot/internal/recurrence"
)

type ChoreStore struct {
	db *sql.DB
}

func NewChoreStore(db *sql.DB) *ChoreStore {
	return &ChoreStore{db: db}
}

func scanChore(scanner interface{ Scan(...any) error }) (*model.Chore, error) {
	var c model.Chore
	var rule string

	err := scanner.Scan(
		&c.ID, &c.Title, &c.Instructions, &c.Creator, &c.Difficulty,
		&rule, &c.Deleted, &c.SortOrder, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	c.Recurrence, err = recurrence.Parse(rule)
	if err != nil {
		return nil, fmt.Errorf("chore %s recurrence: %w", c.ID, err)
	}
	return &c, nil
}

const choreCols = `id, title, instructions, creator, difficulty, recurrence_rule, deleted, sort_order, created_at, updated_at`

func (s *ChoreStore) query(ctx context.Context, where string, args ...any) ([]model.Chore, error) {
	q := `SELECT ` + choreCols + ` FROM chores`
	if where != "" {
		q += ` WHERE ` + where
	}
	q += ` ORDER BY sort_order ASC, created_at ASC, id ASC`

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var chores []model.Chore
	for rows.Next() {
		c, err := scanChore(rows)
		if err != nil {
			return nil, fmt.Errorf("scan chore: %w", err)
		}
		chores = append(chores, *c)
	}
	return chores, rows.Err()
}

func (s *ChoreStore) Create(ctx context.Context, title, instructions, creator string, difficulty int, days recurrence.Weekdays) (*model.Chore, error) {
	var maxOrder int
	err := s.db.QueryRowContext(ctx, "SELECT COALESCE(MAX(sort_order), -1) FROM chores").Scan(&maxOrder)
	if err != nil {
		return nil, fmt.Errorf("query max sort_order: %w", err)
	}

	id := uuid.Must(uuid.NewV7()).String()
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO chores (id, title, instructions, creator, difficulty, recurrence_rule, sort_order) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, title, instructions, creator, difficulty, days.String(), maxOrder+1,
	)
	if err != nil {
		return nil, fmt.Errorf("insert chore: %w", err)
	}
	return s.GetByID(ctx, id)
}

// GetByID returns the chore whether or not it is soft-deleted.
func (s *ChoreStore) GetByID(ctx context.Context, id string) (*model.Chore, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+choreCols+` FROM chores WHERE id = ?`, id)
	c, err := scanChore(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get chore: %w", err)
	}
	return c, nil
}

// GetByTitle returns the first non-deleted chore with the given title.
func (s *ChoreStore) GetByTitle(ctx context.Context, title string) (*model.Chore, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+choreCols+` FROM chores WHERE title = ? AND deleted = 0 ORDER BY sort_order ASC LIMIT 1`, title,
	)
	c, err := scanChore(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get chore by title: %w", err)
	}
	return c, nil
}

// List returns all chores that have not been soft-deleted.
func (s *ChoreStore) List(ctx context.Context) ([]model.Chore, error) {
	chores, err := s.query(ctx, "deleted = 0")
	if err != nil {
		return nil, fmt.Errorf("list chores: %w", err)
	}
	return chores, nil
}

// ListEligible returns the non-deleted chores that recur on day's weekday,
// in catalog order.
func (s *ChoreStore) ListEligible(ctx context.Context, day time.Time) ([]model.Chore, error) {
	chores, err := s.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list eligible chores: %w", err)
	}

	var eligible []model.Chore
	for _, c := range chores {
		if c.EligibleOn(day) {
			eligible = append(eligible, c)
		}
	}
	return eligible, nil
}

func (s *ChoreStore) Update(ctx context.Context, id, title, instructions string, difficulty int, days recurrence.Weekdays) (*model.Chore, error) {
	_, err := s.db.ExecContext(ctx,
		`UPDATE chores SET title = ?, instructions = ?, difficulty = ?, recurrence_rule = ? WHERE id = ?`,
		title, instructions, difficulty, days.String(), id,
	)
	if err != nil {
		return nil, fmt.Errorf("update chore: %w", err)
	}
	return s.GetByID(ctx, id)
}

// SoftDelete flags the chore as deleted. The row is kept so past
// assignments still resolve.
func (s *ChoreStore) SoftDelete(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `UPDATE chores SET deleted = 1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete chore: %w", err)
	}
	return nil
}
