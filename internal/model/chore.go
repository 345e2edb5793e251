package model

import (
	"time"

	"github.com/znicholasbrown/chorebot/internal/recurrence"
)

const (
	MinDifficulty = 1
	MaxDifficulty = 4
)

type Chore struct {
	ID           string              `json:"id"`
	Title        string              `json:"title"`
	Instructions string              `json:"instructions"`
	Creator      string              `json:"creator"`
	Difficulty   int                 `json:"difficulty"`
	Recurrence   recurrence.Weekdays `json:"frequency"`
	Deleted      bool                `json:"deleted"`
	SortOrder    int                 `json:"sort_order"`
	CreatedAt    time.Time           `json:"created_at"`
	UpdatedAt    time.Time           `json:"updated_at"`
}

// EligibleOn reports whether the chore takes part in the cycle for day.
func (c Chore) EligibleOn(day time.Time) bool {
	return !c.Deleted && c.Recurrence.Has(day.Weekday())
}
