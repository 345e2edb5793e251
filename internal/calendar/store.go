package calendar

import (
	"context"
	"fmt"
	"time"

	"github.com/znicholasbrown/chorebot/internal/model"
)

// AbsenceLister is the part of the absence store the oracle reads.
type AbsenceLister interface {
	ListOverlapping(ctx context.Context, from, to string) ([]model.Absence, error)
}

// StoreOracle answers from locally recorded absences.
type StoreOracle struct {
	absences AbsenceLister
}

func NewStoreOracle(absences AbsenceLister) *StoreOracle {
	return &StoreOracle{absences: absences}
}

// UnavailableContacts treats end as exclusive.
func (s *StoreOracle) UnavailableContacts(ctx context.Context, start, end time.Time) (map[string]struct{}, error) {
	from := start.Format(model.CycleDateFormat)
	to := from
	if end.After(start) {
		to = end.Add(-time.Nanosecond).Format(model.CycleDateFormat)
	}

	absences, err := s.absences.ListOverlapping(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("list absences: %w", err)
	}

	contacts := make(map[string]struct{}, len(absences))
	for _, a := range absences {
		contacts[NormalizeEmail(a.Email)] = struct{}{}
	}
	return contacts, nil
}
