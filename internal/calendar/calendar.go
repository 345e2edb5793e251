// Package calendar answers which contact addresses are out of office for a
// range of time.
package calendar

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrNotConfigured is returned when an oracle is built without the settings
// it needs.
var ErrNotConfigured = errors.New("calendar not configured")

// Oracle reports the lowercased contact addresses unavailable between
// start and end.
type Oracle interface {
	UnavailableContacts(ctx context.Context, start, end time.Time) (map[string]struct{}, error)
}

// DayRange returns the [start, end) bounds of the calendar day containing t
// in t's location.
func DayRange(t time.Time) (time.Time, time.Time) {
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	return start, start.AddDate(0, 0, 1)
}

// NormalizeEmail is the form every oracle keys its result by.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Multi merges the results of several oracles. Any failure fails the whole
// lookup.
type Multi []Oracle

func (m Multi) UnavailableContacts(ctx context.Context, start, end time.Time) (map[string]struct{}, error) {
	out := make(map[string]struct{})
	for i, o := range m {
		set, err := o.UnavailableContacts(ctx, start, end)
		if err != nil {
			return nil, fmt.Errorf("oracle %d: %w", i, err)
		}
		for email := range set {
			out[email] = struct{}{}
		}
	}
	return out, nil
}
