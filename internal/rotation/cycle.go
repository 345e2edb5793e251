package rotation

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/znicholasbrown/chorebot/internal/assignment"
	"github.com/znicholasbrown/chorebot/internal/calendar"
	"github.com/znicholasbrown/chorebot/internal/model"
	"github.com/znicholasbrown/chorebot/internal/store"
)

// CycleReport summarizes one daily cycle.
type CycleReport struct {
	Date        string   `json:"date"`
	Available   []string `json:"available"`
	Unavailable []string `json:"unavailable"`
	Assigned    []Pair   `json:"assigned"`
	Unassigned  []string `json:"unassigned"`
}

// Pair is one chore handed to one person.
type Pair struct {
	PersonID   string `json:"person_id"`
	ChoreID    string `json:"chore_id"`
	ChoreTitle string `json:"chore_title"`
}

// RunDailyCycle resets the roster, works out who is available today and
// hands each eligible chore, hardest first, to the first available person
// in roster order. Store and calendar failures abort the cycle; work done
// before the failure is kept. A failed message to one person is logged and
// the cycle moves on.
func (e *Engine) RunDailyCycle(ctx context.Context, today time.Time) (*CycleReport, error) {
	today = today.In(e.cfg.Location)
	date := today.Format(model.CycleDateFormat)
	report := &CycleReport{
		Date:        date,
		Available:   []string{},
		Unavailable: []string{},
		Assigned:    []Pair{},
		Unassigned:  []string{},
	}

	n, err := e.roster.ResetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("reset roster: %w", err)
	}
	e.logger.Info("cycle started", "date", date, "reset", n)

	start, end := calendar.DayRange(today)
	ooo, err := e.oracle.UnavailableContacts(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("fetch out-of-office contacts: %w", err)
	}

	active, err := e.roster.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("list active people: %w", err)
	}
	for _, p := range active {
		if _, out := ooo[calendar.NormalizeEmail(p.Email)]; out && p.Email != "" {
			report.Unavailable = append(report.Unavailable, p.ID)
		} else {
			report.Available = append(report.Available, p.ID)
		}
	}
	if err := e.roster.MarkUnavailable(ctx, report.Unavailable...); err != nil {
		return nil, fmt.Errorf("mark out-of-office people: %w", err)
	}

	chores, err := e.catalog.ListEligible(ctx, today)
	if err != nil {
		return nil, fmt.Errorf("list eligible chores: %w", err)
	}
	sort.SliceStable(chores, func(i, j int) bool {
		return chores[i].Difficulty > chores[j].Difficulty
	})

	for _, c := range chores {
		p, err := e.claimFirstAvailable(ctx, c.ID)
		if err != nil {
			return nil, err
		}
		if p == nil {
			e.logger.Warn("could not assign chore", "chore_id", c.ID, "title", c.Title, "date", date)
			report.Unassigned = append(report.Unassigned, c.ID)
			continue
		}
		if err := e.startAssignment(ctx, p, &c, date); err != nil {
			return nil, err
		}
		report.Assigned = append(report.Assigned, Pair{PersonID: p.ID, ChoreID: c.ID, ChoreTitle: c.Title})
	}

	if e.cfg.Channel != "" && (len(chores) > 0 || len(report.Available) > 0) {
		summary := summaryMessage(report, chores)
		if _, err := e.notifier.PostToChannel(ctx, e.cfg.Channel, summary); err != nil {
			e.logger.Error("post cycle summary", "channel", e.cfg.Channel, "error", err)
		}
	}

	e.logger.Info("cycle finished", "date", date,
		"available", len(report.Available), "assigned", len(report.Assigned), "unassigned", len(report.Unassigned))
	e.emit(Event{Action: EventCycleDone, Date: date})
	return report, nil
}

// claimFirstAvailable assigns choreID to the first available person in
// roster order. Someone claimed concurrently is skipped.
func (e *Engine) claimFirstAvailable(ctx context.Context, choreID string) (*model.Person, error) {
	pool, err := e.roster.ListAvailable(ctx)
	if err != nil {
		return nil, fmt.Errorf("list available people: %w", err)
	}
	for i := range pool {
		err := e.roster.Assign(ctx, pool[i].ID, choreID)
		if errors.Is(err, store.ErrPersonBusy) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("assign chore %s: %w", choreID, err)
		}
		return &pool[i], nil
	}
	return nil, nil
}

// startAssignment logs the assignment and asks the person to confirm. The
// person must already hold the chore in the roster.
func (e *Engine) startAssignment(ctx context.Context, p *model.Person, c *model.Chore, date string) error {
	a, err := e.assignments.Create(ctx, p.ID, c.ID, date, string(assignment.StatePendingConfirmation))
	if err != nil {
		return fmt.Errorf("record assignment: %w", err)
	}
	e.logger.Info("chore assigned", "chore_id", c.ID, "person_id", p.ID, "date", date)
	e.emit(Event{Action: EventAssigned, PersonID: p.ID, ChoreID: c.ID, State: assignment.StatePendingConfirmation, Date: date})

	ref, err := e.notifier.PostToPerson(ctx, p.ID, assignedMessage(p, c))
	if err != nil {
		e.logger.Error("send assignment message", "chore_id", c.ID, "person_id", p.ID, "error", err)
		return nil
	}
	if err := e.assignments.SetMessage(ctx, a.ID, ref.Channel, ref.TS); err != nil {
		return fmt.Errorf("record assignment message: %w", err)
	}
	return nil
}
