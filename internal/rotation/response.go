package rotation

import (
	"context"
	"errors"
	"fmt"

	"github.com/znicholasbrown/chorebot/internal/assignment"
	"github.com/znicholasbrown/chorebot/internal/model"
	"github.com/znicholasbrown/chorebot/internal/notify"
	"github.com/znicholasbrown/chorebot/internal/store"
)

// Response is a decoded answer from a person. Channel and MessageTS
// identify the message that carried the buttons, which gets edited with
// the outcome. ChoreID is the chore the buttons were sent for; empty when
// the caller does not know it.
type Response struct {
	PersonID  string
	ChoreID   string
	Decision  assignment.Decision
	Channel   string
	MessageTS string
}

// HandleResponse applies a person's decision to the chore they currently
// hold. A person who is unknown or holds no chore is ignored, as is a
// response naming a chore other than the one held; a button message for a
// chore no longer held is edited to show how it ended. Decisions that do
// not fit the assignment's state, including one lost to a concurrent
// response, return an error wrapping assignment.ErrInvalidTransition and
// change nothing.
func (e *Engine) HandleResponse(ctx context.Context, r Response) error {
	p, err := e.roster.GetByID(ctx, r.PersonID)
	if err != nil {
		return fmt.Errorf("load person: %w", err)
	}
	if p == nil {
		e.logger.Info("response from unknown person ignored", "person_id", r.PersonID, "decision", r.Decision)
		return nil
	}
	if p.AssignedChoreID == nil || (r.ChoreID != "" && r.ChoreID != *p.AssignedChoreID) {
		return e.staleResponse(ctx, p, r)
	}
	choreID := *p.AssignedChoreID

	a, err := e.assignments.Current(ctx, p.ID, choreID, "")
	if err != nil {
		return fmt.Errorf("load assignment: %w", err)
	}
	if a == nil {
		e.logger.Warn("person holds chore without assignment record", "person_id", p.ID, "chore_id", choreID)
		return nil
	}

	c, err := e.loadChore(ctx, choreID)
	if err != nil {
		return err
	}

	ref := notify.MessageRef{Channel: r.Channel, TS: r.MessageTS}
	if ref.Channel == "" || ref.TS == "" {
		ref = notify.MessageRef{Channel: a.MessageChannel, TS: a.MessageTS}
	}

	next, err := assignment.Transition(assignment.State(a.State), r.Decision.Target())
	if err != nil {
		e.updateMessage(ctx, ref, handledMessage(c, assignment.State(a.State)))
		return fmt.Errorf("person %s chore %s: %w", p.ID, choreID, err)
	}

	switch r.Decision {
	case assignment.DecisionAvailable:
		return e.accept(ctx, p, c, a, next, ref)
	case assignment.DecisionUnavailable:
		return e.decline(ctx, p, c, a, next, ref)
	case assignment.DecisionComplete, assignment.DecisionIncomplete:
		return e.finish(ctx, p, c, a, next, ref)
	}
	return fmt.Errorf("handle response: %w: %q", assignment.ErrUnknownDecision, r.Decision)
}

// staleResponse handles a click on buttons for a chore the person no
// longer holds. Nothing changes; the old message is edited to show the
// state its assignment ended in.
func (e *Engine) staleResponse(ctx context.Context, p *model.Person, r Response) error {
	e.logger.Info("response for chore not held ignored",
		"person_id", p.ID, "chore_id", r.ChoreID, "decision", r.Decision)
	if r.ChoreID == "" {
		return nil
	}
	a, err := e.assignments.Current(ctx, p.ID, r.ChoreID, "")
	if err != nil {
		return fmt.Errorf("load assignment: %w", err)
	}
	if a == nil {
		return nil
	}
	c, err := e.loadChore(ctx, r.ChoreID)
	if err != nil {
		return err
	}
	e.updateMessage(ctx, notify.MessageRef{Channel: r.Channel, TS: r.MessageTS}, handledMessage(c, assignment.State(a.State)))
	return nil
}

func (e *Engine) loadChore(ctx context.Context, choreID string) (*model.Chore, error) {
	c, err := e.catalog.GetByID(ctx, choreID)
	if err != nil {
		return nil, fmt.Errorf("load chore: %w", err)
	}
	if c == nil {
		c = &model.Chore{ID: choreID, Title: choreID}
	}
	return c, nil
}

func (e *Engine) accept(ctx context.Context, p *model.Person, c *model.Chore, a *model.Assignment, next assignment.State, ref notify.MessageRef) error {
	if err := e.setState(ctx, a, next); err != nil {
		return err
	}

	// chat.scheduleMessage needs the DM conversation, not the user id.
	channel := a.MessageChannel
	if channel == "" {
		channel = ref.Channel
	}
	if channel == "" {
		channel = p.ID
	}
	at := e.cfg.Now().Add(e.cfg.ReminderDelay)
	if _, err := e.notifier.ScheduleMessage(ctx, channel, at, reminderMessage(c)); err != nil {
		e.logger.Error("schedule reminder", "person_id", p.ID, "chore_id", c.ID, "channel", channel, "error", err)
	}
	e.updateMessage(ctx, ref, acceptedMessage(c, at.In(e.cfg.Location)))
	return nil
}

func (e *Engine) decline(ctx context.Context, p *model.Person, c *model.Chore, a *model.Assignment, next assignment.State, ref notify.MessageRef) error {
	if err := e.setState(ctx, a, next); err != nil {
		return err
	}
	if err := e.roster.MarkUnavailable(ctx, p.ID); err != nil {
		return fmt.Errorf("mark decliner unavailable: %w", err)
	}
	if err := e.roster.ClearAssignment(ctx, p.ID); err != nil {
		return fmt.Errorf("clear decliner assignment: %w", err)
	}
	e.updateMessage(ctx, ref, declinedMessage(c))

	if _, err := e.reassign(ctx, c, p.ID, a); err != nil {
		return err
	}
	return nil
}

func (e *Engine) finish(ctx context.Context, p *model.Person, c *model.Chore, a *model.Assignment, next assignment.State, ref notify.MessageRef) error {
	if err := e.setState(ctx, a, next); err != nil {
		return err
	}
	if next == assignment.StateComplete && e.cfg.CompletionCredit != 0 {
		if err := e.roster.AddScore(ctx, p.ID, e.cfg.CompletionCredit); err != nil {
			return fmt.Errorf("credit completion: %w", err)
		}
	}
	if err := e.roster.ClearAssignment(ctx, p.ID); err != nil {
		return fmt.Errorf("clear finished assignment: %w", err)
	}
	e.updateMessage(ctx, ref, finishedMessage(c, next, e.cfg.CompletionCredit))
	return nil
}

// Reassign hands choreID to the highest-scoring person who is free today,
// other than excludedID. People marked unavailable and people who already
// hold a chore are skipped. When nobody is free the excluded person's
// assignment ends unassigned and the channel is told. It returns the new
// holder, or nil.
func (e *Engine) Reassign(ctx context.Context, choreID, excludedID string) (*model.Person, error) {
	c, err := e.catalog.GetByID(ctx, choreID)
	if err != nil {
		return nil, fmt.Errorf("load chore: %w", err)
	}
	if c == nil {
		return nil, fmt.Errorf("reassign: chore %s not found", choreID)
	}
	prev, err := e.assignments.Current(ctx, excludedID, choreID, "")
	if err != nil {
		return nil, fmt.Errorf("load previous assignment: %w", err)
	}
	return e.reassign(ctx, c, excludedID, prev)
}

func (e *Engine) reassign(ctx context.Context, c *model.Chore, excludedID string, prev *model.Assignment) (*model.Person, error) {
	date := e.Today().Format(model.CycleDateFormat)
	if prev != nil {
		date = prev.CycleDate
	}

	for {
		cand, err := e.roster.TopByScore(ctx, excludedID)
		if err != nil {
			return nil, fmt.Errorf("find replacement: %w", err)
		}
		if cand == nil {
			break
		}

		err = e.roster.Assign(ctx, cand.ID, c.ID)
		if errors.Is(err, store.ErrPersonBusy) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("assign replacement: %w", err)
		}
		if err := e.startAssignment(ctx, cand, c, date); err != nil {
			return nil, err
		}
		e.logger.Info("chore reassigned", "chore_id", c.ID, "from", excludedID, "to", cand.ID)
		return cand, nil
	}

	e.logger.Warn("no eligible replacement", "chore_id", c.ID, "excluded", excludedID, "date", date)
	if prev != nil && assignment.CanTransition(assignment.State(prev.State), assignment.StateUnassigned) {
		if err := e.setState(ctx, prev, assignment.StateUnassigned); err != nil {
			return nil, err
		}
	}
	e.emit(Event{Action: EventUnassigned, ChoreID: c.ID, State: assignment.StateUnassigned, Date: date})
	if e.cfg.Channel != "" {
		if _, err := e.notifier.PostToChannel(ctx, e.cfg.Channel, unassignedMessage(c)); err != nil {
			e.logger.Error("post unassigned notice", "chore_id", c.ID, "error", err)
		}
	}
	return nil, nil
}

func (e *Engine) setState(ctx context.Context, a *model.Assignment, next assignment.State) error {
	if err := e.assignments.SetState(ctx, a.ID, a.State, string(next)); err != nil {
		if errors.Is(err, store.ErrStateConflict) {
			return fmt.Errorf("update assignment state: %w: %w", assignment.ErrInvalidTransition, err)
		}
		return fmt.Errorf("update assignment state: %w", err)
	}
	a.State = string(next)
	e.emit(Event{Action: EventStateChanged, PersonID: a.PersonID, ChoreID: a.ChoreID, State: next, Date: a.CycleDate})
	return nil
}

func (e *Engine) updateMessage(ctx context.Context, ref notify.MessageRef, msg notify.Message) {
	if ref.Channel == "" || ref.TS == "" {
		return
	}
	if err := e.notifier.UpdateMessage(ctx, ref, msg); err != nil {
		e.logger.Error("update message", "channel", ref.Channel, "ts", ref.TS, "error", err)
	}
}
