package rotation

import (
	"fmt"
	"strings"
	"time"

	"github.com/znicholasbrown/chorebot/internal/assignment"
	"github.com/znicholasbrown/chorebot/internal/model"
	"github.com/znicholasbrown/chorebot/internal/notify"
)

func mention(personID string) string {
	return "<@" + personID + ">"
}

// choreDetail is the description block kept on every edit of a chore
// message.
func choreDetail(c *model.Chore) string {
	detail := fmt.Sprintf("*%s* · difficulty %d", c.Title, c.Difficulty)
	if c.Instructions != "" {
		detail += "\n" + c.Instructions
	}
	return detail
}

func assignedMessage(p *model.Person, c *model.Chore) notify.Message {
	return notify.Message{
		Text:        fmt.Sprintf("Hi %s, you're up for *%s* today. Are you available?", mention(p.ID), c.Title),
		Detail:      choreDetail(c),
		Actions:     assignment.ConfirmationChoices,
		ActionValue: c.ID,
	}
}

func reminderMessage(c *model.Chore) notify.Message {
	return notify.Message{
		Text:        fmt.Sprintf("Reminder: did you get to *%s*?", c.Title),
		Detail:      choreDetail(c),
		Actions:     assignment.CompletionChoices,
		ActionValue: c.ID,
	}
}

func acceptedMessage(c *model.Chore, remindAt time.Time) notify.Message {
	return notify.Message{
		Text:   fmt.Sprintf("Thanks! I'll check back about *%s* at %s.", c.Title, remindAt.Format(time.Kitchen)),
		Detail: choreDetail(c),
	}
}

func declinedMessage(c *model.Chore) notify.Message {
	return notify.Message{
		Text:   fmt.Sprintf("No problem, I'll find someone else for *%s*.", c.Title),
		Detail: choreDetail(c),
	}
}

func finishedMessage(c *model.Chore, state assignment.State, credit int) notify.Message {
	text := fmt.Sprintf("Thanks for letting me know. *%s* is marked not completed.", c.Title)
	if state == assignment.StateComplete {
		text = fmt.Sprintf("Nice work on *%s*!", c.Title)
		if credit > 0 {
			text += fmt.Sprintf(" +%d", credit)
		}
	}
	return notify.Message{Text: text, Detail: choreDetail(c)}
}

// handledMessage replaces the buttons of a message whose chore has already
// moved past the decision they offered.
func handledMessage(c *model.Chore, state assignment.State) notify.Message {
	return notify.Message{
		Text:   fmt.Sprintf("Already handled. *%s* is %s.", c.Title, strings.ToLower(state.Label())),
		Detail: choreDetail(c),
	}
}

func unassignedMessage(c *model.Chore) notify.Message {
	return notify.Message{
		Text:   fmt.Sprintf("Nobody is available to take *%s* today.", c.Title),
		Detail: choreDetail(c),
	}
}

func summaryMessage(r *CycleReport, chores []model.Chore) notify.Message {
	titles := make(map[string]string, len(chores))
	for _, c := range chores {
		titles[c.ID] = c.Title
	}

	var b strings.Builder
	fmt.Fprintf(&b, "*Chores for %s*\n", r.Date)

	if len(r.Available) == 0 {
		b.WriteString("Nobody is available today.\n")
	} else {
		names := make([]string, 0, len(r.Available))
		for _, id := range r.Available {
			names = append(names, mention(id))
		}
		fmt.Fprintf(&b, "Available: %s\n", strings.Join(names, ", "))
	}

	for _, pair := range r.Assigned {
		fmt.Fprintf(&b, "• *%s* → %s\n", pair.ChoreTitle, mention(pair.PersonID))
	}
	for _, id := range r.Unassigned {
		fmt.Fprintf(&b, "• *%s* → nobody\n", titles[id])
	}
	return notify.Message{Text: strings.TrimRight(b.String(), "\n")}
}
