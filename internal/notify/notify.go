// Package notify delivers chore messages to people and the team channel.
package notify

import (
	"github.com/znicholasbrown/chorebot/internal/assignment"
)

// Presentation is how every bot message looks. It is set once when the
// notifier is built.
type Presentation struct {
	IconEmoji string
	Username  string
}

// DefaultPresentation matches the bot's historical look.
var DefaultPresentation = Presentation{
	IconEmoji: ":broom:",
	Username:  "Chores Bot",
}

// Message is a notifier-agnostic message. Detail is rendered as a
// separate block so edits can replace Text and keep it. Actions become
// buttons whose action id is the decision and whose value is ActionValue.
type Message struct {
	Text        string
	Detail      string
	Actions     []assignment.Decision
	ActionValue string
}

// MessageRef identifies a posted message for later edits.
type MessageRef struct {
	Channel string `json:"channel"`
	TS      string `json:"ts"`
}
