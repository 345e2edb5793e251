package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/slack-go/slack"

	"github.com/znicholasbrown/chorebot/internal/assignment"
)

// ActionBlockID is the block id of the decision buttons.
const ActionBlockID = "chore_decision"

// SlackNotifier posts through the Slack Web API.
type SlackNotifier struct {
	client       *slack.Client
	presentation Presentation
	logger       *slog.Logger
}

// NewSlackNotifier creates a notifier. Client options are passed to
// slack.New, e.g. slack.OptionAPIURL in tests.
func NewSlackNotifier(token string, p Presentation, logger *slog.Logger, opts ...slack.Option) *SlackNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &SlackNotifier{
		client:       slack.New(token, opts...),
		presentation: p,
		logger:       logger.With("component", "slack"),
	}
}

func (n *SlackNotifier) PostToChannel(ctx context.Context, channel string, msg Message) (MessageRef, error) {
	ch, ts, err := n.client.PostMessageContext(ctx, channel, n.options(msg, true)...)
	if err != nil {
		return MessageRef{}, fmt.Errorf("post to channel %s: %w", channel, err)
	}
	return MessageRef{Channel: ch, TS: ts}, nil
}

// PostToPerson sends a direct message. Slack opens the bot DM when the
// channel is a user id.
func (n *SlackNotifier) PostToPerson(ctx context.Context, personID string, msg Message) (MessageRef, error) {
	ch, ts, err := n.client.PostMessageContext(ctx, personID, n.options(msg, true)...)
	if err != nil {
		return MessageRef{}, fmt.Errorf("post to person %s: %w", personID, err)
	}
	return MessageRef{Channel: ch, TS: ts}, nil
}

// ScheduleMessage hands delivery at the given time to Slack and returns
// the scheduled message id. channel must be a conversation id such as the
// DM channel PostToPerson returned; chat.scheduleMessage does not resolve
// user ids.
func (n *SlackNotifier) ScheduleMessage(ctx context.Context, channel string, at time.Time, msg Message) (string, error) {
	postAt := strconv.FormatInt(at.Unix(), 10)
	_, id, err := n.client.ScheduleMessageContext(ctx, channel, postAt, n.options(msg, true)...)
	if err != nil {
		return "", fmt.Errorf("schedule message in %s: %w", channel, err)
	}
	n.logger.Debug("scheduled message", "channel", channel, "post_at", at, "scheduled_id", id)
	return id, nil
}

func (n *SlackNotifier) UpdateMessage(ctx context.Context, ref MessageRef, msg Message) error {
	if ref.Channel == "" || ref.TS == "" {
		return fmt.Errorf("update message: missing channel or timestamp")
	}
	_, _, _, err := n.client.UpdateMessageContext(ctx, ref.Channel, ref.TS, n.options(msg, false)...)
	if err != nil {
		return fmt.Errorf("update message %s/%s: %w", ref.Channel, ref.TS, err)
	}
	return nil
}

func (n *SlackNotifier) options(msg Message, withPresentation bool) []slack.MsgOption {
	opts := []slack.MsgOption{
		slack.MsgOptionText(msg.Text, false),
		slack.MsgOptionBlocks(Blocks(msg)...),
	}
	if withPresentation {
		if n.presentation.IconEmoji != "" {
			opts = append(opts, slack.MsgOptionIconEmoji(n.presentation.IconEmoji))
		}
		if n.presentation.Username != "" {
			opts = append(opts, slack.MsgOptionUsername(n.presentation.Username))
		}
	}
	return opts
}

// Blocks renders a message as Block Kit blocks.
func Blocks(msg Message) []slack.Block {
	blocks := []slack.Block{
		slack.NewSectionBlock(slack.NewTextBlockObject(slack.MarkdownType, msg.Text, false, false), nil, nil),
	}
	if msg.Detail != "" {
		blocks = append(blocks,
			slack.NewContextBlock("", slack.NewTextBlockObject(slack.MarkdownType, msg.Detail, false, false)),
		)
	}
	if len(msg.Actions) > 0 {
		elems := make([]slack.BlockElement, 0, len(msg.Actions))
		for _, d := range msg.Actions {
			btn := slack.NewButtonBlockElement(
				string(d), msg.ActionValue,
				slack.NewTextBlockObject(slack.PlainTextType, d.Label(), false, false),
			)
			elems = append(elems, btn.WithStyle(buttonStyle(d)))
		}
		blocks = append(blocks, slack.NewActionBlock(ActionBlockID, elems...))
	}
	return blocks
}

func buttonStyle(d assignment.Decision) slack.Style {
	switch d {
	case assignment.DecisionAvailable, assignment.DecisionComplete:
		return slack.StylePrimary
	case assignment.DecisionUnavailable, assignment.DecisionIncomplete:
		return slack.StyleDanger
	}
	return slack.StyleDefault
}
