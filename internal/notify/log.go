package notify

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"
)

// LogNotifier writes messages to the log instead of Slack. It is used when
// no bot token is configured.
type LogNotifier struct {
	logger *slog.Logger
	seq    atomic.Int64
}

func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogNotifier{logger: logger.With("component", "notify")}
}

func (n *LogNotifier) next() string {
	return fmt.Sprintf("%d.%06d", time.Now().Unix(), n.seq.Add(1))
}

func (n *LogNotifier) PostToChannel(_ context.Context, channel string, msg Message) (MessageRef, error) {
	ref := MessageRef{Channel: channel, TS: n.next()}
	n.logger.Info("channel message", "channel", channel, "ts", ref.TS, "text", msg.Text)
	return ref, nil
}

func (n *LogNotifier) PostToPerson(_ context.Context, personID string, msg Message) (MessageRef, error) {
	ref := MessageRef{Channel: personID, TS: n.next()}
	n.logger.Info("direct message", "person_id", personID, "ts", ref.TS, "text", msg.Text, "actions", len(msg.Actions))
	return ref, nil
}

func (n *LogNotifier) ScheduleMessage(_ context.Context, channel string, at time.Time, msg Message) (string, error) {
	id := "log-" + n.next()
	n.logger.Info("scheduled message", "channel", channel, "post_at", at, "text", msg.Text)
	return id, nil
}

func (n *LogNotifier) UpdateMessage(_ context.Context, ref MessageRef, msg Message) error {
	n.logger.Info("message updated", "channel", ref.Channel, "ts", ref.TS, "text", msg.Text)
	return nil
}
