package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/slack-go/slack"

	"github.com/znicholasbrown/chorebot/internal/assignment"
	"github.com/znicholasbrown/chorebot/internal/rotation"
)

// responseTimeout bounds engine work after the request has been acknowledged.
const responseTimeout = 30 * time.Second

type ResponseHandler interface {
	HandleResponse(ctx context.Context, r rotation.Response) error
}

// SlackHandler receives block_actions payloads from Slack interactivity.
// Slack wants an answer within three seconds, so the decision is acknowledged
// first and applied in the background.
type SlackHandler struct {
	engine ResponseHandler
	logger *slog.Logger
	wg     sync.WaitGroup
}

func NewSlackHandler(engine ResponseHandler, logger *slog.Logger) *SlackHandler {
	return &SlackHandler{engine: engine, logger: logger}
}

// parseAction decodes the form-encoded payload into a response. Only the
// first block action is used; its value carries the chore id.
func parseAction(r *http.Request) (rotation.Response, error) {
	raw := r.PostFormValue("payload")
	if raw == "" {
		return rotation.Response{}, errors.New("missing payload")
	}

	var cb slack.InteractionCallback
	if err := json.Unmarshal([]byte(raw), &cb); err != nil {
		return rotation.Response{}, err
	}
	if cb.Type != slack.InteractionTypeBlockActions {
		return rotation.Response{}, errors.New("unsupported interaction type")
	}
	if len(cb.ActionCallback.BlockActions) == 0 {
		return rotation.Response{}, errors.New("no actions")
	}
	if cb.User.ID == "" {
		return rotation.Response{}, errors.New("missing user")
	}

	action := cb.ActionCallback.BlockActions[0]
	decision, err := assignment.ParseDecision(action.ActionID)
	if err != nil {
		return rotation.Response{}, err
	}

	return rotation.Response{
		PersonID:  cb.User.ID,
		ChoreID:   action.Value,
		Decision:  decision,
		Channel:   cb.Container.ChannelID,
		MessageTS: cb.Container.MessageTs,
	}, nil
}

func (h *SlackHandler) Actions(w http.ResponseWriter, r *http.Request) {
	resp, err := parseAction(r)
	if err != nil {
		h.logger.Warn("malformed interaction payload", "error", err)
		writeError(w, http.StatusBadRequest, "malformed payload")
		return
	}

	ctx := context.WithoutCancel(r.Context())
	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		ctx, cancel := context.WithTimeout(ctx, responseTimeout)
		defer cancel()

		err := h.engine.HandleResponse(ctx, resp)
		switch {
		case errors.Is(err, assignment.ErrInvalidTransition):
			h.logger.Info("ignored response", "person_id", resp.PersonID, "decision", resp.Decision, "error", err)
		case err != nil:
			h.logger.Error("handle response", "person_id", resp.PersonID, "decision", resp.Decision, "error", err)
		}
	}()

	w.WriteHeader(http.StatusOK)
}

// Wait blocks until in-flight responses have been applied.
func (h *SlackHandler) Wait() {
	h.wg.Wait()
}
