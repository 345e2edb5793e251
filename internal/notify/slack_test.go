package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/slack-go/slack"

	"github.com/znicholasbrown/chorebot/internal/assignment"
)

type slackCall struct {
	method string
	form   url.Values
}

type fakeSlack struct {
	mu    sync.Mutex
	calls []slackCall
}

func (f *fakeSlack) handler(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	method := strings.TrimPrefix(r.URL.Path, "/")

	f.mu.Lock()
	f.calls = append(f.calls, slackCall{method: method, form: r.PostForm})
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	channel := r.PostForm.Get("channel")
	switch method {
	case "chat.postMessage":
		json.NewEncoder(w).Encode(map[string]any{"ok": true, "channel": "D" + channel, "ts": "1700000000.000100"})
	case "chat.scheduleMessage":
		json.NewEncoder(w).Encode(map[string]any{"ok": true, "channel": "D" + channel, "scheduled_message_id": "Q123", "post_at": 1700000000})
	case "chat.update":
		json.NewEncoder(w).Encode(map[string]any{"ok": true, "channel": channel, "ts": r.PostForm.Get("ts"), "text": r.PostForm.Get("text")})
	default:
		json.NewEncoder(w).Encode(map[string]any{"ok": false, "error": "unknown_method"})
	}
}

func (f *fakeSlack) last(t *testing.T) slackCall {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.calls) == 0 {
		t.Fatal("no slack calls recorded")
	}
	return f.calls[len(f.calls)-1]
}

func newTestNotifier(t *testing.T) (*SlackNotifier, *fakeSlack) {
	t.Helper()
	fake := &fakeSlack{}
	srv := httptest.NewServer(http.HandlerFunc(fake.handler))
	t.Cleanup(srv.Close)
	n := NewSlackNotifier("xoxb-test", DefaultPresentation, nil, slack.OptionAPIURL(srv.URL+"/"))
	return n, fake
}

func TestPostToPerson(t *testing.T) {
	n, fake := newTestNotifier(t)

	ref, err := n.PostToPerson(context.Background(), "U1", Message{
		Text:        "You have been assigned *Sweep*",
		Detail:      "Sweep the kitchen",
		Actions:     assignment.ConfirmationChoices,
		ActionValue: "chore-1",
	})
	if err != nil {
		t.Fatalf("post to person: %v", err)
	}
	if ref.Channel != "DU1" || ref.TS != "1700000000.000100" {
		t.Errorf("ref = %+v", ref)
	}

	call := fake.last(t)
	if call.method != "chat.postMessage" {
		t.Errorf("method = %s", call.method)
	}
	if call.form.Get("channel") != "U1" {
		t.Errorf("channel = %q, want U1", call.form.Get("channel"))
	}
	if call.form.Get("icon_emoji") != ":broom:" || call.form.Get("username") != "Chores Bot" {
		t.Errorf("presentation not applied: icon=%q username=%q", call.form.Get("icon_emoji"), call.form.Get("username"))
	}
	blocks := call.form.Get("blocks")
	for _, want := range []string{`"action_id":"available"`, `"action_id":"unavailable"`, `"value":"chore-1"`, ActionBlockID} {
		if !strings.Contains(blocks, want) {
			t.Errorf("blocks missing %s: %s", want, blocks)
		}
	}
}

func TestScheduleMessage(t *testing.T) {
	n, fake := newTestNotifier(t)
	at := time.Unix(1700003600, 0)

	id, err := n.ScheduleMessage(context.Background(), "DU2", at, Message{Text: "Reminder", Actions: assignment.CompletionChoices})
	if err != nil {
		t.Fatalf("schedule: %v", err)
	}
	if id != "Q123" {
		t.Errorf("scheduled id = %q", id)
	}
	call := fake.last(t)
	if call.method != "chat.scheduleMessage" {
		t.Errorf("method = %s", call.method)
	}
	if call.form.Get("channel") != "DU2" {
		t.Errorf("channel = %q, want DU2", call.form.Get("channel"))
	}
	if call.form.Get("post_at") != "1700003600" {
		t.Errorf("post_at = %q", call.form.Get("post_at"))
	}
}

func TestUpdateMessage(t *testing.T) {
	n, fake := newTestNotifier(t)

	err := n.UpdateMessage(context.Background(), MessageRef{Channel: "D1", TS: "1.2"}, Message{Text: "Thanks!", Detail: "Sweep"})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	call := fake.last(t)
	if call.method != "chat.update" || call.form.Get("ts") != "1.2" {
		t.Errorf("call = %s ts=%q", call.method, call.form.Get("ts"))
	}
	if strings.Contains(call.form.Get("blocks"), ActionBlockID) {
		t.Error("update without actions should drop the buttons")
	}

	if err := n.UpdateMessage(context.Background(), MessageRef{}, Message{Text: "x"}); err == nil {
		t.Error("expected error for empty ref")
	}
}

func TestSlackErrorPropagates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"ok": false, "error": "channel_not_found"}`))
	}))
	defer srv.Close()

	n := NewSlackNotifier("xoxb-test", DefaultPresentation, nil, slack.OptionAPIURL(srv.URL+"/"))
	if _, err := n.PostToChannel(context.Background(), "C404", Message{Text: "hi"}); err == nil {
		t.Error("expected error for failed post")
	}
}

func TestBlocks(t *testing.T) {
	blocks := Blocks(Message{Text: "hello"})
	if len(blocks) != 1 {
		t.Fatalf("plain message blocks = %d, want 1", len(blocks))
	}

	blocks = Blocks(Message{Text: "hello", Detail: "more", Actions: assignment.CompletionChoices})
	if len(blocks) != 3 {
		t.Fatalf("blocks = %d, want 3", len(blocks))
	}
	action, ok := blocks[2].(*slack.ActionBlock)
	if !ok {
		t.Fatalf("last block is %T, want *slack.ActionBlock", blocks[2])
	}
	if len(action.Elements.ElementSet) != 2 {
		t.Errorf("buttons = %d, want 2", len(action.Elements.ElementSet))
	}
}
