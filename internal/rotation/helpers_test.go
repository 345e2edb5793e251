package rotation

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/znicholasbrown/chorebot/internal/database"
	"github.com/znicholasbrown/chorebot/internal/model"
	"github.com/znicholasbrown/chorebot/internal/notify"
	"github.com/znicholasbrown/chorebot/internal/recurrence"
	"github.com/znicholasbrown/chorebot/internal/store"
)

// Thursday.
var testNow = time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC)

type fakeOracle struct {
	contacts map[string]struct{}
	err      error
	hook     func()
}

func (f *fakeOracle) UnavailableContacts(_ context.Context, _, _ time.Time) (map[string]struct{}, error) {
	if f.hook != nil {
		f.hook()
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.contacts, nil
}

type sentMessage struct {
	kind string // "channel", "person", "schedule", "update"
	to   string
	at   time.Time
	ref  notify.MessageRef
	msg  notify.Message
}

type recordingNotifier struct {
	mu       sync.Mutex
	sent     []sentMessage
	seq      int
	failFor  map[string]bool
	failEdit bool
}

func (n *recordingNotifier) record(m sentMessage) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, m)
}

func (n *recordingNotifier) nextTS() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.seq++
	return fmt.Sprintf("1700000000.%06d", n.seq)
}

func (n *recordingNotifier) PostToChannel(_ context.Context, channel string, msg notify.Message) (notify.MessageRef, error) {
	ref := notify.MessageRef{Channel: channel, TS: n.nextTS()}
	n.record(sentMessage{kind: "channel", to: channel, ref: ref, msg: msg})
	return ref, nil
}

func (n *recordingNotifier) PostToPerson(_ context.Context, personID string, msg notify.Message) (notify.MessageRef, error) {
	if n.failFor[personID] {
		return notify.MessageRef{}, errors.New("channel_not_found")
	}
	ref := notify.MessageRef{Channel: "D" + personID, TS: n.nextTS()}
	n.record(sentMessage{kind: "person", to: personID, ref: ref, msg: msg})
	return ref, nil
}

func (n *recordingNotifier) ScheduleMessage(_ context.Context, channel string, at time.Time, msg notify.Message) (string, error) {
	n.record(sentMessage{kind: "schedule", to: channel, at: at, msg: msg})
	return "Q1", nil
}

func (n *recordingNotifier) UpdateMessage(_ context.Context, ref notify.MessageRef, msg notify.Message) error {
	if n.failEdit {
		return errors.New("message_not_found")
	}
	n.record(sentMessage{kind: "update", ref: ref, msg: msg})
	return nil
}

func (n *recordingNotifier) ofKind(kind string) []sentMessage {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []sentMessage
	for _, m := range n.sent {
		if m.kind == kind {
			out = append(out, m)
		}
	}
	return out
}

type harness struct {
	people   *store.PersonStore
	chores   *store.ChoreStore
	log      *store.AssignmentStore
	oracle   *fakeOracle
	notifier *recordingNotifier
	events   []Event
	engine   *Engine
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	h := &harness{
		people:   store.NewPersonStore(db),
		chores:   store.NewChoreStore(db),
		log:      store.NewAssignmentStore(db),
		oracle:   &fakeOracle{contacts: map[string]struct{}{}},
		notifier: &recordingNotifier{failFor: map[string]bool{}},
	}
	h.engine = New(Deps{
		Roster:      h.people,
		Catalog:     h.chores,
		Assignments: h.log,
		Oracle:      h.oracle,
		Notifier:    h.notifier,
	}, Config{
		Channel:          "C-chores",
		ReminderDelay:    4 * time.Hour,
		CompletionCredit: 1,
		Location:         time.UTC,
		Now:              func() time.Time { return testNow },
		OnEvent:          func(ev Event) { h.events = append(h.events, ev) },
	})
	return h
}

func (h *harness) addPerson(t *testing.T, id string, score int) {
	t.Helper()
	ctx := context.Background()
	if _, err := h.people.Upsert(ctx, id, id, id+"@example.com", true); err != nil {
		t.Fatalf("add person %s: %v", id, err)
	}
	if score != 0 {
		if err := h.people.AddScore(ctx, id, score); err != nil {
			t.Fatalf("score %s: %v", id, err)
		}
	}
}

func (h *harness) addChore(t *testing.T, title string, difficulty int) *model.Chore {
	t.Helper()
	c, err := h.chores.Create(context.Background(), title, title+" instructions", "test", difficulty, recurrence.EveryDay)
	if err != nil {
		t.Fatalf("add chore %s: %v", title, err)
	}
	return c
}

func (h *harness) person(t *testing.T, id string) *model.Person {
	t.Helper()
	p, err := h.people.GetByID(context.Background(), id)
	if err != nil || p == nil {
		t.Fatalf("get person %s: %v", id, err)
	}
	return p
}

func (h *harness) holder(t *testing.T, choreID string) string {
	t.Helper()
	people, err := h.people.List(context.Background())
	if err != nil {
		t.Fatalf("list people: %v", err)
	}
	holder := ""
	for _, p := range people {
		if p.AssignedChoreID != nil && *p.AssignedChoreID == choreID {
			if holder != "" {
				t.Fatalf("chore %s held by %s and %s", choreID, holder, p.ID)
			}
			holder = p.ID
		}
	}
	return holder
}

func (h *harness) run(t *testing.T) *CycleReport {
	t.Helper()
	report, err := h.engine.RunDailyCycle(context.Background(), testNow)
	if err != nil {
		t.Fatalf("run cycle: %v", err)
	}
	return report
}

func (h *harness) state(t *testing.T, personID, choreID string) string {
	t.Helper()
	a, err := h.log.Current(context.Background(), personID, choreID, "")
	if err != nil || a == nil {
		t.Fatalf("assignment %s/%s: %v", personID, choreID, err)
	}
	return a.State
}
