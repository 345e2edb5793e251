// Package rotation assigns the day's chores to the people who are around
// and follows each assignment through the responses people send back.
package rotation

import (
	"context"
	"log/slog"
	"time"

	"github.com/znicholasbrown/chorebot/internal/assignment"
	"github.com/znicholasbrown/chorebot/internal/model"
	"github.com/znicholasbrown/chorebot/internal/notify"
)

// Roster is the person store as the engine uses it.
type Roster interface {
	ResetAll(ctx context.Context) (int64, error)
	ListActive(ctx context.Context) ([]model.Person, error)
	ListAvailable(ctx context.Context) ([]model.Person, error)
	MarkUnavailable(ctx context.Context, ids ...string) error
	Assign(ctx context.Context, id, choreID string) error
	ClearAssignment(ctx context.Context, id string) error
	AddScore(ctx context.Context, id string, delta int) error
	GetByID(ctx context.Context, id string) (*model.Person, error)
	TopByScore(ctx context.Context, excludeID string) (*model.Person, error)
}

// Catalog is the chore store as the engine uses it.
type Catalog interface {
	ListEligible(ctx context.Context, day time.Time) ([]model.Chore, error)
	GetByID(ctx context.Context, id string) (*model.Chore, error)
}

// Assignments is the assignment log.
type Assignments interface {
	Create(ctx context.Context, personID, choreID, cycleDate, state string) (*model.Assignment, error)
	Current(ctx context.Context, personID, choreID, cycleDate string) (*model.Assignment, error)
	SetState(ctx context.Context, id int64, from, to string) error
	SetMessage(ctx context.Context, id int64, channel, ts string) error
}

// Oracle reports the contact addresses that are out of office.
type Oracle interface {
	UnavailableContacts(ctx context.Context, start, end time.Time) (map[string]struct{}, error)
}

// Notifier delivers messages.
type Notifier interface {
	PostToChannel(ctx context.Context, channel string, msg notify.Message) (notify.MessageRef, error)
	PostToPerson(ctx context.Context, personID string, msg notify.Message) (notify.MessageRef, error)
	ScheduleMessage(ctx context.Context, channel string, at time.Time, msg notify.Message) (string, error)
	UpdateMessage(ctx context.Context, ref notify.MessageRef, msg notify.Message) error
}

// Deps are the engine's collaborators.
type Deps struct {
	Roster      Roster
	Catalog     Catalog
	Assignments Assignments
	Oracle      Oracle
	Notifier    Notifier
	Logger      *slog.Logger
}

// Config is the rotation policy.
type Config struct {
	// Channel receives the daily summary and "nobody available" notices.
	Channel string
	// ReminderDelay is how long after accepting a person is asked whether
	// the chore got done.
	ReminderDelay time.Duration
	// CompletionCredit is added to a person's score for a completed chore.
	CompletionCredit int
	// Location decides which calendar day a cycle belongs to.
	Location *time.Location
	// Now defaults to time.Now.
	Now func() time.Time
	// OnEvent, if set, is called after every assignment change.
	OnEvent func(Event)
}

// Event describes one assignment change.
type Event struct {
	Action   string           `json:"action"`
	PersonID string           `json:"person_id,omitempty"`
	ChoreID  string           `json:"chore_id,omitempty"`
	State    assignment.State `json:"state,omitempty"`
	Date     string           `json:"date"`
}

const (
	EventAssigned     = "assigned"
	EventStateChanged = "state_changed"
	EventUnassigned   = "unassigned"
	EventCycleDone    = "cycle_completed"
)

// Engine runs daily cycles and handles responses. It holds no state of its
// own between calls; everything lives in the stores.
type Engine struct {
	roster      Roster
	catalog     Catalog
	assignments Assignments
	oracle      Oracle
	notifier    Notifier
	logger      *slog.Logger
	cfg         Config
}

// New creates an engine.
func New(deps Deps, cfg Config) *Engine {
	if cfg.ReminderDelay <= 0 {
		cfg.ReminderDelay = 4 * time.Hour
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		roster:      deps.Roster,
		catalog:     deps.Catalog,
		assignments: deps.Assignments,
		oracle:      deps.Oracle,
		notifier:    deps.Notifier,
		logger:      logger.With("component", "rotation"),
		cfg:         cfg,
	}
}

// Today is the engine's current time in its configured location.
func (e *Engine) Today() time.Time {
	return e.cfg.Now().In(e.cfg.Location)
}

func (e *Engine) emit(ev Event) {
	if e.cfg.OnEvent != nil {
		e.cfg.OnEvent(ev)
	}
}
