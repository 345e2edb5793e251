// Package app builds the stores, collaborators and rotation engine from a
// loaded configuration.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/znicholasbrown/chorebot/internal/calendar"
	"github.com/znicholasbrown/chorebot/internal/config"
	"github.com/znicholasbrown/chorebot/internal/database"
	"github.com/znicholasbrown/chorebot/internal/notify"
	"github.com/znicholasbrown/chorebot/internal/rotation"
	"github.com/znicholasbrown/chorebot/internal/store"
	ws "github.com/znicholasbrown/chorebot/internal/websocket"
)

type App struct {
	DB          *sql.DB
	People      *store.PersonStore
	Chores      *store.ChoreStore
	Assignments *store.AssignmentStore
	Absences    *store.AbsenceStore
	Cycles      *store.CycleStore
	Hub         *ws.Hub
	Engine      *rotation.Engine
}

// New opens the database and wires the engine. Locally recorded absences
// are always consulted; a configured Google calendar is added on top.
// Without a Slack token messages are logged instead of sent.
func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*App, error) {
	db, err := database.Open(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	a := &App{
		DB:          db,
		People:      store.NewPersonStore(db),
		Chores:      store.NewChoreStore(db),
		Assignments: store.NewAssignmentStore(db),
		Absences:    store.NewAbsenceStore(db),
		Cycles:      store.NewCycleStore(db),
		Hub:         ws.NewHub(logger.With("component", "websocket")),
	}

	oracle, err := buildOracle(ctx, cfg.Calendar, a.Absences, logger)
	if err != nil {
		db.Close()
		return nil, err
	}

	a.Engine = rotation.New(rotation.Deps{
		Roster:      a.People,
		Catalog:     a.Chores,
		Assignments: a.Assignments,
		Oracle:      oracle,
		Notifier:    buildNotifier(cfg.Slack, logger),
		Logger:      logger,
	}, rotation.Config{
		Channel:          cfg.Slack.Channel,
		ReminderDelay:    cfg.Rotation.ReminderDelay,
		CompletionCredit: cfg.Rotation.CompletionCredit,
		Location:         cfg.Rotation.Location,
		OnEvent:          a.Hub.Publish,
	})

	return a, nil
}

func (a *App) Close() error {
	return a.DB.Close()
}

func buildOracle(ctx context.Context, cfg config.CalendarConfig, absences *store.AbsenceStore, logger *slog.Logger) (rotation.Oracle, error) {
	local := calendar.NewStoreOracle(absences)
	if cfg.ID == "" {
		logger.Info("google calendar not configured, using recorded absences only")
		return local, nil
	}

	google, err := calendar.NewGoogleOracle(ctx, calendar.Config{
		CalendarID:      cfg.ID,
		CredentialsFile: cfg.CredentialsFile,
		Keyword:         cfg.Keyword,
	}, logger.With("component", "calendar"))
	if err != nil {
		return nil, fmt.Errorf("google calendar: %w", err)
	}
	return calendar.Multi{google, local}, nil
}

func buildNotifier(cfg config.SlackConfig, logger *slog.Logger) rotation.Notifier {
	if !cfg.Enabled() {
		logger.Warn("slack token not set, messages will only be logged")
		return notify.NewLogNotifier(logger.With("component", "notify"))
	}
	return notify.NewSlackNotifier(cfg.Token, notify.Presentation{
		IconEmoji: cfg.IconEmoji,
		Username:  cfg.Username,
	}, logger.With("component", "notify"))
}
