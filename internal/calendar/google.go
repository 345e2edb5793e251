package calendar

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
)

const cacheTTL = 15 * time.Minute

const eventTypeOutOfOffice = "outOfOffice"

// Config holds Google Calendar settings from environment variables.
type Config struct {
	CalendarID      string
	CredentialsFile string
	Keyword         string // summary marker for out-of-office events, e.g. "OOO"
}

type cacheEntry struct {
	contacts  map[string]struct{}
	fetchedAt time.Time
}

// GoogleOracle reads a shared Google calendar. An event counts as an
// absence when it is an out-of-office event or its summary contains the
// keyword; its creator and human attendees are the absent contacts.
type GoogleOracle struct {
	svc     *gcal.Service
	config  Config
	logger  *slog.Logger
	nowFunc func() time.Time

	mu    sync.RWMutex
	cache map[string]cacheEntry
}

// NewGoogleOracle builds the calendar client. Extra client options are
// appended after the credentials option.
func NewGoogleOracle(ctx context.Context, cfg Config, logger *slog.Logger, opts ...option.ClientOption) (*GoogleOracle, error) {
	if cfg.CalendarID == "" {
		return nil, ErrNotConfigured
	}
	if cfg.Keyword == "" {
		cfg.Keyword = "OOO"
	}
	if logger == nil {
		logger = slog.Default()
	}

	var clientOpts []option.ClientOption
	if cfg.CredentialsFile != "" {
		clientOpts = append(clientOpts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	clientOpts = append(clientOpts, option.WithScopes(gcal.CalendarReadonlyScope))
	clientOpts = append(clientOpts, opts...)

	svc, err := gcal.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("create calendar service: %w", err)
	}

	return &GoogleOracle{
		svc:     svc,
		config:  cfg,
		logger:  logger.With("component", "calendar"),
		nowFunc: time.Now,
		cache:   make(map[string]cacheEntry),
	}, nil
}

func (g *GoogleOracle) UnavailableContacts(ctx context.Context, start, end time.Time) (map[string]struct{}, error) {
	key := start.UTC().Format(time.RFC3339) + "/" + end.UTC().Format(time.RFC3339)

	g.mu.RLock()
	entry, ok := g.cache[key]
	g.mu.RUnlock()
	if ok && g.nowFunc().Sub(entry.fetchedAt) < cacheTTL {
		return entry.contacts, nil
	}

	contacts, err := g.fetch(ctx, start, end)
	if err != nil {
		return nil, err
	}

	g.mu.Lock()
	g.cache[key] = cacheEntry{contacts: contacts, fetchedAt: g.nowFunc()}
	g.mu.Unlock()

	g.logger.Debug("fetched out-of-office contacts", "start", start, "end", end, "count", len(contacts))
	return contacts, nil
}

func (g *GoogleOracle) fetch(ctx context.Context, start, end time.Time) (map[string]struct{}, error) {
	contacts := make(map[string]struct{})
	call := g.svc.Events.List(g.config.CalendarID).
		TimeMin(start.Format(time.RFC3339)).
		TimeMax(end.Format(time.RFC3339)).
		SingleEvents(true)

	err := call.Pages(ctx, func(page *gcal.Events) error {
		for _, ev := range page.Items {
			if !g.isAbsence(ev) {
				continue
			}
			for _, email := range eventContacts(ev) {
				contacts[email] = struct{}{}
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list calendar events: %w", err)
	}
	return contacts, nil
}

func (g *GoogleOracle) isAbsence(ev *gcal.Event) bool {
	if ev.Status == "cancelled" {
		return false
	}
	if ev.EventType == eventTypeOutOfOffice {
		return true
	}
	return strings.Contains(strings.ToUpper(ev.Summary), strings.ToUpper(g.config.Keyword))
}

func eventContacts(ev *gcal.Event) []string {
	var emails []string
	if ev.Creator != nil && ev.Creator.Email != "" {
		emails = append(emails, NormalizeEmail(ev.Creator.Email))
	}
	for _, a := range ev.Attendees {
		if a == nil || a.Resource || a.Email == "" {
			continue
		}
		emails = append(emails, NormalizeEmail(a.Email))
	}
	return emails
}
