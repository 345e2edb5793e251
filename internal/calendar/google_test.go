package calendar

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"google.golang.org/api/option"
)

const eventsPayload = `{
	"kind": "calendar#events",
	"items": [
		{"id": "1", "status": "confirmed", "summary": "OOO - dentist", "creator": {"email": "Alice@Example.com"}},
		{"id": "2", "status": "confirmed", "summary": "Vacation", "eventType": "outOfOffice", "creator": {"email": "bob@example.com"}},
		{"id": "3", "status": "confirmed", "summary": "team ooo day", "creator": {"email": "organizer@example.com"},
		 "attendees": [{"email": "carol@example.com"}, {"email": "room-1@resource.example.com", "resource": true}]},
		{"id": "4", "status": "cancelled", "summary": "OOO", "creator": {"email": "dan@example.com"}},
		{"id": "5", "status": "confirmed", "summary": "Standup", "creator": {"email": "erin@example.com"}}
	]
}`

func newTestOracle(t *testing.T, hits *int32) *GoogleOracle {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(hits, 1)
		if !strings.HasSuffix(r.URL.Path, "/calendars/team@example.com/events") {
			http.NotFound(w, r)
			return
		}
		if r.URL.Query().Get("singleEvents") != "true" {
			t.Errorf("singleEvents = %q, want true", r.URL.Query().Get("singleEvents"))
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(eventsPayload))
	}))
	t.Cleanup(srv.Close)

	o, err := NewGoogleOracle(context.Background(), Config{CalendarID: "team@example.com"}, nil,
		option.WithEndpoint(srv.URL+"/"),
		option.WithHTTPClient(srv.Client()),
	)
	if err != nil {
		t.Fatalf("new oracle: %v", err)
	}
	return o
}

func TestGoogleOracleContacts(t *testing.T) {
	var hits int32
	o := newTestOracle(t, &hits)

	start, end := DayRange(time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC))
	got, err := o.UnavailableContacts(context.Background(), start, end)
	if err != nil {
		t.Fatalf("unavailable contacts: %v", err)
	}

	for _, want := range []string{"alice@example.com", "bob@example.com", "organizer@example.com", "carol@example.com"} {
		if _, ok := got[want]; !ok {
			t.Errorf("expected %s in set", want)
		}
	}
	for _, notWant := range []string{"dan@example.com", "erin@example.com", "room-1@resource.example.com"} {
		if _, ok := got[notWant]; ok {
			t.Errorf("did not expect %s in set", notWant)
		}
	}
}

func TestGoogleOracleCache(t *testing.T) {
	var hits int32
	o := newTestOracle(t, &hits)
	now := time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC)
	o.nowFunc = func() time.Time { return now }

	start, end := DayRange(now)
	ctx := context.Background()

	o.UnavailableContacts(ctx, start, end)
	o.UnavailableContacts(ctx, start, end)
	if n := atomic.LoadInt32(&hits); n != 1 {
		t.Errorf("expected 1 API call within TTL, got %d", n)
	}

	now = now.Add(cacheTTL + time.Second)
	o.UnavailableContacts(ctx, start, end)
	if n := atomic.LoadInt32(&hits); n != 2 {
		t.Errorf("expected refetch after TTL, got %d calls", n)
	}
}

func TestGoogleOracleAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error": {"code": 403, "message": "forbidden"}}`, http.StatusForbidden)
	}))
	defer srv.Close()

	o, err := NewGoogleOracle(context.Background(), Config{CalendarID: "x"}, nil,
		option.WithEndpoint(srv.URL+"/"),
		option.WithHTTPClient(srv.Client()),
	)
	if err != nil {
		t.Fatalf("new oracle: %v", err)
	}

	start, end := DayRange(time.Now())
	if _, err := o.UnavailableContacts(context.Background(), start, end); err == nil {
		t.Error("expected error from failing API")
	}
}

func TestNewGoogleOracleNotConfigured(t *testing.T) {
	_, err := NewGoogleOracle(context.Background(), Config{}, nil)
	if !errors.Is(err, ErrNotConfigured) {
		t.Errorf("err = %v, want ErrNotConfigured", err)
	}
}
