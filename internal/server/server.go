package server

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/znicholasbrown/chorebot/internal/app"
	"github.com/znicholasbrown/chorebot/internal/handler"
	"github.com/znicholasbrown/chorebot/internal/middleware"
	ws "github.com/znicholasbrown/chorebot/internal/websocket"
)

// Slack retries interactivity deliveries, so the limit is generous.
const (
	slackRateLimit  = 60
	slackRatePeriod = time.Minute
)

type Config struct {
	SlackSigningSecret string
	OriginPatterns     []string
}

type Server struct {
	db          *sql.DB
	hub         *ws.Hub
	cfg         Config
	choreH      *handler.ChoreHandler
	personH     *handler.PersonHandler
	assignmentH *handler.AssignmentHandler
	absenceH    *handler.AbsenceHandler
	cycleH      *handler.CycleHandler
	slackH      *handler.SlackHandler
	rateLimiter *middleware.RateLimiter
	logger      *slog.Logger
}

// New wires the HTTP surface around the application's stores, engine and
// event hub.
func New(a *app.App, cfg Config, logger *slog.Logger) *Server {
	return &Server{
		db:          a.DB,
		hub:         a.Hub,
		cfg:         cfg,
		choreH:      handler.NewChoreHandler(a.Chores, a.Hub, logger.With("component", "chore")),
		personH:     handler.NewPersonHandler(a.People, a.Hub, logger.With("component", "person")),
		assignmentH: handler.NewAssignmentHandler(a.Assignments, a.Engine.Today, logger.With("component", "assignment")),
		absenceH:    handler.NewAbsenceHandler(a.Absences, a.Engine.Today, logger.With("component", "absence")),
		cycleH:      handler.NewCycleHandler(a.Engine, logger.With("component", "cycle")),
		slackH:      handler.NewSlackHandler(a.Engine, logger.With("component", "slack")),
		rateLimiter: middleware.NewRateLimiter(slackRateLimit, slackRatePeriod),
		logger:      logger,
	}
}

// RateLimiter returns the rate limiter for cleanup tasks.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

// Wait blocks until background Slack responses have finished.
func (s *Server) Wait() {
	s.slackH.Wait()
}

func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.healthHandler)
	mux.HandleFunc("GET /ws", ws.HandleWebSocket(s.hub, s.cfg.OriginPatterns, s.logger.With("component", "websocket")))

	// Routes used by the original chore form
	mux.HandleFunc("GET /chores", s.choreH.List)
	mux.HandleFunc("POST /add", s.choreH.Create)
	mux.HandleFunc("POST /delete", s.choreH.DeleteByBody)

	// Chore API routes
	mux.HandleFunc("GET /api/chores", s.choreH.List)
	mux.HandleFunc("POST /api/chores", s.choreH.Create)
	mux.HandleFunc("PUT /api/chores/{id}", s.choreH.Update)
	mux.HandleFunc("DELETE /api/chores/{id}", s.choreH.Delete)

	// Roster API routes
	mux.HandleFunc("GET /api/people", s.personH.List)
	mux.HandleFunc("PUT /api/people/order", s.personH.UpdateOrder)
	mux.HandleFunc("PUT /api/people/{id}", s.personH.Upsert)
	mux.HandleFunc("GET /api/assignments", s.assignmentH.List)

	// Absence API routes
	mux.HandleFunc("POST /api/absences", s.absenceH.Create)
	mux.HandleFunc("GET /api/absences", s.absenceH.List)
	mux.HandleFunc("DELETE /api/absences/{id}", s.absenceH.Delete)

	mux.HandleFunc("POST /api/cycle", s.cycleH.Run)

	// Slack interactivity
	slackChain := middleware.RateLimit(s.rateLimiter)(
		middleware.VerifySlack(s.cfg.SlackSigningSecret, s.logger.With("component", "slack_verify"))(
			http.HandlerFunc(s.slackH.Actions),
		),
	)
	mux.Handle("POST /slack/actions", slackChain)

	return middleware.RequestLogger(s.logger.With("component", "http"))(mux)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	code := http.StatusOK
	if err := s.db.PingContext(r.Context()); err != nil {
		status = "db unavailable"
		code = http.StatusServiceUnavailable
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"status": status})
}
