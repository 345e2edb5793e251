package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/znicholasbrown/chorebot/internal/model"
	"github.com/znicholasbrown/chorebot/internal/rotation"
)

type CycleRunner interface {
	RunDailyCycle(ctx context.Context, today time.Time) (*rotation.CycleReport, error)
	Today() time.Time
}

type CycleHandler struct {
	engine CycleRunner
	logger *slog.Logger
}

func NewCycleHandler(engine CycleRunner, logger *slog.Logger) *CycleHandler {
	return &CycleHandler{engine: engine, logger: logger}
}

// Run runs the daily cycle now. ?date=YYYY-MM-DD overrides the day.
func (h *CycleHandler) Run(w http.ResponseWriter, r *http.Request) {
	today := h.engine.Today()
	if d := r.URL.Query().Get("date"); d != "" {
		parsed, err := time.ParseInLocation(model.CycleDateFormat, d, today.Location())
		if err != nil {
			writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
			return
		}
		today = parsed
	}

	report, err := h.engine.RunDailyCycle(r.Context(), today)
	if err != nil {
		h.logger.Error("run cycle", "error", err)
		writeError(w, http.StatusBadGateway, "cycle failed")
		return
	}
	writeJSON(w, http.StatusOK, report)
}
