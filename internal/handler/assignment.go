package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/znicholasbrown/chorebot/internal/model"
	"github.com/znicholasbrown/chorebot/internal/store"
)

type AssignmentHandler struct {
	assignmentStore *store.AssignmentStore
	today           func() time.Time
	logger          *slog.Logger
}

// NewAssignmentHandler lists the assignment log. today supplies the default
// date.
func NewAssignmentHandler(as *store.AssignmentStore, today func() time.Time, logger *slog.Logger) *AssignmentHandler {
	return &AssignmentHandler{assignmentStore: as, today: today, logger: logger}
}

func (h *AssignmentHandler) List(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	if date == "" {
		date = h.today().Format(model.CycleDateFormat)
	} else if _, err := time.Parse(model.CycleDateFormat, date); err != nil {
		writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}

	assignments, err := h.assignmentStore.ListByDate(r.Context(), date)
	if err != nil {
		h.logger.Error("list assignments", "date", date, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list assignments")
		return
	}
	if assignments == nil {
		assignments = []model.Assignment{}
	}
	writeJSON(w, http.StatusOK, assignments)
}
