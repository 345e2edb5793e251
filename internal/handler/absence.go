package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"github.com/znicholasbrown/chorebot/internal/model"
	"github.com/znicholasbrown/chorebot/internal/store"
)

type AbsenceHandler struct {
	absenceStore *store.AbsenceStore
	today        func() time.Time
	logger       *slog.Logger
}

func NewAbsenceHandler(as *store.AbsenceStore, today func() time.Time, logger *slog.Logger) *AbsenceHandler {
	return &AbsenceHandler{absenceStore: as, today: today, logger: logger}
}

type absenceRequest struct {
	Email string `json:"email"`
	Start string `json:"start"`
	End   string `json:"end"`
	Note  string `json:"note"`
}

func (h *AbsenceHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req absenceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	if _, err := mail.ParseAddress(strings.TrimSpace(req.Email)); err != nil {
		writeError(w, http.StatusBadRequest, "valid email is required")
		return
	}
	start, err := time.Parse(model.CycleDateFormat, req.Start)
	if err != nil {
		writeError(w, http.StatusBadRequest, "start must be YYYY-MM-DD")
		return
	}
	if req.End == "" {
		req.End = req.Start
	}
	end, err := time.Parse(model.CycleDateFormat, req.End)
	if err != nil {
		writeError(w, http.StatusBadRequest, "end must be YYYY-MM-DD")
		return
	}
	if end.Before(start) {
		writeError(w, http.StatusBadRequest, "end must not be before start")
		return
	}

	absence, err := h.absenceStore.Create(r.Context(), req.Email, req.Start, req.End, strings.TrimSpace(req.Note))
	if err != nil {
		h.logger.Error("create absence", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create absence")
		return
	}
	writeJSON(w, http.StatusCreated, absence)
}

func (h *AbsenceHandler) List(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	if date == "" {
		date = h.today().Format(model.CycleDateFormat)
	} else if _, err := time.Parse(model.CycleDateFormat, date); err != nil {
		writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}

	absences, err := h.absenceStore.ListOverlapping(r.Context(), date, date)
	if err != nil {
		h.logger.Error("list absences", "date", date, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list absences")
		return
	}
	if absences == nil {
		absences = []model.Absence{}
	}
	writeJSON(w, http.StatusOK, absences)
}

func (h *AbsenceHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	if err := h.absenceStore.Delete(r.Context(), id); err != nil {
		h.logger.Error("delete absence", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete absence")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
