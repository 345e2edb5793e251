package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/mail"
	"strings"

	"github.com/znicholasbrown/chorebot/internal/model"
	"github.com/znicholasbrown/chorebot/internal/store"
	"github.com/znicholasbrown/chorebot/internal/websocket"
)

type PersonHandler struct {
	broadcaster
	personStore *store.PersonStore
	logger      *slog.Logger
}

func NewPersonHandler(ps *store.PersonStore, hub *websocket.Hub, logger *slog.Logger) *PersonHandler {
	return &PersonHandler{broadcaster: broadcaster{hub: hub}, personStore: ps, logger: logger}
}

func (h *PersonHandler) List(w http.ResponseWriter, r *http.Request) {
	people, err := h.personStore.List(r.Context())
	if err != nil {
		h.logger.Error("list people", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list people")
		return
	}
	if people == nil {
		people = []model.Person{}
	}
	writeJSON(w, http.StatusOK, people)
}

type personRequest struct {
	Name   string `json:"name"`
	Email  string `json:"email"`
	Active *bool  `json:"active"`
}

// Upsert creates or updates the person whose id is in the path. Omitting
// active keeps a new person active.
func (h *PersonHandler) Upsert(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(r.PathValue("id"))
	if id == "" {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	var req personRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	if req.Email != "" {
		if _, err := mail.ParseAddress(req.Email); err != nil {
			writeError(w, http.StatusBadRequest, "invalid email")
			return
		}
	}
	active := true
	if req.Active != nil {
		active = *req.Active
	}

	person, err := h.personStore.Upsert(r.Context(), id, req.Name, req.Email, active)
	if err != nil {
		h.logger.Error("upsert person", "person_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to save person")
		return
	}

	h.broadcast(websocket.NewMessage("person", "updated", id, nil))
	writeJSON(w, http.StatusOK, person)
}

type orderRequest struct {
	IDs []string `json:"ids"`
}

// UpdateOrder sets roster order from the listed ids, first to last. The
// daily cycle offers chores in this order. People left out keep their
// current position value.
func (h *PersonHandler) UpdateOrder(w http.ResponseWriter, r *http.Request) {
	var req orderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if len(req.IDs) == 0 {
		writeError(w, http.StatusBadRequest, "ids are required")
		return
	}
	seen := make(map[string]bool, len(req.IDs))
	for _, id := range req.IDs {
		if id == "" || seen[id] {
			writeError(w, http.StatusBadRequest, "ids must be unique and non-empty")
			return
		}
		seen[id] = true
	}

	if err := h.personStore.UpdateSortOrder(r.Context(), req.IDs); err != nil {
		h.logger.Error("reorder people", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to reorder people")
		return
	}

	h.broadcast(websocket.NewMessage("person", "reordered", "", nil))
	h.List(w, r)
}
