package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/znicholasbrown/chorebot/internal/model"
	"github.com/znicholasbrown/chorebot/internal/recurrence"
	"github.com/znicholasbrown/chorebot/internal/store"
	"github.com/znicholasbrown/chorebot/internal/websocket"
)

type ChoreHandler struct {
	broadcaster
	choreStore *store.ChoreStore
	logger     *slog.Logger
}

func NewChoreHandler(cs *store.ChoreStore, hub *websocket.Hub, logger *slog.Logger) *ChoreHandler {
	return &ChoreHandler{broadcaster: broadcaster{hub: hub}, choreStore: cs, logger: logger}
}

type choreRequest struct {
	Title        string   `json:"title"`
	Instructions string   `json:"instructions"`
	Creator      string   `json:"creator"`
	Difficulty   flexInt  `json:"difficulty"`
	Frequency    []string `json:"frequency"`
}

// validate normalizes the request and returns the recurrence days, or a
// message for the client.
func (req *choreRequest) validate() (recurrence.Weekdays, string) {
	req.Title = strings.TrimSpace(req.Title)
	req.Instructions = strings.TrimSpace(req.Instructions)
	req.Creator = strings.TrimSpace(req.Creator)
	if req.Title == "" {
		return 0, "title is required"
	}
	if d := int(req.Difficulty); d < model.MinDifficulty || d > model.MaxDifficulty {
		return 0, "difficulty must be between 1 and 4"
	}
	days, err := recurrence.ParseNames(req.Frequency)
	if err != nil {
		return 0, err.Error()
	}
	return days, ""
}

func (h *ChoreHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req choreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	days, msg := req.validate()
	if msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	chore, err := h.choreStore.Create(r.Context(), req.Title, req.Instructions, req.Creator, int(req.Difficulty), days)
	if err != nil {
		h.logger.Error("create chore", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create chore")
		return
	}

	h.broadcast(websocket.NewMessage("chore", "created", chore.ID, nil))
	writeJSON(w, http.StatusCreated, chore)
}

func (h *ChoreHandler) List(w http.ResponseWriter, r *http.Request) {
	chores, err := h.choreStore.List(r.Context())
	if err != nil {
		h.logger.Error("list chores", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list chores")
		return
	}
	if chores == nil {
		chores = []model.Chore{}
	}
	writeJSON(w, http.StatusOK, chores)
}

func (h *ChoreHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	existing, err := h.choreStore.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get chore")
		return
	}
	if existing == nil || existing.Deleted {
		writeError(w, http.StatusNotFound, "chore not found")
		return
	}

	var req choreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	days, msg := req.validate()
	if msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	chore, err := h.choreStore.Update(r.Context(), id, req.Title, req.Instructions, int(req.Difficulty), days)
	if err != nil {
		h.logger.Error("update chore", "chore_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update chore")
		return
	}

	h.broadcast(websocket.NewMessage("chore", "updated", id, nil))
	writeJSON(w, http.StatusOK, chore)
}

// Delete soft-deletes the chore named in the path.
func (h *ChoreHandler) Delete(w http.ResponseWriter, r *http.Request) {
	h.softDelete(w, r, r.PathValue("id"))
}

// DeleteByBody soft-deletes the chore named by {"id": ...} in the body.
func (h *ChoreHandler) DeleteByBody(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.ID) == "" {
		writeError(w, http.StatusBadRequest, "id is required")
		return
	}
	h.softDelete(w, r, strings.TrimSpace(req.ID))
}

func (h *ChoreHandler) softDelete(w http.ResponseWriter, r *http.Request, id string) {
	existing, err := h.choreStore.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get chore")
		return
	}
	if existing == nil || existing.Deleted {
		writeError(w, http.StatusNotFound, "chore not found")
		return
	}

	if err := h.choreStore.SoftDelete(r.Context(), id); err != nil {
		h.logger.Error("delete chore", "chore_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete chore")
		return
	}

	h.broadcast(websocket.NewMessage("chore", "deleted", id, nil))
	w.WriteHeader(http.StatusNoContent)
}
