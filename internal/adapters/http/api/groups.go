package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/okian/handball/internal/domain/model"
)

// GroupsHandler serves group and player edits of an open file.
type GroupsHandler struct {
	deps Dependencies
}

// NewGroupsHandler creates a new groups handler.
func NewGroupsHandler(deps Dependencies) *GroupsHandler {
	return &GroupsHandler{deps: deps}
}

// fieldUpdateRequest carries one player field edit. Value may be a string,
// a number or null; null and blank strings clear numeric fields.
type fieldUpdateRequest struct {
	Field string          `json:"field"`
	Value json.RawMessage `json:"value"`
}

func (req fieldUpdateRequest) raw() (string, error) {
	if len(req.Value) == 0 || string(req.Value) == "null" {
		return "", nil
	}
	var s string
	if err := json.Unmarshal(req.Value, &s); err == nil {
		return s, nil
	}
	var n json.Number
	if err := json.Unmarshal(req.Value, &n); err != nil {
		return "", fmt.Errorf("%w: value must be a string, number or null", ErrBadRequest)
	}
	return n.String(), nil
}

// HandleAddGroup handles POST /files/{id}/groups requests.
func (h *GroupsHandler) HandleAddGroup(w http.ResponseWriter, r *http.Request) {
	f, err := h.deps.AddGroup(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, f)
}

// HandleRenameGroup handles PATCH /files/{id}/groups/{g} requests.
func (h *GroupsHandler) HandleRenameGroup(w http.ResponseWriter, r *http.Request) {
	gi, err := pathIndex(r, "g")
	if err != nil {
		writeServiceError(w, err)
		return
	}
	var req nameRequest
	if err := decodeJSON(r, &req); err != nil {
		writeServiceError(w, err)
		return
	}
	f, err := h.deps.RenameGroup(r.Context(), r.PathValue("id"), gi, req.Name)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, f)
}

// HandleRemoveGroup handles DELETE /files/{id}/groups/{g} requests.
func (h *GroupsHandler) HandleRemoveGroup(w http.ResponseWriter, r *http.Request) {
	gi, err := pathIndex(r, "g")
	if err != nil {
		writeServiceError(w, err)
		return
	}
	f, err := h.deps.RemoveGroup(r.Context(), r.PathValue("id"), gi)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, f)
}

// HandleAddPlayer handles POST /files/{id}/groups/{g}/players requests.
func (h *GroupsHandler) HandleAddPlayer(w http.ResponseWriter, r *http.Request) {
	gi, err := pathIndex(r, "g")
	if err != nil {
		writeServiceError(w, err)
		return
	}
	f, err := h.deps.AddPlayer(r.Context(), r.PathValue("id"), gi)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, f)
}

// HandleRemovePlayer handles DELETE /files/{id}/groups/{g}/players/{p} requests.
func (h *GroupsHandler) HandleRemovePlayer(w http.ResponseWriter, r *http.Request) {
	gi, pi, err := playerPath(r)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	f, err := h.deps.RemovePlayer(r.Context(), r.PathValue("id"), gi, pi)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, f)
}

// HandleUpdatePlayer handles PATCH /files/{id}/groups/{g}/players/{p}
// requests and responds with the player after derived fields are updated.
func (h *GroupsHandler) HandleUpdatePlayer(w http.ResponseWriter, r *http.Request) {
	gi, pi, err := playerPath(r)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	var req fieldUpdateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeServiceError(w, err)
		return
	}
	raw, err := req.raw()
	if err != nil {
		writeServiceError(w, err)
		return
	}
	p, err := h.deps.UpdatePlayerField(r.Context(), r.PathValue("id"), gi, pi, model.Field(req.Field), raw)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func playerPath(r *http.Request) (int, int, error) {
	gi, err := pathIndex(r, "g")
	if err != nil {
		return 0, 0, err
	}
	pi, err := pathIndex(r, "p")
	if err != nil {
		return 0, 0, err
	}
	return gi, pi, nil
}
