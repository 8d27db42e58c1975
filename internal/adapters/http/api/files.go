package api

import (
	"net/http"
)

// FilesHandler serves the file catalog.
type FilesHandler struct {
	deps Dependencies
}

// NewFilesHandler creates a new files handler.
func NewFilesHandler(deps Dependencies) *FilesHandler {
	return &FilesHandler{deps: deps}
}

// HandleList handles GET /files requests, newest first.
func (h *FilesHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	files, err := h.deps.ListFiles(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if files == nil {
		files = []FileInfo{}
	}
	writeJSON(w, http.StatusOK, files)
}

// HandleCreate handles POST /files requests.
func (h *FilesHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req nameRequest
	if err := decodeJSON(r, &req); err != nil {
		writeServiceError(w, err)
		return
	}
	f, err := h.deps.CreateFile(r.Context(), req.Name)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, f)
}

// HandleOpen handles GET /files/{id} requests.
func (h *FilesHandler) HandleOpen(w http.ResponseWriter, r *http.Request) {
	f, err := h.deps.OpenFile(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, f)
}

// HandleRename handles PATCH /files/{id} requests.
func (h *FilesHandler) HandleRename(w http.ResponseWriter, r *http.Request) {
	var req nameRequest
	if err := decodeJSON(r, &req); err != nil {
		writeServiceError(w, err)
		return
	}
	f, err := h.deps.RenameFile(r.Context(), r.PathValue("id"), req.Name)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, f)
}

// HandleDelete handles DELETE /files/{id} requests. Unknown ids succeed.
func (h *FilesHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.deps.DeleteFile(r.Context(), r.PathValue("id")); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
