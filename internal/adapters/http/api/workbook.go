package api

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/okian/handball/internal/adapters/spreadsheet"
)

// WorkbookHandler serves spreadsheet import and export.
type WorkbookHandler struct {
	deps           Dependencies
	maxUploadBytes int64
}

// NewWorkbookHandler creates a new workbook handler accepting uploads of at
// most maxUploadBytes.
func NewWorkbookHandler(deps Dependencies, maxUploadBytes int64) *WorkbookHandler {
	return &WorkbookHandler{deps: deps, maxUploadBytes: maxUploadBytes}
}

// HandleExport handles GET /files/{id}/export requests.
func (h *WorkbookHandler) HandleExport(w http.ResponseWriter, r *http.Request) {
	data, name, err := h.deps.ExportWorkbook(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	w.Header().Set("Content-Type", spreadsheet.MIMEType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// HandleImport handles POST /files/import?name=N requests whose body is an
// xlsx workbook.
func (h *WorkbookHandler) HandleImport(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxUploadBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			err = fmt.Errorf("%w: limit %d bytes", ErrPayloadTooLarge, tooLarge.Limit)
		} else {
			err = fmt.Errorf("%w: %w", ErrBadRequest, err)
		}
		writeServiceError(w, err)
		return
	}
	f, err := h.deps.ImportWorkbook(r.Context(), r.URL.Query().Get("name"), bytes.NewReader(body))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, f)
}
