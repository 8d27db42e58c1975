// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/okian/handball/internal/adapters/repository"
	"github.com/okian/handball/internal/adapters/spreadsheet"
	service "github.com/okian/handball/internal/app"
	"github.com/okian/handball/internal/domain/model"
	"github.com/okian/handball/pkg/logger"
)

const defaultMaxUploadBytes = 10 << 20

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	StatsProvider

	ListFiles(ctx context.Context) ([]FileInfo, error)
	CreateFile(ctx context.Context, name string) (File, error)
	OpenFile(ctx context.Context, id string) (File, error)
	RenameFile(ctx context.Context, id, name string) (File, error)
	DeleteFile(ctx context.Context, id string) error

	AddGroup(ctx context.Context, id string) (File, error)
	RenameGroup(ctx context.Context, id string, gi int, name string) (File, error)
	RemoveGroup(ctx context.Context, id string, gi int) (File, error)
	AddPlayer(ctx context.Context, id string, gi int) (File, error)
	RemovePlayer(ctx context.Context, id string, gi, pi int) (File, error)
	UpdatePlayerField(ctx context.Context, id string, gi, pi int, field model.Field, raw string) (model.Player, error)

	ImportWorkbook(ctx context.Context, name string, r io.Reader) (File, error)
	ExportWorkbook(ctx context.Context, id string) ([]byte, string, error)
}

// File mirrors the open-file shape returned by the service.
type File = service.File

// FileInfo mirrors a catalog entry.
type FileInfo = repository.FileInfo

// Server wires HTTP routes for the recorder API.
type Server struct {
	healthHandler   *HealthHandler
	statsHandler    *StatsHandler
	scoresHandler   *ScoresHandler
	filesHandler    *FilesHandler
	groupsHandler   *GroupsHandler
	workbookHandler *WorkbookHandler

	log logger.Logger
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, opts ...Option) *Server {
	cfg := serverConfig{maxUploadBytes: defaultMaxUploadBytes}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.log == nil {
		cfg.log = logger.OrNop("api")
	}
	return &Server{
		healthHandler:   NewHealthHandler(),
		statsHandler:    NewStatsHandler(deps),
		scoresHandler:   NewScoresHandler(),
		filesHandler:    NewFilesHandler(deps),
		groupsHandler:   NewGroupsHandler(deps),
		workbookHandler: NewWorkbookHandler(deps, cfg.maxUploadBytes),
		log:             cfg.log,
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("GET /stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("GET /scores/{test}", MetricsMiddleware(s.scoresHandler.HandleGetScore, "scores"))

	mux.HandleFunc("GET /files", MetricsMiddleware(s.filesHandler.HandleList, "files"))
	mux.HandleFunc("POST /files", MetricsMiddleware(s.filesHandler.HandleCreate, "files"))
	mux.HandleFunc("POST /files/import", MetricsMiddleware(s.workbookHandler.HandleImport, "import"))
	mux.HandleFunc("GET /files/{id}", MetricsMiddleware(s.filesHandler.HandleOpen, "file"))
	mux.HandleFunc("PATCH /files/{id}", MetricsMiddleware(s.filesHandler.HandleRename, "file"))
	mux.HandleFunc("DELETE /files/{id}", MetricsMiddleware(s.filesHandler.HandleDelete, "file"))
	mux.HandleFunc("GET /files/{id}/export", MetricsMiddleware(s.workbookHandler.HandleExport, "export"))

	mux.HandleFunc("POST /files/{id}/groups", MetricsMiddleware(s.groupsHandler.HandleAddGroup, "groups"))
	mux.HandleFunc("PATCH /files/{id}/groups/{g}", MetricsMiddleware(s.groupsHandler.HandleRenameGroup, "group"))
	mux.HandleFunc("DELETE /files/{id}/groups/{g}", MetricsMiddleware(s.groupsHandler.HandleRemoveGroup, "group"))
	mux.HandleFunc("POST /files/{id}/groups/{g}/players", MetricsMiddleware(s.groupsHandler.HandleAddPlayer, "players"))
	mux.HandleFunc("PATCH /files/{id}/groups/{g}/players/{p}", MetricsMiddleware(s.groupsHandler.HandleUpdatePlayer, "player"))
	mux.HandleFunc("DELETE /files/{id}/groups/{g}/players/{p}", MetricsMiddleware(s.groupsHandler.HandleRemovePlayer, "player"))

	s.log.Info(ctx, "api routes registered")
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type nameRequest struct {
	Name string `json:"name"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeServiceError translates service and domain errors to a status.
func writeServiceError(w http.ResponseWriter, err error) {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge), errors.Is(err, ErrPayloadTooLarge):
		writeError(w, http.StatusRequestEntityTooLarge, "payload_too_large", err)
	case errors.Is(err, service.ErrFileNotFound), errors.Is(err, model.ErrIndex):
		writeError(w, http.StatusNotFound, "not_found", err)
	case errors.Is(err, model.ErrLastGroup):
		writeError(w, http.StatusConflict, "conflict", err)
	case errors.Is(err, spreadsheet.ErrMalformedWorkbook),
		errors.Is(err, spreadsheet.ErrEncode),
		errors.Is(err, spreadsheet.ErrNoGroups):
		writeError(w, http.StatusUnprocessableEntity, "unprocessable", err)
	case errors.Is(err, ErrBadRequest),
		errors.Is(err, service.ErrInvalidInput),
		errors.Is(err, model.ErrOutOfRange),
		errors.Is(err, model.ErrUnknownField),
		errors.Is(err, model.ErrDerivedField),
		errors.Is(err, model.ErrValueKind),
		errors.Is(err, model.ErrNonFinite):
		writeError(w, http.StatusBadRequest, "bad_request", err)
	case errors.Is(err, service.ErrNotStarted):
		writeError(w, http.StatusServiceUnavailable, "unavailable", err)
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err)
	}
}

func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: %w", ErrBadRequest, err)
	}
	return nil
}

// pathIndex reads an integer path value.
func pathIndex(r *http.Request, name string) (int, error) {
	n, err := strconv.Atoi(r.PathValue(name))
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %w", ErrBadRequest, name, err)
	}
	return n, nil
}
