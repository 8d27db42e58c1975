package api

import (
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/okian/handball/internal/domain/scoring"
)

// ScoresHandler serves score table lookups.
type ScoresHandler struct{}

// NewScoresHandler creates a new scores handler.
func NewScoresHandler() *ScoresHandler {
	return &ScoresHandler{}
}

type scoreResponse struct {
	Test  scoring.Test `json:"test"`
	Value float64      `json:"value"`
	Score int          `json:"score"`
}

// HandleGetScore handles GET /scores/{test}?value=X requests.
func (h *ScoresHandler) HandleGetScore(w http.ResponseWriter, r *http.Request) {
	test := scoring.Test(r.PathValue("test"))
	table, ok := scoring.Lookup(test)
	if !ok {
		writeError(w, http.StatusNotFound, "not_found", fmt.Errorf("no score table for %q", test))
		return
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(r.URL.Query().Get("value")), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%w: value must be a finite number", ErrBadRequest))
		return
	}
	writeJSON(w, http.StatusOK, scoreResponse{Test: test, Value: v, Score: table.Score(v)})
}
