package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/okian/clipscore/internal/adapters/repository"
	service "github.com/okian/clipscore/internal/app"
)

// HistoryDependencies defines archive reads.
type HistoryDependencies interface {
	History(ctx context.Context, videoID string) ([]repository.Record, error)
}

// HistoryHandler handles GET /history/{video_id}.
type HistoryHandler struct {
	deps HistoryDependencies
}

// NewHistoryHandler creates a new history handler.
func NewHistoryHandler(deps HistoryDependencies) *HistoryHandler {
	return &HistoryHandler{deps: deps}
}

// HandleGetHistory returns every archived result for a video, newest first.
func (h *HistoryHandler) HandleGetHistory(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_history"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	id, ok := pathID(r.URL.Path, "/history/")
	if !ok {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}
	rows, err := h.deps.History(r.Context(), id)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, rows)
	case isNotFound(err):
		writeError(w, http.StatusNotFound, "not_found", err)
	case errors.Is(err, service.ErrArchiveDisabled):
		writeError(w, http.StatusNotImplemented, "archive_disabled", err)
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
	}
}
