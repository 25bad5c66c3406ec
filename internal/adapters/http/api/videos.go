package api

import (
	"context"
	"errors"
	"net/http"

	service "github.com/okian/clipscore/internal/app"
)

// SubmitDependencies defines asynchronous submission.
type SubmitDependencies interface {
	Submit(ctx context.Context, raw []byte) (jobID string, duplicate bool, err error)
}

type ackResponse struct {
	Status    string `json:"status"`
	JobID     string `json:"job_id,omitempty"`
	Duplicate bool   `json:"duplicate"`
}

// VideosHandler handles POST /videos.
type VideosHandler struct {
	deps SubmitDependencies
}

// NewVideosHandler creates a new videos handler.
func NewVideosHandler(deps SubmitDependencies) *VideosHandler {
	return &VideosHandler{deps: deps}
}

// HandlePostVideo validates the document and queues it for scoring.
func (h *VideosHandler) HandlePostVideo(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_video"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	body, err := readBody(w, r)
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, ErrTooLarge) {
			status = http.StatusRequestEntityTooLarge
		}
		writeError(w, status, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	jobID, duplicate, err := h.deps.Submit(r.Context(), body)
	switch {
	case err == nil && duplicate:
		writeJSON(w, http.StatusOK, ackResponse{Status: "duplicate", Duplicate: true})
	case err == nil:
		writeJSON(w, http.StatusAccepted, ackResponse{Status: "accepted", JobID: jobID})
	case isDocumentError(err):
		writeDocumentError(w, err)
	case errors.Is(err, service.ErrBackpressure):
		writeError(w, http.StatusTooManyRequests, "backpressure", NewKind(op, ErrBackpressure))
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
	}
}
