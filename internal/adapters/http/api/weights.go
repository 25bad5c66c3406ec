package api

import (
	"net/http"

	"github.com/okian/clipscore/internal/domain/scoring"
)

// WeightsDependencies exposes the active weight profile.
type WeightsDependencies interface {
	Profile() scoring.Profile
}

// WeightsHandler handles GET /weights.
type WeightsHandler struct {
	deps WeightsDependencies
}

// NewWeightsHandler creates a new weights handler.
func NewWeightsHandler(deps WeightsDependencies) *WeightsHandler {
	return &WeightsHandler{deps: deps}
}

// HandleGetWeights returns the version and weights the service scores with.
func (h *WeightsHandler) HandleGetWeights(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, h.deps.Profile())
}
