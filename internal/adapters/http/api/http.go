// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/okian/clipscore/internal/adapters/repository"
	"github.com/okian/clipscore/internal/domain/model"
	"github.com/okian/clipscore/internal/domain/schema"
)

// maxBodyBytes bounds request documents.
const maxBodyBytes = 1 << 20

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	ScoreDependencies
	SubmitDependencies
	LeaderboardDependencies
	RankDependencies
	HistoryDependencies
	WeightsDependencies
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler      *HealthHandler
	statsHandler       *StatsHandler
	scoreHandler       *ScoreHandler
	videosHandler      *VideosHandler
	leaderboardHandler *LeaderboardHandler
	rankHandler        *RankHandler
	historyHandler     *HistoryHandler
	weightsHandler     *WeightsHandler
}

// NewServer creates a new API server with all handlers. maxLimit caps
// GET /leaderboard?limit.
func NewServer(deps Dependencies, statsProvider StatsProvider, maxLimit int) *Server {
	return &Server{
		healthHandler:      NewHealthHandler(),
		statsHandler:       NewStatsHandler(statsProvider),
		scoreHandler:       NewScoreHandler(deps),
		videosHandler:      NewVideosHandler(deps),
		leaderboardHandler: NewLeaderboardHandler(deps, maxLimit),
		rankHandler:        NewRankHandler(deps),
		historyHandler:     NewHistoryHandler(deps),
		weightsHandler:     NewWeightsHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", Instrument("healthz", s.healthHandler.HandleHealth))
	mux.HandleFunc("/metrics", s.healthHandler.HandleMetrics)
	mux.HandleFunc("/stats", Instrument("stats", s.statsHandler.HandleStats))
	mux.HandleFunc("/weights", Instrument("weights", s.weightsHandler.HandleGetWeights))
	mux.HandleFunc("/score", Instrument("score", s.scoreHandler.HandlePostScore))
	mux.HandleFunc("/videos", Instrument("videos", s.videosHandler.HandlePostVideo))
	mux.HandleFunc("/leaderboard", Instrument("leaderboard", s.leaderboardHandler.HandleGetLeaderboard))
	mux.HandleFunc("/rank/", Instrument("rank", s.rankHandler.HandleGetRank))
	mux.HandleFunc("/history/", Instrument("history", s.historyHandler.HandleGetHistory))
}

type errorResponse struct {
	Code    string              `json:"code"`
	Message string              `json:"message"`
	Fields  []schema.FieldError `json:"fields,omitempty"`
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

// writeDocumentError maps an input-document failure onto 400 with its
// field-level detail.
func writeDocumentError(w http.ResponseWriter, err error) {
	writeJSON(w, http.StatusBadRequest, errorResponse{
		Code:    schema.Kind(err),
		Message: err.Error(),
		Fields:  schema.Fields(err),
	})
}

func isDocumentError(err error) bool {
	return errors.Is(err, schema.ErrMalformed) || errors.Is(err, schema.ErrSchema)
}

func isNotFound(err error) bool {
	return errors.Is(err, repository.ErrNotFound)
}

// readBody reads at most maxBodyBytes of the request body.
func readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, fmt.Errorf("%w: limit %d bytes", ErrTooLarge, tooLarge.Limit)
		}
		return nil, err
	}
	return body, nil
}

// Entry mirrors the read shape returned by leaderboard queries.
type Entry = model.Entry
