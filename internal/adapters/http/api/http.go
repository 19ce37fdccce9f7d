// Package api exposes the progress service over HTTP with JSON bodies.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	service "github.com/okian/wpr/internal/app"
	"github.com/okian/wpr/internal/domain/engine"
	"github.com/okian/wpr/internal/domain/model"
	"github.com/okian/wpr/internal/domain/types"
)

const (
	defaultLeaderboardLimit = 10
	maxBodyBytes            = 1 << 20
)

// ProfileDependencies covers profile configuration and analysis.
type ProfileDependencies interface {
	ConfigureProfile(ctx context.Context, athleteID string, st service.ProfileSettings) (*model.Profile, error)
	SetBaseline(ctx context.Context, athleteID string, b service.Baseline) (*model.Profile, error)
	Profile(ctx context.Context, athleteID string) (*model.Profile, error)
	DeleteProfile(ctx context.Context, athleteID string) error
	Analyze(ctx context.Context, athleteID string) (engine.Analysis, error)
	AnalyzeAll(ctx context.Context) ([]engine.Analysis, error)
}

// MeasurementDependencies covers ingestion.
type MeasurementDependencies interface {
	Ingest(ctx context.Context, m model.Measurement) (service.IngestResult, error)
}

// LeaderboardDependencies covers leaderboard reads.
type LeaderboardDependencies interface {
	TopN(ctx context.Context, n int) ([]types.Entry, error)
	Rank(ctx context.Context, athleteID string) (types.Entry, error)
}

// StatsProvider returns service statistics.
type StatsProvider interface {
	GetStats() map[string]any
}

// Dependencies is everything the handlers need. *service.Service implements it.
type Dependencies interface {
	ProfileDependencies
	MeasurementDependencies
	LeaderboardDependencies
	StatsProvider
}

// Server wires HTTP routes for the progress API.
type Server struct {
	profiles     *ProfileHandler
	measurements *MeasurementHandler
	leaderboard  *LeaderboardHandler
	stats        *StatsHandler
	health       *HealthHandler
}

// NewServer creates a server. maxLimit caps GET /leaderboard?limit.
func NewServer(deps Dependencies, maxLimit int) *Server {
	return &Server{
		profiles:     NewProfileHandler(deps),
		measurements: NewMeasurementHandler(deps),
		leaderboard:  NewLeaderboardHandler(deps, maxLimit),
		stats:        NewStatsHandler(deps),
		health:       NewHealthHandler(),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", MetricsMiddleware(s.health.HandleHealth, "healthz"))
	mux.HandleFunc("GET /stats", MetricsMiddleware(s.stats.HandleStats, "stats"))

	mux.HandleFunc("PUT /athletes/{id}", MetricsMiddleware(s.profiles.HandlePut, "athletes_put"))
	mux.HandleFunc("GET /athletes/{id}", MetricsMiddleware(s.profiles.HandleGet, "athletes_get"))
	mux.HandleFunc("DELETE /athletes/{id}", MetricsMiddleware(s.profiles.HandleDelete, "athletes_delete"))
	mux.HandleFunc("POST /athletes/{id}/baseline", MetricsMiddleware(s.profiles.HandleBaseline, "baseline"))
	mux.HandleFunc("GET /athletes/{id}/analysis", MetricsMiddleware(s.profiles.HandleAnalysis, "analysis"))
	mux.HandleFunc("POST /analysis", MetricsMiddleware(s.profiles.HandleAnalyzeAll, "analysis_all"))

	mux.HandleFunc("POST /measurements", MetricsMiddleware(s.measurements.HandlePost, "measurements"))

	mux.HandleFunc("GET /leaderboard", MetricsMiddleware(s.leaderboard.HandleGetLeaderboard, "leaderboard"))
	mux.HandleFunc("GET /athletes/{id}/rank", MetricsMiddleware(s.leaderboard.HandleGetRank, "rank"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
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

// writeServiceError picks the status from the error kind.
func writeServiceError(w http.ResponseWriter, err error) {
	status, code := statusFor(err)
	writeError(w, status, code, err)
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: %w", ErrBadRequest, err)
	}
	return nil
}
