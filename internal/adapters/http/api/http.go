// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/okian/yogascore/internal/adapters/export"
	"github.com/okian/yogascore/internal/adapters/repository"
	service "github.com/okian/yogascore/internal/app"
	"github.com/okian/yogascore/internal/domain/scoring"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	StatsProvider
	EventDependencies
	AthleteDependencies
	JudgeDependencies
	ScoreDependencies
	LeaderboardDependencies
	ExportDependencies
}

var _ Dependencies = (*service.Service)(nil)

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler      *HealthHandler
	statsHandler       *StatsHandler
	eventsHandler      *EventsHandler
	athletesHandler    *AthletesHandler
	judgesHandler      *JudgesHandler
	scoresHandler      *ScoresHandler
	leaderboardHandler *LeaderboardHandler
	exportHandler      *ExportHandler
}

// NewServer creates a new API server with all handlers. maxLimit caps the
// limit query parameter of leaderboard requests.
func NewServer(deps Dependencies, maxLimit int) *Server {
	return &Server{
		healthHandler:      NewHealthHandler(),
		statsHandler:       NewStatsHandler(deps),
		eventsHandler:      NewEventsHandler(deps),
		athletesHandler:    NewAthletesHandler(deps),
		judgesHandler:      NewJudgesHandler(deps),
		scoresHandler:      NewScoresHandler(deps),
		leaderboardHandler: NewLeaderboardHandler(deps, maxLimit),
		exportHandler:      NewExportHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(mux *http.ServeMux) {
	route := func(pattern, endpoint string, h http.HandlerFunc) {
		mux.HandleFunc(pattern, MetricsMiddleware(h, endpoint))
	}

	route("GET /healthz", "healthz", s.healthHandler.HandleHealth)
	route("GET /stats", "stats", s.statsHandler.HandleStats)

	route("GET /events", "events", s.eventsHandler.HandleList)
	route("POST /events", "events", s.eventsHandler.HandleCreate)
	route("GET /events/{id}", "event", s.eventsHandler.HandleGet)
	route("PUT /events/{id}", "event", s.eventsHandler.HandleUpdate)
	route("DELETE /events/{id}", "event", s.eventsHandler.HandleDelete)
	route("GET /events/{id}/athletes", "event_athletes", s.eventsHandler.HandleAthletes)
	route("GET /events/{id}/judges", "event_judges", s.eventsHandler.HandleJudges)
	route("GET /events/{id}/leaderboard", "leaderboard", s.leaderboardHandler.HandleGetLeaderboard)
	route("GET /events/{id}/results", "results", s.leaderboardHandler.HandleGetResults)

	route("GET /athletes", "athletes", s.athletesHandler.HandleList)
	route("POST /athletes", "athletes", s.athletesHandler.HandleRegister)
	route("GET /athletes/{id}", "athlete", s.athletesHandler.HandleGet)
	route("PUT /athletes/{id}", "athlete", s.athletesHandler.HandleUpdate)
	route("DELETE /athletes/{id}", "athlete", s.athletesHandler.HandleDelete)
	route("GET /athletes/{id}/scores", "athlete_scores", s.athletesHandler.HandleScores)
	route("GET /athletes/{id}/scores/{judgeID}/marks", "asana_marks", s.athletesHandler.HandleMarks)

	route("GET /judges", "judges", s.judgesHandler.HandleList)
	route("POST /judges", "judges", s.judgesHandler.HandleAdd)
	route("GET /judges/{id}", "judge", s.judgesHandler.HandleGet)
	route("PUT /judges/{id}", "judge", s.judgesHandler.HandleUpdate)
	route("DELETE /judges/{id}", "judge", s.judgesHandler.HandleDelete)

	route("POST /scores/difficulty", "scores_difficulty", s.scoresHandler.HandleDifficulty)
	route("POST /scores/technical", "scores_technical", s.scoresHandler.HandleTechnical)

	route("GET /export.xlsx", "export", s.exportHandler.HandleExport)
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

// writeFailure translates a service error into its HTTP status.
func writeFailure(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, ErrTooLarge):
		writeError(w, http.StatusBadRequest, "limit_exceeded", Wrap(op, err))
	case errors.Is(err, ErrBadRequest), errors.Is(err, scoring.ErrValidation):
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
	case errors.Is(err, repository.ErrNotFound), errors.Is(err, export.ErrNoSheets):
		writeError(w, http.StatusNotFound, "not_found", Wrap(op, err))
	case errors.Is(err, service.ErrConflict):
		writeError(w, http.StatusConflict, "conflict", Wrap(op, err))
	case errors.Is(err, service.ErrNotStarted):
		writeError(w, http.StatusServiceUnavailable, "unavailable", Wrap(op, err))
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
	}
}

// validate checks request bodies, naming fields by their JSON keys.
var validate = func() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}()

// decodeBody reads a JSON body into v and, for request types, checks its
// validate tags.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %w", ErrBadRequest, err)
	}
	if err := validate.Struct(v); err != nil {
		var fields validator.ValidationErrors
		if errors.As(err, &fields) && len(fields) > 0 {
			return fmt.Errorf("%w: %s failed %s", ErrBadRequest, fields[0].Field(), fields[0].Tag())
		}
		return fmt.Errorf("%w: %w", ErrBadRequest, err)
	}
	return nil
}

// pathID parses a positive integer path wildcard.
func pathID(r *http.Request, name string) (int, error) {
	raw := r.PathValue(name)
	id, err := strconv.Atoi(raw)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("%w: invalid %s %q", ErrBadRequest, name, raw)
	}
	return id, nil
}
