package api

import (
	"context"
	"net/http"

	service "github.com/okian/yogascore/internal/app"
	"github.com/okian/yogascore/internal/domain/model"
	"github.com/okian/yogascore/internal/domain/scoring"
)

// AthleteDependencies defines the interface for athlete operations.
type AthleteDependencies interface {
	ListAthletes(ctx context.Context) ([]model.Athlete, error)
	GetAthlete(ctx context.Context, id int) (model.Athlete, error)
	RegisterAthlete(ctx context.Context, a model.Athlete) (model.Athlete, error)
	UpdateAthlete(ctx context.Context, id int, a model.Athlete) (model.Athlete, error)
	DeleteAthlete(ctx context.Context, id int) error
	AthleteScore(ctx context.Context, athleteID int) (service.AthleteScore, error)
	AsanaMarks(ctx context.Context, athleteID, judgeID int) ([]model.AsanaScore, error)
}

// athleteScoreResponse adds the one-decimal display of the final score.
type athleteScoreResponse struct {
	service.AthleteScore
	Display string `json:"display"`
}

// AthletesHandler handles athlete requests.
type AthletesHandler struct {
	deps AthleteDependencies
}

// NewAthletesHandler creates a new athletes handler.
func NewAthletesHandler(deps AthleteDependencies) *AthletesHandler {
	return &AthletesHandler{deps: deps}
}

// HandleList handles GET /athletes.
func (h *AthletesHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	athletes, err := h.deps.ListAthletes(r.Context())
	if err != nil {
		writeFailure(w, "api.list_athletes", err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(athletes))
}

// HandleRegister handles POST /athletes.
func (h *AthletesHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	const op = "api.register_athlete"
	var req model.Athlete
	if err := decodeBody(w, r, &req); err != nil {
		writeFailure(w, op, err)
		return
	}
	a, err := h.deps.RegisterAthlete(r.Context(), req)
	if err != nil {
		writeFailure(w, op, err)
		return
	}
	writeJSON(w, http.StatusCreated, a)
}

// HandleGet handles GET /athletes/{id}.
func (h *AthletesHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_athlete"
	id, err := pathID(r, "id")
	if err != nil {
		writeFailure(w, op, err)
		return
	}
	a, err := h.deps.GetAthlete(r.Context(), id)
	if err != nil {
		writeFailure(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

// HandleUpdate handles PUT /athletes/{id}.
func (h *AthletesHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	const op = "api.update_athlete"
	id, err := pathID(r, "id")
	if err != nil {
		writeFailure(w, op, err)
		return
	}
	var req model.Athlete
	if err := decodeBody(w, r, &req); err != nil {
		writeFailure(w, op, err)
		return
	}
	a, err := h.deps.UpdateAthlete(r.Context(), id, req)
	if err != nil {
		writeFailure(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

// HandleDelete handles DELETE /athletes/{id}.
func (h *AthletesHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	const op = "api.delete_athlete"
	id, err := pathID(r, "id")
	if err != nil {
		writeFailure(w, op, err)
		return
	}
	if err := h.deps.DeleteAthlete(r.Context(), id); err != nil {
		writeFailure(w, op, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleScores handles GET /athletes/{id}/scores.
func (h *AthletesHandler) HandleScores(w http.ResponseWriter, r *http.Request) {
	const op = "api.athlete_scores"
	id, err := pathID(r, "id")
	if err != nil {
		writeFailure(w, op, err)
		return
	}
	score, err := h.deps.AthleteScore(r.Context(), id)
	if err != nil {
		writeFailure(w, op, err)
		return
	}
	score.Scores = nonNil(score.Scores)
	writeJSON(w, http.StatusOK, athleteScoreResponse{AthleteScore: score, Display: scoring.Display(score.FinalScore)})
}

// HandleMarks handles GET /athletes/{id}/scores/{judgeID}/marks.
func (h *AthletesHandler) HandleMarks(w http.ResponseWriter, r *http.Request) {
	const op = "api.asana_marks"
	id, err := pathID(r, "id")
	if err != nil {
		writeFailure(w, op, err)
		return
	}
	judgeID, err := pathID(r, "judgeID")
	if err != nil {
		writeFailure(w, op, err)
		return
	}
	marks, err := h.deps.AsanaMarks(r.Context(), id, judgeID)
	if err != nil {
		writeFailure(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(marks))
}
