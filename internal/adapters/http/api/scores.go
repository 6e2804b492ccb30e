package api

import (
	"context"
	"net/http"

	service "github.com/okian/yogascore/internal/app"
	"github.com/okian/yogascore/internal/domain/scoring"
)

// ScoreDependencies defines the interface for score submissions.
type ScoreDependencies interface {
	SubmitDifficulty(ctx context.Context, submissionID string, athleteID, judgeID int, marks []float64) (service.Submission, error)
	SubmitTechnical(ctx context.Context, submissionID string, athleteID, judgeID int, technical float64) (service.Submission, error)
}

// difficultyRequest is the body of POST /scores/difficulty. Marks are given
// in asana order.
type difficultyRequest struct {
	SubmissionID string    `json:"submission_id" validate:"omitempty,max=128"`
	AthleteID    int       `json:"athlete_id" validate:"required,min=1"`
	JudgeID      int       `json:"judge_id" validate:"required,min=1"`
	Marks        []float64 `json:"marks" validate:"required,min=1,max=50"`
}

// technicalRequest is the body of POST /scores/technical.
type technicalRequest struct {
	SubmissionID string   `json:"submission_id" validate:"omitempty,max=128"`
	AthleteID    int      `json:"athlete_id" validate:"required,min=1"`
	JudgeID      int      `json:"judge_id" validate:"required,min=1"`
	Technical    *float64 `json:"t_score_out_of_2" validate:"required"`
}

type submissionResponse struct {
	Status string `json:"status"`
	service.Submission
	Display string `json:"display"`
}

// ScoresHandler handles score submissions.
type ScoresHandler struct {
	deps ScoreDependencies
}

// NewScoresHandler creates a new scores handler.
func NewScoresHandler(deps ScoreDependencies) *ScoresHandler {
	return &ScoresHandler{deps: deps}
}

// HandleDifficulty handles POST /scores/difficulty.
func (h *ScoresHandler) HandleDifficulty(w http.ResponseWriter, r *http.Request) {
	const op = "api.submit_difficulty"
	var req difficultyRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeFailure(w, op, err)
		return
	}
	sub, err := h.deps.SubmitDifficulty(r.Context(), req.SubmissionID, req.AthleteID, req.JudgeID, req.Marks)
	if err != nil {
		writeFailure(w, op, err)
		return
	}
	writeSubmission(w, sub)
}

// HandleTechnical handles POST /scores/technical.
func (h *ScoresHandler) HandleTechnical(w http.ResponseWriter, r *http.Request) {
	const op = "api.submit_technical"
	var req technicalRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeFailure(w, op, err)
		return
	}
	sub, err := h.deps.SubmitTechnical(r.Context(), req.SubmissionID, req.AthleteID, req.JudgeID, *req.Technical)
	if err != nil {
		writeFailure(w, op, err)
		return
	}
	writeSubmission(w, sub)
}

// writeSubmission acknowledges new scores with 201 and repeats with 200.
func writeSubmission(w http.ResponseWriter, sub service.Submission) {
	resp := submissionResponse{Status: "accepted", Submission: sub, Display: scoring.Display(sub.Score.JudgeTotal)}
	status := http.StatusCreated
	if sub.Duplicate {
		resp.Status = "duplicate"
		status = http.StatusOK
	}
	writeJSON(w, status, resp)
}
