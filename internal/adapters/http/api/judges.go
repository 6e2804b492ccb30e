package api

import (
	"context"
	"net/http"

	"github.com/okian/yogascore/internal/domain/model"
)

// JudgeDependencies defines the interface for judge operations.
type JudgeDependencies interface {
	ListJudges(ctx context.Context) ([]model.Judge, error)
	GetJudge(ctx context.Context, id int) (model.Judge, error)
	AddJudge(ctx context.Context, j model.Judge) (model.Judge, error)
	UpdateJudge(ctx context.Context, id int, j model.Judge) (model.Judge, error)
	DeleteJudge(ctx context.Context, id int) error
}

// JudgesHandler handles judge requests.
type JudgesHandler struct {
	deps JudgeDependencies
}

// NewJudgesHandler creates a new judges handler.
func NewJudgesHandler(deps JudgeDependencies) *JudgesHandler {
	return &JudgesHandler{deps: deps}
}

// HandleList handles GET /judges.
func (h *JudgesHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	judges, err := h.deps.ListJudges(r.Context())
	if err != nil {
		writeFailure(w, "api.list_judges", err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(judges))
}

// HandleAdd handles POST /judges.
func (h *JudgesHandler) HandleAdd(w http.ResponseWriter, r *http.Request) {
	const op = "api.add_judge"
	var req model.Judge
	if err := decodeBody(w, r, &req); err != nil {
		writeFailure(w, op, err)
		return
	}
	j, err := h.deps.AddJudge(r.Context(), req)
	if err != nil {
		writeFailure(w, op, err)
		return
	}
	writeJSON(w, http.StatusCreated, j)
}

// HandleGet handles GET /judges/{id}.
func (h *JudgesHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_judge"
	id, err := pathID(r, "id")
	if err != nil {
		writeFailure(w, op, err)
		return
	}
	j, err := h.deps.GetJudge(r.Context(), id)
	if err != nil {
		writeFailure(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, j)
}

// HandleUpdate handles PUT /judges/{id}.
func (h *JudgesHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	const op = "api.update_judge"
	id, err := pathID(r, "id")
	if err != nil {
		writeFailure(w, op, err)
		return
	}
	var req model.Judge
	if err := decodeBody(w, r, &req); err != nil {
		writeFailure(w, op, err)
		return
	}
	j, err := h.deps.UpdateJudge(r.Context(), id, req)
	if err != nil {
		writeFailure(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, j)
}

// HandleDelete handles DELETE /judges/{id}. The judge's scores are removed
// with them.
func (h *JudgesHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	const op = "api.delete_judge"
	id, err := pathID(r, "id")
	if err != nil {
		writeFailure(w, op, err)
		return
	}
	if err := h.deps.DeleteJudge(r.Context(), id); err != nil {
		writeFailure(w, op, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
