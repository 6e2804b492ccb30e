package api

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/okian/yogascore/internal/domain/model"
	"github.com/okian/yogascore/internal/domain/scoring"
)

// LeaderboardDependencies defines the interface for leaderboard operations.
type LeaderboardDependencies interface {
	Leaderboard(ctx context.Context, eventID int) ([]model.LeaderboardEntry, error)
	Results(ctx context.Context, eventID int) ([]model.Result, error)
}

type leaderboardEntryResponse struct {
	model.LeaderboardEntry
	Display string `json:"display"`
}

type resultResponse struct {
	model.Result
	Display string `json:"display"`
}

// LeaderboardHandler handles leaderboard requests.
type LeaderboardHandler struct {
	deps     LeaderboardDependencies
	maxLimit int
}

// NewLeaderboardHandler creates a new leaderboard handler.
func NewLeaderboardHandler(deps LeaderboardDependencies, maxLimit int) *LeaderboardHandler {
	return &LeaderboardHandler{
		deps:     deps,
		maxLimit: maxLimit,
	}
}

// HandleGetLeaderboard handles GET /events/{id}/leaderboard?limit=N. Without
// limit the full leaderboard is returned.
func (h *LeaderboardHandler) HandleGetLeaderboard(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_leaderboard"
	id, err := pathID(r, "id")
	if err != nil {
		writeFailure(w, op, err)
		return
	}
	limit, err := h.limit(r)
	if err != nil {
		writeFailure(w, op, err)
		return
	}
	entries, err := h.deps.Leaderboard(r.Context(), id)
	if err != nil {
		writeFailure(w, op, err)
		return
	}
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	out := make([]leaderboardEntryResponse, len(entries))
	for i, e := range entries {
		out[i] = leaderboardEntryResponse{LeaderboardEntry: e, Display: scoring.Display(e.FinalScore)}
	}
	writeJSON(w, http.StatusOK, out)
}

// limit parses the optional limit parameter; 0 means no limit.
func (h *LeaderboardHandler) limit(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("%w: invalid limit %q", ErrBadRequest, raw)
	}
	if n > h.maxLimit {
		return 0, fmt.Errorf("%w: limit %d above %d", ErrTooLarge, n, h.maxLimit)
	}
	return n, nil
}

// HandleGetResults handles GET /events/{id}/results.
func (h *LeaderboardHandler) HandleGetResults(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_results"
	id, err := pathID(r, "id")
	if err != nil {
		writeFailure(w, op, err)
		return
	}
	results, err := h.deps.Results(r.Context(), id)
	if err != nil {
		writeFailure(w, op, err)
		return
	}
	out := make([]resultResponse, len(results))
	for i, res := range results {
		out[i] = resultResponse{Result: res, Display: scoring.Display(res.FinalScore)}
	}
	writeJSON(w, http.StatusOK, out)
}
