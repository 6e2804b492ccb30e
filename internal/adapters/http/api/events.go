package api

import (
	"context"
	"net/http"

	"github.com/okian/yogascore/internal/domain/model"
)

// EventDependencies defines the interface for event operations.
type EventDependencies interface {
	ListEvents(ctx context.Context) ([]model.Event, error)
	GetEvent(ctx context.Context, id int) (model.Event, error)
	CreateEvent(ctx context.Context, e model.Event) (model.Event, error)
	UpdateEvent(ctx context.Context, id int, e model.Event) (model.Event, error)
	DeleteEvent(ctx context.Context, id int) error
	ListAthletesByEvent(ctx context.Context, eventID int) ([]model.Athlete, error)
	ListJudgesByEvent(ctx context.Context, eventID int, role model.JudgeRole) ([]model.Judge, error)
}

// EventsHandler handles event requests.
type EventsHandler struct {
	deps EventDependencies
}

// NewEventsHandler creates a new events handler.
func NewEventsHandler(deps EventDependencies) *EventsHandler {
	return &EventsHandler{deps: deps}
}

// HandleList handles GET /events.
func (h *EventsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	events, err := h.deps.ListEvents(r.Context())
	if err != nil {
		writeFailure(w, "api.list_events", err)
		return
	}
	writeJSON(w, http.StatusOK, events)
}

// HandleCreate handles POST /events.
func (h *EventsHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	const op = "api.create_event"
	var req model.Event
	if err := decodeBody(w, r, &req); err != nil {
		writeFailure(w, op, err)
		return
	}
	e, err := h.deps.CreateEvent(r.Context(), req)
	if err != nil {
		writeFailure(w, op, err)
		return
	}
	writeJSON(w, http.StatusCreated, e)
}

// HandleGet handles GET /events/{id}.
func (h *EventsHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_event"
	id, err := pathID(r, "id")
	if err != nil {
		writeFailure(w, op, err)
		return
	}
	e, err := h.deps.GetEvent(r.Context(), id)
	if err != nil {
		writeFailure(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

// HandleUpdate handles PUT /events/{id}.
func (h *EventsHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	const op = "api.update_event"
	id, err := pathID(r, "id")
	if err != nil {
		writeFailure(w, op, err)
		return
	}
	var req model.Event
	if err := decodeBody(w, r, &req); err != nil {
		writeFailure(w, op, err)
		return
	}
	e, err := h.deps.UpdateEvent(r.Context(), id, req)
	if err != nil {
		writeFailure(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

// HandleDelete handles DELETE /events/{id}.
func (h *EventsHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	const op = "api.delete_event"
	id, err := pathID(r, "id")
	if err != nil {
		writeFailure(w, op, err)
		return
	}
	if err := h.deps.DeleteEvent(r.Context(), id); err != nil {
		writeFailure(w, op, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleAthletes handles GET /events/{id}/athletes.
func (h *EventsHandler) HandleAthletes(w http.ResponseWriter, r *http.Request) {
	const op = "api.event_athletes"
	id, err := pathID(r, "id")
	if err != nil {
		writeFailure(w, op, err)
		return
	}
	athletes, err := h.deps.ListAthletesByEvent(r.Context(), id)
	if err != nil {
		writeFailure(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(athletes))
}

// HandleJudges handles GET /events/{id}/judges?role=D|T.
func (h *EventsHandler) HandleJudges(w http.ResponseWriter, r *http.Request) {
	const op = "api.event_judges"
	id, err := pathID(r, "id")
	if err != nil {
		writeFailure(w, op, err)
		return
	}
	role := model.JudgeRole(r.URL.Query().Get("role"))
	judges, err := h.deps.ListJudgesByEvent(r.Context(), id, role)
	if err != nil {
		writeFailure(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(judges))
}

// nonNil makes empty lists encode as [] rather than null.
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
