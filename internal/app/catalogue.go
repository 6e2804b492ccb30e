package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/okian/yogascore/internal/adapters/repository"
	"github.com/okian/yogascore/internal/domain/model"
	"github.com/okian/yogascore/internal/domain/scoring"
	"github.com/okian/yogascore/pkg/logger"
	"github.com/okian/yogascore/pkg/metrics"
)

// check validates v against its struct tags. The first failing field is
// reported as a *scoring.ValidationError.
func (s *Service) check(op string, v any) error {
	err := s.validate.Struct(v)
	if err == nil {
		return nil
	}
	metrics.RecordValidationFailure(op)
	var fields validator.ValidationErrors
	if errors.As(err, &fields) && len(fields) > 0 {
		fe := fields[0]
		reason := "failed " + fe.Tag()
		if fe.Param() != "" {
			reason += "=" + fe.Param()
		}
		return &scoring.ValidationError{Field: fe.Field(), Reason: reason}
	}
	return fmt.Errorf("%s: %w", op, err)
}

// ListEvents returns every event.
func (s *Service) ListEvents(ctx context.Context) ([]model.Event, error) {
	return s.repo.ListEvents(ctx)
}

// GetEvent returns one event.
func (s *Service) GetEvent(ctx context.Context, id int) (model.Event, error) {
	return s.repo.GetEvent(ctx, id)
}

// CreateEvent validates and stores a new event. New events are active
// unless a status is given.
func (s *Service) CreateEvent(ctx context.Context, e model.Event) (model.Event, error) {
	if err := s.check("create_event", e); err != nil {
		return model.Event{}, err
	}
	created, err := s.repo.AddEvent(ctx, e)
	if err != nil {
		return model.Event{}, err
	}
	s.logger.Info(ctx, "event created", logger.Int("event_id", created.ID), logger.String("name", created.Name))
	return created, nil
}

// UpdateEvent replaces the editable fields of event id. An empty status
// keeps the current one.
func (s *Service) UpdateEvent(ctx context.Context, id int, e model.Event) (model.Event, error) {
	if err := s.check("update_event", e); err != nil {
		return model.Event{}, err
	}
	current, err := s.repo.GetEvent(ctx, id)
	if err != nil {
		return model.Event{}, err
	}
	e.ID = id
	if e.Status == "" {
		e.Status = current.Status
	}
	return s.repo.UpdateEvent(ctx, e)
}

// DeleteEvent removes an event, its results snapshot and every judge
// assignment to it. Athletes still registered in it are refused with
// ErrConflict.
func (s *Service) DeleteEvent(ctx context.Context, id int) error {
	if err := s.repo.DeleteEvent(ctx, id); err != nil {
		if errors.Is(err, repository.ErrInUse) {
			return fmt.Errorf("%w: %w", ErrConflict, err)
		}
		return err
	}
	s.logger.Info(ctx, "event deleted", logger.Int("event_id", id))
	return nil
}

// ListAthletes returns every athlete.
func (s *Service) ListAthletes(ctx context.Context) ([]model.Athlete, error) {
	return s.repo.ListAthletes(ctx)
}

// GetAthlete returns one athlete.
func (s *Service) GetAthlete(ctx context.Context, id int) (model.Athlete, error) {
	return s.repo.GetAthlete(ctx, id)
}

// ListAthletesByEvent returns the athletes of an existing event.
func (s *Service) ListAthletesByEvent(ctx context.Context, eventID int) ([]model.Athlete, error) {
	if _, err := s.repo.GetEvent(ctx, eventID); err != nil {
		return nil, err
	}
	return s.repo.ListAthletesByEvent(ctx, eventID)
}

// RegisterAthlete validates and stores a new athlete. The store assigns the
// registration number.
func (s *Service) RegisterAthlete(ctx context.Context, a model.Athlete) (model.Athlete, error) {
	if err := s.check("register_athlete", a); err != nil {
		return model.Athlete{}, err
	}
	registered, err := s.repo.AddAthlete(ctx, a)
	if err != nil {
		return model.Athlete{}, err
	}
	s.logger.Info(ctx, "athlete registered",
		logger.Int("athlete_id", registered.ID),
		logger.String("registration_no", registered.RegistrationNo),
		logger.Int("event_id", registered.EventID),
	)
	s.requestRebuild(ctx, registered.EventID)
	return registered, nil
}

// UpdateAthlete replaces name, age and event of athlete id. Moving an
// athlete drops the scores judges of the old event gave them and refreshes
// the results of both events.
func (s *Service) UpdateAthlete(ctx context.Context, id int, a model.Athlete) (model.Athlete, error) {
	if err := s.check("update_athlete", a); err != nil {
		return model.Athlete{}, err
	}
	current, err := s.repo.GetAthlete(ctx, id)
	if err != nil {
		return model.Athlete{}, err
	}
	a.ID = id
	updated, err := s.repo.UpdateAthlete(ctx, a)
	if err != nil {
		return model.Athlete{}, err
	}
	s.requestRebuild(ctx, updated.EventID)
	if current.EventID != updated.EventID {
		s.requestRebuild(ctx, current.EventID)
	}
	return updated, nil
}

// DeleteAthlete removes an athlete and refreshes their event's results.
func (s *Service) DeleteAthlete(ctx context.Context, id int) error {
	current, err := s.repo.GetAthlete(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.DeleteAthlete(ctx, id); err != nil {
		return err
	}
	s.logger.Info(ctx, "athlete deleted", logger.Int("athlete_id", id))
	s.requestRebuild(ctx, current.EventID)
	return nil
}

// ListJudges returns every judge.
func (s *Service) ListJudges(ctx context.Context) ([]model.Judge, error) {
	return s.repo.ListJudges(ctx)
}

// GetJudge returns one judge.
func (s *Service) GetJudge(ctx context.Context, id int) (model.Judge, error) {
	return s.repo.GetJudge(ctx, id)
}

// ListJudgesByEvent returns the judges assigned to an existing event. An
// empty role matches both panels.
func (s *Service) ListJudgesByEvent(ctx context.Context, eventID int, role model.JudgeRole) ([]model.Judge, error) {
	if role != "" && !role.Valid() {
		metrics.RecordValidationFailure("list_judges")
		return nil, &scoring.ValidationError{Field: "role", Reason: fmt.Sprintf("unknown role %q", role)}
	}
	if _, err := s.repo.GetEvent(ctx, eventID); err != nil {
		return nil, err
	}
	return s.repo.ListJudgesByEvent(ctx, eventID, role)
}

// AddJudge validates and stores a judge. Every assigned event must exist.
func (s *Service) AddJudge(ctx context.Context, j model.Judge) (model.Judge, error) {
	if err := s.check("add_judge", j); err != nil {
		return model.Judge{}, err
	}
	for _, id := range j.AssignedEvents {
		if _, err := s.repo.GetEvent(ctx, id); err != nil {
			return model.Judge{}, err
		}
	}
	added, err := s.repo.AddJudge(ctx, j)
	if err != nil {
		return model.Judge{}, err
	}
	s.logger.Info(ctx, "judge added",
		logger.Int("judge_id", added.ID),
		logger.String("role", string(added.Role)),
	)
	return added, nil
}

// UpdateJudge replaces name, role and assignments of judge id. Scores the
// judge gave that no longer fit their panel or assignments are dropped, and
// the results of every event they were or are assigned to are refreshed.
func (s *Service) UpdateJudge(ctx context.Context, id int, j model.Judge) (model.Judge, error) {
	if err := s.check("update_judge", j); err != nil {
		return model.Judge{}, err
	}
	current, err := s.repo.GetJudge(ctx, id)
	if err != nil {
		return model.Judge{}, err
	}
	j.ID = id
	updated, err := s.repo.UpdateJudge(ctx, j)
	if err != nil {
		return model.Judge{}, err
	}
	s.logger.Info(ctx, "judge updated",
		logger.Int("judge_id", id),
		logger.String("role", string(updated.Role)),
	)
	s.rebuildEvents(ctx, current.AssignedEvents, updated.AssignedEvents)
	return updated, nil
}

// DeleteJudge removes a judge together with the marks and scores they gave,
// and refreshes the results of the events they were assigned to.
func (s *Service) DeleteJudge(ctx context.Context, id int) error {
	current, err := s.repo.GetJudge(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.DeleteJudge(ctx, id); err != nil {
		return err
	}
	s.logger.Info(ctx, "judge deleted", logger.Int("judge_id", id))
	s.rebuildEvents(ctx, current.AssignedEvents)
	return nil
}

// rebuildEvents queues one results refresh per distinct event ID.
func (s *Service) rebuildEvents(ctx context.Context, lists ...[]int) {
	seen := make(map[int]bool)
	for _, ids := range lists {
		for _, id := range ids {
			if !seen[id] {
				seen[id] = true
				s.requestRebuild(ctx, id)
			}
		}
	}
}
