package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	eventqueue "github.com/okian/yogascore/internal/adapters/mq/queue"
	"github.com/okian/yogascore/internal/domain/model"
	"github.com/okian/yogascore/internal/domain/scoring"
	"github.com/okian/yogascore/pkg/logger"
	"github.com/okian/yogascore/pkg/metrics"
)

// Submission is the outcome of a score submission.
type Submission struct {
	ID        string           `json:"submission_id"`
	Duplicate bool             `json:"duplicate"`
	Score     model.JudgeScore `json:"score"`
}

// SubmitDifficulty records a D-judge's asana marks for an athlete. Marks
// replace any the judge gave the athlete before. An empty submissionID is
// replaced by a generated one; a repeated ID is acknowledged with the score
// currently stored, without being checked or applied again.
func (s *Service) SubmitDifficulty(ctx context.Context, submissionID string, athleteID, judgeID int, marks []float64) (Submission, error) {
	if len(marks) == 0 {
		metrics.RecordValidationFailure("submit_difficulty")
		return Submission{}, &scoring.ValidationError{Field: "marks", Reason: "at least one mark is required"}
	}
	d, err := scoring.ComputeDifficultyComponent(marks)
	if err != nil {
		metrics.RecordValidationFailure("submit_difficulty")
		return Submission{}, err
	}

	return s.submit(ctx, submissionID, athleteID, judgeID, model.RoleDifficulty, func(event model.Event) (model.JudgeScore, []model.AsanaScore, error) {
		if len(marks) > event.NumAsanas {
			metrics.RecordValidationFailure("submit_difficulty")
			return model.JudgeScore{}, nil, &scoring.ValidationError{
				Field:  "marks",
				Reason: fmt.Sprintf("%d marks for an event of %d asanas", len(marks), event.NumAsanas),
			}
		}
		total, err := scoring.JudgeTotal(&d, nil)
		if err != nil {
			return model.JudgeScore{}, nil, err
		}
		now := time.Now().UTC()
		asanas := make([]model.AsanaScore, len(marks))
		for i, m := range marks {
			asanas[i] = model.AsanaScore{AthleteID: athleteID, JudgeID: judgeID, AsanaIndex: i + 1, Mark: m, Timestamp: now}
		}
		return model.JudgeScore{AthleteID: athleteID, JudgeID: judgeID, DifficultyComponent: model.Float(d), JudgeTotal: total}, asanas, nil
	})
}

// SubmitTechnical records a T-judge's technical component (0 to 2) for an
// athlete, replacing any earlier one from the same judge.
func (s *Service) SubmitTechnical(ctx context.Context, submissionID string, athleteID, judgeID int, technical float64) (Submission, error) {
	total, err := scoring.JudgeTotal(nil, &technical)
	if err != nil {
		metrics.RecordValidationFailure("submit_technical")
		return Submission{}, err
	}

	return s.submit(ctx, submissionID, athleteID, judgeID, model.RoleTechnical, func(model.Event) (model.JudgeScore, []model.AsanaScore, error) {
		return model.JudgeScore{AthleteID: athleteID, JudgeID: judgeID, TechnicalComponent: model.Float(technical), JudgeTotal: total}, nil, nil
	})
}

// scoreFunc builds the records a submission stores once the judge has been
// authorized for the athlete's event.
type scoreFunc func(event model.Event) (model.JudgeScore, []model.AsanaScore, error)

func (s *Service) submit(ctx context.Context, submissionID string, athleteID, judgeID int, role model.JudgeRole, build scoreFunc) (Submission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.started {
		return Submission{}, ErrNotStarted
	}
	if submissionID == "" {
		submissionID = uuid.NewString()
	}

	if s.deduper.SeenAndRecord(ctx, submissionID) {
		metrics.RecordSubmissionDuplicate()
		s.logger.Debug(ctx, "duplicate submission, skipping",
			logger.String("submission_id", submissionID),
			logger.Int("athlete_id", athleteID),
			logger.Int("judge_id", judgeID),
		)
		stored, err := s.storedScore(ctx, athleteID, judgeID)
		if err != nil {
			return Submission{}, err
		}
		return Submission{ID: submissionID, Duplicate: true, Score: stored}, nil
	}

	event, err := s.authorize(ctx, athleteID, judgeID, role)
	if err != nil {
		s.deduper.Unrecord(ctx, submissionID)
		return Submission{}, err
	}
	score, asanas, err := build(event)
	if err != nil {
		s.deduper.Unrecord(ctx, submissionID)
		return Submission{}, err
	}
	if err := s.store(ctx, score, asanas); err != nil {
		s.deduper.Unrecord(ctx, submissionID)
		return Submission{}, err
	}
	if err := metrics.RecordSubmission(string(role)); err != nil {
		s.logger.Warn(ctx, "recording submission metric", logger.Error(err))
	}
	s.logger.Info(ctx, "score submitted",
		logger.String("submission_id", submissionID),
		logger.String("role", string(role)),
		logger.Int("athlete_id", athleteID),
		logger.Int("judge_id", judgeID),
		logger.Float64("judge_total", score.JudgeTotal),
	)

	s.enqueueLocked(ctx, event.ID)
	return Submission{ID: submissionID, Score: score}, nil
}

// storedScore returns the judge's current score for the athlete, or a zero
// score when the athlete or score is gone.
func (s *Service) storedScore(ctx context.Context, athleteID, judgeID int) (model.JudgeScore, error) {
	scores, err := s.repo.ListJudgeScoresForAthlete(ctx, athleteID)
	if err != nil {
		return model.JudgeScore{}, err
	}
	for _, js := range scores {
		if js.JudgeID == judgeID {
			return js, nil
		}
	}
	return model.JudgeScore{AthleteID: athleteID, JudgeID: judgeID}, nil
}

// authorize checks that the judge sits on the given panel and is assigned
// to the athlete's event, and returns that event.
func (s *Service) authorize(ctx context.Context, athleteID, judgeID int, role model.JudgeRole) (model.Event, error) {
	athlete, err := s.repo.GetAthlete(ctx, athleteID)
	if err != nil {
		return model.Event{}, err
	}
	judge, err := s.repo.GetJudge(ctx, judgeID)
	if err != nil {
		return model.Event{}, err
	}
	if judge.Role != role {
		return model.Event{}, fmt.Errorf("%w: judge %d scores %s, not %s", ErrConflict, judgeID, judge.Role, role)
	}
	if !judge.AssignedTo(athlete.EventID) {
		return model.Event{}, fmt.Errorf("%w: judge %d is not assigned to event %d", ErrConflict, judgeID, athlete.EventID)
	}
	event, err := s.repo.GetEvent(ctx, athlete.EventID)
	if err != nil {
		return model.Event{}, err
	}
	if event.Status == model.StatusClosed {
		return model.Event{}, fmt.Errorf("%w: event %d is closed", ErrConflict, event.ID)
	}
	return event, nil
}

func (s *Service) store(ctx context.Context, score model.JudgeScore, asanas []model.AsanaScore) error {
	if score.DifficultyComponent != nil {
		if err := s.repo.ReplaceAsanaScores(ctx, score.AthleteID, score.JudgeID, asanas); err != nil {
			return fmt.Errorf("store asana marks: %w", err)
		}
	}
	if err := s.repo.PutJudgeScore(ctx, score); err != nil {
		return fmt.Errorf("store judge score: %w", err)
	}
	return nil
}

// requestRebuild queues a results refresh for eventID when the pipeline is
// running.
func (s *Service) requestRebuild(ctx context.Context, eventID int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.started {
		s.enqueueLocked(ctx, eventID)
	}
}

// enqueueLocked must be called with s.mu held. A full queue drops the job;
// the next change to the event queues another.
func (s *Service) enqueueLocked(ctx context.Context, eventID int) {
	if !s.queue.Enqueue(ctx, eventqueue.Job{EventID: eventID, EnqueuedAt: time.Now()}) {
		s.logger.Warn(ctx, "results rebuild dropped",
			logger.Int("event_id", eventID),
			logger.Int("queue_length", s.queue.Len(ctx)),
		)
	}
}
