package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/okian/yogascore/internal/adapters/export"
	"github.com/okian/yogascore/internal/adapters/repository"
	"github.com/okian/yogascore/internal/domain/model"
	"github.com/okian/yogascore/internal/domain/scoring"
	"github.com/okian/yogascore/pkg/logger"
	"github.com/okian/yogascore/pkg/metrics"
	"golang.org/x/sync/errgroup"
)

// AthleteScore is one athlete's judge scores and the final score they
// combine into.
type AthleteScore struct {
	Athlete        model.Athlete      `json:"athlete"`
	Scores         []model.JudgeScore `json:"scores"`
	FinalScore     float64            `json:"final_score"`
	Judges         int                `json:"judges"`
	DroppedHighest bool               `json:"dropped_highest"`
	DroppedLowest  bool               `json:"dropped_lowest"`
	// Rank is taken from the latest results snapshot; 0 when none exists.
	Rank int `json:"rank,omitempty"`
}

// standings loads an event's athletes and judge scores and ranks them.
func (s *Service) standings(ctx context.Context, eventID int) ([]scoring.Standing, error) {
	start := time.Now()

	athletes, err := s.repo.ListAthletesByEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	scores, err := s.repo.ListJudgeScoresByEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	byAthlete := make(map[int][]model.JudgeScore, len(athletes))
	for _, js := range scores {
		byAthlete[js.AthleteID] = append(byAthlete[js.AthleteID], js)
	}

	standings, err := scoring.BuildStandings(athletes, byAthlete, scoring.WithRanking(s.ranking))
	if err != nil {
		metrics.RecordValidationFailure("leaderboard")
		return nil, fmt.Errorf("event %d: %w", eventID, err)
	}
	metrics.RecordLeaderboardBuild(float64(time.Since(start).Microseconds()) / 1000)
	return standings, nil
}

// Leaderboard ranks the athletes of an event by final score, highest first.
func (s *Service) Leaderboard(ctx context.Context, eventID int) ([]model.LeaderboardEntry, error) {
	if _, err := s.repo.GetEvent(ctx, eventID); err != nil {
		return nil, err
	}
	standings, err := s.standings(ctx, eventID)
	if err != nil {
		return nil, err
	}
	entries := make([]model.LeaderboardEntry, len(standings))
	for i, st := range standings {
		entries[i] = st.LeaderboardEntry
	}
	return entries, nil
}

// AthleteScore returns the judge scores of one athlete with their final score.
func (s *Service) AthleteScore(ctx context.Context, athleteID int) (AthleteScore, error) {
	athlete, err := s.repo.GetAthlete(ctx, athleteID)
	if err != nil {
		return AthleteScore{}, err
	}
	scores, err := s.repo.ListJudgeScoresForAthlete(ctx, athleteID)
	if err != nil {
		return AthleteScore{}, err
	}
	totals := make([]float64, len(scores))
	for i, js := range scores {
		totals[i] = js.JudgeTotal
	}
	agg, err := scoring.Combine(totals)
	if err != nil {
		return AthleteScore{}, err
	}

	out := AthleteScore{
		Athlete:        athlete,
		Scores:         scores,
		FinalScore:     agg.FinalScore,
		Judges:         agg.Judges,
		DroppedHighest: agg.DroppedHighest,
		DroppedLowest:  agg.DroppedLowest,
	}
	results, err := s.repo.ListResultsByAthlete(ctx, athleteID)
	if err != nil {
		return AthleteScore{}, err
	}
	for _, r := range results {
		if r.EventID == athlete.EventID {
			out.Rank = r.Rank
		}
	}
	return out, nil
}

// AsanaMarks returns the per-asana marks a D judge gave an athlete, in asana
// order. A judge who has not scored the athlete yields no marks.
func (s *Service) AsanaMarks(ctx context.Context, athleteID, judgeID int) ([]model.AsanaScore, error) {
	if _, err := s.repo.GetAthlete(ctx, athleteID); err != nil {
		return nil, err
	}
	if _, err := s.repo.GetJudge(ctx, judgeID); err != nil {
		return nil, err
	}
	marks, err := s.repo.ListAsanaScores(ctx, athleteID, judgeID)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(marks, func(i, j int) bool { return marks[i].AsanaIndex < marks[j].AsanaIndex })
	return marks, nil
}

// Results returns the last results snapshot written for an event.
func (s *Service) Results(ctx context.Context, eventID int) ([]model.Result, error) {
	if _, err := s.repo.GetEvent(ctx, eventID); err != nil {
		return nil, err
	}
	return s.repo.ListResultsByEvent(ctx, eventID)
}

// RebuildResults recomputes an event's standings and replaces its results
// snapshot. A deleted event has its snapshot cleared. Rebuilds of one event
// run one at a time, so the last snapshot written reflects the latest scores.
func (s *Service) RebuildResults(ctx context.Context, eventID int) error {
	mu := s.rebuildLock(eventID)
	mu.Lock()
	defer mu.Unlock()

	if _, err := s.repo.GetEvent(ctx, eventID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return s.repo.ReplaceResults(ctx, eventID, nil)
		}
		return err
	}
	standings, err := s.standings(ctx, eventID)
	if err != nil {
		return err
	}
	results := make([]model.Result, len(standings))
	for i, st := range standings {
		results[i] = model.Result{
			AthleteID:      st.AthleteID,
			EventID:        eventID,
			FinalScore:     st.Aggregate.FinalScore,
			Rank:           st.Rank,
			DroppedHighest: st.DroppedHighest,
			DroppedLowest:  st.DroppedLowest,
		}
	}
	if err := s.repo.ReplaceResults(ctx, eventID, results); err != nil {
		return fmt.Errorf("replace results of event %d: %w", eventID, err)
	}
	return nil
}

func (s *Service) rebuildLock(eventID int) *sync.Mutex {
	mu, _ := s.rebuilds.LoadOrStore(eventID, new(sync.Mutex))
	return mu.(*sync.Mutex)
}

// AllLeaderboards builds the leaderboard of every event concurrently. Boards
// are returned in event order.
func (s *Service) AllLeaderboards(ctx context.Context) ([]export.Board, error) {
	events, err := s.repo.ListEvents(ctx)
	if err != nil {
		return nil, err
	}

	boards := make([]export.Board, len(events))
	g, gctx := errgroup.WithContext(ctx)
	for i, e := range events {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			standings, err := s.standings(gctx, e.ID)
			if err != nil {
				return err
			}
			entries := make([]model.LeaderboardEntry, len(standings))
			for j, st := range standings {
				entries[j] = st.LeaderboardEntry
			}
			boards[i] = export.Board{Event: e, Entries: entries}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return boards, nil
}

// Export writes every leaderboard to w as an xlsx workbook.
func (s *Service) Export(ctx context.Context, w io.Writer) error {
	boards, err := s.AllLeaderboards(ctx)
	if err != nil {
		return err
	}
	if err := export.WriteXLSX(w, boards); err != nil {
		metrics.RecordErrorByComponent("export", "write")
		return fmt.Errorf("export workbook: %w", err)
	}
	s.logger.Info(ctx, "leaderboards exported", logger.Int("sheets", len(boards)))
	return nil
}
