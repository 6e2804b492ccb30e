package simulate

import (
	"context"
	"fmt"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/okian/yogascore/internal/domain/model"
	"github.com/okian/yogascore/internal/domain/scoring"
	"github.com/okian/yogascore/pkg/logger"
)

const (
	scoreTolerance = 1e-9
	pollInterval   = 20 * time.Millisecond
)

type athleteScores struct {
	Scores     []model.JudgeScore `json:"scores"`
	FinalScore float64            `json:"final_score"`
}

type statsResponse struct {
	Ranking string `json:"ranking"`
}

func (r *Runner) ranking(ctx context.Context) (scoring.Ranking, error) {
	var st statsResponse
	if err := r.client.getJSON(ctx, "/stats", &st); err != nil {
		return 0, fmt.Errorf("failed to fetch stats: %w", err)
	}
	return scoring.ParseRanking(st.Ranking)
}

// verifyEvent checks that the service stored what was sent, that its
// leaderboard matches a local aggregation of the stored scores and that the
// results snapshot catches up with the leaderboard.
func (r *Runner) verifyEvent(ctx context.Context, ev model.Event, subs []Submission, ranking scoring.Ranking) error {
	var athletes []model.Athlete
	if err := r.client.getJSON(ctx, fmt.Sprintf("/events/%d/athletes", ev.ID), &athletes); err != nil {
		return err
	}

	sent := make(map[[2]int]float64)
	for _, s := range subs {
		if s.EventID == ev.ID {
			sent[[2]int{s.AthleteID, s.JudgeID}] = s.Total
		}
	}

	byAthlete := make(map[int][]model.JudgeScore, len(athletes))
	for _, a := range athletes {
		var as athleteScores
		if err := r.client.getJSON(ctx, fmt.Sprintf("/athletes/%d/scores", a.ID), &as); err != nil {
			return err
		}
		for _, js := range as.Scores {
			want, ok := sent[[2]int{a.ID, js.JudgeID}]
			if ok && !cmp.Equal(want, js.JudgeTotal, cmpopts.EquateApprox(0, scoreTolerance)) {
				return fmt.Errorf("%w: athlete %d judge %d stored %v, sent %v",
					ErrMismatch, a.ID, js.JudgeID, js.JudgeTotal, want)
			}
		}
		byAthlete[a.ID] = as.Scores
		r.stats.Verified++
	}

	want, err := scoring.BuildLeaderboard(athletes, byAthlete, scoring.WithRanking(ranking))
	if err != nil {
		return fmt.Errorf("local aggregation of event %d: %w", ev.ID, err)
	}
	var got []model.LeaderboardEntry
	if err := r.client.getJSON(ctx, fmt.Sprintf("/events/%d/leaderboard", ev.ID), &got); err != nil {
		return err
	}
	if diff := cmp.Diff(want, got, cmpopts.EquateApprox(0, scoreTolerance), cmpopts.EquateEmpty()); diff != "" {
		return fmt.Errorf("%w: event %d (-want +got):\n%s", ErrMismatch, ev.ID, diff)
	}

	if err := r.awaitResults(ctx, ev.ID, want); err != nil {
		return err
	}
	r.log.Info(ctx, "Event verified",
		logger.Int("event_id", ev.ID),
		logger.String("event", ev.Name),
		logger.Int("athletes", len(athletes)))
	return nil
}

// awaitResults polls the results snapshot until it agrees with want or
// SettleAfter elapses. A zero SettleAfter skips the check.
func (r *Runner) awaitResults(ctx context.Context, eventID int, want []model.LeaderboardEntry) error {
	if r.config.SettleAfter <= 0 {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, r.config.SettleAfter)
	defer cancel()

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	var diff string
	for {
		var results []model.Result
		if err := r.client.getJSON(ctx, fmt.Sprintf("/events/%d/results", eventID), &results); err != nil && ctx.Err() == nil {
			return err
		}
		diff = cmp.Diff(resultRanks(want), resultRanks(results), cmpopts.EquateApprox(0, scoreTolerance), cmpopts.EquateEmpty())
		if diff == "" {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: results of event %d did not settle (-want +got):\n%s", ErrMismatch, eventID, diff)
		case <-ticker.C:
		}
	}
}

type rankedScore struct {
	AthleteID  int
	FinalScore float64
	Rank       int
}

func resultRanks[T model.LeaderboardEntry | model.Result](rows []T) []rankedScore {
	out := make([]rankedScore, len(rows))
	for i, row := range rows {
		switch v := any(row).(type) {
		case model.LeaderboardEntry:
			out[i] = rankedScore{v.AthleteID, v.FinalScore, v.Rank}
		case model.Result:
			out[i] = rankedScore{v.AthleteID, v.FinalScore, v.Rank}
		}
	}
	return out
}
