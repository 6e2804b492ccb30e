package scoring

import (
	"sort"

	"github.com/okian/yogascore/internal/domain/model"
)

// Ranking selects how equal final scores are ranked.
type Ranking int

const (
	// RankOrdinal gives every entry a distinct rank; ties keep the order
	// in which athletes were supplied.
	RankOrdinal Ranking = iota
	// RankCompetition gives tied entries the same rank and skips the ranks
	// they occupy (1, 2, 2, 4).
	RankCompetition
)

// ParseRanking maps a configuration name to a Ranking.
func ParseRanking(name string) (Ranking, error) {
	switch name {
	case "", "ordinal":
		return RankOrdinal, nil
	case "competition":
		return RankCompetition, nil
	}
	return RankOrdinal, invalid("ranking", "unknown ranking %q", name)
}

func (r Ranking) String() string {
	if r == RankCompetition {
		return "competition"
	}
	return "ordinal"
}

// Option configures BuildLeaderboard.
type Option func(*options)

type options struct {
	ranking Ranking
}

// WithRanking selects the tie ranking policy.
func WithRanking(r Ranking) Option {
	return func(o *options) { o.ranking = r }
}

// Standing pairs a leaderboard entry with its aggregate detail.
type Standing struct {
	model.LeaderboardEntry
	Aggregate
}

// BuildLeaderboard ranks athletes of one event by final score, highest first.
// Athletes without scores are included with a final score of 0. The full list
// is returned; truncating to a top N is left to the caller.
func BuildLeaderboard(athletes []model.Athlete, scoresByAthlete map[int][]model.JudgeScore, opts ...Option) ([]model.LeaderboardEntry, error) {
	standings, err := BuildStandings(athletes, scoresByAthlete, opts...)
	if err != nil {
		return nil, err
	}
	entries := make([]model.LeaderboardEntry, len(standings))
	for i, s := range standings {
		entries[i] = s.LeaderboardEntry
	}
	return entries, nil
}

// BuildStandings is BuildLeaderboard keeping the per-athlete aggregate.
func BuildStandings(athletes []model.Athlete, scoresByAthlete map[int][]model.JudgeScore, opts ...Option) ([]Standing, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	standings := make([]Standing, 0, len(athletes))
	for _, a := range athletes {
		scores := scoresByAthlete[a.ID]
		totals := make([]float64, len(scores))
		for i, s := range scores {
			totals[i] = s.JudgeTotal
		}
		agg, err := Combine(totals)
		if err != nil {
			return nil, err
		}
		standings = append(standings, Standing{
			LeaderboardEntry: model.LeaderboardEntry{
				AthleteID:      a.ID,
				AthleteName:    a.Name,
				RegistrationNo: a.RegistrationNo,
				FinalScore:     agg.FinalScore,
			},
			Aggregate: agg,
		})
	}

	sort.SliceStable(standings, func(i, j int) bool {
		return standings[i].LeaderboardEntry.FinalScore > standings[j].LeaderboardEntry.FinalScore
	})

	for i := range standings {
		standings[i].Rank = i + 1
		if o.ranking == RankCompetition && i > 0 &&
			standings[i].LeaderboardEntry.FinalScore == standings[i-1].LeaderboardEntry.FinalScore {
			standings[i].Rank = standings[i-1].Rank
		}
	}
	return standings, nil
}
