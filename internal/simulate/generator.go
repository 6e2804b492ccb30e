package simulate

import (
	"fmt"
	"math/rand/v2"

	"github.com/okian/yogascore/internal/domain/model"
	"github.com/okian/yogascore/internal/domain/scoring"
)

const (
	minMark = 5.0 // lowest asana mark a simulated D judge gives
	maxMark = scoring.MaxMark
)

// Submission is one judge's score for one athlete, ready to send.
type Submission struct {
	ID        string
	Role      model.JudgeRole
	EventID   int
	AthleteID int
	JudgeID   int
	Marks     []float64 // D judges only
	Technical float64   // T judges only
	// Total is the judge total the service is expected to store.
	Total float64
}

// catalogue is what the service reports before any score is sent.
type catalogue struct {
	events   []model.Event
	athletes []model.Athlete
	judges   []model.Judge
}

// generator produces deterministic marks for a seed.
type generator struct {
	rng  *rand.Rand
	seed int64
}

func newGenerator(seed int64) *generator {
	return &generator{
		rng:  rand.New(rand.NewPCG(uint64(seed), uint64(seed)^0x9e3779b97f4a7c15)),
		seed: seed,
	}
}

// plan builds one submission per assigned judge for every athlete of an
// event that is still open.
func (g *generator) plan(cat catalogue) ([]Submission, error) {
	events := make(map[int]model.Event, len(cat.events))
	for _, e := range cat.events {
		events[e.ID] = e
	}

	var out []Submission
	for _, a := range cat.athletes {
		ev, ok := events[a.EventID]
		if !ok || ev.Status == model.StatusClosed {
			continue
		}
		for _, j := range cat.judges {
			if !j.AssignedTo(ev.ID) {
				continue
			}
			sub, err := g.submission(ev, a, j)
			if err != nil {
				return nil, err
			}
			out = append(out, sub)
		}
	}
	return out, nil
}

func (g *generator) submission(ev model.Event, a model.Athlete, j model.Judge) (Submission, error) {
	sub := Submission{
		ID:        fmt.Sprintf("sim-%d-%d-%d", g.seed, a.ID, j.ID),
		Role:      j.Role,
		EventID:   ev.ID,
		AthleteID: a.ID,
		JudgeID:   j.ID,
	}

	switch j.Role {
	case model.RoleDifficulty:
		sub.Marks = make([]float64, ev.NumAsanas)
		for i := range sub.Marks {
			sub.Marks[i] = g.mark(minMark, maxMark)
		}
		d, err := scoring.ComputeDifficultyComponent(sub.Marks)
		if err != nil {
			return Submission{}, err
		}
		sub.Total, err = scoring.JudgeTotal(&d, nil)
		if err != nil {
			return Submission{}, err
		}
	case model.RoleTechnical:
		sub.Technical = g.mark(0, scoring.MaxTechnical)
		var err error
		sub.Total, err = scoring.JudgeTotal(nil, &sub.Technical)
		if err != nil {
			return Submission{}, err
		}
	default:
		return Submission{}, fmt.Errorf("judge %d has unknown role %q", j.ID, j.Role)
	}
	return sub, nil
}

// mark returns a value in [lo, hi] with one decimal place.
func (g *generator) mark(lo, hi float64) float64 {
	steps := int((hi - lo) * 10)
	return lo + float64(g.rng.IntN(steps+1))/10
}
