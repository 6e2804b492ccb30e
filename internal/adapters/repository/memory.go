package repository

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/okian/yogascore/internal/domain/model"
)

// MemoryStore implements Repository with slices guarded by one RWMutex.
// Every read returns copies, so callers may modify what they get.
type MemoryStore struct {
	mu  sync.RWMutex
	now func() time.Time

	events      []model.Event
	athletes    []model.Athlete
	judges      []model.Judge
	asanaScores []model.AsanaScore
	judgeScores []model.JudgeScore
	results     []model.Result

	// athleteSeq is the highest athlete ID ever issued, so registration
	// numbers stay monotonic across deletions.
	athleteSeq int
}

var _ Repository = (*MemoryStore)(nil)

// NewMemoryStore creates an empty store with configuration options.
func NewMemoryStore(opts ...Option) *MemoryStore {
	s := &MemoryStore{now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// nextID returns max(id)+1, or 1 for an empty collection.
func nextID[T any](items []T, id func(T) int) int {
	maxID := 0
	for _, it := range items {
		maxID = max(maxID, id(it))
	}
	return maxID + 1
}

func (s *MemoryStore) today() time.Time {
	return s.now().UTC().Truncate(24 * time.Hour)
}

// ListEvents implements Repository.
func (s *MemoryStore) ListEvents(_ context.Context) ([]model.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.events), nil
}

// GetEvent implements Repository.
func (s *MemoryStore) GetEvent(_ context.Context, id int) (model.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := s.eventIndex(id)
	if i < 0 {
		return model.Event{}, notFound("event", id)
	}
	return s.events[i], nil
}

func (s *MemoryStore) eventIndex(id int) int {
	return slices.IndexFunc(s.events, func(e model.Event) bool { return e.ID == id })
}

// AddEvent implements Repository.
func (s *MemoryStore) AddEvent(_ context.Context, e model.Event) (model.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e.ID = nextID(s.events, func(e model.Event) int { return e.ID })
	if e.Status == "" {
		e.Status = model.StatusActive
	}
	e.CreatedAt = s.today()
	e.UpdatedAt = e.CreatedAt
	s.events = append(s.events, e)
	return e, nil
}

// UpdateEvent implements Repository.
func (s *MemoryStore) UpdateEvent(_ context.Context, e model.Event) (model.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.eventIndex(e.ID)
	if i < 0 {
		return model.Event{}, notFound("event", e.ID)
	}
	e.CreatedAt = s.events[i].CreatedAt
	e.UpdatedAt = s.today()
	s.events[i] = e
	return e, nil
}

// DeleteEvent implements Repository. An event with athletes is refused with
// ErrInUse. The event leaves every judge's assignments and its results go.
func (s *MemoryStore) DeleteEvent(_ context.Context, id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.eventIndex(id)
	if i < 0 {
		return notFound("event", id)
	}
	if n := s.countAthletes(id); n > 0 {
		return fmt.Errorf("%w: event %d still has %d athletes", ErrInUse, id, n)
	}
	s.events = slices.Delete(s.events, i, i+1)
	for j := range s.judges {
		s.judges[j].AssignedEvents = slices.DeleteFunc(slices.Clone(s.judges[j].AssignedEvents), func(e int) bool { return e == id })
	}
	s.results = slices.DeleteFunc(s.results, func(r model.Result) bool { return r.EventID == id })
	return nil
}

func (s *MemoryStore) countAthletes(eventID int) int {
	n := 0
	for _, a := range s.athletes {
		if a.EventID == eventID {
			n++
		}
	}
	return n
}

// ListAthletes implements Repository.
func (s *MemoryStore) ListAthletes(_ context.Context) ([]model.Athlete, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.athletes), nil
}

// GetAthlete implements Repository.
func (s *MemoryStore) GetAthlete(_ context.Context, id int) (model.Athlete, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := s.athleteIndex(id)
	if i < 0 {
		return model.Athlete{}, notFound("athlete", id)
	}
	return s.athletes[i], nil
}

func (s *MemoryStore) athleteIndex(id int) int {
	return slices.IndexFunc(s.athletes, func(a model.Athlete) bool { return a.ID == id })
}

// ListAthletesByEvent implements Repository. Athletes are returned in
// registration order.
func (s *MemoryStore) ListAthletesByEvent(_ context.Context, eventID int) ([]model.Athlete, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []model.Athlete
	for _, a := range s.athletes {
		if a.EventID == eventID {
			out = append(out, a)
		}
	}
	return out, nil
}

// AddAthlete implements Repository.
func (s *MemoryStore) AddAthlete(_ context.Context, a model.Athlete) (model.Athlete, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.eventIndex(a.EventID) < 0 {
		return model.Athlete{}, notFound("event", a.EventID)
	}
	a.ID = max(s.athleteSeq+1, nextID(s.athletes, func(a model.Athlete) int { return a.ID }))
	s.athleteSeq = a.ID
	a.RegistrationNo = fmt.Sprintf("ATH%03d", a.ID)
	s.athletes = append(s.athletes, a)
	return a, nil
}

// UpdateAthlete implements Repository. Moving an athlete to another event
// drops their marks, judge scores and results.
func (s *MemoryStore) UpdateAthlete(_ context.Context, a model.Athlete) (model.Athlete, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.athleteIndex(a.ID)
	if i < 0 {
		return model.Athlete{}, notFound("athlete", a.ID)
	}
	if s.eventIndex(a.EventID) < 0 {
		return model.Athlete{}, notFound("event", a.EventID)
	}
	a.RegistrationNo = s.athletes[i].RegistrationNo
	if s.athletes[i].EventID != a.EventID {
		s.dropAthleteScores(a.ID)
	}
	s.athletes[i] = a
	return a, nil
}

// DeleteAthlete implements Repository. The athlete's scores and results go
// with them.
func (s *MemoryStore) DeleteAthlete(_ context.Context, id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.athleteIndex(id)
	if i < 0 {
		return notFound("athlete", id)
	}
	s.athletes = slices.Delete(s.athletes, i, i+1)
	s.dropAthleteScores(id)
	return nil
}

// dropAthleteScores removes every mark, judge score and result of an
// athlete. s.mu must be held for writing.
func (s *MemoryStore) dropAthleteScores(id int) {
	s.asanaScores = slices.DeleteFunc(s.asanaScores, func(m model.AsanaScore) bool { return m.AthleteID == id })
	s.judgeScores = slices.DeleteFunc(s.judgeScores, func(js model.JudgeScore) bool { return js.AthleteID == id })
	s.results = slices.DeleteFunc(s.results, func(r model.Result) bool { return r.AthleteID == id })
}

func cloneJudge(j model.Judge) model.Judge {
	j.AssignedEvents = slices.Clone(j.AssignedEvents)
	return j
}

// ListJudges implements Repository.
func (s *MemoryStore) ListJudges(_ context.Context) ([]model.Judge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Judge, len(s.judges))
	for i, j := range s.judges {
		out[i] = cloneJudge(j)
	}
	return out, nil
}

// GetJudge implements Repository.
func (s *MemoryStore) GetJudge(_ context.Context, id int) (model.Judge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := s.judgeIndex(id)
	if i < 0 {
		return model.Judge{}, notFound("judge", id)
	}
	return cloneJudge(s.judges[i]), nil
}

// ListJudgesByEvent implements Repository.
func (s *MemoryStore) ListJudgesByEvent(_ context.Context, eventID int, role model.JudgeRole) ([]model.Judge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []model.Judge
	for _, j := range s.judges {
		if (role == "" || j.Role == role) && j.AssignedTo(eventID) {
			out = append(out, cloneJudge(j))
		}
	}
	return out, nil
}

// AddJudge implements Repository.
func (s *MemoryStore) AddJudge(_ context.Context, j model.Judge) (model.Judge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	j = cloneJudge(j)
	j.ID = nextID(s.judges, func(j model.Judge) int { return j.ID })
	s.judges = append(s.judges, j)
	return cloneJudge(j), nil
}

func (s *MemoryStore) judgeIndex(id int) int {
	return slices.IndexFunc(s.judges, func(j model.Judge) bool { return j.ID == id })
}

// UpdateJudge implements Repository. A judge who changes panel loses every
// score they gave; scores for athletes of events no longer assigned go too.
func (s *MemoryStore) UpdateJudge(_ context.Context, j model.Judge) (model.Judge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.judgeIndex(j.ID)
	if i < 0 {
		return model.Judge{}, notFound("judge", j.ID)
	}
	for _, id := range j.AssignedEvents {
		if s.eventIndex(id) < 0 {
			return model.Judge{}, notFound("event", id)
		}
	}
	j = cloneJudge(j)
	roleChanged := s.judges[i].Role != j.Role
	s.judges[i] = j

	eventOf := make(map[int]int, len(s.athletes))
	for _, a := range s.athletes {
		eventOf[a.ID] = a.EventID
	}
	stale := func(athleteID, judgeID int) bool {
		return judgeID == j.ID && (roleChanged || !j.AssignedTo(eventOf[athleteID]))
	}
	s.asanaScores = slices.DeleteFunc(s.asanaScores, func(m model.AsanaScore) bool { return stale(m.AthleteID, m.JudgeID) })
	s.judgeScores = slices.DeleteFunc(s.judgeScores, func(js model.JudgeScore) bool { return stale(js.AthleteID, js.JudgeID) })
	return cloneJudge(j), nil
}

// DeleteJudge implements Repository. The judge's marks and scores go with
// them.
func (s *MemoryStore) DeleteJudge(_ context.Context, id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.judgeIndex(id)
	if i < 0 {
		return notFound("judge", id)
	}
	s.judges = slices.Delete(s.judges, i, i+1)
	s.asanaScores = slices.DeleteFunc(s.asanaScores, func(m model.AsanaScore) bool { return m.JudgeID == id })
	s.judgeScores = slices.DeleteFunc(s.judgeScores, func(js model.JudgeScore) bool { return js.JudgeID == id })
	return nil
}

// ReplaceAsanaScores implements Repository.
func (s *MemoryStore) ReplaceAsanaScores(_ context.Context, athleteID, judgeID int, marks []model.AsanaScore) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.asanaScores = slices.DeleteFunc(s.asanaScores, func(m model.AsanaScore) bool {
		return m.AthleteID == athleteID && m.JudgeID == judgeID
	})
	for _, m := range marks {
		m.AthleteID, m.JudgeID = athleteID, judgeID
		s.asanaScores = append(s.asanaScores, m)
	}
	return nil
}

// ListAsanaScores implements Repository.
func (s *MemoryStore) ListAsanaScores(_ context.Context, athleteID, judgeID int) ([]model.AsanaScore, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []model.AsanaScore
	for _, m := range s.asanaScores {
		if m.AthleteID == athleteID && m.JudgeID == judgeID {
			out = append(out, m)
		}
	}
	return out, nil
}

func cloneScore(js model.JudgeScore) model.JudgeScore {
	if js.DifficultyComponent != nil {
		js.DifficultyComponent = model.Float(*js.DifficultyComponent)
	}
	if js.TechnicalComponent != nil {
		js.TechnicalComponent = model.Float(*js.TechnicalComponent)
	}
	return js
}

// PutJudgeScore implements Repository.
func (s *MemoryStore) PutJudgeScore(_ context.Context, js model.JudgeScore) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	js = cloneScore(js)
	for i, cur := range s.judgeScores {
		if cur.AthleteID == js.AthleteID && cur.JudgeID == js.JudgeID {
			s.judgeScores[i] = js
			return nil
		}
	}
	s.judgeScores = append(s.judgeScores, js)
	return nil
}

// ListJudgeScoresForAthlete implements Repository.
func (s *MemoryStore) ListJudgeScoresForAthlete(_ context.Context, athleteID int) ([]model.JudgeScore, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []model.JudgeScore
	for _, js := range s.judgeScores {
		if js.AthleteID == athleteID {
			out = append(out, cloneScore(js))
		}
	}
	return out, nil
}

// ListJudgeScoresByEvent implements Repository.
func (s *MemoryStore) ListJudgeScoresByEvent(_ context.Context, eventID int) ([]model.JudgeScore, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	inEvent := make(map[int]bool)
	for _, a := range s.athletes {
		if a.EventID == eventID {
			inEvent[a.ID] = true
		}
	}
	var out []model.JudgeScore
	for _, js := range s.judgeScores {
		if inEvent[js.AthleteID] {
			out = append(out, cloneScore(js))
		}
	}
	return out, nil
}

// ReplaceResults implements Repository.
func (s *MemoryStore) ReplaceResults(_ context.Context, eventID int, results []model.Result) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results = slices.DeleteFunc(s.results, func(r model.Result) bool { return r.EventID == eventID })
	for _, r := range results {
		r.EventID = eventID
		s.results = append(s.results, r)
	}
	return nil
}

// ListResultsByEvent implements Repository. Results are in rank order.
func (s *MemoryStore) ListResultsByEvent(_ context.Context, eventID int) ([]model.Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []model.Result
	for _, r := range s.results {
		if r.EventID == eventID {
			out = append(out, r)
		}
	}
	slices.SortStableFunc(out, func(a, b model.Result) int { return a.Rank - b.Rank })
	return out, nil
}

// ListResultsByAthlete implements Repository.
func (s *MemoryStore) ListResultsByAthlete(_ context.Context, athleteID int) ([]model.Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []model.Result
	for _, r := range s.results {
		if r.AthleteID == athleteID {
			out = append(out, r)
		}
	}
	return out, nil
}

// Count implements Repository.
func (s *MemoryStore) Count(_ context.Context) Counts {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Counts{Events: len(s.events), Athletes: len(s.athletes), Judges: len(s.judges)}
}
