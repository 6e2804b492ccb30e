package repository

import (
	"time"

	"github.com/okian/yogascore/internal/domain/model"
)

// seed loads the demo competition: three events, one athlete per event,
// two D-judges, one T-judge, and the first athlete's scores.
func (s *MemoryStore) seed() {
	created := time.Date(2025, 10, 1, 0, 0, 0, 0, time.UTC)
	s.events = []model.Event{
		{ID: 1, Name: "Beginner Level I", Category: "Beginner", AgeGroup: "10-15", NumAsanas: 5, Status: model.StatusActive, CreatedAt: created, UpdatedAt: created},
		{ID: 2, Name: "Intermediate Level I", Category: "Intermediate", AgeGroup: "16-25", NumAsanas: 7, Status: model.StatusActive, CreatedAt: created, UpdatedAt: created},
		{ID: 3, Name: "Senior Level I", Category: "Senior", AgeGroup: "26-40", NumAsanas: 8, Status: model.StatusUpcoming, CreatedAt: created, UpdatedAt: created},
	}
	s.athletes = []model.Athlete{
		{ID: 1, Name: "Priya Sharma", Age: 22, EventID: 2, RegistrationNo: "ATH001"},
		{ID: 2, Name: "Rahul Mehta", Age: 14, EventID: 1, RegistrationNo: "ATH002"},
		{ID: 3, Name: "Sneha Patel", Age: 30, EventID: 3, RegistrationNo: "ATH003"},
	}
	s.judges = []model.Judge{
		{ID: 1, Name: "Dr. Anil Kumar", Role: model.RoleDifficulty, AssignedEvents: []int{1, 2}},
		{ID: 2, Name: "Sunita Rao", Role: model.RoleTechnical, AssignedEvents: []int{1, 2}},
		{ID: 3, Name: "Prof. Ramesh Patel", Role: model.RoleDifficulty, AssignedEvents: []int{3}},
	}
	s.asanaScores = []model.AsanaScore{
		{AthleteID: 1, JudgeID: 1, AsanaIndex: 1, Mark: 8, Timestamp: time.Date(2025, 10, 15, 10, 30, 0, 0, time.UTC)},
		{AthleteID: 1, JudgeID: 1, AsanaIndex: 2, Mark: 7, Timestamp: time.Date(2025, 10, 15, 10, 32, 0, 0, time.UTC)},
	}
	s.judgeScores = []model.JudgeScore{
		{AthleteID: 1, JudgeID: 1, DifficultyComponent: model.Float(7.2), JudgeTotal: 7.2},
		{AthleteID: 1, JudgeID: 2, TechnicalComponent: model.Float(1.8), JudgeTotal: 1.8},
	}
	s.results = []model.Result{
		{AthleteID: 1, EventID: 2, FinalScore: 9.0, Rank: 1},
	}
}
