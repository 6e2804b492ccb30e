// Package model contains domain models passed between layers.
package model

import "time"

// EventStatus is the lifecycle state of a competition event.
type EventStatus string

// Event lifecycle states.
const (
	StatusActive   EventStatus = "active"
	StatusUpcoming EventStatus = "upcoming"
	StatusClosed   EventStatus = "closed"
)

// Valid reports whether s is a known lifecycle state.
func (s EventStatus) Valid() bool {
	switch s {
	case StatusActive, StatusUpcoming, StatusClosed:
		return true
	}
	return false
}

// JudgeRole identifies which component a judge scores.
type JudgeRole string

// Judge roles.
const (
	RoleDifficulty JudgeRole = "D" // asana execution, out of 8
	RoleTechnical  JudgeRole = "T" // technical presentation, out of 2
)

// Valid reports whether r is a known judge role.
func (r JudgeRole) Valid() bool {
	return r == RoleDifficulty || r == RoleTechnical
}

// Event is a competition category athletes register into.
type Event struct {
	ID        int         `json:"id"`
	Name      string      `json:"name" validate:"required,max=120"`
	Category  string      `json:"category" validate:"required,max=60"`
	AgeGroup  string      `json:"age_group" validate:"required,max=20"`
	NumAsanas int         `json:"num_asanas" validate:"min=1,max=50"`
	Status    EventStatus `json:"status" validate:"omitempty,oneof=active upcoming closed"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// Athlete is a competitor registered into exactly one event.
type Athlete struct {
	ID             int    `json:"id"`
	Name           string `json:"name" validate:"required,max=120"`
	Age            int    `json:"age" validate:"min=3,max=120"`
	EventID        int    `json:"event_id" validate:"min=1"`
	RegistrationNo string `json:"registration_no"` // assigned by the store
}

// Judge scores athletes of the events assigned to them.
type Judge struct {
	ID             int       `json:"id"`
	Name           string    `json:"name" validate:"required,max=120"`
	Role           JudgeRole `json:"role" validate:"required,oneof=D T"`
	AssignedEvents []int     `json:"assigned_events" validate:"dive,min=1"`
}

// AssignedTo reports whether the judge is assigned to eventID.
func (j Judge) AssignedTo(eventID int) bool {
	for _, id := range j.AssignedEvents {
		if id == eventID {
			return true
		}
	}
	return false
}

// AsanaScore is one D-judge mark for one asana.
type AsanaScore struct {
	AthleteID  int       `json:"athlete_id"`
	JudgeID    int       `json:"judge_id"`
	AsanaIndex int       `json:"asana_index"` // 1-based
	Mark       float64   `json:"mark"`
	Timestamp  time.Time `json:"timestamp"`
}

// JudgeScore is a single judge's combined score for one athlete.
// Absent components are nil.
type JudgeScore struct {
	AthleteID           int      `json:"athlete_id"`
	JudgeID             int      `json:"judge_id"`
	DifficultyComponent *float64 `json:"d_score_out_of_8"`
	TechnicalComponent  *float64 `json:"t_score_out_of_2"`
	JudgeTotal          float64  `json:"judge_total_out_of_10"`
}

// Result is a persisted snapshot of an athlete's placing in an event.
type Result struct {
	AthleteID      int     `json:"athlete_id"`
	EventID        int     `json:"event_id"`
	FinalScore     float64 `json:"final_score"`
	Rank           int     `json:"rank"`
	DroppedHighest bool    `json:"dropped_highest"`
	DroppedLowest  bool    `json:"dropped_lowest"`
}

// LeaderboardEntry is one ranked row of an event leaderboard.
type LeaderboardEntry struct {
	AthleteID      int     `json:"athlete_id"`
	AthleteName    string  `json:"athlete_name"`
	RegistrationNo string  `json:"registration_no"`
	FinalScore     float64 `json:"final_score"`
	Rank           int     `json:"rank"`
}

// Float returns a pointer to v, for optional score components.
func Float(v float64) *float64 { return &v }
