// Package repository defines the competition data store and an in-memory
// implementation seeded with demo data.
package repository

import (
	"context"

	"github.com/okian/yogascore/internal/domain/model"
)

// Counts summarizes the catalogue held by a store.
type Counts struct {
	Events   int `json:"events"`
	Athletes int `json:"athletes"`
	Judges   int `json:"judges"`
}

// Repository provides read/write access to competition records.
// Lookups of unknown IDs fail with a *NotFoundError.
type Repository interface {
	ListEvents(ctx context.Context) ([]model.Event, error)
	GetEvent(ctx context.Context, id int) (model.Event, error)
	// AddEvent assigns ID, timestamps and, when empty, the active status.
	AddEvent(ctx context.Context, e model.Event) (model.Event, error)
	// UpdateEvent replaces the mutable fields of the event with e.ID.
	UpdateEvent(ctx context.Context, e model.Event) (model.Event, error)
	// DeleteEvent fails with ErrInUse while athletes are registered in it.
	DeleteEvent(ctx context.Context, id int) error

	ListAthletes(ctx context.Context) ([]model.Athlete, error)
	GetAthlete(ctx context.Context, id int) (model.Athlete, error)
	ListAthletesByEvent(ctx context.Context, eventID int) ([]model.Athlete, error)
	// AddAthlete assigns ID and registration number.
	AddAthlete(ctx context.Context, a model.Athlete) (model.Athlete, error)
	// UpdateAthlete replaces name, age and event; the registration number is
	// kept. Changing event drops the athlete's scores and results.
	UpdateAthlete(ctx context.Context, a model.Athlete) (model.Athlete, error)
	DeleteAthlete(ctx context.Context, id int) error

	ListJudges(ctx context.Context) ([]model.Judge, error)
	GetJudge(ctx context.Context, id int) (model.Judge, error)
	// ListJudgesByEvent returns judges assigned to eventID; an empty role
	// matches every role.
	ListJudgesByEvent(ctx context.Context, eventID int, role model.JudgeRole) ([]model.Judge, error)
	AddJudge(ctx context.Context, j model.Judge) (model.Judge, error)
	// UpdateJudge replaces name, role and assignments of the judge with j.ID.
	// Scores that no longer fit the judge's panel or assignments are dropped.
	UpdateJudge(ctx context.Context, j model.Judge) (model.Judge, error)
	// DeleteJudge removes a judge with their marks and scores.
	DeleteJudge(ctx context.Context, id int) error

	// ReplaceAsanaScores stores marks for one athlete and judge, dropping
	// any marks that judge gave the athlete before.
	ReplaceAsanaScores(ctx context.Context, athleteID, judgeID int, marks []model.AsanaScore) error
	ListAsanaScores(ctx context.Context, athleteID, judgeID int) ([]model.AsanaScore, error)

	// PutJudgeScore stores s, replacing an earlier score by the same judge
	// for the same athlete.
	PutJudgeScore(ctx context.Context, s model.JudgeScore) error
	ListJudgeScoresForAthlete(ctx context.Context, athleteID int) ([]model.JudgeScore, error)
	ListJudgeScoresByEvent(ctx context.Context, eventID int) ([]model.JudgeScore, error)

	ReplaceResults(ctx context.Context, eventID int, results []model.Result) error
	ListResultsByEvent(ctx context.Context, eventID int) ([]model.Result, error)
	ListResultsByAthlete(ctx context.Context, athleteID int) ([]model.Result, error)

	Count(ctx context.Context) Counts
}
