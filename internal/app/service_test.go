package service_test

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/okian/yogascore/internal/adapters/repository"
	service "github.com/okian/yogascore/internal/app"
	"github.com/okian/yogascore/internal/domain/model"
	"github.com/okian/yogascore/internal/domain/scoring"
	"github.com/okian/yogascore/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
	"github.com/xuri/excelize/v2"
)

func init() {
	// Initialize logging for tests
	err := logger.Init()
	if err != nil {
		panic(err)
	}
}

func newSeeded(opts ...service.Option) *service.Service {
	store := repository.NewMemoryStore(repository.WithSeed())
	return service.New(append([]service.Option{
		service.WithRepository(store),
		service.WithWorkerCount(2),
		service.WithQueueSize(64),
	}, opts...)...)
}

func TestService_StartStop(t *testing.T) {
	Convey("Given a new service", t, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		svc := newSeeded()

		Convey("Then it should not be started", func() {
			So(svc.GetStats(ctx).Started, ShouldBeFalse)
		})

		Convey("When starting the service", func() {
			So(svc.Start(ctx), ShouldBeNil)
			defer func() { _ = svc.Stop(ctx) }()

			Convey("Then stats should report it running", func() {
				stats := svc.GetStats(ctx)
				So(stats.Started, ShouldBeTrue)
				So(stats.WorkerCount, ShouldEqual, 2)
				So(stats.QueueSize, ShouldEqual, 64)
				So(stats.Counts, ShouldResemble, repository.Counts{Events: 3, Athletes: 3, Judges: 3})
			})

			Convey("And starting again should be a no-op", func() {
				So(svc.Start(ctx), ShouldBeNil)
			})
		})

		Convey("When stopping a started service", func() {
			So(svc.Start(ctx), ShouldBeNil)
			So(svc.Stop(ctx), ShouldBeNil)

			Convey("Then it should be marked as stopped", func() {
				So(svc.GetStats(ctx).Started, ShouldBeFalse)
			})

			Convey("And it can be started again", func() {
				So(svc.Start(ctx), ShouldBeNil)
				So(svc.Stop(ctx), ShouldBeNil)
			})
		})

		Convey("When submitting before start", func() {
			_, err := svc.SubmitTechnical(ctx, "", 2, 2, 1.5)

			Convey("Then it should be refused", func() {
				So(errors.Is(err, service.ErrNotStarted), ShouldBeTrue)
			})
		})
	})
}

func TestService_Catalogue(t *testing.T) {
	Convey("Given a seeded service", t, func() {
		ctx := context.Background()
		svc := newSeeded()

		Convey("When creating a valid event", func() {
			e, err := svc.CreateEvent(ctx, model.Event{Name: "Open Level II", Category: "Open", AgeGroup: "18+", NumAsanas: 6})

			Convey("Then it should be stored as active with the next ID", func() {
				So(err, ShouldBeNil)
				So(e.ID, ShouldEqual, 4)
				So(e.Status, ShouldEqual, model.StatusActive)
			})
		})

		Convey("When creating an event without a name", func() {
			_, err := svc.CreateEvent(ctx, model.Event{Category: "Open", AgeGroup: "18+", NumAsanas: 6})

			Convey("Then it should fail validation on the name field", func() {
				var verr *scoring.ValidationError
				So(errors.As(err, &verr), ShouldBeTrue)
				So(verr.Field, ShouldEqual, "name")
				So(errors.Is(err, scoring.ErrValidation), ShouldBeTrue)
			})
		})

		Convey("When updating an event without a status", func() {
			e, err := svc.UpdateEvent(ctx, 3, model.Event{Name: "Senior Level I", Category: "Senior", AgeGroup: "26-45", NumAsanas: 8})

			Convey("Then the current status should be kept", func() {
				So(err, ShouldBeNil)
				So(e.AgeGroup, ShouldEqual, "26-45")
				So(e.Status, ShouldEqual, model.StatusUpcoming)
			})
		})

		Convey("When deleting an event that still has athletes", func() {
			err := svc.DeleteEvent(ctx, 1)

			Convey("Then it should conflict", func() {
				So(errors.Is(err, service.ErrConflict), ShouldBeTrue)
			})
		})

		Convey("When deleting an empty event", func() {
			So(svc.DeleteAthlete(ctx, 3), ShouldBeNil)
			err := svc.DeleteEvent(ctx, 3)

			Convey("Then it should be gone", func() {
				So(err, ShouldBeNil)
				_, err := svc.GetEvent(ctx, 3)
				So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
			})
		})

		Convey("When registering an athlete", func() {
			a, err := svc.RegisterAthlete(ctx, model.Athlete{Name: "Kavya Iyer", Age: 12, EventID: 1})

			Convey("Then a registration number should be assigned", func() {
				So(err, ShouldBeNil)
				So(a.RegistrationNo, ShouldEqual, "ATH004")
			})
		})

		Convey("When registering an athlete into an unknown event", func() {
			_, err := svc.RegisterAthlete(ctx, model.Athlete{Name: "Kavya Iyer", Age: 12, EventID: 99})

			Convey("Then the event should not be found", func() {
				So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
			})
		})

		Convey("When listing judges of an event by role", func() {
			judges, err := svc.ListJudgesByEvent(ctx, 1, model.RoleDifficulty)

			Convey("Then only the D panel should be returned", func() {
				So(err, ShouldBeNil)
				So(judges, ShouldHaveLength, 1)
				So(judges[0].Name, ShouldEqual, "Dr. Anil Kumar")
			})
		})

		Convey("When listing judges with an unknown role", func() {
			_, err := svc.ListJudgesByEvent(ctx, 1, "X")

			Convey("Then it should fail validation", func() {
				So(errors.Is(err, scoring.ErrValidation), ShouldBeTrue)
			})
		})

		Convey("When adding a judge assigned to an unknown event", func() {
			_, err := svc.AddJudge(ctx, model.Judge{Name: "Meera Nair", Role: model.RoleTechnical, AssignedEvents: []int{1, 42}})

			Convey("Then the event should not be found", func() {
				So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
			})
		})
	})
}

func TestService_Submissions(t *testing.T) {
	Convey("Given a started seeded service", t, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		svc := newSeeded()
		So(svc.Start(ctx), ShouldBeNil)
		defer func() { _ = svc.Stop(ctx) }()

		Convey("When a D-judge submits asana marks", func() {
			sub, err := svc.SubmitDifficulty(ctx, "sub-1", 2, 1, []float64{8, 7, 9})

			Convey("Then the normalized component should be stored", func() {
				So(err, ShouldBeNil)
				So(sub.ID, ShouldEqual, "sub-1")
				So(sub.Duplicate, ShouldBeFalse)
				So(*sub.Score.DifficultyComponent, ShouldAlmostEqual, 6.4, 1e-9)
				So(sub.Score.TechnicalComponent, ShouldBeNil)
				So(sub.Score.JudgeTotal, ShouldAlmostEqual, 6.4, 1e-9)

				score, err := svc.AthleteScore(ctx, 2)
				So(err, ShouldBeNil)
				So(score.Scores, ShouldHaveLength, 1)
				So(score.FinalScore, ShouldAlmostEqual, 6.4, 1e-9)
			})

			Convey("And resubmitting with the same ID should be a no-op", func() {
				again, err := svc.SubmitDifficulty(ctx, "sub-1", 2, 1, []float64{1, 1, 1})
				So(err, ShouldBeNil)
				So(again.Duplicate, ShouldBeTrue)

				score, err := svc.AthleteScore(ctx, 2)
				So(err, ShouldBeNil)
				So(score.FinalScore, ShouldAlmostEqual, 6.4, 1e-9)
			})

			Convey("And a new submission should replace the judge's earlier score", func() {
				_, err := svc.SubmitDifficulty(ctx, "sub-2", 2, 1, []float64{10, 10})
				So(err, ShouldBeNil)

				score, err := svc.AthleteScore(ctx, 2)
				So(err, ShouldBeNil)
				So(score.Scores, ShouldHaveLength, 1)
				So(score.FinalScore, ShouldAlmostEqual, 8.0, 1e-9)
			})
		})

		Convey("When a submission omits its ID", func() {
			sub, err := svc.SubmitTechnical(ctx, "", 2, 2, 1.5)

			Convey("Then one should be generated", func() {
				So(err, ShouldBeNil)
				So(sub.ID, ShouldNotBeBlank)
				So(*sub.Score.TechnicalComponent, ShouldEqual, 1.5)
			})
		})

		Convey("When a T-judge submits asana marks", func() {
			_, err := svc.SubmitDifficulty(ctx, "", 2, 2, []float64{8})

			Convey("Then it should conflict", func() {
				So(errors.Is(err, service.ErrConflict), ShouldBeTrue)
			})
		})

		Convey("When a judge scores an athlete outside their events", func() {
			_, err := svc.SubmitDifficulty(ctx, "", 2, 3, []float64{8})

			Convey("Then it should conflict", func() {
				So(errors.Is(err, service.ErrConflict), ShouldBeTrue)
			})
		})

		Convey("When more marks are given than the event has asanas", func() {
			_, err := svc.SubmitDifficulty(ctx, "", 2, 1, []float64{8, 8, 8, 8, 8, 8})

			Convey("Then it should fail validation", func() {
				So(errors.Is(err, scoring.ErrValidation), ShouldBeTrue)
			})
		})

		Convey("When a mark is out of range", func() {
			_, err := svc.SubmitDifficulty(ctx, "", 2, 1, []float64{8, 11})

			Convey("Then it should fail validation", func() {
				So(errors.Is(err, scoring.ErrValidation), ShouldBeTrue)
			})
		})

		Convey("When no marks are given", func() {
			_, err := svc.SubmitDifficulty(ctx, "", 2, 1, nil)

			Convey("Then it should fail validation", func() {
				So(errors.Is(err, scoring.ErrValidation), ShouldBeTrue)
			})
		})

		Convey("When a submission is retried after its event closed", func() {
			_, err := svc.SubmitTechnical(ctx, "t-close", 2, 2, 1.5)
			So(err, ShouldBeNil)
			_, err = svc.UpdateEvent(ctx, 1, model.Event{Name: "Beginner Level I", Category: "Beginner", AgeGroup: "10-15", NumAsanas: 5, Status: model.StatusClosed})
			So(err, ShouldBeNil)

			again, err := svc.SubmitTechnical(ctx, "t-close", 2, 2, 1.9)

			Convey("Then it should be acknowledged with the stored score", func() {
				So(err, ShouldBeNil)
				So(again.Duplicate, ShouldBeTrue)
				So(*again.Score.TechnicalComponent, ShouldEqual, 1.5)
				So(again.Score.JudgeTotal, ShouldEqual, 1.5)
			})

			Convey("And a new submission should still be refused", func() {
				_, err := svc.SubmitTechnical(ctx, "t-late", 2, 2, 1.9)
				So(errors.Is(err, service.ErrConflict), ShouldBeTrue)
			})
		})

		Convey("When a refused submission is retried after the cause is fixed", func() {
			_, err := svc.SubmitDifficulty(ctx, "d-retry", 2, 3, []float64{8})
			So(errors.Is(err, service.ErrConflict), ShouldBeTrue)
			_, err = svc.UpdateJudge(ctx, 3, model.Judge{Name: "Prof. Ramesh Patel", Role: model.RoleDifficulty, AssignedEvents: []int{1, 3}})
			So(err, ShouldBeNil)

			sub, err := svc.SubmitDifficulty(ctx, "d-retry", 2, 3, []float64{8})

			Convey("Then it should be applied rather than treated as a repeat", func() {
				So(err, ShouldBeNil)
				So(sub.Duplicate, ShouldBeFalse)
				So(sub.Score.JudgeTotal, ShouldAlmostEqual, 6.4, 1e-9)
			})
		})

		Convey("When a technical component exceeds 2", func() {
			_, err := svc.SubmitTechnical(ctx, "", 2, 2, 2.5)

			Convey("Then it should fail validation", func() {
				So(errors.Is(err, scoring.ErrValidation), ShouldBeTrue)
			})
		})

		Convey("When submitting for an unknown athlete", func() {
			_, err := svc.SubmitTechnical(ctx, "", 99, 2, 1)

			Convey("Then the athlete should not be found", func() {
				So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
			})
		})
	})
}

func TestService_Leaderboards(t *testing.T) {
	Convey("Given a seeded service", t, func() {
		ctx := context.Background()
		svc := newSeeded()

		Convey("When building the leaderboard of the scored event", func() {
			entries, err := svc.Leaderboard(ctx, 2)

			Convey("Then the two judge totals should be summed", func() {
				So(err, ShouldBeNil)
				So(entries, ShouldHaveLength, 1)
				So(entries[0].RegistrationNo, ShouldEqual, "ATH001")
				So(entries[0].FinalScore, ShouldAlmostEqual, 9.0, 1e-9)
				So(entries[0].Rank, ShouldEqual, 1)
			})
		})

		Convey("When building the leaderboard of an unknown event", func() {
			_, err := svc.Leaderboard(ctx, 42)

			Convey("Then it should not be found", func() {
				So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
			})
		})

		Convey("When reading an athlete's score", func() {
			score, err := svc.AthleteScore(ctx, 1)

			Convey("Then it should carry the snapshot rank", func() {
				So(err, ShouldBeNil)
				So(score.Judges, ShouldEqual, 2)
				So(score.DroppedHighest, ShouldBeFalse)
				So(score.Rank, ShouldEqual, 1)
			})
		})

		Convey("When building every leaderboard", func() {
			boards, err := svc.AllLeaderboards(ctx)

			Convey("Then boards should follow event order", func() {
				So(err, ShouldBeNil)
				So(boards, ShouldHaveLength, 3)
				So(boards[0].Event.ID, ShouldEqual, 1)
				So(boards[1].Entries[0].AthleteName, ShouldEqual, "Priya Sharma")
				So(boards[2].Event.Status, ShouldEqual, model.StatusUpcoming)
			})
		})

		Convey("When exporting the workbook", func() {
			var buf bytes.Buffer
			err := svc.Export(ctx, &buf)

			Convey("Then it should hold one sheet per event", func() {
				So(err, ShouldBeNil)
				f, err := excelize.OpenReader(&buf)
				So(err, ShouldBeNil)
				defer func() { _ = f.Close() }()
				So(f.GetSheetList(), ShouldResemble, []string{"Beginner Level I", "Intermediate Level I", "Senior Level I"})
			})
		})

		Convey("When rebuilding results synchronously", func() {
			So(svc.RebuildResults(ctx, 1), ShouldBeNil)
			results, err := svc.Results(ctx, 1)

			Convey("Then unscored athletes should rank with 0", func() {
				So(err, ShouldBeNil)
				So(results, ShouldHaveLength, 1)
				So(results[0].AthleteID, ShouldEqual, 2)
				So(results[0].FinalScore, ShouldEqual, 0)
				So(results[0].Rank, ShouldEqual, 1)
			})
		})
	})
}

func TestService_AthleteMoves(t *testing.T) {
	Convey("Given a started seeded service", t, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		svc := newSeeded()
		So(svc.Start(ctx), ShouldBeNil)
		defer func() { _ = svc.Stop(ctx) }()

		Convey("When a scored athlete moves to an event without their judges", func() {
			_, err := svc.UpdateAthlete(ctx, 1, model.Athlete{Name: "Priya Sharma", Age: 22, EventID: 3})
			So(err, ShouldBeNil)

			Convey("Then the new event should not count scores from judges off its panel", func() {
				entries, err := svc.Leaderboard(ctx, 3)
				So(err, ShouldBeNil)
				So(entries, ShouldHaveLength, 2)
				for _, e := range entries {
					So(e.FinalScore, ShouldEqual, 0)
				}

				score, err := svc.AthleteScore(ctx, 1)
				So(err, ShouldBeNil)
				So(score.Scores, ShouldBeEmpty)
				So(score.Judges, ShouldEqual, 0)
			})

			Convey("Then the old event should be empty", func() {
				entries, err := svc.Leaderboard(ctx, 2)
				So(err, ShouldBeNil)
				So(entries, ShouldBeEmpty)
			})
		})
	})
}

func TestService_Judges(t *testing.T) {
	Convey("Given a started seeded service", t, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		svc := newSeeded()
		So(svc.Start(ctx), ShouldBeNil)
		defer func() { _ = svc.Stop(ctx) }()

		Convey("When updating a judge's name", func() {
			j, err := svc.UpdateJudge(ctx, 2, model.Judge{Name: "Dr. Sunita Rao", Role: model.RoleTechnical, AssignedEvents: []int{1, 2}})

			Convey("Then the judge should keep their id and scores", func() {
				So(err, ShouldBeNil)
				So(j.ID, ShouldEqual, 2)
				So(j.Name, ShouldEqual, "Dr. Sunita Rao")
				score, err := svc.AthleteScore(ctx, 1)
				So(err, ShouldBeNil)
				So(score.FinalScore, ShouldAlmostEqual, 9.0, 1e-9)
			})
		})

		Convey("When a judge is moved off the event they scored", func() {
			_, err := svc.UpdateJudge(ctx, 2, model.Judge{Name: "Sunita Rao", Role: model.RoleTechnical, AssignedEvents: []int{1}})
			So(err, ShouldBeNil)

			Convey("Then their score should no longer count", func() {
				entries, err := svc.Leaderboard(ctx, 2)
				So(err, ShouldBeNil)
				So(entries[0].FinalScore, ShouldAlmostEqual, 7.2, 1e-9)

				results := waitForResults(ctx, svc, 2, func(rs []model.Result) bool {
					return len(rs) == 1 && rs[0].FinalScore == entries[0].FinalScore
				})
				So(results[0].FinalScore, ShouldAlmostEqual, 7.2, 1e-9)
			})
		})

		Convey("When updating a judge with an invalid role", func() {
			_, err := svc.UpdateJudge(ctx, 2, model.Judge{Name: "Sunita Rao", Role: "X"})

			Convey("Then it should fail validation", func() {
				So(errors.Is(err, scoring.ErrValidation), ShouldBeTrue)
			})
		})

		Convey("When updating an unknown judge", func() {
			_, err := svc.UpdateJudge(ctx, 42, model.Judge{Name: "Nobody", Role: model.RoleTechnical})

			Convey("Then it should not be found", func() {
				So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
			})
		})

		Convey("When deleting a judge who has scored", func() {
			So(svc.DeleteJudge(ctx, 1), ShouldBeNil)

			Convey("Then the judge and their score should be gone", func() {
				_, err := svc.GetJudge(ctx, 1)
				So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)

				score, err := svc.AthleteScore(ctx, 1)
				So(err, ShouldBeNil)
				So(score.Scores, ShouldHaveLength, 1)
				So(score.FinalScore, ShouldAlmostEqual, 1.8, 1e-9)

				_, err = svc.AsanaMarks(ctx, 1, 1)
				So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
			})
		})

		Convey("When deleting an unknown judge", func() {
			err := svc.DeleteJudge(ctx, 42)

			Convey("Then it should not be found", func() {
				So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
			})
		})
	})
}

func TestService_AsanaMarks(t *testing.T) {
	Convey("Given a started seeded service", t, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		svc := newSeeded()
		So(svc.Start(ctx), ShouldBeNil)
		defer func() { _ = svc.Stop(ctx) }()

		Convey("When a D judge has scored an athlete", func() {
			_, err := svc.SubmitDifficulty(ctx, "", 2, 1, []float64{8, 7.5, 9})
			So(err, ShouldBeNil)

			Convey("Then their marks should be returned in asana order", func() {
				marks, err := svc.AsanaMarks(ctx, 2, 1)
				So(err, ShouldBeNil)
				So(marks, ShouldHaveLength, 3)
				for i, want := range []float64{8, 7.5, 9} {
					So(marks[i].AsanaIndex, ShouldEqual, i+1)
					So(marks[i].Mark, ShouldEqual, want)
					So(marks[i].JudgeID, ShouldEqual, 1)
				}
			})
		})

		Convey("When a judge has not scored the athlete", func() {
			marks, err := svc.AsanaMarks(ctx, 2, 2)

			Convey("Then no marks should be returned", func() {
				So(err, ShouldBeNil)
				So(marks, ShouldBeEmpty)
			})
		})

		Convey("When the athlete is unknown", func() {
			_, err := svc.AsanaMarks(ctx, 99, 1)

			Convey("Then it should not be found", func() {
				So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
			})
		})
	})
}
