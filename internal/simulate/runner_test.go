package simulate_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/okian/yogascore/internal/adapters/http/api"
	"github.com/okian/yogascore/internal/adapters/repository"
	service "github.com/okian/yogascore/internal/app"
	"github.com/okian/yogascore/internal/domain/model"
	"github.com/okian/yogascore/internal/domain/scoring"
	"github.com/okian/yogascore/internal/simulate"
	"github.com/okian/yogascore/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
	"github.com/xuri/excelize/v2"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

// newService starts a seeded service and serves its API from an httptest
// server. wrap, when set, may intercept requests before the API sees them.
func newService(t *testing.T, wrap func(http.Handler) http.Handler, opts ...service.Option) (*service.Service, *httptest.Server) {
	t.Helper()
	svc := service.New(append([]service.Option{
		service.WithRepository(repository.NewMemoryStore(repository.WithSeed())),
		service.WithWorkerCount(2),
		service.WithQueueSize(256),
	}, opts...)...)
	if err := svc.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = svc.Stop(context.Background()) })

	mux := http.NewServeMux()
	api.NewServer(svc, 100).Register(mux)
	var h http.Handler = mux
	if wrap != nil {
		h = wrap(mux)
	}
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return svc, srv
}

// addPanel gives event 1 three more D judges and two more athletes so the
// highest and lowest judge totals get dropped.
func addPanel(ctx context.Context, svc *service.Service) error {
	for _, name := range []string{"Meera Iyer", "Vikram Singh", "Asha Nair"} {
		if _, err := svc.AddJudge(ctx, model.Judge{Name: name, Role: model.RoleDifficulty, AssignedEvents: []int{1}}); err != nil {
			return err
		}
	}
	for _, name := range []string{"Kiran Das", "Anjali Gupta"} {
		if _, err := svc.RegisterAthlete(ctx, model.Athlete{Name: name, Age: 12, EventID: 1}); err != nil {
			return err
		}
	}
	return nil
}

func TestRunner_Run(t *testing.T) {
	Convey("Given a seeded service", t, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		svc, srv := newService(t, nil)

		Convey("When simulating every judging panel", func() {
			stats, err := simulate.NewRunner(simulate.Config{
				BaseURL:     srv.URL,
				Workers:     4,
				Seed:        7,
				Duplicates:  2,
				SettleAfter: 5 * time.Second,
			}).Run(ctx)

			Convey("Then every submission should be accepted once and every repeat recognised", func() {
				So(err, ShouldBeNil)
				So(stats.Accepted, ShouldEqual, int64(5))
				So(stats.Duplicates, ShouldEqual, int64(2))
				So(stats.Submitted, ShouldEqual, int64(7))
				So(stats.Failed, ShouldEqual, int64(0))
				So(stats.Events, ShouldEqual, 3)
				So(stats.Verified, ShouldEqual, 3)
				So(stats.Duration, ShouldBeGreaterThan, time.Duration(0))
			})

			Convey("Then running the same seed again should only produce repeats", func() {
				So(err, ShouldBeNil)
				again, err := simulate.NewRunner(simulate.Config{BaseURL: srv.URL, Workers: 2, Seed: 7}).Run(ctx)
				So(err, ShouldBeNil)
				So(again.Accepted, ShouldEqual, int64(0))
				So(again.Duplicates, ShouldEqual, int64(5))
			})
		})

		Convey("When event 1 has a five judge panel", func() {
			So(addPanel(ctx, svc), ShouldBeNil)
			dir := t.TempDir()
			file := filepath.Join(dir, "leaderboards.xlsx")

			stats, err := simulate.NewRunner(simulate.Config{
				BaseURL:     srv.URL,
				Workers:     8,
				Seed:        99,
				SettleAfter: 5 * time.Second,
				ExportFile:  file,
			}).Run(ctx)

			Convey("Then the leaderboards should agree with the stored scores", func() {
				So(err, ShouldBeNil)
				// 3 athletes in event 1 with 5 judges, 1 in event 2 with 2, 1 in event 3 with 1
				So(stats.Accepted, ShouldEqual, int64(18))
				So(stats.Verified, ShouldEqual, 5)

				board, err := svc.Leaderboard(ctx, 1)
				So(err, ShouldBeNil)
				So(board, ShouldHaveLength, 3)
				So(board[0].Rank, ShouldEqual, 1)
				So(board[0].FinalScore, ShouldBeGreaterThanOrEqualTo, board[2].FinalScore)

				score, err := svc.AthleteScore(ctx, board[0].AthleteID)
				So(err, ShouldBeNil)
				So(score.Judges, ShouldEqual, 5)
				So(score.DroppedHighest, ShouldBeTrue)
				So(score.DroppedLowest, ShouldBeTrue)
			})

			Convey("Then the workbook should be saved with one sheet per event", func() {
				So(err, ShouldBeNil)
				_, statErr := os.Stat(file)
				So(statErr, ShouldBeNil)
				wb, err := excelize.OpenFile(file)
				So(err, ShouldBeNil)
				defer func() { _ = wb.Close() }()
				So(wb.GetSheetList(), ShouldHaveLength, 3)
			})
		})
	})

	Convey("Given a service ranking ties by competition rank", t, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		_, srv := newService(t, nil, service.WithRanking(scoring.RankCompetition))

		Convey("Then the local aggregation should follow the same ranking", func() {
			_, err := simulate.NewRunner(simulate.Config{BaseURL: srv.URL, Workers: 2, Seed: 3}).Run(ctx)
			So(err, ShouldBeNil)
		})
	})
}

func TestRunner_Failures(t *testing.T) {
	Convey("Given a service that is down", t, func() {
		down := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		defer down.Close()

		Convey("Then the run should stop at the health check", func() {
			stats, err := simulate.NewRunner(simulate.Config{BaseURL: down.URL, Timeout: time.Second}).Run(context.Background())
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, "health check")
			So(stats.Submitted, ShouldEqual, int64(0))
		})
	})

	Convey("Given a service serving a stale leaderboard", t, func() {
		_, srv := newService(t, func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Method == http.MethodGet && r.URL.Path == "/events/2/leaderboard" {
					w.Header().Set("Content-Type", "application/json")
					_, _ = w.Write([]byte(`[{"athlete_id":1,"athlete_name":"Priya Sharma","registration_no":"ATH001","final_score":0.5,"rank":1}]`))
					return
				}
				next.ServeHTTP(w, r)
			})
		})

		Convey("Then the run should report a mismatch", func() {
			_, err := simulate.NewRunner(simulate.Config{BaseURL: srv.URL, Seed: 5}).Run(context.Background())
			So(err, ShouldWrap, simulate.ErrMismatch)
			So(err.Error(), ShouldContainSubstring, "event 2")
		})
	})
}
