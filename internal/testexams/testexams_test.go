package testexams_test

import (
	"context"
	"errors"
	"io"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/okian/examboard/internal/adapters/http/api"
	"github.com/okian/examboard/internal/adapters/workbook"
	service "github.com/okian/examboard/internal/app"
	"github.com/okian/examboard/internal/domain/model"
	"github.com/okian/examboard/internal/domain/types"
	"github.com/okian/examboard/internal/pipeline"
	"github.com/okian/examboard/internal/testexams"
	"github.com/okian/examboard/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	_ = logger.Init(logger.WithWriter(io.Discard))
}

func TestGenerate(t *testing.T) {
	Convey("Given a generator configuration", t, func() {
		cfg := testexams.Config{Exams: 3, Students: 12, SingleNames: 2, Seed: 7}

		Convey("When generating twice with the same seed", func() {
			a := testexams.Generate(cfg)
			b := testexams.Generate(cfg)

			Convey("Then the output is identical", func() {
				So(a, ShouldResemble, b)
				So(a, ShouldHaveLength, 3)
				So(a[0].Name, ShouldEqual, "Exam 01.xlsx")
			})

			Convey("And styles rotate through the score formats", func() {
				So(a[0].Style, ShouldEqual, testexams.FormatSlash)
				So(a[1].Style, ShouldEqual, testexams.FormatArabic)
				So(a[2].Style, ShouldEqual, testexams.FormatOutOf)
			})

			Convey("And scores stay within the maximum", func() {
				for _, e := range a {
					for _, en := range e.Entries {
						So(en.Score, ShouldBeBetweenOrEqual, 0.0, e.MaxScore)
					}
				}
			})
		})

		Convey("When the seed changes", func() {
			other := cfg
			other.Seed = 8
			So(testexams.Generate(other), ShouldNotResemble, testexams.Generate(cfg))
		})
	})
}

func TestBuildDecodes(t *testing.T) {
	Convey("Given a built workbook", t, func() {
		exam := testexams.Exam{Name: "Quiz.xlsx", MaxScore: 40, Style: testexams.FormatOutOf, Entries: []testexams.Entry{
			{Name: "Ali Hassan", Submitted: time.Date(2024, 3, 3, 9, 0, 0, 0, time.UTC), Score: 30},
		}}
		data, err := testexams.Build(exam)
		So(err, ShouldBeNil)

		Convey("Then the pipeline reads the embedded maximum", func() {
			res, err := pipeline.NewRunner(workbook.NewDecoder()).Run(context.Background(), model.DefaultSettings(),
				[]pipeline.Source{pipeline.BytesSource(exam.Name, data)}, nil)
			So(err, ShouldBeNil)
			So(res.Records, ShouldHaveLength, 1)
			So(res.Records[0].MaxScore, ShouldEqual, 40)
			So(res.Records[0].Percentage, ShouldEqual, 75)
		})
	})

	Convey("Given a directory", t, func() {
		dir := t.TempDir()
		paths, err := testexams.WriteDir(filepath.Join(dir, "out"), testexams.Generate(testexams.Config{Exams: 2, Students: 3}))

		Convey("Then every exam is written", func() {
			So(err, ShouldBeNil)
			So(paths, ShouldHaveLength, 2)
			for _, p := range paths {
				_, err := os.Stat(p)
				So(err, ShouldBeNil)
			}
		})
	})
}

func TestVerify(t *testing.T) {
	Convey("Given leaderboards", t, func() {
		want := []types.Entry{{Rank: 1, Name: "A B", Score: 300}, {Rank: 2, Name: "C D", Score: 200}}

		Convey("Then matching prefixes pass", func() {
			So(testexams.VerifyAgainst(want, want[:1]), ShouldBeNil)
			So(testexams.VerifyAgainst(want, want), ShouldBeNil)
		})

		Convey("Then out of order entries fail", func() {
			bad := []types.Entry{{Rank: 1, Name: "C D", Score: 200}, {Rank: 2, Name: "A B", Score: 300}}
			So(errors.Is(testexams.VerifyOrder(bad), testexams.ErrMismatch), ShouldBeTrue)
		})

		Convey("Then a different leader fails", func() {
			got := []types.Entry{{Rank: 1, Name: "C D", Score: 300}}
			So(errors.Is(testexams.VerifyAgainst(want, got), testexams.ErrMismatch), ShouldBeTrue)
		})
	})
}

func TestClient(t *testing.T) {
	Convey("Given a running service behind the API", t, func() {
		svc := service.New(service.WithWorkerCount(2))
		So(svc.Start(context.Background()), ShouldBeNil)
		defer svc.Stop()

		r := api.NewRouter()
		api.NewServer(svc, svc).Register(context.Background(), r)
		srv := httptest.NewServer(r)
		defer srv.Close()

		client := testexams.NewClient(srv.URL, testexams.WithPollInterval(10*time.Millisecond))
		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
		defer cancel()

		exams := testexams.Generate(testexams.Config{Exams: 3, Students: 15, SingleNames: 1, Seed: 42})

		Convey("When submitting generated exams", func() {
			acc, err := client.SubmitExams(ctx, exams, 2, 0)
			So(err, ShouldBeNil)
			So(acc.Files, ShouldHaveLength, 3)

			st, err := client.Wait(ctx, acc.ID)
			So(err, ShouldBeNil)

			Convey("Then the run finishes", func() {
				So(st.Status, ShouldEqual, model.RunDone)
				So(st.Summary.TotalExams, ShouldEqual, 3)
			})

			Convey("And the served leaderboard matches a local run", func() {
				sources := make([]pipeline.Source, len(exams))
				for i, e := range exams {
					data, err := testexams.Build(e)
					So(err, ShouldBeNil)
					sources[i] = pipeline.BytesSource(e.Name, data)
				}
				local, err := pipeline.NewRunner(workbook.NewDecoder()).Run(ctx,
					model.DefaultSettings().WithThresholds(0, 2), sources, nil)
				So(err, ShouldBeNil)

				got, err := client.Leaderboard(ctx, acc.ID, 5)
				So(err, ShouldBeNil)
				So(testexams.VerifyAgainst(types.Entries(local.Leaderboard, 0), got), ShouldBeNil)
			})
		})

		Convey("When asking for an unknown run", func() {
			_, err := client.Status(ctx, "missing")
			var se *testexams.StatusError
			So(errors.As(err, &se), ShouldBeTrue)
			So(se.Code, ShouldEqual, 404)
		})
	})
}
