package pipeline_test

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/okian/examboard/internal/adapters/workbook"
	"github.com/okian/examboard/internal/domain/model"
	"github.com/okian/examboard/internal/pipeline"
	"github.com/okian/examboard/internal/testexams"
	"github.com/okian/examboard/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	_ = logger.Init(logger.WithWriter(io.Discard))
}

func at(hh, mm int) time.Time {
	return time.Date(2024, time.March, 3, hh, mm, 0, 0, time.UTC)
}

func source(name string, e testexams.Exam) pipeline.Source {
	e.Name = name
	data, err := testexams.Build(e)
	if err != nil {
		panic(err)
	}
	return pipeline.BytesSource(name, data)
}

type recorder struct {
	mu      sync.Mutex
	percent []float64
	status  []string
}

func (r *recorder) Update(_ context.Context, p float64, s string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.percent = append(r.percent, p)
	r.status = append(r.status, s)
}

func scenario() []pipeline.Source {
	return []pipeline.Source{
		source("A.xlsx", testexams.Exam{MaxScore: 20, Style: testexams.FormatSlash, Entries: []testexams.Entry{
			{Name: "Sara Ahmed", Submitted: at(10, 0), Score: 18},
			{Name: "Omar Said", Submitted: at(9, 50), Score: 20},
		}}),
		source("B.xlsx", testexams.Exam{MaxScore: 10, Style: testexams.FormatArabic, Entries: []testexams.Entry{
			{Name: "Sara Ahmed", Submitted: at(11, 0), Score: 9},
		}}),
	}
}

func TestRunnerScenario(t *testing.T) {
	Convey("Given two exam files", t, func() {
		runner := pipeline.NewRunner(workbook.NewDecoder(), pipeline.WithConcurrency(2))
		settings := model.DefaultSettings().WithThresholds(0, 2)
		prog := &recorder{}

		Convey("When the pipeline runs with a two-exam minimum", func() {
			res, err := runner.Run(context.Background(), settings, scenario(), prog)

			Convey("Then only Sara qualifies", func() {
				So(err, ShouldBeNil)
				So(res.Records, ShouldHaveLength, 3)
				So(res.Leaderboard, ShouldHaveLength, 1)
				So(res.Leaderboard[0].Name, ShouldEqual, "Sara Ahmed")
				So(res.Leaderboard[0].ExamCount, ShouldEqual, 2)
				So(res.Leaderboard[0].AvgScore, ShouldEqual, 90)
			})

			Convey("And the summary describes the batch", func() {
				So(res.Summary.TotalExams, ShouldEqual, 2)
				So(res.Summary.TotalStudents, ShouldEqual, 1)
				So(res.Summary.TotalRecords, ShouldEqual, 3)
				So(res.Summary.DuplicatesRemoved, ShouldEqual, 0)
				So(res.Summary.ExamDistribution, ShouldResemble, map[int]int{2: 1})
				So(res.Summary.Winner, ShouldNotBeNil)
				So(res.Summary.Winner.Name, ShouldEqual, "Sara Ahmed")
				So(res.Exams, ShouldHaveLength, 2)
				So(res.Exams[0].Exam, ShouldEqual, "A")
				So(res.Exams[0].Count, ShouldEqual, 2)
				So(res.Exams[0].AvgPercentage, ShouldEqual, 95)
			})

			Convey("And progress only moves forward to 100", func() {
				So(prog.percent[0], ShouldEqual, 0)
				So(prog.percent[len(prog.percent)-1], ShouldEqual, 100)
				for i := 1; i < len(prog.percent); i++ {
					So(prog.percent[i], ShouldBeGreaterThanOrEqualTo, prog.percent[i-1])
				}
				So(prog.status, ShouldContain, "removing duplicates")
			})
		})
	})
}

func TestRunnerIsolatesFailures(t *testing.T) {
	Convey("Given a batch with a broken file and a file missing the score column", t, func() {
		sources := append(scenario(),
			pipeline.BytesSource("legacy.xls", []byte("not a workbook")),
			source("NoScore.xlsx", testexams.Exam{
				Headers: []string{"طابع زمني", "الاسم الكامل", "ملاحظات"},
				Entries: []testexams.Entry{{Name: "Huda Nasser", Submitted: at(9, 0), Score: 5}},
			}),
		)
		res, err := pipeline.NewRunner(workbook.NewDecoder()).Run(context.Background(), model.DefaultSettings(), sources, nil)

		Convey("Then the batch completes with diagnostics", func() {
			So(err, ShouldBeNil)
			So(res.Leaderboard, ShouldHaveLength, 2)
			So(res.Diagnostics, ShouldHaveLength, 2)
			So(res.Diagnostics[0].Severity, ShouldEqual, model.SeverityError)
			So(res.Diagnostics[0].Source, ShouldEqual, "legacy.xls")
			So(res.Diagnostics[1].Severity, ShouldEqual, model.SeverityWarning)
			So(res.Diagnostics[1].Source, ShouldEqual, "NoScore.xlsx")
			So(res.Summary.TotalExams, ShouldEqual, 4)
			So(res.Exams, ShouldHaveLength, 2)
		})
	})

	Convey("Given no files at all", t, func() {
		res, err := pipeline.NewRunner(workbook.NewDecoder()).Run(context.Background(), model.DefaultSettings(), nil, nil)

		Convey("Then an empty result is valid", func() {
			So(err, ShouldBeNil)
			So(res.Leaderboard, ShouldBeEmpty)
			So(res.Summary.Winner, ShouldBeNil)
		})
	})
}

func TestRunnerCancellation(t *testing.T) {
	Convey("Given a cancelled context", t, func() {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := pipeline.NewRunner(workbook.NewDecoder()).Run(ctx, model.DefaultSettings(), scenario(), nil)

		Convey("Then the run reports the context error", func() {
			So(errors.Is(err, context.Canceled), ShouldBeTrue)
		})
	})
}

func TestRunnerGenerated(t *testing.T) {
	Convey("Given generated exams with retries and short names", t, func() {
		exams := testexams.Generate(testexams.Config{Exams: 4, Students: 25, RetryRate: 0.3, SingleNames: 2, Seed: 7})
		sources := make([]pipeline.Source, len(exams))
		for i, e := range exams {
			sources[i] = source(e.Name, e)
		}

		res, err := pipeline.NewRunner(workbook.NewDecoder(), pipeline.WithConcurrency(3)).
			Run(context.Background(), model.DefaultSettings(), sources, nil)

		Convey("Then every record is unique per exam and ranks are dense", func() {
			So(err, ShouldBeNil)
			So(res.Diagnostics, ShouldBeEmpty)

			seen := map[[2]string]bool{}
			ranks := map[string][]int{}
			for _, r := range res.Records {
				k := [2]string{r.Participant, r.Exam}
				So(seen[k], ShouldBeFalse)
				seen[k] = true
				ranks[r.Exam] = append(ranks[r.Exam], r.SpeedRank)
			}
			for _, rs := range ranks {
				for i, rank := range rs {
					So(rank, ShouldEqual, i+1)
				}
			}
		})

		Convey("Then the leaderboard is sorted by composite score", func() {
			for i := 1; i < len(res.Leaderboard); i++ {
				So(res.Leaderboard[i].CompositeScore, ShouldBeLessThanOrEqualTo, res.Leaderboard[i-1].CompositeScore)
			}
		})
	})
}
