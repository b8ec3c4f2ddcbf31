// Package pipeline runs the decode, normalize, merge and rank stages over a
// batch of exam spreadsheets.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"runtime"
	"slices"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/okian/examboard/internal/domain/dedupe"
	"github.com/okian/examboard/internal/domain/model"
	"github.com/okian/examboard/internal/domain/normalize"
	"github.com/okian/examboard/internal/domain/scoring"
	"github.com/okian/examboard/pkg/logger"
	"github.com/okian/examboard/pkg/metrics"
)

// Stage names used for metrics and logs.
const (
	StageDecode    = "decode"
	StageExam      = "exam"
	StageCrossExam = "cross_exam"
	StageRank      = "rank"
)

// Decoder turns spreadsheet bytes into a sheet.
type Decoder interface {
	Decode(ctx context.Context, name string, r io.Reader) (model.Sheet, error)
}

// Option applies a configuration option to the Runner.
type Option func(*Runner)

// WithConcurrency bounds how many spreadsheets are decoded at once.
func WithConcurrency(n int) Option {
	return func(r *Runner) {
		if n > 0 {
			r.concurrency = n
		}
	}
}

// Runner executes ranking runs. It holds no per-run state and is safe for
// concurrent use.
type Runner struct {
	decoder     Decoder
	concurrency int
}

// NewRunner creates a runner reading spreadsheets with dec.
func NewRunner(dec Decoder, opts ...Option) *Runner {
	r := &Runner{decoder: dec, concurrency: runtime.NumCPU()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

type sheetOutcome struct {
	report normalize.Report
}

// Run processes sources with settings. Data problems never fail the run: they
// are returned as diagnostics on the result. The only error is ctx's.
func (r *Runner) Run(ctx context.Context, settings model.Settings, sources []Source, progress Progress) (*model.Result, error) {
	if progress == nil {
		progress = noProgress{}
	}
	log := logger.Named("pipeline")
	progress.Update(ctx, PercentLoading, "loading files")

	outcomes, err := r.load(ctx, settings, sources, progress)
	if err != nil {
		return nil, err
	}

	res := &model.Result{}
	var all []model.Submission
	examDuplicates := 0
	for _, o := range outcomes {
		res.Diagnostics = append(res.Diagnostics, o.report.Diagnostics...)
		examDuplicates += o.report.Duplicates
		if len(o.report.Records) == 0 {
			continue
		}
		all = append(all, o.report.Records...)
		res.Exams = append(res.Exams, examStat(o.report))
	}
	slices.SortStableFunc(res.Exams, func(a, b model.ExamStat) int { return strings.Compare(a.Exam, b.Exam) })

	progress.Update(ctx, PercentDedupe, "removing duplicates")
	started := time.Now()
	merger := dedupe.NewMerger()
	merger.Add(all...)
	res.Records = merger.Records()
	metrics.RecordDuplicatesRemoved(StageCrossExam, merger.Removed())
	metrics.RecordStageDuration(StageCrossExam, msSince(started))
	log.Debug(ctx, "merged records",
		logger.Int("before", len(all)),
		logger.Int("after", len(res.Records)))

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	progress.Update(ctx, PercentStats, "computing statistics")
	ranker := scoring.NewRanker(scoring.WithMinExams(settings.MinExams))

	progress.Update(ctx, PercentRanking, "ranking")
	started = time.Now()
	res.Leaderboard = ranker.Rank(res.Records)
	metrics.RecordStageDuration(StageRank, msSince(started))
	metrics.UpdateQualifiedStudents(len(res.Leaderboard))

	res.Summary = summarize(res, len(sources), examDuplicates+merger.Removed())
	log.Info(ctx, "ranking complete",
		logger.Int("files", len(sources)),
		logger.Int("records", len(res.Records)),
		logger.Int("students", len(res.Leaderboard)),
		logger.Int("min_exams", ranker.MinExams()),
		logger.Int("diagnostics", len(res.Diagnostics)))

	progress.Update(ctx, PercentCompleted, "done")
	return res, nil
}

func (r *Runner) load(ctx context.Context, settings model.Settings, sources []Source, progress Progress) ([]sheetOutcome, error) {
	outcomes := make([]sheetOutcome, len(sources))
	norm := normalize.New(settings)

	var mu sync.Mutex
	done := 0
	report := func(name string) {
		mu.Lock()
		defer mu.Unlock()
		done++
		progress.Update(ctx, float64(done)/float64(len(sources))*PercentLoaded, "processed: "+name)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)
	for i, src := range sources {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			outcomes[i] = r.process(gctx, norm, src)
			report(src.Name)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return outcomes, ctx.Err()
}

func (r *Runner) process(ctx context.Context, norm *normalize.Normalizer, src Source) sheetOutcome {
	log := logger.Named("pipeline").With(logger.String("file", src.Name))
	started := time.Now()

	sheet, err := r.decode(ctx, src)
	metrics.RecordStageDuration(StageDecode, msSince(started))
	if err != nil {
		metrics.RecordDecodeFailure()
		log.Error(ctx, "failed to decode spreadsheet", logger.Error(err))
		var out sheetOutcome
		out.report.Exam = normalize.ExamLabel(src.Name)
		out.report.Diagnostics.Fail(src.Name, err.Error())
		return out
	}
	metrics.RecordSpreadsheetDecoded()

	started = time.Now()
	rep := norm.Normalize(sheet)
	metrics.RecordStageDuration(StageExam, msSince(started))
	metrics.RecordRecordsNormalized(len(rep.Records))
	metrics.RecordDuplicatesRemoved(StageExam, rep.Duplicates)
	for _, d := range rep.Diagnostics {
		metrics.RecordSpreadsheetWarning()
		log.Warn(ctx, "spreadsheet warning", logger.String("message", d.Message))
	}
	if len(rep.Records) == 0 && len(rep.Diagnostics) == 0 {
		log.Warn(ctx, "spreadsheet produced no records")
	}
	log.Debug(ctx, "normalized spreadsheet",
		logger.String("exam", rep.Exam),
		logger.Int("read", rep.Read),
		logger.Int("filtered", rep.Filtered),
		logger.Int("duplicates", rep.Duplicates),
		logger.Int("records", len(rep.Records)))
	return sheetOutcome{report: rep}
}

func (r *Runner) decode(ctx context.Context, src Source) (model.Sheet, error) {
	if src.Open == nil {
		return model.Sheet{}, fmt.Errorf("no content for %s", src.Name)
	}
	rc, err := src.Open()
	if err != nil {
		return model.Sheet{}, fmt.Errorf("open %s: %w", src.Name, err)
	}
	defer func() { _ = rc.Close() }()
	return r.decoder.Decode(ctx, src.Name, rc)
}

func examStat(rep normalize.Report) model.ExamStat {
	pct := make([]float64, len(rep.Records))
	for i, rec := range rep.Records {
		pct[i] = rec.Percentage
	}
	return model.ExamStat{Exam: rep.Exam, Count: len(rep.Records), AvgPercentage: mean(pct)}
}

func summarize(res *model.Result, files, duplicates int) model.Summary {
	counts := make([]float64, len(res.Leaderboard))
	scores := make([]float64, len(res.Leaderboard))
	for i, p := range res.Leaderboard {
		counts[i] = float64(p.ExamCount)
		scores[i] = p.AvgScore
	}
	sum := model.Summary{
		TotalStudents:      len(res.Leaderboard),
		TotalExams:         files,
		TotalRecords:       len(res.Records),
		DuplicatesRemoved:  duplicates,
		AvgExamsPerStudent: mean(counts),
		AvgScore:           mean(scores),
		ExamDistribution:   scoring.Distribution(res.Leaderboard),
	}
	if len(res.Leaderboard) > 0 {
		winner := res.Leaderboard[0]
		sum.Winner = &winner
	}
	return sum
}

func msSince(t time.Time) float64 {
	return float64(time.Since(t).Microseconds()) / 1000
}
