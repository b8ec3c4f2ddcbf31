// Package service provides the runs service behind the HTTP API: it accepts
// batches of exam spreadsheets, queues them and keeps their results.
package service

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/okian/examboard/internal/adapters/mq/queue"
	"github.com/okian/examboard/internal/adapters/mq/worker"
	"github.com/okian/examboard/internal/adapters/repository"
	"github.com/okian/examboard/internal/adapters/workbook"
	"github.com/okian/examboard/internal/domain/export"
	"github.com/okian/examboard/internal/domain/model"
	"github.com/okian/examboard/internal/domain/types"
	"github.com/okian/examboard/internal/pipeline"
	"github.com/okian/examboard/pkg/logger"
	"github.com/okian/examboard/pkg/metrics"
)

const (
	defaultQueueSize = 64
	defaultMaxRuns   = 256
)

var acceptedSuffixes = []string{".xlsx", ".xlsm", ".xls"}

// Overrides adjust the thresholds of a single run. Zero keeps the default.
type Overrides struct {
	MinNameParts int
	MinExams     int
}

// Service implements the API dependencies for ranking runs.
type Service struct {
	mu sync.RWMutex

	store     repository.Store
	queue     queue.Queue
	pool      *worker.Pool
	runner    *pipeline.Runner
	projector *export.Projector
	decoder   pipeline.Decoder

	workerCount       int
	queueSize         int
	decodeConcurrency int
	maxRuns           int
	topN              int
	fastestN          int
	settings          model.Settings

	started bool
	cancel  context.CancelFunc

	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets how many runs execute concurrently.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets how many runs may wait for a worker.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDecodeConcurrency bounds parallel spreadsheet decoding within a run.
func WithDecodeConcurrency(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.decodeConcurrency = n
		}
	}
}

// WithMaxRuns bounds how many runs are retained in memory.
func WithMaxRuns(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxRuns = n
		}
	}
}

// WithExportSizes sets the sizes of the top and fastest views.
func WithExportSizes(topN, fastestN int) Option {
	return func(s *Service) {
		if topN > 0 {
			s.topN = topN
		}
		if fastestN > 0 {
			s.fastestN = fastestN
		}
	}
}

// WithSettings sets the default pipeline settings of every run.
func WithSettings(settings model.Settings) Option {
	return func(s *Service) {
		s.settings = settings
	}
}

// WithDecoder replaces the spreadsheet decoder.
func WithDecoder(d pipeline.Decoder) Option {
	return func(s *Service) {
		if d != nil {
			s.decoder = d
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount:       runtime.NumCPU(),
		queueSize:         defaultQueueSize,
		decodeConcurrency: runtime.NumCPU(),
		maxRuns:           defaultMaxRuns,
		settings:          model.DefaultSettings(),
		decoder:           workbook.NewDecoder(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start initializes and starts the service components.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}

	s.store = repository.NewMemoryStore(repository.WithMaxRuns(s.maxRuns))
	s.queue = queue.NewInMemoryQueue(queue.WithCapacity(s.queueSize))
	s.runner = pipeline.NewRunner(s.decoder, pipeline.WithConcurrency(s.decodeConcurrency))
	s.projector = export.NewProjector(export.WithTopN(s.topN), export.WithFastestN(s.fastestN))

	// workers outlive the caller's request-scoped ctx until Stop
	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.cancel = cancel
	s.pool = worker.NewPool(s.workerCount, s.queue, s)
	s.pool.Start(runCtx)

	s.started = true
	s.logger.Info(ctx, "runs service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
		logger.Int("decodeConcurrency", s.decodeConcurrency),
		logger.Int("minNameParts", s.settings.MinNameParts),
		logger.Int("minExams", s.settings.MinExams),
	)
	return nil
}

// Stop gracefully shuts down the service.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	ctx := context.Background()
	s.logger.Info(ctx, "stopping runs service...")

	if err := s.pool.Shutdown(ctx); err != nil {
		s.logger.Warn(ctx, "worker pool shutdown incomplete", logger.Error(err))
	}
	s.cancel()

	if n := s.failQueued(ctx); n > 0 {
		s.logger.Warn(ctx, "queued runs abandoned", logger.Int("runs", n))
	}

	s.started = false
	s.logger.Info(ctx, "runs service stopped")
}

// failQueued marks runs that no worker picked up as failed, so pollers see
// a final status instead of waiting forever.
func (s *Service) failQueued(ctx context.Context) int {
	n := 0
	for _, r := range s.store.List(ctx, 0) {
		if r.Status != model.RunQueued {
			continue
		}
		failed := false
		_, _ = s.store.Update(ctx, r.ID, func(r *model.Run) {
			if r.Status != model.RunQueued {
				return
			}
			r.Status = model.RunFailed
			r.Error = ErrStopped.Error()
			r.FinishedAt = time.Now().UTC()
			failed = true
		})
		if failed {
			n++
			metrics.RecordRunCompleted(string(model.RunFailed))
		}
	}
	return n
}

// Submit validates the uploaded files and queues a run.
func (s *Service) Submit(ctx context.Context, files []model.File, o Overrides) (model.Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.started {
		return model.Run{}, ErrNotStarted
	}
	if len(files) == 0 {
		return model.Run{}, ErrNoFiles
	}
	for _, f := range files {
		if !Accepts(f.Name) {
			return model.Run{}, fmt.Errorf("%w: %s", ErrUnsupportedFile, f.Name)
		}
	}

	job := queue.Job{
		RunID:    uuid.NewString(),
		Settings: s.settings.WithThresholds(o.MinNameParts, o.MinExams),
		Files:    files,
	}
	run := model.Run{
		ID:        job.RunID,
		Status:    model.RunQueued,
		Stage:     "queued",
		Files:     job.FileNames(),
		Settings:  job.Settings,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.store.Create(ctx, run); err != nil {
		return model.Run{}, fmt.Errorf("store run: %w", err)
	}

	if err := s.queue.Enqueue(ctx, job); err != nil {
		_, _ = s.store.Update(ctx, run.ID, func(r *model.Run) {
			r.Status = model.RunFailed
			r.Error = err.Error()
			r.FinishedAt = time.Now().UTC()
		})
		if errors.Is(err, queue.ErrFull) {
			return model.Run{}, ErrBusy
		}
		return model.Run{}, fmt.Errorf("enqueue run: %w", err)
	}

	metrics.RecordRunSubmitted()
	s.logger.Info(ctx, "run queued",
		logger.String("run_id", run.ID),
		logger.Int("files", len(files)),
		logger.Int("queueLength", s.queue.Len(ctx)))
	return run, nil
}

// Process executes a queued run. It implements worker.Processor.
func (s *Service) Process(ctx context.Context, j queue.Job) error {
	finished := false
	if _, err := s.store.Update(ctx, j.RunID, func(r *model.Run) {
		if finished = r.Finished(); finished {
			return
		}
		r.Status = model.RunRunning
		r.Stage = "running"
	}); err != nil {
		return fmt.Errorf("run %s: %w", j.RunID, err)
	}
	if finished {
		return nil
	}

	sources := make([]pipeline.Source, len(j.Files))
	for i, f := range j.Files {
		sources[i] = pipeline.BytesSource(f.Name, f.Data)
	}
	progress := pipeline.ProgressFunc(func(ctx context.Context, pct float64, status string) {
		_, _ = s.store.Update(ctx, j.RunID, func(r *model.Run) {
			r.Progress = pct
			r.Stage = status
		})
	})

	res, err := s.runner.Run(ctx, j.Settings, sources, progress)
	if err != nil {
		metrics.RecordRunCompleted(string(model.RunFailed))
		_, _ = s.store.Update(context.WithoutCancel(ctx), j.RunID, func(r *model.Run) {
			r.Status = model.RunFailed
			r.Error = err.Error()
			r.FinishedAt = time.Now().UTC()
		})
		return fmt.Errorf("run %s: %w", j.RunID, err)
	}

	metrics.RecordRunCompleted(string(model.RunDone))
	_, err = s.store.Update(ctx, j.RunID, func(r *model.Run) {
		r.Status = model.RunDone
		r.Progress = pipeline.PercentCompleted
		r.Result = res
		r.Diagnostics = res.Diagnostics
		r.FinishedAt = time.Now().UTC()
	})
	return err
}

// Run returns the current state of a run.
func (s *Service) Run(ctx context.Context, id string) (model.Run, error) {
	if err := s.ready(); err != nil {
		return model.Run{}, err
	}
	r, err := s.store.Get(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return model.Run{}, ErrRunNotFound
	}
	return r, err
}

// Runs lists recent runs, newest first.
func (s *Service) Runs(ctx context.Context, limit int) ([]model.Run, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	return s.store.List(ctx, limit), nil
}

// Result returns the result of a completed run.
func (s *Service) Result(ctx context.Context, id string) (*model.Result, error) {
	r, err := s.Run(ctx, id)
	if err != nil {
		return nil, err
	}
	switch r.Status {
	case model.RunDone:
		return r.Result, nil
	case model.RunFailed:
		return nil, fmt.Errorf("%w: %s", ErrRunFailed, r.Error)
	default:
		return nil, ErrRunPending
	}
}

// Leaderboard returns the ranked entries of a completed run.
func (s *Service) Leaderboard(ctx context.Context, id string, limit int) ([]types.Entry, error) {
	res, err := s.Result(ctx, id)
	if err != nil {
		return nil, err
	}
	return types.Entries(res.Leaderboard, limit), nil
}

// Export projects a completed run into the named view.
func (s *Service) Export(ctx context.Context, id string, view export.View) (export.Table, error) {
	res, err := s.Result(ctx, id)
	if err != nil {
		return export.Table{}, err
	}
	return s.projector.Project(view, res.Leaderboard, res.Records)
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]interface{}{
		"started":           s.started,
		"workerCount":       s.workerCount,
		"queueSize":         s.queueSize,
		"decodeConcurrency": s.decodeConcurrency,
		"minNameParts":      s.settings.MinNameParts,
		"minExams":          s.settings.MinExams,
	}
	if s.started {
		stats["queueLength"] = s.queue.Len(ctx)
		stats["storedRuns"] = s.store.Count(ctx)
	}
	return stats
}

func (s *Service) ready() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return ErrNotStarted
	}
	return nil
}

// Accepts reports whether name has a spreadsheet suffix.
func Accepts(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, suf := range acceptedSuffixes {
		if ext == suf {
			return true
		}
	}
	return false
}
