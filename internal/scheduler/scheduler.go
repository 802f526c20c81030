package scheduler

import (
	"context"
	"log/slog"

	"github.com/robfig/cron/v3"
)

// Job represents a scheduled job
type Job interface {
	Run(ctx context.Context) error
	Name() string
}

// Scheduler runs jobs on cron schedules. Both five-field and six-field
// (leading seconds) specs are accepted, as are descriptors like @daily.
type Scheduler struct {
	cron *cron.Cron
	ctx  context.Context
}

var parser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// ValidateSchedule reports whether spec is a schedule AddJob accepts.
func ValidateSchedule(spec string) error {
	_, err := parser.Parse(spec)
	return err
}

// New creates a scheduler whose jobs receive ctx.
func New(ctx context.Context) *Scheduler {
	return &Scheduler{
		cron: cron.New(cron.WithParser(parser), cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		ctx:  ctx,
	}
}

func (s *Scheduler) Start() {
	s.cron.Start()
	slog.InfoContext(s.ctx, "Scheduler started")
}

// Stop waits for running jobs to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	slog.InfoContext(s.ctx, "Scheduler stopped")
}

// AddJob registers job on schedule, e.g. "@daily", "0 3 * * *" or "@every 30s".
func (s *Scheduler) AddJob(schedule string, job Job) error {
	_, err := s.cron.AddFunc(schedule, func() { s.run(job) })
	if err != nil {
		return err
	}
	slog.InfoContext(s.ctx, "Job registered", "schedule", schedule, "job", job.Name())
	return nil
}

// RunNow executes a job immediately (outside schedule)
func (s *Scheduler) RunNow(job Job) error {
	slog.InfoContext(s.ctx, "Running job immediately", "job", job.Name())
	return job.Run(s.ctx)
}

func (s *Scheduler) run(job Job) {
	slog.DebugContext(s.ctx, "Running job", "job", job.Name())
	if err := job.Run(s.ctx); err != nil {
		slog.ErrorContext(s.ctx, "Job failed", "job", job.Name(), "error", err)
		return
	}
	slog.DebugContext(s.ctx, "Job completed", "job", job.Name())
}
