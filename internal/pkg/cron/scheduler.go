package cron

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/paylane/payroll-backend-go/internal/pkg/clock"
)

// Job is a periodic task. Fn receives the tick instant so job logic can
// compare against a deterministic "now" instead of reading the wall
// clock itself.
type Job struct {
	Name     string
	Interval time.Duration
	Fn       func(ctx context.Context, now time.Time) error
}

// Scheduler runs registered jobs on fixed intervals.
type Scheduler struct {
	jobs   []Job
	clk    clock.Clock
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	mu     sync.Mutex
}

func NewScheduler(clk clock.Clock) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		jobs:   make([]Job, 0),
		clk:    clk,
		ctx:    ctx,
		cancel: cancel,
	}
}

// AddJob registers a job with the scheduler.
func (s *Scheduler) AddJob(name string, interval time.Duration, fn func(ctx context.Context, now time.Time) error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.jobs = append(s.jobs, Job{
		Name:     name,
		Interval: interval,
		Fn:       fn,
	})
	slog.Info("Billing job registered", "name", name, "interval", interval)
}

// Start begins running all registered jobs.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, job := range s.jobs {
		s.wg.Add(1)
		go s.runJob(job)
	}

	slog.Info("Billing scheduler started", "job_count", len(s.jobs))
}

// Stop gracefully stops all jobs and waits for in-flight runs.
func (s *Scheduler) Stop() {
	slog.Info("Stopping billing scheduler...")
	s.cancel()
	s.wg.Wait()
	slog.Info("Billing scheduler stopped")
}

func (s *Scheduler) runJob(job Job) {
	defer s.wg.Done()

	ticker := time.NewTicker(job.Interval)
	defer ticker.Stop()

	// Run immediately on start
	s.executeJob(job)

	for {
		select {
		case <-s.ctx.Done():
			slog.Info("Billing job stopping", "name", job.Name)
			return
		case <-ticker.C:
			s.executeJob(job)
		}
	}
}

func (s *Scheduler) executeJob(job Job) {
	start := time.Now()
	slog.Debug("Billing job starting", "name", job.Name)

	if err := job.Fn(s.ctx, s.clk.Now()); err != nil {
		slog.Error("Billing job failed", "name", job.Name, "error", err, "duration", time.Since(start))
	} else {
		slog.Debug("Billing job completed", "name", job.Name, "duration", time.Since(start))
	}
}

// RunOnce runs all jobs once at the given instant (useful for testing).
func (s *Scheduler) RunOnce(ctx context.Context, now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, job := range s.jobs {
		if err := job.Fn(ctx, now); err != nil {
			slog.Error("Billing job failed", "name", job.Name, "error", err)
		}
	}
}
