// Package scheduler runs the recurring background jobs on cron
// schedules.
package scheduler

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/ackwest/seoengine/internal/core"
	"github.com/ackwest/seoengine/internal/metrics"
)

// Job names.
const (
	JobCompetitorCrawl  = "competitor_crawl"
	JobRankCheck        = "rank_check"
	JobAutoPublish      = "auto_publish"
	JobAlertDigest      = "alert_digest"
	JobDailySummary     = "daily_summary"
	JobContentDueNotice = "content_due_notice"
)

// JobFunc is one schedulable unit of work.
type JobFunc func(ctx context.Context) error

// Status describes one registered job for the operations API.
type Status struct {
	Name     string       `json:"name"`
	Schedule string       `json:"schedule"`
	Running  bool         `json:"running"`
	NextRun  *time.Time   `json:"next_run,omitempty"`
	LastRun  *core.JobRun `json:"last_run,omitempty"`
}

type job struct {
	name    string
	spec    string
	fn      JobFunc
	entryID cron.EntryID
	running atomic.Bool
	mu      sync.Mutex
	lastRun *core.JobRun
}

// Scheduler wraps a cron runner with overlap protection and run
// records per job.
type Scheduler struct {
	cron  *cron.Cron
	clock core.Clock
	log   *zap.Logger

	mu   sync.RWMutex
	jobs map[string]*job
}

// New constructs an idle Scheduler.
func New(clock core.Clock, log *zap.Logger) *Scheduler {
	return &Scheduler{
		cron:  cron.New(),
		clock: clock,
		log:   log.Named("scheduler"),
		jobs:  make(map[string]*job),
	}
}

// Register adds a job under a standard five-field cron spec. A job
// still running when its next tick fires is skipped, not stacked.
func (s *Scheduler) Register(name, spec string, fn JobFunc) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.jobs[name]; exists {
		return fmt.Errorf("job %q: %w", name, core.ErrAlreadyExists)
	}

	j := &job{name: name, spec: spec, fn: fn}
	entryID, err := s.cron.AddFunc(spec, func() {
		s.run(context.Background(), j)
	})
	if err != nil {
		return fmt.Errorf("register job %q with spec %q: %w", name, spec, err)
	}
	j.entryID = entryID
	s.jobs[name] = j
	s.log.Info("job registered", zap.String("job", name), zap.String("schedule", spec))
	return nil
}

// Start begins firing schedules.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info("scheduler started", zap.Int("jobs", len(s.jobs)))
}

// Stop halts scheduling and returns a context that completes when any
// in-flight runs have finished.
func (s *Scheduler) Stop() context.Context {
	s.log.Info("scheduler stopping")
	return s.cron.Stop()
}

// RunOnce executes one job immediately, outside its schedule.
func (s *Scheduler) RunOnce(ctx context.Context, name string) (core.JobRun, error) {
	s.mu.RLock()
	j, ok := s.jobs[name]
	s.mu.RUnlock()
	if !ok {
		return core.JobRun{}, fmt.Errorf("job %q: %w", name, core.ErrNotFound)
	}
	if !s.run(ctx, j) {
		return core.JobRun{}, fmt.Errorf("job %q is already running: %w", name, core.ErrAlreadyExists)
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	return *j.lastRun, nil
}

// Jobs returns the status of every registered job, sorted by name.
func (s *Scheduler) Jobs() []Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Status, 0, len(s.jobs))
	for _, j := range s.jobs {
		st := Status{
			Name:     j.name,
			Schedule: j.spec,
			Running:  j.running.Load(),
		}
		if entry := s.cron.Entry(j.entryID); !entry.Next.IsZero() {
			next := entry.Next
			st.NextRun = &next
		}
		j.mu.Lock()
		if j.lastRun != nil {
			run := *j.lastRun
			st.LastRun = &run
		}
		j.mu.Unlock()
		out = append(out, st)
	}
	sort.Slice(out, func(i, k int) bool { return out[i].Name < out[k].Name })
	return out
}

// run executes the job unless it is already running. Reports whether
// it actually ran.
func (s *Scheduler) run(ctx context.Context, j *job) bool {
	if !j.running.CompareAndSwap(false, true) {
		s.log.Warn("job still running, skipping tick", zap.String("job", j.name))
		metrics.SchedulerRun(j.name, "skipped", 0)
		return false
	}
	defer j.running.Store(false)

	started := s.clock.Now()
	s.log.Info("job starting", zap.String("job", j.name))
	err := j.fn(ctx)
	duration := s.clock.Now().Sub(started)

	run := core.JobRun{Name: j.name, StartedAt: started, Duration: duration}
	status := "success"
	if err != nil {
		run.Error = err.Error()
		status = "error"
		s.log.Error("job failed",
			zap.String("job", j.name), zap.Duration("duration", duration), zap.Error(err))
	} else {
		s.log.Info("job finished",
			zap.String("job", j.name), zap.Duration("duration", duration))
	}
	metrics.SchedulerRun(j.name, status, duration)

	j.mu.Lock()
	j.lastRun = &run
	j.mu.Unlock()
	return true
}
