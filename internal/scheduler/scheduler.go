// Package scheduler runs periodic maintenance jobs on cron schedules.
package scheduler

import (
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// Job represents a scheduled job
type Job interface {
	Run() error
	Name() string
}

// JobStatus describes a registered job
type JobStatus struct {
	Name     string    `json:"name"`
	Schedule string    `json:"schedule"`
	Next     time.Time `json:"next"`
	Prev     time.Time `json:"prev"`
	Runs     int64     `json:"runs"`
	Failures int64     `json:"failures"`
	LastErr  string    `json:"last_error,omitempty"`
}

type registered struct {
	id       cron.EntryID
	name     string
	schedule string
	runs     int64
	failures int64
	lastErr  string
}

// Scheduler manages background jobs
type Scheduler struct {
	cron *cron.Cron
	log  zerolog.Logger

	mu   sync.Mutex
	jobs []*registered
}

// New creates a new scheduler. A run that is still in progress when its next tick fires is
// skipped rather than overlapped.
func New(log zerolog.Logger) *Scheduler {
	return &Scheduler{
		cron: cron.New(
			cron.WithSeconds(),
			cron.WithChain(cron.Recover(cron.DiscardLogger), cron.SkipIfStillRunning(cron.DiscardLogger)),
		),
		log: log.With().Str("component", "scheduler").Logger(),
	}
}

// Start starts the scheduler
func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info().Int("jobs", len(s.Jobs())).Msg("Scheduler started")
}

// Stop stops the scheduler and waits for running jobs to finish
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.log.Info().Msg("Scheduler stopped")
}

// AddJob registers a new job with cron schedule
// Schedule examples:
//   - "0 */5 * * * *"      - Every 5 minutes
//   - "@hourly"            - Every hour
//   - "@every 10m"         - Every 10 minutes
func (s *Scheduler) AddJob(schedule string, job Job) error {
	reg := &registered{name: job.Name(), schedule: schedule}

	id, err := s.cron.AddFunc(schedule, func() {
		s.execute(reg, job)
	})
	if err != nil {
		return err
	}

	s.mu.Lock()
	reg.id = id
	s.jobs = append(s.jobs, reg)
	s.mu.Unlock()

	s.log.Info().
		Str("schedule", schedule).
		Str("job", job.Name()).
		Msg("Job registered")

	return nil
}

// RunNow executes a job immediately (outside schedule)
func (s *Scheduler) RunNow(job Job) error {
	s.log.Info().Str("job", job.Name()).Msg("Running job immediately")
	return job.Run()
}

// Jobs reports every registered job with its next and previous run times
func (s *Scheduler) Jobs() []JobStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]JobStatus, 0, len(s.jobs))
	for _, reg := range s.jobs {
		entry := s.cron.Entry(reg.id)
		out = append(out, JobStatus{
			Name:     reg.name,
			Schedule: reg.schedule,
			Next:     entry.Next,
			Prev:     entry.Prev,
			Runs:     reg.runs,
			Failures: reg.failures,
			LastErr:  reg.lastErr,
		})
	}
	return out
}

func (s *Scheduler) execute(reg *registered, job Job) {
	s.log.Debug().Str("job", reg.name).Msg("Running job")

	err := job.Run()

	s.mu.Lock()
	reg.runs++
	if err != nil {
		reg.failures++
		reg.lastErr = err.Error()
	} else {
		reg.lastErr = ""
	}
	s.mu.Unlock()

	if err != nil {
		s.log.Error().
			Err(err).
			Str("job", reg.name).
			Msg("Job failed")
		return
	}
	s.log.Debug().Str("job", reg.name).Msg("Job completed")
}
