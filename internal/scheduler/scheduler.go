package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// InMemoryJob is a job driven by its own ticker
type InMemoryJob struct {
	id       string
	name     string
	jobFunc  JobFunc
	schedule string
	interval time.Duration
	runs     atomic.Int64

	mu      sync.RWMutex
	lastRun time.Time
	stopCh  chan struct{}
}

// NewInMemoryJob creates a new in-memory job
func NewInMemoryJob(name string, schedule string, jobFunc JobFunc) (*InMemoryJob, error) {
	interval, err := parseSchedule(schedule)
	if err != nil {
		return nil, fmt.Errorf("job %s: %w", name, err)
	}

	return &InMemoryJob{
		id:       "job_" + uuid.NewString(),
		name:     name,
		jobFunc:  jobFunc,
		schedule: schedule,
		interval: interval,
	}, nil
}

// Run executes the job function. Runs are not serialized: a slow run
// may overlap with the next tick.
func (ij *InMemoryJob) Run(ctx context.Context) error {
	return ij.jobFunc(ctx)
}

// EverySchedule formats d as an "@every" schedule
func EverySchedule(d time.Duration) string {
	return "@every " + d.String()
}

// parseSchedule parses the schedule string to determine the interval
func parseSchedule(schedule string) (time.Duration, error) {
	switch {
	case strings.HasPrefix(schedule, "@every "):
		intervalStr := strings.TrimPrefix(schedule, "@every ")
		duration, err := time.ParseDuration(intervalStr)
		if err != nil {
			return 0, fmt.Errorf("invalid duration format: %v", err)
		}
		if duration <= 0 {
			return 0, fmt.Errorf("interval must be positive, got %s", duration)
		}
		return duration, nil
	case schedule == "@minutely":
		return time.Minute, nil
	case schedule == "@hourly":
		return time.Hour, nil
	case schedule == "@daily":
		return 24 * time.Hour, nil
	default:
		return 0, errors.New("invalid schedule format, use @every <duration>, @minutely, @hourly or @daily")
	}
}

// ID returns the job ID
func (ij *InMemoryJob) ID() string {
	return ij.id
}

// Name returns the job name
func (ij *InMemoryJob) Name() string {
	return ij.name
}

// Schedule returns the schedule string
func (ij *InMemoryJob) Schedule() string {
	return ij.schedule
}

// Interval returns the parsed period
func (ij *InMemoryJob) Interval() time.Duration {
	return ij.interval
}

// LastRun returns the time of the last tick
func (ij *InMemoryJob) LastRun() time.Time {
	ij.mu.RLock()
	defer ij.mu.RUnlock()
	return ij.lastRun
}

// Runs returns how many times the job was fired
func (ij *InMemoryJob) Runs() int64 {
	return ij.runs.Load()
}

func (ij *InMemoryJob) markRun(now time.Time) {
	ij.mu.Lock()
	ij.lastRun = now
	ij.mu.Unlock()
	ij.runs.Add(1)
}

// InMemoryScheduler runs every job on an independent timer. Each tick fires
// its run in a new goroutine and never waits for it.
type InMemoryScheduler struct {
	jobs    map[string]*InMemoryJob
	running bool
	ctx     context.Context
	mu      sync.RWMutex
	wg      sync.WaitGroup
	log     *zap.Logger
}

// NewInMemoryScheduler creates a new in-memory scheduler
func NewInMemoryScheduler(log *zap.Logger) *InMemoryScheduler {
	if log == nil {
		log = zap.NewNop()
	}
	return &InMemoryScheduler{
		jobs: make(map[string]*InMemoryJob),
		log:  log,
	}
}

// Schedule adds a job to the scheduler
func (s *InMemoryScheduler) Schedule(job Job) error {
	inMemJob, ok := job.(*InMemoryJob)
	if !ok {
		var err error
		inMemJob, err = NewInMemoryJob(job.Name(), job.Schedule(), job.Run)
		if err != nil {
			return err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.jobs[inMemJob.ID()] = inMemJob
	if s.running {
		s.startTimerLocked(inMemJob)
	}
	return nil
}

// ScheduleFunc creates and schedules a function as a job
func (s *InMemoryScheduler) ScheduleFunc(name string, schedule string, job JobFunc) error {
	jobObj, err := NewInMemoryJob(name, schedule, job)
	if err != nil {
		return err
	}
	return s.Schedule(jobObj)
}

// Start begins the timers
func (s *InMemoryScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return errors.New("scheduler is already running")
	}

	if ctx == nil {
		ctx = context.Background()
	}
	s.running = true
	s.ctx = ctx
	for _, job := range s.jobs {
		s.startTimerLocked(job)
	}
	return nil
}

func (s *InMemoryScheduler) startTimerLocked(job *InMemoryJob) {
	stop := make(chan struct{})
	job.mu.Lock()
	job.stopCh = stop
	job.mu.Unlock()

	s.wg.Add(1)
	go s.run(s.ctx, job, stop)
}

// run is the timer loop of one job
func (s *InMemoryScheduler) run(ctx context.Context, job *InMemoryJob, stop <-chan struct{}) {
	defer s.wg.Done()

	ticker := time.NewTicker(job.interval)
	defer ticker.Stop()

	for {
		select {
		case now := <-ticker.C:
			job.markRun(now)
			// Fire and forget, the next tick does not wait for this run
			go func() {
				if err := job.Run(ctx); err != nil {
					s.log.Warn("scheduled job failed",
						zap.String("job", job.Name()),
						zap.Error(err))
				}
			}()
		case <-stop:
			return
		case <-ctx.Done():
			return
		}
	}
}

func stopTimer(job *InMemoryJob) {
	job.mu.Lock()
	defer job.mu.Unlock()
	if job.stopCh != nil {
		close(job.stopCh)
		job.stopCh = nil
	}
}

// Stop stops all timers
func (s *InMemoryScheduler) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return errors.New("scheduler is not running")
	}

	for _, job := range s.jobs {
		stopTimer(job)
	}
	s.running = false
	s.wg.Wait() // Wait for the timer loops, not for in-flight runs

	return nil
}

// Jobs returns all scheduled jobs ordered by name
func (s *InMemoryScheduler) Jobs() []Job {
	s.mu.RLock()
	defer s.mu.RUnlock()

	jobs := make([]Job, 0, len(s.jobs))
	for _, job := range s.jobs {
		jobs = append(jobs, job)
	}
	sort.Slice(jobs, func(i, j int) bool { return jobs[i].Name() < jobs[j].Name() })

	return jobs
}

// Remove removes a job by ID and stops its timer
func (s *InMemoryScheduler) Remove(jobID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, exists := s.jobs[jobID]
	if !exists {
		return fmt.Errorf("job with ID %s does not exist", jobID)
	}

	stopTimer(job)
	delete(s.jobs, jobID)
	return nil
}

// IsRunning returns whether the scheduler is running
func (s *InMemoryScheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}
