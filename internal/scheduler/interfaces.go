package scheduler

import (
	"context"
	"time"
)

// Job represents a periodic task
type Job interface {
	ID() string
	Name() string
	Run(ctx context.Context) error
	Schedule() string // "@every <duration>", "@minutely", "@hourly" or "@daily"
	Interval() time.Duration
	LastRun() time.Time
	Runs() int64
}

// JobFunc is a function that can be scheduled
type JobFunc func(ctx context.Context) error

func (jf JobFunc) Run(ctx context.Context) error {
	return jf(ctx)
}

// Scheduler defines the interface for scheduling jobs
type Scheduler interface {
	// Schedule a job to run at its interval
	Schedule(job Job) error

	// Schedule a function to run at specific intervals
	ScheduleFunc(name string, schedule string, job JobFunc) error

	// Start the timers. ctx is handed to every run.
	Start(ctx context.Context) error

	// Stop the timers. Runs already in flight are left to finish.
	Stop() error

	// Get all scheduled jobs
	Jobs() []Job

	// Remove a job by ID
	Remove(jobID string) error

	// Check if scheduler is running
	IsRunning() bool
}
