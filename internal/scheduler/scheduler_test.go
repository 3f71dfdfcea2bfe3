package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestInMemoryScheduler(t *testing.T) {
	scheduler := NewInMemoryScheduler(nil)

	// Test starting the scheduler
	err := scheduler.Start(context.Background())
	if err != nil {
		t.Fatalf("Failed to start scheduler: %v", err)
	}

	// Verify scheduler is running
	if !scheduler.IsRunning() {
		t.Error("Scheduler should be running after Start()")
	}

	if err := scheduler.Start(context.Background()); err == nil {
		t.Error("Expected error when starting a running scheduler")
	}

	// Test scheduling a job
	err = scheduler.ScheduleFunc("status", "@every 1s", func(ctx context.Context) error {
		return nil
	})
	if err != nil {
		t.Fatalf("Failed to schedule job: %v", err)
	}

	// Verify job exists
	jobs := scheduler.Jobs()
	if len(jobs) != 1 {
		t.Fatalf("Expected 1 job, got %d", len(jobs))
	}

	// Test removing a job
	jobID := jobs[0].ID()
	err = scheduler.Remove(jobID)
	if err != nil {
		t.Errorf("Failed to remove job: %v", err)
	}

	if err := scheduler.Remove(jobID); err == nil {
		t.Error("Expected error when removing an unknown job")
	}

	// Verify job is removed
	jobs = scheduler.Jobs()
	if len(jobs) != 0 {
		t.Errorf("Expected 0 jobs after removal, got %d", len(jobs))
	}

	// Test stopping the scheduler
	err = scheduler.Stop()
	if err != nil {
		t.Fatalf("Failed to stop scheduler: %v", err)
	}

	// Verify scheduler is not running
	if scheduler.IsRunning() {
		t.Error("Scheduler should not be running after Stop()")
	}

	if err := scheduler.Stop(); err == nil {
		t.Error("Expected error when stopping a stopped scheduler")
	}
}

func TestInMemoryJob(t *testing.T) {
	job, err := NewInMemoryJob("quarantine", "@every 10s", func(ctx context.Context) error { return nil })
	if err != nil {
		t.Fatalf("Failed to create job: %v", err)
	}

	if job.Name() != "quarantine" {
		t.Errorf("Expected job name 'quarantine', got '%s'", job.Name())
	}
	if job.Schedule() != "@every 10s" {
		t.Errorf("Expected schedule '@every 10s', got '%s'", job.Schedule())
	}
	if job.Interval() != 10*time.Second {
		t.Errorf("Expected interval 10s, got %v", job.Interval())
	}
	if !job.LastRun().IsZero() || job.Runs() != 0 {
		t.Error("New job should not have run")
	}
}

func TestParseSchedule(t *testing.T) {
	tests := []struct {
		schedule string
		want     time.Duration
		wantErr  bool
	}{
		{"@every 5s", 5 * time.Second, false},
		{"@every 1m30s", 90 * time.Second, false},
		{"@minutely", time.Minute, false},
		{"@hourly", time.Hour, false},
		{"@daily", 24 * time.Hour, false},
		{"@every soon", 0, true},
		{"@every 0s", 0, true},
		{"*/5 * * * *", 0, true},
		{"", 0, true},
	}

	for _, tt := range tests {
		got, err := parseSchedule(tt.schedule)
		if tt.wantErr {
			if err == nil {
				t.Errorf("parseSchedule(%q) expected error", tt.schedule)
			}
			continue
		}
		if err != nil {
			t.Errorf("parseSchedule(%q) unexpected error: %v", tt.schedule, err)
			continue
		}
		if got != tt.want {
			t.Errorf("parseSchedule(%q) = %v, want %v", tt.schedule, got, tt.want)
		}
	}
}

func TestEverySchedule(t *testing.T) {
	if got := EverySchedule(5 * time.Second); got != "@every 5s" {
		t.Errorf("EverySchedule(5s) = %q", got)
	}
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before timeout")
}

func TestJobsTickIndependently(t *testing.T) {
	scheduler := NewInMemoryScheduler(nil)

	var fast, slow atomic.Int32
	scheduler.ScheduleFunc("fast", "@every 10ms", func(ctx context.Context) error {
		fast.Add(1)
		return nil
	})
	scheduler.ScheduleFunc("slow", "@every 40ms", func(ctx context.Context) error {
		slow.Add(1)
		return nil
	})

	if err := scheduler.Start(context.Background()); err != nil {
		t.Fatalf("Failed to start scheduler: %v", err)
	}
	defer scheduler.Stop()

	waitFor(t, 2*time.Second, func() bool { return slow.Load() >= 2 })
	if fast.Load() <= slow.Load() {
		t.Errorf("Expected fast job to run more often: fast=%d slow=%d", fast.Load(), slow.Load())
	}
}

func TestFailingJobKeepsTicking(t *testing.T) {
	scheduler := NewInMemoryScheduler(nil)

	var runs atomic.Int32
	scheduler.ScheduleFunc("failing", "@every 10ms", func(ctx context.Context) error {
		runs.Add(1)
		return errors.New("backend unreachable")
	})

	scheduler.Start(context.Background())
	defer scheduler.Stop()

	waitFor(t, 2*time.Second, func() bool { return runs.Load() >= 3 })
}

func TestRunsOverlapWhenSlowerThanInterval(t *testing.T) {
	scheduler := NewInMemoryScheduler(nil)

	var inFlight, maxInFlight atomic.Int32
	release := make(chan struct{})
	scheduler.ScheduleFunc("slow-request", "@every 10ms", func(ctx context.Context) error {
		n := inFlight.Add(1)
		defer inFlight.Add(-1)
		for {
			m := maxInFlight.Load()
			if n <= m || maxInFlight.CompareAndSwap(m, n) {
				break
			}
		}
		<-release
		return nil
	})

	scheduler.Start(context.Background())
	waitFor(t, 2*time.Second, func() bool { return maxInFlight.Load() >= 2 })
	scheduler.Stop()
	close(release)
}

func TestStopHaltsTicks(t *testing.T) {
	scheduler := NewInMemoryScheduler(nil)

	var runs atomic.Int32
	scheduler.ScheduleFunc("status", "@every 10ms", func(ctx context.Context) error {
		runs.Add(1)
		return nil
	})

	scheduler.Start(context.Background())
	waitFor(t, 2*time.Second, func() bool { return runs.Load() >= 1 })
	scheduler.Stop()

	// Let any run fired just before Stop land
	time.Sleep(20 * time.Millisecond)
	after := runs.Load()
	time.Sleep(50 * time.Millisecond)
	if runs.Load() != after {
		t.Errorf("Job kept running after Stop: %d -> %d", after, runs.Load())
	}
}

func TestScheduleWhileRunning(t *testing.T) {
	scheduler := NewInMemoryScheduler(nil)
	scheduler.Start(context.Background())
	defer scheduler.Stop()

	var runs atomic.Int32
	err := scheduler.ScheduleFunc("late", "@every 10ms", func(ctx context.Context) error {
		runs.Add(1)
		return nil
	})
	if err != nil {
		t.Fatalf("Failed to schedule job: %v", err)
	}

	waitFor(t, 2*time.Second, func() bool { return runs.Load() >= 1 })
}
