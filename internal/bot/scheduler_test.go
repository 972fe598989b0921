package bot_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/croplink/agrobot/internal/bot"
	"github.com/croplink/agrobot/internal/bot/tasks"
	"github.com/croplink/agrobot/internal/config"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func noopTask(context.Context) error { return nil }

func testSchedulerConfig() *config.SchedulerConfig {
	return &config.SchedulerConfig{
		Timezone: "UTC",
		Tasks: map[string]config.TaskConfig{
			"alpha": {Enabled: true, Schedule: "0 7 * * *", SendDelay: 100 * time.Millisecond},
			"beta":  {Enabled: true, Schedule: "0 8 * * *"},
			"gamma": {Enabled: false, Schedule: "0 9 * * *"},
		},
	}
}

func newTestScheduler(t *testing.T) *bot.Scheduler {
	t.Helper()

	taskMap := map[string]tasks.ScheduledTaskFunc{
		"alpha": noopTask,
		"beta":  noopTask,
		"gamma": noopTask,
	}
	s, err := bot.NewScheduler(testLogger(), testSchedulerConfig(), taskMap)
	if err != nil {
		t.Fatalf("NewScheduler() error = %v", err)
	}
	return s
}

func stateOf(t *testing.T, s *bot.Scheduler, name string) bot.JobState {
	t.Helper()
	for _, status := range s.JobStates() {
		if status.Name == name {
			return status.State
		}
	}
	t.Fatalf("job %q not found in states", name)
	return ""
}

func TestSchedulerRegistersAllJobs(t *testing.T) {
	t.Parallel()

	s := newTestScheduler(t)
	states := s.JobStates()
	if len(states) != 3 {
		t.Fatalf("got %d job states, want 3", len(states))
	}
	for _, status := range states {
		if status.State != bot.JobRegistered {
			t.Errorf("job %q state = %v before Start, want registered", status.Name, status.State)
		}
	}
}

func TestSchedulerStartSchedulesEnabledJobs(t *testing.T) {
	t.Parallel()

	s := newTestScheduler(t)
	if err := s.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer s.Stop()

	if got := stateOf(t, s, "alpha"); got != bot.JobRunning {
		t.Errorf("alpha state = %v, want running", got)
	}
	if got := stateOf(t, s, "gamma"); got != bot.JobRegistered {
		t.Errorf("disabled gamma state = %v, want registered", got)
	}

	if err := s.Start(); err == nil {
		t.Error("second Start() error = nil, want already-running error")
	}
}

func TestSchedulerStopAndRestartJob(t *testing.T) {
	t.Parallel()

	s := newTestScheduler(t)
	if err := s.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer s.Stop()

	if err := s.StopJob("alpha"); err != nil {
		t.Fatalf("StopJob(alpha) error = %v", err)
	}
	if got := stateOf(t, s, "alpha"); got != bot.JobStopped {
		t.Errorf("alpha state after stop = %v, want stopped", got)
	}

	// Stopping a job that is not scheduled is an error, not a no-op.
	if err := s.StopJob("alpha"); err == nil {
		t.Error("second StopJob(alpha) error = nil, want error")
	}
	if err := s.StopJob("unknown"); err == nil {
		t.Error("StopJob(unknown) error = nil, want error")
	}

	if err := s.StartJob("alpha"); err != nil {
		t.Fatalf("StartJob(alpha) error = %v", err)
	}
	if got := stateOf(t, s, "alpha"); got != bot.JobRunning {
		t.Errorf("alpha state after restart = %v, want running", got)
	}

	if err := s.StartJob("beta"); err == nil {
		t.Error("StartJob on a running job error = nil, want error")
	}
	if err := s.StartJob("unknown"); err == nil {
		t.Error("StartJob(unknown) error = nil, want error")
	}
}

func TestSchedulerInvalidTimezone(t *testing.T) {
	t.Parallel()

	cfg := testSchedulerConfig()
	cfg.Timezone = "Mars/Olympus_Mons"
	if _, err := bot.NewScheduler(testLogger(), cfg, nil); err == nil {
		t.Fatal("NewScheduler() with bad timezone error = nil, want error")
	}
}
