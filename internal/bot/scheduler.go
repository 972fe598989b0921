package bot

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/croplink/agrobot/internal/bot/tasks"
	"github.com/croplink/agrobot/internal/config"
)

// JobState tracks one registered job through its lifecycle:
// Registered at process start, Running once scheduled, Stopped only by
// explicit operator action. State lives in memory only; a restart
// re-registers everything from the static configuration.
type JobState string

const (
	JobRegistered JobState = "registered"
	JobRunning    JobState = "running"
	JobStopped    JobState = "stopped"
)

// Scheduler manages the named periodic jobs using gocron. Job names are
// unique within the registry. Stopping a job prevents future firings but
// does not cancel an in-flight run.
type Scheduler struct {
	scheduler gocron.Scheduler
	logger    *slog.Logger
	cfg       *config.SchedulerConfig
	taskMap   map[string]tasks.ScheduledTaskFunc

	mu      sync.Mutex
	jobs    map[string]gocron.Job
	states  map[string]JobState
	running bool
}

// NewScheduler creates a scheduler with every configured task registered
// but not yet scheduled.
func NewScheduler(logger *slog.Logger, cfg *config.SchedulerConfig, taskMap map[string]tasks.ScheduledTaskFunc) (*Scheduler, error) {
	location, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid scheduler timezone %q: %w", cfg.Timezone, err)
	}

	s, err := gocron.NewScheduler(gocron.WithLocation(location))
	if err != nil {
		return nil, fmt.Errorf("failed to create gocron scheduler: %w", err)
	}

	states := make(map[string]JobState, len(taskMap))
	for name := range taskMap {
		states[name] = JobRegistered
	}

	return &Scheduler{
		scheduler: s,
		logger:    logger.With("component", "scheduler"),
		cfg:       cfg,
		taskMap:   taskMap,
		jobs:      make(map[string]gocron.Job),
		states:    states,
	}, nil
}

// Start schedules all enabled tasks and starts the scheduler.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("scheduler is already running")
	}

	scheduled := 0
	for name, taskFunc := range s.taskMap {
		taskCfg, ok := s.cfg.Tasks[name]
		if !ok || !taskCfg.Enabled {
			s.logger.Info("Skipping disabled task", "task_name", name)
			continue
		}
		if taskCfg.Schedule == "" {
			s.logger.Warn("Task enabled but has empty schedule, skipping", "task_name", name)
			continue
		}

		if err := s.scheduleLocked(name, taskCfg.Schedule, taskFunc); err != nil {
			s.logger.Error("Failed to schedule task",
				"task_name", name, "schedule", taskCfg.Schedule, "error", err)
			continue
		}
		scheduled++
	}

	s.scheduler.Start()
	s.running = true
	s.logger.Info("Scheduler started", "tasks_scheduled", scheduled)
	return nil
}

// Stop gracefully shuts the scheduler down, waiting for running jobs.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil
	}

	err := s.scheduler.Shutdown()
	if err != nil {
		s.logger.Error("Error during scheduler shutdown", "error", err)
	} else {
		s.logger.Info("Scheduler stopped gracefully.")
	}

	s.running = false
	return err
}

// StopJob removes a job from the schedule (operator action). An
// in-flight run of the job is not cancelled.
func (s *Scheduler) StopJob(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[name]
	if !ok {
		if _, registered := s.states[name]; !registered {
			return fmt.Errorf("unknown job %q", name)
		}
		return fmt.Errorf("job %q is not running", name)
	}

	if err := s.scheduler.RemoveJob(job.ID()); err != nil {
		return fmt.Errorf("failed to remove job %q: %w", name, err)
	}

	delete(s.jobs, name)
	s.states[name] = JobStopped
	s.logger.Info("Job stopped by operator", "task_name", name)
	return nil
}

// StartJob re-schedules a previously stopped job (operator action).
func (s *Scheduler) StartJob(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.jobs[name]; ok {
		return fmt.Errorf("job %q is already running", name)
	}

	taskFunc, ok := s.taskMap[name]
	if !ok {
		return fmt.Errorf("unknown job %q", name)
	}

	taskCfg, ok := s.cfg.Tasks[name]
	if !ok || taskCfg.Schedule == "" {
		return fmt.Errorf("job %q has no configured schedule", name)
	}

	if err := s.scheduleLocked(name, taskCfg.Schedule, taskFunc); err != nil {
		return fmt.Errorf("failed to schedule job %q: %w", name, err)
	}

	s.logger.Info("Job restarted by operator", "task_name", name)
	return nil
}

// JobStates returns a sorted snapshot of job names and states for
// operator status output.
func (s *Scheduler) JobStates() []JobStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	statuses := make([]JobStatus, 0, len(s.states))
	for name, state := range s.states {
		statuses = append(statuses, JobStatus{Name: name, State: state})
	}
	sort.Slice(statuses, func(i, j int) bool { return statuses[i].Name < statuses[j].Name })
	return statuses
}

// JobStatus pairs a job name with its current state.
type JobStatus struct {
	Name  string
	State JobState
}

func (s *Scheduler) scheduleLocked(name, schedule string, taskFunc tasks.ScheduledTaskFunc) error {
	job, err := s.scheduler.NewJob(
		gocron.CronJob(schedule, false),
		gocron.NewTask(func(ctx context.Context) {
			s.logger.Info("Running scheduled task", "task_name", name)
			start := time.Now()
			if taskErr := taskFunc(ctx); taskErr != nil {
				s.logger.Error("Scheduled task failed", "task_name", name, "error", taskErr)
			}
			s.logger.Info("Finished scheduled task", "task_name", name, "duration", time.Since(start))
		}),
		gocron.WithName(name),
	)
	if err != nil {
		return err
	}

	s.jobs[name] = job
	s.states[name] = JobRunning
	s.logger.Info("Scheduled task", "task_name", name, "schedule", schedule)
	return nil
}
