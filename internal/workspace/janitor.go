package workspace

import (
	"fmt"
	"log/slog"
	"time"

	"appforge/internal/logfields"

	"github.com/go-co-op/gocron/v2"
)

// Janitor periodically sweeps stale scratch directories.
type Janitor struct {
	scheduler gocron.Scheduler
	manager   *Manager
	maxAge    time.Duration
}

// NewJanitor creates a janitor sweeping the manager's root on the given interval.
func NewJanitor(m *Manager, interval, maxAge time.Duration) (*Janitor, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	j := &Janitor{scheduler: s, manager: m, maxAge: maxAge}
	_, err = s.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(j.sweep),
		gocron.WithName("workspace-sweep"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to schedule sweep job: %w", err)
	}
	return j, nil
}

// Start begins the sweep schedule.
func (j *Janitor) Start() {
	slog.Info("starting workspace janitor", logfields.Path(j.manager.Root()), slog.Duration("max_age", j.maxAge))
	j.scheduler.Start()
}

// Stop shuts the schedule down.
func (j *Janitor) Stop() error {
	return j.scheduler.Shutdown()
}

func (j *Janitor) sweep() {
	if _, err := j.manager.Sweep(j.maxAge); err != nil {
		slog.Warn("workspace sweep failed", logfields.Error(err))
	}
}
