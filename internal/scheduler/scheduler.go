// Package scheduler runs wall-clock jobs against the running farm:
// periodic autosaves and pruning of old save records.
package scheduler

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/robfig/cron/v3"

	"github.com/talgya/dairy-sim/internal/engine"
	"github.com/talgya/dairy-sim/internal/persistence"
)

// Scheduler manages scheduled autosaves.
type Scheduler struct {
	cron *cron.Cron
	sim  *engine.Simulation
	db   *persistence.DB
	slot string
	keep int

	mu    sync.Mutex
	saves int
}

// New creates a scheduler that saves sim to db, keeping the newest keep
// records in the autosave slot.
func New(sim *engine.Simulation, db *persistence.DB, keep int) *Scheduler {
	return &Scheduler{
		cron: cron.New(),
		sim:  sim,
		db:   db,
		slot: persistence.DefaultSlot,
		keep: keep,
	}
}

// Start schedules the autosave job on spec (standard cron syntax or a
// descriptor such as "@every 5m") and starts the scheduler.
func (s *Scheduler) Start(spec string) error {
	if _, err := s.cron.AddFunc(spec, s.runAutosave); err != nil {
		return fmt.Errorf("schedule autosave %q: %w", spec, err)
	}
	slog.Info("starting scheduler", "autosave", spec, "keep", s.keep)
	s.cron.Start()
	return nil
}

// Stop stops the scheduler and waits for a running job to finish.
func (s *Scheduler) Stop() {
	slog.Info("stopping scheduler")
	<-s.cron.Stop().Done()
}

func (s *Scheduler) runAutosave() {
	if _, err := s.Autosave(); err != nil {
		slog.Error("autosave failed", "error", err)
	}
}

// Autosave saves the farm now and prunes old autosaves. An idle farm is
// skipped without error.
func (s *Scheduler) Autosave() (bool, error) {
	if s.sim.Phase() != engine.PhaseRunning {
		slog.Debug("autosave skipped: farm idle")
		return false, nil
	}
	if _, err := s.db.Checkpoint(s.sim, s.slot); err != nil {
		return false, err
	}
	pruned, err := s.db.PruneSaves(s.slot, s.keep)
	if err != nil {
		return true, fmt.Errorf("prune saves: %w", err)
	}
	if pruned > 0 {
		slog.Debug("old autosaves pruned", "count", pruned)
	}

	s.mu.Lock()
	s.saves++
	s.mu.Unlock()
	return true, nil
}

// Saves returns how many autosaves succeeded.
func (s *Scheduler) Saves() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}
