package ingest

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"

	"github.com/Catalitium/catalitiumJobs/pkg/logging"
)

// Scheduler wraps robfig/cron around the ingest worker.
type Scheduler struct {
	cron   *cron.Cron
	worker *Worker
	spec   string // e.g. "@every 6h"
	log    *logging.Logger
}

// NewScheduler creates a scheduler that fires every intervalHours hours.
func NewScheduler(worker *Worker, intervalHours int, log *logging.Logger) *Scheduler {
	return &Scheduler{
		cron:   cron.New(),
		worker: worker,
		spec:   fmt.Sprintf("@every %dh", intervalHours),
		log:    log,
	}
}

// Start registers the cron entry and kicks off one immediate cycle so
// a fresh deployment has listings before the first tick.
func (s *Scheduler) Start(ctx context.Context) error {
	_, err := s.cron.AddFunc(s.spec, func() {
		s.runCycle(ctx)
	})
	if err != nil {
		return fmt.Errorf("cron.AddFunc: %w", err)
	}

	s.cron.Start()
	s.log.Info("ingest scheduler started", "spec", s.spec)

	go s.runCycle(ctx)
	return nil
}

// Stop halts the cron loop. Running cycles finish on their own.
func (s *Scheduler) Stop() {
	s.cron.Stop()
	s.log.Info("ingest scheduler stopped")
}

func (s *Scheduler) runCycle(ctx context.Context) {
	if err := s.worker.Run(ctx); err != nil {
		s.log.Error("ingest cycle failed", "error", err)
	}
}
