// Package jobs runs background work on a cron schedule.
package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"
)

// Resetter starts a new scoring day.
type Resetter interface {
	DailyReset(ctx context.Context) error
}

// Scheduler ...
type Scheduler struct {
	cron     *cron.Cron
	spec     string
	resetter Resetter
}

// NewScheduler creates a scheduler that runs the daily reset on spec in loc.
func NewScheduler(resetter Resetter, spec string, loc *time.Location) *Scheduler {
	if loc == nil {
		loc = time.UTC
	}

	return &Scheduler{
		cron:     cron.New(cron.WithLocation(loc)),
		spec:     spec,
		resetter: resetter,
	}
}

// Start registers the jobs and starts the cron loop. ctx is passed to every run.
func (s *Scheduler) Start(ctx context.Context) error {
	if _, err := s.cron.AddFunc(s.spec, func() { s.runReset(ctx) }); err != nil {
		return fmt.Errorf("failed to schedule daily reset %q: %w", s.spec, err)
	}

	s.cron.Start()
	log.WithField("spec", s.spec).WithField("location", s.cron.Location().String()).Info("scheduler started")

	return nil
}

func (s *Scheduler) runReset(ctx context.Context) {
	log.Info("[CRON] daily reset")
	if err := s.resetter.DailyReset(ctx); err != nil {
		log.WithError(err).Error("[CRON] daily reset failed")
	}
}

// Stop waits for running jobs to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	log.Info("scheduler stopped")
}
