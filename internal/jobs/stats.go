// Package jobs holds the background work scheduled with robfig/cron.
package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/diewo77/go-dealership/internal/metrics"
)

// Counter is satisfied by the inventory and classification services.
type Counter interface {
	Count(ctx context.Context) (int64, error)
}

// StatsJob refreshes the inventory gauges.
type StatsJob struct {
	vehicles        Counter
	classifications Counter
	metrics         *metrics.Metrics
	log             logrus.FieldLogger
	timeout         time.Duration
}

func NewStatsJob(vehicles, classifications Counter, m *metrics.Metrics, log logrus.FieldLogger) *StatsJob {
	return &StatsJob{
		vehicles:        vehicles,
		classifications: classifications,
		metrics:         m,
		log:             log.WithField("job", "inventory_stats"),
		timeout:         10 * time.Second,
	}
}

// Run is an interface method of cron.Job.
func (j *StatsJob) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()
	if err := j.refresh(ctx); err != nil {
		j.metrics.StatsRefreshErrors.Inc()
		j.log.WithError(err).Warn("refresh failed")
	}
}

func (j *StatsJob) refresh(ctx context.Context) error {
	vehicles, err := j.vehicles.Count(ctx)
	if err != nil {
		return fmt.Errorf("count vehicles: %w", err)
	}
	classes, err := j.classifications.Count(ctx)
	if err != nil {
		return fmt.Errorf("count classifications: %w", err)
	}
	j.metrics.SetInventory(vehicles, classes)
	j.log.WithFields(logrus.Fields{"vehicles": vehicles, "classifications": classes}).Debug("inventory stats refreshed")
	return nil
}

// Scheduler owns the cron runner.
type Scheduler struct {
	cron *cron.Cron
	log  logrus.FieldLogger
}

func NewScheduler(log logrus.FieldLogger) *Scheduler {
	return &Scheduler{cron: cron.New(), log: log}
}

// Add registers job on spec. When runNow is set the job also runs once
// immediately, in the caller's goroutine.
func (s *Scheduler) Add(spec string, job cron.Job, runNow bool) error {
	if _, err := s.cron.AddJob(spec, job); err != nil {
		return fmt.Errorf("schedule %q: %w", spec, err)
	}
	if runNow {
		job.Run()
	}
	return nil
}

func (s *Scheduler) Start() { s.cron.Start() }

// Stop stops scheduling and waits for running jobs or ctx, whichever ends first.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
		s.log.Warn("cron jobs still running at shutdown")
	}
}
