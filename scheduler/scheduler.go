package scheduler

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"
	"zonaprop_scraper/config"
)

// Runner is the job the scheduler drives; in practice the export
// orchestrator bound to its search URL.
type Runner interface {
	RunOnce(ctx context.Context) error
}

// Scheduler re-runs the export on a cron expression or fixed interval.
// At most one export runs at a time; ticks arriving while a run is in
// flight are skipped.
type Scheduler struct {
	cfg     *config.Config
	runner  Runner
	cron    *cron.Cron
	ticker  *time.Ticker
	stopCh  chan struct{}
	running chan struct{}
}

func New(cfg *config.Config, runner Runner) *Scheduler {
	return &Scheduler{
		cfg:     cfg,
		runner:  runner,
		cron:    cron.New(),
		stopCh:  make(chan struct{}),
		running: make(chan struct{}, 1),
	}
}

func (s *Scheduler) Start(ctx context.Context) error {
	switch {
	case s.cfg.Scheduler.Cron != "":
		log.Printf("Starting scheduler with cron: %s", s.cfg.Scheduler.Cron)
		_, err := s.cron.AddFunc(s.cfg.Scheduler.Cron, func() {
			s.run(ctx)
		})
		if err != nil {
			return fmt.Errorf("invalid cron expression: %w", err)
		}
		s.cron.Start()
	case s.cfg.Scheduler.Interval > 0:
		log.Printf("Starting scheduler with interval: %s", s.cfg.Scheduler.Interval)
		s.ticker = time.NewTicker(s.cfg.Scheduler.Interval)
		go func() {
			for {
				select {
				case <-s.ticker.C:
					s.run(ctx)
				case <-s.stopCh:
					return
				case <-ctx.Done():
					return
				}
			}
		}()
	default:
		return fmt.Errorf("no schedule configured: set SCRAPE_CRON or SCRAPE_INTERVAL")
	}

	return nil
}

func (s *Scheduler) Stop() {
	if s.cron != nil {
		s.cron.Stop()
	}
	if s.ticker != nil {
		s.ticker.Stop()
	}
	close(s.stopCh)
}

func (s *Scheduler) run(ctx context.Context) {
	select {
	case s.running <- struct{}{}:
	default:
		log.Println("Previous export still running, skipping this tick")
		return
	}
	defer func() { <-s.running }()

	if err := s.runner.RunOnce(ctx); err != nil {
		log.Printf("Scheduled run error: %v", err)
	}
}
