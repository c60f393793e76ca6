// Package scheduler owns the timers. Services stay timer-free so their
// sweeps can be invoked directly with a controlled clock in tests.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"parkhaus/internal/service"
)

type Scheduler struct {
	cron   *cron.Cron
	logger *zap.Logger
}

// New wires the reclamation pass onto a fixed interval. Nothing runs until
// Start is called.
func New(reclaimer *service.ReclaimerService, interval time.Duration, logger *zap.Logger) (*Scheduler, error) {
	c := cron.New()
	spec := fmt.Sprintf("@every %s", interval)
	_, err := c.AddFunc(spec, func() {
		reclaimer.Run(context.Background())
	})
	if err != nil {
		return nil, fmt.Errorf("schedule reclamation job: %w", err)
	}
	return &Scheduler{cron: c, logger: logger}, nil
}

func (s *Scheduler) Start() {
	s.logger.Info("reclamation scheduler started")
	s.cron.Start()
}

// Stop halts the timer and waits for a running pass to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("reclamation scheduler stopped")
}
