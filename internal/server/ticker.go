package server

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// TickerService invokes a function on a fixed period until stopped. Hosts
// use it to drive the idle-session sweep and database health checks.
type TickerService struct {
	logger   *zap.Logger
	interval time.Duration
	tick     func(ctx context.Context)

	ctx      context.Context
	cancel   context.CancelFunc
	stopOnce sync.Once
	running  sync.WaitGroup
}

// NewTickerService creates a TickerService.
//
// Precondition: interval > 0; tick must be non-nil.
func NewTickerService(logger *zap.Logger, interval time.Duration, tick func(ctx context.Context)) *TickerService {
	ctx, cancel := context.WithCancel(context.Background())
	return &TickerService{
		logger:   logger,
		interval: interval,
		tick:     tick,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Start blocks, calling tick once per interval, until Stop is called.
// Start after Stop returns immediately.
func (s *TickerService) Start() error {
	s.running.Add(1)
	defer s.running.Done()

	t := time.NewTicker(s.interval)
	defer t.Stop()
	s.logger.Debug("ticker started", zap.Duration("interval", s.interval))
	for {
		select {
		case <-s.ctx.Done():
			return nil
		case <-t.C:
			s.tick(s.ctx)
		}
	}
}

// Stop cancels the ticker and waits for an in-flight tick to finish.
func (s *TickerService) Stop() {
	s.stopOnce.Do(s.cancel)
	s.running.Wait()
}
