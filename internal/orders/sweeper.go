package orders

import (
	"context"
	"time"

	"tickethub/pkg/logger"
)

// Sweeper expires stale pending orders in the background. Correctness
// never depends on it; the checkout and confirmation paths expire
// lazily. It only frees seats sooner than the next read would.
type Sweeper struct {
	service Service
	config  *SweeperConfig
	done    chan struct{}
	logger  *logger.Logger
}

type SweeperConfig struct {
	Interval  time.Duration
	BatchSize int
}

func DefaultSweeperConfig() *SweeperConfig {
	return &SweeperConfig{
		Interval:  1 * time.Minute,
		BatchSize: 100,
	}
}

func NewSweeper(service Service, config *SweeperConfig) *Sweeper {
	if config == nil {
		config = DefaultSweeperConfig()
	}

	return &Sweeper{
		service: service,
		config:  config,
		done:    make(chan struct{}),
		logger:  logger.GetDefault(),
	}
}

// Start launches the sweep loop.
func (s *Sweeper) Start(ctx context.Context) {
	go s.run(ctx)
	s.logger.Info("order expiry sweeper started", "interval", s.config.Interval.String())
}

// Stop terminates the sweep loop.
func (s *Sweeper) Stop() {
	close(s.done)
	s.logger.Info("order expiry sweeper stopped")
}

func (s *Sweeper) run(ctx context.Context) {
	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.sweep(ctx)
		case <-s.done:
			return
		case <-ctx.Done():
			return
		}
	}
}

func (s *Sweeper) sweep(ctx context.Context) {
	expired, err := s.service.ExpireStaleOrders(ctx, s.config.BatchSize)
	if err != nil {
		s.logger.Error("order expiry sweep failed", "error", err)
		return
	}
	if expired > 0 {
		s.logger.Info("expired stale orders", "count", expired)
	}
}
