package stash

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Sweeper periodically removes expired stash records so abandoned
// reviews do not accumulate in the bbolt file. Expiry is also enforced
// lazily on Get; the sweeper only reclaims space.
type Sweeper struct {
	stash  *BoltStash
	logger *zap.Logger

	sweepInterval time.Duration

	mu        sync.Mutex
	isRunning bool
	cancel    context.CancelFunc
	done      chan struct{}
}

// NewSweeper creates a sweeper for the given stash.
func NewSweeper(stash *BoltStash, interval time.Duration, logger *zap.Logger) *Sweeper {
	if interval <= 0 {
		interval = time.Hour
	}
	return &Sweeper{
		stash:         stash,
		logger:        logger,
		sweepInterval: interval,
	}
}

// Name returns the worker name.
func (s *Sweeper) Name() string {
	return "stash-sweeper"
}

// Start starts the background sweep loop.
func (s *Sweeper) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("stash sweeper is already running")
	}

	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})
	s.isRunning = true

	go s.run(ctx)

	s.logger.Info("Stash sweeper started",
		zap.Duration("interval", s.sweepInterval))
	return nil
}

// Stop stops the sweep loop and waits for the current pass to finish.
func (s *Sweeper) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return
	}

	s.cancel()
	<-s.done
	s.isRunning = false

	s.logger.Info("Stash sweeper stopped")
}

func (s *Sweeper) run(ctx context.Context) {
	defer close(s.done)

	ticker := time.NewTicker(s.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := s.stash.SweepExpired(ctx)
			if err != nil {
				s.logger.Error("Stash sweep failed", zap.Error(err))
				continue
			}
			if removed > 0 {
				s.logger.Info("Swept expired stash records",
					zap.Int("removed", removed))
			}
		}
	}
}
