// Package scheduler runs the periodic promotion refresh.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/devrev/bizdir/internal/model"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Refresher recomputes promoted flags
type Refresher interface {
	Refresh(ctx context.Context) (*model.RefreshResult, error)
}

// Scheduler runs a Refresher on a cron schedule and once at start
type Scheduler struct {
	cron      *cron.Cron
	refresher Refresher
	timeout   time.Duration
	logger    *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// New creates a scheduler for spec, e.g. "@every 15m" or "*/10 * * * *".
// Each run is bounded by timeout.
func New(spec string, refresher Refresher, timeout time.Duration, logger *zap.Logger) (*Scheduler, error) {
	if timeout <= 0 {
		timeout = time.Minute
	}
	ctx, cancel := context.WithCancel(context.Background())
	s := &Scheduler{
		refresher: refresher,
		timeout:   timeout,
		logger:    logger,
		ctx:       ctx,
		cancel:    cancel,
	}

	cl := cronLogger{logger: logger.Sugar()}
	s.cron = cron.New(cron.WithLogger(cl), cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)))
	if _, err := s.cron.AddFunc(spec, s.run); err != nil {
		cancel()
		return nil, fmt.Errorf("invalid refresh schedule %q: %w", spec, err)
	}
	return s, nil
}

// Start runs one refresh immediately in the background and then follows the schedule
func (s *Scheduler) Start() {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.run()
	}()
	s.cron.Start()
	s.logger.Info("Promotion refresh scheduler started")
}

// Stop halts the schedule and waits for a running refresh.
// If ctx expires first the running refresh is cancelled.
func (s *Scheduler) Stop(ctx context.Context) error {
	cronDone := s.cron.Stop()
	done := make(chan struct{})
	go func() {
		<-cronDone.Done()
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.cancel()
		s.logger.Info("Promotion refresh scheduler stopped")
		return nil
	case <-ctx.Done():
		s.cancel()
		<-done
		return ctx.Err()
	}
}

// run performs one refresh; overlapping initial and scheduled runs are serialized
func (s *Scheduler) run() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ctx.Err() != nil {
		return
	}
	ctx, cancel := context.WithTimeout(s.ctx, s.timeout)
	defer cancel()

	if _, err := s.refresher.Refresh(ctx); err != nil {
		s.logger.Error("Promotion refresh failed", zap.Error(err))
	}
}

// cronLogger adapts zap to cron's logger
type cronLogger struct {
	logger *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Errorw(msg, append(keysAndValues, "error", err)...)
}
