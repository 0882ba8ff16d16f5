package workerpool

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestPool_RunsJobs(t *testing.T) {
	p := New(Config{Name: "test", MaxWorkers: 2, QueueSize: 10, Logger: zap.NewNop()})

	var ran int32
	for i := 0; i < 5; i++ {
		require.NoError(t, p.Submit(Job{Name: "inc", Run: func(ctx context.Context) error {
			atomic.AddInt32(&ran, 1)
			return nil
		}}))
	}

	require.NoError(t, p.Stop(time.Second))
	assert.Equal(t, int32(5), atomic.LoadInt32(&ran))

	stats := p.Stats()
	assert.Equal(t, uint64(5), stats.Submitted)
	assert.Equal(t, uint64(5), stats.Completed)
}

func TestPool_CountsFailuresAndPanics(t *testing.T) {
	p := New(Config{Name: "test", MaxWorkers: 1, QueueSize: 4})

	require.NoError(t, p.Submit(Job{Name: "fail", Run: func(ctx context.Context) error {
		return errors.New("boom")
	}}))
	require.NoError(t, p.Submit(Job{Name: "panic", Run: func(ctx context.Context) error {
		panic("bad job")
	}}))

	require.NoError(t, p.Stop(time.Second))
	assert.Equal(t, uint64(2), p.Stats().Failed)
}

func TestPool_RejectsWhenFull(t *testing.T) {
	p := New(Config{Name: "test", MaxWorkers: 1, QueueSize: 1})
	release := make(chan struct{})
	started := make(chan struct{})

	require.NoError(t, p.Submit(Job{Name: "block", Run: func(ctx context.Context) error {
		close(started)
		<-release
		return nil
	}}))
	<-started
	require.NoError(t, p.Submit(Job{Name: "queued", Run: func(ctx context.Context) error { return nil }}))

	err := p.Submit(Job{Name: "overflow", Run: func(ctx context.Context) error { return nil }})
	assert.ErrorIs(t, err, ErrQueueFull)

	close(release)
	require.NoError(t, p.Stop(time.Second))
	assert.Equal(t, uint64(1), p.Stats().Rejected)
}

func TestPool_RejectsAfterStop(t *testing.T) {
	p := New(Config{Name: "test"})
	require.NoError(t, p.Stop(time.Second))
	require.NoError(t, p.Stop(time.Second))

	err := p.Submit(Job{Name: "late", Run: func(ctx context.Context) error { return nil }})
	assert.ErrorIs(t, err, ErrStopped)
}

func TestPool_StopTimeoutCancelsRunningJobs(t *testing.T) {
	p := New(Config{Name: "test", MaxWorkers: 1})
	started := make(chan struct{})

	require.NoError(t, p.Submit(Job{Name: "slow", Run: func(ctx context.Context) error {
		close(started)
		<-ctx.Done()
		return ctx.Err()
	}}))
	<-started

	err := p.Stop(20 * time.Millisecond)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "stop timeout")
}

func TestPool_JobTimeout(t *testing.T) {
	p := New(Config{Name: "test", MaxWorkers: 1})
	errCh := make(chan error, 1)

	require.NoError(t, p.Submit(Job{Name: "bounded", Timeout: 10 * time.Millisecond, Run: func(ctx context.Context) error {
		<-ctx.Done()
		errCh <- ctx.Err()
		return ctx.Err()
	}}))

	assert.ErrorIs(t, <-errCh, context.DeadlineExceeded)
	require.NoError(t, p.Stop(time.Second))
}

func TestPool_DeferredStopReleasesWorkersOnFailedStartup(t *testing.T) {
	start := func() error {
		p := New(Config{Name: "notifications", MaxWorkers: 4, QueueSize: 8, Logger: zap.NewNop()})
		defer func() { _ = p.Stop(time.Second) }()

		return errors.New("invalid refresh schedule")
	}

	require.Error(t, start())
	goleak.VerifyNone(t)
}
