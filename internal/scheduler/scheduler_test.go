package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/devrev/bizdir/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type refresherFunc func(ctx context.Context) (*model.RefreshResult, error)

func (f refresherFunc) Refresh(ctx context.Context) (*model.RefreshResult, error) {
	return f(ctx)
}

func TestScheduler_RunsOnStart(t *testing.T) {
	var calls atomic.Int32
	ran := make(chan struct{}, 1)
	r := refresherFunc(func(ctx context.Context) (*model.RefreshResult, error) {
		calls.Add(1)
		ran <- struct{}{}
		return &model.RefreshResult{}, nil
	})

	s, err := New("@every 1h", r, time.Second, zap.NewNop())
	require.NoError(t, err)
	s.Start()

	select {
	case <-ran:
	case <-time.After(2 * time.Second):
		t.Fatal("refresh did not run at start")
	}

	require.NoError(t, s.Stop(context.Background()))
	assert.Equal(t, int32(1), calls.Load())
}

func TestScheduler_ErrorsAreLogged(t *testing.T) {
	done := make(chan struct{})
	r := refresherFunc(func(ctx context.Context) (*model.RefreshResult, error) {
		defer close(done)
		return nil, errors.New("db down")
	})

	s, err := New("@every 1h", r, time.Second, zap.NewNop())
	require.NoError(t, err)
	s.Start()
	<-done
	assert.NoError(t, s.Stop(context.Background()))
}

func TestScheduler_StopCancelsSlowRefresh(t *testing.T) {
	started := make(chan struct{})
	r := refresherFunc(func(ctx context.Context) (*model.RefreshResult, error) {
		close(started)
		<-ctx.Done()
		return nil, ctx.Err()
	})

	s, err := New("@every 1h", r, time.Minute, zap.NewNop())
	require.NoError(t, err)
	s.Start()
	<-started

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, s.Stop(ctx), context.DeadlineExceeded)
}

func TestNew_InvalidSchedule(t *testing.T) {
	_, err := New("every now and then", refresherFunc(nil), time.Second, zap.NewNop())
	assert.ErrorContains(t, err, "invalid refresh schedule")
}
