package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"lockedin/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingRunner struct {
	calls atomic.Int32
	block chan struct{}
}

func (r *countingRunner) RunAllDue(ctx context.Context, _ usecase.RunOptions) (usecase.RunReport, error) {
	r.calls.Add(1)
	if r.block != nil {
		select {
		case <-r.block:
		case <-ctx.Done():
		}
	}
	return usecase.RunReport{}, nil
}

func TestScheduler_RunsImmediately(t *testing.T) {
	r := &countingRunner{}
	s := New("@every 1h", r, nil)

	require.NoError(t, s.Start(context.Background()))
	require.Eventually(t, func() bool { return r.calls.Load() == 1 }, time.Second, 5*time.Millisecond)
	s.Stop()
}

func TestScheduler_SkipsOverlappingRuns(t *testing.T) {
	r := &countingRunner{block: make(chan struct{})}
	s := New("@every 1s", r, nil)

	require.NoError(t, s.Start(context.Background()))
	require.Eventually(t, func() bool { return r.calls.Load() == 1 }, time.Second, 5*time.Millisecond)

	// ticks while the first run is blocked are dropped
	time.Sleep(2200 * time.Millisecond)
	assert.Equal(t, int32(1), r.calls.Load())

	close(r.block)
	s.Stop()
}

func TestScheduler_InvalidSpec(t *testing.T) {
	s := New("every now and then", &countingRunner{}, nil)
	assert.Error(t, s.Start(context.Background()))
}
