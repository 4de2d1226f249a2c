package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWaitZeroDelayReturnsImmediately(t *testing.T) {
	s := New()
	start := time.Now()
	err := s.Wait(context.Background(), 0)
	require.NoError(t, err)
	assert.Less(t, time.Since(start), 10*time.Millisecond)
}

func TestWaitNegativeDelayReturnsImmediately(t *testing.T) {
	s := New()
	start := time.Now()
	err := s.Wait(context.Background(), -time.Hour)
	require.NoError(t, err)
	assert.Less(t, time.Since(start), 10*time.Millisecond)
}

func TestWaitHonorsContextCancellation(t *testing.T) {
	s := New()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	err := s.Wait(ctx, time.Hour)
	require.Error(t, err)
	assert.Less(t, time.Since(start), 50*time.Millisecond)
}

func TestWaitSuspendsForApproximatelyDelay(t *testing.T) {
	s := New()
	start := time.Now()
	err := s.Wait(context.Background(), 20*time.Millisecond)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
}

type stubTickSource struct {
	delays []time.Duration
	calls  int
}

func (s *stubTickSource) Tick(ctx context.Context) (time.Duration, error) {
	s.calls++
	if s.calls > len(s.delays) {
		return 0, context.Canceled
	}
	return s.delays[s.calls-1], nil
}

func TestRunStopsWhenTickSourceErrors(t *testing.T) {
	s := New()
	src := &stubTickSource{delays: []time.Duration{time.Millisecond, time.Millisecond}}

	err := s.Run(context.Background(), src)
	require.Error(t, err)
	assert.Equal(t, 3, src.calls)
}

func TestRunStopsOnContextCancellation(t *testing.T) {
	s := New()
	ctx, cancel := context.WithCancel(context.Background())
	src := &stubTickSource{delays: []time.Duration{time.Hour}}

	done := make(chan error, 1)
	go func() { done <- s.Run(ctx, src) }()

	time.Sleep(5 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.Error(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run did not observe cancellation")
	}
}
