package executor

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestRetrySucceedsFirstAttempt(t *testing.T) {
	p := RetryPolicy{Attempts: 3, BaseDelay: 10 * time.Millisecond}

	calls := 0
	err := p.Do(context.Background(), "op", zap.NewNop(), func() error {
		calls++
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestRetryRecoversMidway(t *testing.T) {
	p := RetryPolicy{Attempts: 3, BaseDelay: time.Millisecond}

	calls := 0
	err := p.Do(context.Background(), "op", zap.NewNop(), func() error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestRetryExhaustionReturnsLastError(t *testing.T) {
	p := RetryPolicy{Attempts: 3, BaseDelay: time.Millisecond}
	finalErr := errors.New("still broken")

	calls := 0
	err := p.Do(context.Background(), "op", zap.NewNop(), func() error {
		calls++
		if calls < 3 {
			return errors.New("earlier failure")
		}
		return finalErr
	})

	assert.Equal(t, 3, calls)
	assert.ErrorIs(t, err, finalErr)
}

func TestRetryBackoffDoubles(t *testing.T) {
	base := 20 * time.Millisecond
	p := RetryPolicy{Attempts: 3, BaseDelay: base}

	var stamps []time.Time
	_ = p.Do(context.Background(), "op", zap.NewNop(), func() error {
		stamps = append(stamps, time.Now())
		return errors.New("fail")
	})
	require.Len(t, stamps, 3)

	// Gaps between attempts follow the 1:2 doubling, within scheduler
	// jitter.
	gap1 := stamps[1].Sub(stamps[0])
	gap2 := stamps[2].Sub(stamps[1])

	assert.GreaterOrEqual(t, gap1, base)
	assert.GreaterOrEqual(t, gap2, 2*base)
	ratio := float64(gap2) / float64(gap1)
	assert.InDelta(t, 2.0, ratio, 0.4)
}

func TestRetryStopsOnCancel(t *testing.T) {
	p := RetryPolicy{Attempts: 3, BaseDelay: time.Hour}

	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	done := make(chan error, 1)
	go func() {
		done <- p.Do(ctx, "op", zap.NewNop(), func() error {
			calls++
			return errors.New("fail")
		})
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, 1, calls)
	case <-time.After(time.Second):
		t.Fatal("retry did not observe cancellation")
	}
}

func TestDefaultRetryPolicy(t *testing.T) {
	p := DefaultRetryPolicy()
	assert.Equal(t, MaxAttempts, p.Attempts)
	assert.Equal(t, BaseBackoff, p.BaseDelay)
}
