package pacing

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDelay_Bounds(t *testing.T) {
	p := New(WithRand(rand.New(rand.NewSource(7)).Float64))

	for i := 0; i < 500; i++ {
		d := p.Delay(2, 1)
		assert.GreaterOrEqual(t, d, 3000*time.Millisecond)
		assert.Less(t, d, 8000*time.Millisecond)

		d = p.Delay(7, 3)
		assert.GreaterOrEqual(t, d, 8000*time.Millisecond)
		assert.Less(t, d, 20000*time.Millisecond)

		d = p.Delay(15, 14)
		assert.GreaterOrEqual(t, d, 15000*time.Millisecond)
		assert.Less(t, d, 45000*time.Millisecond)
	}
}

func TestDelay_FirstMessageNotDelayed(t *testing.T) {
	p := New(WithRand(func() float64 { return 0.99 }))

	for _, n := range []int{1, 2, 5, 15, 100} {
		assert.Zero(t, p.Delay(n, 0))
	}
}

func TestDelay_Interpolates(t *testing.T) {
	p := New(WithRand(func() float64 { return 0.5 }))

	assert.Equal(t, 5500*time.Millisecond, p.Delay(3, 1))
	assert.Equal(t, 14000*time.Millisecond, p.Delay(10, 1))
	assert.Equal(t, 30000*time.Millisecond, p.Delay(11, 1))
}

func TestTierFor(t *testing.T) {
	assert.Equal(t, smallBatch, TierFor(0))
	assert.Equal(t, smallBatch, TierFor(3))
	assert.Equal(t, mediumBatch, TierFor(4))
	assert.Equal(t, mediumBatch, TierFor(10))
	assert.Equal(t, largeBatch, TierFor(11))
}

func TestPresenceDelay_Bounds(t *testing.T) {
	p := New()
	for i := 0; i < 500; i++ {
		d := p.PresenceDelay()
		assert.GreaterOrEqual(t, d, 1500*time.Millisecond)
		assert.Less(t, d, 3500*time.Millisecond)
	}
}

func TestBatch_WaitSkipsFirstAndAdvances(t *testing.T) {
	var slept []time.Duration
	p := New(
		WithRand(func() float64 { return 0 }),
		WithSleeper(func(_ context.Context, d time.Duration) error {
			slept = append(slept, d)
			return nil
		}),
	)
	b := p.NewBatch("birthday", 2)

	d, err := b.Wait(context.Background())
	require.NoError(t, err)
	assert.Zero(t, d)

	d, err = b.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3*time.Second, d)

	assert.Equal(t, []time.Duration{3 * time.Second}, slept)
	assert.Equal(t, 2, b.Position())
	assert.Equal(t, 2, b.Total())
}

func TestBatch_WaitHonorsCancellation(t *testing.T) {
	p := New(WithRand(func() float64 { return 0 }))
	b := p.NewBatch("rescue", 2)
	ctx, cancel := context.WithCancel(context.Background())

	_, err := b.Wait(ctx)
	require.NoError(t, err)

	cancel()
	start := time.Now()
	_, err = b.Wait(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Less(t, time.Since(start), time.Second)
}

func TestContextSleep(t *testing.T) {
	assert.NoError(t, ContextSleep(context.Background(), time.Millisecond))
	assert.NoError(t, ContextSleep(context.Background(), 0))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, ContextSleep(ctx, time.Hour), context.Canceled)
}
