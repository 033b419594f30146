package pacing

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"gitlab.com/timkado/api/wa-automations/internal/observer"
)

// Tier is the delay range applied to batches of a given size
type Tier struct {
	Min time.Duration
	Max time.Duration
}

var (
	smallBatch  = Tier{Min: 3 * time.Second, Max: 8 * time.Second}
	mediumBatch = Tier{Min: 8 * time.Second, Max: 20 * time.Second}
	largeBatch  = Tier{Min: 15 * time.Second, Max: 45 * time.Second}

	presenceMin   = 1500 * time.Millisecond
	presenceRange = 2000 * time.Millisecond
)

// TierFor returns the delay range for a batch of n messages
func TierFor(n int) Tier {
	switch {
	case n <= 3:
		return smallBatch
	case n <= 10:
		return mediumBatch
	default:
		return largeBatch
	}
}

// Sleeper blocks for d or until ctx is done
type Sleeper func(ctx context.Context, d time.Duration) error

// ContextSleep is the default Sleeper
func ContextSleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Pacer computes humanized delays. It holds no per-run state; batch position
// lives in Batch.
type Pacer struct {
	mu    sync.Mutex
	rnd   func() float64
	sleep Sleeper
}

// Option configures a Pacer
type Option func(*Pacer)

// WithRand sets the uniform [0,1) source
func WithRand(fn func() float64) Option {
	return func(p *Pacer) { p.rnd = fn }
}

// WithSleeper replaces the blocking wait, mostly for tests
func WithSleeper(s Sleeper) Option {
	return func(p *Pacer) { p.sleep = s }
}

// New creates a Pacer backed by math/rand and a context-aware sleep
func New(opts ...Option) *Pacer {
	p := &Pacer{
		rnd:   rand.Float64,
		sleep: ContextSleep,
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

func (p *Pacer) uniform() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.rnd()
}

// Delay returns the wait before the k-th (0-indexed) message of a batch of n.
// The first message is never delayed.
func (p *Pacer) Delay(n, k int) time.Duration {
	if k <= 0 {
		return 0
	}
	tier := TierFor(n)
	span := float64(tier.Max - tier.Min)
	d := tier.Min + time.Duration(span*p.uniform())
	return d.Truncate(time.Millisecond)
}

// PresenceDelay returns the in-channel typing delay sent with each message
func (p *Pacer) PresenceDelay() time.Duration {
	d := presenceMin + time.Duration(float64(presenceRange)*p.uniform())
	return d.Truncate(time.Millisecond)
}

// Batch tracks position within one stream of sends. A Batch belongs to a
// single run and must not be shared between goroutines.
type Batch struct {
	pacer *Pacer
	label string
	total int
	index int
}

// NewBatch starts a batch of total expected messages. label tags metrics.
func (p *Pacer) NewBatch(label string, total int) *Batch {
	return &Batch{pacer: p, label: label, total: total}
}

// Wait blocks for the delay owed before the next send and advances the
// position. It returns the delay that was applied.
func (b *Batch) Wait(ctx context.Context) (time.Duration, error) {
	d := b.pacer.Delay(b.total, b.index)
	b.index++
	if d == 0 {
		return 0, ctx.Err()
	}
	observer.ObservePacingDelay(b.label, d)
	if err := b.pacer.sleep(ctx, d); err != nil {
		return d, err
	}
	return d, nil
}

// Position returns how many sends the batch has paced so far
func (b *Batch) Position() int {
	return b.index
}

// Total returns the batch size used for tier selection
func (b *Batch) Total() int {
	return b.total
}
