package delivery

import (
	"context"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
)

// Permits bounds the number of concurrently in-flight webhook calls across
// both queues. It wraps golang.org/x/sync/semaphore.Weighted, already present
// transitively via swaggo's toolchain, promoted here to a direct, exercised
// dependency rather than a hand-rolled channel-based counter.
type Permits struct {
	sem  *semaphore.Weighted
	size int64

	warnOnce sync.Once
	logger   *zap.Logger

	inFlight atomic.Int64
}

// NewPermits constructs a pool with the given capacity.
func NewPermits(size int, logger *zap.Logger) *Permits {
	if size < 1 {
		size = 1
	}
	return &Permits{sem: semaphore.NewWeighted(int64(size)), size: int64(size), logger: logger}
}

// Acquire blocks until a permit is available or ctx is cancelled. The first
// time a caller observes saturation (no permit immediately available), a
// single warning is logged for the lifetime of this pool.
func (p *Permits) Acquire(ctx context.Context) error {
	if !p.sem.TryAcquire(1) {
		p.warnOnce.Do(func() {
			p.logger.Warn("delivery permit pool saturated, dispatch will block",
				zap.Int64("pool_size", p.size))
		})
		if err := p.sem.Acquire(ctx, 1); err != nil {
			return err
		}
		p.inFlight.Add(1)
		return nil
	}
	p.inFlight.Add(1)
	return nil
}

// Release returns one unit to the pool. Callers must pair every successful
// Acquire with exactly one Release, typically via defer, so a panic in the
// delivery path cannot leak a permit.
func (p *Permits) Release() {
	p.inFlight.Add(-1)
	p.sem.Release(1)
}

// InFlight reports the current number of acquired-but-not-yet-released
// permits, exposed by the admin API's /metrics gauge.
func (p *Permits) InFlight() int64 {
	return p.inFlight.Load()
}
