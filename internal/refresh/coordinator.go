// Package refresh keeps the fetch caches warm by running aggregation passes
// in the background on a jittered interval.
//
// A pass that cannot reach any marketplace is retried with exponential
// backoff before the coordinator waits for the next tick. Individual
// marketplace failures are not retried; they are reported in the pass status.
package refresh

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	"k8s.io/utils/clock"

	"github.com/stacklok/marketplace-hub/internal/aggregator"
	"github.com/stacklok/marketplace-hub/internal/logging"
)

const (
	// DefaultInterval is the base interval between passes
	DefaultInterval = 30 * time.Minute
	// DefaultJitter is the maximum random offset applied to the interval
	DefaultJitter = 30 * time.Second
	// DefaultMaxTries bounds the attempts of a single pass
	DefaultMaxTries = 3
)

// Refresher runs an aggregation pass
type Refresher interface {
	Refresh(ctx context.Context) ([]aggregator.FetchedMarketplace, error)
}

// Coordinator manages background refresh scheduling
type Coordinator interface {
	// Start runs passes until ctx is cancelled or Stop is called
	Start(ctx context.Context) error

	// Stop gracefully stops the coordinator
	Stop() error

	// Status returns the outcome of the latest pass
	Status() Status
}

// Error is a failed pass
type Error struct {
	Err     error
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// errAllFailed marks a pass in which no marketplace could be fetched
var errAllFailed = errors.New("every marketplace failed")

type defaultCoordinator struct {
	refresher Refresher
	clock     clock.WithTicker
	interval  time.Duration
	jitter    time.Duration
	maxTries  uint
	backoff   func() backoff.BackOff

	// Lifecycle management
	mu         sync.Mutex
	cancelFunc context.CancelFunc
	done       chan struct{}

	status   Status
	statusMu sync.RWMutex
}

// Option is a function that configures the coordinator
type Option func(*defaultCoordinator)

// WithInterval sets the base interval between passes
func WithInterval(d time.Duration) Option {
	return func(c *defaultCoordinator) {
		if d > 0 {
			c.interval = d
		}
	}
}

// WithJitter sets the maximum random offset; zero disables jitter
func WithJitter(d time.Duration) Option {
	return func(c *defaultCoordinator) {
		c.jitter = max(d, 0)
	}
}

// WithClock sets the clock driving the schedule
func WithClock(clk clock.WithTicker) Option {
	return func(c *defaultCoordinator) {
		c.clock = clk
	}
}

// WithMaxTries bounds the attempts of a single pass
func WithMaxTries(n uint) Option {
	return func(c *defaultCoordinator) {
		if n > 0 {
			c.maxTries = n
		}
	}
}

// WithBackOff sets the retry policy factory, called once per pass
func WithBackOff(fn func() backoff.BackOff) Option {
	return func(c *defaultCoordinator) {
		c.backoff = fn
	}
}

// New creates a new coordinator
func New(refresher Refresher, opts ...Option) Coordinator {
	c := &defaultCoordinator{
		refresher: refresher,
		clock:     clock.RealClock{},
		interval:  DefaultInterval,
		jitter:    DefaultJitter,
		maxTries:  DefaultMaxTries,
		backoff: func() backoff.BackOff {
			return backoff.NewExponentialBackOff()
		},
		status: Status{Phase: PhasePending},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// nextInterval returns the base interval with a random jitter applied
func (c *defaultCoordinator) nextInterval() time.Duration {
	if c.jitter == 0 {
		return c.interval
	}
	//nolint:gosec // G404: Non-cryptographic randomness is sufficient for scheduling jitter
	offset := time.Duration(rand.Int64N(int64(2*c.jitter))) - c.jitter
	return max(c.interval+offset, time.Second)
}

// Start implements Coordinator.Start
func (c *defaultCoordinator) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.done != nil {
		c.mu.Unlock()
		return fmt.Errorf("refresh coordinator is already running")
	}
	ctx, cancel := context.WithCancel(ctx)
	c.cancelFunc = cancel
	done := make(chan struct{})
	c.done = done
	c.mu.Unlock()

	log := logging.FromContext(ctx)
	log.Info("Starting background refresh", "interval", c.interval.String(), "jitter", c.jitter.String())
	defer func() {
		close(done)
		log.Info("Background refresh shutting down")
	}()

	c.runPass(ctx)

	timer := c.clock.NewTimer(c.nextInterval())
	defer timer.Stop()

	for {
		select {
		case <-timer.C():
			c.runPass(ctx)
			timer.Reset(c.nextInterval())
		case <-ctx.Done():
			return nil
		}
	}
}

// Stop implements Coordinator.Stop
func (c *defaultCoordinator) Stop() error {
	c.mu.Lock()
	cancel, done := c.cancelFunc, c.done
	c.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
	return nil
}

// Status implements Coordinator.Status
func (c *defaultCoordinator) Status() Status {
	c.statusMu.RLock()
	defer c.statusMu.RUnlock()
	return c.status
}

// runPass performs one pass, with retries, and records its status
func (c *defaultCoordinator) runPass(ctx context.Context) {
	log := logging.FromContext(ctx)
	start := c.clock.Now()

	c.updateStatus(func(s *Status) {
		s.Phase = PhaseRunning
		s.Message = "Refresh in progress"
		s.LastAttempt = &start
	})

	attempts := 0
	results, err := backoff.Retry(ctx, func() ([]aggregator.FetchedMarketplace, error) {
		attempts++
		return c.attempt(ctx)
	},
		backoff.WithBackOff(c.backoff()),
		backoff.WithMaxTries(c.maxTries),
	)

	now := c.clock.Now()
	if err != nil {
		rerr := &Error{Err: err, Message: fmt.Sprintf("refresh failed after %d attempts: %v", attempts, err)}
		log.Error(rerr, "Background refresh failed")
		c.updateStatus(func(s *Status) {
			s.Phase = PhaseFailed
			s.Message = rerr.Message
			s.AttemptCount = attempts
		})
		return
	}

	failed := countFailed(results)
	log.Info("Background refresh completed",
		"marketplaces", len(results),
		"failed", failed,
		"attempts", attempts,
		"duration", now.Sub(start).String())

	c.updateStatus(func(s *Status) {
		s.Phase = PhaseComplete
		s.Message = "Refresh completed successfully"
		s.LastRefreshTime = &now
		s.Marketplaces = len(results)
		s.Failed = failed
		s.AttemptCount = attempts
	})
}

// attempt runs a single pass. A pass in which every marketplace failed is
// treated as transient and retried; an unloaded registry is not.
func (c *defaultCoordinator) attempt(ctx context.Context) ([]aggregator.FetchedMarketplace, error) {
	results, err := c.refresher.Refresh(ctx)
	if err != nil {
		return nil, backoff.Permanent(err)
	}
	if len(results) > 0 && countFailed(results) == len(results) {
		return nil, errAllFailed
	}
	return results, nil
}

func (c *defaultCoordinator) updateStatus(fn func(*Status)) {
	c.statusMu.Lock()
	defer c.statusMu.Unlock()
	fn(&c.status)
}

func countFailed(results []aggregator.FetchedMarketplace) int {
	n := 0
	for _, r := range results {
		if !r.OK() {
			n++
		}
	}
	return n
}
