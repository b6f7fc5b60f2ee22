// Package ratelimit protects slow downstream consumers from feed bursts. It
// combines a sliding-window per-second ceiling (messages over the ceiling are
// dropped and counted, never queued) with a time/size-bounded batcher so that
// accepted traffic reaches consumers as coalesced batches instead of
// per-message wake-ups.
//
// Dropping is intentional data loss under overload: it is logged with
// throttling, counted, and not treated as an error.
package ratelimit

import (
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/tombanbury-cyber/network-rail-integration/feed"
)

// Defaults mirror the pipeline's production settings.
const (
	DefaultMaxMessagesPerSecond = 20
	DefaultMaxBatchSize         = 50
	DefaultUpdateInterval       = 3 * time.Second

	// Log one warning per this many drops to avoid the limiter itself
	// flooding the log under sustained overload.
	dropLogInterval = 100
)

// Config bounds the limiter and batcher.
type Config struct {
	MaxMessagesPerSecond int
	MaxBatchSize         int
	UpdateInterval       time.Duration
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{
		MaxMessagesPerSecond: DefaultMaxMessagesPerSecond,
		MaxBatchSize:         DefaultMaxBatchSize,
		UpdateInterval:       DefaultUpdateInterval,
	}
}

// DispatchFunc receives a completed batch. The slice is owned by the callee.
type DispatchFunc func(batch []feed.TDEvent)

// Option configures a Limiter.
type Option func(*Limiter)

// WithClock injects a time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) {
		l.now = now
	}
}

// Limiter applies the rate ceiling and batches accepted events.
type Limiter struct {
	mu           sync.Mutex
	cfg          Config
	window       []time.Time // accept timestamps within the last second
	batch        []feed.TDEvent
	lastDispatch time.Time
	dropped      uint64
	accepted     uint64
	dispatch     DispatchFunc
	logger       *slog.Logger
	now          func() time.Time
}

// New creates a Limiter that hands completed batches to dispatch. A nil
// logger discards log output.
func New(cfg Config, dispatch DispatchFunc, logger *slog.Logger, opts ...Option) *Limiter {
	if cfg.MaxMessagesPerSecond <= 0 {
		cfg.MaxMessagesPerSecond = DefaultMaxMessagesPerSecond
	}
	if cfg.MaxBatchSize <= 0 {
		cfg.MaxBatchSize = DefaultMaxBatchSize
	}
	if cfg.UpdateInterval <= 0 {
		cfg.UpdateInterval = DefaultUpdateInterval
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	l := &Limiter{
		cfg:      cfg,
		dispatch: dispatch,
		logger:   logger.With("component", "ratelimit"),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	// The interval timer starts at construction, not at the epoch, so the
	// first message does not force an immediate dispatch.
	l.lastDispatch = l.now()
	return l
}

// Offer runs the per-message decision procedure. Returns true if the event
// was accepted into the pending batch, false if it was dropped at the rate
// ceiling. A dispatch triggered by this event happens before Offer returns,
// on the caller's goroutine.
func (l *Limiter) Offer(event feed.TDEvent) bool {
	l.mu.Lock()

	now := l.now()

	// 1. Evict window entries older than one second.
	cutoff := now.Add(-time.Second)
	keep := l.window[:0]
	for _, t := range l.window {
		if t.After(cutoff) {
			keep = append(keep, t)
		}
	}
	l.window = keep

	// 2. Over the ceiling: count the drop and discard.
	if len(l.window) >= l.cfg.MaxMessagesPerSecond {
		l.dropped++
		if l.dropped%dropLogInterval == 1 {
			l.logger.Warn("rate limit exceeded, dropping messages",
				"limit_per_second", l.cfg.MaxMessagesPerSecond,
				"dropped_total", l.dropped)
		}
		l.mu.Unlock()
		return false
	}

	// 3. Accept into the window and batch.
	l.window = append(l.window, now)
	l.accepted++
	l.batch = append(l.batch, event)

	// 4. Dispatch on size or elapsed interval.
	var toSend []feed.TDEvent
	if len(l.batch) >= l.cfg.MaxBatchSize || now.Sub(l.lastDispatch) >= l.cfg.UpdateInterval {
		toSend = l.batch
		l.batch = nil
		l.lastDispatch = now
	}
	l.mu.Unlock()

	if len(toSend) > 0 && l.dispatch != nil {
		l.dispatch(toSend)
	}
	return true
}

// Flush dispatches any pending batch immediately. Used on shutdown so
// accepted events are not lost.
func (l *Limiter) Flush() {
	l.mu.Lock()
	toSend := l.batch
	l.batch = nil
	l.lastDispatch = l.now()
	l.mu.Unlock()

	if len(toSend) > 0 && l.dispatch != nil {
		l.dispatch(toSend)
	}
}

// Dropped returns the total number of messages discarded at the ceiling.
func (l *Limiter) Dropped() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.dropped
}

// Accepted returns the total number of messages accepted into batches.
func (l *Limiter) Accepted() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.accepted
}

// Pending returns the size of the batch accumulating toward the next
// dispatch.
func (l *Limiter) Pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.batch)
}
