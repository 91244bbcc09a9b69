// Package scheduler drives periodic re-evaluation of the policy verdict and
// publishes changes to subscribers (the UI guard screens).
package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"guardian/internal/policy"
)

// DefaultTickInterval is how often the verdict is recomputed
const DefaultTickInterval = 60 * time.Second

// VerdictSource computes the current verdict from live config and usage
type VerdictSource interface {
	Verdict(ctx context.Context) policy.Verdict
}

// PolicyClock periodically re-evaluates the policy and notifies subscribers
// when the verdict changes. Notification is edge-triggered: subscribers hear
// about transitions, not every tick.
type PolicyClock struct {
	source   VerdictSource
	interval time.Duration
	logger   *slog.Logger

	mu          sync.Mutex
	running     bool
	stopChan    chan struct{}
	subscribers []func(policy.Verdict)
	last        *policy.Verdict
}

// NewPolicyClock creates a clock over the given verdict source
func NewPolicyClock(source VerdictSource, interval time.Duration, logger *slog.Logger) *PolicyClock {
	if interval <= 0 {
		interval = DefaultTickInterval
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PolicyClock{
		source:   source,
		interval: interval,
		logger:   logger.With("component", "policy-clock"),
	}
}

// Subscribe registers a callback invoked on every verdict change. Callbacks
// run on the clock goroutine and should return quickly.
func (c *PolicyClock) Subscribe(fn func(policy.Verdict)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.subscribers = append(c.subscribers, fn)
}

// Start begins the evaluation loop. The verdict is computed once immediately
// so subscribers see an initial value, then on every tick. Starting an
// already-running clock is a no-op; the tick cadence is not reset.
func (c *PolicyClock) Start() {
	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		return
	}
	c.running = true
	c.stopChan = make(chan struct{})
	stop := c.stopChan
	c.mu.Unlock()

	c.logger.Info("Policy clock started", "interval", c.interval.String())
	go c.loop(stop)
}

// Stop halts the loop. Idempotent and safe to call multiple times; no new
// tick is scheduled after Stop returns, though a tick already executing may
// complete.
func (c *PolicyClock) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.running {
		return
	}
	c.running = false
	close(c.stopChan)
	c.logger.Info("Policy clock stopped")
}

// Current returns the most recently published verdict, or computes one if
// the clock has not run yet.
func (c *PolicyClock) Current() policy.Verdict {
	c.mu.Lock()
	last := c.last
	c.mu.Unlock()

	if last != nil {
		return *last
	}
	return c.source.Verdict(context.Background())
}

func (c *PolicyClock) loop(stop chan struct{}) {
	c.tick()

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			// Drop a tick that raced with Stop
			select {
			case <-stop:
				return
			default:
			}
			c.tick()
		}
	}
}

// tick recomputes the verdict and notifies subscribers on change. Change
// means a state transition: a different Kind or window end. The remaining
// minutes count down on nearly every tick under an enabled limit and would
// otherwise re-notify constantly; subscribers that need the live count read
// Current instead.
func (c *PolicyClock) tick() {
	verdict := c.source.Verdict(context.Background())

	c.mu.Lock()
	changed := c.last == nil || c.last.Kind != verdict.Kind || c.last.WindowEnd != verdict.WindowEnd
	c.last = &verdict
	subscribers := make([]func(policy.Verdict), len(c.subscribers))
	copy(subscribers, c.subscribers)
	c.mu.Unlock()

	if !changed {
		return
	}

	c.logger.Info("Verdict changed",
		"kind", verdict.Kind,
		"remaining_minutes", verdict.RemainingMinutes,
		"window_end", verdict.WindowEnd)

	for _, fn := range subscribers {
		fn(verdict)
	}
}
