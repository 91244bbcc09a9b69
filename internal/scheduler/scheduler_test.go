package scheduler

import (
	"context"
	"sync"
	"testing"
	"time"

	"guardian/internal/policy"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubSource returns a settable verdict
type stubSource struct {
	mu      sync.Mutex
	verdict policy.Verdict
	calls   int
}

func (s *stubSource) Verdict(ctx context.Context) policy.Verdict {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return s.verdict
}

func (s *stubSource) set(v policy.Verdict) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.verdict = v
}

func (s *stubSource) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

// recorder collects published verdicts
type recorder struct {
	mu       sync.Mutex
	verdicts []policy.Verdict
}

func (r *recorder) record(v policy.Verdict) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.verdicts = append(r.verdicts, v)
}

func (r *recorder) all() []policy.Verdict {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]policy.Verdict, len(r.verdicts))
	copy(out, r.verdicts)
	return out
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before timeout")
}

func TestPolicyClock_PublishesInitialVerdict(t *testing.T) {
	source := &stubSource{verdict: policy.Verdict{Kind: policy.VerdictAllowed}}
	rec := &recorder{}

	clock := NewPolicyClock(source, time.Hour, nil)
	clock.Subscribe(rec.record)

	clock.Start()
	defer clock.Stop()

	waitFor(t, time.Second, func() bool { return len(rec.all()) == 1 })
	assert.Equal(t, policy.VerdictAllowed, rec.all()[0].Kind)
}

func TestPolicyClock_EdgeTriggered(t *testing.T) {
	source := &stubSource{verdict: policy.Verdict{Kind: policy.VerdictAllowed}}
	rec := &recorder{}

	clock := NewPolicyClock(source, 10*time.Millisecond, nil)
	clock.Subscribe(rec.record)

	clock.Start()
	defer clock.Stop()

	// Let several ticks pass with an unchanged verdict
	waitFor(t, time.Second, func() bool { return source.callCount() >= 4 })
	require.Len(t, rec.all(), 1)

	// Flip the verdict; exactly one more notification follows
	source.set(policy.Verdict{Kind: policy.VerdictBedtimeRestricted, WindowEnd: "07:00"})
	waitFor(t, time.Second, func() bool { return len(rec.all()) == 2 })

	verdicts := rec.all()
	assert.Equal(t, policy.VerdictBedtimeRestricted, verdicts[1].Kind)
	assert.Equal(t, "07:00", verdicts[1].WindowEnd)

	// Still only two after more unchanged ticks
	before := source.callCount()
	waitFor(t, time.Second, func() bool { return source.callCount() >= before+3 })
	assert.Len(t, rec.all(), 2)
}

func TestPolicyClock_RemainingMinutesCountdownDoesNotNotify(t *testing.T) {
	source := &stubSource{verdict: policy.Verdict{Kind: policy.VerdictAllowed, RemainingMinutes: 60}}
	rec := &recorder{}

	clock := NewPolicyClock(source, 10*time.Millisecond, nil)
	clock.Subscribe(rec.record)

	clock.Start()
	defer clock.Stop()

	waitFor(t, time.Second, func() bool { return len(rec.all()) == 1 })

	// The count ticking down is not a state transition
	source.set(policy.Verdict{Kind: policy.VerdictAllowed, RemainingMinutes: 59})
	waitFor(t, time.Second, func() bool {
		c := clock.Current()
		return c.RemainingMinutes == 59
	})
	assert.Len(t, rec.all(), 1)

	// Crossing into a restriction still notifies
	source.set(policy.Verdict{Kind: policy.VerdictTimeLimitExceeded})
	waitFor(t, time.Second, func() bool { return len(rec.all()) == 2 })
	assert.Equal(t, policy.VerdictTimeLimitExceeded, rec.all()[1].Kind)
}

func TestPolicyClock_Current(t *testing.T) {
	source := &stubSource{verdict: policy.Verdict{Kind: policy.VerdictTimeLimitExceeded}}
	clock := NewPolicyClock(source, time.Hour, nil)

	// Before Start, Current computes on demand
	assert.Equal(t, policy.VerdictTimeLimitExceeded, clock.Current().Kind)

	clock.Start()
	defer clock.Stop()

	waitFor(t, time.Second, func() bool { return source.callCount() >= 2 })
	assert.Equal(t, policy.VerdictTimeLimitExceeded, clock.Current().Kind)
}

func TestPolicyClock_StopIsIdempotent(t *testing.T) {
	source := &stubSource{verdict: policy.Verdict{Kind: policy.VerdictAllowed}}
	clock := NewPolicyClock(source, 10*time.Millisecond, nil)

	clock.Start()
	waitFor(t, time.Second, func() bool { return source.callCount() >= 1 })

	clock.Stop()
	clock.Stop()
	clock.Stop()

	// No new ticks after Stop
	calls := source.callCount()
	time.Sleep(50 * time.Millisecond)
	assert.LessOrEqual(t, source.callCount(), calls+1)
}

func TestPolicyClock_StartWhileRunningIsNoOp(t *testing.T) {
	source := &stubSource{verdict: policy.Verdict{Kind: policy.VerdictAllowed}}
	rec := &recorder{}

	clock := NewPolicyClock(source, time.Hour, nil)
	clock.Subscribe(rec.record)

	clock.Start()
	defer clock.Stop()
	waitFor(t, time.Second, func() bool { return len(rec.all()) == 1 })

	// A second Start must not run another immediate evaluation
	clock.Start()
	time.Sleep(50 * time.Millisecond)
	assert.Len(t, rec.all(), 1)
}

func TestPolicyClock_Restart(t *testing.T) {
	source := &stubSource{verdict: policy.Verdict{Kind: policy.VerdictAllowed}}
	clock := NewPolicyClock(source, 10*time.Millisecond, nil)

	clock.Start()
	waitFor(t, time.Second, func() bool { return source.callCount() >= 1 })
	clock.Stop()

	calls := source.callCount()
	clock.Start()
	defer clock.Stop()
	waitFor(t, time.Second, func() bool { return source.callCount() > calls })
}

func TestPolicyClock_DefaultInterval(t *testing.T) {
	source := &stubSource{}
	clock := NewPolicyClock(source, 0, nil)
	assert.Equal(t, DefaultTickInterval, clock.interval)

	clock = NewPolicyClock(source, -time.Second, nil)
	assert.Equal(t, DefaultTickInterval, clock.interval)
}
