package policy

import (
	"context"
	"log/slog"
	"math"
	"sync"
	"time"

	"guardian/internal/idgen"
)

// Tracker hands out viewing-session handles to content surfaces and records
// their elapsed time into the usage ledger when they stop. Multiple handles
// may run at once (two players on screen, say); each contributes
// independently.
type Tracker struct {
	ledger *UsageLedger
	clock  Clock
	logger *slog.Logger
	mu     sync.Mutex
	active map[string]*TrackingSession
}

// TrackingSession is an ephemeral handle owned by a content-viewing surface.
// It holds only a start timestamp; minutes are computed and accumulated at
// Stop time.
type TrackingSession struct {
	id        string
	startedAt time.Time
	tracker   *Tracker
	mu        sync.Mutex
	stopped   bool
}

// TrackingInfo describes an active session for inspection
type TrackingInfo struct {
	ID        string    `json:"id"`
	StartedAt time.Time `json:"started_at"`
}

// NewTracker creates a tracker feeding the given ledger
func NewTracker(ledger *UsageLedger, clock Clock, logger *slog.Logger) *Tracker {
	if clock == nil {
		clock = RealClock{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Tracker{
		ledger: ledger,
		clock:  clock,
		logger: logger.With("component", "tracker"),
		active: make(map[string]*TrackingSession),
	}
}

// Start begins a new viewing session and returns its handle
func (t *Tracker) Start() *TrackingSession {
	session := &TrackingSession{
		id:        idgen.NewTracking(),
		startedAt: t.clock.Now(),
		tracker:   t,
	}

	t.mu.Lock()
	t.active[session.id] = session
	t.mu.Unlock()

	t.logger.Debug("Tracking session started",
		"tracking_id", session.id)

	return session
}

// Get returns the active session with the given ID
func (t *Tracker) Get(id string) (*TrackingSession, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	session, ok := t.active[id]
	if !ok {
		return nil, ErrTrackingNotFound
	}
	return session, nil
}

// Active lists the currently running sessions
func (t *Tracker) Active() []TrackingInfo {
	t.mu.Lock()
	defer t.mu.Unlock()

	infos := make([]TrackingInfo, 0, len(t.active))
	for _, session := range t.active {
		infos = append(infos, TrackingInfo{ID: session.id, StartedAt: session.startedAt})
	}
	return infos
}

// ID returns the session's identifier
func (s *TrackingSession) ID() string {
	return s.id
}

// StartedAt returns when the session began
func (s *TrackingSession) StartedAt() time.Time {
	return s.startedAt
}

// Stop ends the session and accumulates its elapsed time, rounded to whole
// minutes, into the ledger under the day key in effect now. A session that
// spans midnight is credited entirely to the stop-time day; sessions are not
// split across the boundary. Stop is idempotent; repeated calls record
// nothing further.
//
// On a failed ledger write the session stays active and unstopped, so a
// retried Stop recomputes the elapsed time and records it then.
func (s *TrackingSession) Stop(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return 0, nil
	}

	t := s.tracker
	elapsed := t.clock.Now().Sub(s.startedAt)
	minutes := int(math.Round(elapsed.Minutes()))
	if minutes < 0 {
		// Clock moved backwards mid-session; record nothing
		minutes = 0
	}

	day := t.ledger.TodayKey()
	if minutes > 0 {
		if err := t.ledger.Accumulate(ctx, day, minutes); err != nil {
			return 0, err
		}
	}

	s.stopped = true
	t.mu.Lock()
	delete(t.active, s.id)
	t.mu.Unlock()

	t.logger.Info("Tracking session stopped",
		"tracking_id", s.id,
		"day", day,
		"minutes", minutes)

	return minutes, nil
}
