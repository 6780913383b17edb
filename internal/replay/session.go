package replay

import (
	"log/slog"
	"sync"
	"time"

	"github.com/coder/quartz"

	"github.com/AkatukiSora/hhreplay/internal/parser"
)

// DefaultAutoplayInterval is the delay between autoplay steps.
const DefaultAutoplayInterval = 800 * time.Millisecond

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithClock sets the clock driving autoplay.
func WithClock(c quartz.Clock) SessionOption {
	return func(s *Session) { s.clock = c }
}

// WithInterval sets the autoplay step interval.
func WithInterval(d time.Duration) SessionOption {
	return func(s *Session) {
		if d > 0 {
			s.interval = d
		}
	}
}

// WithLogger sets the session logger.
func WithLogger(l *slog.Logger) SessionOption {
	return func(s *Session) { s.logger = l }
}

// WithOnStep registers a callback invoked after every state change. It runs
// outside the session lock.
func WithOnStep(fn func(State)) SessionOption {
	return func(s *Session) { s.onStep = fn }
}

// Session owns the replay state of one hand. Manual steps and autoplay ticks
// go through the same lock so they never interleave.
type Session struct {
	mu       sync.Mutex
	table    *Table
	state    State
	clock    quartz.Clock
	interval time.Duration
	timer    *quartz.Timer
	playing  bool
	gen      uint64
	logger   *slog.Logger
	onStep   func(State)
}

// NewSession starts a session at the fully rewound state of h.
func NewSession(h *parser.Hand, opts ...SessionOption) *Session {
	s := &Session{
		table:    BuildTable(h),
		state:    NewState(h),
		clock:    quartz.NewReal(),
		interval: DefaultAutoplayInterval,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// State returns the current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Snapshot returns the memoized snapshot at the current cursor.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.table.Lookup(s.state.Cursor)
}

// Next steps forward once.
func (s *Session) Next() State {
	s.mu.Lock()
	st := s.forwardLocked()
	s.mu.Unlock()
	s.notify(st)
	return st
}

// Prev steps backward once.
func (s *Session) Prev() State {
	s.mu.Lock()
	s.state = StepBackward(s.state)
	st := s.state
	s.mu.Unlock()
	s.notify(st)
	return st
}

// Reset stops autoplay and rewinds to the start of the hand.
func (s *Session) Reset() State {
	s.mu.Lock()
	s.stopLocked()
	s.state = NewState(s.table.Hand())
	st := s.state
	s.mu.Unlock()
	s.notify(st)
	return st
}

// Playing reports whether autoplay is running.
func (s *Session) Playing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.playing
}

// Play starts autoplay. Each tick steps forward; autoplay stops on its own
// when the award is shown or the hand cannot advance.
func (s *Session) Play() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.playing || s.table.Hand() == nil {
		return
	}
	s.playing = true
	s.gen++
	s.scheduleLocked(s.gen)
	s.logger.Debug("autoplay started", "interval", s.interval, "cursor", s.state.Cursor)
}

// Stop halts autoplay. It is safe to call when not playing.
func (s *Session) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()
}

// Toggle flips autoplay and reports whether it is now running.
func (s *Session) Toggle() bool {
	if s.Playing() {
		s.Stop()
		return false
	}
	s.Play()
	return s.Playing()
}

func (s *Session) stopLocked() {
	if !s.playing {
		return
	}
	s.playing = false
	s.gen++
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.logger.Debug("autoplay stopped", "cursor", s.state.Cursor, "award", s.state.Award)
}

func (s *Session) scheduleLocked(gen uint64) {
	s.timer = s.clock.AfterFunc(s.interval, func() { s.tick(gen) }, "replay", "autoplay")
}

func (s *Session) tick(gen uint64) {
	s.mu.Lock()
	if !s.playing || gen != s.gen {
		s.mu.Unlock()
		return
	}
	before := s.state
	st := s.forwardLocked()
	if st.Award == AwardShown || st.equal(before) {
		s.stopLocked()
	} else {
		s.scheduleLocked(gen)
	}
	s.mu.Unlock()
	s.notify(st)
}

func (s *Session) forwardLocked() State {
	s.state = stepForward(s.state, s.table.Lookup)
	return s.state
}

func (s *Session) notify(st State) {
	if s.onStep != nil {
		s.onStep(st)
	}
}
