package ratelimit

import (
	"sync"
	"time"
)

// Limits bounds one client's request volume across three horizons.
type Limits struct {
	PerMinute int
	PerHour   int
	PerDay    int
}

// WindowCounts reports the post-decision counters for one client.
type WindowCounts struct {
	Minute int `json:"requests_per_minute"`
	Hour   int `json:"requests_per_hour"`
	Day    int `json:"requests_per_day"`
}

// ResetTimes reports when each window rolls over for one client.
type ResetTimes struct {
	Minute time.Time `json:"minute_reset"`
	Hour   time.Time `json:"hour_reset"`
	Day    time.Time `json:"day_reset"`
}

type window struct {
	start time.Time
	count int
}

type clientState struct {
	minute window
	hour   window
	day    window
}

// Limiter is the shared admission gate. The check-then-increment critical
// section is serialized under one mutex so concurrent turns for the same
// client never both consume the last slot.
type Limiter struct {
	mu       sync.Mutex
	defaults Limits
	clients  map[string]*clientState
	now      func() time.Time
}

func NewLimiter(defaults Limits) *Limiter {
	return &Limiter{
		defaults: defaults,
		clients:  make(map[string]*clientState),
		now:      time.Now,
	}
}

// Allow checks admission against the limiter's default limits.
func (l *Limiter) Allow(clientID string) (bool, WindowCounts) {
	return l.AllowWithLimits(clientID, l.defaults)
}

// AllowWithLimits checks admission with per-call limit overrides. A denied
// request increments nothing; an admitted request counts against all three
// windows as a unit. Reported counts always reflect post-decision state.
func (l *Limiter) AllowWithLimits(clientID string, limits Limits) (bool, WindowCounts) {
	l.mu.Lock()
	defer l.mu.Unlock()

	state := l.stateLocked(clientID)
	l.rollLocked(state)

	if (limits.PerMinute > 0 && state.minute.count >= limits.PerMinute) ||
		(limits.PerHour > 0 && state.hour.count >= limits.PerHour) ||
		(limits.PerDay > 0 && state.day.count >= limits.PerDay) {
		return false, countsLocked(state)
	}

	state.minute.count++
	state.hour.count++
	state.day.count++
	return true, countsLocked(state)
}

// GetResetTimes reports each window's reset timestamp, lazily initializing
// state for clients that were never checked.
func (l *Limiter) GetResetTimes(clientID string) ResetTimes {
	l.mu.Lock()
	defer l.mu.Unlock()

	state := l.stateLocked(clientID)
	l.rollLocked(state)
	return ResetTimes{
		Minute: state.minute.start.Add(time.Minute),
		Hour:   state.hour.start.Add(time.Hour),
		Day:    state.day.start.Add(24 * time.Hour),
	}
}

func (l *Limiter) stateLocked(clientID string) *clientState {
	state, ok := l.clients[clientID]
	if !ok {
		now := l.now()
		state = &clientState{
			minute: window{start: now},
			hour:   window{start: now},
			day:    window{start: now},
		}
		l.clients[clientID] = state
	}
	return state
}

func (l *Limiter) rollLocked(state *clientState) {
	now := l.now()
	rollWindow(&state.minute, now, time.Minute)
	rollWindow(&state.hour, now, time.Hour)
	rollWindow(&state.day, now, 24*time.Hour)
}

func rollWindow(w *window, now time.Time, span time.Duration) {
	if now.Sub(w.start) >= span {
		w.start = now
		w.count = 0
	}
}

func countsLocked(state *clientState) WindowCounts {
	return WindowCounts{
		Minute: state.minute.count,
		Hour:   state.hour.count,
		Day:    state.day.count,
	}
}
