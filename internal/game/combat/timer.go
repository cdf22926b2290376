package combat

import (
	"sync"
	"time"
)

// RevivalTimer fires a callback after a configurable duration unless stopped.
// It is safe for concurrent use.
type RevivalTimer struct {
	mu      sync.Mutex
	timer   *time.Timer
	stopped bool
	// gen invalidates callbacks of timers replaced by Reset.
	gen int
}

// NewRevivalTimer creates and starts a timer that calls onFire after duration.
// onFire is called in a separate goroutine.
//
// Precondition: duration >= 0; onFire must not be nil.
// Postcondition: Returns a running RevivalTimer; onFire will be called unless Stop is called first.
func NewRevivalTimer(duration time.Duration, onFire func()) *RevivalTimer {
	rt := &RevivalTimer{}
	rt.mu.Lock()
	rt.timer = time.AfterFunc(duration, rt.guard(rt.gen, onFire))
	rt.mu.Unlock()
	return rt
}

func (rt *RevivalTimer) guard(gen int, onFire func()) func() {
	return func() {
		rt.mu.Lock()
		live := !rt.stopped && rt.gen == gen
		rt.mu.Unlock()
		if live {
			onFire()
		}
	}
}

// Reset cancels the current timer and starts a new one with the provided duration and callback.
//
// Precondition: duration >= 0; onFire must not be nil.
// Postcondition: onFire will be called after duration from now unless Stop is called first.
func (rt *RevivalTimer) Reset(duration time.Duration, onFire func()) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	rt.stopped = false
	rt.gen++
	rt.timer.Stop()
	rt.timer = time.AfterFunc(duration, rt.guard(rt.gen, onFire))
}

// Stop prevents the callback from firing. Safe to call multiple times.
//
// Postcondition: onFire will not be called after Stop returns.
func (rt *RevivalTimer) Stop() {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	rt.stopped = true
	rt.timer.Stop()
}
