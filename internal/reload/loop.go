package reload

import (
	"sync"
	"time"
)

// Loop schedules detector ticks. A tick only reschedules itself after it
// finishes, so implementations never have to run two callbacks at once.
type Loop interface {
	// CallLater runs fn after d has elapsed. Calls made after the loop
	// shuts down are dropped.
	CallLater(d time.Duration, fn func())

	// Closed reports whether the loop has shut down.
	Closed() bool
}

// TimerLoop is the default Loop, backed by one-shot timers.
type TimerLoop struct {
	mu     sync.Mutex
	timer  *time.Timer
	closed bool
}

// NewLoop returns a ready TimerLoop.
func NewLoop() *TimerLoop {
	return &TimerLoop{}
}

// CallLater schedules fn unless the loop is closed.
func (l *TimerLoop) CallLater(d time.Duration, fn func()) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return
	}
	l.timer = time.AfterFunc(d, fn)
}

// Closed reports whether Close has been called.
func (l *TimerLoop) Closed() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.closed
}

// Close shuts the loop down and cancels any pending callback. It is safe
// to call more than once.
func (l *TimerLoop) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return
	}
	l.closed = true
	if l.timer != nil {
		l.timer.Stop()
	}
}
