package util

import (
	"sync"
	"time"
)

// Debouncer delays propagation of a rapidly-changing value until it has been
// stable for the configured delay. Every Observe restarts the window; a value
// superseded before the window elapses is discarded and never emitted.
type Debouncer[T any] struct {
	mu      sync.Mutex
	delay   time.Duration
	timer   *time.Timer
	out     chan T
	stopped bool
}

func NewDebouncer[T any](delay time.Duration) *Debouncer[T] {
	return &Debouncer[T]{
		delay: delay,
		out:   make(chan T, 1),
	}
}

// Observe submits a new value, restarting the delay window.
func (d *Debouncer[T]) Observe(value T) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, func() {
		d.emit(value)
	})
}

func (d *Debouncer[T]) emit(value T) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}

	// Drop a stale pending emission if the consumer hasn't drained it yet;
	// only the latest stabilized value matters. After the drain the buffered
	// send cannot block, so holding the lock through it is safe and makes
	// Stop's guarantee hold: once Stop has the lock, no send can follow.
	select {
	case <-d.out:
	default:
	}
	d.out <- value
}

// C delivers each value that survived a full delay window unchanged.
func (d *Debouncer[T]) C() <-chan T {
	return d.out
}

// Stop cancels any pending emission. A value still inside its delay window is
// never delivered after Stop returns.
func (d *Debouncer[T]) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stopped = true
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
