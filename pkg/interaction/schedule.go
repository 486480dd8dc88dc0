package interaction

import (
	"sync"
	"time"
)

// FrameQueue collects scheduled callbacks until the host flushes them,
// standing in for an animation frame tick. Schedule is safe to call from
// any goroutine; Flush runs on the host's event goroutine.
type FrameQueue struct {
	mu      sync.Mutex
	pending []func()
}

// Schedule queues fn for the next Flush.
func (q *FrameQueue) Schedule(fn func()) {
	q.mu.Lock()
	q.pending = append(q.pending, fn)
	q.mu.Unlock()
}

// Flush runs the callbacks queued before the call and returns how many ran.
// Callbacks scheduled while flushing wait for the next Flush.
func (q *FrameQueue) Flush() int {
	q.mu.Lock()
	batch := q.pending
	q.pending = nil
	q.mu.Unlock()

	for _, fn := range batch {
		fn()
	}
	return len(batch)
}

// Len reports the number of queued callbacks.
func (q *FrameQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// Debouncer runs the last triggered function after a quiet period. The
// function is handed to schedule so it executes on the host's event
// goroutine rather than the timer's.
type Debouncer struct {
	mu       sync.Mutex
	delay    time.Duration
	schedule func(func())
	timer    *time.Timer
	gen      uint64
	stopped  bool
}

// NewDebouncer returns a debouncer. A nil schedule runs fn on the timer
// goroutine.
func NewDebouncer(delay time.Duration, schedule func(func())) *Debouncer {
	return &Debouncer{delay: delay, schedule: schedule}
}

// Trigger restarts the quiet period with fn as the pending call.
func (d *Debouncer) Trigger(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}
	d.gen++
	gen := d.gen
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, func() {
		if !d.current(gen) {
			return
		}
		run := func() {
			if d.current(gen) {
				fn()
			}
		}
		if d.schedule != nil {
			d.schedule(run)
		} else {
			run()
		}
	})
}

func (d *Debouncer) current(gen uint64) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return !d.stopped && gen == d.gen
}

// Stop cancels the pending call and ignores later triggers.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopped = true
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
