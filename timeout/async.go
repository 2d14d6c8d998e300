// File: timeout/async.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Process-wide watchdog for blocking I/O. One background goroutine holds a
// deadline-ordered min-heap of outstanding operations; when the earliest
// deadline passes it fires the node's callback, which force-closes the
// watched resource so the blocked call unblocks with an error. Callers then
// translate that error into ErrTimeout via ExitError.

package timeout

import (
	"container/heap"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

type asyncState int32

const (
	stateIdle asyncState = iota
	stateWaiting
	stateFired
)

// AsyncTimeout extends Timeout with watchdog enforcement for blocking calls.
// The operation calls Enter before blocking and Exit after; if the deadline
// passes in between, the watchdog runs OnTimeout exactly once.
//
// OnTimeout runs on the watchdog goroutine, concurrently with the monitored
// goroutine still blocked inside the resource. It must not panic; closing an
// idempotent resource is the intended implementation.
type AsyncTimeout struct {
	Timeout

	// OnTimeout force-closes the underlying resource. Nil is a no-op fire.
	OnTimeout func()

	// Watchdog bookkeeping, all guarded by the watchdog mutex.
	timeoutAt time.Time
	index     int
	state     asyncState
}

// Enter registers the operation with the watchdog. A Timeout with no duration
// and no deadline registers nothing. Enter/Exit calls must be balanced.
func (a *AsyncTimeout) Enter() {
	expiry, ok := a.Expiry(time.Now())
	if !ok {
		return
	}
	dog.add(a, expiry)
}

// Exit deregisters the operation and reports whether OnTimeout already fired.
// The return value is how callers tell "the transport broke" apart from "the
// watchdog closed me".
func (a *AsyncTimeout) Exit() bool {
	return dog.remove(a)
}

// ExitError combines Exit with the error-substitution policy: when the
// watchdog fired, the close-induced failure of the blocking call is replaced
// by ErrTimeout; otherwise err passes through unchanged.
func (a *AsyncTimeout) ExitError(err error) error {
	if !a.Exit() {
		return err
	}
	if err != nil {
		return fmt.Errorf("%w (resource closed by watchdog: %v)", ErrTimeout, err)
	}
	return ErrTimeout
}

// WatchdogStats snapshots the watchdog counters.
type WatchdogStats struct {
	Entered int64
	Exited  int64
	Fired   int64
	Active  int
}

// deadlineHeap orders pending nodes by timeoutAt, earliest at the root.
type deadlineHeap []*AsyncTimeout

func (h deadlineHeap) Len() int           { return len(h) }
func (h deadlineHeap) Less(i, j int) bool { return h[i].timeoutAt.Before(h[j].timeoutAt) }
func (h deadlineHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i]; h[i].index = i; h[j].index = j }
func (h *deadlineHeap) Push(x any)        { n := x.(*AsyncTimeout); n.index = len(*h); *h = append(*h, n) }
func (h *deadlineHeap) Pop() any {
	old := *h
	n := len(old)
	node := old[n-1]
	old[n-1] = nil
	node.index = -1
	*h = old[:n-1]
	return node
}

type watchdog struct {
	mu      sync.Mutex
	pending deadlineHeap
	notify  chan struct{}
	started bool
	log     *zap.Logger
	stats   WatchdogStats
}

var dog = &watchdog{
	notify: make(chan struct{}, 1),
	log:    zap.NewNop(),
}

// SetLogger installs a logger for watchdog diagnostics. Fire events are
// logged at Debug level. The default discards everything.
func SetLogger(l *zap.Logger) {
	dog.mu.Lock()
	dog.log = l
	dog.mu.Unlock()
}

// ReadWatchdogStats returns a snapshot of the watchdog counters.
func ReadWatchdogStats() WatchdogStats {
	dog.mu.Lock()
	defer dog.mu.Unlock()
	s := dog.stats
	s.Active = len(dog.pending)
	return s
}

func (w *watchdog) add(a *AsyncTimeout, expiry time.Time) {
	w.mu.Lock()
	if a.state == stateWaiting {
		w.mu.Unlock()
		panic("timeout: unbalanced Enter")
	}
	a.state = stateWaiting
	a.timeoutAt = expiry
	heap.Push(&w.pending, a)
	w.stats.Entered++
	if !w.started {
		w.started = true
		go w.run()
	}
	front := a.index == 0
	w.mu.Unlock()
	if front {
		w.wake()
	}
}

func (w *watchdog) remove(a *AsyncTimeout) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	fired := a.state == stateFired
	// Only waiting nodes occupy a heap slot. A node that never registered
	// (no duration, no deadline) has the zero-value index 0 and must not
	// evict whichever node happens to sit there.
	if a.state == stateWaiting && a.index >= 0 {
		heap.Remove(&w.pending, a.index)
		a.index = -1
	}
	if a.state != stateIdle {
		a.state = stateIdle
		w.stats.Exited++
	}
	return fired
}

func (w *watchdog) wake() {
	select {
	case w.notify <- struct{}{}:
	default:
	}
}

// run is the single watchdog loop for the whole process. It sleeps until the
// earliest deadline, fires every expired node, and parks on the notify
// channel when no node is pending. It never exits.
func (w *watchdog) run() {
	for {
		w.mu.Lock()
		if len(w.pending) == 0 {
			w.mu.Unlock()
			<-w.notify
			continue
		}
		head := w.pending[0]
		wait := time.Until(head.timeoutAt)
		if wait > 0 {
			w.mu.Unlock()
			timer := time.NewTimer(wait)
			select {
			case <-timer.C:
			case <-w.notify:
				timer.Stop()
			}
			continue
		}
		heap.Pop(&w.pending)
		head.state = stateFired
		w.stats.Fired++
		cb := head.OnTimeout
		log := w.log
		overdue := -wait
		w.mu.Unlock()

		log.Debug("watchdog fired", zap.Duration("overdue", overdue))
		if cb != nil {
			cb()
		}
	}
}
