// Package feedback delivers gesture feedback events to renderers without
// feeding anything back into gesture decisions.
package feedback

import (
	"context"
	"sync"
	"time"

	"pkt.systems/pslog"

	"github.com/1broseidon/swish/internal/gesture"
)

// DefaultInterval bounds feedback delivery to 60 updates per second.
const DefaultInterval = time.Second / 60

// Throttle rate-limits events to next. Within an interval only the most
// recent event survives. Ended and Cancelled events skip the wait and
// discard anything pending. Delivery runs on the throttle's own goroutine,
// so Publish never calls next.
type Throttle struct {
	next     gesture.Sink
	interval time.Duration
	now      func() time.Time

	mu      sync.Mutex
	queue   []gesture.FeedbackEvent
	pending *gesture.FeedbackEvent
	closed  bool

	wake chan struct{}
	quit chan struct{}
	done chan struct{}
}

// NewThrottle wraps next. A non-positive interval uses DefaultInterval.
func NewThrottle(next gesture.Sink, interval time.Duration) *Throttle {
	if interval <= 0 {
		interval = DefaultInterval
	}
	t := &Throttle{
		next:     next,
		interval: interval,
		now:      time.Now,
		wake:     make(chan struct{}, 1),
		quit:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	go t.loop()
	return t
}

// Publish implements gesture.Sink.
func (t *Throttle) Publish(ev gesture.FeedbackEvent) {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return
	}
	if ev.Phase == gesture.PhaseEnded || ev.Phase == gesture.PhaseCancelled {
		t.pending = nil
		t.queue = append(t.queue, ev)
	} else {
		t.pending = &ev
	}
	t.mu.Unlock()

	select {
	case t.wake <- struct{}{}:
	default:
	}
}

func (t *Throttle) loop() {
	defer close(t.done)
	var last time.Time
	for {
		select {
		case <-t.quit:
			return
		case <-t.wake:
		}
		for {
			ev, wait, ok := t.take(last)
			if !ok {
				break
			}
			if wait > 0 {
				timer := time.NewTimer(wait)
				select {
				case <-t.quit:
					timer.Stop()
					return
				case <-t.wake:
					timer.Stop()
				case <-timer.C:
				}
				continue
			}
			last = t.now()
			t.next.Publish(ev)
		}
	}
}

// take returns the next event to deliver. Queued final events go first. A
// pending event still inside the interval is left in place and wait reports
// how long until it is due.
func (t *Throttle) take(last time.Time) (ev gesture.FeedbackEvent, wait time.Duration, ok bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return ev, 0, false
	}
	if len(t.queue) > 0 {
		ev = t.queue[0]
		t.queue = t.queue[1:]
		return ev, 0, true
	}
	if t.pending == nil {
		return ev, 0, false
	}
	if w := t.interval - t.now().Sub(last); w > 0 {
		return ev, w, true
	}
	ev = *t.pending
	t.pending = nil
	return ev, 0, true
}

// Close drops pending events, ignores later ones and waits for an
// in-flight delivery to finish.
func (t *Throttle) Close() {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		<-t.done
		return
	}
	t.closed = true
	t.pending = nil
	t.queue = nil
	t.mu.Unlock()
	close(t.quit)
	<-t.done
}

// Fanout publishes every event to each sink in order.
type Fanout []gesture.Sink

// Publish implements gesture.Sink.
func (f Fanout) Publish(ev gesture.FeedbackEvent) {
	for _, s := range f {
		if s != nil {
			s.Publish(ev)
		}
	}
}

// Latest remembers the most recent event.
type Latest struct {
	mu sync.RWMutex
	ev *gesture.FeedbackEvent
}

// Publish implements gesture.Sink.
func (l *Latest) Publish(ev gesture.FeedbackEvent) {
	l.mu.Lock()
	l.ev = &ev
	l.mu.Unlock()
}

// Get returns the last event, if any.
func (l *Latest) Get() (gesture.FeedbackEvent, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.ev == nil {
		return gesture.FeedbackEvent{}, false
	}
	return *l.ev, true
}

// LogSink writes events to a logger at debug level.
type LogSink struct {
	log pslog.Logger
}

// NewLogSink creates a LogSink.
func NewLogSink(logger pslog.Logger) *LogSink {
	if logger == nil {
		logger = pslog.Ctx(context.Background())
	}
	return &LogSink{log: logger}
}

// Publish implements gesture.Sink.
func (s *LogSink) Publish(ev gesture.FeedbackEvent) {
	s.log.Debug("gesture feedback",
		"session", ev.SessionID,
		"phase", ev.Phase.String(),
		"candidate", ev.Candidate.String(),
		"progress", ev.Progress,
		"scale", ev.Scale,
		"y_delta", ev.YDelta,
		"duration", ev.Duration,
		"valid", ev.InValidRegion,
	)
}
