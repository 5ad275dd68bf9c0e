// Package gesture turns raw two-finger trackpad frames into title-bar
// gestures. It owns the session state machine, classifies live input into
// candidate actions for feedback, and dispatches the committed action when
// the fingers lift.
//
// The engine is driven by a single consumer: HandleFrame and Cancel are
// serialized internally, and every decision reads live window state through
// the resolver.
package gesture

import (
	"context"
	"errors"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
	"pkt.systems/pslog"

	"github.com/1broseidon/swish/internal/platform"
	"github.com/1broseidon/swish/internal/resolver"
	"github.com/1broseidon/swish/internal/touch"
)

// Resolver answers targeting questions for a bottom-left-origin point.
type Resolver interface {
	Probe(p platform.Point) resolver.Probe
}

// Executor performs window actions on a resolved target.
type Executor interface {
	Minimize(w *resolver.WindowDescriptor) error
	Unminimize(h platform.WindowHandle) error
	Close(w *resolver.WindowDescriptor) error
	ToggleFullScreen(w *resolver.WindowDescriptor) error
	Restore(w *resolver.WindowDescriptor) error
}

// Sink receives feedback events. Publish must not block.
type Sink interface {
	Publish(FeedbackEvent)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(FeedbackEvent)

// Publish calls f(ev).
func (f SinkFunc) Publish(ev FeedbackEvent) { f(ev) }

// Pointer reports the cursor in bottom-left-origin screen space.
type Pointer interface {
	CursorLocation() (platform.Point, error)
}

// MinimizedWindowRecord remembers the last window minimized by a swipe so a
// later swipe up near the same spot can bring it back.
type MinimizedWindowRecord struct {
	Handle    platform.WindowHandle `json:"handle"`
	Location  platform.Point        `json:"location"`
	Timestamp time.Time             `json:"timestamp"`
}

// Options configures an Engine.
type Options struct {
	Thresholds Thresholds
	// Now defaults to time.Now.
	Now func() time.Time
	// NewSessionID defaults to random UUIDs.
	NewSessionID func() string
}

// Status is a point-in-time view of the engine.
type Status struct {
	Active       bool                   `json:"active"`
	SessionID    string                 `json:"session_id,omitempty"`
	Duration     time.Duration          `json:"duration,omitempty"`
	LastMinimize *MinimizedWindowRecord `json:"last_minimize,omitempty"`
}

type session struct {
	id        string
	ids       [2]int
	startDist float64
	prevDist  float64
	startY    float64
	prevY     float64
	start     time.Time

	enteredCloseHint bool
}

// Engine is the gesture state machine.
type Engine struct {
	resolver Resolver
	exec     Executor
	sink     Sink
	pointer  Pointer
	th       Thresholds
	now      func() time.Time
	newID    func() string
	log      pslog.Logger

	mu     sync.Mutex
	sess   *session
	record *MinimizedWindowRecord
}

// NewEngine creates an engine. A nil sink discards feedback.
func NewEngine(r Resolver, exec Executor, pointer Pointer, sink Sink, opts Options, logger pslog.Logger) *Engine {
	if logger == nil {
		logger = pslog.Ctx(context.Background())
	}
	if sink == nil {
		sink = SinkFunc(func(FeedbackEvent) {})
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.NewSessionID == nil {
		opts.NewSessionID = func() string { return uuid.NewString() }
	}
	return &Engine{
		resolver: r,
		exec:     exec,
		sink:     sink,
		pointer:  pointer,
		th:       opts.Thresholds,
		now:      opts.Now,
		newID:    opts.NewSessionID,
		log:      logger,
	}
}

// Status returns the current session and minimize record.
func (e *Engine) Status() Status {
	e.mu.Lock()
	defer e.mu.Unlock()
	st := Status{}
	if e.sess != nil {
		st.Active = true
		st.SessionID = e.sess.id
		st.Duration = e.now().Sub(e.sess.start)
	}
	if e.record != nil {
		rec := *e.record
		st.LastMinimize = &rec
	}
	return st
}

// HandleFrame advances the state machine by one touch frame.
func (e *Engine) HandleFrame(f touch.Frame) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if len(f.Contacts) == 0 {
		e.endLocked(nil)
		return
	}

	mouse, err := e.pointer.CursorLocation()
	if err != nil {
		e.log.Debug("gesture cursor query failed", "err", err)
		e.endLocked(&frameProbe{lost: true})
		return
	}
	probe := e.resolver.Probe(mouse)
	nearRecord := e.nearRecordLocked(mouse)
	if !probe.OnTitleBar && !nearRecord {
		e.endLocked(&frameProbe{mouse: mouse, probe: probe})
		return
	}

	live := f.Usable()
	if len(live) < 2 {
		e.endLocked(&frameProbe{mouse: mouse, probe: probe})
		return
	}

	var a, b touch.Contact
	if e.sess != nil {
		var okA, okB bool
		a, okA = findContact(live, e.sess.ids[0])
		b, okB = findContact(live, e.sess.ids[1])
		if !okA || !okB {
			e.endLocked(&frameProbe{mouse: mouse, probe: probe})
			return
		}
	} else {
		var ok bool
		a, b, ok = closestValidPair(live, e.th.MinStartDistance, e.th.MaxStartDistance)
		if !ok {
			return
		}
	}

	dist := math.Hypot(a.X-b.X, a.Y-b.Y)
	avgY := (a.Y + b.Y) / 2
	fp := frameProbe{mouse: mouse, probe: probe}

	if e.sess == nil {
		e.sess = &session{
			id:        e.newID(),
			ids:       [2]int{a.ID, b.ID},
			startDist: dist,
			prevDist:  dist,
			startY:    avgY,
			prevY:     avgY,
			start:     e.now(),
		}
		e.log.Debug("gesture session began",
			"session", e.sess.id,
			"contacts", []int{a.ID, b.ID},
			"distance", dist,
		)
		e.emitLocked(PhaseBegan, Sample{Scale: 1}, TierHint, fp, true, nil)
		return
	}

	scale := 1.0
	if e.sess.startDist > 0 {
		scale = dist / e.sess.startDist
	}
	sample := Sample{
		Scale:    scale,
		YDelta:   avgY - e.sess.startY,
		Duration: e.now().Sub(e.sess.start),
	}
	e.emitLocked(PhaseChanged, sample, TierHint, fp, true, nil)
	e.sess.prevDist = dist
	e.sess.prevY = avgY
}

// Cancel abandons any session without performing an action.
func (e *Engine) Cancel() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.sess == nil {
		return
	}
	fp := frameProbe{lost: true}
	if mouse, err := e.pointer.CursorLocation(); err == nil {
		fp = frameProbe{mouse: mouse}
	}
	cancelled := CandidateCancelled
	e.emitLocked(PhaseCancelled, e.sampleLocked(), TierAction, fp, true, &cancelled)
	e.log.Debug("gesture session cancelled", "session", e.sess.id)
	e.sess = nil
}

// frameProbe is the single resolution taken for a frame. lost means the
// cursor could not be read, so there is no target.
type frameProbe struct {
	mouse platform.Point
	probe resolver.Probe
	lost  bool
}

func (fp frameProbe) near(e *Engine) bool {
	return !fp.lost && e.nearRecordLocked(fp.mouse)
}

func (e *Engine) sampleLocked() Sample {
	s := e.sess
	scale := 1.0
	if s.startDist > 0 {
		scale = s.prevDist / s.startDist
	}
	return Sample{
		Scale:    scale,
		YDelta:   s.prevY - s.startY,
		Duration: e.now().Sub(s.start),
	}
}

// endLocked finishes the session, emitting the final feedback and running
// the committed action. fp is reused when the frame already resolved the
// release point.
func (e *Engine) endLocked(fp *frameProbe) {
	s := e.sess
	if s == nil {
		return
	}
	defer func() { e.sess = nil }()

	if fp == nil {
		mouse, err := e.pointer.CursorLocation()
		if err != nil {
			e.log.Debug("gesture cursor query failed", "err", err)
			fp = &frameProbe{lost: true}
		} else {
			fp = &frameProbe{mouse: mouse, probe: e.resolver.Probe(mouse)}
		}
	}

	sample := e.sampleLocked()
	axis := e.th.dominance(sample, TierAction)
	win := fp.probe.Window
	hasWindow := win != nil
	fullScreen := hasWindow && win.IsFullScreen
	nearRecord := fp.near(e)
	held := sample.Duration >= e.th.HoldToClose
	vertical := axis == AxisVertical
	pinch := axis == AxisPinch

	willSwipeDown := hasWindow && vertical && sample.YDelta < -e.th.SwipeDown
	willSwipeUp := vertical && sample.YDelta > e.th.SwipeUp && nearRecord &&
		!(hasWindow && !fullScreen && held)
	willPinchOpen := hasWindow && pinch && sample.Scale > e.th.PinchOpen
	willPinchClose := hasWindow && pinch && sample.Scale < e.th.PinchClose
	willClose := hasWindow && !fullScreen && vertical && sample.YDelta > e.th.SwipeUp && held && !willSwipeUp
	willRestore := fullScreen && willPinchClose

	var override *Candidate
	if s.enteredCloseHint && !willClose && !willSwipeDown && !willSwipeUp && !willPinchOpen && !willRestore {
		cancelled := CandidateCancelled
		override = &cancelled
	}
	e.emitLocked(PhaseEnded, sample, TierAction, *fp, true, override)

	e.log.Debug("gesture session ended",
		"session", s.id,
		"axis", axis.String(),
		"scale", sample.Scale,
		"y_delta", sample.YDelta,
		"duration", sample.Duration,
		"has_window", hasWindow,
	)
	if fp.lost {
		return
	}

	switch axis {
	case AxisVertical:
		if sample.YDelta < -e.th.SwipeDown {
			e.swipeDownLocked(win, fp.mouse)
		} else if sample.YDelta > e.th.SwipeUp {
			e.swipeUpLocked(win, held, nearRecord)
		}
	case AxisPinch:
		if sample.Scale > e.th.PinchOpen {
			e.run("toggle_full_screen", win, e.exec.ToggleFullScreen)
		} else if sample.Scale < e.th.PinchClose {
			e.run("restore", win, e.exec.Restore)
		}
	}
}

func (e *Engine) swipeDownLocked(win *resolver.WindowDescriptor, at platform.Point) {
	if win == nil {
		return
	}
	if err := e.exec.Minimize(win); err != nil {
		e.logActionErr("minimize", win.Handle, err)
		return
	}
	e.record = &MinimizedWindowRecord{Handle: win.Handle, Location: at, Timestamp: e.now()}
	e.log.Info("gesture minimized window", "window", uint32(win.Handle), "app", win.OwnerAppID)
}

func (e *Engine) swipeUpLocked(win *resolver.WindowDescriptor, held, nearRecord bool) {
	if held && win != nil && !win.IsFullScreen {
		e.run("close", win, e.exec.Close)
		return
	}
	if e.record == nil || !nearRecord {
		return
	}
	h := e.record.Handle
	err := e.exec.Unminimize(h)
	switch {
	case err == nil:
		e.log.Info("gesture restored minimized window", "window", uint32(h))
		e.record = nil
	case errors.Is(err, platform.ErrStaleHandle):
		e.logActionErr("unminimize", h, err)
		e.record = nil
	default:
		e.logActionErr("unminimize", h, err)
	}
}

func (e *Engine) run(action string, win *resolver.WindowDescriptor, fn func(*resolver.WindowDescriptor) error) {
	if win == nil {
		return
	}
	if err := fn(win); err != nil {
		e.logActionErr(action, win.Handle, err)
		return
	}
	e.log.Info("gesture action", "action", action, "window", uint32(win.Handle), "app", win.OwnerAppID)
}

func (e *Engine) logActionErr(action string, h platform.WindowHandle, err error) {
	if platform.Recoverable(err) {
		e.log.Debug("gesture action skipped", "action", action, "window", uint32(h), "err", err)
		return
	}
	e.log.Warn("gesture action failed", "action", action, "window", uint32(h), "err", err)
}

func (e *Engine) emitLocked(phase Phase, sample Sample, tier Tier, fp frameProbe, valid bool, override *Candidate) {
	win := fp.probe.Window
	fullScreen := win != nil && win.IsFullScreen

	cand, progress := Classify(sample, e.th, tier, fullScreen)
	if cand == CandidateCloseWindowHold && sample.Duration < e.th.HoldToClose && fp.near(e) {
		cand, progress = CandidateSwipeUp, ratio(math.Abs(sample.YDelta), e.th.SwipeUp)
	}
	if override != nil {
		cand, progress = *override, 1
	}
	if (phase == PhaseBegan || phase == PhaseChanged) && cand == CandidateCloseWindowHold {
		e.sess.enteredCloseHint = true
	}

	ev := FeedbackEvent{
		SessionID:     e.sess.id,
		Phase:         phase,
		Candidate:     cand,
		Progress:      Clamp(progress),
		Scale:         sample.Scale,
		YDelta:        sample.YDelta,
		Duration:      sample.Duration,
		InValidRegion: valid,
		MouseLocation: fp.mouse,
		Timestamp:     e.now(),
	}
	if win != nil {
		frame := win.Frame
		ev.WindowFrame = &frame
	}
	e.sink.Publish(ev)
}

func (e *Engine) nearRecordLocked(p platform.Point) bool {
	return e.record != nil && e.record.Location.Distance(p) <= e.th.RestoreRadius
}
