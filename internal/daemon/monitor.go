// Package daemon runs gesture monitoring: it owns the touch source, feeds
// frames to the engine from a single consumer goroutine, and restarts the
// source when the display configuration changes.
package daemon

import (
	"context"
	"errors"
	"sync"
	"time"

	"pkt.systems/pslog"

	"github.com/1broseidon/swish/internal/platform"
	"github.com/1broseidon/swish/internal/touch"
)

// Restart reasons.
const (
	ReasonDisplayChange = "display_change"
	ReasonWake          = "wake"
	ReasonUser          = "user_request"
)

// FrameHandler consumes frames. The monitor calls it from one goroutine.
type FrameHandler interface {
	HandleFrame(touch.Frame)
	Cancel()
}

// SourceFactory builds a fresh touch source for each (re)start.
type SourceFactory func() touch.Source

// MonitorConfig holds configuration for the monitor.
type MonitorConfig struct {
	RestartDebounce time.Duration
	RestartSettle   time.Duration
	QueueSize       int
	Logger          pslog.Logger
	// OnDriverUnavailable is called once per outage.
	OnDriverUnavailable func(error)
}

// MonitorStatus is a snapshot of the monitor.
type MonitorStatus struct {
	Running           bool   `json:"running"`
	Paused            bool   `json:"paused"`
	Source            string `json:"source,omitempty"`
	DriverError       string `json:"driver_error,omitempty"`
	Restarts          int    `json:"restarts"`
	LastRestartReason string `json:"last_restart_reason,omitempty"`
}

// Monitor owns the touch source lifecycle.
type Monitor struct {
	newSource SourceFactory
	handler   FrameHandler
	debounce  time.Duration
	settle    time.Duration
	onDriver  func(error)
	logger    pslog.Logger
	frames    chan sourcedFrame

	// feed is held while a frame is handed to the handler and while a
	// restart cancels it, so no frame from a stopped source slips in after
	// the cancel.
	feed sync.Mutex

	mu           sync.Mutex
	ctx          context.Context
	src          touch.Source
	srcGen       uint64
	paused       bool
	driverErr    error
	reported     bool
	restartSeq   uint64
	restartTimer *time.Timer
	restarts     int
	lastReason   string
}

// NewMonitor creates a monitor.
func NewMonitor(cfg MonitorConfig, newSource SourceFactory, handler FrameHandler) *Monitor {
	if cfg.RestartDebounce <= 0 {
		cfg.RestartDebounce = 300 * time.Millisecond
	}
	if cfg.RestartSettle < 0 {
		cfg.RestartSettle = 0
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 64
	}
	if cfg.Logger == nil {
		cfg.Logger = pslog.Ctx(context.Background())
	}
	return &Monitor{
		newSource: newSource,
		handler:   handler,
		debounce:  cfg.RestartDebounce,
		settle:    cfg.RestartSettle,
		onDriver:  cfg.OnDriverUnavailable,
		logger:    cfg.Logger,
		frames:    make(chan sourcedFrame, cfg.QueueSize),
	}
}

// Run starts the source and consumes frames until ctx is cancelled.
func (m *Monitor) Run(ctx context.Context) error {
	m.mu.Lock()
	if m.ctx != nil {
		m.mu.Unlock()
		return errors.New("monitor already running")
	}
	m.ctx = ctx
	m.mu.Unlock()

	m.logger.Info("monitor started")
	m.startSource()

	for {
		select {
		case <-ctx.Done():
			m.shutdown()
			m.logger.Info("monitor stopped")
			return nil
		case f := <-m.frames:
			m.deliver(f)
		}
	}
}

// sourcedFrame tags a frame with the generation of the source that read it.
type sourcedFrame struct {
	gen   uint64
	frame touch.Frame
}

func (m *Monitor) deliver(f sourcedFrame) {
	m.feed.Lock()
	defer m.feed.Unlock()
	m.mu.Lock()
	drop := m.paused || f.gen != m.srcGen
	m.mu.Unlock()
	if drop {
		return
	}
	m.handler.HandleFrame(f.frame)
}

func (m *Monitor) enqueuer(gen uint64) touch.FrameHandler {
	return func(f touch.Frame) {
		m.mu.Lock()
		ctx := m.ctx
		m.mu.Unlock()
		select {
		case m.frames <- sourcedFrame{gen: gen, frame: f}:
		case <-ctx.Done():
		}
	}
}

func (m *Monitor) cancelSession() {
	m.feed.Lock()
	defer m.feed.Unlock()
	m.handler.Cancel()
}

func (m *Monitor) startSource() {
	m.mu.Lock()
	ctx := m.ctx
	m.mu.Unlock()
	if ctx == nil || ctx.Err() != nil {
		return
	}

	m.mu.Lock()
	m.srcGen++
	gen := m.srcGen
	m.mu.Unlock()

	src := m.newSource()
	if err := src.Start(ctx, m.enqueuer(gen)); err != nil {
		m.driverFailed(err)
		return
	}

	m.mu.Lock()
	m.src = src
	m.driverErr = nil
	m.reported = false
	m.mu.Unlock()
	m.logger.Info("touch source started", "source", src.Name())

	go m.watch(src)
}

// watch notices a source that stops on its own.
func (m *Monitor) watch(src touch.Source) {
	err := src.Wait()
	m.mu.Lock()
	current := m.src == src
	if current {
		m.src = nil
	}
	m.mu.Unlock()
	if !current {
		return
	}
	m.cancelSession()
	if err != nil {
		m.driverFailed(err)
		return
	}
	m.logger.Info("touch source finished", "source", src.Name())
}

func (m *Monitor) driverFailed(err error) {
	m.mu.Lock()
	m.driverErr = err
	first := !m.reported
	m.reported = true
	m.mu.Unlock()
	if !first {
		m.logger.Debug("touch source still unavailable", "err", err)
		return
	}
	if errors.Is(err, platform.ErrDriverUnavailable) {
		m.logger.Error("touch driver unavailable, gestures disabled until restart", "err", err)
	} else {
		m.logger.Error("touch source failed", "err", err)
	}
	if m.onDriver != nil {
		m.onDriver(err)
	}
}

func (m *Monitor) stopSource() {
	m.mu.Lock()
	src := m.src
	m.src = nil
	m.srcGen++
	m.mu.Unlock()
	if src == nil {
		return
	}
	if err := src.Stop(); err != nil {
		m.logger.Warn("touch source stop failed", "source", src.Name(), "err", err)
	}
}

// RequestRestart schedules a stop/start cycle. Requests within the
// debounce window collapse into one; the last reason wins.
func (m *Monitor) RequestRestart(reason string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.restartSeq++
	seq := m.restartSeq
	if m.restartTimer != nil {
		m.restartTimer.Stop()
	}
	m.restartTimer = time.AfterFunc(m.debounce, func() { m.restart(seq, reason) })
	m.logger.Debug("monitor restart requested", "reason", reason)
}

func (m *Monitor) restart(seq uint64, reason string) {
	m.mu.Lock()
	if seq != m.restartSeq || m.ctx == nil || m.ctx.Err() != nil {
		m.mu.Unlock()
		return
	}
	ctx := m.ctx
	m.restartTimer = nil
	m.restarts++
	m.lastReason = reason
	m.mu.Unlock()

	m.logger.Info("monitor restarting", "reason", reason)
	m.stopSource()
	m.cancelSession()

	if m.settle > 0 {
		select {
		case <-ctx.Done():
			return
		case <-time.After(m.settle):
		}
	}

	m.mu.Lock()
	stale := seq != m.restartSeq
	m.mu.Unlock()
	if stale {
		return
	}
	m.startSource()
}

// Pause stops feeding frames to the engine and abandons any session.
func (m *Monitor) Pause() {
	m.mu.Lock()
	was := m.paused
	m.paused = true
	m.mu.Unlock()
	if !was {
		m.cancelSession()
		m.logger.Info("monitor paused")
	}
}

// Resume undoes Pause.
func (m *Monitor) Resume() {
	m.mu.Lock()
	was := m.paused
	m.paused = false
	m.mu.Unlock()
	if was {
		m.logger.Info("monitor resumed")
	}
}

// TogglePause flips the paused state and returns the new value.
func (m *Monitor) TogglePause() bool {
	if m.isPaused() {
		m.Resume()
		return false
	}
	m.Pause()
	return true
}

func (m *Monitor) isPaused() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.paused
}

// Status returns a snapshot.
func (m *Monitor) Status() MonitorStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	st := MonitorStatus{
		Running:           m.src != nil,
		Paused:            m.paused,
		Restarts:          m.restarts,
		LastRestartReason: m.lastReason,
	}
	if m.src != nil {
		st.Source = m.src.Name()
	}
	if m.driverErr != nil {
		st.DriverError = m.driverErr.Error()
	}
	return st
}

func (m *Monitor) shutdown() {
	m.mu.Lock()
	m.restartSeq++
	if m.restartTimer != nil {
		m.restartTimer.Stop()
		m.restartTimer = nil
	}
	m.mu.Unlock()
	m.stopSource()
	m.cancelSession()
}
