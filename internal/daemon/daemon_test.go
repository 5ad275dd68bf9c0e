package daemon

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pkt.systems/pslog"

	"github.com/1broseidon/swish/internal/platform"
	"github.com/1broseidon/swish/internal/touch"
)

type fakeSource struct {
	name     string
	startErr error

	mu      sync.Mutex
	handler touch.FrameHandler
	stopped chan struct{}
	waitErr chan error
}

func newFakeSource(name string) *fakeSource {
	return &fakeSource{name: name, stopped: make(chan struct{}), waitErr: make(chan error, 1)}
}

func (s *fakeSource) Start(_ context.Context, h touch.FrameHandler) error {
	if s.startErr != nil {
		return s.startErr
	}
	s.mu.Lock()
	s.handler = h
	s.mu.Unlock()
	return nil
}

func (s *fakeSource) Stop() error {
	select {
	case <-s.stopped:
	default:
		close(s.stopped)
	}
	return nil
}

func (s *fakeSource) Wait() error {
	select {
	case <-s.stopped:
		return nil
	case err := <-s.waitErr:
		return err
	}
}

func (s *fakeSource) Name() string { return s.name }

func (s *fakeSource) emit(f touch.Frame) {
	s.mu.Lock()
	h := s.handler
	s.mu.Unlock()
	h(f)
}

type fakeHandler struct {
	frames  atomic.Int32
	cancels atomic.Int32
}

func (h *fakeHandler) HandleFrame(touch.Frame) { h.frames.Add(1) }
func (h *fakeHandler) Cancel()                 { h.cancels.Add(1) }

type sourceLog struct {
	mu      sync.Mutex
	sources []*fakeSource
	fail    bool
}

func (l *sourceLog) factory() touch.Source {
	l.mu.Lock()
	defer l.mu.Unlock()
	s := newFakeSource(fmt.Sprintf("fake-%d", len(l.sources)))
	if l.fail {
		s.startErr = fmt.Errorf("%w: no device", platform.ErrDriverUnavailable)
	}
	l.sources = append(l.sources, s)
	return s
}

func (l *sourceLog) count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.sources)
}

func (l *sourceLog) get(i int) *fakeSource {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.sources[i]
}

func quietLogger() pslog.Logger {
	return pslog.NewWithOptions(io.Discard, pslog.Options{Mode: pslog.ModeStructured, NoColor: true, MinLevel: pslog.InfoLevel})
}

func startMonitor(t *testing.T, cfg MonitorConfig, l *sourceLog, h FrameHandler) (*Monitor, context.CancelFunc) {
	t.Helper()
	cfg.Logger = quietLogger()
	m := NewMonitor(cfg, l.factory, h)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = m.Run(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	require.Eventually(t, func() bool { return l.count() == 1 }, time.Second, 5*time.Millisecond)
	return m, cancel
}

func TestMonitorDeliversFramesUnlessPaused(t *testing.T) {
	l := &sourceLog{}
	h := &fakeHandler{}
	m, _ := startMonitor(t, MonitorConfig{}, l, h)
	require.Eventually(t, func() bool { return m.Status().Running }, time.Second, 5*time.Millisecond)

	src := l.get(0)
	src.emit(touch.Frame{})
	src.emit(touch.Frame{})
	require.Eventually(t, func() bool { return h.frames.Load() == 2 }, time.Second, 5*time.Millisecond)

	m.Pause()
	assert.Equal(t, int32(1), h.cancels.Load())
	assert.True(t, m.Status().Paused)
	src.emit(touch.Frame{})
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, int32(2), h.frames.Load())

	assert.False(t, m.TogglePause())
	src.emit(touch.Frame{})
	require.Eventually(t, func() bool { return h.frames.Load() == 3 }, time.Second, 5*time.Millisecond)
}

func TestMonitorRestartDebounceLastWins(t *testing.T) {
	l := &sourceLog{}
	h := &fakeHandler{}
	m, _ := startMonitor(t, MonitorConfig{RestartDebounce: 40 * time.Millisecond, RestartSettle: 10 * time.Millisecond}, l, h)

	m.RequestRestart(ReasonDisplayChange)
	m.RequestRestart(ReasonWake)
	m.RequestRestart(ReasonUser)

	require.Eventually(t, func() bool { return l.count() == 2 }, time.Second, 5*time.Millisecond)
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, 2, l.count())

	st := m.Status()
	assert.Equal(t, 1, st.Restarts)
	assert.Equal(t, ReasonUser, st.LastRestartReason)
	assert.Equal(t, "fake-1", st.Source)

	select {
	case <-l.get(0).stopped:
	default:
		t.Fatal("old source was not stopped")
	}
}

// gatedHandler blocks its first frame until gate is closed.
type gatedHandler struct {
	fakeHandler
	gate chan struct{}
	once sync.Once
}

func (h *gatedHandler) HandleFrame(f touch.Frame) {
	h.once.Do(func() { <-h.gate })
	h.fakeHandler.HandleFrame(f)
}

func TestMonitorRestartDropsQueuedFramesFromOldSource(t *testing.T) {
	l := &sourceLog{}
	h := &gatedHandler{gate: make(chan struct{})}
	m, _ := startMonitor(t, MonitorConfig{RestartDebounce: 10 * time.Millisecond}, l, h)
	require.Eventually(t, func() bool { return m.Status().Running }, time.Second, 5*time.Millisecond)

	old := l.get(0)
	old.emit(touch.Frame{})
	old.emit(touch.Frame{})
	old.emit(touch.Frame{})

	m.RequestRestart(ReasonDisplayChange)
	select {
	case <-old.stopped:
	case <-time.After(time.Second):
		t.Fatal("old source was not stopped")
	}
	close(h.gate)

	require.Eventually(t, func() bool { return l.count() == 2 }, time.Second, 5*time.Millisecond)
	require.Eventually(t, func() bool { return m.Status().Running }, time.Second, 5*time.Millisecond)
	l.get(1).emit(touch.Frame{})

	require.Eventually(t, func() bool { return h.frames.Load() == 2 }, time.Second, 5*time.Millisecond)
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, int32(2), h.frames.Load())
	assert.GreaterOrEqual(t, h.cancels.Load(), int32(1))
}

func TestMonitorReportsDriverUnavailableOnce(t *testing.T) {
	l := &sourceLog{fail: true}
	h := &fakeHandler{}
	var reports atomic.Int32
	cfg := MonitorConfig{
		RestartDebounce:     10 * time.Millisecond,
		OnDriverUnavailable: func(error) { reports.Add(1) },
	}
	m, _ := startMonitor(t, cfg, l, h)

	m.RequestRestart(ReasonUser)
	require.Eventually(t, func() bool { return l.count() == 2 }, time.Second, 5*time.Millisecond)
	m.RequestRestart(ReasonUser)
	require.Eventually(t, func() bool { return l.count() == 3 }, time.Second, 5*time.Millisecond)

	assert.Equal(t, int32(1), reports.Load())
	st := m.Status()
	assert.False(t, st.Running)
	assert.Contains(t, st.DriverError, "no device")

	// A successful start clears the outage; the next failure reports again.
	l.mu.Lock()
	l.fail = false
	l.mu.Unlock()
	m.RequestRestart(ReasonUser)
	require.Eventually(t, func() bool { return m.Status().Running }, time.Second, 5*time.Millisecond)
	assert.Empty(t, m.Status().DriverError)

	l.get(3).waitErr <- fmt.Errorf("%w: unplugged", platform.ErrDriverUnavailable)
	require.Eventually(t, func() bool { return reports.Load() == 2 }, time.Second, 5*time.Millisecond)
	assert.False(t, m.Status().Running)
}

func TestDisplayWatcherDetectsChanges(t *testing.T) {
	var mu sync.Mutex
	displays := []platform.Display{{ID: 1, Name: "eDP-1", Frame: platform.Rect{Width: 1920, Height: 1080}}}
	list := func() ([]platform.Display, error) {
		mu.Lock()
		defer mu.Unlock()
		return append([]platform.Display(nil), displays...), nil
	}
	var reasons []string
	var rmu sync.Mutex
	w := NewDisplayWatcher(WatcherConfig{Interval: 10 * time.Millisecond, Logger: quietLogger()}, list, func(r string) {
		rmu.Lock()
		reasons = append(reasons, r)
		rmu.Unlock()
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	time.Sleep(40 * time.Millisecond)
	rmu.Lock()
	assert.Empty(t, reasons)
	rmu.Unlock()

	mu.Lock()
	displays = append(displays, platform.Display{ID: 2, Name: "HDMI-1", Frame: platform.Rect{X: 1920, Width: 2560, Height: 1440}})
	mu.Unlock()

	require.Eventually(t, func() bool {
		rmu.Lock()
		defer rmu.Unlock()
		return len(reasons) == 1
	}, time.Second, 5*time.Millisecond)
	rmu.Lock()
	assert.Equal(t, ReasonDisplayChange, reasons[0])
	rmu.Unlock()
}

func TestDisplayWatcherToleratesListErrors(t *testing.T) {
	calls := 0
	w := NewDisplayWatcher(WatcherConfig{Logger: quietLogger()}, func() ([]platform.Display, error) {
		calls++
		return nil, errors.New("no randr")
	}, func(string) { t.Fatal("unexpected change") })
	w.check()
	assert.Equal(t, 1, calls)
}

func TestDisplaySignatureIgnoresOrder(t *testing.T) {
	a := platform.Display{Name: "A", Frame: platform.Rect{Width: 10, Height: 10}}
	b := platform.Display{Name: "B", Frame: platform.Rect{X: 10, Width: 10, Height: 10}}
	assert.Equal(t, displaySignature([]platform.Display{a, b}), displaySignature([]platform.Display{b, a}))

	c := b
	c.Usable = platform.Rect{X: 10, Y: 30, Width: 10, Height: 10}
	assert.NotEqual(t, displaySignature([]platform.Display{a, b}), displaySignature([]platform.Display{a, c}))
}

func TestSleptWithoutClockJump(t *testing.T) {
	prev := time.Now()
	assert.False(t, slept(prev, prev.Add(10*time.Second), time.Second))
}
