package ipc

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pkt.systems/pslog"

	"github.com/1broseidon/swish/internal/daemon"
	"github.com/1broseidon/swish/internal/gesture"
	"github.com/1broseidon/swish/internal/platform"
	"github.com/1broseidon/swish/internal/resolver"
)

type fakeHandler struct {
	mu          sync.Mutex
	paused      bool
	restarts    []string
	last        *gesture.FeedbackEvent
	displaysErr error
}

func (h *fakeHandler) Status() StatusData {
	h.mu.Lock()
	defer h.mu.Unlock()
	return StatusData{
		ConfigFile: "/etc/swish.yaml",
		Monitor:    daemon.MonitorStatus{Running: true, Paused: h.paused, Source: "evdev:/dev/input/event5"},
		Gesture:    gesture.Status{Active: true, SessionID: "abc"},
	}
}

func (h *fakeHandler) Displays() ([]MonitorInfo, error) {
	if h.displaysErr != nil {
		return nil, h.displaysErr
	}
	return []MonitorInfo{{ID: 1, Name: "eDP-1", Primary: true, Frame: platform.Rect{Width: 1920, Height: 1080}}}, nil
}

func (h *fakeHandler) RestartMonitoring(reason string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.restarts = append(h.restarts, reason)
}

func (h *fakeHandler) SetPaused(paused bool) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.paused = paused
	return h.paused
}

func (h *fakeHandler) LastFeedback() (gesture.FeedbackEvent, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.last == nil {
		return gesture.FeedbackEvent{}, false
	}
	return *h.last, true
}

func (h *fakeHandler) ResolvePoint(p platform.Point) ResolveData {
	if p.X < 0 {
		return ResolveData{Point: p}
	}
	return ResolveData{
		Point:      p,
		Window:     &resolver.WindowDescriptor{Handle: 7, PID: 42, Frame: platform.Rect{Width: 800, Height: 600}, Match: resolver.MatchExactID},
		OnTitleBar: true,
	}
}

func startServer(t *testing.T, h Handler) *Client {
	t.Helper()
	dir, err := os.MkdirTemp("", "swish-ipc")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(dir) })

	logger := pslog.NewWithOptions(io.Discard, pslog.Options{Mode: pslog.ModeStructured, NoColor: true})
	srv, err := NewServer(filepath.Join(dir, "s.sock"), h, logger)
	require.NoError(t, err)
	require.NoError(t, srv.Start())
	t.Cleanup(srv.Stop)
	return NewClientWithPath(srv.SocketPath())
}

func TestStatusRoundTrip(t *testing.T) {
	c := startServer(t, &fakeHandler{})

	st, err := c.GetStatus()
	require.NoError(t, err)
	assert.True(t, st.DaemonRunning)
	assert.Equal(t, os.Getpid(), st.PID)
	assert.Equal(t, "/etc/swish.yaml", st.ConfigFile)
	assert.True(t, st.Monitor.Running)
	assert.Equal(t, "abc", st.Gesture.SessionID)
	assert.NoError(t, c.Ping())
}

func TestPauseResumeAndRestart(t *testing.T) {
	h := &fakeHandler{}
	c := startServer(t, h)

	paused, err := c.Pause()
	require.NoError(t, err)
	assert.True(t, paused)
	st, err := c.GetStatus()
	require.NoError(t, err)
	assert.True(t, st.Monitor.Paused)

	paused, err = c.Resume()
	require.NoError(t, err)
	assert.False(t, paused)

	require.NoError(t, c.RestartMonitoring(""))
	require.NoError(t, c.RestartMonitoring(daemon.ReasonWake))
	h.mu.Lock()
	defer h.mu.Unlock()
	assert.Equal(t, []string{daemon.ReasonUser, daemon.ReasonWake}, h.restarts)
}

func TestLastFeedback(t *testing.T) {
	h := &fakeHandler{}
	c := startServer(t, h)

	data, err := c.LastFeedback()
	require.NoError(t, err)
	assert.Nil(t, data.Event)

	h.mu.Lock()
	h.last = &gesture.FeedbackEvent{SessionID: "s1", Phase: gesture.PhaseChanged, Candidate: gesture.CandidatePinchOpen, Progress: 0.4, InValidRegion: true}
	h.mu.Unlock()

	data, err = c.LastFeedback()
	require.NoError(t, err)
	require.NotNil(t, data.Event)
	assert.Equal(t, gesture.CandidatePinchOpen, data.Event.Candidate)
	assert.Equal(t, gesture.PhaseChanged, data.Event.Phase)
	assert.InDelta(t, 0.4, data.Event.Progress, 1e-9)
}

func TestResolvePoint(t *testing.T) {
	c := startServer(t, &fakeHandler{})

	data, err := c.ResolvePoint(100, 200)
	require.NoError(t, err)
	require.NotNil(t, data.Window)
	assert.Equal(t, platform.WindowHandle(7), data.Window.Handle)
	assert.True(t, data.OnTitleBar)
	assert.Equal(t, platform.Point{X: 100, Y: 200}, data.Point)

	data, err = c.ResolvePoint(-1, 0)
	require.NoError(t, err)
	assert.Nil(t, data.Window)
	assert.False(t, data.OnTitleBar)
}

func TestErrorsReachTheClient(t *testing.T) {
	c := startServer(t, &fakeHandler{displaysErr: errors.New("randr gone")})

	_, err := c.GetMonitors()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "randr gone")

	err = c.call(CommandType("BOGUS"), nil, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Unknown command")
}

func TestClientWithoutDaemon(t *testing.T) {
	c := NewClientWithPath(filepath.Join(t.TempDir(), "missing.sock"))
	err := c.Ping()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "is the daemon running")
}
