package mcp

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pkt.systems/pslog"

	"github.com/1broseidon/swish/internal/daemon"
	"github.com/1broseidon/swish/internal/gesture"
	"github.com/1broseidon/swish/internal/ipc"
	"github.com/1broseidon/swish/internal/platform"
	"github.com/1broseidon/swish/internal/resolver"
)

type fakeDaemon struct {
	status   ipc.StatusData
	paused   bool
	restarts []string
	feedback *gesture.FeedbackEvent
	resolve  ipc.ResolveData
	err      error
}

func (d *fakeDaemon) GetStatus() (*ipc.StatusData, error) { return &d.status, d.err }
func (d *fakeDaemon) GetMonitors() (*ipc.MonitorsData, error) {
	return &ipc.MonitorsData{Monitors: []ipc.MonitorInfo{{ID: 3, Name: "DP-1", Primary: true, Frame: platform.Rect{Width: 2560, Height: 1440}}}}, d.err
}
func (d *fakeDaemon) RestartMonitoring(reason string) error {
	d.restarts = append(d.restarts, reason)
	return d.err
}
func (d *fakeDaemon) Pause() (bool, error)  { d.paused = true; return d.paused, d.err }
func (d *fakeDaemon) Resume() (bool, error) { d.paused = false; return d.paused, d.err }
func (d *fakeDaemon) LastFeedback() (*ipc.FeedbackData, error) {
	return &ipc.FeedbackData{Event: d.feedback}, d.err
}
func (d *fakeDaemon) ResolvePoint(x, y float64) (*ipc.ResolveData, error) {
	data := d.resolve
	data.Point = platform.Point{X: x, Y: y}
	return &data, d.err
}

func newTestServer(d *fakeDaemon) *Server {
	return NewServer(d, pslog.NewWithOptions(io.Discard, pslog.Options{Mode: pslog.ModeStructured, NoColor: true}))
}

func TestGestureStatus(t *testing.T) {
	d := &fakeDaemon{status: ipc.StatusData{
		DaemonRunning: true,
		PID:           99,
		Monitor:       daemon.MonitorStatus{Running: true, Source: "evdev:/dev/input/event4", Restarts: 2, LastRestartReason: daemon.ReasonWake},
		Gesture: gesture.Status{
			Active:       true,
			SessionID:    "s-1",
			LastMinimize: &gesture.MinimizedWindowRecord{Handle: 0x3a00007, Location: platform.Point{X: 10, Y: 20}},
		},
	}}
	_, out, err := newTestServer(d).handleStatus(context.Background(), nil, EmptyInput{})
	require.NoError(t, err)
	assert.True(t, out.Monitoring)
	assert.Equal(t, 2, out.Restarts)
	assert.Equal(t, daemon.ReasonWake, out.LastRestartReason)
	assert.Equal(t, "s-1", out.SessionID)
	assert.Equal(t, uint32(0x3a00007), out.LastMinimizedWindow)
}

func TestResolveWindow(t *testing.T) {
	d := &fakeDaemon{resolve: ipc.ResolveData{
		OnTitleBar: true,
		Window: &resolver.WindowDescriptor{
			Handle:     12,
			PID:        400,
			OwnerAppID: "Firefox",
			Frame:      platform.Rect{X: 5, Y: 6, Width: 700, Height: 500},
			Match:      resolver.MatchGeometry,
		},
	}}
	_, out, err := newTestServer(d).handleResolveWindow(context.Background(), nil, ResolveWindowInput{X: 50, Y: 900})
	require.NoError(t, err)
	assert.True(t, out.Found)
	assert.True(t, out.OnTitleBar)
	assert.Equal(t, uint32(12), out.Handle)
	assert.Equal(t, "geometry", out.Match)
	assert.Equal(t, RectOutput{X: 5, Y: 6, Width: 700, Height: 500}, out.Frame)

	_, out, err = newTestServer(&fakeDaemon{}).handleResolveWindow(context.Background(), nil, ResolveWindowInput{})
	require.NoError(t, err)
	assert.False(t, out.Found)
}

func TestRestartDefaultsReason(t *testing.T) {
	d := &fakeDaemon{}
	s := newTestServer(d)
	_, out, err := s.handleRestart(context.Background(), nil, RestartMonitoringInput{})
	require.NoError(t, err)
	assert.Equal(t, daemon.ReasonUser, out.Reason)

	_, _, err = s.handleRestart(context.Background(), nil, RestartMonitoringInput{Reason: daemon.ReasonDisplayChange})
	require.NoError(t, err)
	assert.Equal(t, []string{daemon.ReasonUser, daemon.ReasonDisplayChange}, d.restarts)
}

func TestSetPaused(t *testing.T) {
	d := &fakeDaemon{}
	s := newTestServer(d)
	_, out, err := s.handleSetPaused(context.Background(), nil, SetPausedInput{Paused: true})
	require.NoError(t, err)
	assert.True(t, out.Paused)
	_, out, err = s.handleSetPaused(context.Background(), nil, SetPausedInput{Paused: false})
	require.NoError(t, err)
	assert.False(t, out.Paused)
}

func TestLastFeedback(t *testing.T) {
	d := &fakeDaemon{}
	s := newTestServer(d)
	_, out, err := s.handleLastFeedback(context.Background(), nil, EmptyInput{})
	require.NoError(t, err)
	assert.False(t, out.Available)

	d.feedback = &gesture.FeedbackEvent{
		SessionID: "s-2",
		Phase:     gesture.PhaseChanged,
		Candidate: gesture.CandidateCloseWindowHold,
		Progress:  0.5,
		Duration:  500 * time.Millisecond,
	}
	_, out, err = s.handleLastFeedback(context.Background(), nil, EmptyInput{})
	require.NoError(t, err)
	assert.True(t, out.Available)
	assert.Equal(t, "close_window_hold", out.Candidate)
	assert.Equal(t, "Close window", out.Action)
	assert.InDelta(t, 0.5, out.DurationSeconds, 1e-9)
}

func TestDaemonErrorsPropagate(t *testing.T) {
	s := newTestServer(&fakeDaemon{err: errors.New("failed to connect to daemon")})
	_, _, err := s.handleStatus(context.Background(), nil, EmptyInput{})
	require.Error(t, err)
	_, _, err = s.handleListDisplays(context.Background(), nil, EmptyInput{})
	require.Error(t, err)
	_, _, err = s.handleRestart(context.Background(), nil, RestartMonitoringInput{})
	assert.ErrorContains(t, err, "restart monitoring")
}

func TestListDisplays(t *testing.T) {
	_, out, err := newTestServer(&fakeDaemon{}).handleListDisplays(context.Background(), nil, EmptyInput{})
	require.NoError(t, err)
	require.Len(t, out.Displays, 1)
	assert.Equal(t, "DP-1", out.Displays[0].Name)
	assert.Equal(t, 2560.0, out.Displays[0].Frame.Width)
}
