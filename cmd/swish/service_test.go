package main

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/1broseidon/swish/internal/daemon"
	"github.com/1broseidon/swish/internal/gesture"
	"github.com/1broseidon/swish/internal/platform"
	"github.com/1broseidon/swish/internal/resolver"
)

type fakeMonitor struct {
	status   daemon.MonitorStatus
	restarts []string
}

func (m *fakeMonitor) Status() daemon.MonitorStatus  { return m.status }
func (m *fakeMonitor) RequestRestart(reason string) { m.restarts = append(m.restarts, reason) }
func (m *fakeMonitor) Pause()                       { m.status.Paused = true }
func (m *fakeMonitor) Resume()                      { m.status.Paused = false }

type fakeEngine struct{ status gesture.Status }

func (e fakeEngine) Status() gesture.Status { return e.status }

type fakeDisplays struct {
	displays  []platform.Display
	primary   int
	err       error
	primaryOK bool
}

func (d fakeDisplays) Displays() ([]platform.Display, error) { return d.displays, d.err }
func (d fakeDisplays) PrimaryDisplayID() (int, error) {
	if !d.primaryOK {
		return 0, errors.New("no primary output")
	}
	return d.primary, nil
}
func (d fakeDisplays) CursorLocation() (platform.Point, error) { return platform.Point{}, nil }

type fakeProber struct{ probe resolver.Probe }

func (p fakeProber) Probe(platform.Point) resolver.Probe { return p.probe }

type fakeLatest struct {
	ev gesture.FeedbackEvent
	ok bool
}

func (l fakeLatest) Get() (gesture.FeedbackEvent, bool) { return l.ev, l.ok }

func TestServiceStatus(t *testing.T) {
	svc := &service{
		configFile: "/home/u/.config/swish/config.yaml",
		monitor:    &fakeMonitor{status: daemon.MonitorStatus{Running: true, Source: "/dev/input/event7"}},
		engine:     fakeEngine{status: gesture.Status{Active: true, SessionID: "s-9"}},
	}
	st := svc.Status()
	assert.Equal(t, "/home/u/.config/swish/config.yaml", st.ConfigFile)
	assert.True(t, st.Monitor.Running)
	assert.Equal(t, "s-9", st.Gesture.SessionID)
	assert.Zero(t, st.FeedbackClients)

	svc.clients = func() int { return 3 }
	assert.Equal(t, 3, svc.Status().FeedbackClients)
}

func TestServiceDisplaysMarksPrimary(t *testing.T) {
	displays := []platform.Display{
		{ID: 1, Name: "eDP-1", Frame: platform.Rect{Width: 1920, Height: 1080}},
		{ID: 2, Name: "DP-2", Frame: platform.Rect{X: 1920, Width: 2560, Height: 1440}, Usable: platform.Rect{X: 1920, Y: 32, Width: 2560, Height: 1408}},
	}

	svc := &service{displays: fakeDisplays{displays: displays, primary: 2, primaryOK: true}}
	out, err := svc.Displays()
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.False(t, out[0].Primary)
	assert.True(t, out[1].Primary)
	assert.Equal(t, displays[1].Usable, out[1].Usable)

	// Without a primary output the first display stands in.
	svc.displays = fakeDisplays{displays: displays}
	out, err = svc.Displays()
	require.NoError(t, err)
	assert.True(t, out[0].Primary)
	assert.False(t, out[1].Primary)

	svc.displays = fakeDisplays{err: errors.New("randr gone")}
	_, err = svc.Displays()
	assert.Error(t, err)
}

func TestServicePauseAndRestart(t *testing.T) {
	mon := &fakeMonitor{}
	svc := &service{monitor: mon}

	assert.True(t, svc.SetPaused(true))
	assert.False(t, svc.SetPaused(false))

	svc.RestartMonitoring(daemon.ReasonDisplayChange)
	assert.Equal(t, []string{daemon.ReasonDisplayChange}, mon.restarts)
}

func TestServiceResolvePointAndFeedback(t *testing.T) {
	win := &resolver.WindowDescriptor{Handle: 0x2c00004, PID: 812, Match: resolver.MatchGeometry}
	svc := &service{
		resolver: fakeProber{probe: resolver.Probe{Window: win, OnTitleBar: true}},
		latest:   fakeLatest{ev: gesture.FeedbackEvent{SessionID: "s-1", Candidate: gesture.CandidateSwipeDown}, ok: true},
	}

	data := svc.ResolvePoint(platform.Point{X: 300, Y: 1050})
	assert.Equal(t, platform.Point{X: 300, Y: 1050}, data.Point)
	assert.Same(t, win, data.Window)
	assert.True(t, data.OnTitleBar)

	ev, ok := svc.LastFeedback()
	require.True(t, ok)
	assert.Equal(t, gesture.CandidateSwipeDown, ev.Candidate)
}
