package tui

import (
	"errors"
	"fmt"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/1broseidon/swish/internal/daemon"
	"github.com/1broseidon/swish/internal/gesture"
	"github.com/1broseidon/swish/internal/ipc"
)

type fakeDaemon struct {
	status   ipc.StatusData
	feedback *gesture.FeedbackEvent
	restarts []string
	err      error
}

func (d *fakeDaemon) GetStatus() (*ipc.StatusData, error) {
	if d.err != nil {
		return nil, d.err
	}
	st := d.status
	return &st, nil
}

func (d *fakeDaemon) LastFeedback() (*ipc.FeedbackData, error) {
	return &ipc.FeedbackData{Event: d.feedback}, nil
}

func (d *fakeDaemon) Pause() (bool, error) {
	d.status.Monitor.Paused = true
	return true, nil
}

func (d *fakeDaemon) Resume() (bool, error) {
	d.status.Monitor.Paused = false
	return false, nil
}

func (d *fakeDaemon) RestartMonitoring(reason string) error {
	d.restarts = append(d.restarts, reason)
	return nil
}

func key(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

func apply(t *testing.T, m model, msg tea.Msg) (model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	nm, ok := next.(model)
	require.True(t, ok)
	return nm, cmd
}

func TestPollUpdatesStatusAndFeedback(t *testing.T) {
	d := &fakeDaemon{
		status:   ipc.StatusData{DaemonRunning: true, PID: 4242, Monitor: daemon.MonitorStatus{Running: true, Source: "/dev/input/event6"}},
		feedback: &gesture.FeedbackEvent{SessionID: "s-1", Phase: gesture.PhaseChanged, Candidate: gesture.CandidateSwipeDown, Progress: 0.5},
	}
	m := newModel(d, time.Millisecond)

	m, cmd := apply(t, m, m.Init()())
	require.NotNil(t, cmd)
	require.NotNil(t, m.status)
	assert.Equal(t, 4242, m.status.PID)
	require.NotNil(t, m.current)
	assert.Equal(t, gesture.CandidateSwipeDown, m.current.Candidate)
	assert.Empty(t, m.history)

	view := m.View()
	assert.Contains(t, view, "monitoring")
	assert.Contains(t, view, "/dev/input/event6")
}

func TestFinishedSessionsEnterHistoryOnce(t *testing.T) {
	m := newModel(&fakeDaemon{}, 0)
	ended := &gesture.FeedbackEvent{SessionID: "s-1", Phase: gesture.PhaseEnded, Candidate: gesture.CandidateSwipeDown, Timestamp: time.Now()}

	m, _ = apply(t, m, snapshotMsg{status: &ipc.StatusData{}, feedback: ended})
	m, _ = apply(t, m, snapshotMsg{status: &ipc.StatusData{}, feedback: ended})
	require.Len(t, m.history, 1)
	assert.Contains(t, m.View(), "Minimize")

	for i := 0; i < maxHistory+3; i++ {
		ev := &gesture.FeedbackEvent{SessionID: fmt.Sprintf("s-%d", i+2), Phase: gesture.PhaseCancelled}
		m, _ = apply(t, m, snapshotMsg{status: &ipc.StatusData{}, feedback: ev})
	}
	assert.Len(t, m.history, maxHistory)
	assert.Equal(t, fmt.Sprintf("s-%d", maxHistory+4), m.history[maxHistory-1].SessionID)
}

func TestPollErrorKeepsLastStatus(t *testing.T) {
	d := &fakeDaemon{status: ipc.StatusData{PID: 7}}
	m := newModel(d, 0)
	m, _ = apply(t, m, m.poll()())

	d.err = errors.New("failed to connect to daemon")
	m, cmd := apply(t, m, m.poll()())
	require.NotNil(t, cmd)
	require.NotNil(t, m.status)
	assert.Equal(t, 7, m.status.PID)
	assert.Contains(t, m.View(), "daemon unreachable")
}

func TestKeysDriveTheDaemon(t *testing.T) {
	d := &fakeDaemon{}
	m := newModel(d, 0)
	m, _ = apply(t, m, m.poll()())

	_, cmd := apply(t, m, key('p'))
	require.NotNil(t, cmd)
	msg := cmd()
	assert.Equal(t, actionMsg{text: "gestures paused"}, msg)
	assert.True(t, d.status.Monitor.Paused)

	m, _ = apply(t, m, msg)
	assert.Equal(t, "gestures paused", m.message)
	m, _ = apply(t, m, m.poll()())

	_, cmd = apply(t, m, key('p'))
	assert.Equal(t, actionMsg{text: "gestures resumed"}, cmd())

	_, cmd = apply(t, m, key('r'))
	cmd()
	assert.Equal(t, []string{daemon.ReasonUser}, d.restarts)

	_, cmd = apply(t, m, key('q'))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}
