package tui

import (
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/1broseidon/swish/internal/daemon"
	"github.com/1broseidon/swish/internal/gesture"
	"github.com/1broseidon/swish/internal/ipc"
)

// maxHistory bounds the list of finished gestures.
const maxHistory = 8

type tickMsg time.Time

type snapshotMsg struct {
	status   *ipc.StatusData
	feedback *gesture.FeedbackEvent
	err      error
}

type actionMsg struct {
	text string
	err  error
}

// model is the root bubbletea model.
type model struct {
	daemon   Daemon
	interval time.Duration

	status   *ipc.StatusData
	current  *gesture.FeedbackEvent
	history  []gesture.FeedbackEvent
	lastErr  error
	message  string
	progress progress.Model

	width  int
	height int
}

func newModel(d Daemon, interval time.Duration) model {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return model{
		daemon:   d,
		interval: interval,
		progress: progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage()),
	}
}

func (m model) poll() tea.Cmd {
	d := m.daemon
	return func() tea.Msg {
		st, err := d.GetStatus()
		if err != nil {
			return snapshotMsg{err: err}
		}
		fb, err := d.LastFeedback()
		if err != nil {
			return snapshotMsg{status: st, err: err}
		}
		return snapshotMsg{status: st, feedback: fb.Event}
	}
}

func (m model) tick() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m model) togglePause() tea.Cmd {
	d := m.daemon
	pause := m.status == nil || !m.status.Monitor.Paused
	return func() tea.Msg {
		call := d.Resume
		if pause {
			call = d.Pause
		}
		paused, err := call()
		if err != nil {
			return actionMsg{err: err}
		}
		if paused {
			return actionMsg{text: "gestures paused"}
		}
		return actionMsg{text: "gestures resumed"}
	}
}

func (m model) restart() tea.Cmd {
	d := m.daemon
	return func() tea.Msg {
		if err := d.RestartMonitoring(daemon.ReasonUser); err != nil {
			return actionMsg{err: err}
		}
		return actionMsg{text: "monitoring restart requested"}
	}
}

// Init implements tea.Model.
func (m model) Init() tea.Cmd {
	return m.poll()
}

// Update implements tea.Model.
func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			return m, tea.Quit
		case "p":
			return m, m.togglePause()
		case "r":
			return m, m.restart()
		}
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.progress.Width = max(10, min(msg.Width-20, 60))
	case tickMsg:
		return m, m.poll()
	case snapshotMsg:
		m.lastErr = msg.err
		if msg.status != nil {
			m.status = msg.status
		}
		if msg.err == nil {
			m.observe(msg.feedback)
		}
		return m, m.tick()
	case actionMsg:
		if msg.err != nil {
			m.message = "error: " + msg.err.Error()
		} else {
			m.message = msg.text
		}
		return m, m.poll()
	}
	return m, nil
}

// observe records ev and appends it to the history once its session
// finishes.
func (m *model) observe(ev *gesture.FeedbackEvent) {
	m.current = ev
	if ev == nil {
		return
	}
	if ev.Phase != gesture.PhaseEnded && ev.Phase != gesture.PhaseCancelled {
		return
	}
	if n := len(m.history); n > 0 && m.history[n-1].SessionID == ev.SessionID {
		return
	}
	m.history = append(m.history, *ev)
	if len(m.history) > maxHistory {
		m.history = m.history[len(m.history)-maxHistory:]
	}
}
