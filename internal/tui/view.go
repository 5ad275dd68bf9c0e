package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/1broseidon/swish/internal/gesture"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15"))
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(14)
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("226"))
	errStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	boxStyle   = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(0, 1)
)

func row(label, value string) string {
	return labelStyle.Render(label) + value
}

// View implements tea.Model.
func (m model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("swish"))
	b.WriteString("\n\n")
	b.WriteString(boxStyle.Render(m.daemonView()))
	b.WriteString("\n")
	b.WriteString(boxStyle.Render(m.gestureView()))
	b.WriteString("\n")
	if len(m.history) > 0 {
		b.WriteString(boxStyle.Render(m.historyView()))
		b.WriteString("\n")
	}
	if m.message != "" {
		b.WriteString(m.message)
		b.WriteString("\n")
	}
	b.WriteString(dimStyle.Render("p pause/resume · r restart monitoring · q quit"))
	return b.String()
}

func (m model) daemonView() string {
	if m.status == nil {
		if m.lastErr != nil {
			return errStyle.Render(m.lastErr.Error())
		}
		return dimStyle.Render("connecting…")
	}
	st := m.status
	lines := []string{}
	if m.lastErr != nil {
		lines = append(lines, errStyle.Render("daemon unreachable: "+m.lastErr.Error()))
	}

	state := okStyle.Render("monitoring")
	switch {
	case st.Monitor.Paused:
		state = warnStyle.Render("paused")
	case st.Monitor.DriverError != "":
		state = errStyle.Render("touchpad unavailable")
	case !st.Monitor.Running:
		state = warnStyle.Render("idle")
	}
	lines = append(lines,
		row("state", state),
		row("pid", fmt.Sprintf("%d (up %s)", st.PID, time.Duration(st.UptimeSeconds)*time.Second)),
	)
	if st.Monitor.Source != "" {
		lines = append(lines, row("device", st.Monitor.Source))
	}
	if st.Monitor.DriverError != "" {
		lines = append(lines, row("driver", errStyle.Render(st.Monitor.DriverError)))
	}
	restarts := fmt.Sprintf("%d", st.Monitor.Restarts)
	if st.Monitor.LastRestartReason != "" {
		restarts += dimStyle.Render(" last: " + st.Monitor.LastRestartReason)
	}
	lines = append(lines, row("restarts", restarts))
	if rec := st.Gesture.LastMinimize; rec != nil {
		lines = append(lines, row("restorable", fmt.Sprintf("0x%x", uint32(rec.Handle))))
	}
	return strings.Join(lines, "\n")
}

func (m model) gestureView() string {
	ev := m.current
	active := m.status != nil && m.status.Gesture.Active
	if ev == nil || (!active && ev.Phase != gesture.PhaseEnded && ev.Phase != gesture.PhaseCancelled) {
		return row("gesture", dimStyle.Render("waiting for two fingers on a title bar"))
	}
	lines := []string{
		row("gesture", ev.Candidate.Title()),
		row("action", ev.Candidate.Action()),
		row("progress", m.progress.ViewAs(ev.Progress)),
		row("phase", ev.Phase.String()),
		row("scale", fmt.Sprintf("%.2f", ev.Scale)),
		row("y delta", fmt.Sprintf("%+.3f", ev.YDelta)),
		row("duration", ev.Duration.Round(time.Millisecond).String()),
	}
	if !ev.InValidRegion {
		lines = append(lines, row("region", warnStyle.Render("off title bar")))
	}
	return strings.Join(lines, "\n")
}

func (m model) historyView() string {
	lines := []string{titleStyle.Render("recent")}
	for i := len(m.history) - 1; i >= 0; i-- {
		ev := m.history[i]
		outcome := okStyle.Render(ev.Candidate.Action())
		if ev.Phase == gesture.PhaseCancelled || ev.Candidate == gesture.CandidateNone || ev.Candidate == gesture.CandidateCancelled {
			outcome = dimStyle.Render("no action")
		}
		lines = append(lines, fmt.Sprintf("%s  %-22s %s",
			dimStyle.Render(ev.Timestamp.Local().Format("15:04:05")),
			ev.Candidate.Title(),
			outcome,
		))
	}
	return strings.Join(lines, "\n")
}
