// Package tui is the live gesture monitor behind "swish watch".
package tui

import (
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"

	"github.com/1broseidon/swish/internal/ipc"
)

// Daemon is the part of the control client the monitor uses.
type Daemon interface {
	GetStatus() (*ipc.StatusData, error)
	LastFeedback() (*ipc.FeedbackData, error)
	Pause() (bool, error)
	Resume() (bool, error)
	RestartMonitoring(reason string) error
}

// DefaultInterval is how often the daemon is polled.
const DefaultInterval = 100 * time.Millisecond

// Run shows the monitor until the user quits.
func Run(d Daemon, interval time.Duration) error {
	if !term.IsTerminal(int(os.Stdin.Fd())) || !term.IsTerminal(int(os.Stdout.Fd())) {
		return fmt.Errorf("watch requires an interactive terminal (stdin/stdout must be TTYs)")
	}
	_, err := tea.NewProgram(newModel(d, interval), tea.WithAltScreen()).Run()
	return err
}
