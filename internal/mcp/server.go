package mcp

import (
	"context"
	"fmt"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"pkt.systems/pslog"

	"github.com/1broseidon/swish/internal/daemon"
	"github.com/1broseidon/swish/internal/ipc"
	"github.com/1broseidon/swish/internal/platform"
)

const (
	ServerName    = "swish"
	ServerVersion = "0.1.0"
)

// Daemon is the control surface of a running gesture daemon.
// *ipc.Client implements it.
type Daemon interface {
	GetStatus() (*ipc.StatusData, error)
	GetMonitors() (*ipc.MonitorsData, error)
	RestartMonitoring(reason string) error
	Pause() (bool, error)
	Resume() (bool, error)
	LastFeedback() (*ipc.FeedbackData, error)
	ResolvePoint(x, y float64) (*ipc.ResolveData, error)
}

// Server is the MCP server exposing the gesture daemon.
type Server struct {
	mcpServer *mcpsdk.Server
	daemon    Daemon
	log       pslog.Logger
}

// NewServer creates a new MCP server backed by d.
func NewServer(d Daemon, logger pslog.Logger) *Server {
	if logger == nil {
		logger = pslog.Ctx(context.Background())
	}
	s := &Server{daemon: d, log: logger}
	s.mcpServer = mcpsdk.NewServer(
		&mcpsdk.Implementation{
			Name:    ServerName,
			Version: ServerVersion,
		},
		nil,
	)
	s.registerTools()
	return s
}

// Run starts the MCP server on stdio transport, blocking until done.
func (s *Server) Run(ctx context.Context) error {
	return s.mcpServer.Run(ctx, &mcpsdk.StdioTransport{})
}

func (s *Server) registerTools() {
	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "gesture_status",
		Description: "Report whether the swish daemon is monitoring the trackpad, whether it is paused, the active gesture session if any, and the window a swipe up would restore.",
	}, s.handleStatus)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "list_displays",
		Description: "List the displays known to the daemon with their full and usable frames in top-left-origin screen coordinates.",
	}, s.handleListDisplays)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "resolve_window",
		Description: "Resolve the topmost application window under a screen point (bottom-left origin, as reported for the pointer) and report whether the point is on its title bar.",
	}, s.handleResolveWindow)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "restart_monitoring",
		Description: "Restart trackpad monitoring. Requests within a short window collapse into one restart.",
	}, s.handleRestart)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "set_paused",
		Description: "Pause or resume gesture handling. Pausing cancels any gesture in progress without acting on it.",
	}, s.handleSetPaused)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "last_feedback",
		Description: "Return the most recent gesture feedback: phase, candidate action and progress toward its threshold.",
	}, s.handleLastFeedback)
}

func (s *Server) handleStatus(_ context.Context, _ *mcpsdk.CallToolRequest, _ EmptyInput) (*mcpsdk.CallToolResult, GestureStatusOutput, error) {
	st, err := s.daemon.GetStatus()
	if err != nil {
		return nil, GestureStatusOutput{}, err
	}
	out := GestureStatusOutput{
		DaemonRunning:     st.DaemonRunning,
		PID:               st.PID,
		UptimeSeconds:     st.UptimeSeconds,
		ConfigFile:        st.ConfigFile,
		Monitoring:        st.Monitor.Running,
		Paused:            st.Monitor.Paused,
		Source:            st.Monitor.Source,
		DriverError:       st.Monitor.DriverError,
		Restarts:          st.Monitor.Restarts,
		LastRestartReason: st.Monitor.LastRestartReason,
		GestureActive:     st.Gesture.Active,
		SessionID:         st.Gesture.SessionID,
		FeedbackClients:   st.FeedbackClients,
	}
	if rec := st.Gesture.LastMinimize; rec != nil {
		out.LastMinimizedWindow = uint32(rec.Handle)
	}
	return nil, out, nil
}

func (s *Server) handleListDisplays(_ context.Context, _ *mcpsdk.CallToolRequest, _ EmptyInput) (*mcpsdk.CallToolResult, ListDisplaysOutput, error) {
	data, err := s.daemon.GetMonitors()
	if err != nil {
		return nil, ListDisplaysOutput{}, err
	}
	out := ListDisplaysOutput{Displays: make([]DisplayOutput, 0, len(data.Monitors))}
	for _, m := range data.Monitors {
		out.Displays = append(out.Displays, DisplayOutput{
			ID:      m.ID,
			Name:    m.Name,
			Primary: m.Primary,
			Frame:   rectOutput(m.Frame),
			Usable:  rectOutput(m.Usable),
		})
	}
	return nil, out, nil
}

func (s *Server) handleResolveWindow(_ context.Context, _ *mcpsdk.CallToolRequest, args ResolveWindowInput) (*mcpsdk.CallToolResult, ResolveWindowOutput, error) {
	data, err := s.daemon.ResolvePoint(args.X, args.Y)
	if err != nil {
		return nil, ResolveWindowOutput{}, err
	}
	out := ResolveWindowOutput{OnTitleBar: data.OnTitleBar}
	if w := data.Window; w != nil {
		out.Found = true
		out.Handle = uint32(w.Handle)
		out.PID = w.PID
		out.AppID = w.OwnerAppID
		out.FullScreen = w.IsFullScreen
		out.Frame = rectOutput(w.Frame)
		out.Match = w.Match.String()
	}
	return nil, out, nil
}

func (s *Server) handleRestart(_ context.Context, _ *mcpsdk.CallToolRequest, args RestartMonitoringInput) (*mcpsdk.CallToolResult, RestartMonitoringOutput, error) {
	reason := args.Reason
	if reason == "" {
		reason = daemon.ReasonUser
	}
	if err := s.daemon.RestartMonitoring(reason); err != nil {
		return nil, RestartMonitoringOutput{}, fmt.Errorf("restart monitoring: %w", err)
	}
	s.log.Info("mcp requested monitoring restart", "reason", reason)
	return nil, RestartMonitoringOutput{Requested: true, Reason: reason}, nil
}

func (s *Server) handleSetPaused(_ context.Context, _ *mcpsdk.CallToolRequest, args SetPausedInput) (*mcpsdk.CallToolResult, SetPausedOutput, error) {
	call := s.daemon.Resume
	if args.Paused {
		call = s.daemon.Pause
	}
	paused, err := call()
	if err != nil {
		return nil, SetPausedOutput{}, err
	}
	return nil, SetPausedOutput{Paused: paused}, nil
}

func (s *Server) handleLastFeedback(_ context.Context, _ *mcpsdk.CallToolRequest, _ EmptyInput) (*mcpsdk.CallToolResult, LastFeedbackOutput, error) {
	data, err := s.daemon.LastFeedback()
	if err != nil {
		return nil, LastFeedbackOutput{}, err
	}
	ev := data.Event
	if ev == nil {
		return nil, LastFeedbackOutput{}, nil
	}
	return nil, LastFeedbackOutput{
		Available:       true,
		SessionID:       ev.SessionID,
		Phase:           ev.Phase.String(),
		Candidate:       ev.Candidate.String(),
		Title:           ev.Candidate.Title(),
		Action:          ev.Candidate.Action(),
		Progress:        ev.Progress,
		Scale:           ev.Scale,
		YDelta:          ev.YDelta,
		DurationSeconds: ev.Duration.Seconds(),
		InValidRegion:   ev.InValidRegion,
	}, nil
}

func rectOutput(r platform.Rect) RectOutput {
	return RectOutput{X: r.X, Y: r.Y, Width: r.Width, Height: r.Height}
}
