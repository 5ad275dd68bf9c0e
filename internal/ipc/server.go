package ipc

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"os"
	"sync"
	"time"

	"pkt.systems/pslog"

	"github.com/1broseidon/swish/internal/daemon"
	"github.com/1broseidon/swish/internal/gesture"
	"github.com/1broseidon/swish/internal/platform"
	"github.com/1broseidon/swish/internal/runtimepath"
)

// Handler is the daemon state the server exposes.
type Handler interface {
	Status() StatusData
	Displays() ([]MonitorInfo, error)
	RestartMonitoring(reason string)
	SetPaused(paused bool) bool
	LastFeedback() (gesture.FeedbackEvent, bool)
	ResolvePoint(p platform.Point) ResolveData
}

// Server handles IPC requests from clients
type Server struct {
	socketPath   string
	listener     net.Listener
	handler      Handler
	log          pslog.Logger
	startTime    time.Time
	shuttingDown bool
	shutdownMu   sync.Mutex
	conns        sync.WaitGroup
}

// NewServer creates a new IPC server. An empty socketPath uses
// runtimepath.SocketPath.
func NewServer(socketPath string, handler Handler, logger pslog.Logger) (*Server, error) {
	if socketPath == "" {
		var err error
		socketPath, err = runtimepath.SocketPath()
		if err != nil {
			return nil, fmt.Errorf("failed to resolve IPC socket path: %w", err)
		}
	}
	if logger == nil {
		logger = pslog.Ctx(context.Background())
	}

	// Remove existing socket if present
	os.Remove(socketPath)

	return &Server{
		socketPath: socketPath,
		handler:    handler,
		log:        logger,
		startTime:  time.Now(),
	}, nil
}

// SocketPath returns the socket the server listens on.
func (s *Server) SocketPath() string { return s.socketPath }

// Uptime returns the time since the server was created.
func (s *Server) Uptime() time.Duration { return time.Since(s.startTime) }

// Start begins listening for IPC connections
func (s *Server) Start() error {
	listener, err := net.Listen("unix", s.socketPath)
	if err != nil {
		return fmt.Errorf("failed to create IPC socket: %w", err)
	}
	s.listener = listener

	// Set socket permissions
	if err := os.Chmod(s.socketPath, 0600); err != nil {
		listener.Close()
		return fmt.Errorf("failed to set socket permissions: %w", err)
	}

	s.log.Info("ipc server listening", "socket", s.socketPath)

	go s.acceptLoop()
	return nil
}

func (s *Server) acceptLoop() {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			s.shutdownMu.Lock()
			if s.shuttingDown {
				s.shutdownMu.Unlock()
				return
			}
			s.shutdownMu.Unlock()
			s.log.Warn("ipc accept error", "err", err)
			continue
		}

		s.conns.Add(1)
		go func() {
			defer s.conns.Done()
			s.handleConnection(conn)
		}()
	}
}

// handleConnection serves one newline-delimited JSON request.
func (s *Server) handleConnection(conn net.Conn) {
	defer conn.Close()
	conn.SetDeadline(time.Now().Add(10 * time.Second))

	reader := bufio.NewReader(conn)
	data, err := reader.ReadBytes('\n')
	if err != nil && err != io.EOF {
		s.log.Debug("ipc read error", "err", err)
		return
	}

	req, err := ParseRequest(data)
	if err != nil {
		s.send(conn, NewErrorResponse(fmt.Sprintf("Invalid request: %v", err)))
		return
	}
	s.send(conn, s.handleCommand(req))
}

func (s *Server) send(conn net.Conn, resp *Response) {
	respData, err := resp.Marshal()
	if err != nil {
		s.log.Error("ipc marshal response failed", "err", err)
		return
	}
	respData = append(respData, '\n')
	if _, err := conn.Write(respData); err != nil {
		s.log.Debug("ipc send failed", "err", err)
	}
}

// handleCommand processes an IPC command and returns a response
func (s *Server) handleCommand(req *Request) *Response {
	s.log.Debug("ipc command", "command", req.Command)
	switch req.Command {
	case CommandGetStatus:
		return s.handleGetStatus()
	case CommandGetMonitors:
		return s.handleGetMonitors()
	case CommandRestartMonitoring:
		return s.handleRestart(req.Payload)
	case CommandPause:
		return ok(PausedData{Paused: s.handler.SetPaused(true)})
	case CommandResume:
		return ok(PausedData{Paused: s.handler.SetPaused(false)})
	case CommandLastFeedback:
		return s.handleLastFeedback()
	case CommandResolvePoint:
		return s.handleResolvePoint(req.Payload)
	default:
		return NewErrorResponse(fmt.Sprintf("Unknown command: %s", req.Command))
	}
}

func ok(data any) *Response {
	resp, err := NewOKResponse(data)
	if err != nil {
		return NewErrorResponse(err.Error())
	}
	return resp
}

func (s *Server) handleGetStatus() *Response {
	status := s.handler.Status()
	status.DaemonRunning = true
	status.PID = os.Getpid()
	status.UptimeSeconds = int64(s.Uptime().Seconds())
	return ok(status)
}

func (s *Server) handleGetMonitors() *Response {
	monitors, err := s.handler.Displays()
	if err != nil {
		return NewErrorResponse(fmt.Sprintf("Failed to get monitors: %v", err))
	}
	return ok(MonitorsData{Monitors: monitors})
}

func (s *Server) handleRestart(payload json.RawMessage) *Response {
	var req RestartPayload
	if len(payload) > 0 {
		if err := json.Unmarshal(payload, &req); err != nil {
			return NewErrorResponse(fmt.Sprintf("Invalid restart payload: %v", err))
		}
	}
	if req.Reason == "" {
		req.Reason = daemon.ReasonUser
	}
	s.handler.RestartMonitoring(req.Reason)
	return ok(nil)
}

func (s *Server) handleLastFeedback() *Response {
	var data FeedbackData
	if ev, found := s.handler.LastFeedback(); found {
		data.Event = &ev
	}
	return ok(data)
}

func (s *Server) handleResolvePoint(payload json.RawMessage) *Response {
	var req ResolvePointPayload
	if err := json.Unmarshal(payload, &req); err != nil {
		return NewErrorResponse(fmt.Sprintf("Invalid resolve payload: %v", err))
	}
	return ok(s.handler.ResolvePoint(platform.Point{X: req.X, Y: req.Y}))
}

// Stop gracefully shuts down the IPC server
func (s *Server) Stop() {
	s.shutdownMu.Lock()
	s.shuttingDown = true
	s.shutdownMu.Unlock()

	if s.listener != nil {
		s.listener.Close()
	}
	s.conns.Wait()
	os.Remove(s.socketPath)
}
