package ipc

import (
	"encoding/json"
	"fmt"

	"github.com/1broseidon/swish/internal/daemon"
	"github.com/1broseidon/swish/internal/gesture"
	"github.com/1broseidon/swish/internal/platform"
	"github.com/1broseidon/swish/internal/resolver"
)

// CommandType represents different IPC command types
type CommandType string

const (
	CommandGetStatus         CommandType = "GET_STATUS"
	CommandGetMonitors       CommandType = "GET_MONITORS"
	CommandRestartMonitoring CommandType = "RESTART_MONITORING"
	CommandPause             CommandType = "PAUSE"
	CommandResume            CommandType = "RESUME"
	CommandLastFeedback      CommandType = "LAST_FEEDBACK"
	CommandResolvePoint      CommandType = "RESOLVE_POINT"
)

// Request represents an IPC request from client to server
type Request struct {
	Command CommandType     `json:"command"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Response represents an IPC response from server to client
type Response struct {
	Status string          `json:"status"` // "OK" or "ERROR"
	Data   json.RawMessage `json:"data,omitempty"`
	Error  string          `json:"error,omitempty"`
}

// StatusData represents the data returned by GET_STATUS
type StatusData struct {
	DaemonRunning   bool                 `json:"daemon_running"`
	PID             int                  `json:"pid"`
	UptimeSeconds   int64                `json:"uptime_seconds"`
	ConfigFile      string               `json:"config_file,omitempty"`
	Monitor         daemon.MonitorStatus `json:"monitor"`
	Gesture         gesture.Status       `json:"gesture"`
	FeedbackClients int                  `json:"feedback_clients"`
}

// MonitorInfo represents information about a single display
type MonitorInfo struct {
	ID      int           `json:"id"`
	Name    string        `json:"name"`
	Primary bool          `json:"primary"`
	Frame   platform.Rect `json:"frame"`
	Usable  platform.Rect `json:"usable"`
}

// MonitorsData represents the data returned by GET_MONITORS
type MonitorsData struct {
	Monitors []MonitorInfo `json:"monitors"`
}

// RestartPayload is the optional payload of RESTART_MONITORING.
type RestartPayload struct {
	Reason string `json:"reason,omitempty"`
}

// ResolvePointPayload is a point in bottom-left-origin screen space.
type ResolvePointPayload struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// ResolveData is the data returned by RESOLVE_POINT.
type ResolveData struct {
	Point      platform.Point             `json:"point"`
	Window     *resolver.WindowDescriptor `json:"window,omitempty"`
	OnTitleBar bool                       `json:"on_title_bar"`
}

// FeedbackData is the data returned by LAST_FEEDBACK. Event is nil when no
// feedback has been published yet.
type FeedbackData struct {
	Event *gesture.FeedbackEvent `json:"event,omitempty"`
}

// PausedData is returned by PAUSE and RESUME.
type PausedData struct {
	Paused bool `json:"paused"`
}

// NewOKResponse creates a successful response with optional data
func NewOKResponse(data interface{}) (*Response, error) {
	var dataBytes json.RawMessage
	if data != nil {
		bytes, err := json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal response data: %w", err)
		}
		dataBytes = bytes
	}

	return &Response{
		Status: "OK",
		Data:   dataBytes,
	}, nil
}

// NewErrorResponse creates an error response with a message
func NewErrorResponse(errMsg string) *Response {
	return &Response{
		Status: "ERROR",
		Error:  errMsg,
	}
}

// ParseRequest parses a request from JSON bytes
func ParseRequest(data []byte) (*Request, error) {
	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("failed to parse request: %w", err)
	}
	return &req, nil
}

// Marshal converts a response to JSON bytes
func (r *Response) Marshal() ([]byte, error) {
	return json.Marshal(r)
}
