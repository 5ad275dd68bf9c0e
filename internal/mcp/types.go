package mcp

// EmptyInput is the input for tools that take no arguments.
type EmptyInput struct{}

// RectOutput is a rectangle in screen units.
type RectOutput struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// GestureStatusOutput is the output for the gesture_status tool.
type GestureStatusOutput struct {
	DaemonRunning     bool   `json:"daemon_running"`
	PID               int    `json:"pid"`
	UptimeSeconds     int64  `json:"uptime_seconds"`
	ConfigFile        string `json:"config_file,omitempty"`
	Monitoring        bool   `json:"monitoring"`
	Paused            bool   `json:"paused"`
	Source            string `json:"source,omitempty"`
	DriverError       string `json:"driver_error,omitempty"`
	Restarts          int    `json:"restarts"`
	LastRestartReason string `json:"last_restart_reason,omitempty"`
	GestureActive     bool   `json:"gesture_active"`
	SessionID         string `json:"session_id,omitempty"`
	// LastMinimizedWindow is the window a swipe up would restore; zero when
	// nothing is recorded.
	LastMinimizedWindow uint32 `json:"last_minimized_window,omitempty"`
	FeedbackClients     int    `json:"feedback_clients"`
}

// DisplayOutput describes one display.
type DisplayOutput struct {
	ID      int        `json:"id"`
	Name    string     `json:"name"`
	Primary bool       `json:"primary"`
	Frame   RectOutput `json:"frame"`
	Usable  RectOutput `json:"usable"`
}

// ListDisplaysOutput is the output for the list_displays tool.
type ListDisplaysOutput struct {
	Displays []DisplayOutput `json:"displays"`
}

// ResolveWindowInput is the input for the resolve_window tool.
type ResolveWindowInput struct {
	X float64 `json:"x" jsonschema:"required,Horizontal screen coordinate"`
	Y float64 `json:"y" jsonschema:"required,Vertical screen coordinate measured upward from the bottom of the primary display"`
}

// ResolveWindowOutput is the output for the resolve_window tool.
type ResolveWindowOutput struct {
	Found      bool       `json:"found"`
	OnTitleBar bool       `json:"on_title_bar"`
	Handle     uint32     `json:"handle,omitempty"`
	PID        int        `json:"pid,omitempty"`
	AppID      string     `json:"app_id,omitempty"`
	FullScreen bool       `json:"full_screen"`
	Frame      RectOutput `json:"frame"`
	Match      string     `json:"match,omitempty"`
}

// RestartMonitoringInput is the input for the restart_monitoring tool.
type RestartMonitoringInput struct {
	Reason string `json:"reason,omitempty" jsonschema:"Reason recorded with the restart (default: user_request)"`
}

// RestartMonitoringOutput is the output for the restart_monitoring tool.
type RestartMonitoringOutput struct {
	Requested bool   `json:"requested"`
	Reason    string `json:"reason"`
}

// SetPausedInput is the input for the set_paused tool.
type SetPausedInput struct {
	Paused bool `json:"paused" jsonschema:"required,True to stop acting on gestures, false to resume"`
}

// SetPausedOutput is the output for the set_paused tool.
type SetPausedOutput struct {
	Paused bool `json:"paused"`
}

// LastFeedbackOutput is the output for the last_feedback tool.
type LastFeedbackOutput struct {
	Available       bool    `json:"available"`
	SessionID       string  `json:"session_id,omitempty"`
	Phase           string  `json:"phase,omitempty"`
	Candidate       string  `json:"candidate,omitempty"`
	Title           string  `json:"title,omitempty"`
	Action          string  `json:"action,omitempty"`
	Progress        float64 `json:"progress"`
	Scale           float64 `json:"scale"`
	YDelta          float64 `json:"y_delta"`
	DurationSeconds float64 `json:"duration_seconds"`
	InValidRegion   bool    `json:"in_valid_region"`
}
