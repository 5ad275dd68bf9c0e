package gesture

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/1broseidon/swish/internal/platform"
)

// Phase is the lifecycle position of a feedback event.
type Phase int

const (
	PhaseBegan Phase = iota
	PhaseChanged
	PhaseEnded
	PhaseCancelled
)

func (p Phase) String() string {
	switch p {
	case PhaseBegan:
		return "began"
	case PhaseChanged:
		return "changed"
	case PhaseEnded:
		return "ended"
	case PhaseCancelled:
		return "cancelled"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// MarshalText renders the phase as its name.
func (p Phase) MarshalText() ([]byte, error) { return []byte(p.String()), nil }

// UnmarshalText parses a phase name.
func (p *Phase) UnmarshalText(b []byte) error {
	for _, c := range []Phase{PhaseBegan, PhaseChanged, PhaseEnded, PhaseCancelled} {
		if strings.EqualFold(string(b), c.String()) {
			*p = c
			return nil
		}
	}
	return fmt.Errorf("unknown phase %q", b)
}

// Candidate is the gesture the engine currently believes is in progress.
type Candidate int

const (
	CandidateNone Candidate = iota
	CandidatePinchOpen
	CandidatePinchClose
	CandidateSwipeDown
	CandidateSwipeUp
	CandidateCloseWindowHold
	CandidateCancelled
)

var candidateNames = map[Candidate]string{
	CandidateNone:            "none",
	CandidatePinchOpen:       "pinch_open",
	CandidatePinchClose:      "pinch_close",
	CandidateSwipeDown:       "swipe_down",
	CandidateSwipeUp:         "swipe_up",
	CandidateCloseWindowHold: "close_window_hold",
	CandidateCancelled:       "cancelled",
}

func (c Candidate) String() string {
	if name, ok := candidateNames[c]; ok {
		return name
	}
	return fmt.Sprintf("candidate(%d)", int(c))
}

// Title is the short label shown while the gesture is in progress.
func (c Candidate) Title() string {
	switch c {
	case CandidatePinchOpen:
		return "Two-finger spread"
	case CandidatePinchClose:
		return "Two-finger pinch"
	case CandidateSwipeDown:
		return "Two-finger swipe down"
	case CandidateSwipeUp:
		return "Two-finger swipe up"
	case CandidateCloseWindowHold:
		return "Swipe up and hold"
	case CandidateCancelled:
		return "Cancelled"
	default:
		return "Title bar"
	}
}

// Action describes what releasing now would do.
func (c Candidate) Action() string {
	switch c {
	case CandidatePinchOpen:
		return "Full screen"
	case CandidatePinchClose:
		return "Restore"
	case CandidateSwipeDown:
		return "Minimize"
	case CandidateSwipeUp:
		return "Un-minimize"
	case CandidateCloseWindowHold:
		return "Close window"
	case CandidateCancelled:
		return "No action"
	default:
		return "Gesture in progress"
	}
}

// MarshalText renders the candidate as its name.
func (c Candidate) MarshalText() ([]byte, error) { return []byte(c.String()), nil }

// UnmarshalText parses a candidate name.
func (c *Candidate) UnmarshalText(b []byte) error {
	for cand, name := range candidateNames {
		if strings.EqualFold(string(b), name) {
			*c = cand
			return nil
		}
	}
	return fmt.Errorf("unknown candidate %q", b)
}

// FeedbackEvent is emitted once per processed frame of a session and once
// when the session ends.
type FeedbackEvent struct {
	SessionID     string
	Phase         Phase
	Candidate     Candidate
	Progress      float64
	Scale         float64
	YDelta        float64
	Duration      time.Duration
	InValidRegion bool
	MouseLocation platform.Point
	WindowFrame   *platform.Rect
	Timestamp     time.Time
}

type feedbackJSON struct {
	SessionID     string         `json:"session_id"`
	Phase         Phase          `json:"phase"`
	Candidate     Candidate      `json:"candidate"`
	Progress      float64        `json:"progress"`
	Scale         float64        `json:"scale"`
	YDelta        float64        `json:"y_delta"`
	Duration      float64        `json:"duration"`
	InValidRegion bool           `json:"in_valid_region"`
	MouseLocation platform.Point `json:"mouse_location"`
	WindowFrame   *platform.Rect `json:"window_frame,omitempty"`
	Timestamp     time.Time      `json:"timestamp"`
}

// MarshalJSON encodes the event with the duration in seconds.
func (e FeedbackEvent) MarshalJSON() ([]byte, error) {
	return json.Marshal(feedbackJSON{
		SessionID:     e.SessionID,
		Phase:         e.Phase,
		Candidate:     e.Candidate,
		Progress:      e.Progress,
		Scale:         e.Scale,
		YDelta:        e.YDelta,
		Duration:      e.Duration.Seconds(),
		InValidRegion: e.InValidRegion,
		MouseLocation: e.MouseLocation,
		WindowFrame:   e.WindowFrame,
		Timestamp:     e.Timestamp,
	})
}

// UnmarshalJSON is the inverse of MarshalJSON.
func (e *FeedbackEvent) UnmarshalJSON(b []byte) error {
	var raw feedbackJSON
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	*e = FeedbackEvent{
		SessionID:     raw.SessionID,
		Phase:         raw.Phase,
		Candidate:     raw.Candidate,
		Progress:      raw.Progress,
		Scale:         raw.Scale,
		YDelta:        raw.YDelta,
		Duration:      time.Duration(raw.Duration * float64(time.Second)),
		InValidRegion: raw.InValidRegion,
		MouseLocation: raw.MouseLocation,
		WindowFrame:   raw.WindowFrame,
		Timestamp:     raw.Timestamp,
	}
	return nil
}

// Visible reports whether a renderer should show this event.
func (e FeedbackEvent) Visible() bool {
	return e.InValidRegion && (e.Phase == PhaseBegan || e.Phase == PhaseChanged)
}
