package gesture

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// denominatorFloor keeps progress finite when a threshold equals its
// reference value.
const denominatorFloor = 0.0001

// Thresholds are the tuning constants of the classifier. Distances and
// deltas are in normalized trackpad units.
type Thresholds struct {
	PinchOpen  float64
	PinchClose float64
	SwipeDown  float64
	SwipeUp    float64

	// Action thresholds decide dominance when a session ends.
	ScaleDeviationAction float64
	YDeltaAction         float64
	// Hint thresholds decide dominance for live feedback.
	ScaleDeviationHint float64
	YDeltaHint         float64

	MinStartDistance float64
	MaxStartDistance float64

	HoldToClose time.Duration
	// RestoreRadius is in screen units.
	RestoreRadius float64
}

// DefaultThresholds returns the stock tuning.
func DefaultThresholds() Thresholds {
	return Thresholds{
		PinchOpen:            1.5,
		PinchClose:           0.5,
		SwipeDown:            0.18,
		SwipeUp:              0.15,
		ScaleDeviationAction: 0.25,
		YDeltaAction:         0.10,
		ScaleDeviationHint:   0.05,
		YDeltaHint:           0.02,
		MinStartDistance:     0.05,
		MaxStartDistance:     0.85,
		HoldToClose:          time.Second,
		RestoreRadius:        150,
	}
}

// Validate reports configurations the classifier cannot honour.
func (t Thresholds) Validate() error {
	var errs []error
	if t.PinchOpen <= 1 {
		errs = append(errs, fmt.Errorf("pinch_open must be > 1 (got %v)", t.PinchOpen))
	}
	if t.PinchClose <= 0 || t.PinchClose >= 1 {
		errs = append(errs, fmt.Errorf("pinch_close must be in (0, 1) (got %v)", t.PinchClose))
	}
	if t.SwipeDown <= 0 || t.SwipeUp <= 0 {
		errs = append(errs, errors.New("swipe thresholds must be positive"))
	}
	if t.ScaleDeviationHint <= 0 || t.YDeltaHint <= 0 {
		errs = append(errs, errors.New("hint thresholds must be positive"))
	}
	if t.ScaleDeviationHint > t.ScaleDeviationAction {
		errs = append(errs, fmt.Errorf("scale_deviation_hint (%v) must not exceed scale_deviation_action (%v)", t.ScaleDeviationHint, t.ScaleDeviationAction))
	}
	if t.YDeltaHint > t.YDeltaAction {
		errs = append(errs, fmt.Errorf("y_delta_hint (%v) must not exceed y_delta_action (%v)", t.YDeltaHint, t.YDeltaAction))
	}
	if t.MinStartDistance < 0 || t.MinStartDistance >= t.MaxStartDistance {
		errs = append(errs, fmt.Errorf("start distance range [%v, %v] is empty", t.MinStartDistance, t.MaxStartDistance))
	}
	if t.HoldToClose <= 0 {
		errs = append(errs, errors.New("hold_to_close must be positive"))
	}
	if t.RestoreRadius < 0 {
		errs = append(errs, errors.New("restore_radius must not be negative"))
	}
	return errors.Join(errs...)
}

// Axis is the dominant direction of a gesture.
type Axis int

const (
	AxisNone Axis = iota
	AxisVertical
	AxisPinch
)

func (a Axis) String() string {
	switch a {
	case AxisVertical:
		return "vertical"
	case AxisPinch:
		return "pinch"
	default:
		return "none"
	}
}

// Tier selects between hint and action thresholds.
type Tier int

const (
	TierHint Tier = iota
	TierAction
)

// Sample is the session delta the classifier works on.
type Sample struct {
	Scale    float64
	YDelta   float64
	Duration time.Duration
}

// Dominance decides the dominant axis. Vertical wins when |yDelta| clears
// its threshold and is more than twice the scale deviation; pinch wins only
// when vertical does not.
func Dominance(scale, yDelta, yThreshold, scaleThreshold float64) Axis {
	absY := math.Abs(yDelta)
	dev := math.Abs(scale - 1)
	if absY > yThreshold && absY > 2*dev {
		return AxisVertical
	}
	if dev > scaleThreshold {
		return AxisPinch
	}
	return AxisNone
}

func (t Thresholds) dominance(s Sample, tier Tier) Axis {
	if tier == TierAction {
		return Dominance(s.Scale, s.YDelta, t.YDeltaAction, t.ScaleDeviationAction)
	}
	return Dominance(s.Scale, s.YDelta, t.YDeltaHint, t.ScaleDeviationHint)
}

// Classify maps a sample onto a candidate and its progress in [0,1].
// Swipe-up on a window that is not full screen becomes a hold-to-close
// whose progress is driven by time rather than displacement.
func Classify(s Sample, t Thresholds, tier Tier, fullScreen bool) (Candidate, float64) {
	switch t.dominance(s, tier) {
	case AxisVertical:
		absY := math.Abs(s.YDelta)
		if s.YDelta < 0 {
			return CandidateSwipeDown, ratio(absY, t.SwipeDown)
		}
		if !fullScreen {
			return CandidateCloseWindowHold, ratio(s.Duration.Seconds(), t.HoldToClose.Seconds())
		}
		return CandidateSwipeUp, ratio(absY, t.SwipeUp)
	case AxisPinch:
		if s.Scale >= 1 {
			return CandidatePinchOpen, ratio(s.Scale-1, t.PinchOpen-1)
		}
		return CandidatePinchClose, ratio(1-s.Scale, 1-t.PinchClose)
	}
	return CandidateNone, 0
}

func ratio(v, denom float64) float64 {
	return Clamp(v / math.Max(denom, denominatorFloor))
}

// Clamp limits v to [0,1]; NaN becomes 0.
func Clamp(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
