package gesture

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/1broseidon/swish/internal/platform"
)

func TestClassify(t *testing.T) {
	th := DefaultThresholds()
	tests := []struct {
		name       string
		sample     Sample
		tier       Tier
		fullScreen bool
		want       Candidate
		progress   float64
	}{
		{name: "idle", sample: Sample{Scale: 1}, tier: TierHint, want: CandidateNone},
		{name: "spread hint", sample: Sample{Scale: 1.25}, tier: TierHint, want: CandidatePinchOpen, progress: 0.5},
		{name: "spread below action", sample: Sample{Scale: 1.2}, tier: TierAction, want: CandidateNone},
		{name: "pinch", sample: Sample{Scale: 0.75}, tier: TierHint, want: CandidatePinchClose, progress: 0.5},
		{name: "swipe down", sample: Sample{Scale: 1, YDelta: -0.09}, tier: TierHint, want: CandidateSwipeDown, progress: 0.5},
		{name: "swipe up windowed holds", sample: Sample{Scale: 1, YDelta: 0.1, Duration: 250 * time.Millisecond}, tier: TierHint, want: CandidateCloseWindowHold, progress: 0.25},
		{name: "swipe up full screen", sample: Sample{Scale: 1, YDelta: 0.075}, tier: TierHint, fullScreen: true, want: CandidateSwipeUp, progress: 0.5},
		{name: "vertical beats small pinch", sample: Sample{Scale: 1.05, YDelta: 0.2}, tier: TierAction, fullScreen: true, want: CandidateSwipeUp, progress: 1},
		{name: "pinch beats weak vertical", sample: Sample{Scale: 1.6, YDelta: 0.2}, tier: TierAction, want: CandidatePinchOpen, progress: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, progress := Classify(tt.sample, th, tt.tier, tt.fullScreen)
			assert.Equal(t, tt.want, got)
			assert.InDelta(t, tt.progress, progress, 1e-9)
		})
	}
}

func TestDominanceIsExclusive(t *testing.T) {
	th := DefaultThresholds()
	for scale := 0.0; scale <= 3.0; scale += 0.05 {
		for y := -1.0; y <= 1.0; y += 0.01 {
			for _, tier := range []Tier{TierHint, TierAction} {
				yThr, sThr := th.YDeltaHint, th.ScaleDeviationHint
				if tier == TierAction {
					yThr, sThr = th.YDeltaAction, th.ScaleDeviationAction
				}
				absY, dev := math.Abs(y), math.Abs(scale-1)
				switch Dominance(scale, y, yThr, sThr) {
				case AxisVertical:
					require.True(t, absY > yThr && absY > 2*dev, "scale=%v y=%v", scale, y)
				case AxisPinch:
					require.False(t, absY > yThr && absY > 2*dev, "scale=%v y=%v", scale, y)
					require.Greater(t, dev, sThr)
				default:
					require.False(t, absY > yThr && absY > 2*dev)
					require.LessOrEqual(t, dev, sThr)
				}
			}
		}
	}
}

func TestProgressDenominatorFloor(t *testing.T) {
	th := DefaultThresholds()
	th.PinchOpen = 1
	th.PinchClose = 1
	th.SwipeDown = 0

	for _, s := range []Sample{{Scale: 1.3}, {Scale: 0.7}, {Scale: 1, YDelta: -0.3}} {
		_, p := Classify(s, th, TierAction, false)
		assert.False(t, math.IsNaN(p) || math.IsInf(p, 0))
		assert.Equal(t, 1.0, p)
	}
}

func TestClamp(t *testing.T) {
	assert.Equal(t, 0.0, Clamp(-0.5))
	assert.Equal(t, 0.0, Clamp(math.NaN()))
	assert.Equal(t, 1.0, Clamp(math.Inf(1)))
	assert.Equal(t, 0.4, Clamp(0.4))
}

func TestThresholdsValidate(t *testing.T) {
	require.NoError(t, DefaultThresholds().Validate())

	tests := []struct {
		name   string
		mutate func(*Thresholds)
	}{
		{name: "hint above action scale", mutate: func(t *Thresholds) { t.ScaleDeviationHint = 0.3 }},
		{name: "hint above action y", mutate: func(t *Thresholds) { t.YDeltaHint = 0.2 }},
		{name: "pinch open not above one", mutate: func(t *Thresholds) { t.PinchOpen = 1 }},
		{name: "pinch close out of range", mutate: func(t *Thresholds) { t.PinchClose = 1.2 }},
		{name: "empty start range", mutate: func(t *Thresholds) { t.MinStartDistance = 0.9 }},
		{name: "zero hold", mutate: func(t *Thresholds) { t.HoldToClose = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			th := DefaultThresholds()
			tt.mutate(&th)
			assert.Error(t, th.Validate())
		})
	}
}

func TestFeedbackEventJSON(t *testing.T) {
	frame := platform.Rect{X: 1, Y: 2, Width: 3, Height: 4}
	ev := FeedbackEvent{
		SessionID:     "s",
		Phase:         PhaseChanged,
		Candidate:     CandidateCloseWindowHold,
		Progress:      0.5,
		Scale:         1,
		YDelta:        0.1,
		Duration:      1500 * time.Millisecond,
		InValidRegion: true,
		WindowFrame:   &frame,
	}
	b, err := json.Marshal(ev)
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(b, &raw))
	assert.Equal(t, "changed", raw["phase"])
	assert.Equal(t, "close_window_hold", raw["candidate"])
	assert.Equal(t, 1.5, raw["duration"])
}

func TestCandidateLabels(t *testing.T) {
	assert.Equal(t, "Close window", CandidateCloseWindowHold.Action())
	assert.Equal(t, "Un-minimize", CandidateSwipeUp.Action())
	assert.Equal(t, "Full screen", CandidatePinchOpen.Action())
	assert.NotEmpty(t, CandidateNone.Title())
}
