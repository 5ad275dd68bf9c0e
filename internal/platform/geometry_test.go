package platform

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRectContainsIsHalfOpen(t *testing.T) {
	r := Rect{X: 10, Y: 20, Width: 100, Height: 50}

	assert.True(t, r.Contains(Point{X: 10, Y: 20}))
	assert.True(t, r.Contains(Point{X: 109.9, Y: 69.9}))
	assert.False(t, r.Contains(Point{X: 110, Y: 30}))
	assert.False(t, r.Contains(Point{X: 50, Y: 70}))
	assert.False(t, r.Contains(Point{X: 9.9, Y: 30}))
}

func TestRectIntersect(t *testing.T) {
	tests := []struct {
		name string
		a, b Rect
		want Rect
	}{
		{
			name: "overlap",
			a:    Rect{X: 0, Y: 0, Width: 100, Height: 100},
			b:    Rect{X: 50, Y: 25, Width: 100, Height: 100},
			want: Rect{X: 50, Y: 25, Width: 50, Height: 75},
		},
		{
			name: "touching edges do not intersect",
			a:    Rect{X: 0, Y: 0, Width: 100, Height: 100},
			b:    Rect{X: 100, Y: 0, Width: 10, Height: 10},
			want: Rect{},
		},
		{
			name: "contained",
			a:    Rect{X: 0, Y: 0, Width: 100, Height: 100},
			b:    Rect{X: 10, Y: 10, Width: 5, Height: 5},
			want: Rect{X: 10, Y: 10, Width: 5, Height: 5},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.a.Intersect(tt.b))
			assert.Equal(t, tt.want.Area(), tt.a.Intersect(tt.b).Area())
		})
	}
}

func TestRectInsetClampsToZero(t *testing.T) {
	r := Rect{X: 0, Y: 0, Width: 1920, Height: 1080}

	usable := r.Inset(Insets{Top: 30, Bottom: 48})
	assert.Equal(t, Rect{X: 0, Y: 30, Width: 1920, Height: 1002}, usable)

	collapsed := Rect{Width: 10, Height: 10}.Inset(Insets{Left: 8, Right: 8})
	assert.Zero(t, collapsed.Width)
	assert.True(t, collapsed.Empty())
}

func TestPointDistance(t *testing.T) {
	assert.InDelta(t, 5.0, Point{X: 0, Y: 0}.Distance(Point{X: 3, Y: 4}), 1e-9)
}

func TestPrimaryDisplayFallsBackToFirst(t *testing.T) {
	displays := []Display{{ID: 3, Name: "DP-1"}, {ID: 7, Name: "HDMI-1"}}

	got, ok := PrimaryDisplay(displays, 7)
	require.True(t, ok)
	assert.Equal(t, "HDMI-1", got.Name)

	got, ok = PrimaryDisplay(displays, 42)
	require.True(t, ok)
	assert.Equal(t, "DP-1", got.Name)

	_, ok = PrimaryDisplay(nil, 0)
	assert.False(t, ok)
}

func TestRecoverable(t *testing.T) {
	assert.True(t, Recoverable(fmt.Errorf("wrapped: %w", ErrStaleHandle)))
	assert.True(t, Recoverable(ErrNoTarget))
	assert.True(t, Recoverable(fmt.Errorf("%w: close", ErrAttributeUnavailable)))
	assert.False(t, Recoverable(ErrDriverUnavailable))
	assert.False(t, Recoverable(errors.New("boom")))
}
