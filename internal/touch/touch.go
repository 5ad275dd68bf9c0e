// Package touch delivers raw multitouch frames from a trackpad.
//
// Coordinates are normalized to [0,1] with the origin at the bottom-left
// of the pad, so increasing Y means the fingers moved up.
package touch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/1broseidon/swish/internal/platform"
)

// Contact is one finger on the pad.
type Contact struct {
	ID   int     `json:"id"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	Live bool    `json:"live"`
}

// Usable reports whether the contact is touching and inside the pad.
func (c Contact) Usable() bool {
	return c.Live && c.X >= 0 && c.X <= 1 && c.Y >= 0 && c.Y <= 1
}

// Frame is a snapshot of every contact on a device at one instant.
type Frame struct {
	Device    string    `json:"device"`
	Timestamp time.Time `json:"timestamp"`
	Contacts  []Contact `json:"contacts"`
}

// Usable returns the contacts that pass Contact.Usable.
func (f Frame) Usable() []Contact {
	out := make([]Contact, 0, len(f.Contacts))
	for _, c := range f.Contacts {
		if c.Usable() {
			out = append(out, c)
		}
	}
	return out
}

// FrameHandler receives frames. Implementations must not block for long;
// the source calls it from its reader goroutine.
type FrameHandler func(Frame)

// Source is a stream of touch frames.
type Source interface {
	// Start begins delivering frames to h until ctx is done or Stop is
	// called. It returns once delivery has started.
	Start(ctx context.Context, h FrameHandler) error
	// Stop ends delivery and waits for the reader to exit.
	Stop() error
	// Wait blocks until delivery ends and returns the error that ended
	// it, or nil after Stop or a clean end of input.
	Wait() error
	// Name identifies the source in logs.
	Name() string
}

// ErrNoDevices is returned when discovery finds no multitouch pad.
var ErrNoDevices = errors.New("no multitouch devices found")

func driverUnavailable(format string, args ...any) error {
	return fmt.Errorf("%w: %s", platform.ErrDriverUnavailable, fmt.Sprintf(format, args...))
}
