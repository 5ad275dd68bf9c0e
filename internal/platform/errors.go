package platform

import "errors"

var (
	// ErrNoTarget means no eligible window or display was found.
	ErrNoTarget = errors.New("no target window")
	// ErrStaleHandle means a previously resolved window no longer exists.
	ErrStaleHandle = errors.New("stale window handle")
	// ErrAttributeUnavailable means the window does not expose an optional
	// attribute or control.
	ErrAttributeUnavailable = errors.New("window attribute unavailable")
	// ErrDriverUnavailable means the touch input source could not be opened
	// or started.
	ErrDriverUnavailable = errors.New("touch driver unavailable")
)

// Recoverable reports whether err belongs to a category that is handled
// locally as a no-op rather than surfaced to the caller.
func Recoverable(err error) bool {
	return errors.Is(err, ErrNoTarget) ||
		errors.Is(err, ErrStaleHandle) ||
		errors.Is(err, ErrAttributeUnavailable)
}
