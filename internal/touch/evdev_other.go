//go:build !linux

package touch

import (
	"context"
	"runtime"

	"pkt.systems/pslog"
)

// Discover is only implemented on Linux.
func Discover() ([]DeviceInfo, error) {
	return nil, driverUnavailable("evdev is not available on %s", runtime.GOOS)
}

// EvdevSource is a stub outside Linux.
type EvdevSource struct {
	path string
}

func NewEvdevSource(path string, _ pslog.Logger) *EvdevSource {
	return &EvdevSource{path: path}
}

func (s *EvdevSource) Name() string { return "evdev" }

func (s *EvdevSource) Start(context.Context, FrameHandler) error {
	return driverUnavailable("evdev is not available on %s", runtime.GOOS)
}

func (s *EvdevSource) Stop() error { return nil }

func (s *EvdevSource) Wait() error { return nil }
