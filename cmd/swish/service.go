package main

import (
	"github.com/1broseidon/swish/internal/daemon"
	"github.com/1broseidon/swish/internal/gesture"
	"github.com/1broseidon/swish/internal/ipc"
	"github.com/1broseidon/swish/internal/platform"
	"github.com/1broseidon/swish/internal/resolver"
)

type monitorControl interface {
	Status() daemon.MonitorStatus
	RequestRestart(reason string)
	Pause()
	Resume()
}

type engineStatus interface {
	Status() gesture.Status
}

type pointProber interface {
	Probe(p platform.Point) resolver.Probe
}

type feedbackStore interface {
	Get() (gesture.FeedbackEvent, bool)
}

// service exposes the running daemon to IPC clients.
type service struct {
	configFile string
	monitor    monitorControl
	engine     engineStatus
	resolver   pointProber
	displays   platform.DisplayServer
	latest     feedbackStore
	// clients is nil when the websocket endpoint is disabled.
	clients func() int
}

var _ ipc.Handler = (*service)(nil)

func (s *service) Status() ipc.StatusData {
	st := ipc.StatusData{
		ConfigFile: s.configFile,
		Monitor:    s.monitor.Status(),
		Gesture:    s.engine.Status(),
	}
	if s.clients != nil {
		st.FeedbackClients = s.clients()
	}
	return st
}

func (s *service) Displays() ([]ipc.MonitorInfo, error) {
	displays, err := s.displays.Displays()
	if err != nil {
		return nil, err
	}
	primaryID := -1
	if id, err := s.displays.PrimaryDisplayID(); err == nil {
		primaryID = id
	}
	primary, _ := platform.PrimaryDisplay(displays, primaryID)

	out := make([]ipc.MonitorInfo, 0, len(displays))
	for _, d := range displays {
		out = append(out, ipc.MonitorInfo{
			ID:      d.ID,
			Name:    d.Name,
			Primary: d.ID == primary.ID,
			Frame:   d.Frame,
			Usable:  d.Usable,
		})
	}
	return out, nil
}

func (s *service) RestartMonitoring(reason string) {
	s.monitor.RequestRestart(reason)
}

func (s *service) SetPaused(paused bool) bool {
	if paused {
		s.monitor.Pause()
	} else {
		s.monitor.Resume()
	}
	return s.monitor.Status().Paused
}

func (s *service) LastFeedback() (gesture.FeedbackEvent, bool) {
	return s.latest.Get()
}

func (s *service) ResolvePoint(p platform.Point) ipc.ResolveData {
	probe := s.resolver.Probe(p)
	return ipc.ResolveData{Point: p, Window: probe.Window, OnTitleBar: probe.OnTitleBar}
}
