package actions

import (
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pkt.systems/pslog"

	"github.com/1broseidon/swish/internal/platform"
	"github.com/1broseidon/swish/internal/resolver"
)

type fakeAutomation struct {
	platform.Automation

	fullScreen    bool
	fullScreenErr error
	setErr        error
	hasControl    bool
	pressErr      error
	hasClose      bool
	shortcutErr   error
	minimizeErr   error

	calls []string
}

func (f *fakeAutomation) FullScreen(platform.WindowHandle) (bool, error) {
	f.calls = append(f.calls, "get")
	return f.fullScreen, f.fullScreenErr
}

func (f *fakeAutomation) SetFullScreen(_ platform.WindowHandle, on bool) error {
	if on {
		f.calls = append(f.calls, "set:on")
	} else {
		f.calls = append(f.calls, "set:off")
	}
	return f.setErr
}

func (f *fakeAutomation) HasFullScreenControl(platform.WindowHandle) bool { return f.hasControl }

func (f *fakeAutomation) PressFullScreen(platform.WindowHandle) error {
	f.calls = append(f.calls, "press")
	return f.pressErr
}

func (f *fakeAutomation) SendFullScreenShortcut(platform.WindowHandle) error {
	f.calls = append(f.calls, "shortcut")
	return f.shortcutErr
}

func (f *fakeAutomation) HasCloseControl(platform.WindowHandle) bool { return f.hasClose }

func (f *fakeAutomation) PressClose(platform.WindowHandle) error {
	f.calls = append(f.calls, "close")
	return nil
}

func (f *fakeAutomation) SetMinimized(_ platform.WindowHandle, minimized bool) error {
	if minimized {
		f.calls = append(f.calls, "minimize")
	} else {
		f.calls = append(f.calls, "unminimize")
	}
	return f.minimizeErr
}

func quietLogger() pslog.Logger {
	return pslog.NewWithOptions(io.Discard, pslog.Options{Mode: pslog.ModeStructured, NoColor: true, MinLevel: pslog.InfoLevel})
}

func window(app string, fullScreen bool) *resolver.WindowDescriptor {
	return &resolver.WindowDescriptor{Handle: 9, OwnerAppID: app, IsFullScreen: fullScreen}
}

func TestToggleFullScreenOrder(t *testing.T) {
	tests := []struct {
		name    string
		app     string
		auto    fakeAutomation
		want    []string
		wantErr bool
	}{
		{
			name: "vendor uses shortcut only",
			app:  "google-chrome",
			want: []string{"shortcut"},
		},
		{
			name: "native attribute flips state",
			auto: fakeAutomation{fullScreen: true},
			want: []string{"get", "set:off"},
		},
		{
			name: "control when attribute unavailable",
			auto: fakeAutomation{fullScreenErr: platform.ErrAttributeUnavailable, hasControl: true},
			want: []string{"get", "press"},
		},
		{
			name: "shortcut when set fails and no control",
			auto: fakeAutomation{setErr: errors.New("denied")},
			want: []string{"get", "set:on", "shortcut"},
		},
		{
			name:    "stale handle stops early",
			auto:    fakeAutomation{fullScreenErr: platform.ErrStaleHandle},
			want:    []string{"get"},
			wantErr: true,
		},
		{
			name: "every path fails",
			auto: fakeAutomation{
				fullScreenErr: platform.ErrAttributeUnavailable,
				hasControl:    true,
				pressErr:      errors.New("press failed"),
				shortcutErr:   errors.New("no xtest"),
			},
			want:    []string{"get", "press", "shortcut"},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			auto := tt.auto
			e := New(&auto, []string{"Google-chrome"}, quietLogger())
			err := e.ToggleFullScreen(window(tt.app, false))
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.want, auto.calls)
		})
	}
}

func TestRestoreRequiresFullScreen(t *testing.T) {
	auto := &fakeAutomation{fullScreen: true}
	e := New(auto, nil, quietLogger())

	require.NoError(t, e.Restore(window("xterm", false)))
	assert.Empty(t, auto.calls)

	require.NoError(t, e.Restore(window("xterm", true)))
	assert.Equal(t, []string{"get", "set:off"}, auto.calls)
}

func TestCloseNeedsControl(t *testing.T) {
	auto := &fakeAutomation{}
	e := New(auto, nil, quietLogger())

	err := e.Close(window("xterm", false))
	require.ErrorIs(t, err, platform.ErrAttributeUnavailable)
	assert.Empty(t, auto.calls)

	auto.hasClose = true
	require.NoError(t, e.Close(window("xterm", false)))
	assert.Equal(t, []string{"close"}, auto.calls)
}

func TestMinimizeWrapsErrors(t *testing.T) {
	auto := &fakeAutomation{minimizeErr: platform.ErrStaleHandle}
	e := New(auto, nil, quietLogger())

	assert.ErrorIs(t, e.Minimize(window("xterm", false)), platform.ErrStaleHandle)
	assert.ErrorIs(t, e.Unminimize(9), platform.ErrStaleHandle)
	assert.ErrorIs(t, e.Unminimize(0), platform.ErrNoTarget)
	assert.ErrorIs(t, e.Minimize(nil), platform.ErrNoTarget)
}

func TestDryRunRecords(t *testing.T) {
	d := NewDryRun(quietLogger())
	require.NoError(t, d.Minimize(window("xterm", false)))
	require.NoError(t, d.Restore(window("xterm", false)))
	require.NoError(t, d.Restore(window("xterm", true)))

	got := d.Performed()
	require.Len(t, got, 2)
	assert.Equal(t, "minimize", got[0].Action)
	assert.Equal(t, "restore", got[1].Action)
}
