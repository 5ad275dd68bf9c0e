package touch

import (
	"bytes"
	"context"
	"encoding/binary"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/1broseidon/swish/internal/platform"
)

func ev(typ, code uint16, value int32) inputEvent {
	return inputEvent{Type: typ, Code: code, Value: value}
}

func TestDecoderAssemblesFrames(t *testing.T) {
	d := newMTDecoder("pad", axisRange{Min: 0, Max: 1000}, axisRange{Min: 0, Max: 500}, 5)

	events := []inputEvent{
		ev(evAbs, absMTSlot, 0),
		ev(evAbs, absMTTracking, 11),
		ev(evAbs, absMTPositionX, 250),
		ev(evAbs, absMTPositionY, 100),
		ev(evAbs, absMTSlot, 1),
		ev(evAbs, absMTTracking, 12),
		ev(evAbs, absMTPositionX, 750),
		ev(evAbs, absMTPositionY, 100),
	}
	for _, e := range events {
		_, emit, _ := d.feed(e)
		require.False(t, emit)
	}
	f, emit, resync := d.feed(ev(evSyn, synReport, 0))
	require.True(t, emit)
	require.False(t, resync)
	require.Len(t, f.Contacts, 2)
	assert.Equal(t, "pad", f.Device)
	assert.Equal(t, Contact{ID: 11, X: 0.25, Y: 0.8, Live: true}, f.Contacts[0])
	assert.Equal(t, Contact{ID: 12, X: 0.75, Y: 0.8, Live: true}, f.Contacts[1])

	// Moving up on the pad lowers the raw Y and raises the normalized Y.
	d.feed(ev(evAbs, absMTSlot, 0))
	d.feed(ev(evAbs, absMTPositionY, 50))
	f, _, _ = d.feed(ev(evSyn, synReport, 0))
	assert.InDelta(t, 0.9, f.Contacts[0].Y, 1e-9)

	// Lifting both fingers reports an empty frame once.
	d.feed(ev(evAbs, absMTTracking, -1))
	d.feed(ev(evAbs, absMTSlot, 1))
	d.feed(ev(evAbs, absMTTracking, -1))
	f, emit, _ = d.feed(ev(evSyn, synReport, 0))
	require.True(t, emit)
	assert.Empty(t, f.Contacts)
	_, emit, _ = d.feed(ev(evSyn, synReport, 0))
	assert.False(t, emit)
}

func TestDecoderDroppedEventsRequestResync(t *testing.T) {
	d := newMTDecoder("pad", axisRange{Max: 100}, axisRange{Max: 100}, 2)
	d.feed(ev(evAbs, absMTTracking, 1))
	d.feed(ev(evSyn, synReport, 0))

	_, emit, _ := d.feed(ev(evSyn, synDropped, 0))
	assert.False(t, emit)
	d.feed(ev(evAbs, absMTPositionX, 99))
	_, emit, resync := d.feed(ev(evSyn, synReport, 0))
	assert.False(t, emit)
	assert.True(t, resync)
	assert.Equal(t, int32(0), d.slots[0].x, "events during a drop are discarded")

	d.load([]int32{5, 6}, []int32{10, 20}, []int32{30, 40})
	f, emit, _ := d.feed(ev(evSyn, synReport, 0))
	require.True(t, emit)
	require.Len(t, f.Contacts, 2)
	assert.Equal(t, 5, f.Contacts[0].ID)
}

func TestDecoderIgnoresOutOfRangeSlot(t *testing.T) {
	d := newMTDecoder("pad", axisRange{Max: 100}, axisRange{Max: 100}, 2)
	d.feed(ev(evAbs, absMTSlot, 7))
	d.feed(ev(evAbs, absMTTracking, 3))
	_, emit, _ := d.feed(ev(evSyn, synReport, 0))
	assert.False(t, emit)
}

func TestDecodeInputEvent(t *testing.T) {
	b := make([]byte, inputEventSize)
	binary.NativeEndian.PutUint64(b[0:8], 10)
	binary.NativeEndian.PutUint64(b[8:16], 500)
	binary.NativeEndian.PutUint16(b[16:18], evAbs)
	binary.NativeEndian.PutUint16(b[18:20], absMTTracking)
	var minusOne int32 = -1
	binary.NativeEndian.PutUint32(b[20:24], uint32(minusOne))

	e := decodeInputEvent(b)
	assert.Equal(t, uint16(evAbs), e.Type)
	assert.Equal(t, uint16(absMTTracking), e.Code)
	assert.Equal(t, int32(-1), e.Value)
	assert.Equal(t, time.Unix(10, 500_000), e.Time)
}

func TestContactUsable(t *testing.T) {
	f := Frame{Contacts: []Contact{
		{ID: 1, X: 0.5, Y: 0.5, Live: true},
		{ID: 2, X: 0.5, Y: 0.5},
		{ID: 3, X: -0.1, Y: 0.5, Live: true},
		{ID: 4, X: 0.5, Y: 1.01, Live: true},
	}}
	got := f.Usable()
	require.Len(t, got, 1)
	assert.Equal(t, 1, got[0].ID)
}

func TestRecordAndReplay(t *testing.T) {
	var buf bytes.Buffer
	rec := NewRecorder(&buf)
	var passed int
	h := rec.Wrap(func(Frame) { passed++ })

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	h(Frame{Device: "pad", Timestamp: base, Contacts: []Contact{{ID: 1, X: 0.1, Y: 0.2, Live: true}}})
	h(Frame{Device: "pad", Timestamp: base.Add(10 * time.Millisecond)})
	require.NoError(t, rec.Err())
	assert.Equal(t, 2, passed)

	src := NewReplayReader("buf", &buf)
	var got []Frame
	require.NoError(t, src.Start(context.Background(), func(f Frame) { got = append(got, f) }))
	require.NoError(t, src.Wait())

	require.Len(t, got, 2)
	assert.Equal(t, 0.2, got[0].Contacts[0].Y)
	assert.True(t, got[1].Timestamp.Equal(base.Add(10*time.Millisecond)))
	assert.Equal(t, "replay:buf", src.Name())
}

func TestReplayReportsBadInput(t *testing.T) {
	src := NewReplayReader("bad", strings.NewReader("{\"device\":\"x\"}\nnot json\n"))
	require.NoError(t, src.Start(context.Background(), func(Frame) {}))
	err := src.Wait()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2")
}

func TestReplayMissingFileIsDriverUnavailable(t *testing.T) {
	src := NewReplayFile(t.TempDir() + "/missing.jsonl")
	err := src.Start(context.Background(), func(Frame) {})
	assert.ErrorIs(t, err, platform.ErrDriverUnavailable)
}

func TestReplayStopInterruptsPacing(t *testing.T) {
	base := time.Now()
	var buf bytes.Buffer
	rec := NewRecorder(&buf)
	h := rec.Wrap(func(Frame) {})
	h(Frame{Timestamp: base})
	h(Frame{Timestamp: base.Add(time.Hour)})

	src := NewReplayReader("slow", &buf)
	src.Speed = 1
	frames := make(chan Frame, 2)
	require.NoError(t, src.Start(context.Background(), func(f Frame) { frames <- f }))
	<-frames

	done := make(chan struct{})
	go func() {
		_ = src.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("stop did not interrupt playback")
	}
	assert.NoError(t, src.Wait())
	assert.Len(t, frames, 0)
}
