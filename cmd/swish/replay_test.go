package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/1broseidon/swish/internal/touch"
)

func writeRecording(t *testing.T, frames []touch.Frame) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "frames.jsonl")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	enc := json.NewEncoder(f)
	for _, fr := range frames {
		require.NoError(t, enc.Encode(fr))
	}
	return path
}

func twoFingers(at time.Time, x1, y1, x2, y2 float64) touch.Frame {
	return touch.Frame{Device: "test", Timestamp: at, Contacts: []touch.Contact{
		{ID: 1, X: x1, Y: y1, Live: true},
		{ID: 2, X: x2, Y: y2, Live: true},
	}}
}

func TestReplaySwipeDownReportsMinimize(t *testing.T) {
	t0 := time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC)
	path := writeRecording(t, []touch.Frame{
		twoFingers(t0, 0.4, 0.6, 0.6, 0.6),
		twoFingers(t0.Add(150*time.Millisecond), 0.4, 0.35, 0.6, 0.35),
		{Device: "test", Timestamp: t0.Add(170 * time.Millisecond)},
	})

	root := &rootOptions{configPath: filepath.Join(t.TempDir(), "missing.yaml"), logLevel: "error", jsonOutput: true}
	var out bytes.Buffer
	require.NoError(t, runReplay(context.Background(), &out, root, &replayOptions{}, path))

	var report replayReport
	require.NoError(t, json.Unmarshal(out.Bytes(), &report))
	assert.Equal(t, 3, report.Frames)
	assert.NotZero(t, report.Events)
	require.Len(t, report.Actions, 1)
	assert.Equal(t, "minimize", report.Actions[0].Action)
	assert.Equal(t, "replay", report.Actions[0].App)
}

func TestReplayMissingFile(t *testing.T) {
	root := &rootOptions{configPath: filepath.Join(t.TempDir(), "missing.yaml"), logLevel: "error"}
	err := runReplay(context.Background(), &bytes.Buffer{}, root, &replayOptions{}, filepath.Join(t.TempDir(), "nope.jsonl"))
	assert.Error(t, err)
}

func TestFrameClockFallsBackToWallTime(t *testing.T) {
	var c frameClock
	before := time.Now()
	assert.False(t, c.Now().Before(before))

	at := time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC)
	c.set(at)
	assert.Equal(t, at, c.Now())
}

func TestParsePoint(t *testing.T) {
	p, err := parsePoint("120.5", "1040")
	require.NoError(t, err)
	assert.Equal(t, 120.5, p.X)
	assert.Equal(t, 1040.0, p.Y)

	_, err = parsePoint("x", "1")
	assert.Error(t, err)
	_, err = parsePoint("1", "")
	assert.Error(t, err)
}
