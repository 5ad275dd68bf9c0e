package touch

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// ReplaySource plays back frames recorded as JSON lines. With Speed > 0
// it sleeps between frames according to their timestamps divided by Speed;
// otherwise frames are delivered back to back.
type ReplaySource struct {
	open  func() (io.ReadCloser, error)
	name  string
	Speed float64

	loop loop
}

// NewReplayFile replays the JSON-lines file at path.
func NewReplayFile(path string) *ReplaySource {
	return &ReplaySource{
		name: path,
		open: func() (io.ReadCloser, error) { return os.Open(path) },
	}
}

// NewReplayReader replays frames from r.
func NewReplayReader(name string, r io.Reader) *ReplaySource {
	return &ReplaySource{
		name: name,
		open: func() (io.ReadCloser, error) { return io.NopCloser(r), nil },
	}
}

func (s *ReplaySource) Name() string { return "replay:" + s.name }

// Start opens the recording and begins playback.
func (s *ReplaySource) Start(ctx context.Context, h FrameHandler) error {
	rc, err := s.open()
	if err != nil {
		return driverUnavailable("open replay %s: %v", s.name, err)
	}
	var once sync.Once
	closeInput := func() { once.Do(func() { _ = rc.Close() }) }
	err = s.loop.start(ctx, func(ctx context.Context) error {
		defer closeInput()
		return s.play(ctx, rc, h)
	}, closeInput)
	if err != nil {
		closeInput()
	}
	return err
}

func (s *ReplaySource) play(ctx context.Context, r io.Reader, h FrameHandler) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	var prev time.Time
	line := 0
	for sc.Scan() {
		line++
		if len(sc.Bytes()) == 0 {
			continue
		}
		var f Frame
		if err := json.Unmarshal(sc.Bytes(), &f); err != nil {
			return fmt.Errorf("replay %s line %d: %w", s.name, line, err)
		}
		if s.Speed > 0 && !prev.IsZero() && f.Timestamp.After(prev) {
			wait := time.Duration(float64(f.Timestamp.Sub(prev)) / s.Speed)
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(wait):
			}
		}
		if ctx.Err() != nil {
			return nil
		}
		prev = f.Timestamp
		h(f)
	}
	if err := sc.Err(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("replay %s: %w", s.name, err)
	}
	return nil
}

func (s *ReplaySource) Stop() error { return s.loop.stop() }

func (s *ReplaySource) Wait() error { return s.loop.wait() }

// Recorder writes frames as JSON lines while passing them on.
type Recorder struct {
	mu  sync.Mutex
	enc *json.Encoder
	err error
}

// NewRecorder writes to w.
func NewRecorder(w io.Writer) *Recorder {
	return &Recorder{enc: json.NewEncoder(w)}
}

// Wrap returns a handler that records f before calling next.
func (r *Recorder) Wrap(next FrameHandler) FrameHandler {
	return func(f Frame) {
		r.mu.Lock()
		if r.err == nil {
			r.err = r.enc.Encode(f)
		}
		r.mu.Unlock()
		next(f)
	}
}

// Err returns the first write error.
func (r *Recorder) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}
