package touch

import (
	"context"
	"errors"
	"sync"
)

var errAlreadyStarted = errors.New("touch source already started")

// loop runs one reader goroutine per Start and tracks how it ended.
type loop struct {
	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
	err    error
}

// start launches run. interrupt is called once ctx is cancelled so run can
// unblock from a pending read.
func (l *loop) start(ctx context.Context, run func(ctx context.Context) error, interrupt func()) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.done != nil {
		select {
		case <-l.done:
		default:
			return errAlreadyStarted
		}
	}

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	l.cancel, l.done, l.err = cancel, done, nil

	go func() {
		<-ctx.Done()
		if interrupt != nil {
			interrupt()
		}
	}()
	go func() {
		err := run(ctx)
		l.mu.Lock()
		if ctx.Err() == nil {
			l.err = err
		}
		l.mu.Unlock()
		cancel()
		close(done)
	}()
	return nil
}

func (l *loop) stop() error {
	l.mu.Lock()
	cancel, done := l.cancel, l.done
	l.mu.Unlock()
	if cancel == nil {
		return nil
	}
	cancel()
	<-done
	return nil
}

func (l *loop) wait() error {
	l.mu.Lock()
	done := l.done
	l.mu.Unlock()
	if done == nil {
		return nil
	}
	<-done
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.err
}
