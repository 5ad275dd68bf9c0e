// Package logx builds the process logger and carries the shared log
// field helpers.
package logx

import (
	"context"
	"log"
	"os"
	"strings"

	"golang.org/x/term"
	"pkt.systems/pslog"
)

// New returns a logger writing to w: console output when w is a terminal,
// structured JSON otherwise. pslog's LOG_* environment variables still
// override the options.
func New(w *os.File, level string) pslog.Logger {
	opts := pslog.Options{Mode: pslog.ModeStructured, NoColor: true, MinLevel: ParseLevel(level)}
	if term.IsTerminal(int(w.Fd())) {
		opts.Mode = pslog.ModeConsole
		opts.NoColor = false
	}
	return pslog.LoggerFromEnv(
		pslog.WithEnvWriter(w),
		pslog.WithEnvOptions(opts),
	)
}

// ParseLevel maps a config level name to a pslog level. Unknown names
// yield info.
func ParseLevel(s string) pslog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "trace":
		return pslog.TraceLevel
	case "debug":
		return pslog.DebugLevel
	case "warn", "warning":
		return pslog.WarnLevel
	case "error":
		return pslog.ErrorLevel
	default:
		return pslog.InfoLevel
	}
}

// RedirectStdLog routes the standard library logger through l.
func RedirectStdLog(l pslog.Logger) {
	log.SetOutput(pslog.LogLogger(l).Writer())
	log.SetFlags(0)
}

// Ctx returns the logger bound to the provided context.
func Ctx(ctx context.Context) pslog.Logger {
	return pslog.Ctx(ctx)
}

// WithComponent annotates the logger with a component name.
func WithComponent(l pslog.Logger, name string) pslog.Logger {
	if name == "" {
		return l
	}
	return l.With("component", name)
}

// WithSession annotates the logger with a gesture session id when present.
func WithSession(l pslog.Logger, sessionID string) pslog.Logger {
	if sessionID != "" {
		l = l.With("session", sessionID)
	}
	return l
}
