package app

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
)

// LogFileName is the name of the run log inside the log directory.
const LogFileName = "ohv.log"

// sink is one destination of the run log. Records below level are not
// written to it.
type sink struct {
	w     io.Writer
	level slog.Leveler
}

// ohvHandler is a custom slog.Handler that formats log records as:
//
//	<timestamp>\t<level>\t<runID>\t<message>\t<key=value ...>
//
// and fans each formatted line out to every sink whose level admits it.
type ohvHandler struct {
	sinks []sink
	runID string
	attrs []slog.Attr
}

func (h *ohvHandler) Enabled(_ context.Context, level slog.Level) bool {
	for _, s := range h.sinks {
		if level >= s.level.Level() {
			return true
		}
	}
	return false
}

func (h *ohvHandler) Handle(_ context.Context, r slog.Record) error {
	var line bytes.Buffer
	fmt.Fprintf(&line, "%s\t%s\t%s\t%s", r.Time.UTC().Format("2006-01-02T15:04:05Z"), r.Level, h.runID, r.Message)
	for _, a := range h.attrs {
		fmt.Fprintf(&line, "\t%s=%v", a.Key, a.Value)
	}
	r.Attrs(func(a slog.Attr) bool {
		fmt.Fprintf(&line, "\t%s=%v", a.Key, a.Value)
		return true
	})
	line.WriteByte('\n')

	for _, s := range h.sinks {
		if r.Level < s.level.Level() {
			continue
		}
		if _, err := s.w.Write(line.Bytes()); err != nil {
			return err
		}
	}
	return nil
}

func (h *ohvHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &ohvHandler{
		sinks: h.sinks,
		runID: h.runID,
		attrs: append(append([]slog.Attr{}, h.attrs...), attrs...),
	}
}

func (h *ohvHandler) WithGroup(string) slog.Handler { return h }

// newLogger creates a structured logger for one run. The log file at
// logDir/ohv.log records every level; stderr, when non-nil, only receives
// records at or above level. It returns the open log file for cleanup.
func newLogger(logDir, runID string, stderr io.Writer, level slog.Level) (*slog.Logger, *os.File, error) {
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, nil, fmt.Errorf("creating log directory: %w", err)
	}

	logPath := filepath.Join(logDir, LogFileName)
	f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, nil, fmt.Errorf("opening log file: %w", err)
	}

	sinks := []sink{{w: f, level: slog.LevelDebug}}
	if stderr != nil {
		sinks = append(sinks, sink{w: stderr, level: level})
	}
	return slog.New(&ohvHandler{sinks: sinks, runID: runID}), f, nil
}

// slogAdapter wraps *slog.Logger to satisfy the ohv.Logger interface.
type slogAdapter struct {
	l *slog.Logger
}

func (a *slogAdapter) Debug(msg string, args ...any) { a.l.Debug(msg, args...) }
func (a *slogAdapter) Info(msg string, args ...any)  { a.l.Info(msg, args...) }
func (a *slogAdapter) Warn(msg string, args ...any)  { a.l.Warn(msg, args...) }
func (a *slogAdapter) Error(msg string, args ...any) { a.l.Error(msg, args...) }
