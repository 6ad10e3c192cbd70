// Package logging provides leveled logging and step tracing for washout.
// It offers two complementary outputs:
//   - A leveled slog.Logger for stderr (operational output)
//   - A StepLogger for structured JSONL update traces (steps.jsonl)
package logging

import (
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// LevelTrace is a custom slog level below Debug.
// At this level every posterior snapshot is logged in full.
const LevelTrace = slog.LevelDebug - 4

// ParseLevel maps a string level name to a slog.Level.
// Supported values: "warn", "info", "debug", "trace" (case-insensitive).
// Unknown values default to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "warn", "warning":
		return slog.LevelWarn
	case "debug":
		return slog.LevelDebug
	case "trace":
		return LevelTrace
	default:
		return slog.LevelInfo
	}
}

// NewLogger creates a leveled slog.Logger writing to w.
func NewLogger(level string, w io.Writer) *slog.Logger {
	lvl := ParseLevel(level)
	opts := &slog.HandlerOptions{
		Level: lvl,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.LevelKey {
				if lvl, ok := a.Value.Any().(slog.Level); ok && lvl == LevelTrace {
					a.Value = slog.StringValue("TRACE")
				}
			}
			return a
		},
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// Discard returns a logger that drops everything.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError + 1}))
}

// StepEvent records one simulated draw and the update it caused.
type StepEvent struct {
	Time       string      `json:"time"`
	Run        string      `json:"run,omitempty"`
	Trial      int         `json:"trial"`
	Step       int         `json:"step"`
	Outcome    int         `json:"outcome"`
	Posteriors [][]float64 `json:"posteriors,omitempty"`
}

// StepLogger appends StepEvents to a JSONL file.
// It is safe for concurrent use. A nil StepLogger is safe to use;
// all methods are no-ops on nil receiver.
type StepLogger struct {
	mu         sync.Mutex
	file       *os.File
	withMatrix bool
	nowFunc    func() time.Time
}

// NewStepLogger creates a step logger writing to dir/steps.jsonl.
// At "info" level and above it returns nil and no file is created.
// At "debug" outcomes are recorded; at "trace" posteriors are included.
// Returns nil if the file cannot be opened. All methods are nil-safe.
func NewStepLogger(dir string, level string) *StepLogger {
	lvl := ParseLevel(level)
	if lvl > slog.LevelDebug {
		return nil
	}

	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil
	}

	path := filepath.Join(dir, "steps.jsonl")
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return nil
	}

	return &StepLogger{file: f, withMatrix: lvl <= LevelTrace, nowFunc: time.Now}
}

// Log writes ev as a single JSONL line, stamping the time.
// Posteriors are dropped unless the logger was opened at trace level.
// Safe to call on nil receiver.
func (sl *StepLogger) Log(ev StepEvent) {
	if sl == nil || sl.file == nil {
		return
	}

	ev.Time = sl.nowFunc().UTC().Format(time.RFC3339Nano)
	if !sl.withMatrix {
		ev.Posteriors = nil
	}

	data, err := json.Marshal(ev)
	if err != nil {
		return
	}
	data = append(data, '\n')

	sl.mu.Lock()
	defer sl.mu.Unlock()
	if sl.file == nil {
		return
	}
	_, _ = sl.file.Write(data)
}

// Close closes the underlying file. Safe to call on nil receiver.
func (sl *StepLogger) Close() {
	if sl == nil {
		return
	}

	sl.mu.Lock()
	defer sl.mu.Unlock()

	if sl.file != nil {
		sl.file.Close()
		sl.file = nil
	}
}
