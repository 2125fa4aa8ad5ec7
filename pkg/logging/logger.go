// Package logging provides the logger used throughout browsey-core. It is
// adapted from the logging package used by the teacher project: a logger
// that still functions (as a no-op) when nil, that derives named subloggers,
// and that writes through the standard log package so callers can control
// output destination and flags in one place.
package logging

import (
	"bytes"
	"fmt"
	"io"
	"io/ioutil"
	"log"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

// Level controls which calls actually produce output.
type Level int

// The level set, from least to most verbose.
const (
	LevelError Level = iota
	LevelWarn
	LevelInfo
	LevelDebug
	LevelTrace
)

// String renders a Level the way settings/CLI callers display and parse
// it (spec section 4.19's log_level setting).
func (l Level) String() string {
	switch l {
	case LevelError:
		return "error"
	case LevelWarn:
		return "warn"
	case LevelInfo:
		return "info"
	case LevelDebug:
		return "debug"
	case LevelTrace:
		return "trace"
	default:
		return "unknown"
	}
}

// colorEnabled is computed once at process start, matching the teacher's
// pattern of gating ANSI color on whether stderr is a terminal.
var colorEnabled = isatty.IsTerminal(os.Stderr.Fd())

// writer is an io.Writer that splits its input stream into lines and routes
// each line to a logging callback. Subprocess stdout/stderr is piped through
// this so that multi-line output doesn't get mangled into a single record.
type writer struct {
	callback func(string)
	buffer   []byte
}

func trimCarriageReturn(b []byte) []byte {
	if len(b) > 0 && b[len(b)-1] == '\r' {
		return b[:len(b)-1]
	}
	return b
}

// Write implements io.Writer.
func (w *writer) Write(buffer []byte) (int, error) {
	w.buffer = append(w.buffer, buffer...)

	var processed int
	remaining := w.buffer
	for {
		index := bytes.IndexByte(remaining, '\n')
		if index == -1 {
			break
		}
		w.callback(string(trimCarriageReturn(remaining[:index])))
		processed += index + 1
		remaining = remaining[index+1:]
	}

	if processed > 0 {
		leftover := len(w.buffer) - processed
		if leftover > 0 {
			copy(w.buffer[:leftover], w.buffer[processed:])
		}
		w.buffer = w.buffer[:leftover]
	}

	return len(buffer), nil
}

// Logger is the main logger type. It is safe to use when nil (all methods
// become no-ops), safe for concurrent use, and writes through the standard
// log package so callers retain control over destination and flags.
type Logger struct {
	prefix string
	level  Level
}

// RootLogger is the root logger from which all other loggers derive.
var RootLogger = &Logger{level: LevelInfo}

// SetLevel adjusts the verbosity of this logger and all subloggers derived
// from it afterward. It does not affect subloggers already created.
func (l *Logger) SetLevel(level Level) {
	if l != nil {
		l.level = level
	}
}

// Sublogger creates a new named sublogger. If the receiver is nil, the
// sublogger is nil too, so call chains stay safe without nil checks.
func (l *Logger) Sublogger(name string) *Logger {
	if l == nil {
		return nil
	}
	prefix := name
	if l.prefix != "" {
		prefix = l.prefix + "." + name
	}
	return &Logger{prefix: prefix, level: l.level}
}

func (l *Logger) output(calldepth int, line string) {
	if l.prefix != "" {
		line = fmt.Sprintf("[%s] %s", l.prefix, line)
	}
	log.Output(calldepth, line)
}

func colorize(f func(string, ...interface{}) string, format string, v ...interface{}) string {
	if !colorEnabled {
		return fmt.Sprintf(format, v...)
	}
	return f(format, v...)
}

// Errorf logs at LevelError, always shown.
func (l *Logger) Errorf(format string, v ...interface{}) {
	if l == nil || l.level < LevelError {
		return
	}
	l.output(3, colorize(color.RedString, "ERROR "+format, v...))
}

// Warnf logs at LevelWarn.
func (l *Logger) Warnf(format string, v ...interface{}) {
	if l == nil || l.level < LevelWarn {
		return
	}
	l.output(3, colorize(color.YellowString, "WARN  "+format, v...))
}

// Infof logs at LevelInfo.
func (l *Logger) Infof(format string, v ...interface{}) {
	if l == nil || l.level < LevelInfo {
		return
	}
	l.output(3, fmt.Sprintf("INFO  "+format, v...))
}

// Debugf logs at LevelDebug.
func (l *Logger) Debugf(format string, v ...interface{}) {
	if l == nil || l.level < LevelDebug {
		return
	}
	l.output(3, fmt.Sprintf("DEBUG "+format, v...))
}

// Tracef logs at LevelTrace, the most verbose level.
func (l *Logger) Tracef(format string, v ...interface{}) {
	if l == nil || l.level < LevelTrace {
		return
	}
	l.output(3, fmt.Sprintf("TRACE "+format, v...))
}

// Writer returns an io.Writer that logs each line it receives at LevelInfo.
// If the receiver is nil, writes are discarded without scanning for lines.
func (l *Logger) Writer() io.Writer {
	if l == nil {
		return ioutil.Discard
	}
	return &writer{callback: func(s string) { l.Infof("%s", s) }}
}

// DebugWriter is like Writer but logs at LevelDebug.
func (l *Logger) DebugWriter() io.Writer {
	if l == nil {
		return ioutil.Discard
	}
	return &writer{callback: func(s string) { l.Debugf("%s", s) }}
}
