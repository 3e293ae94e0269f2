// Package oplog is Chronicle's own ambient operational logger: the thing
// the command-line entry points and the core's internal fault-reporting
// hooks use to describe what the process itself is doing. It is
// deliberately separate from the Chronicle domain logger in
// internal/chronicle/logger — that one is the product, this one reports
// on the product's plumbing (accept errors, sink I/O failures, pool
// shutdown) and never sits on the hot producer/drain path.
package oplog

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"
)

// Level is the severity of an operational log line.
type Level int

const (
	Debug Level = iota
	Info
	Warn
	Error
)

func (l Level) String() string {
	switch l {
	case Debug:
		return "DEBUG"
	case Info:
		return "INFO"
	case Warn:
		return "WARN"
	case Error:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel parses a case-insensitive level name, accepting "WARNING"
// as an alias for Warn.
func ParseLevel(s string) (Level, error) {
	switch strings.ToUpper(s) {
	case "DEBUG":
		return Debug, nil
	case "INFO":
		return Info, nil
	case "WARN", "WARNING":
		return Warn, nil
	case "ERROR":
		return Error, nil
	default:
		return Info, fmt.Errorf("oplog: unknown level %q", s)
	}
}

// Logger is a small leveled, field-tagged text logger. Values are
// immutable from the caller's perspective: WithField/WithFields/WithMode
// all return a new Logger sharing the underlying writer.
type Logger struct {
	level  Level
	out    *log.Logger
	fields map[string]interface{}
	mode   string
}

// Config configures a new Logger.
type Config struct {
	Level Level
	Output io.Writer
	Mode   string
}

// New returns a Logger at Info level writing to standard error — the
// default for any Chronicle binary or internal fault hook that hasn't
// been given an explicit Config.
func New() *Logger {
	return NewWithConfig(Config{Level: Info, Output: os.Stderr})
}

// NewWithConfig returns a Logger configured per cfg.
func NewWithConfig(cfg Config) *Logger {
	if cfg.Output == nil {
		cfg.Output = os.Stderr
	}
	return &Logger{
		level:  cfg.Level,
		out:    log.New(cfg.Output, "", 0),
		fields: make(map[string]interface{}),
		mode:   cfg.Mode,
	}
}

func (l *Logger) clone() *Logger {
	fields := make(map[string]interface{}, len(l.fields))
	for k, v := range l.fields {
		fields[k] = v
	}
	return &Logger{level: l.level, out: l.out, fields: fields, mode: l.mode}
}

// WithField returns a new Logger carrying an additional field.
func (l *Logger) WithField(key string, value interface{}) *Logger {
	return l.WithFields(key, value)
}

// WithFields returns a new Logger carrying additional key/value fields.
// Trailing unpaired keys are dropped.
func (l *Logger) WithFields(kv ...interface{}) *Logger {
	next := l.clone()
	for i := 0; i+1 < len(kv); i += 2 {
		next.fields[fmt.Sprintf("%v", kv[i])] = kv[i+1]
	}
	return next
}

// WithMode returns a new Logger tagged with a component/mode name, shown
// bracketed in every line it emits (e.g. "backlog", "demo").
func (l *Logger) WithMode(mode string) *Logger {
	next := l.clone()
	next.mode = mode
	return next
}

// SetLevel adjusts the minimum level this Logger emits.
func (l *Logger) SetLevel(level Level) { l.level = level }

// Level returns the Logger's current minimum emitted level.
func (l *Logger) Level() Level { return l.level }

func (l *Logger) Debug(msg string, kv ...interface{}) { l.log(Debug, msg, kv...) }
func (l *Logger) Info(msg string, kv ...interface{})  { l.log(Info, msg, kv...) }
func (l *Logger) Warn(msg string, kv ...interface{})  { l.log(Warn, msg, kv...) }
func (l *Logger) Error(msg string, kv ...interface{}) { l.log(Error, msg, kv...) }

// Fatal logs at Error level, then terminates the process via exitFunc.
// Reserved for failures a caller has decided are unrecoverable for the
// whole process, not merely the current operation.
func (l *Logger) Fatal(msg string, kv ...interface{}) {
	l.log(Error, msg, kv...)
	exitFunc(1)
}

// exitFunc is os.Exit by default, overridden in tests so Fatal's logging
// path can be exercised without ending the test binary.
var exitFunc = os.Exit

func (l *Logger) log(level Level, msg string, kv ...interface{}) {
	if level < l.level {
		return
	}

	ts := time.Now().Format("2006-01-02T15:04:05.000Z07:00")

	fields := make(map[string]interface{}, len(l.fields))
	for k, v := range l.fields {
		fields[k] = v
	}
	for i := 0; i+1 < len(kv); i += 2 {
		fields[fmt.Sprintf("%v", kv[i])] = kv[i+1]
	}

	l.out.Print(l.formatLine(ts, level, msg, fields))
}

func (l *Logger) formatLine(ts string, level Level, msg string, fields map[string]interface{}) string {
	parts := []string{fmt.Sprintf("[%s]", ts), fmt.Sprintf("[%s]", level)}
	if l.mode != "" {
		parts = append(parts, fmt.Sprintf("[%s]", l.mode))
	}
	parts = append(parts, msg)

	if len(fields) > 0 {
		var fp []string
		for k, v := range fields {
			fp = append(fp, fmt.Sprintf("%s=%v", k, formatValue(v)))
		}
		parts = append(parts, "|", strings.Join(fp, " "))
	}

	return strings.Join(parts, " ")
}

func formatValue(v interface{}) string {
	switch t := v.(type) {
	case string:
		if strings.Contains(t, " ") {
			return fmt.Sprintf("%q", t)
		}
		return t
	case error:
		return fmt.Sprintf("%q", t.Error())
	case time.Duration:
		return t.String()
	case time.Time:
		return t.Format(time.RFC3339)
	default:
		return fmt.Sprintf("%v", t)
	}
}
