package logger

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"
	"time"
)

// Level controls which messages are emitted
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
	LevelSilent
)

var (
	mu     sync.Mutex
	level  = LevelWarn
	output io.Writer = os.Stderr
)

// SetLevel sets the global log level
func SetLevel(l Level) {
	mu.Lock()
	defer mu.Unlock()
	level = l
}

// SetOutput redirects log output (used by tests)
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = w
}

// Logger carries a set of structured fields
type Logger struct {
	fields map[string]interface{}
}

// WithField returns a logger with a single field attached
func WithField(key string, value interface{}) Logger {
	return Logger{fields: map[string]interface{}{key: value}}
}

// WithFields returns a logger with multiple fields attached
func WithFields(fields map[string]interface{}) Logger {
	copied := make(map[string]interface{}, len(fields))
	for k, v := range fields {
		copied[k] = v
	}
	return Logger{fields: copied}
}

// WithField returns a copy of the logger with an extra field
func (l Logger) WithField(key string, value interface{}) Logger {
	merged := make(map[string]interface{}, len(l.fields)+1)
	for k, v := range l.fields {
		merged[k] = v
	}
	merged[key] = value
	return Logger{fields: merged}
}

func (l Logger) Debug(format string, args ...interface{}) { emit(LevelDebug, l.fields, format, args...) }
func (l Logger) Info(format string, args ...interface{})  { emit(LevelInfo, l.fields, format, args...) }
func (l Logger) Warn(format string, args ...interface{})  { emit(LevelWarn, l.fields, format, args...) }
func (l Logger) Error(format string, args ...interface{}) { emit(LevelError, l.fields, format, args...) }

// Package-level logging without fields

func Debug(format string, args ...interface{}) { emit(LevelDebug, nil, format, args...) }
func Info(format string, args ...interface{})  { emit(LevelInfo, nil, format, args...) }
func Warn(format string, args ...interface{})  { emit(LevelWarn, nil, format, args...) }
func Error(format string, args ...interface{}) { emit(LevelError, nil, format, args...) }

func emit(l Level, fields map[string]interface{}, format string, args ...interface{}) {
	mu.Lock()
	defer mu.Unlock()

	if l < level {
		return
	}

	var b strings.Builder
	b.WriteString(time.Now().Format("2006-01-02 15:04:05"))
	b.WriteString(" [")
	b.WriteString(levelName(l))
	b.WriteString("] ")
	b.WriteString(fmt.Sprintf(format, args...))

	if len(fields) > 0 {
		keys := make([]string, 0, len(fields))
		for k := range fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			b.WriteString(fmt.Sprintf(" %s=%v", k, fields[k]))
		}
	}

	fmt.Fprintln(output, b.String())
}

func levelName(l Level) string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "?"
	}
}
