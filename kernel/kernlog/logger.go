// Package kernlog provides the small structured logger used throughout the
// kernel heap. It is intentionally minimal: level-gated, component-tagged,
// key/value fields, no external sink.
package kernlog

import (
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"
	"sync"
	"time"
)

// Level is the severity of a log record.
type Level int

const (
	Debug Level = iota
	Info
	Warn
	Error
)

var levelNames = map[Level]string{
	Debug: "DEBUG",
	Info:  "INFO",
	Warn:  "WARN",
	Error: "ERROR",
}

// Logger is a minimal, concurrency-safe structured logger.
type Logger struct {
	mu         sync.Mutex
	level      Level
	component  string
	output     io.Writer
	showCaller bool
	timeFormat string
}

// Config configures a Logger.
type Config struct {
	Level      Level
	Component  string
	Output     io.Writer
	ShowCaller bool
	TimeFormat string
}

// New creates a Logger from the given Config, filling in sensible defaults.
func New(cfg Config) *Logger {
	if cfg.Output == nil {
		cfg.Output = os.Stderr
	}
	if cfg.TimeFormat == "" {
		cfg.TimeFormat = "15:04:05.000"
	}

	return &Logger{
		level:      cfg.Level,
		component:  cfg.Component,
		output:     cfg.Output,
		showCaller: cfg.ShowCaller,
		timeFormat: cfg.TimeFormat,
	}
}

// Default returns a Logger with sensible defaults for the given component.
func Default(component string) *Logger {
	return New(Config{
		Level:     Info,
		Component: component,
		Output:    os.Stderr,
	})
}

// With returns a child Logger scoped to a different component name, sharing
// the rest of the parent's configuration.
func (l *Logger) With(component string) *Logger {
	return &Logger{
		level:      l.level,
		component:  component,
		output:     l.output,
		showCaller: l.showCaller,
		timeFormat: l.timeFormat,
	}
}

func (l *Logger) Debug(msg string, fields ...Field) { l.log(Debug, msg, fields...) }
func (l *Logger) Info(msg string, fields ...Field)  { l.log(Info, msg, fields...) }
func (l *Logger) Warn(msg string, fields ...Field)  { l.log(Warn, msg, fields...) }
func (l *Logger) Error(msg string, fields ...Field) { l.log(Error, msg, fields...) }

func (l *Logger) log(level Level, msg string, fields ...Field) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if level < l.level {
		return
	}

	var b strings.Builder
	b.WriteString("[")
	b.WriteString(time.Now().Format(l.timeFormat))
	b.WriteString("] [")
	b.WriteString(fmt.Sprintf("%-5s", levelNames[level]))
	b.WriteString("] ")
	if l.component != "" {
		b.WriteString("[")
		b.WriteString(l.component)
		b.WriteString("] ")
	}
	b.WriteString(msg)

	for _, f := range fields {
		b.WriteString(" ")
		b.WriteString(f.Key)
		b.WriteString("=")
		b.WriteString(f.format())
	}

	if l.showCaller {
		if _, file, line, ok := runtime.Caller(2); ok {
			parts := strings.Split(file, "/")
			b.WriteString(fmt.Sprintf(" (%s:%d)", parts[len(parts)-1], line))
		}
	}

	b.WriteString("\n")
	l.output.Write([]byte(b.String()))
}

// Field is a structured key/value pair attached to a log record.
type Field struct {
	Key   string
	Value any
}

func (f Field) format() string {
	switch v := f.Value.(type) {
	case string:
		return fmt.Sprintf("%q", v)
	case error:
		return fmt.Sprintf("%q", v.Error())
	case time.Duration:
		return v.String()
	default:
		return fmt.Sprintf("%v", v)
	}
}

func String(key, value string) Field   { return Field{Key: key, Value: value} }
func Int(key string, value int) Field  { return Field{Key: key, Value: value} }
func Uint(key string, value uint) Field { return Field{Key: key, Value: value} }
func Err(err error) Field              { return Field{Key: "error", Value: err} }
func Duration(key string, value time.Duration) Field {
	return Field{Key: key, Value: value}
}
func Any(key string, value any) Field { return Field{Key: key, Value: value} }
