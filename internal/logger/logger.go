// Package logger provides the human-readable console logger spec.md §1
// treats as an external collaborator. It keeps the teacher's
// (pkg/logger) shape — level filtering and prefixes; it has no
// structured fields, only printf-style messages — but recolors output
// with github.com/fatih/color instead of hand-rolled ANSI escape
// sequences.
package logger

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/fatih/color"
)

// Level is the severity of a log line.
type Level int

const (
	DebugLevel Level = iota
	InfoLevel
	WarnLevel
	ErrorLevel
)

func (l Level) String() string {
	switch l {
	case DebugLevel:
		return "DEBUG"
	case WarnLevel:
		return "WARN"
	case ErrorLevel:
		return "ERROR"
	default:
		return "INFO"
	}
}

// Logger is the interface every component logs through.
type Logger interface {
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
	WithPrefix(prefix string) Logger
}

type consoleLogger struct {
	mu     *sync.Mutex
	out    io.Writer
	level  Level
	prefix string
	colors map[Level]*color.Color
}

// New creates a console Logger writing to os.Stdout that drops lines
// below the given level.
func New(level Level) Logger {
	return &consoleLogger{
		mu:    &sync.Mutex{},
		out:   os.Stdout,
		level: level,
		colors: map[Level]*color.Color{
			DebugLevel: color.New(color.FgHiBlack),
			InfoLevel:  color.New(color.FgCyan),
			WarnLevel:  color.New(color.FgYellow),
			ErrorLevel: color.New(color.FgRed, color.Bold),
		},
	}
}

func (l *consoleLogger) WithPrefix(prefix string) Logger {
	return &consoleLogger{
		mu:     l.mu,
		out:    l.out,
		level:  l.level,
		prefix: prefix,
		colors: l.colors,
	}
}

func (l *consoleLogger) log(level Level, format string, args ...interface{}) {
	if level < l.level {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	ts := time.Now().Format("15:04:05.000")
	msg := fmt.Sprintf(format, args...)
	line := fmt.Sprintf("%s [%s]", ts, level)
	if l.prefix != "" {
		line += fmt.Sprintf(" %s", l.prefix)
	}
	line += " " + msg
	if c, ok := l.colors[level]; ok {
		fmt.Fprintln(l.out, c.Sprint(line))
		return
	}
	fmt.Fprintln(l.out, line)
}

func (l *consoleLogger) Debugf(format string, args ...interface{}) { l.log(DebugLevel, format, args...) }
func (l *consoleLogger) Infof(format string, args ...interface{})  { l.log(InfoLevel, format, args...) }
func (l *consoleLogger) Warnf(format string, args ...interface{})  { l.log(WarnLevel, format, args...) }
func (l *consoleLogger) Errorf(format string, args ...interface{}) { l.log(ErrorLevel, format, args...) }

// ParseLevel maps a config string to a Level, defaulting to Info.
func ParseLevel(s string) Level {
	switch s {
	case "debug":
		return DebugLevel
	case "warn":
		return WarnLevel
	case "error":
		return ErrorLevel
	default:
		return InfoLevel
	}
}
