// Package logging sets up the process logger and provides the leveled
// logger handed to the zoom plugin and the host simulation.
package logging

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"time"
)

const (
	FileName   = "zoomsim.log"
	MaxLogSize = 10 * 1024 * 1024
)

// Setup routes the standard logger to <dir>/zoomsim.log when debug is set and
// discards output otherwise. A log larger than MaxLogSize is rotated aside
// before opening. The returned file is nil when logging is disabled.
func Setup(debug bool, dir string) (*os.File, error) {
	if !debug {
		log.SetOutput(io.Discard)
		return nil, nil
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	path := filepath.Join(dir, FileName)
	if info, err := os.Stat(path); err == nil && info.Size() > MaxLogSize {
		rotated := filepath.Join(dir, fmt.Sprintf("zoomsim_%s.log", time.Now().Format("20060102_150405")))
		if err := os.Rename(path, rotated); err != nil {
			return nil, err
		}
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, err
	}
	log.SetOutput(f)
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	return f, nil
}

// Logger writes leveled messages through a *log.Logger.
type Logger struct {
	out   *log.Logger
	debug bool
}

// New wraps out. Debug messages are dropped unless debug is true.
func New(out *log.Logger, debug bool) *Logger {
	return &Logger{out: out, debug: debug}
}

// Default wraps the standard logger with debug output enabled, so routing is
// decided by Setup.
func Default() *Logger {
	return New(log.Default(), true)
}

// Discard returns a logger that drops everything.
func Discard() *Logger {
	return New(log.New(io.Discard, "", 0), false)
}

// Named returns a logger that prefixes every message with [name].
func (l *Logger) Named(name string) *Logger {
	if l == nil {
		return nil
	}
	return &Logger{
		out:   log.New(l.out.Writer(), l.out.Prefix()+"["+name+"] ", l.out.Flags()),
		debug: l.debug,
	}
}

func (l *Logger) Debugf(format string, args ...any) {
	if l == nil || !l.debug {
		return
	}
	l.out.Printf("[DBG] "+format, args...)
}

func (l *Logger) Warnf(format string, args ...any) {
	if l == nil {
		return
	}
	l.out.Printf("[WRN] "+format, args...)
}

func (l *Logger) Errorf(format string, args ...any) {
	if l == nil {
		return
	}
	l.out.Printf("[ERR] "+format, args...)
}
