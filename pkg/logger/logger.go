// Package logger defines the level-filtered logging sink consumed by the
// core (spec.md §6 "Logger level-filtered sink"). The default
// implementation wraps the standard library's log package, in the style
// of noisetorch-NoiseTorch's direct log.Printf/log.Fatalf usage — no
// structured-logging third-party library is pulled in here, since nothing
// in the retrieved example pack imports one (see DESIGN.md).
package logger

import (
	"log"
	"os"
)

// Level is a logging verbosity threshold.
type Level int

const (
	LevelError Level = iota
	LevelWarn
	LevelInfo
	LevelDebug
)

// Logger is the level-filtered sink the render core logs through.
type Logger interface {
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
	// Verbose reports whether Debugf-level output is enabled, so callers
	// can skip building expensive diagnostic strings (accel.Stats.LogVerbose).
	Verbose() bool
}

// Default is a Logger backed by the standard library's log package.
type Default struct {
	level  Level
	stdlog *log.Logger
}

// NewDefault builds a Default logger writing to stderr at LevelInfo,
// matching the teacher's renderer.NewDefaultLogger().
func NewDefault() *Default {
	return &Default{level: LevelInfo, stdlog: log.New(os.Stderr, "", log.LstdFlags)}
}

// NewDefaultAt builds a Default logger at the given level.
func NewDefaultAt(level Level) *Default {
	return &Default{level: level, stdlog: log.New(os.Stderr, "", log.LstdFlags)}
}

func (d *Default) Verbose() bool { return d.level >= LevelDebug }

func (d *Default) Debugf(format string, args ...interface{}) {
	if d.level >= LevelDebug {
		d.stdlog.Printf("DEBUG "+format, args...)
	}
}
func (d *Default) Infof(format string, args ...interface{}) {
	if d.level >= LevelInfo {
		d.stdlog.Printf("INFO  "+format, args...)
	}
}
func (d *Default) Warnf(format string, args ...interface{}) {
	if d.level >= LevelWarn {
		d.stdlog.Printf("WARN  "+format, args...)
	}
}
func (d *Default) Errorf(format string, args ...interface{}) {
	d.stdlog.Printf("ERROR "+format, args...)
}

// Nop discards everything; useful in tests.
type Nop struct{}

func (Nop) Debugf(string, ...interface{}) {}
func (Nop) Infof(string, ...interface{})  {}
func (Nop) Warnf(string, ...interface{})  {}
func (Nop) Errorf(string, ...interface{}) {}
func (Nop) Verbose() bool                 { return false }
