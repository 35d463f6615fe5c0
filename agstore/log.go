package agstore

import (
	"fmt"
	"strings"
	"time"
)

// ModeFlag is the lowest severity that is written to the log.
type ModeFlag uint

const (
	DebugMode ModeFlag = iota
	InfoMode
	WarningMode
	ErrorMode
	CriticalMode
	SilentMode
)

var mode = InfoMode

// Logger receives messages that passed the current mode.  Formats follow fmt.Printf
// and carry their own trailing newline.
type Logger interface {
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Warningf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
	Criticalf(format string, args ...interface{})

	// Shutdown flushes and closes any log file.
	Shutdown()
}

// SetLogMode sets the lowest severity written.  SilentMode turns logging off.
func SetLogMode(newMode ModeFlag) {
	mode = newMode
}

// LogMode returns the lowest severity written.
func LogMode() ModeFlag {
	return mode
}

func logf(m ModeFlag, format string, args ...interface{}) {
	if m < mode {
		return
	}
	switch m {
	case DebugMode:
		logger.Debugf(format, args...)
	case InfoMode:
		logger.Infof(format, args...)
	case WarningMode:
		logger.Warningf(format, args...)
	case ErrorMode:
		logger.Errorf(format, args...)
	case CriticalMode:
		logger.Criticalf(format, args...)
	}
}

func Debugf(format string, args ...interface{})    { logf(DebugMode, format, args...) }
func Infof(format string, args ...interface{})     { logf(InfoMode, format, args...) }
func Warningf(format string, args ...interface{})  { logf(WarningMode, format, args...) }
func Errorf(format string, args ...interface{})    { logf(ErrorMode, format, args...) }
func Criticalf(format string, args ...interface{}) { logf(CriticalMode, format, args...) }

// Shutdown closes any log file in use.
func Shutdown() {
	logger.Shutdown()
}

// Scope logs on behalf of one graph or element.  Each message is prefixed with
// what it concerns and, once timed, suffixed with the time since Timed was called.
type Scope struct {
	prefix string
	start  time.Time
}

// ForGraph returns a Scope whose messages name the graph.
func ForGraph(id string) Scope {
	return Scope{prefix: "graph " + id + ": "}
}

// Timed returns an unprefixed Scope that reports elapsed time.
func Timed() Scope {
	return Scope{start: time.Now()}
}

// Element narrows the scope to one element of the graph.
func (s Scope) Element(et ElementType, id int) Scope {
	s.prefix += fmt.Sprintf("%s %d: ", et, id)
	return s
}

// Timed returns a copy of s that reports the time elapsed from now.
func (s Scope) Timed() Scope {
	s.start = time.Now()
	return s
}

// Elapsed returns the time since the scope was timed, or zero.
func (s Scope) Elapsed() time.Duration {
	if s.start.IsZero() {
		return 0
	}
	return time.Since(s.start)
}

func (s Scope) logf(m ModeFlag, format string, args []interface{}) {
	if m < mode {
		return
	}
	if !s.start.IsZero() {
		format = strings.TrimSuffix(format, "\n") + " (%s)\n"
		args = append(args[:len(args):len(args)], time.Since(s.start))
	}
	logf(m, s.prefix+format, args...)
}

func (s Scope) Debugf(format string, args ...interface{})   { s.logf(DebugMode, format, args) }
func (s Scope) Infof(format string, args ...interface{})    { s.logf(InfoMode, format, args) }
func (s Scope) Warningf(format string, args ...interface{}) { s.logf(WarningMode, format, args) }
func (s Scope) Errorf(format string, args ...interface{})   { s.logf(ErrorMode, format, args) }
