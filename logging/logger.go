package logging

import (
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// Verbosity thresholds.
const (
	Silent  = 0
	Info    = 1
	Errors  = 2
	Verbose = 3
)

// Logger is a logrus entry gated by a verbosity threshold. A nil *Logger
// discards everything.
type Logger struct {
	verbosity int
	entry     *logrus.Entry
}

// New returns a Logger writing text records to out (os.Stderr when nil).
// Verbosity is clamped to [Silent, Verbose].
func New(verbosity int, out io.Writer) *Logger {
	if out == nil {
		out = os.Stderr
	}
	base := logrus.New()
	base.SetOutput(out)
	base.SetLevel(logrus.DebugLevel)
	base.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})
	return FromLogrus(verbosity, base)
}

// FromLogrus gates an existing logrus logger. The logrus level still applies
// on top of the verbosity threshold.
func FromLogrus(verbosity int, base *logrus.Logger) *Logger {
	return &Logger{
		verbosity: clamp(verbosity),
		entry:     logrus.NewEntry(base),
	}
}

// Discard returns a silent Logger.
func Discard() *Logger {
	return New(Silent, io.Discard)
}

func clamp(v int) int {
	switch {
	case v < Silent:
		return Silent
	case v > Verbose:
		return Verbose
	}
	return v
}

// Verbosity returns the threshold.
func (l *Logger) Verbosity() int {
	if l == nil {
		return Silent
	}
	return l.verbosity
}

// WithField returns a derived logger carrying key=value.
func (l *Logger) WithField(key string, value interface{}) *Logger {
	if l == nil {
		return nil
	}
	return &Logger{verbosity: l.verbosity, entry: l.entry.WithField(key, value)}
}

// WithFields returns a derived logger carrying fields.
func (l *Logger) WithFields(fields logrus.Fields) *Logger {
	if l == nil {
		return nil
	}
	return &Logger{verbosity: l.verbosity, entry: l.entry.WithFields(fields)}
}

// WithError returns a derived logger carrying err under the "error" key.
func (l *Logger) WithError(err error) *Logger {
	if l == nil {
		return nil
	}
	return &Logger{verbosity: l.verbosity, entry: l.entry.WithError(err)}
}

// Info logs an informational message at verbosity 1 and above.
func (l *Logger) Info(message string) {
	if l.enabled(Info) {
		l.entry.Info(message)
	}
}

// Infof formats and logs an informational message.
func (l *Logger) Infof(format string, args ...interface{}) {
	if l.enabled(Info) {
		l.entry.Info(fmt.Sprintf(format, args...))
	}
}

// Error logs an error message at verbosity 2 and above.
func (l *Logger) Error(message string) {
	if l.enabled(Errors) {
		l.entry.Error(message)
	}
}

// Errorf formats and logs an error message.
func (l *Logger) Errorf(format string, args ...interface{}) {
	if l.enabled(Errors) {
		l.entry.Error(fmt.Sprintf(format, args...))
	}
}

// Debug logs a debug message at verbosity 3.
func (l *Logger) Debug(message string) {
	if l.enabled(Verbose) {
		l.entry.Debug(message)
	}
}

// Debugf formats and logs a debug message.
func (l *Logger) Debugf(format string, args ...interface{}) {
	if l.enabled(Verbose) {
		l.entry.Debug(fmt.Sprintf(format, args...))
	}
}

func (l *Logger) enabled(threshold int) bool {
	return l != nil && l.verbosity >= threshold
}
