// ABOUTME: Leveled logging wrapper around logrus for verbose mode output
// ABOUTME: Global level via SetVerbose; writes to stderr to avoid mixing with chat output

package log

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// Fields aliases logrus.Fields so callers do not import logrus directly.
type Fields = logrus.Fields

var root = newRoot()

func newRoot() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	l.SetLevel(logrus.InfoLevel)
	l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	return l
}

// SetVerbose toggles debug-level output.
func SetVerbose(on bool) {
	if on {
		root.SetLevel(logrus.DebugLevel)
	} else {
		root.SetLevel(logrus.InfoLevel)
	}
}

// Verbose reports whether debug output is enabled.
func Verbose() bool {
	return root.IsLevelEnabled(logrus.DebugLevel)
}

// SetOutput redirects all log output; nil restores stderr.
func SetOutput(w io.Writer) {
	if w == nil {
		w = os.Stderr
	}
	root.SetOutput(w)
}

// Named returns an entry tagged with a component field.
func Named(component string) *logrus.Entry {
	return root.WithField("component", component)
}

// Debug logs a formatted debug message.
func Debug(format string, args ...any) {
	root.Debugf(format, args...)
}

// Info logs a formatted info message.
func Info(format string, args ...any) {
	root.Infof(format, args...)
}

// Warn logs a formatted warning message.
func Warn(format string, args ...any) {
	root.Warnf(format, args...)
}

// Error logs a formatted error message.
func Error(format string, args ...any) {
	root.Errorf(format, args...)
}
