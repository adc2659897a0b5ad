// Package corelog defines the logging seam used throughout the request
// lifecycle and instance execution core: a small ComponentLogger-shaped
// interface trimmed to the subset this core actually calls.
package corelog

import (
	"io"

	"github.com/sirupsen/logrus"
)

// Logger is the logging interface consumed by this core's components. Both
// *logrus.Logger and *logrus.Entry satisfy it, so callers can pass either a
// root logger or one pre-populated with fields (e.g. an instance name).
type Logger interface {
	WithField(key string, value any) *logrus.Entry
	WithFields(fields logrus.Fields) *logrus.Entry
	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
}

// Discard returns a Logger that drops everything, for use in tests.
func Discard() Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return logrus.NewEntry(log)
}

// Component returns a Logger tagged with a component name, following the
// teacher's WithComponent convention.
func Component(log Logger, name string) Logger {
	return log.WithField("component", name)
}
