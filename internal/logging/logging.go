// Package logging builds per-plugin logger handles. Every plugin gets
// its own instance, configurable by name and level, instead of sharing
// process-wide logger state.
package logging

import (
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// DefaultLevel is the level used when the user does not set one.
const DefaultLevel = "warning"

// New creates a named logger at the given level. Logs go to stderr so
// that reports written to stdout stay machine-readable.
func New(name, level string) (*logrus.Entry, error) {
	return NewWithOutput(name, level, os.Stderr)
}

// NewWithOutput is New with an explicit sink, for tests.
func NewWithOutput(name, level string, out io.Writer) (*logrus.Entry, error) {
	if level == "" {
		level = DefaultLevel
	}
	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid logging level %q: %w", level, err)
	}

	logger := logrus.New()
	logger.SetOutput(out)
	logger.SetLevel(parsed)
	logger.SetFormatter(&logrus.TextFormatter{
		TimestampFormat: "2006-01-02T15:04:05.000Z07:00",
		FullTimestamp:   true,
	})

	return logger.WithField("logger", name), nil
}
