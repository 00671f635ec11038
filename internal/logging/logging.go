// Package logging configures the process-wide structured logger. The
// serve command and internal/httpapi take the *logrus.Logger built here
// rather than rolling their own logger, mirroring how the
// teacher centralizes output through one configured sink instead of each
// package calling the stdlib log package directly.
package logging

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// New builds a logger writing JSON lines to out (the CLI app's writer in
// the serve command, a buffer in tests). debug raises the level to Debug; otherwise the
// logger stays at Info.
func New(out io.Writer, debug bool) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(out)
	log.SetFormatter(&logrus.JSONFormatter{TimestampFormat: "2006-01-02T15:04:05.000Z07:00"})
	log.SetLevel(logrus.InfoLevel)
	if debug {
		log.SetLevel(logrus.DebugLevel)
	}
	return log
}

// Default returns a logger writing to stderr at Info level, used where a
// command hasn't parsed --debug yet (e.g. very early startup errors).
func Default() *logrus.Logger {
	return New(os.Stderr, false)
}
