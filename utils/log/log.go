package log

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// New builds the logger for one run. The entry point constructs it once and
// passes it explicitly into every stage; nothing in this codebase logs
// through a package global.
func New(verbose bool) *logrus.Entry {
	logger := logrus.New()

	// Log to stderr so that progress output on stdout stays clean for the
	// user even when piping.
	logger.SetOutput(os.Stderr)
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if verbose {
		logger.SetLevel(logrus.DebugLevel)
	} else {
		logger.SetLevel(logrus.InfoLevel)
	}

	return logger.WithField("app", "bskybook")
}

// NewNop returns a logger that discards everything, for tests that do not
// care about log output.
func NewNop() *logrus.Entry {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logrus.NewEntry(logger)
}
