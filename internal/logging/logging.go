// Package logging configures the shared structured logger.
package logging

import (
	"io"
	"os"

	"github.com/charmbracelet/log"
)

// New creates a logger writing to stderr. Setting DEBUG=1 enables debug
// level output with caller reporting.
func New(prefix string) *log.Logger {
	return NewWithWriter(os.Stderr, prefix)
}

// NewWithWriter creates a logger writing to w; used by tests to capture
// output.
func NewWithWriter(w io.Writer, prefix string) *log.Logger {
	if os.Getenv("DEBUG") == "1" {
		logger := log.NewWithOptions(w, log.Options{
			ReportCaller:    true,
			ReportTimestamp: true,
			Prefix:          prefix,
		})
		logger.SetLevel(log.DebugLevel)
		return logger
	}

	logger := log.New(w)
	logger.SetPrefix(prefix)
	logger.SetLevel(log.InfoLevel)
	return logger
}
