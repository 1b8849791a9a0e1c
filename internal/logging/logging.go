// Package logging configures the process logger.
//
// Logs always go to stderr because stdout carries the MCP protocol in mcp
// mode. A log file can be added as a second destination.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// Options selects the logger's level, format and extra destination.
type Options struct {
	Level string // logrus level name; empty means info
	File  string // optional file appended to in addition to stderr
	JSON  bool
}

// New creates a logger writing to stderr and, if set, opts.File. The
// returned closer releases the log file and is never nil.
func New(opts Options) (*logrus.Logger, io.Closer, error) {
	return newLogger(opts, os.Stderr)
}

func newLogger(opts Options, stderr io.Writer) (*logrus.Logger, io.Closer, error) {
	log := logrus.New()
	if opts.JSON {
		log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	level := logrus.InfoLevel
	if s := strings.TrimSpace(opts.Level); s != "" {
		parsed, err := logrus.ParseLevel(s)
		if err != nil {
			return nil, nopCloser{}, fmt.Errorf("invalid log level %q: %w", opts.Level, err)
		}
		level = parsed
	}
	log.SetLevel(level)

	var closer io.Closer = nopCloser{}
	out := stderr
	if opts.File != "" {
		f, err := os.OpenFile(opts.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			log.SetOutput(stderr)
			log.WithError(err).Warn("Failed to log to file, using stderr only")
		} else {
			out = io.MultiWriter(stderr, f)
			closer = f
		}
	}
	log.SetOutput(out)
	return log, closer, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
