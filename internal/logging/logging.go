// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package logging configures the diagnostic logger. Progress lines meant for
// the user are printed by each command; this logger carries everything else.
package logging

import (
	"io"
	"os"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
)

// New returns a console logger writing to w. verbose enables debug output;
// otherwise only warnings and errors are shown.
func New(w io.Writer, verbose bool) zerolog.Logger {
	level := zerolog.WarnLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	out := zerolog.ConsoleWriter{Out: w, TimeFormat: time.TimeOnly, NoColor: !isTerminal(w)}
	return zerolog.New(out).Level(level).With().Timestamp().Logger()
}

// WithRun tags every event with the run ID.
func WithRun(log zerolog.Logger, runID string) zerolog.Logger {
	return log.With().Str("run", runID).Logger()
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && isatty.IsTerminal(f.Fd())
}
