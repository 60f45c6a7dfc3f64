// Package obslog sets up the diagnostic logger cmd/btreedb writes to.
// Tuple results never go through this logger — they are the result stream,
// written directly to stdout by the caller — only errors and progress
// messages do (spec.md §6: "Error messages go to the diagnostic stream").
package obslog

import (
	"io"
	"os"

	"github.com/rs/zerolog"
)

// New builds a zerolog.Logger writing to w (cmd/btreedb passes stderr) at
// info level, or debug when verbose is set.
func New(w io.Writer, verbose bool) zerolog.Logger {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	return zerolog.New(w).Level(level).With().Timestamp().Logger()
}

// Default is an info-level logger over stderr, built at package init.
// cmd/btreedb does not use it; it builds its logger with New once flags are
// parsed.
var Default = New(os.Stderr, false)
