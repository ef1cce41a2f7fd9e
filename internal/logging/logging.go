// Package logging configures zerolog for the bramble command.
package logging

import (
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
)

var logLevelMatches = map[string]zerolog.Level{
	"NONE":  zerolog.Disabled,
	"TRACE": zerolog.TraceLevel,
	"DEBUG": zerolog.DebugLevel,
	"INFO":  zerolog.InfoLevel,
	"WARN":  zerolog.WarnLevel,
	"ERROR": zerolog.ErrorLevel,
}

// Options selects the level and destination.
type Options struct {
	Level string
	// File appends logs to a file instead of stderr.
	File string
	// Console forces (true) or disables (false) the human-readable writer.
	// Nil picks it when stderr is a terminal.
	Console *bool
	// Out overrides the destination. Used by tests.
	Out io.Writer
}

// ParseLevel maps a level name to a zerolog level. Names are
// case-insensitive; an unknown name is an error.
func ParseLevel(s string) (zerolog.Level, error) {
	if s == "" {
		return zerolog.InfoLevel, nil
	}
	l, ok := logLevelMatches[strings.ToUpper(strings.TrimSpace(s))]
	if !ok {
		return zerolog.InfoLevel, fmt.Errorf("unknown log level %q", s)
	}
	return l, nil
}

// Setup builds a logger from opts. The returned function closes the log
// file, if any.
func Setup(opts Options) (zerolog.Logger, func(), error) {
	level, err := ParseLevel(opts.Level)
	if err != nil {
		return zerolog.Nop(), func() {}, err
	}

	out := opts.Out
	closer := func() {}
	console := isTerminalAttached()
	if opts.File != "" && out == nil {
		f, err := os.OpenFile(opts.File, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0o644)
		if err != nil {
			return zerolog.Nop(), closer, fmt.Errorf("open log file: %w", err)
		}
		out = f
		console = false
		closer = func() { _ = f.Close() }
	}
	if out == nil {
		out = os.Stderr
	}
	if opts.Console != nil {
		console = *opts.Console
	}
	if console {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: "2006-01-02 15:04:05"}
	}

	logger := zerolog.New(out).Level(level).With().Timestamp().Logger()
	return logger, closer, nil
}

func isTerminalAttached() bool {
	return isatty.IsTerminal(os.Stderr.Fd()) && runtime.GOOS != "windows"
}
