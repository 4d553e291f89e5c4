package main

import (
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const terminalLogFile = "smartcatan.log"

// setupLogging configures the global logger. The terminal view owns the
// screen, so its logs go to a file.
func setupLogging(cfg Config) (io.Closer, error) {
	level, err := zerolog.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.Log.Level, err)
	}
	zerolog.SetGlobalLevel(level)

	path := cfg.Log.File
	if path == "" && cfg.View == ViewTerminal {
		path = terminalLogFile
	}

	var out io.Writer = os.Stderr
	var closer io.Closer = io.NopCloser(nil)
	if path != "" {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}
		out, closer = f, f
	}

	if cfg.Log.Format == "json" {
		log.Logger = zerolog.New(out).With().Timestamp().Logger()
	} else {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: out, NoColor: path != ""})
	}
	return closer, nil
}
