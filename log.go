package main

import (
	"fmt"
	"io"
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/charmbracelet/log"
)

// logConfig is read from the environment so logging can be adjusted
// without touching flags or the config file.
type logConfig struct {
	LogFile string `env:"MGTTS_LOGFILE"`
	Debug   bool   `env:"MGTTS_DEBUG"`
}

// setupLog configures the default logger. Diagnostics always go to stderr
// (or MGTTS_LOGFILE) so they never mix with primary output on stdout. The
// returned closer releases the log file, if any.
func setupLog() (func() error, error) {
	cfg, err := env.ParseAs[logConfig]()
	if err != nil {
		return nil, fmt.Errorf("error parsing log config: %w", err)
	}

	var w io.Writer = os.Stderr
	closer := func() error { return nil }

	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, fmt.Errorf("error opening log file: %w", err)
		}
		w = f
		closer = f.Close
	}

	log.SetOutput(w)
	log.SetReportTimestamp(false)
	if cfg.Debug {
		log.SetLevel(log.DebugLevel)
	}

	return closer, nil
}
