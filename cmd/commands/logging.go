package commands

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/dohr-michael/sidekick/internal/config"
)

// setupLogging installs the default slog logger. When toFile is set the log
// goes to cfg.Log.File so it does not corrupt the TUI. The returned function
// closes the file.
func setupLogging(cfg *config.Config, debug, toFile bool) (func(), error) {
	level := cfg.Log.Level
	if debug {
		level = "debug"
	}
	lvl, err := log.ParseLevel(strings.ToLower(level))
	if err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}

	var w io.Writer = os.Stderr
	closer := func() {}
	if toFile {
		if err := os.MkdirAll(filepath.Dir(cfg.Log.File), 0o755); err != nil {
			return nil, fmt.Errorf("create log dir: %w", err)
		}
		f, err := os.OpenFile(cfg.Log.File, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		w = f
		closer = func() { f.Close() }
	}

	logger := log.NewWithOptions(w, log.Options{
		Level:           lvl,
		ReportTimestamp: true,
		Prefix:          "sidekick",
	})
	if toFile {
		logger.SetFormatter(log.LogfmtFormatter)
	}
	slog.SetDefault(slog.New(logger))
	return closer, nil
}
