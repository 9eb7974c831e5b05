package logging

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

type Options struct {
	// FilePath, when set, receives a copy of every log line. The file is
	// truncated on startup.
	FilePath string
	Level    slog.Level
	Location *time.Location
}

// SetupLogger installs a JSON slog logger as the default. The returned
// closer releases the log file, if any.
func SetupLogger(opts Options) (io.Closer, error) {
	logger, closer, err := NewLogger(os.Stdout, opts)
	if err != nil {
		return nil, err
	}
	slog.SetDefault(logger)
	return closer, nil
}

func NewLogger(stdout io.Writer, opts Options) (*slog.Logger, io.Closer, error) {
	w := stdout
	var closer io.Closer = nopCloser{}

	if opts.FilePath != "" {
		if err := os.MkdirAll(filepath.Dir(opts.FilePath), 0o755); err != nil {
			return nil, nil, fmt.Errorf("failed to create log directory: %w", err)
		}

		err := os.Remove(opts.FilePath)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			slog.Error("Failed to remove old log file", "path", opts.FilePath, "error", err)
		}

		logFile, err := os.OpenFile(opts.FilePath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open log file for writing: %w", err)
		}
		w = io.MultiWriter(stdout, logFile)
		closer = logFile
	}

	location := opts.Location
	if location == nil {
		location = time.UTC
	}

	handlerOpts := &slog.HandlerOptions{
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey && len(groups) == 0 {
				t := a.Value.Time().In(location)
				a.Value = slog.StringValue(t.Format(time.RFC3339))
			}
			return a
		},
		Level: opts.Level,
	}

	return slog.New(slog.NewJSONHandler(w, handlerOpts)), closer, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
