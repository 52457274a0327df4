package slogutil

import (
	"io"
	"log/slog"

	"github.com/google/uuid"
)

// Options describes where a command's logs go.
type Options struct {
	// Console receives human-facing logs, usually os.Stderr. Nil disables it.
	Console      io.Writer
	ConsoleLevel slog.Level

	// FilePath is the log file. Empty disables file logging.
	FilePath   string
	FileLevel  slog.Level
	MaxSize    string
	MaxBackups int

	// RunID tags every record. A random id is generated when empty.
	RunID string
}

// Setup builds the process logger: a tee of the console handler and a
// rotating file handler, tagged with run=<id>. A file that cannot be opened
// is reported on the console and skipped; logging never blocks a command.
// The returned closer is never nil.
func Setup(opts Options) (*slog.Logger, io.Closer, error) {
	runID := opts.RunID
	if runID == "" {
		runID = uuid.NewString()
	}

	var handlers []slog.Handler
	if opts.Console != nil {
		handlers = append(handlers, NewHandler(opts.Console, &slog.HandlerOptions{Level: opts.ConsoleLevel}))
	}

	var closer io.Closer = nopCloser{}
	var fileErr error
	if opts.FilePath != "" {
		w, c, err := openLogFile(opts.FilePath, opts.MaxSize, opts.MaxBackups)
		if err != nil {
			fileErr = err
		} else {
			handlers = append(handlers, NewHandler(w, &slog.HandlerOptions{Level: opts.FileLevel}))
			closer = c
		}
	}

	var logger *slog.Logger
	switch len(handlers) {
	case 0:
		logger = NewDiscardLogger()
	case 1:
		logger = slog.New(handlers[0])
	default:
		logger = NewTeeLogger(handlers...)
	}
	logger = logger.With("run", runID)

	if fileErr != nil {
		logger.Warn("Log file unavailable, continuing without it", "path", opts.FilePath, "error", fileErr.Error())
	}
	return logger, closer, fileErr
}

// openLogFile opens path with rotation when maxSize parses to a positive
// size, plain append otherwise.
func openLogFile(path, maxSize string, maxBackups int) (io.Writer, io.Closer, error) {
	if size := ParseSize(maxSize); size > 0 {
		rf, err := OpenRotatingFile(path, size, maxBackups)
		if err != nil {
			return nil, nil, err
		}
		return rf, rf, nil
	}
	f, err := openAppend(path)
	if err != nil {
		return nil, nil, err
	}
	return f, f, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
