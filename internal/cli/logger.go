package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/term"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/mrz1836/shotpub/internal/constants"
	"github.com/mrz1836/shotpub/internal/logging"
)

// logFileWriter holds the log file writer for cleanup purposes.
// This is package-level to enable cleanup during shutdown.
var (
	logFileWriter io.WriteCloser //nolint:gochecknoglobals // Needed for cleanup
	logFilePath   string         //nolint:gochecknoglobals // Path behind logFileWriter
	logFileMu     sync.Mutex     //nolint:gochecknoglobals // Protects logFileWriter
)

// zerologGlobalMu protects concurrent writes to the zerolog global logger.
// This is separate from globalLoggerMu to avoid deadlocks.
var zerologGlobalMu sync.Mutex //nolint:gochecknoglobals // Protects zerolog global

// terminalCheck reports whether stderr is a terminal. Replaced in tests.
var terminalCheck = func() bool { //nolint:gochecknoglobals // Test seam
	return term.IsTerminal(int(os.Stderr.Fd()))
}

// InitLogger creates and configures a zerolog.Logger based on verbosity flags.
//
// Log levels are set as follows:
//   - verbose=true: Debug level (most detailed)
//   - quiet=true: Warn level (errors and warnings only)
//   - default: Info level (normal operation)
//
// Output format is determined by the terminal:
//   - TTY with colors enabled: Console writer with timestamps
//   - Non-TTY or NO_COLOR set: JSON output to stderr
//
// When logFile is set, entries are also written there with rotation enabled.
// If the log file cannot be created, the logger continues with console-only
// output and reports the problem through the returned logger.
func InitLogger(verbose, quiet bool, logFile string) zerolog.Logger {
	console := logging.NewFilteringWriter(selectOutput())

	var (
		writer  io.Writer = console
		fileErr error
	)
	if logFile != "" {
		fw, err := openLogFile(logFile)
		if err != nil {
			fileErr = err
		} else {
			writer = zerolog.MultiLevelWriter(console, fw)
		}
	} else {
		CloseLogFile()
	}

	logger := buildLogger(selectLevel(verbose, quiet), writer)
	setGlobalLogger(logger)

	if fileErr != nil {
		logger.Warn().Err(fileErr).Str("path", logFile).Msg("continuing without log file")
	}
	return logger
}

// InitLoggerWithWriter creates and configures a zerolog.Logger with a custom writer.
// This is primarily intended for testing purposes.
func InitLoggerWithWriter(verbose, quiet bool, w io.Writer) zerolog.Logger {
	logger := buildLogger(selectLevel(verbose, quiet), logging.NewFilteringWriter(w))
	setGlobalLogger(logger)
	return logger
}

func buildLogger(level zerolog.Level, w io.Writer) zerolog.Logger {
	return zerolog.New(w).Level(level).Hook(logging.NewSensitiveDataHook()).With().Timestamp().Logger()
}

// setGlobalLogger configures the global zerolog logger to match our CLI logger config.
// This function is safe for concurrent use.
func setGlobalLogger(cliLogger zerolog.Logger) {
	zerologGlobalMu.Lock()
	defer zerologGlobalMu.Unlock()
	log.Logger = cliLogger
}

// CloseLogFile closes the log file writer if it was opened.
// This should be called during application shutdown for clean cleanup.
func CloseLogFile() {
	logFileMu.Lock()
	defer logFileMu.Unlock()

	if logFileWriter != nil {
		_ = logFileWriter.Close()
		logFileWriter = nil
		logFilePath = ""
	}
}

// selectLevel determines the appropriate log level based on flags.
func selectLevel(verbose, quiet bool) zerolog.Level {
	switch {
	case verbose:
		return zerolog.DebugLevel
	case quiet:
		return zerolog.WarnLevel
	default:
		return zerolog.InfoLevel
	}
}

// selectOutput determines the appropriate output writer based on
// terminal capabilities and environment settings.
func selectOutput() io.Writer {
	if terminalCheck() && os.Getenv(constants.EnvNoColor) == "" {
		return zerolog.ConsoleWriter{
			Out:        os.Stderr,
			TimeFormat: time.Kitchen,
		}
	}

	// Pipeline agents capture stderr; JSON keeps entries greppable there.
	return os.Stderr
}

// filteringWriteCloser wraps a WriteCloser with sensitive data filtering.
type filteringWriteCloser struct {
	filter *logging.FilteringWriter
	closer io.Closer
}

// Write implements io.Writer by delegating to the filtering writer.
func (fwc *filteringWriteCloser) Write(p []byte) (n int, err error) {
	return fwc.filter.Write(p)
}

// Close implements io.Closer by delegating to the underlying closer.
func (fwc *filteringWriteCloser) Close() error {
	return fwc.closer.Close()
}

// openLogFile returns the rotating writer for path, reusing the open one
// when the path is unchanged.
func openLogFile(path string) (io.WriteCloser, error) {
	logFileMu.Lock()
	defer logFileMu.Unlock()

	if logFileWriter != nil && logFilePath == path {
		return logFileWriter, nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	lj := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    constants.LogMaxSizeMB,
		MaxBackups: constants.LogMaxBackups,
		MaxAge:     constants.LogMaxAgeDays,
		Compress:   constants.LogCompress,
	}

	if logFileWriter != nil {
		_ = logFileWriter.Close()
	}
	logFileWriter = &filteringWriteCloser{
		filter: logging.NewFilteringWriter(lj),
		closer: lj,
	}
	logFilePath = path

	return logFileWriter, nil
}

// LogFilePath returns the path of the open log file, or "" when logging
// to the console only.
func LogFilePath() string {
	logFileMu.Lock()
	defer logFileMu.Unlock()
	return logFilePath
}
