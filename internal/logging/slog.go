package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/Graylog2/go-gelf/gelf"
)

// Indirections over the process stdout, replaced in tests.
var (
	osStdout io.Writer = os.Stdout
	osPipe             = os.Pipe
)

// Options configures SlogManager.Setup.
type Options struct {
	// File receives text logs. When nil, logs go to stdout instead.
	File io.Writer
	// Level is one of debug, info, warn or error.
	Level string
	// Remote receives JSON logs, typically a GELF writer.
	Remote io.Writer
	// Context adds dynamic attributes to every record.
	Context ContextProvider
}

// SlogManager manages slog-based logging for the panel.
type SlogManager struct {
	logger *slog.Logger
	remote io.Closer
}

// NewSlogManager creates a new slog-based logging manager.
func NewSlogManager() *SlogManager {
	return &SlogManager{}
}

// parseLevel converts a string log level to slog.Level.
func parseLevel(level string) slog.Level {
	switch strings.ToUpper(level) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Setup initializes the logging system. The terminal panel owns stdout, so a
// log file replaces console output rather than adding to it.
func (m *SlogManager) Setup(opts Options) {
	lvl := parseLevel(opts.Level)

	handlerOpts := &slog.HandlerOptions{
		Level: lvl,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				if t, ok := a.Value.Any().(time.Time); ok {
					a.Value = slog.StringValue(t.UTC().Format(time.RFC3339))
				}
			}
			return a
		},
	}

	var handlers []slog.Handler
	if opts.File != nil {
		handlers = append(handlers, slog.NewTextHandler(opts.File, handlerOpts))
	} else {
		handlers = append(handlers, slog.NewTextHandler(osStdout, handlerOpts))
	}
	if opts.Remote != nil {
		handlers = append(handlers, slog.NewJSONHandler(opts.Remote, handlerOpts))
	}

	var h slog.Handler = NewMultiHandler(handlers...)
	if opts.Context != nil {
		h = NewContextHandler(h, opts.Context)
	}

	m.logger = slog.New(h)
	m.logger.Info("Logging initialized", "level", lvl.String())
}

// Logger returns the configured slog.Logger.
func (m *SlogManager) Logger() *slog.Logger {
	if m.logger == nil {
		return slog.Default()
	}
	return m.logger
}

// WriteLog writes a log entry with the specified function name, data, and level.
func (m *SlogManager) WriteLog(functionName, data, level string) {
	if m.logger == nil {
		return
	}
	m.logger.Log(context.Background(), parseLevel(level), data, "function", functionName)
}

// DialGraylog opens a GELF UDP writer to addr. The writer is closed by Close.
func (m *SlogManager) DialGraylog(addr string) (io.Writer, error) {
	w, err := gelf.NewWriter(addr)
	if err != nil {
		return nil, fmt.Errorf("connecting to graylog at %s: %w", addr, err)
	}
	w.Facility = "spatializer"
	m.remote = w
	return w, nil
}

// Close releases the remote writer, if any.
func (m *SlogManager) Close() error {
	if m.remote == nil {
		return nil
	}
	err := m.remote.Close()
	m.remote = nil
	return err
}
