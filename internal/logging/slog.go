package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/bridges/otelslog"
	sdklog "go.opentelemetry.io/otel/sdk/log"
)

// indirections for stdout, so tests can capture console output
var (
	osStdout *os.File = os.Stdout
	osPipe            = os.Pipe
)

// SlogManager manages slog-based logging with optional OTel integration.
type SlogManager struct {
	logger *slog.Logger

	// OTel provider for flushing
	logProvider *sdklog.LoggerProvider

	// ctxProvider supplies session attributes stamped on every record
	ctxProvider ContextProvider
}

// SetContextProvider installs a provider whose attributes are added to
// every record. May be called before or after Setup.
func (m *SlogManager) SetContextProvider(p ContextProvider) {
	m.ctxProvider = p
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
	case "WARN":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Setup initializes the logging system. Records go to the session log
// file when one is provided, to stdout otherwise, and to OTel when a
// provider is given.
func (m *SlogManager) Setup(file io.Writer, level string, provider *sdklog.LoggerProvider) {
	lvl := parseLevel(level)
	m.logProvider = provider

	// Common handler options with RFC3339 time formatting
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

	if file != nil {
		handlers = append(handlers, slog.NewTextHandler(file, handlerOpts))
	} else {
		handlers = append(handlers, slog.NewTextHandler(osStdout, handlerOpts))
	}

	if provider != nil {
		otelHandler := otelslog.NewHandler("fleetd", otelslog.WithLoggerProvider(provider))
		handlers = append(handlers, otelHandler)
	}

	var root slog.Handler = NewMultiHandler(handlers...)
	root = NewContextHandler(root, func() []slog.Attr {
		if m.ctxProvider != nil {
			return m.ctxProvider()
		}
		return nil
	})

	m.logger = slog.New(root)
	m.logger.Info("Logging initialized", "level", level)
}

// Logger returns the configured slog.Logger.
func (m *SlogManager) Logger() *slog.Logger {
	if m.logger == nil {
		// Return a default logger if Setup hasn't been called
		return slog.Default()
	}
	return m.logger
}

// Flush forces a flush of OTel logs if available.
func (m *SlogManager) Flush(ctx context.Context) error {
	if m.logProvider != nil {
		return m.logProvider.ForceFlush(ctx)
	}
	return nil
}

// WriteLog writes a log entry with the specified source, message, and
// level. Commands arriving over the wire carry their level as a string.
func (m *SlogManager) WriteLog(source, data, level string) {
	if m.logger == nil {
		return
	}

	lvl := parseLevel(level)

	switch lvl {
	case slog.LevelDebug:
		m.logger.Debug(data, "source", source)
	case slog.LevelInfo:
		m.logger.Info(data, "source", source)
	case slog.LevelWarn:
		m.logger.Warn(data, "source", source)
	case slog.LevelError:
		m.logger.Error(data, "source", source)
	default:
		m.logger.Info(data, "source", source)
	}
}
