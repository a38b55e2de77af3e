// Package log wraps log/slog with a component name and the field names
// shared across the server and the CLI.
package log

import (
	"log/slog"
	"os"
	"slices"
	"strings"
)

// Logger is a slog.Logger that remembers which component it belongs to.
// The component is attached once as an attribute. handler and attrs keep
// what the component sits on so it can be swapped rather than repeated.
type Logger struct {
	*slog.Logger
	component string
	handler   slog.Handler
	attrs     []any
}

type Config struct {
	Level     slog.Level
	Component string
	Handler   slog.Handler
}

// DefaultConfig logs text at info level to stdout.
func DefaultConfig() Config {
	return Config{
		Level:     slog.LevelInfo,
		Component: ComponentApp,
	}
}

func New(config Config) *Logger {
	handler := config.Handler
	if handler == nil {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: config.Level})
	}
	component := config.Component
	if component == "" {
		component = ComponentApp
	}
	return build(handler, component, nil)
}

func build(handler slog.Handler, component string, attrs []any) *Logger {
	logger := slog.New(handler)
	if component != "" {
		logger = logger.With(FieldComponent, component)
	}
	return &Logger{
		Logger:    logger.With(attrs...),
		component: component,
		handler:   handler,
		attrs:     attrs,
	}
}

// With returns a logger carrying args in addition to the current ones.
func (l *Logger) With(args ...any) *Logger {
	attrs := append(slices.Clip(l.attrs), args...)
	return build(l.handler, l.component, attrs)
}

// WithComponent returns a logger tagged with component instead of the
// current one. Attributes added through With are kept.
func (l *Logger) WithComponent(component string) *Logger {
	if component == l.component {
		return l
	}
	return build(l.handler, component, l.attrs)
}

func (l *Logger) Component() string {
	return l.component
}

// SetDefault makes logger the slog default, so packages logging through
// slog directly share its handler.
func SetDefault(logger *Logger) {
	slog.SetDefault(logger.Logger)
}

// ParseLevel maps debug, info, warn and error to slog levels. Anything
// else falls back to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
