package logging

import (
	"fmt"
	"io"
	"strings"

	"github.com/pterm/pterm"
)

var levels = map[string]pterm.LogLevel{
	"trace":    pterm.LogLevelTrace,
	"debug":    pterm.LogLevelDebug,
	"info":     pterm.LogLevelInfo,
	"warn":     pterm.LogLevelWarn,
	"error":    pterm.LogLevelError,
	"disabled": pterm.LogLevelDisabled,
}

// New builds a structured logger writing to w.
// format is "colorful" or "json".
func New(level, format string, w io.Writer) (*pterm.Logger, error) {
	lvl, ok := levels[strings.ToLower(level)]
	if !ok {
		return nil, fmt.Errorf("unknown log level: %q", level)
	}

	logger := pterm.DefaultLogger.WithLevel(lvl).WithWriter(w)
	switch strings.ToLower(format) {
	case "", "colorful":
		logger = logger.WithFormatter(pterm.LogFormatterColorful)
	case "json":
		logger = logger.WithFormatter(pterm.LogFormatterJSON)
	default:
		return nil, fmt.Errorf("unknown log format: %q", format)
	}
	return logger, nil
}

// Discard returns a logger that drops everything
func Discard() *pterm.Logger {
	return pterm.DefaultLogger.WithLevel(pterm.LogLevelDisabled).WithWriter(io.Discard)
}

// OrDiscard returns l, or a discarding logger when l is nil
func OrDiscard(l *pterm.Logger) *pterm.Logger {
	if l == nil {
		return Discard()
	}
	return l
}
