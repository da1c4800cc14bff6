package jobconf

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/Rincaro/cascading.utils/pkg/logging"
)

// PropertyLoggingLevels carries per-logger levels to code running inside tasks.
const PropertyLoggingLevels = "logging.levels"

const (
	FrameworkLogger = "framework"
	AppLogger       = "app"
)

// LoggingLevels renders the logging.levels value, e.g. "framework=INFO,app=TRACE".
func LoggingLevels(framework, app slog.Level) string {
	return fmt.Sprintf("%s=%s,%s=%s",
		FrameworkLogger, logging.LevelName(framework),
		AppLogger, logging.LevelName(app),
	)
}

// SetLoggingLevels stores the levels in props.
func SetLoggingLevels(props map[string]string, framework, app slog.Level) {
	props[PropertyLoggingLevels] = LoggingLevels(framework, app)
}

// DefaultProperties returns the properties every job starts with. Debugging
// turns the framework up to debug and the application to trace.
func DefaultProperties(debugging bool) map[string]string {
	props := make(map[string]string)
	if debugging {
		SetLoggingLevels(props, slog.LevelDebug, logging.LevelTrace)
	} else {
		SetLoggingLevels(props, slog.LevelInfo, slog.LevelInfo)
	}
	return props
}

// ParseLoggingLevels reads a logging.levels value back into levels by logger name.
func ParseLoggingLevels(s string) (map[string]slog.Level, error) {
	levels := make(map[string]slog.Level)
	for part := range strings.SplitSeq(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		name, value, ok := strings.Cut(part, "=")
		if !ok || strings.TrimSpace(name) == "" {
			return nil, fmt.Errorf("invalid logging level entry: %q", part)
		}
		level, err := logging.ParseLevel(value)
		if err != nil {
			return nil, fmt.Errorf("logger %s: %w", name, err)
		}
		levels[strings.TrimSpace(name)] = level
	}
	return levels, nil
}
