package logging

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"
)

// Level is a message severity. Lower values are more severe; a logger at
// verbosity v prints every message whose level is <= v.
type Level int

const (
	LevelFatal Level = iota
	LevelError
	LevelWarning
	LevelInfo
	LevelDebug
)

var levelNames = [...]string{"FATAL", "ERROR", "WARNING", "INFO", "DEBUG"}

func (l Level) String() string {
	if l < LevelFatal || l > LevelDebug {
		return fmt.Sprintf("LEVEL(%d)", int(l))
	}
	return levelNames[l]
}

// slogLevel maps severities onto slog's numeric scale.
func (l Level) slogLevel() slog.Level {
	switch l {
	case LevelFatal:
		return slog.LevelError + 4
	case LevelError:
		return slog.LevelError
	case LevelWarning:
		return slog.LevelWarn
	case LevelInfo:
		return slog.LevelInfo
	default:
		return slog.LevelDebug
	}
}

func fromSlog(l slog.Level) Level {
	switch {
	case l > slog.LevelError:
		return LevelFatal
	case l >= slog.LevelError:
		return LevelError
	case l >= slog.LevelWarn:
		return LevelWarning
	case l >= slog.LevelInfo:
		return LevelInfo
	default:
		return LevelDebug
	}
}

// FromVerbosity converts the integer verbosity used on the command line,
// clamping out-of-range values.
func FromVerbosity(v int) Level {
	if v < int(LevelFatal) {
		return LevelFatal
	}
	if v > int(LevelDebug) {
		return LevelDebug
	}
	return Level(v)
}

// ParseLevel accepts a level name ("warning", "warn", "debug", ...) or an
// integer verbosity.
func ParseLevel(s string) (Level, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	if n, err := strconv.Atoi(s); err == nil {
		return FromVerbosity(n), nil
	}
	switch s {
	case "fatal":
		return LevelFatal, nil
	case "error":
		return LevelError, nil
	case "warning", "warn":
		return LevelWarning, nil
	case "info":
		return LevelInfo, nil
	case "debug":
		return LevelDebug, nil
	}
	return LevelFatal, fmt.Errorf("unknown log level %q", s)
}
