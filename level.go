package managed

import (
	"log/slog"
	"strings"
)

type (
	// LogLevel selects how much an object or the process logs.
	// Each level includes the output of the levels below it.
	LogLevel int8
	// CheckLevel selects which checks run.
	CheckLevel int8
)

const (
	// InheritLogLevel defers to the level of the enclosing [Context].
	// Only valid as an object-local override.
	InheritLogLevel LogLevel = iota - 1
	Silent
	Warning
	Progress
	Terse
	Verbose
	Memory
)

const (
	// InheritCheckLevel defers to the level of the enclosing [Context].
	// Only valid as an object-local override.
	InheritCheckLevel CheckLevel = iota - 1
	// None disables usage and internal checks.
	None
	// Usage enables checks for API misuse.
	Usage
	// UsageAndInternal additionally enables (often expensive)
	// checks of this package's own invariants.
	UsageAndInternal
)

// slogFloor is the handler threshold for loggers built by this package;
// filtering happens against [LogLevel] before a record reaches slog.
const slogFloor = slog.LevelDebug - 8

var (
	logLevelNames = [...]string{
		"silent", "warning", "progress",
		"terse", "verbose", "memory",
	}
	checkLevelNames = [...]string{
		"none", "usage", "usage_and_internal",
	}
)

func (l LogLevel) String() string {
	if l == InheritLogLevel {
		return "inherit"
	}
	if l < 0 || int(l) >= len(logLevelNames) {
		return "invalid"
	}
	return logLevelNames[l]
}

func (l CheckLevel) String() string {
	if l == InheritCheckLevel {
		return "inherit"
	}
	if l < 0 || int(l) >= len(checkLevelNames) {
		return "invalid"
	}
	return checkLevelNames[l]
}

func (l LogLevel) valid() bool   { return l >= Silent && l <= Memory }
func (l CheckLevel) valid() bool { return l >= None && l <= UsageAndInternal }

// slogLevel maps l onto the slog severity scale.
func (l LogLevel) slogLevel() slog.Level {
	switch l {
	case Warning:
		return slog.LevelWarn
	case Progress:
		return slog.LevelInfo
	case Terse:
		return slog.LevelDebug
	case Verbose:
		return slog.LevelDebug - 4
	default:
		return slogFloor
	}
}

// ParseLogLevel converts a level name (case-insensitive) to a [LogLevel].
func ParseLogLevel(name string) (LogLevel, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "inherit" {
		return InheritLogLevel, nil
	}
	for i, known := range logLevelNames {
		if name == known {
			return LogLevel(i), nil
		}
	}
	return InheritLogLevel, invalidLevelError("log", name)
}

// ParseCheckLevel converts a level name (case-insensitive) to a [CheckLevel].
// Hyphens and underscores are interchangeable.
func ParseCheckLevel(name string) (CheckLevel, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	name = strings.ReplaceAll(name, "-", "_")
	if name == "inherit" {
		return InheritCheckLevel, nil
	}
	for i, known := range checkLevelNames {
		if name == known {
			return CheckLevel(i), nil
		}
	}
	return InheritCheckLevel, invalidLevelError("check", name)
}
