package rlog

import (
	"fmt"
	"strings"
)

// Level is a bit set of severities. A single-bit value identifies the
// severity of one message, a multi-bit value is the set a Dispatcher accepts.
type Level uint64

// Built-in severities
const (
	LevelOff     Level = 0
	LevelVerbose Level = 1 << 0
	LevelDebug   Level = 1 << 1
	LevelInfo    Level = 1 << 2
	LevelWarning Level = 1 << 3
	LevelError   Level = 1 << 4
	LevelFatal   Level = 1 << 5
	LevelAll     Level = ^Level(0)
)

// firstCustomBit is the lowest bit position not taken by a built-in severity
const firstCustomBit = 6

// CustomLevel returns the severity occupying bit position n.
// Positions below the built-in range and above 63 yield LevelOff.
func CustomLevel(n uint) Level {
	if n < firstCustomBit || n > 63 {
		return LevelOff
	}
	return Level(1) << n
}

// Union returns l with every bit of others added
func (l Level) Union(others ...Level) Level {
	for _, o := range others {
		l |= o
	}
	return l
}

// Contains reports whether any bit of bit is set in l
func (l Level) Contains(bit Level) bool {
	return l&bit != 0
}

// String returns the name of a built-in level, "Unknown" for anything else
func (l Level) String() string {
	switch l {
	case LevelOff:
		return "Off"
	case LevelVerbose:
		return "Verbose"
	case LevelDebug:
		return "Debug"
	case LevelInfo:
		return "Info"
	case LevelWarning:
		return "Warning"
	case LevelError:
		return "Error"
	case LevelFatal:
		return "Fatal"
	case LevelAll:
		return "All"
	default:
		return "Unknown"
	}
}

// ParseLevel converts a level name to its constant
func ParseLevel(levelStr string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(levelStr)) {
	case "off", "none":
		return LevelOff, nil
	case "verbose":
		return LevelVerbose, nil
	case "debug":
		return LevelDebug, nil
	case "info":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarning, nil
	case "error":
		return LevelError, nil
	case "fatal":
		return LevelFatal, nil
	case "all":
		return LevelAll, nil
	default:
		return LevelOff, fmt.Errorf("%w: '%s' (use off, verbose, debug, info, warning, error, fatal, all)",
			ErrInvalidLevel, levelStr)
	}
}

// ParseLevels parses a list of level names separated by ',' or '|' into one set
func ParseLevels(levelsStr string) (Level, error) {
	fields := strings.FieldsFunc(levelsStr, func(r rune) bool {
		return r == ',' || r == '|' || r == ' '
	})
	if len(fields) == 0 {
		return LevelOff, fmt.Errorf("%w: empty level list", ErrInvalidLevel)
	}

	var set Level
	for _, f := range fields {
		lvl, err := ParseLevel(f)
		if err != nil {
			return LevelOff, err
		}
		set |= lvl
	}
	return set, nil
}
