package auth

import (
	"fmt"
	"strings"
)

// LogLevel is the server's operation logging level (opLogging).
type LogLevel int

const (
	LogOff LogLevel = iota
	LogWrite
	LogRead
	LogReadWrite
)

var logLevelNames = map[LogLevel]string{
	LogOff:       "off",
	LogWrite:     "write",
	LogRead:      "read",
	LogReadWrite: "read_write",
}

func (l LogLevel) String() string {
	if name, ok := logLevelNames[l]; ok {
		return name
	}
	return fmt.Sprintf("LogLevel(%d)", int(l))
}

// Valid reports whether l is one of the defined levels.
func (l LogLevel) Valid() bool {
	_, ok := logLevelNames[l]
	return ok
}

// ParseLogLevel accepts a level name ("off", "write", "read", "read_write") or its number.
func ParseLogLevel(s string) (LogLevel, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for level, name := range logLevelNames {
		if s == name || s == fmt.Sprint(int(level)) {
			return level, nil
		}
	}
	return 0, fmt.Errorf("unknown logging level %q", s)
}

// TraceLevel is the server's tracing level (traceAll, queryTraceLevel).
type TraceLevel int

const (
	TraceOff TraceLevel = iota
	TraceSome
	TraceOn
)

var traceLevelNames = map[TraceLevel]string{
	TraceOff:  "off",
	TraceSome: "some",
	TraceOn:   "on",
}

func (t TraceLevel) String() string {
	if name, ok := traceLevelNames[t]; ok {
		return name
	}
	return fmt.Sprintf("TraceLevel(%d)", int(t))
}

// Valid reports whether t is one of the defined levels.
func (t TraceLevel) Valid() bool {
	_, ok := traceLevelNames[t]
	return ok
}

// ParseTraceLevel accepts a level name ("off", "some", "on") or its number.
func ParseTraceLevel(s string) (TraceLevel, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for level, name := range traceLevelNames {
		if s == name || s == fmt.Sprint(int(level)) {
			return level, nil
		}
	}
	return 0, fmt.Errorf("unknown tracing level %q", s)
}
