package observability

import (
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/go-logr/logr"
	"github.com/go-logr/stdr"
)

// Level is the log verbosity selected on the command line.
type Level string

const (
	LevelOff   Level = "off"
	LevelError Level = "error"
	LevelWarn  Level = "warn"
	LevelInfo  Level = "info"
	LevelDebug Level = "debug"
	LevelTrace Level = "trace"
)

// Verbosity used with logger.V(n) throughout the server.
const (
	VWarn  = 0
	VInfo  = 1
	VDebug = 2
	VTrace = 3
)

var levelVerbosity = map[Level]int{
	LevelError: VWarn,
	LevelWarn:  VWarn,
	LevelInfo:  VInfo,
	LevelDebug: VDebug,
	LevelTrace: VTrace,
}

// ParseLevel accepts the level names case-insensitively.
func ParseLevel(s string) (Level, error) {
	l := Level(strings.ToLower(strings.TrimSpace(s)))
	if l == LevelOff {
		return l, nil
	}
	if _, ok := levelVerbosity[l]; !ok {
		return "", fmt.Errorf("invalid log level %q: expected one of off, error, warn, info, debug, trace", s)
	}
	return l, nil
}

// NewLogger builds the process logger writing to w.
func NewLogger(level Level, w io.Writer) logr.Logger {
	if level == LevelOff {
		return logr.Discard()
	}

	stdr.SetVerbosity(levelVerbosity[level])
	std := log.New(w, "", log.LstdFlags|log.Lmicroseconds)
	return stdr.NewWithOptions(std, stdr.Options{LogCaller: stdr.Error}).WithName("mockserver")
}
