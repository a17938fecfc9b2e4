package logger

import (
	"fmt"
	"log"
	"os"
)

// Logger is a stdlib-backed printf logger with component prefix. It satisfies the
// logging hooks of golang-migrate (Printf + Verbose) and can be handed to robfig/cron.
type Logger struct {
	*log.Logger
	verbose bool
}

// New returns a logger with component prefix.
func New(component string) *Logger {
	prefix := fmt.Sprintf("[%s] ", component)
	return &Logger{Logger: log.New(os.Stdout, prefix, log.LstdFlags|log.Lshortfile)}
}

// WithVerbose toggles verbose output for libraries that ask for it.
func (l *Logger) WithVerbose(v bool) *Logger {
	l.verbose = v
	return l
}

// Verbose reports whether verbose logging is enabled.
func (l *Logger) Verbose() bool {
	return l.verbose
}
