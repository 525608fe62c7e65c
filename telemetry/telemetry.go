// Package telemetry wraps the standard library's log.Logger, the
// teacher's own logging choice (mesh/app.go uses log.Println/log.Fatalf
// directly rather than a structured logging library, and no structured
// logger appears anywhere in the example pack's go.mod files).
package telemetry

import (
	"log"
	"os"
	"time"
)

// Logger is a thin wrapper around *log.Logger adding the stage-timing
// helper recognizer uses around each pipeline phase.
type Logger struct {
	*log.Logger
}

// New returns a Logger writing to stderr with the standard log flags,
// mirroring the teacher's default logger (os.Stderr, log.LstdFlags).
func New() *Logger {
	return &Logger{Logger: log.New(os.Stderr, "", log.LstdFlags)}
}

// Stage logs entry into a named pipeline stage and returns a function
// that, when deferred, logs its exit and elapsed duration — the
// structured form of the teacher's ad hoc
// `log.Printf("...took %v", time.Since(start))` lines in app.go's
// render path.
func (l *Logger) Stage(name string) func() {
	if l == nil {
		return func() {}
	}
	start := time.Now()
	l.Printf("stage %s: start", name)
	return func() {
		l.Printf("stage %s: done in %v", name, time.Since(start))
	}
}
