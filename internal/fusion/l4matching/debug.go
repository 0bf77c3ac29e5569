package l4matching

import (
	"io"
	"log"
)

var diagLogger *log.Logger

// SetLogWriters configures the logging streams for the l4matching package.
// Only the diag stream is used; ops and trace are accepted for symmetry
// with the other layers. Pass nil to disable a stream.
func SetLogWriters(ops, diag, trace io.Writer) {
	diagLogger = newLogger(diag)
}

func newLogger(w io.Writer) *log.Logger {
	if w == nil {
		return nil
	}
	return log.New(w, "[l4matching] ", log.LstdFlags|log.Lmicroseconds)
}

// diagf logs to the diagnostic stream (per-frame matching summaries).
func diagf(format string, args ...interface{}) {
	if diagLogger != nil {
		diagLogger.Printf(format, args...)
	}
}
