package l5ttc

import (
	"io"
	"log"
)

var traceLogger *log.Logger

// SetLogWriters configures the logging streams for the l5ttc package.
// Estimates are only traced; ops and diag are accepted for symmetry with
// the other layers. Pass nil to disable.
func SetLogWriters(ops, diag, trace io.Writer) {
	if trace == nil {
		traceLogger = nil
		return
	}
	traceLogger = log.New(trace, "[l5ttc] ", log.LstdFlags|log.Lmicroseconds)
}

// tracef logs to the trace stream (per-pair estimator inputs).
func tracef(format string, args ...interface{}) {
	if traceLogger != nil {
		traceLogger.Printf(format, args...)
	}
}
