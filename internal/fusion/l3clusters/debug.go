package l3clusters

import (
	"io"
	"log"
)

var (
	opsLogger   *log.Logger
	traceLogger *log.Logger
)

// SetLogWriters configures the logging streams for the l3clusters package.
// Clustering has nothing to report on diag; that writer is ignored. Pass
// nil for any writer to disable that stream.
func SetLogWriters(ops, diag, trace io.Writer) {
	opsLogger = newLogger(ops)
	traceLogger = newLogger(trace)
}

func newLogger(w io.Writer) *log.Logger {
	if w == nil {
		return nil
	}
	return log.New(w, "[l3clusters] ", log.LstdFlags|log.Lmicroseconds)
}

// opsf logs to the ops stream (actionable warnings, errors, data loss).
func opsf(format string, args ...interface{}) {
	if opsLogger != nil {
		opsLogger.Printf(format, args...)
	}
}

// tracef logs to the trace stream (per-box clustering telemetry).
func tracef(format string, args ...interface{}) {
	if traceLogger != nil {
		traceLogger.Printf(format, args...)
	}
}
