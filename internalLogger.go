package ringlog

import (
	"log"
	"os"
	"sync/atomic"
)

var internalLogger atomic.Value

func init() {
	internalLogger.Store(log.New(os.Stderr, "[ringlog] ", log.LstdFlags))
}

// InternalLogger returns the Logger used as the side channel for failures
// inside the logging stack itself. A broken sink cannot report through the
// sinks, so rotation shift errors, compression failures, and per-sink
// dispatch failures are written here instead.
func InternalLogger() *log.Logger { return internalLogger.Load().(*log.Logger) }

// SetInternalLogger makes l the side-channel logger.
func SetInternalLogger(l *log.Logger) {
	internalLogger.Store(l)
}
