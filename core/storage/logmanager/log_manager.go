// Package logmanager is the write-ahead-log hook the buffer pool manager
// holds a reference to but never calls: recovery and redo are out of scope
// for this core. LogManager exists so the buffer pool's constructor
// signature matches the collaborator it is built against in a full engine,
// without pulling in WAL segment management, rotation, or replay here.
package logmanager

import "go.uber.org/zap"

// LSN is a write-ahead-log sequence number. This core never assigns one.
type LSN uint64

// InvalidLSN marks a page that has no associated log record.
const InvalidLSN LSN = 0

// LogManager is an opaque handle. A full engine would route
// UnpinPage(dirty=true) through it before a page is evicted; this core does
// not.
type LogManager struct {
	log *zap.Logger
}

// New constructs a LogManager handle around an (unused by this core) log
// sink.
func New(log *zap.Logger) *LogManager {
	return &LogManager{log: log}
}
