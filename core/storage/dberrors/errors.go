// Package dberrors centralizes the sentinel errors raised by the storage
// core (buffer pool, replacer, disk scheduler).
package dberrors

import "errors"

var (
	// ErrIO wraps a failure reported by the disk scheduler.
	ErrIO = errors.New("i/o error")
	// ErrInvalidFrameID is raised by the replacer when a frame id is out of
	// the configured range.
	ErrInvalidFrameID = errors.New("frame id is larger than the replacer size")
	// ErrFrameNotEvictable is raised by Remove when the tracked frame is
	// currently marked non-evictable.
	ErrFrameNotEvictable = errors.New("frame is not evictable")
)
