// Package page defines the fixed-size in-memory frame that the buffer pool
// manages and the logical page identifiers that address disk-resident pages.
package page

import (
	"sync"

	commonutils "github.com/sushant-115/pagecore/internal/common_utils"
)

// Size is the fixed compile-time page size. All disk I/O is page-sized and
// page-aligned by page id.
const Size = 4096

// ID is a page's logical identifier, monotonically allocated from zero by
// the buffer pool manager. Signed so InvalidID can sit outside the valid
// range without colliding with id 0.
type ID int64

// InvalidID is the sentinel meaning "no page" / "empty frame".
const InvalidID ID = -1

// FrameID identifies a slot in the buffer pool's frame array.
type FrameID int

// Frame is an in-memory slot holding at most one page: its payload plus the
// bookkeeping the buffer pool needs (pin count, dirty flag). The embedded
// latch is a hook for an external page-guard layer; the buffer pool itself
// never calls Lock/RLock.
type Frame struct {
	id       ID
	data     []byte
	pinCount uint32
	isDirty  bool

	latch sync.RWMutex
}

// NewFrame allocates an empty frame with a zeroed payload of page.Size bytes.
func NewFrame() *Frame {
	return &Frame{
		id:   InvalidID,
		data: make([]byte, Size),
	}
}

// Reset returns the frame to its empty state: no page id, unpinned, clean,
// zeroed payload. Called after a dirty victim's write-back completes, and
// when a frame is returned to the free list via DeletePage or after a failed
// FetchPage read.
func (f *Frame) Reset() {
	f.Detach()
	for i := range f.data {
		f.data[i] = 0
	}
}

// Detach clears id, pin count, and the dirty flag but leaves the payload
// bytes untouched. Called when a clean victim's frame is reclaimed: the
// stale payload is left in place rather than zeroed, since the caller is
// about to either overwrite it with an incoming read or leave it as-is.
func (f *Frame) Detach() {
	f.id = InvalidID
	f.pinCount = 0
	f.isDirty = false
}

func (f *Frame) Data() []byte        { return f.data }
func (f *Frame) ID() ID              { return f.id }
func (f *Frame) SetID(id ID)         { f.id = id }
func (f *Frame) IsDirty() bool       { return f.isDirty }
func (f *Frame) SetDirty(dirty bool) { f.isDirty = dirty }
func (f *Frame) PinCount() uint32    { return f.pinCount }

// Pin increments the pin count. Called once per NewPage/FetchPage call
// (FetchPage hits included); the caller never needs a second explicit pin
// for the frame it just got back.
func (f *Frame) Pin() { f.pinCount++ }

// Unpin decrements the pin count, saturating at zero.
func (f *Frame) Unpin() {
	if f.pinCount > 0 {
		f.pinCount--
	}
}

// RLock/RUnlock/Lock/Unlock expose the frame's latch to an external page
// guard layer. The buffer pool manager does not take this latch itself.
func (f *Frame) RLock()  { f.latch.RLock() }
func (f *Frame) RUnlock() { f.latch.RUnlock() }
func (f *Frame) Lock() {
	commonutils.PrintCaller("frame lock", uint64(f.id), 2)
	f.latch.Lock()
}
func (f *Frame) Unlock() { f.latch.Unlock() }
