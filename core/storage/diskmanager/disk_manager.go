// Package diskmanager performs raw, page-aligned reads and writes against a
// single backing file. It knows nothing about buffer pools, replacement
// policy, or logging; it is the lowest layer the disk scheduler drives.
package diskmanager

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/sushant-115/pagecore/core/storage/dberrors"
	"github.com/sushant-115/pagecore/core/storage/page"
)

// DiskManager reads and writes fixed-size pages at pageID*pageSize offsets
// in a single file. It does not allocate page ids; the buffer pool manager
// does.
type DiskManager struct {
	mu       sync.Mutex
	file     *os.File
	pageSize int
}

// Open opens (creating if necessary) the backing file at path.
func Open(path string) (*DiskManager, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o666)
	if err != nil {
		return nil, fmt.Errorf("%w: opening %s: %v", dberrors.ErrIO, path, err)
	}
	return &DiskManager{file: f, pageSize: page.Size}, nil
}

// ReadPage reads pageID's bytes into buf, which must be exactly page.Size
// bytes long.
func (dm *DiskManager) ReadPage(pageID page.ID, buf []byte) error {
	dm.mu.Lock()
	defer dm.mu.Unlock()
	if len(buf) != dm.pageSize {
		return fmt.Errorf("%w: read buffer is %d bytes, want %d", dberrors.ErrIO, len(buf), dm.pageSize)
	}
	offset := int64(pageID) * int64(dm.pageSize)
	n, err := dm.file.ReadAt(buf, offset)
	if err != nil && err != io.EOF {
		return fmt.Errorf("%w: reading page %d: %v", dberrors.ErrIO, pageID, err)
	}
	// A page beyond EOF (never written) reads back as zeroes, matching a
	// freshly-allocated page that has not yet been flushed.
	for i := n; i < len(buf); i++ {
		buf[i] = 0
	}
	return nil
}

// WritePage writes buf (exactly page.Size bytes) to pageID's offset.
func (dm *DiskManager) WritePage(pageID page.ID, buf []byte) error {
	dm.mu.Lock()
	defer dm.mu.Unlock()
	if len(buf) != dm.pageSize {
		return fmt.Errorf("%w: write buffer is %d bytes, want %d", dberrors.ErrIO, len(buf), dm.pageSize)
	}
	offset := int64(pageID) * int64(dm.pageSize)
	if _, err := dm.file.WriteAt(buf, offset); err != nil {
		return fmt.Errorf("%w: writing page %d: %v", dberrors.ErrIO, pageID, err)
	}
	return nil
}

// DeallocatePage is a best-effort notification only; this core keeps no
// on-disk free list. The buffer pool manager owns page id allocation itself
// (a pure monotonic counter); this method exists only so the BPM can tell
// the disk manager a page id is no longer in use.
func (dm *DiskManager) DeallocatePage(page.ID) {}

// Sync flushes buffered writes to stable storage.
func (dm *DiskManager) Sync() error {
	dm.mu.Lock()
	defer dm.mu.Unlock()
	return dm.file.Sync()
}

// Close syncs and closes the backing file.
func (dm *DiskManager) Close() error {
	dm.mu.Lock()
	defer dm.mu.Unlock()
	if err := dm.file.Sync(); err != nil {
		return err
	}
	return dm.file.Close()
}
