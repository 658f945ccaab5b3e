// Package bufferpool implements the fixed-capacity page cache that mediates
// all access between higher-level components and the disk subsystem. A
// single latch serializes every state transition; eviction decisions are
// delegated to an LRU-K replacer and I/O to a disk scheduler.
package bufferpool

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/sushant-115/pagecore/core/buffer/lruk"
	bpmetrics "github.com/sushant-115/pagecore/core/buffer/metrics"
	"github.com/sushant-115/pagecore/core/storage/dberrors"
	"github.com/sushant-115/pagecore/core/storage/diskscheduler"
	"github.com/sushant-115/pagecore/core/storage/logmanager"
	"github.com/sushant-115/pagecore/core/storage/page"
)

// Manager owns the frame array, the page table, the free list, and the
// replacer. All of its operations serialize on a single latch, including
// the wait for a scheduled disk I/O's promise to resolve — correctness over
// throughput, per spec.
type Manager struct {
	mu sync.Mutex

	frames    []*page.Frame
	pageTable map[page.ID]page.FrameID
	freeList  []page.FrameID
	replacer  *lruk.Replacer
	scheduler *diskscheduler.Scheduler
	logMgr    *logmanager.LogManager

	nextPageID page.ID

	metrics *bpmetrics.BufferPool
	tracer  trace.Tracer
	log     *zap.Logger
}

// New constructs a buffer pool of poolSize frames, backed by scheduler for
// I/O and replacerK as the LRU-K history depth. meter/tracer may be the
// no-op providers (see pkg/telemetry) when telemetry is disabled.
func New(poolSize int, replacerK int, scheduler *diskscheduler.Scheduler, logMgr *logmanager.LogManager, meter metric.Meter, tracer trace.Tracer, log *zap.Logger) (*Manager, error) {
	m, err := bpmetrics.New(meter)
	if err != nil {
		return nil, fmt.Errorf("bufferpool: building metrics: %w", err)
	}

	frames := make([]*page.Frame, poolSize)
	freeList := make([]page.FrameID, poolSize)
	for i := 0; i < poolSize; i++ {
		frames[i] = page.NewFrame()
		freeList[i] = page.FrameID(i)
	}

	return &Manager{
		frames:    frames,
		pageTable: make(map[page.ID]page.FrameID),
		freeList:  freeList,
		replacer:  lruk.New(poolSize, replacerK),
		scheduler: scheduler,
		logMgr:    logMgr,
		metrics:   m,
		tracer:    tracer,
		log:       log,
	}, nil
}

// acquireFrame implements the frame acquisition policy shared by NewPage and
// FetchPage: prefer the free list, else ask the replacer for a victim,
// writing it back first if dirty. Returns ok=false when the pool is
// exhausted; err is non-nil only on a write-back I/O failure, in which case
// the page table is left untouched.
//
// A dirty victim's payload is zeroed only after its write-back completes. A
// clean victim's payload is left untouched: the caller is about to overwrite
// it with an incoming read (FetchPage) or hand it back as-is (NewPage), and
// reusing the frame without clearing it first matches the original's
// ResetMemory-only-on-the-dirty-branch behavior.
func (m *Manager) acquireFrame(ctx context.Context) (frameID page.FrameID, ok bool, err error) {
	if len(m.freeList) > 0 {
		frameID = m.freeList[len(m.freeList)-1]
		m.freeList = m.freeList[:len(m.freeList)-1]
		return frameID, true, nil
	}

	victim, found := m.replacer.Evict()
	if !found {
		return 0, false, nil
	}
	m.metrics.Evictions.Add(ctx, 1)

	frame := m.frames[victim]
	wasDirty := frame.IsDirty()
	if wasDirty {
		if err := m.writeBack(ctx, frame); err != nil {
			return 0, false, err
		}
	}
	delete(m.pageTable, frame.ID())
	if wasDirty {
		frame.Reset()
	} else {
		frame.Detach()
	}
	return victim, true, nil
}

func (m *Manager) writeBack(ctx context.Context, frame *page.Frame) error {
	start := time.Now()
	promise := m.scheduler.CreatePromise()
	m.scheduler.Schedule(diskscheduler.Request{
		IsWrite: true,
		Buffer:  frame.Data(),
		PageID:  frame.ID(),
		Promise: promise,
	})
	ok := <-promise
	m.metrics.IOWaitMillis.Record(ctx, time.Since(start).Milliseconds())
	if !ok {
		return fmt.Errorf("%w: write-back of page %d failed", dberrors.ErrIO, frame.ID())
	}
	m.metrics.DirtyWritebacks.Add(ctx, 1)
	frame.SetDirty(false)
	return nil
}

// NewPage allocates a fresh page id and a frame to hold it. The returned
// frame is pinned (pin_count=1) and clean; its payload is zeroed only when
// it came from the free list or was reclaimed from a dirty victim. A clean
// victim's frame is handed back with its previous contents still in it.
// Returns ok=false when the pool is exhausted.
func (m *Manager) NewPage(ctx context.Context) (pageID page.ID, frame *page.Frame, ok bool, err error) {
	ctx, span := m.tracer.Start(ctx, "bufferpool.NewPage")
	defer span.End()

	m.mu.Lock()
	defer m.mu.Unlock()

	frameID, acquired, err := m.acquireFrame(ctx)
	if err != nil {
		return 0, nil, false, err
	}
	if !acquired {
		m.log.Warn("bufferpool: new page failed, pool exhausted")
		return 0, nil, false, nil
	}

	pageID = m.nextPageID
	m.nextPageID++

	frame = m.frames[frameID]
	frame.SetID(pageID)
	frame.Pin()
	m.pageTable[pageID] = frameID

	m.replacer.RecordAccess(frameID) //nolint:errcheck // frameID is always < capacity here
	m.replacer.SetEvictable(frameID, false)
	m.metrics.PinnedFrames.Add(ctx, 1)

	span.SetAttributes(attribute.Int64("page_id", int64(pageID)), attribute.Int("frame_id", int(frameID)))
	m.log.Debug("bufferpool: new page", zap.Int64("page_id", int64(pageID)), zap.Int("frame_id", int(frameID)))
	return pageID, frame, true, nil
}

// FetchPage returns the frame holding pageID, pinning it (pin_count
// incremented) and recording the access for the replacer. If pageID is not
// resident, a frame is acquired and the page is read in. Returns ok=false
// with a nil error iff no frame is available; a failed read returns ok=false
// with an ErrIO error.
func (m *Manager) FetchPage(ctx context.Context, pageID page.ID) (frame *page.Frame, ok bool, err error) {
	ctx, span := m.tracer.Start(ctx, "bufferpool.FetchPage")
	defer span.End()
	span.SetAttributes(attribute.Int64("page_id", int64(pageID)))

	m.mu.Lock()
	defer m.mu.Unlock()

	if frameID, resident := m.pageTable[pageID]; resident {
		frame := m.frames[frameID]
		frame.Pin()
		m.replacer.RecordAccess(frameID) //nolint:errcheck
		m.replacer.SetEvictable(frameID, false)
		m.metrics.Hits.Add(ctx, 1)
		if frame.PinCount() == 1 {
			m.metrics.PinnedFrames.Add(ctx, 1)
		}
		m.log.Debug("bufferpool: fetch hit", zap.Int64("page_id", int64(pageID)), zap.Int("frame_id", int(frameID)))
		return frame, true, nil
	}

	m.metrics.Misses.Add(ctx, 1)

	frameID, acquired, err := m.acquireFrame(ctx)
	if err != nil {
		return nil, false, err
	}
	if !acquired {
		m.log.Warn("bufferpool: fetch failed, pool exhausted", zap.Int64("page_id", int64(pageID)))
		return nil, false, nil
	}

	frame = m.frames[frameID]

	start := time.Now()
	promise := m.scheduler.CreatePromise()
	m.scheduler.Schedule(diskscheduler.Request{
		IsWrite: false,
		Buffer:  frame.Data(),
		PageID:  pageID,
		Promise: promise,
	})
	readOK := <-promise
	m.metrics.IOWaitMillis.Record(ctx, time.Since(start).Milliseconds())
	if !readOK {
		// The frame is empty (acquireFrame already removed any prior
		// mapping) and not yet installed in the page table; it goes back
		// to the free list, zeroed, so the next acquireFrame call claims
		// it again.
		frame.Reset()
		m.freeList = append(m.freeList, frameID)
		return nil, false, fmt.Errorf("%w: reading page %d failed", dberrors.ErrIO, pageID)
	}

	frame.SetID(pageID)
	frame.Pin()
	m.pageTable[pageID] = frameID
	m.replacer.RecordAccess(frameID) //nolint:errcheck
	m.replacer.SetEvictable(frameID, false)
	m.metrics.PinnedFrames.Add(ctx, 1)

	m.log.Debug("bufferpool: fetch miss, read from disk", zap.Int64("page_id", int64(pageID)), zap.Int("frame_id", int(frameID)))
	return frame, true, nil
}

// UnpinPage decrements pageID's pin count, marking the frame evictable once
// it reaches zero. Returns false if pageID is not resident. is_dirty only
// ever sets the dirty flag, never clears it.
func (m *Manager) UnpinPage(pageID page.ID, isDirty bool) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	frameID, resident := m.pageTable[pageID]
	if !resident {
		return false
	}
	frame := m.frames[frameID]
	if isDirty {
		frame.SetDirty(true)
	}
	frame.Unpin()
	if frame.PinCount() == 0 {
		m.replacer.SetEvictable(frameID, true)
		m.metrics.PinnedFrames.Add(context.Background(), -1)
	}
	return true
}

// FlushPage writes pageID's frame to disk if resident, clearing its dirty
// flag on success. Returns false if pageID is not resident.
func (m *Manager) FlushPage(ctx context.Context, pageID page.ID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	frameID, resident := m.pageTable[pageID]
	if !resident {
		return false, nil
	}
	frame := m.frames[frameID]

	start := time.Now()
	promise := m.scheduler.CreatePromise()
	m.scheduler.Schedule(diskscheduler.Request{
		IsWrite: true,
		Buffer:  frame.Data(),
		PageID:  pageID,
		Promise: promise,
	})
	ok := <-promise
	m.metrics.IOWaitMillis.Record(ctx, time.Since(start).Milliseconds())
	if !ok {
		return false, fmt.Errorf("%w: flushing page %d failed", dberrors.ErrIO, pageID)
	}
	frame.SetDirty(false)
	return true, nil
}

// FlushAllPages flushes every resident page, in arbitrary order.
func (m *Manager) FlushAllPages(ctx context.Context) error {
	m.mu.Lock()
	pageIDs := make([]page.ID, 0, len(m.pageTable))
	for id := range m.pageTable {
		pageIDs = append(pageIDs, id)
	}
	m.mu.Unlock()

	for _, id := range pageIDs {
		if _, err := m.FlushPage(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

// DeletePage removes pageID from the pool. Succeeds (true) when pageID is
// absent or resident-and-unpinned; returns false when resident and pinned.
func (m *Manager) DeletePage(pageID page.ID) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	frameID, resident := m.pageTable[pageID]
	if !resident {
		return true
	}
	frame := m.frames[frameID]
	if frame.PinCount() > 0 {
		return false
	}

	delete(m.pageTable, pageID)
	_ = m.replacer.Remove(frameID)
	frame.Reset()
	m.freeList = append(m.freeList, frameID)
	m.scheduler.DeallocatePage(pageID)

	m.log.Debug("bufferpool: deleted page", zap.Int64("page_id", int64(pageID)), zap.Int("frame_id", int(frameID)))
	return true
}
