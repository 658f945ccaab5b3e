package bufferpool

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric/noop"
	nooptrace "go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"

	"github.com/sushant-115/pagecore/core/storage/diskmanager"
	"github.com/sushant-115/pagecore/core/storage/diskscheduler"
	"github.com/sushant-115/pagecore/core/storage/logmanager"
	"github.com/sushant-115/pagecore/core/storage/page"
)

func newTestManager(t *testing.T, poolSize, replacerK int) *Manager {
	t.Helper()
	dm, err := diskmanager.Open(filepath.Join(t.TempDir(), "data.db"))
	require.NoError(t, err)
	t.Cleanup(func() { dm.Close() })

	log := zap.NewNop()
	sched := diskscheduler.New(dm, log)
	t.Cleanup(func() { sched.Close() })
	logMgr := logmanager.New(log)

	meter := noop.NewMeterProvider().Meter("")
	tracer := nooptrace.NewTracerProvider().Tracer("")

	m, err := New(poolSize, replacerK, sched, logMgr, meter, tracer, log)
	require.NoError(t, err)
	return m
}

func TestNewPageReturnsDistinctPinnedPages(t *testing.T) {
	m := newTestManager(t, 3, 2)
	ctx := context.Background()

	id1, frame1, ok, err := m.NewPage(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, uint32(1), frame1.PinCount())

	id2, _, ok, err := m.NewPage(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	require.NotEqual(t, id1, id2)
}

func TestNewPageFailsWhenPoolExhaustedAndNothingEvictable(t *testing.T) {
	m := newTestManager(t, 2, 2)
	ctx := context.Background()

	_, _, ok, err := m.NewPage(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	_, _, ok, err = m.NewPage(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	// Both frames remain pinned (never unpinned), so no victim is available.
	_, _, ok, err = m.NewPage(ctx)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestUnpinMakesFrameEvictableAndNewPageSucceedsAfterEviction(t *testing.T) {
	m := newTestManager(t, 1, 2)
	ctx := context.Background()

	id1, _, ok, err := m.NewPage(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	require.True(t, m.UnpinPage(id1, false))

	id2, _, ok, err := m.NewPage(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	require.NotEqual(t, id1, id2)
}

func TestFetchPageHitReturnsSameFrameContents(t *testing.T) {
	m := newTestManager(t, 2, 2)
	ctx := context.Background()

	id, frame, ok, err := m.NewPage(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	copy(frame.Data(), bytes.Repeat([]byte{0x42}, page.Size))
	frame.SetDirty(true)
	require.True(t, m.UnpinPage(id, true))

	fetched, ok, err := m.FetchPage(ctx, id)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, frame, fetched)
	require.Equal(t, uint32(1), fetched.PinCount())
}

func TestFetchPageMissReadsFromDisk(t *testing.T) {
	m := newTestManager(t, 2, 2)
	ctx := context.Background()

	id, frame, ok, err := m.NewPage(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	copy(frame.Data(), bytes.Repeat([]byte{0x7A}, page.Size))
	frame.SetDirty(true)
	require.True(t, m.UnpinPage(id, true))
	_, err = m.FlushPage(ctx, id)
	require.NoError(t, err)
	require.True(t, m.DeletePage(id))

	// id's frame is back on the free list; the next fetch reads it fresh from disk.
	refetched, ok, err := m.FetchPage(ctx, id)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, bytes.Repeat([]byte{0x7A}, page.Size), refetched.Data())
}

func TestUnpinUnknownPageReturnsFalse(t *testing.T) {
	m := newTestManager(t, 2, 2)
	require.False(t, m.UnpinPage(99, false))
}

func TestDeletePageFailsWhilePinned(t *testing.T) {
	m := newTestManager(t, 2, 2)
	ctx := context.Background()

	id, _, ok, err := m.NewPage(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	require.False(t, m.DeletePage(id))
}

func TestDeletePageOfAbsentPageSucceeds(t *testing.T) {
	m := newTestManager(t, 2, 2)
	require.True(t, m.DeletePage(1234))
}

func TestDeletePageFreesAFrameForReuse(t *testing.T) {
	m := newTestManager(t, 1, 2)
	ctx := context.Background()

	id, _, ok, err := m.NewPage(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	require.True(t, m.UnpinPage(id, false))
	require.True(t, m.DeletePage(id))

	_, _, ok, err = m.NewPage(ctx)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestFlushAllPagesFlushesEveryResidentPage(t *testing.T) {
	m := newTestManager(t, 3, 2)
	ctx := context.Background()

	var ids []page.ID
	for i := 0; i < 3; i++ {
		id, frame, ok, err := m.NewPage(ctx)
		require.NoError(t, err)
		require.True(t, ok)
		frame.SetDirty(true)
		ids = append(ids, id)
	}

	require.NoError(t, m.FlushAllPages(ctx))

	for _, id := range ids {
		frameID := m.pageTable[id]
		require.False(t, m.frames[frameID].IsDirty())
	}
}

func TestEvictionWritesBackDirtyVictim(t *testing.T) {
	m := newTestManager(t, 2, 2)
	ctx := context.Background()

	id1, frame1, ok, err := m.NewPage(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	copy(frame1.Data(), bytes.Repeat([]byte{0x99}, page.Size))
	frame1.SetDirty(true)
	require.True(t, m.UnpinPage(id1, true))

	id2, _, ok, err := m.NewPage(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	require.True(t, m.UnpinPage(id2, false))

	// The free list is now exhausted and both pages are evictable; id1 is
	// the older (history-bucket) access and evicts first, forcing a
	// write-back of its dirty data before the frame is reused.
	_, _, ok, err = m.NewPage(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	refetched, ok, err := m.FetchPage(ctx, id1)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, bytes.Repeat([]byte{0x99}, page.Size), refetched.Data())
}
