package lruk

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sushant-115/pagecore/core/storage/page"
)

func TestReplacer_KDistanceScenarioFromSpec(t *testing.T) {
	r := New(5, 2)

	// Access frames 1,2,3,4 (all land in history, none reach k=2 yet).
	for _, f := range []page.FrameID{1, 2, 3, 4} {
		require.NoError(t, r.RecordAccess(f))
		r.SetEvictable(f, true)
	}
	require.Equal(t, 4, r.Size())

	// Re-access 1, 2, 3: each now has 2 accesses and moves to the buffered
	// bucket. Frame 4 remains the sole history member.
	for _, f := range []page.FrameID{1, 2, 3} {
		require.NoError(t, r.RecordAccess(f))
	}

	victim, ok := r.Evict()
	require.True(t, ok)
	require.Equal(t, page.FrameID(4), victim, "sole history member evicts first")

	victim, ok = r.Evict()
	require.True(t, ok)
	require.Equal(t, page.FrameID(1), victim, "LRU among buffered frames evicts next")

	victim, ok = r.Evict()
	require.True(t, ok)
	require.Equal(t, page.FrameID(2), victim)

	victim, ok = r.Evict()
	require.True(t, ok)
	require.Equal(t, page.FrameID(3), victim)

	_, ok = r.Evict()
	require.False(t, ok, "nothing left to evict")
}

func TestReplacer_HistoryOrderedByEarliestFirstAccess(t *testing.T) {
	r := New(3, 3) // k=3, so none of these frames ever reach the buffered bucket
	for _, f := range []page.FrameID{0, 1, 2} {
		require.NoError(t, r.RecordAccess(f))
		r.SetEvictable(f, true)
	}

	victim, ok := r.Evict()
	require.True(t, ok)
	require.Equal(t, page.FrameID(0), victim, "earliest first-access evicts first among history frames")
}

func TestReplacer_SetEvictableIsIdempotent(t *testing.T) {
	r := New(2, 2)
	require.NoError(t, r.RecordAccess(0))
	r.SetEvictable(0, true)
	r.SetEvictable(0, true) // no-op, must not double count
	require.Equal(t, 1, r.Size())
	r.SetEvictable(0, false)
	require.Equal(t, 0, r.Size())
}

func TestReplacer_EvictionSafety_NonEvictableNeverReturned(t *testing.T) {
	r := New(2, 2)
	require.NoError(t, r.RecordAccess(0))
	require.NoError(t, r.RecordAccess(1))
	r.SetEvictable(1, true) // only frame 1 is evictable

	victim, ok := r.Evict()
	require.True(t, ok)
	require.Equal(t, page.FrameID(1), victim)

	_, ok = r.Evict()
	require.False(t, ok, "frame 0 is pinned (non-evictable) and must never be returned")
}

func TestReplacer_RecordAccessRejectsOutOfRangeFrame(t *testing.T) {
	r := New(2, 2)
	err := r.RecordAccess(5)
	require.Error(t, err)
}

func TestReplacer_RemoveNonEvictableFails(t *testing.T) {
	r := New(1, 2)
	require.NoError(t, r.RecordAccess(0))
	err := r.Remove(0)
	require.Error(t, err, "frame is tracked but not evictable")
}

func TestReplacer_RemoveUnknownFrameIsNoop(t *testing.T) {
	r := New(2, 2)
	require.NoError(t, r.Remove(0))
}

func TestReplacer_SizeTracksEvictableCount(t *testing.T) {
	r := New(3, 2)
	for _, f := range []page.FrameID{0, 1, 2} {
		require.NoError(t, r.RecordAccess(f))
	}
	require.Equal(t, 0, r.Size())
	r.SetEvictable(0, true)
	r.SetEvictable(1, true)
	require.Equal(t, 2, r.Size())
	_, ok := r.Evict()
	require.True(t, ok)
	require.Equal(t, 1, r.Size())
}
