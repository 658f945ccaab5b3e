package diskmanager

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sushant-115/pagecore/core/storage/page"
)

func TestWriteThenReadRoundTrip(t *testing.T) {
	dm, err := Open(filepath.Join(t.TempDir(), "data.db"))
	require.NoError(t, err)
	defer dm.Close()

	want := make([]byte, page.Size)
	for i := range want {
		want[i] = byte(i % 251)
	}
	require.NoError(t, dm.WritePage(3, want))

	got := make([]byte, page.Size)
	require.NoError(t, dm.ReadPage(3, got))
	require.Equal(t, want, got)
}

func TestReadOfNeverWrittenPageReadsAsZero(t *testing.T) {
	dm, err := Open(filepath.Join(t.TempDir(), "data.db"))
	require.NoError(t, err)
	defer dm.Close()

	buf := make([]byte, page.Size)
	for i := range buf {
		buf[i] = 0xFF
	}
	require.NoError(t, dm.ReadPage(7, buf))

	for _, b := range buf {
		require.Zero(t, b)
	}
}

func TestReadWriteRejectWrongSizedBuffers(t *testing.T) {
	dm, err := Open(filepath.Join(t.TempDir(), "data.db"))
	require.NoError(t, err)
	defer dm.Close()

	require.Error(t, dm.WritePage(0, make([]byte, 10)))
	require.Error(t, dm.ReadPage(0, make([]byte, 10)))
}

func TestDeallocatePageIsSafeNoop(t *testing.T) {
	dm, err := Open(filepath.Join(t.TempDir(), "data.db"))
	require.NoError(t, err)
	defer dm.Close()

	require.NotPanics(t, func() { dm.DeallocatePage(1) })
}
