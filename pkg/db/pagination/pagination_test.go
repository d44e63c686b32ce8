package pagination

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSize(t *testing.T) {
	require.Equal(t, DefaultLimit, Pagination{}.Size())
	require.Equal(t, DefaultLimit, Pagination{Limit: -3}.Size())
	require.Equal(t, 7, Pagination{Limit: 7}.Size())
	require.Equal(t, MaxLimit, Pagination{Limit: 10_000}.Size())
}

func TestCursorRoundTrip(t *testing.T) {
	in := Cursor{CreatedAt: time.Date(2026, 10, 14, 9, 30, 0, 0, time.UTC), ID: 42}
	s, err := EncodeCursor(in)
	require.NoError(t, err)

	out, err := DecodeCursor(s)
	require.NoError(t, err)
	require.True(t, in.CreatedAt.Equal(out.CreatedAt))
	require.Equal(t, in.ID, out.ID)

	_, err = DecodeCursor("%%%")
	require.Error(t, err)
}

func TestBuildCursorPage(t *testing.T) {
	rows := []int64{5, 4, 3}
	extract := func(v int64) Cursor { return Cursor{ID: v} }

	page, info, err := BuildCursorPage(rows, 3, extract)
	require.NoError(t, err)
	require.Len(t, page, 3)
	require.False(t, info.HasMore)
	require.Empty(t, info.NextCursor)

	page, info, err = BuildCursorPage(rows, 2, extract)
	require.NoError(t, err)
	require.Equal(t, []int64{5, 4}, page)
	require.True(t, info.HasMore)

	c, err := DecodeCursor(info.NextCursor)
	require.NoError(t, err)
	require.Equal(t, int64(4), c.ID)
}
