package stampcard

import (
	"fmt"
	"testing"

	"smallbiznis-stampcard/pkg/config"

	"github.com/stretchr/testify/require"
)

func spriteURLs() []string {
	urls := make([]string, MaxSlots+1)
	for i := range urls {
		urls[i] = fmt.Sprintf("https://cdn.example.com/card-%d.png", i)
	}
	return urls
}

func TestSpriteTableClamps(t *testing.T) {
	table, err := NewSpriteTable(spriteURLs())
	require.NoError(t, err)

	require.Equal(t, "https://cdn.example.com/card-0.png", table.URL(-3))
	require.Equal(t, "https://cdn.example.com/card-5.png", table.URL(5))
	require.Equal(t, "https://cdn.example.com/card-8.png", table.URL(99))
}

func TestSpriteTableDisabled(t *testing.T) {
	table, err := NewSpriteTable(nil)
	require.NoError(t, err)
	require.False(t, table.Enabled())
	require.Empty(t, table.URL(3))

	_, err = NewSpriteTable([]string{"a", "b"})
	require.Error(t, err)
}

func TestCycleProgress(t *testing.T) {
	cases := map[int]int{-1: 0, 0: 0, 1: 1, 7: 7, 8: 8, 9: 1, 15: 7, 16: 8, 17: 1}
	for stamps, want := range cases {
		require.Equal(t, want, CycleProgress(stamps), "stamps=%d", stamps)
	}

	table, err := NewSpriteTable(spriteURLs())
	require.NoError(t, err)
	require.Equal(t, "https://cdn.example.com/card-1.png", table.ProgressURL(9))
}

func TestLayoutFromConfig(t *testing.T) {
	l, err := LayoutFromConfig(nil)
	require.NoError(t, err)
	require.Equal(t, DefaultLayout(), l)

	_, err = LayoutFromConfig([]config.Slot{{X: 1, Y: 1, Radius: 1}})
	require.Error(t, err)

	slots := make([]config.Slot, MaxSlots)
	for i := range slots {
		slots[i] = config.Slot{X: 10 * i, Y: 5, Radius: 4}
	}
	l, err = LayoutFromConfig(slots)
	require.NoError(t, err)
	require.Equal(t, "stamp_3", l.Slots[2].Name)
	require.Equal(t, 20, l.Slots[2].X)

	slots[0].Radius = 0
	_, err = LayoutFromConfig(slots)
	require.Error(t, err)
}
