package stampcard

import (
	"image"
	"image/color"
	"image/draw"
	"testing"

	"github.com/stretchr/testify/require"
)

var (
	lockedColor   = color.RGBA{R: 200, G: 30, B: 30, A: 255}
	revealedColor = color.RGBA{R: 20, G: 40, B: 220, A: 255}
)

func solid(w, h int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: c}, image.Point{}, draw.Src)
	return img
}

func TestDefaultLayoutGeometry(t *testing.T) {
	l := DefaultLayout()
	require.Len(t, l.Slots, MaxSlots)
	require.Equal(t, Slot{Name: "stamp_1", X: 129, Y: 84, Radius: 60}, l.Slots[0])
	require.Equal(t, Slot{Name: "stamp_4", X: 903, Y: 84, Radius: 60}, l.Slots[3])
	require.Equal(t, Slot{Name: "stamp_5", X: 129, Y: 252, Radius: 60}, l.Slots[4])
	require.Equal(t, Slot{Name: "stamp_8", X: 903, Y: 252, Radius: 60}, l.Slots[7])
}

func TestComposeRevealsExactlyFirstNSlots(t *testing.T) {
	layout := DefaultLayout()
	locked := solid(defaultCardWidth, defaultCardHeight, lockedColor)
	revealed := solid(defaultCardWidth, defaultCardHeight, revealedColor)

	base, err := Compose(locked, revealed, layout, 0)
	require.NoError(t, err)

	for n := 0; n <= MaxSlots; n++ {
		out, err := Compose(locked, revealed, layout, n)
		require.NoError(t, err)
		require.Equal(t, base.Bounds(), out.Bounds())

		for y := 0; y < defaultCardHeight; y++ {
			for x := 0; x < defaultCardWidth; x++ {
				inMask := false
				for _, s := range layout.Slots[:n] {
					if s.Contains(x, y) {
						inMask = true
						break
					}
				}
				changed := out.RGBAAt(x, y) != base.RGBAAt(x, y)
				if changed != inMask {
					t.Fatalf("n=%d pixel (%d,%d): changed=%v inMask=%v", n, x, y, changed, inMask)
				}
			}
		}
	}
}

func TestComposeClampsAndIsDeterministic(t *testing.T) {
	layout := DefaultLayout()
	locked := solid(defaultCardWidth, defaultCardHeight, lockedColor)
	revealed := solid(defaultCardWidth, defaultCardHeight, revealedColor)

	negative, err := Compose(locked, revealed, layout, -3)
	require.NoError(t, err)
	zero, err := Compose(locked, revealed, layout, 0)
	require.NoError(t, err)
	require.Equal(t, zero.Pix, negative.Pix)

	over, err := Compose(locked, revealed, layout, 99)
	require.NoError(t, err)
	full, err := Compose(locked, revealed, layout, MaxSlots)
	require.NoError(t, err)
	require.Equal(t, full.Pix, over.Pix)

	again, err := Compose(locked, revealed, layout, MaxSlots)
	require.NoError(t, err)
	require.Equal(t, full.Pix, again.Pix)
}

func TestComposeRejectsSizeMismatch(t *testing.T) {
	_, err := Compose(solid(10, 10, lockedColor), solid(11, 10, revealedColor), DefaultLayout(), 1)
	require.ErrorIs(t, err, ErrSizeMismatch)
}
