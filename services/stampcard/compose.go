package stampcard

import (
	"errors"
	"image"
	"image/color"
	"image/draw"
)

var ErrSizeMismatch = errors.New("locked and revealed images differ in size")

// circleMask is opaque inside the slot circle and transparent elsewhere.
type circleMask struct {
	slot Slot
}

func (m circleMask) ColorModel() color.Model { return color.AlphaModel }

func (m circleMask) Bounds() image.Rectangle { return m.slot.Bounds() }

func (m circleMask) At(x, y int) color.Color {
	if m.slot.Contains(x, y) {
		return color.Opaque
	}
	return color.Transparent
}

// Compose draws locked as the base layer and copies revealed through the
// circle of each of the first n slots. n is clamped to the layout.
func Compose(locked, revealed image.Image, layout Layout, n int) (*image.RGBA, error) {
	lb, rb := locked.Bounds(), revealed.Bounds()
	if lb.Size() != rb.Size() {
		return nil, ErrSizeMismatch
	}

	canvas := image.NewRGBA(image.Rect(0, 0, lb.Dx(), lb.Dy()))
	draw.Draw(canvas, canvas.Bounds(), locked, lb.Min, draw.Src)

	for _, slot := range layout.Slots[:layout.Clamp(n)] {
		r := slot.Bounds().Intersect(canvas.Bounds())
		if r.Empty() {
			continue
		}
		draw.DrawMask(canvas, r, revealed, rb.Min.Add(r.Min), circleMask{slot: slot}, r.Min, draw.Over)
	}

	return canvas, nil
}
