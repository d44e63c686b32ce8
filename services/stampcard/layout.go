package stampcard

import (
	"fmt"
	"image"

	"smallbiznis-stampcard/pkg/config"
)

// MaxSlots is the number of stamps on one card.
const MaxSlots = 8

const (
	defaultCardWidth  = 1032
	defaultCardHeight = 336
	defaultRadius     = 60
)

// Slot is one circular stamp region, in source image pixels.
type Slot struct {
	Name   string
	X      int
	Y      int
	Radius int
}

func (s Slot) Contains(x, y int) bool {
	dx, dy := x-s.X, y-s.Y
	return dx*dx+dy*dy <= s.Radius*s.Radius
}

func (s Slot) Bounds() image.Rectangle {
	return image.Rect(s.X-s.Radius, s.Y-s.Radius, s.X+s.Radius+1, s.Y+s.Radius+1)
}

// Layout is the ordered slot geometry of a card. Slot i is revealed when at
// least i+1 stamps are earned.
type Layout struct {
	Slots []Slot
}

// DefaultLayout is two rows of four slots on a 1032x336 card, numbered
// left-to-right, top-to-bottom.
func DefaultLayout() Layout {
	const cols, rows = 4, 2
	cellW := defaultCardWidth / cols
	cellH := defaultCardHeight / rows

	slots := make([]Slot, 0, MaxSlots)
	for row := 0; row < rows; row++ {
		for col := 0; col < cols; col++ {
			slots = append(slots, Slot{
				Name:   fmt.Sprintf("stamp_%d", len(slots)+1),
				X:      cellW/2 + col*cellW,
				Y:      cellH/2 + row*cellH,
				Radius: defaultRadius,
			})
		}
	}
	return Layout{Slots: slots}
}

// LayoutFromConfig returns the configured geometry, or DefaultLayout when none is set.
func LayoutFromConfig(slots []config.Slot) (Layout, error) {
	if len(slots) == 0 {
		return DefaultLayout(), nil
	}
	if len(slots) != MaxSlots {
		return Layout{}, fmt.Errorf("stamp card layout needs %d slots, got %d", MaxSlots, len(slots))
	}

	out := make([]Slot, len(slots))
	for i, s := range slots {
		if s.Radius <= 0 {
			return Layout{}, fmt.Errorf("slot %d: radius must be positive", i+1)
		}
		name := s.Name
		if name == "" {
			name = fmt.Sprintf("stamp_%d", i+1)
		}
		out[i] = Slot{Name: name, X: s.X, Y: s.Y, Radius: s.Radius}
	}
	return Layout{Slots: out}, nil
}

// Clamp bounds n to [0, len(Slots)].
func (l Layout) Clamp(n int) int {
	if n < 0 {
		return 0
	}
	if n > len(l.Slots) {
		return len(l.Slots)
	}
	return n
}
