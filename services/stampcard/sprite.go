package stampcard

import (
	"fmt"

	"smallbiznis-stampcard/pkg/config"
)

// SpriteTable maps a revealed stamp count (0..8) to a pre-rendered card image
// URL, for wallet providers that take an image URL instead of bytes.
type SpriteTable struct {
	urls []string
}

// NewSpriteTable accepts either no URLs (sprites disabled) or exactly MaxSlots+1.
func NewSpriteTable(urls []string) (SpriteTable, error) {
	if len(urls) != 0 && len(urls) != MaxSlots+1 {
		return SpriteTable{}, fmt.Errorf("sprite table needs %d urls, got %d", MaxSlots+1, len(urls))
	}
	return SpriteTable{urls: append([]string(nil), urls...)}, nil
}

func NewSpriteTableFromConfig(cfg *config.Config) (SpriteTable, error) {
	return NewSpriteTable(cfg.StampCard.SpriteURLs)
}

func (t SpriteTable) Enabled() bool {
	return len(t.urls) > 0
}

// URL returns "" when the table is empty.
func (t SpriteTable) URL(stamps int) string {
	if !t.Enabled() {
		return ""
	}
	if stamps < 0 {
		stamps = 0
	}
	if stamps > MaxSlots {
		stamps = MaxSlots
	}
	return t.urls[stamps]
}

// ProgressURL is URL(CycleProgress(stamps)).
func (t SpriteTable) ProgressURL(stamps int) string {
	return t.URL(CycleProgress(stamps))
}

// CycleProgress maps cumulative stamps onto the current card. Stamps never
// reset, so a completed card (any positive multiple of 8) shows full.
func CycleProgress(stamps int) int {
	if stamps <= 0 {
		return 0
	}
	if stamps%MaxSlots == 0 {
		return MaxSlots
	}
	return stamps % MaxSlots
}
