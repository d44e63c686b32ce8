package loyalty

import (
	"smallbiznis-stampcard/pkg/config"

	"github.com/shopspring/decimal"
)

// Policy holds the earning rules of the program.
type Policy struct {
	PointsDivisor     int64
	StampsPerPurchase int
	StampsPerCard     int
	RewardValue       string
	RewardDescription string
}

func DefaultPolicy() Policy {
	return Policy{
		PointsDivisor:     10,
		StampsPerPurchase: 1,
		StampsPerCard:     8,
		RewardValue:       "free_item",
		RewardDescription: "Free product for a completed stamp card",
	}
}

func PolicyFrom(cfg config.Loyalty) Policy {
	p := DefaultPolicy()
	if cfg.PointsDivisor > 0 {
		p.PointsDivisor = cfg.PointsDivisor
	}
	if cfg.StampsPerPurchase > 0 {
		p.StampsPerPurchase = cfg.StampsPerPurchase
	}
	if cfg.StampsPerCard > 0 {
		p.StampsPerCard = cfg.StampsPerCard
	}
	return p
}

// PointsFor is floor(amount / PointsDivisor).
func (p Policy) PointsFor(amount decimal.Decimal) int64 {
	return amount.Div(decimal.NewFromInt(p.PointsDivisor)).Floor().IntPart()
}

// RewardsUnlocked counts the card boundaries crossed going from before to
// after stamps. Stamps are cumulative and never reset, so with one stamp per
// purchase this is 1 exactly when after is a positive multiple of the card size.
func (p Policy) RewardsUnlocked(before, after int) int {
	if after <= before || before < 0 {
		return 0
	}
	return after/p.StampsPerCard - before/p.StampsPerCard
}
