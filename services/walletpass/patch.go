package walletpass

import (
	"fmt"

	"smallbiznis-stampcard/services/stampcard"
)

const (
	TierBase = "base"
	TierGold = "gold"
)

var tierColors = map[string]string{
	TierBase: "#1F2937",
	TierGold: "#B8860B",
}

// Update is the ledger state mirrored onto a customer's pass.
type Update struct {
	CustomerID  string `json:"customer_id"`
	Name        string `json:"name,omitempty"`
	Points      int64  `json:"points"`
	Stamps      int    `json:"stamps"`
	LevelPoints int64  `json:"level_points"`
}

// Tier is gold strictly above threshold.
func Tier(levelPoints, threshold int64) string {
	if levelPoints > threshold {
		return TierGold
	}
	return TierBase
}

// BuildPatch returns only the fields that follow the ledger.
func BuildPatch(u Update, sprites stampcard.SpriteTable, threshold int64, defaultName string) LoyaltyObject {
	name := u.Name
	if name == "" {
		name = defaultName
	}

	progress := stampcard.CycleProgress(u.Stamps)
	subheader := fmt.Sprintf("%d of %d stamps", progress, stampcard.MaxSlots)
	if u.Stamps > 0 && progress == stampcard.MaxSlots {
		subheader = "Card complete, redeem now"
	}

	return LoyaltyObject{
		HexBackgroundColor: tierColors[Tier(u.LevelPoints, threshold)],
		Header:             localized(name),
		Subheader:          localized(subheader),
		HeroImage:          cardImage(sprites.ProgressURL(u.Stamps), u.Stamps),
		TextModulesData:    textModules(u.Points, u.Stamps),
		LoyaltyPoints:      pointsBalance(u.Points),
	}
}
