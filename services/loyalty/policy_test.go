package loyalty

import (
	"testing"

	"smallbiznis-stampcard/pkg/config"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestPointsFor(t *testing.T) {
	p := DefaultPolicy()

	cases := map[string]int64{
		"97":    9,
		"45":    4,
		"9.99":  0,
		"10":    1,
		"100.5": 10,
	}
	for amount, want := range cases {
		require.Equal(t, want, p.PointsFor(decimal.RequireFromString(amount)), amount)
	}
}

func TestRewardsUnlocked(t *testing.T) {
	p := DefaultPolicy()

	require.Equal(t, 1, p.RewardsUnlocked(7, 8))
	require.Equal(t, 1, p.RewardsUnlocked(15, 16))
	require.Equal(t, 0, p.RewardsUnlocked(8, 9))
	require.Equal(t, 0, p.RewardsUnlocked(0, 1))
	require.Equal(t, 0, p.RewardsUnlocked(5, 5))
	require.Equal(t, 2, p.RewardsUnlocked(7, 17))
}

func TestPolicyFromConfig(t *testing.T) {
	p := PolicyFrom(config.Loyalty{PointsDivisor: 5})
	require.Equal(t, int64(5), p.PointsDivisor)
	require.Equal(t, 1, p.StampsPerPurchase)
	require.Equal(t, 8, p.StampsPerCard)
}
