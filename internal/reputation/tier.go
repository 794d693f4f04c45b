package reputation

import "github.com/mselser95/claimpool/pkg/types"

// TierRule gates a tier on both cumulative points and resolved pool count.
type TierRule struct {
	Tier      types.Tier
	MinPoints int64
	MinPools  int64
}

// TierRules is ordered highest tier first; TierFor returns the first rule
// whose gates both hold.
var TierRules = []TierRule{
	{Tier: types.TierLegend, MinPoints: 5_000, MinPools: 20},
	{Tier: types.TierMaster, MinPoints: 1_000, MinPools: 10},
	{Tier: types.TierExpert, MinPoints: 500, MinPools: 5},
	{Tier: types.TierAnalyst, MinPoints: 200, MinPools: 0},
	{Tier: types.TierNovice, MinPoints: 0, MinPools: 0},
}

// TierFor maps aggregate points and resolved pool count to a tier. Negative
// points clamp to Novice.
func TierFor(points int64, pools int64) types.Tier {
	for _, rule := range TierRules {
		if points >= rule.MinPoints && pools >= rule.MinPools {
			return rule.Tier
		}
	}
	return types.TierNovice
}

// Accuracy is round(correct / (correct + wrong) * 100), or 0 with no history.
// It is informational and never feeds back into points.
func Accuracy(correct, wrong int64) int64 {
	total := correct + wrong
	if total <= 0 || correct < 0 || wrong < 0 {
		return 0
	}
	return (correct*200 + total) / (2 * total)
}
