package clean

import (
	"sort"

	"github.com/shopspring/decimal"
)

// percentile returns the p-th quantile (0..1) of values using linear
// interpolation between the closest ranks. An empty input yields zero.
func percentile(values []decimal.Decimal, p float64) decimal.Decimal {
	if len(values) == 0 {
		return decimal.Zero
	}
	sorted := make([]decimal.Decimal, len(values))
	copy(sorted, values)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].LessThan(sorted[j]) })

	rank := decimal.NewFromFloat(p).Mul(decimal.NewFromInt(int64(len(sorted) - 1)))
	lo := rank.Floor()
	frac := rank.Sub(lo)
	i := int(lo.IntPart())
	if i >= len(sorted)-1 {
		return sorted[len(sorted)-1]
	}
	return sorted[i].Add(sorted[i+1].Sub(sorted[i]).Mul(frac))
}
