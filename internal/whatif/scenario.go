package whatif

import (
	"fmt"

	"github.com/asaskevich/govalidator"
	"github.com/shopspring/decimal"

	"github.com/jekabolt/grbpwr-analytics/internal/entity"
	gerr "github.com/jekabolt/grbpwr-analytics/internal/errors"
)

// DefaultRefundPerBreach is used when there are no breaches to average over.
var DefaultRefundPerBreach = decimal.NewFromInt(50)

// Scenario evaluates the two-lever model: a relative cut of cancellations and
// an on-time improvement in points, both given in percent.
func Scenario(b entity.Baseline, l entity.ScenarioLevers) (entity.ScenarioResult, error) {
	for name, v := range map[string]decimal.Decimal{
		"cancel_reduction":     l.CancelReduction,
		"delivery_improvement": l.DeliveryImprovement,
	} {
		if !govalidator.InRangeFloat64(v.InexactFloat64(), 0, 100) {
			return entity.ScenarioResult{}, fmt.Errorf("%w: %s must be within [0, 100], got %s", gerr.ErrInvalidDelta, name, v)
		}
	}

	res := entity.ScenarioResult{Levers: l}
	res.OrdersRecovered = recovered(b.CancelledOrders, l.CancelReduction, hundred)
	res.RevenueRecovered = decimal.NewFromInt(res.OrdersRecovered).Mul(b.AvgOrderValue).Round(2)

	res.BreachesAvoided = recovered(b.SLABreachCount, l.DeliveryImprovement, hundred)
	res.RefundPerBreach = DefaultRefundPerBreach
	if b.SLABreachCount > 0 {
		res.RefundPerBreach = b.TotalRefunds.Div(decimal.NewFromInt(int64(b.SLABreachCount))).Round(2)
	}
	res.RefundCostReduction = decimal.NewFromInt(res.BreachesAvoided).Mul(res.RefundPerBreach).Round(2)
	res.NewOnTimeRate = decimal.Min(hundred, b.OnTimeRate.Add(l.DeliveryImprovement)).Round(2)
	res.TotalBenefit = res.RevenueRecovered.Add(res.RefundCostReduction)
	return res, nil
}
