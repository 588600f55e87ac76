package whatif

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jekabolt/grbpwr-analytics/internal/entity"
	gerr "github.com/jekabolt/grbpwr-analytics/internal/errors"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func assertDec(t *testing.T, want string, got decimal.Decimal, name string) {
	t.Helper()
	assert.True(t, dec(want).Equal(got), "%s: want %s, got %s", name, want, got)
}

func baseline() entity.Baseline {
	return entity.Baseline{
		OnTimeRate:       dec("80"),
		CancellationRate: dec("10"),
		ReturnRate:       dec("5"),
		NPS:              dec("40"),
		TotalRefunds:     dec("10000"),
		RepeatRate:       dec("20"),
		AvgOrderValue:    dec("500"),
		CancelledOrders:  100,
		ActiveCustomers:  1000,
		SLABreachCount:   40,
	}
}

func TestProject(t *testing.T) {
	p, err := Default().Project(baseline(), dec("5"))
	require.NoError(t, err)

	assert.Equal(t, DriverOnTimeRate, p.Driver)
	assertDec(t, "80", p.Current.OnTimeRate, "current on time")
	assertDec(t, "85", p.Projected.OnTimeRate, "on time")
	assertDec(t, "8", p.Projected.CancellationRate, "cancellation")
	assertDec(t, "4.38", p.Projected.ReturnRate, "return rate")
	assertDec(t, "47.5", p.Projected.NPS, "nps")
	assertDec(t, "7500", p.Projected.TotalRefunds, "refunds")
	assertDec(t, "23", p.Projected.RepeatRate, "repeat")

	f := p.Financial
	assert.EqualValues(t, 20, f.OrdersRecovered)
	assertDec(t, "10000", f.RevenueRecovered, "revenue recovered")
	assert.EqualValues(t, 150, f.NewRepeatCustomers)
	assertDec(t, "75000", f.RepeatRevenue, "repeat revenue")
	assertDec(t, "2500", f.RefundSavings, "refund savings")
	assertDec(t, "87500", f.TotalBenefit, "total benefit")
	assertDec(t, "25000", f.InvestmentCost, "investment")
	assertDec(t, "62500", f.NetBenefit, "net benefit")
	assertDec(t, "250", f.ROI, "roi")
}

func TestProject_ClampedMetricsDriveFinancials(t *testing.T) {
	m, err := Parse([]byte("coefficients:\n  cancellation_rate:\n    rate: 0.1\n"))
	require.NoError(t, err)

	p, err := m.Project(baseline(), dec("15"))
	require.NoError(t, err)
	assertDec(t, "0", p.Projected.CancellationRate, "cancellation clamps at zero")
	assert.EqualValues(t, 100, p.Financial.OrdersRecovered, "cannot recover more than were cancelled")
}

func TestProject_ZeroBaseline(t *testing.T) {
	p, err := Default().Project(entity.Baseline{}, dec("10"))
	require.NoError(t, err)
	assert.Zero(t, p.Financial.OrdersRecovered)
	assert.Zero(t, p.Financial.NewRepeatCustomers)
	assertDec(t, "0", p.Financial.TotalBenefit, "benefit")
	assertDec(t, "50000", p.Financial.InvestmentCost, "investment")
	assertDec(t, "-100", p.Financial.ROI, "roi")
}

func TestProject_ZeroCostHasZeroROI(t *testing.T) {
	m := Default()
	m.CostPerPoint = decimal.Zero
	p, err := m.Project(baseline(), dec("1"))
	require.NoError(t, err)
	assertDec(t, "0", p.Financial.ROI, "roi")
}

func TestProject_InvalidDelta(t *testing.T) {
	m := Default()
	_, err := m.Project(baseline(), dec("0"))
	assert.ErrorIs(t, err, gerr.ErrInvalidDelta)

	_, err = m.Project(baseline(), dec("21"))
	assert.ErrorIs(t, err, gerr.ErrInvalidDelta)

	_, err = m.ProjectTarget(baseline(), dec("80"))
	assert.ErrorIs(t, err, gerr.ErrInvalidDelta)
}

func TestProjectTarget(t *testing.T) {
	m := Default()
	byTarget, err := m.ProjectTarget(baseline(), dec("85"))
	require.NoError(t, err)
	byDelta, err := m.Project(baseline(), dec("5"))
	require.NoError(t, err)
	assert.Equal(t, byDelta.Financial, byTarget.Financial)
}

func TestSweep(t *testing.T) {
	m := Default()
	rows, err := m.Sweep(baseline())
	require.NoError(t, err)
	require.Len(t, rows, 19, "80 + 19 reaches 99")
	assertDec(t, "99", rows[18].Target, "last target")

	for _, r := range rows {
		p, err := m.Project(baseline(), r.Delta)
		require.NoError(t, err)
		assert.Equal(t, p.Financial.TotalBenefit, r.TotalBenefit)
		assert.Equal(t, p.Financial.ROI, r.ROI)
	}

	b := baseline()
	b.OnTimeRate = dec("50")
	rows, err = m.Sweep(b)
	require.NoError(t, err)
	assert.Len(t, rows, MaxSweepDelta)

	b.OnTimeRate = dec("98.5")
	rows, err = m.Sweep(b)
	require.NoError(t, err)
	assert.Empty(t, rows)

	b.OnTimeRate = dec("100")
	rows, err = m.Sweep(b)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestScenario(t *testing.T) {
	res, err := Scenario(baseline(), entity.ScenarioLevers{CancelReduction: dec("20"), DeliveryImprovement: dec("15")})
	require.NoError(t, err)

	assert.EqualValues(t, 20, res.OrdersRecovered)
	assertDec(t, "10000", res.RevenueRecovered, "revenue")
	assert.EqualValues(t, 6, res.BreachesAvoided)
	assertDec(t, "250", res.RefundPerBreach, "refund per breach")
	assertDec(t, "1500", res.RefundCostReduction, "refund reduction")
	assertDec(t, "95", res.NewOnTimeRate, "on time")
	assertDec(t, "11500", res.TotalBenefit, "total")
}

func TestScenario_Edges(t *testing.T) {
	b := baseline()
	b.SLABreachCount = 0
	b.OnTimeRate = dec("90")
	res, err := Scenario(b, entity.ScenarioLevers{CancelReduction: dec("5"), DeliveryImprovement: dec("30")})
	require.NoError(t, err)
	assertDec(t, "50", res.RefundPerBreach, "default refund per breach")
	assert.Zero(t, res.BreachesAvoided)
	assertDec(t, "100", res.NewOnTimeRate, "capped at 100")

	_, err = Scenario(b, entity.ScenarioLevers{CancelReduction: dec("120")})
	assert.ErrorIs(t, err, gerr.ErrInvalidDelta)
	_, err = Scenario(b, entity.ScenarioLevers{DeliveryImprovement: dec("-1")})
	assert.ErrorIs(t, err, gerr.ErrInvalidDelta)
}

func TestParse(t *testing.T) {
	m, err := Parse([]byte(`
cost_per_point: 1000
coefficients:
  nps:
    rate: 2
  repeat_rate:
    rate: 0.05
    response: grow
`))
	require.NoError(t, err)
	assertDec(t, "1000", m.CostPerPoint, "cost")
	assertDec(t, "2", m.Coefficients[MetricNPS].Rate, "nps rate")
	assert.Equal(t, Additive, m.Coefficients[MetricNPS].Response, "response kept from default")
	assertDec(t, "0.04", m.Coefficients[MetricCancellationRate].Rate, "untouched default")

	_, err = Parse([]byte("coefficients:\n  churn:\n    rate: 1\n"))
	assert.Error(t, err)

	_, err = Parse([]byte("coefficients:\n  nps:\n    rate: -1\n"))
	assert.Error(t, err)

	_, err = Parse([]byte("coefficients:\n  nps:\n    rate: 1\n    response: exponential\n"))
	assert.Error(t, err)

	_, err = Parse([]byte("driver: nps\n"))
	assert.Error(t, err)
}

func TestLoad(t *testing.T) {
	m, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), m)

	path := filepath.Join(t.TempDir(), "whatif.yaml")
	require.NoError(t, os.WriteFile(path, []byte("cost_per_point: 250\n"), 0o600))
	m, err = Load(path)
	require.NoError(t, err)
	assertDec(t, "250", m.CostPerPoint, "cost")

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestBaselineFrom(t *testing.T) {
	g := entity.GrowthMetrics{RepeatRate: dec("20"), ActiveCustomers: 7}
	ops := entity.OperationsMetrics{OnTimeRate: dec("80"), CancelledOrders: 3, AvgOrderValue: dec("120"), SLABreachCount: 2}
	b := BaselineFrom(g, ops, dec("45"))
	assertDec(t, "45", b.NPS, "nps")
	assertDec(t, "120", b.AvgOrderValue, "aov")
	assert.Equal(t, 7, b.ActiveCustomers)
	assert.Equal(t, 3, b.CancelledOrders)
	assert.Equal(t, 2, b.SLABreachCount)
}
