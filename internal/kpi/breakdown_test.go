package kpi

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jekabolt/grbpwr-analytics/internal/entity"
)

func breakdownFixture() ([]entity.Order, []entity.Customer, []entity.OrderItem) {
	customers := []entity.Customer{
		{CustomerID: "C1", City: "Dubai"},
		{CustomerID: "C2", City: "Sharjah"},
	}
	orders := []entity.Order{
		order("1", "C1", entity.OrderStatusDelivered, "100", jan(1)),
		order("2", "C1", entity.OrderStatusDelivered, "300", jan(3)),
		order("3", "C2", entity.OrderStatusDelivered, "250", jan(9)),
		order("4", "C2", entity.OrderStatusCancelled, "999", jan(9)),
		order("5", "C9", entity.OrderStatusDelivered, "50", jan(2)),
	}
	orders[0].Channel, orders[1].Channel, orders[2].Channel, orders[3].Channel, orders[4].Channel = "App", "Web", "App", "App", "Web"
	items := []entity.OrderItem{
		{OrderID: "1", LineNo: 1, ProductCategory: "Fashion", ItemTotal: dec("60")},
		{OrderID: "1", LineNo: 2, ProductCategory: "Beauty", ItemTotal: dec("40")},
		{OrderID: "2", LineNo: 1, ProductCategory: "Fashion", ItemTotal: dec("300")},
		{OrderID: "3", LineNo: 2, ProductCategory: "Electronics", ItemTotal: dec("200")},
		{OrderID: "3", LineNo: 1, ProductCategory: "Beauty", ItemTotal: dec("50")},
	}
	return orders, customers, items
}

func TestRevenueByCity(t *testing.T) {
	orders, customers, _ := breakdownFixture()
	got := RevenueByCity(orders, customers)

	require.Len(t, got, 2)
	assert.Equal(t, "Dubai", got[0].City)
	assertDec(t, "400", got[0].Revenue)
	assert.Equal(t, 2, got[0].Orders)
	assert.Equal(t, "Sharjah", got[1].City)
	assertDec(t, "250", got[1].Revenue)
}

func TestChannelContribution(t *testing.T) {
	orders, _, _ := breakdownFixture()
	got := ChannelContribution(orders)

	require.Len(t, got, 2)
	assert.Equal(t, "App", got[0].Channel)
	assert.Equal(t, 3, got[0].Orders)
	assertDec(t, "60", got[0].SharePct)
	assertDec(t, "1349", got[0].Revenue)
	assert.Equal(t, "Web", got[1].Channel)
	assertDec(t, "40", got[1].SharePct)
}

func TestCategoryRevenueByCity(t *testing.T) {
	orders, customers, items := breakdownFixture()
	got := CategoryRevenueByCity(orders, customers, items)

	require.Len(t, got, 4)
	assert.Equal(t, "Dubai", got[0].City)
	assert.Equal(t, "Beauty", got[0].Category)
	assertDec(t, "40", got[0].Revenue)
	assert.Equal(t, "Fashion", got[1].Category)
	assertDec(t, "360", got[1].Revenue)
	assert.Equal(t, "Sharjah", got[2].City)
	assert.Equal(t, "Beauty", got[2].Category)
	assert.Equal(t, "Electronics", got[3].Category)
}

func TestReturnRateByCategory_LowestLineWins(t *testing.T) {
	_, _, items := breakdownFixture()
	returns := []entity.Return{
		{ReturnID: "R1", OrderID: "1"},
		{ReturnID: "R2", OrderID: "3"},
		{ReturnID: "R3", OrderID: "404"},
	}
	got := ReturnRateByCategory(returns, items)

	require.Len(t, got, 2)
	// order 3 lists Electronics first but its line 1 is Beauty
	assert.Equal(t, "Beauty", got[0].Category)
	assert.Equal(t, 1, got[0].Returns)
	assert.Equal(t, 2, got[0].Orders)
	assertDec(t, "50", got[0].ReturnRate)
	assert.Equal(t, "Fashion", got[1].Category)
	assertDec(t, "50", got[1].ReturnRate)
}

func TestReturnRateByCategory_Rounding(t *testing.T) {
	items := []entity.OrderItem{
		{OrderID: "1", LineNo: 1, ProductCategory: "Beauty"},
		{OrderID: "2", LineNo: 1, ProductCategory: "Beauty"},
		{OrderID: "3", LineNo: 1, ProductCategory: "Beauty"},
	}
	got := ReturnRateByCategory([]entity.Return{{ReturnID: "R1", OrderID: "2"}}, items)
	require.Len(t, got, 1)
	assertDec(t, "33.33", got[0].ReturnRate)
}

func TestRevenueTrend(t *testing.T) {
	orders, _, _ := breakdownFixture()

	daily := RevenueTrend(orders, entity.MetricsGranularityDay, time.Time{}, time.Time{})
	require.Len(t, daily, 9)
	assert.Equal(t, jan(1), daily[0].Date)
	assertDec(t, "100", daily[0].Value)
	assertDec(t, "50", daily[1].Value)
	assertDec(t, "300", daily[2].Value)
	assertDec(t, "0", daily[3].Value)
	assertDec(t, "250", daily[8].Value)

	// 2024-01-01 is a Monday
	weekly := RevenueTrend(orders, entity.MetricsGranularityWeek, jan(1), jan(14))
	require.Len(t, weekly, 2)
	assert.Equal(t, jan(1), weekly[0].Date)
	assertDec(t, "450", weekly[0].Value)
	assert.Equal(t, 3, weekly[0].Count)
	assert.Equal(t, jan(8), weekly[1].Date)
	assertDec(t, "250", weekly[1].Value)
}

func TestRevenueTrend_BoundsNeverExtendPastData(t *testing.T) {
	orders, _, _ := breakdownFixture()
	far := time.Date(2, time.January, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(9999, time.December, 31, 0, 0, 0, 0, time.UTC)

	daily := RevenueTrend(orders, entity.MetricsGranularityDay, far, end)
	require.Len(t, daily, 9)
	assert.Equal(t, jan(1), daily[0].Date)
	assert.Equal(t, jan(9), daily[8].Date)

	narrowed := RevenueTrend(orders, entity.MetricsGranularityDay, jan(3), jan(5))
	require.Len(t, narrowed, 3)
	assert.Equal(t, jan(3), narrowed[0].Date)

	assert.Empty(t, RevenueTrend(nil, entity.MetricsGranularityDay, far, end))
}

func fulfillmentFixture() []entity.Fulfillment {
	return []entity.Fulfillment{
		{OrderID: "1", PromisedDate: at(jan(5)), ActualDeliveryDate: at(jan(8)), DeliveryZone: "North", DeliveryPartner: "A", DelayReason: "Weather"},
		{OrderID: "2", PromisedDate: at(jan(5)), ActualDeliveryDate: at(jan(6)), DeliveryZone: "North", DeliveryPartner: "B", DelayReason: "Traffic"},
		{OrderID: "3", PromisedDate: at(jan(5)), ActualDeliveryDate: at(jan(6)), DeliveryZone: "North", DeliveryPartner: "A", DelayReason: "Traffic"},
		{OrderID: "4", PromisedDate: at(jan(5)), ActualDeliveryDate: at(jan(2)), DeliveryZone: "South", DeliveryPartner: "A", DelayReason: entity.NoDelay},
		{OrderID: "5", PromisedDate: at(jan(5)), ActualDeliveryDate: at(jan(6)), DeliveryZone: "South", DeliveryPartner: "B", DelayReason: "Weather"},
		{OrderID: "6", PromisedDate: at(jan(5)), DeliveryZone: "East", DeliveryPartner: "B", DelayReason: entity.DelayOrderCancelled},
	}
}

func TestDelayReasonPareto(t *testing.T) {
	got := DelayReasonPareto(fulfillmentFixture())

	require.Len(t, got, 2)
	assert.Equal(t, "Weather", got[0].Reason)
	assert.Equal(t, 2, got[0].Count)
	assert.Equal(t, 2, got[0].CumulativeCount)
	assertDec(t, "50", got[0].CumulativePct)
	assert.Equal(t, "Traffic", got[1].Reason)
	assert.Equal(t, 4, got[1].CumulativeCount)
	assertDec(t, "100", got[1].CumulativePct)
}

func TestBreachesByZoneAndTrend(t *testing.T) {
	f := fulfillmentFixture()

	zones := BreachesByZone(f, 10)
	assert.Equal(t, []entity.NamedCount{{Name: "North", Count: 3}, {Name: "South", Count: 1}}, zones)

	trend := BreachTrend(f)
	require.Len(t, trend, 3)
	assert.Equal(t, jan(6), trend[0].Date)
	assert.Equal(t, 3, trend[0].Count)
	assert.Equal(t, 0, trend[1].Count)
	assert.Equal(t, jan(8), trend[2].Date)
}

func TestPartnerPerformance(t *testing.T) {
	got := PartnerPerformance(fulfillmentFixture())

	require.Len(t, got, 2)
	assert.Equal(t, "A", got[0].Partner)
	assert.Equal(t, 3, got[0].Deliveries)
	assert.Equal(t, 1, got[0].OnTime)
	assert.Equal(t, 2, got[0].Breaches)
	assert.Equal(t, "B", got[1].Partner)
	assert.Equal(t, 2, got[1].Deliveries)
	assertDec(t, "0", got[1].OnTimeRate)
}

func TestProblemAreas(t *testing.T) {
	got := ProblemAreas(fulfillmentFixture(), ProblemAreaLimit)

	require.Len(t, got, 3)
	north := got[0]
	assert.Equal(t, "North", north.Zone)
	assert.Equal(t, 3, north.Breaches)
	assert.Equal(t, 3, north.Orders)
	// delays 3, 1, 1
	assertDec(t, "1.7", north.AvgDelayDays)
	assert.Equal(t, "Traffic", north.TopDelayReason)

	south := got[1]
	assert.Equal(t, "South", south.Zone)
	// early delivery clamps to zero: (0 + 1) / 2
	assertDec(t, "0.5", south.AvgDelayDays)
	assert.Equal(t, "Weather", south.TopDelayReason)

	east := got[2]
	assert.Equal(t, 0, east.Breaches)
	assertDec(t, "0", east.AvgDelayDays)

	assert.Len(t, ProblemAreas(fulfillmentFixture(), 1), 1)
}

func TestProblemAreas_ModeTieKeepsFirstSeen(t *testing.T) {
	rows := []entity.Fulfillment{
		{DeliveryZone: "Z", DelayReason: "Traffic"},
		{DeliveryZone: "Z", DelayReason: "Weather"},
	}
	got := ProblemAreas(rows, 0)
	require.Len(t, got, 1)
	assert.Equal(t, "Traffic", got[0].TopDelayReason)
}

func TestZoneDrillDown(t *testing.T) {
	orders := []entity.Order{
		order("1", "C1", entity.OrderStatusDelivered, "10", jan(1)),
		order("2", "C1", entity.OrderStatusCancelled, "10", jan(1)),
		order("3", "C1", entity.OrderStatusDelivered, "10", jan(1)),
		order("5", "C1", entity.OrderStatusCancelled, "10", jan(1)),
	}
	got := ZoneDrillDown("North", orders, fulfillmentFixture())

	assert.Equal(t, 3, got.Orders)
	assertDec(t, "0", got.OnTimeRate)
	assert.Equal(t, 3, got.BreachCount)
	assert.True(t, dec("100").Div(dec("3")).Equal(got.CancellationRate))
	assert.Equal(t, []entity.NamedCount{{Name: "Traffic", Count: 2}, {Name: "Weather", Count: 1}}, got.DelayReasons)
	require.Len(t, got.Partners, 2)

	south := ZoneDrillDown("South", orders, fulfillmentFixture())
	assertDec(t, "50", south.OnTimeRate)
	assertDec(t, "100", south.CancellationRate)
}

func TestZoneDrillDown_CountsCancelledReason(t *testing.T) {
	got := ZoneDrillDown("East", nil, fulfillmentFixture())
	assert.Equal(t, []entity.NamedCount{{Name: entity.DelayOrderCancelled, Count: 1}}, got.DelayReasons)

	for _, row := range DelayReasonPareto(fulfillmentFixture()) {
		assert.NotEqual(t, entity.DelayOrderCancelled, row.Reason)
	}
}

func TestInsights(t *testing.T) {
	orders, customers, _ := breakdownFixture()
	g := Growth(orders, nil)
	ops := Operations(orders, nil, nil)
	got := Insights(g, ops, RevenueByCity(orders, customers), ChannelContribution(orders))

	require.Len(t, got, 6)
	assert.Equal(t, entity.InsightTopCity, got[0].Kind)
	assert.Equal(t, "Dubai", got[0].Subject)
	assert.Equal(t, entity.InsightChannelShare, got[1].Kind)
	assert.Equal(t, "App", got[1].Subject)
	assert.Equal(t, entity.InsightDiscountHealth, got[2].Kind)
	assert.True(t, got[2].Healthy)
	assert.Equal(t, entity.InsightLoyalty, got[3].Kind)
	assert.True(t, got[3].Healthy, "two of three customers ordered twice")
	assert.Equal(t, entity.InsightPremiumAOV, got[4].Kind)
	assert.False(t, got[4].Healthy)
}

func TestCompare(t *testing.T) {
	cur := entity.GrowthMetrics{TotalRevenue: dec("150"), TotalOrders: 3}
	prev := entity.GrowthMetrics{TotalRevenue: dec("100")}

	got := Compare(cur, prev, true)
	require.NotNil(t, got["total_revenue"].ChangePct)
	assert.InDelta(t, 50.0, *got["total_revenue"].ChangePct, 1e-9)
	assert.Nil(t, got["total_orders"].ChangePct, "no change against zero")

	got = Compare(cur, prev, false)
	assert.Nil(t, got["total_revenue"].CompareValue)
}
