package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MetricsGranularity controls time bucket size for time series (day, week).
type MetricsGranularity int

const (
	MetricsGranularityDay  MetricsGranularity = 1
	MetricsGranularityWeek MetricsGranularity = 2
)

type TimeRange struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// MetricWithComparison pairs a metric with its previous-period value.
// ChangePct is nil when there is no previous value to compare against.
type MetricWithComparison struct {
	Value        decimal.Decimal  `json:"value"`
	CompareValue *decimal.Decimal `json:"compare_value,omitempty"`
	ChangePct    *float64         `json:"change_pct,omitempty"`
}

type TimeSeriesPoint struct {
	Date  time.Time       `json:"date"`
	Value decimal.Decimal `json:"value"`
	Count int             `json:"count"`
}

// GrowthMetrics is the growth-oriented KPI bundle.
type GrowthMetrics struct {
	TotalRevenue    decimal.Decimal `json:"total_revenue"`
	PreviousRevenue decimal.Decimal `json:"previous_revenue"`
	RevenueChange   decimal.Decimal `json:"revenue_change"`
	AOV             decimal.Decimal `json:"aov"`
	RepeatRate      decimal.Decimal `json:"repeat_rate"`
	DiscountRate    decimal.Decimal `json:"discount_rate"`
	TotalOrders     int             `json:"total_orders"`
	DeliveredOrders int             `json:"delivered_orders"`
	ActiveCustomers int             `json:"active_customers"`
}

// Map flattens the bundle into a key to value map.
func (g *GrowthMetrics) Map() map[string]decimal.Decimal {
	return map[string]decimal.Decimal{
		"total_revenue":    g.TotalRevenue,
		"previous_revenue": g.PreviousRevenue,
		"revenue_change":   g.RevenueChange,
		"aov":              g.AOV,
		"repeat_rate":      g.RepeatRate,
		"discount_rate":    g.DiscountRate,
		"total_orders":     decimal.NewFromInt(int64(g.TotalOrders)),
		"delivered_orders": decimal.NewFromInt(int64(g.DeliveredOrders)),
		"active_customers": decimal.NewFromInt(int64(g.ActiveCustomers)),
	}
}

// NamedCount is a frequency row of a categorical value.
type NamedCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// OperationsMetrics is the operations-oriented KPI bundle.
type OperationsMetrics struct {
	OnTimeRate         decimal.Decimal `json:"on_time_rate"`
	SLABreachCount     int             `json:"sla_breach_count"`
	TopBreachZones     []NamedCount    `json:"top_breach_zones"`
	TopBreachPartners  []NamedCount    `json:"top_breach_partners"`
	TopDelayReasons    []NamedCount    `json:"top_delay_reasons"`
	CancellationRate   decimal.Decimal `json:"cancellation_rate"`
	TotalRefunds       decimal.Decimal `json:"total_refunds"`
	RefundPercentage   decimal.Decimal `json:"refund_percentage"`
	TotalOrders        int             `json:"total_orders"`
	CancelledOrders    int             `json:"cancelled_orders"`
	DeliveredOrders    int             `json:"delivered_orders"`
	ObservedDeliveries int             `json:"observed_deliveries"`
	OnTimeCount        int             `json:"on_time_count"`
	AvgOrderValue      decimal.Decimal `json:"avg_order_value"`
	ReturnsCount       int             `json:"returns_count"`
	ReturnRate         decimal.Decimal `json:"return_rate"`
}

// Map flattens the scalar part of the bundle into a key to value map.
func (o *OperationsMetrics) Map() map[string]decimal.Decimal {
	return map[string]decimal.Decimal{
		"on_time_rate":        o.OnTimeRate,
		"sla_breach_count":    decimal.NewFromInt(int64(o.SLABreachCount)),
		"cancellation_rate":   o.CancellationRate,
		"total_refunds":       o.TotalRefunds,
		"refund_percentage":   o.RefundPercentage,
		"total_orders":        decimal.NewFromInt(int64(o.TotalOrders)),
		"cancelled_orders":    decimal.NewFromInt(int64(o.CancelledOrders)),
		"delivered_orders":    decimal.NewFromInt(int64(o.DeliveredOrders)),
		"observed_deliveries": decimal.NewFromInt(int64(o.ObservedDeliveries)),
		"on_time_count":       decimal.NewFromInt(int64(o.OnTimeCount)),
		"avg_order_value":     o.AvgOrderValue,
		"returns_count":       decimal.NewFromInt(int64(o.ReturnsCount)),
		"return_rate":         o.ReturnRate,
	}
}

type CityRevenue struct {
	City    string          `json:"city"`
	Revenue decimal.Decimal `json:"revenue"`
	Orders  int             `json:"orders"`
}

type ChannelShare struct {
	Channel  string          `json:"channel"`
	Orders   int             `json:"orders"`
	Revenue  decimal.Decimal `json:"revenue"`
	SharePct decimal.Decimal `json:"share_pct"`
}

type CategoryCityRevenue struct {
	City     string          `json:"city"`
	Category string          `json:"category"`
	Revenue  decimal.Decimal `json:"revenue"`
}

// ParetoRow is one delay reason with its running totals.
type ParetoRow struct {
	Reason          string          `json:"reason"`
	Count           int             `json:"count"`
	CumulativeCount int             `json:"cumulative_count"`
	CumulativePct   decimal.Decimal `json:"cumulative_pct"`
}

type CategoryReturnRate struct {
	Category   string          `json:"category"`
	Returns    int             `json:"returns"`
	Orders     int             `json:"orders"`
	ReturnRate decimal.Decimal `json:"return_rate"`
}

type PartnerPerformance struct {
	Partner    string          `json:"partner"`
	Deliveries int             `json:"deliveries"`
	OnTime     int             `json:"on_time"`
	Breaches   int             `json:"breaches"`
	OnTimeRate decimal.Decimal `json:"on_time_rate"`
}

// ProblemArea ranks a delivery zone by its SLA breaches.
type ProblemArea struct {
	Zone           string          `json:"zone"`
	Breaches       int             `json:"breaches"`
	AvgDelayDays   decimal.Decimal `json:"avg_delay_days"`
	TopDelayReason string          `json:"top_delay_reason"`
	Orders         int             `json:"orders"`
}

// ZoneDrillDown holds operations metrics scoped to a single delivery zone.
type ZoneDrillDown struct {
	Zone             string               `json:"zone"`
	Orders           int                  `json:"orders"`
	OnTimeRate       decimal.Decimal      `json:"on_time_rate"`
	CancellationRate decimal.Decimal      `json:"cancellation_rate"`
	BreachCount      int                  `json:"breach_count"`
	DelayReasons     []NamedCount         `json:"delay_reasons"`
	Partners         []PartnerPerformance `json:"partners"`
}

type InsightKind string

const (
	InsightTopCity        InsightKind = "top_city"
	InsightChannelShare   InsightKind = "channel_share"
	InsightDiscountHealth InsightKind = "discount_health"
	InsightLoyalty        InsightKind = "loyalty"
	InsightPremiumAOV     InsightKind = "premium_aov"
	InsightOnTimeTarget   InsightKind = "on_time_target"
)

// Insight is one line of the executive summary.
type Insight struct {
	Kind    InsightKind     `json:"kind"`
	Subject string          `json:"subject,omitempty"`
	Value   decimal.Decimal `json:"value"`
	Healthy bool            `json:"healthy"`
}

// Dashboard is the request-scoped result of one filter evaluation.
type Dashboard struct {
	SnapshotID     uuid.UUID                       `json:"snapshot_id"`
	Filter         FilterSpec                      `json:"filter"`
	Previous       *FilterSpec                     `json:"previous,omitempty"`
	Counts         map[string]int                  `json:"counts"`
	Growth         GrowthMetrics                   `json:"growth"`
	Operations     OperationsMetrics               `json:"operations"`
	Comparison     map[string]MetricWithComparison `json:"comparison"`
	RevenueTrend   []TimeSeriesPoint               `json:"revenue_trend"`
	RevenueByCity  []CityRevenue                   `json:"revenue_by_city"`
	Channels       []ChannelShare                  `json:"channels"`
	CategoryByCity []CategoryCityRevenue           `json:"category_by_city"`
	BreachTrend    []TimeSeriesPoint               `json:"breach_trend"`
	BreachesByZone []NamedCount                    `json:"breaches_by_zone"`
	DelayPareto    []ParetoRow                     `json:"delay_pareto"`
	ReturnRates    []CategoryReturnRate            `json:"return_rates"`
	Partners       []PartnerPerformance            `json:"partners"`
	ProblemAreas   []ProblemArea                   `json:"problem_areas"`
	Insights       []Insight                       `json:"insights"`
}
