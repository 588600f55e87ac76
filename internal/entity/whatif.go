package entity

import "github.com/shopspring/decimal"

// Baseline holds the current metrics a what-if projection starts from.
type Baseline struct {
	OnTimeRate       decimal.Decimal `json:"on_time_rate"`
	CancellationRate decimal.Decimal `json:"cancellation_rate"`
	ReturnRate       decimal.Decimal `json:"return_rate"`
	NPS              decimal.Decimal `json:"nps"`
	TotalRefunds     decimal.Decimal `json:"total_refunds"`
	RepeatRate       decimal.Decimal `json:"repeat_rate"`
	AvgOrderValue    decimal.Decimal `json:"avg_order_value"`
	CancelledOrders  int             `json:"cancelled_orders"`
	ActiveCustomers  int             `json:"active_customers"`
	SLABreachCount   int             `json:"sla_breach_count"`
}

// ProjectedMetrics are the dependent metrics after a driver change.
type ProjectedMetrics struct {
	OnTimeRate       decimal.Decimal `json:"on_time_rate"`
	CancellationRate decimal.Decimal `json:"cancellation_rate"`
	ReturnRate       decimal.Decimal `json:"return_rate"`
	NPS              decimal.Decimal `json:"nps"`
	TotalRefunds     decimal.Decimal `json:"total_refunds"`
	RepeatRate       decimal.Decimal `json:"repeat_rate"`
}

// FinancialImpact translates projected metrics into money.
type FinancialImpact struct {
	OrdersRecovered    int64           `json:"orders_recovered"`
	RevenueRecovered   decimal.Decimal `json:"revenue_recovered"`
	NewRepeatCustomers int64           `json:"new_repeat_customers"`
	RepeatRevenue      decimal.Decimal `json:"repeat_revenue"`
	RefundSavings      decimal.Decimal `json:"refund_savings"`
	TotalBenefit       decimal.Decimal `json:"total_benefit"`
	InvestmentCost     decimal.Decimal `json:"investment_cost"`
	NetBenefit         decimal.Decimal `json:"net_benefit"`
	ROI                decimal.Decimal `json:"roi"`
}

// Projection is the result of a single driver change.
type Projection struct {
	Driver    string           `json:"driver"`
	Delta     decimal.Decimal  `json:"delta"`
	Current   ProjectedMetrics `json:"current"`
	Projected ProjectedMetrics `json:"projected"`
	Financial FinancialImpact  `json:"financial"`
}

// SweepRow is one point of the sensitivity curve.
type SweepRow struct {
	Delta          decimal.Decimal `json:"delta"`
	Target         decimal.Decimal `json:"target"`
	TotalBenefit   decimal.Decimal `json:"total_benefit"`
	InvestmentCost decimal.Decimal `json:"investment_cost"`
	NetBenefit     decimal.Decimal `json:"net_benefit"`
	ROI            decimal.Decimal `json:"roi"`
}

// ScenarioLevers are the two inputs of the cancellation/delivery scenario, in percent.
type ScenarioLevers struct {
	CancelReduction     decimal.Decimal `json:"cancel_reduction"`
	DeliveryImprovement decimal.Decimal `json:"delivery_improvement"`
}

type ScenarioResult struct {
	Levers              ScenarioLevers  `json:"levers"`
	OrdersRecovered     int64           `json:"orders_recovered"`
	RevenueRecovered    decimal.Decimal `json:"revenue_recovered"`
	BreachesAvoided     int64           `json:"breaches_avoided"`
	RefundPerBreach     decimal.Decimal `json:"refund_per_breach"`
	RefundCostReduction decimal.Decimal `json:"refund_cost_reduction"`
	NewOnTimeRate       decimal.Decimal `json:"new_on_time_rate"`
	TotalBenefit        decimal.Decimal `json:"total_benefit"`
}
