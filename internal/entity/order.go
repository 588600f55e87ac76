package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Order statuses after normalization.
const (
	OrderStatusDelivered = "Delivered"
	OrderStatusCancelled = "Cancelled"
	OrderStatusReturned  = "Returned"
	OrderStatusInTransit = "In Transit"
)

// Order represents a canonical order row.
type Order struct {
	OrderID         string          `json:"order_id"`
	CustomerID      string          `json:"customer_id"`
	OrderDate       time.Time       `json:"order_date"`
	Status          string          `json:"order_status"`
	Channel         string          `json:"order_channel"`
	PaymentMethod   string          `json:"payment_method"`
	CouponCode      string          `json:"coupon_code,omitempty"`
	GrossAmount     decimal.Decimal `json:"gross_amount"`
	DiscountAmount  decimal.Decimal `json:"discount_amount"`
	NetAmount       decimal.Decimal `json:"net_amount"`
	NetAmountCapped decimal.Decimal `json:"net_amount_capped"`
	IsHighValue     bool            `json:"is_high_value"`
}

// IsDelivered reports whether the order counts towards revenue.
func (o *Order) IsDelivered() bool {
	return o.Status == OrderStatusDelivered
}

// IsCancelled reports whether the order was cancelled.
func (o *Order) IsCancelled() bool {
	return o.Status == OrderStatusCancelled
}

// OrderItem represents a canonical order line.
type OrderItem struct {
	OrderID         string          `json:"order_id"`
	ItemID          string          `json:"item_id,omitempty"`
	LineNo          int             `json:"line_no"`
	ProductCategory string          `json:"product_category"`
	ItemTotal       decimal.Decimal `json:"item_total"`
}

// Return represents a canonical return row.
type Return struct {
	ReturnID     string          `json:"return_id"`
	OrderID      string          `json:"order_id"`
	ReturnDate   *time.Time      `json:"return_date,omitempty"`
	ReturnReason string          `json:"return_reason"`
	RefundStatus string          `json:"refund_status"`
	RefundAmount decimal.Decimal `json:"refund_amount"`
}

// Refund statuses after normalization.
const (
	RefundStatusProcessed = "Processed"
	RefundStatusPending   = "Pending"
	RefundStatusRejected  = "Rejected"
	RefundStatusUnknown   = "Unknown"
)

// IsProcessed reports whether the refund was paid out.
func (r *Return) IsProcessed() bool {
	return r.RefundStatus == RefundStatusProcessed
}
