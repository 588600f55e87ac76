package entity

import "time"

// Sentinels substituted for missing operational fields.
const (
	UnknownZone         = "Unknown"
	UnknownPartner      = "Unknown Partner"
	NoDelay             = "No Delay"
	NotSpecified        = "Not Specified"
	UnknownValue        = "Unknown"
	DelayOrderCancelled = "Order Cancelled"
)

// Fulfillment represents the delivery record of an order. At most one per order.
type Fulfillment struct {
	OrderID            string     `json:"order_id"`
	PromisedDate       *time.Time `json:"promised_date,omitempty"`
	ActualDeliveryDate *time.Time `json:"actual_delivery_date,omitempty"`
	DeliveryZone       string     `json:"delivery_zone"`
	DeliveryPartner    string     `json:"delivery_partner"`
	DelayReason        string     `json:"delay_reason"`
}

// Observed reports whether the delivery has an actual date. Unobserved rows
// are neither on time nor breached.
func (f *Fulfillment) Observed() bool {
	return f.ActualDeliveryDate != nil
}

// OnTime reports actual <= promised. An observed delivery without a promised
// date cannot be shown to be on time and falls into the breach side.
func (f *Fulfillment) OnTime() bool {
	if !f.Observed() || f.PromisedDate == nil {
		return false
	}
	return !f.ActualDeliveryDate.After(*f.PromisedDate)
}

// Breach reports actual > promised.
func (f *Fulfillment) Breach() bool {
	return f.Observed() && !f.OnTime()
}

// DelayDays returns whole days between promised and actual delivery, clamped
// at zero. ok is false when either date is missing.
func (f *Fulfillment) DelayDays() (days int, ok bool) {
	if f.ActualDeliveryDate == nil || f.PromisedDate == nil {
		return 0, false
	}
	d := int(f.ActualDeliveryDate.Sub(*f.PromisedDate).Hours() / 24)
	if d < 0 {
		d = 0
	}
	return d, true
}

// HasRecordedReason reports whether any delay reason was recorded,
// cancellations included.
func (f *Fulfillment) HasRecordedReason() bool {
	return f.DelayReason != "" && f.DelayReason != NoDelay
}

// HasDelayReason reports whether the delay reason names a real cause.
func (f *Fulfillment) HasDelayReason() bool {
	switch f.DelayReason {
	case "", NoDelay, DelayOrderCancelled:
		return false
	}
	return true
}
