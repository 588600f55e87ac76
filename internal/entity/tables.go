package entity

import (
	"strconv"
	"time"

	"github.com/google/uuid"
)

// DateTimeLayout is the canonical text form of timestamps in rendered raw tables.
const DateTimeLayout = "2006-01-02 15:04:05.999999999"

// Tables is the canonical, analysis-ready dataset. Filtered views share the
// same shape. Values are never mutated once built.
type Tables struct {
	Customers   []Customer    `json:"customers"`
	Orders      []Order       `json:"orders"`
	OrderItems  []OrderItem   `json:"order_items"`
	Fulfillment []Fulfillment `json:"fulfillment"`
	Returns     []Return      `json:"returns"`
}

// Counts returns the number of rows per table.
func (t *Tables) Counts() map[string]int {
	return map[string]int{
		TableCustomers:   len(t.Customers),
		TableOrders:      len(t.Orders),
		TableOrderItems:  len(t.OrderItems),
		TableFulfillment: len(t.Fulfillment),
		TableReturns:     len(t.Returns),
	}
}

// CustomerIndex maps customer id to customer.
func (t *Tables) CustomerIndex() map[string]*Customer {
	idx := make(map[string]*Customer, len(t.Customers))
	for i := range t.Customers {
		idx[t.Customers[i].CustomerID] = &t.Customers[i]
	}
	return idx
}

// OrderIndex maps order id to order.
func (t *Tables) OrderIndex() map[string]*Order {
	idx := make(map[string]*Order, len(t.Orders))
	for i := range t.Orders {
		idx[t.Orders[i].OrderID] = &t.Orders[i]
	}
	return idx
}

// ToRaw renders the canonical tables back into raw string tables. Derived
// columns (tier, spending, capped amount, outlier flag) are left out because
// cleaning derives them again.
func (t *Tables) ToRaw() *RawTables {
	rt := &RawTables{}

	customers := &RawTable{
		Name:   TableCustomers,
		Header: []string{"customer_id", "city", "customer_segment", "signup_date", "signup_channel"},
	}
	for _, c := range t.Customers {
		customers.Records = append(customers.Records, []string{
			c.CustomerID, c.City, c.Segment, formatDate(c.SignupDate), c.SignupChannel,
		})
	}
	rt.Customers = customers

	orders := &RawTable{
		Name: TableOrders,
		Header: []string{
			"order_id", "customer_id", "order_date", "order_status", "order_channel",
			"payment_method", "coupon_code", "gross_amount", "discount_amount", "net_amount",
		},
	}
	for _, o := range t.Orders {
		od := o.OrderDate
		orders.Records = append(orders.Records, []string{
			o.OrderID, o.CustomerID, formatDate(&od), o.Status, o.Channel,
			o.PaymentMethod, o.CouponCode, o.GrossAmount.String(), o.DiscountAmount.String(), o.NetAmount.String(),
		})
	}
	rt.Orders = orders

	withItemID := false
	for _, it := range t.OrderItems {
		if it.ItemID != "" {
			withItemID = true
			break
		}
	}
	items := &RawTable{Name: TableOrderItems}
	if withItemID {
		items.Header = []string{"order_id", "item_id", "line_no", "product_category", "item_total"}
	} else {
		items.Header = []string{"order_id", "line_no", "product_category", "item_total"}
	}
	for _, it := range t.OrderItems {
		rec := []string{it.OrderID}
		if withItemID {
			rec = append(rec, it.ItemID)
		}
		rec = append(rec, strconv.Itoa(it.LineNo), it.ProductCategory, it.ItemTotal.String())
		items.Records = append(items.Records, rec)
	}
	rt.OrderItems = items

	fulfillment := &RawTable{
		Name: TableFulfillment,
		Header: []string{
			"order_id", "promised_date", "actual_delivery_date", "delivery_zone", "delivery_partner", "delay_reason",
		},
	}
	for _, f := range t.Fulfillment {
		fulfillment.Records = append(fulfillment.Records, []string{
			f.OrderID, formatDate(f.PromisedDate), formatDate(f.ActualDeliveryDate),
			f.DeliveryZone, f.DeliveryPartner, f.DelayReason,
		})
	}
	rt.Fulfillment = fulfillment

	returns := &RawTable{
		Name:   TableReturns,
		Header: []string{"return_id", "order_id", "return_date", "return_reason", "refund_status", "refund_amount"},
	}
	for _, r := range t.Returns {
		returns.Records = append(returns.Records, []string{
			r.ReturnID, r.OrderID, formatDate(r.ReturnDate), r.ReturnReason, r.RefundStatus, r.RefundAmount.String(),
		})
	}
	rt.Returns = returns

	return rt
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(DateTimeLayout)
}

// CleanReport carries batch-level data quality counters of one cleaning run.
type CleanReport struct {
	DuplicatesRemoved  map[string]int      `json:"duplicates_removed"`
	FullRowDedup       []string            `json:"full_row_dedup,omitempty"`
	MissingColumns     map[string][]string `json:"missing_columns,omitempty"`
	InvalidOrders      int                 `json:"invalid_orders_dropped"`
	UnparseableDates   int                 `json:"unparseable_dates"`
	UnparseableAmounts int                 `json:"unparseable_amounts"`
	SignCorrections    int                 `json:"sign_corrections"`
	OutliersFlagged    int                 `json:"outliers_flagged"`
	NetAmountP99       string              `json:"net_amount_p99"`
}

// Snapshot is an immutable cleaned dataset keyed by the fingerprint of its raw input.
type Snapshot struct {
	ID          uuid.UUID      `json:"id"`
	Fingerprint uint64         `json:"fingerprint"`
	Source      string         `json:"source"`
	CleanedAt   time.Time      `json:"cleaned_at"`
	Counts      map[string]int `json:"counts"`
	Tables      *Tables        `json:"-"`
	Report      *CleanReport   `json:"report"`
}

// CleanRun is the persisted record of one cleaning batch.
type CleanRun struct {
	ID          int       `db:"id" json:"id"`
	SnapshotID  string    `db:"snapshot_id" json:"snapshot_id"`
	Source      string    `db:"source" json:"source"`
	Fingerprint string    `db:"fingerprint" json:"fingerprint"`
	Customers   int       `db:"customers" json:"customers"`
	Orders      int       `db:"orders" json:"orders"`
	OrderItems  int       `db:"order_items" json:"order_items"`
	Fulfillment int       `db:"fulfillment" json:"fulfillment"`
	Returns     int       `db:"returns" json:"returns"`
	Report      string    `db:"report" json:"report"`
	CleanedAt   time.Time `db:"cleaned_at" json:"cleaned_at"`
}
