// Package clean turns the five raw source tables into the canonical dataset.
package clean

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jekabolt/grbpwr-analytics/internal/entity"
	gerr "github.com/jekabolt/grbpwr-analytics/internal/errors"
)

type cleaner struct {
	policy Policy
	norm   *normalizer
	report *entity.CleanReport
}

// Clean deduplicates, normalizes and types the raw tables, drops orders with
// implausible dates, flags outliers and derives customer tiers. The only error
// is a missing source table; per-row anomalies are absorbed and counted in
// the report.
func Clean(raw *entity.RawTables, p Policy) (*entity.Tables, *entity.CleanReport, error) {
	if raw == nil {
		return nil, nil, fmt.Errorf("%w: no tables provided", gerr.ErrMissingTable)
	}
	for _, name := range entity.TableNames {
		if raw.Table(name) == nil {
			return nil, nil, fmt.Errorf("%w: %s", gerr.ErrMissingTable, name)
		}
	}

	c := &cleaner{
		policy: p.withDefaults(),
		norm:   newNormalizer(),
		report: &entity.CleanReport{
			DuplicatesRemoved: make(map[string]int, len(entity.TableNames)),
			MissingColumns:    map[string][]string{},
		},
	}

	frames := make(map[string]*frame, len(entity.TableNames))
	for _, name := range entity.TableNames {
		f := project(raw.Table(name), name)
		if missing := f.missing(); len(missing) > 0 {
			c.report.MissingColumns[name] = missing
		}
		removed, fullRow := f.dedup(c.canonical(f))
		c.report.DuplicatesRemoved[name] = removed
		if fullRow {
			c.report.FullRowDedup = append(c.report.FullRowDedup, name)
		}
		frames[name] = f
	}

	t := &entity.Tables{
		Orders:      c.orders(frames[entity.TableOrders]),
		OrderItems:  c.orderItems(frames[entity.TableOrderItems]),
		Fulfillment: c.fulfillment(frames[entity.TableFulfillment]),
		Returns:     c.returns(frames[entity.TableReturns]),
	}
	c.flagOutliers(t.Orders)
	t.Customers = c.customers(frames[entity.TableCustomers], t.Orders)

	slog.Default().Info("cleaned raw tables",
		slog.Int("customers", len(t.Customers)),
		slog.Int("orders", len(t.Orders)),
		slog.Int("order_items", len(t.OrderItems)),
		slog.Int("fulfillment", len(t.Fulfillment)),
		slog.Int("returns", len(t.Returns)),
		slog.Any("duplicates_removed", c.report.DuplicatesRemoved),
		slog.Int("invalid_orders_dropped", c.report.InvalidOrders),
		slog.Int("unparseable_dates", c.report.UnparseableDates),
		slog.Int("unparseable_amounts", c.report.UnparseableAmounts),
		slog.Int("sign_corrections", c.report.SignCorrections),
		slog.Int("outliers_flagged", c.report.OutliersFlagged),
		slog.String("net_amount_p99", c.report.NetAmountP99),
	)
	return t, c.report, nil
}

var (
	dateColumns = map[string]bool{
		"signup_date": true, "order_date": true, "promised_date": true,
		"actual_delivery_date": true, "return_date": true,
	}
	moneyColumns = map[string]bool{
		"gross_amount": true, "discount_amount": true, "net_amount": true,
		"item_total": true, "refund_amount": true,
	}
	// values taken by null cells
	cellDefaults = map[string]string{
		"city":             entity.UnknownValue,
		"customer_segment": entity.UnknownValue,
		"delivery_zone":    entity.UnknownZone,
		"delivery_partner": entity.UnknownPartner,
		"delay_reason":     entity.NoDelay,
		"return_reason":    entity.NotSpecified,
	}
)

// canonical returns the cleaned form of a cell of f without counting
// anomalies. Rows that differ only in spelling map to the same cells.
func (c *cleaner) canonical(f *frame) func(column, v string) string {
	refundStatus := refundStatusDefault(f)
	return func(column, v string) string {
		switch {
		case dateColumns[column]:
			t, _ := parseDate(v)
			if t == nil {
				return ""
			}
			return t.Format(entity.DateTimeLayout)
		case moneyColumns[column]:
			d, _ := parseMoney(v)
			return d.Abs().String()
		case column == "refund_status":
			return orDefault(c.norm.normalize(column, v), refundStatus)
		}
		return orDefault(c.norm.normalize(column, v), cellDefaults[column])
	}
}

func (c *cleaner) date(v string) *time.Time {
	t, ok := parseDate(v)
	if !ok {
		c.report.UnparseableDates++
	}
	return t
}

// money parses an amount and takes its absolute value.
func (c *cleaner) money(v string) decimal.Decimal {
	d, ok := parseMoney(v)
	if !ok {
		c.report.UnparseableAmounts++
	}
	if d.IsNegative() {
		c.report.SignCorrections++
		d = d.Abs()
	}
	return d
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func (c *cleaner) orders(f *frame) []entity.Order {
	out := make([]entity.Order, 0, len(f.rows))
	for _, row := range f.rows {
		od := c.date(f.get(row, "order_date"))
		if od == nil || od.Before(c.policy.MinOrderDate) || od.After(c.policy.Now) {
			c.report.InvalidOrders++
			continue
		}
		out = append(out, entity.Order{
			OrderID:        f.get(row, "order_id"),
			CustomerID:     f.get(row, "customer_id"),
			OrderDate:      *od,
			Status:         c.norm.normalize("order_status", f.get(row, "order_status")),
			Channel:        c.norm.normalize("order_channel", f.get(row, "order_channel")),
			PaymentMethod:  f.get(row, "payment_method"),
			CouponCode:     f.get(row, "coupon_code"),
			GrossAmount:    c.money(f.get(row, "gross_amount")),
			DiscountAmount: c.money(f.get(row, "discount_amount")),
			NetAmount:      c.money(f.get(row, "net_amount")),
		})
	}
	return out
}

// flagOutliers caps net amounts at the configured percentile and flags high
// value orders. It runs on surviving orders only.
func (c *cleaner) flagOutliers(orders []entity.Order) {
	nets := make([]decimal.Decimal, len(orders))
	for i := range orders {
		nets[i] = orders[i].NetAmount
	}
	capAt := percentile(nets, c.policy.CapPercentile).Round(2)
	c.report.NetAmountP99 = capAt.String()
	for i := range orders {
		o := &orders[i]
		o.NetAmountCapped = decimal.Min(o.NetAmount, capAt)
		o.IsHighValue = o.NetAmount.GreaterThan(c.policy.HighValueThreshold)
		if o.IsHighValue {
			c.report.OutliersFlagged++
		}
	}
}

func (c *cleaner) orderItems(f *frame) []entity.OrderItem {
	out := make([]entity.OrderItem, 0, len(f.rows))
	lines := make(map[string]int)
	for _, row := range f.rows {
		orderID := f.get(row, "order_id")
		lines[orderID]++
		out = append(out, entity.OrderItem{
			OrderID:         orderID,
			ItemID:          f.get(row, "item_id"),
			LineNo:          lines[orderID],
			ProductCategory: c.norm.normalize("product_category", f.get(row, "product_category")),
			ItemTotal:       c.money(f.get(row, "item_total")),
		})
	}
	return out
}

func (c *cleaner) fulfillment(f *frame) []entity.Fulfillment {
	out := make([]entity.Fulfillment, 0, len(f.rows))
	for _, row := range f.rows {
		out = append(out, entity.Fulfillment{
			OrderID:            f.get(row, "order_id"),
			PromisedDate:       c.date(f.get(row, "promised_date")),
			ActualDeliveryDate: c.date(f.get(row, "actual_delivery_date")),
			DeliveryZone:       orDefault(f.get(row, "delivery_zone"), entity.UnknownZone),
			DeliveryPartner:    orDefault(f.get(row, "delivery_partner"), entity.UnknownPartner),
			DelayReason:        orDefault(f.get(row, "delay_reason"), entity.NoDelay),
		})
	}
	return out
}

func (c *cleaner) returns(f *frame) []entity.Return {
	statusDefault := refundStatusDefault(f)
	out := make([]entity.Return, 0, len(f.rows))
	for _, row := range f.rows {
		out = append(out, entity.Return{
			ReturnID:     f.get(row, "return_id"),
			OrderID:      f.get(row, "order_id"),
			ReturnDate:   c.date(f.get(row, "return_date")),
			ReturnReason: orDefault(f.get(row, "return_reason"), entity.NotSpecified),
			RefundStatus: orDefault(c.norm.normalize("refund_status", f.get(row, "refund_status")), statusDefault),
			RefundAmount: c.money(f.get(row, "refund_amount")),
		})
	}
	return out
}

// without a status column every refund counts as paid out
func refundStatusDefault(f *frame) string {
	if !f.present["refund_status"] {
		return entity.RefundStatusProcessed
	}
	return entity.RefundStatusUnknown
}

// customers attaches lifetime spend and tier. Spend sums net amounts over all
// surviving orders regardless of status.
func (c *cleaner) customers(f *frame, orders []entity.Order) []entity.Customer {
	spend := make(map[string]decimal.Decimal)
	for _, o := range orders {
		spend[o.CustomerID] = spend[o.CustomerID].Add(o.NetAmount)
	}
	out := make([]entity.Customer, 0, len(f.rows))
	for _, row := range f.rows {
		id := f.get(row, "customer_id")
		total, ok := spend[id]
		if !ok {
			total = decimal.Zero.Round(2)
		}
		out = append(out, entity.Customer{
			CustomerID:    id,
			City:          orDefault(c.norm.normalize("city", f.get(row, "city")), entity.UnknownValue),
			Segment:       orDefault(c.norm.normalize("customer_segment", f.get(row, "customer_segment")), entity.UnknownValue),
			SignupDate:    c.date(f.get(row, "signup_date")),
			SignupChannel: f.get(row, "signup_channel"),
			Tier:          entity.TierForSpend(total),
			TotalSpending: total,
		})
	}
	return out
}
