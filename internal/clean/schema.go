package clean

import (
	"strings"

	"github.com/jekabolt/grbpwr-analytics/internal/entity"
)

// canonical column sets, key column first
var schemas = map[string][]string{
	entity.TableCustomers: {
		"customer_id", "city", "customer_segment", "signup_date", "signup_channel",
	},
	entity.TableOrders: {
		"order_id", "customer_id", "order_date", "order_status", "order_channel",
		"payment_method", "coupon_code", "gross_amount", "discount_amount", "net_amount",
	},
	entity.TableOrderItems: {
		"item_id", "order_id", "product_category", "item_total",
	},
	entity.TableFulfillment: {
		"order_id", "promised_date", "actual_delivery_date", "delivery_zone", "delivery_partner", "delay_reason",
	},
	entity.TableReturns: {
		"return_id", "order_id", "return_date", "return_reason", "refund_status", "refund_amount",
	},
}

// Columns returns the canonical column set of a table, key column first.
func Columns(table string) []string {
	return append([]string(nil), schemas[table]...)
}

var keyColumns = map[string]string{
	entity.TableCustomers:   "customer_id",
	entity.TableOrders:      "order_id",
	entity.TableOrderItems:  "item_id",
	entity.TableFulfillment: "order_id",
	entity.TableReturns:     "return_id",
}

// frame is a raw table projected onto its canonical columns. Cells are
// trimmed and null tokens are replaced with "". Absent columns read as null.
type frame struct {
	name    string
	index   map[string]int
	present map[string]bool
	rows    [][]string
}

func project(t *entity.RawTable, name string) *frame {
	columns := schemas[name]
	f := &frame{
		name:    name,
		index:   make(map[string]int, len(columns)),
		present: make(map[string]bool, len(columns)),
		rows:    make([][]string, 0, len(t.Records)),
	}
	src := make([]int, len(columns))
	for i, c := range columns {
		f.index[c] = i
		src[i] = t.ColumnIndex(c)
		f.present[c] = src[i] >= 0
	}
	for _, rec := range t.Records {
		row := make([]string, len(columns))
		for i, j := range src {
			v := strings.TrimSpace(entity.Cell(rec, j))
			if entity.IsNull(v) {
				v = ""
			}
			row[i] = v
		}
		f.rows = append(f.rows, row)
	}
	return f
}

func (f *frame) get(row []string, column string) string {
	return row[f.index[column]]
}

func (f *frame) set(row []string, column, v string) {
	row[f.index[column]] = v
}

func (f *frame) missing() []string {
	var out []string
	for _, c := range schemas[f.name] {
		if !f.present[c] {
			out = append(out, c)
		}
	}
	return out
}

// dedup keeps the first row per natural key. Rows without a key, or all rows
// when the key column is absent, are compared on their canonical cells.
func (f *frame) dedup(canon func(column, v string) string) (removed int, fullRow bool) {
	key := keyColumns[f.name]
	fullRow = !f.present[key]
	seen := make(map[string]struct{}, len(f.rows))
	rows := f.rows[:0]
	for _, row := range f.rows {
		k := "k\x1f" + f.get(row, key)
		if fullRow || f.get(row, key) == "" {
			k = "r\x1f" + f.rowKey(row, canon)
		}
		if _, ok := seen[k]; ok {
			removed++
			continue
		}
		seen[k] = struct{}{}
		rows = append(rows, row)
	}
	f.rows = rows
	return removed, fullRow
}

func (f *frame) rowKey(row []string, canon func(column, v string) string) string {
	columns := schemas[f.name]
	cells := make([]string, len(columns))
	for i, c := range columns {
		cells[i] = canon(c, row[i])
	}
	return strings.Join(cells, "\x1f")
}
