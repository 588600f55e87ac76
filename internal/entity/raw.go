package entity

import "strings"

// Raw table names, also used as CSV file stems, SQL table names and bucket object keys.
const (
	TableCustomers   = "customers"
	TableOrders      = "orders"
	TableOrderItems  = "order_items"
	TableFulfillment = "fulfillment"
	TableReturns     = "returns"
)

// TableNames lists the five source tables in load order.
var TableNames = []string{
	TableCustomers,
	TableOrders,
	TableOrderItems,
	TableFulfillment,
	TableReturns,
}

// RawTable is an untyped record set as delivered by a source.
type RawTable struct {
	Name    string
	Header  []string
	Records [][]string
}

// RawTables holds the five source tables. A nil table means the source did not provide it.
type RawTables struct {
	Customers   *RawTable
	Orders      *RawTable
	OrderItems  *RawTable
	Fulfillment *RawTable
	Returns     *RawTable
}

// Table returns the raw table by its name.
func (rt *RawTables) Table(name string) *RawTable {
	switch name {
	case TableCustomers:
		return rt.Customers
	case TableOrders:
		return rt.Orders
	case TableOrderItems:
		return rt.OrderItems
	case TableFulfillment:
		return rt.Fulfillment
	case TableReturns:
		return rt.Returns
	}
	return nil
}

// SetTable stores t under the given name. Unknown names are ignored.
func (rt *RawTables) SetTable(name string, t *RawTable) {
	switch name {
	case TableCustomers:
		rt.Customers = t
	case TableOrders:
		rt.Orders = t
	case TableOrderItems:
		rt.OrderItems = t
	case TableFulfillment:
		rt.Fulfillment = t
	case TableReturns:
		rt.Returns = t
	}
}

// ColumnIndex returns the position of the column in the header, matched
// case-insensitively, or -1 when the column is absent.
func (t *RawTable) ColumnIndex(column string) int {
	for i, h := range t.Header {
		if strings.EqualFold(strings.TrimSpace(h), column) {
			return i
		}
	}
	return -1
}

// HasColumn reports whether the header contains the column.
func (t *RawTable) HasColumn(column string) bool {
	return t.ColumnIndex(column) >= 0
}

// Cell returns the value of the column at position idx in the record, or ""
// when idx is out of range for a short record.
func Cell(record []string, idx int) string {
	if idx < 0 || idx >= len(record) {
		return ""
	}
	return record[idx]
}

var nullTokens = map[string]struct{}{
	"":     {},
	"nan":  {},
	"null": {},
	"none": {},
	"n/a":  {},
	"nat":  {},
}

// IsNull reports whether a raw cell should be treated as a missing value.
func IsNull(v string) bool {
	_, ok := nullTokens[strings.ToLower(strings.TrimSpace(v))]
	return ok
}
