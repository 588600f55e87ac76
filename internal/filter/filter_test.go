package filter

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jekabolt/grbpwr-analytics/internal/entity"
	gerr "github.com/jekabolt/grbpwr-analytics/internal/errors"
)

func day(d int, hour int) time.Time {
	return time.Date(2024, time.January, d, hour, 0, 0, 0, time.UTC)
}

func ptr(t time.Time) *time.Time { return &t }

func fixture() *entity.Tables {
	return &entity.Tables{
		Customers: []entity.Customer{
			{CustomerID: "C1", City: "Dubai", Segment: "VIP", Tier: entity.TierGold},
			{CustomerID: "C2", City: "Sharjah", Segment: "Regular", Tier: entity.TierBronze},
			{CustomerID: "C3", City: "Dubai", Segment: "Regular", Tier: entity.TierBronze},
		},
		Orders: []entity.Order{
			{OrderID: "O1", CustomerID: "C1", OrderDate: day(10, 9), Status: entity.OrderStatusDelivered, Channel: "App", NetAmount: decimal.NewFromInt(1000)},
			{OrderID: "O2", CustomerID: "C1", OrderDate: day(12, 23), Status: entity.OrderStatusCancelled, Channel: "Web", NetAmount: decimal.NewFromInt(500)},
			{OrderID: "O3", CustomerID: "C2", OrderDate: day(20, 0), Status: entity.OrderStatusDelivered, Channel: "Web", NetAmount: decimal.NewFromInt(200)},
			{OrderID: "O4", CustomerID: "C9", OrderDate: day(5, 12), Status: entity.OrderStatusReturned, Channel: "App", NetAmount: decimal.NewFromInt(50)},
		},
		OrderItems: []entity.OrderItem{
			{OrderID: "O1", LineNo: 1, ProductCategory: "Electronics", ItemTotal: decimal.NewFromInt(600)},
			{OrderID: "O1", LineNo: 2, ProductCategory: "Fashion", ItemTotal: decimal.NewFromInt(400)},
			{OrderID: "O2", LineNo: 1, ProductCategory: "Fashion", ItemTotal: decimal.NewFromInt(500)},
			{OrderID: "O3", LineNo: 1, ProductCategory: "Beauty", ItemTotal: decimal.NewFromInt(200)},
			{OrderID: "OX", LineNo: 1, ProductCategory: "Electronics", ItemTotal: decimal.NewFromInt(10)},
		},
		Fulfillment: []entity.Fulfillment{
			{OrderID: "O1", PromisedDate: ptr(day(15, 0)), ActualDeliveryDate: ptr(day(14, 0))},
			{OrderID: "O3", PromisedDate: ptr(day(22, 0)), ActualDeliveryDate: ptr(day(25, 0))},
			{OrderID: "OX", PromisedDate: ptr(day(22, 0))},
		},
		Returns: []entity.Return{
			{ReturnID: "R1", OrderID: "O1"},
			{ReturnID: "R2", OrderID: "O4"},
		},
	}
}

func orderIDList(t *entity.Tables) []string {
	ids := make([]string, 0, len(t.Orders))
	for _, o := range t.Orders {
		ids = append(ids, o.OrderID)
	}
	return ids
}

func TestApply_EmptySpecKeepsAllOrders(t *testing.T) {
	out := Apply(fixture(), entity.FilterSpec{})

	assert.Equal(t, []string{"O1", "O2", "O3", "O4"}, orderIDList(out))
	assert.Len(t, out.OrderItems, 4, "orphan item dropped")
	assert.Len(t, out.Fulfillment, 2)
	assert.Len(t, out.Returns, 2)

	ids := []string{}
	for _, c := range out.Customers {
		ids = append(ids, c.CustomerID)
	}
	assert.Equal(t, []string{"C1", "C2"}, ids, "customers without orders are not filtered in")
}

func TestApply_DateRangeOnDayComponent(t *testing.T) {
	out := Apply(fixture(), entity.FilterSpec{Start: day(10, 12), End: day(12, 0)})
	assert.Equal(t, []string{"O1", "O2"}, orderIDList(out))

	out = Apply(fixture(), entity.FilterSpec{Start: day(20, 0)})
	assert.Equal(t, []string{"O3"}, orderIDList(out))

	out = Apply(fixture(), entity.FilterSpec{End: day(9, 0)})
	assert.Equal(t, []string{"O4"}, orderIDList(out))
}

func TestApply_OrderDimensions(t *testing.T) {
	out := Apply(fixture(), entity.FilterSpec{Channels: []string{"Web"}})
	assert.Equal(t, []string{"O2", "O3"}, orderIDList(out))

	out = Apply(fixture(), entity.FilterSpec{Channels: []string{"Web"}, Statuses: []string{entity.OrderStatusDelivered}})
	assert.Equal(t, []string{"O3"}, orderIDList(out))
}

func TestApply_CustomerDimensions(t *testing.T) {
	out := Apply(fixture(), entity.FilterSpec{Cities: []string{"Dubai"}})
	assert.Equal(t, []string{"O1", "O2"}, orderIDList(out))
	require.Len(t, out.Customers, 1)
	assert.Equal(t, "C1", out.Customers[0].CustomerID)

	out = Apply(fixture(), entity.FilterSpec{Tiers: []string{string(entity.TierBronze)}})
	assert.Equal(t, []string{"O3"}, orderIDList(out), "orders of unknown customers fail customer predicates")

	out = Apply(fixture(), entity.FilterSpec{Segments: []string{"Regular"}, Cities: []string{"Dubai"}})
	assert.Empty(t, out.Orders)
	assert.Empty(t, out.Customers)
}

func TestApply_CategoryIsBidirectional(t *testing.T) {
	out := Apply(fixture(), entity.FilterSpec{Categories: []string{"Electronics"}})

	assert.Equal(t, []string{"O1"}, orderIDList(out))
	require.Len(t, out.OrderItems, 1)
	assert.Equal(t, "Electronics", out.OrderItems[0].ProductCategory)
	assert.Len(t, out.Fulfillment, 1)
	require.Len(t, out.Returns, 1)
	assert.Equal(t, "R1", out.Returns[0].ReturnID)

	out = Apply(fixture(), entity.FilterSpec{Categories: []string{"Fashion"}, Statuses: []string{entity.OrderStatusCancelled}})
	assert.Equal(t, []string{"O2"}, orderIDList(out))
	assert.Len(t, out.OrderItems, 1)
}

func TestApply_DoesNotMutateInput(t *testing.T) {
	in := fixture()
	_ = Apply(in, entity.FilterSpec{Categories: []string{"Beauty"}, Channels: []string{"Web"}})
	assert.Equal(t, fixture(), in)
}

func TestPreviousPeriod(t *testing.T) {
	prev, ok := PreviousPeriod(entity.FilterSpec{Start: day(10, 0), End: day(19, 0), Channels: []string{"App"}})
	require.True(t, ok)
	assert.Equal(t, time.Date(2023, time.December, 31, 0, 0, 0, 0, time.UTC), prev.Start)
	assert.Equal(t, day(9, 0), prev.End)
	assert.Equal(t, []string{"App"}, prev.Channels)

	prev, ok = PreviousPeriod(entity.FilterSpec{Start: day(10, 0), End: day(10, 0)})
	require.True(t, ok)
	assert.Equal(t, day(9, 0), prev.Start)
	assert.Equal(t, day(9, 0), prev.End)

	_, ok = PreviousPeriod(entity.FilterSpec{Start: day(10, 0)})
	assert.False(t, ok)
}

func TestApplyWithBaseline(t *testing.T) {
	current, previous := ApplyWithBaseline(fixture(), entity.FilterSpec{Start: day(10, 0), End: day(14, 0)})
	assert.Equal(t, []string{"O1", "O2"}, orderIDList(current))
	assert.Equal(t, []string{"O4"}, orderIDList(previous))

	_, previous = ApplyWithBaseline(fixture(), entity.FilterSpec{})
	assert.Empty(t, previous.Orders)
}

func TestFilterSpec_Validate(t *testing.T) {
	err := (&entity.FilterSpec{Start: day(10, 0), End: day(9, 0)}).Validate()
	assert.ErrorIs(t, err, gerr.ErrInvalidFilter)

	err = (&entity.FilterSpec{Start: day(10, 0), End: day(10, 0)}).Validate()
	assert.NoError(t, err)

	err = (&entity.FilterSpec{Tiers: []string{"Diamond"}}).Validate()
	assert.ErrorIs(t, err, gerr.ErrInvalidFilter)
}

func TestOptions(t *testing.T) {
	opts := Options(fixture())
	assert.Equal(t, []string{"Dubai", "Sharjah"}, opts.Cities)
	assert.Equal(t, []string{"App", "Web"}, opts.Channels)
	assert.Equal(t, []string{"Beauty", "Electronics", "Fashion"}, opts.Categories)
	assert.Equal(t, day(5, 12), opts.DateRange.From)
	assert.Equal(t, day(20, 0), opts.DateRange.To)
}
