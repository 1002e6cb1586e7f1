package analytics_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tinywideclouds/go-commerce-admin/internal/analytics"
	"github.com/tinywideclouds/go-commerce-admin/pkg/commerce"
)

func day(s string) time.Time {
	t, _ := time.Parse("2006-01-02", s)
	return t
}

func TestAggregate_EmptyWindow(t *testing.T) {
	data := analytics.Aggregate(nil)

	assert.Zero(t, data.TotalRevenue)
	assert.Zero(t, data.TotalOrders)
	assert.Zero(t, data.AverageOrderValue)
	assert.Empty(t, data.OrdersByStatus)
	assert.NotNil(t, data.RevenueByPeriod)
	assert.NotNil(t, data.TopProducts)
}

func TestAggregate_RevenueAndStatus(t *testing.T) {
	orders := []commerce.Order{
		{Status: commerce.OrderDelivered, Total: 1000, CreatedAt: day("2025-06-01")},
		{Status: commerce.OrderPending, Total: 500, CreatedAt: day("2025-06-01")},
		{Status: commerce.OrderCancelled, Total: 9999, CreatedAt: day("2025-06-02")},
	}

	data := analytics.Aggregate(orders)

	// Cancelled orders contribute like any other; their state is visible in
	// the status breakdown.
	assert.Equal(t, 3, data.TotalOrders)
	assert.InDelta(t, 11499.0, data.TotalRevenue, 0.001)
	assert.InDelta(t, 3833.0, data.AverageOrderValue, 0.001)
	assert.Equal(t, 1, data.OrdersByStatus[commerce.OrderDelivered])
	assert.Equal(t, 1, data.OrdersByStatus[commerce.OrderPending])
	assert.Equal(t, 1, data.OrdersByStatus[commerce.OrderCancelled])
}

func TestAggregate_DateBucketsAreSorted(t *testing.T) {
	orders := []commerce.Order{
		{Status: commerce.OrderDelivered, Total: 100, CreatedAt: day("2025-06-03")},
		{Status: commerce.OrderDelivered, Total: 200, CreatedAt: day("2025-06-01")},
		{Status: commerce.OrderDelivered, Total: 300, CreatedAt: day("2025-06-01")},
	}

	data := analytics.Aggregate(orders)

	require.Len(t, data.OrdersByDate, 2)
	assert.Equal(t, "2025-06-01", data.OrdersByDate[0].Date)
	assert.Equal(t, 2, data.OrdersByDate[0].Count)
	assert.InDelta(t, 500.0, data.OrdersByDate[0].Revenue, 0.001)
	assert.Equal(t, "2025-06-03", data.OrdersByDate[1].Date)

	require.Len(t, data.RevenueByPeriod, 2)
	assert.Equal(t, "2025-06-01", data.RevenueByPeriod[0].Period)
	assert.InDelta(t, 500.0, data.RevenueByPeriod[0].Revenue, 0.001)
}

func TestAggregate_TopProductsCappedAtTen(t *testing.T) {
	var orders []commerce.Order
	for i := 0; i < 15; i++ {
		orders = append(orders, commerce.Order{
			Status:    commerce.OrderDelivered,
			Total:     float64(100 * (i + 1)),
			CreatedAt: day("2025-06-01"),
			Items: []commerce.OrderItem{
				{ProductID: fmt.Sprintf("prod-%02d", i), Name: fmt.Sprintf("Product %d", i), Quantity: 1, Total: float64(100 * (i + 1))},
			},
		})
	}

	data := analytics.Aggregate(orders)

	require.Len(t, data.TopProducts, 10)
	// Highest revenue first.
	assert.Equal(t, "prod-14", data.TopProducts[0].ProductID)
	assert.InDelta(t, 1500.0, data.TopProducts[0].Revenue, 0.001)
}

func TestAggregate_RefundedOrdersStillCount(t *testing.T) {
	orders := []commerce.Order{
		{
			Status: commerce.OrderRefunded, Total: 500, CreatedAt: day("2025-06-01"),
			Items: []commerce.OrderItem{{ProductID: "prod-a", Name: "A", Quantity: 5, Total: 500}},
		},
		{
			Status: commerce.OrderDelivered, Total: 100, CreatedAt: day("2025-06-01"),
			Items: []commerce.OrderItem{{ProductID: "prod-b", Name: "B", Quantity: 1, Total: 100}},
		},
	}

	data := analytics.Aggregate(orders)

	assert.InDelta(t, 600.0, data.TotalRevenue, 0.001)
	require.Len(t, data.TopProducts, 2)
	assert.Equal(t, "prod-a", data.TopProducts[0].ProductID)
	assert.Equal(t, 1, data.OrdersByStatus[commerce.OrderRefunded])
}
