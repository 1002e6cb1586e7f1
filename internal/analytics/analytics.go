// Package analytics computes the dashboard aggregates from a window of
// orders. Aggregation is pure: callers fetch the orders, this package folds
// them.
package analytics

import (
	"sort"

	"github.com/tinywideclouds/go-commerce-admin/pkg/commerce"
)

const topProductsLimit = 10

// Aggregate folds a set of orders into the dashboard view. Every order in the
// window contributes regardless of status; refunds show up in OrdersByStatus,
// not as revenue adjustments.
func Aggregate(orders []commerce.Order) commerce.AnalyticsData {
	data := commerce.AnalyticsData{
		OrdersByStatus:  make(map[commerce.OrderStatus]int),
		RevenueByPeriod: []commerce.PeriodRevenue{},
		OrdersByDate:    []commerce.DateBucket{},
		TopProducts:     []commerce.ProductSales{},
	}

	dateBuckets := make(map[string]*commerce.DateBucket)
	productSales := make(map[string]*commerce.ProductSales)

	for _, order := range orders {
		data.TotalOrders++
		data.OrdersByStatus[order.Status]++

		data.TotalRevenue += order.Total

		day := order.CreatedAt.UTC().Format("2006-01-02")
		bucket, ok := dateBuckets[day]
		if !ok {
			bucket = &commerce.DateBucket{Date: day}
			dateBuckets[day] = bucket
		}
		bucket.Count++
		bucket.Revenue += order.Total

		for _, item := range order.Items {
			sales, ok := productSales[item.ProductID]
			if !ok {
				sales = &commerce.ProductSales{ProductID: item.ProductID, Name: item.Name}
				productSales[item.ProductID] = sales
			}
			sales.Quantity += item.Quantity
			sales.Revenue += item.Total
		}
	}

	if data.TotalOrders > 0 {
		data.AverageOrderValue = data.TotalRevenue / float64(data.TotalOrders)
	}

	days := make([]string, 0, len(dateBuckets))
	for day := range dateBuckets {
		days = append(days, day)
	}
	sort.Strings(days)
	for _, day := range days {
		bucket := dateBuckets[day]
		data.OrdersByDate = append(data.OrdersByDate, *bucket)
		data.RevenueByPeriod = append(data.RevenueByPeriod, commerce.PeriodRevenue{
			Period:  day,
			Revenue: bucket.Revenue,
		})
	}

	for _, sales := range productSales {
		data.TopProducts = append(data.TopProducts, *sales)
	}
	sort.Slice(data.TopProducts, func(i, j int) bool {
		if data.TopProducts[i].Revenue != data.TopProducts[j].Revenue {
			return data.TopProducts[i].Revenue > data.TopProducts[j].Revenue
		}
		return data.TopProducts[i].ProductID < data.TopProducts[j].ProductID
	})
	if len(data.TopProducts) > topProductsLimit {
		data.TopProducts = data.TopProducts[:topProductsLimit]
	}

	return data
}
