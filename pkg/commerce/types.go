// Package commerce contains the domain models served by the admin console:
// orders, products, customers and the analytics aggregates derived from them.
package commerce

import "time"

// OrderStatus is the lifecycle state of an order.
type OrderStatus string

const (
	OrderPending    OrderStatus = "pending"
	OrderConfirmed  OrderStatus = "confirmed"
	OrderProcessing OrderStatus = "processing"
	OrderShipped    OrderStatus = "shipped"
	OrderDelivered  OrderStatus = "delivered"
	OrderCancelled  OrderStatus = "cancelled"
	OrderRefunded   OrderStatus = "refunded"
)

// OrderStatuses lists every valid status, in lifecycle order.
var OrderStatuses = []OrderStatus{
	OrderPending, OrderConfirmed, OrderProcessing,
	OrderShipped, OrderDelivered, OrderCancelled, OrderRefunded,
}

// Valid reports whether s is a known order status.
func (s OrderStatus) Valid() bool {
	for _, known := range OrderStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// OrderItem is one line of an order.
type OrderItem struct {
	ProductID string  `json:"productId" firestore:"productId"`
	Name      string  `json:"name" firestore:"name"`
	SKU       string  `json:"sku" firestore:"sku"`
	Quantity  int     `json:"quantity" firestore:"quantity"`
	Price     float64 `json:"price" firestore:"price"`
	Total     float64 `json:"total" firestore:"total"`
}

// TimelineEvent records one status transition on an order.
type TimelineEvent struct {
	Status    OrderStatus `json:"status" firestore:"status"`
	Timestamp time.Time   `json:"timestamp" firestore:"timestamp"`
	UpdatedBy string      `json:"updatedBy,omitempty" firestore:"updatedBy,omitempty"`
	Note      string      `json:"note,omitempty" firestore:"note,omitempty"`
}

// Order is a customer order as the console sees it. Orders are created by the
// storefront; the console reads them and advances their status.
type Order struct {
	ID            string          `json:"id" firestore:"-"`
	OrderNumber   string          `json:"orderNumber" firestore:"orderNumber"`
	CustomerID    string          `json:"customerId,omitempty" firestore:"customerId,omitempty"`
	CustomerName  string          `json:"customerName,omitempty" firestore:"customerName,omitempty"`
	CustomerEmail string          `json:"customerEmail,omitempty" firestore:"customerEmail,omitempty"`
	Items         []OrderItem     `json:"items" firestore:"items"`
	Status        OrderStatus     `json:"status" firestore:"status"`
	Timeline      []TimelineEvent `json:"timeline,omitempty" firestore:"timeline,omitempty"`
	Total         float64         `json:"total" firestore:"total"`
	Notes         string          `json:"notes,omitempty" firestore:"notes,omitempty"`
	Tags          []string        `json:"tags,omitempty" firestore:"tags,omitempty"`
	CreatedAt     time.Time       `json:"createdAt" firestore:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt" firestore:"updatedAt"`
}

// OrderFilter narrows an order listing. Zero values mean "no constraint".
type OrderFilter struct {
	Status    OrderStatus
	StartDate time.Time
	EndDate   time.Time
	Limit     int
	Offset    int
}

// ProductStatus is the publication state of a product.
type ProductStatus string

const (
	ProductActive   ProductStatus = "active"
	ProductInactive ProductStatus = "inactive"
	ProductDraft    ProductStatus = "draft"
	ProductArchived ProductStatus = "archived"
)

// Inventory is the stock tracking block carried on a product.
type Inventory struct {
	Quantity          int  `json:"quantity" firestore:"quantity"`
	LowStockThreshold int  `json:"lowStockThreshold" firestore:"lowStockThreshold"`
	TrackQuantity     bool `json:"trackQuantity" firestore:"trackQuantity"`
	AllowBackorder    bool `json:"allowBackorder" firestore:"allowBackorder"`
}

// LowStock reports whether the product has dropped to its reorder threshold.
func (i Inventory) LowStock() bool {
	return i.TrackQuantity && i.Quantity <= i.LowStockThreshold
}

// Product is one catalogue entry.
type Product struct {
	ID        string        `json:"id" firestore:"-"`
	Name      string        `json:"name" firestore:"name"`
	SKU       string        `json:"sku" firestore:"sku"`
	Price     float64       `json:"price" firestore:"price"`
	Category  string        `json:"category,omitempty" firestore:"category,omitempty"`
	Status    ProductStatus `json:"status" firestore:"status"`
	IsVisible bool          `json:"isVisible" firestore:"isVisible"`
	Inventory Inventory     `json:"inventory" firestore:"inventory"`
	CreatedAt time.Time     `json:"createdAt" firestore:"createdAt"`
	UpdatedAt time.Time     `json:"updatedAt" firestore:"updatedAt"`
}

// ProductFilter narrows a product listing.
type ProductFilter struct {
	Status   ProductStatus
	Category string
	Limit    int
	Offset   int
}

// Customer is a storefront account, read-only from the console's side.
type Customer struct {
	ID          string    `json:"id" firestore:"-"`
	Email       string    `json:"email" firestore:"email"`
	DisplayName string    `json:"displayName,omitempty" firestore:"displayName,omitempty"`
	PhoneNumber string    `json:"phoneNumber,omitempty" firestore:"phoneNumber,omitempty"`
	TotalSpent  float64   `json:"totalSpent" firestore:"totalSpent"`
	OrderCount  int       `json:"orderCount" firestore:"orderCount"`
	CreatedAt   time.Time `json:"createdAt" firestore:"createdAt"`
	LastLoginAt time.Time `json:"lastLoginAt,omitempty" firestore:"lastLoginAt,omitempty"`
}

// PeriodRevenue is revenue bucketed by day (period is YYYY-MM-DD).
type PeriodRevenue struct {
	Period  string  `json:"period"`
	Revenue float64 `json:"revenue"`
}

// DateBucket is order count and revenue for one day.
type DateBucket struct {
	Date    string  `json:"date"`
	Count   int     `json:"count"`
	Revenue float64 `json:"revenue"`
}

// ProductSales is the per-product rollup used by the top-products view.
type ProductSales struct {
	ProductID string  `json:"productId"`
	Name      string  `json:"name"`
	Quantity  int     `json:"quantity"`
	Revenue   float64 `json:"revenue"`
}

// AnalyticsData is the dashboard aggregate computed over a set of orders.
type AnalyticsData struct {
	TotalRevenue      float64             `json:"totalRevenue"`
	TotalOrders       int                 `json:"totalOrders"`
	AverageOrderValue float64             `json:"averageOrderValue"`
	OrdersByStatus    map[OrderStatus]int `json:"ordersByStatus"`
	RevenueByPeriod   []PeriodRevenue     `json:"revenueByPeriod"`
	OrdersByDate      []DateBucket        `json:"ordersByDate"`
	TopProducts       []ProductSales      `json:"topProducts"`
}
