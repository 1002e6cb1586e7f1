package firestore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/tinywideclouds/go-commerce-admin/pkg/commerce"
)

const ordersCollection = "orders"

// ErrNotFound is returned by the Get/Update paths of every store in this
// package when the document does not exist.
var ErrNotFound = errors.New("not found")

// OrderStore reads and mutates storefront orders.
type OrderStore struct {
	client *firestore.Client
}

func NewOrderStore(client *firestore.Client) *OrderStore {
	return &OrderStore{client: client}
}

// List returns orders newest-first, narrowed by the filter.
func (s *OrderStore) List(ctx context.Context, filter commerce.OrderFilter) ([]commerce.Order, error) {
	q := s.collection().Query.OrderBy("createdAt", firestore.Desc)
	if filter.Status != "" {
		q = q.Where("status", "==", string(filter.Status))
	}
	if !filter.StartDate.IsZero() {
		q = q.Where("createdAt", ">=", filter.StartDate)
	}
	if !filter.EndDate.IsZero() {
		q = q.Where("createdAt", "<=", filter.EndDate)
	}
	if filter.Offset > 0 {
		q = q.Offset(filter.Offset)
	}
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}
	return s.collectOrders(q.Documents(ctx))
}

// GetByID fetches one order, or ErrNotFound.
func (s *OrderStore) GetByID(ctx context.Context, id string) (commerce.Order, error) {
	doc, err := s.collection().Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return commerce.Order{}, ErrNotFound
		}
		return commerce.Order{}, fmt.Errorf("get order: %w", err)
	}

	var order commerce.Order
	if err := doc.DataTo(&order); err != nil {
		return commerce.Order{}, fmt.Errorf("decode order %s: %w", id, err)
	}
	order.ID = doc.Ref.ID
	return order, nil
}

// UpdateStatus advances an order's status and appends a timeline event in a
// single write; concurrent updates of different orders never conflict.
func (s *OrderStore) UpdateStatus(ctx context.Context, id string, newStatus commerce.OrderStatus, updatedBy, note string) error {
	event := commerce.TimelineEvent{
		Status:    newStatus,
		Timestamp: time.Now().UTC(),
		UpdatedBy: updatedBy,
		Note:      note,
	}
	_, err := s.collection().Doc(id).Update(ctx, []firestore.Update{
		{Path: "status", Value: string(newStatus)},
		{Path: "timeline", Value: firestore.ArrayUnion(event)},
		{Path: "updatedAt", Value: time.Now().UTC()},
	})
	if status.Code(err) == codes.NotFound {
		return ErrNotFound
	}
	return err
}

// Search does a prefix match on the order number.
func (s *OrderStore) Search(ctx context.Context, term string) ([]commerce.Order, error) {
	q := s.collection().
		Where("orderNumber", ">=", term).
		Where("orderNumber", "<=", term+"").
		Limit(50)
	return s.collectOrders(q.Documents(ctx))
}

func (s *OrderStore) collection() *firestore.CollectionRef {
	return s.client.Collection(ordersCollection)
}

func (s *OrderStore) collectOrders(iter *firestore.DocumentIterator) ([]commerce.Order, error) {
	defer iter.Stop()
	orders := make([]commerce.Order, 0)
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("firestore iteration failed: %w", err)
		}
		var order commerce.Order
		if err := doc.DataTo(&order); err != nil {
			continue
		}
		order.ID = doc.Ref.ID
		orders = append(orders, order)
	}
	return orders, nil
}
