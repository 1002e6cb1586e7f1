package firestore

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/tinywideclouds/go-commerce-admin/pkg/commerce"
)

const customersCollection = "customers"

// CustomerStore is a read-only view over the storefront's customer records.
type CustomerStore struct {
	client *firestore.Client
}

func NewCustomerStore(client *firestore.Client) *CustomerStore {
	return &CustomerStore{client: client}
}

// List returns customers ordered by lifetime spend, highest first.
func (s *CustomerStore) List(ctx context.Context, limit, offset int) ([]commerce.Customer, error) {
	q := s.collection().Query.OrderBy("totalSpent", firestore.Desc)
	if offset > 0 {
		q = q.Offset(offset)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}

	iter := q.Documents(ctx)
	defer iter.Stop()
	customers := make([]commerce.Customer, 0)
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("firestore iteration failed: %w", err)
		}
		var customer commerce.Customer
		if err := doc.DataTo(&customer); err != nil {
			continue
		}
		customer.ID = doc.Ref.ID
		customers = append(customers, customer)
	}
	return customers, nil
}

// GetByID fetches one customer, or ErrNotFound.
func (s *CustomerStore) GetByID(ctx context.Context, id string) (commerce.Customer, error) {
	doc, err := s.collection().Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return commerce.Customer{}, ErrNotFound
		}
		return commerce.Customer{}, fmt.Errorf("get customer: %w", err)
	}

	var customer commerce.Customer
	if err := doc.DataTo(&customer); err != nil {
		return commerce.Customer{}, fmt.Errorf("decode customer %s: %w", id, err)
	}
	customer.ID = doc.Ref.ID
	return customer, nil
}

func (s *CustomerStore) collection() *firestore.CollectionRef {
	return s.client.Collection(customersCollection)
}
