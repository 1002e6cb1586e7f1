package firestore

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/tinywideclouds/go-commerce-admin/pkg/commerce"
)

const productsCollection = "products"

// ProductStore owns the catalogue collection.
type ProductStore struct {
	client *firestore.Client
}

func NewProductStore(client *firestore.Client) *ProductStore {
	return &ProductStore{client: client}
}

// List returns products newest-first, narrowed by the filter.
func (s *ProductStore) List(ctx context.Context, filter commerce.ProductFilter) ([]commerce.Product, error) {
	q := s.collection().Query.OrderBy("createdAt", firestore.Desc)
	if filter.Status != "" {
		q = q.Where("status", "==", string(filter.Status))
	}
	if filter.Category != "" {
		q = q.Where("category", "==", filter.Category)
	}
	if filter.Offset > 0 {
		q = q.Offset(filter.Offset)
	}
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}

	iter := q.Documents(ctx)
	defer iter.Stop()
	products := make([]commerce.Product, 0)
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("firestore iteration failed: %w", err)
		}
		var product commerce.Product
		if err := doc.DataTo(&product); err != nil {
			continue
		}
		product.ID = doc.Ref.ID
		products = append(products, product)
	}
	return products, nil
}

// GetByID fetches one product, or ErrNotFound.
func (s *ProductStore) GetByID(ctx context.Context, id string) (commerce.Product, error) {
	doc, err := s.collection().Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return commerce.Product{}, ErrNotFound
		}
		return commerce.Product{}, fmt.Errorf("get product: %w", err)
	}

	var product commerce.Product
	if err := doc.DataTo(&product); err != nil {
		return commerce.Product{}, fmt.Errorf("decode product %s: %w", id, err)
	}
	product.ID = doc.Ref.ID
	return product, nil
}

// Create persists a new product and returns its assigned id.
func (s *ProductStore) Create(ctx context.Context, product commerce.Product) (string, error) {
	now := time.Now().UTC()
	product.CreatedAt = now
	product.UpdatedAt = now
	ref, _, err := s.collection().Add(ctx, product)
	if err != nil {
		return "", fmt.Errorf("create product: %w", err)
	}
	return ref.ID, nil
}

// Update replaces the stored product, refreshing updatedAt and preserving the
// original creation time.
func (s *ProductStore) Update(ctx context.Context, id string, product commerce.Product) error {
	existing, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}
	product.CreatedAt = existing.CreatedAt
	product.UpdatedAt = time.Now().UTC()
	if _, err := s.collection().Doc(id).Set(ctx, product); err != nil {
		return fmt.Errorf("update product: %w", err)
	}
	return nil
}

// Delete removes a product. Deleting an absent id succeeds.
func (s *ProductStore) Delete(ctx context.Context, id string) error {
	_, err := s.collection().Doc(id).Delete(ctx)
	return err
}

// UpdateInventory sets the tracked stock quantity without touching the rest
// of the document.
func (s *ProductStore) UpdateInventory(ctx context.Context, id string, quantity int) error {
	_, err := s.collection().Doc(id).Update(ctx, []firestore.Update{
		{Path: "inventory.quantity", Value: quantity},
		{Path: "updatedAt", Value: time.Now().UTC()},
	})
	if status.Code(err) == codes.NotFound {
		return ErrNotFound
	}
	return err
}

func (s *ProductStore) collection() *firestore.CollectionRef {
	return s.client.Collection(productsCollection)
}
