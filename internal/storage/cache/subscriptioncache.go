package cache

import (
	"context"
	"time"

	urn "github.com/tinywideclouds/go-platform/pkg/net/v1"

	"github.com/tinywideclouds/go-commerce-admin/pkg/notify"
)

const subscriptionsKey = "commerce:subscriptions:all"

// CacheClient defines the subset of Redis commands we need.
type CacheClient interface {
	// Get returns the value or a specific error if not found.
	Get(ctx context.Context, key string, dest interface{}) error
	// Set stores the value with a TTL.
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	// Del removes the key.
	Del(ctx context.Context, key string) error
}

// CachedSubscriptionStore is a Decorator that adds Read-Aside caching to any
// SubscriptionStore. The fan-out reads the whole subscription set on every
// order, so the set is cached under a single key and invalidated on any write.
type CachedSubscriptionStore struct {
	realStore notify.SubscriptionStore
	cache     CacheClient
	ttl       time.Duration
}

// NewCachedSubscriptionStore creates the decorator.
func NewCachedSubscriptionStore(realStore notify.SubscriptionStore, cache CacheClient, ttl time.Duration) *CachedSubscriptionStore {
	return &CachedSubscriptionStore{
		realStore: realStore,
		cache:     cache,
		ttl:       ttl,
	}
}

// --- READ PATH (Read-Aside) ---

func (s *CachedSubscriptionStore) ListAll(ctx context.Context) ([]notify.Subscription, error) {
	var cached []notify.Subscription
	err := s.cache.Get(ctx, subscriptionsKey, &cached)
	if err == nil {
		// Cache Hit
		return cached, nil
	}

	// Fallback to Real Store (Firestore)
	fresh, err := s.realStore.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	// Populate Cache (Fire and Forget)
	// If Redis is down we just serve from DB.
	_ = s.cache.Set(ctx, subscriptionsKey, fresh, s.ttl)

	return fresh, nil
}

// --- WRITE PATHS (Invalidate-on-Write) ---

func (s *CachedSubscriptionStore) Create(ctx context.Context, reg notify.Registration) (notify.Subscription, error) {
	sub, err := s.realStore.Create(ctx, reg)
	if err != nil {
		return notify.Subscription{}, err
	}
	return sub, s.invalidate(ctx)
}

// Delete clears the cache even though the DB delete succeeded on its own:
// a pruned dead token must stop being dispatched to immediately.
func (s *CachedSubscriptionStore) Delete(ctx context.Context, id string) error {
	if err := s.realStore.Delete(ctx, id); err != nil {
		return err
	}
	return s.invalidate(ctx)
}

func (s *CachedSubscriptionStore) DeleteByOwnerAndChannel(ctx context.Context, owner urn.URN, channel notify.Channel, credential string) error {
	if err := s.realStore.DeleteByOwnerAndChannel(ctx, owner, channel, credential); err != nil {
		return err
	}
	return s.invalidate(ctx)
}

func (s *CachedSubscriptionStore) invalidate(ctx context.Context) error {
	// The next ListAll is forced back to Firestore.
	return s.cache.Del(ctx, subscriptionsKey)
}
