// Package firestore holds the console's document stores. Each store owns its
// collection's storage representation; domain types cross the boundary with
// plain time.Time timestamps.
package firestore

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"google.golang.org/api/iterator"

	urn "github.com/tinywideclouds/go-platform/pkg/net/v1"

	"github.com/tinywideclouds/go-commerce-admin/pkg/notify"
)

const subscriptionsCollection = "notificationSubscriptions"

// SubscriptionStore implements notify.SubscriptionStore on Firestore.
type SubscriptionStore struct {
	client *firestore.Client
}

func NewSubscriptionStore(client *firestore.Client) *SubscriptionStore {
	return &SubscriptionStore{client: client}
}

// subscriptionRecord is the internal DB representation.
type subscriptionRecord struct {
	OwnerID   string      `firestore:"userId"`
	Channel   string      `firestore:"type"`
	Token     string      `firestore:"token,omitempty"`
	Endpoint  string      `firestore:"endpoint,omitempty"`
	Keys      *keysRecord `firestore:"keys,omitempty"`
	CreatedAt time.Time   `firestore:"createdAt"`
}

type keysRecord struct {
	P256dh string `firestore:"p256dh"`
	Auth   string `firestore:"auth"`
}

// Create persists a registration under a fresh UUID. Exactly one credential
// shape must be supplied: a provider token, or a full endpoint+keys pair.
func (s *SubscriptionStore) Create(ctx context.Context, reg notify.Registration) (notify.Subscription, error) {
	hasToken := reg.Token != ""
	hasWeb := reg.Endpoint != "" && reg.Keys.P256dh != "" && reg.Keys.Auth != ""
	if !hasToken && !hasWeb {
		return notify.Subscription{}, fmt.Errorf("%w: token or endpoint+keys required", notify.ErrInvalidArgument)
	}

	channel := reg.Channel
	if channel == "" {
		if hasToken {
			channel = notify.ChannelPushToken
		} else {
			channel = notify.ChannelWebPush
		}
	}

	sub := notify.Subscription{
		ID:        uuid.NewString(),
		OwnerID:   reg.OwnerID,
		Channel:   channel,
		CreatedAt: time.Now().UTC(),
	}
	record := subscriptionRecord{
		OwnerID:   reg.OwnerID.String(),
		Channel:   string(channel),
		CreatedAt: sub.CreatedAt,
	}
	if channel == notify.ChannelPushToken {
		sub.Token = reg.Token
		record.Token = reg.Token
	} else {
		sub.Endpoint = reg.Endpoint
		sub.Keys = reg.Keys
		record.Endpoint = reg.Endpoint
		record.Keys = &keysRecord{P256dh: reg.Keys.P256dh, Auth: reg.Keys.Auth}
	}

	if _, err := s.collection().Doc(sub.ID).Set(ctx, record); err != nil {
		return notify.Subscription{}, fmt.Errorf("create subscription: %w", err)
	}
	return sub, nil
}

// ListAll returns every registration. Corrupt rows are skipped rather than
// failing the whole fan-out.
func (s *SubscriptionStore) ListAll(ctx context.Context) ([]notify.Subscription, error) {
	iter := s.collection().Documents(ctx)
	defer iter.Stop()

	subs := make([]notify.Subscription, 0)
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("firestore iteration failed: %w", err)
		}

		var record subscriptionRecord
		if err := doc.DataTo(&record); err != nil {
			continue
		}
		sub, ok := recordToSubscription(doc.Ref.ID, record)
		if !ok {
			continue
		}
		subs = append(subs, sub)
	}
	return subs, nil
}

// Delete removes one registration. Firestore deletes are idempotent, so an
// already-absent id succeeds.
func (s *SubscriptionStore) Delete(ctx context.Context, id string) error {
	_, err := s.collection().Doc(id).Delete(ctx)
	return err
}

// DeleteByOwnerAndChannel removes the owner's registrations on a channel.
// When credential is non-empty it narrows to the matching token or endpoint.
func (s *SubscriptionStore) DeleteByOwnerAndChannel(ctx context.Context, owner urn.URN, channel notify.Channel, credential string) error {
	q := s.collection().
		Where("userId", "==", owner.String()).
		Where("type", "==", string(channel))
	if credential != "" {
		field := "token"
		if channel == notify.ChannelWebPush {
			field = "endpoint"
		}
		q = q.Where(field, "==", credential)
	}

	iter := q.Documents(ctx)
	defer iter.Stop()
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return fmt.Errorf("firestore query failed: %w", err)
		}
		if _, err := doc.Ref.Delete(ctx); err != nil {
			return fmt.Errorf("delete subscription %s: %w", doc.Ref.ID, err)
		}
	}
	return nil
}

func (s *SubscriptionStore) collection() *firestore.CollectionRef {
	return s.client.Collection(subscriptionsCollection)
}

func recordToSubscription(id string, record subscriptionRecord) (notify.Subscription, bool) {
	owner, err := urn.Parse(record.OwnerID)
	if err != nil {
		return notify.Subscription{}, false
	}
	sub := notify.Subscription{
		ID:        id,
		OwnerID:   owner,
		Channel:   notify.Channel(record.Channel),
		Token:     record.Token,
		Endpoint:  record.Endpoint,
		CreatedAt: record.CreatedAt,
	}
	if record.Keys != nil {
		sub.Keys = notify.WebPushKeys{P256dh: record.Keys.P256dh, Auth: record.Keys.Auth}
	}
	return sub, true
}
