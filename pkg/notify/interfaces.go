package notify

import (
	"context"

	urn "github.com/tinywideclouds/go-platform/pkg/net/v1"
)

// SubscriptionStore holds one record per registered admin device.
type SubscriptionStore interface {
	// Create persists a new registration and assigns its id. It rejects with
	// ErrInvalidArgument unless a token or a full endpoint+keys pair is supplied.
	Create(ctx context.Context, reg Registration) (Subscription, error)

	// ListAll returns every current registration, unfiltered and unordered.
	ListAll(ctx context.Context) ([]Subscription, error)

	// Delete removes a registration by id. Deleting an absent id is not an error.
	Delete(ctx context.Context, id string) error

	// DeleteByOwnerAndChannel removes every registration of the owner on the
	// given channel whose credential (token or endpoint) matches.
	DeleteByOwnerAndChannel(ctx context.Context, owner urn.URN, channel Channel, credential string) error
}

// PushSender delivers one payload to one provider token. A permanently dead
// token is reported as a *SendError with ReasonInvalidToken.
type PushSender interface {
	Send(ctx context.Context, token string, p Payload) (messageID string, err error)
}

// WebPushSender delivers one payload to one browser subscription. A gone
// endpoint is reported as a *SendError with ReasonInvalidToken.
type WebPushSender interface {
	Send(ctx context.Context, sub Subscription, p Payload) (messageID string, err error)
}
