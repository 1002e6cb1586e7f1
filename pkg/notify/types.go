// Package notify contains the public interfaces and domain models for the
// admin notification fan-out.
package notify

import (
	"encoding/json"
	"fmt"
	"time"

	urn "github.com/tinywideclouds/go-platform/pkg/net/v1"
)

// Channel identifies the delivery mechanism a subscription was registered for.
type Channel string

const (
	// ChannelPushToken is a provider-issued device token (FCM).
	ChannelPushToken Channel = "fcm"
	// ChannelWebPush is a browser endpoint + VAPID key pair.
	ChannelWebPush Channel = "webpush"
)

// WebPushKeys holds the browser-issued encryption keys, base64url encoded
// exactly as the Push API hands them out.
type WebPushKeys struct {
	P256dh string `json:"p256dh"`
	Auth   string `json:"auth"`
}

// Subscription is one registered admin device. Exactly one of Token or
// Endpoint+Keys is populated, consistent with Channel. Subscriptions are
// immutable after creation; the only mutation is deletion.
type Subscription struct {
	ID        string      `json:"id"`
	OwnerID   urn.URN     `json:"userId"`
	Channel   Channel     `json:"type"`
	Token     string      `json:"token,omitempty"`
	Endpoint  string      `json:"endpoint,omitempty"`
	Keys      WebPushKeys `json:"keys,omitempty"`
	CreatedAt time.Time   `json:"createdAt"`
}

// Registration is the input to SubscriptionStore.Create. Channel may be left
// empty; the store derives it from which credential is present.
type Registration struct {
	OwnerID  urn.URN     `json:"userId"`
	Channel  Channel     `json:"type,omitempty"`
	Token    string      `json:"token,omitempty"`
	Endpoint string      `json:"endpoint,omitempty"`
	Keys     WebPushKeys `json:"keys,omitempty"`
}

// OrderEvent is the trigger input to the fan-out dispatcher. It is read-only
// and supplied by the caller; nothing in this package persists it.
type OrderEvent struct {
	OrderID      string
	OrderNumber  string
	TotalAmount  float64
	CustomerName string
}

// orderEventEnvelope is the wire shape shared by the Pub/Sub trigger and the
// HTTP trigger: {orderId, orderData:{orderNumber, total|totalAmount, customerName}}.
type orderEventEnvelope struct {
	OrderID   string `json:"orderId"`
	OrderData *struct {
		OrderNumber  string  `json:"orderNumber,omitempty"`
		Total        float64 `json:"total,omitempty"`
		TotalAmount  float64 `json:"totalAmount,omitempty"`
		CustomerName string  `json:"customerName,omitempty"`
	} `json:"orderData"`
}

// UnmarshalJSON parses the trigger envelope and validates it in one step:
// a missing orderId or orderData block is a malformed trigger.
func (e *OrderEvent) UnmarshalJSON(data []byte) error {
	var env orderEventEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return err
	}
	if env.OrderID == "" || env.OrderData == nil {
		return fmt.Errorf("%w: orderId and orderData are required", ErrInvalidArgument)
	}

	e.OrderID = env.OrderID
	e.OrderNumber = env.OrderData.OrderNumber
	e.TotalAmount = env.OrderData.Total
	if e.TotalAmount == 0 {
		e.TotalAmount = env.OrderData.TotalAmount
	}
	e.CustomerName = env.OrderData.CustomerName
	return nil
}

// MarshalJSON emits the same envelope so events round-trip through Pub/Sub.
func (e OrderEvent) MarshalJSON() ([]byte, error) {
	var env orderEventEnvelope
	env.OrderID = e.OrderID
	env.OrderData = &struct {
		OrderNumber  string  `json:"orderNumber,omitempty"`
		Total        float64 `json:"total,omitempty"`
		TotalAmount  float64 `json:"totalAmount,omitempty"`
		CustomerName string  `json:"customerName,omitempty"`
	}{
		OrderNumber:  e.OrderNumber,
		Total:        e.TotalAmount,
		CustomerName: e.CustomerName,
	}
	return json.Marshal(env)
}

// Payload is the single notification constructed per fan-out invocation and
// shared verbatim across every delivery attempt.
type Payload struct {
	Title string            `json:"title"`
	Body  string            `json:"body"`
	Icon  string            `json:"icon,omitempty"`
	Data  map[string]string `json:"data,omitempty"`
}

// Reason is the closed enumeration of per-subscription delivery outcomes.
type Reason string

const (
	ReasonSent               Reason = "sent"
	ReasonUnsupportedChannel Reason = "unsupported-channel"
	ReasonInvalidToken       Reason = "invalid-token"
	ReasonProviderError      Reason = "provider-error"
)

// Outcome records one delivery attempt. Outcomes exist only to build the
// aggregate Summary and to decide pruning; they are never persisted.
type Outcome struct {
	SubscriptionID string
	Success        bool
	Reason         Reason
	MessageID      string
}

// Summary is the aggregate surfaced to the triggering caller. Pruned and
// PruneFailed make the best-effort cleanup auditable without changing the
// sent/failed contract.
type Summary struct {
	Success     bool `json:"success"`
	Sent        int  `json:"sent"`
	Failed      int  `json:"failed"`
	Pruned      int  `json:"pruned,omitempty"`
	PruneFailed int  `json:"pruneFailed,omitempty"`
}
