// Package fanout implements the order-notification broadcast to every
// registered admin device.
package fanout

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/tinywideclouds/go-commerce-admin/internal/metrics"
	"github.com/tinywideclouds/go-commerce-admin/pkg/notify"
)

const notificationTitle = "New Order Received"

// Dispatcher performs one best-effort broadcast per order event: it loads the
// full subscription list, builds a single payload, attempts delivery to every
// subscription independently and prunes permanently dead registrations.
type Dispatcher struct {
	store   notify.SubscriptionStore
	push    notify.PushSender
	web     notify.WebPushSender // nil when no VAPID keys are configured
	timeout time.Duration
	logger  *slog.Logger
}

// NewDispatcher wires the dispatcher. web may be nil, in which case web-push
// subscriptions resolve to unsupported-channel instead of being attempted.
// timeout bounds the whole batch; <= 0 means no bound.
func NewDispatcher(
	store notify.SubscriptionStore,
	push notify.PushSender,
	web notify.WebPushSender,
	timeout time.Duration,
	logger *slog.Logger,
) *Dispatcher {
	return &Dispatcher{
		store:   store,
		push:    push,
		web:     web,
		timeout: timeout,
		logger:  logger.With("component", "FanOutDispatcher"),
	}
}

// BuildOrderPayload constructs the one notification shared by every delivery
// attempt of an invocation. Fallbacks mirror the order-creation flow: a
// missing order number falls back to the id, a missing name to "Customer".
func BuildOrderPayload(event notify.OrderEvent) notify.Payload {
	orderNumber := event.OrderNumber
	if orderNumber == "" {
		orderNumber = event.OrderID
	}
	customerName := event.CustomerName
	if customerName == "" {
		customerName = "Customer"
	}
	url := "/orders/" + event.OrderID

	return notify.Payload{
		Title: notificationTitle,
		Body:  fmt.Sprintf("Order #%s - %s", orderNumber, formatINR(event.TotalAmount)),
		Icon:  "/icon-192x192.png",
		Data: map[string]string{
			"orderId":      event.OrderID,
			"orderNumber":  orderNumber,
			"total":        fmt.Sprintf("%g", event.TotalAmount),
			"type":         "new_order",
			"url":          url,
			"customerName": customerName,
			"click_action": url,
		},
	}
}

type attemptResult struct {
	outcome     notify.Outcome
	pruned      bool
	pruneFailed bool
}

// DispatchOrderNotification runs one fan-out invocation and returns the
// aggregate summary. Individual delivery failures never abort the batch; the
// only fatal failures are a malformed event and an unreadable subscription
// list.
func (d *Dispatcher) DispatchOrderNotification(ctx context.Context, event notify.OrderEvent) (notify.Summary, error) {
	if event.OrderID == "" {
		metrics.Dispatches.WithLabelValues("invalid_argument").Inc()
		return notify.Summary{}, fmt.Errorf("%w: orderId and orderData are required", notify.ErrInvalidArgument)
	}

	subs, err := d.store.ListAll(ctx)
	if err != nil {
		metrics.Dispatches.WithLabelValues("internal").Inc()
		return notify.Summary{}, fmt.Errorf("%w: read subscriptions: %v", notify.ErrInternal, err)
	}
	if len(subs) == 0 {
		d.logger.Info("No admin subscriptions registered; nothing to send.", "order_id", event.OrderID)
		metrics.Dispatches.WithLabelValues("ok").Inc()
		return notify.Summary{Success: true}, nil
	}

	payload := BuildOrderPayload(event)
	d.logger.Info("Fanning out order notification.",
		"order_id", event.OrderID,
		"subscriptions", len(subs),
	)

	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	// Attempts are independent and share no mutable state except the store,
	// whose deletions are idempotent, so they run concurrently.
	results := make([]attemptResult, len(subs))
	var wg sync.WaitGroup
	for i, sub := range subs {
		wg.Add(1)
		go func(i int, sub notify.Subscription) {
			defer wg.Done()
			results[i] = d.attempt(ctx, sub, payload)
		}(i, sub)
	}
	wg.Wait()

	// A completed batch reports success; per-subscription failures live in
	// the counts, not the flag.
	summary := notify.Summary{Success: true}
	for _, res := range results {
		metrics.DeliveryOutcomes.WithLabelValues(string(res.outcome.Reason)).Inc()
		if res.outcome.Success {
			summary.Sent++
		} else {
			summary.Failed++
		}
		if res.pruned {
			summary.Pruned++
		}
		if res.pruneFailed {
			summary.PruneFailed++
		}
	}
	d.logger.Info("Fan-out complete.",
		"order_id", event.OrderID,
		"sent", summary.Sent,
		"failed", summary.Failed,
		"pruned", summary.Pruned,
	)
	metrics.Dispatches.WithLabelValues("ok").Inc()
	return summary, nil
}

// attempt delivers to one subscription and classifies the result. A token
// reported as permanently invalid is deleted from the store in the same
// invocation; that deletion is best-effort and never changes the outcome.
func (d *Dispatcher) attempt(ctx context.Context, sub notify.Subscription, payload notify.Payload) attemptResult {
	var (
		messageID string
		err       error
	)

	switch sub.Channel {
	case notify.ChannelPushToken:
		messageID, err = d.push.Send(ctx, sub.Token, payload)
	case notify.ChannelWebPush:
		if d.web == nil {
			return attemptResult{outcome: notify.Outcome{
				SubscriptionID: sub.ID,
				Reason:         notify.ReasonUnsupportedChannel,
			}}
		}
		messageID, err = d.web.Send(ctx, sub, payload)
	default:
		return attemptResult{outcome: notify.Outcome{
			SubscriptionID: sub.ID,
			Reason:         notify.ReasonUnsupportedChannel,
		}}
	}

	if err == nil {
		return attemptResult{outcome: notify.Outcome{
			SubscriptionID: sub.ID,
			Success:        true,
			Reason:         notify.ReasonSent,
			MessageID:      messageID,
		}}
	}

	reason := notify.ClassifyReason(err)
	res := attemptResult{outcome: notify.Outcome{
		SubscriptionID: sub.ID,
		Reason:         reason,
	}}

	if reason == notify.ReasonInvalidToken {
		d.logger.Warn("Subscription token is dead; removing registration.",
			"subscription_id", sub.ID,
			"owner", sub.OwnerID.String(),
		)
		if delErr := d.store.Delete(ctx, sub.ID); delErr != nil {
			d.logger.Warn("Failed to delete invalid subscription.",
				"subscription_id", sub.ID,
				"err", delErr,
			)
			metrics.PruneFailures.Inc()
			res.pruneFailed = true
		} else {
			res.pruned = true
		}
		return res
	}

	d.logger.Error("Delivery failed.",
		"subscription_id", sub.ID,
		"reason", string(reason),
		"err", err,
	)
	return res
}
