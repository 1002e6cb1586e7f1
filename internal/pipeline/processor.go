package pipeline

import (
	"context"
	"errors"
	"log/slog"

	"github.com/illmade-knight/go-dataflow/pkg/messagepipeline"

	"github.com/tinywideclouds/go-commerce-admin/pkg/notify"
)

// OrderDispatcher fans an order event out to every subscribed admin device.
type OrderDispatcher interface {
	DispatchOrderNotification(ctx context.Context, event notify.OrderEvent) (notify.Summary, error)
}

// NewProcessor creates the logic that hands each decoded order event to the
// fan-out dispatcher and maps its errors onto ack/retry semantics.
func NewProcessor(dispatcher OrderDispatcher, logger *slog.Logger) messagepipeline.StreamProcessor[notify.OrderEvent] {
	return func(ctx context.Context, original messagepipeline.Message, event *notify.OrderEvent) error {
		procLogger := logger.With(
			"order_id", event.OrderID,
			"pubsub_msg_id", original.ID,
		)

		summary, err := dispatcher.DispatchOrderNotification(ctx, *event)
		if err != nil {
			if errors.Is(err, notify.ErrInvalidArgument) {
				// A bad trigger never becomes good; ack it instead of
				// redelivering forever.
				procLogger.Error("Dropping invalid order event", "err", err)
				return nil
			}
			procLogger.Error("Dispatch failed", "err", err)
			return err // Retryable
		}

		procLogger.Info("Order notification dispatched",
			"sent", summary.Sent,
			"failed", summary.Failed,
			"pruned", summary.Pruned,
		)
		return nil
	}
}
