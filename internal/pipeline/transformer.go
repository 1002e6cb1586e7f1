// Package pipeline contains the core message processing components for the service.
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/illmade-knight/go-dataflow/pkg/messagepipeline"

	"github.com/tinywideclouds/go-commerce-admin/pkg/notify"
)

// OrderEventTransformer is a dataflow Transformer that safely unmarshals and
// validates a raw message payload into a structured notify.OrderEvent.
//
// It uses standard encoding/json, relying on OrderEvent's UnmarshalJSON to
// reject envelopes missing the order id or order data.
func OrderEventTransformer(
	_ context.Context,
	msg *messagepipeline.Message,
) (*notify.OrderEvent, bool, error) {
	var event notify.OrderEvent

	if err := json.Unmarshal(msg.Payload, &event); err != nil {
		// Malformed envelopes are returned with skip=true so the
		// StreamingService can handle the Nack/DLQ logic.
		return nil, true, fmt.Errorf("failed to unmarshal order event from message %s: %w", msg.ID, err)
	}

	return &event, false, nil
}
