package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"log/slog"

	"github.com/tinywideclouds/go-microservice-base/pkg/response"

	"github.com/tinywideclouds/go-commerce-admin/pkg/notify"
)

// OrderDispatcher fans an order event out to every subscribed admin device.
type OrderDispatcher interface {
	DispatchOrderNotification(ctx context.Context, event notify.OrderEvent) (notify.Summary, error)
}

// NotifyAPI is the synchronous HTTP trigger for the fan-out. The storefront
// normally publishes to Pub/Sub; this endpoint serves direct callers and
// manual re-sends.
type NotifyAPI struct {
	Dispatcher OrderDispatcher
	Logger     *slog.Logger
}

func NewNotifyAPI(dispatcher OrderDispatcher, logger *slog.Logger) *NotifyAPI {
	return &NotifyAPI{
		Dispatcher: dispatcher,
		Logger:     logger,
	}
}

func (api *NotifyAPI) Dispatch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var event notify.OrderEvent
	if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
		api.Logger.Warn("Dispatch: rejecting malformed trigger", "err", err)
		response.WriteJSONError(w, http.StatusBadRequest, "invalid order event")
		return
	}

	summary, err := api.Dispatcher.DispatchOrderNotification(ctx, event)
	if err != nil {
		if errors.Is(err, notify.ErrInvalidArgument) {
			response.WriteJSONError(w, http.StatusBadRequest, "orderId and orderData are required")
			return
		}
		api.Logger.Error("Dispatch failed", "order_id", event.OrderID, "err", err)
		response.WriteJSONError(w, http.StatusInternalServerError, "dispatch failed")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(summary)
}
