package api

import (
	"net/http"

	"log/slog"

	"github.com/tinywideclouds/go-microservice-base/pkg/response"

	"github.com/tinywideclouds/go-commerce-admin/internal/analytics"
	"github.com/tinywideclouds/go-commerce-admin/pkg/commerce"
)

// AnalyticsAPI serves the dashboard aggregate. It reads the order window
// through the same store as the order handlers and folds it in memory.
type AnalyticsAPI struct {
	Orders OrderStore
	Logger *slog.Logger
}

func NewAnalyticsAPI(orders OrderStore, logger *slog.Logger) *AnalyticsAPI {
	return &AnalyticsAPI{
		Orders: orders,
		Logger: logger,
	}
}

func (api *AnalyticsAPI) Dashboard(w http.ResponseWriter, r *http.Request) {
	filter := commerce.OrderFilter{}
	var err error
	if filter.StartDate, err = queryDate(r, "startDate"); err != nil {
		response.WriteJSONError(w, http.StatusBadRequest, "invalid startDate")
		return
	}
	if filter.EndDate, err = queryDate(r, "endDate"); err != nil {
		response.WriteJSONError(w, http.StatusBadRequest, "invalid endDate")
		return
	}

	orders, err := api.Orders.List(r.Context(), filter)
	if err != nil {
		api.Logger.Error("failed to load orders for analytics", "err", err)
		response.WriteJSONError(w, http.StatusInternalServerError, "storage failed")
		return
	}

	writeJSON(w, http.StatusOK, analytics.Aggregate(orders))
}
