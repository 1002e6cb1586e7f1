package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"log/slog"

	"github.com/tinywideclouds/go-microservice-base/pkg/middleware"
	"github.com/tinywideclouds/go-microservice-base/pkg/response"

	fsstore "github.com/tinywideclouds/go-commerce-admin/internal/storage/firestore"
	"github.com/tinywideclouds/go-commerce-admin/pkg/commerce"
)

// OrderStore is the order persistence surface the handlers need.
type OrderStore interface {
	List(ctx context.Context, filter commerce.OrderFilter) ([]commerce.Order, error)
	GetByID(ctx context.Context, id string) (commerce.Order, error)
	UpdateStatus(ctx context.Context, id string, newStatus commerce.OrderStatus, updatedBy, note string) error
	Search(ctx context.Context, term string) ([]commerce.Order, error)
}

type OrderAPI struct {
	Store  OrderStore
	Audit  AuditRecorder
	Logger *slog.Logger
}

func NewOrderAPI(store OrderStore, audit AuditRecorder, logger *slog.Logger) *OrderAPI {
	return &OrderAPI{
		Store:  store,
		Audit:  audit,
		Logger: logger,
	}
}

func (api *OrderAPI) List(w http.ResponseWriter, r *http.Request) {
	filter := commerce.OrderFilter{
		Limit:  queryInt(r, "limit", 50),
		Offset: queryInt(r, "offset", 0),
	}
	if s := r.URL.Query().Get("status"); s != "" {
		status := commerce.OrderStatus(s)
		if !status.Valid() {
			response.WriteJSONError(w, http.StatusBadRequest, "unknown status")
			return
		}
		filter.Status = status
	}
	var err error
	if filter.StartDate, err = queryDate(r, "startDate"); err != nil {
		response.WriteJSONError(w, http.StatusBadRequest, "invalid startDate")
		return
	}
	if filter.EndDate, err = queryDate(r, "endDate"); err != nil {
		response.WriteJSONError(w, http.StatusBadRequest, "invalid endDate")
		return
	}

	orders, err := api.Store.List(r.Context(), filter)
	if err != nil {
		api.Logger.Error("failed to list orders", "err", err)
		response.WriteJSONError(w, http.StatusInternalServerError, "storage failed")
		return
	}
	writeJSON(w, http.StatusOK, orders)
}

func (api *OrderAPI) Get(w http.ResponseWriter, r *http.Request) {
	order, err := api.Store.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		if errors.Is(err, fsstore.ErrNotFound) {
			response.WriteJSONError(w, http.StatusNotFound, "order not found")
			return
		}
		api.Logger.Error("failed to get order", "err", err)
		response.WriteJSONError(w, http.StatusInternalServerError, "storage failed")
		return
	}
	writeJSON(w, http.StatusOK, order)
}

type UpdateStatusRequest struct {
	Status string `json:"status"`
	Note   string `json:"note,omitempty"`
}

func (api *OrderAPI) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := middleware.GetUserHandleFromContext(ctx)
	if !ok {
		response.WriteJSONError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	orderID := r.PathValue("id")

	var req UpdateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.WriteJSONError(w, http.StatusBadRequest, "invalid json")
		return
	}
	status := commerce.OrderStatus(req.Status)
	if !status.Valid() {
		api.Logger.Warn("UpdateStatus: Validation failed", "reason", "unknown status", "status", req.Status)
		response.WriteJSONError(w, http.StatusBadRequest, "unknown status")
		return
	}

	if err := api.Store.UpdateStatus(ctx, orderID, status, userID, req.Note); err != nil {
		if errors.Is(err, fsstore.ErrNotFound) {
			response.WriteJSONError(w, http.StatusNotFound, "order not found")
			return
		}
		api.Logger.Error("failed to update order status", "order_id", orderID, "err", err)
		response.WriteJSONError(w, http.StatusInternalServerError, "storage failed")
		return
	}
	api.Logger.Info("UpdateStatus: Order advanced", "order_id", orderID, "status", status, "by", userID)
	api.Audit.Record(ctx, "order.update_status", userID, "order", orderID, map[string]string{
		"status": string(status),
		"note":   req.Note,
	})

	w.WriteHeader(http.StatusNoContent)
}

func (api *OrderAPI) Search(w http.ResponseWriter, r *http.Request) {
	term := r.URL.Query().Get("q")
	if term == "" {
		response.WriteJSONError(w, http.StatusBadRequest, "missing query")
		return
	}

	orders, err := api.Store.Search(r.Context(), term)
	if err != nil {
		api.Logger.Error("failed to search orders", "err", err)
		response.WriteJSONError(w, http.StatusInternalServerError, "storage failed")
		return
	}
	writeJSON(w, http.StatusOK, orders)
}

// --- Shared helpers ---

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func queryInt(r *http.Request, key string, fallback int) int {
	val := r.URL.Query().Get(key)
	if val == "" {
		return fallback
	}
	n, err := strconv.Atoi(val)
	if err != nil || n < 0 {
		return fallback
	}
	return n
}

// queryDate accepts a date-only value or full RFC3339.
func queryDate(r *http.Request, key string) (time.Time, error) {
	val := r.URL.Query().Get(key)
	if val == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse("2006-01-02", val); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, val)
}
