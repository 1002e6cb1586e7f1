package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"log/slog"

	"github.com/tinywideclouds/go-microservice-base/pkg/middleware"
	"github.com/tinywideclouds/go-microservice-base/pkg/response"

	fsstore "github.com/tinywideclouds/go-commerce-admin/internal/storage/firestore"
	"github.com/tinywideclouds/go-commerce-admin/pkg/commerce"
)

// ProductStore is the catalogue persistence surface the handlers need.
type ProductStore interface {
	List(ctx context.Context, filter commerce.ProductFilter) ([]commerce.Product, error)
	GetByID(ctx context.Context, id string) (commerce.Product, error)
	Create(ctx context.Context, product commerce.Product) (string, error)
	Update(ctx context.Context, id string, product commerce.Product) error
	Delete(ctx context.Context, id string) error
	UpdateInventory(ctx context.Context, id string, quantity int) error
}

type ProductAPI struct {
	Store  ProductStore
	Audit  AuditRecorder
	Logger *slog.Logger
}

func NewProductAPI(store ProductStore, audit AuditRecorder, logger *slog.Logger) *ProductAPI {
	return &ProductAPI{
		Store:  store,
		Audit:  audit,
		Logger: logger,
	}
}

func (api *ProductAPI) List(w http.ResponseWriter, r *http.Request) {
	filter := commerce.ProductFilter{
		Status:   commerce.ProductStatus(r.URL.Query().Get("status")),
		Category: r.URL.Query().Get("category"),
		Limit:    queryInt(r, "limit", 50),
		Offset:   queryInt(r, "offset", 0),
	}

	products, err := api.Store.List(r.Context(), filter)
	if err != nil {
		api.Logger.Error("failed to list products", "err", err)
		response.WriteJSONError(w, http.StatusInternalServerError, "storage failed")
		return
	}
	writeJSON(w, http.StatusOK, products)
}

func (api *ProductAPI) Get(w http.ResponseWriter, r *http.Request) {
	product, err := api.Store.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		if errors.Is(err, fsstore.ErrNotFound) {
			response.WriteJSONError(w, http.StatusNotFound, "product not found")
			return
		}
		api.Logger.Error("failed to get product", "err", err)
		response.WriteJSONError(w, http.StatusInternalServerError, "storage failed")
		return
	}
	writeJSON(w, http.StatusOK, product)
}

func (api *ProductAPI) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := middleware.GetUserHandleFromContext(ctx)
	if !ok {
		response.WriteJSONError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var product commerce.Product
	if err := json.NewDecoder(r.Body).Decode(&product); err != nil {
		response.WriteJSONError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if product.Name == "" || product.SKU == "" {
		api.Logger.Warn("Create: Validation failed", "reason", "missing name or sku")
		response.WriteJSONError(w, http.StatusBadRequest, "name and sku are required")
		return
	}
	if product.Status == "" {
		product.Status = commerce.ProductDraft
	}

	id, err := api.Store.Create(ctx, product)
	if err != nil {
		api.Logger.Error("failed to create product", "err", err)
		response.WriteJSONError(w, http.StatusInternalServerError, "storage failed")
		return
	}
	api.Audit.Record(ctx, "product.create", userID, "product", id, map[string]string{"sku": product.SKU})

	product.ID = id
	writeJSON(w, http.StatusCreated, product)
}

func (api *ProductAPI) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := middleware.GetUserHandleFromContext(ctx)
	if !ok {
		response.WriteJSONError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	productID := r.PathValue("id")

	var product commerce.Product
	if err := json.NewDecoder(r.Body).Decode(&product); err != nil {
		response.WriteJSONError(w, http.StatusBadRequest, "invalid json")
		return
	}

	if err := api.Store.Update(ctx, productID, product); err != nil {
		if errors.Is(err, fsstore.ErrNotFound) {
			response.WriteJSONError(w, http.StatusNotFound, "product not found")
			return
		}
		api.Logger.Error("failed to update product", "product_id", productID, "err", err)
		response.WriteJSONError(w, http.StatusInternalServerError, "storage failed")
		return
	}
	api.Audit.Record(ctx, "product.update", userID, "product", productID, nil)

	w.WriteHeader(http.StatusNoContent)
}

func (api *ProductAPI) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := middleware.GetUserHandleFromContext(ctx)
	if !ok {
		response.WriteJSONError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	productID := r.PathValue("id")

	if err := api.Store.Delete(ctx, productID); err != nil {
		api.Logger.Error("failed to delete product", "product_id", productID, "err", err)
		response.WriteJSONError(w, http.StatusInternalServerError, "storage failed")
		return
	}
	api.Audit.Record(ctx, "product.delete", userID, "product", productID, nil)

	w.WriteHeader(http.StatusNoContent)
}

type UpdateInventoryRequest struct {
	Quantity int `json:"quantity"`
}

func (api *ProductAPI) UpdateInventory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := middleware.GetUserHandleFromContext(ctx)
	if !ok {
		response.WriteJSONError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	productID := r.PathValue("id")

	var req UpdateInventoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.WriteJSONError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.Quantity < 0 {
		response.WriteJSONError(w, http.StatusBadRequest, "quantity must be non-negative")
		return
	}

	if err := api.Store.UpdateInventory(ctx, productID, req.Quantity); err != nil {
		if errors.Is(err, fsstore.ErrNotFound) {
			response.WriteJSONError(w, http.StatusNotFound, "product not found")
			return
		}
		api.Logger.Error("failed to update inventory", "product_id", productID, "err", err)
		response.WriteJSONError(w, http.StatusInternalServerError, "storage failed")
		return
	}
	api.Audit.Record(ctx, "product.update_inventory", userID, "product", productID, map[string]string{
		"quantity": strconv.Itoa(req.Quantity),
	})

	w.WriteHeader(http.StatusNoContent)
}
