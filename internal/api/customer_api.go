package api

import (
	"context"
	"errors"
	"net/http"

	"log/slog"

	"github.com/tinywideclouds/go-microservice-base/pkg/response"

	fsstore "github.com/tinywideclouds/go-commerce-admin/internal/storage/firestore"
	"github.com/tinywideclouds/go-commerce-admin/pkg/commerce"
)

// CustomerStore is the read-only customer surface the handlers need.
type CustomerStore interface {
	List(ctx context.Context, limit, offset int) ([]commerce.Customer, error)
	GetByID(ctx context.Context, id string) (commerce.Customer, error)
}

type CustomerAPI struct {
	Store  CustomerStore
	Logger *slog.Logger
}

func NewCustomerAPI(store CustomerStore, logger *slog.Logger) *CustomerAPI {
	return &CustomerAPI{
		Store:  store,
		Logger: logger,
	}
}

func (api *CustomerAPI) List(w http.ResponseWriter, r *http.Request) {
	customers, err := api.Store.List(r.Context(), queryInt(r, "limit", 50), queryInt(r, "offset", 0))
	if err != nil {
		api.Logger.Error("failed to list customers", "err", err)
		response.WriteJSONError(w, http.StatusInternalServerError, "storage failed")
		return
	}
	writeJSON(w, http.StatusOK, customers)
}

func (api *CustomerAPI) Get(w http.ResponseWriter, r *http.Request) {
	customer, err := api.Store.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		if errors.Is(err, fsstore.ErrNotFound) {
			response.WriteJSONError(w, http.StatusNotFound, "customer not found")
			return
		}
		api.Logger.Error("failed to get customer", "err", err)
		response.WriteJSONError(w, http.StatusInternalServerError, "storage failed")
		return
	}
	writeJSON(w, http.StatusOK, customer)
}
