package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"log/slog"

	"github.com/tinywideclouds/go-microservice-base/pkg/middleware"
	"github.com/tinywideclouds/go-microservice-base/pkg/response"
	urn "github.com/tinywideclouds/go-platform/pkg/net/v1"

	"github.com/tinywideclouds/go-commerce-admin/pkg/notify"
)

// AuditRecorder appends admin actions to the audit trail. Implementations are
// best-effort and never fail the request.
type AuditRecorder interface {
	Record(ctx context.Context, action, actorID, targetKind, targetID string, details map[string]string)
}

type SubscriptionAPI struct {
	Store  notify.SubscriptionStore
	Audit  AuditRecorder
	Logger *slog.Logger
}

func NewSubscriptionAPI(store notify.SubscriptionStore, audit AuditRecorder, logger *slog.Logger) *SubscriptionAPI {
	return &SubscriptionAPI{
		Store:  store,
		Audit:  audit,
		Logger: logger,
	}
}

// RegisterRequest carries either a provider token (mobile) or a full
// endpoint+keys pair (browser). Channel is optional; it is derived from the
// credential shape when absent.
type RegisterRequest struct {
	Channel  string `json:"channel,omitempty"`
	Token    string `json:"token,omitempty"`
	Endpoint string `json:"endpoint,omitempty"`
	Keys     struct {
		P256dh string `json:"p256dh"`
		Auth   string `json:"auth"`
	} `json:"keys"`
}

func (api *SubscriptionAPI) Register(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := middleware.GetUserHandleFromContext(ctx)
	if !ok {
		response.WriteJSONError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	userURN, _ := urn.Parse(userID)

	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.WriteJSONError(w, http.StatusBadRequest, "invalid json")
		return
	}

	hasToken := req.Token != ""
	hasWeb := req.Endpoint != "" && req.Keys.P256dh != "" && req.Keys.Auth != ""
	if !hasToken && !hasWeb {
		api.Logger.Warn("Register: Validation failed", "reason", "missing credential")
		response.WriteJSONError(w, http.StatusBadRequest, "token or endpoint+keys required")
		return
	}

	reg := notify.Registration{
		OwnerID:  userURN,
		Channel:  notify.Channel(req.Channel),
		Token:    req.Token,
		Endpoint: req.Endpoint,
		Keys:     notify.WebPushKeys{P256dh: req.Keys.P256dh, Auth: req.Keys.Auth},
	}

	sub, err := api.Store.Create(ctx, reg)
	if err != nil {
		if errors.Is(err, notify.ErrInvalidArgument) {
			response.WriteJSONError(w, http.StatusBadRequest, "invalid registration")
			return
		}
		api.Logger.Error("failed to register subscription", "err", err)
		response.WriteJSONError(w, http.StatusInternalServerError, "storage failed")
		return
	}
	api.Logger.Info("Register: Subscription registered", "user", userURN, "channel", sub.Channel)
	api.Audit.Record(ctx, "subscription.register", userID, "subscription", sub.ID, map[string]string{
		"channel": string(sub.Channel),
	})

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(sub)
}

// UnregisterRequest identifies the registrations to drop. Credential is a
// token for mobile channels or an endpoint URL for web push; when empty every
// registration on the channel is removed.
type UnregisterRequest struct {
	Channel  string `json:"channel"`
	Token    string `json:"token,omitempty"`
	Endpoint string `json:"endpoint,omitempty"`
}

func (api *SubscriptionAPI) Unregister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := middleware.GetUserHandleFromContext(ctx)
	if !ok {
		response.WriteJSONError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	userURN, _ := urn.Parse(userID)

	var req UnregisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.WriteJSONError(w, http.StatusBadRequest, "invalid json")
		return
	}

	channel := notify.Channel(req.Channel)
	if channel != notify.ChannelPushToken && channel != notify.ChannelWebPush {
		api.Logger.Warn("Unregister: Validation failed", "reason", "unknown channel", "channel", req.Channel)
		response.WriteJSONError(w, http.StatusBadRequest, "unknown channel")
		return
	}

	credential := req.Token
	if channel == notify.ChannelWebPush {
		credential = req.Endpoint
	}

	if err := api.Store.DeleteByOwnerAndChannel(ctx, userURN, channel, credential); err != nil {
		api.Logger.Warn("failed to unregister subscription", "err", err)
		response.WriteJSONError(w, http.StatusInternalServerError, "failed to unregister")
		return
	}
	api.Logger.Info("Unregister: Subscription removed", "user", userURN, "channel", channel)
	api.Audit.Record(ctx, "subscription.unregister", userID, "subscription", "", map[string]string{
		"channel": string(channel),
	})

	w.WriteHeader(http.StatusNoContent)
}
