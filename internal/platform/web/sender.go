// Package web delivers notifications over the standards-based Web Push
// protocol using VAPID keys.
package web

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/tinywideclouds/go-commerce-admin/adminservice/config"
	"github.com/tinywideclouds/go-commerce-admin/pkg/notify"
)

type Sender struct {
	subscriber string
	privateKey string
	publicKey  string
	logger     *slog.Logger
	httpClient *http.Client
}

func NewSender(cfg config.VapidConfig, logger *slog.Logger) *Sender {
	return &Sender{
		privateKey: cfg.PrivateKey,
		publicKey:  cfg.PublicKey,
		subscriber: cfg.SubscriberEmail,
		logger:     logger.With("component", "WebPushSender"),
		httpClient: &http.Client{},
	}
}

// Send pushes one payload to one browser subscription. A 404/410 from the push
// service means the endpoint is gone for good and is reported as
// ReasonInvalidToken for cleanup.
func (s *Sender) Send(ctx context.Context, sub notify.Subscription, p notify.Payload) (string, error) {
	payloadBytes, err := json.Marshal(map[string]interface{}{
		"notification": map[string]string{
			"title": p.Title,
			"body":  p.Body,
			"icon":  p.Icon,
		},
		"data": p.Data,
	})
	if err != nil {
		return "", &notify.SendError{
			Reason: notify.ReasonProviderError,
			Err:    fmt.Errorf("failed to marshal payload: %w", err),
		}
	}

	resp, err := webpush.SendNotificationWithContext(ctx, payloadBytes, &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.Keys.P256dh,
			Auth:   sub.Keys.Auth,
		},
	}, &webpush.Options{
		Subscriber:      s.subscriber,
		VAPIDPublicKey:  s.publicKey,
		VAPIDPrivateKey: s.privateKey,
		TTL:             60,
		HTTPClient:      s.httpClient,
	})
	if err != nil {
		// Transport error (DNS, timeout). The endpoint may be fine.
		return "", &notify.SendError{
			Reason: notify.ReasonProviderError,
			Err:    fmt.Errorf("webpush transport failed: %w", err),
		}
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusCreated:
		return resp.Header.Get("Location"), nil
	case http.StatusGone, http.StatusNotFound:
		return "", &notify.SendError{
			Reason: notify.ReasonInvalidToken,
			Err:    fmt.Errorf("push service reports endpoint gone (status %d)", resp.StatusCode),
		}
	default:
		s.logger.Warn("Push service rejected notification.", "status", resp.StatusCode, "endpoint", sub.Endpoint)
		return "", &notify.SendError{
			Reason: notify.ReasonProviderError,
			Err:    fmt.Errorf("push service rejected notification (status %d)", resp.StatusCode),
		}
	}
}
