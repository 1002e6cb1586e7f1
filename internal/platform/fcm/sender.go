// Package fcm delivers notifications through Firebase Cloud Messaging.
package fcm

import (
	"context"
	"fmt"
	"log/slog"

	"firebase.google.com/go/v4/messaging"
	"github.com/tinywideclouds/go-commerce-admin/pkg/notify"
)

// MessagingClient defines the subset of the Firebase Messaging API we use.
// This interface allows us to mock the client for unit testing.
type MessagingClient interface {
	Send(ctx context.Context, msg *messaging.Message) (string, error)
}

type Sender struct {
	client MessagingClient
	logger *slog.Logger
}

// NewSender accepts the concrete client but stores it as the interface.
// Note: *messaging.Client automatically satisfies this interface.
func NewSender(client MessagingClient, logger *slog.Logger) *Sender {
	return &Sender{
		client: client,
		logger: logger.With("component", "FCMSender"),
	}
}

// Send delivers one payload to one device token. Errors the provider marks as
// "the token is garbage" come back as ReasonInvalidToken so the caller can
// prune the registration; everything else is a provider error.
func (s *Sender) Send(ctx context.Context, token string, p notify.Payload) (string, error) {
	badge := 1
	msg := &messaging.Message{
		Token: token,
		Data:  p.Data,
		Notification: &messaging.Notification{
			Title: p.Title,
			Body:  p.Body,
		},
		Android: &messaging.AndroidConfig{
			Priority: "high",
			Notification: &messaging.AndroidNotification{
				Sound:     "default",
				ChannelID: "order_notifications",
			},
		},
		APNS: &messaging.APNSConfig{
			Headers: map[string]string{"apns-priority": "10"},
			Payload: &messaging.APNSPayload{
				Aps: &messaging.Aps{Sound: "default", Badge: &badge},
			},
		},
		Webpush: &messaging.WebpushConfig{
			Notification: &messaging.WebpushNotification{
				Title: p.Title,
				Body:  p.Body,
				Icon:  p.Icon,
			},
		},
	}

	messageID, err := s.client.Send(ctx, msg)
	if err != nil {
		if messaging.IsRegistrationTokenNotRegistered(err) || messaging.IsInvalidArgument(err) {
			return "", &notify.SendError{Reason: notify.ReasonInvalidToken, Err: err}
		}
		return "", &notify.SendError{
			Reason: notify.ReasonProviderError,
			Err:    fmt.Errorf("fcm transport failed: %w", err),
		}
	}
	return messageID, nil
}
