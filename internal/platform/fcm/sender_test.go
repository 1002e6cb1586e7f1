package fcm_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"firebase.google.com/go/v4/messaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/tinywideclouds/go-commerce-admin/internal/platform/fcm"
	"github.com/tinywideclouds/go-commerce-admin/pkg/notify"
)

// MockClient satisfies the MessagingClient interface
type MockClient struct {
	mock.Mock
}

func (m *MockClient) Send(ctx context.Context, msg *messaging.Message) (string, error) {
	args := m.Called(ctx, msg)
	return args.String(0), args.Error(1)
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestFCMSend_Lifecycle(t *testing.T) {
	logger := newTestLogger()
	ctx := context.Background()
	payload := notify.Payload{
		Title: "New Order Received",
		Body:  "Order #ORD-1001 - ₹1,23,456",
		Icon:  "/icon-192x192.png",
		Data:  map[string]string{"orderId": "order-1", "type": "new_order"},
	}

	t.Run("Happy Path - message shape", func(t *testing.T) {
		mockClient := new(MockClient)
		sender := fcm.NewSender(mockClient, logger)

		var captured *messaging.Message
		mockClient.On("Send", ctx, mock.Anything).
			Run(func(args mock.Arguments) {
				captured = args.Get(1).(*messaging.Message)
			}).
			Return("projects/p/messages/msg-1", nil)

		messageID, err := sender.Send(ctx, "token-1", payload)

		require.NoError(t, err)
		assert.Equal(t, "projects/p/messages/msg-1", messageID)

		require.NotNil(t, captured)
		assert.Equal(t, "token-1", captured.Token)
		assert.Equal(t, payload.Title, captured.Notification.Title)
		assert.Equal(t, payload.Body, captured.Notification.Body)
		assert.Equal(t, payload.Data, captured.Data)
		assert.Equal(t, "high", captured.Android.Priority)
		assert.Equal(t, "order_notifications", captured.Android.Notification.ChannelID)
		assert.Equal(t, "10", captured.APNS.Headers["apns-priority"])
		mockClient.AssertExpectations(t)
	})

	t.Run("Transport Failure (Retryable)", func(t *testing.T) {
		mockClient := new(MockClient)
		sender := fcm.NewSender(mockClient, logger)

		mockClient.On("Send", ctx, mock.Anything).Return("", errors.New("network down"))

		_, err := sender.Send(ctx, "token-1", payload)

		require.Error(t, err)
		assert.Equal(t, notify.ReasonProviderError, notify.ClassifyReason(err))
		assert.Contains(t, err.Error(), "transport failed")
	})

	// Note: We rely on the Integration Test to verify the specific parsing of
	// IsRegistrationTokenNotRegistered errors, as mocking the internal error types
	// of the Firebase SDK is brittle.
}
