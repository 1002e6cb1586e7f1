package web_test

import (
	"context"
	"crypto/ecdh"
	"crypto/rand"
	"encoding/base64"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tinywideclouds/go-commerce-admin/adminservice/config"
	"github.com/tinywideclouds/go-commerce-admin/internal/platform/web"
	"github.com/tinywideclouds/go-commerce-admin/pkg/notify"
)

// browserKeys generates a real P-256 key pair so payload encryption succeeds
// and the request actually reaches the mock push server.
func browserKeys(t *testing.T) notify.WebPushKeys {
	t.Helper()
	priv, err := ecdh.P256().GenerateKey(rand.Reader)
	require.NoError(t, err)
	auth := make([]byte, 16)
	_, err = rand.Read(auth)
	require.NoError(t, err)
	return notify.WebPushKeys{
		P256dh: base64.RawURLEncoding.EncodeToString(priv.PublicKey().Bytes()),
		Auth:   base64.RawURLEncoding.EncodeToString(auth),
	}
}

func TestWebSend_Lifecycle(t *testing.T) {
	// 1. Mock Push Service (simulates the Google/Mozilla push server)
	mockServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NotEmpty(t, r.Header.Get("Authorization"))

		switch r.URL.Path {
		case "/success":
			w.Header().Set("Location", "https://push.example/receipts/1")
			w.WriteHeader(http.StatusCreated) // 201
		case "/expired":
			w.WriteHeader(http.StatusGone) // 410
		case "/error":
			w.WriteHeader(http.StatusInternalServerError) // 500
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer mockServer.Close()

	// 2. Real VAPID keys; the library signs the JWT locally before sending.
	vapidPrivate, vapidPublic, err := webpush.GenerateVAPIDKeys()
	require.NoError(t, err)

	sender := web.NewSender(config.VapidConfig{
		PrivateKey:      vapidPrivate,
		PublicKey:       vapidPublic,
		SubscriberEmail: "mailto:test-runner@tinywideclouds.com",
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))

	ctx := context.Background()
	payload := notify.Payload{Title: "New Order Received", Body: "Order #ORD-1 - ₹500"}
	keys := browserKeys(t)

	sub := func(path string) notify.Subscription {
		return notify.Subscription{
			ID:       "sub-" + path,
			Channel:  notify.ChannelWebPush,
			Endpoint: mockServer.URL + path,
			Keys:     keys,
		}
	}

	t.Run("201 returns receipt location", func(t *testing.T) {
		messageID, err := sender.Send(ctx, sub("/success"), payload)

		require.NoError(t, err)
		assert.Equal(t, "https://push.example/receipts/1", messageID)
	})

	t.Run("410 reports invalid token", func(t *testing.T) {
		_, err := sender.Send(ctx, sub("/expired"), payload)

		require.Error(t, err)
		assert.Equal(t, notify.ReasonInvalidToken, notify.ClassifyReason(err))
	})

	t.Run("404 reports invalid token", func(t *testing.T) {
		_, err := sender.Send(ctx, sub("/vanished"), payload)

		require.Error(t, err)
		assert.Equal(t, notify.ReasonInvalidToken, notify.ClassifyReason(err))
	})

	t.Run("500 reports provider error", func(t *testing.T) {
		_, err := sender.Send(ctx, sub("/error"), payload)

		require.Error(t, err)
		assert.Equal(t, notify.ReasonProviderError, notify.ClassifyReason(err))
	})

	t.Run("Cancelled context aborts the attempt", func(t *testing.T) {
		cancelled, cancel := context.WithCancel(ctx)
		cancel()

		_, err := sender.Send(cancelled, sub("/success"), payload)

		require.Error(t, err)
		assert.Equal(t, notify.ReasonProviderError, notify.ClassifyReason(err))
	})
}
