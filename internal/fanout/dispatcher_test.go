package fanout_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	urn "github.com/tinywideclouds/go-platform/pkg/net/v1"

	"github.com/tinywideclouds/go-commerce-admin/internal/fanout"
	"github.com/tinywideclouds/go-commerce-admin/pkg/notify"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// --- Mocks ---

type mockStore struct {
	mock.Mock
}

func (m *mockStore) Create(ctx context.Context, reg notify.Registration) (notify.Subscription, error) {
	args := m.Called(ctx, reg)
	return args.Get(0).(notify.Subscription), args.Error(1)
}
func (m *mockStore) ListAll(ctx context.Context) ([]notify.Subscription, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]notify.Subscription), args.Error(1)
}
func (m *mockStore) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}
func (m *mockStore) DeleteByOwnerAndChannel(ctx context.Context, owner urn.URN, channel notify.Channel, credential string) error {
	return m.Called(ctx, owner, channel, credential).Error(0)
}

// mockPushSender routes each token to a scripted result, safe for the
// dispatcher's concurrent attempts.
type mockPushSender struct {
	mu      sync.Mutex
	results map[string]error
	sent    []string
}

func (m *mockPushSender) Send(_ context.Context, token string, _ notify.Payload) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, token)
	if err, ok := m.results[token]; ok && err != nil {
		return "", err
	}
	return "msg-" + token, nil
}

func (m *mockPushSender) sentTokens() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.sent...)
}

func adminSub(id, token string) notify.Subscription {
	owner, _ := urn.Parse("urn:sm:user:admin-" + id)
	return notify.Subscription{ID: id, OwnerID: owner, Channel: notify.ChannelPushToken, Token: token}
}

func webSub(id, endpoint string) notify.Subscription {
	owner, _ := urn.Parse("urn:sm:user:admin-" + id)
	return notify.Subscription{
		ID: id, OwnerID: owner, Channel: notify.ChannelWebPush,
		Endpoint: endpoint,
		Keys:     notify.WebPushKeys{P256dh: "pk", Auth: "ak"},
	}
}

var orderEvent = notify.OrderEvent{
	OrderID:      "order-1",
	OrderNumber:  "ORD-1001",
	TotalAmount:  123456,
	CustomerName: "Asha",
}

// --- Tests ---

func TestDispatch_RejectsMissingOrderID(t *testing.T) {
	store := new(mockStore)
	d := fanout.NewDispatcher(store, &mockPushSender{}, nil, 0, newTestLogger())

	_, err := d.DispatchOrderNotification(context.Background(), notify.OrderEvent{})

	require.Error(t, err)
	assert.ErrorIs(t, err, notify.ErrInvalidArgument)
	// A malformed trigger must not touch storage.
	store.AssertNotCalled(t, "ListAll", mock.Anything)
}

func TestDispatch_EmptyStoreSucceedsVacuously(t *testing.T) {
	store := new(mockStore)
	store.On("ListAll", mock.Anything).Return([]notify.Subscription{}, nil)
	sender := &mockPushSender{}
	d := fanout.NewDispatcher(store, sender, nil, 0, newTestLogger())

	summary, err := d.DispatchOrderNotification(context.Background(), orderEvent)

	require.NoError(t, err)
	assert.Equal(t, notify.Summary{Success: true}, summary)
	assert.Empty(t, sender.sentTokens())
}

func TestDispatch_UnreadableStoreIsInternal(t *testing.T) {
	store := new(mockStore)
	store.On("ListAll", mock.Anything).Return(nil, errors.New("firestore down"))
	d := fanout.NewDispatcher(store, &mockPushSender{}, nil, 0, newTestLogger())

	_, err := d.DispatchOrderNotification(context.Background(), orderEvent)

	require.Error(t, err)
	assert.ErrorIs(t, err, notify.ErrInternal)
}

func TestDispatch_AllSuccess(t *testing.T) {
	store := new(mockStore)
	store.On("ListAll", mock.Anything).Return([]notify.Subscription{
		adminSub("s1", "tok-1"),
		adminSub("s2", "tok-2"),
		adminSub("s3", "tok-3"),
	}, nil)
	sender := &mockPushSender{}
	d := fanout.NewDispatcher(store, sender, nil, 0, newTestLogger())

	summary, err := d.DispatchOrderNotification(context.Background(), orderEvent)

	require.NoError(t, err)
	assert.True(t, summary.Success)
	assert.Equal(t, 3, summary.Sent)
	assert.Zero(t, summary.Failed)
	assert.ElementsMatch(t, []string{"tok-1", "tok-2", "tok-3"}, sender.sentTokens())
}

func TestDispatch_InvalidTokenIsPruned(t *testing.T) {
	store := new(mockStore)
	store.On("ListAll", mock.Anything).Return([]notify.Subscription{
		adminSub("good", "tok-good"),
		adminSub("dead", "tok-dead"),
	}, nil)
	store.On("Delete", mock.Anything, "dead").Return(nil)

	sender := &mockPushSender{results: map[string]error{
		"tok-dead": &notify.SendError{Reason: notify.ReasonInvalidToken, Err: errors.New("unregistered")},
	}}
	d := fanout.NewDispatcher(store, sender, nil, 0, newTestLogger())

	summary, err := d.DispatchOrderNotification(context.Background(), orderEvent)

	require.NoError(t, err)
	assert.True(t, summary.Success)
	assert.Equal(t, 1, summary.Sent)
	assert.Equal(t, 1, summary.Failed)
	assert.Equal(t, 1, summary.Pruned)
	store.AssertCalled(t, "Delete", mock.Anything, "dead")
	store.AssertNotCalled(t, "Delete", mock.Anything, "good")
}

func TestDispatch_PruneFailureIsSoft(t *testing.T) {
	store := new(mockStore)
	store.On("ListAll", mock.Anything).Return([]notify.Subscription{
		adminSub("dead", "tok-dead"),
	}, nil)
	store.On("Delete", mock.Anything, "dead").Return(errors.New("firestore hiccup"))

	sender := &mockPushSender{results: map[string]error{
		"tok-dead": &notify.SendError{Reason: notify.ReasonInvalidToken, Err: errors.New("unregistered")},
	}}
	d := fanout.NewDispatcher(store, sender, nil, 0, newTestLogger())

	summary, err := d.DispatchOrderNotification(context.Background(), orderEvent)

	// The failed delete never fails the invocation.
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Failed)
	assert.Zero(t, summary.Pruned)
	assert.Equal(t, 1, summary.PruneFailed)
}

func TestDispatch_TransientFailureIsNotPruned(t *testing.T) {
	store := new(mockStore)
	store.On("ListAll", mock.Anything).Return([]notify.Subscription{
		adminSub("flaky", "tok-flaky"),
		adminSub("good", "tok-good"),
	}, nil)

	sender := &mockPushSender{results: map[string]error{
		"tok-flaky": &notify.SendError{Reason: notify.ReasonProviderError, Err: errors.New("503")},
	}}
	d := fanout.NewDispatcher(store, sender, nil, 0, newTestLogger())

	summary, err := d.DispatchOrderNotification(context.Background(), orderEvent)

	require.NoError(t, err)
	// A completed batch reports success; the failure shows up in the counts.
	assert.True(t, summary.Success)
	assert.Equal(t, 1, summary.Sent)
	assert.Equal(t, 1, summary.Failed)
	assert.Zero(t, summary.Pruned)
	store.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestDispatch_WebPushWithoutSenderIsUnsupported(t *testing.T) {
	store := new(mockStore)
	store.On("ListAll", mock.Anything).Return([]notify.Subscription{
		webSub("w1", "https://push.example/abc"),
		adminSub("s1", "tok-1"),
	}, nil)
	sender := &mockPushSender{}

	// No web sender configured.
	d := fanout.NewDispatcher(store, sender, nil, 0, newTestLogger())

	summary, err := d.DispatchOrderNotification(context.Background(), orderEvent)

	require.NoError(t, err)
	assert.Equal(t, 1, summary.Sent)
	assert.Equal(t, 1, summary.Failed)
	// Unsupported channels are counted, never pruned.
	store.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestDispatch_UnknownChannelIsUnsupported(t *testing.T) {
	owner, _ := urn.Parse("urn:sm:user:admin-x")
	store := new(mockStore)
	store.On("ListAll", mock.Anything).Return([]notify.Subscription{
		{ID: "odd", OwnerID: owner, Channel: notify.Channel("carrier-pigeon"), Token: "t"},
	}, nil)
	d := fanout.NewDispatcher(store, &mockPushSender{}, nil, 0, newTestLogger())

	summary, err := d.DispatchOrderNotification(context.Background(), orderEvent)

	require.NoError(t, err)
	assert.Equal(t, notify.Summary{Success: true, Failed: 1}, summary)
}

func TestDispatch_FailuresDoNotBlockOtherDeliveries(t *testing.T) {
	subs := []notify.Subscription{
		adminSub("s1", "tok-1"),
		adminSub("s2", "tok-dead"),
		adminSub("s3", "tok-3"),
		adminSub("s4", "tok-flaky"),
		adminSub("s5", "tok-5"),
	}
	store := new(mockStore)
	store.On("ListAll", mock.Anything).Return(subs, nil)
	store.On("Delete", mock.Anything, "s2").Return(nil)

	sender := &mockPushSender{results: map[string]error{
		"tok-dead":  &notify.SendError{Reason: notify.ReasonInvalidToken, Err: errors.New("gone")},
		"tok-flaky": &notify.SendError{Reason: notify.ReasonProviderError, Err: errors.New("503")},
	}}
	d := fanout.NewDispatcher(store, sender, nil, time.Minute, newTestLogger())

	summary, err := d.DispatchOrderNotification(context.Background(), orderEvent)

	require.NoError(t, err)
	assert.Equal(t, 3, summary.Sent)
	assert.Equal(t, 2, summary.Failed)
	// Every subscription was attempted regardless of its neighbours.
	assert.Len(t, sender.sentTokens(), 5)
}

func TestBuildOrderPayload(t *testing.T) {
	t.Run("Full event", func(t *testing.T) {
		p := fanout.BuildOrderPayload(orderEvent)

		assert.Equal(t, "New Order Received", p.Title)
		assert.Equal(t, "Order #ORD-1001 - ₹1,23,456", p.Body)
		assert.Equal(t, "/orders/order-1", p.Data["url"])
		assert.Equal(t, "/orders/order-1", p.Data["click_action"])
		assert.Equal(t, "new_order", p.Data["type"])
		assert.Equal(t, "Asha", p.Data["customerName"])
	})

	t.Run("Fallbacks", func(t *testing.T) {
		p := fanout.BuildOrderPayload(notify.OrderEvent{OrderID: "order-9", TotalAmount: 50})

		assert.Contains(t, p.Body, "Order #order-9")
		assert.Equal(t, "Customer", p.Data["customerName"])
	})
}
