package stripewebhook

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v84"

	"github.com/skybazaar/skybazaar-backend/internal/payments"
	"github.com/skybazaar/skybazaar-backend/pkg/enums"
	"github.com/skybazaar/skybazaar-backend/pkg/logger"
)

type stubReconciler struct {
	calls    []appliedCall
	applyErr error
}

type appliedCall struct {
	sessionID string
	status    enums.PaymentStatus
}

func (s *stubReconciler) ApplyStatus(_ context.Context, sessionID string, status enums.PaymentStatus) (*payments.Result, error) {
	s.calls = append(s.calls, appliedCall{sessionID: sessionID, status: status})
	if s.applyErr != nil {
		return nil, s.applyErr
	}
	return &payments.Result{SessionID: sessionID, PaymentStatus: status, Applied: true}, nil
}

func newWebhookService(t *testing.T, rec payments.Reconciler) *Service {
	t.Helper()

	svc, err := NewService(ServiceParams{
		Reconciler: rec,
		Logger:     logger.New(logger.Options{ServiceName: "webhook-test"}),
	})
	require.NoError(t, err)
	return svc
}

func sessionEvent(t *testing.T, eventType stripe.EventType, sessionID string, paymentStatus stripe.CheckoutSessionPaymentStatus) *stripe.Event {
	t.Helper()

	raw, err := json.Marshal(map[string]any{
		"id":             sessionID,
		"payment_status": string(paymentStatus),
	})
	require.NoError(t, err)

	return &stripe.Event{
		ID:   "evt_" + sessionID,
		Type: eventType,
		Data: &stripe.EventData{Raw: raw},
	}
}

func TestHandleEventCompletedPaidSessionReconciles(t *testing.T) {
	rec := &stubReconciler{}
	svc := newWebhookService(t, rec)

	event := sessionEvent(t, stripe.EventTypeCheckoutSessionCompleted, "cs_test_1", stripe.CheckoutSessionPaymentStatusPaid)
	require.NoError(t, svc.HandleEvent(context.Background(), event))

	require.Len(t, rec.calls, 1)
	assert.Equal(t, "cs_test_1", rec.calls[0].sessionID)
	assert.Equal(t, enums.PaymentStatusPaid, rec.calls[0].status)
}

func TestHandleEventCompletedUnpaidSessionWaits(t *testing.T) {
	rec := &stubReconciler{}
	svc := newWebhookService(t, rec)

	event := sessionEvent(t, stripe.EventTypeCheckoutSessionCompleted, "cs_test_2", stripe.CheckoutSessionPaymentStatusUnpaid)
	require.NoError(t, svc.HandleEvent(context.Background(), event))

	assert.Empty(t, rec.calls)
}

func TestHandleEventExpiredSessionFails(t *testing.T) {
	rec := &stubReconciler{}
	svc := newWebhookService(t, rec)

	event := sessionEvent(t, stripe.EventTypeCheckoutSessionExpired, "cs_test_3", stripe.CheckoutSessionPaymentStatusUnpaid)
	require.NoError(t, svc.HandleEvent(context.Background(), event))

	require.Len(t, rec.calls, 1)
	assert.Equal(t, enums.PaymentStatusFailed, rec.calls[0].status)
}

func TestHandleEventIgnoresUnknownTypes(t *testing.T) {
	rec := &stubReconciler{}
	svc := newWebhookService(t, rec)

	event := sessionEvent(t, stripe.EventTypeInvoicePaid, "cs_test_4", stripe.CheckoutSessionPaymentStatusPaid)
	require.NoError(t, svc.HandleEvent(context.Background(), event))

	assert.Empty(t, rec.calls)
}

func TestHandleEventNilEventRejected(t *testing.T) {
	svc := newWebhookService(t, &stubReconciler{})

	err := svc.HandleEvent(context.Background(), nil)
	require.Error(t, err)
}

type fakeIdempotencyStore struct {
	keys map[string]string
}

func (f *fakeIdempotencyStore) Get(_ context.Context, key string) (string, error) {
	return f.keys[key], nil
}

func (f *fakeIdempotencyStore) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	if f.keys == nil {
		f.keys = map[string]string{}
	}
	if _, exists := f.keys[key]; exists {
		return false, nil
	}
	f.keys[key] = "1"
	return true, nil
}

func (f *fakeIdempotencyStore) IdempotencyKey(scope, id string) string {
	return "sb:idempotency:" + scope + ":" + id
}

func (f *fakeIdempotencyStore) Del(_ context.Context, keys ...string) error {
	for _, key := range keys {
		delete(f.keys, key)
	}
	return nil
}

func TestIdempotencyGuardMarksOnce(t *testing.T) {
	guard, err := NewIdempotencyGuard(&fakeIdempotencyStore{}, time.Hour, "stripe-webhook")
	require.NoError(t, err)
	ctx := context.Background()

	seen, err := guard.CheckAndMark(ctx, "evt_1")
	require.NoError(t, err)
	assert.False(t, seen)

	seen, err = guard.CheckAndMark(ctx, "evt_1")
	require.NoError(t, err)
	assert.True(t, seen)
}

func TestIdempotencyGuardDeleteAllowsRetry(t *testing.T) {
	guard, err := NewIdempotencyGuard(&fakeIdempotencyStore{}, time.Hour, "stripe-webhook")
	require.NoError(t, err)
	ctx := context.Background()

	_, err = guard.CheckAndMark(ctx, "evt_2")
	require.NoError(t, err)
	require.NoError(t, guard.Delete(ctx, "evt_2"))

	seen, err := guard.CheckAndMark(ctx, "evt_2")
	require.NoError(t, err)
	assert.False(t, seen)
}
