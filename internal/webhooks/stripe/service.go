package stripewebhook

import (
	"context"
	"encoding/json"

	"github.com/stripe/stripe-go/v84"

	"github.com/skybazaar/skybazaar-backend/internal/payments"
	"github.com/skybazaar/skybazaar-backend/pkg/enums"
	pkgerrors "github.com/skybazaar/skybazaar-backend/pkg/errors"
	"github.com/skybazaar/skybazaar-backend/pkg/logger"
)

// ServiceParams wires the webhook service dependencies.
type ServiceParams struct {
	Reconciler payments.Reconciler
	Logger     *logger.Logger
}

// Service translates Stripe checkout session events into payment
// reconciliations. Everything idempotence-related lives in the reconciler;
// this layer only maps event types to statuses.
type Service struct {
	reconciler payments.Reconciler
	logg       *logger.Logger
}

// NewService builds the stripe webhook service.
func NewService(params ServiceParams) (*Service, error) {
	if params.Reconciler == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "reconciler required")
	}
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "logger required")
	}
	return &Service{reconciler: params.Reconciler, logg: params.Logger}, nil
}

// HandleEvent applies a checkout session event. Unknown event types are
// acknowledged without effect so the gateway does not retry them.
func (s *Service) HandleEvent(ctx context.Context, event *stripe.Event) error {
	if event == nil || event.Data == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "stripe event data required")
	}

	var status enums.PaymentStatus
	switch event.Type {
	case stripe.EventTypeCheckoutSessionCompleted,
		stripe.EventTypeCheckoutSessionAsyncPaymentSucceeded:
		status = enums.PaymentStatusPaid
	case stripe.EventTypeCheckoutSessionExpired,
		stripe.EventTypeCheckoutSessionAsyncPaymentFailed:
		status = enums.PaymentStatusFailed
	default:
		return nil
	}

	var session stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode checkout session event")
	}
	if session.ID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "session id missing from event")
	}

	// A completed session can still be unpaid (async payment methods); wait
	// for the async success event in that case.
	if event.Type == stripe.EventTypeCheckoutSessionCompleted &&
		session.PaymentStatus != stripe.CheckoutSessionPaymentStatusPaid {
		return nil
	}

	ctx = s.logg.WithSessionID(ctx, session.ID)
	result, err := s.reconciler.ApplyStatus(ctx, session.ID, status)
	if err != nil {
		return err
	}
	if !result.Applied {
		s.logg.Info(ctx, "webhook event replay, no effects applied")
	}
	return nil
}
