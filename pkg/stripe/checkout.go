package stripe

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/stripe/stripe-go/v84"
	"github.com/stripe/stripe-go/v84/checkout/session"

	"github.com/skybazaar/skybazaar-backend/pkg/enums"
	pkgerrors "github.com/skybazaar/skybazaar-backend/pkg/errors"
)

// CheckoutSessionInput describes one hosted payment page for an order total.
type CheckoutSessionInput struct {
	AmountCents int64
	Currency    string
	ProductName string
	SuccessURL  string
	CancelURL   string
	Metadata    map[string]string
}

// CheckoutSession is the subset of the gateway session this service consumes.
type CheckoutSession struct {
	SessionID        string
	URL              string
	Status           string
	PaymentStatus    string
	AmountTotalCents int64
	Currency         string
	Metadata         map[string]string
}

// CreateCheckoutSession opens a hosted payment session for a single order total.
func (c *Client) CreateCheckoutSession(ctx context.Context, input CheckoutSessionInput) (*CheckoutSession, error) {
	if input.AmountCents <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "session amount must be positive")
	}

	params := &stripe.CheckoutSessionParams{
		Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL: stripe.String(input.SuccessURL),
		CancelURL:  stripe.String(input.CancelURL),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:   stripe.String(input.Currency),
					UnitAmount: stripe.Int64(input.AmountCents),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(input.ProductName),
					},
				},
				Quantity: stripe.Int64(1),
			},
		},
	}
	params.Context = ctx
	for k, v := range input.Metadata {
		params.AddMetadata(k, v)
	}

	sess, err := session.New(params)
	if err != nil {
		c.logError(ctx, "create_checkout_session", err)
		return nil, c.mapStripeError(err, "create checkout session")
	}
	return fromStripeSession(sess), nil
}

// GetCheckoutStatus retrieves the gateway's current view of a session.
func (c *Client) GetCheckoutStatus(ctx context.Context, sessionID string) (*CheckoutSession, error) {
	if sessionID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "session id is required")
	}

	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx

	sess, err := session.Get(sessionID, params)
	if err != nil {
		c.logError(ctx, "get_checkout_status", err)
		return nil, c.mapStripeError(err, "get checkout status")
	}
	return fromStripeSession(sess), nil
}

// PaymentStatusOf collapses the gateway session state into the local enum:
// paid when the session settled, failed when it expired, initiated otherwise.
func (s *CheckoutSession) PaymentStatusOf() enums.PaymentStatus {
	if s == nil {
		return enums.PaymentStatusInitiated
	}
	if s.PaymentStatus == string(stripe.CheckoutSessionPaymentStatusPaid) {
		return enums.PaymentStatusPaid
	}
	if s.Status == string(stripe.CheckoutSessionStatusExpired) {
		return enums.PaymentStatusFailed
	}
	return enums.PaymentStatusInitiated
}

func fromStripeSession(sess *stripe.CheckoutSession) *CheckoutSession {
	if sess == nil {
		return nil
	}
	return &CheckoutSession{
		SessionID:        sess.ID,
		URL:              sess.URL,
		Status:           string(sess.Status),
		PaymentStatus:    string(sess.PaymentStatus),
		AmountTotalCents: sess.AmountTotal,
		Currency:         string(sess.Currency),
		Metadata:         sess.Metadata,
	}
}

func (c *Client) mapStripeError(err error, op string) error {
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) {
		code := domainCodeForStatus(stripeErr.HTTPStatusCode)
		return pkgerrors.Wrap(code, err, fmt.Sprintf("stripe %s failed", op))
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, fmt.Sprintf("stripe %s failed", op))
}

func domainCodeForStatus(status int) pkgerrors.Code {
	switch status {
	case http.StatusUnauthorized:
		return pkgerrors.CodeUnauthorized
	case http.StatusNotFound:
		return pkgerrors.CodeNotFound
	case http.StatusBadRequest:
		return pkgerrors.CodeValidation
	default:
		if status >= 400 && status < 500 {
			return pkgerrors.CodeValidation
		}
		return pkgerrors.CodeDependency
	}
}

func (c *Client) logError(ctx context.Context, op string, err error) {
	if c == nil || c.logger == nil {
		return
	}
	ctx = c.logger.WithField(ctx, "stripe_op", op)
	c.logger.Error(ctx, "stripe request failed", err)
}
