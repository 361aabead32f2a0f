package stripe

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	stripelib "github.com/stripe/stripe-go/v84"

	"github.com/skybazaar/skybazaar-backend/pkg/config"
	"github.com/skybazaar/skybazaar-backend/pkg/enums"
	pkgerrors "github.com/skybazaar/skybazaar-backend/pkg/errors"
)

func TestNewClientValidatesConfig(t *testing.T) {
	ctx := context.Background()

	_, err := NewClient(ctx, config.StripeConfig{APIKey: "", Secret: "whsec_x"}, nil)
	require.Error(t, err)

	_, err = NewClient(ctx, config.StripeConfig{APIKey: "sk_test_123", Secret: ""}, nil)
	require.Error(t, err)

	_, err = NewClient(ctx, config.StripeConfig{APIKey: "sk_live_123", Secret: "whsec_x", Env: "test"}, nil)
	require.Error(t, err, "live key must be rejected in test env")

	client, err := NewClient(ctx, config.StripeConfig{APIKey: "sk_test_123", Secret: "whsec_x"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "test", client.Environment())
	assert.Equal(t, "whsec_x", client.SigningSecret())
}

func TestNewClientRejectsUnknownEnv(t *testing.T) {
	_, err := NewClient(context.Background(), config.StripeConfig{APIKey: "sk_test_123", Secret: "whsec_x", Env: "staging"}, nil)
	require.Error(t, err)
}

func TestPaymentStatusOf(t *testing.T) {
	paid := &CheckoutSession{PaymentStatus: "paid", Status: "complete"}
	assert.Equal(t, enums.PaymentStatusPaid, paid.PaymentStatusOf())

	expired := &CheckoutSession{PaymentStatus: "unpaid", Status: "expired"}
	assert.Equal(t, enums.PaymentStatusFailed, expired.PaymentStatusOf())

	open := &CheckoutSession{PaymentStatus: "unpaid", Status: "open"}
	assert.Equal(t, enums.PaymentStatusInitiated, open.PaymentStatusOf())
}

func TestMapStripeErrorUsesHTTPStatus(t *testing.T) {
	client := &Client{}

	mapped := client.mapStripeError(&stripelib.Error{HTTPStatusCode: http.StatusServiceUnavailable}, "get checkout status")
	typed := pkgerrors.As(mapped)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeDependency, typed.Code())

	mapped = client.mapStripeError(&stripelib.Error{HTTPStatusCode: http.StatusNotFound}, "get checkout status")
	typed = pkgerrors.As(mapped)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())
}

func TestCreateCheckoutSessionRejectsNonPositiveAmount(t *testing.T) {
	client := &Client{}
	_, err := client.CreateCheckoutSession(context.Background(), CheckoutSessionInput{AmountCents: 0})
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
}
