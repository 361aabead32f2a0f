package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/skybazaar/skybazaar-backend/api/middleware"
	"github.com/skybazaar/skybazaar-backend/api/responses"
	"github.com/skybazaar/skybazaar-backend/api/validators"
	checkoutsvc "github.com/skybazaar/skybazaar-backend/internal/checkout"
	"github.com/skybazaar/skybazaar-backend/pkg/enums"
	pkgerrors "github.com/skybazaar/skybazaar-backend/pkg/errors"
	"github.com/skybazaar/skybazaar-backend/pkg/logger"
	"github.com/skybazaar/skybazaar-backend/pkg/types"
)

type calculateCheckoutRequest struct {
	DeliveryType  string `json:"delivery_type" validate:"required,oneof=home airport"`
	LoyaltyPoints int    `json:"loyalty_points" validate:"min=0"`
	WalletCents   int    `json:"wallet_cents" validate:"min=0"`
}

type createPaymentRequest struct {
	calculateCheckoutRequest
	DeliveryDetails *types.DeliveryDetails `json:"delivery_details" validate:"required"`
}

func (r calculateCheckoutRequest) toInput() (checkoutsvc.CalculateInput, error) {
	deliveryType, err := enums.ParseDeliveryType(r.DeliveryType)
	if err != nil {
		return checkoutsvc.CalculateInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid delivery type")
	}
	return checkoutsvc.CalculateInput{
		DeliveryType:           deliveryType,
		LoyaltyPointsRequested: r.LoyaltyPoints,
		WalletCentsRequested:   r.WalletCents,
	}, nil
}

// CheckoutCalculate prices the caller's cart without writing anything.
func CheckoutCalculate(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		userID := middleware.UserUUIDFromContext(r.Context())
		if userID == uuid.Nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
			return
		}

		var payload calculateCheckoutRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := payload.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		quote, err := svc.Calculate(r.Context(), userID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, quote)
	}
}

// CheckoutCreatePayment creates the order and opens a hosted payment session.
func CheckoutCreatePayment(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		userID := middleware.UserUUIDFromContext(r.Context())
		if userID == uuid.Nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
			return
		}

		var payload createPaymentRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := payload.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		redirect, err := svc.CreatePayment(r.Context(), userID, checkoutsvc.CreatePaymentInput{
			CalculateInput:  input,
			DeliveryDetails: payload.DeliveryDetails,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, redirect)
	}
}

// CheckoutStatus polls the gateway for a session's outcome and reconciles it.
func CheckoutStatus(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		userID := middleware.UserUUIDFromContext(r.Context())
		if userID == uuid.Nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
			return
		}

		sessionID := chi.URLParam(r, "sessionID")
		if sessionID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "session id is required"))
			return
		}

		result, err := svc.Status(r.Context(), userID, sessionID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}
