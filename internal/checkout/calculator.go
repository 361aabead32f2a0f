package checkout

import (
	"github.com/skybazaar/skybazaar-backend/pkg/enums"
)

// Shipping tiers in cents, keyed off the cart subtotal. Boundaries are
// strict: a subtotal exactly at a threshold falls into the next tier.
const (
	homeFreeShippingThresholdCents    = 20000
	homeReducedShippingThresholdCents = 10000
	homeStandardShippingCents         = 1000
	homeReducedShippingCents          = 500

	airportFreeShippingThresholdCents = 5000
	airportShippingCents              = 200

	// Loyalty points redeem at one cent per point, capped at this share of
	// the subtotal.
	loyaltyDiscountCapPercent = 20
)

// Quote is the priced breakdown of a checkout attempt. All fields are cents
// except LoyaltyPointsUsed, which is a point count (one point equals one
// cent of discount).
type Quote struct {
	SubtotalCents         int `json:"subtotal_cents"`
	ShippingFeeCents      int `json:"shipping_fee_cents"`
	LoyaltyPointsUsed     int `json:"loyalty_points_used"`
	LoyaltyDiscountCents  int `json:"loyalty_discount_cents"`
	WalletAmountUsedCents int `json:"wallet_amount_used_cents"`
	TotalCents            int `json:"total_cents"`
	LoyaltyPointsToEarn   int `json:"loyalty_points_to_earn"`
}

// QuoteInput carries everything the calculator needs. Balances are the
// user's current ledgers; requested values come from the client.
type QuoteInput struct {
	SubtotalCents          int
	DeliveryType           enums.DeliveryType
	LoyaltyPointsRequested int
	WalletCentsRequested   int
	LoyaltyPointsBalance   int
	WalletBalanceCents     int
	LoyaltyPointsToEarn    int
}

// ComputeQuote prices a checkout without touching any ledger. Discounts are
// applied in a fixed order: loyalty first, wallet against the remainder.
func ComputeQuote(input QuoteInput) Quote {
	subtotal := input.SubtotalCents

	shipping := shippingFeeCents(input.DeliveryType, subtotal)

	// Loyalty: redeem at most the requested points, bounded by the balance
	// and by the subtotal cap.
	loyaltyCap := subtotal * loyaltyDiscountCapPercent / 100
	loyaltyUsed := minInt(input.LoyaltyPointsRequested, input.LoyaltyPointsBalance, loyaltyCap)
	if loyaltyUsed < 0 {
		loyaltyUsed = 0
	}

	// Wallet: covers at most what loyalty left of the subtotal.
	walletCap := subtotal - loyaltyUsed
	walletUsed := minInt(input.WalletCentsRequested, input.WalletBalanceCents, walletCap)
	if walletUsed < 0 {
		walletUsed = 0
	}

	total := subtotal + shipping - loyaltyUsed - walletUsed
	if total < 0 {
		total = 0
	}

	return Quote{
		SubtotalCents:         subtotal,
		ShippingFeeCents:      shipping,
		LoyaltyPointsUsed:     loyaltyUsed,
		LoyaltyDiscountCents:  loyaltyUsed,
		WalletAmountUsedCents: walletUsed,
		TotalCents:            total,
		LoyaltyPointsToEarn:   input.LoyaltyPointsToEarn,
	}
}

func shippingFeeCents(deliveryType enums.DeliveryType, subtotalCents int) int {
	switch deliveryType {
	case enums.DeliveryTypeAirport:
		if subtotalCents < airportFreeShippingThresholdCents {
			return airportShippingCents
		}
		return 0

	default: // home delivery
		if subtotalCents < homeReducedShippingThresholdCents {
			return homeStandardShippingCents
		}
		if subtotalCents < homeFreeShippingThresholdCents {
			return homeReducedShippingCents
		}
		return 0
	}
}

func minInt(values ...int) int {
	m := values[0]
	for _, v := range values[1:] {
		if v < m {
			m = v
		}
	}
	return m
}
