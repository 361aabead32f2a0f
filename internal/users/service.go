package users

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/skybazaar/skybazaar-backend/pkg/enums"
	pkgerrors "github.com/skybazaar/skybazaar-backend/pkg/errors"
)

// WalletSummary exposes the user's store-credit balance in cents plus a
// display amount in major currency units.
type WalletSummary struct {
	BalanceCents int    `json:"balance_cents"`
	Balance      string `json:"balance"`
	Currency     string `json:"currency"`
}

// LoyaltySummary exposes the user's points balance and derived tier.
type LoyaltySummary struct {
	Points     int               `json:"points"`
	Tier       enums.LoyaltyTier `json:"tier"`
	ValueCents int               `json:"value_cents"`
	Value      string            `json:"value"`
}

// Service exposes user-facing reads over the credit ledgers.
type Service interface {
	Wallet(ctx context.Context, userID uuid.UUID) (*WalletSummary, error)
	Loyalty(ctx context.Context, userID uuid.UUID) (*LoyaltySummary, error)
	Profile(ctx context.Context, userID uuid.UUID) (*ProfileView, error)
}

// ProfileView is the authenticated user's own account view.
type ProfileView struct {
	ID            uuid.UUID         `json:"id"`
	Email         string            `json:"email"`
	FullName      string            `json:"full_name"`
	Phone         *string           `json:"phone,omitempty"`
	LoyaltyPoints int               `json:"loyalty_points"`
	LoyaltyTier   enums.LoyaltyTier `json:"loyalty_tier"`
	WalletCents   int               `json:"wallet_balance_cents"`
}

type service struct {
	repo     Repository
	currency string
}

// NewService builds a users service with the required dependencies.
func NewService(repo Repository, currency string) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("users repository required")
	}
	if currency == "" {
		currency = "usd"
	}
	return &service{repo: repo, currency: currency}, nil
}

func (s *service) Wallet(ctx context.Context, userID uuid.UUID) (*WalletSummary, error) {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading user")
	}

	return &WalletSummary{
		BalanceCents: user.WalletBalanceCents,
		Balance:      displayAmount(user.WalletBalanceCents),
		Currency:     s.currency,
	}, nil
}

func (s *service) Loyalty(ctx context.Context, userID uuid.UUID) (*LoyaltySummary, error) {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading user")
	}

	// One point redeems for one cent.
	return &LoyaltySummary{
		Points:     user.LoyaltyPoints,
		Tier:       enums.TierForPoints(user.LoyaltyPoints),
		ValueCents: user.LoyaltyPoints,
		Value:      displayAmount(user.LoyaltyPoints),
	}, nil
}

func (s *service) Profile(ctx context.Context, userID uuid.UUID) (*ProfileView, error) {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading user")
	}

	return &ProfileView{
		ID:            user.ID,
		Email:         user.Email,
		FullName:      user.FullName,
		Phone:         user.Phone,
		LoyaltyPoints: user.LoyaltyPoints,
		LoyaltyTier:   enums.TierForPoints(user.LoyaltyPoints),
		WalletCents:   user.WalletBalanceCents,
	}, nil
}

func displayAmount(cents int) string {
	return decimal.NewFromInt(int64(cents)).Shift(-2).StringFixed(2)
}
