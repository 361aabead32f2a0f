package users

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/skybazaar/skybazaar-backend/pkg/db/models"
)

// BalanceAdjustment is a signed delta applied to a user's credit ledgers in
// one statement. Positive values add, negative values deduct.
type BalanceAdjustment struct {
	LoyaltyPointsDelta int
	WalletCentsDelta   int
}

// Repository manages persistence for users and their credit ledgers.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, user *models.User) (*models.User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	AdjustBalances(ctx context.Context, userID uuid.UUID, adj BalanceAdjustment) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a users repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *repository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).
		Where("email = ?", email).
		First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// AdjustBalances applies both ledger deltas in a single UPDATE guarded against
// going negative. A zero RowsAffected means the guard failed (insufficient
// balance) or the user does not exist; callers decide which error applies.
func (r *repository) AdjustBalances(ctx context.Context, userID uuid.UUID, adj BalanceAdjustment) error {
	if adj.LoyaltyPointsDelta == 0 && adj.WalletCentsDelta == 0 {
		return nil
	}

	res := r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", userID).
		Where("loyalty_points + ? >= 0", adj.LoyaltyPointsDelta).
		Where("wallet_balance_cents + ? >= 0", adj.WalletCentsDelta).
		Updates(map[string]any{
			"loyalty_points":       gorm.Expr("loyalty_points + ?", adj.LoyaltyPointsDelta),
			"wallet_balance_cents": gorm.Expr("wallet_balance_cents + ?", adj.WalletCentsDelta),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
