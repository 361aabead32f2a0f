package payments

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/skybazaar/skybazaar-backend/pkg/db/models"
	"github.com/skybazaar/skybazaar-backend/pkg/enums"
)

// Repository manages persistence for payment transactions. Rows are only
// ever inserted after a gateway session exists, so a transaction without a
// session can never be observed.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, txn *models.PaymentTransaction) (*models.PaymentTransaction, error)
	FindBySessionID(ctx context.Context, sessionID string) (*models.PaymentTransaction, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status enums.PaymentStatus) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a payments repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, txn *models.PaymentTransaction) (*models.PaymentTransaction, error) {
	if err := r.db.WithContext(ctx).Create(txn).Error; err != nil {
		return nil, err
	}
	return txn, nil
}

func (r *repository) FindBySessionID(ctx context.Context, sessionID string) (*models.PaymentTransaction, error) {
	var txn models.PaymentTransaction
	err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		First(&txn).Error
	if err != nil {
		return nil, err
	}
	return &txn, nil
}

func (r *repository) UpdateStatus(ctx context.Context, id uuid.UUID, status enums.PaymentStatus) error {
	res := r.db.WithContext(ctx).
		Model(&models.PaymentTransaction{}).
		Where("id = ?", id).
		Update("payment_status", status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
