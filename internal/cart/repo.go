package cart

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/skybazaar/skybazaar-backend/pkg/db/models"
)

// Repository manages persistence for cart records and their items. Each user
// owns at most one cart record.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindByUserID(ctx context.Context, userID uuid.UUID) (*models.CartRecord, error)
	GetOrCreate(ctx context.Context, userID uuid.UUID) (*models.CartRecord, error)
	FindItem(ctx context.Context, cartID, productID uuid.UUID) (*models.CartItem, error)
	CreateItem(ctx context.Context, item *models.CartItem) error
	UpdateItemQuantity(ctx context.Context, itemID uuid.UUID, quantity int) error
	DeleteItem(ctx context.Context, itemID uuid.UUID) error
	DeleteByUserID(ctx context.Context, userID uuid.UUID) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a cart repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindByUserID(ctx context.Context, userID uuid.UUID) (*models.CartRecord, error) {
	var record models.CartRecord
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("user_id = ?", userID).
		First(&record).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *repository) GetOrCreate(ctx context.Context, userID uuid.UUID) (*models.CartRecord, error) {
	record, err := r.FindByUserID(ctx, userID)
	if err == nil {
		return record, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	fresh := &models.CartRecord{ID: uuid.New(), UserID: userID}
	if err := r.db.WithContext(ctx).Create(fresh).Error; err != nil {
		return nil, err
	}
	return fresh, nil
}

func (r *repository) FindItem(ctx context.Context, cartID, productID uuid.UUID) (*models.CartItem, error) {
	var item models.CartItem
	err := r.db.WithContext(ctx).
		Where("cart_id = ? AND product_id = ?", cartID, productID).
		First(&item).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *repository) CreateItem(ctx context.Context, item *models.CartItem) error {
	return r.db.WithContext(ctx).Create(item).Error
}

func (r *repository) UpdateItemQuantity(ctx context.Context, itemID uuid.UUID, quantity int) error {
	res := r.db.WithContext(ctx).
		Model(&models.CartItem{}).
		Where("id = ?", itemID).
		Update("quantity", quantity)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *repository) DeleteItem(ctx context.Context, itemID uuid.UUID) error {
	res := r.db.WithContext(ctx).
		Where("id = ?", itemID).
		Delete(&models.CartItem{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// DeleteByUserID removes the user's cart record and, via cascade, its items.
// Deleting a missing cart is a no-op.
func (r *repository) DeleteByUserID(ctx context.Context, userID uuid.UUID) error {
	record, err := r.FindByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	}

	// sqlite used in tests does not always enforce cascades, delete children first
	if err := r.db.WithContext(ctx).
		Where("cart_id = ?", record.ID).
		Delete(&models.CartItem{}).Error; err != nil {
		return err
	}
	return r.db.WithContext(ctx).
		Where("id = ?", record.ID).
		Delete(&models.CartRecord{}).Error
}
