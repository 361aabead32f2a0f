package catalog

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/skybazaar/skybazaar-backend/pkg/db/models"
)

// Filters describe the inputs supported by the product list.
type Filters struct {
	Category string
	DutyFree *bool
	Query    string
	InStock  bool
	Limit    int
	Offset   int
}

// Repository defines read access to the product catalog.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Product, error)
	List(ctx context.Context, filters Filters) ([]models.Product, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a catalog repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&product).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *repository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var products []models.Product
	err := r.db.WithContext(ctx).
		Where("id IN ?", ids).
		Find(&products).Error
	if err != nil {
		return nil, err
	}
	return products, nil
}

func (r *repository) List(ctx context.Context, filters Filters) ([]models.Product, error) {
	q := r.db.WithContext(ctx).Model(&models.Product{})

	if filters.Category != "" {
		q = q.Where("category = ?", filters.Category)
	}
	if filters.DutyFree != nil {
		q = q.Where("is_duty_free = ?", *filters.DutyFree)
	}
	if filters.Query != "" {
		q = q.Where("name LIKE ?", "%"+filters.Query+"%")
	}
	if filters.InStock {
		q = q.Where("stock > 0")
	}

	limit := filters.Limit
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	var products []models.Product
	err := q.Order("created_at DESC").
		Limit(limit).
		Offset(filters.Offset).
		Find(&products).Error
	if err != nil {
		return nil, err
	}
	return products, nil
}
