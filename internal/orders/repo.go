package orders

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/skybazaar/skybazaar-backend/pkg/db/models"
	"github.com/skybazaar/skybazaar-backend/pkg/enums"
)

// Filters describe the inputs supported by the order list.
type Filters struct {
	PaymentStatus *enums.PaymentStatus
	OrderStatus   *enums.OrderStatus
	Limit         int
	Offset        int
}

// Repository defines persistence operations for orders and their children.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, order *models.Order) (*models.Order, error)
	CreateLineItems(ctx context.Context, items []models.OrderLineItem) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	FindByIDAndUser(ctx context.Context, id, userID uuid.UUID) (*models.Order, error)
	ListByUser(ctx context.Context, userID uuid.UUID, filters Filters) ([]models.Order, error)
	MarkPaidIfNotAlready(ctx context.Context, id uuid.UUID) (bool, error)
	MarkFailedIfNotPaid(ctx context.Context, id uuid.UUID) (bool, error)
	UpdateOrderStatus(ctx context.Context, id uuid.UUID, status enums.OrderStatus) error
	AppendTrackingEvent(ctx context.Context, event *models.TrackingEvent) error
	ListTrackingEvents(ctx context.Context, orderID uuid.UUID) ([]models.TrackingEvent, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds an orders repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, order *models.Order) (*models.Order, error) {
	if err := r.db.WithContext(ctx).Omit("Items", "TrackingEvents").Create(order).Error; err != nil {
		return nil, err
	}
	return order, nil
}

func (r *repository) CreateLineItems(ctx context.Context, items []models.OrderLineItem) error {
	if len(items) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&items).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Preload("TrackingEvents", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		Where("id = ?", id).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) FindByIDAndUser(ctx context.Context, id, userID uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Preload("TrackingEvents", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		Where("id = ? AND user_id = ?", id, userID).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) ListByUser(ctx context.Context, userID uuid.UUID, filters Filters) ([]models.Order, error) {
	q := r.db.WithContext(ctx).
		Preload("Items").
		Where("user_id = ?", userID)

	if filters.PaymentStatus != nil {
		q = q.Where("payment_status = ?", *filters.PaymentStatus)
	}
	if filters.OrderStatus != nil {
		q = q.Where("order_status = ?", *filters.OrderStatus)
	}

	limit := filters.Limit
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	var orders []models.Order
	err := q.Order("created_at DESC").
		Limit(limit).
		Offset(filters.Offset).
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}

// MarkPaidIfNotAlready flips the order to paid/confirmed only when it is not
// already paid. Returns false when the guard rejected the update, which is
// how repeat confirmations are detected.
func (r *repository) MarkPaidIfNotAlready(ctx context.Context, id uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND payment_status <> ?", id, enums.PaymentStatusPaid).
		Updates(map[string]any{
			"payment_status": enums.PaymentStatusPaid,
			"order_status":   enums.OrderStatusConfirmed,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// MarkFailedIfNotPaid records a failed payment without ever downgrading an
// order that already reached paid.
func (r *repository) MarkFailedIfNotPaid(ctx context.Context, id uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND payment_status <> ?", id, enums.PaymentStatusPaid).
		Update("payment_status", enums.PaymentStatusFailed)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repository) UpdateOrderStatus(ctx context.Context, id uuid.UUID, status enums.OrderStatus) error {
	res := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", id).
		Update("order_status", status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *repository) AppendTrackingEvent(ctx context.Context, event *models.TrackingEvent) error {
	return r.db.WithContext(ctx).Create(event).Error
}

func (r *repository) ListTrackingEvents(ctx context.Context, orderID uuid.UUID) ([]models.TrackingEvent, error) {
	var events []models.TrackingEvent
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at ASC").
		Find(&events).Error
	if err != nil {
		return nil, err
	}
	return events, nil
}
