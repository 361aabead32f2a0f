package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/skybazaar/skybazaar-backend/pkg/types"
)

// CartItem is one product line inside a CartRecord.
type CartItem struct {
	ID        uuid.UUID      `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CartID    uuid.UUID      `gorm:"column:cart_id;type:uuid;not null;index"`
	ProductID uuid.UUID      `gorm:"column:product_id;type:uuid;not null"`
	Quantity  int            `gorm:"column:quantity;not null"`
	Variant   *types.JSONMap `gorm:"column:variant;type:jsonb"`
	CreatedAt time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}
