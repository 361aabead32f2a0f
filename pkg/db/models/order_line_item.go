package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/skybazaar/skybazaar-backend/pkg/types"
)

// OrderLineItem is the product snapshot captured at order creation. Prices
// live here rather than on the product so later catalog edits cannot change
// an existing order.
type OrderLineItem struct {
	ID                uuid.UUID      `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID           uuid.UUID      `gorm:"column:order_id;type:uuid;not null;index"`
	ProductID         uuid.UUID      `gorm:"column:product_id;type:uuid;not null"`
	Name              string         `gorm:"column:name;not null"`
	SKU               string         `gorm:"column:sku;not null"`
	UnitPriceCents    int            `gorm:"column:unit_price_cents;not null"`
	Quantity          int            `gorm:"column:quantity;not null"`
	LoyaltyPointsEarn int            `gorm:"column:loyalty_points_earn;not null;default:0"`
	Variant           *types.JSONMap `gorm:"column:variant;type:jsonb"`
	CreatedAt         time.Time      `gorm:"column:created_at;autoCreateTime"`
}
