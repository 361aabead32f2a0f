package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/skybazaar/skybazaar-backend/pkg/enums"
	"github.com/skybazaar/skybazaar-backend/pkg/types"
)

// Order snapshots a priced checkout. The money fields are immutable once
// written; only PaymentStatus, OrderStatus, and the tracking log change
// afterwards. Orders are never deleted.
type Order struct {
	ID                    uuid.UUID              `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID                uuid.UUID              `gorm:"column:user_id;type:uuid;not null;index"`
	SubtotalCents         int                    `gorm:"column:subtotal_cents;not null"`
	ShippingFeeCents      int                    `gorm:"column:shipping_fee_cents;not null;default:0"`
	LoyaltyPointsUsed     int                    `gorm:"column:loyalty_points_used;not null;default:0"`
	WalletAmountUsedCents int                    `gorm:"column:wallet_amount_used_cents;not null;default:0"`
	TotalCents            int                    `gorm:"column:total_cents;not null"`
	LoyaltyPointsEarned   int                    `gorm:"column:loyalty_points_earned;not null;default:0"`
	Currency              string                 `gorm:"column:currency;not null;default:'usd'"`
	DeliveryType          enums.DeliveryType     `gorm:"column:delivery_type;not null"`
	DeliveryDetails       *types.DeliveryDetails `gorm:"column:delivery_details;type:jsonb"`
	PaymentStatus         enums.PaymentStatus    `gorm:"column:payment_status;not null;default:'pending'"`
	OrderStatus           enums.OrderStatus      `gorm:"column:order_status;not null;default:'pending'"`
	Items                 []OrderLineItem        `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	TrackingEvents        []TrackingEvent        `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt             time.Time              `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt             time.Time              `gorm:"column:updated_at;autoUpdateTime"`
}
