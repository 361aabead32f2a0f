package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/skybazaar/skybazaar-backend/pkg/enums"
	"github.com/skybazaar/skybazaar-backend/pkg/types"
)

// PaymentTransaction mirrors the gateway's view of one checkout attempt.
// Exactly one row per attempt, keyed externally by the gateway session id,
// linked to exactly one Order. Never deleted.
type PaymentTransaction struct {
	ID            uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID        uuid.UUID           `gorm:"column:user_id;type:uuid;not null;index"`
	OrderID       uuid.UUID           `gorm:"column:order_id;type:uuid;not null;index"`
	SessionID     string              `gorm:"column:session_id;not null;uniqueIndex"`
	AmountCents   int                 `gorm:"column:amount_cents;not null"`
	Currency      string              `gorm:"column:currency;not null;default:'usd'"`
	PaymentStatus enums.PaymentStatus `gorm:"column:payment_status;not null;default:'initiated'"`
	Metadata      *types.JSONMap      `gorm:"column:metadata;type:jsonb"`
	CreatedAt     time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
