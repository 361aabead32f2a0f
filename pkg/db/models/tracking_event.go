package models

import (
	"time"

	"github.com/google/uuid"
)

// TrackingEvent is one row of an order's append-only tracking log.
type TrackingEvent struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID   uuid.UUID `gorm:"column:order_id;type:uuid;not null;index"`
	Status    string    `gorm:"column:status;not null"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}
