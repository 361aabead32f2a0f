package models

import (
	"time"

	"github.com/google/uuid"
)

// User is the canonical identity entity plus its two credit ledgers.
// LoyaltyPoints and WalletBalanceCents are mutated only during payment
// reconciliation, never during checkout calculation.
type User struct {
	ID                 uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Email              string     `gorm:"column:email;type:text;not null;uniqueIndex"`
	PasswordHash       string     `gorm:"column:password_hash;not null"`
	FullName           string     `gorm:"column:full_name;not null"`
	Phone              *string    `gorm:"column:phone"`
	IsActive           bool       `gorm:"column:is_active;not null;default:true"`
	LoyaltyPoints      int        `gorm:"column:loyalty_points;not null;default:0"`
	WalletBalanceCents int        `gorm:"column:wallet_balance_cents;not null;default:0"`
	LastLoginAt        *time.Time `gorm:"column:last_login_at"`
	CreatedAt          time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}
