package models

import (
	"time"

	"github.com/google/uuid"
)

// Product is a catalog entry sold by an airport brand.
type Product struct {
	ID                 uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	BrandID            uuid.UUID `gorm:"column:brand_id;type:uuid;not null;index"`
	Name               string    `gorm:"column:name;not null"`
	Description        *string   `gorm:"column:description"`
	SKU                string    `gorm:"column:sku;not null;uniqueIndex"`
	Category           string    `gorm:"column:category;not null"`
	PriceCents         int       `gorm:"column:price_cents;not null"`
	DiscountPriceCents *int      `gorm:"column:discount_price_cents"`
	LoyaltyPointsEarn  int       `gorm:"column:loyalty_points_earn;not null;default:0"`
	Stock              int       `gorm:"column:stock;not null;default:0"`
	IsDutyFree         bool      `gorm:"column:is_duty_free;not null;default:false"`
	ImageURL           *string   `gorm:"column:image_url"`
	CreatedAt          time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// UnitPriceCents resolves the effective price: discount price when present,
// list price otherwise.
func (p *Product) UnitPriceCents() int {
	if p == nil {
		return 0
	}
	if p.DiscountPriceCents != nil {
		return *p.DiscountPriceCents
	}
	return p.PriceCents
}
