// internal/domain/coupon/entity.go
package coupon

import (
	"time"

	"gorm.io/gorm"
)

// Kind represents the discount kind of a coupon
type Kind string

const (
	KindPercent Kind = "percent"
	KindFixed   Kind = "fixed"
)

// Coupon represents a promotional discount code.
// Coupons are managed by an external admin surface; this service only reads
// and evaluates them. Codes are stored upper-case so lookups stay
// case-insensitive.
type Coupon struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Code      string         `gorm:"uniqueIndex;not null;size:50" json:"code"`
	Kind      Kind           `gorm:"not null;size:20" json:"kind"`
	Value     float64        `gorm:"not null" json:"value"`       // percent (0,100] or fixed amount in cents
	MinAmount int64          `gorm:"default:0" json:"min_amount"` // minimum cart subtotal in cents
	IsActive  bool           `gorm:"default:true" json:"is_active"`
	ValidFrom *time.Time     `json:"valid_from,omitempty"` // nil = unbounded
	ValidTo   *time.Time     `json:"valid_to,omitempty"`   // nil = unbounded
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName overrides the table name
func (Coupon) TableName() string {
	return "coupons"
}
