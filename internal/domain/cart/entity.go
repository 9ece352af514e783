// internal/domain/cart/entity.go
package cart

import (
	"time"
)

// Cart represents an anonymous shopping cart keyed by a client-generated
// token. The token is a capability: whoever holds it owns the cart. It
// carries no user identity.
type Cart struct {
	Token      string    `gorm:"primaryKey;size:64" json:"token"`
	CouponCode *string   `gorm:"size:50" json:"coupon_code,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// CartItem represents a single product line in a cart
type CartItem struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CartToken string    `gorm:"not null;index;uniqueIndex:idx_cart_items_token_product;size:64" json:"cart_token"`
	ProductID uint      `gorm:"not null;uniqueIndex:idx_cart_items_token_product" json:"product_id"`
	Quantity  int       `gorm:"not null" json:"quantity"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName overrides
func (Cart) TableName() string     { return "carts" }
func (CartItem) TableName() string { return "cart_items" }

// ItemView is a cart line joined with live product details for display
type ItemView struct {
	ProductID uint   `json:"product_id"`
	Name      string `json:"name"`
	ImageURL  string `json:"image_url,omitempty"`
	Price     int64  `json:"price"` // current unit price in cents
	Quantity  int    `json:"qty"`
	LineTotal int64  `json:"line_total"`
	Available bool   `json:"available"`
}

// Snapshot is the full cart view: lines joined with the live catalog, plus
// totals and the live-recomputed coupon effect
type Snapshot struct {
	CartID       string     `json:"cart_id"`
	Items        []ItemView `json:"items"`
	Count        int        `json:"count"`    // sum of quantities
	Subtotal     int64      `json:"total"`    // sum of qty x current unit price
	CouponCode   *string    `json:"coupon,omitempty"`
	Discount     int64      `json:"discount"`
	FinalTotal   int64      `json:"final_total"`
	CouponStatus string     `json:"coupon_status,omitempty"` // why a stored coupon is not applying
}
