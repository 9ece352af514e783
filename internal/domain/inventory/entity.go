// internal/domain/inventory/entity.go
package inventory

import (
	"time"
)

// MovementType represents the direction of a stock movement
type MovementType string

const (
	MovementTypeReserve MovementType = "reserve" // checkout reservation
	MovementTypeRelease MovementType = "release" // rollback or cancellation
)

// StockMovement is the audit record for every change to a product's
// available stock. The authoritative counter lives on the product row;
// movements exist so a stock level can be reproduced and audited later.
type StockMovement struct {
	ID               uint         `gorm:"primaryKey" json:"id"`
	ProductID        uint         `gorm:"not null;index" json:"product_id"`
	MovementType     MovementType `gorm:"not null;size:20" json:"movement_type"`
	Quantity         int          `gorm:"not null" json:"quantity"`
	PreviousQuantity int          `gorm:"not null" json:"previous_quantity"`
	NewQuantity      int          `gorm:"not null" json:"new_quantity"`
	OrderID          *uint        `gorm:"index" json:"order_id,omitempty"`
	CreatedAt        time.Time    `json:"created_at"`
}

// TableName overrides the table name
func (StockMovement) TableName() string {
	return "stock_movements"
}
