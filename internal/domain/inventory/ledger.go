// internal/domain/inventory/ledger.go
package inventory

import (
	"errors"
	"fmt"

	"github.com/sgjo/shop-backend/internal/domain/product"
	"gorm.io/gorm"
)

// ErrInsufficientStock is returned when a reservation exceeds available stock
var ErrInsufficientStock = errors.New("insufficient stock")

// InsufficientStockError reports which product could not be reserved
type InsufficientStockError struct {
	ProductID uint
	Requested int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %d (requested %d)", e.ProductID, e.Requested)
}

// Unwrap lets callers match with errors.Is(err, ErrInsufficientStock)
func (e *InsufficientStockError) Unwrap() error {
	return ErrInsufficientStock
}

// Ledger is the authoritative stock counter. Reserve and Release run as
// single conditional updates against the product row, so two concurrent
// checkouts for the last unit of a product cannot both succeed and stock
// never goes negative.
type Ledger struct {
	db *gorm.DB
}

// NewLedger creates a new inventory ledger
func NewLedger(db *gorm.DB) *Ledger {
	return &Ledger{
		db: db,
	}
}

// Reserve atomically decrements stock by qty only if current stock >= qty.
// There is no partial reservation and no waiting for stock to free up.
// The caller's transaction handle joins the surrounding unit of work.
func (l *Ledger) Reserve(tx *gorm.DB, productID uint, qty int, orderID *uint) error {
	if qty <= 0 {
		return fmt.Errorf("reserve quantity must be positive, got %d", qty)
	}

	result := tx.Model(&product.Product{}).
		Where("id = ? AND quantity >= ?", productID, qty).
		UpdateColumn("quantity", gorm.Expr("quantity - ?", qty))

	if result.Error != nil {
		return fmt.Errorf("failed to reserve stock: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		// Either the product is gone or stock ran out; distinguish the two
		var prod product.Product
		if err := tx.Select("id").Where("id = ?", productID).First(&prod).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return product.ErrNotFound
			}
			return fmt.Errorf("failed to check product: %w", err)
		}
		return &InsufficientStockError{ProductID: productID, Requested: qty}
	}

	return l.recordMovement(tx, productID, MovementTypeReserve, qty, orderID)
}

// Release atomically increments stock by qty. Used on checkout rollback and
// on order cancellation.
func (l *Ledger) Release(tx *gorm.DB, productID uint, qty int, orderID *uint) error {
	if qty <= 0 {
		return fmt.Errorf("release quantity must be positive, got %d", qty)
	}

	result := tx.Model(&product.Product{}).
		Where("id = ?", productID).
		UpdateColumn("quantity", gorm.Expr("quantity + ?", qty))

	if result.Error != nil {
		return fmt.Errorf("failed to release stock: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		return product.ErrNotFound
	}

	return l.recordMovement(tx, productID, MovementTypeRelease, qty, orderID)
}

// Movements retrieves the movement history for a product, newest first
func (l *Ledger) Movements(productID uint, limit int) ([]StockMovement, error) {
	if limit <= 0 {
		limit = 50
	}

	var movements []StockMovement
	err := l.db.Where("product_id = ?", productID).
		Order("id DESC").
		Limit(limit).
		Find(&movements).Error
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve stock movements: %w", err)
	}

	return movements, nil
}

func (l *Ledger) recordMovement(tx *gorm.DB, productID uint, movementType MovementType, qty int, orderID *uint) error {
	var prod product.Product
	if err := tx.Select("id", "quantity").Where("id = ?", productID).First(&prod).Error; err != nil {
		return fmt.Errorf("failed to read stock level: %w", err)
	}

	previous := prod.Quantity + qty
	if movementType == MovementTypeRelease {
		previous = prod.Quantity - qty
	}

	movement := StockMovement{
		ProductID:        productID,
		MovementType:     movementType,
		Quantity:         qty,
		PreviousQuantity: previous,
		NewQuantity:      prod.Quantity,
		OrderID:          orderID,
	}

	if err := tx.Create(&movement).Error; err != nil {
		return fmt.Errorf("failed to record stock movement: %w", err)
	}

	return nil
}
