// internal/domain/cart/service.go
package cart

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sgjo/shop-backend/internal/config"
	"github.com/sgjo/shop-backend/internal/domain/coupon"
	"github.com/sgjo/shop-backend/internal/domain/product"
	"gorm.io/gorm"
)

var (
	// ErrInvalidQuantity is returned when a quantity is not a positive integer
	ErrInvalidQuantity = errors.New("quantity must be a positive integer")

	// ErrCartIDRequired is returned when no cart token is supplied
	ErrCartIDRequired = errors.New("cart id required")
)

const countCacheTTL = 30 * time.Second

// Service handles cart business logic. A cart is created implicitly on its
// first write and never explicitly deleted; stale carts are purged by the
// retention sweeper.
type Service struct {
	db          *gorm.DB
	redisClient *redis.Client
	config      *config.Config
	coupons     *coupon.Service
}

// NewService creates a new cart service
func NewService(db *gorm.DB, redisClient *redis.Client, cfg *config.Config) *Service {
	return &Service{
		db:          db,
		redisClient: redisClient,
		config:      cfg,
		coupons:     coupon.NewService(db),
	}
}

// AddToCartRequest represents add to cart request
type AddToCartRequest struct {
	ProductID uint `json:"product_id" binding:"required"`
	Quantity  int  `json:"qty" binding:"required"`
}

// UpdateCartItemRequest represents update cart item request
type UpdateCartItemRequest struct {
	Quantity *int `json:"qty" binding:"required"`
}

// AddItem adds a product line to the cart, merging with an existing line by
// summing quantities
func (s *Service) AddItem(cartToken string, productID uint, qty int) (*Snapshot, error) {
	if cartToken == "" {
		return nil, ErrCartIDRequired
	}
	if qty <= 0 {
		return nil, ErrInvalidQuantity
	}

	// The product must exist and be purchasable
	var prod product.Product
	result := s.db.Where("id = ? AND is_active = ?", productID, true).First(&prod)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, product.ErrNotFound
		}
		return nil, fmt.Errorf("failed to validate product: %w", result.Error)
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.touchCart(tx, cartToken); err != nil {
			return err
		}

		var existing CartItem
		result := tx.Where("cart_token = ? AND product_id = ?", cartToken, productID).First(&existing)
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			item := CartItem{
				CartToken: cartToken,
				ProductID: productID,
				Quantity:  qty,
			}
			return tx.Create(&item).Error
		} else if result.Error != nil {
			return result.Error
		}

		existing.Quantity += qty
		return tx.Save(&existing).Error
	})
	if err != nil {
		return nil, fmt.Errorf("failed to add item to cart: %w", err)
	}

	s.invalidateCount(cartToken)
	return s.GetCart(cartToken)
}

// UpdateItem sets the quantity of an existing line. A quantity of zero
// removes the line; a negative quantity is rejected.
func (s *Service) UpdateItem(cartToken string, productID uint, qty int) (*Snapshot, error) {
	if cartToken == "" {
		return nil, ErrCartIDRequired
	}
	if qty < 0 {
		return nil, ErrInvalidQuantity
	}

	if qty == 0 {
		return s.RemoveItem(cartToken, productID)
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.touchCart(tx, cartToken); err != nil {
			return err
		}
		return tx.Model(&CartItem{}).
			Where("cart_token = ? AND product_id = ?", cartToken, productID).
			Update("quantity", qty).Error
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update cart item: %w", err)
	}

	s.invalidateCount(cartToken)
	return s.GetCart(cartToken)
}

// RemoveItem removes a product line. Removing a non-existent line is a
// no-op success.
func (s *Service) RemoveItem(cartToken string, productID uint) (*Snapshot, error) {
	if cartToken == "" {
		return nil, ErrCartIDRequired
	}

	err := s.db.
		Where("cart_token = ? AND product_id = ?", cartToken, productID).
		Delete(&CartItem{}).Error
	if err != nil {
		return nil, fmt.Errorf("failed to remove cart item: %w", err)
	}

	s.invalidateCount(cartToken)
	return s.GetCart(cartToken)
}

// ApplyCoupon evaluates the code against the current cart subtotal and, if
// it applies, stores the code on the cart. Applying a new code replaces a
// previous one; coupons never stack. The returned discount reflects the
// current subtotal only; it is recomputed on every read and again at
// checkout.
func (s *Service) ApplyCoupon(cartToken, code string) (int64, error) {
	if cartToken == "" {
		return 0, ErrCartIDRequired
	}

	snapshot, err := s.GetCart(cartToken)
	if err != nil {
		return 0, err
	}

	discount, err := s.coupons.Evaluate(code, snapshot.Subtotal, time.Now().UTC())
	if err != nil {
		return 0, err
	}

	normalized := strings.ToUpper(strings.TrimSpace(code))
	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.touchCart(tx, cartToken); err != nil {
			return err
		}
		return tx.Model(&Cart{}).
			Where("token = ?", cartToken).
			Update("coupon_code", normalized).Error
	})
	if err != nil {
		return 0, fmt.Errorf("failed to store coupon: %w", err)
	}

	return discount, nil
}

// RemoveCoupon unsets the coupon on the cart
func (s *Service) RemoveCoupon(cartToken string) error {
	if cartToken == "" {
		return ErrCartIDRequired
	}

	err := s.db.Model(&Cart{}).
		Where("token = ?", cartToken).
		Update("coupon_code", nil).Error
	if err != nil {
		return fmt.Errorf("failed to remove coupon: %w", err)
	}

	return nil
}

// GetCart returns the current cart snapshot: lines joined with live product
// details, plus totals and the live-recomputed coupon effect. A cart with no
// rows is an empty cart, not an error.
func (s *Service) GetCart(cartToken string) (*Snapshot, error) {
	if cartToken == "" {
		return nil, ErrCartIDRequired
	}

	var cartRow Cart
	result := s.db.Where("token = ?", cartToken).First(&cartRow)
	if result.Error != nil && !errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to retrieve cart: %w", result.Error)
	}

	items, err := s.loadItems(s.db, cartToken)
	if err != nil {
		return nil, err
	}

	snapshot := &Snapshot{
		CartID:     cartToken,
		Items:      make([]ItemView, 0, len(items)),
		CouponCode: cartRow.CouponCode,
	}

	for _, item := range items {
		view := ItemView{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
		}

		var prod product.Product
		err := s.db.Where("id = ?", item.ProductID).First(&prod).Error
		if err == nil {
			view.Name = prod.Name
			view.ImageURL = prod.ImageURL
			view.Price = prod.Price
			view.LineTotal = prod.Price * int64(item.Quantity)
			view.Available = prod.IsActive
		}

		snapshot.Count += item.Quantity
		snapshot.Subtotal += view.LineTotal
		snapshot.Items = append(snapshot.Items, view)
	}

	// Coupon effect is derived fresh from the current subtotal and coupon
	// state; a coupon that no longer qualifies silently stops applying.
	if cartRow.CouponCode != nil {
		discount, err := s.coupons.Evaluate(*cartRow.CouponCode, snapshot.Subtotal, time.Now().UTC())
		if err == nil {
			snapshot.Discount = discount
		} else if isCouponRejection(err) {
			snapshot.CouponStatus = err.Error()
		} else {
			return nil, err
		}
	}

	snapshot.FinalTotal = snapshot.Subtotal - snapshot.Discount
	if snapshot.FinalTotal < 0 {
		snapshot.FinalTotal = 0
	}

	return snapshot, nil
}

// Count returns the sum of quantities in the cart, cached briefly in Redis
func (s *Service) Count(ctx context.Context, cartToken string) (int, error) {
	if cartToken == "" {
		return 0, ErrCartIDRequired
	}

	key := countCacheKey(cartToken)
	if cached, err := s.redisClient.Get(ctx, key).Int(); err == nil {
		return cached, nil
	}

	var count int64
	err := s.db.Model(&CartItem{}).
		Where("cart_token = ?", cartToken).
		Select("COALESCE(SUM(quantity), 0)").
		Scan(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count cart items: %w", err)
	}

	s.redisClient.Set(ctx, key, count, countCacheTTL)
	return int(count), nil
}

// Clear removes the given lines and unsets the coupon as part of the
// caller's transaction. Checkout passes the exact item ids it read so a line
// added concurrently is not silently swept away.
func (s *Service) Clear(tx *gorm.DB, cartToken string, itemIDs []uint) error {
	if len(itemIDs) > 0 {
		if err := tx.Where("cart_token = ? AND id IN ?", cartToken, itemIDs).Delete(&CartItem{}).Error; err != nil {
			return fmt.Errorf("failed to clear cart items: %w", err)
		}
	}

	if err := tx.Model(&Cart{}).Where("token = ?", cartToken).Update("coupon_code", nil).Error; err != nil {
		return fmt.Errorf("failed to unset coupon: %w", err)
	}

	s.invalidateCount(cartToken)
	return nil
}

// Items returns the raw cart lines in insertion order, using the caller's
// transaction handle
func (s *Service) Items(tx *gorm.DB, cartToken string) ([]CartItem, error) {
	return s.loadItems(tx, cartToken)
}

// CouponCode returns the stored coupon code, if any, using the caller's
// transaction handle
func (s *Service) CouponCode(tx *gorm.DB, cartToken string) (*string, error) {
	var cartRow Cart
	result := tx.Where("token = ?", cartToken).First(&cartRow)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to retrieve cart: %w", result.Error)
	}
	return cartRow.CouponCode, nil
}

// PurgeStale deletes carts with no activity inside the retention window,
// along with their lines. Returns the number of carts removed.
func (s *Service) PurgeStale(retention time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-retention)

	var purged int64
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var stale []Cart
		if err := tx.Where("updated_at < ?", cutoff).Find(&stale).Error; err != nil {
			return err
		}
		if len(stale) == 0 {
			return nil
		}

		tokens := make([]string, len(stale))
		for i, c := range stale {
			tokens[i] = c.Token
		}

		if err := tx.Where("cart_token IN ?", tokens).Delete(&CartItem{}).Error; err != nil {
			return err
		}

		result := tx.Where("token IN ?", tokens).Delete(&Cart{})
		purged = result.RowsAffected
		return result.Error
	})
	if err != nil {
		return 0, fmt.Errorf("failed to purge stale carts: %w", err)
	}

	return purged, nil
}

// Private helpers

// touchCart creates the cart row if missing and bumps its updated_at,
// keeping the retention sweeper honest
func (s *Service) touchCart(tx *gorm.DB, cartToken string) error {
	var cartRow Cart
	result := tx.Where("token = ?", cartToken).First(&cartRow)
	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return tx.Create(&Cart{Token: cartToken}).Error
	} else if result.Error != nil {
		return result.Error
	}

	return tx.Model(&Cart{}).Where("token = ?", cartToken).
		Update("updated_at", time.Now().UTC()).Error
}

func (s *Service) loadItems(tx *gorm.DB, cartToken string) ([]CartItem, error) {
	var items []CartItem
	err := tx.Where("cart_token = ?", cartToken).Order("id ASC").Find(&items).Error
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve cart items: %w", err)
	}
	return items, nil
}

func (s *Service) invalidateCount(cartToken string) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	s.redisClient.Del(ctx, countCacheKey(cartToken))
}

func countCacheKey(cartToken string) string {
	return fmt.Sprintf("cart:count:%s", cartToken)
}

func isCouponRejection(err error) bool {
	return errors.Is(err, coupon.ErrNotFound) ||
		errors.Is(err, coupon.ErrInactive) ||
		errors.Is(err, coupon.ErrNotYetValid) ||
		errors.Is(err, coupon.ErrExpired) ||
		errors.Is(err, coupon.ErrBelowMinimum)
}
