// internal/domain/checkout/service.go
package checkout

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sgjo/shop-backend/internal/config"
	"github.com/sgjo/shop-backend/internal/domain/cart"
	"github.com/sgjo/shop-backend/internal/domain/coupon"
	"github.com/sgjo/shop-backend/internal/domain/inventory"
	"github.com/sgjo/shop-backend/internal/domain/order"
	"github.com/sgjo/shop-backend/internal/domain/product"
	"gorm.io/gorm"
)

var (
	// ErrEmptyCart is returned when checkout is attempted on a cart with no lines
	ErrEmptyCart = errors.New("cart is empty")

	// ErrConflictRetryable is returned when another submission with the same
	// attempt token is still in flight; the caller should retry shortly
	ErrConflictRetryable = errors.New("checkout already in progress")
)

// Result is the outcome of a successful checkout
type Result struct {
	OrderID     uint   `json:"order_id"`
	OrderNumber string `json:"order_number"`
	Total       int64  `json:"total"`
}

// Service converts a priced cart into an immutable order. The whole
// conversion (coupon re-evaluation, stock reservation, order insert, cart
// clear) runs inside one database transaction, so no failure can leave a
// reservation without an order.
type Service struct {
	db          *gorm.DB
	redisClient *redis.Client
	config      *config.Config
	cartService *cart.Service
	coupons     *coupon.Service
	ledger      *inventory.Ledger
}

// NewService creates a new checkout service
func NewService(db *gorm.DB, redisClient *redis.Client, cfg *config.Config) *Service {
	return &Service{
		db:          db,
		redisClient: redisClient,
		config:      cfg,
		cartService: cart.NewService(db, redisClient, cfg),
		coupons:     coupon.NewService(db),
		ledger:      inventory.NewLedger(db),
	}
}

// Checkout converts the cart into an order. attemptToken deduplicates
// retries: a second submission with the same token returns the already
// created order instead of reserving stock again. An empty token gets a
// fresh one, which makes the call single-shot.
func (s *Service) Checkout(ctx context.Context, cartToken, attemptToken string) (*Result, error) {
	if cartToken == "" {
		return nil, cart.ErrCartIDRequired
	}

	attemptToken = strings.TrimSpace(attemptToken)
	if attemptToken == "" {
		attemptToken = uuid.New().String()
	}

	// A retry after a successful commit must observe the original outcome
	if existing, err := s.findByAttempt(attemptToken); err != nil {
		return nil, err
	} else if existing != nil {
		return resultOf(existing), nil
	}

	// Claim the attempt token so two in-flight submissions with the same
	// token cannot both enter the transaction
	claimKey := attemptClaimKey(attemptToken)
	claimed, err := s.redisClient.SetNX(ctx, claimKey, cartToken, s.config.Checkout.AttemptTTL).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to claim checkout attempt: %w", err)
	}
	if !claimed {
		return nil, ErrConflictRetryable
	}

	ord, err := s.run(cartToken, attemptToken)
	if err != nil {
		// Drop the claim so the client may retry with the same token
		s.redisClient.Del(ctx, claimKey)

		// The unique index on the attempt token is the authoritative
		// dedup: if another submission won the race, surface its order
		if existing, lookupErr := s.findByAttempt(attemptToken); lookupErr == nil && existing != nil {
			return resultOf(existing), nil
		}
		return nil, err
	}

	return resultOf(ord), nil
}

// run executes the checkout transaction proper
func (s *Service) run(cartToken, attemptToken string) (*order.Order, error) {
	var created order.Order

	err := s.db.Transaction(func(tx *gorm.DB) error {
		items, err := s.cartService.Items(tx, cartToken)
		if err != nil {
			return err
		}
		if len(items) == 0 {
			return ErrEmptyCart
		}

		// Join each line with its product; prices are captured here, not
		// taken from anything the client sent
		lines, subtotal, err := s.priceLines(tx, items)
		if err != nil {
			return err
		}

		// The coupon applied earlier is not trusted now: re-evaluate
		// against the current subtotal and current time. A coupon that no
		// longer qualifies is dropped, not fatal: the shopper pays full
		// price, matching what the cart read would show.
		var discount int64
		var appliedCode string
		code, err := s.cartService.CouponCode(tx, cartToken)
		if err != nil {
			return err
		}
		if code != nil {
			d, evalErr := s.coupons.Evaluate(*code, subtotal, time.Now().UTC())
			if evalErr == nil {
				discount = d
				appliedCode = strings.ToUpper(*code)
			} else if !isCouponRejection(evalErr) {
				return evalErr
			}
		}

		total := subtotal - discount
		if total < 0 {
			total = 0
		}

		// Reserve stock in ascending product id order so concurrent
		// checkouts over overlapping products cannot deadlock
		reserveOrder := make([]pricedLine, len(lines))
		copy(reserveOrder, lines)
		sort.Slice(reserveOrder, func(i, j int) bool {
			return reserveOrder[i].product.ID < reserveOrder[j].product.ID
		})
		for _, line := range reserveOrder {
			if err := s.ledger.Reserve(tx, line.product.ID, line.item.Quantity, nil); err != nil {
				// Rolls back every reservation taken in this attempt
				return err
			}
		}

		created = order.Order{
			CartToken:      cartToken,
			CheckoutToken:  attemptToken,
			Status:         order.StatusPending,
			SubtotalAmount: subtotal,
			DiscountAmount: discount,
			TotalAmount:    total,
			CouponCode:     appliedCode,
		}
		if err := tx.Create(&created).Error; err != nil {
			return fmt.Errorf("failed to create order: %w", err)
		}

		created.OrderNumber = created.GenerateOrderNumber()
		if err := tx.Model(&created).Update("order_number", created.OrderNumber).Error; err != nil {
			return fmt.Errorf("failed to set order number: %w", err)
		}

		itemIDs := make([]uint, 0, len(lines))
		for _, line := range lines {
			orderItem := order.OrderItem{
				OrderID:    created.ID,
				ProductID:  line.product.ID,
				Name:       line.product.Name,
				Quantity:   line.item.Quantity,
				Price:      line.product.Price,
				TotalPrice: line.product.Price * int64(line.item.Quantity),
			}
			if err := tx.Create(&orderItem).Error; err != nil {
				return fmt.Errorf("failed to create order item: %w", err)
			}
			created.Items = append(created.Items, orderItem)
			itemIDs = append(itemIDs, line.item.ID)
		}

		history := order.StatusHistory{
			OrderID:   created.ID,
			Status:    order.StatusPending,
			Comment:   "Order created",
			CreatedBy: "checkout",
		}
		if err := tx.Create(&history).Error; err != nil {
			return fmt.Errorf("failed to create status history: %w", err)
		}

		// Clearing the cart in the same transaction is what makes the
		// cart-to-order handoff atomic
		return s.cartService.Clear(tx, cartToken, itemIDs)
	})
	if err != nil {
		return nil, err
	}

	return &created, nil
}

type pricedLine struct {
	item    cart.CartItem
	product product.Product
}

// priceLines joins cart lines with their products and computes the subtotal.
// A line whose product was deleted or deactivated after being added fails
// the whole checkout rather than being silently dropped.
func (s *Service) priceLines(tx *gorm.DB, items []cart.CartItem) ([]pricedLine, int64, error) {
	lines := make([]pricedLine, 0, len(items))
	var subtotal int64

	for _, item := range items {
		var prod product.Product
		err := tx.Where("id = ? AND is_active = ?", item.ProductID, true).First(&prod).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, 0, fmt.Errorf("product %d: %w", item.ProductID, product.ErrNotFound)
			}
			return nil, 0, fmt.Errorf("failed to load product %d: %w", item.ProductID, err)
		}

		lines = append(lines, pricedLine{item: item, product: prod})
		subtotal += prod.Price * int64(item.Quantity)
	}

	return lines, subtotal, nil
}

func (s *Service) findByAttempt(attemptToken string) (*order.Order, error) {
	var existing order.Order
	result := s.db.Where("checkout_token = ?", attemptToken).First(&existing)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to look up checkout attempt: %w", result.Error)
	}
	return &existing, nil
}

func resultOf(ord *order.Order) *Result {
	return &Result{
		OrderID:     ord.ID,
		OrderNumber: ord.OrderNumber,
		Total:       ord.TotalAmount,
	}
}

func attemptClaimKey(attemptToken string) string {
	return fmt.Sprintf("checkout:attempt:%s", attemptToken)
}

func isCouponRejection(err error) bool {
	return errors.Is(err, coupon.ErrNotFound) ||
		errors.Is(err, coupon.ErrInactive) ||
		errors.Is(err, coupon.ErrNotYetValid) ||
		errors.Is(err, coupon.ErrExpired) ||
		errors.Is(err, coupon.ErrBelowMinimum)
}
