// internal/interfaces/http/handlers/checkout.go
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sgjo/shop-backend/internal/config"
	"github.com/sgjo/shop-backend/internal/domain/checkout"
	"github.com/sgjo/shop-backend/internal/domain/inventory"
	"github.com/sgjo/shop-backend/internal/domain/product"
	"gorm.io/gorm"
)

// CheckoutHandler handles checkout endpoints
type CheckoutHandler struct {
	checkoutService *checkout.Service
	config          *config.Config
}

// NewCheckoutHandler creates a new checkout handler
func NewCheckoutHandler(db *gorm.DB, redisClient *redis.Client, cfg *config.Config) *CheckoutHandler {
	return &CheckoutHandler{
		checkoutService: checkout.NewService(db, redisClient, cfg),
		config:          cfg,
	}
}

// Checkout handles POST /checkout. Clients that retry should send the same
// Idempotency-Key header so a duplicate submit returns the original order.
func (h *CheckoutHandler) Checkout(c *gin.Context) {
	token := cartToken(c)
	attemptToken := c.GetHeader("Idempotency-Key")

	result, err := h.checkoutService.Checkout(c.Request.Context(), token, attemptToken)
	if err != nil {
		h.respondCheckoutError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Order placed successfully",
		"data":    result,
	})
}

// respondCheckoutError maps checkout failures to HTTP statuses. Stock
// contention and duplicate in-flight attempts both come back as 409 so the
// client knows a retry may succeed.
func (h *CheckoutHandler) respondCheckoutError(c *gin.Context, err error) {
	var stockErr *inventory.InsufficientStockError

	switch {
	case errors.Is(err, checkout.ErrEmptyCart):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, product.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.As(err, &stockErr):
		c.JSON(http.StatusConflict, gin.H{
			"error":      "Insufficient stock",
			"product_id": stockErr.ProductID,
			"requested":  stockErr.Requested,
		})
	case errors.Is(err, inventory.ErrInsufficientStock):
		c.JSON(http.StatusConflict, gin.H{"error": "Insufficient stock"})
	case errors.Is(err, checkout.ErrConflictRetryable):
		c.JSON(http.StatusConflict, gin.H{
			"error":       "Checkout already in progress",
			"retry_after": 1,
		})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Checkout failed"})
	}
}
