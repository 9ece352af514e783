// internal/domain/order/service.go
package order

import (
	"errors"
	"fmt"
	"time"

	"github.com/sgjo/shop-backend/internal/config"
	"github.com/sgjo/shop-backend/internal/domain/inventory"
	"gorm.io/gorm"
)

var (
	// ErrNotFound is returned when an order does not exist
	ErrNotFound = errors.New("order not found")

	// ErrInvalidTransition is returned for out-of-order status changes;
	// transitions are never silently coerced
	ErrInvalidTransition = errors.New("invalid status transition")
)

// Service handles order business logic
type Service struct {
	db     *gorm.DB
	config *config.Config
	ledger *inventory.Ledger
}

// NewService creates a new order service
func NewService(db *gorm.DB, cfg *config.Config, ledger *inventory.Ledger) *Service {
	return &Service{
		db:     db,
		config: cfg,
		ledger: ledger,
	}
}

// ListRequest represents order list query parameters. Besides status, orders
// can be filtered by final total range for the order listing view.
type ListRequest struct {
	Page      int    `form:"page,default=1"`
	Limit     int    `form:"limit,default=20"`
	Status    Status `form:"status"`
	MinTotal  *int64 `form:"min_total"`
	MaxTotal  *int64 `form:"max_total"`
	DateFrom  string `form:"date_from"`
	DateTo    string `form:"date_to"`
	SortBy    string `form:"sort_by,default=created_at"`
	SortOrder string `form:"sort_order,default=desc"`
}

// ListResponse represents order list response with pagination
type ListResponse struct {
	Orders     []Order    `json:"orders"`
	Pagination Pagination `json:"pagination"`
}

// Pagination represents pagination information
type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
	HasPrev    bool  `json:"has_prev"`
}

// UpdateStatusRequest represents an administrative status change
type UpdateStatusRequest struct {
	Status  Status `json:"status" binding:"required"`
	Comment string `json:"comment,omitempty"`
}

// GetOrder retrieves a single order by id
func (s *Service) GetOrder(id uint) (*Order, error) {
	var ord Order
	result := s.db.
		Preload("Items").
		Preload("StatusHistory", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at DESC")
		}).
		Where("id = ?", id).
		First(&ord)

	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to retrieve order: %w", result.Error)
	}

	return &ord, nil
}

// GetOrderByNumber retrieves a single order by its order number
func (s *Service) GetOrderByNumber(orderNumber string) (*Order, error) {
	var ord Order
	result := s.db.
		Preload("Items").
		Where("order_number = ?", orderNumber).
		First(&ord)

	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to retrieve order: %w", result.Error)
	}

	return &ord, nil
}

// ListOrders retrieves orders with filtering and pagination
func (s *Service) ListOrders(req *ListRequest) (*ListResponse, error) {
	if req.Page < 1 {
		req.Page = 1
	}
	if req.Limit < 1 {
		req.Limit = 20
	}

	var orders []Order
	var total int64

	query := s.db.Model(&Order{}).Preload("Items")

	if req.Status != "" {
		query = query.Where("status = ?", req.Status)
	}
	if req.MinTotal != nil {
		query = query.Where("total_amount >= ?", *req.MinTotal)
	}
	if req.MaxTotal != nil {
		query = query.Where("total_amount <= ?", *req.MaxTotal)
	}
	if req.DateFrom != "" {
		query = query.Where("created_at >= ?", req.DateFrom)
	}
	if req.DateTo != "" {
		query = query.Where("created_at <= ?", req.DateTo)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count orders: %w", err)
	}

	query = query.Order(s.buildOrderClause(req.SortBy, req.SortOrder))

	offset := (req.Page - 1) * req.Limit
	if err := query.Offset(offset).Limit(req.Limit).Find(&orders).Error; err != nil {
		return nil, fmt.Errorf("failed to retrieve orders: %w", err)
	}

	totalPages := int((total + int64(req.Limit) - 1) / int64(req.Limit))
	pagination := Pagination{
		Page:       req.Page,
		Limit:      req.Limit,
		Total:      total,
		TotalPages: totalPages,
		HasNext:    req.Page < totalPages,
		HasPrev:    req.Page > 1,
	}

	return &ListResponse{
		Orders:     orders,
		Pagination: pagination,
	}, nil
}

// UpdateStatus advances the order through the status state machine. The
// transition is validated against the current state; cancelling an order
// that still holds stock releases its reservations back to the ledger in
// the same transaction.
func (s *Service) UpdateStatus(orderID uint, newStatus Status, comment, updatedBy string) (*Order, error) {
	if !ValidStatus(newStatus) {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidTransition, newStatus)
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var ord Order
		if err := tx.Preload("Items").First(&ord, orderID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return fmt.Errorf("failed to retrieve order: %w", err)
		}

		if !CanTransition(ord.Status, newStatus) {
			return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, ord.Status, newStatus)
		}

		if newStatus == StatusCancelled && ord.HoldsStock() {
			for _, item := range ord.Items {
				if err := s.ledger.Release(tx, item.ProductID, item.Quantity, &ord.ID); err != nil {
					return fmt.Errorf("failed to restore stock: %w", err)
				}
			}
		}

		now := time.Now().UTC()
		updates := map[string]interface{}{
			"status": newStatus,
		}
		switch newStatus {
		case StatusPaid:
			updates["paid_at"] = now
		case StatusShipped:
			updates["shipped_at"] = now
		case StatusCompleted:
			updates["completed_at"] = now
		case StatusCancelled:
			updates["cancelled_at"] = now
		}

		if err := tx.Model(&ord).Updates(updates).Error; err != nil {
			return fmt.Errorf("failed to update order status: %w", err)
		}

		history := StatusHistory{
			OrderID:   orderID,
			Status:    newStatus,
			Comment:   comment,
			CreatedBy: updatedBy,
			CreatedAt: now,
		}
		if err := tx.Create(&history).Error; err != nil {
			return fmt.Errorf("failed to create status history: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.GetOrder(orderID)
}

func (s *Service) buildOrderClause(sortBy, sortOrder string) string {
	validSortFields := map[string]bool{
		"created_at":   true,
		"updated_at":   true,
		"total_amount": true,
		"status":       true,
		"order_number": true,
	}

	if !validSortFields[sortBy] {
		sortBy = "created_at"
	}

	if sortOrder != "asc" && sortOrder != "desc" {
		sortOrder = "desc"
	}

	return fmt.Sprintf("%s %s", sortBy, sortOrder)
}
