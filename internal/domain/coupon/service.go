// internal/domain/coupon/service.go
package coupon

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
)

// Evaluation rejection reasons, each distinct and user-reportable
var (
	ErrNotFound     = errors.New("coupon not found")
	ErrInactive     = errors.New("coupon is inactive")
	ErrNotYetValid  = errors.New("coupon is not yet valid")
	ErrExpired      = errors.New("coupon has expired")
	ErrBelowMinimum = errors.New("cart subtotal is below coupon minimum")
)

// Service evaluates coupon codes against cart subtotals
type Service struct {
	db *gorm.DB
}

// NewService creates a new coupon service
func NewService(db *gorm.DB) *Service {
	return &Service{
		db: db,
	}
}

// Evaluate computes the discount a coupon grants against the given subtotal
// at the given instant. It never trusts previously computed discounts: the
// coupon record and subtotal are re-checked on every call.
func (s *Service) Evaluate(code string, subtotal int64, now time.Time) (int64, error) {
	coup, err := s.lookup(code)
	if err != nil {
		return 0, err
	}

	if !coup.IsActive {
		return 0, ErrInactive
	}
	if coup.ValidFrom != nil && now.Before(*coup.ValidFrom) {
		return 0, ErrNotYetValid
	}
	if coup.ValidTo != nil && now.After(*coup.ValidTo) {
		return 0, ErrExpired
	}
	if subtotal < coup.MinAmount {
		return 0, ErrBelowMinimum
	}

	return coup.Discount(subtotal), nil
}

// Discount computes the raw discount amount for a subtotal, without
// checking validity. Percent discounts floor to the minor unit; fixed
// discounts never exceed the subtotal.
func (c *Coupon) Discount(subtotal int64) int64 {
	var discount int64
	switch c.Kind {
	case KindPercent:
		discount = int64(float64(subtotal) * c.Value / 100)
	case KindFixed:
		discount = int64(c.Value)
		if discount > subtotal {
			discount = subtotal
		}
	}
	if discount < 0 {
		discount = 0
	}
	return discount
}

func (s *Service) lookup(code string) (*Coupon, error) {
	normalized := strings.ToUpper(strings.TrimSpace(code))
	if normalized == "" {
		return nil, ErrNotFound
	}

	var coup Coupon
	result := s.db.Where("code = ?", normalized).First(&coup)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to look up coupon: %w", result.Error)
	}

	return &coup, nil
}
