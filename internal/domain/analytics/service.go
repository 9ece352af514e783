// internal/domain/analytics/service.go
package analytics

import (
	"fmt"
	"time"

	"github.com/sgjo/shop-backend/internal/config"
	"github.com/sgjo/shop-backend/internal/domain/order"
	"gorm.io/gorm"
)

// Service computes read-only aggregates over the order table for the admin
// dashboard. Cancelled orders are excluded from revenue.
type Service struct {
	db     *gorm.DB
	config *config.Config
}

// NewService creates a new analytics service
func NewService(db *gorm.DB, cfg *config.Config) *Service {
	return &Service{
		db:     db,
		config: cfg,
	}
}

// DashboardStats represents order counts and revenue over rolling windows
type DashboardStats struct {
	TotalOrders     int64 `json:"total_orders"`
	OrdersToday     int64 `json:"orders_today"`
	OrdersThisWeek  int64 `json:"orders_this_week"`
	OrdersThisMonth int64 `json:"orders_this_month"`

	TotalRevenue     int64 `json:"total_revenue"` // In cents
	RevenueToday     int64 `json:"revenue_today"`
	RevenueThisWeek  int64 `json:"revenue_this_week"`
	RevenueThisMonth int64 `json:"revenue_this_month"`

	AvgOrderValue  int64        `json:"avg_order_value"` // In cents
	OrdersByStatus []StatusData `json:"orders_by_status"`
}

// StatusData represents order count per status
type StatusData struct {
	Status string `json:"status"`
	Count  int64  `json:"count"`
}

// GetDashboardStats computes the dashboard aggregates
func (s *Service) GetDashboardStats() (*DashboardStats, error) {
	stats := &DashboardStats{}
	now := time.Now().UTC()

	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	weekAgo := now.AddDate(0, 0, -7)
	monthAgo := now.AddDate(0, -1, 0)

	counts := []struct {
		since *time.Time
		dest  *int64
	}{
		{nil, &stats.TotalOrders},
		{&today, &stats.OrdersToday},
		{&weekAgo, &stats.OrdersThisWeek},
		{&monthAgo, &stats.OrdersThisMonth},
	}
	for _, c := range counts {
		query := s.db.Model(&order.Order{})
		if c.since != nil {
			query = query.Where("created_at >= ?", *c.since)
		}
		if err := query.Count(c.dest).Error; err != nil {
			return nil, fmt.Errorf("failed to count orders: %w", err)
		}
	}

	revenues := []struct {
		since *time.Time
		dest  *int64
	}{
		{nil, &stats.TotalRevenue},
		{&today, &stats.RevenueToday},
		{&weekAgo, &stats.RevenueThisWeek},
		{&monthAgo, &stats.RevenueThisMonth},
	}
	for _, r := range revenues {
		query := s.db.Model(&order.Order{}).Where("status != ?", order.StatusCancelled)
		if r.since != nil {
			query = query.Where("created_at >= ?", *r.since)
		}
		if err := query.Select("COALESCE(SUM(total_amount), 0)").Scan(r.dest).Error; err != nil {
			return nil, fmt.Errorf("failed to sum revenue: %w", err)
		}
	}

	var paidOrders int64
	if err := s.db.Model(&order.Order{}).Where("status != ?", order.StatusCancelled).Count(&paidOrders).Error; err != nil {
		return nil, fmt.Errorf("failed to count revenue orders: %w", err)
	}
	if paidOrders > 0 {
		stats.AvgOrderValue = stats.TotalRevenue / paidOrders
	}

	rows, err := s.db.Model(&order.Order{}).
		Select("status, COUNT(*) as count").
		Group("status").
		Rows()
	if err != nil {
		return nil, fmt.Errorf("failed to group orders by status: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var sd StatusData
		if err := rows.Scan(&sd.Status, &sd.Count); err != nil {
			return nil, fmt.Errorf("failed to scan status row: %w", err)
		}
		stats.OrdersByStatus = append(stats.OrdersByStatus, sd)
	}

	return stats, nil
}
