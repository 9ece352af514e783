package analytics

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sgjo/shop-backend/internal/config"
	"github.com/sgjo/shop-backend/internal/domain/order"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func setupTest(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.New().String())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&order.Order{}, &order.OrderItem{}, &order.StatusHistory{}))

	return NewService(db, &config.Config{}), db
}

func seedOrderAt(t *testing.T, db *gorm.DB, status order.Status, total int64, createdAt time.Time) {
	t.Helper()
	ord := order.Order{
		OrderNumber:   uuid.New().String(),
		CartToken:     uuid.New().String(),
		CheckoutToken: uuid.New().String(),
		Status:        status,
		TotalAmount:   total,
	}
	require.NoError(t, db.Create(&ord).Error)
	require.NoError(t, db.Model(&ord).UpdateColumn("created_at", createdAt).Error)
}

func TestGetDashboardStats(t *testing.T) {
	svc, db := setupTest(t)
	now := time.Now().UTC()

	seedOrderAt(t, db, order.StatusPending, 1000, now)
	seedOrderAt(t, db, order.StatusPaid, 3000, now.AddDate(0, 0, -3))
	seedOrderAt(t, db, order.StatusCompleted, 5000, now.AddDate(0, 0, -20))
	seedOrderAt(t, db, order.StatusCancelled, 9000, now)

	stats, err := svc.GetDashboardStats()
	require.NoError(t, err)

	assert.Equal(t, int64(4), stats.TotalOrders)
	assert.Equal(t, int64(2), stats.OrdersToday)
	assert.Equal(t, int64(3), stats.OrdersThisWeek)
	assert.Equal(t, int64(4), stats.OrdersThisMonth)

	// Cancelled orders never count as revenue
	assert.Equal(t, int64(9000), stats.TotalRevenue)
	assert.Equal(t, int64(1000), stats.RevenueToday)
	assert.Equal(t, int64(4000), stats.RevenueThisWeek)
	assert.Equal(t, int64(9000), stats.RevenueThisMonth)

	assert.Equal(t, int64(3000), stats.AvgOrderValue)

	byStatus := make(map[string]int64)
	for _, sd := range stats.OrdersByStatus {
		byStatus[sd.Status] = sd.Count
	}
	assert.Equal(t, int64(1), byStatus["pending"])
	assert.Equal(t, int64(1), byStatus["cancelled"])
}

func TestGetDashboardStatsEmpty(t *testing.T) {
	svc, _ := setupTest(t)

	stats, err := svc.GetDashboardStats()
	require.NoError(t, err)
	assert.Equal(t, int64(0), stats.TotalOrders)
	assert.Equal(t, int64(0), stats.TotalRevenue)
	assert.Equal(t, int64(0), stats.AvgOrderValue)
	assert.Empty(t, stats.OrdersByStatus)
}
