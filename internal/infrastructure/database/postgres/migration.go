// internal/infrastructure/database/postgres/migration.go
package postgres

import (
	"fmt"
	"log"
	"time"

	"github.com/sgjo/shop-backend/internal/domain/cart"
	"github.com/sgjo/shop-backend/internal/domain/coupon"
	"github.com/sgjo/shop-backend/internal/domain/inventory"
	"github.com/sgjo/shop-backend/internal/domain/order"
	"github.com/sgjo/shop-backend/internal/domain/product"
	"gorm.io/gorm"
)

// Migration handles database migrations
type Migration struct {
	db *gorm.DB
}

// NewMigration creates a new migration instance
func NewMigration(db *gorm.DB) *Migration {
	return &Migration{
		db: db,
	}
}

// RunAutoMigrations runs GORM auto-migrations for all models
func (m *Migration) RunAutoMigrations() error {
	log.Println("🔄 Running database auto-migrations...")

	// Dependency order: catalog first, then carts and coupons, then orders
	models := []interface{}{
		&product.Product{},
		&coupon.Coupon{},
		&cart.Cart{},
		&cart.CartItem{},
		&order.Order{},
		&order.OrderItem{},
		&order.StatusHistory{},
		&inventory.StockMovement{},
	}

	for _, model := range models {
		if err := m.db.AutoMigrate(model); err != nil {
			return fmt.Errorf("failed to migrate model %T: %w", model, err)
		}
	}

	log.Println("✅ Database auto-migrations completed successfully")
	return nil
}

// CreateIndexes creates additional indexes for better performance
func (m *Migration) CreateIndexes() error {
	log.Println("🔄 Creating additional database indexes...")

	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_products_active ON products(is_active)",
		"CREATE INDEX IF NOT EXISTS idx_carts_updated_at ON carts(updated_at)",
		"CREATE INDEX IF NOT EXISTS idx_orders_status_created ON orders(status, created_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_orders_total_amount ON orders(total_amount)",
		"CREATE INDEX IF NOT EXISTS idx_stock_movements_product_created ON stock_movements(product_id, created_at DESC)",
	}

	for _, index := range indexes {
		if err := m.db.Exec(index).Error; err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}

	log.Println("✅ Database indexes created successfully")
	return nil
}

// SeedInitialData seeds development data: the starter catalog and a pair of
// coupons to exercise the discount paths
func (m *Migration) SeedInitialData() error {
	log.Println("🔄 Seeding initial data...")

	var productCount int64
	if err := m.db.Model(&product.Product{}).Count(&productCount).Error; err != nil {
		return fmt.Errorf("failed to count products: %w", err)
	}

	if productCount == 0 {
		products := []product.Product{
			{SKU: "SKU-TSHIRT-001", Name: "Basic T-Shirt", Description: "Soft cotton", Price: 1999, Quantity: 100, IsActive: true},
			{SKU: "SKU-MUG-001", Name: "Coffee Mug", Description: "Ceramic mug", Price: 999, Quantity: 200, IsActive: true},
			{SKU: "SKU-HOODIE-001", Name: "Hoodie", Description: "Warm hoodie", Price: 3999, Quantity: 50, IsActive: true},
		}
		if err := m.db.Create(&products).Error; err != nil {
			return fmt.Errorf("failed to seed products: %w", err)
		}
	}

	var couponCount int64
	if err := m.db.Model(&coupon.Coupon{}).Count(&couponCount).Error; err != nil {
		return fmt.Errorf("failed to count coupons: %w", err)
	}

	if couponCount == 0 {
		validTo := time.Now().UTC().AddDate(1, 0, 0)
		coupons := []coupon.Coupon{
			{Code: "SAVE5", Kind: coupon.KindFixed, Value: 500, MinAmount: 2000, IsActive: true, ValidTo: &validTo},
			{Code: "WELCOME10", Kind: coupon.KindPercent, Value: 10, MinAmount: 0, IsActive: true},
		}
		if err := m.db.Create(&coupons).Error; err != nil {
			return fmt.Errorf("failed to seed coupons: %w", err)
		}
	}

	log.Println("✅ Initial data seeded successfully")
	return nil
}
