package product

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/sgjo/shop-backend/internal/config"
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
	require.NoError(t, db.AutoMigrate(&Product{}))

	return NewService(db, &config.Config{}), db
}

func TestGetProductsOnlyActive(t *testing.T) {
	svc, db := setupTest(t)

	require.NoError(t, db.Create(&Product{SKU: "A", Name: "Visible", Price: 1000, IsActive: true}).Error)
	require.NoError(t, db.Create(&Product{SKU: "B", Name: "Hidden", Price: 2000, IsActive: false}).Error)

	products, err := svc.GetProducts()
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, "Visible", products[0].Name)
}

func TestGetProduct(t *testing.T) {
	svc, db := setupTest(t)

	prod := Product{SKU: "A", Name: "Widget", Price: 1000, IsActive: true}
	require.NoError(t, db.Create(&prod).Error)
	hidden := Product{SKU: "B", Name: "Hidden", Price: 2000, IsActive: false}
	require.NoError(t, db.Create(&hidden).Error)

	got, err := svc.GetProduct(prod.ID)
	require.NoError(t, err)
	assert.Equal(t, "Widget", got.Name)

	_, err = svc.GetProduct(hidden.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.GetProduct(9999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPurchasable(t *testing.T) {
	assert.True(t, (&Product{IsActive: true}).Purchasable())
	assert.False(t, (&Product{IsActive: false}).Purchasable())
}
