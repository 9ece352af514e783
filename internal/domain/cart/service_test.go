package cart

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sgjo/shop-backend/internal/config"
	"github.com/sgjo/shop-backend/internal/domain/coupon"
	"github.com/sgjo/shop-backend/internal/domain/product"
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
	require.NoError(t, db.AutoMigrate(&product.Product{}, &coupon.Coupon{}, &Cart{}, &CartItem{}))

	mr := miniredis.RunT(t)
	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	cfg := &config.Config{}
	return NewService(db, redisClient, cfg), db
}

func seedProduct(t *testing.T, db *gorm.DB, price int64, active bool) uint {
	t.Helper()
	prod := product.Product{
		SKU:      uuid.New().String(),
		Name:     "Test Product",
		Price:    price,
		Quantity: 100,
		IsActive: active,
	}
	require.NoError(t, db.Create(&prod).Error)
	return prod.ID
}

func TestAddItemCreatesCartAndLine(t *testing.T) {
	svc, db := setupTest(t)
	productID := seedProduct(t, db, 1999, true)

	snapshot, err := svc.AddItem("tok-1", productID, 2)
	require.NoError(t, err)

	assert.Equal(t, "tok-1", snapshot.CartID)
	require.Len(t, snapshot.Items, 1)
	assert.Equal(t, 2, snapshot.Items[0].Quantity)
	assert.Equal(t, int64(3998), snapshot.Subtotal)
	assert.Equal(t, 2, snapshot.Count)

	var cartRow Cart
	require.NoError(t, db.Where("token = ?", "tok-1").First(&cartRow).Error)
}

func TestAddItemMergesQuantities(t *testing.T) {
	svc, db := setupTest(t)
	productID := seedProduct(t, db, 1000, true)

	_, err := svc.AddItem("tok-1", productID, 2)
	require.NoError(t, err)
	snapshot, err := svc.AddItem("tok-1", productID, 3)
	require.NoError(t, err)

	require.Len(t, snapshot.Items, 1, "same product must merge into one line")
	assert.Equal(t, 5, snapshot.Items[0].Quantity)
}

func TestAddItemValidation(t *testing.T) {
	svc, db := setupTest(t)
	productID := seedProduct(t, db, 1000, true)
	inactiveID := seedProduct(t, db, 1000, false)

	_, err := svc.AddItem("", productID, 1)
	assert.ErrorIs(t, err, ErrCartIDRequired)

	_, err = svc.AddItem("tok-1", productID, 0)
	assert.ErrorIs(t, err, ErrInvalidQuantity)

	_, err = svc.AddItem("tok-1", productID, -1)
	assert.ErrorIs(t, err, ErrInvalidQuantity)

	_, err = svc.AddItem("tok-1", 9999, 1)
	assert.ErrorIs(t, err, product.ErrNotFound)

	_, err = svc.AddItem("tok-1", inactiveID, 1)
	assert.ErrorIs(t, err, product.ErrNotFound)
}

func TestUpdateItemZeroRemovesLine(t *testing.T) {
	svc, db := setupTest(t)
	productID := seedProduct(t, db, 1000, true)

	_, err := svc.AddItem("tok-1", productID, 2)
	require.NoError(t, err)

	snapshot, err := svc.UpdateItem("tok-1", productID, 0)
	require.NoError(t, err)
	assert.Empty(t, snapshot.Items)
}

func TestUpdateItemNegativeRejected(t *testing.T) {
	svc, db := setupTest(t)
	productID := seedProduct(t, db, 1000, true)

	_, err := svc.AddItem("tok-1", productID, 2)
	require.NoError(t, err)

	_, err = svc.UpdateItem("tok-1", productID, -1)
	assert.ErrorIs(t, err, ErrInvalidQuantity)
}

func TestRemoveItemIdempotent(t *testing.T) {
	svc, db := setupTest(t)
	productID := seedProduct(t, db, 1000, true)

	_, err := svc.AddItem("tok-1", productID, 1)
	require.NoError(t, err)

	snapshot, err := svc.RemoveItem("tok-1", productID)
	require.NoError(t, err)
	assert.Empty(t, snapshot.Items)

	// Removing an absent line is a no-op success
	snapshot, err = svc.RemoveItem("tok-1", productID)
	require.NoError(t, err)
	assert.Empty(t, snapshot.Items)
}

func TestGetCartEmptyIsNotAnError(t *testing.T) {
	svc, _ := setupTest(t)

	snapshot, err := svc.GetCart("never-seen")
	require.NoError(t, err)
	assert.Empty(t, snapshot.Items)
	assert.Equal(t, int64(0), snapshot.Subtotal)
	assert.Equal(t, int64(0), snapshot.FinalTotal)
}

func TestApplyCouponAndSnapshotTotals(t *testing.T) {
	svc, db := setupTest(t)
	productID := seedProduct(t, db, 1250, true)
	require.NoError(t, db.Create(&coupon.Coupon{
		Code: "SAVE5", Kind: coupon.KindFixed, Value: 500, MinAmount: 2000, IsActive: true,
	}).Error)

	_, err := svc.AddItem("tok-1", productID, 2)
	require.NoError(t, err)

	discount, err := svc.ApplyCoupon("tok-1", "save5")
	require.NoError(t, err)
	assert.Equal(t, int64(500), discount)

	snapshot, err := svc.GetCart("tok-1")
	require.NoError(t, err)
	require.NotNil(t, snapshot.CouponCode)
	assert.Equal(t, "SAVE5", *snapshot.CouponCode)
	assert.Equal(t, int64(2500), snapshot.Subtotal)
	assert.Equal(t, int64(500), snapshot.Discount)
	assert.Equal(t, int64(2000), snapshot.FinalTotal)
}

func TestApplyCouponBelowMinimumRejected(t *testing.T) {
	svc, db := setupTest(t)
	productID := seedProduct(t, db, 1000, true)
	require.NoError(t, db.Create(&coupon.Coupon{
		Code: "SAVE5", Kind: coupon.KindFixed, Value: 500, MinAmount: 2000, IsActive: true,
	}).Error)

	_, err := svc.AddItem("tok-1", productID, 1)
	require.NoError(t, err)

	_, err = svc.ApplyCoupon("tok-1", "SAVE5")
	assert.ErrorIs(t, err, coupon.ErrBelowMinimum)

	// Rejected coupon must not be stored
	snapshot, err := svc.GetCart("tok-1")
	require.NoError(t, err)
	assert.Nil(t, snapshot.CouponCode)
}

func TestCouponStopsApplyingWhenSubtotalDrops(t *testing.T) {
	svc, db := setupTest(t)
	productID := seedProduct(t, db, 1250, true)
	require.NoError(t, db.Create(&coupon.Coupon{
		Code: "SAVE5", Kind: coupon.KindFixed, Value: 500, MinAmount: 2000, IsActive: true,
	}).Error)

	_, err := svc.AddItem("tok-1", productID, 2)
	require.NoError(t, err)
	_, err = svc.ApplyCoupon("tok-1", "SAVE5")
	require.NoError(t, err)

	// Dropping to one unit puts the subtotal below the coupon minimum; the
	// stored code stays but stops applying
	_, err = svc.UpdateItem("tok-1", productID, 1)
	require.NoError(t, err)

	snapshot, err := svc.GetCart("tok-1")
	require.NoError(t, err)
	require.NotNil(t, snapshot.CouponCode)
	assert.Equal(t, int64(0), snapshot.Discount)
	assert.Equal(t, int64(1250), snapshot.FinalTotal)
	assert.NotEmpty(t, snapshot.CouponStatus)

	// And resumes applying when the cart grows again
	_, err = svc.UpdateItem("tok-1", productID, 2)
	require.NoError(t, err)

	snapshot, err = svc.GetCart("tok-1")
	require.NoError(t, err)
	assert.Equal(t, int64(500), snapshot.Discount)
}

func TestApplyCouponReplacesPrevious(t *testing.T) {
	svc, db := setupTest(t)
	productID := seedProduct(t, db, 2000, true)
	require.NoError(t, db.Create(&coupon.Coupon{
		Code: "SAVE5", Kind: coupon.KindFixed, Value: 500, IsActive: true,
	}).Error)
	require.NoError(t, db.Create(&coupon.Coupon{
		Code: "WELCOME10", Kind: coupon.KindPercent, Value: 10, IsActive: true,
	}).Error)

	_, err := svc.AddItem("tok-1", productID, 1)
	require.NoError(t, err)

	_, err = svc.ApplyCoupon("tok-1", "SAVE5")
	require.NoError(t, err)
	_, err = svc.ApplyCoupon("tok-1", "WELCOME10")
	require.NoError(t, err)

	snapshot, err := svc.GetCart("tok-1")
	require.NoError(t, err)
	require.NotNil(t, snapshot.CouponCode)
	assert.Equal(t, "WELCOME10", *snapshot.CouponCode, "coupons never stack")
	assert.Equal(t, int64(200), snapshot.Discount)
}

func TestRemoveCoupon(t *testing.T) {
	svc, db := setupTest(t)
	productID := seedProduct(t, db, 2000, true)
	require.NoError(t, db.Create(&coupon.Coupon{
		Code: "SAVE5", Kind: coupon.KindFixed, Value: 500, IsActive: true,
	}).Error)

	_, err := svc.AddItem("tok-1", productID, 1)
	require.NoError(t, err)
	_, err = svc.ApplyCoupon("tok-1", "SAVE5")
	require.NoError(t, err)

	require.NoError(t, svc.RemoveCoupon("tok-1"))

	snapshot, err := svc.GetCart("tok-1")
	require.NoError(t, err)
	assert.Nil(t, snapshot.CouponCode)
	assert.Equal(t, int64(0), snapshot.Discount)
}

func TestInactiveProductShownUnavailable(t *testing.T) {
	svc, db := setupTest(t)
	productID := seedProduct(t, db, 1000, true)

	_, err := svc.AddItem("tok-1", productID, 1)
	require.NoError(t, err)

	// Deactivated after being added: the line stays visible but flagged
	require.NoError(t, db.Model(&product.Product{}).Where("id = ?", productID).Update("is_active", false).Error)

	snapshot, err := svc.GetCart("tok-1")
	require.NoError(t, err)
	require.Len(t, snapshot.Items, 1)
	assert.False(t, snapshot.Items[0].Available)
}

func TestCountReflectsQuantities(t *testing.T) {
	svc, db := setupTest(t)
	first := seedProduct(t, db, 1000, true)
	second := seedProduct(t, db, 2000, true)
	ctx := context.Background()

	count, err := svc.Count(ctx, "tok-1")
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	_, err = svc.AddItem("tok-1", first, 2)
	require.NoError(t, err)
	_, err = svc.AddItem("tok-1", second, 3)
	require.NoError(t, err)

	count, err = svc.Count(ctx, "tok-1")
	require.NoError(t, err)
	assert.Equal(t, 5, count)

	// Mutation invalidates the cached count
	_, err = svc.RemoveItem("tok-1", second)
	require.NoError(t, err)

	count, err = svc.Count(ctx, "tok-1")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestPurgeStale(t *testing.T) {
	svc, db := setupTest(t)
	productID := seedProduct(t, db, 1000, true)

	_, err := svc.AddItem("stale-cart", productID, 1)
	require.NoError(t, err)
	_, err = svc.AddItem("fresh-cart", productID, 1)
	require.NoError(t, err)

	// Age the first cart past the retention window
	old := time.Now().UTC().Add(-48 * time.Hour)
	require.NoError(t, db.Model(&Cart{}).Where("token = ?", "stale-cart").
		UpdateColumn("updated_at", old).Error)

	purged, err := svc.PurgeStale(24 * time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(1), purged)

	var count int64
	require.NoError(t, db.Model(&CartItem{}).Where("cart_token = ?", "stale-cart").Count(&count).Error)
	assert.Equal(t, int64(0), count, "purging a cart removes its lines too")

	snapshot, err := svc.GetCart("fresh-cart")
	require.NoError(t, err)
	assert.Len(t, snapshot.Items, 1)
}
