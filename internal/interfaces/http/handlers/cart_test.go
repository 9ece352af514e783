package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sgjo/shop-backend/internal/config"
	"github.com/sgjo/shop-backend/internal/domain/cart"
	"github.com/sgjo/shop-backend/internal/domain/coupon"
	"github.com/sgjo/shop-backend/internal/domain/product"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func setupCartRouter(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.New().String())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&product.Product{}, &coupon.Coupon{}, &cart.Cart{}, &cart.CartItem{}))

	mr := miniredis.RunT(t)
	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	handler := NewCartHandler(db, redisClient, &config.Config{})

	router := gin.New()
	router.GET("/cart", handler.GetCart)
	router.GET("/cart/count", handler.GetCartCount)
	router.POST("/cart/items", handler.AddToCart)
	router.PUT("/cart/items/:id", handler.UpdateCartItem)
	router.DELETE("/cart/items/:id", handler.RemoveFromCart)
	router.POST("/cart/coupon", handler.ApplyCoupon)
	router.DELETE("/cart/coupon", handler.RemoveCoupon)

	return router, db
}

func doJSON(router *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestGetCartRequiresCartID(t *testing.T) {
	router, _ := setupCartRouter(t)

	w := doJSON(router, http.MethodGet, "/cart", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetCartEmpty(t *testing.T) {
	router, _ := setupCartRouter(t)

	w := doJSON(router, http.MethodGet, "/cart?cart_id=tok-1", "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data cart.Snapshot `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "tok-1", resp.Data.CartID)
	assert.Empty(t, resp.Data.Items)
}

func TestAddToCartFlow(t *testing.T) {
	router, db := setupCartRouter(t)

	prod := product.Product{SKU: "A", Name: "Widget", Price: 1250, Quantity: 10, IsActive: true}
	require.NoError(t, db.Create(&prod).Error)

	body := fmt.Sprintf(`{"product_id": %d, "qty": 2}`, prod.ID)
	w := doJSON(router, http.MethodPost, "/cart/items?cart_id=tok-1", body)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data cart.Snapshot `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, int64(2500), resp.Data.Subtotal)
	assert.Equal(t, 2, resp.Data.Count)
}

func TestAddToCartUnknownProduct(t *testing.T) {
	router, _ := setupCartRouter(t)

	w := doJSON(router, http.MethodPost, "/cart/items?cart_id=tok-1", `{"product_id": 9999, "qty": 1}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAddToCartMalformedBody(t *testing.T) {
	router, _ := setupCartRouter(t)

	w := doJSON(router, http.MethodPost, "/cart/items?cart_id=tok-1", `{"product_id": "nope"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUpdateCartItemInvalidID(t *testing.T) {
	router, _ := setupCartRouter(t)

	w := doJSON(router, http.MethodPut, "/cart/items/abc?cart_id=tok-1", `{"qty": 1}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestApplyCouponStatusMapping(t *testing.T) {
	router, db := setupCartRouter(t)

	prod := product.Product{SKU: "A", Name: "Widget", Price: 1000, Quantity: 10, IsActive: true}
	require.NoError(t, db.Create(&prod).Error)
	require.NoError(t, db.Create(&coupon.Coupon{
		Code: "SAVE5", Kind: coupon.KindFixed, Value: 500, MinAmount: 2000, IsActive: true,
	}).Error)

	body := fmt.Sprintf(`{"product_id": %d, "qty": 1}`, prod.ID)
	w := doJSON(router, http.MethodPost, "/cart/items?cart_id=tok-1", body)
	require.Equal(t, http.StatusOK, w.Code)

	// Unknown code
	w = doJSON(router, http.MethodPost, "/cart/coupon?cart_id=tok-1", `{"code": "NOPE"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)

	// Known code, subtotal below minimum
	w = doJSON(router, http.MethodPost, "/cart/coupon?cart_id=tok-1", `{"code": "SAVE5"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	// Qualifies after the cart grows
	body = fmt.Sprintf(`{"product_id": %d, "qty": 1}`, prod.ID)
	w = doJSON(router, http.MethodPost, "/cart/items?cart_id=tok-1", body)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(router, http.MethodPost, "/cart/coupon?cart_id=tok-1", `{"code": "SAVE5"}`)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Discount int64 `json:"discount"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, int64(500), resp.Discount)
}

func TestCartCount(t *testing.T) {
	router, db := setupCartRouter(t)

	prod := product.Product{SKU: "A", Name: "Widget", Price: 1000, Quantity: 10, IsActive: true}
	require.NoError(t, db.Create(&prod).Error)

	body := fmt.Sprintf(`{"product_id": %d, "qty": 3}`, prod.ID)
	w := doJSON(router, http.MethodPost, "/cart/items?cart_id=tok-1", body)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(router, http.MethodGet, "/cart/count?cart_id=tok-1", "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Count int `json:"count"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 3, resp.Count)
}
