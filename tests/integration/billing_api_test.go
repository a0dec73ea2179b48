package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/pos/backend/internal/interfaces/http/handler"
	"github.com/pos/backend/internal/interfaces/http/middleware"
	"github.com/pos/backend/internal/interfaces/http/router"
)

// newTestAPI builds the full HTTP surface against the test database,
// with authentication left out of the chain.
func newTestAPI(db *gorm.DB) *gin.Engine {
	gin.SetMode(gin.TestMode)
	middleware.SetupValidator()

	checkoutService, productService, stockService := newServices(db)

	billingHandler := handler.NewBillingHandler(checkoutService)
	productHandler := handler.NewProductHandler(productService)
	stockHandler := handler.NewStockHandler(stockService)

	engine := gin.New()
	engine.Use(middleware.RequestID())

	r := router.NewRouter(engine, router.WithAPIVersion("v1"))

	billingRoutes := router.NewDomainGroup("billing", "/billing")
	billingRoutes.POST("/checkout", billingHandler.Checkout)
	billingRoutes.GET("/invoices", billingHandler.ListInvoices)
	billingRoutes.GET("/invoices/:invoice_no", billingHandler.GetInvoice)
	billingRoutes.POST("/invoices/:invoice_no/cancel", billingHandler.CancelInvoice)
	billingRoutes.GET("/stats", billingHandler.Stats)

	catalogRoutes := router.NewDomainGroup("catalog", "/products")
	catalogRoutes.POST("", productHandler.Create)
	catalogRoutes.GET("", productHandler.List)
	catalogRoutes.GET("/:sku", productHandler.GetBySKU)

	stockRoutes := router.NewDomainGroup("stock", "/stock")
	stockRoutes.POST("/receive", stockHandler.Receive)
	stockRoutes.POST("/availability", stockHandler.CheckAvailability)
	stockRoutes.GET("/:sku", stockHandler.GetBySKU)

	r.Register(billingRoutes).
		Register(catalogRoutes).
		Register(stockRoutes)
	r.Setup()

	return engine
}

// apiRequest performs a JSON request and returns the parsed envelope.
func apiRequest(t *testing.T, engine *gin.Engine, method, path string, body interface{}, headers map[string]string) (int, map[string]interface{}) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	var envelope map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope),
		"response was not JSON: %s", w.Body.String())
	return w.Code, envelope
}

func dataField(t *testing.T, envelope map[string]interface{}) map[string]interface{} {
	t.Helper()
	data, ok := envelope["data"].(map[string]interface{})
	require.True(t, ok, "expected data object, got %v", envelope)
	return data
}

func errorCode(t *testing.T, envelope map[string]interface{}) string {
	t.Helper()
	errObj, ok := envelope["error"].(map[string]interface{})
	require.True(t, ok, "expected error object, got %v", envelope)
	return errObj["code"].(string)
}

func TestBillingAPI(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	tdb := NewTestDB(t)
	engine := newTestAPI(tdb.DB)

	// Create a product over the API
	status, envelope := apiRequest(t, engine, http.MethodPost, "/api/v1/products", map[string]interface{}{
		"name":          "House Blend 250g",
		"unit_price":    "9.90",
		"initial_stock": 15,
	}, nil)
	require.Equal(t, http.StatusCreated, status, "create product failed: %v", envelope)
	sku := dataField(t, envelope)["sku"].(string)
	require.NotEmpty(t, sku)

	t.Run("checkout returns 201 and the invoice", func(t *testing.T) {
		status, envelope := apiRequest(t, engine, http.MethodPost, "/api/v1/billing/checkout", map[string]interface{}{
			"items":          []map[string]interface{}{{"sku": sku, "qty": 2}},
			"payment_method": "cash",
		}, map[string]string{"Idempotency-Key": "api-checkout-1"})

		require.Equal(t, http.StatusCreated, status, "checkout failed: %v", envelope)
		data := dataField(t, envelope)
		assert.Equal(t, true, data["new_invoice"])
		assert.Equal(t, "paid", data["status"])
		assert.Equal(t, float64(1001), data["invoice_number"])
	})

	t.Run("replay returns 200 with the same invoice", func(t *testing.T) {
		status, envelope := apiRequest(t, engine, http.MethodPost, "/api/v1/billing/checkout", map[string]interface{}{
			"items":          []map[string]interface{}{{"sku": sku, "qty": 2}},
			"payment_method": "cash",
		}, map[string]string{"Idempotency-Key": "api-checkout-1"})

		require.Equal(t, http.StatusOK, status)
		data := dataField(t, envelope)
		assert.Equal(t, false, data["new_invoice"])
		assert.Equal(t, float64(1001), data["invoice_number"])
	})

	t.Run("stock reflects the sale", func(t *testing.T) {
		status, envelope := apiRequest(t, engine, http.MethodGet, "/api/v1/stock/"+sku, nil, nil)
		require.Equal(t, http.StatusOK, status)
		data := dataField(t, envelope)
		assert.Equal(t, float64(13), data["quantity"])
		assert.Equal(t, float64(2), data["sold_total"])
	})

	t.Run("oversell is rejected with the shortfall code", func(t *testing.T) {
		status, envelope := apiRequest(t, engine, http.MethodPost, "/api/v1/billing/checkout", map[string]interface{}{
			"items":          []map[string]interface{}{{"sku": sku, "qty": 1000}},
			"payment_method": "cash",
		}, nil)

		require.Equal(t, http.StatusBadRequest, status)
		assert.Equal(t, "INSUFFICIENT_STOCK", errorCode(t, envelope))
	})

	t.Run("invoice lookup and missing invoice", func(t *testing.T) {
		status, envelope := apiRequest(t, engine, http.MethodGet, "/api/v1/billing/invoices/1001", nil, nil)
		require.Equal(t, http.StatusOK, status)
		assert.Equal(t, float64(1001), dataField(t, envelope)["invoice_number"])

		status, envelope = apiRequest(t, engine, http.MethodGet, "/api/v1/billing/invoices/42", nil, nil)
		require.Equal(t, http.StatusNotFound, status)
		assert.Equal(t, "NOT_FOUND", errorCode(t, envelope))
	})

	t.Run("cancel restores stock and is not repeatable", func(t *testing.T) {
		status, envelope := apiRequest(t, engine, http.MethodPost, "/api/v1/billing/invoices/1001/cancel", map[string]interface{}{
			"reason": "till error",
		}, nil)
		require.Equal(t, http.StatusOK, status, "cancel failed: %v", envelope)
		assert.Equal(t, "cancelled", dataField(t, envelope)["status"])

		status, envelope = apiRequest(t, engine, http.MethodGet, "/api/v1/stock/"+sku, nil, nil)
		require.Equal(t, http.StatusOK, status)
		assert.Equal(t, float64(15), dataField(t, envelope)["quantity"])

		status, envelope = apiRequest(t, engine, http.MethodPost, "/api/v1/billing/invoices/1001/cancel", map[string]interface{}{
			"reason": "again",
		}, nil)
		require.Equal(t, http.StatusBadRequest, status)
		assert.Equal(t, "ALREADY_CANCELLED", errorCode(t, envelope))
	})

	t.Run("goods receipt raises availability", func(t *testing.T) {
		status, envelope := apiRequest(t, engine, http.MethodPost, "/api/v1/stock/receive", map[string]interface{}{
			"sku": sku,
			"qty": 5,
		}, nil)
		require.Equal(t, http.StatusOK, status, "receive failed: %v", envelope)
		assert.Equal(t, float64(20), dataField(t, envelope)["quantity"])

		status, envelope = apiRequest(t, engine, http.MethodPost, "/api/v1/stock/availability", map[string]interface{}{
			"items": []map[string]interface{}{{"sku": sku, "qty": 20}},
		}, nil)
		require.Equal(t, http.StatusOK, status)
		assert.Equal(t, true, dataField(t, envelope)["all_available"])
	})

	t.Run("malformed cart is rejected", func(t *testing.T) {
		status, envelope := apiRequest(t, engine, http.MethodPost, "/api/v1/billing/checkout", map[string]interface{}{
			"items":          []map[string]interface{}{},
			"payment_method": "cash",
		}, nil)
		require.Equal(t, http.StatusBadRequest, status)
		assert.Equal(t, "VALIDATION_ERROR", errorCode(t, envelope))
	})

	t.Run("invoice list is paginated newest first", func(t *testing.T) {
		// A couple more invoices to page through
		for i := 0; i < 3; i++ {
			status, envelope := apiRequest(t, engine, http.MethodPost, "/api/v1/billing/checkout", map[string]interface{}{
				"items":          []map[string]interface{}{{"sku": sku, "qty": 1}},
				"payment_method": "card",
			}, map[string]string{"Idempotency-Key": fmt.Sprintf("api-list-%d", i)})
			require.Equal(t, http.StatusCreated, status, "checkout failed: %v", envelope)
		}

		status, envelope := apiRequest(t, engine, http.MethodGet, "/api/v1/billing/invoices?page=1&limit=2", nil, nil)
		require.Equal(t, http.StatusOK, status)

		items, ok := envelope["data"].([]interface{})
		require.True(t, ok, "expected data array, got %v", envelope)
		require.Len(t, items, 2)

		first := items[0].(map[string]interface{})
		second := items[1].(map[string]interface{})
		assert.Greater(t, first["invoice_number"].(float64), second["invoice_number"].(float64))

		meta, ok := envelope["meta"].(map[string]interface{})
		require.True(t, ok, "expected meta, got %v", envelope)
		assert.Equal(t, float64(4), meta["total"])
	})
}
