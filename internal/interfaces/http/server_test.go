package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/storefront-backend/internal/config"
	"github.com/your-org/storefront-backend/internal/domain/cart"
	"github.com/your-org/storefront-backend/internal/domain/order"
	"github.com/your-org/storefront-backend/internal/domain/product"
	"github.com/your-org/storefront-backend/internal/infrastructure/database/memory"
	redisdb "github.com/your-org/storefront-backend/internal/infrastructure/database/redis"
	httpserver "github.com/your-org/storefront-backend/internal/interfaces/http"
	"github.com/your-org/storefront-backend/internal/interfaces/http/routes"
	"github.com/your-org/storefront-backend/internal/pkg/metrics"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeRenderer struct {
	err error
}

func (f fakeRenderer) GenerateReceipt(o *order.Order) (*bytes.Buffer, error) {
	if f.err != nil {
		return nil, f.err
	}
	return bytes.NewBufferString("%PDF-1.4 " + o.ID), nil
}

type testEnv struct {
	handler http.Handler
	store   *memory.Store
	mug     product.Product
	apron   product.Product
}

type envOption func(*httpserver.Dependencies)

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Name: "storefront-api", Version: "test", Environment: "test"},
		Server: config.ServerConfig{
			BasePath:       "/api",
			RequestTimeout: 5 * time.Second,
			MaxBodyBytes:   1 << 20,
		},
		Security: config.SecurityConfig{CORSAllowedOrigins: []string{"*"}},
	}
}

func newTestEnv(t *testing.T, opts ...envOption) *testEnv {
	t.Helper()

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	store := memory.NewStore()
	mug := store.PutProduct(product.Product{Name: "Mug", Price: decimal.RequireFromString("10.00"), Stock: 5})
	apron := store.PutProduct(product.Product{Name: "Apron", Price: decimal.RequireFromString("2.50"), Stock: 5})

	deps := httpserver.Dependencies{
		Dependencies: routes.Dependencies{
			Products: product.NewService(store),
			Cart:     cart.NewService(store, nil, logger),
			Orders:   order.NewService(store, nil, logger),
			Receipts: fakeRenderer{},
			Logger:   logger,
		},
		Store:   store,
		Metrics: metrics.New(),
	}
	for _, opt := range opts {
		opt(&deps)
	}

	return &testEnv{
		handler: httpserver.NewServer(testConfig(), deps).Handler(),
		store:   store,
		mug:     mug,
		apron:   apron,
	}
}

func (e *testEnv) do(t *testing.T, method, path string, body interface{}, headers ...string) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = strings.NewReader(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	w := httptest.NewRecorder()
	e.handler.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func TestCartToCheckoutFlow(t *testing.T) {
	env := newTestEnv(t)

	// Add 2 mugs
	w := env.do(t, http.MethodPost, "/api/cart", gin.H{"productId": env.mug.ID, "quantity": 2, "sessionId": "S"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	body := decode(t, w)
	assert.Equal(t, "Item added to cart", body["message"])
	itemID := body["data"].(map[string]interface{})["id"].(string)

	// Add 3 more of the same product
	w = env.do(t, http.MethodPost, "/api/cart", gin.H{"productId": env.mug.ID, "quantity": 3, "sessionId": "S"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body = decode(t, w)
	assert.Equal(t, "Cart updated", body["message"])
	data := body["data"].(map[string]interface{})
	assert.Equal(t, itemID, data["id"])
	assert.Equal(t, 5.0, data["quantity"])

	// Read the cart
	w = env.do(t, http.MethodGet, "/api/cart?sessionId=S", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body = decode(t, w)
	assert.Equal(t, 50.0, body["total"])
	items := body["items"].([]interface{})
	require.Len(t, items, 1)
	line := items[0].(map[string]interface{})
	assert.Equal(t, "Mug", line["name"])
	assert.Equal(t, 10.0, line["price"])
	assert.Equal(t, 50.0, line["subtotal"])

	// Checkout
	w = env.do(t, http.MethodPost, "/api/checkout", gin.H{"customerName": "Jane", "customerEmail": "j@x.com", "sessionId": "S"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	body = decode(t, w)
	assert.Equal(t, "Order placed successfully", body["message"])
	receipt := body["receipt"].(map[string]interface{})
	assert.Equal(t, 50.0, receipt["total"])
	assert.Equal(t, "Jane", receipt["customerName"])
	assert.Equal(t, "j@x.com", receipt["customerEmail"])
	assert.NotEmpty(t, receipt["timestamp"])
	require.Len(t, receipt["items"], 1)
	orderID := receipt["orderId"].(string)

	// The cart is now empty
	w = env.do(t, http.MethodGet, "/api/cart?sessionId=S", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"items":[],"total":0}`, w.Body.String())

	// The order is readable and keeps its snapshot
	w = env.do(t, http.MethodGet, "/api/orders/"+orderID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	body = decode(t, w)
	stored := body["data"].(map[string]interface{})
	assert.Equal(t, orderID, stored["id"])
	assert.Equal(t, 50.0, stored["total"])

	// And its receipt downloads as a PDF
	w = env.do(t, http.MethodGet, "/api/orders/"+orderID+"/receipt", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.Equal(t, "attachment; filename=receipt-"+orderID+".pdf", w.Header().Get("Content-Disposition"))
	assert.True(t, strings.HasPrefix(w.Body.String(), "%PDF"))
}

func TestListProducts(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/api/products", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var products []map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &products))
	require.Len(t, products, 2)
	assert.Equal(t, "Apron", products[0]["name"])
	assert.Equal(t, 2.5, products[0]["price"])
	assert.Equal(t, "Mug", products[1]["name"])
}

func TestCartValidation(t *testing.T) {
	env := newTestEnv(t)

	created, _, err := env.store.UpsertItem(context.Background(), "S", env.apron.ID, 1)
	require.NoError(t, err)

	tests := []struct {
		name    string
		method  string
		path    string
		body    interface{}
		status  int
		message string
	}{
		{"missing session id", http.MethodGet, "/api/cart", nil, http.StatusBadRequest, "Session ID required"},
		{"missing add fields", http.MethodPost, "/api/cart", gin.H{"productId": env.mug.ID}, http.StatusBadRequest, "Missing required fields"},
		{"empty add body", http.MethodPost, "/api/cart", nil, http.StatusBadRequest, "Missing required fields"},
		{"malformed json", http.MethodPost, "/api/cart", `{"productId":`, http.StatusBadRequest, "Invalid request body"},
		{"unknown product", http.MethodPost, "/api/cart", gin.H{"productId": "nope", "quantity": 1, "sessionId": "S"}, http.StatusNotFound, "product nope not found"},
		{"zero quantity update", http.MethodPut, "/api/cart/" + created.ID, gin.H{"quantity": 0}, http.StatusBadRequest, "Invalid quantity"},
		{"missing quantity update", http.MethodPut, "/api/cart/" + created.ID, gin.H{}, http.StatusBadRequest, "Invalid quantity"},
		{"add quantity above limit", http.MethodPost, "/api/cart", gin.H{"productId": env.mug.ID, "quantity": cart.MaxQuantity + 1, "sessionId": "S"}, http.StatusBadRequest, "Invalid quantity"},
		{"update quantity above limit", http.MethodPut, "/api/cart/" + created.ID, gin.H{"quantity": cart.MaxQuantity + 1}, http.StatusBadRequest, "Invalid quantity"},
		{"update unknown item", http.MethodPut, "/api/cart/nope", gin.H{"quantity": 2}, http.StatusNotFound, "cart item nope not found"},
		{"checkout missing fields", http.MethodPost, "/api/checkout", gin.H{"sessionId": "S"}, http.StatusBadRequest, "Missing required fields"},
		{"checkout empty cart", http.MethodPost, "/api/checkout", gin.H{"customerName": "A", "customerEmail": "a@x.com", "sessionId": "empty"}, http.StatusBadRequest, "Cart is empty"},
		{"unknown order", http.MethodGet, "/api/orders/nope", nil, http.StatusNotFound, "order nope not found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(t, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.status, w.Code, w.Body.String())
			assert.Equal(t, tt.message, decode(t, w)["error"])
		})
	}
}

func TestUpdateAndRemoveCartItem(t *testing.T) {
	env := newTestEnv(t)

	item, _, err := env.store.UpsertItem(context.Background(), "S", env.mug.ID, 1)
	require.NoError(t, err)

	w := env.do(t, http.MethodPut, "/api/cart/"+item.ID, gin.H{"quantity": 4})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decode(t, w)
	assert.Equal(t, "Quantity updated", body["message"])
	assert.Equal(t, 4.0, body["data"].(map[string]interface{})["quantity"])

	w = env.do(t, http.MethodDelete, "/api/cart/"+item.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"Item removed from cart"}`, w.Body.String())

	// Removing again still succeeds
	w = env.do(t, http.MethodDelete, "/api/cart/"+item.ID, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodGet, "/api/cart?sessionId=S", nil)
	assert.JSONEq(t, `{"items":[],"total":0}`, w.Body.String())
}

func TestCheckoutIdempotencyReplay(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	client := redisdb.NewFromClient(rdb)

	var store *memory.Store
	env := newTestEnv(t, func(d *httpserver.Dependencies) {
		store = d.Store.(*memory.Store)
		d.Orders = order.NewService(store, redisdb.NewIdempotencyStore(client, time.Hour), d.Logger)
		d.Redis = client
	})

	_, _, err := store.UpsertItem(context.Background(), "S", env.mug.ID, 1)
	require.NoError(t, err)

	req := gin.H{"customerName": "Jane", "customerEmail": "j@x.com", "sessionId": "S"}
	first := env.do(t, http.MethodPost, "/api/checkout", req, "Idempotency-Key", "k-1")
	require.Equal(t, http.StatusCreated, first.Code, first.Body.String())
	assert.Empty(t, first.Header().Get("Idempotent-Replayed"))

	second := env.do(t, http.MethodPost, "/api/checkout", req, "Idempotency-Key", "k-1")
	require.Equal(t, http.StatusCreated, second.Code, second.Body.String())
	assert.Equal(t, "true", second.Header().Get("Idempotent-Replayed"))

	firstReceipt := decode(t, first)["receipt"].(map[string]interface{})
	secondReceipt := decode(t, second)["receipt"].(map[string]interface{})
	assert.Equal(t, firstReceipt["orderId"], secondReceipt["orderId"])
	assert.Equal(t, 1, store.CountOrders())

	// Without the key the now-empty cart is rejected
	third := env.do(t, http.MethodPost, "/api/checkout", req)
	assert.Equal(t, http.StatusBadRequest, third.Code)

	w := env.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCORSAndUnknownRoutes(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodOptions, "/api/cart", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Body.String())
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "GET, POST, PUT, DELETE, OPTIONS", w.Header().Get("Access-Control-Allow-Methods"))

	w = env.do(t, http.MethodGet, "/api/products", nil)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	w = env.do(t, http.MethodGet, "/api/nope", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error":"Not found"}`, w.Body.String())

	w = env.do(t, http.MethodPatch, "/api/cart", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestReceiptRenderFailure(t *testing.T) {
	env := newTestEnv(t, func(d *httpserver.Dependencies) {
		d.Receipts = fakeRenderer{err: errors.New("wkhtmltopdf missing")}
	})

	_, _, err := env.store.UpsertItem(context.Background(), "S", env.mug.ID, 1)
	require.NoError(t, err)
	w := env.do(t, http.MethodPost, "/api/checkout", gin.H{"customerName": "A", "customerEmail": "a@x.com", "sessionId": "S"})
	require.Equal(t, http.StatusCreated, w.Code)
	orderID := decode(t, w)["receipt"].(map[string]interface{})["orderId"].(string)

	w = env.do(t, http.MethodGet, "/api/orders/"+orderID+"/receipt", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"Failed to generate receipt"}`, w.Body.String())
}

type brokenCatalog struct{}

func (brokenCatalog) ListProducts(ctx context.Context) ([]product.Product, error) {
	return nil, errors.New("dial tcp 10.0.0.5:5432: connection refused")
}

func TestStoreFailureNamesOperation(t *testing.T) {
	env := newTestEnv(t, func(d *httpserver.Dependencies) {
		d.Products = product.NewService(brokenCatalog{})
	})

	w := env.do(t, http.MethodGet, "/api/products", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"Failed to list products"}`, w.Body.String())
	assert.NotContains(t, w.Body.String(), "10.0.0.5")
}

func TestCheckoutKeyInProgress(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	client := redisdb.NewFromClient(rdb)

	env := newTestEnv(t, func(d *httpserver.Dependencies) {
		idem := redisdb.NewIdempotencyStore(client, time.Hour)
		d.Orders = order.NewService(d.Store.(*memory.Store), idem, d.Logger).WithIdempotencyWait(50 * time.Millisecond)
		d.Redis = client
	})

	_, _, err := env.store.UpsertItem(context.Background(), "S", env.mug.ID, 1)
	require.NoError(t, err)
	require.NoError(t, mr.Set("idem:checkout:busy", "pending"))

	req := gin.H{"customerName": "Jane", "customerEmail": "j@x.com", "sessionId": "S"}
	w := env.do(t, http.MethodPost, "/api/checkout", req, "Idempotency-Key", "busy")
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.JSONEq(t, `{"error":"Checkout already in progress"}`, w.Body.String())
	assert.Zero(t, env.store.CountOrders())
}

func TestOperationalEndpoints(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "healthy", decode(t, w)["status"])

	w = env.do(t, http.MethodGet, "/ready", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ready", decode(t, w)["status"])

	env.do(t, http.MethodGet, "/api/products", nil)
	w = env.do(t, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `storefront_http_requests_total{method="GET",route="/api/products",status="200"} 1`)
}

func TestHealth_RedisDown(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	mr.Close()

	env := newTestEnv(t, func(d *httpserver.Dependencies) {
		d.Redis = redisdb.NewFromClient(rdb)
	})

	w := env.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "redis ping failed", decode(t, w)["error"])
}
