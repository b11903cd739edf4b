package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dinehall/internal/handlers"
	"dinehall/internal/logger"
	"dinehall/internal/models"
	"dinehall/internal/services"
	"dinehall/internal/storage"
)

type testServer struct {
	router *gin.Engine
	store  *storage.InMemoryStore
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	t.Setenv("LOG_FILE", filepath.Join(t.TempDir(), "test.log"))
	gin.SetMode(gin.TestMode)

	log := logger.NewLogger()
	t.Cleanup(log.Close)

	store := storage.NewInMemoryStore()
	tables := services.NewTableService(store, nil, log)
	orders := services.NewOrderService(store, tables, nil, log)
	payments := services.NewPaymentService(store, orders, nil, log, 8)
	foods := services.NewFoodService(store, log)

	orderHandler := handlers.NewOrderHandler(orders)
	paymentHandler := handlers.NewPaymentHandler(payments)
	tableHandler := handlers.NewTableHandler(tables)
	foodHandler := handlers.NewFoodHandler(foods)

	router := gin.New()
	v1 := router.Group("/api/v1")
	v1.POST("/orders", orderHandler.CreateOrder)
	v1.GET("/orders/:id", orderHandler.GetOrder)
	v1.PATCH("/orders/:id/items/:itemId", orderHandler.UpdateItemStatus)
	v1.POST("/payments", paymentHandler.CreatePayment)
	v1.DELETE("/payments/:id", paymentHandler.DeletePayment)
	v1.POST("/tables", tableHandler.CreateTable)
	v1.POST("/foods", foodHandler.CreateFood)

	return &testServer{router: router, store: store}
}

func (s *testServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder, out any) {
	t.Helper()
	var envelope struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	require.True(t, envelope.Success, rec.Body.String())
	require.NoError(t, json.Unmarshal(envelope.Data, out))
}

func (s *testServer) seedOrder(t *testing.T) *models.Order {
	t.Helper()

	var food models.Food
	rec := s.do(t, http.MethodPost, "/api/v1/foods", gin.H{"name": "Burger", "price": "12.50"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	decodeData(t, rec, &food)

	var table models.Table
	rec = s.do(t, http.MethodPost, "/api/v1/tables", gin.H{"tableNumber": 1, "floor": 1, "seats": 4})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	decodeData(t, rec, &table)

	var order models.Order
	rec = s.do(t, http.MethodPost, "/api/v1/orders", gin.H{
		"table": table.ID,
		"items": []gin.H{{"food": food.ID, "quantity": 2}},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	decodeData(t, rec, &order)
	return &order
}

func TestCreateAndGetOrderOverHTTP(t *testing.T) {
	srv := newTestServer(t)
	order := srv.seedOrder(t)

	rec := srv.do(t, http.MethodGet, "/api/v1/orders/"+order.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var got models.Order
	decodeData(t, rec, &got)
	assert.Equal(t, order.ID, got.ID)
	assert.Equal(t, models.OrderPending, got.Status)
	assert.True(t, got.TotalAmount.Equal(decimal.RequireFromString("25.00")), "got %s", got.TotalAmount)
}

func TestGetMissingOrderReturns404(t *testing.T) {
	srv := newTestServer(t)
	rec := srv.do(t, http.MethodGet, "/api/v1/orders/nope", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestLegacyItemStatusReturns400(t *testing.T) {
	srv := newTestServer(t)
	order := srv.seedOrder(t)

	rec := srv.do(t, http.MethodPatch,
		"/api/v1/orders/"+order.ID+"/items/"+order.Items[0].ID,
		gin.H{"status": "cooking"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "no longer accepted")
}

func TestPaymentOnUnservedOrderReturns409(t *testing.T) {
	srv := newTestServer(t)
	order := srv.seedOrder(t)

	rec := srv.do(t, http.MethodPost, "/api/v1/payments", gin.H{
		"order":  order.ID,
		"method": "cash",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestDeletePaymentReturns403(t *testing.T) {
	srv := newTestServer(t)
	rec := srv.do(t, http.MethodDelete, "/api/v1/payments/any-id", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "append-only")
}
