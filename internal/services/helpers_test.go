package services_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"dinehall/internal/logger"
	"dinehall/internal/models"
	"dinehall/internal/services"
	"dinehall/internal/storage"
)

// testEnv wires the full service stack over the in-memory store, with no
// Kafka and no redis: events are collected locally and occupancy locking is
// skipped (single process, no contention in these tests).
type testEnv struct {
	store        *storage.InMemoryStore
	tables       *services.TableService
	orders       *services.OrderService
	payments     *services.PaymentService
	reservations *services.ReservationService
	foods        *services.FoodService
	events       *eventRecorder
}

type eventRecorder struct {
	events []*models.LifecycleEvent
}

func (r *eventRecorder) PublishLifecycleEvent(event *models.LifecycleEvent) error {
	r.events = append(r.events, event)
	return nil
}

func (r *eventRecorder) types() []string {
	out := make([]string, len(r.events))
	for i, e := range r.events {
		out[i] = e.Type
	}
	return out
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	t.Setenv("LOG_FILE", filepath.Join(t.TempDir(), "test.log"))

	log := logger.NewLogger()
	t.Cleanup(log.Close)

	store := storage.NewInMemoryStore()
	recorder := &eventRecorder{}

	tables := services.NewTableService(store, nil, log)
	orders := services.NewOrderService(store, tables, recorder, log)
	payments := services.NewPaymentService(store, orders, recorder, log, 8)
	reservations := services.NewReservationService(store, tables, recorder, log)
	foods := services.NewFoodService(store, log)

	return &testEnv{
		store:        store,
		tables:       tables,
		orders:       orders,
		payments:     payments,
		reservations: reservations,
		foods:        foods,
		events:       recorder,
	}
}

func (e *testEnv) addFood(t *testing.T, name string, price string) *models.Food {
	t.Helper()
	p, err := decimal.NewFromString(price)
	require.NoError(t, err)
	food, err := e.foods.Create(context.Background(), &models.CreateFoodRequest{Name: name, Price: p})
	require.NoError(t, err)
	return food
}

func (e *testEnv) addTable(t *testing.T, number int) *models.Table {
	t.Helper()
	table, err := e.tables.Create(context.Background(), &models.CreateTableRequest{
		TableNumber: number,
		Floor:       1,
		Seats:       4,
	})
	require.NoError(t, err)
	return table
}

// addServedOrder creates an order and drives every item to ready so the
// order derives served.
func (e *testEnv) addServedOrder(t *testing.T, tableID string, items []models.OrderItemInput) *models.Order {
	t.Helper()
	ctx := context.Background()

	order, err := e.orders.Create(ctx, &models.CreateOrderRequest{Table: tableID, Items: items})
	require.NoError(t, err)

	for _, it := range order.Items {
		order, err = e.orders.UpdateItemStatus(ctx, order.ID, it.ID, &models.UpdateItemStatusRequest{Status: "ready"})
		require.NoError(t, err)
	}
	require.Equal(t, models.OrderServed, order.Status)
	return order
}

func mustDecimal(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	require.NoError(t, err)
	return d
}
