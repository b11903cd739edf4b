package services_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dinehall/internal/apperr"
	"dinehall/internal/models"
)

func TestCreateOrderComputesTotalAndOccupiesTable(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	burger := env.addFood(t, "Burger", "12.50")
	fries := env.addFood(t, "Fries", "4.25")
	table := env.addTable(t, 1)

	order, err := env.orders.Create(ctx, &models.CreateOrderRequest{
		Table: table.ID,
		Items: []models.OrderItemInput{
			{Food: burger.ID, Quantity: 2},
			{Food: fries.ID, Quantity: 1},
		},
	})
	require.NoError(t, err)

	assert.True(t, mustDecimal(t, "29.25").Equal(order.TotalAmount), "got %s", order.TotalAmount)
	assert.Equal(t, models.OrderPending, order.Status)

	got, err := env.tables.Get(ctx, table.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TableOccupied, got.Status)
	require.NotNil(t, got.CurrentOrderID)
	assert.Equal(t, order.ID, *got.CurrentOrderID)

	assert.Contains(t, env.events.types(), models.EventOrderCreated)
}

func TestCreateOrderCanceledItemsExcludedFromTotal(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	burger := env.addFood(t, "Burger", "10.00")
	table := env.addTable(t, 1)

	order, err := env.orders.Create(ctx, &models.CreateOrderRequest{
		Table: table.ID,
		Items: []models.OrderItemInput{
			{Food: burger.ID, Quantity: 1},
			{Food: burger.ID, Quantity: 3, Status: "canceled"},
		},
	})
	require.NoError(t, err)
	assert.True(t, mustDecimal(t, "10.00").Equal(order.TotalAmount), "got %s", order.TotalAmount)
}

func TestCreateOrderMissingFoodPricesAsZero(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	burger := env.addFood(t, "Burger", "10.00")
	table := env.addTable(t, 1)

	order, err := env.orders.Create(ctx, &models.CreateOrderRequest{
		Table: table.ID,
		Items: []models.OrderItemInput{
			{Food: burger.ID, Quantity: 1},
			{Food: "no-such-food", Quantity: 5},
		},
	})
	require.NoError(t, err)
	assert.True(t, mustDecimal(t, "10.00").Equal(order.TotalAmount), "got %s", order.TotalAmount)
}

func TestCreateOrderRejectsOccupiedTable(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	burger := env.addFood(t, "Burger", "10.00")
	table := env.addTable(t, 1)
	items := []models.OrderItemInput{{Food: burger.ID, Quantity: 1}}

	_, err := env.orders.Create(ctx, &models.CreateOrderRequest{Table: table.ID, Items: items})
	require.NoError(t, err)

	_, err = env.orders.Create(ctx, &models.CreateOrderRequest{Table: table.ID, Items: items})
	var pre *apperr.PreconditionError
	require.ErrorAs(t, err, &pre)
	assert.Equal(t, "table", pre.Entity)
}

func TestCreateOrderRejectsLegacyItemStatus(t *testing.T) {
	env := newTestEnv(t)
	table := env.addTable(t, 1)

	_, err := env.orders.Create(context.Background(), &models.CreateOrderRequest{
		Table: table.ID,
		Items: []models.OrderItemInput{{Food: "f", Quantity: 1, Status: "cooking"}},
	})
	var validation *apperr.ValidationError
	require.ErrorAs(t, err, &validation)
	assert.Contains(t, err.Error(), "no longer accepted")
}

func TestCreateOrderValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	table := env.addTable(t, 1)

	var validation *apperr.ValidationError

	_, err := env.orders.Create(ctx, &models.CreateOrderRequest{Items: []models.OrderItemInput{{Food: "f", Quantity: 1}}})
	require.ErrorAs(t, err, &validation)

	_, err = env.orders.Create(ctx, &models.CreateOrderRequest{Table: table.ID})
	require.ErrorAs(t, err, &validation)

	_, err = env.orders.Create(ctx, &models.CreateOrderRequest{
		Table: table.ID,
		Items: []models.OrderItemInput{{Food: "f", Quantity: 0}},
	})
	require.ErrorAs(t, err, &validation)
}

func TestItemStatusDrivesOrderStatus(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	burger := env.addFood(t, "Burger", "10.00")
	table := env.addTable(t, 1)

	order, err := env.orders.Create(ctx, &models.CreateOrderRequest{
		Table: table.ID,
		Items: []models.OrderItemInput{
			{Food: burger.ID, Quantity: 1},
			{Food: burger.ID, Quantity: 1},
		},
	})
	require.NoError(t, err)

	first, second := order.Items[0].ID, order.Items[1].ID

	order, err = env.orders.UpdateItemStatus(ctx, order.ID, first, &models.UpdateItemStatusRequest{Status: "preparing"})
	require.NoError(t, err)
	assert.Equal(t, models.OrderPreparing, order.Status)

	order, err = env.orders.UpdateItemStatus(ctx, order.ID, first, &models.UpdateItemStatusRequest{Status: "ready"})
	require.NoError(t, err)
	assert.Equal(t, models.OrderPreparing, order.Status, "one item still pending")

	order, err = env.orders.UpdateItemStatus(ctx, order.ID, second, &models.UpdateItemStatusRequest{Status: "ready"})
	require.NoError(t, err)
	assert.Equal(t, models.OrderServed, order.Status)

	assert.Contains(t, env.events.types(), models.EventOrderServed)
}

func TestCanceledItemsDoNotBlockServe(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	burger := env.addFood(t, "Burger", "10.00")
	table := env.addTable(t, 1)

	order, err := env.orders.Create(ctx, &models.CreateOrderRequest{
		Table: table.ID,
		Items: []models.OrderItemInput{
			{Food: burger.ID, Quantity: 1},
			{Food: burger.ID, Quantity: 1},
		},
	})
	require.NoError(t, err)

	order, err = env.orders.UpdateItemStatus(ctx, order.ID, order.Items[0].ID, &models.UpdateItemStatusRequest{Status: "canceled"})
	require.NoError(t, err)
	assert.Equal(t, models.OrderPending, order.Status)

	order, err = env.orders.UpdateItemStatus(ctx, order.ID, order.Items[1].ID, &models.UpdateItemStatusRequest{Status: "ready"})
	require.NoError(t, err)
	assert.Equal(t, models.OrderServed, order.Status)
}

func TestItemStatusRejectsBackwardTransition(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	burger := env.addFood(t, "Burger", "10.00")
	table := env.addTable(t, 1)
	order := env.addServedOrder(t, table.ID, []models.OrderItemInput{{Food: burger.ID, Quantity: 1}})

	_, err := env.orders.UpdateItemStatus(ctx, order.ID, order.Items[0].ID, &models.UpdateItemStatusRequest{Status: "canceled"})
	var pre *apperr.PreconditionError
	require.ErrorAs(t, err, &pre)
	assert.Equal(t, "ready", pre.State)
}

func TestUpdateOrderProtectsItemsInPreparation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	burger := env.addFood(t, "Burger", "10.00")
	fries := env.addFood(t, "Fries", "4.00")
	table := env.addTable(t, 1)

	order, err := env.orders.Create(ctx, &models.CreateOrderRequest{
		Table: table.ID,
		Items: []models.OrderItemInput{
			{Food: burger.ID, Quantity: 1},
			{Food: fries.ID, Quantity: 1},
		},
	})
	require.NoError(t, err)

	_, err = env.orders.UpdateItemStatus(ctx, order.ID, order.Items[0].ID, &models.UpdateItemStatusRequest{Status: "preparing"})
	require.NoError(t, err)

	// Replacement that drops the preparing burger is rejected.
	_, err = env.orders.Update(ctx, order.ID, &models.UpdateOrderRequest{
		Items: []models.OrderItemInput{{Food: fries.ID, Quantity: 2}},
	})
	var pre *apperr.PreconditionError
	require.ErrorAs(t, err, &pre)

	// Keeping it (matched by food id) while adjusting the rest is fine.
	updated, err := env.orders.Update(ctx, order.ID, &models.UpdateOrderRequest{
		Items: []models.OrderItemInput{
			{Food: burger.ID, Quantity: 1},
			{Food: fries.ID, Quantity: 3},
		},
	})
	require.NoError(t, err)
	assert.True(t, mustDecimal(t, "22.00").Equal(updated.TotalAmount), "got %s", updated.TotalAmount)
	assert.Equal(t, models.ItemPreparing, updated.Items[0].Status, "kept item inherits its status")
}

func TestUpdateOrderNilListLeavesListAlone(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	burger := env.addFood(t, "Burger", "10.00")
	table := env.addTable(t, 1)

	order, err := env.orders.Create(ctx, &models.CreateOrderRequest{
		Table: table.ID,
		Items: []models.OrderItemInput{{Food: burger.ID, Quantity: 2}},
	})
	require.NoError(t, err)

	note := "window seat"
	updated, err := env.orders.Update(ctx, order.ID, &models.UpdateOrderRequest{OrderNote: &note})
	require.NoError(t, err)
	assert.Len(t, updated.Items, 1)
	assert.Equal(t, "window seat", updated.OrderNote)
	assert.True(t, mustDecimal(t, "20.00").Equal(updated.TotalAmount))
}

func TestAddItemsReopensServedOrder(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	burger := env.addFood(t, "Burger", "10.00")
	cake := env.addFood(t, "Cake", "6.00")
	table := env.addTable(t, 1)
	order := env.addServedOrder(t, table.ID, []models.OrderItemInput{{Food: burger.ID, Quantity: 1}})

	updated, err := env.orders.AddItems(ctx, order.ID, &models.AddItemsRequest{
		AddedItems: []models.OrderItemInput{{Food: cake.ID, Quantity: 2}},
	})
	require.NoError(t, err)

	assert.Equal(t, models.OrderPending, updated.Status)
	require.Len(t, updated.AddedItems, 1)
	assert.Equal(t, models.ItemPending, updated.AddedItems[0].Status)
	assert.True(t, mustDecimal(t, "22.00").Equal(updated.TotalAmount), "got %s", updated.TotalAmount)
}

func TestAddItemsRequiresServedOrder(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	burger := env.addFood(t, "Burger", "10.00")
	table := env.addTable(t, 1)

	order, err := env.orders.Create(ctx, &models.CreateOrderRequest{
		Table: table.ID,
		Items: []models.OrderItemInput{{Food: burger.ID, Quantity: 1}},
	})
	require.NoError(t, err)

	_, err = env.orders.AddItems(ctx, order.ID, &models.AddItemsRequest{
		AddedItems: []models.OrderItemInput{{Food: burger.ID, Quantity: 1}},
	})
	var pre *apperr.PreconditionError
	require.ErrorAs(t, err, &pre)
}

func TestMergeOrders(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	burger := env.addFood(t, "Burger", "10.00")
	fries := env.addFood(t, "Fries", "4.00")
	tableA := env.addTable(t, 1)
	tableB := env.addTable(t, 2)

	first := env.addServedOrder(t, tableA.ID, []models.OrderItemInput{{Food: burger.ID, Quantity: 1}})
	second := env.addServedOrder(t, tableB.ID, []models.OrderItemInput{{Food: fries.ID, Quantity: 2}})

	merged, err := env.orders.Merge(ctx, &models.MergeOrdersRequest{OrderIDs: []string{first.ID, second.ID}})
	require.NoError(t, err)

	assert.Equal(t, tableA.ID, merged.TableID, "merged order lands on the first order's table")
	assert.Equal(t, models.OrderServed, merged.Status)
	assert.Len(t, merged.Items, 2)
	assert.True(t, mustDecimal(t, "18.00").Equal(merged.TotalAmount), "got %s", merged.TotalAmount)
	assert.Contains(t, merged.OrderNote, first.ID)
	assert.Contains(t, merged.OrderNote, second.ID)

	for _, id := range []string{first.ID, second.ID} {
		src, err := env.orders.Get(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, models.OrderCanceled, src.Status)
		assert.Contains(t, src.OrderNote, merged.ID)
	}

	gotB, err := env.tables.Get(ctx, tableB.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TableAvailable, gotB.Status, "abandoned source table is freed")

	gotA, err := env.tables.Get(ctx, tableA.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TableOccupied, gotA.Status, "merged order keeps its table")

	assert.Contains(t, env.events.types(), models.EventOrderMerged)
}

func TestMergeRequiresAllServed(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	burger := env.addFood(t, "Burger", "10.00")
	tableA := env.addTable(t, 1)
	tableB := env.addTable(t, 2)

	served := env.addServedOrder(t, tableA.ID, []models.OrderItemInput{{Food: burger.ID, Quantity: 1}})
	pending, err := env.orders.Create(ctx, &models.CreateOrderRequest{
		Table: tableB.ID,
		Items: []models.OrderItemInput{{Food: burger.ID, Quantity: 1}},
	})
	require.NoError(t, err)

	_, err = env.orders.Merge(ctx, &models.MergeOrdersRequest{OrderIDs: []string{served.ID, pending.ID}})
	var pre *apperr.PreconditionError
	require.ErrorAs(t, err, &pre)
	assert.Equal(t, pending.ID, pre.ID)
}

func TestMergeValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	var validation *apperr.ValidationError
	_, err := env.orders.Merge(ctx, &models.MergeOrdersRequest{OrderIDs: []string{"only-one"}})
	require.ErrorAs(t, err, &validation)

	_, err = env.orders.Merge(ctx, &models.MergeOrdersRequest{OrderIDs: []string{"a", "a"}})
	require.ErrorAs(t, err, &validation)

	var notFound *apperr.NotFoundError
	_, err = env.orders.Merge(ctx, &models.MergeOrdersRequest{OrderIDs: []string{"a", "b"}})
	require.ErrorAs(t, err, &notFound)
}

func TestCompleteOrderSettlesAndFreesTable(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	burger := env.addFood(t, "Burger", "10.00")
	table := env.addTable(t, 1)
	order := env.addServedOrder(t, table.ID, []models.OrderItemInput{{Food: burger.ID, Quantity: 1}})

	completed, err := env.orders.Complete(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderPaid, completed.Status)

	got, err := env.tables.Get(ctx, table.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TableAvailable, got.Status)
	assert.Nil(t, got.CurrentOrderID)
	assert.Equal(t, 1, got.TotalServed)

	assert.Contains(t, env.events.types(), models.EventOrderCompleted)
}

func TestCompleteRequiresServedOrder(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	burger := env.addFood(t, "Burger", "10.00")
	table := env.addTable(t, 1)

	order, err := env.orders.Create(ctx, &models.CreateOrderRequest{
		Table: table.ID,
		Items: []models.OrderItemInput{{Food: burger.ID, Quantity: 1}},
	})
	require.NoError(t, err)

	_, err = env.orders.Complete(ctx, order.ID)
	var pre *apperr.PreconditionError
	require.ErrorAs(t, err, &pre)
}
