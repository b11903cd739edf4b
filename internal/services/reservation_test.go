package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dinehall/internal/apperr"
	"dinehall/internal/models"
)

func reservationTime() time.Time {
	return time.Now().Add(2 * time.Hour).Truncate(time.Second)
}

func TestCreateReservationReservesTable(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	table := env.addTable(t, 1)

	result, err := env.reservations.Create(ctx, &models.CreateReservationRequest{
		Table:           table.ID,
		ReservationTime: reservationTime(),
		Guests:          2,
	})
	require.NoError(t, err)

	assert.Equal(t, models.ReservationPending, result.Reservation.Status)
	assert.Equal(t, models.TableReserved, result.Table.Status)
	require.NotNil(t, result.Table.ReservationID)
	assert.Equal(t, result.Reservation.ID, *result.Table.ReservationID)

	assert.Contains(t, env.events.types(), models.EventReservationCreated)
}

func TestCreateReservationRejectsOccupiedTable(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	dish := env.addFood(t, "Burger", "10.00")
	table := env.addTable(t, 1)
	_, err := env.orders.Create(ctx, &models.CreateOrderRequest{
		Table: table.ID,
		Items: []models.OrderItemInput{{Food: dish.ID, Quantity: 1}},
	})
	require.NoError(t, err)

	_, err = env.reservations.Create(ctx, &models.CreateReservationRequest{
		Table:           table.ID,
		ReservationTime: reservationTime(),
		Guests:          2,
	})
	var pre *apperr.PreconditionError
	require.ErrorAs(t, err, &pre)
	assert.Equal(t, "table", pre.Entity)
}

func TestCreateReservationValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	table := env.addTable(t, 1)

	var validation *apperr.ValidationError

	_, err := env.reservations.Create(ctx, &models.CreateReservationRequest{
		ReservationTime: reservationTime(), Guests: 2,
	})
	require.ErrorAs(t, err, &validation)

	_, err = env.reservations.Create(ctx, &models.CreateReservationRequest{
		Table: table.ID, Guests: 2,
	})
	require.ErrorAs(t, err, &validation)

	_, err = env.reservations.Create(ctx, &models.CreateReservationRequest{
		Table: table.ID, ReservationTime: reservationTime(), Guests: 0,
	})
	require.ErrorAs(t, err, &validation)
}

func TestCancelReservationFreesTable(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	table := env.addTable(t, 1)

	created, err := env.reservations.Create(ctx, &models.CreateReservationRequest{
		Table:           table.ID,
		ReservationTime: reservationTime(),
		Guests:          2,
	})
	require.NoError(t, err)

	result, err := env.reservations.Cancel(ctx, created.Reservation.ID)
	require.NoError(t, err)

	assert.Equal(t, models.ReservationCancelled, result.Reservation.Status)
	require.NotNil(t, result.Reservation.CancelledAt)
	assert.Equal(t, models.TableAvailable, result.Table.Status)
	assert.Nil(t, result.Table.ReservationID)

	assert.Contains(t, env.events.types(), models.EventReservationCancelled)
}

func TestCancelReservationIsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	table := env.addTable(t, 1)

	created, err := env.reservations.Create(ctx, &models.CreateReservationRequest{
		Table:           table.ID,
		ReservationTime: reservationTime(),
		Guests:          2,
	})
	require.NoError(t, err)

	first, err := env.reservations.Cancel(ctx, created.Reservation.ID)
	require.NoError(t, err)

	second, err := env.reservations.Cancel(ctx, created.Reservation.ID)
	require.NoError(t, err)
	assert.Equal(t, first.Reservation.CancelledAt.Unix(), second.Reservation.CancelledAt.Unix())
}

func TestCancelKeepsTableReservedForRemainingPending(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	table := env.addTable(t, 1)

	first, err := env.reservations.Create(ctx, &models.CreateReservationRequest{
		Table:           table.ID,
		ReservationTime: reservationTime(),
		Guests:          2,
	})
	require.NoError(t, err)

	// A second pending booking on the same (already reserved) table goes
	// straight into the store; the table service would refuse the hold.
	second := &models.Reservation{
		ID:              "second-booking",
		TableID:         table.ID,
		ReservationTime: reservationTime().Add(time.Hour),
		Guests:          4,
		Status:          models.ReservationPending,
		CreatedAt:       time.Now().Add(time.Minute),
	}
	require.NoError(t, env.store.SaveReservation(ctx, second))

	result, err := env.reservations.Cancel(ctx, first.Reservation.ID)
	require.NoError(t, err)

	assert.Equal(t, models.TableReserved, result.Table.Status, "table stays reserved for the remaining booking")
	require.NotNil(t, result.Table.ReservationID)
	assert.Equal(t, second.ID, *result.Table.ReservationID)
}

func TestConfirmByTableSeatsParty(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	table := env.addTable(t, 1)

	created, err := env.reservations.Create(ctx, &models.CreateReservationRequest{
		Table:           table.ID,
		ReservationTime: reservationTime(),
		Guests:          2,
	})
	require.NoError(t, err)

	result, err := env.reservations.ConfirmByTable(ctx, table.ID)
	require.NoError(t, err)

	require.Len(t, result.Reservations, 1)
	assert.Equal(t, created.Reservation.ID, result.Reservations[0].ID)
	assert.Equal(t, models.ReservationConfirmed, result.Reservations[0].Status)
	assert.Equal(t, models.TableOccupied, result.Table.Status)

	assert.Contains(t, env.events.types(), models.EventReservationConfirmed)
}

func TestConfirmByTableWithNoPendingReservations(t *testing.T) {
	env := newTestEnv(t)
	table := env.addTable(t, 1)

	_, err := env.reservations.ConfirmByTable(context.Background(), table.ID)
	var notFound *apperr.NotFoundError
	require.ErrorAs(t, err, &notFound)
}

func TestSetStatusConfirmSeatsParty(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	table := env.addTable(t, 1)

	created, err := env.reservations.Create(ctx, &models.CreateReservationRequest{
		Table:           table.ID,
		ReservationTime: reservationTime(),
		Guests:          2,
	})
	require.NoError(t, err)

	result, err := env.reservations.SetStatus(ctx, created.Reservation.ID, &models.UpdateReservationStatusRequest{Status: "confirmed"})
	require.NoError(t, err)
	assert.Equal(t, models.ReservationConfirmed, result.Reservation.Status)
	assert.Equal(t, models.TableOccupied, result.Table.Status)

	_, err = env.reservations.SetStatus(ctx, created.Reservation.ID, &models.UpdateReservationStatusRequest{Status: "pending"})
	var pre *apperr.PreconditionError
	require.ErrorAs(t, err, &pre)
}

func TestSetStatusRejectsUnknownStatus(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.reservations.SetStatus(context.Background(), "any", &models.UpdateReservationStatusRequest{Status: "maybe"})
	var validation *apperr.ValidationError
	require.ErrorAs(t, err, &validation)
}
