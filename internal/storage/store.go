package storage

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"dinehall/internal/models"
)

var (
	// ErrNotFound is returned when an id does not resolve to a record.
	ErrNotFound = errors.New("record not found")
	// ErrConflict is returned when a conditional update matched no row,
	// i.e. the record moved out of the expected state under us.
	ErrConflict = errors.New("conditional update conflict")
)

// TableTransition describes a conditional table-status write. The update only
// applies while the table is in one of the Expect statuses (empty = any),
// which is what keeps concurrent occupancy flips from clobbering each other.
type TableTransition struct {
	Expect []models.TableStatus
	To     models.TableStatus
	// CurrentOrder / Reservation update the reference when non-nil; a
	// pointer to the empty string clears it.
	CurrentOrder *string
	Reservation  *string
	// BumpServed increments totalServed as part of the same write.
	BumpServed bool
}

type Store interface {
	// Food catalog (external collaborator boundary: price lookup).
	SaveFood(ctx context.Context, food *models.Food) error
	GetFood(ctx context.Context, id string) (*models.Food, error)
	ListFoods(ctx context.Context) ([]*models.Food, error)
	// FoodPrices returns prices for the given ids; missing ids are simply
	// absent from the map.
	FoodPrices(ctx context.Context, ids []string) (map[string]decimal.Decimal, error)

	// Orders.
	SaveOrder(ctx context.Context, order *models.Order) error
	UpdateOrder(ctx context.Context, order *models.Order) error
	GetOrder(ctx context.Context, id string) (*models.Order, error)
	GetOrders(ctx context.Context, ids []string) ([]*models.Order, error)
	ListOrders(ctx context.Context) ([]*models.Order, error)
	ListOrdersByTable(ctx context.Context, tableID string) ([]*models.Order, error)
	// UpdateItemStatus flips a single item row from one status to another
	// in one conditional write. ErrConflict means the row was not in the
	// expected prior status anymore.
	UpdateItemStatus(ctx context.Context, orderID, itemID string, from, to models.ItemStatus) error
	// SetOrderDerived persists the recomputed total and derived status in
	// a single write, without touching the item rows.
	SetOrderDerived(ctx context.Context, orderID string, total decimal.Decimal, status models.OrderStatus) error

	// Tables.
	SaveTable(ctx context.Context, table *models.Table) error
	GetTable(ctx context.Context, id string) (*models.Table, error)
	ListTables(ctx context.Context) ([]*models.Table, error)
	TransitionTable(ctx context.Context, tableID string, tr TableTransition) error

	// Reservations.
	SaveReservation(ctx context.Context, r *models.Reservation) error
	GetReservation(ctx context.Context, id string) (*models.Reservation, error)
	ListReservations(ctx context.Context) ([]*models.Reservation, error)
	// ListReservationsByTable filters by status when status is non-empty,
	// oldest first.
	ListReservationsByTable(ctx context.Context, tableID string, status models.ReservationStatus) ([]*models.Reservation, error)
	UpdateReservation(ctx context.Context, r *models.Reservation) error

	// Payments. There is deliberately no DeletePayment.
	SavePayment(ctx context.Context, payment *models.Payment) error
	GetPayment(ctx context.Context, id string) (*models.Payment, error)
	UpdatePayment(ctx context.Context, payment *models.Payment) error
	ListPayments(ctx context.Context, limit, offset int) ([]*models.Payment, error)
	CountPayments(ctx context.Context) (int, error)

	HealthCheck(ctx context.Context) error
	Close() error
}
