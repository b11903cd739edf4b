package services

import (
	"context"
	"errors"
	"fmt"

	"dinehall/internal/apperr"
	"dinehall/internal/logger"
	"dinehall/internal/models"
	"dinehall/internal/storage"
	"dinehall/internal/utils"
)

// TableLocker is what the table service needs from the redis lease.
type TableLocker interface {
	AcquireTable(ctx context.Context, tableID string) (string, bool, error)
	ReleaseTable(ctx context.Context, tableID, token string) error
}

// TableService is the only writer of table status. Orders and reservations
// ask it for transitions; they never touch the table record themselves.
// That single-writer rule is what keeps occupancy consistent with the order
// and reservation lifecycles.
type TableService struct {
	store  storage.Store
	locker TableLocker
	log    *logger.Logger
}

func NewTableService(store storage.Store, locker TableLocker, log *logger.Logger) *TableService {
	return &TableService{
		store:  store,
		locker: locker,
		log:    log,
	}
}

func (s *TableService) Create(ctx context.Context, req *models.CreateTableRequest) (*models.Table, error) {
	if req.TableNumber <= 0 {
		return nil, apperr.Validationf("table number must be positive")
	}
	if req.Seats <= 0 {
		return nil, apperr.Validationf("a table needs at least one seat")
	}

	table := &models.Table{
		ID:          utils.NewID(),
		TableNumber: req.TableNumber,
		Floor:       req.Floor,
		Seats:       req.Seats,
		IsVIP:       req.IsVIP,
		Status:      models.TableAvailable,
	}
	if err := s.store.SaveTable(ctx, table); err != nil {
		return nil, fmt.Errorf("failed to save table: %w", err)
	}

	s.log.LogTable("CREATE", table.ID, fmt.Sprintf("Table %d created on floor %d", table.TableNumber, table.Floor))
	return table, nil
}

func (s *TableService) Get(ctx context.Context, id string) (*models.Table, error) {
	table, err := s.store.GetTable(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, apperr.NotFound("table", id)
		}
		return nil, err
	}
	return table, nil
}

func (s *TableService) List(ctx context.Context) ([]*models.Table, error) {
	return s.store.ListTables(ctx)
}

// withTableLock runs fn under the per-table redis lease. Failure to acquire
// is transient: the caller can simply retry the request.
func (s *TableService) withTableLock(ctx context.Context, tableID string, fn func() error) error {
	if s.locker == nil {
		return fn()
	}
	token, ok, err := s.locker.AcquireTable(ctx, tableID)
	if err != nil {
		return apperr.Transient("acquire table lock", err)
	}
	if !ok {
		return apperr.Transient("acquire table lock", errors.New("table is locked by another request"))
	}
	defer s.locker.ReleaseTable(ctx, tableID, token)
	return fn()
}

// OccupyForOrder claims the table for a newly created order. One active
// order per table: an occupied table rejects the claim.
func (s *TableService) OccupyForOrder(ctx context.Context, tableID, orderID string) error {
	return s.withTableLock(ctx, tableID, func() error {
		table, err := s.Get(ctx, tableID)
		if err != nil {
			return err
		}
		if table.Status == models.TableOccupied {
			return apperr.Precondition("table", tableID, string(table.Status), "table already has an active order")
		}

		err = s.store.TransitionTable(ctx, tableID, storage.TableTransition{
			Expect:       []models.TableStatus{models.TableAvailable, models.TableReserved},
			To:           models.TableOccupied,
			CurrentOrder: &orderID,
		})
		if errors.Is(err, storage.ErrConflict) {
			// Someone else seated the table between our read and write.
			return apperr.Precondition("table", tableID, string(models.TableOccupied), "table already has an active order")
		}
		if err != nil {
			return fmt.Errorf("failed to occupy table: %w", err)
		}

		s.log.LogTable("OCCUPY", tableID, fmt.Sprintf("Occupied by order %s", orderID))
		return nil
	})
}

// ReleaseForOrder undoes OccupyForOrder when the order write that followed
// it failed. Best effort compensation.
func (s *TableService) ReleaseForOrder(ctx context.Context, tableID, orderID string) {
	empty := ""
	err := s.store.TransitionTable(ctx, tableID, storage.TableTransition{
		Expect:       []models.TableStatus{models.TableOccupied},
		To:           models.TableAvailable,
		CurrentOrder: &empty,
	})
	if err != nil {
		s.log.Error("TABLE", fmt.Sprintf("Failed to roll back occupancy of table %s after order %s: %v", tableID, orderID, err))
	}
}

// ReleaseAfterOrder frees the table once its order settled, unless another
// active order still holds it. totalServed counts each settled seating.
func (s *TableService) ReleaseAfterOrder(ctx context.Context, order *models.Order) error {
	others, err := s.store.ListOrdersByTable(ctx, order.TableID)
	if err != nil {
		return apperr.Transient("list active orders for table", err)
	}
	for _, o := range others {
		if o.ID == order.ID {
			continue
		}
		switch o.Status {
		case models.OrderPending, models.OrderPreparing, models.OrderServed:
			s.log.LogTable("HOLD", order.TableID, fmt.Sprintf("Order %s still active, table stays occupied", o.ID))
			return nil
		}
	}

	empty := ""
	err = s.store.TransitionTable(ctx, order.TableID, storage.TableTransition{
		Expect:       []models.TableStatus{models.TableOccupied},
		To:           models.TableAvailable,
		CurrentOrder: &empty,
		BumpServed:   true,
	})
	if errors.Is(err, storage.ErrConflict) {
		table, gerr := s.store.GetTable(ctx, order.TableID)
		if gerr == nil && table.Status == models.TableAvailable {
			return nil // already freed
		}
		return apperr.Transient("release table", err)
	}
	if errors.Is(err, storage.ErrNotFound) {
		return apperr.NotFound("table", order.TableID)
	}
	if err != nil {
		return fmt.Errorf("failed to release table: %w", err)
	}

	s.log.LogTable("RELEASE", order.TableID, fmt.Sprintf("Freed after order %s settled", order.ID))
	return nil
}

// OccupyForArrival seats an arriving party against its reservation. This is
// the one table write driven by the reservation workflow instead of an
// order event. Idempotent if the table is already occupied.
func (s *TableService) OccupyForArrival(ctx context.Context, tableID string) (*models.Table, error) {
	var table *models.Table
	err := s.withTableLock(ctx, tableID, func() error {
		err := s.store.TransitionTable(ctx, tableID, storage.TableTransition{
			Expect: []models.TableStatus{models.TableReserved, models.TableAvailable},
			To:     models.TableOccupied,
		})
		if err != nil && !errors.Is(err, storage.ErrConflict) {
			if errors.Is(err, storage.ErrNotFound) {
				return apperr.NotFound("table", tableID)
			}
			return fmt.Errorf("failed to occupy table: %w", err)
		}

		table, err = s.store.GetTable(ctx, tableID)
		if err != nil {
			return fmt.Errorf("failed to reload table: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.LogTable("ARRIVAL", tableID, "Party seated, table occupied")
	return table, nil
}

// Reserve marks an available table reserved for a new reservation.
func (s *TableService) Reserve(ctx context.Context, tableID, reservationID string) error {
	return s.withTableLock(ctx, tableID, func() error {
		table, err := s.Get(ctx, tableID)
		if err != nil {
			return err
		}
		if table.Status != models.TableAvailable {
			return apperr.Precondition("table", tableID, string(table.Status), "only an available table can be reserved")
		}

		err = s.store.TransitionTable(ctx, tableID, storage.TableTransition{
			Expect:      []models.TableStatus{models.TableAvailable},
			To:          models.TableReserved,
			Reservation: &reservationID,
		})
		if errors.Is(err, storage.ErrConflict) {
			return apperr.Precondition("table", tableID, string(table.Status), "table was claimed by a concurrent request")
		}
		if err != nil {
			return fmt.Errorf("failed to reserve table: %w", err)
		}

		s.log.LogTable("RESERVE", tableID, fmt.Sprintf("Reserved for reservation %s", reservationID))
		return nil
	})
}

// CancelReservationHold frees the table after a reservation cancellation,
// unless another pending reservation still needs it — in that case the
// table stays reserved and its reservation pointer moves to the oldest
// remaining booking.
func (s *TableService) CancelReservationHold(ctx context.Context, tableID, cancelledID string) (*models.Table, error) {
	var table *models.Table
	err := s.withTableLock(ctx, tableID, func() error {
		pending, err := s.store.ListReservationsByTable(ctx, tableID, models.ReservationPending)
		if err != nil {
			return apperr.Transient("list pending reservations", err)
		}

		var remaining *models.Reservation
		for _, r := range pending {
			if r.ID != cancelledID {
				remaining = r
				break
			}
		}

		if remaining != nil {
			err = s.store.TransitionTable(ctx, tableID, storage.TableTransition{
				Expect:      []models.TableStatus{models.TableReserved},
				To:          models.TableReserved,
				Reservation: &remaining.ID,
			})
			if err == nil {
				s.log.LogTable("REASSIGN", tableID, fmt.Sprintf("Reservation hold moved to %s", remaining.ID))
			}
		} else {
			empty := ""
			err = s.store.TransitionTable(ctx, tableID, storage.TableTransition{
				Expect:      []models.TableStatus{models.TableReserved},
				To:          models.TableAvailable,
				Reservation: &empty,
			})
			if err == nil {
				s.log.LogTable("RELEASE", tableID, fmt.Sprintf("Freed after reservation %s cancelled", cancelledID))
			}
		}
		if err != nil && !errors.Is(err, storage.ErrConflict) {
			if errors.Is(err, storage.ErrNotFound) {
				return apperr.NotFound("table", tableID)
			}
			return fmt.Errorf("failed to update table after cancellation: %w", err)
		}
		// ErrConflict means the table is occupied or already free; either
		// way the cancellation itself stands.

		table, err = s.store.GetTable(ctx, tableID)
		if err != nil {
			return fmt.Errorf("failed to reload table: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return table, nil
}
