package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"dinehall/internal/apperr"
	"dinehall/internal/logger"
	"dinehall/internal/models"
	"dinehall/internal/storage"
	"dinehall/internal/utils"
)

// ReservationService runs the booking workflow. Every reservation mutation
// that affects seating goes through the table service, so the table's status
// and reservation pointer always move together with the booking.
type ReservationService struct {
	store    storage.Store
	tables   *TableService
	producer EventPublisher
	log      *logger.Logger
}

func NewReservationService(store storage.Store, tables *TableService, producer EventPublisher, log *logger.Logger) *ReservationService {
	return &ReservationService{
		store:    store,
		tables:   tables,
		producer: producer,
		log:      log,
	}
}

func (s *ReservationService) Create(ctx context.Context, req *models.CreateReservationRequest) (*models.ReservationResult, error) {
	if req.Table == "" {
		return nil, apperr.Validationf("table is required")
	}
	if req.ReservationTime.IsZero() {
		return nil, apperr.Validationf("reservationTime is required")
	}
	if req.Guests < 1 {
		return nil, apperr.Validationf("guests must be at least 1")
	}

	reservation := &models.Reservation{
		ID:              utils.NewID(),
		TableID:         req.Table,
		UserID:          req.User,
		ReservationTime: req.ReservationTime,
		Guests:          req.Guests,
		Note:            req.Note,
		OrderID:         req.Order,
		Status:          models.ReservationPending,
		CreatedAt:       time.Now(),
	}

	// Reserve the table first, then write the booking; on a failed write
	// the hold is compensated away so the table does not stay reserved
	// for a reservation that never existed.
	if err := s.tables.Reserve(ctx, req.Table, reservation.ID); err != nil {
		return nil, err
	}
	if err := s.store.SaveReservation(ctx, reservation); err != nil {
		if _, cerr := s.tables.CancelReservationHold(ctx, req.Table, reservation.ID); cerr != nil {
			s.log.Error("RESERVATION", fmt.Sprintf("Failed to roll back hold on table %s: %v", req.Table, cerr))
		}
		return nil, apperr.Transient("save reservation", err)
	}

	table, err := s.tables.Get(ctx, req.Table)
	if err != nil {
		return nil, err
	}

	s.log.LogReservation("CREATE", reservation.ID, fmt.Sprintf("Table %s for %d guests at %s", req.Table, req.Guests, req.ReservationTime.Format(time.RFC3339)))
	publishEvent(s.producer, s.log, &models.LifecycleEvent{
		Type:        models.EventReservationCreated,
		EntityID:    reservation.ID,
		Reservation: reservation,
	})
	return &models.ReservationResult{Reservation: reservation, Table: table}, nil
}

// ConfirmByTable is the walk-up flow: the party arrives, every pending
// booking on the table confirms, and the table flips to occupied.
func (s *ReservationService) ConfirmByTable(ctx context.Context, tableID string) (*models.ConfirmByTableResult, error) {
	if _, err := s.tables.Get(ctx, tableID); err != nil {
		return nil, err
	}

	pending, err := s.store.ListReservationsByTable(ctx, tableID, models.ReservationPending)
	if err != nil {
		return nil, apperr.Transient("list pending reservations", err)
	}
	if len(pending) == 0 {
		return nil, apperr.NotFound("pending reservation for table", tableID)
	}

	confirmed := make([]*models.Reservation, 0, len(pending))
	for _, r := range pending {
		r.Status = models.ReservationConfirmed
		if err := s.store.UpdateReservation(ctx, r); err != nil {
			return nil, apperr.Transient("confirm reservation", err)
		}
		confirmed = append(confirmed, r)
		publishEvent(s.producer, s.log, &models.LifecycleEvent{
			Type:        models.EventReservationConfirmed,
			EntityID:    r.ID,
			Reservation: r,
		})
	}

	table, err := s.tables.OccupyForArrival(ctx, tableID)
	if err != nil {
		return nil, err
	}

	s.log.LogReservation("CONFIRM", tableID, fmt.Sprintf("%d reservations confirmed, party seated", len(confirmed)))
	return &models.ConfirmByTableResult{Reservations: confirmed, Table: table}, nil
}

// Cancel marks the reservation cancelled and releases or repoints the table
// hold. Cancelling an already-cancelled reservation is a no-op.
func (s *ReservationService) Cancel(ctx context.Context, id string) (*models.ReservationResult, error) {
	reservation, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if reservation.Status == models.ReservationCancelled {
		table, err := s.tables.Get(ctx, reservation.TableID)
		if err != nil {
			return nil, err
		}
		return &models.ReservationResult{Reservation: reservation, Table: table}, nil
	}

	now := time.Now()
	reservation.Status = models.ReservationCancelled
	reservation.CancelledAt = &now
	if err := s.store.UpdateReservation(ctx, reservation); err != nil {
		return nil, apperr.Transient("cancel reservation", err)
	}

	table, err := s.tables.CancelReservationHold(ctx, reservation.TableID, reservation.ID)
	if err != nil {
		return nil, err
	}

	s.log.LogReservation("CANCEL", id, fmt.Sprintf("Cancelled, table %s now %s", table.ID, table.Status))
	publishEvent(s.producer, s.log, &models.LifecycleEvent{
		Type:        models.EventReservationCancelled,
		EntityID:    reservation.ID,
		Reservation: reservation,
	})
	return &models.ReservationResult{Reservation: reservation, Table: table}, nil
}

// SetStatus is the generic status endpoint. Confirmed and cancelled carry
// their side effects (seating / releasing the table); pending is only valid
// as a no-op re-set.
func (s *ReservationService) SetStatus(ctx context.Context, id string, req *models.UpdateReservationStatusRequest) (*models.ReservationResult, error) {
	status, err := models.ParseReservationStatus(req.Status)
	if err != nil {
		return nil, apperr.Validationf("%v", err)
	}

	reservation, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	switch status {
	case models.ReservationCancelled:
		return s.Cancel(ctx, id)

	case models.ReservationConfirmed:
		if reservation.Status == models.ReservationCancelled {
			return nil, apperr.Precondition("reservation", id, string(reservation.Status), "a cancelled reservation cannot be confirmed")
		}
		reservation.Status = models.ReservationConfirmed
		if err := s.store.UpdateReservation(ctx, reservation); err != nil {
			return nil, apperr.Transient("confirm reservation", err)
		}
		table, err := s.tables.OccupyForArrival(ctx, reservation.TableID)
		if err != nil {
			return nil, err
		}
		s.log.LogReservation("CONFIRM", id, "Confirmed, party seated")
		publishEvent(s.producer, s.log, &models.LifecycleEvent{
			Type:        models.EventReservationConfirmed,
			EntityID:    reservation.ID,
			Reservation: reservation,
		})
		return &models.ReservationResult{Reservation: reservation, Table: table}, nil

	default: // pending
		if reservation.Status != models.ReservationPending {
			return nil, apperr.Precondition("reservation", id, string(reservation.Status), "cannot move back to pending")
		}
		table, err := s.tables.Get(ctx, reservation.TableID)
		if err != nil {
			return nil, err
		}
		return &models.ReservationResult{Reservation: reservation, Table: table}, nil
	}
}

func (s *ReservationService) Get(ctx context.Context, id string) (*models.Reservation, error) {
	reservation, err := s.store.GetReservation(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, apperr.NotFound("reservation", id)
		}
		return nil, err
	}
	return reservation, nil
}

func (s *ReservationService) List(ctx context.Context) ([]*models.Reservation, error) {
	return s.store.ListReservations(ctx)
}

func (s *ReservationService) ListByTable(ctx context.Context, tableID string) ([]*models.Reservation, error) {
	return s.store.ListReservationsByTable(ctx, tableID, "")
}
