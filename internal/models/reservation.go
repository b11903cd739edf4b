package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/uptrace/bun"
)

type ReservationStatus string

const (
	ReservationPending   ReservationStatus = "pending"
	ReservationConfirmed ReservationStatus = "confirmed"
	ReservationCancelled ReservationStatus = "cancelled"
)

func ParseReservationStatus(s string) (ReservationStatus, error) {
	switch v := ReservationStatus(strings.ToLower(strings.TrimSpace(s))); v {
	case ReservationPending, ReservationConfirmed, ReservationCancelled:
		return v, nil
	default:
		return "", fmt.Errorf("invalid reservation status %q", s)
	}
}

type Reservation struct {
	bun.BaseModel `bun:"table:reservations"`

	ID              string            `json:"id" bun:"id,pk"`
	TableID         string            `json:"table" bun:"table_id"`
	UserID          *string           `json:"user,omitempty" bun:"user_id"`
	ReservationTime time.Time         `json:"reservationTime" bun:"reservation_time"`
	Guests          int               `json:"guests" bun:"guests"`
	Note            string            `json:"note" bun:"note"`
	OrderID         *string           `json:"order,omitempty" bun:"order_id"`
	Status          ReservationStatus `json:"status" bun:"status"`
	CreatedAt       time.Time         `json:"createdAt" bun:"created_at"`
	CancelledAt     *time.Time        `json:"cancelledAt,omitempty" bun:"cancelled_at"`
}
