package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderItemInput is one requested line of an order. ID is set when the
// client refers to an existing item row; Status is the raw string so the
// service can reject non-canonical values with a useful error.
type OrderItemInput struct {
	ID       string `json:"id"`
	Food     string `json:"food"`
	Quantity int    `json:"quantity"`
	Note     string `json:"note"`
	Status   string `json:"status"`
}

type CreateOrderRequest struct {
	Table      string           `json:"table"`
	User       *string          `json:"user"`
	Items      []OrderItemInput `json:"items"`
	AddedItems []OrderItemInput `json:"addedItems"`
	OrderNote  string           `json:"orderNote"`
}

// UpdateOrderRequest replaces whole lists. A nil slice means "leave this
// list alone"; an empty non-nil slice is a real (guarded) replacement.
type UpdateOrderRequest struct {
	Items      []OrderItemInput `json:"items"`
	AddedItems []OrderItemInput `json:"addedItems"`
	Status     string           `json:"status"`
	OrderNote  *string          `json:"orderNote"`
}

type UpdateItemStatusRequest struct {
	Status string `json:"status"`
}

type AddItemsRequest struct {
	AddedItems []OrderItemInput `json:"addedItems"`
}

type MergeOrdersRequest struct {
	OrderIDs []string `json:"orderIds"`
}

type CreatePaymentRequest struct {
	Order  string           `json:"order"`
	Method string           `json:"method"`
	Amount *decimal.Decimal `json:"amount"`
	Status string           `json:"status"`
}

type UpdatePaymentRequest struct {
	Status string     `json:"status"`
	PaidAt *time.Time `json:"paidAt"`
}

// PaymentPage is the paginated payment listing shape.
type PaymentPage struct {
	Payments []*Payment `json:"payments"`
	Total    int        `json:"total"`
	Page     int        `json:"page"`
	Pages    int        `json:"pages"`
	Limit    int        `json:"limit"`
}

type CreateReservationRequest struct {
	Table           string    `json:"table"`
	User            *string   `json:"user"`
	ReservationTime time.Time `json:"reservationTime"`
	Guests          int       `json:"guests"`
	Note            string    `json:"note"`
	Order           *string   `json:"order"`
}

type UpdateReservationStatusRequest struct {
	Status string `json:"status"`
}

// ReservationResult pairs a reservation mutation with the table it touched.
type ReservationResult struct {
	Reservation *Reservation `json:"reservation"`
	Table       *Table       `json:"table"`
}

// ConfirmByTableResult is the bulk arrival-confirmation response.
type ConfirmByTableResult struct {
	Reservations []*Reservation `json:"reservations"`
	Table        *Table         `json:"table"`
}

type CreateTableRequest struct {
	TableNumber int  `json:"tableNumber"`
	Floor       int  `json:"floor"`
	Seats       int  `json:"seats"`
	IsVIP       bool `json:"isVIP"`
}

type CreateFoodRequest struct {
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Available *bool           `json:"available"`
}
