package models

import (
	"fmt"
	"strings"

	"github.com/uptrace/bun"
)

type TableStatus string

const (
	TableAvailable TableStatus = "available"
	TableOccupied  TableStatus = "occupied"
	TableReserved  TableStatus = "reserved"
)

func ParseTableStatus(s string) (TableStatus, error) {
	switch v := TableStatus(strings.ToLower(strings.TrimSpace(s))); v {
	case TableAvailable, TableOccupied, TableReserved:
		return v, nil
	default:
		return "", fmt.Errorf("invalid table status %q", s)
	}
}

// Table is a physical floor-plan table. Status is mutated exclusively by the
// table service; any other writer would break the occupancy invariants.
type Table struct {
	bun.BaseModel `bun:"table:tables"`

	ID             string      `json:"id" bun:"id,pk"`
	TableNumber    int         `json:"tableNumber" bun:"table_number"`
	Floor          int         `json:"floor" bun:"floor"`
	Seats          int         `json:"seats" bun:"seats"`
	IsVIP          bool        `json:"isVIP" bun:"is_vip"`
	TotalServed    int         `json:"totalServed" bun:"total_served"`
	Status         TableStatus `json:"status" bun:"status"`
	ReservationID  *string     `json:"reservation,omitempty" bun:"reservation_id"`
	CurrentOrderID *string     `json:"currentOrder,omitempty" bun:"current_order_id"`
}
