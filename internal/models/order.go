package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
)

type OrderStatus string

const (
	OrderPending   OrderStatus = "pending"
	OrderPreparing OrderStatus = "preparing"
	OrderServed    OrderStatus = "served"
	OrderPaid      OrderStatus = "paid"
	// OrderCanceled is reached only by the merge coordinator; canceled
	// orders stay on record as an audit trail for the merged order.
	OrderCanceled OrderStatus = "canceled"
)

type ItemStatus string

const (
	ItemPending   ItemStatus = "pending"
	ItemPreparing ItemStatus = "preparing"
	ItemReady     ItemStatus = "ready"
	ItemCanceled  ItemStatus = "canceled"
)

// ItemList marks which of the order's two lists an item row belongs to.
type ItemList string

const (
	ListItems ItemList = "items"
	ListAdded ItemList = "added"
)

// legacy aliases the old backend silently coerced; they are now rejected
// outright at the boundary. Breaking but corrective.
var legacyItemAliases = map[string]ItemStatus{
	"completed": ItemReady,
	"cooking":   ItemPreparing,
	"cook":      ItemPreparing,
	"cancel":    ItemCanceled,
	"cancelled": ItemCanceled,
}

// ParseItemStatus accepts only the canonical four-value enum. Known legacy
// aliases get a pointed error naming the canonical value.
func ParseItemStatus(s string) (ItemStatus, error) {
	switch v := ItemStatus(strings.ToLower(strings.TrimSpace(s))); v {
	case ItemPending, ItemPreparing, ItemReady, ItemCanceled:
		return v, nil
	default:
		if canonical, ok := legacyItemAliases[string(v)]; ok {
			return "", fmt.Errorf("item status %q is no longer accepted, use %q", s, canonical)
		}
		return "", fmt.Errorf("invalid item status %q", s)
	}
}

// CanTransitionItem reports whether an explicit kitchen update from one item
// status to another is allowed. Items only move forward: pending can start or
// finish preparation or be canceled, preparing can finish or be canceled, and
// ready/canceled are terminal apart from idempotent re-sets.
func CanTransitionItem(from, to ItemStatus) bool {
	if from == to {
		return true
	}
	switch from {
	case ItemPending:
		return to == ItemPreparing || to == ItemReady || to == ItemCanceled
	case ItemPreparing:
		return to == ItemReady || to == ItemCanceled
	default:
		return false
	}
}

func ParseOrderStatus(s string) (OrderStatus, error) {
	switch v := OrderStatus(strings.ToLower(strings.TrimSpace(s))); v {
	case OrderPending, OrderPreparing, OrderServed, OrderPaid, OrderCanceled:
		return v, nil
	default:
		return "", fmt.Errorf("invalid order status %q", s)
	}
}

// OrderItem is one line of an order. Items live in their own table so a
// kitchen status flip is a single conditional row update instead of a
// read-modify-write of the whole order.
type OrderItem struct {
	bun.BaseModel `bun:"table:order_items"`

	ID       string     `json:"id" bun:"id,pk"`
	OrderID  string     `json:"-" bun:"order_id"`
	FoodID   string     `json:"food" bun:"food_id"`
	Quantity int        `json:"quantity" bun:"quantity"`
	Note     string     `json:"note" bun:"note"`
	Status   ItemStatus `json:"status" bun:"status"`
	List     ItemList   `json:"-" bun:"list"`
}

type Order struct {
	bun.BaseModel `bun:"table:orders"`

	ID          string          `json:"id" bun:"id,pk"`
	TableID     string          `json:"table" bun:"table_id"`
	UserID      *string         `json:"user,omitempty" bun:"user_id"`
	OrderNote   string          `json:"orderNote" bun:"order_note"`
	TotalAmount decimal.Decimal `json:"totalAmount" bun:"total_amount,type:decimal(14,2)"`
	Status      OrderStatus     `json:"status" bun:"status"`
	CreatedAt   time.Time       `json:"createdAt" bun:"created_at"`

	// Hydrated from order_items by the store; not columns themselves.
	Items      []*OrderItem `json:"items" bun:"-"`
	AddedItems []*OrderItem `json:"addedItems" bun:"-"`
}

// AllItems returns items and addedItems as one slice, items first.
func (o *Order) AllItems() []*OrderItem {
	all := make([]*OrderItem, 0, len(o.Items)+len(o.AddedItems))
	all = append(all, o.Items...)
	all = append(all, o.AddedItems...)
	return all
}

// ActionableItems returns every item across both lists that is not canceled.
func (o *Order) ActionableItems() []*OrderItem {
	var out []*OrderItem
	for _, it := range o.AllItems() {
		if it.Status != ItemCanceled {
			out = append(out, it)
		}
	}
	return out
}

// AllReady reports whether the order has at least one actionable item and
// every actionable item is ready. This is the serve condition.
func (o *Order) AllReady() bool {
	actionable := o.ActionableItems()
	if len(actionable) == 0 {
		return false
	}
	for _, it := range actionable {
		if it.Status != ItemReady {
			return false
		}
	}
	return true
}

// FindItem looks an item up by id in either list.
func (o *Order) FindItem(itemID string) *OrderItem {
	for _, it := range o.AllItems() {
		if it.ID == itemID {
			return it
		}
	}
	return nil
}
