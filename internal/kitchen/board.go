// Package kitchen maintains the read-only kitchen display board. It consumes
// order lifecycle events and never writes back to the store, so it adds no
// write concurrency to the engine.
package kitchen

import (
	"sort"
	"sync"
	"time"

	"dinehall/internal/models"
)

// Entry is one active order as the kitchen sees it.
type Entry struct {
	OrderID    string             `json:"orderId"`
	TableID    string             `json:"table"`
	Status     models.OrderStatus `json:"status"`
	ItemsReady int                `json:"itemsReady"`
	ItemsTotal int                `json:"itemsTotal"`
	UpdatedAt  time.Time          `json:"updatedAt"`
}

type Board struct {
	mu      sync.RWMutex
	entries map[string]*Entry
}

func NewBoard() *Board {
	return &Board{entries: make(map[string]*Entry)}
}

// Apply folds one order event into the board. Settled and canceled orders
// drop off; everything else upserts.
func (b *Board) Apply(event *models.LifecycleEvent) error {
	order := event.Order
	if order == nil {
		return nil
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if order.Status == models.OrderPaid || order.Status == models.OrderCanceled {
		delete(b.entries, order.ID)
		return nil
	}

	actionable := order.ActionableItems()
	ready := 0
	for _, it := range actionable {
		if it.Status == models.ItemReady {
			ready++
		}
	}

	b.entries[order.ID] = &Entry{
		OrderID:    order.ID,
		TableID:    order.TableID,
		Status:     order.Status,
		ItemsReady: ready,
		ItemsTotal: len(actionable),
		UpdatedAt:  event.Timestamp,
	}
	return nil
}

// Snapshot returns the board's entries, most recently updated first.
func (b *Board) Snapshot() []Entry {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]Entry, 0, len(b.entries))
	for _, e := range b.entries {
		out = append(out, *e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out
}
