package storage

import (
	"context"
	"sort"
	"sync"

	"github.com/shopspring/decimal"

	"dinehall/internal/models"
)

// InMemoryStore implements Store over plain maps. It backs unit tests and
// local development without MySQL. All reads and writes copy records so
// callers never alias store-internal state.
type InMemoryStore struct {
	mu           sync.RWMutex
	foods        map[string]*models.Food
	orders       map[string]*models.Order
	tables       map[string]*models.Table
	reservations map[string]*models.Reservation
	payments     map[string]*models.Payment
	orderSeq     []string
	paymentSeq   []string
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		foods:        make(map[string]*models.Food),
		orders:       make(map[string]*models.Order),
		tables:       make(map[string]*models.Table),
		reservations: make(map[string]*models.Reservation),
		payments:     make(map[string]*models.Payment),
	}
}

func cloneItems(items []*models.OrderItem) []*models.OrderItem {
	out := make([]*models.OrderItem, len(items))
	for i, it := range items {
		c := *it
		out[i] = &c
	}
	return out
}

func cloneOrder(o *models.Order) *models.Order {
	c := *o
	c.Items = cloneItems(o.Items)
	c.AddedItems = cloneItems(o.AddedItems)
	return &c
}

func cloneTable(t *models.Table) *models.Table {
	c := *t
	return &c
}

func cloneReservation(r *models.Reservation) *models.Reservation {
	c := *r
	return &c
}

func clonePayment(p *models.Payment) *models.Payment {
	c := *p
	return &c
}

// --- foods ---

func (s *InMemoryStore) SaveFood(ctx context.Context, food *models.Food) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := *food
	s.foods[food.ID] = &c
	return nil
}

func (s *InMemoryStore) GetFood(ctx context.Context, id string) (*models.Food, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	food, ok := s.foods[id]
	if !ok {
		return nil, ErrNotFound
	}
	c := *food
	return &c, nil
}

func (s *InMemoryStore) ListFoods(ctx context.Context) ([]*models.Food, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Food, 0, len(s.foods))
	for _, f := range s.foods {
		c := *f
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *InMemoryStore) FoodPrices(ctx context.Context, ids []string) (map[string]decimal.Decimal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	prices := make(map[string]decimal.Decimal, len(ids))
	for _, id := range ids {
		if f, ok := s.foods[id]; ok {
			prices[id] = f.Price
		}
	}
	return prices, nil
}

// --- orders ---

func (s *InMemoryStore) SaveOrder(ctx context.Context, order *models.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, it := range order.Items {
		it.OrderID = order.ID
		it.List = models.ListItems
	}
	for _, it := range order.AddedItems {
		it.OrderID = order.ID
		it.List = models.ListAdded
	}
	s.orders[order.ID] = cloneOrder(order)
	s.orderSeq = append(s.orderSeq, order.ID)
	return nil
}

func (s *InMemoryStore) UpdateOrder(ctx context.Context, order *models.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.orders[order.ID]; !ok {
		return ErrNotFound
	}
	for _, it := range order.Items {
		it.OrderID = order.ID
		it.List = models.ListItems
	}
	for _, it := range order.AddedItems {
		it.OrderID = order.ID
		it.List = models.ListAdded
	}
	s.orders[order.ID] = cloneOrder(order)
	return nil
}

func (s *InMemoryStore) GetOrder(ctx context.Context, id string) (*models.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	order, ok := s.orders[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneOrder(order), nil
}

func (s *InMemoryStore) GetOrders(ctx context.Context, ids []string) ([]*models.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Order
	for _, id := range ids {
		if o, ok := s.orders[id]; ok {
			out = append(out, cloneOrder(o))
		}
	}
	return out, nil
}

func (s *InMemoryStore) ListOrders(ctx context.Context) ([]*models.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Order, 0, len(s.orders))
	for i := len(s.orderSeq) - 1; i >= 0; i-- {
		if o, ok := s.orders[s.orderSeq[i]]; ok {
			out = append(out, cloneOrder(o))
		}
	}
	return out, nil
}

func (s *InMemoryStore) ListOrdersByTable(ctx context.Context, tableID string) ([]*models.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Order
	for i := len(s.orderSeq) - 1; i >= 0; i-- {
		if o, ok := s.orders[s.orderSeq[i]]; ok && o.TableID == tableID {
			out = append(out, cloneOrder(o))
		}
	}
	return out, nil
}

func (s *InMemoryStore) UpdateItemStatus(ctx context.Context, orderID, itemID string, from, to models.ItemStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	order, ok := s.orders[orderID]
	if !ok {
		return ErrNotFound
	}
	item := order.FindItem(itemID)
	if item == nil {
		return ErrNotFound
	}
	if item.Status != from {
		if from == to {
			return nil
		}
		return ErrConflict
	}
	item.Status = to
	return nil
}

func (s *InMemoryStore) SetOrderDerived(ctx context.Context, orderID string, total decimal.Decimal, status models.OrderStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	order, ok := s.orders[orderID]
	if !ok {
		return ErrNotFound
	}
	order.TotalAmount = total
	order.Status = status
	return nil
}

// --- tables ---

func (s *InMemoryStore) SaveTable(ctx context.Context, table *models.Table) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tables[table.ID] = cloneTable(table)
	return nil
}

func (s *InMemoryStore) GetTable(ctx context.Context, id string) (*models.Table, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	table, ok := s.tables[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneTable(table), nil
}

func (s *InMemoryStore) ListTables(ctx context.Context) ([]*models.Table, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Table, 0, len(s.tables))
	for _, t := range s.tables {
		out = append(out, cloneTable(t))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TableNumber < out[j].TableNumber })
	return out, nil
}

func (s *InMemoryStore) TransitionTable(ctx context.Context, tableID string, tr TableTransition) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	table, ok := s.tables[tableID]
	if !ok {
		return ErrNotFound
	}
	if len(tr.Expect) > 0 {
		matched := false
		for _, st := range tr.Expect {
			if table.Status == st {
				matched = true
				break
			}
		}
		if !matched {
			return ErrConflict
		}
	}
	table.Status = tr.To
	if tr.CurrentOrder != nil {
		if *tr.CurrentOrder == "" {
			table.CurrentOrderID = nil
		} else {
			v := *tr.CurrentOrder
			table.CurrentOrderID = &v
		}
	}
	if tr.Reservation != nil {
		if *tr.Reservation == "" {
			table.ReservationID = nil
		} else {
			v := *tr.Reservation
			table.ReservationID = &v
		}
	}
	if tr.BumpServed {
		table.TotalServed++
	}
	return nil
}

// --- reservations ---

func (s *InMemoryStore) SaveReservation(ctx context.Context, r *models.Reservation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reservations[r.ID] = cloneReservation(r)
	return nil
}

func (s *InMemoryStore) GetReservation(ctx context.Context, id string) (*models.Reservation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.reservations[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneReservation(r), nil
}

func (s *InMemoryStore) ListReservations(ctx context.Context) ([]*models.Reservation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Reservation, 0, len(s.reservations))
	for _, r := range s.reservations {
		out = append(out, cloneReservation(r))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *InMemoryStore) ListReservationsByTable(ctx context.Context, tableID string, status models.ReservationStatus) ([]*models.Reservation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Reservation
	for _, r := range s.reservations {
		if r.TableID != tableID {
			continue
		}
		if status != "" && r.Status != status {
			continue
		}
		out = append(out, cloneReservation(r))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *InMemoryStore) UpdateReservation(ctx context.Context, r *models.Reservation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.reservations[r.ID]; !ok {
		return ErrNotFound
	}
	s.reservations[r.ID] = cloneReservation(r)
	return nil
}

// --- payments ---

func (s *InMemoryStore) SavePayment(ctx context.Context, payment *models.Payment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.payments[payment.ID] = clonePayment(payment)
	s.paymentSeq = append(s.paymentSeq, payment.ID)
	return nil
}

func (s *InMemoryStore) GetPayment(ctx context.Context, id string) (*models.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.payments[id]
	if !ok {
		return nil, ErrNotFound
	}
	return clonePayment(p), nil
}

func (s *InMemoryStore) UpdatePayment(ctx context.Context, payment *models.Payment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.payments[payment.ID]
	if !ok {
		return ErrNotFound
	}
	existing.Status = payment.Status
	existing.PaidAt = payment.PaidAt
	return nil
}

func (s *InMemoryStore) ListPayments(ctx context.Context, limit, offset int) ([]*models.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Payment
	skipped := 0
	for i := len(s.paymentSeq) - 1; i >= 0; i-- {
		p, ok := s.payments[s.paymentSeq[i]]
		if !ok {
			continue
		}
		if skipped < offset {
			skipped++
			continue
		}
		if len(out) >= limit {
			break
		}
		out = append(out, clonePayment(p))
	}
	return out, nil
}

func (s *InMemoryStore) CountPayments(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.payments), nil
}

func (s *InMemoryStore) HealthCheck(ctx context.Context) error { return nil }

func (s *InMemoryStore) Close() error { return nil }
