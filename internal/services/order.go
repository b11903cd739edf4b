package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"dinehall/internal/apperr"
	"dinehall/internal/logger"
	"dinehall/internal/models"
	"dinehall/internal/storage"
	"dinehall/internal/utils"
)

// OrderService owns the order lifecycle: creation, list replacement, kitchen
// item updates, late additions, merges and settlement. It derives order
// status and total rather than trusting the client for either.
type OrderService struct {
	store    storage.Store
	tables   *TableService
	producer EventPublisher
	log      *logger.Logger
}

func NewOrderService(store storage.Store, tables *TableService, producer EventPublisher, log *logger.Logger) *OrderService {
	return &OrderService{
		store:    store,
		tables:   tables,
		producer: producer,
		log:      log,
	}
}

func (s *OrderService) Create(ctx context.Context, req *models.CreateOrderRequest) (*models.Order, error) {
	if req.Table == "" {
		return nil, apperr.Validationf("table is required")
	}
	if len(req.Items) == 0 {
		return nil, apperr.Validationf("an order needs at least one item")
	}

	order := &models.Order{
		ID:        utils.NewID(),
		TableID:   req.Table,
		UserID:    req.User,
		OrderNote: req.OrderNote,
		Status:    models.OrderPending,
	}

	items, err := buildItems(req.Items, models.ListItems)
	if err != nil {
		return nil, err
	}
	added, err := buildItems(req.AddedItems, models.ListAdded)
	if err != nil {
		return nil, err
	}
	order.Items = items
	order.AddedItems = added

	if _, err := s.tables.Get(ctx, req.Table); err != nil {
		return nil, err
	}

	total, err := s.computeTotal(ctx, order)
	if err != nil {
		return nil, err
	}
	order.TotalAmount = total

	// Claim the table before the order exists. If the order write then
	// fails we compensate by freeing the table again; the opposite order
	// would leave a live order pointing at someone else's table.
	if err := s.tables.OccupyForOrder(ctx, req.Table, order.ID); err != nil {
		return nil, err
	}
	if err := s.store.SaveOrder(ctx, order); err != nil {
		s.tables.ReleaseForOrder(ctx, req.Table, order.ID)
		return nil, apperr.Transient("save order", err)
	}

	s.log.LogOrder("CREATE", order.ID, fmt.Sprintf("Created for table %s with %d items, total %s", req.Table, len(order.AllItems()), order.TotalAmount))
	publishEvent(s.producer, s.log, &models.LifecycleEvent{
		Type:     models.EventOrderCreated,
		EntityID: order.ID,
		Order:    order,
	})
	return order, nil
}

func (s *OrderService) Get(ctx context.Context, id string) (*models.Order, error) {
	order, err := s.store.GetOrder(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, apperr.NotFound("order", id)
		}
		return nil, err
	}
	return order, nil
}

func (s *OrderService) List(ctx context.Context) ([]*models.Order, error) {
	return s.store.ListOrders(ctx)
}

func (s *OrderService) ListByTable(ctx context.Context, tableID string) ([]*models.Order, error) {
	return s.store.ListOrdersByTable(ctx, tableID)
}

// Update replaces the order's item lists wholesale. A nil list in the request
// leaves that list untouched. Items that are preparing or ready must survive
// the replacement; dropping work the kitchen already started is rejected.
func (s *OrderService) Update(ctx context.Context, id string, req *models.UpdateOrderRequest) (*models.Order, error) {
	order, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if order.Status == models.OrderPaid || order.Status == models.OrderCanceled {
		return nil, apperr.Precondition("order", id, string(order.Status), "a settled order cannot be edited")
	}

	if req.Items != nil {
		items, err := replaceList(order.Items, req.Items, models.ListItems)
		if err != nil {
			return nil, err
		}
		order.Items = items
	}
	if req.AddedItems != nil {
		added, err := replaceList(order.AddedItems, req.AddedItems, models.ListAdded)
		if err != nil {
			return nil, err
		}
		order.AddedItems = added
	}
	if req.Status != "" {
		status, err := models.ParseOrderStatus(req.Status)
		if err != nil {
			return nil, apperr.Validationf("%v", err)
		}
		order.Status = status
	}
	if req.OrderNote != nil {
		order.OrderNote = *req.OrderNote
	}

	total, err := s.computeTotal(ctx, order)
	if err != nil {
		return nil, err
	}
	order.TotalAmount = total

	if err := s.store.UpdateOrder(ctx, order); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, apperr.NotFound("order", id)
		}
		return nil, apperr.Transient("update order", err)
	}

	s.log.LogOrder("UPDATE", order.ID, fmt.Sprintf("Lists replaced, new total %s", order.TotalAmount))
	return order, nil
}

// UpdateItemStatus flips a single item's kitchen status and re-derives the
// order status from the item rows. The item write is a conditional single-row
// update, so two racing updates to different items of the same order never
// overwrite each other.
func (s *OrderService) UpdateItemStatus(ctx context.Context, orderID, itemID string, req *models.UpdateItemStatusRequest) (*models.Order, error) {
	to, err := models.ParseItemStatus(req.Status)
	if err != nil {
		return nil, apperr.Validationf("%v", err)
	}

	order, err := s.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.Status == models.OrderPaid || order.Status == models.OrderCanceled {
		return nil, apperr.Precondition("order", orderID, string(order.Status), "a settled order cannot be edited")
	}
	item := order.FindItem(itemID)
	if item == nil {
		return nil, apperr.NotFound("order item", itemID)
	}
	if !models.CanTransitionItem(item.Status, to) {
		return nil, apperr.Precondition("order item", itemID, string(item.Status), fmt.Sprintf("cannot move to %s", to))
	}

	err = s.store.UpdateItemStatus(ctx, orderID, itemID, item.Status, to)
	if errors.Is(err, storage.ErrConflict) {
		// The item moved under us; re-read once and re-check the transition
		// from its current status.
		order, err = s.Get(ctx, orderID)
		if err != nil {
			return nil, err
		}
		item = order.FindItem(itemID)
		if item == nil {
			return nil, apperr.NotFound("order item", itemID)
		}
		if !models.CanTransitionItem(item.Status, to) {
			return nil, apperr.Precondition("order item", itemID, string(item.Status), fmt.Sprintf("cannot move to %s", to))
		}
		err = s.store.UpdateItemStatus(ctx, orderID, itemID, item.Status, to)
	}
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, apperr.NotFound("order item", itemID)
		}
		return nil, apperr.Transient("update item status", err)
	}

	order, err = s.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}

	derived := order.Status
	if order.AllReady() && (order.Status == models.OrderPending || order.Status == models.OrderPreparing) {
		derived = models.OrderServed
	} else if to == models.ItemPreparing && order.Status == models.OrderPending {
		derived = models.OrderPreparing
	}

	total, err := s.computeTotal(ctx, order)
	if err != nil {
		return nil, err
	}

	if derived != order.Status || !total.Equal(order.TotalAmount) {
		if err := s.store.SetOrderDerived(ctx, orderID, total, derived); err != nil {
			return nil, apperr.Transient("persist derived order state", err)
		}
		order.Status = derived
		order.TotalAmount = total
	}

	s.log.LogOrder("ITEM", orderID, fmt.Sprintf("Item %s -> %s, order now %s", itemID, to, order.Status))
	if derived == models.OrderServed {
		publishEvent(s.producer, s.log, &models.LifecycleEvent{
			Type:     models.EventOrderServed,
			EntityID: order.ID,
			Order:    order,
		})
	}
	return order, nil
}

// AddItems appends late additions to a served order. The new items start
// pending, which drops the order back to pending so the kitchen picks the
// additions up.
func (s *OrderService) AddItems(ctx context.Context, orderID string, req *models.AddItemsRequest) (*models.Order, error) {
	if len(req.AddedItems) == 0 {
		return nil, apperr.Validationf("addedItems must not be empty")
	}

	order, err := s.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.Status != models.OrderServed {
		return nil, apperr.Precondition("order", orderID, string(order.Status), "items can only be added to a served order")
	}

	added, err := buildItems(req.AddedItems, models.ListAdded)
	if err != nil {
		return nil, err
	}
	for _, it := range added {
		it.Status = models.ItemPending
	}
	order.AddedItems = append(order.AddedItems, added...)
	order.Status = models.OrderPending

	total, err := s.computeTotal(ctx, order)
	if err != nil {
		return nil, err
	}
	order.TotalAmount = total

	if err := s.store.UpdateOrder(ctx, order); err != nil {
		return nil, apperr.Transient("update order", err)
	}

	s.log.LogOrder("ADD_ITEMS", orderID, fmt.Sprintf("%d items added, order back to pending, total %s", len(added), order.TotalAmount))
	return order, nil
}

// Merge combines two or more served orders into one new order on the first
// order's table, then cancels the sources. Cancellation is idempotent per
// source; a failure mid-cancel leaves the merged order standing and reports
// it so the caller can retry.
func (s *OrderService) Merge(ctx context.Context, req *models.MergeOrdersRequest) (*models.Order, error) {
	if len(req.OrderIDs) < 2 {
		return nil, apperr.Validationf("merging needs at least two order ids")
	}
	seen := make(map[string]bool, len(req.OrderIDs))
	for _, id := range req.OrderIDs {
		if seen[id] {
			return nil, apperr.Validationf("duplicate order id %s in merge request", id)
		}
		seen[id] = true
	}

	sources, err := s.store.GetOrders(ctx, req.OrderIDs)
	if err != nil {
		return nil, apperr.Transient("load orders", err)
	}
	byID := make(map[string]*models.Order, len(sources))
	for _, o := range sources {
		byID[o.ID] = o
	}
	ordered := make([]*models.Order, 0, len(req.OrderIDs))
	for _, id := range req.OrderIDs {
		o, ok := byID[id]
		if !ok {
			return nil, apperr.NotFound("order", id)
		}
		if o.Status != models.OrderServed {
			return nil, apperr.Precondition("order", id, string(o.Status), "only served orders can be merged")
		}
		ordered = append(ordered, o)
	}

	first := ordered[0]
	merged := &models.Order{
		ID:        utils.NewID(),
		TableID:   first.TableID,
		UserID:    first.UserID,
		OrderNote: "Merged from orders: " + strings.Join(req.OrderIDs, ", "),
		Status:    models.OrderServed,
	}
	for _, src := range ordered {
		for _, it := range src.AllItems() {
			merged.Items = append(merged.Items, &models.OrderItem{
				ID:       utils.NewID(),
				FoodID:   it.FoodID,
				Quantity: it.Quantity,
				Note:     it.Note,
				Status:   it.Status,
				List:     models.ListItems,
			})
		}
	}

	total, err := s.computeTotal(ctx, merged)
	if err != nil {
		return nil, err
	}
	merged.TotalAmount = total

	if err := s.store.SaveOrder(ctx, merged); err != nil {
		return nil, apperr.Transient("save merged order", err)
	}

	for _, src := range ordered {
		if src.Status == models.OrderCanceled {
			continue
		}
		src.Status = models.OrderCanceled
		if src.OrderNote != "" {
			src.OrderNote += " | "
		}
		src.OrderNote += "Merged into order " + merged.ID
		if err := s.store.UpdateOrder(ctx, src); err != nil {
			s.log.Error("ORDER", fmt.Sprintf("Merge %s: failed to cancel source %s: %v", merged.ID, src.ID, err))
			return nil, apperr.Transient(fmt.Sprintf("cancel source order %s (merged order %s was created)", src.ID, merged.ID), err)
		}
		// A source on another table leaves that table behind; free it so it
		// does not sit occupied by a canceled order. Best effort.
		if src.TableID != merged.TableID {
			if err := s.tables.ReleaseAfterOrder(ctx, src); err != nil {
				s.log.Error("ORDER", fmt.Sprintf("Merge %s: table %s of source %s not released: %v", merged.ID, src.TableID, src.ID, err))
			}
		}
	}

	s.log.LogOrder("MERGE", merged.ID, fmt.Sprintf("Merged %d orders on table %s, total %s", len(ordered), merged.TableID, merged.TotalAmount))
	publishEvent(s.producer, s.log, &models.LifecycleEvent{
		Type:     models.EventOrderMerged,
		EntityID: merged.ID,
		Order:    merged,
	})
	return merged, nil
}

// Complete settles a served order without a payment record (a comp, or a
// till handled outside the system). Same terminal path as payment settlement.
func (s *OrderService) Complete(ctx context.Context, orderID string) (*models.Order, error) {
	order, err := s.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.Status != models.OrderServed {
		return nil, apperr.Precondition("order", orderID, string(order.Status), "only a served order can be completed")
	}
	if err := s.Settle(ctx, orderID); err != nil {
		return nil, err
	}
	return s.Get(ctx, orderID)
}

// Settle marks the order paid and frees its table. Idempotent: a second call
// on an already-paid order is a no-op. The order write commits first; if the
// table release then fails, a reconcile event records the divergence and the
// error is surfaced as transient so the caller retries.
func (s *OrderService) Settle(ctx context.Context, orderID string) error {
	order, err := s.Get(ctx, orderID)
	if err != nil {
		return err
	}
	switch order.Status {
	case models.OrderPaid:
		return nil
	case models.OrderServed:
	default:
		return apperr.Precondition("order", orderID, string(order.Status), "only a served order can settle")
	}

	if err := s.store.SetOrderDerived(ctx, orderID, order.TotalAmount, models.OrderPaid); err != nil {
		return apperr.Transient("settle order", err)
	}
	order.Status = models.OrderPaid

	if err := s.tables.ReleaseAfterOrder(ctx, order); err != nil {
		s.log.Error("ORDER", fmt.Sprintf("Order %s settled but table %s not released: %v", orderID, order.TableID, err))
		publishEvent(s.producer, s.log, &models.LifecycleEvent{
			Type:     models.EventOrderReconcile,
			EntityID: order.ID,
			Order:    order,
		})
		return apperr.Transient("release table after settlement", err)
	}

	s.log.LogOrder("SETTLE", orderID, fmt.Sprintf("Order paid, table %s released", order.TableID))
	publishEvent(s.producer, s.log, &models.LifecycleEvent{
		Type:     models.EventOrderCompleted,
		EntityID: order.ID,
		Order:    order,
	})
	return nil
}

// computeTotal prices every non-canceled item across both lists. Foods that
// have vanished from the catalog contribute zero rather than failing the
// order; the bill should never be blocked by a menu edit.
func (s *OrderService) computeTotal(ctx context.Context, order *models.Order) (decimal.Decimal, error) {
	var ids []string
	for _, it := range order.ActionableItems() {
		ids = append(ids, it.FoodID)
	}
	prices, err := s.store.FoodPrices(ctx, ids)
	if err != nil {
		return decimal.Zero, apperr.Transient("load food prices", err)
	}

	total := decimal.Zero
	for _, it := range order.ActionableItems() {
		price, ok := prices[it.FoodID]
		if !ok {
			s.log.Warn("ORDER", fmt.Sprintf("Food %s missing from catalog, priced as zero", it.FoodID))
			continue
		}
		total = total.Add(price.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	return total.Round(2), nil
}

// buildItems validates and materializes item inputs for a list. Item statuses
// default to pending; explicit statuses must be canonical.
func buildItems(inputs []models.OrderItemInput, list models.ItemList) ([]*models.OrderItem, error) {
	items := make([]*models.OrderItem, 0, len(inputs))
	for i, in := range inputs {
		if in.Food == "" {
			return nil, apperr.Validationf("item %d: food is required", i)
		}
		if in.Quantity <= 0 {
			return nil, apperr.Validationf("item %d: quantity must be positive", i)
		}
		status := models.ItemPending
		if in.Status != "" {
			parsed, err := models.ParseItemStatus(in.Status)
			if err != nil {
				return nil, apperr.Validationf("item %d: %v", i, err)
			}
			status = parsed
		}
		id := in.ID
		if id == "" {
			id = utils.NewID()
		}
		items = append(items, &models.OrderItem{
			ID:       id,
			FoodID:   in.Food,
			Quantity: in.Quantity,
			Note:     in.Note,
			Status:   status,
			List:     list,
		})
	}
	return items, nil
}

// replaceList builds the replacement for one item list and enforces that no
// item the kitchen already started (preparing or ready) gets dropped. Inputs
// are matched against existing items by item id, falling back to food id for
// clients that resend the list without ids.
func replaceList(existing []*models.OrderItem, inputs []models.OrderItemInput, list models.ItemList) ([]*models.OrderItem, error) {
	for _, old := range existing {
		if old.Status != models.ItemPreparing && old.Status != models.ItemReady {
			continue
		}
		found := false
		for _, in := range inputs {
			if (in.ID != "" && in.ID == old.ID) || (in.ID == "" && in.Food == old.FoodID) {
				found = true
				break
			}
		}
		if !found {
			return nil, apperr.Precondition("order item", old.ID, string(old.Status), "items in preparation cannot be removed")
		}
	}

	byID := make(map[string]*models.OrderItem, len(existing))
	byFood := make(map[string]*models.OrderItem, len(existing))
	for _, old := range existing {
		byID[old.ID] = old
		if _, dup := byFood[old.FoodID]; !dup {
			byFood[old.FoodID] = old
		}
	}

	items := make([]*models.OrderItem, 0, len(inputs))
	for i, in := range inputs {
		if in.Food == "" {
			return nil, apperr.Validationf("item %d: food is required", i)
		}
		if in.Quantity <= 0 {
			return nil, apperr.Validationf("item %d: quantity must be positive", i)
		}

		var prior *models.OrderItem
		if in.ID != "" {
			prior = byID[in.ID]
		} else {
			prior = byFood[in.Food]
		}

		status := models.ItemPending
		if in.Status != "" {
			parsed, err := models.ParseItemStatus(in.Status)
			if err != nil {
				return nil, apperr.Validationf("item %d: %v", i, err)
			}
			status = parsed
		} else if prior != nil {
			status = prior.Status
		}

		id := in.ID
		if id == "" {
			if prior != nil {
				id = prior.ID
			} else {
				id = utils.NewID()
			}
		}
		items = append(items, &models.OrderItem{
			ID:       id,
			FoodID:   in.Food,
			Quantity: in.Quantity,
			Note:     in.Note,
			Status:   status,
			List:     list,
		})
	}
	return items, nil
}
