package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/go-sql-driver/mysql"
	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/mysqldialect"

	"dinehall/internal/config"
	"dinehall/internal/logger"
	"dinehall/internal/models"
)

type MySQLStore struct {
	db  *bun.DB
	log *logger.Logger
}

func NewMySQLStore(cfg config.DatabaseConfig, log *logger.Logger) (*MySQLStore, error) {
	log.LogDatabase("CONNECT", "mysql", fmt.Sprintf("Connecting to MySQL at %s:%s", cfg.Host, cfg.Port))

	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		cfg.Username, cfg.Password, cfg.Host, cfg.Port, cfg.Database)

	sqldb, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	sqldb.SetMaxOpenConns(cfg.MaxOpenConns)
	sqldb.SetMaxIdleConns(cfg.MaxIdleConns)
	sqldb.SetConnMaxLifetime(cfg.MaxLifetime)

	if err := sqldb.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	store := &MySQLStore{
		db:  bun.NewDB(sqldb, mysqldialect.New()),
		log: log,
	}

	if err := store.initTables(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to initialize tables: %w", err)
	}

	log.LogDatabase("SUCCESS", "mysql", "MySQL connection established and tables initialized")
	return store, nil
}

func (s *MySQLStore) initTables(ctx context.Context) error {
	s.log.LogDatabase("MIGRATE", "mysql", "Creating tables if not exist")

	for _, model := range []interface{}{
		(*models.Food)(nil),
		(*models.Table)(nil),
		(*models.Order)(nil),
		(*models.OrderItem)(nil),
		(*models.Reservation)(nil),
		(*models.Payment)(nil),
	} {
		if _, err := s.db.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
			return err
		}
	}
	return nil
}

func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

// --- foods ---

func (s *MySQLStore) SaveFood(ctx context.Context, food *models.Food) error {
	_, err := s.db.NewInsert().Model(food).Exec(ctx)
	return err
}

func (s *MySQLStore) GetFood(ctx context.Context, id string) (*models.Food, error) {
	food := new(models.Food)
	if err := s.db.NewSelect().Model(food).Where("id = ?", id).Scan(ctx); err != nil {
		return nil, notFound(err)
	}
	return food, nil
}

func (s *MySQLStore) ListFoods(ctx context.Context) ([]*models.Food, error) {
	var foods []*models.Food
	if err := s.db.NewSelect().Model(&foods).Order("name ASC").Scan(ctx); err != nil {
		return nil, err
	}
	return foods, nil
}

func (s *MySQLStore) FoodPrices(ctx context.Context, ids []string) (map[string]decimal.Decimal, error) {
	prices := make(map[string]decimal.Decimal, len(ids))
	if len(ids) == 0 {
		return prices, nil
	}

	var foods []*models.Food
	err := s.db.NewSelect().Model(&foods).
		Column("id", "price").
		Where("id IN (?)", bun.In(ids)).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	for _, f := range foods {
		prices[f.ID] = f.Price
	}
	return prices, nil
}

// --- orders ---

func (s *MySQLStore) SaveOrder(ctx context.Context, order *models.Order) error {
	s.log.LogDatabase("INSERT", "orders", fmt.Sprintf("Saving order %s", order.ID))

	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewInsert().Model(order).Exec(ctx); err != nil {
			return err
		}
		return insertItems(ctx, tx, order)
	})
}

// UpdateOrder replaces the order row and its entire item set in one
// transaction. Callers are expected to have run the protected-item guard
// before replacing lists.
func (s *MySQLStore) UpdateOrder(ctx context.Context, order *models.Order) error {
	s.log.LogDatabase("UPDATE", "orders", fmt.Sprintf("Updating order %s", order.ID))

	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		res, err := tx.NewUpdate().Model(order).
			Column("table_id", "user_id", "order_note", "total_amount", "status").
			WherePK().
			Exec(ctx)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			// MySQL reports 0 affected rows for no-op updates too, so
			// confirm the row is really gone before failing.
			exists, err := tx.NewSelect().Model((*models.Order)(nil)).Where("id = ?", order.ID).Exists(ctx)
			if err != nil {
				return err
			}
			if !exists {
				return ErrNotFound
			}
		}
		if _, err := tx.NewDelete().Model((*models.OrderItem)(nil)).Where("order_id = ?", order.ID).Exec(ctx); err != nil {
			return err
		}
		return insertItems(ctx, tx, order)
	})
}

func insertItems(ctx context.Context, tx bun.Tx, order *models.Order) error {
	for _, it := range order.Items {
		it.OrderID = order.ID
		it.List = models.ListItems
	}
	for _, it := range order.AddedItems {
		it.OrderID = order.ID
		it.List = models.ListAdded
	}
	items := order.AllItems()
	if len(items) == 0 {
		return nil
	}
	_, err := tx.NewInsert().Model(&items).Exec(ctx)
	return err
}

func (s *MySQLStore) GetOrder(ctx context.Context, id string) (*models.Order, error) {
	order := new(models.Order)
	if err := s.db.NewSelect().Model(order).Where("id = ?", id).Scan(ctx); err != nil {
		return nil, notFound(err)
	}
	if err := s.hydrateItems(ctx, []*models.Order{order}); err != nil {
		return nil, err
	}
	return order, nil
}

func (s *MySQLStore) GetOrders(ctx context.Context, ids []string) ([]*models.Order, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var orders []*models.Order
	err := s.db.NewSelect().Model(&orders).Where("id IN (?)", bun.In(ids)).Scan(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.hydrateItems(ctx, orders); err != nil {
		return nil, err
	}
	return orders, nil
}

func (s *MySQLStore) ListOrders(ctx context.Context) ([]*models.Order, error) {
	var orders []*models.Order
	if err := s.db.NewSelect().Model(&orders).Order("created_at DESC").Scan(ctx); err != nil {
		return nil, err
	}
	if err := s.hydrateItems(ctx, orders); err != nil {
		return nil, err
	}
	return orders, nil
}

func (s *MySQLStore) ListOrdersByTable(ctx context.Context, tableID string) ([]*models.Order, error) {
	var orders []*models.Order
	err := s.db.NewSelect().Model(&orders).
		Where("table_id = ?", tableID).
		Order("created_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.hydrateItems(ctx, orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// hydrateItems loads the item rows for a batch of orders and splits them into
// the two lists.
func (s *MySQLStore) hydrateItems(ctx context.Context, orders []*models.Order) error {
	if len(orders) == 0 {
		return nil
	}
	byID := make(map[string]*models.Order, len(orders))
	ids := make([]string, 0, len(orders))
	for _, o := range orders {
		o.Items = []*models.OrderItem{}
		o.AddedItems = []*models.OrderItem{}
		byID[o.ID] = o
		ids = append(ids, o.ID)
	}

	var items []*models.OrderItem
	err := s.db.NewSelect().Model(&items).
		Where("order_id IN (?)", bun.In(ids)).
		Order("id ASC").
		Scan(ctx)
	if err != nil {
		return err
	}
	for _, it := range items {
		o, ok := byID[it.OrderID]
		if !ok {
			continue
		}
		if it.List == models.ListAdded {
			o.AddedItems = append(o.AddedItems, it)
		} else {
			o.Items = append(o.Items, it)
		}
	}
	return nil
}

func (s *MySQLStore) UpdateItemStatus(ctx context.Context, orderID, itemID string, from, to models.ItemStatus) error {
	s.log.LogDatabase("UPDATE", "order_items", fmt.Sprintf("Order %s item %s: %s -> %s", orderID, itemID, from, to))

	res, err := s.db.NewUpdate().Model((*models.OrderItem)(nil)).
		Set("status = ?", to).
		Where("id = ? AND order_id = ? AND status = ?", itemID, orderID, from).
		Exec(ctx)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 && from != to {
		return ErrConflict
	}
	return nil
}

func (s *MySQLStore) SetOrderDerived(ctx context.Context, orderID string, total decimal.Decimal, status models.OrderStatus) error {
	res, err := s.db.NewUpdate().Model((*models.Order)(nil)).
		Set("total_amount = ?", total).
		Set("status = ?", status).
		Where("id = ?", orderID).
		Exec(ctx)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		exists, err := s.db.NewSelect().Model((*models.Order)(nil)).Where("id = ?", orderID).Exists(ctx)
		if err != nil {
			return err
		}
		if !exists {
			return ErrNotFound
		}
	}
	return nil
}

// --- tables ---

func (s *MySQLStore) SaveTable(ctx context.Context, table *models.Table) error {
	_, err := s.db.NewInsert().Model(table).Exec(ctx)
	return err
}

func (s *MySQLStore) GetTable(ctx context.Context, id string) (*models.Table, error) {
	table := new(models.Table)
	if err := s.db.NewSelect().Model(table).Where("id = ?", id).Scan(ctx); err != nil {
		return nil, notFound(err)
	}
	return table, nil
}

func (s *MySQLStore) ListTables(ctx context.Context) ([]*models.Table, error) {
	var tables []*models.Table
	if err := s.db.NewSelect().Model(&tables).Order("table_number ASC").Scan(ctx); err != nil {
		return nil, err
	}
	return tables, nil
}

func (s *MySQLStore) TransitionTable(ctx context.Context, tableID string, tr TableTransition) error {
	s.log.LogDatabase("UPDATE", "tables", fmt.Sprintf("Table %s -> %s", tableID, tr.To))

	q := s.db.NewUpdate().Model((*models.Table)(nil)).
		Set("status = ?", tr.To).
		Where("id = ?", tableID)

	if tr.CurrentOrder != nil {
		if *tr.CurrentOrder == "" {
			q = q.Set("current_order_id = NULL")
		} else {
			q = q.Set("current_order_id = ?", *tr.CurrentOrder)
		}
	}
	if tr.Reservation != nil {
		if *tr.Reservation == "" {
			q = q.Set("reservation_id = NULL")
		} else {
			q = q.Set("reservation_id = ?", *tr.Reservation)
		}
	}
	if tr.BumpServed {
		q = q.Set("total_served = total_served + 1")
	}
	if len(tr.Expect) > 0 {
		expect := make([]string, len(tr.Expect))
		for i, st := range tr.Expect {
			expect[i] = string(st)
		}
		q = q.Where("status IN (?)", bun.In(expect))
	}

	res, err := q.Exec(ctx)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		if _, err := s.GetTable(ctx, tableID); err != nil {
			return err
		}
		return ErrConflict
	}
	return nil
}

// --- reservations ---

func (s *MySQLStore) SaveReservation(ctx context.Context, r *models.Reservation) error {
	_, err := s.db.NewInsert().Model(r).Exec(ctx)
	return err
}

func (s *MySQLStore) GetReservation(ctx context.Context, id string) (*models.Reservation, error) {
	r := new(models.Reservation)
	if err := s.db.NewSelect().Model(r).Where("id = ?", id).Scan(ctx); err != nil {
		return nil, notFound(err)
	}
	return r, nil
}

func (s *MySQLStore) ListReservations(ctx context.Context) ([]*models.Reservation, error) {
	var rs []*models.Reservation
	if err := s.db.NewSelect().Model(&rs).Order("created_at DESC").Scan(ctx); err != nil {
		return nil, err
	}
	return rs, nil
}

func (s *MySQLStore) ListReservationsByTable(ctx context.Context, tableID string, status models.ReservationStatus) ([]*models.Reservation, error) {
	var rs []*models.Reservation
	q := s.db.NewSelect().Model(&rs).
		Where("table_id = ?", tableID).
		Order("created_at ASC")
	if status != "" {
		q = q.Where("status = ?", status)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, err
	}
	return rs, nil
}

func (s *MySQLStore) UpdateReservation(ctx context.Context, r *models.Reservation) error {
	res, err := s.db.NewUpdate().Model(r).WherePK().Exec(ctx)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		exists, err := s.db.NewSelect().Model((*models.Reservation)(nil)).Where("id = ?", r.ID).Exists(ctx)
		if err != nil {
			return err
		}
		if !exists {
			return ErrNotFound
		}
	}
	return nil
}

// --- payments ---

func (s *MySQLStore) SavePayment(ctx context.Context, payment *models.Payment) error {
	s.log.LogDatabase("INSERT", "payments", fmt.Sprintf("Saving payment %s", payment.ID))
	_, err := s.db.NewInsert().Model(payment).Exec(ctx)
	return err
}

func (s *MySQLStore) GetPayment(ctx context.Context, id string) (*models.Payment, error) {
	payment := new(models.Payment)
	if err := s.db.NewSelect().Model(payment).Where("id = ?", id).Scan(ctx); err != nil {
		return nil, notFound(err)
	}
	return payment, nil
}

// UpdatePayment only ever touches status and paidAt; every other payment
// field is immutable after creation.
func (s *MySQLStore) UpdatePayment(ctx context.Context, payment *models.Payment) error {
	res, err := s.db.NewUpdate().Model(payment).
		Column("status", "paid_at").
		WherePK().
		Exec(ctx)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		exists, err := s.db.NewSelect().Model((*models.Payment)(nil)).Where("id = ?", payment.ID).Exists(ctx)
		if err != nil {
			return err
		}
		if !exists {
			return ErrNotFound
		}
	}
	return nil
}

func (s *MySQLStore) ListPayments(ctx context.Context, limit, offset int) ([]*models.Payment, error) {
	var payments []*models.Payment
	err := s.db.NewSelect().Model(&payments).
		Order("paid_at DESC").
		Limit(limit).
		Offset(offset).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return payments, nil
}

func (s *MySQLStore) CountPayments(ctx context.Context) (int, error) {
	return s.db.NewSelect().Model((*models.Payment)(nil)).Count(ctx)
}

func (s *MySQLStore) HealthCheck(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *MySQLStore) Close() error {
	s.log.LogDatabase("CLOSE", "mysql", "Closing MySQL connection")
	return s.db.Close()
}
