package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/money"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/lib/pq"
)

const uniqueViolation = "23505"

type Repository struct {
	db *sql.DB
}

func NewRepository(cred *Credentials) (*Repository, error) {
	psqlconn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		cred.Host,
		cred.Port,
		cred.User,
		cred.Password,
		cred.DBName)

	db, err := sql.Open("postgres", psqlconn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if e2 := db.Ping(); e2 != nil {
		return nil, fmt.Errorf("failed to ping database: %w", e2)
	}

	db.SetMaxOpenConns(100)
	db.SetMaxIdleConns(10)
	return &Repository{db: db}, nil
}

func (r *Repository) RunMigrations(cred *Credentials) error {
	driver, err := postgres.WithInstance(r.db, &postgres.Config{
		MigrationsTable: "orders_schema_migrations",
	})
	if err != nil {
		return fmt.Errorf("could not create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		fmt.Sprintf("file://%s", cred.MigrationsDirPath),
		"postgres",
		driver,
	)
	if err != nil {
		return fmt.Errorf("could not create migrate instance: %w", err)
	}

	if e2 := m.Up(); e2 != nil && !errors.Is(e2, migrate.ErrNoChange) {
		return fmt.Errorf("could not run migrations: %w", e2)
	}

	return nil
}

func (r *Repository) CreateOrder(ctx context.Context, order *domain.Order) error {
	itemsJSON, err := json.Marshal(order.Items)
	if err != nil {
		return fmt.Errorf("failed to marshal order items: %w", err)
	}
	addressJSON, err := json.Marshal(order.Address)
	if err != nil {
		return fmt.Errorf("failed to marshal order address: %w", err)
	}
	payload, err := json.Marshal(domain.NewOrderCreatedEvent(order))
	if err != nil {
		return fmt.Errorf("failed to marshal outbox payload: %w", err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO orders (id, user_id, status, mode, total_price, shipping_fee, pay_price,
		                     address, coupon_id, remark, items, cart_drain_pending, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		order.ID,
		order.UserID,
		order.Status,
		order.Mode,
		int64(order.TotalPrice),
		int64(order.ShippingFee),
		int64(order.PayPrice),
		addressJSON,
		order.CouponID,
		order.Remark,
		itemsJSON,
		order.CartDrainPending,
		order.CreatedAt,
		order.UpdatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return ErrDuplicateOrder
		}
		return fmt.Errorf("insert order: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO outbox_events (aggregate_id, event_type, payload) VALUES ($1, $2, $3)`,
		order.ID, domain.EventOrderCreated, payload)
	if err != nil {
		return fmt.Errorf("insert outbox event: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit order: %w", err)
	}
	return nil
}

const orderColumns = `id, user_id, status, mode, total_price, shipping_fee, pay_price,
	address, coupon_id, remark, items, cart_drain_pending, created_at, updated_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanOrder(row scanner) (*domain.Order, error) {
	var order domain.Order
	var total, shipping, pay int64
	var addressJSON, itemsJSON []byte
	err := row.Scan(
		&order.ID,
		&order.UserID,
		&order.Status,
		&order.Mode,
		&total,
		&shipping,
		&pay,
		&addressJSON,
		&order.CouponID,
		&order.Remark,
		&itemsJSON,
		&order.CartDrainPending,
		&order.CreatedAt,
		&order.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	order.TotalPrice = money.Cents(total)
	order.ShippingFee = money.Cents(shipping)
	order.PayPrice = money.Cents(pay)

	if err := json.Unmarshal(addressJSON, &order.Address); err != nil {
		return nil, fmt.Errorf("unmarshal order address: %w", err)
	}
	if err := json.Unmarshal(itemsJSON, &order.Items); err != nil {
		return nil, fmt.Errorf("unmarshal order items: %w", err)
	}
	return &order, nil
}

func (r *Repository) GetOrder(ctx context.Context, id string) (*domain.Order, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id)
	order, err := scanOrder(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query order by id: %w", err)
	}
	return order, nil
}

func (r *Repository) queryOrders(ctx context.Context, query string, args ...any) ([]*domain.Order, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query orders: %w", err)
	}
	defer rows.Close()

	orders := []*domain.Order{}
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order row: %w", err)
		}
		orders = append(orders, order)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return orders, nil
}

func (r *Repository) ListOrders(ctx context.Context, f ListFilter) ([]*domain.Order, int, error) {
	page, size := domain.NormalizePaging(f.Page, f.PageSize)

	// status 0 disables the status filter
	where := `WHERE user_id = $1 AND ($2 = 0 OR status = $2)`

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM orders `+where, f.UserID, f.Status).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count orders: %w", err)
	}

	orders, err := r.queryOrders(ctx,
		`SELECT `+orderColumns+` FROM orders `+where+` ORDER BY created_at DESC, id LIMIT $3 OFFSET $4`,
		f.UserID, f.Status, size, (page-1)*size)
	if err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

func (r *Repository) UpdateStatus(ctx context.Context, id string, from, to domain.OrderStatus, at time.Time) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE orders SET status = $1, updated_at = $2 WHERE id = $3 AND status = $4`,
		to, at, id, from)
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}
	if n == 1 {
		return nil
	}

	var exists bool
	if err := r.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM orders WHERE id = $1)`, id).Scan(&exists); err != nil {
		return fmt.Errorf("check order exists: %w", err)
	}
	if !exists {
		return ErrOrderNotFound
	}
	return ErrStatusConflict
}

func (r *Repository) MarkCartDrained(ctx context.Context, id string) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE orders SET cart_drain_pending = FALSE WHERE id = $1 AND cart_drain_pending`, id)
	if err != nil {
		return false, fmt.Errorf("mark cart drained: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("mark cart drained: %w", err)
	}
	return n == 1, nil
}

func (r *Repository) PendingDrains(ctx context.Context, olderThan time.Time, limit int) ([]*domain.Order, error) {
	return r.queryOrders(ctx,
		`SELECT `+orderColumns+` FROM orders
		 WHERE cart_drain_pending AND created_at < $1
		 ORDER BY created_at LIMIT $2`,
		olderThan, limit)
}

func (r *Repository) GetUnprocessedEvents(ctx context.Context, limit int) ([]*OutboxEvent, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, aggregate_id, event_type, payload, created_at
		 FROM outbox_events WHERE NOT processed ORDER BY id LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("query outbox events: %w", err)
	}
	defer rows.Close()

	var events []*OutboxEvent
	for rows.Next() {
		var e OutboxEvent
		if err := rows.Scan(&e.ID, &e.AggregateID, &e.EventType, &e.Payload, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan outbox event: %w", err)
		}
		events = append(events, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return events, nil
}

func (r *Repository) MarkEventAsProcessed(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE outbox_events SET processed = TRUE, processed_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("mark event processed: %w", err)
	}
	return nil
}

// DB exposes the pool so tables migrated alongside orders can share it.
func (r *Repository) DB() *sql.DB {
	return r.db
}

func (r *Repository) Close() error {
	return r.db.Close()
}
