package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/kitchenboard/internal/dashboard"
	"github.com/appetiteclub/kitchenboard/pkg/enums/itemstatus"
	"github.com/appetiteclub/kitchenboard/pkg/enums/ordertype"
)

const itemColumns = `id, order_id, table_id, name, quantity, order_time, is_quick_cook,
    requires_cooking, is_empty_table_priority, served_dishes_count, status, order_type,
    notes, group_key, started_at, ready_at, served_at, canceled_at, created_at, updated_at, version`

// OrderItemRepo is the database/sql backed dashboard.OrderItemStore.
type OrderItemRepo struct {
	db      *sql.DB
	dialect Dialect
	config  *apt.Config
	logger  apt.Logger
}

func NewOrderItemRepo(config *apt.Config, logger apt.Logger) *OrderItemRepo {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	return &OrderItemRepo{
		config: config,
		logger: logger,
	}
}

// NewOrderItemRepoWithDB wraps an already opened database.
func NewOrderItemRepoWithDB(db *sql.DB, dialect Dialect, logger apt.Logger) *OrderItemRepo {
	r := NewOrderItemRepo(nil, logger)
	r.db = db
	r.dialect = dialect
	return r
}

func (r *OrderItemRepo) Start(ctx context.Context) error {
	driver, _ := r.config.GetString("db.driver")
	if driver == "" {
		driver = string(DialectSQLite)
	}
	dialect, err := DialectFor(driver)
	if err != nil {
		return err
	}

	dsn, _ := r.config.GetString("db.sql.dsn")
	if dsn == "" {
		dsn = "kitchenboard.db"
	}

	db, err := Open(ctx, dialect, dsn)
	if err != nil {
		return err
	}
	if err := EnsureSchema(ctx, db); err != nil {
		db.Close()
		return err
	}

	r.db = db
	r.dialect = dialect
	r.logger.Infof("Connected to %s database", dialect)
	return nil
}

func (r *OrderItemRepo) Stop(ctx context.Context) error {
	if r.db != nil {
		if err := r.db.Close(); err != nil {
			return fmt.Errorf("cannot close database: %w", err)
		}
		r.logger.Info("Database closed")
	}
	return nil
}

// Create inserts item. Items at a table take their served count and
// empty-table flag from the party row, read under the same row lock the
// served update takes, so a concurrent serve cannot slip in between.
func (r *OrderItemRepo) Create(ctx context.Context, item *dashboard.OrderItem) error {
	item.BeforeCreate()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if !item.Takeaway() {
		served, err := r.upsertParty(ctx, tx, item.GroupKey, item.OrderID, 0)
		if err != nil {
			return err
		}
		item.ServedDishesCount = served
		item.IsEmptyTablePriority = served == 0
	}

	_, err = tx.ExecContext(ctx, r.dialect.Rebind(`INSERT INTO order_items (`+itemColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		item.ID.String(), item.OrderID.String(), item.TableID, item.Name, item.Quantity,
		micros(item.OrderTime), item.IsQuickCook, item.RequiresCooking, item.IsEmptyTablePriority,
		item.ServedDishesCount, item.Status.Code(), item.OrderType.Code(), item.Notes, item.GroupKey,
		nullMicros(item.StartedAt), nullMicros(item.ReadyAt), nullMicros(item.ServedAt), nullMicros(item.CanceledAt),
		micros(item.CreatedAt), micros(item.UpdatedAt), item.Version,
	)
	if err != nil {
		return fmt.Errorf("inserting order item: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing order item: %w", err)
	}
	return nil
}

// upsertParty adds delta to the party's served count, creating the row when
// missing, and returns the resulting count. The row stays locked until tx ends.
func (r *OrderItemRepo) upsertParty(ctx context.Context, tx *sql.Tx, groupKey string, orderID dashboard.OrderID, delta int) (int, error) {
	var served int
	err := tx.QueryRowContext(ctx, r.dialect.Rebind(`INSERT INTO table_parties (group_key, order_id, served_dishes_count)
		VALUES (?, ?, ?)
		ON CONFLICT (group_key, order_id)
		DO UPDATE SET served_dishes_count = table_parties.served_dishes_count + ?
		RETURNING served_dishes_count`),
		groupKey, orderID.String(), delta, delta,
	).Scan(&served)
	if err != nil {
		return 0, fmt.Errorf("updating party %s: %w", groupKey, err)
	}
	return served, nil
}

func (r *OrderItemRepo) Get(ctx context.Context, id dashboard.OrderItemID) (*dashboard.OrderItem, error) {
	return r.get(ctx, r.db, id)
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (r *OrderItemRepo) get(ctx context.Context, q queryer, id dashboard.OrderItemID) (*dashboard.OrderItem, error) {
	row := q.QueryRowContext(ctx, r.dialect.Rebind(`SELECT `+itemColumns+` FROM order_items WHERE id = ?`), id.String())
	item, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting order item: %w", err)
	}
	return item, nil
}

func (r *OrderItemRepo) ListActive(ctx context.Context) ([]dashboard.OrderItem, error) {
	return r.list(ctx, `SELECT `+itemColumns+` FROM order_items
		WHERE requires_cooking = ? AND status IN (?, ?)
		ORDER BY order_time, id`,
		true, itemstatus.Statuses.Pending.Code(), itemstatus.Statuses.Preparing.Code())
}

func (r *OrderItemRepo) ListReady(ctx context.Context, since time.Time) ([]dashboard.OrderItem, error) {
	return r.list(ctx, `SELECT `+itemColumns+` FROM order_items
		WHERE status = ? AND ready_at >= ?
		ORDER BY ready_at, id`,
		itemstatus.Statuses.Ready.Code(), micros(since))
}

func (r *OrderItemRepo) list(ctx context.Context, query string, args ...any) ([]dashboard.OrderItem, error) {
	rows, err := r.db.QueryContext(ctx, r.dialect.Rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("listing order items: %w", err)
	}
	defer rows.Close()

	items := make([]dashboard.OrderItem, 0)
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning order item: %w", err)
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}

// PersistStatus applies the conditional status write and, for served items,
// the party-wide update in a single transaction. The party row is locked
// before any item row so concurrent serves within a party queue on it.
func (r *OrderItemRepo) PersistStatus(ctx context.Context, change dashboard.StatusChange) (*dashboard.OrderItem, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	served := 0
	if change.MarkServed {
		served, err = r.upsertParty(ctx, tx, change.GroupKey, change.OrderID, 1)
		if err != nil {
			return nil, err
		}
	}

	var applied dashboard.OrderItem
	dashboard.ApplyStatusChange(&applied, change)

	query := `UPDATE order_items SET status = ?, updated_at = ?, version = ?, ` + timestampColumn(change.To) + ` = ?`
	args := []any{applied.Status.Code(), micros(applied.UpdatedAt), applied.Version, micros(change.At)}
	if change.Notes != "" {
		query += `, notes = ?`
		args = append(args, change.Notes)
	}
	query += ` WHERE id = ? AND version = ?`
	args = append(args, change.ItemID.String(), change.ExpectedVersion)

	res, err := tx.ExecContext(ctx, r.dialect.Rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("updating order item status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("checking updated rows: %w", err)
	}
	if n == 0 {
		current, err := r.get(ctx, tx, change.ItemID)
		if err != nil {
			return nil, err
		}
		if current == nil {
			return nil, fmt.Errorf("%w: %s", dashboard.ErrNotFound, change.ItemID)
		}
		return nil, fmt.Errorf("%w: %s at version %d, expected %d", dashboard.ErrConcurrencyConflict, change.ItemID, current.Version, change.ExpectedVersion)
	}

	if change.MarkServed {
		_, err := tx.ExecContext(ctx, r.dialect.Rebind(`UPDATE order_items
			SET served_dishes_count = ?, is_empty_table_priority = ?
			WHERE group_key = ? AND order_id = ?`),
			served, false, change.GroupKey, change.OrderID.String(),
		)
		if err != nil {
			return nil, fmt.Errorf("marking table %s served: %w", change.GroupKey, err)
		}
	}

	updated, err := r.get(ctx, tx, change.ItemID)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, fmt.Errorf("%w: %s", dashboard.ErrNotFound, change.ItemID)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing status change: %w", err)
	}
	return updated, nil
}

func timestampColumn(s itemstatus.Status) string {
	switch s {
	case itemstatus.Statuses.Preparing:
		return "started_at"
	case itemstatus.Statuses.Ready:
		return "ready_at"
	case itemstatus.Statuses.Served:
		return "served_at"
	default:
		return "canceled_at"
	}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanItem(s scanner) (*dashboard.OrderItem, error) {
	var (
		item                                   dashboard.OrderItem
		status, orderType                      string
		orderTime, createdAt, updatedAt        int64
		startedAt, readyAt, servedAt, canceled sql.NullInt64
	)
	err := s.Scan(
		&item.ID, &item.OrderID, &item.TableID, &item.Name, &item.Quantity, &orderTime,
		&item.IsQuickCook, &item.RequiresCooking, &item.IsEmptyTablePriority, &item.ServedDishesCount,
		&status, &orderType, &item.Notes, &item.GroupKey,
		&startedAt, &readyAt, &servedAt, &canceled,
		&createdAt, &updatedAt, &item.Version,
	)
	if err != nil {
		return nil, err
	}

	item.Status = itemstatus.Status(status)
	item.OrderType = ordertype.Type(orderType)
	item.OrderTime = fromMicros(orderTime)
	item.CreatedAt = fromMicros(createdAt)
	item.UpdatedAt = fromMicros(updatedAt)
	item.StartedAt = fromNullMicros(startedAt)
	item.ReadyAt = fromNullMicros(readyAt)
	item.ServedAt = fromNullMicros(servedAt)
	item.CanceledAt = fromNullMicros(canceled)
	return &item, nil
}

func micros(t time.Time) int64 {
	return t.UnixMicro()
}

func nullMicros(t *time.Time) sql.NullInt64 {
	if t == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: t.UnixMicro(), Valid: true}
}

func fromMicros(v int64) time.Time {
	return time.UnixMicro(v).UTC()
}

func fromNullMicros(v sql.NullInt64) *time.Time {
	if !v.Valid {
		return nil
	}
	t := fromMicros(v.Int64)
	return &t
}
