package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/linemk/online-store/internal/domain/models"
)

var ErrOrderItemNotFound = errors.New("order item not found")

// OrderItemStorage описывает методы для работы с позициями корзины.
type OrderItemStorage interface {
	// GetOrCreate возвращает неоплаченную позицию (user, item), создавая её при
	// отсутствии. Благодаря частичному уникальному индексу по (user_id, item_id)
	// WHERE NOT ordered это один атомарный upsert, а не два последовательных запроса.
	GetOrCreate(ctx context.Context, tx *sql.Tx, userID, itemID int64) (*models.OrderItem, error)
	// Attach привязывает позицию к заказу.
	Attach(ctx context.Context, tx *sql.Tx, orderItemID, orderID int64) error
	// IncrementQuantity увеличивает количество на единицу.
	IncrementQuantity(ctx context.Context, tx *sql.Tx, orderItemID int64) error
	// DecrementQuantity уменьшает количество на единицу.
	DecrementQuantity(ctx context.Context, tx *sql.Tx, orderItemID int64) error
	// Delete удаляет позицию целиком.
	Delete(ctx context.Context, tx *sql.Tx, orderItemID int64) error
	// GetByOrderAndItem возвращает позицию заказа для конкретного товара.
	GetByOrderAndItem(ctx context.Context, tx *sql.Tx, orderID, itemID int64) (*models.OrderItem, error)
	// ListByOrderID возвращает позиции заказа с данными товара через JOIN.
	ListByOrderID(ctx context.Context, orderID int64) ([]*models.OrderItem, error)
	// MarkOrderedByOrderID выставляет ordered = true всем позициям заказа при финализации.
	MarkOrderedByOrderID(ctx context.Context, tx *sql.Tx, orderID int64) error
}

// orderItemRepository — конкретная реализация OrderItemStorage.
type orderItemRepository struct {
	db *sql.DB
}

// NewOrderItemRepository создаёт новый репозиторий позиций корзины.
func NewOrderItemRepository(db *sql.DB) OrderItemStorage {
	return &orderItemRepository{db: db}
}

func (r *orderItemRepository) GetOrCreate(ctx context.Context, tx *sql.Tx, userID, itemID int64) (*models.OrderItem, error) {
	// DO UPDATE с no-op нужен, чтобы RETURNING отдал строку и при конфликте
	query := `INSERT INTO order_items (user_id, item_id, quantity, ordered)
	          VALUES ($1, $2, 1, false)
	          ON CONFLICT (user_id, item_id) WHERE NOT ordered
	          DO UPDATE SET quantity = order_items.quantity
	          RETURNING id, user_id, item_id, order_id, quantity, ordered`
	oi := &models.OrderItem{}
	var orderID sql.NullInt64
	row := tx.QueryRowContext(ctx, query, userID, itemID)
	if err := row.Scan(&oi.ID, &oi.UserID, &oi.ItemID, &orderID, &oi.Quantity, &oi.Ordered); err != nil {
		return nil, fmt.Errorf("failed to get or create order item: %w", err)
	}
	if orderID.Valid {
		oi.OrderID = &orderID.Int64
	}
	return oi, nil
}

func (r *orderItemRepository) Attach(ctx context.Context, tx *sql.Tx, orderItemID, orderID int64) error {
	return r.exec(ctx, tx, `UPDATE order_items SET order_id = $1 WHERE id = $2`, orderID, orderItemID)
}

func (r *orderItemRepository) IncrementQuantity(ctx context.Context, tx *sql.Tx, orderItemID int64) error {
	return r.exec(ctx, tx, `UPDATE order_items SET quantity = quantity + 1 WHERE id = $1`, orderItemID)
}

func (r *orderItemRepository) DecrementQuantity(ctx context.Context, tx *sql.Tx, orderItemID int64) error {
	return r.exec(ctx, tx, `UPDATE order_items SET quantity = quantity - 1 WHERE id = $1 AND quantity > 1`, orderItemID)
}

func (r *orderItemRepository) Delete(ctx context.Context, tx *sql.Tx, orderItemID int64) error {
	return r.exec(ctx, tx, `DELETE FROM order_items WHERE id = $1`, orderItemID)
}

func (r *orderItemRepository) exec(ctx context.Context, tx *sql.Tx, query string, args ...any) error {
	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrOrderItemNotFound
	}
	return nil
}

func (r *orderItemRepository) GetByOrderAndItem(ctx context.Context, tx *sql.Tx, orderID, itemID int64) (*models.OrderItem, error) {
	query := `SELECT id, user_id, item_id, order_id, quantity, ordered
	          FROM order_items WHERE order_id = $1 AND item_id = $2`
	oi := &models.OrderItem{}
	var oid sql.NullInt64
	row := tx.QueryRowContext(ctx, query, orderID, itemID)
	if err := row.Scan(&oi.ID, &oi.UserID, &oi.ItemID, &oid, &oi.Quantity, &oi.Ordered); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOrderItemNotFound
		}
		return nil, err
	}
	if oid.Valid {
		oi.OrderID = &oid.Int64
	}
	return oi, nil
}

func (r *orderItemRepository) ListByOrderID(ctx context.Context, orderID int64) ([]*models.OrderItem, error) {
	query := `
		SELECT oi.id, oi.user_id, oi.item_id, oi.order_id, oi.quantity, oi.ordered,
		       i.slug, i.name, i.price, i.discount_price
		FROM order_items oi
		JOIN items i ON oi.item_id = i.id
		WHERE oi.order_id = $1
		ORDER BY oi.id`
	rows, err := r.db.QueryContext(ctx, query, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*models.OrderItem
	for rows.Next() {
		oi := &models.OrderItem{}
		var oid sql.NullInt64
		if err := rows.Scan(&oi.ID, &oi.UserID, &oi.ItemID, &oid, &oi.Quantity, &oi.Ordered,
			&oi.ItemSlug, &oi.ItemName, &oi.Price, &oi.DiscountPrice); err != nil {
			return nil, err
		}
		if oid.Valid {
			oi.OrderID = &oid.Int64
		}
		items = append(items, oi)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

func (r *orderItemRepository) MarkOrderedByOrderID(ctx context.Context, tx *sql.Tx, orderID int64) error {
	_, err := tx.ExecContext(ctx, `UPDATE order_items SET ordered = true WHERE order_id = $1`, orderID)
	if err != nil {
		return fmt.Errorf("failed to mark order items ordered: %w", err)
	}
	return nil
}
