package storage

import (
	"context"
	"database/sql"
	"fmt"
)

// RefundStorage описывает методы для работы с запросами на возврат.
type RefundStorage interface {
	// CreateRefund вставляет запись о запросе на возврат внутри транзакции.
	CreateRefund(ctx context.Context, tx *sql.Tx, orderID int64, reason, email string) (int64, error)
}

// refundRepository — конкретная реализация RefundStorage.
type refundRepository struct {
	db *sql.DB
}

// NewRefundRepository создаёт новый репозиторий возвратов.
func NewRefundRepository(db *sql.DB) RefundStorage {
	return &refundRepository{db: db}
}

func (r *refundRepository) CreateRefund(ctx context.Context, tx *sql.Tx, orderID int64, reason, email string) (int64, error) {
	var id int64
	query := `INSERT INTO refunds (order_id, reason, email, accepted, created_at)
	          VALUES ($1, $2, $3, false, NOW()) RETURNING id`
	if err := tx.QueryRowContext(ctx, query, orderID, reason, email).Scan(&id); err != nil {
		return 0, fmt.Errorf("failed to create refund: %w", err)
	}
	return id, nil
}
