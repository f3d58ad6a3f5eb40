package storage

import (
	"context"
	"database/sql"
	"fmt"
)

// PaymentStorage описывает методы для работы с платежами.
type PaymentStorage interface {
	// CreatePayment вставляет запись о платеже внутри транзакции финализации заказа.
	// Amount — сумма в минимальных единицах валюты.
	CreatePayment(ctx context.Context, tx *sql.Tx, chargeID string, userID int64, amount int64) (int64, error)
}

// paymentRepository — конкретная реализация PaymentStorage.
type paymentRepository struct {
	db *sql.DB
}

// NewPaymentRepository создаёт новый репозиторий платежей.
func NewPaymentRepository(db *sql.DB) PaymentStorage {
	return &paymentRepository{db: db}
}

func (r *paymentRepository) CreatePayment(ctx context.Context, tx *sql.Tx, chargeID string, userID int64, amount int64) (int64, error) {
	var id int64
	query := `INSERT INTO payments (charge_id, user_id, amount, created_at)
	          VALUES ($1, $2, $3, NOW()) RETURNING id`
	if err := tx.QueryRowContext(ctx, query, chargeID, userID, amount).Scan(&id); err != nil {
		return 0, fmt.Errorf("failed to create payment: %w", err)
	}
	return id, nil
}
