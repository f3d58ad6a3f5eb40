package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/linemk/online-store/internal/storage"
)

// RefundService принимает запросы на возврат по ref-коду заказа.
// Запрос не привязан к сессии: ref-код работает как bearer-токен,
// подавший его может не быть покупателем.
type RefundService interface {
	RequestRefund(ctx context.Context, refCode, reason, email string) error
}

type refundService struct {
	log        *slog.Logger
	db         *sql.DB
	orderRepo  storage.OrderStorage
	refundRepo storage.RefundStorage
}

func NewRefundService(log *slog.Logger, db *sql.DB, orderRepo storage.OrderStorage, refundRepo storage.RefundStorage) RefundService {
	return &refundService{
		log:        log,
		db:         db,
		orderRepo:  orderRepo,
		refundRepo: refundRepo,
	}
}

// RequestRefund ищет финализированный заказ по ref-коду, выставляет флаг
// refund_requested и создает запись Refund. Обе записи — в одной транзакции.
func (s *refundService) RequestRefund(ctx context.Context, refCode, reason, email string) error {
	const op = "service.RefundService.RequestRefund"
	logger := s.log.With(slog.String("op", op), slog.String("refCode", refCode))
	logger.Info("processing refund request")

	order, err := s.orderRepo.GetOrderByRefCode(ctx, refCode)
	if err != nil {
		if errors.Is(err, storage.ErrOrderNotFound) {
			logger.Info("order not found by ref code")
			return fmt.Errorf("%s: %w", op, storage.ErrOrderNotFound)
		}
		logger.Error("failed to get order by ref code", slog.Any("error", err))
		return fmt.Errorf("%s: failed to get order: %w", op, err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		logger.Error("failed to begin transaction", slog.Any("error", err))
		return fmt.Errorf("%s: failed to begin transaction: %w", op, err)
	}

	if err := s.orderRepo.MarkRefundRequested(ctx, tx, order.ID); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			logger.Error("transaction rollback failed", slog.Any("error", rbErr))
		}
		logger.Error("failed to mark refund requested", slog.Any("error", err))
		return fmt.Errorf("%s: failed to mark refund requested: %w", op, err)
	}

	if _, err := s.refundRepo.CreateRefund(ctx, tx, order.ID, reason, email); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			logger.Error("transaction rollback failed", slog.Any("error", rbErr))
		}
		logger.Error("failed to create refund", slog.Any("error", err))
		return fmt.Errorf("%s: failed to create refund: %w", op, err)
	}

	if err := tx.Commit(); err != nil {
		logger.Error("failed to commit transaction", slog.Any("error", err))
		return fmt.Errorf("%s: failed to commit transaction: %w", op, err)
	}

	logger.Info("refund request recorded", slog.Int64("orderID", order.ID))
	return nil
}
