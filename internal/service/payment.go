package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/linemk/online-store/internal/domain/models"
	"github.com/linemk/online-store/internal/gateway"
	"github.com/linemk/online-store/internal/lib/refcode"
	"github.com/linemk/online-store/internal/storage"
	"github.com/shopspring/decimal"
)

// PaymentService проводит оплату активной корзины через внешний шлюз
// и финализирует заказ.
type PaymentService interface {
	// Charge списывает сумму заказа по токену карты и финализирует заказ.
	Charge(ctx context.Context, userID int64, token string) (*PaymentResult, error)
	// Context возвращает заказ для страницы оплаты; требует привязанный платежный адрес.
	Context(ctx context.Context, userID int64) (*PaymentContext, error)
}

// PaymentResult — итог успешной оплаты.
type PaymentResult struct {
	RefCode string `json:"ref_code"`
	Amount  int64  `json:"amount"` // в минимальных единицах валюты
}

// PaymentContext — данные для страницы оплаты. Форма купона на ней не показывается.
type PaymentContext struct {
	Order             *models.Order   `json:"order"`
	Total             decimal.Decimal `json:"total"`
	DisplayCouponForm bool            `json:"display_coupon_form"`
}

type paymentService struct {
	log           *slog.Logger
	db            *sql.DB
	gw            gateway.Gateway
	currency      string
	orderRepo     storage.OrderStorage
	orderItemRepo storage.OrderItemStorage
	paymentRepo   storage.PaymentStorage
}

func NewPaymentService(log *slog.Logger, db *sql.DB, gw gateway.Gateway, currency string,
	orderRepo storage.OrderStorage, orderItemRepo storage.OrderItemStorage, paymentRepo storage.PaymentStorage) PaymentService {
	return &paymentService{
		log:           log,
		db:            db,
		gw:            gw,
		currency:      currency,
		orderRepo:     orderRepo,
		orderItemRepo: orderItemRepo,
		paymentRepo:   paymentRepo,
	}
}

// OrderTotal считает сумму заказа: эффективная цена позиции (скидочная, если есть)
// умноженная на количество, минус скидка купона.
func OrderTotal(items []*models.OrderItem, coupon *models.Coupon) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.EffectivePrice().Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	if coupon != nil {
		total = total.Sub(coupon.Amount)
	}
	return total
}

// MinorUnits переводит сумму в минимальные единицы валюты с усечением,
// как того требует шлюз.
func MinorUnits(total decimal.Decimal) int64 {
	return total.Mul(decimal.NewFromInt(100)).IntPart()
}

// Сколько раз пробуем сгенерировать ref-код при конфликте уникальности.
// Пространство кодов 36^20, на практике первая попытка всегда последняя.
const maxFinalizeAttempts = 5

// Charge проводит оплату. Запись Payment создается в одной транзакции с переводом
// заказа в ordered = true: заказ не может стать оплаченным без сохраненного платежа,
// а любая ошибка шлюза приходит раньше первой записи в БД.
func (s *paymentService) Charge(ctx context.Context, userID int64, token string) (*PaymentResult, error) {
	const op = "service.PaymentService.Charge"
	logger := s.log.With(slog.String("op", op), slog.Int64("userID", userID))
	logger.Info("charging order")

	order, err := s.orderRepo.GetActiveOrder(ctx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrOrderNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrNoActiveOrder)
		}
		logger.Error("failed to get active order", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to get active order: %w", op, err)
	}
	if order.BillingAddressID == nil {
		logger.Warn("order has no billing address")
		return nil, fmt.Errorf("%s: %w", op, ErrNoBillingAddress)
	}

	items, err := s.orderItemRepo.ListByOrderID(ctx, order.ID)
	if err != nil {
		logger.Error("failed to list order items", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to list order items: %w", op, err)
	}

	amount := MinorUnits(OrderTotal(items, order.Coupon))
	logger.Info("calling payment gateway", slog.Int64("amount", amount))

	// Единственный блокирующий сетевой вызов операции. Ошибка шлюза возвращается
	// до каких-либо записей в БД — заказ остается неоплаченной корзиной.
	chargeID, err := s.gw.Charge(ctx, gateway.ChargeRequest{
		Amount:         amount,
		Currency:       s.currency,
		SourceToken:    token,
		IdempotencyKey: uuid.NewString(),
	})
	if err != nil {
		logger.Warn("gateway charge failed", slog.Any("error", err))
		return nil, fmt.Errorf("%s: gateway charge failed: %w", op, err)
	}
	logger.Info("gateway charge succeeded", slog.String("chargeID", chargeID))

	// Финализация. При коллизии ref-кода транзакция в postgres уже прервана,
	// поэтому повторяем её целиком с новым кодом.
	for attempt := 1; attempt <= maxFinalizeAttempts; attempt++ {
		code := refcode.New(refcode.Length)
		result, err := s.finalize(ctx, order, chargeID, amount, code)
		if err != nil {
			if errors.Is(err, storage.ErrRefCodeTaken) {
				logger.Warn("ref code collision, retrying", slog.Int("attempt", attempt))
				continue
			}
			logger.Error("failed to finalize order", slog.Any("error", err))
			return nil, fmt.Errorf("%s: failed to finalize order: %w", op, err)
		}
		logger.Info("order finalized", slog.String("refCode", result.RefCode), slog.Int64("amount", result.Amount))
		return result, nil
	}
	return nil, fmt.Errorf("%s: failed to finalize order: ref code attempts exhausted", op)
}

// finalize создает Payment и переводит заказ в оплаченное состояние в одной транзакции.
func (s *paymentService) finalize(ctx context.Context, order *models.Order, chargeID string, amount int64, code string) (*PaymentResult, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}

	paymentID, err := s.paymentRepo.CreatePayment(ctx, tx, chargeID, order.UserID, amount)
	if err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			s.log.Error("transaction rollback failed", slog.Any("error", rbErr))
		}
		return nil, fmt.Errorf("failed to create payment: %w", err)
	}

	if err := s.orderRepo.FinalizeOrder(ctx, tx, order.ID, paymentID, code); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			s.log.Error("transaction rollback failed", slog.Any("error", rbErr))
		}
		return nil, err
	}

	if err := s.orderItemRepo.MarkOrderedByOrderID(ctx, tx, order.ID); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			s.log.Error("transaction rollback failed", slog.Any("error", rbErr))
		}
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return &PaymentResult{RefCode: code, Amount: amount}, nil
}

// Context возвращает заказ для страницы оплаты. Без платежного адреса оплата
// недоступна — пользователя возвращают на чекаут.
func (s *paymentService) Context(ctx context.Context, userID int64) (*PaymentContext, error) {
	const op = "service.PaymentService.Context"
	logger := s.log.With(slog.String("op", op), slog.Int64("userID", userID))

	order, err := s.orderRepo.GetActiveOrder(ctx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrOrderNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrNoActiveOrder)
		}
		logger.Error("failed to get active order", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to get active order: %w", op, err)
	}
	if order.BillingAddressID == nil {
		return nil, fmt.Errorf("%s: %w", op, ErrNoBillingAddress)
	}

	items, err := s.orderItemRepo.ListByOrderID(ctx, order.ID)
	if err != nil {
		logger.Error("failed to list order items", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to list order items: %w", op, err)
	}
	order.Items = items

	return &PaymentContext{
		Order:             order,
		Total:             OrderTotal(order.Items, order.Coupon),
		DisplayCouponForm: false,
	}, nil
}
