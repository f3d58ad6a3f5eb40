package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/linemk/online-store/internal/storage"
)

// CouponService привязывает купон к активной корзине.
type CouponService interface {
	// ApplyCoupon ищет купон по коду и привязывает его к активной корзине пользователя.
	ApplyCoupon(ctx context.Context, userID int64, code string) error
}

type couponService struct {
	log        *slog.Logger
	orderRepo  storage.OrderStorage
	couponRepo storage.CouponStorage
}

func NewCouponService(log *slog.Logger, orderRepo storage.OrderStorage, couponRepo storage.CouponStorage) CouponService {
	return &couponService{
		log:        log,
		orderRepo:  orderRepo,
		couponRepo: couponRepo,
	}
}

func (s *couponService) ApplyCoupon(ctx context.Context, userID int64, code string) error {
	const op = "service.CouponService.ApplyCoupon"
	logger := s.log.With(slog.String("op", op), slog.Int64("userID", userID), slog.String("code", code))
	logger.Info("applying coupon")

	coupon, err := s.couponRepo.GetCouponByCode(ctx, code)
	if err != nil {
		logger.Warn("failed to get coupon", slog.Any("error", err))
		return fmt.Errorf("%s: failed to get coupon: %w", op, err)
	}

	order, err := s.orderRepo.GetActiveOrder(ctx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrOrderNotFound) {
			logger.Info("no active cart")
			return fmt.Errorf("%s: %w", op, ErrNoActiveOrder)
		}
		logger.Error("failed to get active order", slog.Any("error", err))
		return fmt.Errorf("%s: failed to get active order: %w", op, err)
	}

	// Купон привязывается по ссылке, запись купона не копируется
	if err := s.orderRepo.AttachCoupon(ctx, order.ID, coupon.ID); err != nil {
		logger.Error("failed to attach coupon", slog.Any("error", err))
		return fmt.Errorf("%s: failed to attach coupon: %w", op, err)
	}

	logger.Info("coupon applied", slog.Int64("couponID", coupon.ID))
	return nil
}
