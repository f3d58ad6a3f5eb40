package storage

import (
	"context"
	"database/sql"
	"errors"

	"github.com/linemk/online-store/internal/domain/models"
)

var ErrCouponNotFound = errors.New("coupon not found")

// CouponStorage описывает методы для работы с купонами.
type CouponStorage interface {
	// GetCouponByCode ищет купон по его коду.
	GetCouponByCode(ctx context.Context, code string) (*models.Coupon, error)
}

// couponRepository — конкретная реализация CouponStorage.
type couponRepository struct {
	db *sql.DB
}

// NewCouponRepository создаёт новый репозиторий купонов.
func NewCouponRepository(db *sql.DB) CouponStorage {
	return &couponRepository{db: db}
}

func (r *couponRepository) GetCouponByCode(ctx context.Context, code string) (*models.Coupon, error) {
	coupon := &models.Coupon{}
	query := "SELECT id, code, amount FROM coupons WHERE code = $1"
	row := r.db.QueryRowContext(ctx, query, code)
	if err := row.Scan(&coupon.ID, &coupon.Code, &coupon.Amount); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCouponNotFound
		}
		return nil, err
	}
	return coupon, nil
}
