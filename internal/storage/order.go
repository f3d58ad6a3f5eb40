package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/linemk/online-store/internal/domain/models"
)

var ErrOrderNotFound = errors.New("order not found")

// ErrRefCodeTaken возвращается при попытке финализировать заказ с уже занятым ref-кодом.
var ErrRefCodeTaken = errors.New("ref code already taken")

// OrderStorage описывает методы для работы с заказами.
type OrderStorage interface {
	// GetActiveOrder возвращает активную корзину пользователя (ordered = false) вместе с купоном.
	GetActiveOrder(ctx context.Context, userID int64) (*models.Order, error)
	// GetActiveOrderTx возвращает активную корзину с блокировкой FOR UPDATE внутри транзакции.
	GetActiveOrderTx(ctx context.Context, tx *sql.Tx, userID int64) (*models.Order, error)
	// CreateActiveOrder создает активную корзину. Частичный уникальный индекс по
	// (user_id) WHERE NOT ordered гарантирует не более одной корзины на пользователя:
	// при гонке вставка ничего не делает и возвращается уже существующая корзина.
	CreateActiveOrder(ctx context.Context, tx *sql.Tx, userID int64, orderedDate time.Time) (*models.Order, error)
	// AttachShippingAddress сохраняет ссылку на адрес доставки.
	AttachShippingAddress(ctx context.Context, orderID, addressID int64) error
	// AttachBillingAddress сохраняет ссылку на платежный адрес.
	AttachBillingAddress(ctx context.Context, orderID, addressID int64) error
	// AttachCoupon привязывает купон к заказу по ссылке.
	AttachCoupon(ctx context.Context, orderID, couponID int64) error
	// FinalizeOrder переводит заказ в оплаченное состояние: ordered = true, ref_code,
	// ссылка на платеж. Возвращает ErrRefCodeTaken при нарушении уникальности ref-кода.
	FinalizeOrder(ctx context.Context, tx *sql.Tx, orderID, paymentID int64, refCode string) error
	// GetOrderByRefCode ищет заказ по ref-коду глобально, без привязки к пользователю.
	GetOrderByRefCode(ctx context.Context, refCode string) (*models.Order, error)
	// MarkRefundRequested выставляет флаг запроса на возврат.
	MarkRefundRequested(ctx context.Context, tx *sql.Tx, orderID int64) error
}

// orderRepository — конкретная реализация OrderStorage.
type orderRepository struct {
	db *sql.DB
}

// NewOrderRepository создаёт новый репозиторий заказов.
func NewOrderRepository(db *sql.DB) OrderStorage {
	return &orderRepository{db: db}
}

const orderColumns = `o.id, o.user_id, o.ordered, o.ordered_date, o.shipping_address_id,
	o.billing_address_id, o.coupon_id, o.payment_id, o.ref_code, o.refund_requested`

// scanOrder разбирает строку заказа с опциональными полями.
func scanOrder(row *sql.Row) (*models.Order, error) {
	order := &models.Order{}
	var shippingID, billingID, couponID, paymentID sql.NullInt64
	var refCode sql.NullString
	if err := row.Scan(
		&order.ID, &order.UserID, &order.Ordered, &order.OrderedDate,
		&shippingID, &billingID, &couponID, &paymentID, &refCode, &order.RefundRequested,
	); err != nil {
		return nil, err
	}
	if shippingID.Valid {
		order.ShippingAddressID = &shippingID.Int64
	}
	if billingID.Valid {
		order.BillingAddressID = &billingID.Int64
	}
	if couponID.Valid {
		order.CouponID = &couponID.Int64
	}
	if paymentID.Valid {
		order.PaymentID = &paymentID.Int64
	}
	if refCode.Valid {
		order.RefCode = refCode.String
	}
	return order, nil
}

func (r *orderRepository) GetActiveOrder(ctx context.Context, userID int64) (*models.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders o WHERE o.user_id = $1 AND NOT o.ordered`
	order, err := scanOrder(r.db.QueryRowContext(ctx, query, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}

	// Подтягиваем купон, если он привязан
	if order.CouponID != nil {
		coupon := &models.Coupon{}
		row := r.db.QueryRowContext(ctx, `SELECT id, code, amount FROM coupons WHERE id = $1`, *order.CouponID)
		if err := row.Scan(&coupon.ID, &coupon.Code, &coupon.Amount); err != nil {
			if !errors.Is(err, sql.ErrNoRows) {
				return nil, err
			}
		} else {
			order.Coupon = coupon
		}
	}
	return order, nil
}

func (r *orderRepository) GetActiveOrderTx(ctx context.Context, tx *sql.Tx, userID int64) (*models.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders o WHERE o.user_id = $1 AND NOT o.ordered FOR UPDATE`
	order, err := scanOrder(tx.QueryRowContext(ctx, query, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	return order, nil
}

func (r *orderRepository) CreateActiveOrder(ctx context.Context, tx *sql.Tx, userID int64, orderedDate time.Time) (*models.Order, error) {
	query := `INSERT INTO orders (user_id, ordered, ordered_date, refund_requested, created_at)
	          VALUES ($1, false, $2, false, NOW())
	          ON CONFLICT (user_id) WHERE NOT ordered DO NOTHING
	          RETURNING id`
	var id int64
	err := tx.QueryRowContext(ctx, query, userID, orderedDate).Scan(&id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// Гонка: корзину успел создать параллельный запрос, возвращаем её
			return r.GetActiveOrderTx(ctx, tx, userID)
		}
		return nil, fmt.Errorf("failed to create order: %w", err)
	}
	return &models.Order{ID: id, UserID: userID, OrderedDate: orderedDate}, nil
}

func (r *orderRepository) AttachShippingAddress(ctx context.Context, orderID, addressID int64) error {
	return r.attach(ctx, `UPDATE orders SET shipping_address_id = $1 WHERE id = $2 AND NOT ordered`, addressID, orderID)
}

func (r *orderRepository) AttachBillingAddress(ctx context.Context, orderID, addressID int64) error {
	return r.attach(ctx, `UPDATE orders SET billing_address_id = $1 WHERE id = $2 AND NOT ordered`, addressID, orderID)
}

func (r *orderRepository) AttachCoupon(ctx context.Context, orderID, couponID int64) error {
	return r.attach(ctx, `UPDATE orders SET coupon_id = $1 WHERE id = $2 AND NOT ordered`, couponID, orderID)
}

func (r *orderRepository) attach(ctx context.Context, query string, refID, orderID int64) error {
	res, err := r.db.ExecContext(ctx, query, refID, orderID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrOrderNotFound
	}
	return nil
}

func (r *orderRepository) FinalizeOrder(ctx context.Context, tx *sql.Tx, orderID, paymentID int64, refCode string) error {
	query := `UPDATE orders SET ordered = true, ref_code = $1, payment_id = $2
	          WHERE id = $3 AND NOT ordered`
	res, err := tx.ExecContext(ctx, query, refCode, paymentID, orderID)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrRefCodeTaken
		}
		return fmt.Errorf("failed to finalize order: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrOrderNotFound
	}
	return nil
}

func (r *orderRepository) GetOrderByRefCode(ctx context.Context, refCode string) (*models.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders o WHERE o.ref_code = $1`
	order, err := scanOrder(r.db.QueryRowContext(ctx, query, refCode))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	return order, nil
}

func (r *orderRepository) MarkRefundRequested(ctx context.Context, tx *sql.Tx, orderID int64) error {
	res, err := tx.ExecContext(ctx, `UPDATE orders SET refund_requested = true WHERE id = $1`, orderID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrOrderNotFound
	}
	return nil
}
