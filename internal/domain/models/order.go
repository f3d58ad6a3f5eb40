package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderItem представляет позицию корзины: товар и его количество у пользователя.
// Пока позиция лежит в корзине, ordered = false; после оплаты заказа — true.
// OrderID может быть пустым: get-or-create создает позицию до привязки к заказу.
type OrderItem struct {
	ID       int64  `json:"id"`
	UserID   int64  `json:"user_id"`
	ItemID   int64  `json:"item_id"`
	OrderID  *int64 `json:"order_id,omitempty"`
	Quantity int    `json:"quantity"`
	Ordered  bool   `json:"ordered"`

	// Поля товара, заполняются через JOIN с таблицей items
	ItemSlug      string              `json:"item_slug"`
	ItemName      string              `json:"item_name"`
	Price         decimal.Decimal     `json:"price"`
	DiscountPrice decimal.NullDecimal `json:"discount_price,omitempty"`
}

// EffectivePrice возвращает цену позиции за единицу с учетом скидки.
func (oi *OrderItem) EffectivePrice() decimal.Decimal {
	if oi.DiscountPrice.Valid {
		return oi.DiscountPrice.Decimal
	}
	return oi.Price
}

// Order представляет заказ. Пока ordered = false — это активная корзина пользователя,
// после успешной оплаты флаг становится true ровно один раз и заказ неизменяем.
type Order struct {
	ID                int64     `json:"id"`
	UserID            int64     `json:"user_id"`
	Ordered           bool      `json:"ordered"`
	OrderedDate       time.Time `json:"ordered_date"`
	ShippingAddressID *int64    `json:"shipping_address_id,omitempty"`
	BillingAddressID  *int64    `json:"billing_address_id,omitempty"`
	CouponID          *int64    `json:"coupon_id,omitempty"`
	PaymentID         *int64    `json:"payment_id,omitempty"`
	RefCode           string    `json:"ref_code,omitempty"` // Присваивается при финализации
	RefundRequested   bool      `json:"refund_requested"`

	Items  []*OrderItem `json:"items,omitempty"`
	Coupon *Coupon      `json:"coupon,omitempty"`
}
