package models

import "github.com/shopspring/decimal"

// Coupon представляет купон на скидку. Ищется по коду и привязывается к заказу
// по ссылке, никогда не копируется.
type Coupon struct {
	ID     int64           `json:"id"`
	Code   string          `json:"code"`
	Amount decimal.Decimal `json:"amount"`
}
