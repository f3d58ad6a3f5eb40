package models

import "github.com/shopspring/decimal"

// Item представляет товар каталога. Для корзины и заказов товар неизменяем.
type Item struct {
	ID            int64               `json:"id"`
	Slug          string              `json:"slug"` // Уникальный идентификатор товара в URL
	Name          string              `json:"name"`
	Price         decimal.Decimal     `json:"price"`
	DiscountPrice decimal.NullDecimal `json:"discount_price,omitempty"` // Цена со скидкой, если есть
}

// EffectivePrice возвращает цену со скидкой, если она задана, иначе обычную цену.
func (i *Item) EffectivePrice() decimal.Decimal {
	if i.DiscountPrice.Valid {
		return i.DiscountPrice.Decimal
	}
	return i.Price
}
