package models

import "time"

// Refund представляет запрос на возврат по финализированному заказу.
// Создается без привязки к сессии: ref-код заказа работает как bearer-токен.
type Refund struct {
	ID        int64     `json:"id"`
	OrderID   int64     `json:"order_id"`
	Reason    string    `json:"reason"`
	Email     string    `json:"email"`
	Accepted  bool      `json:"accepted"`
	CreatedAt time.Time `json:"created_at"`
}
