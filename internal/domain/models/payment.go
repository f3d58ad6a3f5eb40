package models

import "time"

// Payment представляет проведенный платеж. Amount хранится в минимальных
// единицах валюты (центах), как того требует платежный шлюз.
type Payment struct {
	ID        int64     `json:"id"`
	ChargeID  string    `json:"charge_id"` // Идентификатор списания на стороне шлюза
	UserID    int64     `json:"user_id"`
	Amount    int64     `json:"amount"`
	CreatedAt time.Time `json:"created_at"`
}
