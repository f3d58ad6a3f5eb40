package models

// Типы адресов: доставка и оплата.
const (
	AddressTypeShipping = "S"
	AddressTypeBilling  = "B"
)

// Address представляет адрес пользователя. Адрес с is_default = true используется,
// когда пользователь выбирает "использовать адрес по умолчанию" на чекауте.
type Address struct {
	ID               int64  `json:"id"`
	UserID           int64  `json:"user_id"`
	StreetAddress    string `json:"street_address"`
	ApartmentAddress string `json:"apartment_address,omitempty"`
	Country          string `json:"country"`
	Zip              string `json:"zip"`
	AddressType      string `json:"address_type"` // "S" или "B"
	Default          bool   `json:"default"`
}
