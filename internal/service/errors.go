package service

import "errors"

// Ошибки уровня бизнес-логики. Все они разрешаются в информационное сообщение
// пользователю и редирект, а не в фатальный ответ.
var (
	// ErrNoActiveOrder — у пользователя нет активной корзины.
	ErrNoActiveOrder = errors.New("no active order")
	// ErrItemNotInCart — товара нет в активной корзине.
	ErrItemNotInCart = errors.New("item not in cart")
	// ErrNoDefaultShipping — нет сохраненного адреса доставки по умолчанию.
	ErrNoDefaultShipping = errors.New("no default shipping address available")
	// ErrNoDefaultBilling — нет сохраненного платежного адреса по умолчанию.
	ErrNoDefaultBilling = errors.New("no default billing address available")
	// ErrIncompleteAddress — не заполнены обязательные поля адреса.
	ErrIncompleteAddress = errors.New("incomplete address")
	// ErrNoBillingAddress — к заказу не привязан платежный адрес.
	ErrNoBillingAddress = errors.New("order has no billing address")
	// ErrInvalidPaymentOption — неизвестный способ оплаты.
	ErrInvalidPaymentOption = errors.New("invalid payment option")
)
