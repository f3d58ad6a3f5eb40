package gateway

import (
	"context"
	"fmt"
)

// ErrorKind классифицирует ошибки платежного шлюза.
type ErrorKind int

const (
	// KindCardDeclined — карта отклонена, сообщение шлюза можно показать пользователю.
	KindCardDeclined ErrorKind = iota
	// KindRateLimited — слишком много запросов к шлюзу.
	KindRateLimited
	// KindInvalidRequest — неверные параметры запроса, ошибка интеграции.
	KindInvalidRequest
	// KindAuthFailed — шлюз не принял ключ API, ошибка конфигурации.
	KindAuthFailed
	// KindNetwork — сетевая ошибка при обращении к шлюзу, можно повторить.
	KindNetwork
	// KindGatewayOther — прочая ошибка шлюза. Списания не было.
	KindGatewayOther
)

// Error — типизированная ошибка шлюза. Message содержит текст шлюза;
// пользователю он показывается только для KindCardDeclined.
type Error struct {
	Kind    ErrorKind
	Message string
	err     error
}

func (e *Error) Error() string {
	return fmt.Sprintf("gateway error (kind %d): %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.err
}

// NewError создаёт типизированную ошибку шлюза.
func NewError(kind ErrorKind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, err: err}
}

// ChargeRequest — параметры списания: сумма в минимальных единицах валюты,
// валюта, одноразовый токен карты и ключ идемпотентности попытки.
type ChargeRequest struct {
	Amount         int64
	Currency       string
	SourceToken    string
	IdempotencyKey string
}

// Gateway описывает внешний платежный шлюз. Charge возвращает идентификатор
// списания либо *Error с классифицированной причиной отказа.
type Gateway interface {
	Charge(ctx context.Context, req ChargeRequest) (string, error)
}
