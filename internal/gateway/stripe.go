package gateway

import (
	"context"
	"errors"

	stripe "github.com/stripe/stripe-go/v72"
	"github.com/stripe/stripe-go/v72/charge"
)

// StripeGateway — реализация Gateway поверх Stripe. Ключ API передается явно
// при создании и живет внутри клиента, глобальный stripe.Key не используется.
type StripeGateway struct {
	client *charge.Client
}

// NewStripeGateway создаёт шлюз с переданным секретным ключом.
func NewStripeGateway(secretKey string) *StripeGateway {
	return &StripeGateway{
		client: &charge.Client{
			B:   stripe.GetBackend(stripe.APIBackend),
			Key: secretKey,
		},
	}
}

func (g *StripeGateway) Charge(ctx context.Context, req ChargeRequest) (string, error) {
	params := &stripe.ChargeParams{
		Params: stripe.Params{
			Context:        ctx,
			IdempotencyKey: stripe.String(req.IdempotencyKey),
		},
		Amount:   stripe.Int64(req.Amount),
		Currency: stripe.String(req.Currency),
	}
	if err := params.SetSource(req.SourceToken); err != nil {
		return "", NewError(KindInvalidRequest, "invalid source token", err)
	}

	ch, err := g.client.New(params)
	if err != nil {
		return "", classify(err)
	}
	return ch.ID, nil
}

// classify переводит ошибку Stripe в таксономию шлюза.
func classify(err error) *Error {
	var stripeErr *stripe.Error
	if !errors.As(err, &stripeErr) {
		// Ответ от шлюза не получен вовсе
		return NewError(KindNetwork, err.Error(), err)
	}

	switch stripeErr.Err.(type) {
	case *stripe.CardError:
		return NewError(KindCardDeclined, stripeErr.Msg, err)
	case *stripe.RateLimitError:
		return NewError(KindRateLimited, stripeErr.Msg, err)
	case *stripe.InvalidRequestError:
		return NewError(KindInvalidRequest, stripeErr.Msg, err)
	case *stripe.AuthenticationError:
		return NewError(KindAuthFailed, stripeErr.Msg, err)
	case *stripe.APIConnectionError:
		return NewError(KindNetwork, stripeErr.Msg, err)
	}
	return NewError(KindGatewayOther, stripeErr.Msg, err)
}
