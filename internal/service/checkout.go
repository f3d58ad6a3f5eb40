package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/linemk/online-store/internal/domain/models"
	"github.com/linemk/online-store/internal/storage"
)

// Варианты оплаты на чекауте: карта и альтернативный способ.
const (
	PaymentOptionCard      = "S"
	PaymentOptionAlternate = "P"
)

// CheckoutForm перечисляет все распознаваемые поля формы чекаута.
// Каждый флаг явно переключает ветку: lookup по умолчанию либо создание нового адреса.
type CheckoutForm struct {
	ShippingAddress  string
	ShippingAddress2 string
	ShippingCountry  string
	ShippingZip      string

	BillingAddress  string
	BillingAddress2 string
	BillingCountry  string
	BillingZip      string

	UseDefaultShipping bool
	SetDefaultShipping bool
	SameBillingAddress bool
	UseDefaultBilling  bool
	SetDefaultBilling  bool

	PaymentOption string // "S" — карта, "P" — альтернативный способ
}

// CheckoutContext — данные для страницы чекаута.
type CheckoutContext struct {
	Order                  *models.Order   `json:"order"`
	DefaultShippingAddress *models.Address `json:"default_shipping_address,omitempty"`
	DefaultBillingAddress  *models.Address `json:"default_billing_address,omitempty"`
	DisplayCouponForm      bool            `json:"display_coupon_form"`
}

// CheckoutService резолвит адреса доставки и оплаты и привязывает их к заказу.
type CheckoutService interface {
	// Checkout применяет форму к активной корзине и возвращает выбранный способ оплаты.
	Checkout(ctx context.Context, userID int64, form CheckoutForm) (string, error)
	// Context возвращает данные для страницы чекаута.
	Context(ctx context.Context, userID int64) (*CheckoutContext, error)
}

type checkoutService struct {
	log         *slog.Logger
	orderRepo   storage.OrderStorage
	addressRepo storage.AddressStorage
}

func NewCheckoutService(log *slog.Logger, orderRepo storage.OrderStorage, addressRepo storage.AddressStorage) CheckoutService {
	return &checkoutService{
		log:         log,
		orderRepo:   orderRepo,
		addressRepo: addressRepo,
	}
}

// Checkout резолвит адреса и привязывает их к заказу. Привязка каждого адреса
// сохраняется сразу, без общей транзакции: сбой на платежном адресе оставляет
// заказ с уже привязанным адресом доставки, чекаут можно повторить.
func (s *checkoutService) Checkout(ctx context.Context, userID int64, form CheckoutForm) (string, error) {
	const op = "service.CheckoutService.Checkout"
	logger := s.log.With(slog.String("op", op), slog.Int64("userID", userID))
	logger.Info("processing checkout")

	order, err := s.orderRepo.GetActiveOrder(ctx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrOrderNotFound) {
			return "", fmt.Errorf("%s: %w", op, ErrNoActiveOrder)
		}
		logger.Error("failed to get active order", slog.Any("error", err))
		return "", fmt.Errorf("%s: failed to get active order: %w", op, err)
	}

	shippingAddress, err := s.resolveShippingAddress(ctx, userID, form)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	if err := s.orderRepo.AttachShippingAddress(ctx, order.ID, shippingAddress.ID); err != nil {
		logger.Error("failed to attach shipping address", slog.Any("error", err))
		return "", fmt.Errorf("%s: failed to attach shipping address: %w", op, err)
	}

	billingAddress, err := s.resolveBillingAddress(ctx, userID, form, shippingAddress)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	if err := s.orderRepo.AttachBillingAddress(ctx, order.ID, billingAddress.ID); err != nil {
		logger.Error("failed to attach billing address", slog.Any("error", err))
		return "", fmt.Errorf("%s: failed to attach billing address: %w", op, err)
	}

	switch form.PaymentOption {
	case PaymentOptionCard, PaymentOptionAlternate:
		logger.Info("checkout complete", slog.String("paymentOption", form.PaymentOption))
		return form.PaymentOption, nil
	default:
		logger.Warn("invalid payment option", slog.String("paymentOption", form.PaymentOption))
		return "", fmt.Errorf("%s: %w", op, ErrInvalidPaymentOption)
	}
}

// resolveShippingAddress возвращает адрес доставки: сохраненный по умолчанию
// либо созданный из полей формы.
func (s *checkoutService) resolveShippingAddress(ctx context.Context, userID int64, form CheckoutForm) (*models.Address, error) {
	if form.UseDefaultShipping {
		address, err := s.addressRepo.GetDefault(ctx, userID, models.AddressTypeShipping)
		if err != nil {
			if errors.Is(err, storage.ErrAddressNotFound) {
				return nil, ErrNoDefaultShipping
			}
			return nil, fmt.Errorf("failed to get default shipping address: %w", err)
		}
		return address, nil
	}

	if !isValidAddress(form.ShippingAddress, form.ShippingCountry, form.ShippingZip) {
		return nil, ErrIncompleteAddress
	}

	address, err := s.addressRepo.CreateAddress(ctx, &models.Address{
		UserID:           userID,
		StreetAddress:    form.ShippingAddress,
		ApartmentAddress: form.ShippingAddress2,
		Country:          form.ShippingCountry,
		Zip:              form.ShippingZip,
		AddressType:      models.AddressTypeShipping,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create shipping address: %w", err)
	}

	if form.SetDefaultShipping {
		if err := s.addressRepo.SetDefault(ctx, userID, address.ID, models.AddressTypeShipping); err != nil {
			return nil, fmt.Errorf("failed to set default shipping address: %w", err)
		}
	}
	return address, nil
}

// resolveBillingAddress возвращает платежный адрес: копию адреса доставки,
// сохраненный по умолчанию либо созданный из полей формы.
func (s *checkoutService) resolveBillingAddress(ctx context.Context, userID int64, form CheckoutForm, shipping *models.Address) (*models.Address, error) {
	if form.SameBillingAddress {
		// Копия — отдельная запись: правки одного адреса не задевают другой
		address, err := s.addressRepo.CloneAddress(ctx, shipping.ID, models.AddressTypeBilling)
		if err != nil {
			return nil, fmt.Errorf("failed to clone shipping address: %w", err)
		}
		return address, nil
	}

	if form.UseDefaultBilling {
		address, err := s.addressRepo.GetDefault(ctx, userID, models.AddressTypeBilling)
		if err != nil {
			if errors.Is(err, storage.ErrAddressNotFound) {
				return nil, ErrNoDefaultBilling
			}
			return nil, fmt.Errorf("failed to get default billing address: %w", err)
		}
		return address, nil
	}

	if !isValidAddress(form.BillingAddress, form.BillingCountry, form.BillingZip) {
		return nil, ErrIncompleteAddress
	}

	address, err := s.addressRepo.CreateAddress(ctx, &models.Address{
		UserID:           userID,
		StreetAddress:    form.BillingAddress,
		ApartmentAddress: form.BillingAddress2,
		Country:          form.BillingCountry,
		Zip:              form.BillingZip,
		AddressType:      models.AddressTypeBilling,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create billing address: %w", err)
	}

	if form.SetDefaultBilling {
		if err := s.addressRepo.SetDefault(ctx, userID, address.ID, models.AddressTypeBilling); err != nil {
			return nil, fmt.Errorf("failed to set default billing address: %w", err)
		}
	}
	return address, nil
}

// Context собирает данные для страницы чекаута: заказ и адреса по умолчанию.
func (s *checkoutService) Context(ctx context.Context, userID int64) (*CheckoutContext, error) {
	const op = "service.CheckoutService.Context"
	logger := s.log.With(slog.String("op", op), slog.Int64("userID", userID))

	order, err := s.orderRepo.GetActiveOrder(ctx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrOrderNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrNoActiveOrder)
		}
		logger.Error("failed to get active order", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to get active order: %w", op, err)
	}

	checkoutCtx := &CheckoutContext{
		Order:             order,
		DisplayCouponForm: true,
	}

	// Адреса по умолчанию необязательны, их отсутствие — не ошибка
	if shipping, err := s.addressRepo.GetDefault(ctx, userID, models.AddressTypeShipping); err == nil {
		checkoutCtx.DefaultShippingAddress = shipping
	} else if !errors.Is(err, storage.ErrAddressNotFound) {
		logger.Error("failed to get default shipping address", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to get default shipping address: %w", op, err)
	}
	if billing, err := s.addressRepo.GetDefault(ctx, userID, models.AddressTypeBilling); err == nil {
		checkoutCtx.DefaultBillingAddress = billing
	} else if !errors.Is(err, storage.ErrAddressNotFound) {
		logger.Error("failed to get default billing address", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to get default billing address: %w", op, err)
	}

	return checkoutCtx, nil
}

// isValidAddress проверяет обязательные поля адреса: улицу, страну и индекс.
func isValidAddress(street, country, zip string) bool {
	for _, field := range []string{street, country, zip} {
		if strings.TrimSpace(field) == "" {
			return false
		}
	}
	return true
}
