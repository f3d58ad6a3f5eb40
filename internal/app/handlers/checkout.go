package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/linemk/online-store/internal/jwt-new/jwtmiddleware"
	"github.com/linemk/online-store/internal/service"
)

// CheckoutRequest — входной JSON формы чекаута. Флаги явно выбирают ветку:
// адрес по умолчанию, копия адреса доставки или создание нового адреса.
type CheckoutRequest struct {
	ShippingAddress  string `json:"shipping_address"`
	ShippingAddress2 string `json:"shipping_address2"`
	ShippingCountry  string `json:"shipping_country"`
	ShippingZip      string `json:"shipping_zip"`

	BillingAddress  string `json:"billing_address"`
	BillingAddress2 string `json:"billing_address2"`
	BillingCountry  string `json:"billing_country"`
	BillingZip      string `json:"billing_zip"`

	UseDefaultShipping bool `json:"use_default_shipping"`
	SetDefaultShipping bool `json:"set_default_shipping"`
	SameBillingAddress bool `json:"same_billing_address"`
	UseDefaultBilling  bool `json:"use_default_billing"`
	SetDefaultBilling  bool `json:"set_default_billing"`

	PaymentOption string `json:"payment_option" validate:"required,oneof=S P"`
}

// CheckoutGetHandler обрабатывает запрос GET /checkout — данные для страницы чекаута.
func CheckoutGetHandler(log *slog.Logger, checkoutService service.CheckoutService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.CheckoutGetHandler"
		logger := log.With(slog.String("op", op))

		userID, ok := jwtmiddleware.FromContext(r.Context())
		if !ok {
			logger.Error("userID not found in context")
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		checkoutCtx, err := checkoutService.Context(r.Context(), userID)
		if err != nil {
			if errors.Is(err, service.ErrNoActiveOrder) {
				writeJSON(logger, w, http.StatusOK, MessageResponse{Message: "You do not have an active cart", Redirect: "/"})
				return
			}
			logger.Error("failed to build checkout context", slog.Any("error", err))
			http.Error(w, "internal server error", http.StatusInternalServerError)
			return
		}

		writeJSON(logger, w, http.StatusOK, checkoutCtx)
	}
}

// CheckoutPostHandler обрабатывает запрос POST /checkout — применение формы чекаута.
func CheckoutPostHandler(log *slog.Logger, checkoutService service.CheckoutService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.CheckoutPostHandler"
		logger := log.With(slog.String("op", op))

		var req CheckoutRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			logger.Error("invalid request: decoding error", slog.Any("error", err))
			http.Error(w, "invalid request", http.StatusBadRequest)
			return
		}

		// Валидация структуры запроса с использованием validator
		if err := validate.Struct(req); err != nil {
			logger.Error("invalid request: validation error", slog.Any("error", err))
			writeJSON(logger, w, http.StatusBadRequest, MessageResponse{Message: "Invalid form", Redirect: "/checkout"})
			return
		}

		userID, ok := jwtmiddleware.FromContext(r.Context())
		if !ok {
			logger.Error("userID not found in context")
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		option, err := checkoutService.Checkout(r.Context(), userID, service.CheckoutForm{
			ShippingAddress:    req.ShippingAddress,
			ShippingAddress2:   req.ShippingAddress2,
			ShippingCountry:    req.ShippingCountry,
			ShippingZip:        req.ShippingZip,
			BillingAddress:     req.BillingAddress,
			BillingAddress2:    req.BillingAddress2,
			BillingCountry:     req.BillingCountry,
			BillingZip:         req.BillingZip,
			UseDefaultShipping: req.UseDefaultShipping,
			SetDefaultShipping: req.SetDefaultShipping,
			SameBillingAddress: req.SameBillingAddress,
			UseDefaultBilling:  req.UseDefaultBilling,
			SetDefaultBilling:  req.SetDefaultBilling,
			PaymentOption:      req.PaymentOption,
		})
		switch {
		case err == nil:
			redirect := "/payment/stripe"
			if option == service.PaymentOptionAlternate {
				redirect = "/payment/paypal"
			}
			writeJSON(logger, w, http.StatusOK, MessageResponse{Message: "Checkout complete", Redirect: redirect})
		case errors.Is(err, service.ErrNoActiveOrder):
			writeJSON(logger, w, http.StatusOK, MessageResponse{Message: "You do not have an active order", Redirect: "/order-summary"})
		case errors.Is(err, service.ErrNoDefaultShipping):
			writeJSON(logger, w, http.StatusBadRequest, MessageResponse{Message: "No default shipping address available", Redirect: "/checkout"})
		case errors.Is(err, service.ErrNoDefaultBilling):
			writeJSON(logger, w, http.StatusBadRequest, MessageResponse{Message: "No default billing address available", Redirect: "/checkout"})
		case errors.Is(err, service.ErrIncompleteAddress):
			writeJSON(logger, w, http.StatusBadRequest, MessageResponse{Message: "Please fill in the required address fields", Redirect: "/checkout"})
		case errors.Is(err, service.ErrInvalidPaymentOption):
			writeJSON(logger, w, http.StatusBadRequest, MessageResponse{Message: "Invalid payment option selected", Redirect: "/checkout"})
		default:
			logger.Error("checkout failed", slog.Any("error", err))
			http.Error(w, "internal server error", http.StatusInternalServerError)
		}
	}
}
