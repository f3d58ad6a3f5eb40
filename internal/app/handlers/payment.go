package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/linemk/online-store/internal/gateway"
	"github.com/linemk/online-store/internal/jwt-new/jwtmiddleware"
	"github.com/linemk/online-store/internal/service"
)

// PaymentRequest — входной JSON для оплаты картой: одноразовый токен
// клиентской токенизации.
type PaymentRequest struct {
	StripeToken string `json:"stripeToken" validate:"required"`
}

// PaymentResponse — ответ при успешной оплате.
type PaymentResponse struct {
	Message string `json:"message"`
	RefCode string `json:"ref_code"`
	Amount  int64  `json:"amount"`
}

// PaymentGetHandler обрабатывает запрос GET /payment/{payment_option} — страница оплаты.
func PaymentGetHandler(log *slog.Logger, paymentService service.PaymentService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.PaymentGetHandler"
		logger := log.With(slog.String("op", op))

		userID, ok := jwtmiddleware.FromContext(r.Context())
		if !ok {
			logger.Error("userID not found in context")
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		paymentCtx, err := paymentService.Context(r.Context(), userID)
		switch {
		case err == nil:
			writeJSON(logger, w, http.StatusOK, paymentCtx)
		case errors.Is(err, service.ErrNoActiveOrder):
			writeJSON(logger, w, http.StatusOK, MessageResponse{Message: "You do not have an active order", Redirect: "/"})
		case errors.Is(err, service.ErrNoBillingAddress):
			writeJSON(logger, w, http.StatusBadRequest, MessageResponse{Message: "You have not added a billing address", Redirect: "/checkout"})
		default:
			logger.Error("failed to build payment context", slog.Any("error", err))
			http.Error(w, "internal server error", http.StatusInternalServerError)
		}
	}
}

// PaymentPostHandler обрабатывает запрос POST /payment/{payment_option} — списание по токену.
func PaymentPostHandler(log *slog.Logger, paymentService service.PaymentService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.PaymentPostHandler"
		logger := log.With(slog.String("op", op))

		// Поддерживается только оплата картой
		if option := chi.URLParam(r, "payment_option"); option != "stripe" {
			logger.Warn("unsupported payment option", slog.String("option", option))
			writeJSON(logger, w, http.StatusBadRequest, MessageResponse{Message: "This payment option is not supported", Redirect: "/checkout"})
			return
		}

		var req PaymentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			logger.Error("invalid request: decoding error", slog.Any("error", err))
			http.Error(w, "invalid request", http.StatusBadRequest)
			return
		}

		if err := validate.Struct(req); err != nil {
			logger.Error("invalid request: validation error", slog.Any("error", err))
			http.Error(w, "validation error", http.StatusBadRequest)
			return
		}

		userID, ok := jwtmiddleware.FromContext(r.Context())
		if !ok {
			logger.Error("userID not found in context")
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		result, err := paymentService.Charge(r.Context(), userID, req.StripeToken)
		if err != nil {
			respondChargeError(logger, w, err)
			return
		}

		writeJSON(logger, w, http.StatusOK, PaymentResponse{
			Message: "Your order was successful",
			RefCode: result.RefCode,
			Amount:  result.Amount,
		})
	}
}

// respondChargeError переводит ошибку оплаты в сообщение пользователю.
// Сбои аутентификации и неверные параметры дополнительно логируются:
// это ошибки интеграции, пользователь их не исправит.
func respondChargeError(logger *slog.Logger, w http.ResponseWriter, err error) {
	var gwErr *gateway.Error
	if errors.As(err, &gwErr) {
		switch gwErr.Kind {
		case gateway.KindCardDeclined:
			// Сообщение шлюза безопасно показать пользователю
			writeJSON(logger, w, http.StatusPaymentRequired, MessageResponse{Message: gwErr.Message})
		case gateway.KindRateLimited:
			writeJSON(logger, w, http.StatusTooManyRequests, MessageResponse{Message: "Rate limit error"})
		case gateway.KindInvalidRequest:
			logger.Error("invalid gateway request", slog.Any("error", err))
			writeJSON(logger, w, http.StatusBadRequest, MessageResponse{Message: "Invalid parameters"})
		case gateway.KindAuthFailed:
			logger.Error("gateway authentication failed", slog.Any("error", err))
			writeJSON(logger, w, http.StatusInternalServerError, MessageResponse{Message: "Not authenticated"})
		case gateway.KindNetwork:
			writeJSON(logger, w, http.StatusBadGateway, MessageResponse{Message: "Network error"})
		default:
			writeJSON(logger, w, http.StatusBadGateway, MessageResponse{Message: "Something went wrong. You were not charged. Please try again."})
		}
		return
	}

	switch {
	case errors.Is(err, service.ErrNoActiveOrder):
		writeJSON(logger, w, http.StatusOK, MessageResponse{Message: "You do not have an active order", Redirect: "/"})
	case errors.Is(err, service.ErrNoBillingAddress):
		writeJSON(logger, w, http.StatusBadRequest, MessageResponse{Message: "You have not added a billing address", Redirect: "/checkout"})
	default:
		// Неклассифицированный сбой: сообщаем обобщенно и оставляем след для оператора
		logger.Error("charge failed with internal error", slog.Any("error", err))
		writeJSON(logger, w, http.StatusInternalServerError, MessageResponse{Message: "A serious error occurred. We have been notified."})
	}
}
