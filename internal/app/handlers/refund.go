package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/linemk/online-store/internal/service"
	"github.com/linemk/online-store/internal/storage"
)

// RefundRequest — входной JSON запроса на возврат. Ref-код заказа работает
// как bearer-токен, аутентификация не требуется.
type RefundRequest struct {
	RefCode string `json:"ref_code" validate:"required"`
	Message string `json:"message" validate:"required"`
	Email   string `json:"email" validate:"required,email"`
}

// RefundFormHandler обрабатывает запрос GET /request-refund — описание полей формы.
func RefundFormHandler(log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.RefundFormHandler"
		logger := log.With(slog.String("op", op))

		writeJSON(logger, w, http.StatusOK, map[string]any{
			"fields": []string{"ref_code", "message", "email"},
		})
	}
}

// RequestRefundHandler обрабатывает запрос POST /request-refund.
func RequestRefundHandler(log *slog.Logger, refundService service.RefundService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.RequestRefundHandler"
		logger := log.With(slog.String("op", op))

		var req RefundRequest
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

		err := refundService.RequestRefund(r.Context(), req.RefCode, req.Message, req.Email)
		switch {
		case err == nil:
			writeJSON(logger, w, http.StatusOK, MessageResponse{Message: "Your request was received", Redirect: "/request-refund"})
		case errors.Is(err, storage.ErrOrderNotFound):
			// Не раскрываем ничего сверх факта отсутствия
			writeJSON(logger, w, http.StatusNotFound, MessageResponse{Message: "This order does not exist", Redirect: "/request-refund"})
		default:
			logger.Error("failed to request refund", slog.Any("error", err))
			http.Error(w, "internal server error", http.StatusInternalServerError)
		}
	}
}
