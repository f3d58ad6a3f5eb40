package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/linemk/online-store/internal/jwt-new/jwtmiddleware"
	"github.com/linemk/online-store/internal/service"
	"github.com/linemk/online-store/internal/storage"
)

// AddCouponRequest — входной JSON для применения купона.
type AddCouponRequest struct {
	Code string `json:"code" validate:"required"`
}

// AddCouponHandler обрабатывает запрос POST /add-coupon.
func AddCouponHandler(log *slog.Logger, couponService service.CouponService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.AddCouponHandler"
		logger := log.With(slog.String("op", op))

		var req AddCouponRequest
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

		err := couponService.ApplyCoupon(r.Context(), userID, req.Code)
		switch {
		case err == nil:
			writeJSON(logger, w, http.StatusOK, MessageResponse{Message: "Successfully added your coupon", Redirect: "/checkout"})
		case errors.Is(err, storage.ErrCouponNotFound):
			writeJSON(logger, w, http.StatusNotFound, MessageResponse{Message: "This coupon does not exist", Redirect: "/checkout"})
		case errors.Is(err, service.ErrNoActiveOrder):
			writeJSON(logger, w, http.StatusOK, MessageResponse{Message: "You do not have an active cart", Redirect: "/checkout"})
		default:
			logger.Error("failed to apply coupon", slog.Any("error", err))
			http.Error(w, "internal server error", http.StatusInternalServerError)
		}
	}
}
