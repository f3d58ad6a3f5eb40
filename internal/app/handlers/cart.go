package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/linemk/online-store/internal/jwt-new/jwtmiddleware"
	"github.com/linemk/online-store/internal/service"
	"github.com/linemk/online-store/internal/storage"
)

// AddToCartHandler обрабатывает запрос GET /add-to-cart/{slug}
func AddToCartHandler(log *slog.Logger, cartService service.CartService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.AddToCartHandler"
		logger := log.With(slog.String("op", op))

		slug := chi.URLParam(r, "slug")
		if slug == "" {
			logger.Error("slug parameter is missing")
			http.Error(w, "slug parameter is required", http.StatusBadRequest)
			return
		}

		userID, ok := jwtmiddleware.FromContext(r.Context())
		if !ok {
			logger.Error("userID not found in context")
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		mutation, err := cartService.AddToCart(r.Context(), userID, slug)
		if err != nil {
			if errors.Is(err, storage.ErrItemNotFound) {
				writeJSON(logger, w, http.StatusNotFound, MessageResponse{Message: "This product does not exist"})
				return
			}
			logger.Error("failed to add item to cart", slog.Any("error", err))
			http.Error(w, "internal server error", http.StatusInternalServerError)
			return
		}

		message := "This item quantity was updated"
		if mutation.Added {
			message = "This item was added to your cart"
		}
		writeJSON(logger, w, http.StatusOK, MessageResponse{Message: message, Redirect: "/order-summary"})
	}
}

// RemoveFromCartHandler обрабатывает запрос GET /remove-from-cart/{slug}
func RemoveFromCartHandler(log *slog.Logger, cartService service.CartService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.RemoveFromCartHandler"
		logger := log.With(slog.String("op", op))

		slug := chi.URLParam(r, "slug")
		if slug == "" {
			logger.Error("slug parameter is missing")
			http.Error(w, "slug parameter is required", http.StatusBadRequest)
			return
		}

		userID, ok := jwtmiddleware.FromContext(r.Context())
		if !ok {
			logger.Error("userID not found in context")
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		err := cartService.RemoveFromCart(r.Context(), userID, slug)
		switch {
		case err == nil:
			writeJSON(logger, w, http.StatusOK, MessageResponse{Message: "This item was removed from your cart", Redirect: "/order-summary"})
		case errors.Is(err, storage.ErrItemNotFound):
			writeJSON(logger, w, http.StatusNotFound, MessageResponse{Message: "This product does not exist"})
		case errors.Is(err, service.ErrNoActiveOrder):
			// Информационный исход, не ошибка
			writeJSON(logger, w, http.StatusOK, MessageResponse{Message: "You do not have an active cart", Redirect: "/order-summary"})
		case errors.Is(err, service.ErrItemNotInCart):
			writeJSON(logger, w, http.StatusOK, MessageResponse{Message: "This item was not in your cart", Redirect: "/order-summary"})
		default:
			logger.Error("failed to remove item from cart", slog.Any("error", err))
			http.Error(w, "internal server error", http.StatusInternalServerError)
		}
	}
}

// RemoveOneFromCartHandler обрабатывает запрос GET /remove-one-from-cart/{slug}
func RemoveOneFromCartHandler(log *slog.Logger, cartService service.CartService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.RemoveOneFromCartHandler"
		logger := log.With(slog.String("op", op))

		slug := chi.URLParam(r, "slug")
		if slug == "" {
			logger.Error("slug parameter is missing")
			http.Error(w, "slug parameter is required", http.StatusBadRequest)
			return
		}

		userID, ok := jwtmiddleware.FromContext(r.Context())
		if !ok {
			logger.Error("userID not found in context")
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		mutation, err := cartService.RemoveOneFromCart(r.Context(), userID, slug)
		if err != nil {
			if errors.Is(err, storage.ErrItemNotFound) {
				writeJSON(logger, w, http.StatusNotFound, MessageResponse{Message: "This product does not exist"})
				return
			}
			logger.Error("failed to remove one item from cart", slog.Any("error", err))
			http.Error(w, "internal server error", http.StatusInternalServerError)
			return
		}

		message := "This item quantity was updated"
		if mutation.Added {
			message = "This item was added to your cart"
		}
		writeJSON(logger, w, http.StatusOK, MessageResponse{Message: message, Redirect: "/order-summary"})
	}
}

// OrderSummaryHandler обрабатывает запрос GET /order-summary
func OrderSummaryHandler(log *slog.Logger, cartService service.CartService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.OrderSummaryHandler"
		logger := log.With(slog.String("op", op))

		userID, ok := jwtmiddleware.FromContext(r.Context())
		if !ok {
			logger.Error("userID not found in context")
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		cart, err := cartService.GetCart(r.Context(), userID)
		if err != nil {
			if errors.Is(err, service.ErrNoActiveOrder) {
				writeJSON(logger, w, http.StatusOK, MessageResponse{Message: "You do not have an active order", Redirect: "/"})
				return
			}
			logger.Error("failed to get cart", slog.Any("error", err))
			http.Error(w, "internal server error", http.StatusInternalServerError)
			return
		}

		writeJSON(logger, w, http.StatusOK, cart)
	}
}
