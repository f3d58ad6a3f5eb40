package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/linemk/online-store/internal/service"
	"github.com/linemk/online-store/internal/storage"
)

// HomeHandler обрабатывает запрос GET / — страница каталога (параметр ?page=N).
func HomeHandler(log *slog.Logger, catalogService service.CatalogService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.HomeHandler"
		logger := log.With(slog.String("op", op))

		page := 1
		if p := r.URL.Query().Get("page"); p != "" {
			parsed, err := strconv.Atoi(p)
			if err != nil || parsed < 1 {
				logger.Warn("invalid page parameter", slog.String("page", p))
				http.Error(w, "invalid page parameter", http.StatusBadRequest)
				return
			}
			page = parsed
		}

		items, err := catalogService.ListItems(r.Context(), page)
		if err != nil {
			logger.Error("failed to list items", slog.Any("error", err))
			http.Error(w, "internal server error", http.StatusInternalServerError)
			return
		}

		writeJSON(logger, w, http.StatusOK, map[string]any{"items": items, "page": page})
	}
}

// ProductHandler обрабатывает запрос GET /product/{slug} — карточка товара.
func ProductHandler(log *slog.Logger, catalogService service.CatalogService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.ProductHandler"
		logger := log.With(slog.String("op", op))

		slug := chi.URLParam(r, "slug")
		if slug == "" {
			logger.Error("slug parameter is missing")
			http.Error(w, "slug parameter is required", http.StatusBadRequest)
			return
		}

		item, err := catalogService.GetItem(r.Context(), slug)
		if err != nil {
			if errors.Is(err, storage.ErrItemNotFound) {
				writeJSON(logger, w, http.StatusNotFound, MessageResponse{Message: "This product does not exist"})
				return
			}
			logger.Error("failed to get item", slog.Any("error", err))
			http.Error(w, "internal server error", http.StatusInternalServerError)
			return
		}

		writeJSON(logger, w, http.StatusOK, item)
	}
}
