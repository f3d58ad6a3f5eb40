package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/linemk/online-store/internal/domain/models"
	"github.com/linemk/online-store/internal/storage"
)

// Товаров на страницу каталога.
const catalogPageSize = 4

// CatalogService отдает каталог товаров: список постранично и карточку по slug.
type CatalogService interface {
	ListItems(ctx context.Context, page int) ([]*models.Item, error)
	GetItem(ctx context.Context, slug string) (*models.Item, error)
}

type catalogService struct {
	log      *slog.Logger
	itemRepo storage.ItemStorage
}

func NewCatalogService(log *slog.Logger, itemRepo storage.ItemStorage) CatalogService {
	return &catalogService{
		log:      log,
		itemRepo: itemRepo,
	}
}

func (s *catalogService) ListItems(ctx context.Context, page int) ([]*models.Item, error) {
	const op = "service.CatalogService.ListItems"
	if page < 1 {
		page = 1
	}

	items, err := s.itemRepo.ListItems(ctx, catalogPageSize, (page-1)*catalogPageSize)
	if err != nil {
		s.log.Error("failed to list items", slog.String("op", op), slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to list items: %w", op, err)
	}
	return items, nil
}

func (s *catalogService) GetItem(ctx context.Context, slug string) (*models.Item, error) {
	const op = "service.CatalogService.GetItem"

	item, err := s.itemRepo.GetItemBySlug(ctx, slug)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to get item: %w", op, err)
	}
	return item, nil
}
