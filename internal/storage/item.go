package storage

import (
	"context"
	"database/sql"
	"errors"

	"github.com/linemk/online-store/internal/domain/models"
)

var ErrItemNotFound = errors.New("item not found")

// ItemStorage описывает методы для работы с каталогом товаров.
type ItemStorage interface {
	// ListItems возвращает страницу каталога, отсортированную по id.
	ListItems(ctx context.Context, limit, offset int) ([]*models.Item, error)
	// GetItemBySlug ищет товар по slug.
	GetItemBySlug(ctx context.Context, slug string) (*models.Item, error)
}

// itemRepository — конкретная реализация ItemStorage.
type itemRepository struct {
	db *sql.DB
}

// NewItemRepository создаёт новый репозиторий каталога.
func NewItemRepository(db *sql.DB) ItemStorage {
	return &itemRepository{db: db}
}

func (r *itemRepository) ListItems(ctx context.Context, limit, offset int) ([]*models.Item, error) {
	query := `SELECT id, slug, name, price, discount_price FROM items ORDER BY id LIMIT $1 OFFSET $2`
	rows, err := r.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*models.Item
	for rows.Next() {
		item := &models.Item{}
		if err := rows.Scan(&item.ID, &item.Slug, &item.Name, &item.Price, &item.DiscountPrice); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

func (r *itemRepository) GetItemBySlug(ctx context.Context, slug string) (*models.Item, error) {
	item := &models.Item{}
	query := `SELECT id, slug, name, price, discount_price FROM items WHERE slug = $1`
	row := r.db.QueryRowContext(ctx, query, slug)
	if err := row.Scan(&item.ID, &item.Slug, &item.Name, &item.Price, &item.DiscountPrice); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrItemNotFound
		}
		return nil, err
	}
	return item, nil
}
