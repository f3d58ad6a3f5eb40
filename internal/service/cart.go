package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/linemk/online-store/internal/domain/models"
	"github.com/linemk/online-store/internal/storage"
	"github.com/shopspring/decimal"
)

// CartService управляет активной корзиной пользователя.
type CartService interface {
	// AddToCart кладет товар в корзину: новая позиция или +1 к количеству.
	AddToCart(ctx context.Context, userID int64, slug string) (*CartMutation, error)
	// RemoveFromCart удаляет позицию целиком независимо от количества.
	RemoveFromCart(ctx context.Context, userID int64, slug string) error
	// RemoveOneFromCart уменьшает количество на единицу, при количестве 1 удаляет позицию.
	RemoveOneFromCart(ctx context.Context, userID int64, slug string) (*CartMutation, error)
	// GetCart возвращает активную корзину с позициями и итоговой суммой.
	GetCart(ctx context.Context, userID int64) (*CartView, error)
}

// CartMutation описывает результат изменения корзины.
type CartMutation struct {
	// Added: товар добавлен в корзину; false — обновлено количество существующей позиции
	Added bool
	// Quantity — итоговое количество позиции; 0, если позиция удалена
	Quantity int
}

// CartView — корзина для страницы order-summary.
type CartView struct {
	Order *models.Order   `json:"order"`
	Total decimal.Decimal `json:"total"`
}

type cartService struct {
	log           *slog.Logger
	db            *sql.DB
	itemRepo      storage.ItemStorage
	orderRepo     storage.OrderStorage
	orderItemRepo storage.OrderItemStorage
}

func NewCartService(log *slog.Logger, db *sql.DB, itemRepo storage.ItemStorage, orderRepo storage.OrderStorage, orderItemRepo storage.OrderItemStorage) CartService {
	return &cartService{
		log:           log,
		db:            db,
		itemRepo:      itemRepo,
		orderRepo:     orderRepo,
		orderItemRepo: orderItemRepo,
	}
}

// AddToCart кладет товар в корзину. Вся мутация выполняется в одной транзакции:
// upsert позиции и поиск/создание активной корзины не могут разъехаться под гонкой.
func (s *cartService) AddToCart(ctx context.Context, userID int64, slug string) (*CartMutation, error) {
	const op = "service.CartService.AddToCart"
	logger := s.log.With(slog.String("op", op), slog.Int64("userID", userID), slog.String("slug", slug))
	logger.Info("adding item to cart")

	item, err := s.itemRepo.GetItemBySlug(ctx, slug)
	if err != nil {
		logger.Warn("failed to get item", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to get item: %w", op, err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		logger.Error("failed to begin transaction", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to begin transaction: %w", op, err)
	}

	// Находим или создаем неоплаченную позицию для (пользователь, товар)
	orderItem, err := s.orderItemRepo.GetOrCreate(ctx, tx, userID, item.ID)
	if err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			logger.Error("transaction rollback failed", slog.Any("error", rbErr))
		}
		logger.Error("failed to get or create order item", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to get or create order item: %w", op, err)
	}

	mutation := &CartMutation{}
	order, err := s.orderRepo.GetActiveOrderTx(ctx, tx, userID)
	switch {
	case errors.Is(err, storage.ErrOrderNotFound):
		// Активной корзины нет — создаем и привязываем позицию
		order, err = s.orderRepo.CreateActiveOrder(ctx, tx, userID, time.Now())
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				logger.Error("transaction rollback failed", slog.Any("error", rbErr))
			}
			logger.Error("failed to create order", slog.Any("error", err))
			return nil, fmt.Errorf("%s: failed to create order: %w", op, err)
		}
		if err := s.orderItemRepo.Attach(ctx, tx, orderItem.ID, order.ID); err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				logger.Error("transaction rollback failed", slog.Any("error", rbErr))
			}
			logger.Error("failed to attach order item", slog.Any("error", err))
			return nil, fmt.Errorf("%s: failed to attach order item: %w", op, err)
		}
		mutation.Added = true
		mutation.Quantity = orderItem.Quantity
	case err != nil:
		if rbErr := tx.Rollback(); rbErr != nil {
			logger.Error("transaction rollback failed", slog.Any("error", rbErr))
		}
		logger.Error("failed to get active order", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to get active order: %w", op, err)
	case orderItem.OrderID != nil && *orderItem.OrderID == order.ID:
		// Товар уже в корзине — увеличиваем количество
		if err := s.orderItemRepo.IncrementQuantity(ctx, tx, orderItem.ID); err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				logger.Error("transaction rollback failed", slog.Any("error", rbErr))
			}
			logger.Error("failed to increment quantity", slog.Any("error", err))
			return nil, fmt.Errorf("%s: failed to increment quantity: %w", op, err)
		}
		mutation.Quantity = orderItem.Quantity + 1
	default:
		// Корзина есть, но товара в ней нет — привязываем позицию
		if err := s.orderItemRepo.Attach(ctx, tx, orderItem.ID, order.ID); err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				logger.Error("transaction rollback failed", slog.Any("error", rbErr))
			}
			logger.Error("failed to attach order item", slog.Any("error", err))
			return nil, fmt.Errorf("%s: failed to attach order item: %w", op, err)
		}
		mutation.Added = true
		mutation.Quantity = orderItem.Quantity
	}

	if err := tx.Commit(); err != nil {
		logger.Error("failed to commit transaction", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to commit transaction: %w", op, err)
	}

	logger.Info("cart updated", slog.Bool("added", mutation.Added), slog.Int("quantity", mutation.Quantity))
	return mutation, nil
}

// RemoveFromCart удаляет позицию из корзины целиком. Отсутствие корзины или товара
// в ней — не ошибка выполнения, а информационный исход (ErrNoActiveOrder, ErrItemNotInCart).
func (s *cartService) RemoveFromCart(ctx context.Context, userID int64, slug string) error {
	const op = "service.CartService.RemoveFromCart"
	logger := s.log.With(slog.String("op", op), slog.Int64("userID", userID), slog.String("slug", slug))
	logger.Info("removing item from cart")

	item, err := s.itemRepo.GetItemBySlug(ctx, slug)
	if err != nil {
		logger.Warn("failed to get item", slog.Any("error", err))
		return fmt.Errorf("%s: failed to get item: %w", op, err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		logger.Error("failed to begin transaction", slog.Any("error", err))
		return fmt.Errorf("%s: failed to begin transaction: %w", op, err)
	}

	order, err := s.orderRepo.GetActiveOrderTx(ctx, tx, userID)
	if err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			logger.Error("transaction rollback failed", slog.Any("error", rbErr))
		}
		if errors.Is(err, storage.ErrOrderNotFound) {
			logger.Info("no active cart")
			return fmt.Errorf("%s: %w", op, ErrNoActiveOrder)
		}
		logger.Error("failed to get active order", slog.Any("error", err))
		return fmt.Errorf("%s: failed to get active order: %w", op, err)
	}

	orderItem, err := s.orderItemRepo.GetByOrderAndItem(ctx, tx, order.ID, item.ID)
	if err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			logger.Error("transaction rollback failed", slog.Any("error", rbErr))
		}
		if errors.Is(err, storage.ErrOrderItemNotFound) {
			logger.Info("item not in cart")
			return fmt.Errorf("%s: %w", op, ErrItemNotInCart)
		}
		logger.Error("failed to get order item", slog.Any("error", err))
		return fmt.Errorf("%s: failed to get order item: %w", op, err)
	}

	// Полное удаление позиции вне зависимости от количества
	if err := s.orderItemRepo.Delete(ctx, tx, orderItem.ID); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			logger.Error("transaction rollback failed", slog.Any("error", rbErr))
		}
		logger.Error("failed to delete order item", slog.Any("error", err))
		return fmt.Errorf("%s: failed to delete order item: %w", op, err)
	}

	if err := tx.Commit(); err != nil {
		logger.Error("failed to commit transaction", slog.Any("error", err))
		return fmt.Errorf("%s: failed to commit transaction: %w", op, err)
	}

	logger.Info("item removed from cart")
	return nil
}

// RemoveOneFromCart уменьшает количество позиции на единицу.
// Поведение унаследовано от исходной системы и сохранено намеренно: позиция
// создается upsert-ом до всех проверок, а при отсутствии активной корзины вызов
// создает новую корзину и кладет туда товар, то есть работает как добавление.
func (s *cartService) RemoveOneFromCart(ctx context.Context, userID int64, slug string) (*CartMutation, error) {
	const op = "service.CartService.RemoveOneFromCart"
	logger := s.log.With(slog.String("op", op), slog.Int64("userID", userID), slog.String("slug", slug))
	logger.Info("removing one item from cart")

	item, err := s.itemRepo.GetItemBySlug(ctx, slug)
	if err != nil {
		logger.Warn("failed to get item", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to get item: %w", op, err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		logger.Error("failed to begin transaction", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to begin transaction: %w", op, err)
	}

	orderItem, err := s.orderItemRepo.GetOrCreate(ctx, tx, userID, item.ID)
	if err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			logger.Error("transaction rollback failed", slog.Any("error", rbErr))
		}
		logger.Error("failed to get or create order item", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to get or create order item: %w", op, err)
	}

	mutation := &CartMutation{}
	order, err := s.orderRepo.GetActiveOrderTx(ctx, tx, userID)
	switch {
	case errors.Is(err, storage.ErrOrderNotFound):
		// Активной корзины нет: вызов превращается в добавление
		logger.Warn("no active cart, item attached to a new one")
		order, err = s.orderRepo.CreateActiveOrder(ctx, tx, userID, time.Now())
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				logger.Error("transaction rollback failed", slog.Any("error", rbErr))
			}
			logger.Error("failed to create order", slog.Any("error", err))
			return nil, fmt.Errorf("%s: failed to create order: %w", op, err)
		}
		if err := s.orderItemRepo.Attach(ctx, tx, orderItem.ID, order.ID); err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				logger.Error("transaction rollback failed", slog.Any("error", rbErr))
			}
			logger.Error("failed to attach order item", slog.Any("error", err))
			return nil, fmt.Errorf("%s: failed to attach order item: %w", op, err)
		}
		mutation.Added = true
		mutation.Quantity = orderItem.Quantity
	case err != nil:
		if rbErr := tx.Rollback(); rbErr != nil {
			logger.Error("transaction rollback failed", slog.Any("error", rbErr))
		}
		logger.Error("failed to get active order", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to get active order: %w", op, err)
	case orderItem.OrderID != nil && *orderItem.OrderID == order.ID:
		if orderItem.Quantity > 1 {
			if err := s.orderItemRepo.DecrementQuantity(ctx, tx, orderItem.ID); err != nil {
				if rbErr := tx.Rollback(); rbErr != nil {
					logger.Error("transaction rollback failed", slog.Any("error", rbErr))
				}
				logger.Error("failed to decrement quantity", slog.Any("error", err))
				return nil, fmt.Errorf("%s: failed to decrement quantity: %w", op, err)
			}
			mutation.Quantity = orderItem.Quantity - 1
		} else {
			if err := s.orderItemRepo.Delete(ctx, tx, orderItem.ID); err != nil {
				if rbErr := tx.Rollback(); rbErr != nil {
					logger.Error("transaction rollback failed", slog.Any("error", rbErr))
				}
				logger.Error("failed to delete order item", slog.Any("error", err))
				return nil, fmt.Errorf("%s: failed to delete order item: %w", op, err)
			}
			mutation.Quantity = 0
		}
	default:
		// Корзина есть, но товар к ней не привязан: как и в исходной системе,
		// ничего не меняем (созданная upsert-ом позиция остается висеть)
		mutation.Quantity = orderItem.Quantity
	}

	if err := tx.Commit(); err != nil {
		logger.Error("failed to commit transaction", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to commit transaction: %w", op, err)
	}

	logger.Info("cart updated", slog.Bool("added", mutation.Added), slog.Int("quantity", mutation.Quantity))
	return mutation, nil
}

// GetCart возвращает активную корзину с позициями и итоговой суммой для order-summary.
func (s *cartService) GetCart(ctx context.Context, userID int64) (*CartView, error) {
	const op = "service.CartService.GetCart"
	logger := s.log.With(slog.String("op", op), slog.Int64("userID", userID))

	order, err := s.orderRepo.GetActiveOrder(ctx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrOrderNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrNoActiveOrder)
		}
		logger.Error("failed to get active order", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to get active order: %w", op, err)
	}

	items, err := s.orderItemRepo.ListByOrderID(ctx, order.ID)
	if err != nil {
		logger.Error("failed to list order items", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to list order items: %w", op, err)
	}
	order.Items = items

	return &CartView{
		Order: order,
		Total: OrderTotal(order.Items, order.Coupon),
	}, nil
}
