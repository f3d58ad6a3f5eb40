package storage_test

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/linemk/online-store/internal/domain/models"
	"github.com/linemk/online-store/internal/storage"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestGetUserByEmail_Success(t *testing.T) {
	// Создаем sqlmock для эмуляции базы данных.
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := storage.NewUserRepository(db)
	ctx := context.Background()
	email := "test@example.com"

	rows := sqlmock.NewRows([]string{"id", "email", "pass_hash"}).
		AddRow(1, email, []byte("hashed-password"))

	mock.ExpectQuery("SELECT id, email, pass_hash FROM users WHERE email = \\$1").
		WithArgs(email).WillReturnRows(rows)

	user, err := repo.GetUserByEmail(ctx, email)
	assert.NoError(t, err)
	assert.Equal(t, int64(1), user.ID)
	assert.Equal(t, email, user.Email)
	assert.Equal(t, []byte("hashed-password"), user.PassHash)

	// Проверяем, что все ожидания sqlmock выполнены.
	err = mock.ExpectationsWereMet()
	assert.NoError(t, err)
}

func TestGetUserByEmail_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := storage.NewUserRepository(db)
	ctx := context.Background()

	// Эмулируем ситуацию, когда запрос возвращает 0 строк.
	rows := sqlmock.NewRows([]string{"id", "email", "pass_hash"})
	mock.ExpectQuery("SELECT id, email, pass_hash FROM users WHERE email = \\$1").
		WithArgs("missing@example.com").WillReturnRows(rows)

	user, err := repo.GetUserByEmail(ctx, "missing@example.com")
	assert.ErrorIs(t, err, storage.ErrUserNotFound)
	assert.Nil(t, user)

	err = mock.ExpectationsWereMet()
	assert.NoError(t, err)
}

func TestGetItemBySlug_Success(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := storage.NewItemRepository(db)
	ctx := context.Background()

	rows := sqlmock.NewRows([]string{"id", "slug", "name", "price", "discount_price"}).
		AddRow(1, "blue-shirt", "Blue Shirt", "25.99", "19.99")

	mock.ExpectQuery("SELECT id, slug, name, price, discount_price FROM items WHERE slug = \\$1").
		WithArgs("blue-shirt").WillReturnRows(rows)

	item, err := repo.GetItemBySlug(ctx, "blue-shirt")
	assert.NoError(t, err)
	assert.Equal(t, "Blue Shirt", item.Name)
	// Эффективная цена — со скидкой, если она задана
	assert.True(t, item.EffectivePrice().Equal(decimal.RequireFromString("19.99")))

	err = mock.ExpectationsWereMet()
	assert.NoError(t, err)
}

func TestGetItemBySlug_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := storage.NewItemRepository(db)
	ctx := context.Background()

	rows := sqlmock.NewRows([]string{"id", "slug", "name", "price", "discount_price"})
	mock.ExpectQuery("SELECT id, slug, name, price, discount_price FROM items WHERE slug = \\$1").
		WithArgs("missing").WillReturnRows(rows)

	item, err := repo.GetItemBySlug(ctx, "missing")
	assert.ErrorIs(t, err, storage.ErrItemNotFound)
	assert.Nil(t, item)

	err = mock.ExpectationsWereMet()
	assert.NoError(t, err)
}

func TestListItems_Success(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := storage.NewItemRepository(db)
	ctx := context.Background()

	rows := sqlmock.NewRows([]string{"id", "slug", "name", "price", "discount_price"}).
		AddRow(1, "blue-shirt", "Blue Shirt", "25.99", "19.99").
		AddRow(2, "red-hat", "Red Hat", "10.00", nil)

	mock.ExpectQuery("SELECT id, slug, name, price, discount_price FROM items ORDER BY id LIMIT \\$1 OFFSET \\$2").
		WithArgs(4, 0).WillReturnRows(rows)

	items, err := repo.ListItems(ctx, 4, 0)
	assert.NoError(t, err)
	assert.Len(t, items, 2)
	// Без скидки эффективная цена совпадает с обычной
	assert.False(t, items[1].DiscountPrice.Valid)
	assert.True(t, items[1].EffectivePrice().Equal(decimal.RequireFromString("10.00")))

	err = mock.ExpectationsWereMet()
	assert.NoError(t, err)
}

func TestGetActiveOrder_WithCoupon(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := storage.NewOrderRepository(db)
	ctx := context.Background()
	userID := int64(7)

	orderRows := sqlmock.NewRows([]string{
		"id", "user_id", "ordered", "ordered_date", "shipping_address_id",
		"billing_address_id", "coupon_id", "payment_id", "ref_code", "refund_requested",
	}).AddRow(10, userID, false, time.Now(), nil, nil, 3, nil, nil, false)

	mock.ExpectQuery("SELECT (.+) FROM orders o WHERE o.user_id = \\$1 AND NOT o.ordered").
		WithArgs(userID).WillReturnRows(orderRows)

	couponRows := sqlmock.NewRows([]string{"id", "code", "amount"}).
		AddRow(3, "SAVE5", "5.00")
	mock.ExpectQuery("SELECT id, code, amount FROM coupons WHERE id = \\$1").
		WithArgs(int64(3)).WillReturnRows(couponRows)

	order, err := repo.GetActiveOrder(ctx, userID)
	assert.NoError(t, err)
	assert.Equal(t, int64(10), order.ID)
	assert.NotNil(t, order.Coupon)
	assert.Equal(t, "SAVE5", order.Coupon.Code)

	err = mock.ExpectationsWereMet()
	assert.NoError(t, err)
}

func TestGetActiveOrder_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := storage.NewOrderRepository(db)
	ctx := context.Background()

	rows := sqlmock.NewRows([]string{
		"id", "user_id", "ordered", "ordered_date", "shipping_address_id",
		"billing_address_id", "coupon_id", "payment_id", "ref_code", "refund_requested",
	})
	mock.ExpectQuery("SELECT (.+) FROM orders o WHERE o.user_id = \\$1 AND NOT o.ordered").
		WithArgs(int64(99)).WillReturnRows(rows)

	order, err := repo.GetActiveOrder(ctx, int64(99))
	assert.ErrorIs(t, err, storage.ErrOrderNotFound)
	assert.Nil(t, order)

	err = mock.ExpectationsWereMet()
	assert.NoError(t, err)
}

func TestCreateActiveOrder_ConflictFallsBackToExisting(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	repo := storage.NewOrderRepository(db)
	ctx := context.Background()
	userID := int64(7)

	tx, err := db.Begin()
	assert.NoError(t, err)

	// INSERT ... ON CONFLICT DO NOTHING не вернул строку: корзина уже существует
	mock.ExpectQuery("INSERT INTO orders").
		WithArgs(userID, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	existing := sqlmock.NewRows([]string{
		"id", "user_id", "ordered", "ordered_date", "shipping_address_id",
		"billing_address_id", "coupon_id", "payment_id", "ref_code", "refund_requested",
	}).AddRow(42, userID, false, time.Now(), nil, nil, nil, nil, nil, false)
	mock.ExpectQuery("SELECT (.+) FROM orders o WHERE o.user_id = \\$1 AND NOT o.ordered FOR UPDATE").
		WithArgs(userID).WillReturnRows(existing)

	order, err := repo.CreateActiveOrder(ctx, tx, userID, time.Now())
	assert.NoError(t, err)
	assert.Equal(t, int64(42), order.ID)

	err = mock.ExpectationsWereMet()
	assert.NoError(t, err)
}

func TestAttachCoupon_OrderNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := storage.NewOrderRepository(db)
	ctx := context.Background()

	// UPDATE по уже финализированному заказу не затрагивает строк
	mock.ExpectExec("UPDATE orders SET coupon_id = \\$1 WHERE id = \\$2 AND NOT ordered").
		WithArgs(int64(3), int64(10)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err = repo.AttachCoupon(ctx, 10, 3)
	assert.ErrorIs(t, err, storage.ErrOrderNotFound)

	err = mock.ExpectationsWereMet()
	assert.NoError(t, err)
}

func TestFinalizeOrder_Success(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	repo := storage.NewOrderRepository(db)
	ctx := context.Background()

	tx, err := db.Begin()
	assert.NoError(t, err)

	mock.ExpectExec("UPDATE orders SET ordered = true, ref_code = \\$1, payment_id = \\$2").
		WithArgs("abc123def456ghi789jk", int64(5), int64(10)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err = repo.FinalizeOrder(ctx, tx, 10, 5, "abc123def456ghi789jk")
	assert.NoError(t, err)

	err = mock.ExpectationsWereMet()
	assert.NoError(t, err)
}

func TestGetOrderByRefCode_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := storage.NewOrderRepository(db)
	ctx := context.Background()

	rows := sqlmock.NewRows([]string{
		"id", "user_id", "ordered", "ordered_date", "shipping_address_id",
		"billing_address_id", "coupon_id", "payment_id", "ref_code", "refund_requested",
	})
	mock.ExpectQuery("SELECT (.+) FROM orders o WHERE o.ref_code = \\$1").
		WithArgs("nosuchcode").WillReturnRows(rows)

	order, err := repo.GetOrderByRefCode(ctx, "nosuchcode")
	assert.ErrorIs(t, err, storage.ErrOrderNotFound)
	assert.Nil(t, order)

	err = mock.ExpectationsWereMet()
	assert.NoError(t, err)
}

func TestOrderItemGetOrCreate_Success(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	repo := storage.NewOrderItemRepository(db)
	ctx := context.Background()

	tx, err := db.Begin()
	assert.NoError(t, err)

	rows := sqlmock.NewRows([]string{"id", "user_id", "item_id", "order_id", "quantity", "ordered"}).
		AddRow(1, 7, 2, nil, 1, false)
	mock.ExpectQuery("INSERT INTO order_items").
		WithArgs(int64(7), int64(2)).WillReturnRows(rows)

	oi, err := repo.GetOrCreate(ctx, tx, 7, 2)
	assert.NoError(t, err)
	assert.Equal(t, int64(1), oi.ID)
	assert.Equal(t, 1, oi.Quantity)
	// Свежесозданная позиция еще не привязана к заказу
	assert.Nil(t, oi.OrderID)

	err = mock.ExpectationsWereMet()
	assert.NoError(t, err)
}

func TestOrderItemDecrement_BelowOneNoEffect(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	repo := storage.NewOrderItemRepository(db)
	ctx := context.Background()

	tx, err := db.Begin()
	assert.NoError(t, err)

	// Условие quantity > 1 в запросе защищает от ухода в ноль
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE order_items SET quantity = quantity - 1 WHERE id = $1 AND quantity > 1`)).
		WithArgs(int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err = repo.DecrementQuantity(ctx, tx, 1)
	assert.ErrorIs(t, err, storage.ErrOrderItemNotFound)

	err = mock.ExpectationsWereMet()
	assert.NoError(t, err)
}

func TestListByOrderID_JoinsItemFields(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := storage.NewOrderItemRepository(db)
	ctx := context.Background()

	rows := sqlmock.NewRows([]string{
		"id", "user_id", "item_id", "order_id", "quantity", "ordered",
		"slug", "name", "price", "discount_price",
	}).
		AddRow(1, 7, 2, 10, 2, false, "blue-shirt", "Blue Shirt", "25.99", "19.99").
		AddRow(2, 7, 3, 10, 1, false, "red-hat", "Red Hat", "10.00", nil)

	mock.ExpectQuery("SELECT oi.id, oi.user_id, oi.item_id, oi.order_id, oi.quantity, oi.ordered").
		WithArgs(int64(10)).WillReturnRows(rows)

	items, err := repo.ListByOrderID(ctx, 10)
	assert.NoError(t, err)
	assert.Len(t, items, 2)
	assert.Equal(t, "blue-shirt", items[0].ItemSlug)
	assert.True(t, items[0].EffectivePrice().Equal(decimal.RequireFromString("19.99")))
	assert.True(t, items[1].EffectivePrice().Equal(decimal.RequireFromString("10.00")))

	err = mock.ExpectationsWereMet()
	assert.NoError(t, err)
}

func TestGetDefaultAddress_Success(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := storage.NewAddressRepository(db)
	ctx := context.Background()

	rows := sqlmock.NewRows([]string{
		"id", "user_id", "street_address", "apartment_address", "country", "zip", "address_type", "is_default",
	}).AddRow(5, 7, "1 Main St", "", "US", "10001", models.AddressTypeShipping, true)

	mock.ExpectQuery("SELECT (.+) FROM addresses WHERE user_id = \\$1 AND address_type = \\$2 AND is_default").
		WithArgs(int64(7), models.AddressTypeShipping).WillReturnRows(rows)

	addr, err := repo.GetDefault(ctx, 7, models.AddressTypeShipping)
	assert.NoError(t, err)
	assert.Equal(t, "1 Main St", addr.StreetAddress)
	assert.True(t, addr.Default)

	err = mock.ExpectationsWereMet()
	assert.NoError(t, err)
}

func TestGetDefaultAddress_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := storage.NewAddressRepository(db)
	ctx := context.Background()

	rows := sqlmock.NewRows([]string{
		"id", "user_id", "street_address", "apartment_address", "country", "zip", "address_type", "is_default",
	})
	mock.ExpectQuery("SELECT (.+) FROM addresses WHERE user_id = \\$1 AND address_type = \\$2 AND is_default").
		WithArgs(int64(7), models.AddressTypeBilling).WillReturnRows(rows)

	addr, err := repo.GetDefault(ctx, 7, models.AddressTypeBilling)
	assert.ErrorIs(t, err, storage.ErrAddressNotFound)
	assert.Nil(t, addr)

	err = mock.ExpectationsWereMet()
	assert.NoError(t, err)
}

func TestCloneAddress_Success(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := storage.NewAddressRepository(db)
	ctx := context.Background()

	rows := sqlmock.NewRows([]string{
		"id", "user_id", "street_address", "apartment_address", "country", "zip", "address_type", "is_default",
	}).AddRow(6, 7, "1 Main St", "", "US", "10001", models.AddressTypeBilling, false)

	mock.ExpectQuery("INSERT INTO addresses").
		WithArgs(int64(5), models.AddressTypeBilling).WillReturnRows(rows)

	addr, err := repo.CloneAddress(ctx, 5, models.AddressTypeBilling)
	assert.NoError(t, err)
	// Копия — новая запись с другим id и типом
	assert.Equal(t, int64(6), addr.ID)
	assert.Equal(t, models.AddressTypeBilling, addr.AddressType)
	assert.False(t, addr.Default)

	err = mock.ExpectationsWereMet()
	assert.NoError(t, err)
}

func TestGetCouponByCode_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := storage.NewCouponRepository(db)
	ctx := context.Background()

	rows := sqlmock.NewRows([]string{"id", "code", "amount"})
	mock.ExpectQuery("SELECT id, code, amount FROM coupons WHERE code = \\$1").
		WithArgs("NOPE").WillReturnRows(rows)

	coupon, err := repo.GetCouponByCode(ctx, "NOPE")
	assert.ErrorIs(t, err, storage.ErrCouponNotFound)
	assert.Nil(t, coupon)

	err = mock.ExpectationsWereMet()
	assert.NoError(t, err)
}

func TestCreatePayment_Success(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	repo := storage.NewPaymentRepository(db)
	ctx := context.Background()

	tx, err := db.Begin()
	assert.NoError(t, err)

	rows := sqlmock.NewRows([]string{"id"}).AddRow(3)
	mock.ExpectQuery("INSERT INTO payments").
		WithArgs("ch_123", int64(7), int64(2599)).WillReturnRows(rows)

	id, err := repo.CreatePayment(ctx, tx, "ch_123", 7, 2599)
	assert.NoError(t, err)
	assert.Equal(t, int64(3), id)

	err = mock.ExpectationsWereMet()
	assert.NoError(t, err)
}

func TestCreateRefund_Success(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	repo := storage.NewRefundRepository(db)
	ctx := context.Background()

	tx, err := db.Begin()
	assert.NoError(t, err)

	rows := sqlmock.NewRows([]string{"id"}).AddRow(1)
	mock.ExpectQuery("INSERT INTO refunds").
		WithArgs(int64(10), "item arrived damaged", "buyer@example.com").WillReturnRows(rows)

	id, err := repo.CreateRefund(ctx, tx, 10, "item arrived damaged", "buyer@example.com")
	assert.NoError(t, err)
	assert.Equal(t, int64(1), id)

	err = mock.ExpectationsWereMet()
	assert.NoError(t, err)
}

func TestGetItemBySlug_QueryError(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := storage.NewItemRepository(db)
	ctx := context.Background()

	// Эмулируем ошибку выполнения запроса.
	mock.ExpectQuery("SELECT id, slug, name, price, discount_price FROM items WHERE slug = \\$1").
		WithArgs("blue-shirt").WillReturnError(errors.New("db error"))

	item, err := repo.GetItemBySlug(ctx, "blue-shirt")
	assert.Error(t, err)
	assert.Nil(t, item)

	err = mock.ExpectationsWereMet()
	assert.NoError(t, err)
}
