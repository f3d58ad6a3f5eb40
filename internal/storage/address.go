package storage

import (
	"context"
	"database/sql"
	"errors"

	"github.com/linemk/online-store/internal/domain/models"
)

var ErrAddressNotFound = errors.New("address not found")

// AddressStorage описывает методы для работы с адресами пользователя.
type AddressStorage interface {
	// GetDefault возвращает адрес по умолчанию для пары (пользователь, тип).
	GetDefault(ctx context.Context, userID int64, addressType string) (*models.Address, error)
	// CreateAddress сохраняет новый адрес и возвращает его с заполненным id.
	CreateAddress(ctx context.Context, address *models.Address) (*models.Address, error)
	// CloneAddress копирует существующий адрес в новую запись с другим типом.
	// Новая запись — самостоятельная сущность: правки одной не задевают другую.
	CloneAddress(ctx context.Context, addressID int64, newType string) (*models.Address, error)
	// SetDefault делает адрес адресом по умолчанию для его типа, снимая флаг с прочих.
	SetDefault(ctx context.Context, userID, addressID int64, addressType string) error
}

// addressRepository — конкретная реализация AddressStorage.
type addressRepository struct {
	db *sql.DB
}

// NewAddressRepository создаёт новый репозиторий адресов.
func NewAddressRepository(db *sql.DB) AddressStorage {
	return &addressRepository{db: db}
}

func (r *addressRepository) GetDefault(ctx context.Context, userID int64, addressType string) (*models.Address, error) {
	addr := &models.Address{}
	query := `SELECT id, user_id, street_address, apartment_address, country, zip, address_type, is_default
	          FROM addresses WHERE user_id = $1 AND address_type = $2 AND is_default`
	row := r.db.QueryRowContext(ctx, query, userID, addressType)
	if err := row.Scan(&addr.ID, &addr.UserID, &addr.StreetAddress, &addr.ApartmentAddress,
		&addr.Country, &addr.Zip, &addr.AddressType, &addr.Default); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAddressNotFound
		}
		return nil, err
	}
	return addr, nil
}

func (r *addressRepository) CreateAddress(ctx context.Context, address *models.Address) (*models.Address, error) {
	var id int64
	query := `INSERT INTO addresses (user_id, street_address, apartment_address, country, zip, address_type, is_default)
	          VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`
	err := r.db.QueryRowContext(ctx, query,
		address.UserID, address.StreetAddress, address.ApartmentAddress,
		address.Country, address.Zip, address.AddressType, address.Default,
	).Scan(&id)
	if err != nil {
		return nil, err
	}
	address.ID = id
	return address, nil
}

func (r *addressRepository) CloneAddress(ctx context.Context, addressID int64, newType string) (*models.Address, error) {
	addr := &models.Address{}
	query := `INSERT INTO addresses (user_id, street_address, apartment_address, country, zip, address_type, is_default)
	          SELECT user_id, street_address, apartment_address, country, zip, $2, false
	          FROM addresses WHERE id = $1
	          RETURNING id, user_id, street_address, apartment_address, country, zip, address_type, is_default`
	row := r.db.QueryRowContext(ctx, query, addressID, newType)
	if err := row.Scan(&addr.ID, &addr.UserID, &addr.StreetAddress, &addr.ApartmentAddress,
		&addr.Country, &addr.Zip, &addr.AddressType, &addr.Default); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAddressNotFound
		}
		return nil, err
	}
	return addr, nil
}

func (r *addressRepository) SetDefault(ctx context.Context, userID, addressID int64, addressType string) error {
	// Политика "не более одного адреса по умолчанию на (пользователь, тип)"
	if _, err := r.db.ExecContext(ctx,
		`UPDATE addresses SET is_default = false WHERE user_id = $1 AND address_type = $2 AND id <> $3`,
		userID, addressType, addressID); err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, `UPDATE addresses SET is_default = true WHERE id = $1`, addressID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrAddressNotFound
	}
	return nil
}
