package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"gebeya-market/internal/domain/user"
	market_errors "gebeya-market/pkg/errors"
)

type PostgresUserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &PostgresUserRepository{db: db}
}

func (r *PostgresUserRepository) Create(ctx context.Context, u *user.User) error {
	res := r.db.WithContext(ctx).Create(u)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
			return market_errors.ErrAlreadyExists
		}
		return mapStoreError(res.Error)
	}
	return nil
}

func (r *PostgresUserRepository) GetByID(ctx context.Context, id uuid.UUID) (user.User, error) {
	var u user.User
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&u).Error
	if err != nil {
		return user.User{}, mapStoreError(err)
	}
	return u, nil
}

func (r *PostgresUserRepository) GetByTelegramID(ctx context.Context, telegramID int64) (user.User, error) {
	var u user.User
	err := r.db.WithContext(ctx).Where("telegram_id = ?", telegramID).First(&u).Error
	if err != nil {
		return user.User{}, mapStoreError(err)
	}
	return u, nil
}

func (r *PostgresUserRepository) Update(ctx context.Context, u user.User) error {
	res := r.db.WithContext(ctx).Save(&u)
	if res.Error != nil {
		return mapStoreError(res.Error)
	}
	if res.RowsAffected == 0 {
		return market_errors.ErrNotFound
	}
	return nil
}
