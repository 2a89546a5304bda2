package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"gebeya-market/internal/domain/listing"
	market_errors "gebeya-market/pkg/errors"
)

type PostgresListingRepository struct {
	db *gorm.DB
}

func NewListingRepository(db *gorm.DB) ListingRepository {
	return &PostgresListingRepository{db: db}
}

func (r *PostgresListingRepository) Create(ctx context.Context, l *listing.Listing) error {
	if err := r.db.WithContext(ctx).Create(l).Error; err != nil {
		return mapStoreError(err)
	}
	return nil
}

func (r *PostgresListingRepository) GetByID(ctx context.Context, id uuid.UUID) (listing.Listing, error) {
	var l listing.Listing
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&l).Error
	if err != nil {
		return listing.Listing{}, mapStoreError(err)
	}
	return l, nil
}

func (r *PostgresListingRepository) Update(ctx context.Context, l listing.Listing) error {
	res := r.db.WithContext(ctx).Save(&l)
	if res.Error != nil {
		return mapStoreError(res.Error)
	}
	if res.RowsAffected == 0 {
		return market_errors.ErrNotFound
	}
	return nil
}

func (r *PostgresListingRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	res := r.db.WithContext(ctx).
		Model(&listing.Listing{}).
		Where("id = ?", id).
		Update("status", status)
	if res.Error != nil {
		return mapStoreError(res.Error)
	}
	if res.RowsAffected == 0 {
		return market_errors.ErrNotFound
	}
	return nil
}

func (r *PostgresListingRepository) ListActive(ctx context.Context, f ListingFilter) ([]listing.Listing, int64, error) {
	var listings []listing.Listing
	var total int64

	q := r.db.WithContext(ctx).
		Model(&listing.Listing{}).
		Where("status = ?", listing.StatusActive)

	if f.CategoryID != uuid.Nil {
		q = q.Where("category_id = ?", f.CategoryID)
	}
	if f.City != "" {
		q = q.Where("city = ?", f.City)
	}
	if f.Query != "" {
		q = q.Where("title ILIKE ?", "%"+f.Query+"%")
	}

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, mapStoreError(err)
	}

	page := f.Page
	if page < 1 {
		page = 1
	}
	limit := f.Limit
	if limit <= 0 {
		limit = 20
	}

	err := q.Order("created_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&listings).Error
	if err != nil {
		return nil, 0, mapStoreError(err)
	}
	return listings, total, nil
}

func (r *PostgresListingRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]listing.Listing, error) {
	var listings []listing.Listing
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND status <> ?", userID, listing.StatusDeleted).
		Order("created_at DESC").
		Find(&listings).Error
	if err != nil {
		return nil, mapStoreError(err)
	}
	return listings, nil
}

func (r *PostgresListingRepository) GetCategories(ctx context.Context) ([]listing.Category, error) {
	var categories []listing.Category
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&categories).Error; err != nil {
		return nil, mapStoreError(err)
	}
	return categories, nil
}

func (r *PostgresListingRepository) GetCategoryBySlug(ctx context.Context, slug string) (listing.Category, error) {
	var c listing.Category
	err := r.db.WithContext(ctx).Where("slug = ?", slug).First(&c).Error
	if err != nil {
		return listing.Category{}, mapStoreError(err)
	}
	return c, nil
}
