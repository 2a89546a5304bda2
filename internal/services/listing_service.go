package services

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"

	"gebeya-market/internal/domain/listing"
	"gebeya-market/internal/repository"
	market_errors "gebeya-market/pkg/errors"
	"gebeya-market/pkg/logger"
)

const defaultListingDays = 30

// ListingCache is the optional snapshot cache in front of the listing store.
type ListingCache interface {
	GetListing(ctx context.Context, id uuid.UUID) (*listing.Listing, error)
	SetListing(ctx context.Context, l listing.Listing) error
	InvalidateListing(ctx context.Context, id uuid.UUID) error
}

type ListingService struct {
	listingRepo repository.ListingRepository
	userRepo    repository.UserRepository
	cache       ListingCache
	logger      *logger.Logger
}

func NewListingService(listingRepo repository.ListingRepository, userRepo repository.UserRepository, cache ListingCache, l *logger.Logger) *ListingService {
	return &ListingService{listingRepo: listingRepo, userRepo: userRepo, cache: cache, logger: l}
}

type CreateListingInput struct {
	CategoryID   uuid.UUID
	Title        string
	Description  string
	Price        float64
	Condition    string
	IsNegotiable bool
	City         string
	Area         string
	Images       []string
}

func (s *ListingService) CreateListing(ctx context.Context, userID uuid.UUID, input CreateListingInput) (listing.Listing, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" || input.Price < 0 {
		return listing.Listing{}, market_errors.ErrInvalidInput
	}

	l := listing.Listing{
		ID:           uuid.New(),
		UserID:       userID,
		CategoryID:   input.CategoryID,
		Title:        title,
		Description:  strings.TrimSpace(input.Description),
		Price:        input.Price,
		Condition:    input.Condition,
		IsNegotiable: input.IsNegotiable,
		City:         input.City,
		Area:         sql.NullString{String: input.Area, Valid: input.Area != ""},
		Images:       input.Images,
		Status:       listing.StatusActive,
		ExpiresAt:    sql.NullTime{Time: time.Now().AddDate(0, 0, defaultListingDays), Valid: true},
	}
	if err := s.listingRepo.Create(ctx, &l); err != nil {
		return listing.Listing{}, err
	}

	if u, err := s.userRepo.GetByID(ctx, userID); err == nil {
		u.TotalListings++
		if err := s.userRepo.Update(ctx, u); err != nil {
			s.logger.Warnf("failed to bump listing counter for %s: %v", userID, err)
		}
	}
	return l, nil
}

func (s *ListingService) GetListing(ctx context.Context, id uuid.UUID) (listing.Listing, error) {
	if s.cache != nil {
		if cached, err := s.cache.GetListing(ctx, id); err == nil && cached != nil {
			return *cached, nil
		}
	}

	l, err := s.listingRepo.GetByID(ctx, id)
	if err != nil {
		return listing.Listing{}, err
	}
	if s.cache != nil {
		if err := s.cache.SetListing(ctx, l); err != nil {
			s.logger.Warnf("listing cache write failed: %v", err)
		}
	}
	return l, nil
}

func (s *ListingService) ListListings(ctx context.Context, f repository.ListingFilter) ([]listing.Listing, int64, error) {
	return s.listingRepo.ListActive(ctx, f)
}

func (s *ListingService) MyListings(ctx context.Context, userID uuid.UUID) ([]listing.Listing, error) {
	return s.listingRepo.ListByUser(ctx, userID)
}

type UpdateListingInput struct {
	Title        *string
	Description  *string
	Price        *float64
	Condition    *string
	IsNegotiable *bool
	Area         *string
	Images       []string
}

func (s *ListingService) UpdateListing(ctx context.Context, id, userID uuid.UUID, input UpdateListingInput) (listing.Listing, error) {
	l, err := s.listingRepo.GetByID(ctx, id)
	if err != nil {
		return listing.Listing{}, err
	}
	if l.UserID != userID {
		return listing.Listing{}, market_errors.ErrForbidden
	}

	if input.Title != nil && strings.TrimSpace(*input.Title) != "" {
		l.Title = strings.TrimSpace(*input.Title)
	}
	if input.Description != nil {
		l.Description = strings.TrimSpace(*input.Description)
	}
	if input.Price != nil && *input.Price >= 0 {
		l.Price = *input.Price
	}
	if input.Condition != nil {
		l.Condition = *input.Condition
	}
	if input.IsNegotiable != nil {
		l.IsNegotiable = *input.IsNegotiable
	}
	if input.Area != nil {
		l.Area = sql.NullString{String: *input.Area, Valid: *input.Area != ""}
	}
	if input.Images != nil {
		l.Images = input.Images
	}

	if err := s.listingRepo.Update(ctx, l); err != nil {
		return listing.Listing{}, err
	}
	s.invalidate(ctx, id)
	return l, nil
}

// UpdateStatus transitions the listing lifecycle. Marking sold bumps the
// seller's sales counter.
func (s *ListingService) UpdateStatus(ctx context.Context, id, userID uuid.UUID, status string) error {
	switch status {
	case listing.StatusActive, listing.StatusSold, listing.StatusExpired, listing.StatusDeleted:
	default:
		return market_errors.ErrInvalidInput
	}

	l, err := s.listingRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if l.UserID != userID {
		return market_errors.ErrForbidden
	}

	if err := s.listingRepo.UpdateStatus(ctx, id, status); err != nil {
		return err
	}
	s.invalidate(ctx, id)

	if status == listing.StatusSold && l.Status != listing.StatusSold {
		if u, err := s.userRepo.GetByID(ctx, userID); err == nil {
			u.TotalSales++
			if err := s.userRepo.Update(ctx, u); err != nil {
				s.logger.Warnf("failed to bump sales counter for %s: %v", userID, err)
			}
		}
	}
	return nil
}

// DeleteListing soft-deletes: chats referencing the listing keep working
// and degrade to the "Deleted" snapshot.
func (s *ListingService) DeleteListing(ctx context.Context, id, userID uuid.UUID) error {
	return s.UpdateStatus(ctx, id, userID, listing.StatusDeleted)
}

func (s *ListingService) Categories(ctx context.Context) ([]listing.Category, error) {
	return s.listingRepo.GetCategories(ctx)
}

func (s *ListingService) invalidate(ctx context.Context, id uuid.UUID) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateListing(ctx, id); err != nil {
		s.logger.Warnf("listing cache invalidation failed: %v", err)
	}
}
