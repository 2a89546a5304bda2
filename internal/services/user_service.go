package services

import (
	"context"
	"database/sql"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"gebeya-market/internal/domain/user"
	"gebeya-market/internal/repository"
	market_errors "gebeya-market/pkg/errors"
	"gebeya-market/pkg/logger"
)

var passcodePattern = regexp.MustCompile(`^\d{4,6}$`)

// UserCache is the optional profile cache in front of the user store.
type UserCache interface {
	GetUser(ctx context.Context, id uuid.UUID) (*user.User, error)
	SetUser(ctx context.Context, u user.User) error
	InvalidateUser(ctx context.Context, id uuid.UUID) error
}

type UserService struct {
	userRepo repository.UserRepository
	cache    UserCache
	logger   *logger.Logger
}

func NewUserService(userRepo repository.UserRepository, cache UserCache, l *logger.Logger) *UserService {
	return &UserService{userRepo: userRepo, cache: cache, logger: l}
}

func (s *UserService) GetProfile(ctx context.Context, id uuid.UUID) (user.User, error) {
	if s.cache != nil {
		if cached, err := s.cache.GetUser(ctx, id); err == nil && cached != nil {
			return *cached, nil
		}
	}

	u, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return user.User{}, err
	}
	if s.cache != nil {
		if err := s.cache.SetUser(ctx, u); err != nil {
			s.logger.Warnf("user cache write failed: %v", err)
		}
	}
	return u, nil
}

type UpdateProfileInput struct {
	City *string
	Area *string
}

func (s *UserService) UpdateProfile(ctx context.Context, id uuid.UUID, input UpdateProfileInput) (user.User, error) {
	u, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return user.User{}, err
	}

	if input.City != nil && *input.City != "" {
		u.City = *input.City
	}
	if input.Area != nil && *input.Area != "" {
		u.Area = sql.NullString{String: *input.Area, Valid: true}
	}

	if err := s.saveUser(ctx, u); err != nil {
		return user.User{}, err
	}
	return u, nil
}

// VerifyPhone records a phone number shared through the Telegram contact
// flow. Numbers are normalized to the Ethiopian +251 format.
func (s *UserService) VerifyPhone(ctx context.Context, id uuid.UUID, phoneNumber string) (user.User, error) {
	phone := strings.NewReplacer(" ", "", "-", "").Replace(strings.TrimSpace(phoneNumber))
	if phone == "" {
		return user.User{}, market_errors.ErrInvalidInput
	}
	if !strings.HasPrefix(phone, "+") {
		switch {
		case strings.HasPrefix(phone, "0"):
			phone = "+251" + phone[1:]
		case strings.HasPrefix(phone, "251"):
			phone = "+" + phone
		default:
			phone = "+251" + phone
		}
	}

	u, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return user.User{}, err
	}

	u.Phone = sql.NullString{String: phone, Valid: true}
	u.IsPhoneVerified = true
	u.PhoneVerifiedAt = sql.NullTime{Time: time.Now().UTC(), Valid: true}

	if err := s.saveUser(ctx, u); err != nil {
		return user.User{}, err
	}
	return u, nil
}

// UpdateSettings merges the given keys into the user's settings blob.
func (s *UserService) UpdateSettings(ctx context.Context, id uuid.UUID, settings map[string]any) (user.User, error) {
	u, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return user.User{}, err
	}

	if u.Settings == nil {
		u.Settings = make(map[string]any, len(settings))
	}
	for k, v := range settings {
		u.Settings[k] = v
	}

	if err := s.saveUser(ctx, u); err != nil {
		return user.User{}, err
	}
	return u, nil
}

// SetPasscode sets or replaces the app-lock passcode.
func (s *UserService) SetPasscode(ctx context.Context, id uuid.UUID, passcode string) error {
	if !passcodePattern.MatchString(passcode) {
		return market_errors.ErrInvalidInput
	}

	u, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(passcode), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasscodeHash = sql.NullString{String: string(hash), Valid: true}

	return s.saveUser(ctx, u)
}

func (s *UserService) VerifyPasscode(ctx context.Context, id uuid.UUID, passcode string) error {
	u, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !u.PasscodeHash.Valid {
		return market_errors.ErrInvalidOperation
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasscodeHash.String), []byte(passcode)) != nil {
		return market_errors.ErrUnauthorized
	}
	return nil
}

// RemovePasscode clears the passcode after verifying the current one.
func (s *UserService) RemovePasscode(ctx context.Context, id uuid.UUID, passcode string) error {
	if err := s.VerifyPasscode(ctx, id, passcode); err != nil {
		return err
	}

	u, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	u.PasscodeHash = sql.NullString{}

	return s.saveUser(ctx, u)
}

func (s *UserService) saveUser(ctx context.Context, u user.User) error {
	if err := s.userRepo.Update(ctx, u); err != nil {
		return err
	}
	if s.cache != nil {
		if err := s.cache.InvalidateUser(ctx, u.ID); err != nil {
			s.logger.Warnf("user cache invalidation failed: %v", err)
		}
	}
	return nil
}
