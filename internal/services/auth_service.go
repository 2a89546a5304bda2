package services

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"gebeya-market/config"
	"gebeya-market/internal/domain/user"
	"gebeya-market/internal/repository"
	market_errors "gebeya-market/pkg/errors"
)

// initDataMaxAge bounds how stale a Telegram login payload may be.
const initDataMaxAge = 24 * time.Hour

// AuthService verifies Telegram WebApp logins and issues bearer tokens.
type AuthService struct {
	userRepo  repository.UserRepository
	botToken  string
	jwtSecret []byte
	accessTTL time.Duration

	now func() time.Time
}

func NewAuthService(userRepo repository.UserRepository, cfg *config.Config) *AuthService {
	return &AuthService{
		userRepo:  userRepo,
		botToken:  cfg.BotToken,
		jwtSecret: []byte(cfg.JWTSecret),
		accessTTL: time.Duration(cfg.JWTExpiryMin) * time.Minute,
		now:       time.Now,
	}
}

type AccessClaims struct {
	UserID string `json:"uid"`
	jwt.RegisteredClaims
}

type AuthResponse struct {
	AccessToken string    `json:"access_token"`
	ExpiresIn   int64     `json:"expires_in"`
	User        user.User `json:"-"`
}

// telegramUser is the "user" field of WebApp initData.
type telegramUser struct {
	ID           int64  `json:"id"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	Username     string `json:"username"`
	PhotoURL     string `json:"photo_url"`
	IsPremium    bool   `json:"is_premium"`
	LanguageCode string `json:"language_code"`
}

// AuthenticateTelegram validates a WebApp initData payload, upserts the
// Telegram identity as a local user and returns a signed access token.
func (s *AuthService) AuthenticateTelegram(ctx context.Context, initData string) (AuthResponse, error) {
	tgUser, err := s.verifyInitData(initData)
	if err != nil {
		return AuthResponse{}, err
	}

	u, err := s.upsertUser(ctx, tgUser)
	if err != nil {
		return AuthResponse{}, err
	}

	token, err := s.issueAccessToken(u.ID)
	if err != nil {
		return AuthResponse{}, err
	}

	return AuthResponse{
		AccessToken: token,
		ExpiresIn:   int64(s.accessTTL.Seconds()),
		User:        u,
	}, nil
}

// verifyInitData checks the HMAC signature Telegram attaches to WebApp
// launch parameters: secret = HMAC-SHA256("WebAppData", botToken), and the
// hash field must equal HMAC-SHA256(secret, sorted key=value lines).
func (s *AuthService) verifyInitData(initData string) (telegramUser, error) {
	if s.botToken == "" {
		return telegramUser{}, market_errors.ErrUnauthorized
	}

	values, err := url.ParseQuery(initData)
	if err != nil {
		return telegramUser{}, market_errors.ErrUnauthorized
	}

	gotHash := values.Get("hash")
	if gotHash == "" {
		return telegramUser{}, market_errors.ErrUnauthorized
	}

	pairs := make([]string, 0, len(values))
	for key := range values {
		if key == "hash" {
			continue
		}
		pairs = append(pairs, key+"="+values.Get(key))
	}
	sort.Strings(pairs)
	dataCheckString := strings.Join(pairs, "\n")

	secretMac := hmac.New(sha256.New, []byte("WebAppData"))
	secretMac.Write([]byte(s.botToken))
	secret := secretMac.Sum(nil)

	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte(dataCheckString))
	wantHash := hex.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(wantHash), []byte(gotHash)) {
		return telegramUser{}, market_errors.ErrUnauthorized
	}

	if authDate, err := strconv.ParseInt(values.Get("auth_date"), 10, 64); err != nil ||
		s.now().Sub(time.Unix(authDate, 0)) > initDataMaxAge {
		return telegramUser{}, market_errors.ErrUnauthorized
	}

	var tgUser telegramUser
	if err := json.Unmarshal([]byte(values.Get("user")), &tgUser); err != nil || tgUser.ID == 0 {
		return telegramUser{}, market_errors.ErrUnauthorized
	}
	return tgUser, nil
}

func (s *AuthService) upsertUser(ctx context.Context, tg telegramUser) (user.User, error) {
	existing, err := s.userRepo.GetByTelegramID(ctx, tg.ID)
	if err == nil {
		existing.Username = nullString(tg.Username)
		existing.FirstName = tg.FirstName
		existing.LastName = nullString(tg.LastName)
		existing.PhotoURL = nullString(tg.PhotoURL)
		existing.IsPremium = tg.IsPremium
		existing.LanguageCode = nullString(tg.LanguageCode)
		if err := s.userRepo.Update(ctx, existing); err != nil {
			return user.User{}, err
		}
		return existing, nil
	}
	if !errors.Is(err, market_errors.ErrNotFound) {
		return user.User{}, err
	}

	created := user.User{
		ID:           uuid.New(),
		TelegramID:   tg.ID,
		Username:     nullString(tg.Username),
		FirstName:    tg.FirstName,
		LastName:     nullString(tg.LastName),
		PhotoURL:     nullString(tg.PhotoURL),
		IsPremium:    tg.IsPremium,
		LanguageCode: nullString(tg.LanguageCode),
		City:         "Addis Ababa",
	}
	if err := s.userRepo.Create(ctx, &created); err != nil {
		return user.User{}, err
	}
	return created, nil
}

func (s *AuthService) issueAccessToken(userID uuid.UUID) (string, error) {
	now := s.now()
	claims := AccessClaims{
		UserID: userID.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.accessTTL)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.jwtSecret)
}

func (s *AuthService) ParseAccessToken(tokenString string) (AccessClaims, error) {
	if tokenString == "" {
		return AccessClaims{}, market_errors.ErrUnauthorized
	}

	parsed, err := jwt.ParseWithClaims(tokenString, &AccessClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, market_errors.ErrUnauthorized
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		return AccessClaims{}, market_errors.ErrUnauthorized
	}

	claims, ok := parsed.Claims.(*AccessClaims)
	if !ok || !parsed.Valid {
		return AccessClaims{}, market_errors.ErrUnauthorized
	}
	return *claims, nil
}

// HTTPStatus maps the service error taxonomy to response codes.
func HTTPStatus(err error) int {
	switch {
	case errors.Is(err, market_errors.ErrInvalidInput),
		errors.Is(err, market_errors.ErrInvalidOperation):
		return 400
	case errors.Is(err, market_errors.ErrUnauthorized):
		return 401
	case errors.Is(err, market_errors.ErrForbidden):
		return 403
	case errors.Is(err, market_errors.ErrNotFound):
		return 404
	case errors.Is(err, market_errors.ErrAlreadyExists):
		return 409
	case errors.Is(err, market_errors.ErrRateLimited):
		return 429
	case errors.Is(err, market_errors.ErrStoreUnavailable):
		return 503
	default:
		return 500
	}
}

type ctxKey string

var userIDKey ctxKey = "user_id"

func WithUserContext(ctx context.Context, userID uuid.UUID) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

func UserIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	value := ctx.Value(userIDKey)
	if value == nil {
		return uuid.Nil, false
	}
	userID, ok := value.(uuid.UUID)
	return userID, ok
}

func nullString(value string) sql.NullString {
	if value == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: value, Valid: true}
}
