package services

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"strconv"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gebeya-market/config"
	"gebeya-market/internal/domain/user"
	market_errors "gebeya-market/pkg/errors"
)

type memUserRepo struct {
	users map[uuid.UUID]user.User
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{users: map[uuid.UUID]user.User{}}
}

func (r *memUserRepo) Create(_ context.Context, u *user.User) error {
	r.users[u.ID] = *u
	return nil
}

func (r *memUserRepo) GetByID(_ context.Context, id uuid.UUID) (user.User, error) {
	u, ok := r.users[id]
	if !ok {
		return user.User{}, market_errors.ErrNotFound
	}
	return u, nil
}

func (r *memUserRepo) GetByTelegramID(_ context.Context, telegramID int64) (user.User, error) {
	for _, u := range r.users {
		if u.TelegramID == telegramID {
			return u, nil
		}
	}
	return user.User{}, market_errors.ErrNotFound
}

func (r *memUserRepo) Update(_ context.Context, u user.User) error {
	if _, ok := r.users[u.ID]; !ok {
		return market_errors.ErrNotFound
	}
	r.users[u.ID] = u
	return nil
}

const testBotToken = "12345:test-bot-token"

func newTestAuthService(repo *memUserRepo) *AuthService {
	cfg := &config.Config{
		BotToken:     testBotToken,
		JWTSecret:    "test-secret",
		JWTExpiryMin: 60,
	}
	return NewAuthService(repo, cfg)
}

// signInitData builds a WebApp initData payload with a valid Telegram
// signature for the test bot token.
func signInitData(t *testing.T, userJSON string, authDate time.Time) string {
	t.Helper()

	values := url.Values{}
	values.Set("user", userJSON)
	values.Set("auth_date", strconv.FormatInt(authDate.Unix(), 10))
	values.Set("query_id", "AAE-test")

	pairs := []string{
		"auth_date=" + values.Get("auth_date"),
		"query_id=" + values.Get("query_id"),
		"user=" + values.Get("user"),
	}
	dataCheckString := pairs[0] + "\n" + pairs[1] + "\n" + pairs[2]

	secretMac := hmac.New(sha256.New, []byte("WebAppData"))
	secretMac.Write([]byte(testBotToken))
	mac := hmac.New(sha256.New, secretMac.Sum(nil))
	mac.Write([]byte(dataCheckString))

	values.Set("hash", hex.EncodeToString(mac.Sum(nil)))
	return values.Encode()
}

func Test_AuthenticateTelegram_creates_user_and_issues_token(t *testing.T) {
	repo := newMemUserRepo()
	svc := newTestAuthService(repo)

	initData := signInitData(t, `{"id":987654321,"first_name":"Sara","username":"sara_a","language_code":"am"}`, time.Now())

	res, err := svc.AuthenticateTelegram(context.Background(), initData)
	require.NoError(t, err)

	assert.NotEmpty(t, res.AccessToken)
	assert.Equal(t, int64(3600), res.ExpiresIn)
	assert.Equal(t, int64(987654321), res.User.TelegramID)
	assert.Equal(t, "Sara", res.User.FirstName)
	assert.Equal(t, "Addis Ababa", res.User.City)
	assert.Len(t, repo.users, 1)

	claims, err := svc.ParseAccessToken(res.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, res.User.ID.String(), claims.UserID)
}

func Test_AuthenticateTelegram_is_an_upsert(t *testing.T) {
	repo := newMemUserRepo()
	svc := newTestAuthService(repo)

	first, err := svc.AuthenticateTelegram(context.Background(),
		signInitData(t, `{"id":987654321,"first_name":"Sara"}`, time.Now()))
	require.NoError(t, err)

	second, err := svc.AuthenticateTelegram(context.Background(),
		signInitData(t, `{"id":987654321,"first_name":"Sara","username":"sara_new"}`, time.Now()))
	require.NoError(t, err)

	assert.Equal(t, first.User.ID, second.User.ID)
	assert.Equal(t, "sara_new", second.User.Username.String)
	assert.Len(t, repo.users, 1)
}

func Test_AuthenticateTelegram_rejects_tampered_payload(t *testing.T) {
	svc := newTestAuthService(newMemUserRepo())

	initData := signInitData(t, `{"id":987654321,"first_name":"Sara"}`, time.Now())
	tampered := initData + "&premium=1"

	_, err := svc.AuthenticateTelegram(context.Background(), tampered)
	assert.ErrorIs(t, err, market_errors.ErrUnauthorized)
}

func Test_AuthenticateTelegram_rejects_stale_auth_date(t *testing.T) {
	svc := newTestAuthService(newMemUserRepo())

	initData := signInitData(t, `{"id":987654321,"first_name":"Sara"}`, time.Now().Add(-25*time.Hour))

	_, err := svc.AuthenticateTelegram(context.Background(), initData)
	assert.ErrorIs(t, err, market_errors.ErrUnauthorized)
}

func Test_ParseAccessToken_rejects_garbage_and_wrong_secret(t *testing.T) {
	svc := newTestAuthService(newMemUserRepo())

	_, err := svc.ParseAccessToken("")
	assert.ErrorIs(t, err, market_errors.ErrUnauthorized)

	_, err = svc.ParseAccessToken("not-a-token")
	assert.ErrorIs(t, err, market_errors.ErrUnauthorized)

	other := newTestAuthService(newMemUserRepo())
	other.jwtSecret = []byte("a-different-secret")
	token, err := other.issueAccessToken(uuid.New())
	require.NoError(t, err)

	_, err = svc.ParseAccessToken(token)
	assert.ErrorIs(t, err, market_errors.ErrUnauthorized)
}

func Test_expired_tokens_are_rejected(t *testing.T) {
	svc := newTestAuthService(newMemUserRepo())
	svc.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }

	token, err := svc.issueAccessToken(uuid.New())
	require.NoError(t, err)

	svc.now = time.Now
	_, err = svc.ParseAccessToken(token)
	assert.ErrorIs(t, err, market_errors.ErrUnauthorized)
}
