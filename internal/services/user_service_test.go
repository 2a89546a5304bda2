package services_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gebeya-market/internal/domain/user"
	"gebeya-market/internal/services"
	market_errors "gebeya-market/pkg/errors"
	"gebeya-market/pkg/logger"
)

func newUserFixture(t *testing.T) (*services.UserService, *fakeUserRepo, user.User) {
	t.Helper()

	repo := newFakeUserRepo()
	u := user.User{ID: uuid.New(), TelegramID: 42, FirstName: "Abebe", City: "Addis Ababa"}
	repo.users[u.ID] = u

	return services.NewUserService(repo, nil, logger.NewNop()), repo, u
}

func Test_VerifyPhone_normalizes_to_ethiopian_format(t *testing.T) {
	cases := map[string]string{
		"0911223344":      "+251911223344",
		"251911223344":    "+251911223344",
		"+251911223344":   "+251911223344",
		"911223344":       "+251911223344",
		"09 11 22 33 44":  "+251911223344",
		"+251-911-223344": "+251911223344",
	}

	for input, want := range cases {
		svc, _, u := newUserFixture(t)

		got, err := svc.VerifyPhone(context.Background(), u.ID, input)
		require.NoError(t, err, "input %q", input)

		assert.Equal(t, want, got.Phone.String, "input %q", input)
		assert.True(t, got.IsPhoneVerified)
		assert.True(t, got.PhoneVerifiedAt.Valid)
	}
}

func Test_VerifyPhone_rejects_empty_number(t *testing.T) {
	svc, _, u := newUserFixture(t)

	_, err := svc.VerifyPhone(context.Background(), u.ID, "   ")
	assert.ErrorIs(t, err, market_errors.ErrInvalidInput)
}

func Test_UpdateSettings_merges_keys(t *testing.T) {
	svc, repo, u := newUserFixture(t)
	ctx := context.Background()

	_, err := svc.UpdateSettings(ctx, u.ID, map[string]any{"notifications_enabled": true, "theme": "dark"})
	require.NoError(t, err)

	got, err := svc.UpdateSettings(ctx, u.ID, map[string]any{"theme": "light"})
	require.NoError(t, err)

	assert.Equal(t, true, got.Settings["notifications_enabled"])
	assert.Equal(t, "light", got.Settings["theme"])
	assert.Equal(t, got.Settings, repo.users[u.ID].Settings)
}

func Test_passcode_lifecycle(t *testing.T) {
	svc, repo, u := newUserFixture(t)
	ctx := context.Background()

	// No passcode set yet.
	err := svc.VerifyPasscode(ctx, u.ID, "1234")
	assert.ErrorIs(t, err, market_errors.ErrInvalidOperation)

	// Format is 4 to 6 digits.
	assert.ErrorIs(t, svc.SetPasscode(ctx, u.ID, "12"), market_errors.ErrInvalidInput)
	assert.ErrorIs(t, svc.SetPasscode(ctx, u.ID, "abcd"), market_errors.ErrInvalidInput)
	assert.ErrorIs(t, svc.SetPasscode(ctx, u.ID, "1234567"), market_errors.ErrInvalidInput)

	require.NoError(t, svc.SetPasscode(ctx, u.ID, "123456"))
	assert.True(t, repo.users[u.ID].PasscodeHash.Valid)

	// Stored as a hash, never the raw digits.
	assert.NotEqual(t, "123456", repo.users[u.ID].PasscodeHash.String)

	assert.NoError(t, svc.VerifyPasscode(ctx, u.ID, "123456"))
	assert.ErrorIs(t, svc.VerifyPasscode(ctx, u.ID, "654321"), market_errors.ErrUnauthorized)

	// Removal requires the current passcode.
	assert.ErrorIs(t, svc.RemovePasscode(ctx, u.ID, "000000"), market_errors.ErrUnauthorized)
	require.NoError(t, svc.RemovePasscode(ctx, u.ID, "123456"))
	assert.False(t, repo.users[u.ID].PasscodeHash.Valid)
}

func Test_UpdateProfile_changes_only_provided_fields(t *testing.T) {
	svc, _, u := newUserFixture(t)

	area := "Bole"
	got, err := svc.UpdateProfile(context.Background(), u.ID, services.UpdateProfileInput{Area: &area})
	require.NoError(t, err)

	assert.Equal(t, "Addis Ababa", got.City)
	assert.Equal(t, "Bole", got.Area.String)
}
