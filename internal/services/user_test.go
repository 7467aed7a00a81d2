package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tahcohcat/fitchallenge-web/internal/apperr"
	"github.com/tahcohcat/fitchallenge-web/internal/models"
)

func TestCreateUser(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	user, err := env.users.CreateUser(ctx, &models.CreateUserRequest{
		Email:           "  Learner@Example.com ",
		Password:        "secret123",
		ConfirmPassword: "secret123",
		Language:        "en-us",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, user.ID)
	assert.Equal(t, "learner@example.com", user.Email)
	assert.Equal(t, models.RoleUser, user.Role)
	assert.Equal(t, "en-US", user.Language)
	assert.NotEqual(t, "secret123", user.Password)

	_, err = env.users.CreateUser(ctx, &models.CreateUserRequest{
		Email: "LEARNER@example.com", Password: "secret123", ConfirmPassword: "secret123",
	})
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestCreateUserValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	cases := map[string]*models.CreateUserRequest{
		"mismatch":     {Email: "a@example.com", Password: "secret123", ConfirmPassword: "secret124"},
		"short":        {Email: "a@example.com", Password: "abc", ConfirmPassword: "abc"},
		"bad email":    {Email: "not-an-email", Password: "secret123", ConfirmPassword: "secret123"},
		"bad language": {Email: "a@example.com", Password: "secret123", ConfirmPassword: "secret123", Language: "xx-YY"},
	}
	for name, req := range cases {
		_, err := env.users.CreateUser(ctx, req)
		assert.True(t, apperr.Is(err, apperr.KindValidation), name)
	}
	assert.Equal(t, 0, env.countRows(t, `SELECT COUNT(*) FROM users`))
}

func TestAdminEmailsGetAdminRole(t *testing.T) {
	env := newTestEnv(t)
	admin := env.createUser(t, "admin@example.com")
	assert.True(t, admin.IsAdmin())

	role, err := env.users.GetRole(context.Background(), admin.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, role)
}

func TestAuthenticateUser(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	created := env.createUser(t, "learner@example.com")

	user, err := env.users.AuthenticateUser(ctx, &models.LoginRequest{Email: "Learner@example.com", Password: "secret123"})
	require.NoError(t, err)
	assert.Equal(t, created.ID, user.ID)

	stored, err := env.users.GetUserByID(ctx, created.ID)
	require.NoError(t, err)
	assert.NotNil(t, stored.LastLoginAt)

	_, err = env.users.AuthenticateUser(ctx, &models.LoginRequest{Email: "learner@example.com", Password: "wrong"})
	assert.True(t, apperr.Is(err, apperr.KindUnauthenticated))

	_, err = env.users.AuthenticateUser(ctx, &models.LoginRequest{Email: "nobody@example.com", Password: "secret123"})
	assert.True(t, apperr.Is(err, apperr.KindUnauthenticated))
}

func TestPaddedEmailsAreNormalizedBeforeValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	created := env.createUser(t, " padded@example.com")
	assert.Equal(t, "padded@example.com", created.Email)

	user, err := env.users.AuthenticateUser(ctx, &models.LoginRequest{Email: "Padded@Example.com ", Password: "secret123"})
	require.NoError(t, err)
	assert.Equal(t, created.ID, user.ID)

	token, resetFor, err := env.users.CreatePasswordReset(ctx, "  PADDED@example.com\t")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Equal(t, created.ID, resetFor.ID)

	_, _, err = env.users.CreatePasswordReset(ctx, "   ")
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestUpdateLanguage(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.createUser(t, "learner@example.com")

	code, err := env.users.UpdateLanguage(ctx, user.ID, "fr-fr")
	require.NoError(t, err)
	assert.Equal(t, "fr-FR", code)

	stored, err := env.users.GetUserByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "fr-FR", stored.Language)

	_, err = env.users.UpdateLanguage(ctx, user.ID, "klingon")
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	_, err = env.users.UpdateLanguage(ctx, "missing", "fr-FR")
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestPasswordReset(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.createUser(t, "learner@example.com")

	token, user, err := env.users.CreatePasswordReset(ctx, "learner@example.com")
	require.NoError(t, err)
	assert.Len(t, token, 64)
	assert.Equal(t, "learner@example.com", user.Email)
	assert.Equal(t, 0, env.countRows(t, `SELECT COUNT(*) FROM password_resets WHERE token_hash = ?`, token))

	req := &models.ResetPasswordRequest{Token: token, Password: "newsecret", ConfirmPassword: "newsecret"}
	require.NoError(t, env.users.ResetPassword(ctx, req))

	_, err = env.users.AuthenticateUser(ctx, &models.LoginRequest{Email: "learner@example.com", Password: "newsecret"})
	require.NoError(t, err)

	err = env.users.ResetPassword(ctx, req)
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	_, _, err = env.users.CreatePasswordReset(ctx, "nobody@example.com")
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestPasswordResetExpires(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.createUser(t, "learner@example.com")

	issued := time.Now()
	env.users.now = func() time.Time { return issued }
	token, _, err := env.users.CreatePasswordReset(ctx, "learner@example.com")
	require.NoError(t, err)

	env.users.now = func() time.Time { return issued.Add(PasswordResetTTL + time.Second) }
	err = env.users.ResetPassword(ctx, &models.ResetPasswordRequest{Token: token, Password: "newsecret", ConfirmPassword: "newsecret"})
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	err = env.users.ResetPassword(ctx, &models.ResetPasswordRequest{Token: "bogus", Password: "newsecret", ConfirmPassword: "newsecret"})
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}
