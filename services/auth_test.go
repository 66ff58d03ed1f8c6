package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vnkhanh/cogload-backend/apperr"
)

func TestRegisterLoginAuthenticate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	user, err := f.auth.Register(ctx, RegisterInput{Username: "reader", Email: "Reader@Example.com", Password: "secret1"})
	require.NoError(t, err)
	assert.False(t, user.IsAdmin)
	assert.Equal(t, "reader@example.com", user.Email)
	assert.NotEqual(t, "secret1", user.PasswordHash)

	for _, login := range []string{"reader", "READER@example.com"} {
		res, err := f.auth.Login(ctx, login, "secret1")
		require.NoError(t, err, login)
		assert.Equal(t, user.ID, res.User.ID)
		assert.Equal(t, 3600, res.ExpiresIn)

		got, err := f.auth.Authenticate(ctx, res.Token)
		require.NoError(t, err)
		assert.Equal(t, user.ID, got.ID)
	}

	_, err = f.auth.Login(ctx, "reader", "wrong")
	assert.True(t, apperr.Is(err, apperr.CodeUnauthorized))
	_, err = f.auth.Login(ctx, "nobody", "secret1")
	assert.True(t, apperr.Is(err, apperr.CodeUnauthorized))
	_, err = f.auth.Authenticate(ctx, "not-a-token")
	assert.True(t, apperr.Is(err, apperr.CodeUnauthorized))
}

func TestRegisterRejectsDuplicatesAndBadInput(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.auth.Register(ctx, RegisterInput{Username: "reader", Email: "r@example.com", Password: "secret1"})
	require.NoError(t, err)

	_, err = f.auth.Register(ctx, RegisterInput{Username: "reader", Email: "other@example.com", Password: "secret1"})
	assert.True(t, apperr.Is(err, apperr.CodeConflict))
	_, err = f.auth.Register(ctx, RegisterInput{Username: "other", Email: "r@example.com", Password: "secret1"})
	assert.True(t, apperr.Is(err, apperr.CodeConflict))

	for _, in := range []RegisterInput{
		{Username: "ab", Email: "ab@example.com", Password: "secret1"},
		{Username: "valid", Email: "not-an-email", Password: "secret1"},
		{Username: "valid", Email: "v@example.com", Password: "123"},
	} {
		_, err := f.auth.Register(ctx, in)
		assert.True(t, apperr.Is(err, apperr.CodeValidation), "%+v", in)
	}
}

func TestCreateAdmin(t *testing.T) {
	f := newFixture(t)
	admin, err := f.auth.CreateAdmin(context.Background(), RegisterInput{Username: "root", Email: "root@example.com", Password: "secret1"})
	require.NoError(t, err)
	assert.True(t, admin.IsAdmin)
}
