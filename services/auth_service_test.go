package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jominki354/hotstinder/models"
)

func newAuthService(store *fakeStore) AuthService {
	return NewAuthService(&fakeUserRepository{store: store})
}

func TestRegisterCreatesPlayerWithDefaultRating(t *testing.T) {
	store := newFakeStore()
	svc := newAuthService(store)

	user, err := svc.Register(context.Background(), RegisterInput{
		BattleTag: "  Nova#1234  ",
		Password:  "correct horse",
	})
	require.NoError(t, err)

	assert.Equal(t, "Nova#1234", user.BattleTag)
	assert.Equal(t, models.RolePlayer, user.Role)
	assert.Equal(t, models.DefaultRating, user.Rating)
	assert.NotEmpty(t, user.PasswordHash)
	assert.NotEqual(t, "correct horse", user.PasswordHash)
}

func TestRegisterValidation(t *testing.T) {
	store := newFakeStore()
	svc := newAuthService(store)
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterInput{BattleTag: "no-discriminator", Password: "longenough"})
	assert.ErrorIs(t, err, ErrBattleTagInvalid)

	_, err = svc.Register(ctx, RegisterInput{BattleTag: "Nova#1234", Password: "short"})
	assert.ErrorIs(t, err, ErrPasswordTooShort)

	_, err = svc.Register(ctx, RegisterInput{BattleTag: "Nova#1234", Password: "longenough"})
	require.NoError(t, err)

	_, err = svc.Register(ctx, RegisterInput{BattleTag: "Nova#1234", Password: "longenough"})
	assert.ErrorIs(t, err, ErrBattleTagTaken)
}

func TestLogin(t *testing.T) {
	store := newFakeStore()
	svc := newAuthService(store)
	ctx := context.Background()

	registered, err := svc.Register(ctx, RegisterInput{BattleTag: "Nova#1234", Password: "longenough"})
	require.NoError(t, err)

	user, err := svc.Login(ctx, models.Credentials{BattleTag: "Nova#1234", Password: "longenough"})
	require.NoError(t, err)
	assert.Equal(t, registered.ID, user.ID)

	_, err = svc.Login(ctx, models.Credentials{BattleTag: "Nova#1234", Password: "wrong password"})
	assert.ErrorIs(t, err, ErrAuthInvalidCredentials)

	_, err = svc.Login(ctx, models.Credentials{BattleTag: "Ghost#9999", Password: "longenough"})
	assert.ErrorIs(t, err, ErrAuthInvalidCredentials)

	_, err = svc.Login(ctx, models.Credentials{BattleTag: "not a tag", Password: "longenough"})
	assert.ErrorIs(t, err, ErrAuthInvalidCredentials)
}
