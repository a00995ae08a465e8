package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterAndLogin(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	user, err := env.users.Register(ctx, &RegisterRequest{
		Username: "scent_lover",
		Email:    "Lover@Example.com",
		Password: "correct horse",
	})
	require.NoError(t, err)
	assert.Equal(t, "lover@example.com", user.Email)
	assert.NotEqual(t, "correct horse", user.PasswordHash)

	session, err := env.users.Login(ctx, &LoginRequest{Login: "scent_lover", Password: "correct horse"})
	require.NoError(t, err)
	assert.Equal(t, user.ID, session.User.ID)
	assert.NotEmpty(t, session.RefreshToken)
	assert.NotNil(t, session.User.LastActiveAt)

	_, err = env.users.Login(ctx, &LoginRequest{Login: "LOVER@example.com", Password: "correct horse"})
	assert.NoError(t, err)

	_, err = env.users.Login(ctx, &LoginRequest{Login: "scent_lover", Password: "wrong password"})
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, err = env.users.Login(ctx, &LoginRequest{Login: "nobody", Password: "whatever1"})
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestRegisterRejectsDuplicatesAndBadInput(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.users.Register(ctx, &RegisterRequest{Username: "alice", Email: "alice@example.com", Password: "password1"})
	require.NoError(t, err)

	_, err = env.users.Register(ctx, &RegisterRequest{Username: "alice", Email: "other@example.com", Password: "password1"})
	assert.ErrorIs(t, err, ErrConflict)

	_, err = env.users.Register(ctx, &RegisterRequest{Username: "al", Email: "al@example.com", Password: "password1"})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "username", verr.Field)

	_, err = env.users.Register(ctx, &RegisterRequest{Username: "bad-name", Email: "bad@example.com", Password: "password1"})
	assert.ErrorIs(t, err, ErrValidationFailed)

	_, err = env.users.Register(ctx, &RegisterRequest{Username: "carol", Email: "not-an-email", Password: "password1"})
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "email", verr.Field)

	_, err = env.users.Register(ctx, &RegisterRequest{Username: "carol", Email: "carol@example.com", Password: "short"})
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "password", verr.Field)
}

func TestRefreshRotatesOnce(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.users.Register(ctx, &RegisterRequest{Username: "alice", Email: "alice@example.com", Password: "password1"})
	require.NoError(t, err)
	session, err := env.users.Login(ctx, &LoginRequest{Login: "alice", Password: "password1"})
	require.NoError(t, err)

	next, err := env.users.Refresh(ctx, session.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, session.RefreshToken, next.RefreshToken)

	_, err = env.users.Refresh(ctx, session.RefreshToken)
	assert.ErrorIs(t, err, ErrUnauthorized)

	require.NoError(t, env.users.Logout(ctx, next.RefreshToken))
	_, err = env.users.Refresh(ctx, next.RefreshToken)
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, err = env.users.Refresh(ctx, "unknown")
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestGetProfileCounts(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.user(t, "alice")
	bob := env.user(t, "bob")
	carol := env.user(t, "carol")

	require.NoError(t, env.graph.Follow(ctx, bob.ID.String(), alice.ID.String()))
	require.NoError(t, env.graph.Follow(ctx, carol.ID.String(), alice.ID.String()))
	require.NoError(t, env.graph.Follow(ctx, alice.ID.String(), bob.ID.String()))
	env.post(t, alice, "Aventus")

	profile, err := env.users.GetProfile(ctx, alice.ID.String(), bob.ID.String())
	require.NoError(t, err)
	assert.Equal(t, int64(2), profile.FollowersCount)
	assert.Equal(t, int64(1), profile.FollowingCount)
	assert.Equal(t, int64(1), profile.PostsCount)
	assert.True(t, profile.IsFollowing)

	anon, err := env.users.GetProfile(ctx, alice.ID.String(), "")
	require.NoError(t, err)
	assert.False(t, anon.IsFollowing)

	_, err = env.users.GetProfile(ctx, "not-a-uuid", "")
	assert.ErrorIs(t, err, ErrValidationFailed)
}

func TestUpdateProfile(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.user(t, "alice")

	updated, err := env.users.UpdateProfile(ctx, alice.ID.String(), &UpdateProfileRequest{
		Bio:                strPtr("  <b>Oud</b> collector  "),
		ProfileImageURL:    strPtr("https://img.example.com/a.png"),
		SignatureFragrance: &SignatureDraft{Name: "Aventus", Brand: "Creed"},
	})
	require.NoError(t, err)
	assert.Equal(t, "<b>Oud</b> collector", updated.Bio)
	assert.Equal(t, "https://img.example.com/a.png", updated.ProfileImageURL)
	assert.True(t, updated.Signature.IsSet())
	assert.Equal(t, "Creed", updated.Signature.Brand)

	updated, err = env.users.UpdateProfile(ctx, alice.ID.String(), &UpdateProfileRequest{
		SignatureFragrance: &SignatureDraft{Brand: "Creed"},
	})
	require.NoError(t, err)
	assert.False(t, updated.Signature.IsSet())
	assert.Empty(t, updated.Signature.Brand)
	assert.Equal(t, "<b>Oud</b> collector", updated.Bio)

	_, err = env.users.UpdateProfile(ctx, alice.ID.String(), &UpdateProfileRequest{
		CoverImageURL: strPtr("not a url"),
	})
	assert.ErrorIs(t, err, ErrValidationFailed)
}
