package auth_test

import (
	"context"
	"errors"
	"testing"

	goerrors "github.com/goliatone/go-errors"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	auth "github.com/nanopulse/go-auth"
)

func TestUserProviderVerifyIdentity(t *testing.T) {
	ctx := context.Background()
	cfg := &auth.SimpleConfig{MaxLoginAttempts: 3}

	passwordHash, err := auth.HashPassword("password123")
	require.NoError(t, err)

	newUser := func() *auth.User {
		return &auth.User{
			ID:           uuid.New(),
			Email:        "test@example.com",
			FirstName:    "Test",
			Role:         auth.RoleAdmin,
			PasswordHash: passwordHash,
			Enabled:      true,
		}
	}

	t.Run("successful verification resets the counter", func(t *testing.T) {
		tracker := new(MockUserTracker)
		user := newUser()
		user.FailedAttempts = 2

		tracker.On("GetByEmail", ctx, "test@example.com").Return(user, nil).Once()
		tracker.On("TrackSuccessfulLogin", ctx, user).Return(nil).Once()

		provider := auth.NewUserProvider(tracker, cfg)
		identity, err := provider.VerifyIdentity(ctx, "test@example.com", "password123")

		require.NoError(t, err)
		require.NotNil(t, identity)
		assert.Equal(t, user.ID.String(), identity.ID())
		assert.Equal(t, "test@example.com", identity.Email())
		assert.Equal(t, auth.RoleAdmin, identity.Role())
		assert.Equal(t, []string{"ROLE_ADMIN", "ROLE_USER"}, identity.Authorities())

		assert.Equal(t, 0, user.FailedAttempts)
		assert.NotNil(t, user.LastLoginAt)
		tracker.AssertExpectations(t)
	})

	t.Run("wrong password increments the counter and persists it", func(t *testing.T) {
		tracker := new(MockUserTracker)
		user := newUser()

		tracker.On("GetByEmail", ctx, "test@example.com").Return(user, nil).Once()
		tracker.On("TrackAttemptedLogin", ctx, user).Return(nil).Once()

		provider := auth.NewUserProvider(tracker, cfg)
		identity, err := provider.VerifyIdentity(ctx, "test@example.com", "wrong_password")

		require.Error(t, err)
		assert.Nil(t, identity)
		assert.True(t, errors.Is(err, auth.ErrInvalidCredentials))
		assert.Equal(t, 1, user.FailedAttempts)
		assert.False(t, user.Locked)
		tracker.AssertExpectations(t)
	})

	t.Run("threshold failure locks the account and emits the event", func(t *testing.T) {
		tracker := new(MockUserTracker)
		user := newUser()
		user.FailedAttempts = 2

		tracker.On("GetByEmail", ctx, "test@example.com").Return(user, nil).Once()
		tracker.On("TrackAttemptedLogin", ctx, user).Return(nil).Once()

		sink := &RecordingSink{}
		provider := auth.NewUserProvider(tracker, cfg).WithActivitySink(sink)

		_, err := provider.VerifyIdentity(ctx, "test@example.com", "wrong_password")

		require.Error(t, err)
		assert.True(t, errors.Is(err, auth.ErrInvalidCredentials), "lock transition still reports invalid credentials")
		assert.True(t, user.Locked)
		assert.NotNil(t, user.LockedAt)
		assert.Equal(t, []auth.ActivityEventType{auth.ActivityEventAccountLocked}, sink.EventTypes())
		tracker.AssertExpectations(t)
	})

	t.Run("locked account is rejected before the password check", func(t *testing.T) {
		tracker := new(MockUserTracker)
		user := newUser()
		user.Locked = true
		user.FailedAttempts = 3

		tracker.On("GetByEmail", ctx, "test@example.com").Return(user, nil).Once()

		provider := auth.NewUserProvider(tracker, cfg)

		// even the correct password does not get through
		identity, err := provider.VerifyIdentity(ctx, "test@example.com", "password123")

		require.Error(t, err)
		assert.Nil(t, identity)
		assert.True(t, errors.Is(err, auth.ErrAccountLocked))
		assert.Equal(t, 3, user.FailedAttempts, "locked accounts stop inflating the counter")
		tracker.AssertExpectations(t)
	})

	t.Run("disabled account is rejected", func(t *testing.T) {
		tracker := new(MockUserTracker)
		user := newUser()
		user.Enabled = false

		tracker.On("GetByEmail", ctx, "test@example.com").Return(user, nil).Once()

		provider := auth.NewUserProvider(tracker, cfg)
		_, err := provider.VerifyIdentity(ctx, "test@example.com", "password123")

		require.Error(t, err)
		assert.True(t, errors.Is(err, auth.ErrAccountDisabled))
	})

	t.Run("unknown email yields the generic credentials error", func(t *testing.T) {
		tracker := new(MockUserTracker)
		tracker.On("GetByEmail", ctx, "nobody@example.com").
			Return(nil, repository.NewRecordNotFound()).Once()

		provider := auth.NewUserProvider(tracker, cfg)
		identity, err := provider.VerifyIdentity(ctx, "nobody@example.com", "password123")

		require.Error(t, err)
		assert.Nil(t, identity)
		assert.True(t, errors.Is(err, auth.ErrInvalidCredentials))
	})

	t.Run("store failure during attempt tracking surfaces as internal", func(t *testing.T) {
		tracker := new(MockUserTracker)
		user := newUser()

		tracker.On("GetByEmail", ctx, "test@example.com").Return(user, nil).Once()
		tracker.On("TrackAttemptedLogin", ctx, user).Return(errors.New("db down")).Once()

		provider := auth.NewUserProvider(tracker, cfg)
		_, err := provider.VerifyIdentity(ctx, "test@example.com", "wrong_password")

		require.Error(t, err)
		var richErr *goerrors.Error
		require.True(t, goerrors.As(err, &richErr))
		assert.Equal(t, goerrors.CategoryInternal, richErr.Category)
	})
}

func TestUserProviderFindIdentityByIdentifier(t *testing.T) {
	ctx := context.Background()
	cfg := &auth.SimpleConfig{}

	t.Run("resolves by identifier without touching counters", func(t *testing.T) {
		tracker := new(MockUserTracker)
		user := &auth.User{
			ID:      uuid.New(),
			Email:   "test@example.com",
			Role:    auth.RoleUser,
			Enabled: true,
		}

		tracker.On("GetByIdentifier", ctx, user.ID.String()).Return(user, nil).Once()

		provider := auth.NewUserProvider(tracker, cfg)
		identity, err := provider.FindIdentityByIdentifier(ctx, user.ID.String())

		require.NoError(t, err)
		assert.Equal(t, user.ID.String(), identity.ID())
		tracker.AssertExpectations(t)
	})

	t.Run("locked account fails resolution", func(t *testing.T) {
		tracker := new(MockUserTracker)
		user := &auth.User{
			ID:      uuid.New(),
			Email:   "locked@example.com",
			Role:    auth.RoleUser,
			Enabled: true,
			Locked:  true,
		}

		tracker.On("GetByIdentifier", mock.Anything, "locked@example.com").Return(user, nil).Once()

		provider := auth.NewUserProvider(tracker, cfg)
		_, err := provider.FindIdentityByIdentifier(ctx, "locked@example.com")

		require.Error(t, err)
		assert.True(t, errors.Is(err, auth.ErrAccountLocked))
	})
}
