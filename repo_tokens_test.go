package auth_test

import (
	"context"
	"testing"
	"time"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	auth "github.com/nanopulse/go-auth"
)

func TestTokensRepositorySaveAndGet(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	users := auth.NewUsersRepository(db)
	tokens := auth.NewTokensRepository(db)
	ctx := context.Background()

	owner := seedUser(t, users, "owner@example.com")

	saved, err := tokens.Save(ctx, &auth.Token{
		Token:     "raw-token-1",
		UserID:    owner.ID,
		UserAgent: "curl/8.0",
		IPAddress: "10.0.0.1",
	})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, saved.ID)
	assert.Equal(t, auth.TokenKindBearer, saved.Kind)

	found, err := tokens.GetByRawToken(ctx, "raw-token-1")
	require.NoError(t, err)
	assert.Equal(t, saved.ID, found.ID)
	assert.Equal(t, owner.ID, found.UserID)
	assert.Equal(t, "curl/8.0", found.UserAgent)
	assert.Equal(t, "10.0.0.1", found.IPAddress)
	assert.True(t, found.IsLive())

	_, err = tokens.GetByRawToken(ctx, "never-issued")
	require.Error(t, err)
	assert.True(t, repository.IsRecordNotFound(err))
}

func TestTokensRepositoryRevocation(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	users := auth.NewUsersRepository(db)
	tokens := auth.NewTokensRepository(db)
	ctx := context.Background()

	alice := seedUser(t, users, "alice@example.com")
	bob := seedUser(t, users, "bob@example.com")

	for _, raw := range []string{"alice-1", "alice-2"} {
		_, err := tokens.Save(ctx, &auth.Token{Token: raw, UserID: alice.ID})
		require.NoError(t, err)
	}
	_, err := tokens.Save(ctx, &auth.Token{Token: "bob-1", UserID: bob.ID})
	require.NoError(t, err)

	t.Run("revoke all flips every live record for the user", func(t *testing.T) {
		affected, err := tokens.RevokeAllForUser(ctx, alice.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(2), affected)

		live, err := tokens.ListLiveByUser(ctx, alice.ID)
		require.NoError(t, err)
		assert.Empty(t, live)

		record, err := tokens.GetByRawToken(ctx, "alice-1")
		require.NoError(t, err)
		assert.True(t, record.Revoked)
		assert.True(t, record.Expired)
		assert.False(t, record.IsLive())
	})

	t.Run("other users are untouched", func(t *testing.T) {
		live, err := tokens.ListLiveByUser(ctx, bob.ID)
		require.NoError(t, err)
		require.Len(t, live, 1)
		assert.Equal(t, "bob-1", live[0].Token)
	})

	t.Run("revoke all again is a no-op", func(t *testing.T) {
		affected, err := tokens.RevokeAllForUser(ctx, alice.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(0), affected)
	})

	t.Run("revoke by raw token", func(t *testing.T) {
		require.NoError(t, tokens.RevokeByRawToken(ctx, "bob-1"))

		record, err := tokens.GetByRawToken(ctx, "bob-1")
		require.NoError(t, err)
		assert.False(t, record.IsLive())

		// unknown tokens keep logout idempotent
		require.NoError(t, tokens.RevokeByRawToken(ctx, "never-issued"))
	})
}

func TestTokensRepositoryTouchLastUsed(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	users := auth.NewUsersRepository(db)
	tokens := auth.NewTokensRepository(db)
	ctx := context.Background()

	owner := seedUser(t, users, "touch@example.com")
	_, err := tokens.Save(ctx, &auth.Token{Token: "touch-1", UserID: owner.ID})
	require.NoError(t, err)

	at := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, tokens.TouchLastUsed(ctx, "touch-1", at))

	record, err := tokens.GetByRawToken(ctx, "touch-1")
	require.NoError(t, err)
	require.NotNil(t, record.LastUsedAt)
	assert.WithinDuration(t, at, *record.LastUsedAt, time.Second)
}

func TestLedgerGuardAgainstStore(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	users := auth.NewUsersRepository(db)
	tokens := auth.NewTokensRepository(db)
	guard := auth.NewLedgerGuard(tokens)
	ctx := context.Background()

	owner := seedUser(t, users, "guard@example.com")
	_, err := tokens.Save(ctx, &auth.Token{Token: "guard-1", UserID: owner.ID})
	require.NoError(t, err)

	live, err := guard.IsLive(ctx, "guard-1")
	require.NoError(t, err)
	assert.True(t, live)

	// absent record means not live, not an error
	live, err = guard.IsLive(ctx, "never-issued")
	require.NoError(t, err)
	assert.False(t, live)

	require.NoError(t, tokens.RevokeByRawToken(ctx, "guard-1"))

	live, err = guard.IsLive(ctx, "guard-1")
	require.NoError(t, err)
	assert.False(t, live)
}

func TestAuditTrailSink(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	repo := auth.NewRepositoryManager(db)
	sink := auth.NewAuditTrailSink(repo.AuditLogs())
	ctx := context.Background()

	occurredAt := time.Now().UTC().Truncate(time.Second)
	err := sink.Record(ctx, auth.ActivityEvent{
		EventType:  auth.ActivityEventLoginSuccess,
		UserID:     uuid.New().String(),
		Email:      "audit@example.com",
		IP:         "10.0.0.9",
		UserAgent:  "curl/8.0",
		Metadata:   map[string]any{"source": "test"},
		OccurredAt: occurredAt,
	})
	require.NoError(t, err)

	var rows []*auth.AuditLog
	require.NoError(t, db.NewSelect().Model(&rows).Scan(ctx))
	require.Len(t, rows, 1)
	assert.Equal(t, auth.ActivityEventLoginSuccess, rows[0].EventType)
	assert.Equal(t, "audit@example.com", rows[0].Email)
	assert.Equal(t, "10.0.0.9", rows[0].IP)
	assert.Equal(t, "test", rows[0].Metadata["source"])
}
