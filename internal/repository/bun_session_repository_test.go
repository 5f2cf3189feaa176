package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/terraconstructs/rmcs/internal/db/models"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
)

func newSession(userID, authHash, refreshHash string) *models.Session {
	return &models.Session{
		UserID:           userID,
		AuthTokenHash:    authHash,
		RefreshTokenHash: refreshHash,
		ExpiresAt:        time.Now().Add(time.Hour).UTC(),
	}
}

func TestBunSessionRepository_CreateBatch(t *testing.T) {
	db := setupTestDB(t)
	repo := NewBunSessionRepository(db)
	ctx := context.Background()
	userID := uuid.NewString()

	batch := []*models.Session{
		newSession(userID, "auth-1", "refresh-1"),
		newSession(userID, "auth-1", "refresh-2"),
		newSession(userID, "auth-1", "refresh-3"),
	}

	n, err := repo.CreateBatch(ctx, batch)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	seen := map[int32]bool{}
	for _, s := range batch {
		assert.NotZero(t, s.AccessID)
		assert.False(t, seen[s.AccessID], "token ids are unique")
		seen[s.AccessID] = true
	}

	got, err := repo.GetByAccessID(ctx, batch[1].AccessID)
	require.NoError(t, err)
	assert.Equal(t, "refresh-2", got.RefreshTokenHash)
	assert.Nil(t, got.IP)

	byAuth, err := repo.ListByAuthTokenHash(ctx, "auth-1")
	require.NoError(t, err)
	assert.Len(t, byAuth, 3)
}

func TestBunSessionRepository_CreateBatchIsAtomic(t *testing.T) {
	db := setupTestDB(t)
	repo := NewBunSessionRepository(db)
	ctx := context.Background()
	userID := uuid.NewString()

	// Duplicate refresh token hash violates the unique constraint.
	batch := []*models.Session{
		newSession(userID, "auth-1", "dup"),
		newSession(userID, "auth-1", "dup"),
	}
	_, err := repo.CreateBatch(ctx, batch)
	require.Error(t, err)

	sessions, err := repo.ListByUser(ctx, userID)
	require.NoError(t, err)
	assert.Empty(t, sessions, "no partial batch is persisted")
}

func TestBunSessionRepository_GetByAccessIDNotFound(t *testing.T) {
	db := setupTestDB(t)
	repo := NewBunSessionRepository(db)

	_, err := repo.GetByAccessID(context.Background(), 9999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestBunSessionRepository_RotateRefreshToken(t *testing.T) {
	db := setupTestDB(t)
	repo := NewBunSessionRepository(db)
	ctx := context.Background()

	s := newSession(uuid.NewString(), "auth", "old")
	_, err := repo.CreateBatch(ctx, []*models.Session{s})
	require.NoError(t, err)

	ok, err := repo.RotateRefreshToken(ctx, s.AccessID, "old", "new")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.RotateRefreshToken(ctx, s.AccessID, "old", "newer")
	require.NoError(t, err)
	assert.False(t, ok, "stale refresh token must not rotate")

	got, err := repo.GetByAccessID(ctx, s.AccessID)
	require.NoError(t, err)
	assert.Equal(t, "new", got.RefreshTokenHash)
	assert.WithinDuration(t, s.ExpiresAt, got.ExpiresAt, time.Second)
}

func TestBunSessionRepository_Deletes(t *testing.T) {
	db := setupTestDB(t)
	repo := NewBunSessionRepository(db)
	ctx := context.Background()
	alice, bob := uuid.NewString(), uuid.NewString()

	_, err := repo.CreateBatch(ctx, []*models.Session{
		newSession(alice, "a1", "ra1"),
		newSession(alice, "a1", "ra2"),
	})
	require.NoError(t, err)
	_, err = repo.CreateBatch(ctx, []*models.Session{newSession(alice, "a2", "ra3")})
	require.NoError(t, err)
	_, err = repo.CreateBatch(ctx, []*models.Session{newSession(bob, "b1", "rb1")})
	require.NoError(t, err)

	n, err := repo.DeleteByAuthTokenHash(ctx, "a1", bob)
	require.NoError(t, err)
	assert.Zero(t, n, "owner must match")

	n, err = repo.DeleteByAuthTokenHash(ctx, "a1", alice)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	n, err = repo.DeleteByUser(ctx, alice)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	remaining, err := repo.ListByUser(ctx, bob)
	require.NoError(t, err)
	assert.Len(t, remaining, 1)
}

func TestBunSessionRepository_StorageError(t *testing.T) {
	sqldb, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer sqldb.Close()

	db := bun.NewDB(sqldb, pgdialect.New())
	repo := NewBunSessionRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "sessions"`)).
		WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	_, err = repo.CreateBatch(context.Background(), []*models.Session{
		newSession(uuid.NewString(), "auth", "refresh"),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
