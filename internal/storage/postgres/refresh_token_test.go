package postgres

import (
	"context"
	"fmt"
	"testing"
	"time"

	"auth-service/internal/models"
	"auth-service/internal/storage"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// mustSaveRefreshToken сохраняет refresh-токен для пользователя.
func mustSaveRefreshToken(t *testing.T, st *Storage, userID uuid.UUID, hash string, expiresAt time.Time) *models.RefreshToken {
	t.Helper()

	tok := &models.RefreshToken{
		TokenHash: hash,
		UserID:    userID,
		CreatedAt: time.Now().UTC(),
		ExpiresAt: expiresAt,
	}
	require.NoError(t, st.SaveRefreshToken(context.Background(), tok))
	return tok
}

func TestIntegration_SaveRefreshToken_And_ByHash_OK(t *testing.T) {
	st, cleanup := startPostgres(t)
	defer cleanup()

	u := mustSaveUser(t, st, "rt-owner@example.com")
	exp := time.Now().UTC().Add(time.Hour)
	tok := mustSaveRefreshToken(t, st, u.ID, "hash-1", exp)

	got, err := st.RefreshTokenByHash(context.Background(), tok.TokenHash)
	require.NoError(t, err)
	require.Equal(t, tok.TokenHash, got.TokenHash)
	require.Equal(t, u.ID, got.UserID)
	require.WithinDuration(t, tok.CreatedAt, got.CreatedAt, time.Second)
	require.WithinDuration(t, exp, got.ExpiresAt, time.Second)
}

func TestIntegration_SaveRefreshToken_DuplicateHash_Violation(t *testing.T) {
	st, cleanup := startPostgres(t)
	defer cleanup()

	u := mustSaveUser(t, st, "dup@example.com")
	exp := time.Now().UTC().Add(time.Hour)
	mustSaveRefreshToken(t, st, u.ID, "same-hash", exp)

	err := st.SaveRefreshToken(context.Background(), &models.RefreshToken{
		TokenHash: "same-hash",
		UserID:    u.ID,
		CreatedAt: time.Now().UTC(),
		ExpiresAt: exp,
	})
	require.Error(t, err)
	require.ErrorIs(t, err, storage.ErrAlreadyExists)
}

func TestIntegration_RefreshTokenByHash_NotFound(t *testing.T) {
	st, cleanup := startPostgres(t)
	defer cleanup()

	_, err := st.RefreshTokenByHash(context.Background(), "absent-hash")
	require.Error(t, err)
	require.ErrorIs(t, err, storage.ErrNotFound)
}

// Условное удаление: первый вызов возвращает true, повторный — false.
func TestIntegration_DeleteRefreshToken_Conditional(t *testing.T) {
	st, cleanup := startPostgres(t)
	defer cleanup()

	u := mustSaveUser(t, st, "del@example.com")
	mustSaveRefreshToken(t, st, u.ID, "to-delete", time.Now().UTC().Add(time.Hour))

	deleted, err := st.DeleteRefreshToken(context.Background(), "to-delete")
	require.NoError(t, err)
	require.True(t, deleted)

	deleted, err = st.DeleteRefreshToken(context.Background(), "to-delete")
	require.NoError(t, err)
	require.False(t, deleted)

	_, err = st.RefreshTokenByHash(context.Background(), "to-delete")
	require.ErrorIs(t, err, storage.ErrNotFound)
}

// Очистка удаляет токены с expires_at СТРОГО раньше now:
// записи с expires_at == now и позже остаются.
func TestIntegration_DeleteExpiredTokens_StrictPredicate(t *testing.T) {
	st, cleanup := startPostgres(t)
	defer cleanup()

	u := mustSaveUser(t, st, "reap@example.com")
	now := time.Now().UTC().Truncate(time.Microsecond) // точность timestamptz

	for i, exp := range []time.Time{
		now.Add(-2 * time.Hour), // просрочен
		now.Add(-time.Minute),   // просрочен
		now,                     // граница — остаётся
		now.Add(time.Hour),      // живой
	} {
		mustSaveRefreshToken(t, st, u.ID, fmt.Sprintf("reap-%d", i), exp)
	}

	count, err := st.DeleteExpiredTokens(context.Background(), now)
	require.NoError(t, err)
	require.EqualValues(t, 2, count)

	// Граница и живой токен на месте.
	_, err = st.RefreshTokenByHash(context.Background(), "reap-2")
	require.NoError(t, err)
	_, err = st.RefreshTokenByHash(context.Background(), "reap-3")
	require.NoError(t, err)

	// Просроченные удалены.
	_, err = st.RefreshTokenByHash(context.Background(), "reap-0")
	require.ErrorIs(t, err, storage.ErrNotFound)

	// Повторная очистка идемпотентна.
	count, err = st.DeleteExpiredTokens(context.Background(), now)
	require.NoError(t, err)
	require.Zero(t, count)
}

// Несколько активных токенов одного пользователя сосуществуют.
func TestIntegration_MultipleTokensPerUser(t *testing.T) {
	st, cleanup := startPostgres(t)
	defer cleanup()

	u := mustSaveUser(t, st, "multi@example.com")
	exp := time.Now().UTC().Add(time.Hour)

	mustSaveRefreshToken(t, st, u.ID, "multi-1", exp)
	mustSaveRefreshToken(t, st, u.ID, "multi-2", exp)

	_, err := st.RefreshTokenByHash(context.Background(), "multi-1")
	require.NoError(t, err)
	_, err = st.RefreshTokenByHash(context.Background(), "multi-2")
	require.NoError(t, err)
}

func TestIntegration_RefreshTokenQueries_ContextCanceled(t *testing.T) {
	st, cleanup := startPostgres(t)
	defer cleanup()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := st.RefreshTokenByHash(ctx, "any")
	require.Error(t, err)
	require.ErrorIs(t, err, context.Canceled)

	_, err = st.DeleteExpiredTokens(ctx, time.Now().UTC())
	require.Error(t, err)
	require.ErrorIs(t, err, context.Canceled)
}
