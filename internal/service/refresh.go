package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"auth-service/internal/cache"
	"auth-service/internal/models"
	"auth-service/internal/pkg/log"
	"auth-service/internal/storage"

	"github.com/google/uuid"
)

// hashRefreshToken — sha256 → base64url; в БД и кэше живёт только хэш.
func hashRefreshToken(plain string) string {
	sum := sha256.Sum256([]byte(plain))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

// generateRefreshToken создает новый refresh-токен для пользователя,
// сохраняет его хэш в БД и возвращает секрет (plain).
func (s *Service) generateRefreshToken(ctx context.Context, userID uuid.UUID) (string, error) {
	const (
		op          = "service.refresh.generateRefreshToken"
		maxAttempts = 5
	)

	lg := log.From(ctx)

	for attempt := 0; attempt < maxAttempts; attempt++ {
		b := make([]byte, 32)
		if _, err := rand.Read(b); err != nil {
			lg.Error("refresh_rand_failed",
				slog.String("op", op),
				slog.String("err", err.Error()),
			)
			return "", fmt.Errorf("%s: %w", op, err)
		}
		plain := base64.RawURLEncoding.EncodeToString(b)
		hash := hashRefreshToken(plain)

		now := time.Now().UTC()
		token := &models.RefreshToken{
			TokenHash: hash,
			UserID:    userID,
			CreatedAt: now,
			ExpiresAt: now.Add(s.cfg.RefreshTokenTTL),
		}

		if err := s.storage.SaveRefreshToken(ctx, token); err != nil {
			if errors.Is(err, storage.ErrAlreadyExists) {
				// Редкая коллизия — пробуем сгенерировать заново.
				continue
			}

			lg.Error("save_refresh_token_failed",
				slog.String("op", op),
				slog.String("err", err.Error()),
			)
			return "", fmt.Errorf("%s: %w", op, err)
		}

		s.cacheRefreshToken(ctx, token)

		return plain, nil
	}

	lg.Error("refresh_collision_exceeded",
		slog.String("op", op),
	)

	return "", fmt.Errorf("%s: %w", op, ErrRefreshTokenCollision)
}

// cacheRefreshToken кладёт запись в кэш best-effort: ошибка кэша не фатальна.
func (s *Service) cacheRefreshToken(ctx context.Context, token *models.RefreshToken) {
	if s.rcache == nil {
		return
	}

	ttl := time.Until(token.ExpiresAt)
	if ttl <= 0 {
		return
	}

	entry := &cache.RefreshEntry{
		UserID:    token.UserID,
		ExpiresAt: token.ExpiresAt,
	}
	if err := s.rcache.Set(ctx, token.TokenHash, entry, ttl); err != nil {
		log.From(ctx).Warn("refresh_cache_set_failed",
			slog.String("err", err.Error()),
		)
	}
}

// lookupRefreshToken ищет запись по хэшу: сначала кэш, затем БД.
// Промах или сбой кэша прозрачно уводит в хранилище.
func (s *Service) lookupRefreshToken(ctx context.Context, hash string) (*models.RefreshToken, error) {
	const op = "service.refresh.lookupRefreshToken"

	if s.rcache != nil {
		entry, ok, err := s.rcache.Get(ctx, hash)
		if err != nil {
			log.From(ctx).Warn("refresh_cache_get_failed",
				slog.String("err", err.Error()),
			)
		} else if ok {
			return &models.RefreshToken{
				TokenHash: hash,
				UserID:    entry.UserID,
				ExpiresAt: entry.ExpiresAt,
			}, nil
		}
	}

	token, err := s.storage.RefreshTokenByHash(ctx, hash)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrRefreshTokenNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.cacheRefreshToken(ctx, token)

	return token, nil
}

// consumeRefreshToken удаляет потреблённый ротацией refresh-токен.
// Сбой удаления логируется, но не возвращается наверх: новая пара уже
// выпущена, а просроченную запись рано или поздно вычистит janitor.
func (s *Service) consumeRefreshToken(ctx context.Context, hash string) {
	const op = "service.refresh.consumeRefreshToken"

	lg := log.From(ctx)

	if s.rcache != nil {
		if err := s.rcache.Del(ctx, hash); err != nil {
			lg.Warn("refresh_cache_del_failed",
				slog.String("op", op),
				slog.String("err", err.Error()),
			)
		}
	}

	deleted, err := s.storage.DeleteRefreshToken(ctx, hash)
	if err != nil {
		lg.Error("refresh_delete_failed",
			slog.String("op", op),
			slog.String("err", err.Error()),
		)
		return
	}

	if !deleted {
		// Запись уже удалена конкурентной ротацией — известный и принятый
		// сценарий, см. комментарий к RefreshToken.
		lg.Warn("refresh_already_consumed",
			slog.String("op", op),
		)
	}
}

// RefreshToken ротирует пару токенов: по access-токену (возможно, только что
// истёкшему) и парному refresh-токену выпускает новую пару и удаляет старый
// refresh-токен.
//
// Известный компромисс: две конкурентные ротации одного refresh-токена могут
// обе пройти проверки до того, как одна из них удалит запись, и обе получить
// новые пары. Одноразовость гарантируется только при последовательном доступе;
// оптимистической блокировки здесь нет намеренно.
func (s *Service) RefreshToken(ctx context.Context, accessToken, refreshToken string) (*models.TokenPair, error) {
	const op = "service.refresh.RefreshToken"

	lg := log.From(ctx)

	// Subject достаём толерантно к истечению: ротация с только что
	// истёкшим access-токеном — штатный сценарий.
	username, err := s.extractSubject(accessToken)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	user, err := s.storage.UserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrUserNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	hash := hashRefreshToken(refreshToken)

	record, err := s.lookupRefreshToken(ctx, hash)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if record.UserID != user.ID {
		lg.Warn("refresh_pair_mismatch",
			slog.String("op", op),
			slog.String("user_id", user.ID.String()),
		)
		return nil, fmt.Errorf("%s: %w", op, ErrTokenPairMismatch)
	}

	if time.Now().UTC().After(record.ExpiresAt) {
		lg.Warn("refresh_expired",
			slog.String("op", op),
			slog.String("user_id", user.ID.String()),
		)
		return nil, fmt.Errorf("%s: %w", op, ErrRefreshTokenExpired)
	}

	pair, err := s.issueTokenPair(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.consumeRefreshToken(ctx, hash)

	return pair, nil
}

// ReapExpiredTokens удаляет все refresh-токены с истёкшим сроком.
// Вызывается фоновым janitor'ом; безопасно выполняется параллельно
// с выпуском и ротацией — удаление ограничено предикатом по expires_at.
func (s *Service) ReapExpiredTokens(ctx context.Context, now time.Time) (int64, error) {
	const op = "service.refresh.ReapExpiredTokens"

	count, err := s.storage.DeleteExpiredTokens(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	return count, nil
}
