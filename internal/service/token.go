package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"auth-service/internal/models"
	"auth-service/internal/pkg/log"

	"github.com/golang-jwt/jwt/v5"
)

// Зарезервированные claims: не перекрываются extra-значениями вызывающего.
var reservedClaims = map[string]struct{}{
	"sub": {},
	"iss": {},
	"aud": {},
	"iat": {},
	"exp": {},
}

// generateAccessToken генерирует access-токен для пользователя.
// extra — дополнительные claims вызывающего; зарезервированные ключи игнорируются.
func (s *Service) generateAccessToken(ctx context.Context, user *models.User, extra map[string]any, now time.Time) (string, error) {
	const op = "service.token.generateAccessToken"

	lg := log.From(ctx)

	claims := jwt.MapClaims{
		"sub": user.Username,
		"iss": s.cfg.Issuer,
		"aud": jwt.ClaimStrings(s.cfg.Audience),
		"iat": jwt.NewNumericDate(now),
		"exp": jwt.NewNumericDate(now.Add(s.cfg.AccessTokenTTL)),
	}

	for k, v := range extra {
		if _, reserved := reservedClaims[k]; reserved {
			continue
		}
		claims[k] = v
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		lg.Error("access_token_sign_failed",
			slog.String("op", op),
			slog.String("err", err.Error()),
		)
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return signed, nil
}

// keyFunc отдаёт ключ подписи и отсекает неожиданные алгоритмы.
func (s *Service) keyFunc(t *jwt.Token) (interface{}, error) {
	if t.Method != jwt.SigningMethodHS256 {
		return nil, fmt.Errorf("unexpected signing method: %w", ErrInvalidToken)
	}

	return s.secret, nil
}

// decodeClaims возвращает claims токена, проверяя ТОЛЬКО подпись и алгоритм.
// Просроченный, но корректно подписанный токен декодируется без ошибки —
// это нужно потоку ротации, который читает subject из только что истёкшего
// access-токена. Для авторизации использовать нельзя: там validateAccessToken.
func (s *Service) decodeClaims(tokenStr string) (jwt.MapClaims, error) {
	const op = "service.token.decodeClaims"

	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(tokenStr, claims, s.keyFunc,
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithoutClaimsValidation(),
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}

	return claims, nil
}

// extractSubject читает subject из access-токена, толерантно к истечению срока.
func (s *Service) extractSubject(tokenStr string) (string, error) {
	const op = "service.token.extractSubject"

	claims, err := s.decodeClaims(tokenStr)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return "", fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}

	return sub, nil
}

// validateAccessToken строго валидирует access-токен: подпись, алгоритм,
// срок действия, issuer и audience. Возвращает subject.
func (s *Service) validateAccessToken(tokenStr string) (string, error) {
	const op = "service.token.validateAccessToken"

	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, s.keyFunc,
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithLeeway(5*time.Second),
		jwt.WithIssuer(s.cfg.Issuer),
		jwt.WithAudience(s.cfg.Audience...),
	)

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", fmt.Errorf("%s: %w", op, ErrTokenExpired)
		}

		return "", fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}

	if !token.Valid {
		return "", fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}

	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return "", fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}

	return sub, nil
}

// isTokenValidFor сообщает, действителен ли токен для указанного субъекта:
// подпись верна, срок не истёк, subject совпадает. Никогда не возвращает
// ошибку — любой сбой разбора означает false.
func (s *Service) isTokenValidFor(tokenStr, username string) bool {
	sub, err := s.validateAccessToken(tokenStr)
	if err != nil {
		return false
	}

	return sub == username
}
