package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"auth-service/internal/models"
	logctx "auth-service/internal/pkg/log"

	"github.com/google/uuid"
)

type identityKey struct{}

// Identity — аутентифицированный субъект запроса, привязанный к контексту.
type Identity struct {
	UserID   uuid.UUID
	Username string
	Role     models.Role
}

// IdentityFrom достаёт идентичность из контекста запроса.
func IdentityFrom(ctx context.Context) (*Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(*Identity)
	return id, ok
}

func withIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// TokenAuthenticator — узкий контракт для строгой проверки access-токена.
// Реализуется сервисным слоем.
type TokenAuthenticator interface {
	AuthenticateToken(ctx context.Context, accessToken string) (*models.User, error)
}

// Authn — "мягкий" аутентифицирующий мидлвар: извлекает Bearer-токен,
// строго валидирует его и привязывает идентичность к контексту запроса.
//
// Сам по себе он НИКОГДА не отвечает 401: отсутствующий, битый или
// просроченный токен означает "продолжить без идентичности" — решение
// о допуске принимает обработчик эндпойнта. Если идентичность уже
// привязана (повторный проход фильтра), мидлвар ничего не перепривязывает.
func Authn(auth TokenAuthenticator) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			if _, bound := IdentityFrom(r.Context()); bound {
				next.ServeHTTP(w, r)
				return
			}

			user, err := auth.AuthenticateToken(r.Context(), token)
			if err != nil {
				// Невалидный токен приравнивается к его отсутствию.
				logctx.From(r.Context()).LogAttrs(r.Context(), slog.LevelDebug, "authn_skip",
					slog.String("err", err.Error()),
				)
				next.ServeHTTP(w, r)
				return
			}

			id := &Identity{
				UserID:   user.ID,
				Username: user.Username,
				Role:     user.Role,
			}
			next.ServeHTTP(w, r.WithContext(withIdentity(r.Context(), id)))
		})
	}
}

// bearerToken извлекает токен из Authorization: Bearer <token>.
func bearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if auth == "" {
		return ""
	}

	const prefix = "Bearer "
	if !strings.HasPrefix(auth, prefix) || len(auth) == len(prefix) {
		return ""
	}

	return strings.TrimSpace(auth[len(prefix):])
}
