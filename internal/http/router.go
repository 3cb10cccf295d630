// Пакет http собирает публичный REST-роутер сервиса.
package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"auth-service/internal/http/handlers"
	"auth-service/internal/http/middleware"
)

// Service — всё, что нужно HTTP-слою от бизнес-логики:
// операции аутентификации плюс строгая проверка access-токена.
type Service interface {
	handlers.AuthService
	middleware.TokenAuthenticator
}

// Options — параметры сборки HTTP-роутера.
type Options struct {
	Logger  *slog.Logger
	Timeout time.Duration
}

// NewRouter собирает http.Handler с chi и подключёнными middleware/роутами.
func NewRouter(svc Service, opts Options) http.Handler {
	root := chi.NewRouter()

	// Middleware (внешний -> внутренний).
	root.Use(
		middleware.Recover(),            // безопасно ловим паники
		middleware.RequestID(),          // формируем/прокидываем X-Request-Id (до логирования!)
		middleware.Logging(opts.Logger), // кладём request-scoped логгер в контекст и логируем
		middleware.Authn(svc),           // мягкая аутентификация: идентичность в контекст
	)
	if opts.Timeout > 0 {
		root.Use(middleware.Timeout(opts.Timeout)) // общий дедлайн запроса
	}

	h := handlers.New(svc)

	root.Route("/api/auth", func(r chi.Router) {
		r.Post("/login", h.Login)
		r.Post("/register", h.Register)
		r.Post("/refreshToken", h.RefreshToken)
		r.Get("/ping", h.Ping)
	})

	return root
}
