package http

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"auth-service/internal/models"
	"auth-service/internal/service"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// stubService реализует Service целиком: хендлеры + строгая проверка токена.
type stubService struct {
	user *models.User
	pair *models.TokenPair

	authErr error
}

func (s *stubService) LoginUser(context.Context, string, string) (*models.TokenPair, error) {
	return s.pair, nil
}

func (s *stubService) RegisterUser(context.Context, string, string, string) (*models.User, error) {
	return s.user, nil
}

func (s *stubService) RefreshToken(context.Context, string, string) (*models.TokenPair, error) {
	return s.pair, nil
}

func (s *stubService) AuthenticateToken(context.Context, string) (*models.User, error) {
	if s.authErr != nil {
		return nil, s.authErr
	}
	return s.user, nil
}

func newTestRouter(svc *stubService) http.Handler {
	return NewRouter(svc, Options{})
}

func TestRouter_PingRequiresIdentity(t *testing.T) {
	t.Parallel()

	svc := &stubService{
		user: &models.User{ID: uuid.New(), Username: "john@example.com", Role: models.RoleUser},
	}
	router := newTestRouter(svc)

	// Без токена — 401 от хендлера (не от мидлвара).
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/auth/ping", nil))
	require.Equal(t, http.StatusUnauthorized, rr.Code)

	// С валидным токеном — 200 и "Pong".
	rr = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/auth/ping", nil)
	req.Header.Set("Authorization", "Bearer valid-token")
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, "Pong", rr.Body.String())
	require.Contains(t, rr.Header().Get("Content-Type"), "text/plain")
}

func TestRouter_PingWithRejectedToken_401(t *testing.T) {
	t.Parallel()

	svc := &stubService{authErr: service.ErrTokenExpired}
	router := newTestRouter(svc)

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/auth/ping", nil)
	req.Header.Set("Authorization", "Bearer expired-token")
	router.ServeHTTP(rr, req)

	// Мягкий authn пропустил запрос без идентичности; отказал хендлер.
	require.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestRouter_RoutesWired(t *testing.T) {
	t.Parallel()

	svc := &stubService{
		user: &models.User{ID: uuid.New(), Name: "John", Username: "john@example.com", Role: models.RoleUser},
		pair: &models.TokenPair{AccessToken: "a.b.c", RefreshToken: "r"},
	}
	router := newTestRouter(svc)

	post := func(target, body string) *httptest.ResponseRecorder {
		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(rr, req)
		return rr
	}

	rr := post("/api/auth/login", `{"username":"john@example.com","password":"Abcdef1!"}`)
	require.Equal(t, http.StatusCreated, rr.Code)

	rr = post("/api/auth/register", `{"name":"John","username":"john@example.com","password":"Abcdef1!"}`)
	require.Equal(t, http.StatusCreated, rr.Code)

	rr = post("/api/auth/refreshToken", `{"token":"a.b.c","refreshToken":"r"}`)
	require.Equal(t, http.StatusCreated, rr.Code)

	// Ответы содержат X-Request-Id от мидлвара.
	require.NotEmpty(t, rr.Header().Get("X-Request-Id"))

	// Неизвестный маршрут.
	rr = post("/api/auth/unknown", `{}`)
	require.Equal(t, http.StatusNotFound, rr.Code)
}

func TestRouter_PanicIsRecovered(t *testing.T) {
	t.Parallel()

	// login с nil pair не паникует, поэтому провоцируем панику отдельным сервисом:
	// RegisterUser вернёт nil user, и сериализация проекции упадёт.
	svc := &stubService{user: nil, pair: nil, authErr: errors.New("no")}
	router := newTestRouter(svc)

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/auth/register",
		strings.NewReader(`{"name":"John","username":"john@example.com","password":"Abcdef1!"}`))
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusInternalServerError, rr.Code)
}
