package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"auth-service/internal/models"
)

// AuthService — контракт сервисного слоя, нужный хендлерам.
type AuthService interface {
	LoginUser(ctx context.Context, username, password string) (*models.TokenPair, error)
	RegisterUser(ctx context.Context, name, username, password string) (*models.User, error)
	RefreshToken(ctx context.Context, accessToken, refreshToken string) (*models.TokenPair, error)
}

// Handlers агрегирует зависимости HTTP-обработчиков.
type Handlers struct {
	svc AuthService
}

func New(svc AuthService) *Handlers {
	return &Handlers{svc: svc}
}

// writeJSON — единый ответ JSON с нужным Content-Type.
// Ошибки выводим через httperr.WriteError.
func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}

// decodeStrict — строгий JSON-декодер: запрещаем неизвестные поля.
func decodeStrict(r *http.Request, value any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(value)
}
