package models

import (
	"time"

	"github.com/google/uuid"
)

// RefreshToken — персистентная запись refresh-токена.
//
// В БД хранится только хэш случайного значения (sha256 → base64url);
// сам секрет существует лишь у клиента. Запись одноразовая: ротация
// удаляет её, просроченные записи вычищает фоновый janitor.
type RefreshToken struct {
	TokenHash string
	UserID    uuid.UUID
	CreatedAt time.Time
	ExpiresAt time.Time
}
