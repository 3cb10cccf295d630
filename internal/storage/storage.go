package storage

import (
	"context"
	"errors"
	"time"

	"auth-service/internal/models"
)

var (
	// ErrNotFound — запись не найдена (пользователь/токен).
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists — нарушение уникальности (username/refresh-token).
	ErrAlreadyExists = errors.New("already exists")
)

// UserStorage выполняет операции над пользователями.
type UserStorage interface {
	// SaveUser создает нового пользователя в БД.
	SaveUser(ctx context.Context, user *models.User) error
	// UserByUsername находит пользователя по username (точное совпадение,
	// с учётом регистра).
	UserByUsername(ctx context.Context, username string) (*models.User, error)
}

// RefreshTokenStorage выполняет операции над refresh-токенами.
// Атомарность гарантируется на уровне отдельного вызова; транзакций,
// охватывающих несколько вызовов, контракт не предоставляет.
type RefreshTokenStorage interface {
	// SaveRefreshToken сохраняет новый refresh-токен в БД.
	SaveRefreshToken(ctx context.Context, token *models.RefreshToken) error
	// RefreshTokenByHash находит refresh-токен по его хэшу.
	RefreshTokenByHash(ctx context.Context, hash string) (*models.RefreshToken, error)
	// DeleteRefreshToken удаляет refresh-токен по хэшу.
	// Возвращает true, если запись существовала и была удалена сейчас.
	DeleteRefreshToken(ctx context.Context, hash string) (bool, error)
	// DeleteExpiredTokens удаляет все токены с expires_at строго раньше now
	// и возвращает число удалённых записей.
	DeleteExpiredTokens(ctx context.Context, now time.Time) (int64, error)
}

// Storage задает контракт работы с БД.
type Storage interface {
	UserStorage
	RefreshTokenStorage
	Close()
}
