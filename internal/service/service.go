// service содержит бизнес-логику auth-сервиса:
// регистрацию/аутентификацию пользователей, выпуск/проверку/ротацию токенов
// и работу с хранилищем через интерфейсы из пакета storage.
//
// Основные аспекты:
//   - Пакет не хранит состояние запроса внутри Service; экземпляр Service
//     безопасен для конкурентного использования из разных горутин при условии,
//     что переданное хранилище (storage.Storage) потокобезопасно.
//   - Ошибки возвращаются и далее маппятся HTTP-слоем на статусы
//     (см. комментарии к переменным ошибок ниже).
package service

import (
	"errors"
	"fmt"

	"auth-service/internal/cache"
	"auth-service/internal/config"
	"auth-service/internal/storage"
)

var (
	// ErrInvalidCredentials — пара логин/пароль неверна или пользователь не найден.
	// Оба случая намеренно неразличимы (защита от перебора username). HTTP 401.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrUsernameTaken — username уже занят другим пользователем. HTTP 409.
	ErrUsernameTaken = errors.New("username already taken")

	// ErrUserNotFound — субъект access-токена отсутствует в хранилище
	// (например, удалён после выпуска токена). HTTP 401.
	ErrUserNotFound = errors.New("user not found")

	// ErrInvalidToken — access-токен некорректен по формату/подписи/алгоритму.
	// HTTP 401.
	ErrInvalidToken = errors.New("invalid token")

	// ErrTokenExpired — срок действия access-токена истёк. HTTP 401.
	ErrTokenExpired = errors.New("token expired")

	// ErrRefreshTokenNotFound — refresh-токен отсутствует в хранилище
	// (никогда не существовал или уже потреблён ротацией). HTTP 401.
	ErrRefreshTokenNotFound = errors.New("refresh token not found")

	// ErrRefreshTokenExpired — срок действия refresh-токена истёк. HTTP 401.
	ErrRefreshTokenExpired = errors.New("refresh token expired")

	// ErrTokenPairMismatch — предъявленный refresh-токен принадлежит не тому
	// пользователю, что субъект access-токена. HTTP 400.
	ErrTokenPairMismatch = errors.New("token pair mismatch")

	// ErrRefreshTokenCollision — исчерпаны попытки сгенерировать уникальный
	// refresh-токен (редкий случай коллизий хэша в БД). HTTP 500.
	ErrRefreshTokenCollision = errors.New("refresh token collision")
)

// Service описывает бизнес-логику auth-сервиса.
type Service struct {
	storage storage.Storage
	cfg     config.AuthConfig
	secret  []byte
	rcache  cache.RefreshCache // может быть nil, если кэш не сконфигурирован
}

// New создаёт новый экземпляр Service.
// Ключ подписи декодируется один раз; некорректный base64 — ошибка старта.
func New(storage storage.Storage, cfg config.AuthConfig) (*Service, error) {
	const op = "service.New"

	secret, err := cfg.SecretKey()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Service{
		storage: storage,
		cfg:     cfg,
		secret:  secret,
	}, nil
}

// SetRefreshCache устанавливает кэш refresh-токенов (опционально).
func (s *Service) SetRefreshCache(c cache.RefreshCache) {
	s.rcache = c
}
