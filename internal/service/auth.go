package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"auth-service/internal/models"
	"auth-service/internal/pkg/log"
	"auth-service/internal/pkg/redact"
	"auth-service/internal/storage"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// RegisterUser регистрирует нового пользователя с ролью USER.
// Поле-уровневая валидация (формат email, длина пароля) — зона HTTP-слоя;
// здесь проверяется только уникальность username.
func (s *Service) RegisterUser(ctx context.Context, name, username, password string) (*models.User, error) {
	const op = "service.auth.RegisterUser"

	_, err := s.storage.UserByUsername(ctx, username)
	if err == nil {
		return nil, fmt.Errorf("%s: %w", op, ErrUsernameTaken)
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	hashedPassword, err := hashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	now := time.Now().UTC()
	user := &models.User{
		ID:           uuid.New(),
		Name:         name,
		Username:     username,
		PasswordHash: hashedPassword,
		Role:         models.RoleUser,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.storage.SaveUser(ctx, user); err != nil {
		if errors.Is(err, storage.ErrAlreadyExists) {
			// Гонка двух регистраций: уникальный индекс добил вторую.
			return nil, fmt.Errorf("%s: %w", op, ErrUsernameTaken)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	log.From(ctx).Info("user_registered",
		slog.String("user_id", user.ID.String()),
		slog.String("username", redact.Email(username)),
	)

	return user, nil
}

// LoginUser выполняет вход по username+пароль и выпускает пару токенов.
// Неизвестный username и неверный пароль дают одинаковый результат.
func (s *Service) LoginUser(ctx context.Context, username, password string) (*models.TokenPair, error) {
	const op = "service.auth.LoginUser"

	user, err := s.storage.UserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if !checkPassword(user.PasswordHash, password) {
		// Пароль в логи не попадает ни в каком виде.
		log.From(ctx).Warn("login_failed",
			slog.String("op", op),
			slog.String("username", redact.Email(username)),
			slog.String("password", redact.Password()),
		)
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}

	return s.issueTokenPair(ctx, user)
}

// AuthenticateToken строго валидирует access-токен и возвращает пользователя.
// Используется middleware'ом для привязки идентичности к запросу;
// просроченный токен здесь НЕ принимается (в отличие от потока ротации).
func (s *Service) AuthenticateToken(ctx context.Context, accessToken string) (*models.User, error) {
	const op = "service.auth.AuthenticateToken"

	username, err := s.validateAccessToken(accessToken)
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

	return user, nil
}

// issueTokenPair выпускает новую пару access+refresh токенов.
func (s *Service) issueTokenPair(ctx context.Context, user *models.User) (*models.TokenPair, error) {
	const op = "service.auth.issueTokenPair"

	now := time.Now().UTC()

	extra := map[string]any{"role": string(user.Role)}

	accessToken, err := s.generateAccessToken(ctx, user, extra, now)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	plain, err := s.generateRefreshToken(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &models.TokenPair{
		AccessToken:     accessToken,
		RefreshToken:    plain,
		AccessExpiresAt: now.Add(s.cfg.AccessTokenTTL),
	}, nil
}

// hashPassword хэширует пароль с помощью bcrypt.
func hashPassword(password string) (string, error) {
	const op = "service.auth.hashPassword"

	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return string(bytes), nil
}

// checkPassword сравнивает пароль с хэшем.
func checkPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
