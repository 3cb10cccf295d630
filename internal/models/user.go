package models

import (
	"time"

	"github.com/google/uuid"
)

// Role — роль пользователя в системе.
type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

// User — модель пользователя в системе.
//
// PasswordHash никогда не покидает сервисный слой: наружу (HTTP)
// отдаётся только проекция {id, name, username, role}.
type User struct {
	ID           uuid.UUID
	Name         string
	Username     string
	PasswordHash string
	Role         Role
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
