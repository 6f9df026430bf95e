package identity

import (
	"context"

	"github.com/google/uuid"

	"github.com/cleanshift/core/internal/apperr"
)

// Роль вызывающего, как её знает сервис каталога.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleWorker Role = "worker"
)

// Caller — аутентифицированный вызывающий.
type Caller struct {
	UserID uuid.UUID `json:"user_id"`
	Role   Role      `json:"role"`
	Active bool      `json:"active"`
}

// Directory — внешний сервис идентификации: по учётным данным возвращает
// пользователя, роль и признак активности. Ядро его не реализует.
type Directory interface {
	Authenticate(ctx context.Context, credential string) (*Caller, error)
}

// RequireAdmin проверяет, что вызывающий — активный администратор.
func RequireAdmin(c *Caller) error {
	if c == nil {
		return apperr.Unauthenticated("must sign in again")
	}
	if !c.Active || c.Role != RoleAdmin {
		return apperr.Forbidden("not permitted")
	}
	return nil
}

// RequireActive проверяет, что вызывающий аутентифицирован и активен.
func RequireActive(c *Caller) error {
	if c == nil {
		return apperr.Unauthenticated("must sign in again")
	}
	if !c.Active {
		return apperr.Forbidden("not permitted")
	}
	return nil
}
