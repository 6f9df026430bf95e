package service

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/cleanshift/core/internal/apperr"
	"github.com/cleanshift/core/internal/identity"
	"github.com/cleanshift/core/internal/model"
	"github.com/cleanshift/core/internal/repository"
)

// authAdmin аутентифицирует вызывающего и требует активного администратора.
func authAdmin(ctx context.Context, dir identity.Directory, credential string) (*identity.Caller, error) {
	c, err := dir.Authenticate(ctx, credential)
	if err != nil {
		return nil, err
	}
	if err := identity.RequireAdmin(c); err != nil {
		return nil, err
	}
	return c, nil
}

// authActive аутентифицирует вызывающего и требует активного пользователя.
func authActive(ctx context.Context, dir identity.Directory, credential string) (*identity.Caller, error) {
	c, err := dir.Authenticate(ctx, credential)
	if err != nil {
		return nil, err
	}
	if err := identity.RequireActive(c); err != nil {
		return nil, err
	}
	return c, nil
}

// notFoundOr переводит gorm.ErrRecordNotFound в NotFound, остальное — в Store.
func notFoundOr(err error, format string, args ...any) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.NotFoundf(format, args...)
	}
	return apperr.Storef(err, format, args...)
}

// recordEvent пишет событие аудита. Неудача записи не срывает операцию,
// только попадает в лог.
func recordEvent(ctx context.Context, events repository.EventRepository, logger *zap.Logger, event *model.Event) {
	if events == nil {
		return
	}
	if err := events.Record(ctx, event); err != nil {
		logger.Error("record audit event",
			zap.String("event_type", string(event.EventType)),
			zap.Error(err),
		)
	}
}
