package apperr

import (
	"errors"
	"fmt"
)

// Класс ошибки: машиночитаемый вид для клиента и для маппинга в статусы.
type Kind string

const (
	KindValidation      Kind = "validation"
	KindUnauthenticated Kind = "unauthenticated"
	KindForbidden       Kind = "forbidden"
	KindGeofence        Kind = "geofence"
	KindConflict        Kind = "conflict"
	KindNotFound        Kind = "not_found"
	KindStore           Kind = "store"
)

// Error — доменная ошибка ядра. Всегда возвращается вызывающему как есть;
// ядро само ничего не ретраит и не глотает.
type Error struct {
	Kind    Kind
	Message string
	Err     error

	// Заполняется только для KindGeofence: измеренные значения,
	// по которым пользователь может сам исправиться.
	DistanceMeters float64
	AccuracyMeters float64
	AllowedRadiusM int
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf возвращает класс ошибки; для не-доменных ошибок — KindStore.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindStore
}

func Validationf(format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

func Unauthenticated(msg string) *Error {
	return &Error{Kind: KindUnauthenticated, Message: msg}
}

func Forbidden(msg string) *Error {
	return &Error{Kind: KindForbidden, Message: msg}
}

func Conflictf(format string, args ...any) *Error {
	return &Error{Kind: KindConflict, Message: fmt.Sprintf(format, args...)}
}

func NotFoundf(format string, args ...any) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

// Storef оборачивает ошибку хранилища; причину сохраняем для логов.
func Storef(err error, format string, args ...any) *Error {
	return &Error{Kind: KindStore, Message: fmt.Sprintf(format, args...), Err: err}
}

// Geofence — отказ геозоны с измеренными значениями.
func Geofence(msg string, distance, accuracy float64, radius int) *Error {
	return &Error{
		Kind:           KindGeofence,
		Message:        msg,
		DistanceMeters: distance,
		AccuracyMeters: accuracy,
		AllowedRadiusM: radius,
	}
}
