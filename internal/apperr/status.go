package apperr

import (
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Code возвращает gRPC-код для класса ошибки.
func Code(err error) codes.Code {
	switch KindOf(err) {
	case KindValidation, KindGeofence:
		return codes.InvalidArgument
	case KindUnauthenticated:
		return codes.Unauthenticated
	case KindForbidden:
		return codes.PermissionDenied
	case KindConflict:
		return codes.FailedPrecondition
	case KindNotFound:
		return codes.NotFound
	default:
		return codes.Internal
	}
}

// Status конвертирует доменную ошибку в gRPC status для транспортной обёртки.
// Текст ошибки хранилища наружу не уходит — только generic server error.
func Status(err error) error {
	if err == nil {
		return nil
	}

	var e *Error
	if !errors.As(err, &e) {
		return status.Error(codes.Internal, "internal server error")
	}
	if e.Kind == KindStore {
		return status.Error(codes.Internal, "internal server error")
	}
	return status.Error(Code(err), e.Message)
}
