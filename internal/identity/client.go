package identity

import (
	"context"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cleanshift/core/internal/apperr"
)

// HTTPDirectory — клиент сервиса каталога поверх HTTP.
type HTTPDirectory struct {
	httpClient *resty.Client
	logger     *zap.Logger
}

type verifyRequest struct {
	Credential string `json:"credential"`
}

type verifyResponse struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
	Active bool   `json:"active"`
}

// NewHTTPDirectory создаёт клиент каталога.
func NewHTTPDirectory(baseURL string, timeout time.Duration, logger *zap.Logger) *HTTPDirectory {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetRetryCount(2).
		SetRetryWaitTime(200 * time.Millisecond).
		SetRetryMaxWaitTime(1 * time.Second).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	return &HTTPDirectory{httpClient: client, logger: logger}
}

// Authenticate проверяет учётные данные через каталог.
func (d *HTTPDirectory) Authenticate(ctx context.Context, credential string) (*Caller, error) {
	if credential == "" {
		return nil, apperr.Unauthenticated("must sign in again")
	}

	var out verifyResponse
	resp, err := d.httpClient.R().
		SetContext(ctx).
		SetBody(verifyRequest{Credential: credential}).
		SetResult(&out).
		Post("/v1/auth/verify")
	if err != nil {
		d.logger.Error("identity verify request failed", zap.Error(err))
		return nil, apperr.Storef(err, "identity directory unavailable")
	}

	switch resp.StatusCode() {
	case http.StatusOK:
		// ok
	case http.StatusUnauthorized, http.StatusForbidden:
		return nil, apperr.Unauthenticated("must sign in again")
	default:
		d.logger.Error("identity verify unexpected status",
			zap.Int("status", resp.StatusCode()),
		)
		return nil, apperr.Storef(nil, "identity directory returned %d", resp.StatusCode())
	}

	caller, err := callerFromResponse(out)
	if err != nil {
		return nil, err
	}
	return caller, nil
}

func callerFromResponse(out verifyResponse) (*Caller, error) {
	id, err := uuid.Parse(out.UserID)
	if err != nil {
		return nil, apperr.Storef(err, "identity directory returned malformed user id")
	}

	role := Role(out.Role)
	if role != RoleAdmin && role != RoleWorker {
		return nil, apperr.Storef(nil, "identity directory returned unknown role %q", out.Role)
	}

	return &Caller{UserID: id, Role: role, Active: out.Active}, nil
}
