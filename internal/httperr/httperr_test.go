package httperr

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"auth-service/internal/service"

	"github.com/stretchr/testify/require"
)

// TestToHTTP_MappingTable — таблица доменная ошибка → статус/код.
func TestToHTTP_MappingTable(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"nil is a bug, not a success", nil, http.StatusInternalServerError, "internal"},
		{"invalid credentials", service.ErrInvalidCredentials, http.StatusUnauthorized, "invalid_credentials"},
		{"username taken", service.ErrUsernameTaken, http.StatusConflict, "username_taken"},
		{"pair mismatch", service.ErrTokenPairMismatch, http.StatusBadRequest, "token_pair_mismatch"},
		{"refresh expired", service.ErrRefreshTokenExpired, http.StatusUnauthorized, "refresh_token_expired"},
		{"refresh not found", service.ErrRefreshTokenNotFound, http.StatusUnauthorized, "unauthenticated"},
		{"user not found", service.ErrUserNotFound, http.StatusUnauthorized, "unauthenticated"},
		{"invalid token", service.ErrInvalidToken, http.StatusUnauthorized, "unauthenticated"},
		{"token expired", service.ErrTokenExpired, http.StatusUnauthorized, "unauthenticated"},
		{"canceled", context.Canceled, StatusClientClosedRequest, "canceled"},
		{"deadline", context.DeadlineExceeded, http.StatusGatewayTimeout, "deadline_exceeded"},
		{"unknown is internal", errors.New("pq: connection reset"), http.StatusInternalServerError, "internal"},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			status, resp := ToHTTP(tc.err)
			require.Equal(t, tc.wantStatus, status)
			require.Equal(t, tc.wantCode, resp.Error.Code)
			require.NotEmpty(t, resp.Error.Message)
		})
	}
}

// Обёрнутые ошибки сервисного слоя распознаются через errors.Is.
func TestToHTTP_WrappedErrors(t *testing.T) {
	t.Parallel()

	wrapped := fmt.Errorf("service.auth.LoginUser: %w", service.ErrInvalidCredentials)
	status, resp := ToHTTP(wrapped)

	require.Equal(t, http.StatusUnauthorized, status)
	require.Equal(t, "invalid_credentials", resp.Error.Code)
}

// Детали инфраструктурной ошибки не утекают в message.
func TestToHTTP_NoLeakOfInternalDetails(t *testing.T) {
	t.Parallel()

	_, resp := ToHTTP(errors.New("dial tcp 10.0.0.5:5432: connect: connection refused"))
	require.Equal(t, "internal error", resp.Error.Message)
	require.NotContains(t, resp.Error.Message, "10.0.0.5")
}

func TestWriteError_BodyAndRequestID(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("X-Request-Id", "rid-123")
	rr := httptest.NewRecorder()

	WriteError(rr, req, service.ErrUsernameTaken)

	require.Equal(t, http.StatusConflict, rr.Code)
	require.Equal(t, "application/json", rr.Header().Get("Content-Type"))

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.Equal(t, "username_taken", resp.Error.Code)
	require.Equal(t, "rid-123", resp.Error.RequestID)
}

func TestWriteError_WithoutRequestID(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	rr := httptest.NewRecorder()

	WriteError(rr, req, service.ErrInvalidToken)

	require.Equal(t, http.StatusUnauthorized, rr.Code)
	// request_id опускается из тела целиком (omitempty).
	require.NotContains(t, rr.Body.String(), "request_id")
}

func TestWriteValidationError_FieldsInBody(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodPost, "/x", nil)
	rr := httptest.NewRecorder()

	WriteValidationError(rr, req, map[string]string{
		"username": "username is mandatory",
		"password": "password must have from 8 to 32 characters",
	})

	require.Equal(t, http.StatusBadRequest, rr.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.Equal(t, "invalid_argument", resp.Error.Code)
	require.Equal(t, "validation failed", resp.Error.Message)
	require.Equal(t, "username is mandatory", resp.Error.Fields["username"])
	require.Equal(t, "password must have from 8 to 32 characters", resp.Error.Fields["password"])
}
