package httperr

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pribylovaa/go-user-api/internal/service"
)

func TestToHTTP_Mapping(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		err    error
		status int
		code   int
	}{
		{"not_found", service.ErrNotFound, http.StatusNotFound, CodeNotFound},
		{"bad_password", service.ErrInvalidCredentials, http.StatusUnauthorized, CodeBadPassword},
		{"bad_refresh", service.ErrInvalidToken, http.StatusUnauthorized, CodeBadRefresh},
		{"expired_refresh", service.ErrTokenExpired, http.StatusUnauthorized, CodeExpiredRefresh},
		{"banned", service.ErrBanned, http.StatusForbidden, CodeBanned},
		{"inactive", service.ErrInactive, http.StatusForbidden, CodeInactive},
		{"forbidden", service.ErrForbidden, http.StatusForbidden, CodeForbidden},
		{"conflict", service.ErrAlreadyExists, http.StatusConflict, CodeConflict},
		{"invalid_argument", service.ErrInvalidArgument, http.StatusBadRequest, CodeInvalidArgument},
		{"unauthorized", ErrUnauthorized, http.StatusUnauthorized, CodeUnauthorized},
		{"unknown", errors.New("db down"), http.StatusInternalServerError, CodeInternal},
		{"nil", nil, http.StatusInternalServerError, CodeInternal},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			status, resp := ToHTTP(tc.err)
			require.Equal(t, tc.status, status)
			require.Equal(t, tc.code, resp.Error.Code)
			require.NotEmpty(t, resp.Error.Message)
		})
	}
}

// Обёрнутые ошибки должны распознаваться через errors.Is.
func TestToHTTP_WrappedSentinel(t *testing.T) {
	t.Parallel()

	wrapped := fmt.Errorf("service.auth.Login: %w", service.ErrBanned)

	status, resp := ToHTTP(wrapped)
	require.Equal(t, http.StatusForbidden, status)
	require.Equal(t, CodeBanned, resp.Error.Code)
}

func TestWriteError_RequestIDAndDetail(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("X-Request-Id", "rid-123")
	rec := httptest.NewRecorder()

	WriteErrorDetail(rec, req, ErrUnauthorized, "signature header is missing")

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, CodeUnauthorized, resp.Error.Code)
	require.Equal(t, "rid-123", resp.Error.RequestID)
	require.Equal(t, "signature header is missing", resp.Error.Detail)
}

func TestWriteError_NoDetailByDefault(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	rec := httptest.NewRecorder()

	WriteError(rec, req, service.ErrNotFound)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Empty(t, resp.Error.Detail)
	require.Empty(t, resp.Error.RequestID)
}
