package login

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/car-dano/inspection-backend/internal/services/auth"
)

type ServiceMock struct {
	mock.Mock
}

func (m *ServiceMock) Login(ctx context.Context, username, password string) (string, string, error) {
	args := m.Called(ctx, username, password)
	return args.String(0), args.String(1), args.Error(2)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func TestLoginHandler_ServeHTTP(t *testing.T) {
	tests := []struct {
		name           string
		requestBody    any
		mockToken      string
		mockRole       string
		mockErr        error
		wantStatusCode int
		wantStatus     string
	}{
		{
			name:           "valid login",
			requestBody:    Request{Username: "ivan", Password: "secret123"},
			mockToken:      "token-1",
			mockRole:       "INSPECTOR",
			wantStatusCode: http.StatusOK,
			wantStatus:     "OK",
		},
		{
			name:           "invalid json body",
			requestBody:    "not a json",
			wantStatusCode: http.StatusBadRequest,
			wantStatus:     "Error",
		},
		{
			name:           "validation error",
			requestBody:    Request{Username: "iv"},
			wantStatusCode: http.StatusUnprocessableEntity,
			wantStatus:     "Error",
		},
		{
			name:           "wrong credentials",
			requestBody:    Request{Username: "ivan", Password: "wrongpass"},
			mockErr:        auth.ErrInvalidCredentials,
			wantStatusCode: http.StatusUnauthorized,
			wantStatus:     "Error",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			svc := new(ServiceMock)
			if req, ok := tc.requestBody.(Request); ok && req.Password != "" {
				svc.On("Login", mock.Anything, req.Username, req.Password).
					Return(tc.mockToken, tc.mockRole, tc.mockErr)
			}
			handler := New(newNoopLogger(), svc)

			body, err := json.Marshal(tc.requestBody)
			require.NoError(t, err)
			req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewReader(body))
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			assert.Equal(t, tc.wantStatusCode, rec.Code)

			var resp map[string]any
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, tc.wantStatus, resp["status"])
			if tc.wantStatusCode == http.StatusOK {
				data := resp["data"].(map[string]any)
				assert.Equal(t, "token-1", data["token"])
				assert.Equal(t, "INSPECTOR", data["role"])
			}
		})
	}
}
