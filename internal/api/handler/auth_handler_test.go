package handler

import (
	"bytes"
	"net/http"
	"testing"

	"github.com/sokrates1989/dbsnap/internal/api/dto"
)

func TestLogin(t *testing.T) {
	env := setupTestEnv(t)
	env.seedUser(t, "admin", "correct horse battery")

	tests := []struct {
		name           string
		body           string
		expectedStatus int
	}{
		{
			name:           "valid credentials",
			body:           `{"username": "admin", "password": "correct horse battery"}`,
			expectedStatus: http.StatusOK,
		},
		{
			name:           "wrong password",
			body:           `{"username": "admin", "password": "wrong"}`,
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "unknown user",
			body:           `{"username": "ghost", "password": "whatever"}`,
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "missing fields",
			body:           `{"username": "admin"}`,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "malformed json",
			body:           `{`,
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(t, http.MethodPost, "/auth/login", bytes.NewBufferString(tt.body))
			if w.Code != tt.expectedStatus {
				t.Fatalf("status = %d, want %d: %s", w.Code, tt.expectedStatus, w.Body.String())
			}

			if tt.expectedStatus == http.StatusOK {
				var resp dto.TokenResponse
				decode(t, w, &resp)
				if resp.AccessToken == "" {
					t.Error("empty access token")
				}
				if resp.TokenType != "Bearer" {
					t.Errorf("token type = %q", resp.TokenType)
				}
				if resp.ExpiresIn != 3600 {
					t.Errorf("expires_in = %d", resp.ExpiresIn)
				}
			}
		})
	}
}
