package middleware_test

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/phrazzld/loopmind-api/internal/api/middleware"
	"github.com/phrazzld/loopmind-api/internal/api/shared"
	"github.com/phrazzld/loopmind-api/internal/platform/logger"
	"github.com/phrazzld/loopmind-api/internal/service/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// mockJWTService stubs token validation with testify/mock.
type mockJWTService struct {
	mock.Mock
}

func (m *mockJWTService) GenerateToken(ctx context.Context, userID uuid.UUID) (string, error) {
	args := m.Called(ctx, userID)
	return args.String(0), args.Error(1)
}

func (m *mockJWTService) ValidateToken(ctx context.Context, token string) (*auth.Claims, error) {
	args := m.Called(ctx, token)
	var claims *auth.Claims
	if arg := args.Get(0); arg != nil {
		claims = arg.(*auth.Claims)
	}
	return claims, args.Error(1)
}

func TestAuthMiddleware_Authenticate(t *testing.T) {
	t.Parallel()

	userID := uuid.New()

	tests := []struct {
		name           string
		authHeader     string
		token          string
		claims         *auth.Claims
		validateErr    error
		expectedStatus int
		expectedBody   string
	}{
		{
			name:           "valid token",
			authHeader:     "Bearer valid-token",
			token:          "valid-token",
			claims:         &auth.Claims{UserID: userID},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "lowercase scheme",
			authHeader:     "bearer valid-token",
			token:          "valid-token",
			claims:         &auth.Claims{UserID: userID},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "missing auth header",
			expectedStatus: http.StatusUnauthorized,
			expectedBody:   "Authorization header required",
		},
		{
			name:           "invalid auth format",
			authHeader:     "InvalidFormat",
			expectedStatus: http.StatusUnauthorized,
			expectedBody:   "Invalid authorization format",
		},
		{
			name:           "empty bearer token",
			authHeader:     "Bearer ",
			expectedStatus: http.StatusUnauthorized,
			expectedBody:   "Invalid authorization format",
		},
		{
			name:           "expired token",
			authHeader:     "Bearer expired-token",
			token:          "expired-token",
			validateErr:    auth.ErrExpiredToken,
			expectedStatus: http.StatusUnauthorized,
			expectedBody:   "Token expired",
		},
		{
			name:           "wrong token type",
			authHeader:     "Bearer refresh-token",
			token:          "refresh-token",
			validateErr:    auth.ErrWrongTokenType,
			expectedStatus: http.StatusUnauthorized,
			expectedBody:   "Invalid token",
		},
		{
			name:           "unexpected validation failure",
			authHeader:     "Bearer some-token",
			token:          "some-token",
			validateErr:    errors.New("key store unavailable"),
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   "Authentication error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			jwtService := &mockJWTService{}
			if tt.token != "" {
				jwtService.On("ValidateToken", mock.Anything, tt.token).Return(tt.claims, tt.validateErr)
			}

			var capturedUserID uuid.UUID
			var hasRequestLogger bool
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				capturedUserID, _ = middleware.GetUserID(r)
				hasRequestLogger = logger.FromContext(r.Context()) != slog.Default()
				w.WriteHeader(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodGet, "/api/topics", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}
			recorder := httptest.NewRecorder()

			middleware.NewAuthMiddleware(jwtService).Authenticate(next).ServeHTTP(recorder, req)

			assert.Equal(t, tt.expectedStatus, recorder.Code)
			if tt.expectedStatus == http.StatusOK {
				assert.Equal(t, userID, capturedUserID)
				assert.True(t, hasRequestLogger)
			} else {
				assert.Contains(t, recorder.Body.String(), tt.expectedBody)
			}
			jwtService.AssertExpectations(t)
		})
	}
}

func TestAuthMiddleware_RedactsValidationErrors(t *testing.T) {
	var logBuf strings.Builder
	old := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&logBuf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	t.Cleanup(func() { slog.SetDefault(old) })

	jwtService := &mockJWTService{}
	jwtService.On("ValidateToken", mock.Anything, "tok").
		Return(nil, errors.New("lookup failed: postgres://admin:hunter2@db:5432/keys"))

	req := httptest.NewRequest(http.MethodGet, "/api/topics", nil)
	req.Header.Set("Authorization", "Bearer tok")
	recorder := httptest.NewRecorder()

	middleware.NewAuthMiddleware(jwtService).
		Authenticate(http.NotFoundHandler()).
		ServeHTTP(recorder, req)

	assert.Equal(t, http.StatusInternalServerError, recorder.Code)
	logs := logBuf.String()
	assert.Contains(t, logs, "failed to validate token")
	assert.NotContains(t, logs, "hunter2")
	assert.NotContains(t, recorder.Body.String(), "postgres")
}

func TestGetUserID(t *testing.T) {
	t.Parallel()

	userID := uuid.New()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	_, ok := middleware.GetUserID(req)
	assert.False(t, ok)

	req = req.WithContext(shared.WithUserID(req.Context(), userID))
	got, ok := middleware.GetUserID(req)
	require.True(t, ok)
	assert.Equal(t, userID, got)
}
