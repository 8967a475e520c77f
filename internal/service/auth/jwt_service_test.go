package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/phrazzld/loopmind-api/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "a-very-long-test-secret-of-32-bytes!"

func testAuthConfig() config.AuthConfig {
	return config.AuthConfig{JWTSecret: testSecret, TokenLifetimeMinutes: 60}
}

func TestNewJWTService(t *testing.T) {
	t.Parallel()

	_, err := NewJWTService(config.AuthConfig{JWTSecret: "short", TokenLifetimeMinutes: 60})
	assert.ErrorContains(t, err, "at least 32 characters")

	_, err = NewJWTService(config.AuthConfig{JWTSecret: testSecret})
	assert.ErrorContains(t, err, "lifetime")

	svc, err := NewJWTService(testAuthConfig())
	require.NoError(t, err)
	assert.NotNil(t, svc)
}

func TestGenerateAndValidateToken(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc, err := NewJWTService(testAuthConfig())
	require.NoError(t, err)

	userID := uuid.New()
	token, err := svc.GenerateToken(ctx, userID)
	require.NoError(t, err)

	claims, err := svc.ValidateToken(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, userID.String(), claims.Subject)
	assert.Equal(t, accessTokenType, claims.TokenType)
	assert.NotEmpty(t, claims.ID)
	assert.WithinDuration(t, claims.IssuedAt.Add(time.Hour), claims.ExpiresAt, time.Second)
}

func TestValidateTokenErrors(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	start := time.Now()
	clock := start
	svc, err := newHMACJWTService(testAuthConfig(), func() time.Time { return clock })
	require.NoError(t, err)

	userID := uuid.New()
	token, err := svc.GenerateToken(ctx, userID)
	require.NoError(t, err)

	other, err := newHMACJWTService(
		config.AuthConfig{JWTSecret: "another-secret-that-is-long-enough!!", TokenLifetimeMinutes: 60},
		time.Now)
	require.NoError(t, err)

	wrongType, err := svc.sign(ctx, userID, "refresh", start.Add(time.Hour))
	require.NoError(t, err)

	noneToken, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"uid": userID.String()}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := []struct {
		name    string
		token   string
		svc     *hmacJWTService
		advance time.Duration
		want    error
	}{
		{"missing", "", svc, 0, ErrMissingToken},
		{"malformed", "not.a.jwt", svc, 0, ErrInvalidToken},
		{"wrong signature", token, other, 0, ErrInvalidToken},
		{"none algorithm", noneToken, svc, 0, ErrInvalidToken},
		{"wrong type", wrongType, svc, 0, ErrWrongTokenType},
		{"expired", token, svc, 2 * time.Hour, ErrExpiredToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clock = start.Add(tt.advance)
			_, err := tt.svc.ValidateToken(ctx, tt.token)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestValidateTokenAllowsClockSkew(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	start := time.Now()
	clock := start
	svc, err := newHMACJWTService(testAuthConfig(), func() time.Time { return clock })
	require.NoError(t, err)

	token, err := svc.GenerateToken(ctx, uuid.New())
	require.NoError(t, err)

	clock = start.Add(time.Hour + time.Minute)
	_, err = svc.ValidateToken(ctx, token)
	assert.NoError(t, err)
}
