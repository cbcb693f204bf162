package services

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-for-jwt-signing-32-chars"

// createTestTokenService creates a token service for testing with symmetric key
func createTestTokenService(t *testing.T) TokenService {
	t.Helper()
	svc, err := NewTokenService(15*time.Minute, 7*24*time.Hour, "test-issuer", "test-audience", false, "", "", testSecret, nil, "")
	require.NoError(t, err)
	return svc
}

func TestNewTokenService(t *testing.T) {
	tests := []struct {
		name        string
		useRSAKeys  bool
		privatePEM  string
		publicPEM   string
		secretKey   string
		expectError bool
	}{
		{name: "valid symmetric key configuration", secretKey: testSecret},
		{name: "missing secret key", expectError: true},
		{name: "rsa without keys", useRSAKeys: true, expectError: true},
		{name: "rsa with garbage keys", useRSAKeys: true, privatePEM: "nope", publicPEM: "nope", expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, err := NewTokenService(time.Minute, time.Hour, "iss", "aud", tt.useRSAKeys, tt.privatePEM, tt.publicPEM, tt.secretKey, nil, "")
			if tt.expectError {
				assert.Error(t, err)
				assert.Nil(t, svc)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, svc)
		})
	}
}

func TestGenerateAndValidateTokens(t *testing.T) {
	svc := createTestTokenService(t)
	ctx := context.Background()

	access, refresh, err := svc.GenerateTokens(42)
	require.NoError(t, err)
	assert.NotEqual(t, access, refresh)

	claims, err := svc.ValidateToken(ctx, access)
	require.NoError(t, err)
	assert.Equal(t, uint(42), claims.UserID)
	assert.Equal(t, TokenTypeAccess, claims.TokenType)
	assert.NotEmpty(t, claims.TokenID)
	assert.True(t, claims.ExpiresAt.After(claims.IssuedAt))

	refreshClaims, err := svc.ValidateToken(ctx, refresh)
	require.NoError(t, err)
	assert.Equal(t, TokenTypeRefresh, refreshClaims.TokenType)
	assert.NotEqual(t, claims.TokenID, refreshClaims.TokenID)
}

func TestValidateTokenRejectsBadInput(t *testing.T) {
	svc := createTestTokenService(t)
	ctx := context.Background()

	other, err := NewTokenService(time.Minute, time.Hour, "iss", "aud", false, "", "", "another-secret-key-that-is-long-enough", nil, "")
	require.NoError(t, err)
	foreign, _, err := other.GenerateTokens(1)
	require.NoError(t, err)

	noUser := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"token_type": TokenTypeAccess,
		"jti":        "x",
		"iat":        time.Now().Unix(),
		"exp":        time.Now().Add(time.Minute).Unix(),
	})
	noUserToken, err := noUser.SignedString([]byte(testSecret))
	require.NoError(t, err)

	for name, token := range map[string]string{
		"empty":        "",
		"garbage":      "not.a.jwt",
		"wrong secret": foreign,
		"missing user": noUserToken,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := svc.ValidateToken(ctx, token)
			assert.ErrorIs(t, err, ErrTokenInvalid)
		})
	}
}

func TestValidateTokenChecksIssuerAndAudience(t *testing.T) {
	svc := createTestTokenService(t)
	ctx := context.Background()

	tests := []struct {
		name     string
		issuer   string
		audience string
	}{
		{name: "other issuer", issuer: "someone-else", audience: "test-audience"},
		{name: "other audience", issuer: "test-issuer", audience: "another-app"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			other, err := NewTokenService(time.Minute, time.Hour, tt.issuer, tt.audience, false, "", "", testSecret, nil, "")
			require.NoError(t, err)
			access, _, err := other.GenerateTokens(1)
			require.NoError(t, err)

			_, err = svc.ValidateToken(ctx, access)
			assert.ErrorIs(t, err, ErrTokenInvalid)
		})
	}

	access, _, err := svc.GenerateTokens(1)
	require.NoError(t, err)
	claims, err := svc.ValidateToken(ctx, access)
	require.NoError(t, err)
	assert.Equal(t, uint(1), claims.UserID)
}

func TestValidateTokenExpired(t *testing.T) {
	svc, err := NewTokenService(-time.Minute, time.Hour, "iss", "aud", false, "", "", testSecret, nil, "")
	require.NoError(t, err)

	access, _, err := svc.GenerateTokens(7)
	require.NoError(t, err)

	_, err = svc.ValidateToken(context.Background(), access)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestRefreshToken(t *testing.T) {
	svc := createTestTokenService(t)
	ctx := context.Background()

	access, refresh, err := svc.GenerateTokens(9)
	require.NoError(t, err)

	newAccess, newRefresh, err := svc.RefreshToken(ctx, refresh)
	require.NoError(t, err)
	claims, err := svc.ValidateToken(ctx, newAccess)
	require.NoError(t, err)
	assert.Equal(t, uint(9), claims.UserID)
	assert.NotEmpty(t, newRefresh)

	_, _, err = svc.RefreshToken(ctx, access)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestRevokeWithoutRedis(t *testing.T) {
	svc := createTestTokenService(t)
	ctx := context.Background()

	access, _, err := svc.GenerateTokens(3)
	require.NoError(t, err)

	require.NoError(t, svc.RevokeToken(ctx, access))
	assert.False(t, svc.IsTokenRevoked(ctx, "anything"))
	assert.Error(t, svc.RevokeToken(ctx, "garbage"))
}

func TestRSATokens(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	privPEM := pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(key)})
	pubDER, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	require.NoError(t, err)
	pubPEM := pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pubDER})

	svc, err := NewTokenService(time.Minute, time.Hour, "iss", "aud", true, string(privPEM), string(pubPEM), "", nil, "")
	require.NoError(t, err)

	access, _, err := svc.GenerateTokens(11)
	require.NoError(t, err)
	claims, err := svc.ValidateToken(context.Background(), access)
	require.NoError(t, err)
	assert.Equal(t, uint(11), claims.UserID)

	hmac := createTestTokenService(t)
	hmacToken, _, err := hmac.GenerateTokens(11)
	require.NoError(t, err)
	_, err = svc.ValidateToken(context.Background(), hmacToken)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestConcurrentTokenGeneration(t *testing.T) {
	svc := createTestTokenService(t)

	var wg sync.WaitGroup
	var mu sync.Mutex
	seen := make(map[string]bool)
	for i := 1; i <= 20; i++ {
		wg.Add(1)
		go func(id uint) {
			defer wg.Done()
			access, _, err := svc.GenerateTokens(id)
			assert.NoError(t, err)
			mu.Lock()
			seen[access] = true
			mu.Unlock()
		}(uint(i))
	}
	wg.Wait()
	assert.Len(t, seen, 20)
}
