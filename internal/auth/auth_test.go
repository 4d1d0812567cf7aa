package auth

import (
	"strings"
	"testing"
	"time"

	"impacto-backend/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testJWTService(ttl time.Duration) *JWTService {
	return NewJWTService(&JWTConfig{
		SecretKey:      []byte("test-secret"),
		AccessTokenTTL: ttl,
		Issuer:         "impacto-backend",
	})
}

func TestJWTService_RoundTrip(t *testing.T) {
	svc := testJWTService(time.Hour)

	token, err := svc.GenerateAccessToken("user-1", domain.PlanAgency)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, domain.PlanAgency, claims.Plan)
}

func TestJWTService_ExpiredToken(t *testing.T) {
	svc := testJWTService(-time.Minute)

	token, err := svc.GenerateAccessToken("user-1", domain.PlanSolo)
	require.NoError(t, err)

	_, err = svc.ValidateToken(token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestJWTService_WrongKey(t *testing.T) {
	token, err := testJWTService(time.Hour).GenerateAccessToken("user-1", domain.PlanSolo)
	require.NoError(t, err)

	other := NewJWTService(&JWTConfig{
		SecretKey:      []byte("different-secret"),
		AccessTokenTTL: time.Hour,
		Issuer:         "impacto-backend",
	})
	_, err = other.ValidateToken(token)
	assert.Error(t, err)
}

func TestExtractTokenFromBearer(t *testing.T) {
	assert.Equal(t, "abc", ExtractTokenFromBearer("Bearer abc"))
	assert.Empty(t, ExtractTokenFromBearer("abc"))
	assert.Empty(t, ExtractTokenFromBearer(""))
	assert.Empty(t, ExtractTokenFromBearer("Basic abc"))
}

func TestPasswordService(t *testing.T) {
	// A low cost keeps the test fast; the production default is higher.
	svc := NewPasswordServiceWithCost(4)

	t.Run("hash_and_verify", func(t *testing.T) {
		hash, err := svc.HashPassword("s3nh4-segura")
		require.NoError(t, err)
		assert.NotEqual(t, "s3nh4-segura", hash)

		assert.NoError(t, svc.VerifyPassword(hash, "s3nh4-segura"))
		assert.Error(t, svc.VerifyPassword(hash, "wrong"))
	})

	t.Run("empty_password_is_rejected", func(t *testing.T) {
		_, err := svc.HashPassword("")
		assert.ErrorIs(t, err, ErrInvalidPassword)
	})

	t.Run("policy", func(t *testing.T) {
		assert.NoError(t, IsValidPassword("123456"))
		assert.Error(t, IsValidPassword("12345"))
		assert.Error(t, IsValidPassword(""))
		assert.Error(t, IsValidPassword(strings.Repeat("x", 129)))
	})
}
