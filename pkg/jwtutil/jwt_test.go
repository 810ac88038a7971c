package jwtutil

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndValidate(t *testing.T) {
	util := NewJWTUtil(&JWTConfig{SigningKey: "test-key", ExpirationHours: 1})

	token, err := util.GenerateTokenWithTenant("ops@example.com", 3, 42, "Vidraçaria Central")
	require.NoError(t, err)

	claims, err := util.ValidateToken(token)
	require.NoError(t, err)
	tenantID, ok := claims.Tenant()
	assert.True(t, ok)
	assert.Equal(t, uint(42), tenantID)
	assert.Equal(t, "ops@example.com", claims.Email)
}

func TestValidateToken_WrongKey(t *testing.T) {
	issuer := NewJWTUtil(&JWTConfig{SigningKey: "one", ExpirationHours: 1})
	verifier := NewJWTUtil(&JWTConfig{SigningKey: "two", ExpirationHours: 1})

	token, err := issuer.GenerateTokenWithTenant("a@b.c", 1, 1, "")
	require.NoError(t, err)

	_, err = verifier.ValidateToken(token)
	assert.Error(t, err)
}

func TestValidateToken_Expired(t *testing.T) {
	util := NewJWTUtil(&JWTConfig{SigningKey: "k", ExpirationHours: -1})
	token, err := util.GenerateTokenWithTenant("a@b.c", 1, 1, "")
	require.NoError(t, err)

	_, err = util.ValidateToken(token)
	assert.Error(t, err)
}

func TestValidateToken_LegacyCompanyClaim(t *testing.T) {
	companyID := uint(7)
	claims := UserClaims{
		CompanyID: &companyID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("k"))
	require.NoError(t, err)

	parsed, err := NewJWTUtil(&JWTConfig{SigningKey: "k"}).ValidateToken(signed)
	require.NoError(t, err)
	tenantID, ok := parsed.Tenant()
	assert.True(t, ok)
	assert.Equal(t, uint(7), tenantID)
}

func TestTenant_Missing(t *testing.T) {
	_, ok := (&UserClaims{}).Tenant()
	assert.False(t, ok)
}
