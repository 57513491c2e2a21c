package jwt

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testSecret = "test-admin-secret-key-for-testing-purposes"
	testIssuer = "napcube-admin"
)

func TestNewService(t *testing.T) {
	service := NewService(testSecret, testIssuer, time.Hour)

	assert.NotNil(t, service)
	assert.Equal(t, testSecret, service.secret)
	assert.Equal(t, testIssuer, service.issuer)
	assert.Equal(t, time.Hour, service.tokenExpiry)
}

func TestGenerateToken(t *testing.T) {
	service := NewService(testSecret, testIssuer, time.Hour)

	token, err := service.GenerateToken("ops@napcube", []string{RoleAdmin})
	require.NoError(t, err)
	assert.NotEmpty(t, token)

	claims, err := service.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "ops@napcube", claims.Operator)
	assert.Equal(t, testIssuer, claims.Issuer)
	assert.True(t, claims.HasRole(RoleAdmin))
	assert.False(t, claims.HasRole("support"))
}

func TestGenerateToken_NoSecret(t *testing.T) {
	service := NewService("", testIssuer, time.Hour)

	_, err := service.GenerateToken("ops", []string{RoleAdmin})
	assert.Error(t, err)
}

func TestValidateToken(t *testing.T) {
	service := NewService(testSecret, testIssuer, time.Hour)

	t.Run("Wrong Secret", func(t *testing.T) {
		other := NewService("some-other-secret", testIssuer, time.Hour)
		token, err := other.GenerateToken("ops", []string{RoleAdmin})
		require.NoError(t, err)

		_, err = service.ValidateToken(token)
		assert.Error(t, err)
	})

	t.Run("Wrong Issuer", func(t *testing.T) {
		other := NewService(testSecret, "someone-else", time.Hour)
		token, err := other.GenerateToken("ops", []string{RoleAdmin})
		require.NoError(t, err)

		_, err = service.ValidateToken(token)
		assert.Error(t, err)
	})

	t.Run("Expired", func(t *testing.T) {
		expired := NewService(testSecret, testIssuer, -time.Minute)
		token, err := expired.GenerateToken("ops", []string{RoleAdmin})
		require.NoError(t, err)

		_, err = service.ValidateToken(token)
		assert.Error(t, err)
		assert.True(t, IsExpired(err))
	})

	t.Run("Unsigned Token", func(t *testing.T) {
		claims := Claims{Operator: "ops", Roles: []string{RoleAdmin}, RegisteredClaims: jwt.RegisteredClaims{Issuer: testIssuer}}
		token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)

		_, err = service.ValidateToken(token)
		assert.Error(t, err)
	})

	t.Run("Garbage", func(t *testing.T) {
		_, err := service.ValidateToken("not.a.token")
		assert.Error(t, err)
		assert.False(t, IsExpired(err))
	})
}
