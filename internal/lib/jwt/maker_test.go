package jwt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndParseToken(t *testing.T) {
	maker := NewJWTMaker("test-secret", time.Hour)

	token, err := maker.GenerateToken("inspector1", "INSPECTOR", "uid-123")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := maker.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, "inspector1", claims.Username)
	assert.Equal(t, "INSPECTOR", claims.Role)
	assert.Equal(t, "uid-123", claims.UserUID)
}

func TestParseToken_Expired(t *testing.T) {
	maker := NewJWTMaker("test-secret", -time.Minute)

	token, err := maker.GenerateToken("admin1", "ADMIN", "uid-1")
	require.NoError(t, err)

	_, err = maker.ParseToken(token)
	assert.Error(t, err)
}

func TestParseToken_WrongSecret(t *testing.T) {
	maker := NewJWTMaker("secret-a", time.Hour)
	other := NewJWTMaker("secret-b", time.Hour)

	token, err := maker.GenerateToken("admin1", "ADMIN", "uid-1")
	require.NoError(t, err)

	_, err = other.ParseToken(token)
	assert.Error(t, err)
}

func TestParseToken_Garbage(t *testing.T) {
	maker := NewJWTMaker("secret", time.Hour)
	_, err := maker.ParseToken("not.a.token")
	assert.Error(t, err)
}
