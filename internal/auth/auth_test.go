package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueCarriesSubjectAndExpiry(t *testing.T) {
	iss, err := NewIssuer("secret", "familyalbum", "familyalbum-web", time.Hour)
	require.NoError(t, err)

	fixed := time.Now().Truncate(time.Second)
	iss.now = func() time.Time { return fixed }

	signed, err := iss.Issue("user-1")
	require.NoError(t, err)

	claims := &jwt.RegisteredClaims{}
	_, err = jwt.ParseWithClaims(signed, claims, func(*jwt.Token) (interface{}, error) {
		return []byte("secret"), nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	require.NoError(t, err)

	assert.Equal(t, "user-1", claims.Subject)
	assert.Equal(t, "familyalbum", claims.Issuer)
	assert.Equal(t, jwt.ClaimStrings{"familyalbum-web"}, claims.Audience)
	assert.True(t, claims.ExpiresAt.Time.Equal(fixed.Add(time.Hour)))
}

func TestNewIssuerRejectsBadConfig(t *testing.T) {
	_, err := NewIssuer("", "i", "a", time.Hour)
	assert.Error(t, err)

	_, err = NewIssuer("s", "i", "a", 0)
	assert.Error(t, err)
}

func TestPasswordRoundTrip(t *testing.T) {
	hash, err := HashPassword("hunter2")
	require.NoError(t, err)
	assert.NotEqual(t, "hunter2", hash)

	ok, err := CheckPassword(hash, "hunter2")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = CheckPassword(hash, "wrong")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = CheckPassword("not-a-hash", "x")
	assert.Error(t, err)
}
