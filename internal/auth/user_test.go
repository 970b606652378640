package auth

import (
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signed(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return tok
}

func TestFromToken_Empty(t *testing.T) {
	u, err := FromToken("")
	require.NoError(t, err)
	assert.False(t, u.Authenticated())
}

func TestFromToken_Subject(t *testing.T) {
	u, err := FromToken(signed(t, jwt.MapClaims{"sub": "42", "role": "admin"}))
	require.NoError(t, err)
	assert.Equal(t, User{ID: "42", Role: "admin"}, u)
	assert.True(t, u.Authenticated())
}

func TestFromToken_NumericUserID(t *testing.T) {
	u, err := FromToken(signed(t, jwt.MapClaims{"user_id": float64(7)}))
	require.NoError(t, err)
	assert.Equal(t, "7", u.ID)
	assert.Equal(t, RoleStudent, u.Role)
}

func TestFromToken_NoSubject(t *testing.T) {
	_, err := FromToken(signed(t, jwt.MapClaims{"role": "student"}))
	assert.ErrorIs(t, err, ErrNoSubject)
}

func TestFromToken_Garbage(t *testing.T) {
	_, err := FromToken("not-a-jwt")
	assert.Error(t, err)
}
