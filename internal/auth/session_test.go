package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndVerify(t *testing.T) {
	issuer := NewIssuer("test-secret")

	token, issued, err := issuer.Issue(7, "ada@example.com")
	require.NoError(t, err)
	assert.Equal(t, TokenTTL, issued.ExpiresAt.Sub(issued.IssuedAt))

	claims, err := issuer.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, 7, claims.UserID)
	assert.Equal(t, "ada@example.com", claims.Email)
	assert.True(t, claims.ExpiresAt.Equal(issued.ExpiresAt))
}

func TestVerifyRejectsBadTokens(t *testing.T) {
	issuer := NewIssuer("test-secret")
	valid, _, err := issuer.Issue(1, "a@example.com")
	require.NoError(t, err)

	expiredIssuer := NewIssuer("test-secret")
	expiredIssuer.now = func() time.Time { return time.Now().Add(-8 * 24 * time.Hour) }
	expired, _, err := expiredIssuer.Issue(1, "a@example.com")
	require.NoError(t, err)

	otherSecret, _, err := NewIssuer("other-secret").Issue(1, "a@example.com")
	require.NoError(t, err)

	noneAlg, err := jwt.NewWithClaims(jwt.SigningMethodNone, sessionClaims{
		UserID: 1,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	noUser, err := jwt.NewWithClaims(jwt.SigningMethodHS256, sessionClaims{
		Email: "a@example.com",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	noExpiry, err := jwt.NewWithClaims(jwt.SigningMethodHS256, sessionClaims{UserID: 1}).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{name: "empty", token: ""},
		{name: "garbage", token: "not.a.jwt"},
		{name: "tampered", token: valid + "x"},
		{name: "expired", token: expired},
		{name: "wrong secret", token: otherSecret},
		{name: "none algorithm", token: noneAlg},
		{name: "missing user id", token: noUser},
		{name: "missing expiry", token: noExpiry},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := issuer.Verify(tt.token)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}
