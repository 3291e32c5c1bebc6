package authtoken

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndValidate(t *testing.T) {
	svc := NewService("top-secret", time.Hour)

	token, err := svc.Issue("ops@example.com")
	require.NoError(t, err)

	claims, err := svc.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, "ops@example.com", claims.Subject)
	assert.Equal(t, ScopeDashboard, claims.Scope)
}

func TestValidate_Rejects(t *testing.T) {
	svc := NewService("top-secret", time.Hour)
	token, err := svc.Issue("ops")
	require.NoError(t, err)

	_, err = NewService("other-secret", time.Hour).Validate(token)
	assert.Error(t, err)

	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Scope: ScopeDashboard,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   "ops",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
	})
	signed, err := expired.SignedString([]byte("top-secret"))
	require.NoError(t, err)
	_, err = svc.Validate(signed)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)

	noScope := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{Issuer: issuer, Subject: "ops"},
	})
	signed, err = noScope.SignedString([]byte("top-secret"))
	require.NoError(t, err)
	_, err = svc.Validate(signed)
	assert.ErrorContains(t, err, "scope")

	_, err = svc.Validate("not.a.token")
	assert.Error(t, err)
}

func TestIssue_Requires(t *testing.T) {
	_, err := NewService("s", 0).Issue(" ")
	assert.Error(t, err)
	_, err = NewService("", 0).Issue("ops")
	assert.Error(t, err)
}
