package httpapi

import (
	"testing"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestIssueAndParseToken(t *testing.T) {
	auth, err := NewAuthManager(testSecret, time.Hour)
	require.NoError(t, err)

	token, expiresAt, err := auth.Issue("buyer-1", RolePurchasing)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, time.Minute)

	actor, err := auth.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, "buyer-1", actor.ID)
	assert.Equal(t, RolePurchasing, actor.Role)
}

func TestNewAuthManagerRejectsShortSecret(t *testing.T) {
	_, err := NewAuthManager("too-short", time.Hour)
	assert.Error(t, err)
}

func TestIssueRejectsUnknownRole(t *testing.T) {
	auth, err := NewAuthManager(testSecret, time.Hour)
	require.NoError(t, err)

	_, _, err = auth.Issue("someone", "superuser")
	assert.Error(t, err)
	_, _, err = auth.Issue("  ", RoleAdmin)
	assert.Error(t, err)
}

func TestParseTokenRejectsForeignAndExpiredTokens(t *testing.T) {
	auth, err := NewAuthManager(testSecret, time.Hour)
	require.NoError(t, err)
	other, err := NewAuthManager("fedcba9876543210fedcba9876543210", time.Hour)
	require.NoError(t, err)

	foreign, _, err := other.Issue("admin-1", RoleAdmin)
	require.NoError(t, err)
	_, err = auth.ParseToken(foreign)
	assert.Error(t, err)

	expired := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, stockposClaims{
		RegisteredClaims: jwtlib.RegisteredClaims{
			Subject:   "admin-1",
			Issuer:    tokenIssuer,
			ExpiresAt: jwtlib.NewNumericDate(time.Now().Add(-time.Minute)),
		},
		Role: RoleAdmin,
	})
	signed, err := expired.SignedString([]byte(testSecret))
	require.NoError(t, err)
	_, err = auth.ParseToken(signed)
	assert.Error(t, err)
}

func TestParseTokenRejectsUnsignedAndRoleless(t *testing.T) {
	auth, err := NewAuthManager(testSecret, time.Hour)
	require.NoError(t, err)

	unsigned := jwtlib.NewWithClaims(jwtlib.SigningMethodNone, stockposClaims{
		RegisteredClaims: jwtlib.RegisteredClaims{
			Subject:   "admin-1",
			Issuer:    tokenIssuer,
			ExpiresAt: jwtlib.NewNumericDate(time.Now().Add(time.Hour)),
		},
		Role: RoleAdmin,
	})
	none, err := unsigned.SignedString(jwtlib.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = auth.ParseToken(none)
	assert.Error(t, err)

	roleless := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, stockposClaims{
		RegisteredClaims: jwtlib.RegisteredClaims{
			Subject:   "admin-1",
			Issuer:    tokenIssuer,
			ExpiresAt: jwtlib.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	signed, err := roleless.SignedString([]byte(testSecret))
	require.NoError(t, err)
	_, err = auth.ParseToken(signed)
	assert.Error(t, err)
}
