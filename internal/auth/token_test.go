package auth_test

import (
	"testing"
	"time"

	"complaintdesk/backend/internal/auth"
	"complaintdesk/backend/internal/models"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenIssuer_RoundTrip(t *testing.T) {
	issuer := auth.NewTokenIssuer("secret")

	tok, err := issuer.Issue("user-1", models.RoleAdmin, time.Hour)
	require.NoError(t, err)

	claims, err := issuer.Verify(tok)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, models.RoleAdmin, claims.Role)
	assert.Equal(t, "user-1", claims.Subject)
}

func TestTokenIssuer_RejectsExpired(t *testing.T) {
	issuer := auth.NewTokenIssuer("secret")

	tok, err := issuer.Issue("user-1", models.RoleResident, -time.Minute)
	require.NoError(t, err)

	_, err = issuer.Verify(tok)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestTokenIssuer_RejectsOtherSecret(t *testing.T) {
	tok, err := auth.NewTokenIssuer("secret").Issue("user-1", models.RoleAdmin, time.Hour)
	require.NoError(t, err)

	_, err = auth.NewTokenIssuer("other").Verify(tok)
	assert.ErrorIs(t, err, jwt.ErrTokenSignatureInvalid)
}

func TestTokenIssuer_RejectsUnsignedToken(t *testing.T) {
	claims := &auth.Claims{
		UserID: "user-1",
		Role:   models.RoleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "complaintdesk",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = auth.NewTokenIssuer("secret").Verify(tok)
	assert.Error(t, err)
}

func TestTokenIssuer_RejectsGarbage(t *testing.T) {
	_, err := auth.NewTokenIssuer("secret").Verify("not-a-token")
	assert.Error(t, err)
}
