package auth_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"complaintdesk/backend/internal/apperror"
	"complaintdesk/backend/internal/auth"
	"complaintdesk/backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func bearer(t *testing.T, issuer *auth.TokenIssuer, role models.Role, ttl time.Duration) string {
	t.Helper()
	tok, err := issuer.Issue("user-1", role, ttl)
	require.NoError(t, err)
	return "Bearer " + tok
}

func statusOf(t *testing.T, err error) int {
	t.Helper()
	require.Error(t, err)
	return apperror.From(err).Status()
}

func TestGate_Authorize(t *testing.T) {
	issuer := auth.NewTokenIssuer("secret")
	gate := auth.NewGate(issuer)

	resident := bearer(t, issuer, models.RoleResident, time.Hour)
	admin := bearer(t, issuer, models.RoleAdmin, time.Hour)
	expired := bearer(t, issuer, models.RoleAdmin, -time.Minute)
	foreign := bearer(t, auth.NewTokenIssuer("other"), models.RoleAdmin, time.Hour)

	tests := []struct {
		name   string
		header string
		req    auth.Requirement
		status int // 0 means allowed
	}{
		{"no requirement, no header", "", auth.RequireNone, 0},
		{"no requirement, garbage header", "Bearer junk", auth.RequireNone, 0},
		{"authenticated, missing header", "", auth.RequireAuthenticated, http.StatusUnauthorized},
		{"authenticated, resident", resident, auth.RequireAuthenticated, 0},
		{"authenticated, admin", admin, auth.RequireAuthenticated, 0},
		{"admin, missing header", "", auth.RequireAdmin, http.StatusUnauthorized},
		{"admin, no bearer prefix", "Token abc", auth.RequireAdmin, http.StatusUnauthorized},
		{"admin, bare prefix", "Bearer ", auth.RequireAdmin, http.StatusUnauthorized},
		{"admin, expired", expired, auth.RequireAdmin, http.StatusUnauthorized},
		{"admin, wrong secret", foreign, auth.RequireAdmin, http.StatusUnauthorized},
		{"admin, resident token", resident, auth.RequireAdmin, http.StatusForbidden},
		{"admin, admin token", admin, auth.RequireAdmin, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := auth.WithAuthorization(context.Background(), tt.header)
			identity, err := gate.Authorize(ctx, tt.req)

			if tt.status == 0 {
				assert.NoError(t, err)
				if tt.req != auth.RequireNone {
					require.NotNil(t, identity)
					assert.Equal(t, "user-1", identity.UserID)
				}
				return
			}
			assert.Nil(t, identity)
			assert.Equal(t, tt.status, statusOf(t, err))
		})
	}
}

func TestGate_AuthorizeHeader(t *testing.T) {
	issuer := auth.NewTokenIssuer("secret")
	gate := auth.NewGate(issuer)

	identity, err := gate.AuthorizeHeader(bearer(t, issuer, models.RoleAdmin, time.Hour), auth.RequireAdmin)
	require.NoError(t, err)
	assert.True(t, identity.IsAdmin())

	_, err = gate.AuthorizeHeader("", auth.RequireAuthenticated)
	assert.True(t, apperror.Is(err, apperror.KindUnauthenticated))
}

func TestParseBearer(t *testing.T) {
	tok, ok := auth.ParseBearer("Bearer abc.def")
	assert.True(t, ok)
	assert.Equal(t, "abc.def", tok)

	tok, ok = auth.ParseBearer("bearer abc")
	assert.True(t, ok)
	assert.Equal(t, "abc", tok)

	for _, h := range []string{"", "Bearer", "Bearer ", "Bearer a b", "Basic abc"} {
		_, ok := auth.ParseBearer(h)
		assert.False(t, ok, h)
	}
}

func TestRequirement_String(t *testing.T) {
	assert.Equal(t, "none", auth.RequireNone.String())
	assert.Equal(t, "authenticated", auth.RequireAuthenticated.String())
	assert.Equal(t, "admin", auth.RequireAdmin.String())
}
