// Package auth issues and verifies identity tokens, decides whether a caller
// may invoke an operation, and owns the account use cases (login,
// registration, Google login, logout, admin bootstrap).
package auth

import (
	"context"
	"log"
	"strings"

	"complaintdesk/backend/internal/apperror"
	"complaintdesk/backend/internal/models"
)

// Requirement is the role an operation demands from its caller.
type Requirement int

const (
	RequireNone Requirement = iota
	RequireAuthenticated
	RequireAdmin
)

func (r Requirement) String() string {
	switch r {
	case RequireNone:
		return "none"
	case RequireAuthenticated:
		return "authenticated"
	case RequireAdmin:
		return "admin"
	}
	return "unknown"
}

// Identity is a verified caller.
type Identity struct {
	UserID string
	Role   models.Role
}

func (i *Identity) IsAdmin() bool { return i != nil && i.Role == models.RoleAdmin }

// TokenVerifier validates a raw token.
type TokenVerifier interface {
	Verify(token string) (*Claims, error)
}

type authorizationKey struct{}

// WithAuthorization stores the raw Authorization header on the context so the
// service layer can authorize the caller itself.
func WithAuthorization(ctx context.Context, header string) context.Context {
	return context.WithValue(ctx, authorizationKey{}, header)
}

// AuthorizationFrom returns the header stored by WithAuthorization.
func AuthorizationFrom(ctx context.Context) string {
	v, _ := ctx.Value(authorizationKey{}).(string)
	return v
}

// ParseBearer extracts the token from "Bearer <token>".
func ParseBearer(header string) (string, bool) {
	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}
	token := strings.TrimSpace(header[len(prefix):])
	if token == "" || strings.ContainsAny(token, " \t") {
		return "", false
	}
	return token, true
}

// Gate decides whether the caller on a context meets a Requirement.
type Gate struct {
	Verifier TokenVerifier
}

func NewGate(v TokenVerifier) *Gate {
	return &Gate{Verifier: v}
}

// Authorize returns the caller's identity, or nil for RequireNone.
// A missing, malformed, invalid or expired token is Unauthenticated;
// a valid non-admin token on an admin operation is Forbidden.
func (g *Gate) Authorize(ctx context.Context, req Requirement) (*Identity, error) {
	if req == RequireNone {
		return nil, nil
	}
	return g.authorizeHeader(AuthorizationFrom(ctx), req)
}

// AuthorizeHeader is Authorize for callers holding the header directly
// (e.g. a WebSocket upgrade passing the token as a query parameter).
func (g *Gate) AuthorizeHeader(header string, req Requirement) (*Identity, error) {
	if req == RequireNone {
		return nil, nil
	}
	return g.authorizeHeader(header, req)
}

func (g *Gate) authorizeHeader(header string, req Requirement) (*Identity, error) {
	if header == "" {
		return nil, apperror.Unauthenticated("Not Authorized")
	}
	token, ok := ParseBearer(header)
	if !ok {
		return nil, apperror.Unauthenticated("Malformed authorization header")
	}

	claims, err := g.Verifier.Verify(token)
	if err != nil {
		log.Printf("INFO: rejected token: %v", err)
		return nil, apperror.Unauthenticated("Invalid or expired token")
	}
	if claims.UserID == "" || (claims.Role != models.RoleResident && claims.Role != models.RoleAdmin) {
		return nil, apperror.Unauthenticated("Invalid token claims")
	}

	identity := &Identity{UserID: claims.UserID, Role: claims.Role}
	if req == RequireAdmin && !identity.IsAdmin() {
		return nil, apperror.Forbidden("Admin access required")
	}
	return identity, nil
}
