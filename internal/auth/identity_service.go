package auth

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"complaintdesk/backend/internal/apperror"
	"complaintdesk/backend/internal/config"
	"complaintdesk/backend/internal/models"
	"complaintdesk/backend/internal/storage"

	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 6

// AdminAccount describes the single canonical administrator.
type AdminAccount struct {
	Username string
	Email    string
	Password string
}

// Session is returned to a client after a successful login.
type Session struct {
	Token    string      `json:"token"`
	Username string      `json:"username"`
	Role     models.Role `json:"role"`
	Email    string      `json:"email,omitempty"`
}

// RegisterInput is a resident sign-up request. Password is optional;
// residents without one sign in with Google.
type RegisterInput struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// IdentityService implements the account use cases.
type IdentityService struct {
	Users  storage.UserStore
	Tokens *TokenIssuer
	Gate   *Gate
	Google GoogleVerifier
	Admin  AdminAccount
}

func NewIdentityService(users storage.UserStore, tokens *TokenIssuer, google GoogleVerifier, admin AdminAccount) *IdentityService {
	return &IdentityService{
		Users:  users,
		Tokens: tokens,
		Gate:   NewGate(tokens),
		Google: google,
		Admin:  admin,
	}
}

// IsReservedUsername reports whether name is the administrator's username,
// ignoring case and surrounding spaces.
func (s *IdentityService) IsReservedUsername(name string) bool {
	return strings.EqualFold(strings.TrimSpace(name), s.Admin.Username)
}

// Login authenticates a username/password account.
func (s *IdentityService) Login(ctx context.Context, username, password string) (*Session, error) {
	if username == "" || password == "" {
		return nil, apperror.Validation("Username and password are required")
	}

	user, err := s.Users.GetUserByUsername(ctx, username)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, apperror.Unauthenticated("Invalid credentials")
	}
	if err != nil {
		return nil, apperror.Internal("failed to load user", err)
	}
	if user.PasswordHash == "" || bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, apperror.Unauthenticated("Invalid credentials")
	}

	return s.session(user, config.LoginTokenTTL)
}

// Register creates a resident account. The reserved administrator username
// can never be registered.
func (s *IdentityService) Register(ctx context.Context, in RegisterInput) (*Session, error) {
	username := strings.TrimSpace(in.Username)
	if username == "" || strings.TrimSpace(in.Email) == "" {
		return nil, apperror.Validation("Username and Email are required.")
	}
	if s.IsReservedUsername(username) {
		return nil, apperror.Validation("The username %q is reserved.", username)
	}
	email := models.NormalizeEmail(in.Email)
	if !strings.Contains(email, "@") {
		return nil, apperror.Validation("Invalid email format.")
	}
	if in.Password != "" && len(in.Password) < minPasswordLength {
		return nil, apperror.Validation("Password must be at least %d characters.", minPasswordLength)
	}

	if _, err := s.Users.GetUserByEmail(ctx, email); err == nil {
		return nil, apperror.Validation("Account already exists with this email. Please Login.")
	} else if !errors.Is(err, storage.ErrNotFound) {
		return nil, apperror.Internal("failed to look up user", err)
	}

	user := &models.User{
		Username: &username,
		Email:    email,
		Role:     models.RoleResident,
	}
	if in.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, apperror.Internal("failed to hash password", err)
		}
		user.PasswordHash = string(hash)
	}

	if err := s.Users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			return nil, apperror.Validation("Username is already taken.")
		}
		return nil, apperror.Internal("failed to create user", err)
	}

	return s.session(user, config.ResidentTokenTTL)
}

// GoogleLogin signs in an existing account with a Google ID token.
// requestedRole may ask for admin; the upgrade is applied only when the
// account is the reserved administrator account, otherwise the login
// continues with the stored role.
func (s *IdentityService) GoogleLogin(ctx context.Context, idToken string, requestedRole models.Role) (*Session, error) {
	if idToken == "" {
		return nil, apperror.Validation("Google token is required")
	}
	if s.Google == nil {
		return nil, apperror.Unauthenticated("Google Authentication Failed")
	}

	gid, err := s.Google.Verify(ctx, idToken)
	if err != nil {
		log.Printf("WARNING: Google login rejected: %v", err)
		return nil, apperror.Unauthenticated("Google Authentication Failed")
	}

	user, err := s.Users.GetUserByEmail(ctx, gid.Email)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, apperror.NotFound("No account found for this email. Please SIGN UP first as a Resident.")
	}
	if err != nil {
		return nil, apperror.Internal("failed to load user", err)
	}

	updated := user.LinkGoogle(gid.Subject, gid.Picture)
	if requestedRole == models.RoleAdmin {
		changed, err := user.ElevateToAdmin(requestedRole, s.Admin.Username)
		if err != nil {
			log.Printf("WARNING: admin elevation denied for user %s via Google login", user.ID)
		}
		updated = updated || changed
	}

	if updated {
		if err := s.Users.UpdateUser(ctx, user); err != nil {
			return nil, apperror.Internal("failed to update user", err)
		}
	}

	return s.session(user, config.ResidentTokenTTL)
}

// Logout requires a valid token. Tokens are stateless, so the client
// dropping it is the logout; the stored role is left as is.
func (s *IdentityService) Logout(ctx context.Context) error {
	identity, err := s.Gate.Authorize(ctx, RequireAuthenticated)
	if err != nil {
		return err
	}
	log.Printf("INFO: user %s logged out", identity.UserID)
	return nil
}

// SetupAdmin makes sure the administrator account exists with the admin
// role and the configured password. Calling it again re-asserts both.
// It reports whether the account was created.
func (s *IdentityService) SetupAdmin(ctx context.Context) (bool, error) {
	if s.Admin.Username == "" || s.Admin.Password == "" {
		return false, apperror.Validation("Admin account is not configured.")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(s.Admin.Password), bcrypt.DefaultCost)
	if err != nil {
		return false, apperror.Internal("failed to hash password", err)
	}

	admin, err := s.Users.GetUserByUsername(ctx, s.Admin.Username)
	switch {
	case err == nil:
		admin.Role = models.RoleAdmin
		admin.PasswordHash = string(hash)
		if err := s.Users.UpdateUser(ctx, admin); err != nil {
			return false, apperror.Internal("failed to update admin", err)
		}
		log.Printf("INFO: admin account %s re-asserted", admin.ID)
		return false, nil
	case errors.Is(err, storage.ErrNotFound):
	default:
		return false, apperror.Internal("failed to load admin", err)
	}

	username := s.Admin.Username
	admin = &models.User{
		Username:     &username,
		Email:        s.Admin.Email,
		PasswordHash: string(hash),
		Role:         models.RoleAdmin,
	}
	if err := s.Users.CreateUser(ctx, admin); err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			return false, apperror.Validation("The admin email %s is already used by another account.", s.Admin.Email)
		}
		return false, apperror.Internal("failed to create admin", err)
	}
	log.Printf("INFO: admin account %s created", admin.ID)
	return true, nil
}

func (s *IdentityService) session(user *models.User, ttl time.Duration) (*Session, error) {
	token, err := s.Tokens.Issue(user.ID, user.Role, ttl)
	if err != nil {
		return nil, apperror.Internal("failed to sign token", err)
	}
	return &Session{
		Token:    token,
		Username: user.UsernameValue(),
		Role:     user.Role,
		Email:    user.Email,
	}, nil
}
