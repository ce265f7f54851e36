package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"storefront/internal/auth"
	"storefront/internal/models"
	"storefront/internal/store"
	"storefront/internal/util"

	"go.uber.org/zap"
)

// AuthService registers users and issues bearer tokens
type AuthService struct {
	users       UserRepository
	tokens      *auth.TokenManager
	denylist    TokenDenylist
	adminEmails map[string]bool
	logger      *zap.Logger
}

// NewAuthService creates a new auth service. Users registering with one of
// adminEmails are created as administrators.
func NewAuthService(users UserRepository, tokens *auth.TokenManager, denylist TokenDenylist, adminEmails []string) *AuthService {
	admins := make(map[string]bool, len(adminEmails))
	for _, e := range adminEmails {
		if e = normalizeEmail(e); e != "" {
			admins[e] = true
		}
	}
	return &AuthService{
		users:       users,
		tokens:      tokens,
		denylist:    denylist,
		adminEmails: admins,
		logger:      util.GetLogger(),
	}
}

// RegisterRequest creates an account. There is no role field.
type RegisterRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

// LoginRequest exchanges credentials for a token
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// AuthResponse is returned by register and login
type AuthResponse struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates a user and signs them in
func (s *AuthService) Register(ctx context.Context, req *RegisterRequest) (*AuthResponse, error) {
	ctx, span := util.StartSpan(ctx, "AuthService.Register")
	defer span.End()

	name := strings.TrimSpace(req.Name)
	email := normalizeEmail(req.Email)
	if name == "" || email == "" {
		return nil, validationf("name and email are required")
	}
	if len(req.Password) < 6 {
		return nil, validationf("password must be at least 6 characters")
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		IsAdmin:      s.adminEmails[email],
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, fmt.Errorf("%w: email already registered", ErrConflict)
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.logger.Info("User registered", zap.Int64("user_id", user.ID), zap.Bool("admin", user.IsAdmin))
	return s.issue(user)
}

// Login verifies credentials. Unknown email and wrong password are
// indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, req *LoginRequest) (*AuthResponse, error) {
	ctx, span := util.StartSpan(ctx, "AuthService.Login")
	defer span.End()

	resp, err := s.login(ctx, req)
	util.LoginsTotal.WithLabelValues(util.Result(err)).Inc()
	return resp, err
}

func (s *AuthService) login(ctx context.Context, req *LoginRequest) (*AuthResponse, error) {
	user, err := s.users.GetUserByEmail(ctx, normalizeEmail(req.Email))
	if errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("%w: invalid email or password", ErrUnauthenticated)
	}
	if err != nil {
		return nil, err
	}

	ok, err := auth.CheckPassword(user.PasswordHash, req.Password)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: invalid email or password", ErrUnauthenticated)
	}

	return s.issue(user)
}

func (s *AuthService) issue(user *models.User) (*AuthResponse, error) {
	token, _, err := s.tokens.Issue(user)
	if err != nil {
		return nil, err
	}
	return &AuthResponse{Token: token, User: user}, nil
}

// Authenticate resolves a bearer token to its claims. Revoked tokens are
// rejected; a denylist outage is logged and the token is accepted.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*auth.Claims, error) {
	if token == "" {
		return nil, fmt.Errorf("%w: missing bearer token", ErrUnauthenticated)
	}

	claims, err := s.tokens.Parse(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnauthenticated, err)
	}

	revoked, err := s.denylist.IsTokenRevoked(ctx, claims.ID)
	if err != nil {
		s.logger.Warn("Token denylist unavailable", zap.Error(err))
	} else if revoked {
		return nil, fmt.Errorf("%w: token revoked", ErrUnauthenticated)
	}

	return claims, nil
}

// Logout revokes the token described by claims until it would have expired
func (s *AuthService) Logout(ctx context.Context, claims *auth.Claims) error {
	if err := s.denylist.RevokeToken(ctx, claims.ID, s.tokens.Remaining(claims)); err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}
	s.logger.Info("User logged out", zap.Int64("user_id", claims.UserID))
	return nil
}

// Me returns the user behind the current token
func (s *AuthService) Me(ctx context.Context, userID int64) (*models.User, error) {
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, translate(err)
	}
	return user, nil
}
