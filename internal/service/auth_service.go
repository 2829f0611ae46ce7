package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/ShadowCodeSoftware/E-sante/internal/domain"
	"github.com/ShadowCodeSoftware/E-sante/internal/security/auth"
)

// AuthService handles registration, login and the active session
type AuthService struct {
	users    domain.UserRepository
	hasher   auth.PasswordHasher
	tokens   *auth.TokenManager
	sessions *SessionStore
	ttl      time.Duration
	logger   *slog.Logger
}

// NewAuthService creates a new authentication service
func NewAuthService(
	users domain.UserRepository,
	hasher auth.PasswordHasher,
	tokens *auth.TokenManager,
	sessions *SessionStore,
	ttl time.Duration,
	logger *slog.Logger,
) *AuthService {
	if logger == nil {
		logger = slog.Default()
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}

	return &AuthService{
		users:    users,
		hasher:   hasher,
		tokens:   tokens,
		sessions: sessions,
		ttl:      ttl,
		logger:   logger,
	}
}

// RegisterInput is the content of the registration form
type RegisterInput struct {
	Name            string      `json:"name"`
	Email           string      `json:"email"`
	Password        string      `json:"password"`
	ConfirmPassword string      `json:"confirmPassword"`
	Phone           string      `json:"phone"`
	Role            domain.Role `json:"role"`
	Speciality      string      `json:"speciality,omitempty"`
	DateOfBirth     string      `json:"dateOfBirth,omitempty"`
	Address         string      `json:"address,omitempty"`
}

// ProfileUpdate carries the profile fields a user may edit. Nil fields are kept.
type ProfileUpdate struct {
	Name        *string `json:"name,omitempty"`
	Email       *string `json:"email,omitempty"`
	Phone       *string `json:"phone,omitempty"`
	Speciality  *string `json:"speciality,omitempty"`
	DateOfBirth *string `json:"dateOfBirth,omitempty"`
	Address     *string `json:"address,omitempty"`
}

// Session is the result of a successful login
type Session struct {
	Token     string         `json:"token"`
	TokenType string         `json:"tokenType"`
	ExpiresAt time.Time      `json:"expiresAt"`
	User      domain.Profile `json:"user"`
}

// Register creates a new user account
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (domain.Profile, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	in.Phone = strings.TrimSpace(in.Phone)

	switch {
	case in.Name == "":
		return domain.Profile{}, domain.Invalid("name", "is required")
	case in.Email == "":
		return domain.Profile{}, domain.Invalid("email", "is required")
	case in.Phone == "":
		return domain.Profile{}, domain.Invalid("phone", "is required")
	}
	if _, err := mail.ParseAddress(in.Email); err != nil {
		return domain.Profile{}, domain.Invalid("email", "is not a valid address")
	}
	if err := checkNewPassword(in.Password, in.ConfirmPassword); err != nil {
		return domain.Profile{}, err
	}
	if in.Role == "" {
		in.Role = domain.RolePatient
	}
	if !in.Role.Valid() {
		return domain.Profile{}, domain.Invalid("role", "must be doctor or patient")
	}

	if _, err := s.findByEmail(ctx, in.Email); err == nil {
		return domain.Profile{}, domain.ErrDuplicateEmail
	} else if !errors.Is(err, domain.ErrNotFound) {
		return domain.Profile{}, err
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		s.logger.Error("failed to hash password", slog.String("error", err.Error()))
		return domain.Profile{}, fmt.Errorf("failed to register user: %w", err)
	}

	user, err := s.users.Add(ctx, domain.User{
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: hash,
		Phone:        in.Phone,
		Role:         in.Role,
		Speciality:   in.Speciality,
		DateOfBirth:  in.DateOfBirth,
		Address:      in.Address,
	})
	if err != nil {
		s.logger.Error("failed to create user", slog.String("error", err.Error()))
		return domain.Profile{}, fmt.Errorf("failed to register user: %w", err)
	}

	s.logger.Info("user registered",
		slog.String("user_id", user.ID),
		slog.String("role", string(user.Role)),
	)
	return user.Profile(), nil
}

// Login verifies credentials, issues a session token and records the
// session as the active one.
func (s *AuthService) Login(ctx context.Context, email, password string) (*Session, error) {
	if strings.TrimSpace(email) == "" || password == "" {
		return nil, domain.Invalid("credentials", "email and password are required")
	}

	user, err := s.findByEmail(ctx, email)
	if errors.Is(err, domain.ErrNotFound) {
		s.logger.Info("login attempt with unknown email")
		return nil, domain.ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	if err := s.hasher.Compare(user.PasswordHash, password); err != nil {
		s.logger.Info("login failed with wrong password", slog.String("user_id", user.ID))
		return nil, domain.ErrInvalidCredentials
	}

	expiresAt := time.Now().Add(s.ttl)
	token, err := s.tokens.GenerateToken(user.ID, user.Email, string(user.Role), s.ttl)
	if err != nil {
		s.logger.Error("failed to sign token", slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	profile := user.Profile()
	if err := s.sessions.Save(ctx, token, profile); err != nil {
		return nil, err
	}

	s.logger.Info("user logged in", slog.String("user_id", user.ID))
	return &Session{
		Token:     token,
		TokenType: "Bearer",
		ExpiresAt: expiresAt,
		User:      profile,
	}, nil
}

// Logout clears the active session
func (s *AuthService) Logout(ctx context.Context) error {
	if err := s.sessions.Clear(ctx); err != nil {
		return err
	}
	s.logger.Info("user logged out")
	return nil
}

// Authenticate validates a session token
func (s *AuthService) Authenticate(token string) (*auth.Claims, error) {
	return s.tokens.ValidateToken(token)
}

// CurrentUser returns the profile of the active session
func (s *AuthService) CurrentUser(ctx context.Context) (*domain.Profile, error) {
	return s.sessions.Current(ctx)
}

// Profile returns the profile of userID
func (s *AuthService) Profile(ctx context.Context, userID string) (domain.Profile, error) {
	user, err := s.users.Get(ctx, userID)
	if err != nil {
		return domain.Profile{}, err
	}
	return user.Profile(), nil
}

// UpdateProfile edits the profile of userID and refreshes the active
// session when it belongs to that user.
func (s *AuthService) UpdateProfile(ctx context.Context, userID string, in ProfileUpdate) (domain.Profile, error) {
	patch := domain.Patch{}
	set := func(key string, v *string, required bool) error {
		if v == nil {
			return nil
		}
		value := strings.TrimSpace(*v)
		if required && value == "" {
			return domain.Invalid(key, "is required")
		}
		patch[key] = value
		return nil
	}
	for _, f := range []struct {
		key      string
		value    *string
		required bool
	}{
		{"name", in.Name, true},
		{"email", in.Email, true},
		{"phone", in.Phone, true},
		{"speciality", in.Speciality, false},
		{"dateOfBirth", in.DateOfBirth, false},
		{"address", in.Address, false},
	} {
		if err := set(f.key, f.value, f.required); err != nil {
			return domain.Profile{}, err
		}
	}

	if email, ok := patch["email"].(string); ok {
		if _, err := mail.ParseAddress(email); err != nil {
			return domain.Profile{}, domain.Invalid("email", "is not a valid address")
		}
		other, err := s.findByEmail(ctx, email)
		if err == nil && other.ID != userID {
			return domain.Profile{}, domain.ErrDuplicateEmail
		}
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return domain.Profile{}, err
		}
	}

	user, err := s.users.Update(ctx, userID, patch)
	if err != nil {
		return domain.Profile{}, err
	}

	profile := user.Profile()
	if err := s.sessions.Refresh(ctx, profile); err != nil && !errors.Is(err, domain.ErrNoSession) {
		s.logger.Warn("failed to refresh current user",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
	}
	s.logger.Info("profile updated", slog.String("user_id", userID))
	return profile, nil
}

// ChangePassword replaces the password of userID after checking the current one
func (s *AuthService) ChangePassword(ctx context.Context, userID, current, next, confirm string) error {
	if err := checkNewPassword(next, confirm); err != nil {
		return err
	}

	user, err := s.users.Get(ctx, userID)
	if err != nil {
		return err
	}
	if err := s.hasher.Compare(user.PasswordHash, current); err != nil {
		return domain.ErrInvalidCredentials
	}

	if err := s.setHash(ctx, user.ID, next); err != nil {
		return err
	}
	s.logger.Info("user changed password", slog.String("user_id", userID))
	return nil
}

// ResetPassword sets a new password for email without the current one.
// It backs the operator CLI.
func (s *AuthService) ResetPassword(ctx context.Context, email, password string) error {
	if err := checkNewPassword(password, password); err != nil {
		return err
	}
	user, err := s.findByEmail(ctx, email)
	if err != nil {
		return err
	}
	if err := s.setHash(ctx, user.ID, password); err != nil {
		return err
	}
	s.logger.Info("password reset", slog.String("user_id", user.ID))
	return nil
}

func (s *AuthService) setHash(ctx context.Context, userID, password string) error {
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return fmt.Errorf("failed to change password: %w", err)
	}
	if _, err := s.users.Update(ctx, userID, domain.Patch{"passwordHash": hash}); err != nil {
		s.logger.Error("failed to update user password", slog.String("error", err.Error()))
		return fmt.Errorf("failed to change password: %w", err)
	}
	return nil
}

func (s *AuthService) findByEmail(ctx context.Context, email string) (domain.User, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return domain.User{}, err
	}
	for _, u := range users {
		if domain.SameEmail(u.Email, email) {
			return u, nil
		}
	}
	return domain.User{}, fmt.Errorf("user %q: %w", email, domain.ErrNotFound)
}

func checkNewPassword(password, confirm string) error {
	if len(password) < auth.MinPasswordLength {
		return domain.Invalid("password", fmt.Sprintf("must be at least %d characters", auth.MinPasswordLength))
	}
	if password != confirm {
		return domain.Invalid("confirmPassword", "does not match password")
	}
	return nil
}
