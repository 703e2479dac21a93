package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"spendwise/internal/auth"
	"spendwise/internal/core"
	"spendwise/internal/log"
)

// UserStore persists accounts.
type UserStore interface {
	CreateUser(ctx context.Context, u core.User) (core.User, error)
	GetUserByEmail(ctx context.Context, email string) (core.User, error)
}

// AuthService registers users and exchanges credentials for tokens.
type AuthService struct {
	users  UserStore
	issuer *auth.Issuer
}

func NewAuthService(users UserStore, issuer *auth.Issuer) *AuthService {
	return &AuthService{users: users, issuer: issuer}
}

// Session is the outcome of a successful register or login.
type Session struct {
	Token string
	User  core.User
}

// Register creates an account and signs the user in. Currency defaults to
// INR.
func (s *AuthService) Register(ctx context.Context, email, password, name, currency string) (Session, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	name = strings.TrimSpace(name)
	if err := core.ValidateRegistration(email, password, name); err != nil {
		return Session{}, core.Invalid(err)
	}
	if currency = strings.ToUpper(strings.TrimSpace(currency)); currency == "" {
		currency = core.DefaultCurrency
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return Session{}, err
	}

	u, err := s.users.CreateUser(ctx, core.User{
		Email:        email,
		PasswordHash: hash,
		Name:         name,
		Currency:     currency,
	})
	if err != nil {
		return Session{}, err
	}

	slog.InfoContext(ctx, "User registered", "component", log.ComponentAuth, "user_id", u.ID)
	return s.session(u)
}

// Login checks the credentials. Unknown emails and wrong passwords fail the
// same way.
func (s *AuthService) Login(ctx context.Context, email, password string) (Session, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	u, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if core.IsKind(err, core.KindNotFound) {
			return Session{}, core.Unauthorized("Invalid credentials")
		}
		return Session{}, err
	}
	if !auth.CheckPassword(u.PasswordHash, password) {
		slog.WarnContext(ctx, "Login rejected", "component", log.ComponentAuth, "user_id", u.ID)
		return Session{}, core.Unauthorized("Invalid credentials")
	}
	return s.session(u)
}

func (s *AuthService) session(u core.User) (Session, error) {
	token, err := s.issuer.Issue(u.ID, u.Email)
	if err != nil {
		return Session{}, fmt.Errorf("issue token: %w", err)
	}
	return Session{Token: token, User: u}, nil
}
