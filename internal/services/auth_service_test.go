package services

import (
	"context"
	"testing"
	"time"

	"spendwise/internal/auth"
	"spendwise/internal/core"
)

func TestAuthService_RegisterAndLogin(t *testing.T) {
	issuer := auth.NewIssuer("test-secret-0123456789", time.Hour)
	s := NewAuthService(newMemStore(), issuer)
	ctx := context.Background()

	sess, err := s.Register(ctx, " Asha@Example.com ", "hunter22", "Asha", "")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if sess.User.Email != "asha@example.com" || sess.User.Currency != core.DefaultCurrency {
		t.Errorf("user = %+v", sess.User)
	}
	claims, err := issuer.Parse(sess.Token)
	if err != nil || claims.UserID != sess.User.ID {
		t.Fatalf("token does not carry the user: claims=%+v err=%v", claims, err)
	}

	_, err = s.Register(ctx, "asha@example.com", "another1", "Asha", "INR")
	if !core.IsKind(err, core.KindConflict) {
		t.Errorf("duplicate register: got %v", err)
	}

	login, err := s.Login(ctx, "ASHA@example.com", "hunter22")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if login.User.ID != sess.User.ID {
		t.Error("login returned a different user")
	}

	for _, tc := range []struct{ email, password string }{
		{"asha@example.com", "wrong"},
		{"nobody@example.com", "hunter22"},
	} {
		_, err := s.Login(ctx, tc.email, tc.password)
		if !core.IsKind(err, core.KindAuth) || core.PublicMessage(err) != "Invalid credentials" {
			t.Errorf("Login(%s): got %v", tc.email, err)
		}
	}
}

func TestAuthService_RegisterValidation(t *testing.T) {
	s := NewAuthService(newMemStore(), auth.NewIssuer("test-secret-0123456789", time.Hour))

	tests := []struct{ email, password, name string }{
		{"not-an-email", "hunter22", "A"},
		{"a@example.com", "123", "A"},
		{"a@example.com", "hunter22", "  "},
	}
	for _, tt := range tests {
		if _, err := s.Register(context.Background(), tt.email, tt.password, tt.name, ""); !core.IsKind(err, core.KindValidation) {
			t.Errorf("Register(%q, %q, %q): got %v", tt.email, tt.password, tt.name, err)
		}
	}
}
