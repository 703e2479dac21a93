package auth

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

const testSecret = "test-secret-of-sufficient-length"

func TestIssueAndParse(t *testing.T) {
	issuer := NewIssuer(testSecret, time.Hour)

	token, err := issuer.Issue(42, "asha@example.com")
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	claims, err := issuer.Parse(token)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if claims.UserID != 42 || claims.Email != "asha@example.com" {
		t.Errorf("Parse() claims = %+v", claims)
	}
	if claims.ID == "" {
		t.Error("expected a jti")
	}

	other, _ := issuer.Issue(42, "asha@example.com")
	if other == token {
		t.Error("tokens for the same user should differ by jti")
	}
}

func TestParseRejects(t *testing.T) {
	issuer := NewIssuer(testSecret, time.Hour)
	valid, _ := issuer.Issue(7, "x@example.com")

	expired := NewIssuer(testSecret, time.Hour)
	expired.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	expiredToken, _ := expired.Issue(7, "x@example.com")

	foreign, _ := NewIssuer("another-secret-entirely-123", time.Hour).Issue(7, "x@example.com")

	tests := []struct {
		name  string
		token string
	}{
		{"garbage", "not-a-token"},
		{"empty", ""},
		{"wrong secret", foreign},
		{"expired", expiredToken},
		{"tampered", valid + "x"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := issuer.Parse(tt.token); !errors.Is(err, ErrInvalidToken) {
				t.Errorf("Parse() error = %v, want ErrInvalidToken", err)
			}
		})
	}
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("s3cret!")
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}
	if hash == "s3cret!" {
		t.Fatal("hash must not equal the password")
	}
	if !CheckPassword(hash, "s3cret!") {
		t.Error("CheckPassword() = false for the right password")
	}
	if CheckPassword(hash, "wrong") {
		t.Error("CheckPassword() = true for a wrong password")
	}
}

func TestMiddleware(t *testing.T) {
	issuer := NewIssuer(testSecret, time.Hour)
	token, _ := issuer.Issue(9, "m@example.com")

	var seen int64
	handler := Middleware(issuer, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = UserID(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"valid bearer", "Bearer " + token, http.StatusOK},
		{"lowercase scheme", "bearer " + token, http.StatusOK},
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic " + token, http.StatusUnauthorized},
		{"bad token", "Bearer nope", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seen = 0
			req := httptest.NewRequest(http.MethodGet, "/expenses", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
			if tt.want == http.StatusOK && seen != 9 {
				t.Errorf("UserID() = %d, want 9", seen)
			}
		})
	}
}
