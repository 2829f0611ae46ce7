package auth

import (
	"errors"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"
)

func TestBcryptHasher(t *testing.T) {
	h := NewBcryptHasher(bcrypt.MinCost)

	hash, err := h.Hash("admin123")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if hash == "admin123" {
		t.Fatal("hash must not equal the password")
	}
	if err := h.Compare(hash, "admin123"); err != nil {
		t.Errorf("expected match, got %v", err)
	}
	if err := h.Compare(hash, "wrong"); !errors.Is(err, ErrPasswordMismatch) {
		t.Errorf("expected ErrPasswordMismatch, got %v", err)
	}
}

func TestTokenManager_RoundTrip(t *testing.T) {
	tm := NewTokenManager("secret", "")

	token, err := tm.GenerateToken("1", "admin@esante.com", "doctor", time.Hour)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	claims, err := tm.ValidateToken(token)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if claims.UserID != "1" || claims.Email != "admin@esante.com" || claims.Role != "doctor" {
		t.Errorf("unexpected claims: %+v", claims)
	}
}

func TestTokenManager_Rejects(t *testing.T) {
	tm := NewTokenManager("secret", "esante")

	if _, err := tm.GenerateToken("", "a@x.com", "doctor", time.Hour); err == nil {
		t.Error("expected error for empty user id")
	}

	expired, err := tm.GenerateToken("1", "a@x.com", "doctor", -time.Minute)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := tm.ValidateToken(expired); err == nil {
		t.Error("expected expired token to be rejected")
	}

	other, err := NewTokenManager("other", "esante").GenerateToken("1", "a@x.com", "doctor", time.Hour)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := tm.ValidateToken(other); err == nil {
		t.Error("expected token signed with another secret to be rejected")
	}
}

func TestExtractToken(t *testing.T) {
	if tok, err := ExtractToken("Bearer abc"); err != nil || tok != "abc" {
		t.Errorf("got %q, %v", tok, err)
	}
	for _, h := range []string{"", "abc", "Basic abc", "Bearer"} {
		if _, err := ExtractToken(h); err == nil {
			t.Errorf("expected error for %q", h)
		}
	}
}
