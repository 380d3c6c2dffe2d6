package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/pluspoint/pluspoint/internal/errs"
)

func TestMintAndVerify(t *testing.T) {
	issuer := NewTokenIssuer([]byte("test-secret"), time.Hour)

	token, err := issuer.Mint("profile-1")
	if err != nil {
		t.Fatalf("mint: %v", err)
	}

	profileID, err := issuer.Verify(token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if profileID != "profile-1" {
		t.Errorf("profile id = %q, want profile-1", profileID)
	}
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	issuer := NewTokenIssuer([]byte("test-secret"), time.Hour)
	other := NewTokenIssuer([]byte("other-secret"), time.Hour)

	token, err := issuer.Mint("profile-1")
	if err != nil {
		t.Fatalf("mint: %v", err)
	}

	if _, err := other.Verify(token); !errors.Is(err, errs.ErrUnauthorized) {
		t.Errorf("expected ErrUnauthorized, got %v", err)
	}
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	issuer := NewTokenIssuer([]byte("test-secret"), time.Millisecond)

	token, err := issuer.Mint("profile-1")
	if err != nil {
		t.Fatalf("mint: %v", err)
	}

	time.Sleep(5 * time.Millisecond)

	if _, err := issuer.Verify(token); !errors.Is(err, errs.ErrUnauthorized) {
		t.Errorf("expected ErrUnauthorized, got %v", err)
	}
}

func TestVerifyRejectsGarbage(t *testing.T) {
	issuer := NewTokenIssuer([]byte("test-secret"), time.Hour)

	for _, token := range []string{"", "not-a-token", "a.b.c"} {
		if _, err := issuer.Verify(token); !errors.Is(err, errs.ErrUnauthorized) {
			t.Errorf("Verify(%q): expected ErrUnauthorized, got %v", token, err)
		}
	}
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("secret123")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if hash == "secret123" {
		t.Error("hash should not equal plaintext")
	}
	if !CheckPassword(hash, "secret123") {
		t.Error("correct password rejected")
	}
	if CheckPassword(hash, "wrong") {
		t.Error("wrong password accepted")
	}
}
