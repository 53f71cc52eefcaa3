package token

import (
	"errors"
	"testing"
	"time"
)

func TestIssueAndVerify(t *testing.T) {
	issuer, err := NewIssuer("test-secret", time.Minute)
	if err != nil {
		t.Fatalf("NewIssuer: %v", err)
	}
	tok, err := issuer.Issue(42, PurposeConfirmEmail)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	got, err := issuer.Verify(tok, PurposeConfirmEmail)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if got != 42 {
		t.Fatalf("got account %d, want 42", got)
	}
}

func TestVerifyRejectsWrongPurpose(t *testing.T) {
	issuer, _ := NewIssuer("test-secret", time.Minute)
	tok, err := issuer.Issue(7, PurposeResetPassword)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if _, err := issuer.Verify(tok, PurposeConfirmEmail); !errors.Is(err, ErrInvalid) {
		t.Fatalf("got %v, want ErrInvalid", err)
	}
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	a, _ := NewIssuer("secret-a", time.Minute)
	b, _ := NewIssuer("secret-b", time.Minute)
	tok, err := a.Issue(7, PurposeConfirmEmail)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if _, err := b.Verify(tok, PurposeConfirmEmail); !errors.Is(err, ErrInvalid) {
		t.Fatalf("got %v, want ErrInvalid", err)
	}
}

func TestVerifyRejectsExpired(t *testing.T) {
	issuer, _ := NewIssuer("test-secret", time.Minute)
	issuer.ttl = -time.Hour
	tok, err := issuer.Issue(7, PurposeConfirmEmail)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if _, err := issuer.Verify(tok, PurposeConfirmEmail); !errors.Is(err, ErrInvalid) {
		t.Fatalf("got %v, want ErrInvalid", err)
	}
}

func TestVerifyRejectsGarbage(t *testing.T) {
	issuer, _ := NewIssuer("test-secret", time.Minute)
	for _, tok := range []string{"", "not-a-jwt", "a.b.c"} {
		if _, err := issuer.Verify(tok, PurposeConfirmEmail); !errors.Is(err, ErrInvalid) {
			t.Fatalf("Verify(%q): got %v, want ErrInvalid", tok, err)
		}
	}
}

func TestIssueRejectsUnknownPurpose(t *testing.T) {
	issuer, _ := NewIssuer("test-secret", time.Minute)
	if _, err := issuer.Issue(7, "delete_everything"); err == nil {
		t.Fatal("expected error for unknown purpose")
	}
}

func TestNewIssuerRequiresSecret(t *testing.T) {
	if _, err := NewIssuer("  ", time.Minute); err == nil {
		t.Fatal("expected error for empty secret")
	}
}
