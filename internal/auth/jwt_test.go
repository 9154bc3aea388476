package auth

import (
	"strings"
	"testing"
	"time"
)

func TestIssueAndVerify(t *testing.T) {
	issuer := NewIssuer("test-secret", time.Hour)

	token, err := issuer.Issue("ada@example.com", "Ada Lovelace", "https://example.com/a.png")
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}

	claims, err := issuer.Verify(token)
	if err != nil {
		t.Fatalf("verify failed: %v", err)
	}
	if claims.Subject != "ada@example.com" {
		t.Fatalf("unexpected subject %q", claims.Subject)
	}
	if claims.Name != "Ada Lovelace" {
		t.Fatalf("unexpected name %q", claims.Name)
	}
	if claims.Picture != "https://example.com/a.png" {
		t.Fatalf("unexpected picture %q", claims.Picture)
	}
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	token, err := NewIssuer("secret-a", time.Hour).Issue("u@example.com", "U", "")
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}
	if _, err := NewIssuer("secret-b", time.Hour).Verify(token); err == nil {
		t.Fatalf("expected verification failure with wrong secret")
	}
}

func TestVerifyRejectsExpired(t *testing.T) {
	issuer := NewIssuer("test-secret", -time.Minute)
	token, err := issuer.Issue("u@example.com", "U", "")
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}
	if _, err := issuer.Verify(token); err == nil {
		t.Fatalf("expected expired token to fail verification")
	}
}

func TestVerifyRejectsTampered(t *testing.T) {
	issuer := NewIssuer("test-secret", time.Hour)
	token, err := issuer.Issue("u@example.com", "U", "")
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}

	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		t.Fatalf("unexpected token shape")
	}
	tampered := parts[0] + "." + parts[1] + "." + strings.Repeat("A", len(parts[2]))
	if _, err := issuer.Verify(tampered); err == nil {
		t.Fatalf("expected tampered token to fail verification")
	}

	if _, err := issuer.Verify("not-a-token"); err == nil {
		t.Fatalf("expected garbage token to fail verification")
	}
}
