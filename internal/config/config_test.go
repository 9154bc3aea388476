package config

import (
	"strings"
	"testing"
	"time"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("GOOGLE_CLIENT_ID", "cid")
	t.Setenv("GOOGLE_CLIENT_SECRET", "csecret")
	t.Setenv("GROQ_API_KEY", "gk")
	t.Setenv("JWT_SECRET_KEY", "jwt-secret")
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.ListenAddr != ":8000" {
		t.Fatalf("unexpected listen addr %q", cfg.ListenAddr)
	}
	if cfg.Environment != "development" {
		t.Fatalf("unexpected environment %q", cfg.Environment)
	}
	if cfg.FrontendURL != "http://localhost:3000" {
		t.Fatalf("unexpected frontend url %q", cfg.FrontendURL)
	}
	if cfg.JWTTTL != 24*time.Hour {
		t.Fatalf("unexpected jwt ttl %v", cfg.JWTTTL)
	}
	if cfg.GmailRPS != 4 {
		t.Fatalf("unexpected gmail rps %d", cfg.GmailRPS)
	}
}

func TestLoadOverrides(t *testing.T) {
	setRequired(t)
	t.Setenv("LISTEN_ADDR", ":9999")
	t.Setenv("JWT_EXPIRATION_HOURS", "2")
	t.Setenv("GROQ_MODEL", "llama-custom")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.ListenAddr != ":9999" {
		t.Fatalf("override not applied: %q", cfg.ListenAddr)
	}
	if cfg.JWTTTL != 2*time.Hour {
		t.Fatalf("unexpected jwt ttl %v", cfg.JWTTTL)
	}
	if cfg.GroqModel != "llama-custom" {
		t.Fatalf("unexpected model %q", cfg.GroqModel)
	}
}

func TestLoadReportsAllMissing(t *testing.T) {
	t.Setenv("GOOGLE_CLIENT_ID", "")
	t.Setenv("GOOGLE_CLIENT_SECRET", "")
	t.Setenv("GROQ_API_KEY", "gk")
	t.Setenv("JWT_SECRET_KEY", "")

	_, err := Load("")
	if err == nil {
		t.Fatalf("expected error for missing settings")
	}
	for _, name := range []string{"GOOGLE_CLIENT_ID", "GOOGLE_CLIENT_SECRET", "JWT_SECRET_KEY"} {
		if !strings.Contains(err.Error(), name) {
			t.Fatalf("error %q missing %s", err, name)
		}
	}
	if strings.Contains(err.Error(), "GROQ_API_KEY") {
		t.Fatalf("present setting reported missing: %v", err)
	}
}
