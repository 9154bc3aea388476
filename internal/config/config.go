// Package config loads deployment settings from the environment, with an
// optional .env file for local development.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config is everything the server needs at startup.
type Config struct {
	ListenAddr  string
	Environment string
	FrontendURL string

	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURI  string

	GroqAPIKey string
	GroqModel  string

	JWTSecret string
	JWTTTL    time.Duration

	// GmailRPS caps outbound Gmail API calls per second.
	GmailRPS int
}

// Load reads configuration from the environment. envFile, when non-empty,
// is loaded first (missing files are ignored so production can run on real
// env vars alone).
func Load(envFile string) (Config, error) {
	if envFile != "" {
		_ = godotenv.Load(envFile)
	} else {
		_ = godotenv.Load()
	}

	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("LISTEN_ADDR", ":8000")
	v.SetDefault("ENVIRONMENT", "development")
	v.SetDefault("FRONTEND_URL", "http://localhost:3000")
	v.SetDefault("GOOGLE_CLIENT_ID", "")
	v.SetDefault("GOOGLE_CLIENT_SECRET", "")
	v.SetDefault("GOOGLE_REDIRECT_URI", "http://localhost:8000/auth/callback")
	v.SetDefault("GROQ_API_KEY", "")
	v.SetDefault("GROQ_MODEL", "")
	v.SetDefault("JWT_SECRET_KEY", "")
	v.SetDefault("JWT_EXPIRATION_HOURS", 24)
	v.SetDefault("GMAIL_RPS", 4)

	cfg := Config{
		ListenAddr:         v.GetString("LISTEN_ADDR"),
		Environment:        v.GetString("ENVIRONMENT"),
		FrontendURL:        v.GetString("FRONTEND_URL"),
		GoogleClientID:     v.GetString("GOOGLE_CLIENT_ID"),
		GoogleClientSecret: v.GetString("GOOGLE_CLIENT_SECRET"),
		GoogleRedirectURI:  v.GetString("GOOGLE_REDIRECT_URI"),
		GroqAPIKey:         v.GetString("GROQ_API_KEY"),
		GroqModel:          v.GetString("GROQ_MODEL"),
		JWTSecret:          v.GetString("JWT_SECRET_KEY"),
		JWTTTL:             time.Duration(v.GetInt("JWT_EXPIRATION_HOURS")) * time.Hour,
		GmailRPS:           v.GetInt("GMAIL_RPS"),
	}

	var missing []string
	if cfg.GoogleClientID == "" {
		missing = append(missing, "GOOGLE_CLIENT_ID")
	}
	if cfg.GoogleClientSecret == "" {
		missing = append(missing, "GOOGLE_CLIENT_SECRET")
	}
	if cfg.GroqAPIKey == "" {
		missing = append(missing, "GROQ_API_KEY")
	}
	if cfg.JWTSecret == "" {
		missing = append(missing, "JWT_SECRET_KEY")
	}
	if len(missing) > 0 {
		return Config{}, fmt.Errorf("missing required settings: %s", strings.Join(missing, ", "))
	}
	return cfg, nil
}
