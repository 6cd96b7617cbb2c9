package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"
)

// Server is the backend configuration, read from the environment.
type Server struct {
	Port     int
	DBPath   string
	LogLevel string

	JWTSecret string
	TokenTTL  time.Duration

	GitHubClientID     string
	GitHubClientSecret string
	GoogleClientID     string
	GoogleClientSecret string
	OAuthRedirectURL   string
}

var ErrMissingSecret = errors.New("JWT_SECRET must be set")

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

// ServerFromEnv reads the server settings.
func ServerFromEnv() (Server, error) {
	cfg := Server{
		DBPath:             getEnv("DB_PATH", "./data/worklog.db"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		JWTSecret:          os.Getenv("JWT_SECRET"),
		GitHubClientID:     os.Getenv("OAUTH_GITHUB_CLIENT_ID"),
		GitHubClientSecret: os.Getenv("OAUTH_GITHUB_CLIENT_SECRET"),
		GoogleClientID:     os.Getenv("OAUTH_GOOGLE_CLIENT_ID"),
		GoogleClientSecret: os.Getenv("OAUTH_GOOGLE_CLIENT_SECRET"),
		OAuthRedirectURL:   getEnv("OAUTH_REDIRECT_URL", "http://localhost:8080/oauth/callback"),
	}

	port, err := strconv.Atoi(getEnv("PORT", "8080"))
	if err != nil || port <= 0 || port > 65535 {
		return cfg, fmt.Errorf("invalid PORT %q", os.Getenv("PORT"))
	}
	cfg.Port = port

	ttl, err := time.ParseDuration(getEnv("TOKEN_TTL", "24h"))
	if err != nil || ttl <= 0 {
		return cfg, fmt.Errorf("invalid TOKEN_TTL %q", os.Getenv("TOKEN_TTL"))
	}
	cfg.TokenTTL = ttl

	if cfg.JWTSecret == "" {
		return cfg, ErrMissingSecret
	}
	return cfg, nil
}

// Addr is the listen address.
func (s Server) Addr() string {
	return fmt.Sprintf(":%d", s.Port)
}

// GitHubEnabled reports whether GitHub OAuth is configured.
func (s Server) GitHubEnabled() bool {
	return s.GitHubClientID != "" && s.GitHubClientSecret != ""
}

// GoogleEnabled reports whether Google OAuth is configured.
func (s Server) GoogleEnabled() bool {
	return s.GoogleClientID != "" && s.GoogleClientSecret != ""
}
