// Package config handles application configuration from environment variables.
package config

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"os"
)

// Config holds the application configuration.
type Config struct {
	ListenAddr   string
	DatabasePath string
	LogLevel     string
	SecretKey    string
	BaseURL      string
}

// Load reads configuration from environment variables. When SECRET_KEY
// is unset a random one is generated, which invalidates existing tokens
// on restart.
func Load() (*Config, error) {
	addr := os.Getenv("LISTEN_ADDR")
	if addr == "" {
		addr = ":8000"
	}

	dbPath := os.Getenv("DATABASE_PATH")
	if dbPath == "" {
		dbPath = "./data/podfilter.db"
	}

	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}

	baseURL := os.Getenv("BASE_URL")
	if baseURL == "" {
		baseURL = "http://localhost:8000"
	}

	secret := os.Getenv("SECRET_KEY")
	if secret == "" {
		generated, err := randomSecret()
		if err != nil {
			return nil, fmt.Errorf("generate secret key: %w", err)
		}
		secret = generated
	}

	return &Config{
		ListenAddr:   addr,
		DatabasePath: dbPath,
		LogLevel:     logLevel,
		SecretKey:    secret,
		BaseURL:      baseURL,
	}, nil
}

func randomSecret() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
