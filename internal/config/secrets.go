package config

import (
	"errors"
	"fmt"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// ErrMissingSecrets is returned when a required API key is absent from the environment.
var ErrMissingSecrets = errors.New("missing PINECONE_API_KEY or EURON_API_KEY in environment variables")

// Secrets holds values that never live in the YAML file.
type Secrets struct {
	PineconeAPIKey string `env:"PINECONE_API_KEY,notEmpty"`
	EuronAPIKey    string `env:"EURON_API_KEY,notEmpty"`

	Port       string `env:"PORT"`
	ConfigPath string `env:"CONFIG_PATH"`
}

// LoadSecrets loads .env (when present) and parses the process environment.
func LoadSecrets() (*Secrets, error) {
	_ = godotenv.Load()
	return ParseSecrets()
}

// ParseSecrets reads secrets from the process environment only.
func ParseSecrets() (*Secrets, error) {
	var s Secrets
	if err := env.Parse(&s); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMissingSecrets, err)
	}
	return &s, nil
}

// ListenAddr returns the web listen address, letting PORT override the config.
func (s *Secrets) ListenAddr(cfg ServerConfig) string {
	if s != nil && s.Port != "" {
		return ":" + s.Port
	}
	return cfg.Addr
}
