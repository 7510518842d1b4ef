package main

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	// WSCLIENT_URL is the full endpoint, e.g. ws://localhost:8000/ws/comments/
	URL string `envconfig:"WSCLIENT_URL" default:"ws://localhost:8000/ws/comments/"`
	// JWT_SECRET mints a token for WSCLIENT_USER_ID when the server requires one
	JwtSecret string        `envconfig:"JWT_SECRET"`
	UserID    string        `envconfig:"WSCLIENT_USER_ID" default:"1"`
	TokenTTL  time.Duration `envconfig:"WSCLIENT_TOKEN_TTL" default:"1h"`
	Colours   bool          `envconfig:"WSCLIENT_COLOURS" default:"true"`
}

func LoadConfig() (Config, error) {
	var cfg Config
	err := envconfig.Process("", &cfg)
	return cfg, err
}
