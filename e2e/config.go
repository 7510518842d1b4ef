package e2e

import (
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	// E2E_WS_ADDR is the host:port of a running server, the suite is skipped when empty
	WsAddr   string `envconfig:"E2E_WS_ADDR"`
	GrpcAddr string `envconfig:"E2E_GRPC_ADDR"`
	// JWT_SECRET must match the server when its auth gate is enabled
	JwtSecret string `envconfig:"JWT_SECRET"`
	// E2E_MEMBER_ID is a user seeded in the server store
	MemberID int64 `envconfig:"E2E_MEMBER_ID" default:"1"`
	// E2E_DEBUG_JSON dumps every frame exchanged
	DebugJSON bool `envconfig:"E2E_DEBUG_JSON" default:"false"`
	// E2E_COLOURS enables colorized output for better log readability
	Colours bool `envconfig:"E2E_COLOURS" default:"true"`
}

func LoadConfig() (Config, error) {
	var cfg Config
	err := envconfig.Process("", &cfg)
	return cfg, err
}
