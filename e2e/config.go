package e2e

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	// CHAT_ADDR is the TCP address of a running server, the suites are skipped when empty
	ChatAddr string `envconfig:"CHAT_ADDR"`
	// GRPC_HEALTH_ADDR is the health endpoint of the same server, optional
	HealthAddr string `envconfig:"GRPC_HEALTH_ADDR"`
	// E2E_DEBUG_JSON allows dumping full gRPC request/response bodies as JSON
	DebugJSON bool `envconfig:"E2E_DEBUG_JSON" default:"false"`
	// E2E_COLOURS enables colorized output for better log readability
	Colours bool          `envconfig:"E2E_COLOURS" default:"true"`
	Timeout time.Duration `envconfig:"E2E_TIMEOUT" default:"3s"`
}

func LoadConfig() (Config, error) {
	var cfg Config
	err := envconfig.Process("", &cfg)
	return cfg, err
}
