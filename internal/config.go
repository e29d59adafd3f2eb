package internal

import (
	"fmt"
	"strings"
	"time"

	"github.com/Netflix/go-env"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/samber/lo"
)

type Config struct {
	Host              string        `env:"HOST,default=0.0.0.0" validate:"required"`
	Port              int           `env:"PORT,default=5050" validate:"min=0,max=65535"`
	LogLevel          string        `env:"LOG_LEVEL,default=INFO" validate:"oneof=DEBUG INFO WARN ERROR debug info warn error"`
	OutboundQueueSize int           `env:"OUTBOUND_QUEUE_SIZE,default=256" validate:"min=0"`
	MaxLineBytes      int           `env:"MAX_LINE_BYTES,default=65536" validate:"min=64"`
	AnnounceStartup   bool          `env:"ANNOUNCE_STARTUP,default=true"`
	EventBufferSize   int           `env:"EVENT_BUFFER_SIZE,default=1024" validate:"min=1"`
	SinkTimeout       time.Duration `env:"SINK_TIMEOUT,default=2s" validate:"gt=0"`
	RestartInterval   time.Duration `env:"RESTART_INTERVAL,default=200ms" validate:"gt=0"`
	MetricInterval    time.Duration `env:"METRIC_INTERVAL,default=30s" validate:"gt=0"`
	ShutdownTimeout   time.Duration `env:"SHUTDOWN_TIMEOUT,default=5s" validate:"gt=0"`
	DrainTimeout      time.Duration `env:"DRAIN_TIMEOUT,default=5s" validate:"gt=0"`
	HTTPPort          int           `env:"HTTP_PORT,default=0" validate:"min=0,max=65535"`
	GRPCHealthPort    int           `env:"GRPC_HEALTH_PORT,default=0" validate:"min=0,max=65535"`
	InspectPort       int           `env:"INSPECT_PORT,default=0" validate:"min=0,max=65535"`
	BadgerFilepath    string        `env:"BADGER_FILEPATH"`
	CensoredWords     string        `env:"CENSORED_WORDS"`
	CharReplacement   string        `env:"CHARACTER_REPLACEMENT,default=*" validate:"required"`
}

// LoadConfig reads a .env file when present, then the environment.
func LoadConfig() (Config, error) {
	// A missing .env is the normal case in production.
	_ = godotenv.Load()

	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return Config{}, fmt.Errorf("config error: %w", err)
	}
	if err := validator.New().Struct(config); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	if _, err := CharacterRune(config.CharReplacement); err != nil {
		return Config{}, err
	}
	return config, nil
}

func (c Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Words splits CENSORED_WORDS on commas, blanks removed.
func (c Config) Words() []string {
	words := lo.Map(strings.Split(c.CensoredWords, ","), func(item string, _ int) string {
		return strings.TrimSpace(item)
	})
	return lo.Uniq(lo.Compact(words))
}

func CharacterRune(str string) (rune, error) {
	r := []rune(str)
	if len(r) != 1 {
		return 0, fmt.Errorf(
			"CHARACTER_REPLACEMENT must be a single character, got %q",
			str,
		)
	}
	return r[0], nil
}
