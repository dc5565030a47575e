// Package config manages environment variables.
//
// It reads variables from the process environment (optionally seeded from a
// `.env` file), loads them into structured Go types, and validates that
// required values are present so they can be reused across the application
// runtime.
//
// Responsibilities:
//   - Load environment variables (optionally from a `.env` file).
//   - Map env vars into a structured Go config (structs).
//   - Validate required values so the app fails fast on bad/missing config.
//   - Provide sane defaults for optional config blocks (e.g. observability).
package config

import (
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	// Side-effect import: loads a `.env` file into the process env, if one
	// exists, before any env vars are read.
	_ "github.com/joho/godotenv/autoload"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
	"github.com/rs/zerolog"
)

// Config is the root configuration object for the application.
//
// The `koanf:"..."` tags specify where koanf should map values from.
// The `validate:"required"` tags are used by go-playground/validator
// to enforce that the config is present and populated.
//
// Env vars are read with the TUTORIAPP_ prefix and mapped to nested keys via
// "." nesting, e.g. TUTORIAPP_SERVER.PORT -> server.port -> Config.Server.Port.
//
// Observability is a pointer because it is optional. If not provided,
// defaults are injected at load time.
type Config struct {
	Primary       Primary              `koanf:"primary" validate:"required"`
	Server        ServerConfig         `koanf:"server" validate:"required"`
	Database      DatabaseConfig       `koanf:"database" validate:"required"`
	Redis         RedisConfig          `koanf:"redis" validate:"required"`
	Auth          AuthConfig           `koanf:"auth" validate:"required"`
	Integration   IntegrationConfig    `koanf:"integration"`
	Observability *ObservabilityConfig `koanf:"observability"`
}

// Primary holds top-level information about the runtime environment.
// Usually used to tag logs/traces and switch behavior based on env.
type Primary struct {
	Env string `koanf:"env" validate:"required"`
}

// ServerConfig groups settings for the HTTP server runtime.
// Timeouts are whole seconds.
type ServerConfig struct {
	Port               string   `koanf:"port" validate:"required"`
	ReadTimeout        int      `koanf:"read_timeout" validate:"required"`
	WriteTimeout       int      `koanf:"write_timeout" validate:"required"`
	IdleTimeout        int      `koanf:"idle_timeout" validate:"required"`
	CORSAllowedOrigins []string `koanf:"cors_allowed_origins" validate:"required"`
}

// DatabaseConfig contains PostgreSQL connection parameters plus the knobs for
// the runner that serializes all database work onto a single connection.
//
// RunnerStartTimeout bounds the wait for the runner's worker goroutine to
// come up; RunnerStopTimeout bounds the drain-and-join at shutdown. Both are
// whole seconds. Migrate applies any pending schema migrations during boot.
type DatabaseConfig struct {
	Host               string `koanf:"host" validate:"required"`
	Port               int    `koanf:"port" validate:"required"`
	User               string `koanf:"user" validate:"required"`
	Password           string `koanf:"password" validate:"required"`
	Name               string `koanf:"name" validate:"required"`
	SSLMode            string `koanf:"ssl_mode" validate:"required"`
	ConnectTimeout     int    `koanf:"connect_timeout" validate:"required"`
	RunnerStartTimeout int    `koanf:"runner_start_timeout" validate:"required"`
	RunnerStopTimeout  int    `koanf:"runner_stop_timeout" validate:"required"`
	Migrate            bool   `koanf:"migrate"`
}

// RedisConfig contains Redis connection details.
// Address is typically "host:port".
type RedisConfig struct {
	Address string `koanf:"address" validate:"required"`
}

// AuthConfig stores authentication settings. SecretKey signs the HS256
// session tokens; TokenTTL is the token lifetime in whole minutes.
type AuthConfig struct {
	SecretKey string `koanf:"secret_key" validate:"required"`
	TokenTTL  int    `koanf:"token_ttl" validate:"required"`
}

// IntegrationConfig stores credentials for third-party services.
// ResendAPIKey may be empty, in which case outbound email is disabled.
type IntegrationConfig struct {
	ResendAPIKey string `koanf:"resend_api_key"`
}

// New loads configuration from environment variables, unmarshals it into
// Config structs, validates it, applies defaults, and returns the result.
//
// Behavior summary:
//   - Loads env vars with prefix TUTORIAPP_
//   - Converts env keys into koanf keys using "." nesting
//   - Unmarshals into Config
//   - Validates required config blocks/fields
//   - Sets default observability if missing
//   - Overrides observability service name + environment
//   - Validates observability config as well
//
// NOTE: bad or missing configuration logs fatally and exits the process;
// there is no point continuing to boot without it.
func New() (*Config, error) {
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	// "." is the key-path delimiter koanf uses to represent nesting,
	// so "server.port" means Config.Server.Port.
	k := koanf.New(".")

	// Only env vars carrying the TUTORIAPP_ prefix are read; the mapping
	// function strips the prefix and lowercases the remainder, so
	// TUTORIAPP_DATABASE.HOST becomes "database.host".
	err := k.Load(env.Provider("TUTORIAPP_", ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, "TUTORIAPP_"))
	}), nil)
	if err != nil {
		logger.Fatal().Err(err).Msg("Could not load initial env variables.")
	}

	mainConfig := &Config{}

	// Unmarshal from the root ("") so the whole key tree is decoded.
	err = k.Unmarshal("", mainConfig)
	if err != nil {
		logger.Fatal().Err(err).Msg("Could not unmarshal main config.")
	}

	validate := validator.New()

	err = validate.Struct(mainConfig)
	if err != nil {
		logger.Fatal().Err(err).Msg("Config validation failed.")
	}

	// Observability is a pointer field, so nil means "missing".
	if mainConfig.Observability == nil {
		mainConfig.Observability = DefaultObservabilityConfig()
	}

	// Force service name and environment regardless of what was set, so
	// tracing and logging see consistent service naming.
	mainConfig.Observability.ServiceName = "tutoriapp"
	mainConfig.Observability.Environment = mainConfig.Primary.Env

	if err := mainConfig.Observability.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid observability config")
	}

	return mainConfig, nil
}
