// Package config loads service configuration from the environment so main
// stays lean.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config captures everything the server needs to wire itself.
type Config struct {
	// Addr is the HTTP listen address.
	Addr string `env:"FEDREG_ADDR" envDefault:":8080"`

	// PostgresDSN selects the persistent record store. Empty means the
	// in-memory store (development and tests).
	PostgresDSN string `env:"FEDREG_POSTGRES_DSN"`

	// RedisURL enables the api-key lookup cache when set.
	RedisURL string `env:"FEDREG_REDIS_URL"`

	// KafkaBrokers and KafkaTopic select the Kafka notification sink. When
	// no brokers are configured, notifications go to the log sink.
	KafkaBrokers []string `env:"FEDREG_KAFKA_BROKERS" envSeparator:","`
	KafkaTopic   string   `env:"FEDREG_KAFKA_TOPIC" envDefault:"fedreg.notifications"`

	// DiscordToken authenticates the identity verifier against the Discord
	// REST API. Empty disables verification (every id resolves), which is
	// only acceptable for local development.
	DiscordToken string `env:"FEDREG_DISCORD_TOKEN"`

	// MasterAPIKey, when set, is seeded into the auth store at boot so the
	// master-gated lifecycle operations are reachable on a fresh install.
	MasterAPIKey string `env:"FEDREG_MASTER_API_KEY"`

	// BroadcastInterval is the pacing delay between notification emissions
	// within one broadcast.
	BroadcastInterval time.Duration `env:"FEDREG_BROADCAST_INTERVAL" envDefault:"100ms"`
}

// FromEnv parses the configuration from environment variables.
func FromEnv() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}
