package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config represents the application configuration.
type Config struct {
	App         AppConfig         `envPrefix:"APP_"`
	EventsKafka EventsKafkaConfig `envPrefix:"EVENTS_KAFKA_"`
	Journal     JournalConfig     `envPrefix:"JOURNAL_"`
	Engine      EngineConfig      `envPrefix:"ENGINE_"`
}

// AppConfig represents the application configuration.
type AppConfig struct {
	Name        string `env:"NAME" envDefault:"limit-order-engine"`
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
}

// EventsKafkaConfig represents the Kafka configuration for lifecycle events.
// Publishing is disabled when Brokers is empty.
type EventsKafkaConfig struct {
	Brokers []string `env:"BROKERS" envSeparator:","`
	Topic   string   `env:"TOPIC" envDefault:"order-events"`
}

// JournalConfig represents the order-state journal configuration.
type JournalConfig struct {
	Dir string `env:"DIR" envDefault:"data/journal"`
}

// EngineConfig represents engine tuning options.
type EngineConfig struct {
	MailboxSize int `env:"MAILBOX_SIZE" envDefault:"64"`
	// BackendSwapShortfall controls how a backend-initiated swap resolves when
	// the pool quote does not cover the expected receive amount: "revert" keeps
	// the order active, "cancel" closes it.
	BackendSwapShortfall string `env:"BACKEND_SWAP_SHORTFALL" envDefault:"revert"`
	// FactoryOwner is the hex address holding the emergency authority. A
	// deterministic default is derived when unset.
	FactoryOwner string `env:"FACTORY_OWNER"`
}

// Load loads the configuration from the environment.
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return cfg, nil
}
