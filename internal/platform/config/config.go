package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config is centralized process configuration.
// Keep infra values here and pass typed config into builders.
type Config struct {
	ServiceName  string
	HTTPPort     string
	PostgresDSN  string
	KafkaBrokers []string

	SweepInterval  time.Duration
	SweepBatchSize int
	RelayInterval  time.Duration
	IdempotencyTTL time.Duration

	EnableEscalationSweep      bool
	EnableOutboxRelay          bool
	EnableNotificationConsumer bool
}

func Load() (Config, error) {
	service := os.Getenv("SERVICE_NAME")
	if service == "" {
		service = "caseflow"
	}

	port := os.Getenv("HTTP_PORT")
	if port == "" {
		port = "8080"
	}

	var brokers []string
	for _, value := range strings.Split(os.Getenv("KAFKA_BROKERS"), ",") {
		value = strings.TrimSpace(value)
		if value != "" {
			brokers = append(brokers, value)
		}
	}
	if len(brokers) == 0 {
		brokers = []string{"localhost:9092"}
	}

	return Config{
		ServiceName:  service,
		HTTPPort:     port,
		PostgresDSN:  os.Getenv("POSTGRES_DSN"),
		KafkaBrokers: brokers,

		SweepInterval:  envDuration("SWEEP_INTERVAL", time.Minute),
		SweepBatchSize: envInt("SWEEP_BATCH_SIZE", 200),
		RelayInterval:  envDuration("OUTBOX_RELAY_INTERVAL", 5*time.Second),
		IdempotencyTTL: envDuration("IDEMPOTENCY_TTL", 7*24*time.Hour),

		EnableEscalationSweep:      envBool("ENABLE_ESCALATION_SWEEP", true),
		EnableOutboxRelay:          envBool("ENABLE_OUTBOX_RELAY", true),
		EnableNotificationConsumer: envBool("ENABLE_NOTIFICATION_CONSUMER", true),
	}, nil
}

func envBool(name string, fallback bool) bool {
	raw := strings.TrimSpace(strings.ToLower(os.Getenv(name)))
	if raw == "" {
		return fallback
	}
	switch raw {
	case "1", "true", "t", "yes", "y", "on":
		return true
	case "0", "false", "f", "no", "n", "off":
		return false
	default:
		return fallback
	}
}

func envInt(name string, fallback int) int {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil || parsed <= 0 {
		return fallback
	}
	return parsed
}

func envDuration(name string, fallback time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil || parsed <= 0 {
		return fallback
	}
	return parsed
}
