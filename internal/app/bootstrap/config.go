package bootstrap

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	ServiceID string

	HTTPPort int
	GRPCPort int

	DatabaseURL  string
	RedisURL     string
	KafkaBrokers []string
	KafkaTopic   string
	MaxDBConns   int32

	ProcessorBaseURL     string
	ProcessorAPIKey      string
	WebhookSigningSecret string
	WebhookTolerance     time.Duration
	JWTSecret            string

	FeeBasisPoints   int64
	DefaultCurrency  string
	IntentTimeout    time.Duration
	TransferTimeout  time.Duration
	IdempotencyTTL   time.Duration
	EventDedupTTL    time.Duration
	StatusCacheTTL   time.Duration
	ReconcilePending bool

	OutboxPollInterval time.Duration
	OutboxBatchSize    int
}

type configFile struct {
	Service struct {
		ID       string `yaml:"id"`
		HTTPPort int    `yaml:"http_port"`
		GRPCPort int    `yaml:"grpc_port"`
	} `yaml:"service"`
	Dependencies struct {
		PostgresURL      string   `yaml:"postgres_url"`
		RedisURL         string   `yaml:"redis_url"`
		KafkaBrokers     []string `yaml:"kafka_brokers"`
		KafkaTopic       string   `yaml:"kafka_topic"`
		ProcessorBaseURL string   `yaml:"processor_base_url"`
	} `yaml:"dependencies"`
	Settlement struct {
		FeeBasisPoints      int64  `yaml:"fee_basis_points"`
		DefaultCurrency     string `yaml:"default_currency"`
		IntentTimeoutSec    int    `yaml:"intent_timeout_seconds"`
		TransferTimeoutSec  int    `yaml:"transfer_timeout_seconds"`
		IdempotencyTTLHours int    `yaml:"idempotency_ttl_hours"`
		EventDedupTTLHours  int    `yaml:"event_dedup_ttl_hours"`
		StatusCacheSeconds  int    `yaml:"status_cache_seconds"`
		ReconcilePending    *bool  `yaml:"reconcile_pending"`
		WebhookToleranceSec int    `yaml:"webhook_tolerance_seconds"`
	} `yaml:"settlement"`
}

func LoadConfig(path string) (Config, error) {
	cfg := Config{
		ServiceID:          "settlement-service",
		HTTPPort:           8080,
		GRPCPort:           9090,
		MaxDBConns:         20,
		KafkaTopic:         "payment.events",
		WebhookTolerance:   5 * time.Minute,
		FeeBasisPoints:     1000,
		DefaultCurrency:    "USD",
		IntentTimeout:      10 * time.Second,
		TransferTimeout:    15 * time.Second,
		IdempotencyTTL:     24 * time.Hour,
		EventDedupTTL:      7 * 24 * time.Hour,
		StatusCacheTTL:     30 * time.Second,
		ReconcilePending:   true,
		OutboxPollInterval: 2 * time.Second,
		OutboxBatchSize:    100,
	}

	raw, err := os.ReadFile(path)
	if err == nil {
		var f configFile
		if unmarshalErr := yaml.Unmarshal(raw, &f); unmarshalErr != nil {
			return Config{}, fmt.Errorf("parse config file: %w", unmarshalErr)
		}
		if f.Service.ID != "" {
			cfg.ServiceID = f.Service.ID
		}
		if f.Service.HTTPPort > 0 {
			cfg.HTTPPort = f.Service.HTTPPort
		}
		if f.Service.GRPCPort > 0 {
			cfg.GRPCPort = f.Service.GRPCPort
		}
		if f.Dependencies.PostgresURL != "" {
			cfg.DatabaseURL = f.Dependencies.PostgresURL
		}
		if f.Dependencies.RedisURL != "" {
			cfg.RedisURL = f.Dependencies.RedisURL
		}
		if len(f.Dependencies.KafkaBrokers) > 0 {
			cfg.KafkaBrokers = trimNonEmpty(f.Dependencies.KafkaBrokers)
		}
		if f.Dependencies.KafkaTopic != "" {
			cfg.KafkaTopic = f.Dependencies.KafkaTopic
		}
		if f.Dependencies.ProcessorBaseURL != "" {
			cfg.ProcessorBaseURL = f.Dependencies.ProcessorBaseURL
		}
		if f.Settlement.FeeBasisPoints > 0 {
			cfg.FeeBasisPoints = f.Settlement.FeeBasisPoints
		}
		if f.Settlement.DefaultCurrency != "" {
			cfg.DefaultCurrency = f.Settlement.DefaultCurrency
		}
		if f.Settlement.IntentTimeoutSec > 0 {
			cfg.IntentTimeout = time.Duration(f.Settlement.IntentTimeoutSec) * time.Second
		}
		if f.Settlement.TransferTimeoutSec > 0 {
			cfg.TransferTimeout = time.Duration(f.Settlement.TransferTimeoutSec) * time.Second
		}
		if f.Settlement.IdempotencyTTLHours > 0 {
			cfg.IdempotencyTTL = time.Duration(f.Settlement.IdempotencyTTLHours) * time.Hour
		}
		if f.Settlement.EventDedupTTLHours > 0 {
			cfg.EventDedupTTL = time.Duration(f.Settlement.EventDedupTTLHours) * time.Hour
		}
		if f.Settlement.StatusCacheSeconds > 0 {
			cfg.StatusCacheTTL = time.Duration(f.Settlement.StatusCacheSeconds) * time.Second
		}
		if f.Settlement.ReconcilePending != nil {
			cfg.ReconcilePending = *f.Settlement.ReconcilePending
		}
		if f.Settlement.WebhookToleranceSec > 0 {
			cfg.WebhookTolerance = time.Duration(f.Settlement.WebhookToleranceSec) * time.Second
		}
	}

	cfg.DatabaseURL = envOrDefault("DB_URL", envOrDefault("POSTGRES_URL", cfg.DatabaseURL))
	cfg.RedisURL = envOrDefault("REDIS_URL", cfg.RedisURL)
	cfg.KafkaBrokers = envCSV("KAFKA_BROKERS", cfg.KafkaBrokers)
	cfg.KafkaTopic = envOrDefault("KAFKA_TOPIC_PAYMENT_EVENTS", cfg.KafkaTopic)
	cfg.ProcessorBaseURL = envOrDefault("PROCESSOR_BASE_URL", cfg.ProcessorBaseURL)
	cfg.ProcessorAPIKey = envOrDefault("PROCESSOR_API_KEY", cfg.ProcessorAPIKey)
	cfg.WebhookSigningSecret = envOrDefault("WEBHOOK_SIGNING_SECRET", cfg.WebhookSigningSecret)
	cfg.JWTSecret = envOrDefault("JWT_SECRET", cfg.JWTSecret)
	cfg.HTTPPort = envInt("HTTP_PORT", cfg.HTTPPort)
	cfg.GRPCPort = envInt("GRPC_PORT", cfg.GRPCPort)
	cfg.MaxDBConns = int32(envInt("DB_MAX_CONNS", int(cfg.MaxDBConns)))
	cfg.FeeBasisPoints = int64(envInt("FEE_BASIS_POINTS", int(cfg.FeeBasisPoints)))
	cfg.DefaultCurrency = envOrDefault("DEFAULT_CURRENCY", cfg.DefaultCurrency)
	cfg.ReconcilePending = envBool("RECONCILE_PENDING", cfg.ReconcilePending)
	cfg.OutboxPollInterval = time.Duration(envInt("OUTBOX_POLL_SECONDS", int(cfg.OutboxPollInterval.Seconds()))) * time.Second
	cfg.OutboxBatchSize = envInt("OUTBOX_BATCH_SIZE", cfg.OutboxBatchSize)

	if cfg.DatabaseURL == "" {
		return Config{}, fmt.Errorf("missing DB_URL/POSTGRES_URL")
	}
	if cfg.WebhookSigningSecret == "" {
		return Config{}, fmt.Errorf("missing WEBHOOK_SIGNING_SECRET")
	}
	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("missing JWT_SECRET")
	}
	if cfg.FeeBasisPoints <= 0 || cfg.FeeBasisPoints > 10000 {
		return Config{}, fmt.Errorf("fee basis points out of range: %d", cfg.FeeBasisPoints)
	}
	return cfg, nil
}

func envOrDefault(name, fallback string) string {
	if value := os.Getenv(name); value != "" {
		return value
	}
	return fallback
}

func envInt(name string, fallback int) int {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}

func envBool(name string, fallback bool) bool {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return fallback
	}
	return v
}

func envCSV(name string, fallback []string) []string {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback
	}
	return trimNonEmpty(strings.Split(raw, ","))
}

func trimNonEmpty(values []string) []string {
	out := make([]string, 0, len(values))
	for _, value := range values {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
