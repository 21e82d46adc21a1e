// Package config loads service configuration from environment variables.
// Every value has a default; invalid values fall back to the default.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Service       ServiceConfig
	Mongo         MongoConfig
	Azure         AzureConfig
	Kafka         KafkaConfig
	Retry         RetryConfig
	Observability ObservabilityConfig
}

type ServiceConfig struct {
	Port      string
	Env       string
	Principal string
}

type MongoConfig struct {
	URI      string
	Database string
}

type AzureConfig struct {
	Key       string
	Region    string
	Languages []string
}

type KafkaConfig struct {
	Enabled      bool
	Brokers      []string
	TopicPartial string
	TopicFinal   string
	Principal    string
}

type RetryConfig struct {
	MaxAttempts int
	BaseDelay   time.Duration
}

type ObservabilityConfig struct {
	LogLevel  string
	LogFormat string
}

func Load() *Config {
	principal := envOrDefault("SERVICE_PRINCIPAL", "svc-transcription")

	return &Config{
		Service: ServiceConfig{
			Port:      envOrDefault("PORT", "3000"),
			Env:       envOrDefault("NODE_ENV", "production"),
			Principal: principal,
		},
		Mongo: MongoConfig{
			URI:      os.Getenv("MONGODB_URI"),
			Database: envOrDefault("MONGODB_DATABASE", "transcriptions"),
		},
		Azure: AzureConfig{
			Key:       os.Getenv("AZURE_API_KEY"),
			Region:    os.Getenv("AZURE_REGION"),
			Languages: envOrDefaultList("AZURE_LANGUAGES", nil),
		},
		Kafka: KafkaConfig{
			Enabled:      envOrDefaultBool("KAFKA_ENABLED", false),
			Brokers:      envOrDefaultList("KAFKA_BROKERS", nil),
			TopicPartial: envOrDefault("KAFKA_TOPIC_PARTIAL", "transcripts.partial"),
			TopicFinal:   envOrDefault("KAFKA_TOPIC_FINAL", "transcripts.final"),
			Principal:    envOrDefault("KAFKA_PRINCIPAL", principal),
		},
		Retry: RetryConfig{
			MaxAttempts: envOrDefaultInt("FETCH_MAX_ATTEMPTS", 3),
			BaseDelay:   envOrDefaultDuration("FETCH_BASE_DELAY", time.Second),
		},
		Observability: ObservabilityConfig{
			LogLevel:  envOrDefault("LOG_LEVEL", "info"),
			LogFormat: envOrDefault("LOG_FORMAT", "json"),
		},
	}
}

// Dev reports whether the service runs in development mode. Error responses
// include internal detail only in this mode.
func (c *Config) Dev() bool {
	return c.Service.Env == "development"
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envOrDefaultInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func envOrDefaultBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(strings.ToLower(v))
	if err != nil {
		return def
	}
	return b
}

func envOrDefaultDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}

func envOrDefaultList(key string, def []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}
