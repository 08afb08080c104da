package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// App holds runtime configuration derived from environment variables.
type App struct {
	DatabaseURL  string
	KafkaBrokers string
	Environment  string
	LogLevel     string

	APIPort     string
	CORSOrigins []string

	// HTTPPoolSize bounds the number of in-flight webhook deliveries
	// shared between the ET and ST pipelines.
	HTTPPoolSize int64
	// FetchInterval is how often the ET fetcher polls when idle.
	FetchInterval time.Duration
	// ScheduledTickInterval is parsed from ST_TICK_INTERVAL_SECONDS but not
	// read by the engine; the ST loop sleeps for its own built-in 60s.
	ScheduledTickInterval time.Duration
	// CronHorizon is parsed from CRON_HORIZON but not read by the engine;
	// the materializer keeps its own built-in horizon of 100 rows.
	CronHorizon int
	// BatchSize is parsed from BATCH_SIZE but not read by the engine; both
	// queues lease with their own built-in limit of 100.
	BatchSize int
	// DeliveryTimeout is parsed from DELIVERY_TIMEOUT_SECONDS but not read
	// by the engine; the pipeline's built-in default timeout is 60s.
	DeliveryTimeout time.Duration
}

// FromEnv loads the application configuration from environment variables,
// applying sensible defaults for anything unset.
func FromEnv() App {
	return App{
		DatabaseURL:  os.Getenv("DATABASE_URL"),
		KafkaBrokers: os.Getenv("KAFKA_BROKERS"),
		Environment:  getEnvOr("ENVIRONMENT", "production"),
		LogLevel:     getEnvOr("LOG_LEVEL", "info"),

		APIPort:     getEnvOr("ADMIN_HTTP_PORT", "8080"),
		CORSOrigins: parseCSV(getEnvOr("CORS_ORIGINS", "*")),

		HTTPPoolSize:          getEnvInt64Or("EVENTS_HTTP_POOL_SIZE", 100),
		FetchInterval:         time.Duration(getEnvInt64Or("EVENTS_FETCH_INTERVAL_MS", 1000)) * time.Millisecond,
		ScheduledTickInterval: time.Duration(getEnvInt64Or("ST_TICK_INTERVAL_SECONDS", 60)) * time.Second,
		CronHorizon:           int(getEnvInt64Or("CRON_HORIZON", 100)),
		BatchSize:             int(getEnvInt64Or("BATCH_SIZE", 100)),
		DeliveryTimeout:       time.Duration(getEnvInt64Or("DELIVERY_TIMEOUT_SECONDS", 60)) * time.Second,
	}
}

func getEnvOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt64Or(key string, fallback int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return fallback
	}
	return n
}

func parseCSV(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
