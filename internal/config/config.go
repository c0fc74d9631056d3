package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Common contains Elasticsearch parameters shared by every service.
type Common struct {
	ElasticsearchAddr string
	IndexPrefix       string
}

// API describes the HTTP search surface. Debounce only applies to
// interactive sessions driven through SetSearchTerm; the /search endpoint
// runs one-shot queries.
type API struct {
	Common
	BindAddr      string
	Debounce      time.Duration
	SearchLimit   int
	LookupTimeout time.Duration
	RateLimit     float64
	RateBurst     int
	CORSOrigins   []string
}

// Worker holds configuration for the Kafka -> Elasticsearch content worker.
type Worker struct {
	Common
	KafkaBrokers   []string
	ContentTopic   string
	KafkaConsumer  string
	DedupeCapacity int
	DedupeTTL      time.Duration
	DedupeRedis    string
	BatchSize      int
}

// Retention configures the archived-content purge loop.
type Retention struct {
	Common
	Interval  time.Duration
	MaxAge    time.Duration
	BatchSize int
}

func loadCommon() Common {
	return Common{
		ElasticsearchAddr: getEnv("ELASTICSEARCH_ADDR", "http://elasticsearch:9200"),
		IndexPrefix:       getEnv("ELASTICSEARCH_INDEX_PREFIX", "content"),
	}
}

// LoadAPI builds an API config from environment variables.
func LoadAPI() (*API, error) {
	c := &API{
		Common:        loadCommon(),
		BindAddr:      getEnv("API_BIND_ADDR", "0.0.0.0:8080"),
		Debounce:      getDuration("SEARCH_DEBOUNCE", "300ms"),
		SearchLimit:   getInt("SEARCH_LIMIT", 10),
		LookupTimeout: getDuration("SEARCH_LOOKUP_TIMEOUT", "8s"),
		RateLimit:     getFloat("API_RATE_LIMIT", 20),
		RateBurst:     getInt("API_RATE_BURST", 40),
		CORSOrigins:   splitAndTrim(getEnv("API_CORS_ORIGINS", "*")),
	}

	if c.SearchLimit <= 0 {
		return nil, fmt.Errorf("SEARCH_LIMIT must be positive")
	}
	if c.Debounce <= 0 {
		return nil, fmt.Errorf("SEARCH_DEBOUNCE must be positive")
	}
	if c.LookupTimeout <= 0 {
		return nil, fmt.Errorf("SEARCH_LOOKUP_TIMEOUT must be positive")
	}
	if c.RateLimit < 0 {
		return nil, fmt.Errorf("API_RATE_LIMIT cannot be negative")
	}
	if c.RateLimit > 0 && c.RateBurst <= 0 {
		return nil, fmt.Errorf("API_RATE_BURST must be positive when rate limiting is enabled")
	}

	return c, nil
}

// LoadWorker builds a Worker config from environment variables.
func LoadWorker() (*Worker, error) {
	c := &Worker{
		Common:         loadCommon(),
		KafkaBrokers:   splitAndTrim(getEnv("KAFKA_BROKERS", "kafka:9092")),
		ContentTopic:   getEnv("CONTENT_TOPIC", "content_changes"),
		KafkaConsumer:  getEnv("KAFKA_CONSUMER_GROUP", "content-indexer"),
		DedupeCapacity: getInt("WORKER_DEDUPE_CAPACITY", 20000),
		DedupeTTL:      getDuration("WORKER_DEDUPE_TTL", "24h"),
		DedupeRedis:    getEnv("WORKER_DEDUPE_REDIS_ADDR", ""),
		BatchSize:      getInt("WORKER_BATCH_SIZE", 10),
	}

	if len(c.KafkaBrokers) == 0 {
		return nil, fmt.Errorf("KAFKA_BROKERS must contain at least one broker")
	}
	if c.BatchSize <= 0 {
		return nil, fmt.Errorf("WORKER_BATCH_SIZE must be positive")
	}
	if c.DedupeCapacity <= 0 {
		return nil, fmt.Errorf("WORKER_DEDUPE_CAPACITY must be positive")
	}

	return c, nil
}

// LoadRetention builds a Retention config from environment variables.
func LoadRetention() (*Retention, error) {
	c := &Retention{
		Common:    loadCommon(),
		Interval:  getDuration("RETENTION_CRON", "24h"),
		MaxAge:    getDuration("RETENTION_MAX_AGE", "720h"),
		BatchSize: getInt("RETENTION_BATCH_SIZE", 500),
	}

	if c.MaxAge <= 0 {
		return nil, fmt.Errorf("RETENTION_MAX_AGE must be positive")
	}
	if c.Interval <= 0 {
		return nil, fmt.Errorf("RETENTION_CRON must be positive")
	}
	if c.BatchSize <= 0 {
		return nil, fmt.Errorf("RETENTION_BATCH_SIZE must be positive")
	}

	return c, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			return parsed
		}
	}
	return fallback
}

func getFloat(key string, fallback float64) float64 {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if parsed, err := strconv.ParseFloat(v, 64); err == nil {
			return parsed
		}
	}
	return fallback
}

func getDuration(key, fallback string) time.Duration {
	d, err := time.ParseDuration(getEnv(key, fallback))
	if err == nil {
		return d
	}
	fd, ferr := time.ParseDuration(fallback)
	if ferr != nil {
		panic(fmt.Sprintf("invalid fallback duration %q: %v", fallback, ferr))
	}
	return fd
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
