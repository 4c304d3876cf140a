package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all service settings, populated from environment variables.
// The required fields are credentials and store coordinates; everything
// else has a sensible default.
type Config struct {
	// Article search API.
	NewsAPIKey      string
	NewsAPIEndpoint string
	NewsAPIPageSize int
	NewsAPITimeout  time.Duration

	// Geocoding service.
	GeocodeEndpoint  string
	GeocodeUserAgent string
	GeocodeTimeout   time.Duration
	GeocodeInterval  time.Duration
	GeocodeCacheSize int

	// Persistent store.
	MongoURI               string
	DBName                 string
	ArticleCollection      string
	SubscriptionCollection string
	DeliveryCollection     string

	// Outbound mail.
	EmailSender   string
	EmailPassword string
	SMTPHost      string
	SMTPPort      int

	// Optional record feed. Empty brokers disable publishing.
	KafkaBrokers   []string
	KafkaSinkTopic string

	// Cycle scheduling.
	FetchInterval time.Duration
	AlertInterval time.Duration
	AlertWindow   time.Duration
	QueryCacheTTL time.Duration

	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration
}

// requiredVars are the settings without which no cycle can succeed. A
// missing value is a configuration error raised here, not at point of use.
var requiredVars = []string{
	"NEWSAPI_KEY",
	"MONGO_URI",
	"DB_NAME",
	"ARTICLE_COLLECTION",
	"SUBSCRIPTION_COLLECTION",
	"EMAIL_SENDER",
	"EMAIL_PASSWORD",
}

// Load reads configuration from environment variables, applying defaults
// where unset and failing fast on any missing required variable.
func Load() (*Config, error) {
	for _, name := range requiredVars {
		if os.Getenv(name) == "" {
			return nil, fmt.Errorf("%s is required", name)
		}
	}

	newsTimeout, err := envDuration("NEWSAPI_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, err
	}
	geoTimeout, err := envDuration("GEOCODE_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, err
	}
	geoInterval, err := envDuration("GEOCODE_INTERVAL", time.Second)
	if err != nil {
		return nil, err
	}
	fetchInterval, err := envDuration("FETCH_INTERVAL", 30*time.Minute)
	if err != nil {
		return nil, err
	}
	alertInterval, err := envDuration("ALERT_INTERVAL", 5*time.Minute)
	if err != nil {
		return nil, err
	}
	alertWindow, err := envDuration("ALERT_WINDOW", 30*time.Minute)
	if err != nil {
		return nil, err
	}
	cacheTTL, err := envDuration("QUERY_CACHE_TTL", 10*time.Minute)
	if err != nil {
		return nil, err
	}
	shutdownTimeout, err := envDuration("SHUTDOWN_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, err
	}

	pageSize, err := envInt("NEWSAPI_PAGE_SIZE", 30)
	if err != nil {
		return nil, err
	}
	if pageSize < 1 || pageSize > 100 {
		return nil, fmt.Errorf("NEWSAPI_PAGE_SIZE must be between 1 and 100, got %d", pageSize)
	}
	geoCacheSize, err := envInt("GEOCODE_CACHE_SIZE", 1000)
	if err != nil {
		return nil, err
	}
	if geoCacheSize < 1 {
		return nil, fmt.Errorf("GEOCODE_CACHE_SIZE must be positive, got %d", geoCacheSize)
	}
	smtpPort, err := envInt("SMTP_PORT", 465)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		NewsAPIKey:      os.Getenv("NEWSAPI_KEY"),
		NewsAPIEndpoint: envOrDefault("NEWSAPI_ENDPOINT", "https://newsapi.org/v2/everything"),
		NewsAPIPageSize: pageSize,
		NewsAPITimeout:  newsTimeout,

		GeocodeEndpoint:  envOrDefault("GEOCODE_ENDPOINT", "https://nominatim.openstreetmap.org/search"),
		GeocodeUserAgent: envOrDefault("GEOCODE_USER_AGENT", "disaster-monitor/1.0"),
		GeocodeTimeout:   geoTimeout,
		GeocodeInterval:  geoInterval,
		GeocodeCacheSize: geoCacheSize,

		MongoURI:               os.Getenv("MONGO_URI"),
		DBName:                 os.Getenv("DB_NAME"),
		ArticleCollection:      os.Getenv("ARTICLE_COLLECTION"),
		SubscriptionCollection: os.Getenv("SUBSCRIPTION_COLLECTION"),
		DeliveryCollection:     envOrDefault("DELIVERY_COLLECTION", "deliveries"),

		EmailSender:   os.Getenv("EMAIL_SENDER"),
		EmailPassword: os.Getenv("EMAIL_PASSWORD"),
		SMTPHost:      envOrDefault("SMTP_HOST", "smtp.gmail.com"),
		SMTPPort:      smtpPort,

		KafkaBrokers:   parseBrokers(os.Getenv("KAFKA_BROKERS")),
		KafkaSinkTopic: envOrDefault("KAFKA_SINK_TOPIC", "disaster-records"),

		FetchInterval: fetchInterval,
		AlertInterval: alertInterval,
		AlertWindow:   alertWindow,
		QueryCacheTTL: cacheTTL,

		HTTPAddr:        envOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        envOrDefault("LOG_LEVEL", "info"),
		LogFormat:       envOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,
	}

	return cfg, nil
}

// FeedEnabled reports whether the optional Kafka record feed is configured.
func (c *Config) FeedEnabled() bool {
	return len(c.KafkaBrokers) > 0
}

func envOrDefault(name, fallback string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return fallback
}

func envDuration(name string, fallback time.Duration) (time.Duration, error) {
	s := os.Getenv(name)
	if s == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s: %q", name, s)
	}
	return d, nil
}

func envInt(name string, fallback int) (int, error) {
	s := os.Getenv(name)
	if s == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %q", name, s)
	}
	return n, nil
}

func parseBrokers(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	brokers := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			brokers = append(brokers, p)
		}
	}
	return brokers
}
