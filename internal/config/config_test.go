package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setRequired populates the minimum environment for Load to succeed.
func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("NEWSAPI_KEY", "test-api-key")
	t.Setenv("MONGO_URI", "mongodb://localhost:27017")
	t.Setenv("DB_NAME", "disasters")
	t.Setenv("ARTICLE_COLLECTION", "articles")
	t.Setenv("SUBSCRIPTION_COLLECTION", "subscriptions")
	t.Setenv("EMAIL_SENDER", "alerts@example.com")
	t.Setenv("EMAIL_PASSWORD", "app-password")
}

func TestLoad_Defaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://newsapi.org/v2/everything", cfg.NewsAPIEndpoint)
	assert.Equal(t, 30, cfg.NewsAPIPageSize)
	assert.Equal(t, 10*time.Second, cfg.NewsAPITimeout)
	assert.Equal(t, "https://nominatim.openstreetmap.org/search", cfg.GeocodeEndpoint)
	assert.Equal(t, "disaster-monitor/1.0", cfg.GeocodeUserAgent)
	assert.Equal(t, time.Second, cfg.GeocodeInterval)
	assert.Equal(t, 1000, cfg.GeocodeCacheSize)
	assert.Equal(t, "deliveries", cfg.DeliveryCollection)
	assert.Equal(t, "smtp.gmail.com", cfg.SMTPHost)
	assert.Equal(t, 465, cfg.SMTPPort)
	assert.Empty(t, cfg.KafkaBrokers)
	assert.False(t, cfg.FeedEnabled())
	assert.Equal(t, "disaster-records", cfg.KafkaSinkTopic)
	assert.Equal(t, 30*time.Minute, cfg.FetchInterval)
	assert.Equal(t, 5*time.Minute, cfg.AlertInterval)
	assert.Equal(t, 30*time.Minute, cfg.AlertWindow)
	assert.Equal(t, 10*time.Minute, cfg.QueryCacheTTL)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
}

func TestLoad_CustomEnv(t *testing.T) {
	setRequired(t)
	t.Setenv("NEWSAPI_PAGE_SIZE", "50")
	t.Setenv("NEWSAPI_TIMEOUT", "5s")
	t.Setenv("GEOCODE_INTERVAL", "1500ms")
	t.Setenv("GEOCODE_CACHE_SIZE", "200")
	t.Setenv("KAFKA_BROKERS", "broker1:9092, broker2:9092")
	t.Setenv("ALERT_WINDOW", "1h")
	t.Setenv("LOG_FORMAT", "text")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 50, cfg.NewsAPIPageSize)
	assert.Equal(t, 5*time.Second, cfg.NewsAPITimeout)
	assert.Equal(t, 1500*time.Millisecond, cfg.GeocodeInterval)
	assert.Equal(t, 200, cfg.GeocodeCacheSize)
	assert.Equal(t, []string{"broker1:9092", "broker2:9092"}, cfg.KafkaBrokers)
	assert.True(t, cfg.FeedEnabled())
	assert.Equal(t, time.Hour, cfg.AlertWindow)
	assert.Equal(t, "text", cfg.LogFormat)
}

func TestLoad_MissingRequired(t *testing.T) {
	for _, name := range requiredVars {
		t.Run(name, func(t *testing.T) {
			setRequired(t)
			t.Setenv(name, "")

			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), name)
		})
	}
}

func TestLoad_InvalidDuration(t *testing.T) {
	setRequired(t)
	t.Setenv("GEOCODE_INTERVAL", "not-a-duration")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GEOCODE_INTERVAL")
}

func TestLoad_NegativeDuration(t *testing.T) {
	setRequired(t)
	t.Setenv("ALERT_WINDOW", "-30m")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ALERT_WINDOW")
}

func TestLoad_PageSizeOutOfRange(t *testing.T) {
	setRequired(t)
	t.Setenv("NEWSAPI_PAGE_SIZE", "500")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "NEWSAPI_PAGE_SIZE")
}

func TestLoad_InvalidCacheSize(t *testing.T) {
	setRequired(t)
	t.Setenv("GEOCODE_CACHE_SIZE", "0")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GEOCODE_CACHE_SIZE")
}
